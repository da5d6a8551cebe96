package api

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/log"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000

	// maxBodySize bounds request bodies; the largest legitimate body is
	// a transaction with full metadata.
	maxBodySize = 1 << 20
)

func writeJSON(w http.ResponseWriter, payload map[string]interface{}) {
	payload["ok"] = true
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Debug("Failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	e := core.ErrServer
	var cerr *core.Error
	if errors.As(err, &cerr) {
		e = cerr
	} else {
		log.Error("Request failed", "err", err)
	}
	payload := map[string]interface{}{"ok": false, "error": e.Kind}
	if e.Param != "" {
		payload["parameter"] = e.Param
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Debug("Failed to write error response", "err", err)
	}
}

// listPayload is the common shape of paginated collections.
func listPayload(key string, total uint64, items interface{}, count int) map[string]interface{} {
	return map[string]interface{}{
		key:     items,
		"count": count,
		"total": total,
	}
}

// remoteIP resolves the client address, preferring the proxy headers a
// fronting server sets.
func remoteIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestMeta(r *http.Request) core.RequestMeta {
	return core.RequestMeta{
		IP:        remoteIP(r),
		UserAgent: r.Header.Get("User-Agent"),
		Origin:    r.Header.Get("Origin"),
	}
}

// body gives handlers uniform parameter access whether the client sent
// JSON, a form body or query parameters.
type body struct {
	r    *http.Request
	json map[string]interface{}
}

func parseBody(r *http.Request) (*body, error) {
	b := &body{r: r}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
		dec.UseNumber()
		m := make(map[string]interface{})
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, core.ErrInvalidParameter("body")
		}
		b.json = m
		return b, nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		return nil, core.ErrInvalidParameter("body")
	}
	return b, nil
}

// get returns a parameter as a string. JSON scalars are stringified;
// form and query values fall through as-is.
func (b *body) get(name string) string {
	if b.json != nil {
		switch v := b.json[name].(type) {
		case string:
			return v
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		}
		return b.r.URL.Query().Get(name)
	}
	return b.r.FormValue(name)
}

// uint returns a numeric parameter, distinguishing absent from
// malformed.
func (b *body) uint(name string) (uint64, error) {
	raw := b.get(name)
	if raw == "" {
		return 0, core.ErrMissingParameter(name)
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, core.ErrInvalidParameter(name)
	}
	return n, nil
}

// bytes returns a parameter that may arrive as a string or, in JSON
// bodies, as an array of byte values. Miners use both for nonces.
func (b *body) bytes(name string) ([]byte, error) {
	if b.json != nil {
		if arr, ok := b.json[name].([]interface{}); ok {
			out := make([]byte, len(arr))
			for i, item := range arr {
				num, ok := item.(json.Number)
				if !ok {
					return nil, core.ErrInvalidParameter(name)
				}
				v, err := num.Int64()
				if err != nil || v < 0 || v > 255 {
					return nil, core.ErrInvalidParameter(name)
				}
				out[i] = byte(v)
			}
			return out, nil
		}
	}
	return []byte(b.get(name)), nil
}

// pagination reads limit and offset from the query string, applying
// the usual defaults and bounds.
func pagination(r *http.Request) (limit, offset uint64, err error) {
	limit = defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.ParseUint(raw, 10, 64)
		if err != nil || limit < 1 {
			return 0, 0, core.ErrInvalidParameter("limit")
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, 0, core.ErrInvalidParameter("offset")
		}
	}
	return limit, offset, nil
}

// boolQuery reads a boolean flag from the query string. Presence with
// no value counts as true.
func boolQuery(r *http.Request, name string) bool {
	if !r.URL.Query().Has(name) {
		return false
	}
	v := r.URL.Query().Get(name)
	return v == "" || v == "true" || v == "1"
}
