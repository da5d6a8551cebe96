// Package api is the JSON/HTTP face of the node. It is a thin adapter:
// handlers parse and validate wire input, call into the engines and
// wrap the result in the {ok: ...} envelope. All ledger rules live
// below it.
package api

import (
	"net/http"

	lru "github.com/hashicorp/golang-lru"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/names"
	"github.com/tenebra-network/gtenebra/sessions"
	"github.com/tenebra-network/gtenebra/staking"
	"golang.org/x/time/rate"
)

// Config carries the adapter level knobs. The zero value disables rate
// limiting, which is what tests want.
type Config struct {
	// PublicURL is the address clients are told to reach the node on,
	// echoed in the motd payload.
	PublicURL string

	// RateLimit is the sustained per client request rate in requests
	// per second; RateBurst is the bucket size. Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// DefaultConfig is what the node runs with unless overridden.
var DefaultConfig = Config{
	RateLimit: 25,
	RateBurst: 50,
}

// API glues the engines to the HTTP surface.
type API struct {
	cfg     Config
	core    *core.Core
	names   *names.Registry
	staking *staking.Engine
	hub     *sessions.Hub

	// limiters maps client IPs to their token buckets. LRU keeps the
	// map bounded under address churn.
	limiters *lru.Cache
}

// New wires an API over the engines.
func New(cfg Config, c *core.Core, reg *names.Registry, st *staking.Engine, hub *sessions.Hub) (*API, error) {
	limiters, err := lru.New(4096)
	if err != nil {
		return nil, err
	}
	return &API{
		cfg:      cfg,
		core:     c,
		names:    reg,
		staking:  st,
		hub:      hub,
		limiters: limiters,
	}, nil
}

// Router returns the fully wired handler: routes under CORS and the
// rate limiter.
func (api *API) Router() http.Handler {
	router := httprouter.New()
	router.RedirectTrailingSlash = true
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, &core.Error{Kind: "not_found", Status: http.StatusNotFound})
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, &core.Error{Kind: "method_not_allowed", Status: http.StatusMethodNotAllowed})
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		log.Error("Request handler panicked", "path", r.URL.Path, "err", v)
		writeError(w, core.ErrServer)
	}

	api.buildRoutes(router)

	handler := api.rateLimit(router)
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	}).Handler(handler)
}

// rateLimit applies a per client token bucket. The websocket gateway
// is exempt; it is already gated by single use tokens.
func (api *API) rateLimit(next http.Handler) http.Handler {
	if api.cfg.RateLimit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !api.allow(remoteIP(r)) {
			writeError(w, core.ErrRateLimit)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (api *API) allow(ip string) bool {
	if v, ok := api.limiters.Get(ip); ok {
		return v.(*rate.Limiter).Allow()
	}
	l := rate.NewLimiter(rate.Limit(api.cfg.RateLimit), api.cfg.RateBurst)
	api.limiters.Add(ip, l)
	return l.Allow()
}
