package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/types"
)

// searchTerms classifies a raw search query: which ledger entities the
// string could possibly denote.
type searchTerms struct {
	query        string
	stripped     string
	id           uint64
	matchAddress bool
	matchName    bool
	matchID      bool
}

func (api *API) classify(q string) searchTerms {
	cfg := api.core.Config()
	t := searchTerms{query: strings.TrimSpace(q)}
	t.matchAddress = crypto.IsValidAddress(cfg.AddressPrefix, t.query)
	t.stripped = crypto.CleanName(t.query, cfg.NameSuffix)
	t.matchName = crypto.IsValidFetchName(t.stripped)
	if id, err := strconv.ParseUint(t.query, 10, 64); err == nil && id > 0 {
		t.id, t.matchID = id, true
	}
	return t
}

func searchQueryParam(r *http.Request) (string, error) {
	if !r.URL.Query().Has("q") {
		return "", core.ErrMissingParameter("q")
	}
	return r.URL.Query().Get("q"), nil
}

// searchHandler resolves a query string to the entities it names
// exactly: an address, a name, a block height, a transaction id.
func (api *API) searchHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q, err := searchQueryParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	t := api.classify(q)

	var exactAddress interface{}
	if t.matchAddress {
		a, err := api.core.GetAddress(t.query)
		if err != nil && !errors.Is(err, core.ErrAddressNotFound) {
			writeError(w, err)
			return
		}
		if a != nil {
			exactAddress = a.View(nil)
		}
	}
	var exactName interface{}
	if t.matchName {
		n, err := api.names.Get(t.stripped)
		if err != nil && !errors.Is(err, core.ErrNameNotFound) {
			writeError(w, err)
			return
		}
		if n != nil {
			exactName = n.View()
		}
	}
	var exactBlock, exactTransaction interface{}
	if t.matchID {
		b, err := api.core.GetBlock(t.id)
		if err != nil && !errors.Is(err, core.ErrBlockNotFound) {
			writeError(w, err)
			return
		}
		if b != nil {
			exactBlock = b.View()
		}
		tx, err := api.core.GetTransaction(t.id)
		if err != nil && !errors.Is(err, core.ErrTransactionNotFound) {
			writeError(w, err)
			return
		}
		if tx != nil {
			exactTransaction = tx.View()
		}
	}

	writeJSON(w, map[string]interface{}{
		"query": map[string]interface{}{
			"originalQuery":    t.query,
			"matchAddress":     t.matchAddress,
			"matchName":        t.matchName,
			"strippedName":     t.stripped,
			"matchBlock":       t.matchID,
			"matchTransaction": t.matchID,
		},
		"matches": map[string]interface{}{
			"exactAddress":     exactAddress,
			"exactName":        exactName,
			"exactBlock":       exactBlock,
			"exactTransaction": exactTransaction,
		},
	})
}

// searchExtendedHandler counts the transactions a query would surface,
// per match category, without returning the rows themselves.
func (api *API) searchExtendedHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q, err := searchQueryParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	t := api.classify(q)
	if len(t.query) < 3 {
		writeError(w, core.ErrInvalidParameter("q"))
		return
	}

	var addressCount, nameCount, metadataCount int
	err = api.core.ForEachTransaction(func(tx *types.Transaction) error {
		if t.matchAddress && (tx.From == t.query || tx.To == t.query) {
			addressCount++
		}
		if t.matchName && txInvolvesName(tx, t.stripped) {
			nameCount++
		}
		if strings.Contains(tx.Metadata, t.query) {
			metadataCount++
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	var addressInvolved, nameInvolved interface{}
	if t.matchAddress {
		addressInvolved = addressCount
	}
	if t.matchName {
		nameInvolved = nameCount
	}
	writeJSON(w, map[string]interface{}{
		"query": map[string]interface{}{
			"originalQuery": t.query,
			"matchAddress":  t.matchAddress,
			"matchName":     t.matchName,
			"strippedName":  t.stripped,
		},
		"matches": map[string]interface{}{
			"transactions": map[string]interface{}{
				"addressInvolved": addressInvolved,
				"nameInvolved":    nameInvolved,
				"metadata":        metadataCount,
			},
		},
	})
}

// searchResultsHandler pages through one category of extended search
// results, newest first.
func (api *API) searchResultsHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q, err := searchQueryParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	includeMined := boolQuery(r, "includeMined")
	t := api.classify(q)
	if len(t.query) < 3 {
		writeError(w, core.ErrInvalidParameter("q"))
		return
	}

	var match func(*types.Transaction) bool
	switch ps.ByName("type") {
	case "address":
		if !t.matchAddress {
			writeError(w, core.ErrInvalidParameter("q"))
			return
		}
		match = func(tx *types.Transaction) bool {
			return tx.From == t.query || tx.To == t.query
		}
	case "name":
		if !t.matchName {
			writeError(w, core.ErrInvalidParameter("q"))
			return
		}
		match = func(tx *types.Transaction) bool {
			return txInvolvesName(tx, t.stripped)
		}
	case "metadata":
		match = func(tx *types.Transaction) bool {
			return strings.Contains(tx.Metadata, t.query)
		}
	default:
		writeError(w, core.ErrInvalidParameter("type"))
		return
	}

	var all []*types.Transaction
	err = api.core.ForEachTransaction(func(tx *types.Transaction) error {
		if !includeMined && tx.Type() == types.TxMined {
			return nil
		}
		if match(tx) {
			all = append(all, tx)
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	page := pageSlice(all, limit, offset)
	writeJSON(w, listPayload("transactions", uint64(len(all)), transactionViews(page), len(page)))
}

func txInvolvesName(tx *types.Transaction, name string) bool {
	return tx.Name == name || tx.SentName == name || tx.SentMetaname == name
}
