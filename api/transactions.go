package api

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/tenebra-network/gtenebra/core"
)

func (api *API) transactionsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.listTransactions(w, r, false)
}

// transactionHandler serves a single transaction; the latest alias
// rides on the same wildcard.
func (api *API) transactionHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	raw := ps.ByName("id")
	if raw == "latest" {
		api.listTransactions(w, r, true)
		return
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, core.ErrInvalidParameter("id"))
		return
	}
	tx, err := api.core.GetTransaction(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"transaction": tx.View()})
}

func (api *API) listTransactions(w http.ResponseWriter, r *http.Request, newestFirst bool) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, total, err := api.core.ListTransactions(limit, offset, newestFirst, boolQuery(r, "excludeMined"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, listPayload("transactions", total, transactionViews(list), len(list)))
}

func (api *API) makeTransactionHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b, err := parseBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := b.uint("amount")
	if err != nil {
		writeError(w, err)
		return
	}
	tx, err := api.core.MakeTransaction(b.get("privatekey"), b.get("to"), amount, b.get("metadata"), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"transaction": tx.View()})
}
