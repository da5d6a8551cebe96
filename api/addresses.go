package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/tenebra-network/gtenebra/types"
)

func (api *API) addressesHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, total, err := api.core.ListAddresses(limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, listPayload("addresses", total, addressViews(list), len(list)))
}

// addressHandler serves a single address. The rich list rides on the
// same wildcard.
func (api *API) addressHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addr := ps.ByName("address")
	if addr == "rich" {
		api.richHandler(w, r)
		return
	}
	a, err := api.core.GetAddress(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	var names *uint64
	if boolQuery(r, "fetchNames") {
		n, err := api.core.NamesOwned(a.Address)
		if err != nil {
			writeError(w, err)
			return
		}
		names = &n
	}
	writeJSON(w, map[string]interface{}{"address": a.View(names)})
}

func (api *API) richHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, total, err := api.core.ListRichAddresses(limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, listPayload("addresses", total, addressViews(list), len(list)))
}

func (api *API) addressNamesHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, total, err := api.names.ByOwner(ps.ByName("address"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, listPayload("names", total, nameViews(list), len(list)))
}

func (api *API) addressTransactionsHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, total, err := api.core.ListAddressTransactions(ps.ByName("address"), limit, offset, boolQuery(r, "excludeMined"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, listPayload("transactions", total, transactionViews(list), len(list)))
}

func addressViews(list []*types.Address) []*types.AddressView {
	out := make([]*types.AddressView, len(list))
	for i, a := range list {
		out[i] = a.View(nil)
	}
	return out
}

func transactionViews(list []*types.Transaction) []*types.TransactionView {
	out := make([]*types.TransactionView, len(list))
	for i, tx := range list {
		out[i] = tx.View()
	}
	return out
}

func nameViews(list []*types.Name) []*types.NameView {
	out := make([]*types.NameView, len(list))
	for i, n := range list {
		out[i] = n.View()
	}
	return out
}

func blockViews(list []*types.Block) []*types.BlockView {
	out := make([]*types.BlockView, len(list))
	for i, b := range list {
		out[i] = b.View()
	}
	return out
}
