package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/tenebra-network/gtenebra/core"
)

func (api *API) namesHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, total, err := api.names.List(limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, listPayload("names", total, nameViews(list), len(list)))
}

// nameHandler serves a single name; the new, cost and bonus aliases
// ride on the same wildcard.
func (api *API) nameHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	switch ps.ByName("name") {
	case "new":
		limit, offset, err := pagination(r)
		if err != nil {
			writeError(w, err)
			return
		}
		list, total, err := api.names.Newest(limit, offset)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, listPayload("names", total, nameViews(list), len(list)))
		return
	case "cost":
		writeJSON(w, map[string]interface{}{"name_cost": api.names.Cost()})
		return
	case "bonus":
		bonus, err := api.names.Bonus()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{"name_bonus": bonus})
		return
	}
	n, err := api.names.Get(ps.ByName("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"name": n.View()})
}

// nameSubHandler covers the two segment GET forms under /names. Only
// the availability check lives here.
func (api *API) nameSubHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("name") != "check" {
		writeError(w, &core.Error{Kind: "not_found", Status: http.StatusNotFound})
		return
	}
	available, err := api.names.Available(ps.ByName("sub"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"available": available})
}

func (api *API) purchaseNameHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := parseBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := api.names.Purchase(b.get("privatekey"), ps.ByName("name"), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"name": n.View()})
}

func (api *API) transferNameHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := parseBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := api.names.Transfer(b.get("privatekey"), ps.ByName("name"), b.get("address"), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"name": n.View()})
}

func (api *API) updateNameHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := parseBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := api.names.UpdateARecord(b.get("privatekey"), ps.ByName("name"), b.get("a"), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"name": n.View()})
}
