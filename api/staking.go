package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (api *API) stakesHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, total, err := api.staking.List(limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, listPayload("stakes", total, list, len(list)))
}

// stakeHandler serves one address's stake; the validator and penalties
// aliases ride on the same wildcard.
func (api *API) stakeHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	switch ps.ByName("address") {
	case "validator":
		writeJSON(w, map[string]interface{}{"validator": api.staking.Validator()})
		return
	case "penalties":
		penalties, err := api.staking.Penalties()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{
			"count":     len(penalties),
			"penalties": penalties,
		})
		return
	}
	stake, err := api.staking.Get(ps.ByName("address"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"stake": stake})
}

func (api *API) depositHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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
	stake, err := api.staking.Deposit(b.get("privatekey"), amount, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"stake": stake})
}

func (api *API) withdrawHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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
	stake, err := api.staking.Withdraw(b.get("privatekey"), amount, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"stake": stake})
}
