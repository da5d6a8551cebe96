package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/tenebra-network/gtenebra/sessions"
)

// motdHandler serves the aggregated node status. The homepage serves
// the same payload so bare GETs against the node are useful.
func (api *API) motdHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, sessions.MOTD(api.core, api.cfg.PublicURL, api.core.Now()))
}

func (api *API) supplyHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	supply, err := api.core.Supply()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"supply": supply})
}

func (api *API) workHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, map[string]interface{}{"work": api.core.CurrentWork()})
}

func (api *API) workDayHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, map[string]interface{}{"work": api.core.WorkOverTime()})
}

func (api *API) workDetailedHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	dw, err := api.core.GetDetailedWork()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"work":        dw.Work,
		"unpaid":      dw.Unpaid,
		"base_value":  dw.BaseValue,
		"block_value": dw.BlockValue,
		"decrease":    dw.Decrease,
	})
}

// loginHandler checks a private key against the ledger's auth
// contract. A failed check is a negative answer, not an error.
func (api *API) loginHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b, err := parseBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	a, authed, err := api.core.Authenticate(b.get("privatekey"), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	payload := map[string]interface{}{"authed": authed}
	if authed {
		payload["address"] = a.Address
	}
	writeJSON(w, payload)
}
