package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// wsStartHandler hands out a single use gateway URL. A private key in
// the body starts the session authenticated as that address.
func (api *API) wsStartHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b, err := parseBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	url, expires, err := api.hub.StartSession(b.get("privatekey"), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"url":     url,
		"expires": expires,
	})
}

// wsGatewayHandler upgrades a gateway URL to a websocket session. Once
// the upgrade succeeds the hub owns the connection; errors before that
// answer as plain HTTP.
func (api *API) wsGatewayHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := api.hub.ServeGateway(w, r, ps.ByName("token"), requestMeta(r)); err != nil {
		writeError(w, err)
	}
}
