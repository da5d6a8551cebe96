package api

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/tenebra-network/gtenebra/core"
)

func (api *API) blocksHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, total, err := api.core.ListBlocks(limit, offset, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, listPayload("blocks", total, blockViews(list), len(list)))
}

// blockHandler serves a single block; the last and lowest aliases ride
// on the same wildcard.
func (api *API) blockHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	raw := ps.ByName("height")
	switch raw {
	case "last":
		b, err := api.core.GetLastBlock()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{"block": b.View()})
		return
	case "lowest":
		b, err := api.core.LowestHashBlock()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{"block": b.View()})
		return
	}
	height, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, core.ErrInvalidParameter("height"))
		return
	}
	b, err := api.core.GetBlock(height)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"block": b.View()})
}

func (api *API) submitBlockHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b, err := parseBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	nonce, err := b.bytes("nonce")
	if err != nil {
		writeError(w, err)
		return
	}
	block, work, err := api.core.SubmitBlock(b.get("address"), nonce, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	payload := map[string]interface{}{
		"success": true,
		"work":    work,
		"block":   block.View(),
	}
	if a, err := api.core.GetAddress(block.Address); err == nil {
		payload["address"] = a.View(nil)
	}
	writeJSON(w, payload)
}
