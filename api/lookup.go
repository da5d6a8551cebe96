package api

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/types"
)

// maxLookupAddresses caps the comma separated address list a single
// lookup may name.
const maxLookupAddresses = 128

// splitAddresses parses a comma separated address list. Empty segments
// are dropped, duplicates collapse, every survivor must be well formed.
func (api *API) splitAddresses(raw string) (map[string]bool, error) {
	prefix := api.core.Config().AddressPrefix
	out := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !crypto.IsValidAddress(prefix, part) {
			return nil, core.ErrInvalidParameter("addresses")
		}
		out[part] = true
	}
	if len(out) > maxLookupAddresses {
		return nil, core.ErrLargeParameter("addresses")
	}
	return out, nil
}

// orderParams reads the orderBy and order query parameters against a
// set of sortable columns.
func orderParams(r *http.Request, allowed map[string]bool, def string) (string, bool, error) {
	orderBy := r.URL.Query().Get("orderBy")
	if orderBy == "" {
		orderBy = def
	}
	if !allowed[orderBy] {
		return "", false, core.ErrInvalidParameter("orderBy")
	}
	var desc bool
	switch strings.ToUpper(r.URL.Query().Get("order")) {
	case "", "ASC":
	case "DESC":
		desc = true
	default:
		return "", false, core.ErrInvalidParameter("order")
	}
	return orderBy, desc, nil
}

// pageSlice applies offset and limit to an in-memory result set.
func pageSlice[T any](list []T, limit, offset uint64) []T {
	if offset >= uint64(len(list)) {
		return nil
	}
	list = list[offset:]
	if uint64(len(list)) > limit {
		list = list[:limit]
	}
	return list
}

func (api *API) lookupAddressesHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addrs, err := api.splitAddresses(ps.ByName("addresses"))
	if err != nil {
		writeError(w, err)
		return
	}
	fetchNames := boolQuery(r, "fetchNames")

	found, notFound := 0, 0
	out := make(map[string]interface{}, len(addrs))
	for addr := range addrs {
		a, err := api.core.GetAddress(addr)
		if errors.Is(err, core.ErrAddressNotFound) {
			out[addr] = nil
			notFound++
			continue
		}
		if err != nil {
			writeError(w, err)
			return
		}
		var names *uint64
		if fetchNames {
			n, err := api.core.NamesOwned(addr)
			if err != nil {
				writeError(w, err)
				return
			}
			names = &n
		}
		out[addr] = a.View(names)
		found++
	}
	writeJSON(w, map[string]interface{}{
		"found":     found,
		"notFound":  notFound,
		"addresses": out,
	})
}

var blockOrderColumns = map[string]bool{
	"height": true, "address": true, "hash": true,
	"value": true, "time": true, "difficulty": true,
}

func (api *API) lookupBlocksHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	orderBy, desc, err := orderParams(r, blockOrderColumns, "height")
	if err != nil {
		writeError(w, err)
		return
	}

	_, total, err := api.core.ListBlocks(0, 0, false)
	if err != nil {
		writeError(w, err)
		return
	}
	all, _, err := api.core.ListBlocks(total, 0, false)
	if err != nil {
		writeError(w, err)
		return
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if desc {
			a, b = b, a
		}
		switch orderBy {
		case "address":
			return a.Address < b.Address
		case "hash":
			return a.Hash < b.Hash
		case "value":
			return a.Value < b.Value
		case "time":
			return a.Time.Before(b.Time)
		case "difficulty":
			return a.Difficulty < b.Difficulty
		default:
			return a.Height < b.Height
		}
	})
	page := pageSlice(all, limit, offset)
	writeJSON(w, listPayload("blocks", uint64(len(all)), blockViews(page), len(page)))
}

var txOrderColumns = map[string]bool{
	"id": true, "from": true, "to": true, "value": true, "time": true,
}

func (api *API) lookupTransactionsHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addrs, err := api.splitAddresses(ps.ByName("addresses"))
	if err != nil {
		writeError(w, err)
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	orderBy, desc, err := orderParams(r, txOrderColumns, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	includeMined := boolQuery(r, "includeMined")

	var all []*types.Transaction
	err = api.core.ForEachTransaction(func(tx *types.Transaction) error {
		if !includeMined && tx.Type() == types.TxMined {
			return nil
		}
		if len(addrs) > 0 && !addrs[tx.From] && !addrs[tx.To] {
			return nil
		}
		all = append(all, tx)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if desc {
			a, b = b, a
		}
		switch orderBy {
		case "from":
			return a.From < b.From
		case "to":
			return a.To < b.To
		case "value":
			return a.Value < b.Value
		case "time":
			return a.Time.Before(b.Time)
		default:
			return a.ID < b.ID
		}
	})
	page := pageSlice(all, limit, offset)
	writeJSON(w, listPayload("transactions", uint64(len(all)), transactionViews(page), len(page)))
}

var nameOrderColumns = map[string]bool{
	"name": true, "owner": true, "original_owner": true,
	"registered": true, "updated": true, "unpaid": true,
}

func (api *API) lookupNamesHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addrs, err := api.splitAddresses(ps.ByName("addresses"))
	if err != nil {
		writeError(w, err)
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	orderBy, desc, err := orderParams(r, nameOrderColumns, "name")
	if err != nil {
		writeError(w, err)
		return
	}

	_, total, err := api.names.List(0, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	full, _, err := api.names.List(total, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	all := full
	if len(addrs) > 0 {
		all = full[:0]
		for _, n := range full {
			if addrs[n.Owner] {
				all = append(all, n)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if desc {
			a, b = b, a
		}
		switch orderBy {
		case "owner":
			return a.Owner < b.Owner
		case "original_owner":
			return a.OriginalOwner < b.OriginalOwner
		case "registered":
			return a.Registered.Before(b.Registered)
		case "updated":
			return a.Updated.Before(b.Updated)
		case "unpaid":
			return a.Unpaid < b.Unpaid
		default:
			return a.Name < b.Name
		}
	})
	page := pageSlice(all, limit, offset)
	writeJSON(w, listPayload("names", uint64(len(all)), nameViews(page), len(page)))
}
