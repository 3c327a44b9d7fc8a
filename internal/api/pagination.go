package api

import (
	"encoding/json"
	"net/http"

	"github.com/spf13/cast"
)

// xPagination is the JSON shape of the X-Pagination response header.
type xPagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// paginate slices items per spec §4.1's pagination helper: if the limit
// query param is a non-negative integer, it returns items[offset:offset+limit]
// (offset defaults to 0, out-of-range slices to empty) and the header value
// to attach; if limit is absent (or not a valid non-negative integer) it
// returns items untouched with no header.
func paginate(r *http.Request, items []interface{}) ([]interface{}, string, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return items, "", false
	}
	limit, err := cast.ToIntE(limitStr)
	if err != nil || limit < 0 {
		return items, "", false
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := cast.ToIntE(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	total := len(items)
	header, _ := json.Marshal(xPagination{Limit: limit, Offset: offset, Total: total})

	if offset >= total {
		return []interface{}{}, string(header), true
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return items[offset:end], string(header), true
}

// queryInt parses a query parameter as an int, reporting false if absent
// or not a valid integer (spec §4.2: "unknown/non-integer params are
// treated as absent").
func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
