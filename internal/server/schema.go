// schema.go defines the generic response envelope and pagination types of
// the JSON API. Every endpoint wraps its payload in Response, so clients
// can rely on one shape regardless of endpoint.
package server

import "encoding/json"

// Response is the generic API envelope: a machine-readable code, a short
// message, and the typed payload.
type Response[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

// OK wraps a payload in the success envelope.
func OK[T any](data T) Response[T] {
	return Response[T]{Code: 0, Msg: "OK", Data: data}
}

// Page is a paginated collection payload. PageCount is derived, not stored,
// so the two can never disagree; it is included in the JSON rendering.
type Page[T any] struct {
	Items     []T `json:"items"`
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	ItemCount int `json:"itemCount"`
}

// PageCount returns the number of pages needed for ItemCount items.
// Zero items means zero pages.
func (p Page[T]) PageCount() int {
	if p.ItemCount == 0 || p.PageSize <= 0 {
		return 0
	}
	return (p.ItemCount-1)/p.PageSize + 1
}

// MarshalJSON includes the derived PageCount alongside the stored fields.
func (p Page[T]) MarshalJSON() ([]byte, error) {
	type rendered struct {
		Items     []T `json:"items"`
		Page      int `json:"page"`
		PageSize  int `json:"pageSize"`
		ItemCount int `json:"itemCount"`
		PageCount int `json:"pageCount"`
	}
	return json.Marshal(rendered{
		Items:     p.Items,
		Page:      p.Page,
		PageSize:  p.PageSize,
		ItemCount: p.ItemCount,
		PageCount: p.PageCount(),
	})
}

// PageParams are the pagination inputs of list endpoints.
type PageParams struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Normalize clamps the parameters to sane values: page numbering starts at
// 1 and the page size defaults to 20.
func (p PageParams) Normalize() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	return p
}

// Offset returns the item offset of the page for slicing a collection.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
