// Package listing holds the bookkeeping shared by the offset-paged list views.
package listing

// Window tracks the offset and has-more flag of a "Load More" list.
//
// The upstream functions return at most limit rows and no total count, so a
// full batch is the only signal that another batch may exist.
type Window struct {
	Limit   int
	Offset  int
	HasMore bool
}

// NewWindow starts a window at offset. A non-positive limit falls back to def.
func NewWindow(limit, offset, def int) Window {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return Window{Limit: limit, Offset: offset}
}

// Advance records a returned batch of n rows.
func (w *Window) Advance(n int) {
	w.HasMore = n == w.Limit
	w.Offset += n
}

// NextOffset is the offset for the following "Load More" request.
func (w Window) NextOffset() int {
	return w.Offset
}
