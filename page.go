package gosearch

import (
	"math"

	"github.com/samber/lo"
)

// PageRequest addresses a page by zero-based number and size.
type PageRequest struct {
	Number int `json:"page"`
	Size   int `json:"size"`
}

// NewPageRequest is a shorthand for PageRequest{Number: number, Size: size}.
func NewPageRequest(number, size int) PageRequest {
	return PageRequest{Number: number, Size: size}
}

// Offset returns Number * Size.
func (r PageRequest) Offset() int {
	return r.Number * r.Size
}

// normalize validates the request and clamps its size to maxSize.
func (r PageRequest) normalize(maxSize int) (PageRequest, bool, error) {
	if r.Number < 0 {
		return r, false, invalidArgumentf("page number must not be negative, got %d", r.Number)
	}

	size, accepted, err := IsNormalizedLimitMax(r.Size, maxSize)
	if err != nil {
		return r, false, err
	}

	if r.Number > math.MaxInt/size {
		return r, false, invalidArgumentf("page number %d is out of range", r.Number)
	}

	return PageRequest{Number: r.Number, Size: size}, accepted, nil
}

// Page is a window of an offset-paginated result.
type Page[T any] struct {
	Content []T `json:"content"`
	// Number and Size echo the applied request; Size may be smaller than
	// requested if it was clamped.
	Number int `json:"page"`
	Size   int `json:"size"`
	Offset int `json:"offset"`
	// Total is the number of matching rows. Valid only when TotalKnown.
	Total      int64 `json:"total"`
	TotalKnown bool  `json:"totalKnown"`
	// CountSkipped reports that Total was derived from the content without a
	// count query.
	CountSkipped bool `json:"-"`
}

// TotalPages returns the number of pages of Size rows. The boolean is false
// when the total is unknown.
func (p *Page[T]) TotalPages() (int, bool) {
	if p == nil || !p.TotalKnown || p.Size <= 0 {
		return 0, false
	}

	return int((p.Total + int64(p.Size) - 1) / int64(p.Size)), true
}

// HasNext reports whether rows remain after this page. With an unknown total
// a full page is taken as a hint that more rows exist.
func (p *Page[T]) HasNext() bool {
	if p == nil {
		return false
	}

	if p.TotalKnown {
		return int64(p.Offset+len(p.Content)) < p.Total
	}

	return len(p.Content) == p.Size
}

// IsLast is the negation of HasNext.
func (p *Page[T]) IsLast() bool {
	return !p.HasNext()
}

// MapPage converts the content of a page, keeping its metadata.
func MapPage[From, To any](p *Page[From], fn func(From) To) *Page[To] {
	if p == nil {
		return nil
	}

	return &Page[To]{
		Content:      lo.Map(p.Content, func(item From, _ int) To { return fn(item) }),
		Number:       p.Number,
		Size:         p.Size,
		Offset:       p.Offset,
		Total:        p.Total,
		TotalKnown:   p.TotalKnown,
		CountSkipped: p.CountSkipped,
	}
}
