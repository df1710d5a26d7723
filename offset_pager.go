package gosearch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// PageState is a step of offset page assembly:
//
//	Requested -> ContentFetched -> (CountFetched | CountSkipped) -> Assembled
type PageState int

const (
	PageStateRequested PageState = iota
	PageStateContentFetched
	PageStateCountFetched
	PageStateCountSkipped
	PageStateAssembled
)

func (s PageState) String() string {
	switch s {
	case PageStateRequested:
		return "requested"
	case PageStateContentFetched:
		return "content_fetched"
	case PageStateCountFetched:
		return "count_fetched"
	case PageStateCountSkipped:
		return "count_skipped"
	case PageStateAssembled:
		return "assembled"
	default:
		return fmt.Sprintf("page_state(%d)", int(s))
	}
}

// canDeriveTotal reports whether the total follows from the content alone: the
// page is the last one and it is not past the end of the dataset. An empty
// page beyond the first says nothing about the total.
func canDeriveTotal(offset, contentLen, size int) bool {
	return (offset == 0 || contentLen > 0) && contentLen < size
}

// Search returns one page of the rows matching pred, in the given order.
//
// The count query runs only when the total cannot be derived from the content:
// a short page (fewer rows than Size) is the last one, and its total is
// Offset + len(Content).
//
// Errors:
//   - ErrInvalidArgument: negative page number, non-positive size, bad ordering;
//   - ErrExecution: the content query failed, no page is returned;
//   - *PartialFailureError: the count query failed after the content was
//     fetched. The returned page is valid with TotalKnown == false. Use
//     WithStrictCount to fail the whole page instead.
func Search[T any](
	ctx context.Context,
	exec Executor[T],
	pred Predicate,
	orderings Orderings,
	req PageRequest,
	opts ...Option,
) (*Page[T], error) {
	o := applyOptions(opts)

	applied, accepted, err := req.normalize(o.maxSize)
	if err != nil {
		return nil, fmt.Errorf("cannot search: %w", err)
	}

	if err = orderings.validateOptional(); err != nil {
		return nil, fmt.Errorf("cannot search: %w", err)
	}

	a := &offsetAssembler[T]{
		exec:      exec,
		orderings: orderings,
		pred:      pred,
		req:       applied,
		opts:      o,
		log: o.logger.WithFields(logrus.Fields{
			"strategy": "offset",
			"page":     applied.Number,
			"size":     applied.Size,
			"offset":   applied.Offset(),
		}),
	}

	if !accepted {
		a.log.WithField("requested_size", req.Size).Debug("page size clamped")
	}

	a.count = o.countFunc
	if a.count == nil {
		a.count = func(ctx context.Context) (int64, error) {
			return exec.Count(ctx, pred)
		}
	}

	if o.concurrentCount {
		return a.runConcurrent(ctx)
	}

	return a.run(ctx)
}

type offsetAssembler[T any] struct {
	exec      Executor[T]
	count     CountFunc
	pred      Predicate
	orderings Orderings
	req       PageRequest
	opts      options
	log       logrus.FieldLogger

	state PageState
	page  Page[T]
}

func (a *offsetAssembler[T]) transition(to PageState) {
	a.log.WithFields(logrus.Fields{"from": a.state, "to": to}).Debug("page state")
	a.state = to
}

func (a *offsetAssembler[T]) query() Query {
	return Query{
		Predicate: a.pred,
		Orderings: a.orderings,
		Offset:    a.req.Offset(),
		Limit:     a.req.Size,
	}
}

func (a *offsetAssembler[T]) contentFetched(content []T) {
	a.page = Page[T]{
		Content: content,
		Number:  a.req.Number,
		Size:    a.req.Size,
		Offset:  a.req.Offset(),
	}
	a.transition(PageStateContentFetched)
}

// skipCount applies the short-page rule. Returns false when a count is needed.
func (a *offsetAssembler[T]) skipCount() bool {
	if !canDeriveTotal(a.page.Offset, len(a.page.Content), a.page.Size) {
		return false
	}

	a.page.Total = int64(a.page.Offset + len(a.page.Content))
	a.page.TotalKnown = true
	a.page.CountSkipped = true
	a.transition(PageStateCountSkipped)

	return true
}

func (a *offsetAssembler[T]) countFetched(total int64) {
	a.page.Total = total
	a.page.TotalKnown = true
	a.transition(PageStateCountFetched)
}

func (a *offsetAssembler[T]) countFailed(err error) (*Page[T], error) {
	err = executionError("count query", err)
	if a.opts.strictCount {
		return nil, err
	}

	a.log.WithError(err).Debug("count failed, returning partial page")
	a.transition(PageStateAssembled)

	return &a.page, &PartialFailureError{Err: err}
}

func (a *offsetAssembler[T]) assemble() *Page[T] {
	a.transition(PageStateAssembled)
	return &a.page
}

func (a *offsetAssembler[T]) run(ctx context.Context) (*Page[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := a.exec.Execute(ctx, a.query())
	if err != nil {
		return nil, executionError("content query", err)
	}
	a.contentFetched(content)

	if a.skipCount() {
		return a.assemble(), nil
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	total, err := a.count(ctx)
	if err != nil {
		return a.countFailed(err)
	}
	a.countFetched(total)

	return a.assemble(), nil
}

// runConcurrent overlaps the content and count queries. A content failure
// cancels the count; a count failure never cancels the content.
func (a *offsetAssembler[T]) runConcurrent(ctx context.Context) (*Page[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	countCtx, cancelCount := context.WithCancel(gctx)
	defer cancelCount()

	var (
		content  []T
		total    int64
		countErr error
	)

	g.Go(func() error {
		var err error
		content, err = a.exec.Execute(gctx, a.query())
		if err != nil {
			return executionError("content query", err)
		}

		if canDeriveTotal(a.req.Offset(), len(content), a.req.Size) {
			cancelCount()
		}

		return nil
	})

	g.Go(func() error {
		total, countErr = a.count(countCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.contentFetched(content)

	if a.skipCount() {
		return a.assemble(), nil
	}

	if countErr != nil {
		return a.countFailed(countErr)
	}
	a.countFetched(total)

	return a.assemble(), nil
}
