package gosearch

import "github.com/sirupsen/logrus"

// Option configures a single Search or SearchByCursor call.
//
// Example:
//
//	page, err := gosearch.Search(ctx, exec, pred, orderings, req,
//		gosearch.WithMaxSize(50),
//		gosearch.WithLogger(log),
//	)
type Option func(*options)

type options struct {
	logger          logrus.FieldLogger
	maxSize         int
	strictCount     bool
	concurrentCount bool
	countFunc       CountFunc
	lookahead       bool
}

func applyOptions(opts []Option) options {
	o := options{
		logger:  logrus.StandardLogger(),
		maxSize: MaxLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithLogger sets the logger used for debug traces of page assembly.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxSize sets the maximum page size or limit. Larger requests are
// clamped to it.
func WithMaxSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.maxSize = size
		}
	}
}

// WithStrictCount makes a failed count query fail the whole page instead of
// returning the content with a *PartialFailureError.
func WithStrictCount() Option {
	return func(o *options) {
		o.strictCount = true
	}
}

// WithConcurrentCount runs the content and count queries concurrently.
//
// IMPORTANT:
// Use it only when the executor reads from a snapshot-consistent source (a
// read replica, a repeatable-read transaction). Otherwise concurrent writes
// may let total and content disagree. The count is always executed in this
// mode; its result is discarded when the total can be derived from the
// content.
func WithConcurrentCount() Option {
	return func(o *options) {
		o.concurrentCount = true
	}
}

// WithCountFunc replaces Executor.Count with a custom count query, e.g. one
// that omits joins needed only by the projection.
func WithCountFunc(count CountFunc) Option {
	return func(o *options) {
		o.countFunc = count
	}
}

// WithCursorLookahead fetches one extra row in SearchByCursor so that
// CursorPage.HasMore is exact instead of a hint.
func WithCursorLookahead() Option {
	return func(o *options) {
		o.lookahead = true
	}
}
