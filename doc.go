// Package gosearch composes optional filter conditions into GORM predicates and
// paginates the filtered dataset.
//
// Overview
//
// gosearch is built from a few small pieces:
//   - Fragment: one optional filter condition ("username = ?"). A fragment
//     built from an absent value (nil pointer, blank string, empty set) is
//     itself absent and is dropped during composition.
//   - Predicate: the AND of all present fragments, produced by Compose. A
//     predicate without fragments matches every row.
//   - Executor: the storage boundary. It runs a Query (predicate, ordering,
//     window) and, separately, a count. GORMExecutor adapts *gorm.DB.
//   - OffsetPager: page-number pagination. The count query is deferred and
//     skipped whenever the total can be derived from the content itself.
//   - CursorPager: keyset ("no-offset") pagination using comparison operators
//     against the last element of the previous page. Cost depends on the
//     limit, not on the page depth. FetchCovering splits a window into a narrow
//     key scan and a row fetch by key set.
//
// The executor is always passed explicitly; the package keeps no shared state.
package gosearch
