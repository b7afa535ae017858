// Package engine provides helpers for working with the modernc.org/sqlite
// driver in this module: opening connections and registering the vec_cosine
// and vec_l2sq SQL scalar functions.
package engine
