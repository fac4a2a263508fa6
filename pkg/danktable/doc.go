// Package danktable is a flat-file tabular data store.
//
// A table is a single UTF-8 text file: a settings line, a row-name line,
// and one line per stored record with individually base64-wrapped JSON
// cells. The text file is the source of truth; the in-memory cache is a
// derived, throwaway view bounded by an LRU policy.
//
// [Store] is the entry point. It composes the format parser/writer, the
// bounded [Cache], and the [fs.FS] abstraction into consistent
// read-modify-write cycles: every mutation rewrites the whole file
// atomically and updates the cache in place.
package danktable
