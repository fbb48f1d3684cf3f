// Package docstore provides a concurrent-safe key-value document persisted as
// a single JSON file.
//
// # Overview
//
// A [Store] holds an insertion-ordered mapping from string keys to arbitrary
// JSON values. Values are kept as encoded JSON and only converted to a Go type
// when read with [Get], so a type mismatch is reported at the read site as a
// deserialization error instead of being hidden by an unchecked conversion.
//
// # File Lifecycle
//
// The backing file is <dir>/<name>.json where dir comes from
// [location.Resolve]. Both [Store.Load] and [Store.Save] first create the
// directory and an empty file if they are missing. An empty file, or one
// containing only null, loads as an empty document. A file that exists but is
// not a JSON object fails the load with a malformed document error and leaves
// the in-memory document untouched; it is never silently replaced.
//
// [Store.Save] writes a temporary file next to the target and renames it over
// the target, so a failed write never truncates the previous content.
//
// # Concurrency
//
// A single read-write lock guards the document. Save encodes a snapshot under
// the read lock and performs file I/O after releasing it; concurrent Saves are
// serialized so an older snapshot never overwrites a newer one.
//
// # Autosave
//
// [WithAutoSave] starts a goroutine that calls Save once immediately and then
// once per interval until the context passed to [New] is cancelled. The first
// failing Save stops the loop for good; the error is logged and handed to the
// handler set with [WithErrorHandler].
package docstore
