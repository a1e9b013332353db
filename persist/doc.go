// Package persist batches high-frequency canvas mutations into bounded-rate
// storage writes.
//
// During a drag gesture the UI emits position updates at 60-120 events per
// second. Writing each one would swamp the store, so [Saver] debounces:
// updates overwrite a pending map and arm a short timer, and the flush fires
// only after the burst pauses. A safety bound forces a flush when pending
// state grows older than two seconds, capping worst-case data loss on crash
// regardless of how continuously the user drags.
//
// Flushes write all pending keys of a category in a single batched store
// transaction. Failures are retried on the next debounce cycle with
// last-value-wins semantics and are never surfaced to the UI caller.
//
// [BoltStore] implements the backing [Store] over bbolt.
package persist
