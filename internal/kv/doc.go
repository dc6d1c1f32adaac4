// Package kv defines the key-value store contract the repository core runs
// against, plus two implementations.
//
// The contract is deliberately small: get/set of opaque byte blobs, a
// conditional "set if not exists" write, atomic delete, and a single-shot
// transaction (Tx) carrying a byte-equality precondition, one put and one
// companion read. The transaction is all-or-nothing: a failed precondition
// leaves no effects visible.
//
// Implementations:
//   - Memory: mutex-guarded map, clone-on-read/write. For tests and
//     ephemeral use.
//   - SQLite: durable single-table store. WAL mode, single-writer connection
//     pool, schema migration via PRAGMA user_version.
//
// All operations take a context.Context and abort in-flight I/O on
// cancellation. Store-level failures surface as plain wrapped errors; only a
// missing key has a dedicated sentinel (ErrKeyNotFound).
package kv
