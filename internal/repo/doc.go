// Package repo is the repository core: it persists immutable schematic
// definitions and mutable machine status records in a key-value store.
//
// # Storage layout
//
// String keys with /-joined prefixes, byte-blob values:
//
//	Schematics/<name>          serialized schematic    last-write-wins
//	MachineSchematics/<hash>   serialized schematic    set-if-absent
//	Machines/<machineId>       serialized record       set-if-absent / CAS
//
// Schematic blobs are deduplicated by content address: the by-hash key is
// derived from the blob's serialized bytes, so byte-identical schematics
// converge on one stored value and re-storing is a safe no-op even when
// raced.
//
// # Concurrency
//
// No in-process locking. Correctness under concurrent mutation of the same
// machine id is delegated to the store's conditional-write primitive:
// SetState re-reads, checks the caller's commit-number token, then commits
// through a transaction whose precondition is byte equality with the snapshot
// read. The loser of a race observes a Conflict error and must re-read and
// retry; the repository never retries internally. Distinct machine ids are
// fully independent.
//
// The package does not interpret transition logic and does not validate
// schematic contents; it stores and resolves them.
package repo
