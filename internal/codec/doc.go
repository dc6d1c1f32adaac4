// Package codec provides the serialization used for all persisted blobs.
//
// Encoding is MessagePack in contract-less (reflection) mode, so arbitrary
// caller-defined payload types round-trip without per-type registration.
//
// # Determinism
//
// CRITICAL: content addressing hashes serialized bytes. Identical values must
// therefore always produce identical bytes, across calls and across
// processes. The encoder sorts map keys and uses compact integer encoding to
// guarantee this; changing either option is a silent deduplication break.
//
// Schematic blobs additionally use a block-compressed variant
// (MarshalCompressed/UnmarshalCompressed): schematics can be large and are
// read far more often than written. LZ4 block compression is deterministic
// for a given input, so hashing the compressed blob is safe.
package codec
