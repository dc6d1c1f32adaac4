// Package machine provides the foundational types for the machinist
// repository core.
//
// This package contains type definitions and content-address identity only.
// All other internal packages import machine; machine imports nothing
// internal. This keeps it the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Schematics are immutable values; two schematics with identical
//     serialized bytes are the same schematic for deduplication purposes.
//   - A status record references its schematic by content hash, never by
//     embedded value. Resolving the reference is always an explicit read.
//   - CommitNumber is a per-machine monotonic counter used as the
//     optimistic-lock version token. It is int64 and increments from the
//     pre-mutation value, so it never wraps at realistic scales.
//   - Schematic names are NFC-normalized before use as key segments so
//     visually identical names map to identical key bytes.
package machine
