package machine

import (
	"encoding/base64"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/unicode/norm"
)

// Domain prefix for content-addressed schematic identity.
// Version suffix enables future algorithm migration.
const hashDomain = "machinist/schematic/v1"

// ContentHash computes the content address of a serialized schematic blob.
//
// The digest is xxh3-128 with domain separation
// (hash(domain + 0x00 + data)); the null separator prevents domain/data
// boundary ambiguity. The result is rendered as a fixed-length 22-character
// base64url token suitable for use as a storage key segment.
//
// xxh3 is non-cryptographic. That is deliberate: the hash is load-bearing for
// deduplication correctness at practical scale, not for security, and a fast
// 128-bit digest makes accidental collision probability negligible.
func ContentHash(data []byte) string {
	h := xxh3.New()
	h.WriteString(hashDomain)
	h.Write([]byte{0x00})
	h.Write(data)
	sum := h.Sum128().Bytes()
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NormalizeName returns the NFC-normalized form of a schematic name.
//
// Names are lookup keys in the store. Without normalization, two visually
// identical names with different Unicode compositions would silently key
// different blobs.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}
