package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash_Deterministic(t *testing.T) {
	data := []byte("states and transitions, serialized")

	first := ContentHash(data)
	second := ContentHash(data)

	assert.Equal(t, first, second, "same bytes must always yield the same hash")
}

func TestContentHash_DistinctInputs(t *testing.T) {
	a := ContentHash([]byte("schematic A"))
	b := ContentHash([]byte("schematic B"))

	assert.NotEqual(t, a, b)
}

func TestContentHash_TokenShape(t *testing.T) {
	token := ContentHash([]byte("anything"))

	// 128-bit digest in base64url without padding is always 22 characters.
	require.Len(t, token, 22)
	assert.NotContains(t, token, "/", "token must be safe as a key segment")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "=")
}

func TestContentHash_EmptyInput(t *testing.T) {
	token := ContentHash(nil)
	require.Len(t, token, 22)
}

func TestNormalizeName_UnifiesCompositions(t *testing.T) {
	composed := "Café"    // é as one code point
	decomposed := "Café" // e + combining acute

	require.NotEqual(t, composed, decomposed, "inputs differ byte-wise")
	assert.Equal(t, NormalizeName(composed), NormalizeName(decomposed))
}

func TestNormalizeName_ASCIIUnchanged(t *testing.T) {
	assert.Equal(t, "Door", NormalizeName("Door"))
	assert.Equal(t, "", NormalizeName(""))
}

func TestStatusRecord_View(t *testing.T) {
	s := Schematic{Name: "Door", InitialState: "Closed"}
	rec := StatusRecord{
		MachineID:     "m1",
		SchematicHash: ContentHash([]byte("blob")),
		State:         "Closed",
		CommitNumber:  3,
		Metadata:      Metadata{"owner": "alice"},
	}

	view := rec.View(s)

	assert.Equal(t, "m1", view.MachineID)
	assert.Equal(t, s, view.Schematic)
	assert.Equal(t, "Closed", view.State)
	assert.Equal(t, int64(3), view.CommitNumber)
	assert.Equal(t, Metadata{"owner": "alice"}, view.Metadata)
}
