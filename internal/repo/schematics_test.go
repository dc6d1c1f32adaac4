package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/machinist/internal/kv"
	"github.com/roach88/machinist/internal/machine"
	"github.com/roach88/machinist/internal/testutil"
)

var testStart = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

// newTestRepo builds a repository over a fresh memory store with a frozen
// clock and sequential machine ids.
func newTestRepo(t *testing.T) (*Repository, *kv.Memory, *testutil.Clock) {
	t.Helper()
	store := kv.NewMemory()
	clock := testutil.NewClock(testStart)

	var mu sync.Mutex
	next := 0
	r := New(store,
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			next++
			return fmt.Sprintf("generated-%03d", next)
		}),
	)
	return r, store, clock
}

func doorSchematic() machine.Schematic {
	return machine.Schematic{
		Name:         "Door",
		InitialState: "Closed",
		States: map[string]machine.State{
			"Closed": {Transitions: map[string]string{"open": "Open"}},
			"Open":   {Transitions: map[string]string{"close": "Closed"}},
		},
	}
}

func TestStoreByName_RoundTrip(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	stored, err := r.StoreByName(ctx, doorSchematic())
	require.NoError(t, err)
	assert.Equal(t, "Door", stored.Name)

	got, err := r.RetrieveByName(ctx, "Door")
	require.NoError(t, err)
	assert.Equal(t, doorSchematic(), got)
}

func TestStoreByName_EmptyName(t *testing.T) {
	r, _, _ := newTestRepo(t)

	_, err := r.StoreByName(context.Background(), machine.Schematic{InitialState: "x"})
	assert.True(t, IsInvalidArgument(err), "want InvalidArgument, got %v", err)
}

func TestStoreByName_LastWriteWins(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	first := doorSchematic()
	_, err := r.StoreByName(ctx, first)
	require.NoError(t, err)

	second := doorSchematic()
	second.InitialState = "Open"
	_, err = r.StoreByName(ctx, second)
	require.NoError(t, err)

	got, err := r.RetrieveByName(ctx, "Door")
	require.NoError(t, err)
	assert.Equal(t, "Open", got.InitialState)
}

func TestRetrieveByName_NotFound(t *testing.T) {
	r, _, _ := newTestRepo(t)

	_, err := r.RetrieveByName(context.Background(), "Ghost")
	assert.True(t, IsNotFound(err), "want NotFound, got %v", err)
}

func TestRetrieveByName_EmptyName(t *testing.T) {
	r, _, _ := newTestRepo(t)

	_, err := r.RetrieveByName(context.Background(), "")
	assert.True(t, IsInvalidArgument(err))
}

func TestRetrieveByHash_NotFound(t *testing.T) {
	r, _, _ := newTestRepo(t)

	_, err := r.RetrieveByHash(context.Background(), "no-such-hash")
	assert.True(t, IsNotFound(err))
}

func TestRetrieveByHash_EmptyHash(t *testing.T) {
	r, _, _ := newTestRepo(t)

	_, err := r.RetrieveByHash(context.Background(), "")
	assert.True(t, IsInvalidArgument(err))
}

func TestStoreByName_NormalizesUnicodeNames(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	s := doorSchematic()
	s.Name = "Porté" // decomposed é
	_, err := r.StoreByName(ctx, s)
	require.NoError(t, err)

	got, err := r.RetrieveByName(ctx, "Porté") // composed é
	require.NoError(t, err)
	assert.Equal(t, "Porté", got.Name)
}

func TestEnsureSchematic_DedupUnderConcurrency(t *testing.T) {
	r, store, _ := newTestRepo(t)
	ctx := context.Background()

	// Many concurrent creates of the same schematic: all succeed, and the
	// blob is stored under its hash exactly once.
	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Create(ctx, doorSchematic(), fmt.Sprintf("m-%d", i), nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "create %d", i)
	}

	// n machine records + 1 deduplicated schematic blob.
	assert.Equal(t, n+1, store.Len())
}

func TestCreate_SameBytesShareOneBlob(t *testing.T) {
	r, store, _ := newTestRepo(t)
	ctx := context.Background()

	// Identical serialized bytes deduplicate regardless of how many machines
	// reference them.
	_, err := r.Create(ctx, doorSchematic(), "m1", nil)
	require.NoError(t, err)
	_, err = r.Create(ctx, doorSchematic(), "m2", nil)
	require.NoError(t, err)

	assert.Equal(t, 3, store.Len(), "two records plus one shared blob")

	v1, err := r.GetStatus(ctx, "m1")
	require.NoError(t, err)
	v2, err := r.GetStatus(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, v1.Schematic, v2.Schematic)
}
