package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/machinist/internal/machine"
)

func TestCreate_ExplicitID(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	view, err := r.Create(ctx, doorSchematic(), "m1", machine.Metadata{"owner": "alice"})
	require.NoError(t, err)

	assert.Equal(t, "m1", view.MachineID)
	assert.Equal(t, "Closed", view.State, "machine starts in the schematic's initial state")
	assert.Equal(t, int64(0), view.CommitNumber)
	assert.Equal(t, machine.Metadata{"owner": "alice"}, view.Metadata)
	assert.Equal(t, doorSchematic(), view.Schematic)
	assert.True(t, view.UpdatedTime.Equal(testStart))
}

func TestCreate_GeneratesID(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	first, err := r.Create(ctx, doorSchematic(), "", nil)
	require.NoError(t, err)
	second, err := r.Create(ctx, doorSchematic(), "", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, first.MachineID)
	assert.NotEmpty(t, second.MachineID)
	assert.NotEqual(t, first.MachineID, second.MachineID)
}

func TestCreate_DuplicateID_Conflicts(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := r.Create(ctx, doorSchematic(), "m1", machine.Metadata{"owner": "alice"})
	require.NoError(t, err)

	other := doorSchematic()
	other.InitialState = "Open"
	_, err = r.Create(ctx, other, "m1", machine.Metadata{"owner": "bob"})
	assert.True(t, IsConflict(err), "want Conflict, got %v", err)

	// The first record must be untouched.
	view, err := r.GetStatus(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Closed", view.State)
	assert.Equal(t, machine.Metadata{"owner": "alice"}, view.Metadata)
}

func TestCreateFromName(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := r.StoreByName(ctx, doorSchematic())
	require.NoError(t, err)

	view, err := r.CreateFromName(ctx, "Door", "m1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Closed", view.State)
	assert.Equal(t, "Door", view.Schematic.Name)
}

func TestCreateFromName_UnknownSchematic(t *testing.T) {
	r, _, _ := newTestRepo(t)

	_, err := r.CreateFromName(context.Background(), "Ghost", "m1", nil)
	assert.True(t, IsNotFound(err), "want NotFound, got %v", err)
}

func TestBulkCreate(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	results, err := r.BulkCreate(ctx, doorSchematic(), []machine.Metadata{
		{"n": "1"}, {"n": "2"}, {"n": "3"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	seen := map[string]bool{}
	for i, res := range results {
		require.NoError(t, res.Err, "record %d", i)
		assert.False(t, seen[res.View.MachineID], "ids must be distinct")
		seen[res.View.MachineID] = true

		// Each machine is independently retrievable.
		view, err := r.GetStatus(ctx, res.View.MachineID)
		require.NoError(t, err)
		assert.Equal(t, "Closed", view.State)
		assert.Equal(t, res.View.Metadata, view.Metadata)
	}
}

func TestBulkCreate_Empty(t *testing.T) {
	r, _, _ := newTestRepo(t)

	results, err := r.BulkCreate(context.Background(), doorSchematic(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDelete_Idempotent(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := r.Create(ctx, doorSchematic(), "m1", nil)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "m1"))
	require.NoError(t, r.Delete(ctx, "m1"), "second delete must not error")

	_, err = r.GetStatus(ctx, "m1")
	assert.True(t, IsNotFound(err))
}

func TestDelete_EmptyID(t *testing.T) {
	r, _, _ := newTestRepo(t)

	err := r.Delete(context.Background(), "")
	assert.True(t, IsInvalidArgument(err))
}

func TestDelete_PreservesSchematicBlob(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	v1, err := r.Create(ctx, doorSchematic(), "m1", nil)
	require.NoError(t, err)
	_, err = r.Create(ctx, doorSchematic(), "m2", nil)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "m1"))

	// m2 still resolves its shared schematic.
	view, err := r.GetStatus(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, v1.Schematic, view.Schematic)
}

func TestGetStatus_NotFound(t *testing.T) {
	r, _, _ := newTestRepo(t)

	_, err := r.GetStatus(context.Background(), "unknown-id")
	assert.True(t, IsNotFound(err), "want NotFound, got %v", err)
}

func TestGetStatus_EmptyID(t *testing.T) {
	r, _, _ := newTestRepo(t)

	_, err := r.GetStatus(context.Background(), "")
	assert.True(t, IsInvalidArgument(err))
}

func TestGetStatus_ReflectsClock(t *testing.T) {
	r, _, clock := newTestRepo(t)
	ctx := context.Background()

	clock.Advance(90 * time.Minute)
	_, err := r.Create(ctx, doorSchematic(), "m1", nil)
	require.NoError(t, err)

	view, err := r.GetStatus(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, view.UpdatedTime.Equal(testStart.Add(90*time.Minute)))
}
