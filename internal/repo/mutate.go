package repo

import (
	"context"
	"fmt"

	"github.com/roach88/machinist/internal/codec"
	"github.com/roach88/machinist/internal/kv"
	"github.com/roach88/machinist/internal/machine"
)

// SetState performs one optimistic-concurrency mutation attempt on a machine.
//
// The cycle is read, check, mutate locally, conditional commit:
//
//  1. Fetch the current raw bytes and decoded record.
//  2. If expected is non-nil and differs from the record's commit number,
//     fail with Conflict before any write.
//  3. On the in-memory copy: State = newState, CommitNumber incremented from
//     the pre-mutation value, UpdatedTime = now.
//  4. Commit through a store transaction whose precondition is byte equality
//     with the snapshot from step 1. The referenced schematic is read inside
//     the same transaction, saving a round trip.
//  5. A failed precondition means another writer committed in between: fail
//     with Conflict. No internal retry; the caller must re-read and retry.
//
// The commit-number check gives callers a version token to reason about; the
// byte-equality precondition is the actual enforcement and also catches
// writers that never supplied a token.
func (r *Repository) SetState(ctx context.Context, machineID, newState string, expected *int64) (machine.StatusView, error) {
	if machineID == "" {
		return machine.StatusView{}, invalidArgument("machine id must not be empty")
	}

	snapshot, rec, err := r.readRecord(ctx, machineID)
	if err != nil {
		return machine.StatusView{}, err
	}

	if expected != nil && *expected != rec.CommitNumber {
		return machine.StatusView{}, conflict(machineID, fmt.Sprintf(
			"commit number mismatch: expected %d, stored %d", *expected, rec.CommitNumber))
	}

	rec.State = newState
	rec.CommitNumber++
	rec.UpdatedTime = r.now().UTC()

	data, err := codec.Marshal(rec)
	if err != nil {
		return machine.StatusView{}, fmt.Errorf("set state %q: %w", machineID, err)
	}

	key := machineKey(machineID)
	result, err := r.store.Commit(ctx, kv.Tx{
		CompareKey:   key,
		CompareValue: snapshot,
		PutKey:       key,
		PutValue:     data,
		ReadKey:      schematicHashKey(rec.SchematicHash),
	})
	if err != nil {
		return machine.StatusView{}, fmt.Errorf("set state %q: %w", machineID, err)
	}
	if !result.Committed {
		return machine.StatusView{}, conflict(machineID, "record changed since read")
	}
	if result.ReadValue == nil {
		// Schematic blob gone out-of-band; the record committed, but the view
		// cannot be assembled.
		return machine.StatusView{}, notFound(rec.SchematicHash, "no schematic stored under hash")
	}

	var s machine.Schematic
	if err := codec.UnmarshalCompressed(result.ReadValue, &s); err != nil {
		return machine.StatusView{}, fmt.Errorf("set state %q: %w", machineID, err)
	}

	r.logger.Debug("machine state set",
		"machine_id", machineID, "state", newState, "commit_number", rec.CommitNumber)
	return rec.View(s), nil
}
