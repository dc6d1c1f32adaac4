package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/machinist/internal/codec"
	"github.com/roach88/machinist/internal/kv"
	"github.com/roach88/machinist/internal/machine"
)

// Create instantiates a new machine from a schematic.
//
// An empty machineID generates a random UUID. The schematic is serialized,
// content-addressed and ensured in the store, then the status record is
// written with a conditional insert. If the id already exists the call fails
// with Conflict and the existing record is untouched.
func (r *Repository) Create(ctx context.Context, s machine.Schematic, machineID string, metadata machine.Metadata) (machine.StatusView, error) {
	if machineID == "" {
		machineID = r.newID()
	}

	blob, hash, err := marshalSchematic(s)
	if err != nil {
		return machine.StatusView{}, fmt.Errorf("create machine %q: %w", machineID, err)
	}
	if err := r.ensureSchematic(ctx, blob, hash); err != nil {
		return machine.StatusView{}, fmt.Errorf("create machine %q: %w", machineID, err)
	}

	rec := machine.StatusRecord{
		MachineID:     machineID,
		SchematicHash: hash,
		State:         s.InitialState,
		CommitNumber:  0,
		UpdatedTime:   r.now().UTC(),
		Metadata:      metadata,
	}
	return r.insertRecord(ctx, rec, s)
}

// CreateFromName resolves a schematic by name, then creates a machine from
// it. Fails with NotFound when the name is unknown.
func (r *Repository) CreateFromName(ctx context.Context, schematicName, machineID string, metadata machine.Metadata) (machine.StatusView, error) {
	s, err := r.RetrieveByName(ctx, schematicName)
	if err != nil {
		return machine.StatusView{}, err
	}
	return r.Create(ctx, s, machineID, metadata)
}

// BulkResult is the per-record outcome of BulkCreate.
type BulkResult struct {
	View machine.StatusView
	Err  error
}

// BulkCreate instantiates one machine per metadata entry, each with a fresh
// random id, fanning the writes out concurrently.
//
// The fan-out is best-effort, not all-or-nothing: each entry succeeds or
// fails independently and the outcome is reported per record. The returned
// error covers only the shared up-front work (serializing and ensuring the
// schematic).
func (r *Repository) BulkCreate(ctx context.Context, s machine.Schematic, metadataList []machine.Metadata) ([]BulkResult, error) {
	blob, hash, err := marshalSchematic(s)
	if err != nil {
		return nil, fmt.Errorf("bulk create: %w", err)
	}
	if err := r.ensureSchematic(ctx, blob, hash); err != nil {
		return nil, fmt.Errorf("bulk create: %w", err)
	}

	results := make([]BulkResult, len(metadataList))
	var wg sync.WaitGroup
	for i, metadata := range metadataList {
		wg.Add(1)
		go func(i int, metadata machine.Metadata) {
			defer wg.Done()
			rec := machine.StatusRecord{
				MachineID:     r.newID(),
				SchematicHash: hash,
				State:         s.InitialState,
				CommitNumber:  0,
				UpdatedTime:   r.now().UTC(),
				Metadata:      metadata,
			}
			view, err := r.insertRecord(ctx, rec, s)
			results[i] = BulkResult{View: view, Err: err}
		}(i, metadata)
	}
	wg.Wait()

	r.logger.Debug("bulk create finished", "hash", hash, "count", len(metadataList))
	return results, nil
}

// Delete removes a machine record unconditionally. Deleting an absent id is
// not an error, and the referenced schematic blob is never touched: other
// records may share it.
func (r *Repository) Delete(ctx context.Context, machineID string) error {
	if machineID == "" {
		return invalidArgument("machine id must not be empty")
	}
	if err := r.store.Delete(ctx, machineKey(machineID)); err != nil {
		return fmt.Errorf("delete machine %q: %w", machineID, err)
	}
	r.logger.Debug("machine deleted", "machine_id", machineID)
	return nil
}

// GetStatus returns the full status view for a machine: the stored record
// with its schematic hash resolved back into the schematic value.
func (r *Repository) GetStatus(ctx context.Context, machineID string) (machine.StatusView, error) {
	if machineID == "" {
		return machine.StatusView{}, invalidArgument("machine id must not be empty")
	}

	_, rec, err := r.readRecord(ctx, machineID)
	if err != nil {
		return machine.StatusView{}, err
	}

	s, err := r.RetrieveByHash(ctx, rec.SchematicHash)
	if err != nil {
		return machine.StatusView{}, err
	}
	return rec.View(s), nil
}

// insertRecord writes a brand-new status record with a conditional insert
// and reports Conflict if the id is already taken.
func (r *Repository) insertRecord(ctx context.Context, rec machine.StatusRecord, s machine.Schematic) (machine.StatusView, error) {
	data, err := codec.Marshal(rec)
	if err != nil {
		return machine.StatusView{}, fmt.Errorf("marshal record %q: %w", rec.MachineID, err)
	}

	inserted, err := r.store.SetIfAbsent(ctx, machineKey(rec.MachineID), data)
	if err != nil {
		return machine.StatusView{}, fmt.Errorf("insert record %q: %w", rec.MachineID, err)
	}
	if !inserted {
		return machine.StatusView{}, conflict(rec.MachineID, "machine id already exists")
	}

	r.logger.Debug("machine created", "machine_id", rec.MachineID, "state", rec.State)
	return rec.View(s), nil
}

// readRecord fetches the raw stored bytes and the decoded record for a
// machine id. The raw bytes are the CAS snapshot for SetState.
func (r *Repository) readRecord(ctx context.Context, machineID string) ([]byte, machine.StatusRecord, error) {
	raw, err := r.store.Get(ctx, machineKey(machineID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, machine.StatusRecord{}, notFound(machineID, "no machine stored under id")
	}
	if err != nil {
		return nil, machine.StatusRecord{}, fmt.Errorf("read record %q: %w", machineID, err)
	}

	var rec machine.StatusRecord
	if err := codec.Unmarshal(raw, &rec); err != nil {
		return nil, machine.StatusRecord{}, fmt.Errorf("read record %q: %w", machineID, err)
	}
	return raw, rec, nil
}
