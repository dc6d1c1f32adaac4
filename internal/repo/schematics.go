package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/machinist/internal/codec"
	"github.com/roach88/machinist/internal/kv"
	"github.com/roach88/machinist/internal/machine"
)

// RetrieveByName returns the schematic stored under name.
// Names are NFC-normalized before lookup.
func (r *Repository) RetrieveByName(ctx context.Context, name string) (machine.Schematic, error) {
	name = machine.NormalizeName(name)
	if name == "" {
		return machine.Schematic{}, invalidArgument("schematic name must not be empty")
	}

	blob, err := r.store.Get(ctx, schematicNameKey(name))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return machine.Schematic{}, notFound(name, "no schematic stored under name")
	}
	if err != nil {
		return machine.Schematic{}, fmt.Errorf("retrieve schematic %q: %w", name, err)
	}

	var s machine.Schematic
	if err := codec.UnmarshalCompressed(blob, &s); err != nil {
		return machine.Schematic{}, fmt.Errorf("retrieve schematic %q: %w", name, err)
	}
	return s, nil
}

// StoreByName stores a schematic under its name, overwriting unconditionally
// (last write wins, no versioning). Returns the stored value with its name
// normalized.
func (r *Repository) StoreByName(ctx context.Context, s machine.Schematic) (machine.Schematic, error) {
	s.Name = machine.NormalizeName(s.Name)
	if s.Name == "" {
		return machine.Schematic{}, invalidArgument("schematic name must not be empty")
	}

	blob, err := codec.MarshalCompressed(s)
	if err != nil {
		return machine.Schematic{}, fmt.Errorf("store schematic %q: %w", s.Name, err)
	}
	if err := r.store.Set(ctx, schematicNameKey(s.Name), blob); err != nil {
		return machine.Schematic{}, fmt.Errorf("store schematic %q: %w", s.Name, err)
	}

	r.logger.Debug("schematic stored", "name", s.Name)
	return s, nil
}

// RetrieveByHash returns the schematic stored under a content hash. Used when
// reassembling a status view from a record's hash reference.
func (r *Repository) RetrieveByHash(ctx context.Context, hash string) (machine.Schematic, error) {
	if hash == "" {
		return machine.Schematic{}, invalidArgument("schematic hash must not be empty")
	}

	blob, err := r.store.Get(ctx, schematicHashKey(hash))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return machine.Schematic{}, notFound(hash, "no schematic stored under hash")
	}
	if err != nil {
		return machine.Schematic{}, fmt.Errorf("retrieve schematic by hash %q: %w", hash, err)
	}

	var s machine.Schematic
	if err := codec.UnmarshalCompressed(blob, &s); err != nil {
		return machine.Schematic{}, fmt.Errorf("retrieve schematic by hash %q: %w", hash, err)
	}
	return s, nil
}

// ensureSchematic writes blob under its content hash if absent.
//
// Content addressing makes set-if-absent safe even when raced: concurrent
// callers carrying the same hash carry byte-identical blobs, so whichever
// write lands the stored value is the same, and losing the race is success.
func (r *Repository) ensureSchematic(ctx context.Context, blob []byte, hash string) error {
	inserted, err := r.store.SetIfAbsent(ctx, schematicHashKey(hash), blob)
	if err != nil {
		return fmt.Errorf("ensure schematic %q: %w", hash, err)
	}
	if inserted {
		r.logger.Debug("schematic blob stored", "hash", hash, "bytes", len(blob))
	}
	return nil
}

// marshalSchematic serializes a schematic to its stored blob form and
// computes its content address. The hash is computed over the exact bytes
// stored, so hashing and deduplication agree byte-for-byte.
func marshalSchematic(s machine.Schematic) (blob []byte, hash string, err error) {
	blob, err = codec.MarshalCompressed(s)
	if err != nil {
		return nil, "", fmt.Errorf("marshal schematic: %w", err)
	}
	return blob, machine.ContentHash(blob), nil
}
