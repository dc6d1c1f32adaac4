package kv

import (
	"bytes"
	"context"
	"sync"
)

// Memory is a volatile Store implementation backed by a process-local map.
// It is safe for concurrent access and best suited for tests or ephemeral
// use. Values are cloned on the way in and out so callers can never mutate
// stored state through a shared slice.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get returns a clone of the value stored under key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.Clone(value), nil
}

// Set stores a clone of value under key, overwriting any existing value.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = bytes.Clone(value)
	return nil
}

// SetIfAbsent stores value under key only when the key is currently absent.
func (m *Memory) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = bytes.Clone(value)
	return true, nil
}

// Delete removes key. Absent keys are a no-op.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Commit applies tx under the write lock, so the compare, put and read are a
// single atomic step with respect to every other operation.
func (m *Memory) Commit(ctx context.Context, tx Tx) (TxResult, error) {
	if err := ctx.Err(); err != nil {
		return TxResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.data[tx.CompareKey]
	if !ok || !bytes.Equal(current, tx.CompareValue) {
		return TxResult{Committed: false}, nil
	}

	m.data[tx.PutKey] = bytes.Clone(tx.PutValue)

	var read []byte
	if tx.ReadKey != "" {
		if value, ok := m.data[tx.ReadKey]; ok {
			read = bytes.Clone(value)
		}
	}
	return TxResult{Committed: true, ReadValue: read}, nil
}

// Close is a no-op for the memory store.
func (m *Memory) Close() error {
	return nil
}

// Len reports the number of stored keys. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
