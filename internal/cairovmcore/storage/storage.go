// Package storage is the VM's peripheral key/value layer: a minimal,
// synchronous stand-in for cairo-lang's Storage/FactFetchingContext, used
// by hints that persist content-addressed facts (e.g. memoized Pedersen
// hash trees) outside of segmented VM memory. It is not part of the step
// loop's hot path — hints call into it explicitly.
package storage

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/sha3"
)

// Storage is a byte-keyed, byte-valued store. The original is async and
// distributable (Redis, S3, ...); this core ships a synchronous in-memory
// implementation good enough to exercise the same contract, and leaves a
// networked backend as a host concern.
type Storage struct {
	data sync.Map // key string -> []byte
}

// New builds an empty Storage.
func New() *Storage { return &Storage{} }

// SetValue writes value under key, overwriting any existing value.
func (s *Storage) SetValue(key, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data.Store(string(key), stored)
}

// GetValue returns the value stored under key, or (nil, false) if absent.
func (s *Storage) GetValue(key []byte) ([]byte, bool) {
	v, ok := s.data.Load(string(key))
	if !ok {
		return nil, false
	}
	stored := v.([]byte)
	out := make([]byte, len(stored))
	copy(out, stored)
	return out, true
}

// DelValue removes key, if present.
func (s *Storage) DelValue(key []byte) {
	s.data.Delete(string(key))
}

// SetNX sets key to value only if key is not already present, returning
// whether the write happened. Mirrors Storage.setnx_value.
func (s *Storage) SetNX(key, value []byte) bool {
	stored := make([]byte, len(value))
	copy(stored, value)
	_, loaded := s.data.LoadOrStore(string(key), stored)
	return !loaded
}

// MSet writes every key/value pair in updates.
func (s *Storage) MSet(updates map[string][]byte) {
	for k, v := range updates {
		s.SetValue([]byte(k), v)
	}
}

// MGet reads every key in keys, preserving order; a missing key yields a
// nil entry at that position, same shape as Storage.mget's tuple of
// optionals.
func (s *Storage) MGet(keys [][]byte) [][]byte {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, ok := s.GetValue(k)
		if ok {
			out[i] = v
		}
	}
	return out
}

// Fact is a value whose storage key is the hash of its own serialized
// content, cairo-lang's content-addressing pattern for memoized facts
// (Merkle tree nodes, computation results). Serialize lets a caller plug
// in any domain type without Fact needing to know its shape.
type Fact struct {
	Serialize func() []byte
}

// SetFact hashes f's serialized content with SHA3-256 — the hash family
// this core already uses for hint ids — and stores it under that hash,
// returning the hash as the fact's db key. The key is the raw 32-byte
// digest; no prefix is prepended to it.
func SetFact(s *Storage, f Fact) ([]byte, error) {
	if f.Serialize == nil {
		return nil, fmt.Errorf("storage: fact has no serializer")
	}
	value := f.Serialize()
	sum := sha3.Sum256(value)
	key := sum[:]
	s.SetValue(key, value)
	return key, nil
}
