// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/pkg/lifecycle"
)

var (
	// ErrBucketNotExist indicates certain bucket does not exist in db
	ErrBucketNotExist = errors.New("bucket not exist in DB")
	// ErrNotExist indicates certain item does not exist in database
	ErrNotExist = errors.New("not exist in DB")
	// ErrIO indicates the generic error of DB I/O operation
	ErrIO = errors.New("DB I/O operation error")
)

// KVStore is the interface of KV store.
type KVStore interface {
	lifecycle.StartStopper

	// Put insert or update a record identified by (namespace, key)
	Put(string, []byte, []byte) error
	// Get gets a record by (namespace, key)
	Get(string, []byte) ([]byte, error)
	// Delete deletes a record by (namespace, key)
	Delete(string, []byte) error
	// WriteBatch commits a batch atomically
	WriteBatch(*Batch) error
	// Filter returns the keys and values in a namespace whose key starts with prefix, in key order
	Filter(string, []byte) ([][]byte, [][]byte, error)
}

const (
	keyDelimiter = "."
)

// memKVStore is the in-memory implementation of KVStore for testing purpose
type memKVStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	bucket map[string]struct{}
}

// NewMemKVStore instantiates an in-memory KV store
func NewMemKVStore() KVStore {
	return &memKVStore{
		bucket: make(map[string]struct{}),
		data:   make(map[string][]byte),
	}
}

func (m *memKVStore) Start(_ context.Context) error { return nil }

func (m *memKVStore) Stop(_ context.Context) error { return nil }

// Put inserts a <key, value> record
func (m *memKVStore) Put(namespace string, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(namespace, key, value)
	return nil
}

func (m *memKVStore) put(namespace string, key, value []byte) {
	m.bucket[namespace] = struct{}{}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[namespace+keyDelimiter+string(key)] = v
}

// Get retrieves a record
func (m *memKVStore) Get(namespace string, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.bucket[namespace]; !ok {
		return nil, errors.Wrapf(ErrNotExist, "namespace = %s doesn't exist", namespace)
	}
	value, ok := m.data[namespace+keyDelimiter+string(key)]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
	}
	v := make([]byte, len(value))
	copy(v, value)
	return v, nil
}

// Delete deletes a record
func (m *memKVStore) Delete(namespace string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, namespace+keyDelimiter+string(key))
	return nil
}

// WriteBatch commits a batch
func (m *memKVStore) WriteBatch(b *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range b.writes {
		switch w.writeType {
		case Put:
			m.put(w.namespace, w.key, w.value)
		case Delete:
			delete(m.data, w.namespace+keyDelimiter+string(w.key))
		}
	}
	return nil
}

// Filter returns the records in namespace whose key starts with prefix
func (m *memKVStore) Filter(namespace string, prefix []byte) ([][]byte, [][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.bucket[namespace]; !ok {
		return nil, nil, errors.Wrapf(ErrBucketNotExist, "namespace = %s doesn't exist", namespace)
	}
	nsPrefix := namespace + keyDelimiter
	var keys [][]byte
	for k := range m.data {
		if len(k) < len(nsPrefix) || k[:len(nsPrefix)] != nsPrefix {
			continue
		}
		key := []byte(k[len(nsPrefix):])
		if bytes.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	values := make([][]byte, len(keys))
	for i, k := range keys {
		v := m.data[nsPrefix+string(k)]
		values[i] = make([]byte, len(v))
		copy(values[i], v)
	}
	return keys, values, nil
}
