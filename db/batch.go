// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

// WriteType is the type of write
type WriteType uint8

const (
	// Put indicate the type of write operation to be Put
	Put WriteType = iota
	// Delete indicate the type of write operation to be Delete
	Delete
)

type writeInfo struct {
	writeType WriteType
	namespace string
	key       []byte
	value     []byte
}

// Batch is an ordered list of writes applied atomically by KVStore.WriteBatch
type Batch struct {
	writes []writeInfo
}

// NewBatch returns an empty batch
func NewBatch() *Batch {
	return &Batch{}
}

// Put queues a put
func (b *Batch) Put(namespace string, key, value []byte) {
	b.writes = append(b.writes, writeInfo{
		writeType: Put,
		namespace: namespace,
		key:       key,
		value:     value,
	})
}

// Delete queues a delete
func (b *Batch) Delete(namespace string, key []byte) {
	b.writes = append(b.writes, writeInfo{
		writeType: Delete,
		namespace: namespace,
		key:       key,
	})
}

// Size returns the number of queued writes
func (b *Batch) Size() int {
	return len(b.writes)
}
