// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package factory

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/state"
)

var (
	stateDBMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_aggregate_state_db",
			Help: "Aggregate state DB operations",
		},
		[]string{"type"},
	)
	dbBatchSizelMtc = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "iotex_aggregate_db_batch_size",
			Help: "DB batch size",
		},
		[]string{},
	)
)

func init() {
	prometheus.MustRegister(stateDBMtc)
	prometheus.MustRegister(dbBatchSizelMtc)
}

type (
	// WorkingSet defines an interface for working set of states changes
	WorkingSet interface {
		protocol.StateManager
		// Commit persists all pending changes into the underlying store
		Commit() error
		// Size returns the number of pending writes
		Size() int
	}

	entry struct {
		namespace string
		key       []byte
		value     []byte
		deleted   bool
	}

	// change records the value a key had before a write, for Revert
	change struct {
		id      string
		prev    *entry
		existed bool
	}

	// workingSet implements WorkingSet interface, tracks pending changes in local cache
	workingSet struct {
		committed   bool
		blockHeight uint64
		dirty       map[string]*entry
		journal     []change
		snapshots   map[int]int
		nextSnap    int
		dao         db.KVStore
	}
)

// newWorkingSet creates a new working set
func newWorkingSet(height uint64, kv db.KVStore) *workingSet {
	return &workingSet{
		blockHeight: height,
		dirty:       make(map[string]*entry),
		snapshots:   make(map[int]int),
		dao:         kv,
	}
}

func entryID(ns string, key []byte) string {
	return ns + "\x00" + string(key)
}

// Height returns the Height of the block being worked on
func (ws *workingSet) Height() (uint64, error) {
	return ws.blockHeight, nil
}

// Size returns the number of pending writes
func (ws *workingSet) Size() int {
	return len(ws.dirty)
}

// Snapshot marks the current position of the journal
func (ws *workingSet) Snapshot() int {
	s := ws.nextSnap
	ws.nextSnap++
	ws.snapshots[s] = len(ws.journal)
	return s
}

// Revert undoes every change made after the snapshot
func (ws *workingSet) Revert(snapshot int) error {
	pos, ok := ws.snapshots[snapshot]
	if !ok {
		return errors.Errorf("invalid snapshot %d", snapshot)
	}
	for i := len(ws.journal) - 1; i >= pos; i-- {
		c := ws.journal[i]
		if c.existed {
			ws.dirty[c.id] = c.prev
		} else {
			delete(ws.dirty, c.id)
		}
	}
	ws.journal = ws.journal[:pos]
	for s, p := range ws.snapshots {
		if s > snapshot || p > pos {
			delete(ws.snapshots, s)
		}
	}
	return nil
}

// Commit persists all changes into the DB
func (ws *workingSet) Commit() error {
	if ws.committed {
		return errors.New("cannot commit a working set twice")
	}
	dbBatchSizelMtc.WithLabelValues().Set(float64(len(ws.dirty)))
	ids := make([]string, 0, len(ws.dirty))
	for id := range ws.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	b := db.NewBatch()
	for _, id := range ids {
		e := ws.dirty[id]
		if e.deleted {
			b.Delete(e.namespace, e.key)
		} else {
			b.Put(e.namespace, e.key, e.value)
		}
	}
	b.Put(AccountKVNamespace, []byte(CurrentHeightKey), heightToBytes(ws.blockHeight))
	if err := ws.dao.WriteBatch(b); err != nil {
		return errors.Wrap(err, "failed to commit all changes to underlying DB in a batch")
	}
	ws.committed = true
	ws.clear()
	return nil
}

// State pulls a state from the cache or DB
func (ws *workingSet) State(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	stateDBMtc.WithLabelValues("get").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return 0, err
	}
	if e, ok := ws.dirty[entryID(cfg.Namespace, cfg.Key)]; ok {
		if e.deleted {
			return ws.blockHeight, errors.Wrapf(state.ErrStateNotExist, "key = %x", cfg.Key)
		}
		return ws.blockHeight, state.Deserialize(s, e.value)
	}
	data, err := ws.dao.Get(cfg.Namespace, cfg.Key)
	switch errors.Cause(err) {
	case nil:
		return ws.blockHeight, state.Deserialize(s, data)
	case db.ErrNotExist, db.ErrBucketNotExist:
		return ws.blockHeight, errors.Wrapf(state.ErrStateNotExist, "key = %x", cfg.Key)
	default:
		return ws.blockHeight, errors.Wrapf(err, "failed to get state of ns = %s", cfg.Namespace)
	}
}

// States returns every state of a namespace whose key starts with the prefix option
func (ws *workingSet) States(opts ...protocol.StateOption) (uint64, state.Iterator, error) {
	stateDBMtc.WithLabelValues("states").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return 0, nil, err
	}
	keys, values, err := ws.dao.Filter(cfg.Namespace, cfg.Prefix)
	if err != nil && errors.Cause(err) != db.ErrBucketNotExist {
		return 0, nil, errors.Wrapf(err, "failed to filter ns = %s", cfg.Namespace)
	}
	merged := make(map[string][]byte, len(keys))
	for i, k := range keys {
		merged[string(k)] = values[i]
	}
	for _, e := range ws.dirty {
		if e.namespace != cfg.Namespace || !bytes.HasPrefix(e.key, cfg.Prefix) {
			continue
		}
		if e.deleted {
			delete(merged, string(e.key))
		} else {
			merged[string(e.key)] = e.value
		}
	}
	sorted := make([]string, 0, len(merged))
	for k := range merged {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	outKeys := make([][]byte, len(sorted))
	outValues := make([][]byte, len(sorted))
	for i, k := range sorted {
		outKeys[i] = []byte(k)
		outValues[i] = merged[k]
	}
	iter, err := state.NewIterator(outKeys, outValues)
	if err != nil {
		return 0, nil, err
	}
	return ws.blockHeight, iter, nil
}

// PutState puts a state into the cache
func (ws *workingSet) PutState(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	stateDBMtc.WithLabelValues("put").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return 0, err
	}
	ss, err := state.Serialize(s)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to convert state %v to bytes", s)
	}
	ws.write(&entry{namespace: cfg.Namespace, key: cfg.Key, value: ss})
	return ws.blockHeight, nil
}

// DelState deletes a state
func (ws *workingSet) DelState(opts ...protocol.StateOption) (uint64, error) {
	stateDBMtc.WithLabelValues("delete").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return 0, err
	}
	ws.write(&entry{namespace: cfg.Namespace, key: cfg.Key, deleted: true})
	return ws.blockHeight, nil
}

func (ws *workingSet) write(e *entry) {
	id := entryID(e.namespace, e.key)
	prev, existed := ws.dirty[id]
	ws.journal = append(ws.journal, change{id: id, prev: prev, existed: existed})
	ws.dirty[id] = e
}

// clear removes all local changes after committing to DB
func (ws *workingSet) clear() {
	ws.dirty = make(map[string]*entry)
	ws.journal = nil
	ws.snapshots = make(map[int]int)
}
