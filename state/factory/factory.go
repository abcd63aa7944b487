// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package factory

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/pkg/lifecycle"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
)

const (
	// AccountKVNamespace is the namespace to store the factory metadata
	AccountKVNamespace = "Account"
	// CurrentHeightKey indicates the key of current factory height in underlying DB
	CurrentHeightKey = "currentHeight"
)

type (
	// Factory creates working sets over the committed state
	Factory interface {
		lifecycle.StartStopper
		// Height returns the height of the last committed working set
		Height() (uint64, error)
		// NewWorkingSet opens a working set for the given height
		NewWorkingSet(height uint64) (WorkingSet, error)
		// ReadView returns a reader over the committed state
		ReadView() protocol.StateReader
	}

	factory struct {
		mutex sync.RWMutex
		dao   db.KVStore
	}
)

// NewFactory creates a new state factory over kv
func NewFactory(kv db.KVStore) (Factory, error) {
	if kv == nil {
		return nil, errors.New("kv store is nil")
	}
	return &factory{dao: kv}, nil
}

func (sf *factory) Start(ctx context.Context) error {
	if err := sf.dao.Start(ctx); err != nil {
		return err
	}
	h, err := sf.Height()
	if err != nil {
		return err
	}
	log.Logger("factory").Info("state factory started", zap.Uint64("height", h))
	return nil
}

func (sf *factory) Stop(ctx context.Context) error {
	return sf.dao.Stop(ctx)
}

// Height returns factory's height
func (sf *factory) Height() (uint64, error) {
	sf.mutex.RLock()
	defer sf.mutex.RUnlock()
	data, err := sf.dao.Get(AccountKVNamespace, []byte(CurrentHeightKey))
	switch errors.Cause(err) {
	case nil:
		return binary.BigEndian.Uint64(data), nil
	case db.ErrNotExist, db.ErrBucketNotExist:
		return 0, nil
	default:
		return 0, errors.Wrap(err, "failed to get factory's height from underlying DB")
	}
}

// NewWorkingSet returns a working set that must be the next height
func (sf *factory) NewWorkingSet(height uint64) (WorkingSet, error) {
	current, err := sf.Height()
	if err != nil {
		return nil, err
	}
	if height <= current && current != 0 {
		return nil, errors.Errorf("invalid height %d, current height is %d", height, current)
	}
	return newWorkingSet(height, sf.dao), nil
}

func (sf *factory) ReadView() protocol.StateReader {
	h, err := sf.Height()
	if err != nil {
		log.Logger("factory").Error("failed to read height", zap.Error(err))
	}
	return newWorkingSet(h, sf.dao)
}

func heightToBytes(h uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, h)
	return b
}
