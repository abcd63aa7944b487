// Copyright (c) 2018 IoTeX
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/action"
)

// ErrUnimplemented indicates a method is not implemented yet
var ErrUnimplemented = errors.New("method is unimplemented")

type (
	// Protocol defines the protocol interfaces atop the chain
	Protocol interface {
		ActionHandler
		Name() string
	}

	// ActionHandler is the interface for the action handlers. For each incoming action, the registered protocols
	// are called one by one; a protocol returns a nil receipt for actions it does not handle.
	ActionHandler interface {
		Handle(context.Context, action.Action, StateManager) (*action.Receipt, error)
	}

	// PreStatesCreator creates state before handling actions of a block
	PreStatesCreator interface {
		CreatePreStates(context.Context, StateManager) error
	}

	// WeightCalculator returns the worst case weight of the actions a protocol handles
	WeightCalculator interface {
		ActionWeight(action.Action) (action.Weight, bool)
	}
)
