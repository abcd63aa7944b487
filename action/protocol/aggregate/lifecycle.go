// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"github.com/iotexproject/go-fsm"
	"github.com/pkg/errors"
)

// DomainState is the lifecycle state of a domain
type DomainState uint8

const (
	// DomainReady accepts statements and allowlist changes
	DomainReady DomainState = iota
	// DomainHold only drains its pending aggregations
	DomainHold
	// DomainRemovable is a drained domain waiting to be unregistered
	DomainRemovable
	// DomainRemoved is terminal
	DomainRemoved
)

// lifecycle events
const (
	// explicit hold request by owner or manager
	_holdEvent fsm.EventType = "HOLD"
	// aggregation id space exhausted while rotating
	_exhaustEvent fsm.EventType = "EXHAUST"
	// re-evaluation after statements or submitters left the domain
	_drainEvent fsm.EventType = "DRAIN"
	_unregisterEvent fsm.EventType = "UNREGISTER"
)

var _allStates = []fsm.State{
	DomainReady.fsmState(),
	DomainHold.fsmState(),
	DomainRemovable.fsmState(),
	DomainRemoved.fsmState(),
}

type lifecycleEvent struct {
	t       fsm.EventType
	drained bool
}

func (e *lifecycleEvent) Type() fsm.EventType { return e.t }

func (s DomainState) String() string {
	switch s {
	case DomainReady:
		return "Ready"
	case DomainHold:
		return "Hold"
	case DomainRemovable:
		return "Removable"
	case DomainRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

func (s DomainState) fsmState() fsm.State {
	return fsm.State(s.String())
}

func domainStateOf(s fsm.State) DomainState {
	switch s {
	case DomainHold.fsmState():
		return DomainHold
	case DomainRemovable.fsmState():
		return DomainRemovable
	case DomainRemoved.fsmState():
		return DomainRemoved
	default:
		return DomainReady
	}
}

func drainedTo(evt fsm.Event) (fsm.State, error) {
	e, ok := evt.(*lifecycleEvent)
	if !ok {
		return "", errors.Errorf("unexpected lifecycle event %T", evt)
	}
	if e.drained {
		return DomainRemovable.fsmState(), nil
	}
	return DomainHold.fsmState(), nil
}

func to(s DomainState) fsm.Transition {
	return func(fsm.Event) (fsm.State, error) {
		return s.fsmState(), nil
	}
}

// transit applies a lifecycle event to a domain in state current and returns the new state
func transit(current DomainState, evt *lifecycleEvent) (DomainState, error) {
	m, err := fsm.NewBuilder().
		AddInitialState(current.fsmState()).
		AddStates(_allStates...).
		AddTransition(DomainReady.fsmState(), _holdEvent, drainedTo, []fsm.State{
			DomainHold.fsmState(),
			DomainRemovable.fsmState(),
		}).
		AddTransition(DomainReady.fsmState(), _exhaustEvent, to(DomainHold), []fsm.State{
			DomainHold.fsmState(),
		}).
		AddTransition(DomainHold.fsmState(), _drainEvent, drainedTo, []fsm.State{
			DomainHold.fsmState(),
			DomainRemovable.fsmState(),
		}).
		AddTransition(DomainRemovable.fsmState(), _drainEvent, to(DomainRemovable), []fsm.State{
			DomainRemovable.fsmState(),
		}).
		AddTransition(DomainRemovable.fsmState(), _unregisterEvent, to(DomainRemoved), []fsm.State{
			DomainRemoved.fsmState(),
		}).
		Build()
	if err != nil {
		return current, errors.Wrap(err, "failed to build domain lifecycle")
	}
	if err := m.Handle(evt); err != nil {
		switch errors.Cause(err) {
		case fsm.ErrTransitionNotFound, fsm.ErrInvalidTransition:
			return current, errors.Wrapf(ErrInvalidDomainState, "%s on %s domain", evt.t, current)
		default:
			return current, err
		}
	}
	return domainStateOf(m.CurrentState()), nil
}
