// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"encoding/binary"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidAmount indicates a nil or negative amount
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNilAction indicates an envelope without action
	ErrNilAction = errors.New("nil action")
	// ErrAddress indicates a missing or malformed address
	ErrAddress = errors.New("invalid address")
)

type (
	// Action is a command handled by the registered protocols
	Action interface {
		// SanityCheck validates the static fields of the action
		SanityCheck() error
	}

	// Envelope wraps an action with the origin dispatching it
	Envelope struct {
		caller     address.Address
		privileged bool
		nonce      uint64
		action     Action
	}
)

// NewEnvelope wraps an action signed by caller
func NewEnvelope(caller address.Address, nonce uint64, act Action) *Envelope {
	return &Envelope{
		caller: caller,
		nonce:  nonce,
		action: act,
	}
}

// NewPrivilegedEnvelope wraps an action dispatched by the manager origin
func NewPrivilegedEnvelope(nonce uint64, act Action) *Envelope {
	return &Envelope{
		privileged: true,
		nonce:      nonce,
		action:     act,
	}
}

// Caller returns the caller, nil for privileged envelopes
func (elp *Envelope) Caller() address.Address { return elp.caller }

// Privileged returns true if the action comes from the manager origin
func (elp *Envelope) Privileged() bool { return elp.privileged }

// Nonce returns the nonce
func (elp *Envelope) Nonce() uint64 { return elp.nonce }

// Action returns the wrapped action
func (elp *Envelope) Action() Action { return elp.action }

// SanityCheck validates the envelope and its action
func (elp *Envelope) SanityCheck() error {
	if elp.action == nil {
		return ErrNilAction
	}
	if !elp.privileged && elp.caller == nil {
		return errors.Wrap(ErrAddress, "missing caller")
	}
	return elp.action.SanityCheck()
}

// Hash identifies the envelope by origin and nonce
func (elp *Envelope) Hash() hash.Hash256 {
	var buf []byte
	if elp.privileged {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
		buf = append(buf, elp.caller.Bytes()...)
	}
	buf = binary.BigEndian.AppendUint64(buf, elp.nonce)
	return hash.Hash256b(buf)
}
