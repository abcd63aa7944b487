// Copyright (c) 2018 IoTeX
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"github.com/iotexproject/go-pkgs/hash"
)

const (
	// FailureReceiptStatus is the status that the action failed
	FailureReceiptStatus = uint64(0)
	// SuccessReceiptStatus is the status that the action succeeded
	SuccessReceiptStatus = uint64(1)
)

type (
	// Event is emitted by a protocol while handling an action or a notification
	Event interface {
		EventName() string
	}

	// Receipt represents the result of an action
	Receipt struct {
		Status      uint64
		BlockHeight uint64
		ActionHash  hash.Hash256
		// Weight is the actual cost of the action
		Weight Weight
		// Pays is false when the origin is exempted from fees
		Pays   bool
		events []Event
	}
)

// Events returns the events emitted while handling the action
func (receipt *Receipt) Events() []Event {
	return receipt.events
}

// AddEvents adds events to the receipt
func (receipt *Receipt) AddEvents(evts ...Event) *Receipt {
	receipt.events = append(receipt.events, evts...)
	return receipt
}
