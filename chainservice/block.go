// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"time"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-aggregate/action"
)

type (
	// ProofNotice tells that the proof of a statement was verified for account
	ProofNotice struct {
		Account address.Address
		// DomainID is nil when the proof was not submitted to a domain
		DomainID  *uint32
		Statement hash.Hash256
	}

	// Block is the input of one state transition. Proof notices are applied before envelopes.
	Block struct {
		Height    uint64
		Timestamp time.Time
		Notices   []*ProofNotice
		Envelopes []*action.Envelope
	}
)
