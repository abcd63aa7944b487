// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
)

// canSubmitProof checks the proof security rules of d for submitter
func canSubmitProof(sr protocol.StateReader, d *Domain, submitter address.Address) (bool, error) {
	switch d.ProofRules {
	case action.ProofUntrusted:
		return true, nil
	case action.ProofOnlyOwner:
		return !d.Owner.IsManager() && sameAddress(d.Owner.Account(), submitter), nil
	case action.ProofOnlyAllowlisted:
		return isAllowlisted(sr, d.ID, submitter)
	default:
		return false, nil
	}
}

// isPrivileged returns true for the domain owner, the delivery owner and the manager
func isPrivileged(d *Domain, u User) bool {
	return u.IsManager() || d.Owner.Equal(u) || sameAddress(d.Delivery.Owner, u.Account())
}

// canAggregate checks the aggregate security rules of d for publishing agg
func canAggregate(d *Domain, u User, agg *AggregationEntry) bool {
	switch d.AggregateRules {
	case action.AggregateUntrusted:
		return true
	case action.AggregateOnlyOwner:
		return isPrivileged(d, u)
	case action.AggregateOnlyOwnerUncompleted:
		return agg.Completed() || isPrivileged(d, u)
	default:
		return false
	}
}

// canHandleDomain allows the domain owner and the manager
func canHandleDomain(d *Domain, u User) bool {
	return u.IsManager() || d.Owner.Equal(u)
}

func canSetTotalDeliveryFee(d *Domain, u User) bool {
	return isPrivileged(d, u)
}

// canCreateDomain allows only the manager to register a domain with a delivery destination
func canCreateDomain(u User, dst action.Destination) bool {
	return dst.IsNone() || u.IsManager()
}
