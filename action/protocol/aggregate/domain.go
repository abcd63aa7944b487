// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
	"github.com/iotexproject/iotex-aggregate/state"
)

type (
	// User is the owner or the caller of an operation: an account, or the manager when the account is nil
	User struct {
		account address.Address
	}

	// DeliveryParams is the delivery configuration of a domain
	DeliveryParams struct {
		Owner       address.Address
		Destination action.Destination
		Fee         *big.Int
		OwnerTip    *big.Int
	}

	// AllowlistTicket tracks the allowlist cardinality and its deposit
	AllowlistTicket struct {
		Count uint64
		// Ticket is nil for manager owned domains
		Ticket state.Ticket
	}

	// Domain is an aggregation pipeline
	Domain struct {
		ID                 uint32
		Owner              User
		State              DomainState
		MaxAggregationSize uint32
		PublishQueueSize   uint32
		AggregateRules     action.AggregateSecurityRules
		ProofRules         action.ProofSecurityRules
		Next               *AggregationEntry
		ShouldPublish      map[uint64]*AggregationEntry
		Delivery           DeliveryParams
		// TicketDomain is nil for manager owned domains
		TicketDomain    state.Ticket
		TicketAllowlist *AllowlistTicket
	}
)

// AccountUser returns the user of a signed account
func AccountUser(account address.Address) User {
	return User{account: account}
}

// ManagerUser returns the manager user
func ManagerUser() User {
	return User{}
}

// IsManager returns true for the manager
func (u User) IsManager() bool {
	return u.account == nil
}

// Account returns the account, nil for the manager
func (u User) Account() address.Address {
	return u.account
}

// Equal compares two users
func (u User) Equal(o User) bool {
	if u.IsManager() || o.IsManager() {
		return u.IsManager() == o.IsManager()
	}
	return sameAddress(u.account, o.account)
}

func (u User) String() string {
	if u.IsManager() {
		return "Manager"
	}
	return u.account.String()
}

func sameAddress(a, b address.Address) bool {
	if a == nil || b == nil {
		return false
	}
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// TotalFee returns fee plus owner tip
func (d DeliveryParams) TotalFee() *big.Int {
	return new(big.Int).Add(d.Fee, d.OwnerTip)
}

// NewDomain returns a Ready domain whose first aggregation is firstAggregationID
func NewDomain(
	id uint32,
	owner User,
	firstAggregationID uint64,
	maxAggregationSize uint32,
	publishQueueSize uint32,
	aggregateRules action.AggregateSecurityRules,
	proofRules action.ProofSecurityRules,
	delivery DeliveryParams,
) *Domain {
	return &Domain{
		ID:                 id,
		Owner:              owner,
		State:              DomainReady,
		MaxAggregationSize: maxAggregationSize,
		PublishQueueSize:   publishQueueSize,
		AggregateRules:     aggregateRules,
		ProofRules:         proofRules,
		Next:               NewAggregationEntry(firstAggregationID, maxAggregationSize),
		ShouldPublish:      make(map[uint64]*AggregationEntry),
		Delivery:           delivery,
	}
}

// CanAddStatement returns true if the domain can absorb one more statement
func (d *Domain) CanAddStatement() bool {
	return d.PublishQueueSize > uint32(len(d.ShouldPublish)) || d.Next.SpaceLeft() > 1
}

// AllowlistCount returns the number of allowlisted submitters
func (d *Domain) AllowlistCount() uint64 {
	if d.TicketAllowlist == nil {
		return 0
	}
	return d.TicketAllowlist.Count
}

// drained returns true when nothing is left to publish and no submitter is allowlisted
func (d *Domain) drained() bool {
	return len(d.ShouldPublish) == 0 &&
		d.Next.IsEmpty() &&
		(d.ProofRules != action.ProofOnlyAllowlisted || d.AllowlistCount() == 0)
}

func (d *Domain) emitStateChanged(evts *events) {
	evts.add(DomainStateChangedEvent{ID: d.ID, State: d.State})
}

// handleHoldState moves a held domain toward Removable, emitting an event if the state changed
func (d *Domain) handleHoldState(evts *events) error {
	if d.State == DomainReady {
		return nil
	}
	old := d.State
	s, err := transit(d.State, &lifecycleEvent{t: _drainEvent, drained: d.drained()})
	if err != nil {
		return err
	}
	d.State = s
	if old != d.State {
		d.emitStateChanged(evts)
	}
	return nil
}

// hold puts a Ready domain on hold
func (d *Domain) hold(evts *events) error {
	s, err := transit(d.State, &lifecycleEvent{t: _holdEvent, drained: d.drained()})
	if err != nil {
		return err
	}
	d.State = s
	d.emitStateChanged(evts)
	return nil
}

// remove marks a Removable domain as Removed
func (d *Domain) remove(evts *events) error {
	s, err := transit(d.State, &lifecycleEvent{t: _unregisterEvent})
	if err != nil {
		return err
	}
	d.State = s
	d.emitStateChanged(evts)
	return nil
}

// popNext returns the filling aggregation and replaces it with a new one, or nil if it is empty.
// When no aggregation id is left the domain is forced on hold and an empty placeholder with id 0 is left as next.
func (d *Domain) popNext(evts *events) (*AggregationEntry, error) {
	if d.Next.IsEmpty() {
		return nil, nil
	}
	next, ok := d.Next.createNext(d.Next.Size)
	if !ok {
		log.L().Warn("aggregation id space exhausted, holding domain",
			zap.Uint32("domain", d.ID),
			zap.Error(ErrNextAggregationIDUnavailable))
		if d.State == DomainReady {
			s, err := transit(d.State, &lifecycleEvent{t: _exhaustEvent})
			if err != nil {
				return nil, err
			}
			d.State = s
			d.emitStateChanged(evts)
		}
		next = NewAggregationEntry(0, d.Next.Size)
	}
	popped := d.Next
	d.Next = next
	return popped, nil
}

// takeAggregation removes the aggregation id from the domain, from next or from the publish queue
func (d *Domain) takeAggregation(id uint64, evts *events) (*AggregationEntry, error) {
	if d.Next.ID == id {
		return d.popNext(evts)
	}
	agg, ok := d.ShouldPublish[id]
	if !ok {
		return nil, nil
	}
	delete(d.ShouldPublish, id)
	return agg, nil
}

// appendStatement adds a statement to next and rotates it to the publish queue when complete
func (d *Domain) appendStatement(account address.Address, reserve Reserve, statement hash.Hash256, evts *events) error {
	d.Next.AddStatement(account, reserve, statement)
	if !d.Next.Completed() {
		return nil
	}
	agg, err := d.popNext(evts)
	if err != nil || agg == nil {
		return err
	}
	evts.add(AggregationCompleteEvent{DomainID: d.ID, AggregationID: agg.ID})
	d.ShouldPublish[agg.ID] = agg
	if uint32(len(d.ShouldPublish)) >= d.PublishQueueSize {
		evts.add(DomainFullEvent{DomainID: d.ID})
	}
	return nil
}

// sortedQueue returns the publish queue ordered by aggregation id
func (d *Domain) sortedQueue() []*AggregationEntry {
	queue := make([]*AggregationEntry, 0, len(d.ShouldPublish))
	for _, agg := range d.ShouldPublish {
		queue = append(queue, agg)
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i].ID < queue[j].ID })
	return queue
}

// QueuedIDs returns the ids of the aggregations waiting to be published, ascending
func (d *Domain) QueuedIDs() []uint64 {
	ids := make([]uint64, 0, len(d.ShouldPublish))
	for _, agg := range d.sortedQueue() {
		ids = append(ids, agg.ID)
	}
	return ids
}

// Size bounds used to price the domain storage deposit
const (
	_statementEntryEncodedSize = address.AddressLength + 2*16 + 32
	_domainHeaderEncodedSize   = 4 + 21 + 1 + 4 + 4 + 1 + 1 + 21 + 2*16 + 1
	_destinationEncodedSize    = 1 + 1 + 4 + 4 + 20 + 8
)

// encodedSize bounds the storage used by a domain with the given capacities
func encodedSize(maxAggregationSize, publishQueueSize uint32, dst action.Destination) uint64 {
	aggregation := uint64(8+4) + uint64(maxAggregationSize)*_statementEntryEncodedSize
	size := uint64(_domainHeaderEncodedSize) + aggregation + uint64(publishQueueSize)*(8+aggregation)
	if dst.IsNone() {
		return size + 1
	}
	return size + _destinationEncodedSize
}
