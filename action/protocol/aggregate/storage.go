// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/state"
)

const (
	// NextDomainIDNamespace stores the next domain id
	NextDomainIDNamespace = "AggregateNextDomainID"
	// DomainNamespace stores the domains by id
	DomainNamespace = "AggregateDomains"
	// AllowlistNamespace stores the (domain id, submitter) allowlist set
	AllowlistNamespace = "AggregateAllowlist"
	// PublishedNamespace stores the aggregations published in the current block
	PublishedNamespace = "AggregatePublished"
)

var (
	_nextDomainIDKey = []byte("nextDomainID")
	_publishedKey    = []byte("published")
	_allowlistMarker = []byte{1}
)

type (
	statementRecord struct {
		Account   []byte
		Aggregate *big.Int
		Delivery  *big.Int
		Statement [32]byte
	}

	aggregationRecord struct {
		ID         uint64
		Size       uint32
		Statements []statementRecord
	}

	destinationRecord struct {
		Kind      uint8
		ChainKind uint8
		ChainID   uint32
		ChainTag  [4]byte
		Module    [20]byte
		Timeout   uint64
	}

	domainRecord struct {
		ID                 uint32
		Owner              []byte
		State              uint8
		MaxAggregationSize uint32
		PublishQueueSize   uint32
		AggregateRules     uint8
		ProofRules         uint8
		Next               aggregationRecord
		ShouldPublish      []aggregationRecord
		DeliveryOwner      []byte
		Destination        destinationRecord
		Fee                *big.Int
		OwnerTip           *big.Int
		TicketDomain       []byte
		HasAllowlist       bool
		AllowlistCount     uint64
		AllowlistTicket    []byte
	}

	publishedRecord struct {
		DomainID    uint32
		Aggregation aggregationRecord
	}

	// Published is an aggregation published in the current block
	Published struct {
		DomainID    uint32
		Aggregation *AggregationEntry
	}

	publishedList []Published
)

func addressBytes(a address.Address) []byte {
	if a == nil {
		return nil
	}
	return a.Bytes()
}

func bytesAddress(b []byte) (address.Address, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return address.FromBytes(b)
}

func bigOrZero(b *big.Int) *big.Int {
	if b == nil {
		return big.NewInt(0)
	}
	return b
}

func (a *AggregationEntry) toRecord() aggregationRecord {
	rec := aggregationRecord{ID: a.ID, Size: a.Size}
	for _, s := range a.Statements {
		rec.Statements = append(rec.Statements, statementRecord{
			Account:   addressBytes(s.Account),
			Aggregate: bigOrZero(s.Reserve.Aggregate),
			Delivery:  bigOrZero(s.Reserve.Delivery),
			Statement: s.Statement,
		})
	}
	return rec
}

func (rec *aggregationRecord) toAggregation() (*AggregationEntry, error) {
	a := NewAggregationEntry(rec.ID, rec.Size)
	for _, s := range rec.Statements {
		account, err := bytesAddress(s.Account)
		if err != nil {
			return nil, err
		}
		a.Statements = append(a.Statements, StatementEntry{
			Account:   account,
			Reserve:   NewReserve(s.Aggregate, s.Delivery),
			Statement: hash.Hash256(s.Statement),
		})
	}
	return a, nil
}

func toDestinationRecord(d action.Destination) destinationRecord {
	return destinationRecord{
		Kind:      uint8(d.Kind),
		ChainKind: uint8(d.Hyperbridge.DestinationChain.Kind),
		ChainID:   d.Hyperbridge.DestinationChain.ID,
		ChainTag:  d.Hyperbridge.DestinationChain.Tag,
		Module:    d.Hyperbridge.DestinationModule,
		Timeout:   d.Hyperbridge.Timeout,
	}
}

func (rec *destinationRecord) toDestination() action.Destination {
	if action.DestinationKind(rec.Kind) == action.DestinationNone {
		return action.NoneDestination()
	}
	return action.HyperbridgeDestination(action.HyperbridgeParams{
		DestinationChain: action.StateMachine{
			Kind: action.StateMachineKind(rec.ChainKind),
			ID:   rec.ChainID,
			Tag:  rec.ChainTag,
		},
		DestinationModule: rec.Module,
		Timeout:           rec.Timeout,
	})
}

// Serialize serializes the domain into bytes
func (d *Domain) Serialize() ([]byte, error) {
	rec := domainRecord{
		ID:                 d.ID,
		Owner:              addressBytes(d.Owner.Account()),
		State:              uint8(d.State),
		MaxAggregationSize: d.MaxAggregationSize,
		PublishQueueSize:   d.PublishQueueSize,
		AggregateRules:     uint8(d.AggregateRules),
		ProofRules:         uint8(d.ProofRules),
		Next:               d.Next.toRecord(),
		DeliveryOwner:      addressBytes(d.Delivery.Owner),
		Destination:        toDestinationRecord(d.Delivery.Destination),
		Fee:                bigOrZero(d.Delivery.Fee),
		OwnerTip:           bigOrZero(d.Delivery.OwnerTip),
		TicketDomain:       d.TicketDomain,
	}
	for _, agg := range d.sortedQueue() {
		rec.ShouldPublish = append(rec.ShouldPublish, agg.toRecord())
	}
	if d.TicketAllowlist != nil {
		rec.HasAllowlist = true
		rec.AllowlistCount = d.TicketAllowlist.Count
		rec.AllowlistTicket = d.TicketAllowlist.Ticket
	}
	data, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return nil, errors.Wrap(state.ErrStateSerialization, err.Error())
	}
	return data, nil
}

// Deserialize deserializes bytes into the domain
func (d *Domain) Deserialize(buf []byte) error {
	var rec domainRecord
	if err := rlp.DecodeBytes(buf, &rec); err != nil {
		return errors.Wrap(state.ErrStateDeserialization, err.Error())
	}
	owner, err := bytesAddress(rec.Owner)
	if err != nil {
		return errors.Wrap(state.ErrStateDeserialization, err.Error())
	}
	deliveryOwner, err := bytesAddress(rec.DeliveryOwner)
	if err != nil {
		return errors.Wrap(state.ErrStateDeserialization, err.Error())
	}
	next, err := rec.Next.toAggregation()
	if err != nil {
		return errors.Wrap(state.ErrStateDeserialization, err.Error())
	}
	queue := make(map[uint64]*AggregationEntry, len(rec.ShouldPublish))
	for i := range rec.ShouldPublish {
		agg, err := rec.ShouldPublish[i].toAggregation()
		if err != nil {
			return errors.Wrap(state.ErrStateDeserialization, err.Error())
		}
		queue[agg.ID] = agg
	}
	*d = Domain{
		ID:                 rec.ID,
		Owner:              AccountUser(owner),
		State:              DomainState(rec.State),
		MaxAggregationSize: rec.MaxAggregationSize,
		PublishQueueSize:   rec.PublishQueueSize,
		AggregateRules:     action.AggregateSecurityRules(rec.AggregateRules),
		ProofRules:         action.ProofSecurityRules(rec.ProofRules),
		Next:               next,
		ShouldPublish:      queue,
		Delivery: DeliveryParams{
			Owner:       deliveryOwner,
			Destination: rec.Destination.toDestination(),
			Fee:         rec.Fee,
			OwnerTip:    rec.OwnerTip,
		},
	}
	if len(rec.TicketDomain) > 0 {
		d.TicketDomain = rec.TicketDomain
	}
	if rec.HasAllowlist {
		d.TicketAllowlist = &AllowlistTicket{Count: rec.AllowlistCount}
		if len(rec.AllowlistTicket) > 0 {
			d.TicketAllowlist.Ticket = rec.AllowlistTicket
		}
	}
	return nil
}

// Serialize serializes the published list into bytes
func (l publishedList) Serialize() ([]byte, error) {
	recs := make([]publishedRecord, 0, len(l))
	for _, p := range l {
		recs = append(recs, publishedRecord{DomainID: p.DomainID, Aggregation: p.Aggregation.toRecord()})
	}
	data, err := rlp.EncodeToBytes(recs)
	if err != nil {
		return nil, errors.Wrap(state.ErrStateSerialization, err.Error())
	}
	return data, nil
}

// Deserialize deserializes bytes into the published list
func (l *publishedList) Deserialize(buf []byte) error {
	var recs []publishedRecord
	if err := rlp.DecodeBytes(buf, &recs); err != nil {
		return errors.Wrap(state.ErrStateDeserialization, err.Error())
	}
	list := make(publishedList, 0, len(recs))
	for i := range recs {
		agg, err := recs[i].Aggregation.toAggregation()
		if err != nil {
			return errors.Wrap(state.ErrStateDeserialization, err.Error())
		}
		list = append(list, Published{DomainID: recs[i].DomainID, Aggregation: agg})
	}
	*l = list
	return nil
}

func domainKey(id uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, id)
	return key
}

func allowlistKey(domainID uint32, submitter address.Address) []byte {
	return append(domainKey(domainID), submitter.Bytes()...)
}

// loadDomain returns the domain id, or nil if it does not exist
func loadDomain(sr protocol.StateReader, id uint32) (*Domain, error) {
	var d Domain
	_, err := sr.State(&d, protocol.NamespaceOption(DomainNamespace), protocol.KeyOption(domainKey(id)))
	switch errors.Cause(err) {
	case nil:
		return &d, nil
	case state.ErrStateNotExist:
		return nil, nil
	default:
		return nil, errors.Wrapf(err, "failed to load domain %d", id)
	}
}

// ReadDomain returns the stored domain id, or nil if it does not exist
func ReadDomain(sr protocol.StateReader, id uint32) (*Domain, error) {
	return loadDomain(sr, id)
}

func putDomain(sm protocol.StateManager, d *Domain) error {
	_, err := sm.PutState(d, protocol.NamespaceOption(DomainNamespace), protocol.KeyOption(domainKey(d.ID)))
	return errors.Wrapf(err, "failed to store domain %d", d.ID)
}

func delDomain(sm protocol.StateManager, id uint32) error {
	_, err := sm.DelState(protocol.NamespaceOption(DomainNamespace), protocol.KeyOption(domainKey(id)))
	return errors.Wrapf(err, "failed to delete domain %d", id)
}

func nextDomainID(sr protocol.StateReader) (uint32, error) {
	var data []byte
	_, err := sr.State(&data, protocol.NamespaceOption(NextDomainIDNamespace), protocol.KeyOption(_nextDomainIDKey))
	switch errors.Cause(err) {
	case nil:
		if len(data) != 4 {
			return 0, errors.Wrapf(state.ErrStateDeserialization, "next domain id of %d bytes", len(data))
		}
		return binary.BigEndian.Uint32(data), nil
	case state.ErrStateNotExist:
		return 0, nil
	default:
		return 0, errors.Wrap(err, "failed to load next domain id")
	}
}

func putNextDomainID(sm protocol.StateManager, id uint32) error {
	_, err := sm.PutState(domainKey(id), protocol.NamespaceOption(NextDomainIDNamespace), protocol.KeyOption(_nextDomainIDKey))
	return errors.Wrap(err, "failed to store next domain id")
}

func isAllowlisted(sr protocol.StateReader, domainID uint32, submitter address.Address) (bool, error) {
	var data []byte
	_, err := sr.State(&data, protocol.NamespaceOption(AllowlistNamespace), protocol.KeyOption(allowlistKey(domainID, submitter)))
	switch errors.Cause(err) {
	case nil:
		return true, nil
	case state.ErrStateNotExist:
		return false, nil
	default:
		return false, errors.Wrap(err, "failed to read allowlist")
	}
}

func putAllowlisted(sm protocol.StateManager, domainID uint32, submitter address.Address) error {
	_, err := sm.PutState(_allowlistMarker, protocol.NamespaceOption(AllowlistNamespace), protocol.KeyOption(allowlistKey(domainID, submitter)))
	return err
}

func delAllowlisted(sm protocol.StateManager, domainID uint32, submitter address.Address) error {
	_, err := sm.DelState(protocol.NamespaceOption(AllowlistNamespace), protocol.KeyOption(allowlistKey(domainID, submitter)))
	return err
}

// allowlisted returns every submitter allowlisted on domainID
func allowlisted(sr protocol.StateReader, domainID uint32) ([]address.Address, error) {
	_, iter, err := sr.States(protocol.NamespaceOption(AllowlistNamespace), protocol.PrefixOption(domainKey(domainID)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to iterate allowlist")
	}
	submitters := make([]address.Address, 0, iter.Size())
	for i := 0; i < iter.Size(); i++ {
		var v []byte
		key, err := iter.Next(&v)
		if err != nil {
			return nil, err
		}
		submitter, err := address.FromBytes(key[4:])
		if err != nil {
			return nil, errors.Wrap(err, "malformed allowlist key")
		}
		submitters = append(submitters, submitter)
	}
	return submitters, nil
}

func loadPublished(sr protocol.StateReader) (publishedList, error) {
	var l publishedList
	_, err := sr.State(&l, protocol.NamespaceOption(PublishedNamespace), protocol.KeyOption(_publishedKey))
	switch errors.Cause(err) {
	case nil:
		return l, nil
	case state.ErrStateNotExist:
		return publishedList{}, nil
	default:
		return nil, errors.Wrap(err, "failed to load published aggregations")
	}
}

func putPublished(sm protocol.StateManager, l publishedList) error {
	_, err := sm.PutState(l, protocol.NamespaceOption(PublishedNamespace), protocol.KeyOption(_publishedKey))
	return errors.Wrap(err, "failed to store published aggregations")
}

func clearPublished(sm protocol.StateManager) error {
	_, err := sm.DelState(protocol.NamespaceOption(PublishedNamespace), protocol.KeyOption(_publishedKey))
	return errors.Wrap(err, "failed to clear published aggregations")
}
