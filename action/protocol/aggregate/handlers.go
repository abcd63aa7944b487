// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
	"github.com/iotexproject/iotex-aggregate/pkg/tracer"
	"github.com/iotexproject/iotex-aggregate/state"
)

// _allowlistItemSize is the storage footprint of one allowlisted submitter
const _allowlistItemSize = 20

func (p *Protocol) handleRegisterDomain(
	_ context.Context,
	u User,
	act *action.RegisterDomain,
	sm protocol.StateManager,
	evts *events,
) (action.Weight, error) {
	w := p.weights.RegisterDomain()
	delivery := act.Delivery()
	if !canCreateDomain(u, delivery.Destination) {
		return w, errors.Wrap(ErrBadOrigin, "only manager can register a domain with a delivery destination")
	}
	deliveryOwner := act.DeliveryOwner()
	if deliveryOwner == nil {
		deliveryOwner = u.Account()
	}
	if deliveryOwner == nil {
		return w, ErrMissedDeliveryOwnership
	}
	id, err := nextDomainID(sm)
	if err != nil {
		return w, err
	}
	if id == math.MaxUint32 {
		return w, errors.Wrap(ErrInvalidDomainParams, "domain id space exhausted")
	}
	size := act.AggregationSize()
	if size == 0 || size > p.cfg.AggregationSize {
		return w, errors.Wrapf(ErrInvalidDomainParams, "aggregation size %d out of (0, %d]", size, p.cfg.AggregationSize)
	}
	queue := p.cfg.MaxPendingPublishQueueSize
	if act.QueueSize() != nil {
		queue = *act.QueueSize()
	}
	if queue == 0 || queue > p.cfg.MaxPendingPublishQueueSize {
		return w, errors.Wrapf(ErrInvalidDomainParams, "queue size %d out of (0, %d]", queue, p.cfg.MaxPendingPublishQueueSize)
	}
	d := NewDomain(id, u, 1, size, queue, act.AggregateRules(), act.ProofRules(), DeliveryParams{
		Owner:       deliveryOwner,
		Destination: delivery.Destination,
		Fee:         delivery.Fee,
		OwnerTip:    delivery.OwnerTip,
	})
	if !u.IsManager() {
		fp := state.NewFootprint(1, encodedSize(size, queue, delivery.Destination))
		if d.TicketDomain, err = p.domainDeposits.Open(sm, u.Account(), fp); err != nil {
			return w, errors.Wrap(err, "failed to take domain deposit")
		}
	}
	if d.ProofRules == action.ProofOnlyAllowlisted {
		d.TicketAllowlist = &AllowlistTicket{}
		if !u.IsManager() {
			if d.TicketAllowlist.Ticket, err = p.allowlistDeposits.Open(sm, u.Account(), state.NewFootprint(0, 0)); err != nil {
				return w, errors.Wrap(err, "failed to take allowlist deposit")
			}
		}
	}
	if err := putDomain(sm, d); err != nil {
		return w, err
	}
	if err := putNextDomainID(sm, id+1); err != nil {
		return w, err
	}
	evts.add(NewDomainEvent{ID: id})
	log.Logger("aggregate").Debug("domain registered",
		zap.Uint32("domain", id),
		zap.Stringer("owner", u),
		zap.Uint32("size", size),
		zap.Uint32("queue", queue))
	return w, nil
}

// ownedDomain loads a domain that the user is allowed to handle
func ownedDomain(sr protocol.StateReader, id uint32, u User) (*Domain, error) {
	d, err := loadDomain(sr, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.Wrapf(ErrUnknownDomainID, "domain %d", id)
	}
	if !canHandleDomain(d, u) {
		return nil, errors.Wrapf(ErrBadOrigin, "%s cannot handle domain %d", u, id)
	}
	return d, nil
}

func (p *Protocol) handleHoldDomain(
	_ context.Context,
	u User,
	act *action.HoldDomain,
	sm protocol.StateManager,
	evts *events,
) (action.Weight, error) {
	w := p.weights.HoldDomain()
	d, err := ownedDomain(sm, act.DomainID(), u)
	if err != nil {
		return w, err
	}
	if err := d.hold(evts); err != nil {
		return w, err
	}
	return w, putDomain(sm, d)
}

func (p *Protocol) handleUnregisterDomain(
	_ context.Context,
	u User,
	act *action.UnregisterDomain,
	sm protocol.StateManager,
	evts *events,
) (action.Weight, error) {
	w := p.weights.UnregisterDomain()
	d, err := ownedDomain(sm, act.DomainID(), u)
	if err != nil {
		return w, err
	}
	if err := d.remove(evts); err != nil {
		return w, err
	}
	if !d.Owner.IsManager() {
		if d.TicketDomain != nil {
			if err := p.domainDeposits.Drop(sm, d.Owner.Account(), d.TicketDomain); err != nil {
				return w, errors.Wrap(err, "failed to refund domain deposit")
			}
		}
		if d.TicketAllowlist != nil && d.TicketAllowlist.Ticket != nil {
			if err := p.allowlistDeposits.Drop(sm, d.Owner.Account(), d.TicketAllowlist.Ticket); err != nil {
				return w, errors.Wrap(err, "failed to refund allowlist deposit")
			}
		}
	}
	submitters, err := allowlisted(sm, d.ID)
	if err != nil {
		return w, err
	}
	for _, s := range submitters {
		if err := delAllowlisted(sm, d.ID, s); err != nil {
			return w, err
		}
	}
	return w, delDomain(sm, d.ID)
}

func (p *Protocol) handleSetTotalDeliveryFee(
	_ context.Context,
	u User,
	act *action.SetTotalDeliveryFee,
	sm protocol.StateManager,
	_ *events,
) (action.Weight, error) {
	w := p.weights.SetTotalDeliveryFee()
	d, err := loadDomain(sm, act.DomainID())
	if err != nil {
		return w, err
	}
	if d == nil {
		return w, errors.Wrapf(ErrUnknownDomainID, "domain %d", act.DomainID())
	}
	if !canSetTotalDeliveryFee(d, u) {
		return w, errors.Wrapf(ErrBadOrigin, "%s cannot set delivery fee of domain %d", u, d.ID)
	}
	d.Delivery.Fee = act.Fee()
	d.Delivery.OwnerTip = act.OwnerTip()
	return w, putDomain(sm, d)
}

func (p *Protocol) allowlistDomain(sr protocol.StateReader, id uint32, u User) (*Domain, error) {
	d, err := ownedDomain(sr, id, u)
	if err != nil {
		return nil, err
	}
	if d.ProofRules != action.ProofOnlyAllowlisted || d.TicketAllowlist == nil {
		return nil, errors.Wrapf(ErrInvalidDomainParams, "domain %d does not use an allowlist", id)
	}
	return d, nil
}

// updateAllowlistDeposit reprices the allowlist deposit after its count changed
func (p *Protocol) updateAllowlistDeposit(sm protocol.StateManager, d *Domain) error {
	if d.Owner.IsManager() || d.TicketAllowlist.Ticket == nil {
		return nil
	}
	count := d.TicketAllowlist.Count
	ticket, err := p.allowlistDeposits.Update(sm, d.Owner.Account(), d.TicketAllowlist.Ticket,
		state.NewFootprint(count, count*_allowlistItemSize))
	if err != nil {
		return errors.Wrap(err, "failed to update allowlist deposit")
	}
	d.TicketAllowlist.Ticket = ticket
	return nil
}

func (p *Protocol) handleAllowlistProofSubmitters(
	_ context.Context,
	u User,
	act *action.AllowlistProofSubmitters,
	sm protocol.StateManager,
	_ *events,
) (action.Weight, error) {
	w := p.weights.AllowlistProofSubmitters(uint32(len(act.Submitters())))
	d, err := p.allowlistDomain(sm, act.DomainID(), u)
	if err != nil {
		return w, err
	}
	if d.State != DomainReady {
		return w, errors.Wrapf(ErrInvalidDomainState, "cannot allowlist submitters on %s domain %d", d.State, d.ID)
	}
	for _, s := range act.Submitters() {
		ok, err := isAllowlisted(sm, d.ID, s)
		if err != nil {
			return w, err
		}
		if ok {
			continue
		}
		if d.TicketAllowlist.Count == math.MaxUint64 {
			return w, errors.Wrap(ErrInvalidDomainParams, "allowlist count overflow")
		}
		if err := putAllowlisted(sm, d.ID, s); err != nil {
			return w, err
		}
		d.TicketAllowlist.Count++
	}
	if err := p.updateAllowlistDeposit(sm, d); err != nil {
		return w, err
	}
	return w, putDomain(sm, d)
}

func (p *Protocol) handleRemoveProofSubmitters(
	_ context.Context,
	u User,
	act *action.RemoveProofSubmitters,
	sm protocol.StateManager,
	evts *events,
) (action.Weight, error) {
	w := p.weights.RemoveProofSubmitters(uint32(len(act.Submitters())))
	d, err := p.allowlistDomain(sm, act.DomainID(), u)
	if err != nil {
		return w, err
	}
	for _, s := range act.Submitters() {
		ok, err := isAllowlisted(sm, d.ID, s)
		if err != nil {
			return w, err
		}
		if !ok {
			continue
		}
		if d.TicketAllowlist.Count == 0 {
			// the allowlist set holds more members than counted
			return w, errors.Wrap(ErrInvalidDomainParams, "allowlist count underflow")
		}
		if err := delAllowlisted(sm, d.ID, s); err != nil {
			return w, err
		}
		d.TicketAllowlist.Count--
	}
	if err := p.updateAllowlistDeposit(sm, d); err != nil {
		return w, err
	}
	if err := d.handleHoldState(evts); err != nil {
		return w, err
	}
	return w, putDomain(sm, d)
}

func (p *Protocol) handleAggregate(
	ctx context.Context,
	u User,
	act *action.Aggregate,
	sm protocol.StateManager,
	evts *events,
) (_ action.Weight, err error) {
	ctx, span := tracer.NewSpan(ctx, "aggregate.Aggregate",
		attribute.Int64("domain", int64(act.DomainID())),
		attribute.Int64("aggregation", int64(act.AggregationID())))
	defer func() {
		tracer.EndSpan(span, err)
		_publishMtc.WithLabelValues(publishResult(err)).Inc()
	}()

	d, err := loadDomain(sm, act.DomainID())
	if err != nil {
		return action.Weight{}, err
	}
	if d == nil {
		return action.Weight{}, newDispatchError(
			errors.Wrapf(ErrUnknownDomainID, "domain %d", act.DomainID()),
			p.weights.AggregateOnInvalidDomain())
	}
	agg, err := d.takeAggregation(act.AggregationID(), evts)
	if err != nil {
		return action.Weight{}, err
	}
	if agg == nil {
		return action.Weight{}, newDispatchError(
			errors.Wrapf(ErrInvalidAggregationID, "aggregation %d of domain %d", act.AggregationID(), d.ID),
			p.weights.AggregateOnInvalidID())
	}
	if !canAggregate(d, u, agg) {
		return action.Weight{}, errors.Wrapf(ErrBadOrigin, "%s cannot publish aggregation %d of domain %d", u, agg.ID, d.ID)
	}
	receipt := agg.ComputeReceipt()
	published, err := loadPublished(sm)
	if err != nil {
		return action.Weight{}, err
	}
	published = append(published, Published{DomainID: d.ID, Aggregation: agg})
	if err := putPublished(sm, published); err != nil {
		return action.Weight{}, err
	}
	if err := p.settle(sm, u, d.Delivery.Owner, agg); err != nil {
		return action.Weight{}, errors.Wrap(err, "failed to settle reserves")
	}
	if err := d.handleHoldState(evts); err != nil {
		return action.Weight{}, err
	}
	if err := putDomain(sm, d); err != nil {
		return action.Weight{}, err
	}
	evts.add(NewAggregationReceiptEvent{DomainID: d.ID, AggregationID: agg.ID, Receipt: receipt})
	if err := p.dispatcher.DispatchAggregation(ctx, sm, &DispatchRequest{
		DomainID:      d.ID,
		AggregationID: agg.ID,
		Receipt:       receipt,
		Destination:   d.Delivery.Destination,
		Fee:           d.Delivery.Fee,
		DeliveryOwner: d.Delivery.Owner,
	}); err != nil {
		return action.Weight{}, errors.Wrapf(err, "failed to dispatch aggregation %d of domain %d", agg.ID, d.ID)
	}
	_statementMtc.WithLabelValues("published").Add(float64(len(agg.Statements)))
	return p.weights.Aggregate(uint32(len(agg.Statements))).Add(p.dispatcher.DispatchWeight(d.Delivery.Destination)), nil
}
