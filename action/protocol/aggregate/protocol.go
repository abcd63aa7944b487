// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"context"
	"math/big"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
	"github.com/iotexproject/iotex-aggregate/state"
)

const (
	// _protocolID is the protocol ID
	_protocolID = "aggregate"

	// AggregationHoldReason holds the aggregation share of a statement reserve
	AggregationHoldReason = state.HoldReason("aggregate/aggregation")
	// DeliveryHoldReason holds the delivery share of a statement reserve
	DeliveryHoldReason = state.HoldReason("aggregate/delivery")
	// DomainHoldReason holds the storage deposit of a domain
	DomainHoldReason = state.HoldReason("aggregate/domain")
	// AllowlistHoldReason holds the storage deposit of a domain allowlist
	AllowlistHoldReason = state.HoldReason("aggregate/allowlist")
)

type (
	// Ledger holds and releases funds of accounts
	Ledger interface {
		Hold(sm protocol.StateManager, reason state.HoldReason, who address.Address, amount *big.Int) error
		// Release returns the amount actually released
		Release(sm protocol.StateManager, reason state.HoldReason, who address.Address, amount *big.Int) (*big.Int, error)
		// TransferOnHold returns the amount actually transferred
		TransferOnHold(sm protocol.StateManager, reason state.HoldReason, from, to address.Address, amount *big.Int) (*big.Int, error)
	}

	// Considerations takes storage deposits sized by a footprint
	Considerations interface {
		Open(sm protocol.StateManager, who address.Address, fp state.Footprint) (state.Ticket, error)
		Update(sm protocol.StateManager, who address.Address, ticket state.Ticket, fp state.Footprint) (state.Ticket, error)
		Drop(sm protocol.StateManager, who address.Address, ticket state.Ticket) error
	}

	// DispatchRequest is a published aggregation handed to delivery
	DispatchRequest struct {
		DomainID      uint32
		AggregationID uint64
		Receipt       hash.Hash256
		Destination   action.Destination
		Fee           *big.Int
		DeliveryOwner address.Address
	}

	// Dispatcher delivers published receipts
	Dispatcher interface {
		DispatchAggregation(ctx context.Context, sm protocol.StateManager, req *DispatchRequest) error
		DispatchWeight(dst action.Destination) action.Weight
		MaxDispatchWeight() action.Weight
	}

	// FeeEstimator estimates the fee of a call of the given weight
	FeeEstimator interface {
		EstimateCallFee(w action.Weight) *big.Int
	}

	// EventSink receives the events of the protocol
	EventSink interface {
		HandleEvent(ctx context.Context, evt action.Event)
	}

	// Config is the configuration of the protocol
	Config struct {
		// AggregationSize is the max size of an aggregation
		AggregationSize uint32
		// MaxPendingPublishQueueSize is the max number of completed aggregations waiting for publication
		MaxPendingPublishQueueSize uint32
		// PublisherTipPercent is the publisher tip added to the estimated publication fee
		PublisherTipPercent uint64
	}

	// Option sets an optional collaborator of the protocol
	Option func(*Protocol)

	// Protocol defines the protocol of aggregating verified statements
	Protocol struct {
		cfg               Config
		ledger            Ledger
		domainDeposits    Considerations
		allowlistDeposits Considerations
		dispatcher        Dispatcher
		estimator         FeeEstimator
		weights           WeightInfo
		sink              EventSink
	}

	nopSink struct{}
)

var (
	_ protocol.Protocol         = (*Protocol)(nil)
	_ protocol.PreStatesCreator = (*Protocol)(nil)
	_ protocol.WeightCalculator = (*Protocol)(nil)
)

func (nopSink) HandleEvent(context.Context, action.Event) {}

// WithWeights overrides the benchmarked weights
func WithWeights(w WeightInfo) Option {
	return func(p *Protocol) {
		p.weights = w
	}
}

// WithEventSink sets where events are sent
func WithEventSink(sink EventSink) Option {
	return func(p *Protocol) {
		p.sink = sink
	}
}

// NewProtocol instantiates the protocol of aggregate
func NewProtocol(
	cfg Config,
	ledger Ledger,
	domainDeposits Considerations,
	allowlistDeposits Considerations,
	dispatcher Dispatcher,
	estimator FeeEstimator,
	opts ...Option,
) (*Protocol, error) {
	if cfg.AggregationSize == 0 || cfg.MaxPendingPublishQueueSize == 0 {
		return nil, errors.New("aggregation size and publish queue size must be positive")
	}
	if ledger == nil || domainDeposits == nil || allowlistDeposits == nil || dispatcher == nil || estimator == nil {
		return nil, errors.New("missing collaborator")
	}
	p := &Protocol{
		cfg:               cfg,
		ledger:            ledger,
		domainDeposits:    domainDeposits,
		allowlistDeposits: allowlistDeposits,
		dispatcher:        dispatcher,
		estimator:         estimator,
		weights:           DefaultWeights(),
		sink:              nopSink{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the name of protocol
func (p *Protocol) Name() string {
	return _protocolID
}

// CreatePreStates clears the aggregations published in the previous block
func (p *Protocol) CreatePreStates(_ context.Context, sm protocol.StateManager) error {
	return clearPublished(sm)
}

// Handle handles the actions of the protocol. Every change is reverted if the handler fails.
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	var (
		handler func(context.Context, User, protocol.StateManager, *events) (action.Weight, error)
		evts    events
	)
	switch act := act.(type) {
	case *action.RegisterDomain:
		handler = func(ctx context.Context, u User, sm protocol.StateManager, evts *events) (action.Weight, error) {
			return p.handleRegisterDomain(ctx, u, act, sm, evts)
		}
	case *action.HoldDomain:
		handler = func(ctx context.Context, u User, sm protocol.StateManager, evts *events) (action.Weight, error) {
			return p.handleHoldDomain(ctx, u, act, sm, evts)
		}
	case *action.UnregisterDomain:
		handler = func(ctx context.Context, u User, sm protocol.StateManager, evts *events) (action.Weight, error) {
			return p.handleUnregisterDomain(ctx, u, act, sm, evts)
		}
	case *action.SetTotalDeliveryFee:
		handler = func(ctx context.Context, u User, sm protocol.StateManager, evts *events) (action.Weight, error) {
			return p.handleSetTotalDeliveryFee(ctx, u, act, sm, evts)
		}
	case *action.AllowlistProofSubmitters:
		handler = func(ctx context.Context, u User, sm protocol.StateManager, evts *events) (action.Weight, error) {
			return p.handleAllowlistProofSubmitters(ctx, u, act, sm, evts)
		}
	case *action.RemoveProofSubmitters:
		handler = func(ctx context.Context, u User, sm protocol.StateManager, evts *events) (action.Weight, error) {
			return p.handleRemoveProofSubmitters(ctx, u, act, sm, evts)
		}
	case *action.Aggregate:
		handler = func(ctx context.Context, u User, sm protocol.StateManager, evts *events) (action.Weight, error) {
			return p.handleAggregate(ctx, u, act, sm, evts)
		}
	default:
		return nil, nil
	}
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	user, err := userFromActionCtx(actionCtx)
	if err != nil {
		return nil, err
	}
	snapshot := sm.Snapshot()
	w, err := handler(ctx, user, sm, &evts)
	if err != nil {
		if revertErr := sm.Revert(snapshot); revertErr != nil {
			log.L().Error("failed to revert aggregate action", zap.Error(revertErr))
		}
		return nil, err
	}
	receipt := &action.Receipt{
		Status:      action.SuccessReceiptStatus,
		BlockHeight: blkCtx.BlockHeight,
		ActionHash:  actionCtx.ActionHash,
		Weight:      w,
		Pays:        !user.IsManager(),
	}
	p.flush(ctx, evts)
	return receipt.AddEvents(evts...), nil
}

// ActionWeight returns the weight charged upfront for an action
func (p *Protocol) ActionWeight(act action.Action) (action.Weight, bool) {
	switch act := act.(type) {
	case *action.RegisterDomain:
		return p.weights.RegisterDomain(), true
	case *action.HoldDomain:
		return p.weights.HoldDomain(), true
	case *action.UnregisterDomain:
		return p.weights.UnregisterDomain(), true
	case *action.SetTotalDeliveryFee:
		return p.weights.SetTotalDeliveryFee(), true
	case *action.AllowlistProofSubmitters:
		return p.weights.AllowlistProofSubmitters(uint32(len(act.Submitters()))), true
	case *action.RemoveProofSubmitters:
		return p.weights.RemoveProofSubmitters(uint32(len(act.Submitters()))), true
	case *action.Aggregate:
		return p.weights.Aggregate(p.cfg.AggregationSize).Add(p.dispatcher.MaxDispatchWeight()), true
	default:
		return action.Weight{}, false
	}
}

// EstimateNotificationCost returns the weight of OnProofVerified, zero when no domain is given
func (p *Protocol) EstimateNotificationCost(domainID *uint32) action.Weight {
	if domainID == nil {
		return action.Weight{}
	}
	return p.weights.OnProofVerified()
}

// Domain returns the domain id, or nil if it does not exist
func (p *Protocol) Domain(sr protocol.StateReader, id uint32) (*Domain, error) {
	return loadDomain(sr, id)
}

// NextDomainID returns the id the next registered domain will get
func (p *Protocol) NextDomainID(sr protocol.StateReader) (uint32, error) {
	return nextDomainID(sr)
}

// Allowlist returns the allowlisted submitters of a domain
func (p *Protocol) Allowlist(sr protocol.StateReader, id uint32) ([]address.Address, error) {
	return allowlisted(sr, id)
}

// Published returns the aggregations published in the current block
func (p *Protocol) Published(sr protocol.StateReader) ([]Published, error) {
	return loadPublished(sr)
}

func (p *Protocol) flush(ctx context.Context, evts events) {
	for _, evt := range evts {
		p.sink.HandleEvent(ctx, evt)
	}
}

func userFromActionCtx(actionCtx protocol.ActionCtx) (User, error) {
	if actionCtx.Privileged {
		return ManagerUser(), nil
	}
	if actionCtx.Caller == nil {
		return User{}, ErrBadOrigin
	}
	return AccountUser(actionCtx.Caller), nil
}
