// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/action/protocol/account"
	"github.com/iotexproject/iotex-aggregate/action/protocol/aggregate"
	"github.com/iotexproject/iotex-aggregate/crypto"
	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/state"
	"github.com/iotexproject/iotex-aggregate/state/factory"
	"github.com/iotexproject/iotex-aggregate/test/identityset"
	"github.com/iotexproject/iotex-aggregate/test/mock/mock_aggregate"
)

var (
	_initBalance = big.NewInt(1_000_000)
	_publishFee  = big.NewInt(1600)
	_dispatchW   = action.NewWeight(1000, 10)
)

type (
	recorder struct {
		evts []action.Event
	}

	fixture struct {
		t          *testing.T
		p          *aggregate.Protocol
		sm         factory.WorkingSet
		ledger     *account.Ledger
		dispatcher *mock_aggregate.MockDispatcher
		sink       *recorder
	}
)

func (r *recorder) HandleEvent(_ context.Context, evt action.Event) {
	r.evts = append(r.evts, evt)
}

func (r *recorder) reset() []action.Event {
	evts := r.evts
	r.evts = nil
	return evts
}

func newFixture(t *testing.T, tipPercent uint64) *fixture {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	sf, err := factory.NewFactory(db.NewMemKVStore())
	require.NoError(err)
	ws, err := sf.NewWorkingSet(1)
	require.NoError(err)

	ledger := account.NewLedger()
	for i := 0; i < identityset.Size(); i++ {
		require.NoError(ledger.Deposit(ws, identityset.Address(i), _initBalance))
	}
	dispatcher := mock_aggregate.NewMockDispatcher(ctrl)
	dispatcher.EXPECT().DispatchWeight(gomock.Any()).Return(_dispatchW).AnyTimes()
	dispatcher.EXPECT().MaxDispatchWeight().Return(_dispatchW).AnyTimes()
	sink := &recorder{}
	p, err := aggregate.NewProtocol(
		aggregate.Config{AggregationSize: 32, MaxPendingPublishQueueSize: 8, PublisherTipPercent: tipPercent},
		ledger,
		account.NewConsiderations(ledger, aggregate.DomainHoldReason, account.DepositPolicy{Base: big.NewInt(10), PerByte: big.NewInt(0)}),
		account.NewConsiderations(ledger, aggregate.AllowlistHoldReason, account.DepositPolicy{Base: big.NewInt(5), PerItem: big.NewInt(2)}),
		dispatcher,
		&aggregate.LinearFeeEstimator{BaseFee: _publishFee},
		aggregate.WithEventSink(sink),
	)
	require.NoError(err)
	return &fixture{t: t, p: p, sm: ws, ledger: ledger, dispatcher: dispatcher, sink: sink}
}

// handle runs act as caller, or as the manager when caller is nil
func (f *fixture) handle(caller address.Address, act action.Action) (*action.Receipt, error) {
	ctx := protocol.WithBlockCtx(context.Background(), protocol.BlockCtx{BlockHeight: 1})
	ctx = protocol.WithActionCtx(ctx, protocol.ActionCtx{
		Caller:     caller,
		ActionHash: hash.Hash256b([]byte("action")),
		Privileged: caller == nil,
	})
	return f.p.Handle(ctx, act, f.sm)
}

func (f *fixture) register(caller address.Address, size, queue uint32, aRules action.AggregateSecurityRules, pRules action.ProofSecurityRules, fee, tip int64) uint32 {
	id, err := f.p.NextDomainID(f.sm)
	require.NoError(f.t, err)
	deliveryOwner := caller
	if deliveryOwner == nil {
		deliveryOwner = identityset.Manager()
	}
	_, err = f.handle(caller, action.NewRegisterDomain(size, &queue, aRules, pRules,
		action.NewDelivery(action.NoneDestination(), big.NewInt(fee), big.NewInt(tip)), deliveryOwner))
	require.NoError(f.t, err)
	f.sink.reset()
	return id
}

func (f *fixture) submit(submitter address.Address, domainID uint32, s hash.Hash256) {
	f.p.OnProofVerified(context.Background(), f.sm, submitter, &domainID, s)
}

func (f *fixture) domain(id uint32) *aggregate.Domain {
	d, err := f.p.Domain(f.sm, id)
	require.NoError(f.t, err)
	return d
}

func (f *fixture) balance(who address.Address) *big.Int {
	b, err := f.ledger.Balance(f.sm, who)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) held(reason state.HoldReason, who address.Address) *big.Int {
	b, err := f.ledger.BalanceOnHold(f.sm, reason, who)
	require.NoError(f.t, err)
	return b
}

func stmt(i int) hash.Hash256 {
	return hash.Hash256b([]byte{byte(i), byte(i >> 8), 0x5c})
}

func eventsNamed(evts []action.Event, name string) []action.Event {
	var ret []action.Event
	for _, e := range evts {
		if e.EventName() == name {
			ret = append(ret, e)
		}
	}
	return ret
}

func TestCompleteAggregation(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	owner := identityset.Address(0)
	id := f.register(owner, 16, 8, action.AggregateUntrusted, action.ProofUntrusted, 0, 0)

	for i := 1; i <= 16; i++ {
		f.submit(identityset.Address(i), id, stmt(i))
	}
	evts := f.sink.reset()
	require.Len(eventsNamed(evts, aggregate.NewProofEventName), 16)
	require.Equal([]action.Event{aggregate.AggregationCompleteEvent{DomainID: id, AggregationID: 1}},
		eventsNamed(evts, aggregate.AggregationCompleteEventName))
	require.Equal(aggregate.NewProofEvent{Statement: stmt(16), DomainID: id, AggregationID: 1},
		eventsNamed(evts, aggregate.NewProofEventName)[15])

	d := f.domain(id)
	require.Equal(uint64(2), d.Next.ID)
	require.True(d.Next.IsEmpty())
	require.Equal([]uint64{1}, d.QueuedIDs())

	// each submitter holds 1600/16 for publication
	for i := 1; i <= 16; i++ {
		require.Equal(big.NewInt(100), f.held(aggregate.AggregationHoldReason, identityset.Address(i)))
		require.Zero(f.held(aggregate.DeliveryHoldReason, identityset.Address(i)).Sign())
	}
}

func TestDomainStorageFull(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	submitter := identityset.Address(3)
	id := f.register(identityset.Address(0), 4, 2, action.AggregateUntrusted, action.ProofUntrusted, 40, 0)

	for i := 0; i < 11; i++ {
		f.submit(submitter, id, stmt(i))
	}
	evts := f.sink.reset()
	require.Len(eventsNamed(evts, aggregate.NewProofEventName), 11)
	require.Len(eventsNamed(evts, aggregate.DomainFullEventName), 1)

	// reserve conservation: 11 statements of 1600/4 + 40/4
	require.Equal(big.NewInt(11*400), f.held(aggregate.AggregationHoldReason, submitter))
	require.Equal(big.NewInt(11*10), f.held(aggregate.DeliveryHoldReason, submitter))
	before := f.balance(submitter)

	f.submit(submitter, id, stmt(100))
	require.Equal([]action.Event{aggregate.CannotAggregateEvent{
		Statement: stmt(100),
		Cause:     aggregate.CannotAggregateCause{Kind: aggregate.CauseDomainStorageFull, DomainID: id},
	}}, f.sink.reset())
	require.Equal(before, f.balance(submitter))
	require.Equal(big.NewInt(11*400), f.held(aggregate.AggregationHoldReason, submitter))
	d := f.domain(id)
	require.Len(d.Next.Statements, 3)
	require.Equal([]uint64{1, 2}, d.QueuedIDs())
}

func TestAdmissionRejections(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	owner := identityset.Address(0)
	open := f.register(owner, 4, 2, action.AggregateUntrusted, action.ProofUntrusted, 0, 0)
	ownerOnly := f.register(owner, 4, 2, action.AggregateUntrusted, action.ProofOnlyOwner, 0, 0)
	managed := f.register(nil, 4, 2, action.AggregateUntrusted, action.ProofOnlyOwner, 0, 0)
	held := f.register(owner, 4, 2, action.AggregateUntrusted, action.ProofUntrusted, 0, 0)
	_, err := f.handle(owner, action.NewHoldDomain(held))
	require.NoError(err)
	f.sink.reset()

	cause := func(kind aggregate.CauseKind, id uint32) aggregate.CannotAggregateCause {
		return aggregate.CannotAggregateCause{Kind: kind, DomainID: id}
	}
	// no account
	f.p.OnProofVerified(context.Background(), f.sm, nil, &open, stmt(1))
	require.Equal([]action.Event{aggregate.CannotAggregateEvent{Statement: stmt(1), Cause: aggregate.CannotAggregateCause{Kind: aggregate.CauseNoAccount}}}, f.sink.reset())
	// no domain is silently ignored
	f.p.OnProofVerified(context.Background(), f.sm, identityset.Address(1), nil, stmt(1))
	require.Empty(f.sink.reset())

	tests := []struct {
		submitter address.Address
		domain    uint32
		cause     aggregate.CannotAggregateCause
	}{
		{identityset.Address(1), 99, cause(aggregate.CauseDomainNotRegistered, 99)},
		{identityset.Address(1), held, aggregate.CannotAggregateCause{Kind: aggregate.CauseInvalidDomainState, DomainID: held, State: aggregate.DomainRemovable}},
		{identityset.Address(1), ownerOnly, cause(aggregate.CauseUnauthorizedUser, ownerOnly)},
		{owner, managed, cause(aggregate.CauseUnauthorizedUser, managed)},
		{identityset.Address(1), managed, cause(aggregate.CauseUnauthorizedUser, managed)},
	}
	for _, test := range tests {
		f.submit(test.submitter, test.domain, stmt(2))
		require.Equal([]action.Event{aggregate.CannotAggregateEvent{Statement: stmt(2), Cause: test.cause}}, f.sink.reset())
	}

	// the owner may submit to its OnlyOwner domain
	f.submit(owner, ownerOnly, stmt(3))
	require.Len(eventsNamed(f.sink.reset(), aggregate.NewProofEventName), 1)
	require.Equal(uint64(0), f.p.EstimateNotificationCost(nil).RefTime)
	require.Equal(aggregate.DefaultWeights().OnProofVerified(), f.p.EstimateNotificationCost(&open))
}

func TestInsufficientFunds(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	id := f.register(identityset.Address(0), 4, 2, action.AggregateUntrusted, action.ProofUntrusted, 400, 0)
	poor := identityset.Address(5)
	// enough for the aggregation reserve (400) but not for the delivery reserve (100)
	require.NoError(f.ledger.Transfer(f.sm, poor, identityset.Address(6), new(big.Int).Sub(_initBalance, big.NewInt(450))))

	f.submit(poor, id, stmt(1))
	require.Equal([]action.Event{aggregate.CannotAggregateEvent{
		Statement: stmt(1),
		Cause:     aggregate.CannotAggregateCause{Kind: aggregate.CauseInsufficientFunds, DomainID: id},
	}}, f.sink.reset())
	require.Equal(big.NewInt(450), f.balance(poor))
	require.Zero(f.held(aggregate.AggregationHoldReason, poor).Sign())
	require.True(f.domain(id).Next.IsEmpty())
}

func TestPublisherTip(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 50)
	id := f.register(identityset.Address(0), 16, 8, action.AggregateUntrusted, action.ProofUntrusted, 0, 0)
	f.submit(identityset.Address(1), id, stmt(1))
	// (1600 + 50%) / 16
	require.Equal(big.NewInt(150), f.held(aggregate.AggregationHoldReason, identityset.Address(1)))
}

func TestPublishAuthorization(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	owner, stranger := identityset.Address(0), identityset.Address(9)
	id := f.register(owner, 4, 2, action.AggregateOnlyOwnerUncompleted, action.ProofUntrusted, 0, 0)
	for i := 1; i <= 3; i++ {
		f.submit(identityset.Address(i), id, stmt(i))
	}
	f.sink.reset()

	_, err := f.handle(stranger, action.NewAggregate(id, 1))
	require.Equal(aggregate.ErrBadOrigin, errors.Cause(err))
	require.Empty(f.sink.reset())
	d := f.domain(id)
	require.Equal(uint64(1), d.Next.ID)
	require.Len(d.Next.Statements, 3)

	f.submit(identityset.Address(4), id, stmt(4))
	f.sink.reset()
	f.dispatcher.EXPECT().DispatchAggregation(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
	before := f.balance(stranger)
	r, err := f.handle(stranger, action.NewAggregate(id, 1))
	require.NoError(err)
	require.True(r.Pays)
	require.Equal(action.SuccessReceiptStatus, r.Status)
	require.Equal(aggregate.DefaultWeights().Aggregate(4).Add(_dispatchW), r.Weight)
	// the publisher collects the aggregation reserves
	require.Equal(new(big.Int).Add(before, big.NewInt(1600)), f.balance(stranger))
	for i := 1; i <= 4; i++ {
		require.Zero(f.held(aggregate.AggregationHoldReason, identityset.Address(i)).Sign())
	}
	require.Empty(f.domain(id).ShouldPublish)
}

func TestManagerPublish(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	owner, deliveryOwner := identityset.Address(0), identityset.Address(20)
	queue := uint32(2)
	id := uint32(0)
	_, err := f.handle(owner, action.NewRegisterDomain(4, &queue, action.AggregateOnlyOwner, action.ProofUntrusted,
		action.NewDelivery(action.NoneDestination(), big.NewInt(0), big.NewInt(0)), deliveryOwner))
	require.NoError(err)
	_, err = f.handle(deliveryOwner, action.NewSetTotalDeliveryFee(id, big.NewInt(160), big.NewInt(40)))
	require.NoError(err)
	_, err = f.handle(identityset.Address(9), action.NewSetTotalDeliveryFee(id, big.NewInt(1), big.NewInt(1)))
	require.Equal(aggregate.ErrBadOrigin, errors.Cause(err))

	for i := 1; i <= 4; i++ {
		f.submit(identityset.Address(i), id, stmt(i))
	}
	f.sink.reset()
	ownerBalance := f.balance(deliveryOwner)

	d := f.domain(id)
	receipt := d.ShouldPublish[1].ComputeReceipt()
	f.dispatcher.EXPECT().DispatchAggregation(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ protocol.StateManager, req *aggregate.DispatchRequest) error {
			require.Equal(id, req.DomainID)
			require.Equal(uint64(1), req.AggregationID)
			require.Equal(receipt, req.Receipt)
			require.Equal(big.NewInt(160), req.Fee)
			require.Equal(deliveryOwner.String(), req.DeliveryOwner.String())
			return nil
		}).Times(1)
	r, err := f.handle(nil, action.NewAggregate(id, 1))
	require.NoError(err)
	require.False(r.Pays)
	require.Equal([]action.Event{aggregate.NewAggregationReceiptEvent{DomainID: id, AggregationID: 1, Receipt: receipt}}, r.Events())
	require.Equal(r.Events(), f.sink.reset())

	for i := 1; i <= 4; i++ {
		// aggregation reserve released, delivery share paid
		require.Equal(new(big.Int).Sub(_initBalance, big.NewInt(50)), f.balance(identityset.Address(i)))
		require.Zero(f.held(aggregate.AggregationHoldReason, identityset.Address(i)).Sign())
		require.Zero(f.held(aggregate.DeliveryHoldReason, identityset.Address(i)).Sign())
	}
	require.Equal(new(big.Int).Add(ownerBalance, big.NewInt(200)), f.balance(deliveryOwner))

	published, err := f.p.Published(f.sm)
	require.NoError(err)
	require.Len(published, 1)
}

func TestPublishRollback(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	publisher := identityset.Address(9)
	id := f.register(identityset.Address(0), 2, 2, action.AggregateUntrusted, action.ProofUntrusted, 20, 0)
	f.submit(identityset.Address(1), id, stmt(1))
	f.submit(identityset.Address(2), id, stmt(2))
	f.sink.reset()
	before := f.balance(publisher)

	f.dispatcher.EXPECT().DispatchAggregation(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("no route")).Times(1)
	_, err := f.handle(publisher, action.NewAggregate(id, 1))
	require.Error(err)
	require.Empty(f.sink.reset())
	require.Equal(before, f.balance(publisher))
	require.Equal(big.NewInt(800), f.held(aggregate.AggregationHoldReason, identityset.Address(1)))
	require.Equal(big.NewInt(10), f.held(aggregate.DeliveryHoldReason, identityset.Address(2)))
	require.Equal([]uint64{1}, f.domain(id).QueuedIDs())
	published, err := f.p.Published(f.sm)
	require.NoError(err)
	require.Empty(published)
}

func TestPublishInvalid(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	id := f.register(identityset.Address(0), 4, 2, action.AggregateUntrusted, action.ProofUntrusted, 0, 0)

	_, err := f.handle(identityset.Address(1), action.NewAggregate(99, 1))
	require.Equal(aggregate.ErrUnknownDomainID, errors.Cause(err))
	w, ok := aggregate.ActualWeight(err)
	require.True(ok)
	require.Equal(aggregate.DefaultWeights().AggregateOnInvalidDomain(), w)

	// an empty next aggregation cannot be published
	_, err = f.handle(identityset.Address(1), action.NewAggregate(id, 1))
	require.Equal(aggregate.ErrInvalidAggregationID, errors.Cause(err))
	w, ok = aggregate.ActualWeight(err)
	require.True(ok)
	require.Equal(aggregate.DefaultWeights().AggregateOnInvalidID(), w)

	_, err = f.handle(identityset.Address(1), action.NewAggregate(id, 7))
	require.Equal(aggregate.ErrInvalidAggregationID, errors.Cause(err))

	_, ok = aggregate.ActualWeight(errors.New("plain"))
	require.False(ok)

	w, ok = f.p.ActionWeight(action.NewAggregate(id, 1))
	require.True(ok)
	require.Equal(aggregate.DefaultWeights().Aggregate(32).Add(_dispatchW), w)
	_, ok = f.p.ActionWeight(action.NewTransfer(identityset.Address(1), big.NewInt(1)))
	require.False(ok)
}

func TestStatementPath(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	id := f.register(identityset.Address(0), 4, 2, action.AggregateUntrusted, action.ProofUntrusted, 0, 0)
	for i := 1; i <= 3; i++ {
		f.submit(identityset.Address(i), id, stmt(i))
	}
	_, err := f.p.GetStatementPath(f.sm, id, 1, stmt(1))
	var pathErr *aggregate.PathRequestError
	require.ErrorAs(err, &pathErr)
	require.Equal(aggregate.PathReceiptNotPublished, pathErr.Kind)

	f.dispatcher.EXPECT().DispatchAggregation(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
	_, err = f.handle(identityset.Address(0), action.NewAggregate(id, 1))
	require.NoError(err)

	receipt := f.sink.reset()
	root := receipt[len(receipt)-1].(aggregate.NewAggregationReceiptEvent).Receipt
	for i := 1; i <= 3; i++ {
		proof, err := f.p.GetStatementPath(f.sm, id, 1, stmt(i))
		require.NoError(err)
		require.Equal(root, proof.Root)
		require.True(crypto.VerifyProof(root, proof.Proof, proof.NumberOfLeaves, proof.LeafIndex, stmt(i)))
	}
	_, err = f.p.GetStatementPath(f.sm, id, 1, stmt(9))
	require.ErrorAs(err, &pathErr)
	require.Equal(aggregate.PathNotFound, pathErr.Kind)

	// the published list only lives for the current block
	require.NoError(f.p.CreatePreStates(context.Background(), f.sm))
	_, err = f.p.GetStatementPath(f.sm, id, 1, stmt(1))
	require.ErrorAs(err, &pathErr)
	require.Equal(aggregate.PathReceiptNotPublished, pathErr.Kind)
}

func TestRegisterDomain(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	owner := identityset.Address(0)
	none := action.NewDelivery(action.NoneDestination(), big.NewInt(0), big.NewInt(0))
	hb := action.NewDelivery(action.HyperbridgeDestination(action.HyperbridgeParams{Timeout: 60}), big.NewInt(0), big.NewInt(0))
	big1 := uint32(9)

	tests := []struct {
		caller address.Address
		act    *action.RegisterDomain
		err    error
	}{
		{owner, action.NewRegisterDomain(0, nil, action.AggregateUntrusted, action.ProofUntrusted, none, nil), aggregate.ErrInvalidDomainParams},
		{owner, action.NewRegisterDomain(33, nil, action.AggregateUntrusted, action.ProofUntrusted, none, nil), aggregate.ErrInvalidDomainParams},
		{owner, action.NewRegisterDomain(4, &big1, action.AggregateUntrusted, action.ProofUntrusted, none, nil), aggregate.ErrInvalidDomainParams},
		{owner, action.NewRegisterDomain(4, nil, action.AggregateUntrusted, action.ProofUntrusted, hb, nil), aggregate.ErrBadOrigin},
		{nil, action.NewRegisterDomain(4, nil, action.AggregateUntrusted, action.ProofUntrusted, hb, nil), aggregate.ErrMissedDeliveryOwnership},
	}
	for _, test := range tests {
		_, err := f.handle(test.caller, test.act)
		require.Equal(test.err, errors.Cause(err))
	}
	next, err := f.p.NextDomainID(f.sm)
	require.NoError(err)
	require.Zero(next)
	require.Empty(f.sink.reset())

	r, err := f.handle(owner, action.NewRegisterDomain(4, nil, action.AggregateUntrusted, action.ProofOnlyAllowlisted, none, nil))
	require.NoError(err)
	require.Equal([]action.Event{aggregate.NewDomainEvent{ID: 0}}, r.Events())
	d := f.domain(0)
	require.Equal(uint32(8), d.PublishQueueSize)
	require.Equal(uint64(1), d.Next.ID)
	require.Equal(owner.String(), d.Delivery.Owner.String())
	require.NotNil(d.TicketDomain)
	require.NotNil(d.TicketAllowlist)
	require.Zero(d.AllowlistCount())
	require.Equal(big.NewInt(10), f.held(aggregate.DomainHoldReason, owner))
	require.Equal(big.NewInt(5), f.held(aggregate.AllowlistHoldReason, owner))

	r, err = f.handle(nil, action.NewRegisterDomain(4, nil, action.AggregateUntrusted, action.ProofOnlyAllowlisted, hb, identityset.Address(7)))
	require.NoError(err)
	require.False(r.Pays)
	d = f.domain(1)
	require.True(d.Owner.IsManager())
	require.Nil(d.TicketDomain)
	require.Nil(d.TicketAllowlist.Ticket)
}

func TestAllowlistLifecycle(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	owner := identityset.Address(0)
	id := f.register(owner, 4, 2, action.AggregateUntrusted, action.ProofOnlyAllowlisted, 0, 0)
	a, b, c := identityset.Address(1), identityset.Address(2), identityset.Address(3)

	_, err := f.handle(a, action.NewAllowlistProofSubmitters(id, []address.Address{a}))
	require.Equal(aggregate.ErrBadOrigin, errors.Cause(err))

	_, err = f.handle(owner, action.NewAllowlistProofSubmitters(id, []address.Address{a, b, a}))
	require.NoError(err)
	require.Equal(uint64(2), f.domain(id).AllowlistCount())
	require.Equal(big.NewInt(5+2*2), f.held(aggregate.AllowlistHoldReason, owner))
	members, err := f.p.Allowlist(f.sm, id)
	require.NoError(err)
	require.Len(members, 2)

	f.submit(a, id, stmt(1))
	f.submit(c, id, stmt(2))
	evts := f.sink.reset()
	require.Len(eventsNamed(evts, aggregate.NewProofEventName), 1)
	require.Len(eventsNamed(evts, aggregate.CannotAggregateEventName), 1)

	// drain the statement so only the allowlist keeps the domain alive
	f.dispatcher.EXPECT().DispatchAggregation(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
	_, err = f.handle(owner, action.NewAggregate(id, 1))
	require.NoError(err)

	r, err := f.handle(owner, action.NewHoldDomain(id))
	require.NoError(err)
	require.Equal([]action.Event{aggregate.DomainStateChangedEvent{ID: id, State: aggregate.DomainHold}}, r.Events())

	_, err = f.handle(owner, action.NewAllowlistProofSubmitters(id, []address.Address{c}))
	require.Equal(aggregate.ErrInvalidDomainState, errors.Cause(err))

	// unregister is rejected until the domain is drained, and nothing is refunded
	_, err = f.handle(owner, action.NewUnregisterDomain(id))
	require.Equal(aggregate.ErrInvalidDomainState, errors.Cause(err))
	require.Equal(big.NewInt(10), f.held(aggregate.DomainHoldReason, owner))
	require.Equal(big.NewInt(9), f.held(aggregate.AllowlistHoldReason, owner))

	f.sink.reset()
	r, err = f.handle(owner, action.NewRemoveProofSubmitters(id, []address.Address{a, b, c}))
	require.NoError(err)
	require.Equal([]action.Event{aggregate.DomainStateChangedEvent{ID: id, State: aggregate.DomainRemovable}}, r.Events())
	require.Equal(big.NewInt(5), f.held(aggregate.AllowlistHoldReason, owner))

	r, err = f.handle(nil, action.NewUnregisterDomain(id))
	require.NoError(err)
	require.Equal([]action.Event{aggregate.DomainStateChangedEvent{ID: id, State: aggregate.DomainRemoved}}, r.Events())
	require.Nil(f.domain(id))
	require.Zero(f.held(aggregate.DomainHoldReason, owner).Sign())
	require.Zero(f.held(aggregate.AllowlistHoldReason, owner).Sign())

	_, err = f.handle(owner, action.NewHoldDomain(id))
	require.Equal(aggregate.ErrUnknownDomainID, errors.Cause(err))
}

func TestAllowlistRequiresAllowlistDomain(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	id := f.register(identityset.Address(0), 4, 2, action.AggregateUntrusted, action.ProofUntrusted, 0, 0)
	_, err := f.handle(identityset.Address(0), action.NewAllowlistProofSubmitters(id, []address.Address{identityset.Address(1)}))
	require.Equal(aggregate.ErrInvalidDomainParams, errors.Cause(err))
	_, err = f.handle(nil, action.NewRemoveProofSubmitters(id, []address.Address{identityset.Address(1)}))
	require.Equal(aggregate.ErrInvalidDomainParams, errors.Cause(err))
}

func TestHoldDrainsAfterPublish(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, 0)
	owner := identityset.Address(0)
	id := f.register(owner, 2, 2, action.AggregateUntrusted, action.ProofUntrusted, 0, 0)
	f.submit(identityset.Address(1), id, stmt(1))
	f.submit(identityset.Address(2), id, stmt(2))
	f.submit(identityset.Address(3), id, stmt(3))

	_, err := f.handle(identityset.Address(4), action.NewHoldDomain(id))
	require.Equal(aggregate.ErrBadOrigin, errors.Cause(err))
	_, err = f.handle(owner, action.NewHoldDomain(id))
	require.NoError(err)
	_, err = f.handle(owner, action.NewHoldDomain(id))
	require.Equal(aggregate.ErrInvalidDomainState, errors.Cause(err))
	f.sink.reset()

	f.dispatcher.EXPECT().DispatchAggregation(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	r, err := f.handle(owner, action.NewAggregate(id, 1))
	require.NoError(err)
	require.Empty(eventsNamed(r.Events(), aggregate.DomainStateChangedEventName))
	r, err = f.handle(owner, action.NewAggregate(id, 2))
	require.NoError(err)
	require.Equal([]action.Event{
		aggregate.DomainStateChangedEvent{ID: id, State: aggregate.DomainRemovable},
	}, eventsNamed(r.Events(), aggregate.DomainStateChangedEventName))
	require.Equal(aggregate.DomainRemovable, f.domain(id).State)
}

func TestEventSink(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	sf, err := factory.NewFactory(db.NewMemKVStore())
	require.NoError(err)
	ws, err := sf.NewWorkingSet(1)
	require.NoError(err)
	ledger := mock_aggregate.NewMockLedger(ctrl)
	deposits := mock_aggregate.NewMockConsiderations(ctrl)
	sink := mock_aggregate.NewMockEventSink(ctrl)
	estimator := mock_aggregate.NewMockFeeEstimator(ctrl)
	p, err := aggregate.NewProtocol(aggregate.Config{AggregationSize: 4, MaxPendingPublishQueueSize: 1},
		ledger, deposits, deposits, mock_aggregate.NewMockDispatcher(ctrl), estimator, aggregate.WithEventSink(sink))
	require.NoError(err)

	_, err = aggregate.NewProtocol(aggregate.Config{}, ledger, deposits, deposits, nil, estimator)
	require.Error(err)

	deposits.EXPECT().Open(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte{1}, nil).Times(1)
	sink.EXPECT().HandleEvent(gomock.Any(), aggregate.NewDomainEvent{ID: 0}).Times(1)
	ctx := protocol.WithBlockCtx(context.Background(), protocol.BlockCtx{BlockHeight: 1})
	ctx = protocol.WithActionCtx(ctx, protocol.ActionCtx{Caller: identityset.Address(0)})
	_, err = p.Handle(ctx, action.NewRegisterDomain(4, nil, action.AggregateUntrusted, action.ProofUntrusted,
		action.NewDelivery(action.NoneDestination(), big.NewInt(0), big.NewInt(0)), nil), ws)
	require.NoError(err)

	// a failed hold is reported as insufficient funds
	estimator.EXPECT().EstimateCallFee(gomock.Any()).Return(big.NewInt(40)).Times(1)
	ledger.EXPECT().Hold(gomock.Any(), aggregate.AggregationHoldReason, gomock.Any(), big.NewInt(10)).Return(errors.New("frozen")).Times(1)
	id := uint32(0)
	sink.EXPECT().HandleEvent(gomock.Any(), aggregate.CannotAggregateEvent{
		Statement: stmt(1),
		Cause:     aggregate.CannotAggregateCause{Kind: aggregate.CauseInsufficientFunds, DomainID: id},
	}).Times(1)
	p.OnProofVerified(context.Background(), ws, identityset.Address(1), &id, stmt(1))
}
