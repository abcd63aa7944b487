// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol/aggregate"
	"github.com/iotexproject/iotex-aggregate/config"
	"github.com/iotexproject/iotex-aggregate/crypto"
	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/delivery"
	"github.com/iotexproject/iotex-aggregate/test/identityset"
	"github.com/iotexproject/iotex-aggregate/test/mock/mock_delivery"
)

func testConfig() config.Config {
	cfg := config.Default
	cfg.Aggregate.AggregationSize = 4
	cfg.Aggregate.PublisherTipPercent = 0
	cfg.Aggregate.BaseFee = "1600"
	cfg.Aggregate.FeePerRefTime = "0"
	cfg.Aggregate.FeePerProofSize = "0"
	cfg.Aggregate.Manager = identityset.Manager().String()
	cfg.Account = config.Account{DomainBase: "10", DomainPerByte: "0", AllowlistBase: "5", AllowlistPerItem: "1"}
	cfg.Delivery.FeeCollector = identityset.Address(9).String()
	cfg.Delivery.MinFee = "0"
	cfg.Delivery.RelayInterval = 0
	cfg.Genesis.Balances = map[string]string{}
	for i := 0; i < 4; i++ {
		cfg.Genesis.Balances[identityset.Address(i).String()] = "10000"
	}
	return cfg
}

func newTestService(t *testing.T, sink delivery.Sink) *ChainService {
	require := require.New(t)
	cs, err := New(testConfig(), db.NewMemKVStore(), WithDeliverySink(sink))
	require.NoError(err)
	ctx := context.Background()
	require.NoError(cs.Start(ctx))
	t.Cleanup(func() {
		require.NoError(cs.Stop(ctx))
	})
	require.NoError(cs.Genesis(ctx))
	return cs
}

func statement(i int) hash.Hash256 {
	return hash.Hash256b([]byte{byte(i), 0x77})
}

func TestGenesis(t *testing.T) {
	require := require.New(t)
	cs := newTestService(t, delivery.LogSink{})
	balance, err := cs.Balance(identityset.Address(1))
	require.NoError(err)
	require.Equal(big.NewInt(10000), balance)

	// applied once
	require.NoError(cs.Genesis(context.Background()))
	balance, err = cs.Balance(identityset.Address(1))
	require.NoError(err)
	require.Equal(big.NewInt(10000), balance)
}

func TestExecuteBlock(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	sink := mock_delivery.NewMockSink(ctrl)
	cs := newTestService(t, sink)
	ctx := context.Background()
	owner, submitter, publisher := identityset.Address(0), identityset.Address(1), identityset.Address(2)

	// the manager registers a hyperbridge domain
	queue := uint32(2)
	dst := action.HyperbridgeDestination(action.HyperbridgeParams{
		DestinationChain:  action.StateMachine{Kind: action.StateMachineEvm, ID: 1},
		DestinationModule: [20]byte{0x11},
		Timeout:           600,
	})
	receipts, err := cs.ExecuteBlock(ctx, &Block{
		Height:    1,
		Timestamp: time.Unix(1_700_000_000, 0),
		Envelopes: []*action.Envelope{
			action.NewEnvelope(identityset.Manager(), 0, action.NewRegisterDomain(2, &queue,
				action.AggregateUntrusted, action.ProofUntrusted,
				action.NewDelivery(dst, big.NewInt(100), big.NewInt(0)), owner)),
		},
	})
	require.NoError(err)
	require.Len(receipts, 1)
	require.Equal(action.SuccessReceiptStatus, receipts[0].Status)
	require.False(receipts[0].Pays)
	d, err := cs.Domain(0)
	require.NoError(err)
	require.True(d.Owner.IsManager())

	// two statements complete the aggregation, which is published in the same block
	domainID := uint32(0)
	receipts, err = cs.ExecuteBlock(ctx, &Block{
		Height:    2,
		Timestamp: time.Unix(1_700_000_006, 0),
		Notices: []*ProofNotice{
			{Account: submitter, DomainID: &domainID, Statement: statement(0)},
			{Account: submitter, DomainID: &domainID, Statement: statement(1)},
		},
		Envelopes: []*action.Envelope{
			action.NewEnvelope(publisher, 0, action.NewAggregate(domainID, 1)),
		},
	})
	require.NoError(err)
	require.Equal(action.SuccessReceiptStatus, receipts[0].Status)
	require.True(receipts[0].Pays)

	// publication fee 1600 goes to the publisher, the relayer fee 100 to the collector
	for _, c := range []struct {
		who      int
		expected int64
	}{
		{1, 10000 - 1600 - 100},
		{2, 10000 + 1600},
		{0, 10000},
		{9, 100},
	} {
		balance, err := cs.Balance(identityset.Address(c.who))
		require.NoError(err)
		require.Equal(big.NewInt(c.expected), balance, "account %d", c.who)
	}

	proof, err := cs.StatementPath(domainID, 1, statement(1))
	require.NoError(err)
	require.True(crypto.VerifyProof(proof.Root, proof.Proof, proof.NumberOfLeaves, proof.LeafIndex, statement(1)))

	posts, err := cs.Outbox()
	require.NoError(err)
	require.Len(posts, 1)
	require.Equal(uint64(1_700_000_606), posts[0].TimeoutTimestamp)
	_, aggregationID, receipt, err := delivery.DecodeBody(posts[0].Body)
	require.NoError(err)
	require.Equal(uint64(1), aggregationID)
	require.Equal(proof.Root, receipt)

	sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	n, err := cs.Relayer().Relay(ctx)
	require.NoError(err)
	require.Equal(1, n)
	posts, err = cs.Outbox()
	require.NoError(err)
	require.Empty(posts)

	// the next block clears the published receipts
	_, err = cs.ExecuteBlock(ctx, &Block{Height: 3})
	require.NoError(err)
	_, err = cs.StatementPath(domainID, 1, statement(1))
	var pathErr *aggregate.PathRequestError
	require.True(errors.As(err, &pathErr))
	require.Equal(aggregate.PathReceiptNotPublished, pathErr.Kind)
}

func TestFailedActions(t *testing.T) {
	require := require.New(t)
	cs := newTestService(t, delivery.LogSink{})
	ctx := context.Background()
	alice, bob := identityset.Address(0), identityset.Address(1)

	receipts, err := cs.ExecuteBlock(ctx, &Block{
		Height: 1,
		Envelopes: []*action.Envelope{
			// unknown domain
			action.NewEnvelope(alice, 0, action.NewAggregate(7, 1)),
			// overdraft
			action.NewEnvelope(alice, 1, action.NewTransfer(bob, big.NewInt(20000))),
			action.NewEnvelope(alice, 2, action.NewTransfer(bob, big.NewInt(500))),
			// a hyperbridge domain needs the manager
			action.NewEnvelope(alice, 3, action.NewRegisterDomain(2, nil, action.AggregateUntrusted, action.ProofUntrusted,
				action.NewDelivery(action.HyperbridgeDestination(action.HyperbridgeParams{Timeout: 1}), big.NewInt(0), big.NewInt(0)), nil)),
			// missing action
			action.NewEnvelope(alice, 4, nil),
		},
	})
	require.NoError(err)
	require.Len(receipts, 5)

	require.Equal(action.FailureReceiptStatus, receipts[0].Status)
	require.Equal(aggregate.DefaultWeights().AggregateOnInvalidDomain(), receipts[0].Weight)
	require.Equal(action.FailureReceiptStatus, receipts[1].Status)
	require.Equal(action.SuccessReceiptStatus, receipts[2].Status)
	require.Equal(action.FailureReceiptStatus, receipts[3].Status)
	require.Equal(aggregate.DefaultWeights().RegisterDomain(), receipts[3].Weight)
	require.Equal(action.FailureReceiptStatus, receipts[4].Status)
	require.True(receipts[4].Weight.IsZero())

	balance, err := cs.Balance(alice)
	require.NoError(err)
	require.Equal(big.NewInt(9500), balance)
	balance, err = cs.Balance(bob)
	require.NoError(err)
	require.Equal(big.NewInt(10500), balance)

	// heights must increase
	_, err = cs.ExecuteBlock(ctx, &Block{Height: 1})
	require.Error(err)
	h, err := cs.Height()
	require.NoError(err)
	require.Equal(uint64(1), h)
}
