// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delivery_test

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
	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/action/protocol/account"
	"github.com/iotexproject/iotex-aggregate/action/protocol/aggregate"
	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/delivery"
	"github.com/iotexproject/iotex-aggregate/state/factory"
	"github.com/iotexproject/iotex-aggregate/test/identityset"
	"github.com/iotexproject/iotex-aggregate/test/mock/mock_delivery"
)

func testConfig() delivery.Config {
	cfg := delivery.DefaultConfig
	cfg.FeeCollector = identityset.Address(9).String()
	cfg.MinFee = "10"
	cfg.HyperbridgeRefTime = 1000
	cfg.HyperbridgeProofSize = 10
	return cfg
}

func hyperbridge(timeout uint64) action.Destination {
	return action.HyperbridgeDestination(action.HyperbridgeParams{
		DestinationChain:  action.StateMachine{Kind: action.StateMachineEvm, ID: 4689},
		DestinationModule: [20]byte{0xaa, 0xbb},
		Timeout:           timeout,
	})
}

func newWorkingSet(t *testing.T) factory.WorkingSet {
	sf, err := factory.NewFactory(db.NewMemKVStore())
	require.NoError(t, err)
	ws, err := sf.NewWorkingSet(1)
	require.NoError(t, err)
	return ws
}

func TestNewDispatcher(t *testing.T) {
	require := require.New(t)
	ledger := account.NewLedger()

	_, err := delivery.NewDispatcher(testConfig(), nil)
	require.Error(err)
	cfg := testConfig()
	cfg.ModuleID = "xyz"
	_, err = delivery.NewDispatcher(cfg, ledger)
	require.Error(err)
	cfg = testConfig()
	cfg.FeeCollector = "io1bad"
	_, err = delivery.NewDispatcher(cfg, ledger)
	require.Error(err)
	cfg = testConfig()
	cfg.MinFee = "-1"
	_, err = delivery.NewDispatcher(cfg, ledger)
	require.Error(err)

	d, err := delivery.NewDispatcher(testConfig(), ledger)
	require.NoError(err)
	require.True(d.DispatchWeight(action.NoneDestination()).IsZero())
	require.Equal(action.NewWeight(1000, 10), d.DispatchWeight(hyperbridge(1)))
	require.Equal(action.NewWeight(1000, 10), d.MaxDispatchWeight())
}

func TestDispatchAggregation(t *testing.T) {
	require := require.New(t)
	ws := newWorkingSet(t)
	ledger := account.NewLedger()
	payer, collector := identityset.Address(1), identityset.Address(9)
	require.NoError(ledger.Deposit(ws, payer, big.NewInt(1000)))
	d, err := delivery.NewDispatcher(testConfig(), ledger)
	require.NoError(err)

	blockTime := time.Unix(1_700_000_000, 0)
	ctx := protocol.WithBlockCtx(context.Background(), protocol.BlockCtx{BlockHeight: 5, BlockTimeStamp: blockTime})
	receipt := hash.Hash256b([]byte("receipt"))
	req := &aggregate.DispatchRequest{
		DomainID:      2,
		AggregationID: 11,
		Receipt:       receipt,
		Destination:   action.NoneDestination(),
		Fee:           big.NewInt(100),
		DeliveryOwner: payer,
	}

	// nothing to send
	require.NoError(d.DispatchAggregation(ctx, ws, req))
	posts, err := delivery.Outbox(ws)
	require.NoError(err)
	require.Empty(posts)

	req.Destination = hyperbridge(3600)
	require.NoError(d.DispatchAggregation(ctx, ws, req))
	posts, err = delivery.Outbox(ws)
	require.NoError(err)
	require.Len(posts, 1)
	post := posts[0]
	require.Equal(uint64(0), post.Nonce)
	require.Equal(action.StateMachine{Kind: action.StateMachineEvm, ID: 4689}, post.Dest)
	require.Equal([]byte("iotex/aggregate\x00\x00\x00\x00\x00"), post.From)
	require.Equal(uint64(1_700_003_600), post.TimeoutTimestamp)
	require.Equal(big.NewInt(100), post.Fee)
	require.Equal(payer.String(), post.Payer.String())
	domainID, aggregationID, decoded, err := delivery.DecodeBody(post.Body)
	require.NoError(err)
	require.Equal(uint32(2), domainID)
	require.Equal(uint64(11), aggregationID)
	require.Equal(receipt, decoded)

	balance, err := ledger.Balance(ws, payer)
	require.NoError(err)
	require.Equal(big.NewInt(900), balance)
	balance, err = ledger.Balance(ws, collector)
	require.NoError(err)
	require.Equal(big.NewInt(100), balance)
}

func TestDispatchRejections(t *testing.T) {
	require := require.New(t)
	ws := newWorkingSet(t)
	ledger := account.NewLedger()
	payer := identityset.Address(1)
	require.NoError(ledger.Deposit(ws, payer, big.NewInt(50)))
	d, err := delivery.NewDispatcher(testConfig(), ledger)
	require.NoError(err)

	tests := []struct {
		name string
		req  *aggregate.DispatchRequest
	}{
		{"below min fee", &aggregate.DispatchRequest{Destination: hyperbridge(1), Fee: big.NewInt(9), DeliveryOwner: payer}},
		{"zero timeout", &aggregate.DispatchRequest{Destination: hyperbridge(0), Fee: big.NewInt(10), DeliveryOwner: payer}},
		{"no payer", &aggregate.DispatchRequest{Destination: hyperbridge(1), Fee: big.NewInt(10)}},
		{"insufficient balance", &aggregate.DispatchRequest{Destination: hyperbridge(1), Fee: big.NewInt(51), DeliveryOwner: payer}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := d.DispatchAggregation(context.Background(), ws, test.req)
			require.Equal(delivery.ErrMessageDispatchFailed, errors.Cause(err))
		})
	}
	posts, err := delivery.Outbox(ws)
	require.NoError(err)
	require.Empty(posts)

	err = d.DispatchAggregation(context.Background(), ws, &aggregate.DispatchRequest{Destination: action.Destination{Kind: 9}})
	require.Equal(action.ErrDestination, errors.Cause(err))
}

func TestDispatchTransferFailure(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	ws := newWorkingSet(t)
	ledger := mock_delivery.NewMockTransferer(ctrl)
	d, err := delivery.NewDispatcher(testConfig(), ledger)
	require.NoError(err)

	ledger.EXPECT().Transfer(ws, identityset.Address(1), gomock.Any(), big.NewInt(10)).Return(errors.New("locked")).Times(1)
	err = d.DispatchAggregation(context.Background(), ws, &aggregate.DispatchRequest{
		Destination:   hyperbridge(1),
		Fee:           big.NewInt(10),
		DeliveryOwner: identityset.Address(1),
	})
	require.Equal(delivery.ErrMessageDispatchFailed, errors.Cause(err))
}
