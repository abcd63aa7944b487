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

	"github.com/facebookgo/clock"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-aggregate/action/protocol/account"
	"github.com/iotexproject/iotex-aggregate/action/protocol/aggregate"
	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/delivery"
	"github.com/iotexproject/iotex-aggregate/state/factory"
	"github.com/iotexproject/iotex-aggregate/test/identityset"
	"github.com/iotexproject/iotex-aggregate/test/mock/mock_delivery"
)

// commitPosts dispatches n posts and commits them to kv
func commitPosts(t *testing.T, kv db.KVStore, n int) {
	require := require.New(t)
	sf, err := factory.NewFactory(kv)
	require.NoError(err)
	h, err := sf.Height()
	require.NoError(err)
	ws, err := sf.NewWorkingSet(h + 1)
	require.NoError(err)
	ledger := account.NewLedger()
	require.NoError(ledger.Deposit(ws, identityset.Address(1), big.NewInt(1000)))
	d, err := delivery.NewDispatcher(testConfig(), ledger)
	require.NoError(err)
	for i := 0; i < n; i++ {
		require.NoError(d.DispatchAggregation(context.Background(), ws, &aggregate.DispatchRequest{
			DomainID:      1,
			AggregationID: uint64(i + 1),
			Receipt:       hash.Hash256b([]byte{byte(i)}),
			Destination:   hyperbridge(60),
			Fee:           big.NewInt(10),
			DeliveryOwner: identityset.Address(1),
		}))
	}
	require.NoError(ws.Commit())
}

func outboxSize(t *testing.T, kv db.KVStore) int {
	keys, _, err := kv.Filter(delivery.OutboxNamespace, nil)
	if errors.Cause(err) == db.ErrBucketNotExist {
		return 0
	}
	require.NoError(t, err)
	return len(keys)
}

func relayConfig() delivery.Config {
	cfg := testConfig()
	cfg.RelayInterval = 0
	cfg.RetryInterval = time.Millisecond
	cfg.MaxRelayRetries = 2
	return cfg
}

func TestRelay(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	kv := db.NewMemKVStore()
	sink := mock_delivery.NewMockSink(ctrl)
	r, err := delivery.NewRelayer(relayConfig(), kv, sink)
	require.NoError(err)

	// empty outbox
	n, err := r.Relay(context.Background())
	require.NoError(err)
	require.Zero(n)

	commitPosts(t, kv, 3)
	require.Equal(3, outboxSize(t, kv))
	sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	n, err = r.Relay(context.Background())
	require.NoError(err)
	require.Equal(3, n)
	require.Zero(outboxSize(t, kv))
}

func TestRelayRetry(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	kv := db.NewMemKVStore()
	sink := mock_delivery.NewMockSink(ctrl)
	r, err := delivery.NewRelayer(relayConfig(), kv, sink)
	require.NoError(err)
	commitPosts(t, kv, 1)

	// fails once, then goes through
	gomock.InOrder(
		sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("unavailable")),
		sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil),
	)
	n, err := r.Relay(context.Background())
	require.NoError(err)
	require.Equal(1, n)
	require.Zero(outboxSize(t, kv))

	// keeps failing, the post stays for the next round
	commitPosts(t, kv, 1)
	sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("unavailable")).Times(3)
	n, err = r.Relay(context.Background())
	require.NoError(err)
	require.Zero(n)
	require.Equal(1, outboxSize(t, kv))
}

func TestRelayerRecurring(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	kv := db.NewMemKVStore()
	commitPosts(t, kv, 2)

	sink := mock_delivery.NewMockSink(ctrl)
	sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	cfg := relayConfig()
	cfg.RelayInterval = time.Second
	clk := clock.NewMock()
	r, err := delivery.NewRelayer(cfg, kv, sink, delivery.WithRelayClock(clk))
	require.NoError(err)

	ctx := context.Background()
	require.NoError(r.Start(ctx))
	defer func() {
		require.NoError(r.Stop(ctx))
	}()
	require.Equal(2, outboxSize(t, kv))
	clk.Add(time.Second)
	require.Eventually(func() bool {
		return outboxSize(t, kv) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewRelayer(t *testing.T) {
	require := require.New(t)
	_, err := delivery.NewRelayer(relayConfig(), nil, delivery.LogSink{})
	require.Error(err)
	_, err = delivery.NewRelayer(relayConfig(), db.NewMemKVStore(), nil)
	require.Error(err)

	r, err := delivery.NewRelayer(relayConfig(), db.NewMemKVStore(), delivery.LogSink{})
	require.NoError(err)
	require.NoError(r.Start(context.Background()))
	require.NoError(r.Stop(context.Background()))
}
