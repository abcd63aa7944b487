// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delivery

import (
	"context"

	"github.com/cenkalti/backoff"
	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/pkg/lifecycle"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
	"github.com/iotexproject/iotex-aggregate/pkg/routine"
	"github.com/iotexproject/iotex-aggregate/pkg/tracer"
)

var _relayMtc = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "iotex_delivery_relay",
		Help: "Posts relayed to the delivery sink",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(_relayMtc)
}

type (
	// Sink is where the relayer sends posts
	Sink interface {
		Send(ctx context.Context, post *Post) error
	}

	// RelayerOption sets an option of the relayer
	RelayerOption func(*Relayer)

	// Relayer moves committed posts from the outbox to a sink
	Relayer struct {
		cfg     Config
		kv      db.KVStore
		sink    Sink
		clk     clock.Clock
		task    *routine.RecurringTask
		running *atomic.Bool
	}
)

var _ lifecycle.StartStopper = (*Relayer)(nil)

// WithRelayClock sets the clock ticking the relay rounds
func WithRelayClock(clk clock.Clock) RelayerOption {
	return func(r *Relayer) {
		r.clk = clk
	}
}

// NewRelayer creates a relayer reading the outbox of kv
func NewRelayer(cfg Config, kv db.KVStore, sink Sink, opts ...RelayerOption) (*Relayer, error) {
	if kv == nil || sink == nil {
		return nil, errors.New("kv store and sink are required")
	}
	r := &Relayer{
		cfg:     cfg,
		kv:      kv,
		sink:    sink,
		clk:     clock.New(),
		running: atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(r)
	}
	if cfg.RelayInterval > 0 {
		r.task = routine.NewRecurringTask(r.tick, cfg.RelayInterval, routine.WithClock(r.clk))
	}
	return r, nil
}

// Start starts the relay rounds
func (r *Relayer) Start(ctx context.Context) error {
	if r.task == nil {
		return nil
	}
	return r.task.Start(ctx)
}

// Stop stops the relay rounds
func (r *Relayer) Stop(ctx context.Context) error {
	if r.task == nil {
		return nil
	}
	return r.task.Stop(ctx)
}

func (r *Relayer) tick() {
	n, err := r.Relay(context.Background())
	if err != nil {
		log.Logger("delivery").Error("relay round failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Logger("delivery").Info("posts relayed", zap.Int("count", n))
	}
}

// Relay sends every committed post to the sink and removes the delivered ones. A round that starts
// while another one is running does nothing.
func (r *Relayer) Relay(ctx context.Context) (int, error) {
	if !r.running.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer r.running.Store(false)

	keys, values, err := r.kv.Filter(OutboxNamespace, nil)
	if err != nil {
		if errors.Cause(err) == db.ErrBucketNotExist {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read outbox")
	}
	delivered := atomic.NewInt32(0)
	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.RelayParallelism > 0 {
		g.SetLimit(r.cfg.RelayParallelism)
	}
	for i := range keys {
		key := keys[i]
		post := &Post{}
		if err := post.Deserialize(values[i]); err != nil {
			log.Logger("delivery").Error("dropping malformed post", zap.Binary("key", key), zap.Error(err))
			_relayMtc.WithLabelValues("malformed").Inc()
			if err := r.kv.Delete(OutboxNamespace, key); err != nil {
				return int(delivered.Load()), err
			}
			continue
		}
		g.Go(func() error {
			if err := r.send(gctx, post); err != nil {
				_relayMtc.WithLabelValues("failed").Inc()
				log.Logger("delivery").Warn("failed to relay post", zap.Uint64("nonce", post.Nonce), zap.Error(err))
				return nil
			}
			_relayMtc.WithLabelValues("delivered").Inc()
			delivered.Inc()
			return errors.Wrapf(r.kv.Delete(OutboxNamespace, key), "failed to remove post %d", post.Nonce)
		})
	}
	err = g.Wait()
	return int(delivered.Load()), err
}

func (r *Relayer) send(ctx context.Context, post *Post) (err error) {
	ctx, span := tracer.NewSpan(ctx, "delivery.send",
		attribute.Int64("nonce", int64(post.Nonce)),
		attribute.String("dest", post.Dest.String()))
	defer func() { tracer.EndSpan(span, err) }()

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.cfg.RetryInterval), r.cfg.MaxRelayRetries),
		ctx,
	)
	return backoff.Retry(func() error {
		return r.sink.Send(ctx, post)
	}, bo)
}
