// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"context"
	"encoding/hex"
	"math/big"
	"sync"

	"github.com/facebookgo/clock"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/action/protocol/account"
	"github.com/iotexproject/iotex-aggregate/action/protocol/aggregate"
	"github.com/iotexproject/iotex-aggregate/config"
	"github.com/iotexproject/iotex-aggregate/crypto"
	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/delivery"
	"github.com/iotexproject/iotex-aggregate/pkg/lifecycle"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
	"github.com/iotexproject/iotex-aggregate/pkg/tracer"
	"github.com/iotexproject/iotex-aggregate/state"
	"github.com/iotexproject/iotex-aggregate/state/factory"
)

const (
	_genesisNamespace = "Genesis"
)

var _genesisKey = []byte("applied")

// ChainService is a blockchain service with all blockchain components.
type ChainService struct {
	mutex      sync.Mutex
	lifecycle  lifecycle.Lifecycle
	cfg        config.Config
	manager    address.Address
	factory    factory.Factory
	registry   *protocol.Registry
	ledger     *account.Ledger
	aggregate  *aggregate.Protocol
	dispatcher *delivery.Dispatcher
	relayer    *delivery.Relayer
}

type optionParams struct {
	sink      delivery.Sink
	eventSink aggregate.EventSink
	clock     clock.Clock
}

// Option sets ChainService construction parameter.
type Option func(ops *optionParams) error

// WithDeliverySink sets where the relayer sends posts, the redis of the config is used otherwise
func WithDeliverySink(sink delivery.Sink) Option {
	return func(ops *optionParams) error {
		ops.sink = sink
		return nil
	}
}

// WithEventSink sets where the aggregate events are sent
func WithEventSink(sink aggregate.EventSink) Option {
	return func(ops *optionParams) error {
		ops.eventSink = sink
		return nil
	}
}

// WithClock sets the clock of the relayer
func WithClock(clk clock.Clock) Option {
	return func(ops *optionParams) error {
		if clk == nil {
			return errors.New("nil clock")
		}
		ops.clock = clk
		return nil
	}
}

// New creates a ChainService from config and the kv store holding the state
func New(cfg config.Config, kv db.KVStore, opts ...Option) (*ChainService, error) {
	ops := optionParams{clock: clock.New()}
	for _, opt := range opts {
		if err := opt(&ops); err != nil {
			return nil, err
		}
	}
	sf, err := factory.NewFactory(kv)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create state factory")
	}
	ledger := account.NewLedger()
	dispatcher, err := delivery.NewDispatcher(cfg.Delivery, ledger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create dispatcher")
	}
	aggOpts := []aggregate.Option{}
	if ops.eventSink != nil {
		aggOpts = append(aggOpts, aggregate.WithEventSink(ops.eventSink))
	}
	aggProtocol, err := aggregate.NewProtocol(
		cfg.Aggregate.ProtocolConfig(),
		ledger,
		account.NewConsiderations(ledger, aggregate.DomainHoldReason, cfg.Account.DomainPolicy()),
		account.NewConsiderations(ledger, aggregate.AllowlistHoldReason, cfg.Account.AllowlistPolicy()),
		dispatcher,
		cfg.Aggregate.FeeEstimator(),
		aggOpts...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aggregate protocol")
	}
	registry := protocol.NewRegistry()
	accProtocol := account.NewProtocol(ledger)
	if err := registry.Register(accProtocol.Name(), accProtocol); err != nil {
		return nil, err
	}
	if err := registry.Register(aggProtocol.Name(), aggProtocol); err != nil {
		return nil, err
	}

	sink := ops.sink
	if sink == nil {
		if cfg.Delivery.Redis.Addr == "" {
			sink = delivery.LogSink{}
		} else {
			if sink, err = delivery.NewRedisSink(cfg.Delivery.Redis); err != nil {
				return nil, err
			}
		}
	}
	relayer, err := delivery.NewRelayer(cfg.Delivery, kv, sink, delivery.WithRelayClock(ops.clock))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create relayer")
	}

	cs := &ChainService{
		cfg:        cfg,
		manager:    cfg.Aggregate.ManagerAddress(),
		factory:    sf,
		registry:   registry,
		ledger:     ledger,
		aggregate:  aggProtocol,
		dispatcher: dispatcher,
		relayer:    relayer,
	}
	cs.lifecycle.AddModels(sf, relayer)
	return cs, nil
}

// Start starts the state factory and the relayer
func (cs *ChainService) Start(ctx context.Context) error {
	return cs.lifecycle.OnStart(ctx)
}

// Stop stops the relayer and the state factory
func (cs *ChainService) Stop(ctx context.Context) error {
	return cs.lifecycle.OnStop(ctx)
}

// Registry returns the protocols of the chain
func (cs *ChainService) Registry() *protocol.Registry {
	return cs.registry
}

// Relayer returns the relayer of the delivery outbox
func (cs *ChainService) Relayer() *delivery.Relayer {
	return cs.relayer
}

// Height returns the height of the last executed block
func (cs *ChainService) Height() (uint64, error) {
	return cs.factory.Height()
}

// Genesis funds the accounts of the config. It is applied once, before the first block.
func (cs *ChainService) Genesis(_ context.Context) error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	height, err := cs.factory.Height()
	if err != nil {
		return err
	}
	var applied []byte
	_, err = cs.factory.ReadView().State(&applied, protocol.NamespaceOption(_genesisNamespace), protocol.KeyOption(_genesisKey))
	switch errors.Cause(err) {
	case nil:
		return nil
	case state.ErrStateNotExist:
	default:
		return err
	}
	if height != 0 {
		return errors.Errorf("cannot apply genesis at height %d", height)
	}
	balances, err := cs.cfg.Genesis.GenesisBalances()
	if err != nil {
		return err
	}
	ws, err := cs.factory.NewWorkingSet(0)
	if err != nil {
		return err
	}
	for addrStr, balance := range balances {
		addr, err := address.FromString(addrStr)
		if err != nil {
			return errors.Wrapf(err, "invalid genesis address %s", addrStr)
		}
		if err := cs.ledger.Deposit(ws, addr, balance); err != nil {
			return err
		}
	}
	if _, err := ws.PutState([]byte{1}, protocol.NamespaceOption(_genesisNamespace), protocol.KeyOption(_genesisKey)); err != nil {
		return err
	}
	if err := ws.Commit(); err != nil {
		return err
	}
	log.L().Info("genesis applied", zap.Int("accounts", len(balances)))
	return nil
}

// ExecuteBlock applies the proof notices then the envelopes of blk and commits the result. A failed action
// leaves no change in state and gets a failed receipt.
func (cs *ChainService) ExecuteBlock(ctx context.Context, blk *Block) (_ []*action.Receipt, err error) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	ctx, span := tracer.NewSpan(ctx, "chainservice.ExecuteBlock", attribute.Int64("height", int64(blk.Height)))
	defer func() { tracer.EndSpan(span, err) }()

	ws, err := cs.factory.NewWorkingSet(blk.Height)
	if err != nil {
		return nil, errors.Wrap(err, "failed to obtain working set from state factory")
	}
	ctx = protocol.WithBlockCtx(ctx, protocol.BlockCtx{
		BlockHeight:    blk.Height,
		BlockTimeStamp: blk.Timestamp,
	})
	for _, p := range cs.registry.All() {
		if psc, ok := p.(protocol.PreStatesCreator); ok {
			if err := psc.CreatePreStates(ctx, ws); err != nil {
				return nil, errors.Wrapf(err, "failed to create pre states of %s", p.Name())
			}
		}
	}
	for _, n := range blk.Notices {
		cs.aggregate.OnProofVerified(ctx, ws, n.Account, n.DomainID, n.Statement)
	}
	receipts := make([]*action.Receipt, 0, len(blk.Envelopes))
	for _, elp := range blk.Envelopes {
		receipt, err := cs.handleEnvelope(ctx, ws, elp)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	if err := ws.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit block")
	}
	log.L().Debug("block executed",
		zap.Uint64("height", blk.Height),
		zap.Int("notices", len(blk.Notices)),
		zap.Int("envelopes", len(blk.Envelopes)))
	return receipts, nil
}

func (cs *ChainService) handleEnvelope(ctx context.Context, ws factory.WorkingSet, elp *action.Envelope) (*action.Receipt, error) {
	actionCtx := protocol.ActionCtx{
		Caller:     elp.Caller(),
		ActionHash: elp.Hash(),
		Privileged: elp.Privileged() || cs.isManager(elp.Caller()),
	}
	if actionCtx.Privileged {
		actionCtx.Caller = nil
	}
	ctx = protocol.WithActionCtx(ctx, actionCtx)
	if err := elp.SanityCheck(); err != nil {
		return cs.failedReceipt(ctx, elp.Action(), err), nil
	}
	snapshot := ws.Snapshot()
	for _, p := range cs.registry.All() {
		receipt, err := p.Handle(ctx, elp.Action(), ws)
		if err != nil {
			if rerr := ws.Revert(snapshot); rerr != nil {
				return nil, errors.Wrap(rerr, "failed to revert action")
			}
			return cs.failedReceipt(ctx, elp.Action(), err), nil
		}
		if receipt != nil {
			return receipt, nil
		}
	}
	return cs.failedReceipt(ctx, elp.Action(), errors.Wrapf(protocol.ErrUnimplemented, "no protocol handles %T", elp.Action())), nil
}

func (cs *ChainService) failedReceipt(ctx context.Context, act action.Action, err error) *action.Receipt {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	weight, ok := aggregate.ActualWeight(err)
	if !ok && act != nil {
		for _, p := range cs.registry.All() {
			if wc, isCalc := p.(protocol.WeightCalculator); isCalc {
				if weight, ok = wc.ActionWeight(act); ok {
					break
				}
			}
		}
	}
	log.L().Info("action failed",
		zap.String("action", hex.EncodeToString(actionCtx.ActionHash[:])),
		zap.Error(err))
	return &action.Receipt{
		Status:      action.FailureReceiptStatus,
		BlockHeight: blkCtx.BlockHeight,
		ActionHash:  actionCtx.ActionHash,
		Weight:      weight,
		Pays:        !actionCtx.Privileged,
	}
}

func (cs *ChainService) isManager(caller address.Address) bool {
	return cs.manager != nil && caller != nil && caller.String() == cs.manager.String()
}

// StatementPath returns the merkle proof of statement in an aggregation published by the last block
func (cs *ChainService) StatementPath(domainID uint32, aggregationID uint64, statement hash.Hash256) (*crypto.MerkleProof, error) {
	return cs.aggregate.GetStatementPath(cs.factory.ReadView(), domainID, aggregationID, statement)
}

// Domain returns a committed domain
func (cs *ChainService) Domain(id uint32) (*aggregate.Domain, error) {
	return cs.aggregate.Domain(cs.factory.ReadView(), id)
}

// Balance returns the committed free balance of an account
func (cs *ChainService) Balance(who address.Address) (*big.Int, error) {
	return cs.ledger.Balance(cs.factory.ReadView(), who)
}

// Outbox returns the committed posts not relayed yet
func (cs *ChainService) Outbox() ([]*delivery.Post, error) {
	return delivery.Outbox(cs.factory.ReadView())
}
