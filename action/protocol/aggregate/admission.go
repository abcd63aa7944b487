// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"context"
	"encoding/hex"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
)

// OnProofVerified admits a verified statement into the filling aggregation of a domain. It never fails:
// a rejected statement is reported with a CannotAggregate event, and a storage failure reverts the
// notification and is logged.
func (p *Protocol) OnProofVerified(
	ctx context.Context,
	sm protocol.StateManager,
	account address.Address,
	domainID *uint32,
	statement hash.Hash256,
) {
	var evts events
	snapshot := sm.Snapshot()
	if err := p.admit(sm, account, domainID, statement, &evts); err != nil {
		log.Logger("aggregate").Error("failed to admit statement",
			zap.String("statement", statementString(statement)),
			zap.Error(err))
		if revertErr := sm.Revert(snapshot); revertErr != nil {
			log.L().Error("failed to revert statement admission", zap.Error(revertErr))
		}
		_statementMtc.WithLabelValues("error").Inc()
		return
	}
	p.flush(ctx, evts)
}

func (p *Protocol) admit(
	sm protocol.StateManager,
	account address.Address,
	domainID *uint32,
	statement hash.Hash256,
	evts *events,
) error {
	reject := func(cause CannotAggregateCause) error {
		evts.add(CannotAggregateEvent{Statement: statement, Cause: cause})
		_statementMtc.WithLabelValues("rejected").Inc()
		return nil
	}
	if account == nil {
		return reject(CannotAggregateCause{Kind: CauseNoAccount})
	}
	if domainID == nil {
		return nil
	}
	id := *domainID
	d, err := loadDomain(sm, id)
	if err != nil {
		return err
	}
	if d == nil {
		return reject(CannotAggregateCause{Kind: CauseDomainNotRegistered, DomainID: id})
	}
	if d.State != DomainReady {
		return reject(CannotAggregateCause{Kind: CauseInvalidDomainState, DomainID: id, State: d.State})
	}
	if !d.CanAddStatement() {
		return reject(CannotAggregateCause{Kind: CauseDomainStorageFull, DomainID: id})
	}
	ok, err := canSubmitProof(sm, d, account)
	if err != nil {
		return err
	}
	if !ok {
		return reject(CannotAggregateCause{Kind: CauseUnauthorizedUser, DomainID: id})
	}
	reserve := p.computeReserve(d)
	if err := p.reserve(sm, account, reserve); err != nil {
		log.Logger("aggregate").Debug("cannot reserve statement fees",
			zap.Uint32("domain", id),
			zap.String("account", account.String()),
			zap.Error(err))
		return reject(CannotAggregateCause{Kind: CauseInsufficientFunds, DomainID: id})
	}
	evts.add(NewProofEvent{Statement: statement, DomainID: id, AggregationID: d.Next.ID})
	if err := d.appendStatement(account, reserve, statement, evts); err != nil {
		return err
	}
	if err := d.handleHoldState(evts); err != nil {
		return err
	}
	if err := putDomain(sm, d); err != nil {
		return err
	}
	_statementMtc.WithLabelValues("admitted").Inc()
	return nil
}

func statementString(s hash.Hash256) string {
	return "0x" + hex.EncodeToString(s[:])
}
