// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/crypto"
)

// GetStatementPath returns the merkle proof of statement in an aggregation published in the current block
func (p *Protocol) GetStatementPath(
	sr protocol.StateReader,
	domainID uint32,
	aggregationID uint64,
	statement hash.Hash256,
) (*crypto.MerkleProof, error) {
	published, err := loadPublished(sr)
	if err != nil {
		return nil, err
	}
	for _, pub := range published {
		if pub.DomainID != domainID || pub.Aggregation.ID != aggregationID {
			continue
		}
		proof, err := pub.Aggregation.StatementPath(statement)
		switch errors.Cause(err) {
		case nil:
			return proof, nil
		case ErrStatementNotFound:
			return nil, &PathRequestError{Kind: PathNotFound, DomainID: domainID, AggregationID: aggregationID, Statement: statement}
		case crypto.ErrLeafIndexOutOfBounds:
			return nil, &PathRequestError{Kind: PathIndexOutOfBounds, DomainID: domainID, AggregationID: aggregationID, Statement: statement}
		default:
			return nil, err
		}
	}
	return nil, &PathRequestError{Kind: PathReceiptNotPublished, DomainID: domainID, AggregationID: aggregationID, Statement: statement}
}
