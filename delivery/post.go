// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delivery

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/state"
)

const (
	// OutboxNamespace stores the posts waiting for the relayer, keyed by nonce
	OutboxNamespace = "DeliveryOutbox"
	// NonceNamespace stores the next post nonce
	NonceNamespace = "DeliveryNonce"
)

var (
	_nonceKey = []byte("nonce")

	_bodyArgs abi.Arguments
)

func init() {
	uint256, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	bytes32, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}
	_bodyArgs = abi.Arguments{{Type: uint256}, {Type: uint256}, {Type: bytes32}}
}

type (
	// Post is a message to a module on another chain
	Post struct {
		Nonce uint64
		Dest  action.StateMachine
		From  []byte
		To    []byte
		// TimeoutTimestamp is the unix time after which the destination rejects the post, zero means never
		TimeoutTimestamp uint64
		Body             []byte
		Fee              *big.Int
		Payer            address.Address
	}

	postRecord struct {
		Nonce            uint64
		DestKind         uint8
		DestID           uint32
		DestTag          [4]byte
		From             []byte
		To               []byte
		TimeoutTimestamp uint64
		Body             []byte
		Fee              *big.Int
		Payer            []byte
	}

	postJSON struct {
		Nonce            uint64 `json:"nonce"`
		Dest             string `json:"dest"`
		From             string `json:"from"`
		To               string `json:"to"`
		TimeoutTimestamp uint64 `json:"timeoutTimestamp"`
		Body             string `json:"body"`
		Fee              string `json:"fee"`
		Payer            string `json:"payer"`
	}
)

// EncodeBody returns the ABI encoding of (uint256 domainID, uint256 aggregationID, bytes32 receipt)
func EncodeBody(domainID uint32, aggregationID uint64, receipt hash.Hash256) ([]byte, error) {
	return _bodyArgs.Pack(
		new(big.Int).SetUint64(uint64(domainID)),
		new(big.Int).SetUint64(aggregationID),
		[32]byte(receipt),
	)
}

// DecodeBody decodes a body built by EncodeBody
func DecodeBody(body []byte) (uint32, uint64, hash.Hash256, error) {
	values, err := _bodyArgs.Unpack(body)
	if err != nil {
		return 0, 0, hash.ZeroHash256, errors.Wrap(err, "failed to unpack body")
	}
	if len(values) != 3 {
		return 0, 0, hash.ZeroHash256, errors.Errorf("invalid body, %d values", len(values))
	}
	domainID, ok1 := values[0].(*big.Int)
	aggregationID, ok2 := values[1].(*big.Int)
	receipt, ok3 := values[2].([32]byte)
	if !ok1 || !ok2 || !ok3 {
		return 0, 0, hash.ZeroHash256, errors.New("invalid body types")
	}
	if !domainID.IsUint64() || domainID.Uint64() > uint64(^uint32(0)) || !aggregationID.IsUint64() {
		return 0, 0, hash.ZeroHash256, errors.New("body id out of range")
	}
	return uint32(domainID.Uint64()), aggregationID.Uint64(), hash.Hash256(receipt), nil
}

// Serialize serializes the post
func (p *Post) Serialize() ([]byte, error) {
	rec := postRecord{
		Nonce:            p.Nonce,
		DestKind:         uint8(p.Dest.Kind),
		DestID:           p.Dest.ID,
		DestTag:          p.Dest.Tag,
		From:             p.From,
		To:               p.To,
		TimeoutTimestamp: p.TimeoutTimestamp,
		Body:             p.Body,
		Fee:              p.Fee,
	}
	if rec.Fee == nil {
		rec.Fee = big.NewInt(0)
	}
	if p.Payer != nil {
		rec.Payer = p.Payer.Bytes()
	}
	return rlp.EncodeToBytes(&rec)
}

// Deserialize deserializes bytes into the post
func (p *Post) Deserialize(data []byte) error {
	var rec postRecord
	if err := rlp.DecodeBytes(data, &rec); err != nil {
		return errors.Wrap(state.ErrStateDeserialization, err.Error())
	}
	*p = Post{
		Nonce:            rec.Nonce,
		Dest:             action.StateMachine{Kind: action.StateMachineKind(rec.DestKind), ID: rec.DestID, Tag: rec.DestTag},
		From:             rec.From,
		To:               rec.To,
		TimeoutTimestamp: rec.TimeoutTimestamp,
		Body:             rec.Body,
		Fee:              rec.Fee,
	}
	if len(rec.Payer) > 0 {
		payer, err := address.FromBytes(rec.Payer)
		if err != nil {
			return errors.Wrap(state.ErrStateDeserialization, err.Error())
		}
		p.Payer = payer
	}
	return nil
}

// MarshalJSON encodes the post for off-chain consumers
func (p *Post) MarshalJSON() ([]byte, error) {
	out := postJSON{
		Nonce:            p.Nonce,
		Dest:             p.Dest.String(),
		From:             hex.EncodeToString(p.From),
		To:               hex.EncodeToString(p.To),
		TimeoutTimestamp: p.TimeoutTimestamp,
		Body:             hex.EncodeToString(p.Body),
		Fee:              "0",
	}
	if p.Fee != nil {
		out.Fee = p.Fee.String()
	}
	if p.Payer != nil {
		out.Payer = p.Payer.String()
	}
	return json.Marshal(&out)
}

func nonceToKey(nonce uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, nonce)
	return key
}

func nextNonce(sm protocol.StateManager) (uint64, error) {
	var data []byte
	_, err := sm.State(&data, protocol.NamespaceOption(NonceNamespace), protocol.KeyOption(_nonceKey))
	switch errors.Cause(err) {
	case nil:
		if len(data) != 8 {
			return 0, errors.Wrapf(state.ErrStateDeserialization, "invalid nonce %x", data)
		}
		return binary.BigEndian.Uint64(data), nil
	case state.ErrStateNotExist:
		return 0, nil
	default:
		return 0, err
	}
}

func enqueuePost(sm protocol.StateManager, post *Post) error {
	nonce, err := nextNonce(sm)
	if err != nil {
		return err
	}
	post.Nonce = nonce
	if _, err := sm.PutState(nonceToKey(nonce+1), protocol.NamespaceOption(NonceNamespace), protocol.KeyOption(_nonceKey)); err != nil {
		return errors.Wrap(err, "failed to store nonce")
	}
	_, err = sm.PutState(post, protocol.NamespaceOption(OutboxNamespace), protocol.KeyOption(nonceToKey(nonce)))
	return errors.Wrapf(err, "failed to enqueue post %d", nonce)
}

// Outbox returns the posts waiting for the relayer, in nonce order
func Outbox(sr protocol.StateReader) ([]*Post, error) {
	_, iter, err := sr.States(protocol.NamespaceOption(OutboxNamespace))
	if err != nil {
		return nil, err
	}
	posts := make([]*Post, 0, iter.Size())
	for i := 0; i < iter.Size(); i++ {
		p := &Post{}
		if _, err := iter.Next(p); err != nil {
			return nil, errors.Wrap(err, "failed to read post")
		}
		posts = append(posts, p)
	}
	return posts, nil
}
