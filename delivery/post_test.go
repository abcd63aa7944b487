// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delivery

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/state/factory"
	"github.com/iotexproject/iotex-aggregate/test/identityset"
)

func TestBody(t *testing.T) {
	require := require.New(t)
	receipt := hash.Hash256b([]byte("receipt"))

	body, err := EncodeBody(7, math.MaxUint64, receipt)
	require.NoError(err)
	require.Len(body, 96)
	require.Equal(byte(7), body[31])
	require.Equal(receipt[:], body[64:])

	domainID, aggregationID, decoded, err := DecodeBody(body)
	require.NoError(err)
	require.Equal(uint32(7), domainID)
	require.Equal(uint64(math.MaxUint64), aggregationID)
	require.Equal(receipt, decoded)

	_, _, _, err = DecodeBody(body[:64])
	require.Error(err)
}

func TestPostSerialization(t *testing.T) {
	require := require.New(t)
	post := &Post{
		Nonce:            3,
		Dest:             action.StateMachine{Kind: action.StateMachineSubstrate, Tag: [4]byte{'h', 'y', 'p', 'r'}},
		From:             []byte("iotex/aggregate"),
		To:               []byte{1, 2, 3},
		TimeoutTimestamp: 1700000000,
		Body:             []byte{4, 5},
		Fee:              big.NewInt(99),
		Payer:            identityset.Address(1),
	}
	data, err := post.Serialize()
	require.NoError(err)
	decoded := &Post{}
	require.NoError(decoded.Deserialize(data))
	require.Equal(post.Nonce, decoded.Nonce)
	require.Equal(post.Dest, decoded.Dest)
	require.Equal(post.From, decoded.From)
	require.Equal(post.To, decoded.To)
	require.Equal(post.TimeoutTimestamp, decoded.TimeoutTimestamp)
	require.Equal(post.Body, decoded.Body)
	require.Equal(post.Fee, decoded.Fee)
	require.Equal(post.Payer.String(), decoded.Payer.String())

	require.Error(decoded.Deserialize([]byte{0xff}))

	js, err := json.Marshal(post)
	require.NoError(err)
	var m map[string]interface{}
	require.NoError(json.Unmarshal(js, &m))
	require.Equal("SUBSTRATE-hypr", m["dest"])
	require.Equal("99", m["fee"])
	require.Equal("0405", m["body"])
	require.Equal(identityset.Address(1).String(), m["payer"])
}

func TestOutbox(t *testing.T) {
	require := require.New(t)
	sf, err := factory.NewFactory(db.NewMemKVStore())
	require.NoError(err)
	ws, err := sf.NewWorkingSet(1)
	require.NoError(err)

	posts, err := Outbox(ws)
	require.NoError(err)
	require.Empty(posts)

	for i := 0; i < 3; i++ {
		require.NoError(enqueuePost(ws, &Post{Body: []byte{byte(i)}, Fee: big.NewInt(int64(i))}))
	}
	posts, err = Outbox(ws)
	require.NoError(err)
	require.Len(posts, 3)
	for i, p := range posts {
		require.Equal(uint64(i), p.Nonce)
		require.Equal([]byte{byte(i)}, p.Body)
	}
	nonce, err := nextNonce(ws)
	require.NoError(err)
	require.Equal(uint64(3), nonce)
}
