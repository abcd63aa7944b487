// Copyright (c) 2018 IoTeX
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package state

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotEnoughBalance is the error that the balance is not enough
	ErrNotEnoughBalance = errors.New("not enough balance")
	// ErrNotEnoughHeld is the error that the held amount is not enough
	ErrNotEnoughHeld = errors.New("not enough held balance")
	// ErrStateSerialization is the error that the state marshaling is failed
	ErrStateSerialization = errors.New("failed to marshal state")
	// ErrStateDeserialization is the error that the state un-marshaling is failed
	ErrStateDeserialization = errors.New("failed to unmarshal state")
	// ErrStateNotExist is the error that the state does not exist
	ErrStateNotExist = errors.New("state does not exist")
)

type (
	// Serializer has Serialize method to serialize struct to binary data
	Serializer interface {
		Serialize() ([]byte, error)
	}

	// Deserializer has Deserialize method to deserialize binary data to struct
	Deserializer interface {
		Deserialize([]byte) error
	}
)

// Serialize check if input is Serializer, if it is, use the input's Serialize method, otherwise use Gob.
func Serialize(d interface{}) ([]byte, error) {
	if s, ok := d.(Serializer); ok {
		return s.Serialize()
	}
	if b, ok := d.([]byte); ok {
		return b, nil
	}
	return nil, errors.Wrapf(ErrStateSerialization, "type %T is not a serializer", d)
}

// Deserialize check if input is Deserializer, if it is, use the input's Deserialize method.
func Deserialize(x interface{}, data []byte) error {
	if s, ok := x.(Deserializer); ok {
		return s.Deserialize(data)
	}
	if b, ok := x.(*[]byte); ok {
		*b = append((*b)[:0], data...)
		return nil
	}
	return errors.Wrapf(ErrStateDeserialization, "type %T is not a deserializer", x)
}
