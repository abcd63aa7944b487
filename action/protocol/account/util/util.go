// Copyright (c) 2018 IoTeX
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package accountutil

import (
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/state"
)

// AccountNamespace is the namespace of account records
const AccountNamespace = "Account"

// LoadAccount loads an account state, returning an empty account if it was never stored
func LoadAccount(sr protocol.StateReader, addr address.Address) (*state.Account, error) {
	if addr == nil {
		return nil, errors.New("nil address")
	}
	account := state.NewAccount()
	if _, err := sr.State(account, protocol.NamespaceOption(AccountNamespace), protocol.KeyOption(addr.Bytes())); err != nil {
		if errors.Cause(err) == state.ErrStateNotExist {
			return state.NewAccount(), nil
		}
		return nil, errors.Wrapf(err, "failed to load account %s", addr.String())
	}
	return account, nil
}

// StoreAccount puts updated account state, deleting it when it holds nothing
func StoreAccount(sm protocol.StateManager, addr address.Address, account *state.Account) error {
	opts := []protocol.StateOption{protocol.NamespaceOption(AccountNamespace), protocol.KeyOption(addr.Bytes())}
	if account.IsEmpty() {
		_, err := sm.DelState(opts...)
		return err
	}
	_, err := sm.PutState(account, opts...)
	return err
}

// Recorded tests if an account has been actually stored
func Recorded(sr protocol.StateReader, addr address.Address) (bool, error) {
	account := state.NewAccount()
	_, err := sr.State(account, protocol.NamespaceOption(AccountNamespace), protocol.KeyOption(addr.Bytes()))
	switch errors.Cause(err) {
	case nil:
		return true, nil
	case state.ErrStateNotExist:
		return false, nil
	default:
		return false, err
	}
}
