package protocol

import (
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/state"
)

// NamespaceOption creates an option for given namespace
func NamespaceOption(ns string) StateOption {
	return func(sc *StateConfig) error {
		sc.Namespace = ns
		return nil
	}
}

// KeyOption sets the key for call
func KeyOption(key []byte) StateOption {
	return func(cfg *StateConfig) error {
		cfg.Key = make([]byte, len(key))
		copy(cfg.Key, key)
		return nil
	}
}

// PrefixOption restricts States to keys starting with prefix
func PrefixOption(prefix []byte) StateOption {
	return func(cfg *StateConfig) error {
		cfg.Prefix = make([]byte, len(prefix))
		copy(cfg.Prefix, prefix)
		return nil
	}
}

// CreateStateConfig creates a config for accessing stateDB
func CreateStateConfig(opts ...StateOption) (*StateConfig, error) {
	cfg := StateConfig{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, errors.Wrap(err, "failed to execute state option")
		}
	}
	if cfg.Namespace == "" {
		return nil, errors.New("namespace is required")
	}
	return &cfg, nil
}

type (
	// StateConfig is the config for accessing stateDB
	StateConfig struct {
		Namespace string // namespace used by state's storage
		Key       []byte
		Prefix    []byte
	}

	// StateOption sets parameter for access state
	StateOption func(*StateConfig) error

	// StateReader defines an interface to read stateDB
	StateReader interface {
		Height() (uint64, error)
		State(interface{}, ...StateOption) (uint64, error)
		States(...StateOption) (uint64, state.Iterator, error)
	}

	// StateManager defines the stateDB interface atop the chain
	StateManager interface {
		StateReader
		// Snapshot marks the current changes, Revert drops every change made after the mark
		Snapshot() int
		Revert(int) error
		// General state
		PutState(interface{}, ...StateOption) (uint64, error)
		DelState(...StateOption) (uint64, error)
	}
)
