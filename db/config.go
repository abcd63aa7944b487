// Copyright (c) 2021 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

// Config is the config for database
type Config struct {
	// DbPath is the bolt file; an empty path selects the in-memory store
	DbPath string `yaml:"dbPath"`
	// NumRetries is the number of retries
	NumRetries uint8 `yaml:"numRetries"`
}

// DefaultConfig returns the default config
var DefaultConfig = Config{
	NumRetries: 3,
}

// NewKVStore returns a bolt store when a path is configured, an in-memory one otherwise
func NewKVStore(cfg Config) KVStore {
	if cfg.DbPath == "" {
		return NewMemKVStore()
	}
	return NewBoltDB(cfg)
}
