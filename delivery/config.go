// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delivery

import (
	"time"
)

type (
	// Config is the config of the delivery collaborator
	Config struct {
		// ModuleID is the hex encoded id of the sending module, written as the from field of every post
		ModuleID string `yaml:"moduleID"`
		// FeeCollector receives the relayer fee of every post
		FeeCollector string `yaml:"feeCollector"`
		// HyperbridgeRefTime and HyperbridgeProofSize are the weight of a hyperbridge dispatch
		HyperbridgeRefTime   uint64 `yaml:"hyperbridgeRefTime"`
		HyperbridgeProofSize uint64 `yaml:"hyperbridgeProofSize"`
		// MinFee is the minimum relayer fee of a post
		MinFee string `yaml:"minFee"`
		// RelayInterval is the interval between two relay rounds, zero disables the relayer
		RelayInterval time.Duration `yaml:"relayInterval"`
		// RetryInterval is the wait between two attempts to send a post
		RetryInterval time.Duration `yaml:"retryInterval"`
		// MaxRelayRetries is the number of retries of a post in one relay round
		MaxRelayRetries uint64 `yaml:"maxRelayRetries"`
		// RelayParallelism bounds the posts sent at the same time
		RelayParallelism int         `yaml:"relayParallelism"`
		Redis            RedisConfig `yaml:"redis"`
	}

	// RedisConfig is the config of the redis sink
	RedisConfig struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		// Key is the list the posts are pushed onto
		Key string `yaml:"key"`
	}
)

// DefaultConfig is the default config of delivery
var DefaultConfig = Config{
	ModuleID:             "696f7465782f6167677265676174650000000000",
	FeeCollector:         "",
	HyperbridgeRefTime:   1_500_000_000,
	HyperbridgeProofSize: 8_000,
	MinFee:               "0",
	RelayInterval:        6 * time.Second,
	RetryInterval:        500 * time.Millisecond,
	MaxRelayRetries:      3,
	RelayParallelism:     4,
	Redis: RedisConfig{
		Key: "aggregate:posts",
	},
}
