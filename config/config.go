// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package config

import (
	"math/big"
	"os"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/iotexproject/iotex-aggregate/action/protocol/account"
	"github.com/iotexproject/iotex-aggregate/action/protocol/aggregate"
	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/delivery"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
)

// IMPORTANT: to define a config, add a field or a new config type to the existing config types. In addition, provide
// the default value in Default var.

var (
	// Default is the default config
	Default = Config{
		Aggregate: Aggregate{
			AggregationSize:            64,
			MaxPendingPublishQueueSize: 16,
			PublisherTipPercent:        100,
			BaseFee:                    "1000000000000000",
			FeePerRefTime:              "1",
			FeePerProofSize:            "10",
		},
		Account: Account{
			DomainBase:       "1000000000000000000",
			DomainPerByte:    "1000000000000000",
			AllowlistBase:    "100000000000000000",
			AllowlistPerItem: "10000000000000000",
		},
		Delivery: delivery.DefaultConfig,
		DB:       db.DefaultConfig,
		Genesis: Genesis{
			Balances: map[string]string{},
		},
		SubLogs: make(map[string]log.GlobalConfig),
	}

	// ErrInvalidCfg indicates the invalid config value
	ErrInvalidCfg = errors.New("invalid config value")

	// Validates is the collection config validation functions
	Validates = []Validate{
		ValidateAggregate,
		ValidateAccount,
		ValidateDelivery,
		ValidateGenesis,
	}
)

type (
	// Aggregate is the config of the aggregate protocol
	Aggregate struct {
		AggregationSize            uint32 `yaml:"aggregationSize"`
		MaxPendingPublishQueueSize uint32 `yaml:"maxPendingPublishQueueSize"`
		PublisherTipPercent        uint64 `yaml:"publisherTipPercent"`
		// BaseFee, FeePerRefTime and FeePerProofSize price the publication of an aggregation
		BaseFee         string `yaml:"baseFee"`
		FeePerRefTime   string `yaml:"feePerRefTime"`
		FeePerProofSize string `yaml:"feePerProofSize"`
		// Manager is the account whose actions come from the privileged origin, empty for none
		Manager string `yaml:"manager"`
	}

	// Account is the config of the storage deposits
	Account struct {
		DomainBase       string `yaml:"domainBase"`
		DomainPerByte    string `yaml:"domainPerByte"`
		AllowlistBase    string `yaml:"allowlistBase"`
		AllowlistPerItem string `yaml:"allowlistPerItem"`
	}

	// Genesis funds accounts at the first block
	Genesis struct {
		Balances map[string]string `yaml:"balances"`
	}

	// Config is the root config struct, each package's config should be put as its sub struct
	Config struct {
		Aggregate Aggregate                   `yaml:"aggregate"`
		Account   Account                     `yaml:"account"`
		Delivery  delivery.Config             `yaml:"delivery"`
		DB        db.Config                   `yaml:"db"`
		Genesis   Genesis                     `yaml:"genesis"`
		Log       log.GlobalConfig            `yaml:"log"`
		SubLogs   map[string]log.GlobalConfig `yaml:"subLogs"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

// New creates a config instance. It first loads the default configs. If the config path is not empty, it will read from
// the file and override the default configs. By default, it will apply all validation functions. To bypass validation,
// use DoNotValidate instead.
func New(configPaths []string, validates ...Validate) (Config, error) {
	opts := make([]uconfig.YAMLOption, 0)
	opts = append(opts, uconfig.Static(Default))
	opts = append(opts, uconfig.Expand(os.LookupEnv))
	for _, path := range configPaths {
		if path != "" {
			opts = append(opts, uconfig.File(path))
		}
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	// By default, the config needs to pass all the validation
	if len(validates) == 0 {
		validates = Validates
	}
	for _, validate := range validates {
		if err := validate(cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to validate config")
		}
	}
	return cfg, nil
}

// ProtocolConfig returns the config of the aggregate protocol
func (a Aggregate) ProtocolConfig() aggregate.Config {
	return aggregate.Config{
		AggregationSize:            a.AggregationSize,
		MaxPendingPublishQueueSize: a.MaxPendingPublishQueueSize,
		PublisherTipPercent:        a.PublisherTipPercent,
	}
}

// FeeEstimator returns the publication fee estimator
func (a Aggregate) FeeEstimator() *aggregate.LinearFeeEstimator {
	return &aggregate.LinearFeeEstimator{
		BaseFee:         mustParseAmount(a.BaseFee),
		FeePerRefTime:   mustParseAmount(a.FeePerRefTime),
		FeePerProofSize: mustParseAmount(a.FeePerProofSize),
	}
}

// ManagerAddress returns the manager account, nil if none is configured
func (a Aggregate) ManagerAddress() address.Address {
	if a.Manager == "" {
		return nil
	}
	addr, err := address.FromString(a.Manager)
	if err != nil {
		log.S().Panicf("Error when parsing manager address %s: %v", a.Manager, err)
	}
	return addr
}

// DomainPolicy returns the deposit policy of domains
func (a Account) DomainPolicy() account.DepositPolicy {
	return account.DepositPolicy{
		Base:    mustParseAmount(a.DomainBase),
		PerByte: mustParseAmount(a.DomainPerByte),
	}
}

// AllowlistPolicy returns the deposit policy of allowlists
func (a Account) AllowlistPolicy() account.DepositPolicy {
	return account.DepositPolicy{
		Base:    mustParseAmount(a.AllowlistBase),
		PerItem: mustParseAmount(a.AllowlistPerItem),
	}
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Wrapf(ErrInvalidCfg, "invalid amount %s", s)
	}
	return v, nil
}

func mustParseAmount(s string) *big.Int {
	v, err := parseAmount(s)
	if err != nil {
		log.S().Panicf("Error when parsing amount string: %s", s)
	}
	return v
}

func validateAmounts(amounts ...string) error {
	for _, s := range amounts {
		if _, err := parseAmount(s); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAggregate validates the aggregate protocol configs
func ValidateAggregate(cfg Config) error {
	a := cfg.Aggregate
	if a.AggregationSize == 0 || a.MaxPendingPublishQueueSize == 0 {
		return errors.Wrap(ErrInvalidCfg, "aggregation size and publish queue size should be greater than 0")
	}
	if a.Manager != "" {
		if _, err := address.FromString(a.Manager); err != nil {
			return errors.Wrapf(ErrInvalidCfg, "invalid manager address %s", a.Manager)
		}
	}
	return validateAmounts(a.BaseFee, a.FeePerRefTime, a.FeePerProofSize)
}

// ValidateAccount validates the deposit configs
func ValidateAccount(cfg Config) error {
	a := cfg.Account
	return validateAmounts(a.DomainBase, a.DomainPerByte, a.AllowlistBase, a.AllowlistPerItem)
}

// ValidateDelivery validates the delivery configs
func ValidateDelivery(cfg Config) error {
	d := cfg.Delivery
	if _, err := address.FromString(d.FeeCollector); err != nil {
		return errors.Wrapf(ErrInvalidCfg, "invalid fee collector address %s", d.FeeCollector)
	}
	if d.RelayInterval < 0 || d.RetryInterval < 0 {
		return errors.Wrap(ErrInvalidCfg, "relay intervals should not be negative")
	}
	if d.RelayParallelism < 0 {
		return errors.Wrap(ErrInvalidCfg, "relay parallelism should not be negative")
	}
	return validateAmounts(d.MinFee)
}

// ValidateGenesis validates the genesis balances
func ValidateGenesis(cfg Config) error {
	for addr, balance := range cfg.Genesis.Balances {
		if _, err := address.FromString(addr); err != nil {
			return errors.Wrapf(ErrInvalidCfg, "invalid genesis address %s", addr)
		}
		if err := validateAmounts(balance); err != nil {
			return err
		}
	}
	return nil
}

// GenesisBalances returns the parsed genesis balances
func (g Genesis) GenesisBalances() (map[string]*big.Int, error) {
	balances := make(map[string]*big.Int, len(g.Balances))
	for addr, balance := range g.Balances {
		v, err := parseAmount(balance)
		if err != nil {
			return nil, err
		}
		balances[addr] = v
	}
	return balances, nil
}

// DoNotValidate validates the given config
func DoNotValidate(cfg Config) error { return nil }
