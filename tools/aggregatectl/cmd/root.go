// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"encoding/hex"
	"strings"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-aggregate/pkg/log"
)

// NewRootCmd returns the aggregatectl command with all its sub commands
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aggregatectl [command] [flags]",
		Short:         "Command-line interface for IoTeX statement aggregation",
		Long:          "aggregatectl computes aggregation receipts, proves and verifies statements and inspects domains.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReceiptCmd(), newProveCmd(), newVerifyCmd(), newDomainCmd())
	return root
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		log.L().Error("aggregatectl failed", zap.Error(err))
		return err
	}
	return nil
}

func parseHash(s string) (hash.Hash256, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return hash.ZeroHash256, errors.Wrapf(err, "invalid hash %s", s)
	}
	if len(b) != len(hash.ZeroHash256) {
		return hash.ZeroHash256, errors.Errorf("invalid hash %s, expect %d bytes", s, len(hash.ZeroHash256))
	}
	return hash.BytesToHash256(b), nil
}

func parseHashes(args []string) ([]hash.Hash256, error) {
	hs := make([]hash.Hash256, 0, len(args))
	for _, arg := range args {
		h, err := parseHash(arg)
		if err != nil {
			return nil, err
		}
		hs = append(hs, h)
	}
	return hs, nil
}

func hexHash(h hash.Hash256) string {
	return "0x" + hex.EncodeToString(h[:])
}
