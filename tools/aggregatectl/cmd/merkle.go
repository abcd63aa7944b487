// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iotexproject/iotex-aggregate/crypto"
)

func newReceiptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receipt STATEMENT...",
		Short: "Compute the receipt of an aggregation",
		Long:  "Compute the receipt of an aggregation, the keccak merkle root of its statements in order.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leaves, err := parseHashes(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexHash(crypto.NewMerkleTree(leaves).HashTree()))
			return nil
		},
	}
}

func newProveCmd() *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "prove --index i STATEMENT...",
		Short: "Build the merkle proof of a statement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leaves, err := parseHashes(args)
			if err != nil {
				return err
			}
			proof, err := crypto.NewMerkleTree(leaves).Proof(index)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "root: %s\n", hexHash(proof.Root))
			fmt.Fprintf(out, "leaf: %s\n", hexHash(proof.Leaf))
			fmt.Fprintf(out, "index: %d\n", proof.LeafIndex)
			fmt.Fprintf(out, "leaves: %d\n", proof.NumberOfLeaves)
			for _, h := range proof.Proof {
				fmt.Fprintf(out, "proof: %s\n", hexHash(h))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", 0, "index of the statement")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var (
		root, leaf    string
		index, leaves uint64
	)
	cmd := &cobra.Command{
		Use:   "verify --root r --leaf l --index i --leaves n [PROOF...]",
		Short: "Verify the merkle proof of a statement",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseHash(root)
			if err != nil {
				return err
			}
			l, err := parseHash(leaf)
			if err != nil {
				return err
			}
			proof, err := parseHashes(args)
			if err != nil {
				return err
			}
			if !crypto.VerifyProof(r, proof, leaves, index, l) {
				return errors.New("invalid proof")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "receipt of the aggregation")
	cmd.Flags().StringVar(&leaf, "leaf", "", "statement")
	cmd.Flags().Uint64Var(&index, "index", 0, "index of the statement")
	cmd.Flags().Uint64Var(&leaves, "leaves", 0, "number of statements of the aggregation")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("leaf")
	_ = cmd.MarkFlagRequired("leaves")
	return cmd
}
