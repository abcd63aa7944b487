// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iotexproject/iotex-aggregate/action/protocol/aggregate"
	"github.com/iotexproject/iotex-aggregate/db"
	"github.com/iotexproject/iotex-aggregate/state/factory"
)

func newDomainCmd() *cobra.Command {
	var (
		dbPath string
		id     uint32
	)
	cmd := &cobra.Command{
		Use:   "domain --db path --id n",
		Short: "Print a domain stored in a state db",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := db.DefaultConfig
			cfg.DbPath = dbPath
			kv := db.NewBoltDB(cfg)
			ctx := context.Background()
			if err := kv.Start(ctx); err != nil {
				return err
			}
			defer kv.Stop(ctx)
			sf, err := factory.NewFactory(kv)
			if err != nil {
				return err
			}
			d, err := aggregate.ReadDomain(sf.ReadView(), id)
			if err != nil {
				return err
			}
			if d == nil {
				return errors.Wrapf(aggregate.ErrUnknownDomainID, "domain %d", id)
			}
			printDomain(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path of the state db")
	cmd.Flags().Uint32Var(&id, "id", 0, "domain id")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func printDomain(out io.Writer, d *aggregate.Domain) {
	fmt.Fprintf(out, "id: %d\n", d.ID)
	fmt.Fprintf(out, "owner: %s\n", d.Owner)
	fmt.Fprintf(out, "state: %s\n", d.State)
	fmt.Fprintf(out, "maxAggregationSize: %d\n", d.MaxAggregationSize)
	fmt.Fprintf(out, "publishQueueSize: %d\n", d.PublishQueueSize)
	fmt.Fprintf(out, "aggregateRules: %s\n", d.AggregateRules)
	fmt.Fprintf(out, "proofRules: %s\n", d.ProofRules)
	fmt.Fprintf(out, "next: %d (%d/%d)\n", d.Next.ID, len(d.Next.Statements), d.Next.Size)
	fmt.Fprintf(out, "shouldPublish: %v\n", d.QueuedIDs())
	fmt.Fprintf(out, "deliveryOwner: %s\n", d.Delivery.Owner.String())
	fmt.Fprintf(out, "destination: %s\n", d.Delivery.Destination)
	fmt.Fprintf(out, "fee: %s\n", d.Delivery.Fee)
	fmt.Fprintf(out, "ownerTip: %s\n", d.Delivery.OwnerTip)
	fmt.Fprintf(out, "allowlisted: %d\n", d.AllowlistCount())
}
