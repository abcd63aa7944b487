// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// This is a tool to compute aggregation receipts, prove and verify statements and inspect stored domains
// To use, run "make build" and " ./bin/aggregatectl"
package main

import (
	"os"

	"github.com/iotexproject/iotex-aggregate/tools/aggregatectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
