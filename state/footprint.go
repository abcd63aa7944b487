// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package state

type (
	// Footprint is the storage usage a deposit is priced on
	Footprint struct {
		Count uint64
		Size  uint64
	}

	// Ticket is the opaque receipt of a storage deposit
	Ticket []byte
)

// NewFootprint returns a footprint of count items over size bytes
func NewFootprint(count, size uint64) Footprint {
	return Footprint{Count: count, Size: size}
}
