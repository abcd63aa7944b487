// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	_statementMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_aggregate_statements",
			Help: "Statements admitted, rejected and published by the aggregate protocol",
		},
		[]string{"result"},
	)
	_publishMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_aggregate_publish",
			Help: "Publication attempts of the aggregate protocol",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(_statementMtc)
	prometheus.MustRegister(_publishMtc)
}

func publishResult(err error) string {
	switch errors.Cause(err) {
	case nil:
		return "success"
	case ErrUnknownDomainID:
		return "unknown_domain"
	case ErrInvalidAggregationID:
		return "invalid_aggregation"
	case ErrBadOrigin:
		return "bad_origin"
	default:
		return "failure"
	}
}
