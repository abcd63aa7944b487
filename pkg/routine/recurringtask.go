// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package routine

import (
	"context"
	"time"

	"github.com/facebookgo/clock"

	"github.com/iotexproject/iotex-aggregate/pkg/lifecycle"
)

var _ lifecycle.StartStopper = (*RecurringTask)(nil)

type (
	// Task is the task to run
	Task func()

	// RecurringTaskOption is option for RecurringTask
	RecurringTaskOption interface {
		SetRecurringTaskOption(*RecurringTask)
	}

	clockOption struct {
		c clock.Clock
	}
)

// WithClock sets the clock used to tick the task
func WithClock(c clock.Clock) RecurringTaskOption {
	return clockOption{c}
}

func (o clockOption) SetRecurringTaskOption(t *RecurringTask) {
	t.clock = o.c
}

// RecurringTask represents a recurring task
type RecurringTask struct {
	t        Task
	interval time.Duration
	clock    clock.Clock
	ticker   *clock.Ticker
	done     chan struct{}
}

// NewRecurringTask creates an instance of RecurringTask
func NewRecurringTask(t Task, i time.Duration, ops ...RecurringTaskOption) *RecurringTask {
	rt := &RecurringTask{
		t:        t,
		interval: i,
		clock:    clock.New(),
		done:     make(chan struct{}),
	}
	for _, opt := range ops {
		opt.SetRecurringTaskOption(rt)
	}
	return rt
}

// Start starts the timer
func (t *RecurringTask) Start(_ context.Context) error {
	t.ticker = t.clock.Ticker(t.interval)
	ready := make(chan struct{})
	go func() {
		close(ready)
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				t.t()
			}
		}
	}()
	<-ready
	return nil
}

// Stop stops the timer
func (t *RecurringTask) Stop(_ context.Context) error {
	if t.ticker == nil {
		return nil
	}
	t.ticker.Stop()
	close(t.done)
	t.ticker = nil
	return nil
}
