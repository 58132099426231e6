/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sampler

import (
	"errors"
	"fmt"
	"time"

	queuepkg "github.com/Workiva/go-datastructures/queue"

	"github.com/srediag/mumblelink/pkg/mumble"
)

// default hint is 1024 events, the queue grows past it when the consumer lags.
const defaultQueueHint = 1024

var (
	// ErrQueueClosed is returned once the queue was disposed.
	ErrQueueClosed = errors.New("sampler: event queue closed")
	// ErrQueueTimeout is returned by Poll when no event arrived in time.
	ErrQueueTimeout = errors.New("sampler: event queue poll timeout")
)

// Event reports that a link's tick moved between two samples.
type Event struct {
	Link     string
	PrevTick uint32
	Tick     uint32
	MapID    uint32
	Mount    mumble.Mount
	UIState  mumble.UIState
	At       time.Time
}

// EventQueue hands tick change events from the sampling workers to a consumer.
type EventQueue struct {
	q *queuepkg.Queue
}

// NewEventQueue returns a queue sized for hint events, defaultQueueHint when hint <= 0.
func NewEventQueue(hint int64) *EventQueue {
	if hint <= 0 {
		hint = defaultQueueHint
	}
	return &EventQueue{q: queuepkg.New(hint)}
}

func (q *EventQueue) put(e Event) error {
	if err := q.q.Put(e); err != nil {
		return convertQueueErr(err)
	}
	return nil
}

// Get blocks until at least one event is queued and returns up to n of them.
func (q *EventQueue) Get(n int64) ([]Event, error) {
	items, err := q.q.Get(n)
	if err != nil {
		return nil, convertQueueErr(err)
	}
	return toEvents(items)
}

// Poll is Get bounded by timeout.
func (q *EventQueue) Poll(n int64, timeout time.Duration) ([]Event, error) {
	items, err := q.q.Poll(n, timeout)
	if err != nil {
		return nil, convertQueueErr(err)
	}
	return toEvents(items)
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int64 {
	return q.q.Len()
}

// Close disposes the queue, waking blocked consumers, and returns the events left in it.
func (q *EventQueue) Close() []Event {
	if q.q.Disposed() {
		return nil
	}
	left, _ := toEvents(q.q.Dispose())
	return left
}

func toEvents(items []interface{}) ([]Event, error) {
	events := make([]Event, 0, len(items))
	for _, item := range items {
		e, ok := item.(Event)
		if !ok {
			return events, fmt.Errorf("invalid queue element type %T", item)
		}
		events = append(events, e)
	}
	return events, nil
}

func convertQueueErr(err error) error {
	switch {
	case errors.Is(err, queuepkg.ErrDisposed):
		return ErrQueueClosed
	case errors.Is(err, queuepkg.ErrTimeout):
		return ErrQueueTimeout
	default:
		return err
	}
}
