// Copyright (c) 2025 The radixwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package broadcast implements a typed fan-out hub. Every published value is
// delivered to all subscribed clients, each buffered by its own unbounded
// queue so a slow client never holds up the publisher or other clients.
package broadcast

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/queue"
)

// clientBufferSize is the channel buffer of a client queue before values
// spill over into its overflow list.
const clientBufferSize = 20

var (
	// ErrHubShuttingDown is returned when the hub is stopped.
	ErrHubShuttingDown = errors.New("broadcast hub shutting down")

	// ErrHubClosed is returned when publishing to a closed hub.
	ErrHubClosed = errors.New("broadcast hub closed")
)

// Mode selects what a new client receives before live values.
type Mode uint8

const (
	// ReplayNone delivers only values published after subscribing.
	ReplayNone Mode = iota

	// ReplayLatest first delivers the last published value.
	ReplayLatest

	// ReplayAll first delivers every published value in order.
	ReplayAll
)

// endOfStream is queued behind the last value once the hub is closed.
type endOfStream struct{}

// Client receives the values of a hub.
type Client[T any] struct {
	hub *Hub[T]
	id  uint64

	updates *queue.ConcurrentQueue
	out     chan T

	quit     chan struct{}
	stopOnce sync.Once
}

// Updates returns the channel the values are delivered on. It is closed
// after the last value once the hub is closed, or when the client is
// canceled or the hub stopped.
func (c *Client[T]) Updates() <-chan T {
	return c.out
}

// Quit returns a channel that is closed once the hub no longer delivers
// values to this client.
func (c *Client[T]) Quit() <-chan struct{} {
	return c.quit
}

// Cancel unsubscribes the client.
func (c *Client[T]) Cancel() {
	select {
	case c.hub.clientUpdates <- &clientUpdate[T]{
		cancel:   true,
		clientID: c.id,
	}:

	case <-c.hub.done:
		c.stop()

	case <-c.hub.quit:
	}
}

// stop releases the client queue and ends its stream.
func (c *Client[T]) stop() {
	c.stopOnce.Do(func() {
		close(c.quit)
		c.updates.Stop()
	})
}

// push queues v for the client. It returns false if the hub is stopping.
func (c *Client[T]) push(v any, hubQuit <-chan struct{}) bool {
	select {
	case c.updates.ChanIn() <- v:
	case <-c.quit:
	case <-hubQuit:
		return false
	}

	return true
}

// forward moves queued values to the typed output channel.
//
// NOTE: MUST be run as a goroutine.
func (c *Client[T]) forward() {
	defer close(c.out)

	for {
		select {
		case item, ok := <-c.updates.ChanOut():
			if !ok {
				return
			}

			if _, ok := item.(endOfStream); ok {
				c.stop()
				return
			}

			select {
			case c.out <- item.(T):
			case <-c.quit:
				return
			}

		case <-c.quit:
			return
		}
	}
}

// clientUpdate registers or cancels a client on the hub handler.
type clientUpdate[T any] struct {
	cancel   bool
	clientID uint64
	client   *Client[T]
}

// Hub delivers published values to a set of clients.
type Hub[T any] struct {
	clientCounter atomic.Uint64

	started atomic.Bool
	stopped atomic.Bool

	mode Mode

	// history holds the values replayed to new clients. It is owned by
	// the handler goroutine until done is closed, and read-only after.
	history []T

	clients       map[uint64]*Client[T]
	clientUpdates chan *clientUpdate[T]
	updates       chan T
	closeReq      chan struct{}

	// done is closed once the hub is closed and the handler exited.
	done chan struct{}

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewHub returns a hub replaying values to new clients according to mode.
func NewHub[T any](mode Mode) *Hub[T] {
	return &Hub[T]{
		mode:          mode,
		clients:       make(map[uint64]*Client[T]),
		clientUpdates: make(chan *clientUpdate[T]),
		updates:       make(chan T),
		closeReq:      make(chan struct{}),
		done:          make(chan struct{}),
		quit:          make(chan struct{}),
	}
}

// Start starts the hub handler.
func (h *Hub[T]) Start() error {
	if !h.started.CompareAndSwap(false, true) {
		return nil
	}

	h.wg.Add(1)
	go h.handler()

	return nil
}

// Stop stops the hub and ends the stream of every client without draining.
func (h *Hub[T]) Stop() error {
	if !h.stopped.CompareAndSwap(false, true) {
		return nil
	}

	close(h.quit)
	h.wg.Wait()

	// The handler exited, the client set is ours.
	for id, client := range h.clients {
		client.stop()
		delete(h.clients, id)
	}

	return nil
}

// Subscribe returns a new client. After the hub was closed the client
// receives the replayed values and then sees its channel closed.
func (h *Hub[T]) Subscribe() (*Client[T], error) {
	if h.stopped.Load() {
		return nil, ErrHubShuttingDown
	}

	client := &Client[T]{
		hub:     h,
		id:      h.clientCounter.Add(1),
		updates: queue.NewConcurrentQueue(clientBufferSize),
		out:     make(chan T),
		quit:    make(chan struct{}),
	}
	client.updates.Start()
	go client.forward()

	select {
	case h.clientUpdates <- &clientUpdate[T]{
		clientID: client.id,
		client:   client,
	}:

	case <-h.done:
		// The history is frozen, replay it directly.
		for _, v := range h.history {
			client.push(v, h.quit)
		}
		client.push(endOfStream{}, h.quit)

	case <-h.quit:
		client.stop()
		return nil, ErrHubShuttingDown
	}

	return client, nil
}

// Publish delivers v to every client.
func (h *Hub[T]) Publish(v T) error {
	select {
	case h.updates <- v:
		return nil

	case <-h.done:
		return ErrHubClosed

	case <-h.quit:
		return ErrHubShuttingDown
	}
}

// Close ends the stream gracefully: clients receive every value published
// before and then see their channel closed. Later clients still receive the
// replayed values.
func (h *Hub[T]) Close() {
	select {
	case h.closeReq <- struct{}{}:
		<-h.done

	case <-h.done:
	case <-h.quit:
	}
}

// record updates the replay history with v.
func (h *Hub[T]) record(v T) {
	switch h.mode {
	case ReplayLatest:
		h.history = append(h.history[:0], v)

	case ReplayAll:
		h.history = append(h.history, v)
	}
}

// handler registers clients and forwards values to them.
//
// NOTE: MUST be run as a goroutine.
func (h *Hub[T]) handler() {
	defer h.wg.Done()

	for {
		select {
		case update := <-h.clientUpdates:
			if update.cancel {
				client, ok := h.clients[update.clientID]
				if ok {
					client.stop()
					delete(h.clients, update.clientID)
				}

				continue
			}

			client := update.client
			for _, v := range h.history {
				if !client.push(v, h.quit) {
					return
				}
			}
			h.clients[update.clientID] = client

		case v := <-h.updates:
			h.record(v)
			for _, client := range h.clients {
				if !client.push(v, h.quit) {
					return
				}
			}

		case <-h.closeReq:
			for _, client := range h.clients {
				if !client.push(endOfStream{}, h.quit) {
					return
				}
			}
			close(h.done)

			return

		case <-h.quit:
			return
		}
	}
}
