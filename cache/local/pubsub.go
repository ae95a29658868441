package local

import (
	"context"
	"sync"
)

// LocalMessage is a message delivered by LocalPubSub.
type LocalMessage struct {
	Channel string
	Payload string
}

type subscriber struct {
	ch       chan *LocalMessage
	channels map[string]struct{}
}

// LocalPubSub is an in-process publish/subscribe hub. Slow subscribers
// drop messages rather than blocking the publisher.
type LocalPubSub struct {
	mu      sync.RWMutex
	subs    map[*subscriber]struct{}
	bufSize int
}

// NewPubSub creates a LocalPubSub with the given per-subscriber buffer size.
func NewPubSub(bufSize int) *LocalPubSub {
	return &LocalPubSub{
		subs:    make(map[*subscriber]struct{}),
		bufSize: bufSize,
	}
}

// Publish delivers the message to every subscriber of the channel.
func (p *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &LocalMessage{Channel: channel, Payload: message}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for sub := range p.subs {
		if _, ok := sub.channels[channel]; !ok {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe returns a message channel for the given channels and a
// cancel function that detaches the subscriber and closes the channel.
func (p *LocalPubSub) Subscribe(_ context.Context, channels ...string) (<-chan *LocalMessage, func(), error) {
	sub := &subscriber{
		ch:       make(chan *LocalMessage, p.bufSize),
		channels: make(map[string]struct{}, len(channels)),
	}
	for _, c := range channels {
		sub.channels[c] = struct{}{}
	}

	p.mu.Lock()
	p.subs[sub] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, sub)
			p.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel, nil
}
