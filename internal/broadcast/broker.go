package broadcast

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"dispatch-console/internal/logx"
)

// Subscription is one subscriber's ordered event stream.
type Subscription struct {
	key    string
	ch     chan Event
	closed bool // guarded by the owning broker's mutex
}

// Events returns the subscriber's receive channel. The channel is closed when
// the subscriber is dropped (broker shutdown or buffer overflow); after that
// the consumer must resubscribe and re-read current state from the stores.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Key returns the channel key the subscription is bound to.
func (s *Subscription) Key() string {
	return s.key
}

// Broker fans state-change events out to role-scoped subscriber channels.
//
// A single publish path under one mutex gives every subscriber the events of
// any one order in commit order. Delivery is at-least-once to connected
// subscribers: a subscriber whose buffer fills up is disconnected rather than
// allowed to reorder or block the commit path.
type Broker struct {
	mu        sync.Mutex
	subs      map[string]map[*Subscription]struct{}
	buffer    int
	logger    logx.Logger
	published prometheus.Counter
	dropped   prometheus.Counter
	connected prometheus.Gauge
	closed    bool
}

// New creates a Broker with the given per-subscriber buffer size.
func New(buffer int, logger logx.Logger, published, dropped prometheus.Counter, connected prometheus.Gauge) *Broker {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broker{
		subs:      make(map[string]map[*Subscription]struct{}),
		buffer:    buffer,
		logger:    logger,
		published: published,
		dropped:   dropped,
		connected: connected,
	}
}

// Subscribe registers a subscriber on the given channel key.
func (b *Broker) Subscribe(channelKey string) *Subscription {
	sub := &Subscription{key: channelKey, ch: make(chan Event, b.buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.closed = true
		close(sub.ch)
		return sub
	}
	set, ok := b.subs[channelKey]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[channelKey] = set
	}
	set[sub] = struct{}{}
	if b.connected != nil {
		b.connected.Inc()
	}
	return sub
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(sub)
}

// Publish routes the event to every channel its kind concerns and delivers it
// in publish order relative to all other events.
//
// Assignment and cancellation events go to every partner channel, not just
// the bound partner: each partner feed must drop the order the moment a claim
// commits, so the fan-out is the removal instruction.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.send(ManagerChannel, ev)
	switch ev.Kind {
	case KindOrderCreated, KindOrderAssigned, KindOrderCancelled:
		for key := range b.subs {
			if strings.HasPrefix(key, partnerPrefix) {
				b.send(key, ev)
			}
		}
	case KindOrderStatusChanged, KindPartnerAvailabilityChanged:
		if ev.PartnerID != "" {
			b.send(PartnerChannel(ev.PartnerID), ev)
		}
	}
}

// Close shuts the broker down and closes every subscriber channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, set := range b.subs {
		for sub := range set {
			if !sub.closed {
				sub.closed = true
				close(sub.ch)
				if b.connected != nil {
					b.connected.Dec()
				}
			}
		}
	}
	b.subs = make(map[string]map[*Subscription]struct{})
}

// send delivers to every subscriber of key; callers hold b.mu.
func (b *Broker) send(key string, ev Event) {
	for sub := range b.subs[key] {
		select {
		case sub.ch <- ev:
			if b.published != nil {
				b.published.Inc()
			}
		default:
			// Subscriber fell behind. Cutting it off keeps the per-order
			// ordering guarantee intact; it resynchronizes from the stores.
			if b.dropped != nil {
				b.dropped.Inc()
			}
			b.logger.Warn("subscriber dropped: buffer full",
				logx.String("channel", key),
			)
			b.remove(sub)
		}
	}
}

// remove deletes the subscription; callers hold b.mu.
func (b *Broker) remove(sub *Subscription) {
	if sub == nil || sub.closed {
		return
	}
	set := b.subs[sub.key]
	if _, ok := set[sub]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.key)
		}
		if b.connected != nil {
			b.connected.Dec()
		}
	}
	sub.closed = true
	close(sub.ch)
}
