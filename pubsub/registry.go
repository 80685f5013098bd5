// Package pubsub implements the Subscription Registry (§4.6): the table of
// active channel/pattern subscriptions a Connection's state machine
// consults while InSubscribeMode.
package pubsub

import "github.com/xenking/gorest-redis/internal/shardmap"

// Kind distinguishes a literal channel subscription from a glob pattern
// subscription.
type Kind int

const (
	KindChannel Kind = iota
	KindPattern
)

// SubscribeKeyword returns the wire command used to establish a
// subscription of this Kind.
func (k Kind) SubscribeKeyword() string {
	if k == KindPattern {
		return "PSUBSCRIBE"
	}
	return "SUBSCRIBE"
}

// UnsubscribeKeyword returns the wire command used to end a subscription of
// this Kind.
func (k Kind) UnsubscribeKeyword() string {
	if k == KindPattern {
		return "PUNSUBSCRIBE"
	}
	return "UNSUBSCRIBE"
}

// Receiver is invoked for every message delivered to a subscription, in the
// order the originating Connection received them (§5 "Pub/sub message
// delivery... is strictly ordered for messages on the same channel
// originating from the same Connection").
type Receiver func(payload []byte)

// SubscribeNotify is invoked when the server confirms a (re)subscription,
// carrying the server-reported subscription count.
type SubscribeNotify func(count int64)

// UnsubscribeNotify is invoked when a subscription ends, either by explicit
// UNSUBSCRIBE/PUNSUBSCRIBE confirmation (reason "") or by connection loss
// (reason "connection closed", §4.3).
type UnsubscribeNotify func(count int64, reason string)

// Subscription is one channel or pattern registration.
type Subscription struct {
	Kind          Kind
	Name          string
	Receiver      Receiver
	OnSubscribe   SubscribeNotify
	OnUnsubscribe UnsubscribeNotify
	Count         int64
}

// Registry tracks active channel and pattern subscriptions for one
// Connection. Add/UpdateCount/Route/CloseAll are called from the
// Connection's reactor goroutine (Route via StateMachine.Dispatch). The
// backing maps are sharded and locked, so Route is also safe to call
// concurrently from another goroutine (grounded on
// pascaldekloe-redis/pubsub.go's "the hot path is lock free" receive loop).
type Registry struct {
	channels *shardmap.Map[*Subscription]
	patterns *shardmap.Map[*Subscription]
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: shardmap.New[*Subscription](),
		patterns: shardmap.New[*Subscription](),
	}
}

func (r *Registry) table(kind Kind) *shardmap.Map[*Subscription] {
	if kind == KindPattern {
		return r.patterns
	}
	return r.channels
}

// Add registers a pending subscription before its confirming SUBSCRIBE/
// PSUBSCRIBE command is written, so a "message" burst that races ahead of
// the confirmation still has somewhere to land.
func (r *Registry) Add(kind Kind, name string, receiver Receiver, onSubscribe SubscribeNotify, onUnsubscribe UnsubscribeNotify) {
	r.table(kind).Set(name, &Subscription{
		Kind:          kind,
		Name:          name,
		Receiver:      receiver,
		OnSubscribe:   onSubscribe,
		OnUnsubscribe: onUnsubscribe,
	})
}

// UpdateCount records the server-reported count carried by a subscribe/
// unsubscribe confirmation frame and fires the matching notification
// callback. isSubscribeReply distinguishes a "subscribe"/"psubscribe" tag
// from an "unsubscribe"/"punsubscribe" tag. It returns true once the total
// subscription count across both channel and pattern sets has reached
// zero — the signal the state machine uses to leave InSubscribeMode.
func (r *Registry) UpdateCount(kind Kind, name string, count int64, isSubscribeReply bool) bool {
	sub, ok := r.table(kind).Get(name)
	if ok {
		sub.Count = count
		if isSubscribeReply {
			if sub.OnSubscribe != nil {
				sub.OnSubscribe(count)
			}
		} else {
			if sub.OnUnsubscribe != nil {
				sub.OnUnsubscribe(count, "")
			}
			r.table(kind).Delete(name)
		}
	}
	return r.channels.Len()+r.patterns.Len() == 0
}

// Route dispatches a "message" (kind=KindChannel, key=channel) or
// "pmessage" (kind=KindPattern, key=the subscribed pattern) push to its
// receiver. It reports whether a matching subscription was found.
func (r *Registry) Route(kind Kind, key string, payload []byte) bool {
	sub, ok := r.table(kind).Get(key)
	if !ok || sub.Receiver == nil {
		return false
	}
	sub.Receiver(payload)
	return true
}

// CloseAll fires every active subscription's unsubscribe notification with
// reason and clears the registry. Used when the owning Connection
// transitions to Closing/Closed (§4.3 failure semantics).
func (r *Registry) CloseAll(reason string) {
	r.channels.Range(func(name string, sub *Subscription) bool {
		if sub.OnUnsubscribe != nil {
			sub.OnUnsubscribe(0, reason)
		}
		return true
	})
	r.patterns.Range(func(name string, sub *Subscription) bool {
		if sub.OnUnsubscribe != nil {
			sub.OnUnsubscribe(0, reason)
		}
		return true
	})
	r.channels = shardmap.New[*Subscription]()
	r.patterns = shardmap.New[*Subscription]()
}

// Size reports the current number of channel and pattern subscriptions.
func (r *Registry) Size() (channels, patterns int) {
	return r.channels.Len(), r.patterns.Len()
}
