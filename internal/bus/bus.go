package bus

import (
	"fmt"
	"slices"
	"time"

	"anttrader/internal/model"
	"anttrader/internal/obs"
	"anttrader/pkg/exception"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const defaultBusName = "MessageBus"

// MessageBus routes messages between components of one trader.
//
// It supports publish/subscribe over wildcard patterns, direct sends to
// registered endpoints and one-shot request/response correlation. Handlers
// run synchronously on the caller's goroutine, in subscription order.
//
// A MessageBus is confined to one goroutine (or one event loop) at a time.
// Handlers may re-enter the bus: resolved topic lists are never mutated in
// place, so a dispatch in flight keeps iterating its own snapshot.
type MessageBus struct {
	traderID   model.TraderID
	instanceID uuid.UUID
	name       string
	config     map[string]any
	metrics    *obs.Metrics

	subscriptions    *subscriptionSet
	topics           map[Topic][]Subscription
	endpoints        map[Endpoint]Handler
	endpointOrder    []Endpoint
	correlationIndex map[uuid.UUID]Handler
}

// Option configures a MessageBus.
type Option func(*MessageBus)

// WithName overrides the default name "MessageBus".
func WithName(name string) Option {
	return func(b *MessageBus) {
		if name != "" {
			b.name = name
		}
	}
}

// WithConfig attaches a free-form configuration. It is kept for a future
// persistent backing and is not interpreted.
func WithConfig(config map[string]any) Option {
	return func(b *MessageBus) {
		b.config = config
	}
}

// WithMetrics records bus activity into m.
func WithMetrics(m *obs.Metrics) Option {
	return func(b *MessageBus) {
		b.metrics = m
	}
}

// New creates an empty bus owned by traderID.
func New(traderID model.TraderID, instanceID uuid.UUID, opts ...Option) *MessageBus {
	b := &MessageBus{
		traderID:         traderID,
		instanceID:       instanceID,
		name:             defaultBusName,
		subscriptions:    newSubscriptionSet(),
		topics:           make(map[Topic][]Subscription),
		endpoints:        make(map[Endpoint]Handler),
		correlationIndex: make(map[uuid.UUID]Handler),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *MessageBus) TraderID() model.TraderID {
	return b.traderID
}

func (b *MessageBus) InstanceID() uuid.UUID {
	return b.instanceID
}

func (b *MessageBus) Name() string {
	return b.name
}

// Config returns the configuration passed with WithConfig.
func (b *MessageBus) Config() map[string]any {
	return b.config
}

// HasBacking reports whether the bus is backed by a durable store. It never is.
func (b *MessageBus) HasBacking() bool {
	return false
}

func (b *MessageBus) String() string {
	return fmt.Sprintf("%s(trader_id=%s, instance_id=%s)", b.name, b.traderID, b.instanceID)
}

// Close releases the bus. Nothing is held yet.
func (b *MessageBus) Close() error {
	logs.Debugf("closing %s", b)
	return nil
}

/*
	Endpoints
*/

// Register binds handler to endpoint, replacing any previous handler.
func (b *MessageBus) Register(endpoint Endpoint, handler Handler) {
	logs.Debugf("registering endpoint '%s' with handler %s", endpoint, handler.ID())

	if prev, ok := b.endpoints[endpoint]; ok {
		logs.Warnf("replacing handler %s for endpoint '%s' with %s", prev.ID(), endpoint, handler.ID())
	} else {
		b.endpointOrder = append(b.endpointOrder, endpoint)
	}

	b.endpoints[endpoint] = handler
}

// Deregister removes endpoint, keeping the order of the others.
func (b *MessageBus) Deregister(endpoint Endpoint) {
	logs.Debugf("deregistering endpoint '%s'", endpoint)

	if _, ok := b.endpoints[endpoint]; !ok {
		return
	}

	delete(b.endpoints, endpoint)
	if i := slices.Index(b.endpointOrder, endpoint); i >= 0 {
		b.endpointOrder = slices.Delete(b.endpointOrder, i, i+1)
	}
}

// IsRegistered reports whether endpoint has a handler.
func (b *MessageBus) IsRegistered(endpoint Endpoint) bool {
	_, ok := b.endpoints[endpoint]
	return ok
}

// GetEndpoint returns the handler registered for endpoint.
func (b *MessageBus) GetEndpoint(endpoint Endpoint) (Handler, bool) {
	h, ok := b.endpoints[endpoint]
	return h, ok
}

// Endpoints lists the registered endpoints in registration order.
func (b *MessageBus) Endpoints() []string {
	result := make([]string, 0, len(b.endpointOrder))
	for _, e := range b.endpointOrder {
		result = append(result, e.Value())
	}
	return result
}

// Send delivers message to the handler registered for endpoint. A missing
// endpoint is logged and the message dropped.
func (b *MessageBus) Send(endpoint Endpoint, message any) {
	handler, ok := b.endpoints[endpoint]
	if !ok {
		logs.Errorf("send: no registered endpoint '%s'", endpoint)
		b.metrics.IncSendDrop()
		return
	}

	b.metrics.IncSend()
	handler.Handle(message)
}

/*
	Request / response
*/

// RegisterResponseHandler binds handler to a correlation id. It fails when
// the id already has a handler.
func (b *MessageBus) RegisterResponseHandler(correlationID uuid.UUID, handler Handler) error {
	if _, ok := b.correlationIndex[correlationID]; ok {
		return errors.Wrapf(exception.ErrDuplicateCorrelationID, "correlation id <%s>", correlationID)
	}

	b.correlationIndex[correlationID] = handler
	return nil
}

// GetResponseHandler returns the pending handler for correlationID.
func (b *MessageBus) GetResponseHandler(correlationID uuid.UUID) (Handler, bool) {
	h, ok := b.correlationIndex[correlationID]
	return h, ok
}

// SendResponse delivers message to the handler waiting on correlationID and
// forgets it. Unknown ids are logged and the response dropped.
func (b *MessageBus) SendResponse(correlationID uuid.UUID, message any) {
	handler, ok := b.correlationIndex[correlationID]
	if !ok {
		logs.Errorf("send response: handler not found for correlation id '%s'", correlationID)
		b.metrics.IncResponseDrop()
		return
	}

	delete(b.correlationIndex, correlationID)
	b.metrics.IncResponse()
	handler.Handle(message)
}

/*
	Publish / subscribe
*/

// Subscribe adds handler for pattern. Subscribing the same handler to the same
// pattern twice is a no-op.
func (b *MessageBus) Subscribe(pattern Pattern, handler Handler, priority uint8) {
	sub := NewSubscription(pattern, handler, priority)
	logs.Debugf("subscribing handler %s for pattern '%s'", sub.HandlerID(), pattern)

	if b.subscriptions.Contains(sub) {
		logs.Warnf("%s already exists", sub)
		return
	}

	for topic, subs := range b.topics {
		if !pattern.Matches(topic) {
			continue
		}
		b.topics[topic] = insertSubscription(subs, sub)
		logs.Debugf("added subscription for '%s'", topic)
	}

	b.subscriptions.Insert(sub)
}

// SubscribeTopic subscribes handler to exactly topic.
func (b *MessageBus) SubscribeTopic(topic Topic, handler Handler, priority uint8) {
	b.Subscribe(topic.Pattern(), handler, priority)
}

// SubscribeStr subscribes handler to pattern given as a string.
func (b *MessageBus) SubscribeStr(pattern string, handler Handler, priority uint8) {
	b.Subscribe(NewPattern(pattern), handler, priority)
}

// Unsubscribe removes the subscription of handler to pattern and purges it
// from every resolved topic.
func (b *MessageBus) Unsubscribe(pattern Pattern, handler Handler) {
	logs.Debugf("unsubscribing handler %s from pattern '%s'", handler.ID(), pattern)

	removed, ok := b.subscriptions.Remove(NewSubscription(pattern, handler, 0))
	if !ok {
		logs.Warnf("unsubscribe: handler %s is not subscribed to '%s'", handler.ID(), pattern)
		return
	}

	for topic, subs := range b.topics {
		if i := slices.IndexFunc(subs, removed.Equal); i >= 0 {
			b.topics[topic] = removeSubscription(subs, i)
		}
	}
}

// UnsubscribeTopic removes the exact-match subscription of handler to topic.
func (b *MessageBus) UnsubscribeTopic(topic Topic, handler Handler) {
	b.Unsubscribe(topic.Pattern(), handler)
}

// UnsubscribeStr removes the subscription of handler to pattern given as a string.
func (b *MessageBus) UnsubscribeStr(pattern string, handler Handler) {
	b.Unsubscribe(NewPattern(pattern), handler)
}

// Publish delivers message to every subscription matching topic.
func (b *MessageBus) Publish(topic Topic, message any) {
	subs := b.MatchingSubscriptions(topic)

	var start time.Time
	if b.metrics != nil {
		start = time.Now()
	}

	for i := range subs {
		subs[i].Handler.Handle(message)
	}

	if b.metrics != nil {
		b.metrics.ObservePublish(len(subs), time.Since(start))
	}
}

// MatchingSubscriptions resolves topic to its subscriptions in delivery
// order, caching the result for later publishes. The returned slice is
// shared with the cache and must not be modified.
func (b *MessageBus) MatchingSubscriptions(topic Topic) []Subscription {
	if subs, ok := b.topics[topic]; ok {
		return subs
	}

	subs := b.subscriptions.Matching(topic)
	b.topics[topic] = subs
	return subs
}

// SubscriptionsCount returns how many subscriptions match topic. It reads the
// cache when topic was already resolved and never populates it.
func (b *MessageBus) SubscriptionsCount(topic Topic) int {
	if subs, ok := b.topics[topic]; ok {
		return len(subs)
	}
	return b.subscriptions.CountMatching(topic)
}

// HasSubscribers reports whether any subscription matches topic.
func (b *MessageBus) HasSubscribers(topic Topic) bool {
	return b.SubscriptionsCount(topic) > 0
}

// IsSubscribed reports whether handler is subscribed to pattern.
func (b *MessageBus) IsSubscribed(pattern Pattern, handler Handler) bool {
	return b.subscriptions.Contains(NewSubscription(pattern, handler, 0))
}

// Subscriptions returns every subscription in delivery order.
func (b *MessageBus) Subscriptions() []Subscription {
	result := make([]Subscription, 0, b.subscriptions.Len())
	b.subscriptions.Ascend(func(sub Subscription) bool {
		result = append(result, sub)
		return true
	})
	return result
}

// Patterns returns the pattern of every subscription in delivery order.
func (b *MessageBus) Patterns() []string {
	result := make([]string, 0, b.subscriptions.Len())
	b.subscriptions.Ascend(func(sub Subscription) bool {
		result = append(result, sub.Pattern.Value())
		return true
	})
	return result
}

// SubscriptionHandlerIDs returns the handler ID of every subscription in delivery order.
func (b *MessageBus) SubscriptionHandlerIDs() []string {
	result := make([]string, 0, b.subscriptions.Len())
	b.subscriptions.Ascend(func(sub Subscription) bool {
		result = append(result, sub.HandlerID())
		return true
	})
	return result
}

// ResolvedTopics returns the topics currently held in the resolution cache, sorted.
func (b *MessageBus) ResolvedTopics() []string {
	result := make([]string, 0, len(b.topics))
	for topic := range b.topics {
		result = append(result, topic.Value())
	}
	slices.Sort(result)
	return result
}

// insertSubscription returns a new slice with sub placed by delivery order.
func insertSubscription(subs []Subscription, sub Subscription) []Subscription {
	i, _ := slices.BinarySearchFunc(subs, sub, compareSubscriptions)
	next := make([]Subscription, 0, len(subs)+1)
	next = append(next, subs[:i]...)
	next = append(next, sub)
	return append(next, subs[i:]...)
}

// removeSubscription returns a new slice without subs[i].
func removeSubscription(subs []Subscription, i int) []Subscription {
	next := make([]Subscription, 0, len(subs)-1)
	next = append(next, subs[:i]...)
	return append(next, subs[i+1:]...)
}
