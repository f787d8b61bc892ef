/*
Core composes the runtime pieces owned by one trader.

# Module
  - message bus: routes published, sent and correlated messages between components
  - actor registry: keeps components addressable by identifier
  - listener: hands bus traffic on bridged topics to one asynchronous consumer

# Flow
 1. components register as actors; each actor id doubles as a bus endpoint
 2. producers publish on topics, send to endpoints or answer correlation ids
 3. bridged topics are copied into the listener as encoded payloads

# Confinement
  - one kernel per trader, driven from a single goroutine
  - only the listener's receiver may be read from another goroutine
*/
package core

import (
	"anttrader/internal/actor"
	"anttrader/internal/bus"
	"anttrader/internal/model"
	"anttrader/internal/obs"
	"anttrader/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Config describes a kernel.
type Config struct {
	TraderID   model.TraderID
	InstanceID uuid.UUID
	BusName    string
	BusConfig  map[string]any
	Metrics    *obs.Metrics
}

// Kernel owns the bus, the actor registry and the listener of one trader.
type Kernel struct {
	traderID model.TraderID
	bus      *bus.MessageBus
	actors   *actor.Registry
	listener *bus.Listener
	metrics  *obs.Metrics
	bridged  map[bus.Topic]bus.Handler
}

// NewKernel validates cfg and builds a kernel. Missing trader and instance
// ids fall back to model.DefaultTraderID and a random uuid.
func NewKernel(cfg Config) (*Kernel, error) {
	traderID := cfg.TraderID
	if traderID == "" {
		traderID = model.DefaultTraderID
	}
	if _, err := model.NewTraderID(string(traderID)); err != nil {
		return nil, errors.Wrap(err, "new kernel")
	}

	instanceID := cfg.InstanceID
	if instanceID == uuid.Nil {
		instanceID = uuid.New()
	}

	listener := bus.NewListener()
	listener.SetMetrics(cfg.Metrics)

	return &Kernel{
		traderID: traderID,
		bus: bus.New(traderID, instanceID,
			bus.WithName(cfg.BusName),
			bus.WithConfig(cfg.BusConfig),
			bus.WithMetrics(cfg.Metrics),
		),
		actors:   actor.NewRegistry(),
		listener: listener,
		metrics:  cfg.Metrics,
		bridged:  make(map[bus.Topic]bus.Handler),
	}, nil
}

func (k *Kernel) TraderID() model.TraderID {
	return k.traderID
}

func (k *Kernel) Bus() *bus.MessageBus {
	return k.bus
}

func (k *Kernel) Actors() *actor.Registry {
	return k.actors
}

func (k *Kernel) Listener() *bus.Listener {
	return k.listener
}

func (k *Kernel) Metrics() *obs.Metrics {
	return k.metrics
}

// RegisterActor stores a and routes sends on the endpoint named after its id
// to a.Handle.
func (k *Kernel) RegisterActor(a actor.Actor) error {
	if a == nil {
		return exception.ErrNilInstance
	}

	endpoint, err := bus.NewEndpoint(a.ID())
	if err != nil {
		return errors.Wrap(err, "register actor").With("actor", a.ID())
	}

	k.actors.Insert(a.ID(), a)
	k.bus.Register(endpoint, bus.NewAnyHandler(a.ID(), a.Handle))
	logs.Debugf("registered actor %s", a.ID())
	return nil
}

// DeregisterActor removes the actor stored under id and its endpoint.
func (k *Kernel) DeregisterActor(id string) (actor.Actor, bool) {
	a, ok := k.actors.Remove(id)
	if !ok {
		return nil, false
	}

	if endpoint, err := bus.NewEndpoint(id); err == nil {
		k.bus.Deregister(endpoint)
	}
	return a, true
}

// BridgeTopic copies every message published on topic into the listener.
// Byte slices and strings are forwarded as is, anything else is encoded as JSON.
func (k *Kernel) BridgeTopic(topic bus.Topic) {
	if _, ok := k.bridged[topic]; ok {
		return
	}

	name := topic.Value()
	handler := bus.NewAnyHandler("bridge:"+name, func(message any) {
		payload, err := encodePayload(message)
		if err != nil {
			logs.Errorf("bridge %s: encode payload, err: %+v", name, err)
			return
		}
		k.listener.Publish(name, payload)
	})

	k.bridged[topic] = handler
	k.bus.SubscribeTopic(topic, handler, 0)
}

// UnbridgeTopic stops copying topic into the listener.
func (k *Kernel) UnbridgeTopic(topic bus.Topic) {
	handler, ok := k.bridged[topic]
	if !ok {
		return
	}

	delete(k.bridged, topic)
	k.bus.UnsubscribeTopic(topic, handler)
}

// BridgedTopics reports how many topics are bridged.
func (k *Kernel) BridgedTopics() int {
	return len(k.bridged)
}

// Dispose tears down the bridges, closes the listener, forgets every actor
// and closes the bus.
func (k *Kernel) Dispose() error {
	for topic := range k.bridged {
		k.UnbridgeTopic(topic)
	}

	k.listener.Close()
	k.actors.Clear()

	if err := k.bus.Close(); err != nil {
		return errors.Wrap(err, "close bus")
	}
	return nil
}

func encodePayload(message any) ([]byte, error) {
	switch m := message.(type) {
	case []byte:
		return m, nil
	case string:
		return []byte(m), nil
	case bus.BusMessage:
		return m.Payload, nil
	}

	payload, err := sonic.ConfigFastest.Marshal(message)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %T", message)
	}
	return payload, nil
}
