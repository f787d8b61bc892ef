package core

import (
	"testing"

	"anttrader/internal/actor"
	"anttrader/internal/bus"
	"anttrader/internal/model"
	"anttrader/internal/obs"
	"anttrader/pkg/exception"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type riskEngine struct {
	kernel *Kernel
	maxQty int64
	seen   int
}

func (r *riskEngine) ID() string {
	return "RiskEngine"
}

func (r *riskEngine) Handle(message any) {
	req, ok := message.(model.OrderRequest)
	if !ok {
		return
	}
	r.seen++

	decision := model.RiskDecision{CorrelationID: req.CorrelationID, Accepted: req.Qty <= r.maxQty}
	if !decision.Accepted {
		decision.Reason = "qty above limit"
	}
	r.kernel.Bus().SendResponse(req.CorrelationID, decision)
}

type quote struct {
	Symbol string `json:"symbol"`
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	k, err := NewKernel(Config{TraderID: "TRADER-001", BusName: "TestBus", Metrics: obs.NewMetrics()})
	require.NoError(t, err)
	return k
}

func TestNewKernel(t *testing.T) {
	k, err := NewKernel(Config{})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTraderID, k.TraderID())
	assert.NotEqual(t, uuid.Nil, k.Bus().InstanceID())
	assert.Equal(t, "MessageBus", k.Bus().Name())

	_, err = NewKernel(Config{TraderID: "TRADER"})
	assert.ErrorIs(t, err, exception.ErrInvalidIdentifier)

	k = newTestKernel(t)
	assert.Equal(t, "TestBus", k.Bus().Name())
	assert.NotNil(t, k.Metrics())
}

func TestRegisterActorRoutesSends(t *testing.T) {
	k := newTestKernel(t)
	engine := &riskEngine{kernel: k, maxQty: 10}
	require.NoError(t, k.RegisterActor(engine))

	assert.True(t, k.Bus().IsRegistered(bus.MustEndpoint("RiskEngine")))
	got, err := actor.Get[*riskEngine](k.Actors(), "RiskEngine")
	require.NoError(t, err)
	assert.Same(t, engine, got)

	assert.ErrorIs(t, k.RegisterActor(nil), exception.ErrNilInstance)
}

func TestRequestResponse(t *testing.T) {
	k := newTestKernel(t)
	engine := &riskEngine{kernel: k, maxQty: 10}
	require.NoError(t, k.RegisterActor(engine))

	var decisions []model.RiskDecision
	onDecision := bus.NewTypedHandler("strategy.decisions", func(d model.RiskDecision) {
		decisions = append(decisions, d)
	})

	for _, qty := range []int64{5, 50} {
		id := uuid.New()
		require.NoError(t, k.Bus().RegisterResponseHandler(id, onDecision))
		k.Bus().Send(bus.MustEndpoint("RiskEngine"), model.OrderRequest{CorrelationID: id, Strategy: "EMA-Cross", Qty: qty})
	}

	require.Len(t, decisions, 2)
	assert.True(t, decisions[0].Accepted)
	assert.False(t, decisions[1].Accepted)
	assert.Equal(t, "qty above limit", decisions[1].Reason)
	assert.Equal(t, 2, engine.seen)

	s := k.Metrics().Snapshot()
	assert.Equal(t, uint64(2), s.Sends)
	assert.Equal(t, uint64(2), s.Responses)
}

func TestDeregisterActor(t *testing.T) {
	k := newTestKernel(t)
	engine := &riskEngine{kernel: k}
	require.NoError(t, k.RegisterActor(engine))

	a, ok := k.DeregisterActor("RiskEngine")
	require.True(t, ok)
	assert.Same(t, engine, a)
	assert.False(t, k.Bus().IsRegistered(bus.MustEndpoint("RiskEngine")))
	assert.False(t, k.Actors().Contains("RiskEngine"))

	k.Bus().Send(bus.MustEndpoint("RiskEngine"), model.OrderRequest{})
	assert.Zero(t, engine.seen)

	_, ok = k.DeregisterActor("RiskEngine")
	assert.False(t, ok)
}

func TestBridgeTopic(t *testing.T) {
	k := newTestKernel(t)
	rx, err := k.Listener().GetStreamReceiver()
	require.NoError(t, err)

	quotes := bus.MustTopic("data.quotes.BINANCE.BTCUSDT")
	k.BridgeTopic(quotes)
	k.BridgeTopic(quotes)
	assert.Equal(t, 1, k.BridgedTopics())
	assert.Equal(t, 1, k.Bus().SubscriptionsCount(quotes))

	k.Bus().Publish(quotes, []byte("raw"))
	k.Bus().Publish(quotes, "text")
	k.Bus().Publish(quotes, quote{Symbol: "BTCUSDT"})
	k.Bus().Publish(bus.MustTopic("data.quotes.BINANCE.ETHUSDT"), "ignored")

	k.UnbridgeTopic(quotes)
	k.Bus().Publish(quotes, "after unbridge")

	require.NoError(t, k.Dispose())
	assert.True(t, k.Listener().IsClosed())

	var payloads []string
	for msg := range bus.Stream(t.Context(), rx) {
		assert.Equal(t, quotes.Value(), msg.Topic)
		payloads = append(payloads, string(msg.Payload))
	}
	assert.Equal(t, []string{"raw", "text", `{"symbol":"BTCUSDT"}`}, payloads)
}

func TestDispose(t *testing.T) {
	k := newTestKernel(t)
	require.NoError(t, k.RegisterActor(&riskEngine{kernel: k}))
	k.BridgeTopic(bus.MustTopic("events.order"))

	require.NoError(t, k.Dispose())
	assert.True(t, k.Actors().IsEmpty())
	assert.Zero(t, k.BridgedTopics())
	assert.False(t, k.Bus().HasSubscribers(bus.MustTopic("events.order")))
	assert.True(t, k.Listener().IsClosed())
}

func TestBridgeConsumerGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	k := newTestKernel(t)
	rx, err := k.Listener().GetStreamReceiver()
	require.NoError(t, err)

	done := make(chan []string)
	go func() {
		var topics []string
		rx.Run(t.Context(), func(msg bus.BusMessage) {
			topics = append(topics, msg.Topic)
		})
		done <- topics
	}()

	orders := bus.MustTopic("events.order")
	fills := bus.MustTopic("events.fill")
	k.BridgeTopic(orders)
	k.BridgeTopic(fills)
	for range 3 {
		k.Bus().Publish(orders, "o")
		k.Bus().Publish(fills, "f")
	}

	require.NoError(t, k.Dispose())
	topics := <-done
	assert.Len(t, topics, 6)
	assert.Equal(t, []string{"events.order", "events.fill"}, topics[:2])
	assert.Equal(t, uint64(6), k.Metrics().Snapshot().ListenerPublishes)
}
