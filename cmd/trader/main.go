package main

import (
	"context"
	"flag"
	"log"
	"sync"

	"anttrader/internal/bus"
	"anttrader/internal/core"
	"anttrader/internal/model"
	"anttrader/internal/obs"
	"anttrader/internal/ops"

	"github.com/google/uuid"
	"github.com/grafana/pyroscope-go"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

const (
	riskEngineID      = "RiskEngine"
	quotePattern      = "data.quotes.*"
	riskDecisionTopic = "events.risk.decision"
)

var sampleQuotes = []string{
	`{"symbol":"BTCUSDT","bid":"64000.5","ask":"64001.0","ts_event":1}`,
	`{"symbol":"ETHUSDT","bid":"3100.25","ask":"3100.50","ts_event":2}`,
	`{"symbol":"BTCUSDT","bid":"64002.0","ask":"64002.5","ts_event":3}`,
}

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	orderQty := flag.Int64("order-qty", 1, "Quantity requested for each quote")
	maxQty := flag.Int64("max-qty", 5, "Risk engine quantity limit")
	wait := flag.Bool("wait", false, "Keep running until a shutdown signal after replaying quotes")
	flag.Parse()

	if err := serve(context.Background(), *configPath, *orderQty, *maxQty, *wait); err != nil {
		log.Fatalf("trader failed: %+v", err)
	}
}

// serve owns every deferred cleanup so that main exits only after they ran.
func serve(ctx context.Context, configPath string, orderQty, maxQty int64, wait bool) error {
	loaded, err := ops.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if loaded.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: loaded.Profiling.ApplicationName,
			ServerAddress:   loaded.Profiling.ServerAddress,
			Tags:            map[string]string{"trader_id": loaded.TraderID.String()},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return errors.Wrap(err, "start pyroscope")
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				logs.Errorf("stop pyroscope, err: %+v", err)
			}
		}()
	}

	return run(ctx, loaded, orderQty, maxQty, wait)
}

func run(ctx context.Context, loaded ops.Loaded, orderQty, maxQty int64, wait bool) error {
	metrics := obs.NewMetrics()
	kernel, err := core.NewKernel(core.Config{
		TraderID:  loaded.TraderID,
		BusName:   loaded.BusName,
		BusConfig: loaded.BusConfig,
		Metrics:   metrics,
	})
	if err != nil {
		return err
	}
	if err := bus.Install(kernel.Bus()); err != nil {
		return err
	}

	risk := &riskEngine{kernel: kernel, maxQty: maxQty}
	if err := kernel.RegisterActor(risk); err != nil {
		return err
	}

	strat := newStrategy("EMA-Cross", kernel, orderQty)
	if err := kernel.RegisterActor(strat); err != nil {
		return err
	}
	kernel.Bus().Subscribe(bus.NewPattern(quotePattern), bus.NewAnyHandler(strat.ID()+".quotes", strat.Handle), 0)

	kernel.BridgeTopic(bus.MustTopic(riskDecisionTopic))
	for _, topic := range loaded.BridgeTopics {
		kernel.BridgeTopic(topic)
	}

	rx, err := kernel.Listener().GetStreamReceiver()
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range bus.Stream(ctx, rx) {
			logs.Infof("bridged %s", msg)
		}
	}()

	replayQuotes(kernel.Bus(), sampleQuotes)

	if wait {
		logs.Info("waiting for shutdown signal")
		<-sys.Shutdown()
	}

	if err := kernel.Dispose(); err != nil {
		return err
	}
	wg.Wait()

	s := metrics.Snapshot()
	logs.Infof("accepted=%d rejected=%d publishes=%d deliveries=%d sends=%d responses=%d bridged=%d avg_dispatch=%s",
		strat.accepted, strat.rejected, s.Publishes, s.Deliveries, s.Sends, s.Responses, s.ListenerPublishes, s.DispatchLatency.Avg)
	return nil
}

// replayQuotes decodes raw JSON quotes and publishes each one on
// "data.quotes.<symbol>". Quotes that fail to decode or whose symbol is not a
// valid topic segment are logged and skipped. It returns how many were published.
func replayQuotes(b *bus.MessageBus, raws []string) int {
	published := 0
	for _, raw := range raws {
		q, err := model.DecodeQuote([]byte(raw))
		if err != nil {
			logs.Errorf("decode quote, err: %+v", err)
			continue
		}

		topic, err := bus.NewTopic("data.quotes." + q.Symbol)
		if err != nil {
			logs.Errorf("skip quote, err: %+v", err)
			continue
		}

		b.Publish(topic, q)
		published++
	}
	return published
}

type riskEngine struct {
	kernel *core.Kernel
	maxQty int64
}

func (r *riskEngine) ID() string {
	return riskEngineID
}

func (r *riskEngine) Handle(message any) {
	req, ok := message.(model.OrderRequest)
	if !ok {
		logs.Warnf("%s: unexpected message %T", riskEngineID, message)
		return
	}

	decision := model.RiskDecision{CorrelationID: req.CorrelationID, Accepted: req.Qty <= r.maxQty}
	if !decision.Accepted {
		decision.Reason = "qty above limit"
	}
	r.kernel.Bus().SendResponse(req.CorrelationID, decision)
}

type strategy struct {
	id        model.ComponentID
	kernel    *core.Kernel
	qty       int64
	decisions bus.Handler
	accepted  int
	rejected  int
}

func newStrategy(id model.ComponentID, kernel *core.Kernel, qty int64) *strategy {
	s := &strategy{id: id, kernel: kernel, qty: qty}
	s.decisions = bus.NewTypedHandler(id.String()+".decisions", s.onDecision)
	return s
}

func (s *strategy) ID() string {
	return s.id.String()
}

func (s *strategy) Handle(message any) {
	q, ok := message.(model.Quote)
	if !ok {
		return
	}

	correlationID := uuid.New()
	if err := s.kernel.Bus().RegisterResponseHandler(correlationID, s.decisions); err != nil {
		logs.Errorf("register response handler, err: %+v", err)
		return
	}

	s.kernel.Bus().Send(bus.MustEndpoint(riskEngineID), model.OrderRequest{
		CorrelationID: correlationID,
		Strategy:      s.id,
		Symbol:        q.Symbol,
		Qty:           s.qty,
		Price:         q.Ask,
	})
}

func (s *strategy) onDecision(d model.RiskDecision) {
	if d.Accepted {
		s.accepted++
	} else {
		s.rejected++
	}
	s.kernel.Bus().Publish(bus.MustTopic(riskDecisionTopic), d)
}
