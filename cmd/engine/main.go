package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matchengine/domain"
	"matchengine/engine"
	"matchengine/id"
	"matchengine/infra/journal"
	"matchengine/infra/metrics"
)

func main() {
	var (
		journalDir  = flag.String("journal-dir", "./data/journal", "directory for the append-only event journal")
		outboxDir   = flag.String("outbox-dir", "./data/outbox", "directory for the pebble-backed delivery outbox")
		kafkaBroker = flag.String("kafka-brokers", "", "comma-separated Kafka broker addresses; forwarder disabled if empty")
		kafkaTopic  = flag.String("kafka-topic", "matchengine.events", "Kafka topic events are forwarded to")
		metricsAddr = flag.String("metrics-addr", ":9090", "address the Prometheus /metrics endpoint listens on")
		scale       = flag.Int("scale", 8, "fixed-point scale for order price/quantity")
		quoteScale  = flag.Int("quote-scale", 8, "fixed-point scale for computed trade quote amounts")
		instruments = flag.String("instruments", "", "comma-separated instrument ids to register at startup (required; §4.6 construction-time allowlist)")
	)
	flag.Parse()

	if *instruments == "" {
		log.Fatal("-instruments is required: the manager only routes to instruments registered at construction")
	}
	instrumentIDs := make([]id.InstrumentID, 0)
	for _, s := range strings.Split(*instruments, ",") {
		instrumentID, err := id.ParseInstrumentID(strings.TrimSpace(s))
		if err != nil {
			log.Fatalf("invalid -instruments entry %q: %v", s, err)
		}
		instrumentIDs = append(instrumentIDs, instrumentID)
	}

	j, err := journal.Open(journal.Config{Dir: *journalDir, SegmentSize: 64 << 20})
	if err != nil {
		log.Fatalf("journal init failed: %v", err)
	}
	defer j.Close()

	outbox, err := journal.OpenOutbox(*outboxDir)
	if err != nil {
		log.Fatalf("outbox init failed: %v", err)
	}
	defer outbox.Close()

	m := metrics.New()
	reg := prometheus.NewRegistry()
	m.MustRegister(reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := engine.NewManager(ctx, engine.Config{
		Instruments: instrumentIDs,
		Scale:       int32(*scale),
		QuoteScale:  int32(*quoteScale),
		QueueDepth:  engine.DefaultQueueDepth,
		OnWorkerCreated: func(w *engine.Worker) {
			w.SetMetrics(m)
			_, events := w.Bus().Subscribe(0)
			go persistEvents(w.InstrumentID, events, j, outbox)
		},
	})

	if *kafkaBroker != "" {
		forwarder, err := journal.NewKafkaForwarder(outbox, strings.Split(*kafkaBroker, ","), *kafkaTopic)
		if err != nil {
			log.Fatalf("kafka forwarder init failed: %v", err)
		}
		defer forwarder.Close()
		go forwarder.Run(ctx)
	}

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: *metricsAddr}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	log.Printf("matchengine running, metrics on %s", *metricsAddr)

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	mgr.Stop()
}

// persistEvents drains one instrument's Event Bus, appending every event
// to the journal and queueing it in the delivery outbox for the Kafka
// forwarder. Runs for the lifetime of the worker's bus subscription.
func persistEvents(instrumentID id.InstrumentID, events <-chan *domain.Event, j *journal.Journal, outbox *journal.Outbox) {
	for ev := range events {
		if ev.Kind == domain.EventSubscriberLagged {
			log.Printf("engine: instrument %s event bus lagged, journal may have gaps", instrumentID)
			continue
		}
		if err := j.Append(ev); err != nil {
			log.Printf("engine: journal append failed for instrument %s: %v", instrumentID, err)
			continue
		}
		payload, err := journal.Encode(ev)
		if err != nil {
			log.Printf("engine: event encode failed for instrument %s: %v", instrumentID, err)
			continue
		}
		if err := outbox.PutPending(instrumentID, ev.Sequence, payload); err != nil {
			log.Printf("engine: outbox enqueue failed for instrument %s: %v", instrumentID, err)
		}
	}
}
