// Command mumblelink samples MumbleLink regions and serves their state over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/bytebufferpool"

	"github.com/srediag/mumblelink/internal/config"
	"github.com/srediag/mumblelink/internal/health"
	"github.com/srediag/mumblelink/internal/lifecycle"
	"github.com/srediag/mumblelink/internal/logging"
	"github.com/srediag/mumblelink/internal/sampler"
	"github.com/srediag/mumblelink/pkg/mumble"
)

var logger = logging.New("mumblelink", os.Stderr)

func main() {
	fs := flag.NewFlagSet("mumblelink", flag.ExitOnError)
	cfg, err := config.ParseConfig(fs, os.Args[1:])
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(2)
	}
	if err := config.Verify(cfg); err != nil {
		logger.Errorf("config: %v", err)
		fs.Usage()
		os.Exit(2)
	}
	if cfg.Dump != "" {
		mumble.DebugLinkDetail(cfg.Dump)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, cfg, os.Stdout); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, out io.Writer) error {
	ro := lifecycle.DefaultRetryOptions()
	ro.Attempts = cfg.OpenRetries
	ro.Logger = logger
	links, err := lifecycle.OpenAll(ctx, cfg.Names, mumble.OpenOptions{}, ro)
	if err != nil {
		return err
	}
	defer func() {
		if err := links.Close(); err != nil {
			logger.Warnf("close links: %v", err)
		}
	}()
	if links.Len() == 0 {
		logger.Infof("every link is disabled")
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := sampler.NewMetrics(reg)
	if err != nil {
		return err
	}

	sources := make(map[string]sampler.Source, links.Len())
	for _, name := range links.Names() {
		link, _ := links.Get(name)
		sources[name] = link
	}
	var events *sampler.EventQueue
	if cfg.Print {
		events = sampler.NewEventQueue(0)
	}
	s, err := sampler.New(sources, sampler.Options{
		Workers:  cfg.Workers,
		Interval: cfg.Interval,
		Metrics:  metrics,
		Events:   events,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	if events != nil {
		go printEvents(events, out)
	}
	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           newMux(cfg, reg, s),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Infof("serving on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("http: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warnf("http shutdown: %v", err)
			}
		}()
	}
	return s.Run(ctx)
}

func newMux(cfg config.Config, reg *prometheus.Registry, s *sampler.Sampler) *http.ServeMux {
	checks := health.NewHandler(health.Options{
		Links:      s.Names(),
		Store:      s.Store(),
		StaleAfter: cfg.StaleAfter,
		Registerer: reg,
	})
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/live", checks.LiveEndpoint)
	mux.HandleFunc("/ready", checks.ReadyEndpoint)
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		serveSnapshot(w, r, s.Store())
	})
	return mux
}

func serveSnapshot(w http.ResponseWriter, r *http.Request, store *sampler.Store) {
	var body interface{}
	if name := r.URL.Query().Get("link"); name != "" {
		sample, ok := store.Latest(name)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown link %q", name), http.StatusNotFound)
			return
		}
		body = sampler.NewView(sample)
	} else {
		samples := store.All()
		views := make([]sampler.View, 0, len(samples))
		for _, sample := range samples {
			views = append(views, sampler.NewView(sample))
		}
		body = views
	}
	writeJSON(w, body)
}

// writeJSON encodes body in full before writing any of it.
func writeJSON(w http.ResponseWriter, body interface{}) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		logger.Warnf("encode snapshot: %v", err)
		http.Error(w, fmt.Sprintf("encode snapshot: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warnf("write snapshot: %v", err)
	}
}

func printEvents(events *sampler.EventQueue, out io.Writer) {
	for {
		batch, err := events.Get(64)
		if err != nil {
			if !errors.Is(err, sampler.ErrQueueClosed) {
				logger.Warnf("events: %v", err)
			}
			return
		}
		for _, e := range batch {
			if err := sampler.WriteEvent(out, e); err != nil {
				logger.Warnf("print event: %v", err)
			}
		}
	}
}
