package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gravitybench.ai/internal/persistence/episodelog"
	"gravitybench.ai/internal/persistence/indexdb"
	"gravitybench.ai/internal/session"
	"gravitybench.ai/internal/sim/task"
	"gravitybench.ai/internal/sim/tuning"
	"gravitybench.ai/internal/transport/httpapi"
	"gravitybench.ai/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", ":3000", "http listen address")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		disableDB  = flag.Bool("disable_db", false, "disable the episode index (sqlite read-model)")
		idleTTLSec = flag.Int("idle_ttl_sec", 0, "idle session eviction TTL in seconds (0: use tuning)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}

	ttl := tune.IdleTTLSec
	if *idleTTLSec > 0 {
		ttl = *idleTTLSec
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	stepLog := episodelog.NewWriter(filepath.Join(*dataDir, "episodes"), logger)
	defer stepLog.Close()

	// Optional: episode index read-model (does not affect episode determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.Open(filepath.Join(*dataDir, "index.db"), logger)
		if err != nil {
			logger.Fatalf("open episode index: %v", err)
		}
		defer idx.Close()
	}

	obs := observer.NewServer(logger)

	opts := session.Options{
		Log: logger,
		Defaults: session.Defaults{
			Task:         tune.DefaultTask,
			Version:      tune.DefaultVersion,
			Gravity:      tune.Gravity,
			Seed:         tune.Seed,
			MaxSteps:     tune.MaxSteps,
			TicksPerStep: tune.TicksPerStep,
			TimeStep:     tune.TimeStep,
		},
		StepSinks: []session.StepSink{stepLog},
		Broadcast: obs.Publish,
		IdleTTL:   time.Duration(ttl) * time.Second,
	}
	if idx != nil {
		opts.EpisodeSinks = []session.EpisodeSink{idx}
	}
	registry := session.NewRegistry(task.NewRegistry(), opts)
	defer registry.Close()

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	httpapi.NewServer(logger, registry).Register(mux)
	mux.HandleFunc("/v1/observe", obs.Handler())

	started := time.Now()
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP gravitybench_live_sessions Current number of live sessions.\n")
		fmt.Fprintf(rw, "# TYPE gravitybench_live_sessions gauge\n")
		fmt.Fprintf(rw, "gravitybench_live_sessions %d\n", registry.Count())

		fmt.Fprintf(rw, "# HELP gravitybench_uptime_seconds Seconds since service start.\n")
		fmt.Fprintf(rw, "# TYPE gravitybench_uptime_seconds gauge\n")
		fmt.Fprintf(rw, "gravitybench_uptime_seconds %d\n", int64(time.Since(started).Seconds()))

		if idx != nil {
			fmt.Fprintf(rw, "# HELP gravitybench_index_dropped_total Episode records dropped under index backpressure.\n")
			fmt.Fprintf(rw, "# TYPE gravitybench_index_dropped_total counter\n")
			fmt.Fprintf(rw, "gravitybench_index_dropped_total %d\n", idx.Dropped())
		}
	})

	if envBool("GB_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (GB_ENABLE_PPROF_HTTP=false)")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s default_task=%s/%s idle_ttl=%ds", *addr, tune.DefaultTask, tune.DefaultVersion, ttl)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
