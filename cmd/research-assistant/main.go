package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/bububa/research-assistant/chat"
	"github.com/bububa/research-assistant/config"
	"github.com/bububa/research-assistant/research"
	"github.com/bububa/research-assistant/server"
	"github.com/bububa/research-assistant/server/metrics"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	defaultListenAddr  = "0.0.0.0:8080"
	defaultMetricsAddr = ""
	defaultWorkers     = 4
	historySize        = 100
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", os.Getenv("RESEARCH_CONFIG"), "path to a YAML config file (env: RESEARCH_CONFIG)")
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	standaloneFlag := flag.Bool("standalone", false, "run the interactive research session instead of the MCP server")
	queryFlag := flag.String("query", "", "research a single query, print the report and exit")
	quickFlag := flag.Bool("quick", false, "with --query, skip the AI agents and print the search results")
	transportFlag := flag.String("transport", server.TransportStdio, "MCP transport (stdio, http)")
	listenAddrFlag := flag.String("listen-addr", defaultListenAddr, "HTTP server listen address")
	metricsAddrFlag := flag.String("metrics-addr", defaultMetricsAddr, "Address to listen on for prometheus metrics")
	workersFlag := flag.Int("workers", defaultWorkers, "number of concurrent research calls served")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger(os.Stderr, *verboseFlag || cfg.Verbose)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigCh
		log.Info("server: received signal", "signal", sig.String())
		cancel()
	}()

	researchCfg, err := cfg.ResearchConfig(log)
	if err != nil {
		return fmt.Errorf("failed to build research config: %w", err)
	}
	orchestrator, err := research.NewOrchestrator(researchCfg)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	log.Info("research assistant: configured",
		"version", version,
		"search_backend", cfg.SearchBackend,
		"llm_provider", cfg.LLMProvider,
		"llm_configured", researchCfg.Configured.HasCredential(),
		"local_llm", cfg.LocalLLMEnabled,
	)

	switch {
	case *queryFlag != "":
		if *quickFlag {
			fmt.Println(orchestrator.QuickSearch(ctx, *queryFlag))
		} else {
			fmt.Println(orchestrator.Research(ctx, *queryFlag))
		}
		return nil
	case *standaloneFlag:
		session := chat.NewSession(orchestrator, historySize, log)
		return ignoreCanceled(session.Run(ctx, os.Stdin, os.Stdout))
	}

	metricsServerErrCh := make(chan error, 1)
	if *metricsAddrFlag != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		go func() {
			listener, err := net.Listen("tcp", *metricsAddrFlag)
			if err != nil {
				log.Error("failed to start prometheus metrics server listener", "error", err)
				metricsServerErrCh <- err
				return
			}
			log.Info("prometheus metrics server listening", "address", listener.Addr().String())
			http.Handle("/metrics", promhttp.Handler())
			if err := http.Serve(listener, nil); err != nil {
				log.Error("failed to start prometheus metrics server", "error", err)
				metricsServerErrCh <- err
				return
			}
		}()
	}

	srv, err := server.New(server.Config{
		Logger:     log,
		Researcher: orchestrator,
		Version:    version,
		Transport:  *transportFlag,
		ListenAddr: *listenAddrFlag,
		Workers:    *workersFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("server: shutting down", "reason", ctx.Err())
		return ignoreCanceled(<-serverErrCh)
	case err := <-serverErrCh:
		return err
	case err := <-metricsServerErrCh:
		cancel()
		<-serverErrCh
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				t := a.Value.Time().UTC()
				a.Value = slog.StringValue(formatRFC3339Millis(t))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func formatRFC3339Millis(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	ms := t.Nanosecond() / 1_000_000
	return fmt.Sprintf("%s.%03dZ", base, ms)
}
