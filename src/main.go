package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"elevdispatch/src/config"
	"elevdispatch/src/console"
	"elevdispatch/src/controller"
	"elevdispatch/src/logging"
	"elevdispatch/src/metrics"
	"elevdispatch/src/types"
)

type options struct {
	configPath   string
	logVerbosity int
	scriptPath   string
	demo         bool
	metricsAddr  string
}

func (opts *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&opts.configPath, "config", opts.configPath,
		"Path to a YAML file overriding the default building and timing configuration.")
	fs.IntVarP(&opts.logVerbosity, "v", "v", opts.logVerbosity,
		"Number for the log level verbosity.")
	fs.StringVar(&opts.scriptPath, "script", opts.scriptPath,
		"File with one console command per line. Commands are read from stdin when empty.")
	fs.BoolVar(&opts.demo, "demo", opts.demo,
		"Replay the built-in demo: two passenger batches followed by a service batch.")
	fs.StringVar(&opts.metricsAddr, "metrics-bind-address", opts.metricsAddr,
		"Address to serve Prometheus metrics on, for example :9090. Disabled when empty.")
}

func main() {
	opts := &options{logVerbosity: logging.DEFAULT}
	opts.addFlags(pflag.CommandLine)
	pflag.Parse()

	logger := logging.NewLogger(opts.logVerbosity, os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error(err, "Exiting")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, logger logr.Logger) error {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}
	logger.V(logging.VERBOSE).Info("Configuration loaded", "config", cfg)

	metrics.Register(prometheus.DefaultRegisterer)
	ctrl, err := controller.New(
		controller.NewFactory(cfg, controller.WithFactoryLogger(logger)),
		controller.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	in, closeInput, err := openInput(opts)
	if err != nil {
		return err
	}
	defer closeInput()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		ctrl.Monitor(gctx, func(e types.Event) {
			logger.V(logging.TRACE).Info("Unit event", "kind", e.Kind.String(), "type", e.Type, "floor", e.Floor, "request", e.RequestID)
		})
		return nil
	})
	// SIGUSR1 is the emergency button; it also works while a batch is running.
	g.Go(func() error {
		emergencyCh := make(chan os.Signal, 1)
		signal.Notify(emergencyCh, syscall.SIGUSR1)
		defer signal.Stop(emergencyCh)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-emergencyCh:
				dropped := ctrl.TriggerEmergency()
				fmt.Fprintf(os.Stdout, "emergency: dropped %d pending requests\n", dropped)
			}
		}
	})
	if opts.metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, opts.metricsAddr, logger)
		})
	}
	g.Go(func() error {
		defer cancel()
		interp := console.NewInterpreter(ctrl, cfg, os.Stdout, logger)
		if in == os.Stdin {
			fmt.Fprintln(os.Stdout, console.Usage())
		}
		err := interp.Run(gctx, in)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}

func openInput(opts *options) (io.Reader, func(), error) {
	switch {
	case opts.demo:
		return strings.NewReader(console.DemoScript), func() {}, nil
	case opts.scriptPath != "":
		f, err := os.Open(opts.scriptPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open script: %w", err)
		}
		return f, func() { f.Close() }, nil
	}
	return os.Stdin, func() {}, nil
}

func serveMetrics(ctx context.Context, addr string, logger logr.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(err, "Metrics server shutdown")
		}
	}()

	logger.Info("Serving metrics", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
