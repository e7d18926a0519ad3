package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sysmon/internal/conf"
	"sysmon/internal/metrics"
	"sysmon/internal/netx"
	"sysmon/internal/term"
	"sysmon/internal/web"

	"github.com/shirou/gopsutil/v4/host"
	"golang.org/x/sync/errgroup"
)

const defaultSysfsRoot = "/sys/class/drm"

func main() {
	var (
		configPath = flag.String("config", "config.toml", "path to the TOML config file")
		webMode    = flag.Bool("web", false, "serve the web dashboard instead of the terminal report")
		listen     = flag.String("listen", "", "HTTP bind address (overrides config)")
		interval   = flag.Int("interval", 0, "sampling period in seconds (overrides config)")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	setupLogging(*logLevel)

	if err := conf.LoadConfig(*configPath); err != nil {
		slog.Warn("config not loaded, using defaults", "path", *configPath, "error", err)
	}
	if *listen != "" {
		conf.SetListen(*listen)
	}
	if *interval > 0 {
		conf.SetRefreshSeconds(*interval)
	}

	if err := run(*webMode); err != nil {
		fmt.Fprintf(os.Stderr, "sysmon: %v\n", err)
		os.Exit(1)
	}
}

func run(webMode bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresh := conf.GetRefreshInterval()

	// Identity probes happen once here; every later cycle carries the
	// results forward.
	cpuSource := metrics.NewHostCPU(ctx)
	memSource := metrics.NewHostMemory()
	intelSource := metrics.NewIntelGPU(ctx, defaultSysfsRoot)
	nvidiaSource := metrics.NewNvidiaGPU()
	defer nvidiaSource.Close()

	agg := &metrics.Aggregator{
		CPU:    cpuSource,
		Memory: memSource,
		Intel:  intelSource,
		Nvidia: nvidiaSource,
	}
	store := metrics.NewStore()
	sched := metrics.NewScheduler(agg, store, refresh)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})

	if webMode {
		g.Go(func() error {
			return serveWeb(gctx, store, pageInfo(ctx, agg))
		})
	} else {
		printer := &term.Printer{Out: os.Stdout, Store: store, Interval: refresh}
		g.Go(func() error {
			// Give the first cycle a moment so the banner has names.
			select {
			case <-time.After(refresh):
			case <-gctx.Done():
				return nil
			}
			return printer.Run(gctx)
		})
	}

	return g.Wait()
}

// pageInfo assembles the static identity for the dashboard page and the
// socket.io system_info event.
func pageInfo(ctx context.Context, agg *metrics.Aggregator) web.PageInfo {
	info := web.PageInfo{
		RefreshSeconds: int(conf.GetRefreshInterval() / time.Second),
	}

	if hostInfo, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = hostInfo.Hostname
	}

	// One throwaway collection surfaces the probed names without a
	// second probing path.
	snap := agg.Collect(ctx)
	info.CPUName = snap.CPU.Name
	info.PhysicalCores = snap.CPU.PhysicalCores
	info.LogicalCores = snap.CPU.LogicalCores
	if snap.Intel != nil {
		info.IntelPresent = true
		info.IntelName = snap.Intel.Name
	}
	if snap.Nvidia != nil {
		info.NvidiaPresent = true
		info.NvidiaName = snap.Nvidia.Name
	}
	return info
}

// serveWeb runs the HTTP dashboard until ctx is cancelled. A failed
// bind is the one fatal startup condition.
func serveWeb(ctx context.Context, store *metrics.Store, info web.PageInfo) error {
	netx.SetupGlobalServer()
	web.SetupMonitorService(store, info)

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", netx.GetHandler())
	web.StartIndex(mux, info)
	web.StartData(mux, store)

	server := &http.Server{
		Addr:    conf.GetListen(),
		Handler: mux,
	}

	slog.Info("serving dashboard", "addr", server.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
