package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockgravity/api"
	"stockgravity/app"
	"stockgravity/broker"
	"stockgravity/config"
)

func main() {
	// A bare invocation runs the daemon.
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg := config.LoadFromEnv()

	var err error
	switch cmd {
	case "serve":
		err = runServe(cfg)
	case "pipeline":
		err = runPipeline(cfg, os.Args[2:])
	case "reevaluate":
		err = runReevaluate(cfg)
	case "sync-reports":
		err = runSyncReports(cfg)
	case "cleanup":
		err = runCleanup(cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("❌ %s failed: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: stockgravity [command]

commands:
  serve                        run the dashboard API with scheduled jobs (default)
  pipeline [-top N] [-lookback D]   run one scoring cycle
  reevaluate                   re-evaluate approved entries
  sync-reports                 reconcile report statuses with the pool
  cleanup [-keep-days N]       delete old dropped reports`)
}

// runServe starts the daemon: scheduled jobs, realtime feed, and the API.
func runServe(cfg *config.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	if err := application.StartBackground(); err != nil {
		return err
	}

	simulator := broker.NewSimulator(cfg.TradeBudget)
	server := api.NewServer(
		application.Pool, application.History, application.Reports,
		application.Maint, application.PoolCache, simulator,
		application.Pipeline, application.Reevaluator, application.Generator)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.APIPort)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		application.Shutdown()
		return err
	case sig := <-stop:
		log.Printf("🛑 Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	application.Shutdown()
	return nil
}

func runPipeline(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("pipeline", flag.ExitOnError)
	top := fs.Int("top", app.DefaultPoolSize, "candidates to keep")
	lookback := fs.Int("lookback", app.DefaultLookbackDays, "days of bars to refresh")
	fs.Parse(args)

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	application.Pipeline.SetPoolSize(*top)
	application.Pipeline.SetLookback(*lookback)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	return application.Pipeline.Run(ctx, today())
}

func runReevaluate(cfg *config.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	dropped, err := application.Reevaluator.Run(ctx, today())
	if err != nil {
		return err
	}
	log.Printf("✅ Re-evaluation dropped %d entries", dropped)
	return nil
}

func runSyncReports(cfg *config.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	_, _, _, err = application.Maint.SyncReportStatuses(ctx)
	return err
}

func runCleanup(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	keepDays := fs.Int("keep-days", 30, "days to keep dropped reports")
	fs.Parse(args)

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	deleted, err := application.Maint.CleanupDroppedReports(ctx, *keepDays)
	if err != nil {
		return err
	}
	pruned, err := application.Maint.CleanupMonitoringHistory(ctx, 180)
	if err != nil {
		return err
	}
	log.Printf("✅ Cleanup deleted %d dropped reports, %d old history rows", deleted, pruned)
	return nil
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
