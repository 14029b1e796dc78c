package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"stockgravity/cache"
	"stockgravity/collector"
	"stockgravity/config"
	"stockgravity/database"
	"stockgravity/llm"
	"stockgravity/report"
	"stockgravity/scheduler"
)

// App owns every long-lived component of the service.
type App struct {
	Config *config.Config

	DB    *database.Database
	Maint *database.MaintenanceDB
	Redis *cache.RedisClient

	Pool    *database.PoolRepository
	History *database.HistoryRepository
	Reports *database.ReportRepository

	PoolCache   *cache.PoolCache
	Collector   *collector.NaverClient
	Realtime    *collector.RealtimeFeed
	Pipeline    *Pipeline
	Reevaluator *Reevaluator
	Generator   *report.Generator
	Scheduler   *scheduler.Scheduler
}

// New connects to the backing stores and wires all components.
func New(cfg *config.Config) (*App, error) {
	// 1. Databases
	db, err := database.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := db.AutoMigrate(); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("✅ Database connected and migrated")

	maint, err := database.NewMaintenanceDB(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPassword)
	if err != nil {
		db.Close()
		return nil, err
	}

	// 2. Cache
	redisClient := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	poolCache := cache.NewPoolCache(redisClient, cfg.CacheTTL)

	// 3. Repositories
	pool := database.NewPoolRepository(db)
	history := database.NewHistoryRepository(db)
	reports := database.NewReportRepository(db)

	// 4. Scoring pipeline
	params, err := config.LoadScoringParams(cfg.ScoringFile)
	if err != nil {
		log.Printf("⚠️ Scoring overrides rejected, using defaults: %v", err)
		params = config.DefaultScoringParams()
	}
	naver := collector.NewNaverClient(cfg.CollectorBaseURL, cfg.CollectorDelay)
	pipeline := NewPipeline(params, pool, history, maint, naver, poolCache)

	// 5. Report generation
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	generator := report.NewGenerator(llmClient, reports, history, cfg.ReportInterval)
	if cfg.LLMAPIKey != "" {
		pipeline.SetGenerator(generator)
	} else {
		log.Println("⚠️ LLM_API_KEY not set, pipeline report generation disabled")
	}

	app := &App{
		Config:      cfg,
		DB:          db,
		Maint:       maint,
		Redis:       redisClient,
		Pool:        pool,
		History:     history,
		Reports:     reports,
		PoolCache:   poolCache,
		Collector:   naver,
		Pipeline:    pipeline,
		Reevaluator: NewReevaluator(pool, history, maint),
		Generator:   generator,
		Scheduler:   scheduler.New(),
	}

	if cfg.RealtimeEnabled && cfg.RealtimeURL != "" {
		app.Realtime = collector.NewRealtimeFeed(cfg.RealtimeURL, pool)
	}

	return app, nil
}

// StartBackground registers the scheduled jobs and starts the background
// services. The HTTP server is started separately by the caller.
func (a *App) StartBackground() error {
	jobs := []struct {
		name     string
		schedule string
		run      func()
	}{
		{"pipeline", a.Config.PipelineSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if err := a.Pipeline.Run(ctx, todayDate()); err != nil {
				log.Printf("⚠️ Scheduled pipeline failed: %v", err)
			}
		}},
		{"reevaluate", a.Config.ReevaluateSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if _, err := a.Reevaluator.Run(ctx, todayDate()); err != nil {
				log.Printf("⚠️ Scheduled re-evaluation failed: %v", err)
			}
		}},
		{"sync-reports", a.Config.SyncSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, _, _, err := a.Maint.SyncReportStatuses(ctx); err != nil {
				log.Printf("⚠️ Scheduled report sync failed: %v", err)
			}
		}},
	}
	for _, job := range jobs {
		if err := a.Scheduler.Register(job.name, job.schedule, job.run); err != nil {
			return err
		}
	}
	a.Scheduler.Start()

	if a.Realtime != nil {
		a.Realtime.Start()
	}
	return nil
}

// Shutdown stops background services and closes connections.
func (a *App) Shutdown() {
	done := make(chan struct{})
	go func() {
		if a.Realtime != nil {
			a.Realtime.Stop()
		}
		a.Scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Println("⚠️ Shutdown timed out waiting for background jobs")
	}

	a.Redis.Close()
	a.Maint.Close()
	a.DB.Close()
	log.Println("✅ Shutdown complete")
}

func todayDate() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
