package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/database"
	"github.com/CMSgov/scrub-app/scrub/health"
	"github.com/CMSgov/scrub-app/scrub/lookup/eligibility"
	"github.com/CMSgov/scrub-app/scrub/metrics"
	"github.com/CMSgov/scrub-app/scrub/models/postgres"
	"github.com/CMSgov/scrub-app/scrub/service"
	"github.com/CMSgov/scrub-app/scrub/utils"
	"github.com/CMSgov/scrub-app/scrubworker/queueing"
)

func main() {
	fmt.Println("Starting scrubworker...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx); err != nil {
		log.Worker.Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	dbCfg, err := database.LoadConfig()
	if err != nil {
		return err
	}
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svcCfg, err := service.LoadConfig()
	if err != nil {
		return err
	}
	cat, err := service.LoadCatalog(svcCfg)
	if err != nil {
		return err
	}

	eligibilityCfg, err := eligibility.LoadConfig()
	if err != nil {
		return err
	}
	eligibilitySvc, err := eligibility.NewService(eligibilityCfg)
	if err != nil {
		return err
	}

	repository := postgres.NewRepository(db)
	svc := service.NewService(svcCfg, cat, service.Options{
		Repository:  repository,
		Eligibility: eligibilitySvc,
	})
	if err := svc.SyncRuleSettings(ctx); err != nil {
		return err
	}
	if svcCfg.WatchCatalog {
		go func() {
			if err := cat.Watch(ctx, svcCfg.CatalogPath); err != nil {
				log.Worker.Errorf("Catalog watch stopped: %s", err)
			}
		}()
	}

	workers := utils.GetEnvInt("WORKER_POOL_SIZE", 2)
	pool, err := queueing.NewQueuePool(dbCfg.QueueDatabaseURL, workers+1)
	if err != nil {
		return err
	}
	timer := metrics.GetTimer()
	defer timer.Close()
	q := queueing.StartQue(metrics.NewContext(ctx, timer), log.Worker, pool, svc, repository, workers)
	defer q.StopQue()

	var pinger health.Pinger
	if p, ok := eligibilitySvc.(health.Pinger); ok {
		pinger = p
	}
	if hInt := utils.GetEnvInt("WORKER_HEALTH_INT_SEC", 0); hInt > 0 {
		go logHealth(ctx, NewHealthLogger(health.NewHealthChecker(db, pinger)), time.Duration(hInt)*time.Second)
	}

	<-ctx.Done()
	fmt.Println("Stopping scrubworker...")
	return nil
}

func logHealth(ctx context.Context, l *HealthLogger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Log(ctx)
		case <-ctx.Done():
			return
		}
	}
}
