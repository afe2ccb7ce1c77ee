package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/betagouv/grist-core/internal/config"
	"github.com/betagouv/grist-core/internal/housekeeping"
	"github.com/betagouv/grist-core/internal/jobs"
	"github.com/betagouv/grist-core/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the housekeeping service",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		db, err := cfg.OpenDB()
		if err != nil {
			logrus.Fatalf("opening database: %v", err)
		}

		resources := store.NewGormStore(db)
		if err := resources.Migrate(); err != nil {
			logrus.Fatalf("migrating database: %v", err)
		}

		keeper := buildHousekeeper(cfg, resources)

		executor := jobs.NewTaskExecutor([]jobs.Job{
			jobs.NewTrashCollectJob(keeper, cfg.TrashSchedule),
			jobs.NewCacheCleanupJob(keeper, cfg.CacheCleanupSchedule()),
		})
		executor.Run()
		defer executor.Stop()

		logrus.Info("housekeeping service started")

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		logrus.Info("housekeeping service stopping")
	},
}

func buildHousekeeper(cfg *config.Config, resources store.Store) *housekeeping.Housekeeper {
	gate := housekeeping.NewRedisGate(cfg.Redis(), cfg.LockLease)

	collector := housekeeping.NewTrashCollector(resources, cfg.DataDir, housekeeping.Retention{
		WorkspaceDays: cfg.WorkspaceRetentionDays,
		DocumentDays:  cfg.DocumentRetentionDays,
		ForkDays:      cfg.ForkRetentionDays,
	})

	index := housekeeping.NewCacheIndex()
	evictor := housekeeping.NewCacheEvictor(index, cfg.CacheDir, cfg.CacheGracePeriod)

	return housekeeping.NewHousekeeper(gate, collector, evictor)
}
