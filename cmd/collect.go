package cmd

import (
	"context"
	"time"

	"github.com/betagouv/grist-core/internal/config"
	"github.com/betagouv/grist-core/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// collectCmd runs a single trash collection pass and exits. Useful for
// operations and for debugging retention behavior.
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "run one trash collection pass",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		db, err := cfg.OpenDB()
		if err != nil {
			logrus.Fatalf("opening database: %v", err)
		}

		keeper := buildHousekeeper(cfg, store.NewGormStore(db))

		ran, err := keeper.RunTrashCollectionExclusively(context.Background(), time.Now())
		if err != nil {
			logrus.Fatalf("trash collection failed: %v", err)
		}
		if !ran {
			logrus.Warn("another replica holds the housekeeping lock, nothing done")
		}
	},
}
