package cmd

import (
	"github.com/betagouv/grist-core/internal/config"
	"github.com/betagouv/grist-core/internal/model"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		Run: func(cmd *cobra.Command, args []string) {
			db, err := config.Load().OpenDB()
			if err != nil {
				panic(err)
			}
			if err := model.Migrate(db); err != nil {
				panic(err)
			}
		},
	}

	return command
}
