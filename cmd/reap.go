package cmd

import (
	"context"
	"time"

	"vmbroker/internal/logging"
	"vmbroker/internal/orchestrator"

	"github.com/alitto/pond/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reapDryRun bool

// reapCmd represents the reap command
var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Destroy expired instances",
	Long: `Destroy every ledger instance whose TTL has elapsed. Expiry is advisory:
nothing destroys a machine until this command is run.`,
	Run: func(cmd *cobra.Command, args []string) {
		reapInstances()
	},
}

func init() {
	rootCmd.AddCommand(reapCmd)

	reapCmd.Flags().BoolVar(&reapDryRun, "dry-run", false, "Only report what would be destroyed")
}

func reapInstances() {
	ctx := context.Background()
	cfg := loadConfig()
	broker := newBroker(ctx, cfg)
	store := openLedger(cfg)
	defer store.Close()

	records, err := store.List(ctx)
	if err != nil {
		logging.Logger().Fatal("Failed to read ledger", zap.Error(err))
	}

	expired := orchestrator.FilterExpired(records, time.Now())
	if len(expired) == 0 {
		logging.Logger().Info("No expired instances")
		return
	}

	if reapDryRun {
		for _, record := range expired {
			logging.Logger().Info("Would destroy expired instance",
				zap.String("provider", record.Provider),
				zap.String("instance_id", record.ID))
		}
		return
	}

	pool := pond.NewPool(4)
	for _, record := range expired {
		pool.Submit(func() {
			if err := broker.DestroyInstance(ctx, record.Provider, record.ID); err != nil {
				logging.Logger().Error("Failed to destroy expired instance",
					zap.String("provider", record.Provider),
					zap.String("instance_id", record.ID),
					zap.Error(err))
				return
			}
			if err := store.Delete(ctx, record.ID); err != nil {
				logging.Logger().Error("Failed to remove instance from ledger",
					zap.String("instance_id", record.ID),
					zap.Error(err))
				return
			}
			logging.Logger().Info("Destroyed expired instance",
				zap.String("provider", record.Provider),
				zap.String("instance_id", record.ID))
		})
	}
	pool.StopAndWait()
}
