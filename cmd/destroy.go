package cmd

import (
	"context"

	"vmbroker/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	destroyProvider string
	destroyID       string
)

// destroyCmd represents the destroy command
var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Destroy an instance",
	Long: `Destroy an instance by ID. The provider is taken from the ledger when
the instance was created here, or from --provider otherwise. Destroying
an instance that no longer exists succeeds.`,
	Run: func(cmd *cobra.Command, args []string) {
		destroyInstance()
	},
}

func init() {
	rootCmd.AddCommand(destroyCmd)

	destroyCmd.Flags().StringVar(&destroyID, "id", "", "Instance ID (required)")
	destroyCmd.Flags().StringVar(&destroyProvider, "provider", "", "Provider name (defaults to the ledger entry)")
	if err := destroyCmd.MarkFlagRequired("id"); err != nil {
		panic("failed to mark flag as required: " + err.Error())
	}
}

func destroyInstance() {
	ctx := context.Background()
	cfg := loadConfig()
	broker := newBroker(ctx, cfg)
	store := openLedger(cfg)
	defer store.Close()

	providerName := destroyProvider
	if providerName == "" {
		record, ok, err := store.Get(ctx, destroyID)
		if err != nil {
			logging.Logger().Fatal("Failed to read ledger", zap.Error(err))
		}
		if !ok {
			logging.Logger().Fatal("Instance not in ledger, pass --provider explicitly",
				zap.String("instance_id", destroyID))
		}
		providerName = record.Provider
	}

	if err := broker.DestroyInstance(ctx, providerName, destroyID); err != nil {
		logging.Logger().Fatal("Failed to destroy instance",
			zap.String("provider", providerName),
			zap.String("instance_id", destroyID),
			zap.Error(err))
	}

	if err := store.Delete(ctx, destroyID); err != nil {
		logging.Logger().Error("Failed to remove instance from ledger", zap.Error(err))
	}

	logging.Logger().Info("Instance destroyed",
		zap.String("provider", providerName),
		zap.String("instance_id", destroyID))
}
