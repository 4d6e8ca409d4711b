package cmd

import (
	"context"
	"fmt"
	"time"

	"vmbroker/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List instances tracked in the ledger",
	Run: func(cmd *cobra.Command, args []string) {
		listInstances()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listInstances() {
	ctx := context.Background()
	cfg := loadConfig()
	store := openLedger(cfg)
	defer store.Close()

	records, err := store.List(ctx)
	if err != nil {
		logging.Logger().Fatal("Failed to read ledger", zap.Error(err))
	}
	if len(records) == 0 {
		fmt.Println("No instances tracked.")
		return
	}

	now := time.Now()
	for _, record := range records {
		state := "active"
		if record.IsExpired(now) {
			state = "expired"
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\tttl %ds (%ds left)\n",
			record.ID,
			record.Provider,
			record.ImageType,
			record.Address,
			state,
			record.TTL,
			record.TimeToExpiry(now))
	}
}
