package cmd

import (
	"context"
	"fmt"

	"vmbroker/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	getProvider string
	getID       string
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Describe an instance",
	Run: func(cmd *cobra.Command, args []string) {
		getInstance()
	},
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVar(&getID, "id", "", "Instance ID (required)")
	getCmd.Flags().StringVar(&getProvider, "provider", "", "Provider name (required)")
	if err := getCmd.MarkFlagRequired("id"); err != nil {
		panic("failed to mark flag as required: " + err.Error())
	}
	if err := getCmd.MarkFlagRequired("provider"); err != nil {
		panic("failed to mark flag as required: " + err.Error())
	}
}

func getInstance() {
	ctx := context.Background()
	cfg := loadConfig()
	broker := newBroker(ctx, cfg)

	instance, err := broker.GetInstance(ctx, getProvider, getID)
	if err != nil {
		logging.Logger().Fatal("Failed to get instance",
			zap.String("provider", getProvider),
			zap.String("instance_id", getID),
			zap.Error(err))
	}

	out, err := yaml.Marshal(instance)
	if err != nil {
		logging.Logger().Fatal("Failed to render instance", zap.Error(err))
	}
	fmt.Print(string(out))
}
