package cmd

import (
	"context"
	"fmt"
	"strings"

	"vmbroker/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var catalogImageType string

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show image types, candidates and registered providers",
	Run: func(cmd *cobra.Command, args []string) {
		showCatalog()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringVarP(&catalogImageType, "image-type", "t", "", "Show candidates for one image type only")
}

func showCatalog() {
	ctx := context.Background()
	cfg := loadConfig()
	broker := newBroker(ctx, cfg)

	fmt.Printf("Providers: %s\n", strings.Join(broker.Providers(), ", "))

	imageTypes := broker.ImageTypes()
	if catalogImageType != "" {
		imageTypes = []string{catalogImageType}
	}

	for _, imageType := range imageTypes {
		candidates, err := broker.Candidates(imageType)
		if err != nil {
			logging.Logger().Fatal("Failed to resolve image type", zap.Error(err))
		}
		fmt.Printf("%s:\n", imageType)
		for _, c := range candidates {
			fmt.Printf("  priority %d: %s image=%s size=%s ttl=%ds\n",
				c.Priority, c.Provider, c.Image, c.Size, c.TTL)
		}
	}
}
