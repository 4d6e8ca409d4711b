package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"vmbroker/internal/logging"
	"vmbroker/internal/orchestrator"
	"vmbroker/internal/sshkey"

	"github.com/alitto/pond/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	createImageType    string
	createPrefer       string
	createCount        int
	createUserDataFile string
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create one or more instances",
	Long: `Resolve the image type against the routing table, create the machine
through the selected provider and wait until it is reachable. Created
instances are recorded in the ledger.`,
	Run: func(cmd *cobra.Command, args []string) {
		createInstances()
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVarP(&createImageType, "image-type", "t", "", "Logical image type (required)")
	createCmd.Flags().StringVarP(&createPrefer, "prefer", "p", "", "Preferred provider")
	createCmd.Flags().IntVarP(&createCount, "count", "n", 1, "Number of instances to create")
	createCmd.Flags().StringVar(&createUserDataFile, "user-data", "", "Path to a cloud-init payload file")
	if err := createCmd.MarkFlagRequired("image-type"); err != nil {
		panic(fmt.Sprintf("failed to mark flag as required: %v", err))
	}
}

func createInstances() {
	if createCount < 1 {
		logging.Logger().Fatal("Count must be at least 1")
	}

	ctx := context.Background()
	cfg := loadConfig()
	broker := newBroker(ctx, cfg)
	store := openLedger(cfg)
	defer store.Close()

	keyPair, err := sshkey.GetOrCreate(cfg.SSHKeyDir)
	if err != nil {
		logging.Logger().Fatal("Failed to prepare SSH keys", zap.Error(err))
	}

	userData := ""
	if createUserDataFile != "" {
		content, err := os.ReadFile(createUserDataFile)
		if err != nil {
			logging.Logger().Fatal("Failed to read user-data file", zap.Error(err))
		}
		userData = string(content)
	}

	var (
		mu      sync.Mutex
		records []orchestrator.Record
		failed  int
	)

	pool := pond.NewPool(createCount)
	for i := 0; i < createCount; i++ {
		pool.Submit(func() {
			record, err := broker.CreateInstance(ctx, orchestrator.CreateRequest{
				ImageType:         createImageType,
				SSHPublicKey:      keyPair.PublicKey,
				UserData:          userData,
				PreferredProvider: createPrefer,
			})
			if err != nil {
				logging.Logger().Error("Failed to create instance",
					zap.String("image_type", createImageType),
					zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			if err := store.Put(ctx, *record); err != nil {
				logging.Logger().Error("Failed to record instance in ledger",
					zap.String("instance_id", record.ID),
					zap.Error(err))
			}

			mu.Lock()
			records = append(records, *record)
			mu.Unlock()
		})
	}
	pool.StopAndWait()

	if len(records) > 0 {
		out, err := yaml.Marshal(records)
		if err != nil {
			logging.Logger().Fatal("Failed to render records", zap.Error(err))
		}
		fmt.Print(string(out))
	}
	if failed > 0 {
		logging.Logger().Fatal("Some instances failed to create", zap.Int("failed", failed))
	}
}
