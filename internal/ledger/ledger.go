// Package ledger tracks the instances this CLI created. The broker core
// is stateless by contract; the ledger lives entirely on the caller's
// side of that line.
package ledger

import (
	"context"
	"fmt"

	"vmbroker/internal/config"
	"vmbroker/internal/orchestrator"
)

// Store persists instance records between CLI invocations.
type Store interface {
	Put(ctx context.Context, record orchestrator.Record) error
	Get(ctx context.Context, instanceID string) (orchestrator.Record, bool, error)
	Delete(ctx context.Context, instanceID string) error
	List(ctx context.Context) ([]orchestrator.Record, error)
	Close() error
}

// Open constructs the configured ledger backend.
func Open(cfg config.LedgerConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "etcd":
		return NewEtcdStore(cfg.EtcdEndpoints)
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.Backend)
	}
}
