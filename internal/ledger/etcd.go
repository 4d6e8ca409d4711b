package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vmbroker/internal/orchestrator"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const etcdPrefix = "/vmbroker/instances/"

// EtcdStore keeps records in etcd, for callers sharing a ledger across
// hosts.
type EtcdStore struct {
	client *clientv3.Client
}

// NewEtcdStore connects to the given etcd endpoints.
func NewEtcdStore(endpoints []string) (*EtcdStore, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return &EtcdStore{client: client}, nil
}

func (s *EtcdStore) Put(ctx context.Context, record orchestrator.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := s.client.Put(ctx, etcdPrefix+record.ID, string(data)); err != nil {
		return fmt.Errorf("failed to save record to etcd: %w", err)
	}
	return nil
}

func (s *EtcdStore) Get(ctx context.Context, instanceID string) (orchestrator.Record, bool, error) {
	resp, err := s.client.Get(ctx, etcdPrefix+instanceID)
	if err != nil {
		return orchestrator.Record{}, false, fmt.Errorf("failed to get record from etcd: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return orchestrator.Record{}, false, nil
	}

	var record orchestrator.Record
	if err := json.Unmarshal(resp.Kvs[0].Value, &record); err != nil {
		return orchestrator.Record{}, false, fmt.Errorf("failed to parse record: %w", err)
	}
	return record, true, nil
}

func (s *EtcdStore) Delete(ctx context.Context, instanceID string) error {
	if _, err := s.client.Delete(ctx, etcdPrefix+instanceID); err != nil {
		return fmt.Errorf("failed to delete record from etcd: %w", err)
	}
	return nil
}

func (s *EtcdStore) List(ctx context.Context) ([]orchestrator.Record, error) {
	resp, err := s.client.Get(ctx, etcdPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list records from etcd: %w", err)
	}

	records := make([]orchestrator.Record, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var record orchestrator.Record
		if err := json.Unmarshal(kv.Value, &record); err != nil {
			return nil, fmt.Errorf("failed to parse record %s: %w", kv.Key, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *EtcdStore) Close() error {
	return s.client.Close()
}
