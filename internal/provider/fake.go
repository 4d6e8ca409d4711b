package provider

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeReadyStatus is the status a Fake instance reports once ready.
const FakeReadyStatus = "running"

// Fake is an in-memory provider for tests. Describe walks Script one
// entry per call (the last entry repeats); the address is assigned only
// once the scripted status reaches FakeReadyStatus, so readiness polling
// behaves like a real control plane warming up.
type Fake struct {
	Name   string
	Script []string
	Poll   PollConfig

	CreateErr   error
	DestroyErr  error
	DescribeErr error

	mu            sync.Mutex
	seq           int
	instances     map[string]CreateSpec
	describeCalls int
	destroyed     []string
}

// NewFake returns a Fake whose instances are ready on the first describe.
func NewFake(name string) *Fake {
	return &Fake{
		Name:      name,
		Script:    []string{FakeReadyStatus},
		Poll:      PollConfig{Attempts: 5, Interval: time.Millisecond},
		instances: make(map[string]CreateSpec),
	}
}

func (f *Fake) Create(ctx context.Context, spec CreateSpec) (*Instance, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	f.mu.Lock()
	f.seq++
	id := fmt.Sprintf("%s-%d", f.Name, f.seq)
	f.instances[id] = spec
	f.mu.Unlock()

	return AwaitReady(ctx, id, f.Poll, func(ctx context.Context) (*Instance, error) {
		return f.Describe(ctx, id)
	}, ReadyWhen(FakeReadyStatus))
}

func (f *Fake) Destroy(ctx context.Context, instanceID string) error {
	if f.DestroyErr != nil {
		return f.DestroyErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// Destroying an unknown instance is a no-op, like the real adapters.
	delete(f.instances, instanceID)
	f.destroyed = append(f.destroyed, instanceID)
	return nil
}

func (f *Fake) Describe(ctx context.Context, instanceID string) (*Instance, error) {
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.instances[instanceID]; !ok {
		return nil, ErrInstanceNotFound
	}

	status := FakeReadyStatus
	if len(f.Script) > 0 {
		i := f.describeCalls
		if i >= len(f.Script) {
			i = len(f.Script) - 1
		}
		status = f.Script[i]
	}
	f.describeCalls++

	address := ""
	if status == FakeReadyStatus {
		address = fmt.Sprintf("192.0.2.%d", f.seq)
	}
	return &Instance{
		ID:      instanceID,
		Address: address,
		Aux:     map[string]string{"status": status, "provider": f.Name},
	}, nil
}

// DescribeCalls reports how many describe invocations were made.
func (f *Fake) DescribeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.describeCalls
}

// Destroyed returns the IDs passed to Destroy, in order.
func (f *Fake) Destroyed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.destroyed...)
}

// CreatedSpecs returns the specs of all created instances keyed by ID.
func (f *Fake) CreatedSpecs() map[string]CreateSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	specs := make(map[string]CreateSpec, len(f.instances))
	for id, spec := range f.instances {
		specs[id] = spec
	}
	return specs
}
