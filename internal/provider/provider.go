package provider

import "context"

// CreateSpec describes the machine a provider should create. Image and
// Size come from the routing table and use the provider's own vocabulary.
type CreateSpec struct {
	Name         string
	Image        string
	Size         string
	SSHPublicKey string
	UserData     string // optional cloud-init payload
}

// Instance is the uniform view of a machine across providers. Aux carries
// provider-specific state for diagnostics only and is never interpreted
// by the selection or polling logic; by convention Aux["status"] holds
// the provider's own status string.
type Instance struct {
	ID      string            `json:"id" yaml:"id"`
	Address string            `json:"address" yaml:"address"`
	Aux     map[string]string `json:"aux,omitempty" yaml:"aux,omitempty"`
}

// Provider is the capability set every cloud adapter implements.
//
// Create blocks until the machine is reachable (running state plus an
// assigned address) or the adapter's readiness budget is exhausted.
// Destroy succeeds if the resource no longer exists. Describe returns
// ErrInstanceNotFound for unknown IDs.
type Provider interface {
	Create(ctx context.Context, spec CreateSpec) (*Instance, error)
	Destroy(ctx context.Context, instanceID string) error
	Describe(ctx context.Context, instanceID string) (*Instance, error)
}

// ReadyWhen builds the readiness predicate shared by all adapters: the
// provider's own running-status string plus a non-empty address.
func ReadyWhen(status string) func(*Instance) bool {
	return func(in *Instance) bool {
		return in != nil && in.Aux["status"] == status && in.Address != ""
	}
}
