package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"vmbroker/internal/logging"
	"vmbroker/internal/provider"
	"vmbroker/internal/routing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProviderUnavailableError is returned when a caller references a
// provider name absent from the registry.
type ProviderUnavailableError struct {
	Provider string
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider not registered: %s", e.Provider)
}

// Orchestrator is the stateless broker core: a read-only provider
// registry plus a read-only routing table. It keeps no record of the
// machines it creates; tracking and cleanup belong to the caller.
// Concurrent CreateInstance calls are independent, there is no shared
// mutable state between them.
type Orchestrator struct {
	providers  map[string]provider.Provider
	registered map[string]bool
	routes     routing.Table
}

// New builds an orchestrator over an already-constructed registry and
// routing table. Neither is mutated afterwards.
func New(providers map[string]provider.Provider, routes routing.Table) *Orchestrator {
	registered := make(map[string]bool, len(providers))
	for name := range providers {
		registered[name] = true
	}
	return &Orchestrator{
		providers:  providers,
		registered: registered,
		routes:     routes,
	}
}

// CreateRequest describes one instance creation.
type CreateRequest struct {
	ImageType         string
	SSHPublicKey      string
	UserData          string
	PreferredProvider string
	Name              string // generated when empty
}

// CreateInstance resolves the image type to a candidate, creates the
// machine through the bound provider (which blocks until it is ready),
// and returns the extended record. On readiness timeout the machine is
// NOT destroyed: the error carries the instance ID and the caller owns
// cleanup of the stranded resource.
func (o *Orchestrator) CreateInstance(ctx context.Context, req CreateRequest) (*Record, error) {
	candidates, err := o.routes.Candidates(req.ImageType)
	if err != nil {
		return nil, err
	}

	if req.PreferredProvider != "" && !hasCandidate(candidates, req.PreferredProvider) {
		logging.Logger().Warn("preferred provider has no candidate for image type, falling back to priority selection",
			zap.String("image_type", req.ImageType),
			zap.String("preferred", req.PreferredProvider))
	}

	candidate, err := routing.Select(req.ImageType, candidates, o.registered, req.PreferredProvider)
	if err != nil {
		return nil, err
	}

	// Defensive: unreachable given Select's contract.
	prov, ok := o.providers[candidate.Provider]
	if !ok {
		return nil, &ProviderUnavailableError{Provider: candidate.Provider}
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("vmbroker-%s", uuid.NewString())
	}

	logging.Logger().Info("creating instance",
		zap.String("image_type", req.ImageType),
		zap.String("provider", candidate.Provider),
		zap.String("image", candidate.Image),
		zap.String("size", candidate.Size),
		zap.String("name", name))

	instance, err := prov.Create(ctx, provider.CreateSpec{
		Name:         name,
		Image:        candidate.Image,
		Size:         candidate.Size,
		SSHPublicKey: req.SSHPublicKey,
		UserData:     req.UserData,
	})
	if err != nil {
		var timeout *provider.ReadinessTimeoutError
		if errors.As(err, &timeout) {
			return nil, err
		}
		return nil, &provider.OperationError{Provider: candidate.Provider, Op: "create", Err: err}
	}

	ttl := candidate.TTL
	if ttl <= 0 {
		ttl = routing.DefaultTTL
	}

	return &Record{
		Provider:     candidate.Provider,
		ImageType:    req.ImageType,
		ID:           instance.ID,
		Address:      instance.Address,
		Aux:          instance.Aux,
		CreatedAt:    time.Now().Unix(),
		TTL:          ttl,
		SSHPublicKey: req.SSHPublicKey,
	}, nil
}

// DestroyInstance forwards to the provider's destroy primitive. A
// resource that is already gone counts as destroyed.
func (o *Orchestrator) DestroyInstance(ctx context.Context, providerName, instanceID string) error {
	prov, ok := o.providers[providerName]
	if !ok {
		return &ProviderUnavailableError{Provider: providerName}
	}
	if err := prov.Destroy(ctx, instanceID); err != nil {
		return &provider.OperationError{Provider: providerName, Op: "destroy", Err: err}
	}
	return nil
}

// GetInstance forwards to the provider's describe primitive.
func (o *Orchestrator) GetInstance(ctx context.Context, providerName, instanceID string) (*provider.Instance, error) {
	prov, ok := o.providers[providerName]
	if !ok {
		return nil, &ProviderUnavailableError{Provider: providerName}
	}
	instance, err := prov.Describe(ctx, instanceID)
	if err != nil {
		if errors.Is(err, provider.ErrInstanceNotFound) {
			return nil, err
		}
		return nil, &provider.OperationError{Provider: providerName, Op: "describe", Err: err}
	}
	return instance, nil
}

// ImageTypes lists the known logical image types.
func (o *Orchestrator) ImageTypes() []string {
	return o.routes.ImageTypes()
}

// Providers lists the registered provider names in sorted order.
func (o *Orchestrator) Providers() []string {
	names := make([]string, 0, len(o.providers))
	for name := range o.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Candidates lists the candidate mappings for an image type.
func (o *Orchestrator) Candidates(imageType string) ([]routing.Candidate, error) {
	return o.routes.Candidates(imageType)
}

func hasCandidate(candidates []routing.Candidate, providerName string) bool {
	for _, c := range candidates {
		if c.Provider == providerName {
			return true
		}
	}
	return false
}
