package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vmbroker/internal/config"

	"google.golang.org/api/compute/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const gcpReadyStatus = "RUNNING"

// GCP provisions Compute Engine instances. The instance name doubles as
// the instance ID because the Compute API addresses instances by name
// within a zone.
type GCP struct {
	service   *compute.Service
	projectID string
	zone      string
	username  string
	poll      PollConfig
}

// NewGCP creates a GCP adapter. With no credentials path, application
// default credentials are used.
func NewGCP(ctx context.Context, cfg config.GCPConfig) (*GCP, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsPath))
	}

	service, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute service: %w", err)
	}

	return &GCP{
		service:   service,
		projectID: cfg.ProjectID,
		zone:      cfg.Zone,
		username:  cfg.Username,
		poll: PollConfig{
			Attempts: cfg.Poll.Attempts,
			Interval: time.Duration(cfg.Poll.IntervalSeconds) * time.Second,
		},
	}, nil
}

// Create inserts an instance and blocks until it is RUNNING with a NAT
// IP, or the readiness budget runs out.
func (p *GCP) Create(ctx context.Context, spec CreateSpec) (*Instance, error) {
	data, err := userData(spec, p.username)
	if err != nil {
		return nil, err
	}

	instance := &compute.Instance{
		Name:        spec.Name,
		MachineType: fmt.Sprintf("zones/%s/machineTypes/%s", p.zone, spec.Size),
		Disks: []*compute.AttachedDisk{
			{
				AutoDelete: true,
				Boot:       true,
				Type:       "PERSISTENT",
				InitializeParams: &compute.AttachedDiskInitializeParams{
					SourceImage: spec.Image,
				},
			},
		},
		NetworkInterfaces: []*compute.NetworkInterface{
			{
				AccessConfigs: []*compute.AccessConfig{
					{
						Type: "ONE_TO_ONE_NAT",
						Name: "External NAT",
					},
				},
				Network: "global/networks/default",
			},
		},
		Metadata: &compute.Metadata{
			Items: []*compute.MetadataItems{
				{
					Key:   "user-data",
					Value: &data,
				},
			},
		},
	}

	if _, err := p.service.Instances.Insert(p.projectID, p.zone, instance).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("failed to insert instance: %w", err)
	}

	return AwaitReady(ctx, spec.Name, p.poll, func(ctx context.Context) (*Instance, error) {
		return p.Describe(ctx, spec.Name)
	}, ReadyWhen(gcpReadyStatus))
}

// Destroy deletes an instance by name; an instance that is already gone
// counts as destroyed.
func (p *GCP) Destroy(ctx context.Context, instanceID string) error {
	_, err := p.service.Instances.Delete(p.projectID, p.zone, instanceID).Context(ctx).Do()
	if err != nil {
		if isGoogleNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete instance: %w", err)
	}
	return nil
}

// Describe returns the uniform view of a Compute Engine instance.
func (p *GCP) Describe(ctx context.Context, instanceID string) (*Instance, error) {
	instance, err := p.service.Instances.Get(p.projectID, p.zone, instanceID).Context(ctx).Do()
	if err != nil {
		if isGoogleNotFound(err) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	address := ""
	if len(instance.NetworkInterfaces) > 0 && len(instance.NetworkInterfaces[0].AccessConfigs) > 0 {
		address = instance.NetworkInterfaces[0].AccessConfigs[0].NatIP
	}
	return &Instance{
		ID:      instance.Name,
		Address: address,
		Aux: map[string]string{
			"status": instance.Status,
			"zone":   p.zone,
		},
	}, nil
}

func isGoogleNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
