package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"vmbroker/internal/config"

	"github.com/digitalocean/godo"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

const digitalOceanReadyStatus = "active"

// dropletKeysAPI is the slice of godo.KeysService the adapter needs.
type dropletKeysAPI interface {
	Create(ctx context.Context, createRequest *godo.KeyCreateRequest) (*godo.Key, *godo.Response, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*godo.Key, *godo.Response, error)
}

// DigitalOcean provisions droplets through the godo SDK.
type DigitalOcean struct {
	client *godo.Client
	keys   dropletKeysAPI
	region string
	poll   PollConfig
}

// NewDigitalOcean creates a DigitalOcean adapter. The godo client is
// backed by a retrying HTTP client so transient control-plane faults are
// absorbed below the SDK.
func NewDigitalOcean(cfg config.DigitalOceanConfig) (*DigitalOcean, error) {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 3
	retry.Logger = nil

	httpClient := retry.StandardClient()
	httpClient.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
		Base:   httpClient.Transport,
	}

	client, err := godo.New(httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create godo client: %w", err)
	}

	return &DigitalOcean{
		client: client,
		keys:   client.Keys,
		region: cfg.Region,
		poll: PollConfig{
			Attempts: cfg.Poll.Attempts,
			Interval: time.Duration(cfg.Poll.IntervalSeconds) * time.Second,
		},
	}, nil
}

// Create creates a droplet and blocks until it is active with a public
// IPv4 address, or the readiness budget runs out.
func (p *DigitalOcean) Create(ctx context.Context, spec CreateSpec) (*Instance, error) {
	key, err := ensureDropletKey(ctx, p.keys, spec.SSHPublicKey)
	if err != nil {
		return nil, err
	}

	request := &godo.DropletCreateRequest{
		Name:   spec.Name,
		Region: p.region,
		Size:   spec.Size,
		Image: godo.DropletCreateImage{
			Slug: spec.Image,
		},
		SSHKeys:  []godo.DropletCreateSSHKey{{ID: key.ID}},
		UserData: spec.UserData,
	}

	droplet, _, err := p.client.Droplets.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create droplet: %w", err)
	}

	id := strconv.Itoa(droplet.ID)
	return AwaitReady(ctx, id, p.poll, func(ctx context.Context) (*Instance, error) {
		return p.Describe(ctx, id)
	}, ReadyWhen(digitalOceanReadyStatus))
}

// Destroy deletes a droplet by ID; a droplet that is already gone counts
// as destroyed.
func (p *DigitalOcean) Destroy(ctx context.Context, instanceID string) error {
	id, err := strconv.Atoi(instanceID)
	if err != nil {
		return fmt.Errorf("invalid droplet ID %q: %w", instanceID, err)
	}

	resp, err := p.client.Droplets.Delete(ctx, id)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete droplet: %w", err)
	}
	return nil
}

// Describe returns the uniform view of a droplet.
func (p *DigitalOcean) Describe(ctx context.Context, instanceID string) (*Instance, error) {
	id, err := strconv.Atoi(instanceID)
	if err != nil {
		return nil, fmt.Errorf("invalid droplet ID %q: %w", instanceID, err)
	}

	droplet, resp, err := p.client.Droplets.Get(ctx, id)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to get droplet: %w", err)
	}

	address, _ := droplet.PublicIPv4()
	aux := map[string]string{
		"status": droplet.Status,
		"name":   droplet.Name,
	}
	if droplet.Region != nil {
		aux["region"] = droplet.Region.Slug
	}
	return &Instance{
		ID:      strconv.Itoa(droplet.ID),
		Address: address,
		Aux:     aux,
	}, nil
}

// ensureDropletKey registers the public key as a DigitalOcean key object.
// This is reconciliation, not a retry: when the fingerprint is already
// registered (by an earlier run or a concurrent one), the existing key is
// looked up and used instead of propagating the conflict.
func ensureDropletKey(ctx context.Context, keys dropletKeysAPI, publicKey string) (*godo.Key, error) {
	key, _, err := keys.Create(ctx, &godo.KeyCreateRequest{
		Name:      keyObjectName(publicKey),
		PublicKey: publicKey,
	})
	if err == nil {
		return key, nil
	}

	fingerprint, ferr := sshFingerprint(publicKey)
	if ferr != nil {
		return nil, fmt.Errorf("failed to create SSH key: %w", err)
	}
	existing, _, gerr := keys.GetByFingerprint(ctx, fingerprint)
	if gerr != nil {
		return nil, fmt.Errorf("failed to create SSH key: %w", err)
	}
	return existing, nil
}
