package provider

import (
	"context"
	"fmt"

	"vmbroker/internal/config"
)

// Canonical provider names used as routing-table keys.
const (
	NameDigitalOcean = "digitalocean"
	NameAWS          = "aws"
	NameGCP          = "gcp"
	NameYandexCloud  = "yandex_cloud"
)

// BuildRegistry constructs one adapter per configured provider. The
// returned map is the broker's provider registry: built once at startup
// and read-only afterwards.
func BuildRegistry(ctx context.Context, cfg config.ProvidersConfig) (map[string]Provider, error) {
	registry := make(map[string]Provider)

	if cfg.DigitalOcean != nil {
		p, err := NewDigitalOcean(*cfg.DigitalOcean)
		if err != nil {
			return nil, fmt.Errorf("digitalocean: %w", err)
		}
		registry[NameDigitalOcean] = p
	}
	if cfg.AWS != nil {
		p, err := NewAWS(ctx, *cfg.AWS)
		if err != nil {
			return nil, fmt.Errorf("aws: %w", err)
		}
		registry[NameAWS] = p
	}
	if cfg.GCP != nil {
		p, err := NewGCP(ctx, *cfg.GCP)
		if err != nil {
			return nil, fmt.Errorf("gcp: %w", err)
		}
		registry[NameGCP] = p
	}
	if cfg.YandexCloud != nil {
		p, err := NewYandexCloud(ctx, *cfg.YandexCloud)
		if err != nil {
			return nil, fmt.Errorf("yandex_cloud: %w", err)
		}
		registry[NameYandexCloud] = p
	}

	if len(registry) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	return registry, nil
}
