package config

import (
	"os"
	"path/filepath"
	"testing"

	"vmbroker/internal/routing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vmbroker.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
}

const minimalConfig = `
providers:
  digitalocean:
    token: do-token
    region: fra1
images:
  ubuntu-22-small:
    - provider: digitalocean
      image: ubuntu-22-04-x64
      size: s-1vcpu-1gb
      priority: 1
`

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, minimalConfig)
	t.Setenv("DIGITALOCEAN_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}

	if cfg.SSHKeyDir != ".vmbroker/keys" {
		t.Errorf("SSHKeyDir = %q", cfg.SSHKeyDir)
	}
	if cfg.Ledger.Backend != "file" || cfg.Ledger.Path != ".vmbroker/instances.json" {
		t.Errorf("ledger defaults = %+v", cfg.Ledger)
	}

	do := cfg.Providers.DigitalOcean
	if do == nil {
		t.Fatal("digitalocean provider missing")
	}
	if do.Poll.Attempts != 30 || do.Poll.IntervalSeconds != 5 {
		t.Errorf("digitalocean poll defaults = %+v", do.Poll)
	}

	candidates := cfg.Images["ubuntu-22-small"]
	if len(candidates) != 1 {
		t.Fatalf("candidates = %v", candidates)
	}
	if candidates[0].TTL != routing.DefaultTTL {
		t.Errorf("candidate TTL = %v, want default %v", candidates[0].TTL, routing.DefaultTTL)
	}
}

func TestLoadExpandsEnvInCredentials(t *testing.T) {
	writeConfig(t, `
providers:
  digitalocean:
    token: ${DO_SECRET}
    region: fra1
images:
  ubuntu-22-small:
    - provider: digitalocean
      image: ubuntu-22-04-x64
      size: s-1vcpu-1gb
`)
	t.Setenv("DO_SECRET", "expanded-token")
	t.Setenv("DIGITALOCEAN_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if got := cfg.Providers.DigitalOcean.Token; got != "expanded-token" {
		t.Errorf("token = %q, want expanded value", got)
	}
}

func TestLoadEnvOverrideWinsOverFile(t *testing.T) {
	writeConfig(t, minimalConfig)
	t.Setenv("DIGITALOCEAN_TOKEN", "override-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if got := cfg.Providers.DigitalOcean.Token; got != "override-token" {
		t.Errorf("token = %q, want the environment override", got)
	}
}

func TestLoadKeepsExplicitPollTuning(t *testing.T) {
	writeConfig(t, `
providers:
  digitalocean:
    token: do-token
    region: fra1
    poll:
      attempts: 3
      interval_seconds: 1
images:
  ubuntu-22-small:
    - provider: digitalocean
      image: ubuntu-22-04-x64
      size: s-1vcpu-1gb
`)
	t.Setenv("DIGITALOCEAN_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if poll := cfg.Providers.DigitalOcean.Poll; poll.Attempts != 3 || poll.IntervalSeconds != 1 {
		t.Errorf("poll = %+v, want the explicit tuning", poll)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "no providers",
			content: `
images:
  ubuntu-22-small:
    - provider: digitalocean
      image: ubuntu-22-04-x64
      size: s-1vcpu-1gb
`,
		},
		{
			name: "missing token",
			content: `
providers:
  digitalocean:
    region: fra1
images:
  ubuntu-22-small:
    - provider: digitalocean
      image: ubuntu-22-04-x64
      size: s-1vcpu-1gb
`,
		},
		{
			name: "empty routing table",
			content: `
providers:
  digitalocean:
    token: do-token
    region: fra1
`,
		},
		{
			name: "candidate missing image",
			content: `
providers:
  digitalocean:
    token: do-token
    region: fra1
images:
  ubuntu-22-small:
    - provider: digitalocean
      size: s-1vcpu-1gb
`,
		},
		{
			name: "yandex missing folder",
			content: `
providers:
  yandex_cloud:
    iam_token: yc-token
    zone: ru-central1-a
images:
  ubuntu-22-small:
    - provider: yandex_cloud
      image: fd80bm0rh4rkepi5ksdi
      size: 2x4
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.content)
			t.Setenv("DIGITALOCEAN_TOKEN", "")
			t.Setenv("YC_TOKEN", "")
			t.Setenv("YC_FOLDER_ID", "")

			if _, err := Load(); err == nil {
				t.Fatal("Load() expected validation error, got nil")
			}
		})
	}
}
