package config

import (
	"fmt"
	"os"

	"vmbroker/internal/routing"

	"gopkg.in/yaml.v2"
)

// PollConfig tunes an adapter's readiness poll. Zero values are filled
// with the provider's defaults at load time.
type PollConfig struct {
	Attempts        int `yaml:"attempts"`
	IntervalSeconds int `yaml:"interval_seconds"`
}

// DigitalOceanConfig holds DigitalOcean credentials and tuning
type DigitalOceanConfig struct {
	Token  string     `yaml:"token"`
	Region string     `yaml:"region"`
	Poll   PollConfig `yaml:"poll"`
}

// AWSConfig holds AWS credentials and tuning
type AWSConfig struct {
	Region          string     `yaml:"region"`
	AccessKeyID     string     `yaml:"access_key_id"`
	SecretAccessKey string     `yaml:"secret_access_key"`
	Poll            PollConfig `yaml:"poll"`
}

// GCPConfig holds GCP credentials and tuning
type GCPConfig struct {
	ProjectID       string     `yaml:"project_id"`
	Zone            string     `yaml:"zone"`
	CredentialsPath string     `yaml:"credentials_path"`
	Username        string     `yaml:"username"`
	Poll            PollConfig `yaml:"poll"`
}

// YandexCloudConfig holds Yandex Cloud credentials and tuning
type YandexCloudConfig struct {
	IAMToken   string     `yaml:"iam_token"`
	FolderID   string     `yaml:"folder_id"`
	Zone       string     `yaml:"zone"`
	Username   string     `yaml:"username"`
	DiskSizeGB int64      `yaml:"disk_size_gb"`
	Poll       PollConfig `yaml:"poll"`
}

// ProvidersConfig lists the configured providers. Only non-nil entries
// are registered with the broker.
type ProvidersConfig struct {
	DigitalOcean *DigitalOceanConfig `yaml:"digitalocean"`
	AWS          *AWSConfig          `yaml:"aws"`
	GCP          *GCPConfig          `yaml:"gcp"`
	YandexCloud  *YandexCloudConfig  `yaml:"yandex_cloud"`
}

// LedgerConfig selects where the CLI tracks the instances it created.
type LedgerConfig struct {
	Backend       string   `yaml:"backend"` // "file" (default) or "etcd"
	Path          string   `yaml:"path"`
	EtcdEndpoints []string `yaml:"etcd_endpoints"`
}

// Config contains application configuration
type Config struct {
	SSHKeyDir string          `yaml:"ssh_key_dir"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Providers ProvidersConfig `yaml:"providers"`
	Images    routing.Table   `yaml:"images"`
}

// Load loads configuration from the YAML file named by CONFIG_PATH
// (default vmbroker.yaml). A missing or malformed file is fatal to
// broker construction.
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "vmbroker.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{
		SSHKeyDir: ".vmbroker/keys",
		Ledger: LedgerConfig{
			Backend: "file",
			Path:    ".vmbroker/instances.json",
		},
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.expandEnv()
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// expandEnv expands environment variables in credential fields and
// applies the conventional environment overrides for secrets.
func (c *Config) expandEnv() {
	if do := c.Providers.DigitalOcean; do != nil {
		do.Token = os.ExpandEnv(do.Token)
		if token := os.Getenv("DIGITALOCEAN_TOKEN"); token != "" {
			do.Token = token
		}
	}
	if aws := c.Providers.AWS; aws != nil {
		aws.AccessKeyID = os.ExpandEnv(aws.AccessKeyID)
		aws.SecretAccessKey = os.ExpandEnv(aws.SecretAccessKey)
		if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
			aws.AccessKeyID = key
		}
		if secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); secret != "" {
			aws.SecretAccessKey = secret
		}
	}
	if gcp := c.Providers.GCP; gcp != nil {
		gcp.ProjectID = os.ExpandEnv(gcp.ProjectID)
		gcp.CredentialsPath = os.ExpandEnv(gcp.CredentialsPath)
	}
	if yc := c.Providers.YandexCloud; yc != nil {
		yc.IAMToken = os.ExpandEnv(yc.IAMToken)
		yc.FolderID = os.ExpandEnv(yc.FolderID)
		if token := os.Getenv("YC_TOKEN"); token != "" {
			yc.IAMToken = token
		}
		if folderID := os.Getenv("YC_FOLDER_ID"); folderID != "" {
			yc.FolderID = folderID
		}
	}
}

// applyDefaults fills per-provider poll tuning, usernames and candidate
// TTLs. Observed bootstrap latencies differ per control plane, hence the
// different budgets.
func (c *Config) applyDefaults() {
	if do := c.Providers.DigitalOcean; do != nil {
		fillPoll(&do.Poll, 30, 5)
	}
	if aws := c.Providers.AWS; aws != nil {
		fillPoll(&aws.Poll, 20, 3)
	}
	if gcp := c.Providers.GCP; gcp != nil {
		fillPoll(&gcp.Poll, 24, 5)
		if gcp.Username == "" {
			gcp.Username = "vmbroker"
		}
	}
	if yc := c.Providers.YandexCloud; yc != nil {
		fillPoll(&yc.Poll, 30, 4)
		if yc.Username == "" {
			yc.Username = "vmbroker"
		}
		if yc.DiskSizeGB == 0 {
			yc.DiskSizeGB = 20
		}
	}

	for imageType, candidates := range c.Images {
		for i := range candidates {
			if candidates[i].TTL == 0 {
				candidates[i].TTL = routing.DefaultTTL
			}
		}
		c.Images[imageType] = candidates
	}
}

func fillPoll(p *PollConfig, attempts, intervalSeconds int) {
	if p.Attempts == 0 {
		p.Attempts = attempts
	}
	if p.IntervalSeconds == 0 {
		p.IntervalSeconds = intervalSeconds
	}
}

func (c *Config) validate() error {
	if c.Providers.DigitalOcean == nil && c.Providers.AWS == nil &&
		c.Providers.GCP == nil && c.Providers.YandexCloud == nil {
		return fmt.Errorf("at least one provider must be configured")
	}

	if do := c.Providers.DigitalOcean; do != nil {
		if do.Token == "" {
			return fmt.Errorf("digitalocean: token is required (set token in config file or DIGITALOCEAN_TOKEN environment variable)")
		}
		if do.Region == "" {
			return fmt.Errorf("digitalocean: region is required")
		}
	}
	if aws := c.Providers.AWS; aws != nil {
		if aws.Region == "" {
			return fmt.Errorf("aws: region is required")
		}
		if aws.AccessKeyID == "" || aws.SecretAccessKey == "" {
			return fmt.Errorf("aws: credentials are required (set them in the config file or AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY environment variables)")
		}
	}
	if gcp := c.Providers.GCP; gcp != nil {
		if gcp.ProjectID == "" {
			return fmt.Errorf("gcp: project_id is required")
		}
		if gcp.Zone == "" {
			return fmt.Errorf("gcp: zone is required")
		}
	}
	if yc := c.Providers.YandexCloud; yc != nil {
		if yc.IAMToken == "" {
			return fmt.Errorf("yandex_cloud: iam_token is required (set iam_token in config file or YC_TOKEN environment variable)")
		}
		if yc.FolderID == "" {
			return fmt.Errorf("yandex_cloud: folder_id is required (set folder_id in config file or YC_FOLDER_ID environment variable)")
		}
		if yc.Zone == "" {
			return fmt.Errorf("yandex_cloud: zone is required")
		}
	}

	if len(c.Images) == 0 {
		return fmt.Errorf("routing table is empty: at least one image type must be defined")
	}
	for imageType, candidates := range c.Images {
		if len(candidates) == 0 {
			return fmt.Errorf("image type %q has no candidates", imageType)
		}
		for i, cand := range candidates {
			if cand.Provider == "" || cand.Image == "" || cand.Size == "" {
				return fmt.Errorf("image type %q candidate %d: provider, image and size are required", imageType, i)
			}
		}
	}
	return nil
}
