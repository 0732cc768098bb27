package config

import (
	json "encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"basket/itemset"
)

const DEVELOPMENT = "development"

const EnvPrefix = "BASKET"

const (
	CloudProviderNone = "none"
	CloudProviderGCS  = "gcs"
	CloudProviderS3   = "s3"
)

type Configuration struct {
	Env              string `json:"env" yaml:"env" envconfig:"env"`
	LogLevel         string `json:"log_level" yaml:"log_level" envconfig:"log_level"`
	DiskBaseDir      string `json:"disk_dir" yaml:"disk_dir" envconfig:"disk_dir"`
	CloudProvider    string `json:"cloud_provider" yaml:"cloud_provider" envconfig:"cloud_provider"`
	BucketName       string `json:"bucket_name" yaml:"bucket_name" envconfig:"bucket_name"`
	AWSRegion        string `json:"aws_region" yaml:"aws_region" envconfig:"aws_region"`
	CacheSize        int    `json:"cache_size" yaml:"cache_size" envconfig:"cache_size"`
	Sigma            int    `json:"sigma" yaml:"sigma" envconfig:"sigma"`
	MinSetSize       int    `json:"min_set_size" yaml:"min_set_size" envconfig:"min_set_size"`
	Port             int    `json:"port" yaml:"port" envconfig:"port"`
	MetricsProjectID string `json:"metrics_project_id" yaml:"metrics_project_id" envconfig:"metrics_project_id"`
	MetricsLocation  string `json:"metrics_location" yaml:"metrics_location" envconfig:"metrics_location"`
}

// Default returns the configuration used when no file is given.
func Default() *Configuration {
	return &Configuration{
		Env:           DEVELOPMENT,
		LogLevel:      "info",
		DiskBaseDir:   "/usr/local/var/basket",
		CloudProvider: CloudProviderNone,
		CacheSize:     100,
		Sigma:         1,
		MinSetSize:    itemset.DefaultMinSetSize,
		Port:          8100,
	}
}

// LoadFile reads a json or yaml configuration on top of Default.
func LoadFile(path string) (*Configuration, error) {
	absPath, _ := filepath.Abs(path)
	logCtx := log.WithField("file", absPath)

	raw, err := ioutil.ReadFile(absPath)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load config")
		return nil, errors.Wrapf(err, "failed to read config %s", absPath)
	}

	c := Default()
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, c)
	case ".json":
		err = json.Unmarshal(raw, c)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(absPath))
	}
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal config")
		return nil, errors.Wrapf(err, "failed to parse config %s", absPath)
	}
	logCtx.WithField("config", c).Info("Config File Loaded")
	return c, nil
}

// ApplyEnv overrides fields from BASKET_* environment variables,
// e.g. BASKET_CACHE_SIZE=10.
func ApplyEnv(c *Configuration) error {
	return errors.Wrap(envconfig.Process(EnvPrefix, c), "failed to read environment")
}

func (c *Configuration) Validate() error {
	if c.Env == "" {
		return errors.New("env is required")
	}
	if c.DiskBaseDir == "" {
		return errors.New("disk_dir is required")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", c.CacheSize)
	}
	if c.Sigma < 1 {
		return fmt.Errorf("sigma must be at least 1, got %d", c.Sigma)
	}
	if c.MinSetSize < 2 {
		return fmt.Errorf("min_set_size must be at least 2, got %d", c.MinSetSize)
	}
	if _, err := log.ParseLevel(c.logLevel()); err != nil {
		return errors.Wrap(err, "invalid log_level")
	}
	switch c.CloudProvider {
	case "", CloudProviderNone:
	case CloudProviderGCS, CloudProviderS3:
		if c.BucketName == "" {
			return fmt.Errorf("bucket_name is required for cloud provider %s", c.CloudProvider)
		}
		if c.CloudProvider == CloudProviderS3 && c.AWSRegion == "" {
			return errors.New("aws_region is required for s3")
		}
	default:
		return fmt.Errorf("unknown cloud provider %q", c.CloudProvider)
	}
	return nil
}

func (c *Configuration) IsDevelopment() bool {
	return strings.Compare(c.Env, DEVELOPMENT) == 0
}

func (c *Configuration) logLevel() string {
	if c.LogLevel == "" {
		return "info"
	}
	return c.LogLevel
}

// InitLogging sets up logrus for commands.
func (c *Configuration) InitLogging() {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	if c.IsDevelopment() {
		log.SetLevel(log.DebugLevel)
		return
	}
	if level, err := log.ParseLevel(c.logLevel()); err == nil {
		log.SetLevel(level)
	}
}
