package config

import (
	"os"
	"time"

	"github.com/Moka-cat/AI-Email-Agent/internal/models"

	"gopkg.in/yaml.v2"
)

// Defaults applied to options the configuration file leaves unset.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultBatchLimit   = 10
	DefaultTimeout      = 60 * time.Second
	DefaultMailBox      = "INBOX"
	DefaultTrashFolder  = "Trash"
	DefaultDraftsFolder = "Drafts"
	DefaultListen       = ":8000"
)

// Load reads the configuration from the specified YAML file and returns a Config struct
func Load(filepath string) (*models.Config, error) {
	configFile, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := yaml.Unmarshal(configFile, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(cfg *models.Config) {
	if cfg.Email.PollInterval <= 0 {
		cfg.Email.PollInterval = DefaultPollInterval
	}
	if cfg.Email.BatchLimit <= 0 {
		cfg.Email.BatchLimit = DefaultBatchLimit
	}
	if cfg.Email.MailBox == "" {
		cfg.Email.MailBox = DefaultMailBox
	}
	if cfg.Folders.Trash == "" {
		cfg.Folders.Trash = DefaultTrashFolder
	}
	if cfg.Folders.Drafts == "" {
		cfg.Folders.Drafts = DefaultDraftsFolder
	}
	if cfg.Triage.Timeout <= 0 {
		cfg.Triage.Timeout = DefaultTimeout
	}
	if cfg.Oracle.Timeout <= 0 {
		cfg.Oracle.Timeout = DefaultTimeout
	}
	if cfg.Knowledge.Timeout <= 0 {
		cfg.Knowledge.Timeout = DefaultTimeout
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
}
