package models

import "time"

// Config represents the application configuration
type Config struct {
	Email     EmailConfig     `yaml:"email"`
	Folders   FolderConfig    `yaml:"folders"`
	Triage    TriageConfig    `yaml:"triage"`
	Oracle    OracleConfig    `yaml:"oracle"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Server    ServerConfig    `yaml:"server"`
}

// EmailConfig represents IMAP email configuration
type EmailConfig struct {
	Imap         string        `yaml:"imap"`
	Login        string        `yaml:"login"`
	Password     string        `yaml:"password"`
	MailBox      string        `yaml:"mailbox"`
	FromAddress  string        `yaml:"fromAddress"`
	PollInterval time.Duration `yaml:"pollInterval"`
	BatchLimit   int           `yaml:"batchLimit"`
}

// FolderConfig names the provider-specific special folders. Trash and drafts
// folder names vary across providers ("Trash", "Deleted Messages",
// "[Gmail]/Trash", ...), so they are configuration rather than constants.
type FolderConfig struct {
	Trash  string `yaml:"trash"`
	Drafts string `yaml:"drafts"`
}

// TriageConfig points the poller at the process-email service
type TriageConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// OracleConfig holds the classification and generation oracle endpoints
type OracleConfig struct {
	ClassifyURL string        `yaml:"classifyUrl"`
	DraftURL    string        `yaml:"draftUrl"`
	Timeout     time.Duration `yaml:"timeout"`
}

// KnowledgeConfig holds the knowledge retrieval service endpoint
type KnowledgeConfig struct {
	SearchURL string        `yaml:"searchUrl"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ServerConfig represents the triage service listen configuration
type ServerConfig struct {
	Listen string `yaml:"listen"`
}
