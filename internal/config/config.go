package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Backup     BackupConfig     `mapstructure:"backup"`
	Restore    RestoreConfig    `mapstructure:"restore"`
	Stylesheet StylesheetConfig `mapstructure:"stylesheet"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type DatabaseConfig struct {
	Service        string `mapstructure:"service"`
	ComposeFile    string `mapstructure:"compose_file"`
	ComposeProject string `mapstructure:"compose_project"`
	EnvFile        string `mapstructure:"env_file"`
	RequireRunning bool   `mapstructure:"require_running"`

	// Optional connection string used to verify a restore from the host.
	DSN string `mapstructure:"dsn"`

	// Filled from the env file, never from the YAML file.
	User     string `mapstructure:"-"`
	Name     string `mapstructure:"-"`
	Password string `mapstructure:"-"`
}

type BackupConfig struct {
	LocalPath     string         `mapstructure:"local_path"`
	FilePrefix    string         `mapstructure:"file_prefix"`
	RetentionDays int            `mapstructure:"retention_days"`
	LockFile      string         `mapstructure:"lock_file"`
	Schedule      string         `mapstructure:"schedule"`
	Timeout       time.Duration  `mapstructure:"timeout"`
	UploadTargets []UploadTarget `mapstructure:"upload_targets"`
}

type RestoreConfig struct {
	StopOnError bool `mapstructure:"stop_on_error"`
}

type StylesheetConfig struct {
	Output    string   `mapstructure:"output"`
	Content   []string `mapstructure:"content"`
	Safelist  []string `mapstructure:"safelist"`
	BoxShadow []Shadow `mapstructure:"box_shadow"`
}

// Shadow is a custom box-shadow utility. It is a list entry rather than a map
// key because viper lowercases map keys and shadow names are case-sensitive.
type Shadow struct {
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
}

type UploadTarget struct {
	Type    string `mapstructure:"type"`
	Enabled bool   `mapstructure:"enabled"`

	// Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`

	// AWS S3 and S3-compatible (minio, r2)
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`

	// Telegram
	BotToken   string `mapstructure:"bot_token"`
	ChatID     string `mapstructure:"chat_id"`
	SendFile   bool   `mapstructure:"send_file"`
	NotifyOnly bool   `mapstructure:"notify_only"`
}

// Load reads the YAML config at path, then the database credentials from the
// env file it points to. Values already present in the process environment
// win over the env file.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.loadCredentials(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadStylesheet reads only what the stylesheet renderer needs; it does not
// touch the env file.
func LoadStylesheet(path string) (*StylesheetConfig, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if len(cfg.Stylesheet.Content) == 0 {
		return nil, fmt.Errorf("invalid config: stylesheet.content needs at least one glob")
	}

	return &cfg.Stylesheet, nil
}

func read(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "hlink-backup")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("database.service", "postgres")
	v.SetDefault("database.env_file", ".env")
	v.SetDefault("database.require_running", true)
	v.SetDefault("backup.local_path", "/var/backups/hlink")
	v.SetDefault("backup.file_prefix", "hlink_backup_")
	v.SetDefault("backup.retention_days", 14)
	v.SetDefault("backup.lock_file", "/tmp/hlink-backup.lock")
	v.SetDefault("backup.schedule", "0 0 3 * * *")
	v.SetDefault("backup.timeout", 30*time.Minute)
	v.SetDefault("restore.stop_on_error", true)
	v.SetDefault("stylesheet.output", "tailwind.config.js")
}

func (c *Config) loadCredentials() error {
	env := viper.New()
	env.SetConfigFile(c.Database.EnvFile)
	env.SetConfigType("env")
	env.AutomaticEnv()

	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file %s: %w", c.Database.EnvFile, err)
	}

	c.Database.User = strings.TrimSpace(env.GetString("POSTGRES_USER"))
	c.Database.Name = strings.TrimSpace(env.GetString("POSTGRES_DB"))
	c.Database.Password = env.GetString("POSTGRES_PASSWORD")
	return nil
}

func (c *Config) Validate() error {
	if c.Database.Service == "" {
		return fmt.Errorf("database.service is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("POSTGRES_USER is not set in %s", c.Database.EnvFile)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("POSTGRES_DB is not set in %s", c.Database.EnvFile)
	}

	if c.Backup.LocalPath == "" {
		return fmt.Errorf("backup.local_path is required")
	}
	if c.Backup.FilePrefix == "" {
		return fmt.Errorf("backup.file_prefix is required")
	}
	if c.Backup.RetentionDays <= 0 {
		return fmt.Errorf("backup.retention_days must be positive, got %d", c.Backup.RetentionDays)
	}
	if c.Backup.LockFile == "" {
		return fmt.Errorf("backup.lock_file is required")
	}

	for i, target := range c.GetEnabledUploadTargets() {
		switch target.Type {
		case "s3", "minio", "gdrive", "telegram":
		default:
			return fmt.Errorf("backup.upload_targets[%d]: unknown type %q", i, target.Type)
		}
	}

	return nil
}

func (c *Config) GetEnabledUploadTargets() []UploadTarget {
	var enabled []UploadTarget
	for _, target := range c.Backup.UploadTargets {
		if target.Enabled {
			enabled = append(enabled, target)
		}
	}
	return enabled
}

// Retention returns the configured retention window.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Backup.RetentionDays) * 24 * time.Hour
}
