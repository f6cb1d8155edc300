package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type BoothConfig struct {
	ID string
}

type PathsConfig struct {
	Data     string
	Watched  string
	Media    string
	Previews string
	Renders  string
}

type CloudConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type SyncConfig struct {
	// Cron spec for scheduled reconciler runs. Empty leaves sync
	// manual-only via POST /sync/run.
	Schedule string
}

type PrinterConfig struct {
	Name      string
	ProfileID string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Booth            BoothConfig
	Paths            PathsConfig
	Cloud            CloudConfig
	Sync             SyncConfig
	Printer          PrinterConfig
	AllowCORSOrigins []string
}

// DatabasePath locates the sqlite file inside the data directory.
func (c *AppConfig) DatabasePath() string {
	return filepath.Join(c.Paths.Data, "local-agent.db")
}

// Directories lists every directory the agent needs on disk.
func (c *AppConfig) Directories() []string {
	return []string{
		c.Paths.Data,
		c.Paths.Watched,
		c.Paths.Media,
		c.Paths.Previews,
		c.Paths.Renders,
	}
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("BOOTH")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "127.0.0.1")
	v.SetDefault("http.port", 4477)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "60s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("booth.id", "booth-001")

	v.SetDefault("paths.data", "./data")
	v.SetDefault("paths.watched", "./uploads/inbox")
	v.SetDefault("paths.media", "./uploads/media")
	v.SetDefault("paths.previews", "./previews")
	v.SetDefault("paths.renders", "./renders")

	v.SetDefault("cloud.baseurl", "http://127.0.0.1:3000/api/v1")
	v.SetDefault("cloud.token", "")
	v.SetDefault("cloud.timeout", "15s")

	// Every 5 minutes; the reconciler itself serializes overlapping runs.
	v.SetDefault("sync.schedule", "0 */5 * * * *")

	v.SetDefault("printer.name", "Windows Default Printer")
	v.SetDefault("printer.profileid", "print-4x6-300dpi")
}
