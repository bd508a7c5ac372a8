package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   Server   `json:"server" yaml:"server" mapstructure:"server"`
	Storage  Storage  `json:"storage" yaml:"storage" mapstructure:"storage"`
	Metadata Metadata `json:"metadata" yaml:"metadata" mapstructure:"metadata"`
	TMDB     TMDB     `json:"tmdb" yaml:"tmdb" mapstructure:"tmdb"`
	Prober   Prober   `json:"prober" yaml:"prober" mapstructure:"prober"`
	Auth     Auth     `json:"auth" yaml:"auth" mapstructure:"auth"`
	Scanner  Scanner  `json:"scanner" yaml:"scanner" mapstructure:"scanner"`
	Log      Log      `json:"log" yaml:"log" mapstructure:"log"`
}

type Server struct {
	Port    int    `json:"port" yaml:"port" mapstructure:"port"`
	DistDir string `json:"distDir" yaml:"distDir" mapstructure:"distDir"`
	// AuthWindow is how long a websocket client has to authenticate
	AuthWindow time.Duration `json:"authWindow" yaml:"authWindow" mapstructure:"authWindow"`
}

// Storage configuration is assumed to be for sqlite database only currently
type Storage struct {
	FilePath string `json:"filePath" yaml:"filePath" mapstructure:"filePath"`
}

// Metadata is where downloaded posters and backdrops are kept
type Metadata struct {
	Dir           string        `json:"dir" yaml:"dir" mapstructure:"dir"`
	Timeout       time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	MaxRetries    int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
	MaxAssetBytes int64         `json:"maxAssetBytes" yaml:"maxAssetBytes" mapstructure:"maxAssetBytes"`
}

type TMDB struct {
	Scheme        string        `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host          string        `json:"host" yaml:"host" mapstructure:"host"`
	APIKey        string        `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey"`
	BaseBackoff   time.Duration `json:"backoff" yaml:"backoff" mapstructure:"backoff"`
	MaxRetries    int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
	Timeout       time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	RatePerSecond float64       `json:"ratePerSecond" yaml:"ratePerSecond" mapstructure:"ratePerSecond"`
	CacheTTL      time.Duration `json:"cacheTTL" yaml:"cacheTTL" mapstructure:"cacheTTL"`
	MaxCacheBytes int64         `json:"maxCacheBytes" yaml:"maxCacheBytes" mapstructure:"maxCacheBytes"`
}

type Prober struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

type Auth struct {
	Secret string `json:"secret" yaml:"secret" mapstructure:"secret"`
	// CookieKey is a base64 encoded 32 byte key. Session cookies are disabled when it is empty.
	CookieKey string        `json:"cookieKey" yaml:"cookieKey" mapstructure:"cookieKey"`
	TokenTTL  time.Duration `json:"tokenTTL" yaml:"tokenTTL" mapstructure:"tokenTTL"`
}

type Scanner struct {
	Debounce      time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`
	ProbeWorkers  int           `json:"probeWorkers" yaml:"probeWorkers" mapstructure:"probeWorkers"`
	SweepSchedule string        `json:"sweepSchedule" yaml:"sweepSchedule" mapstructure:"sweepSchedule"`
}

type Log struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
	JSON  bool   `json:"json" yaml:"json" mapstructure:"json"`
}

type ConfigUnmarshaler interface {
	ReadInConfig() error
	Unmarshal(any, ...viper.DecoderConfigOption) error
	ConfigFileUsed() string
}

// New reads a new configuration
func New(cu ConfigUnmarshaler) (Config, error) {
	var c Config

	if cu.ConfigFileUsed() != "" {
		err := cu.ReadInConfig()
		if err != nil {
			return c, err
		}
	}

	err := cu.Unmarshal(&c)
	return c, err
}
