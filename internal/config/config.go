package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dkeye/JanusRelay/internal/domain"
)

const envPrefix = "JANUSRELAY"

var ErrInvalidConfig = errors.New("invalid config")

type Janus struct {
	URL       string        `mapstructure:"url"`
	Path      string        `mapstructure:"path"`
	Transport string        `mapstructure:"transport"`
	WSURL     string        `mapstructure:"ws_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RTPHost   string        `mapstructure:"rtp_host"`
}

type Mountpoint struct {
	ID       string `mapstructure:"id"`
	Pin      string `mapstructure:"pin"`
	AdminKey string `mapstructure:"admin_key"`
	Secret   string `mapstructure:"secret"`
	Private  bool   `mapstructure:"private"`
}

type Health struct {
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

type Relay struct {
	MTU uint16 `mapstructure:"mtu"`
}

type WHIP struct {
	Token     string        `mapstructure:"token"`
	RateLimit int           `mapstructure:"rate_limit"`
	RateEvery time.Duration `mapstructure:"rate_interval"`
}

type WebRTC struct {
	ICEServers []string `mapstructure:"ice_servers"`
}

type Config struct {
	Mode       string     `mapstructure:"mode"`
	Port       int        `mapstructure:"port"`
	LogLevel   string     `mapstructure:"log_level"`
	Janus      Janus      `mapstructure:"janus"`
	Mountpoint Mountpoint `mapstructure:"mountpoint"`
	Health     Health     `mapstructure:"health"`
	Relay      Relay      `mapstructure:"relay"`
	WHIP       WHIP       `mapstructure:"whip"`
	WebRTC     WebRTC     `mapstructure:"webrtc"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	v.SetDefault("janus.url", "http://127.0.0.1:8088")
	v.SetDefault("janus.path", "/janus")
	v.SetDefault("janus.transport", "http")
	v.SetDefault("janus.ws_url", "ws://127.0.0.1:8188")
	v.SetDefault("janus.timeout", "10s")
	v.SetDefault("janus.rtp_host", "")

	v.SetDefault("mountpoint.id", "")
	v.SetDefault("mountpoint.pin", "")
	v.SetDefault("mountpoint.admin_key", "")
	v.SetDefault("mountpoint.secret", "")
	v.SetDefault("mountpoint.private", false)

	v.SetDefault("health.poll_interval", "300s")
	v.SetDefault("health.retry_interval", "10s")

	v.SetDefault("relay.mtu", 1200)

	v.SetDefault("whip.token", "")
	v.SetDefault("whip.rate_limit", 10)
	v.SetDefault("whip.rate_interval", "1m")

	v.SetDefault("webrtc.ice_servers", []string{"stun:stun.l.google.com:19302"})
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then JANUSRELAY_*
// environment overrides. A missing file leaves the defaults in place.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("could not load .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Janus.RTPHost == "" {
		cfg.Janus.RTPHost = hostOf(cfg.Janus.URL)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("janus", cfg.Janus.URL).
		Str("transport", cfg.Janus.Transport).
		Str("mountpoint", cfg.Mountpoint.ID).
		Msg("config ready")
	return &cfg, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (c *Config) Validate() error {
	var errs []error
	if c.Mountpoint.ID == "" {
		errs = append(errs, fmt.Errorf("%w: mountpoint.id is required", ErrInvalidConfig))
	}
	switch c.Janus.Transport {
	case "http", "ws":
	default:
		errs = append(errs, fmt.Errorf("%w: janus.transport must be http or ws, got %q", ErrInvalidConfig, c.Janus.Transport))
	}
	if c.Janus.RTPHost == "" {
		errs = append(errs, fmt.Errorf("%w: janus.rtp_host is empty and janus.url has no host", ErrInvalidConfig))
	}
	if c.Janus.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: janus.timeout must be positive", ErrInvalidConfig))
	}
	if c.Relay.MTU < 128 {
		errs = append(errs, fmt.Errorf("%w: relay.mtu %d is too small", ErrInvalidConfig, c.Relay.MTU))
	}
	return errors.Join(errs...)
}

func (c *Config) MountpointConfig() domain.Mountpoint {
	return domain.Mountpoint{
		ID:       c.Mountpoint.ID,
		Pin:      c.Mountpoint.Pin,
		AdminKey: c.Mountpoint.AdminKey,
		Secret:   c.Mountpoint.Secret,
		Private:  c.Mountpoint.Private,
	}
}

// ControlURL is the base URL of the selected Janus transport.
func (c *Config) ControlURL() string {
	if c.Janus.Transport == "ws" {
		return c.Janus.WSURL
	}
	return c.Janus.URL
}
