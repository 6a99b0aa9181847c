// Package config loads runtime settings from .env, config.yaml and the
// environment.
package config

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"tribefeed/pkg/log"
)

// Config holds every setting the server needs.
type Config struct {
	Port            string
	LogLevel        log.Level
	CacheTTL        time.Duration
	StorePath       string
	SelectorsPath   string
	ChromePath      string
	RefreshSchedule string
	RefreshOnStart  bool
	TrackedHandles  []string
	PageSize        int
	ScrapeLimit     int
}

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Load reads .env (optional), then config.yaml from dir (optional), then
// environment variables. Keys map to env vars with '.' replaced by '_',
// e.g. server.port is SERVER_PORT.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.GlobalDebug("no .env file found, skipping")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config.yaml")
		}
		log.GlobalDebug("no config.yaml found, using defaults and environment", "dir", dir)
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("log.level", "INFO")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("store.path", "data/tribefeed.db")
	v.SetDefault("scraper.selectors", "config/selectors.yaml")
	v.SetDefault("scraper.chrome_path", "")
	v.SetDefault("refresh.schedule", "0 15,30,45 * * * *")
	v.SetDefault("refresh.on_startup", true)
	v.SetDefault("refresh.handles", []string{})
	v.SetDefault("web.page_size", 50)
	v.SetDefault("web.scrape_limit", 10)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var level log.Level
	if err := level.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return nil, errors.Wrap(err, "log.level")
	}

	cfg := &Config{
		Port:            v.GetString("server.port"),
		LogLevel:        level,
		CacheTTL:        v.GetDuration("cache.ttl"),
		StorePath:       v.GetString("store.path"),
		SelectorsPath:   v.GetString("scraper.selectors"),
		ChromePath:      v.GetString("scraper.chrome_path"),
		RefreshSchedule: v.GetString("refresh.schedule"),
		RefreshOnStart:  v.GetBool("refresh.on_startup"),
		TrackedHandles:  handles(v.GetStringSlice("refresh.handles")),
		PageSize:        v.GetInt("web.page_size"),
		ScrapeLimit:     v.GetInt("web.scrape_limit"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// handles normalises the tracked handle list. A single env var value such as
// "a,b" or "@a b" is split, and leading '@' signs are dropped.
func handles(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, h := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			if h = strings.TrimPrefix(h, "@"); h != "" {
				out = append(out, h)
			}
		}
	}
	return out
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.CacheTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.StorePath, validation.Required),
		validation.Field(&c.SelectorsPath, validation.Required),
		validation.Field(&c.RefreshSchedule, validation.Required, validation.By(cronSpec)),
		validation.Field(&c.TrackedHandles, validation.Each(validation.Match(handlePattern))),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(500)),
		validation.Field(&c.ScrapeLimit, validation.Required, validation.Min(1)),
	)
}

// cronSpec accepts six-field specs with a leading seconds field.
func cronSpec(value any) error {
	spec, _ := value.(string)
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return errors.Wrap(err, "not a valid cron schedule")
	}
	return nil
}
