package appconf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"gtfstoosm.onebusaway.org/internal/convert"
	"gtfstoosm.onebusaway.org/internal/utils"
)

// EnvPrefix is the prefix of environment variables read into Config.
const EnvPrefix = "GTFSTOOSM"

// Config holds the runtime configuration of the command line tool and the
// HTTP service. Values come from .gtfstoosm.yaml, GTFSTOOSM_* environment
// variables and command line flags, in increasing order of precedence.
type Config struct {
	EnvName   string      `mapstructure:"env" validate:"oneof=development test production prod"`
	Env       Environment `mapstructure:"-"`
	LogLevel  string      `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string      `mapstructure:"log_format" validate:"oneof=json text"`
	Verbose   bool        `mapstructure:"verbose"`

	Input       string        `mapstructure:"input"`
	Output      string        `mapstructure:"output"`
	Report      string        `mapstructure:"report"`
	FeedTimeout time.Duration `mapstructure:"feed_timeout"`

	OSMDBPath       string        `mapstructure:"osm_db"`
	OverpassURL     string        `mapstructure:"overpass_url" validate:"omitempty,url"`
	OverpassTimeout time.Duration `mapstructure:"overpass_timeout"`

	Port      int      `mapstructure:"port" validate:"gte=0,lte=65535"`
	ApiKeys   []string `mapstructure:"api_keys"`
	RateLimit int      `mapstructure:"rate_limit" validate:"gte=0"`
	// MaxUploadBytes bounds the feed archive accepted by the HTTP service.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"gt=0"`

	Convert      convert.Options `mapstructure:",squash"`
	RelationTags string          `mapstructure:"relation_tags"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("output", "output/routes.osc")
	v.SetDefault("feed_timeout", 2*time.Minute)
	v.SetDefault("overpass_timeout", 30*time.Second)
	v.SetDefault("port", 4000)
	v.SetDefault("api_keys", []string{"test"})
	v.SetDefault("rate_limit", 100)
	v.SetDefault("max_upload_bytes", int64(200<<20))
	v.SetDefault("stop_search_radius", utils.MaxSearchRadiusMeters)
}

var validate = validator.New()

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error reading configuration: %w", err)
	}

	cfg.ApiKeys = splitList(cfg.ApiKeys)
	cfg.Env = EnvFlagToEnvironment(cfg.EnvName)
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return Config{}, fmt.Errorf("invalid configuration for %s: value %v fails %q constraint", fe.Field(), fe.Value(), fe.Tag())
		}
		return Config{}, err
	}
	return cfg, nil
}

// ConvertOptions returns the conversion options with relation tags parsed
// from their "key=value;key=value" form. The options are not validated.
func (c Config) ConvertOptions() convert.Options {
	opts := c.Convert
	if c.RelationTags != "" {
		opts.RelationTags = utils.ParseTagString(c.RelationTags)
	}
	return opts
}

// splitList accepts both list values and single comma separated strings,
// as produced by environment variables.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
