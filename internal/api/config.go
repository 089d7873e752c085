// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/alvinbaena/breach-checker/internal/limiter"
	"github.com/alvinbaena/breach-checker/internal/util"
	"github.com/alvinbaena/breach-checker/pkg/hibp"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT" validate:"required"`
	APIKey          string        `mapstructure:"HIBP_API_KEY" validate:"required"`
	APIURL          string        `mapstructure:"HIBP_API_URL" validate:"required,url"`
	RangeURL        string        `mapstructure:"HIBP_RANGE_URL" validate:"required,url"`
	UserAgent       string        `mapstructure:"HIBP_USER_AGENT" validate:"required"`
	Timeout         time.Duration `mapstructure:"HIBP_TIMEOUT" validate:"gt=0"`
	RateLimitWindow time.Duration `mapstructure:"RATE_LIMIT_WINDOW" validate:"gt=0"`
	RateLimitMax    int           `mapstructure:"RATE_LIMIT_MAX" validate:"gt=0"`
	RedisURL        string        `mapstructure:"RATE_LIMIT_REDIS_URL" validate:"omitempty,url"`
	SelfTLS         bool          `mapstructure:"SELF_TLS" validate:"required_without_all=TLSCert TLSKey PlainHTTP"`
	TLSCert         string        `mapstructure:"TLS_CERT" validate:"required_with=TLSKey"`
	TLSKey          string        `mapstructure:"TLS_KEY" validate:"required_with=TLSCert"`
	PlainHTTP       bool          `mapstructure:"PLAIN_HTTP"`
	TrustedProxies  []string      `mapstructure:"TRUSTED_PROXIES" validate:"omitempty,dive,ip|cidr"`
	Debug           bool          `mapstructure:"DEBUG"`
}

// HIBP is the client configuration carried by this config.
func (c Config) HIBP() hibp.Config {
	return hibp.Config{
		APIKey:    c.APIKey,
		APIURL:    c.APIURL,
		RangeURL:  c.RangeURL,
		UserAgent: c.UserAgent,
		Timeout:   c.Timeout,
	}
}

func bindEnvs(v *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		fv := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch fv.Kind() {
		case reflect.Struct:
			bindEnvs(v, fv.Interface(), append(parts, tv)...)
		default:
			_ = v.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

// NewViper returns a viper instance reading the configuration from the environment, with
// the defaults already set. Command flags can be bound on top of it.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "3100")
	v.SetDefault("HIBP_API_URL", hibp.DefaultAPIURL)
	v.SetDefault("HIBP_RANGE_URL", hibp.DefaultRangeURL)
	v.SetDefault("HIBP_USER_AGENT", hibp.DefaultUserAgent)
	v.SetDefault("HIBP_TIMEOUT", hibp.DefaultTimeout)
	v.SetDefault("RATE_LIMIT_WINDOW", limiter.DefaultWindow)
	v.SetDefault("RATE_LIMIT_MAX", limiter.DefaultMaxRequests)

	// This is to not require a config file to unmarshal Envs in a struct
	// https://github.com/spf13/viper/issues/188#issuecomment-399884438
	bindEnvs(v, Config{})
	return v
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "required_without_all":
		return fmt.Sprintf("This field is required if fields [%s] are missing", util.ToScreamingSnakeCase(fe.Param()))
	case "required_if":
		return fmt.Sprintf("This field is required if %s", util.ToScreamingSnakeCase(fe.Param()))
	case "required_with":
		return fmt.Sprintf("This field requires the presence of %s", util.ToScreamingSnakeCase(fe.Param()))
	case "url":
		return "This field must be a valid URL"
	case "ip|cidr":
		return "This field must be an IP address or a CIDR range"
	case "gt":
		return fmt.Sprintf("This field must be greater than %s", fe.Param())
	}
	return fe.Error() // default error
}

// LoadConfig reads and validates the configuration. Validation failures are reported all
// at once, one sentence per variable.
func LoadConfig(v *viper.Viper) (config Config, err error) {
	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("error reading configuration: %w", err)
	}

	validate := validator.New()
	// Report the environment variable names instead of the Go field names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name, ok := field.Tag.Lookup("mapstructure"); ok {
			return name
		}
		return field.Name
	})

	if err = validate.Struct(&config); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			var msgs []string
			for _, fe := range ve {
				msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), msgForTag(fe)))
			}
			return config, errors.New(strings.Join(msgs, ". "))
		}
		return config, fmt.Errorf("error validating configuration: %w", err)
	}

	return config, nil
}

// LoadClientConfig reads only the HIBP client settings, for commands that don't start the
// server. The API key is only required by the authenticated lookups.
func LoadClientConfig(v *viper.Viper, requireKey bool) (hibp.Config, error) {
	cfg := hibp.Config{
		APIKey:    v.GetString("HIBP_API_KEY"),
		APIURL:    v.GetString("HIBP_API_URL"),
		RangeURL:  v.GetString("HIBP_RANGE_URL"),
		UserAgent: v.GetString("HIBP_USER_AGENT"),
		Timeout:   v.GetDuration("HIBP_TIMEOUT"),
	}

	if requireKey && cfg.APIKey == "" {
		return cfg, errors.New("HIBP_API_KEY: This field is required")
	}
	if cfg.Timeout <= 0 {
		return cfg, errors.New("HIBP_TIMEOUT: This field must be greater than 0")
	}
	return cfg, nil
}
