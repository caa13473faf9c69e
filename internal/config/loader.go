package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "APPLYFLOW_"
	envConfigPath = "APPLYFLOW_CONFIG"
	envNestDelim  = "__"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. YAML file at path, or at APPLYFLOW_CONFIG when path is empty
//  3. env (prefix APPLYFLOW_, "__" separates nested keys)
func Load(_ context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrLoadConfig, path, err)
		}
	}

	// APPLYFLOW_ADZUNA__APP_ID -> adzuna.app_id
	envProvider := env.ProviderWithValue(envPrefix, ".", envValue)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	resetOverriddenLists(k, cfg)
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints declared in struct tags.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// listKeys are decoded from comma-separated env values.
var listKeys = []string{
	"greenhouse.companies",
	"greenhouse.keywords",
	"profile.skills",
	"profile.domains",
	"profile.certifications",
	"vocabulary",
}

func envValue(key, value string) (string, interface{}) {
	key = envKey(key)
	if !slices.Contains(listKeys, key) {
		return key, value
	}
	return key, splitList(value)
}

func splitList(value string) []string {
	out := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, strings.ToLower(envNestDelim), ".")
}

// resetOverriddenLists drops default slices that the loaded sources replace,
// so a shorter list does not inherit trailing default elements.
func resetOverriddenLists(k *koanf.Koanf, cfg *Config) {
	lists := map[string]*[]string{
		"greenhouse.companies":   &cfg.Greenhouse.Companies,
		"greenhouse.keywords":    &cfg.Greenhouse.Keywords,
		"profile.skills":         &cfg.Profile.Skills,
		"profile.domains":        &cfg.Profile.Domains,
		"profile.certifications": &cfg.Profile.Certifications,
		"vocabulary":             &cfg.Vocabulary,
	}
	for key, list := range lists {
		if k.Exists(key) {
			*list = nil
		}
	}
}
