package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// corsPolicy is the on-disk shape of CORS_CONFIG_FILE:
//
//	allowed_origins: [https://app.example.com]
//	allowed_methods: [GET, POST]
//	allowed_headers: [Content-Type, Authorization]
//	expose_headers:  [X-Request-ID]
//	allow_credentials: true
//	max_age: 12h
//
// Omitted keys keep their environment values.
type corsPolicy struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	ExposeHeaders    []string `yaml:"expose_headers"`
	AllowCredentials *bool    `yaml:"allow_credentials"`
	MaxAge           string   `yaml:"max_age"`
}

func applyCORSPolicyFile(dst *CORSConfig, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("CORS_CONFIG_FILE: %w", err)
	}

	var p corsPolicy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("CORS_CONFIG_FILE: parse %s: %w", path, err)
	}

	if p.AllowedOrigins != nil {
		dst.AllowedOrigins = trimAll(p.AllowedOrigins)
	}
	if p.AllowedMethods != nil {
		dst.AllowedMethods = trimAll(p.AllowedMethods)
	}
	if p.AllowedHeaders != nil {
		dst.AllowedHeaders = trimAll(p.AllowedHeaders)
	}
	if p.ExposeHeaders != nil {
		dst.ExposeHeaders = trimAll(p.ExposeHeaders)
	}
	if p.AllowCredentials != nil {
		dst.AllowCredentials = *p.AllowCredentials
	}
	if p.MaxAge != "" {
		d, err := time.ParseDuration(p.MaxAge)
		if err != nil {
			return fmt.Errorf("CORS_CONFIG_FILE: max_age: %w", err)
		}
		dst.MaxAge = d
	}
	return nil
}

// trimAll drops blank entries and surrounding whitespace.
func trimAll(in []string) []string {
	return splitCSV(strings.Join(in, ","))
}
