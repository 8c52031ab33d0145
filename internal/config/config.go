// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"PREMISD_DB_PATH" envDefault:"./data/premisd.db"`
	ServerHost string `env:"PREMISD_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"PREMISD_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"PREMISD_ENV" envDefault:"development"`
	LogLevel   string `env:"PREMISD_LOG_LEVEL" envDefault:"info"`

	// BaseURL is the externally visible root used when building Atom ids,
	// Location headers, and pagination links, e.g. "http://coda.example.com".
	// When empty, the request Host header is used.
	BaseURL string `env:"PREMISD_BASE_URL"`

	// Feed configuration
	FeedPerPage int    `env:"PREMISD_FEED_PER_PAGE" envDefault:"20"`
	FeedAuthor  string `env:"PREMISD_FEED_AUTHOR" envDefault:"Premis Event Service"`

	// PREMIS vocabulary labels stamped into outbound XML.
	EventIDType     string `env:"PREMISD_EVENT_ID_TYPE" envDefault:"http://purl.org/net/untl/vocabularies/identifier-qualifiers/#UUID"`
	LinkAgentIDType string `env:"PREMISD_LINK_AGENT_ID_TYPE" envDefault:"http://purl.org/net/untl/vocabularies/identifier-qualifiers/#URL"`
	LinkAgentRole   string `env:"PREMISD_LINK_AGENT_ROLE" envDefault:"http://purl.org/net/untl/vocabularies/linkingAgentRoles/#executingProgram"`
	AgentIDType     string `env:"PREMISD_AGENT_ID_TYPE" envDefault:"PES:Agent"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.FeedPerPage < 1 {
		return nil, fmt.Errorf("PREMISD_FEED_PER_PAGE must be positive, got %d", cfg.FeedPerPage)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return cfg, nil
}
