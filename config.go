package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	"github.com/quantumgateway/hotelchat/internal/core"
	pkgredis "github.com/quantumgateway/hotelchat/pkg/redis"
)

// AppConfig defines every configurable parameter of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config

	// Service configs
	Server     model.ServerConfig
	Cache      model.CacheConfig
	Model      model.ModelConfig
	Ollama     model.OllamaConfig
	Gemini     model.GeminiConfig
	Transcript model.TranscriptConfig
}

func (c *AppConfig) Env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

// loadConfig reads envFile if present and processes the environment. The
// returned bool reports whether envFile was found.
func loadConfig(envFile string) (*AppConfig, bool, error) {
	found := true
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, false, fmt.Errorf("load %s: %w", envFile, err)
			}
			found = false
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, found, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, found, nil
}
