package main

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/quantumgateway/hotelchat/internal/assistant/cache"
	"github.com/quantumgateway/hotelchat/internal/assistant/canned"
	"github.com/quantumgateway/hotelchat/internal/assistant/intents"
	"github.com/quantumgateway/hotelchat/internal/assistant/knowledge"
	"github.com/quantumgateway/hotelchat/internal/assistant/llm"
	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	"github.com/quantumgateway/hotelchat/internal/assistant/pipeline"
	"github.com/quantumgateway/hotelchat/internal/assistant/prompts"
	"github.com/quantumgateway/hotelchat/internal/assistant/repo"
	"github.com/quantumgateway/hotelchat/internal/server"
	logx "github.com/quantumgateway/hotelchat/pkg/logger"
)

// app holds the wired components shared by every command.
type app struct {
	cfg         *AppConfig
	backend     string
	cache       *cache.Store
	knowledge   *knowledge.Base
	canned      *canned.Resolver
	pool        *llm.Pool
	transcripts model.TranscriptRepository
	pipeline    *pipeline.Pipeline

	rdb *goredis.Client
}

func newApp(ctx context.Context, cfg *AppConfig) (*app, error) {
	kb, err := knowledge.Default()
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	builder, err := prompts.NewBuilder(kb)
	if err != nil {
		return nil, fmt.Errorf("build prompt template: %w", err)
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Model.Backend))
	invoker, err := newBackend(ctx, backend, cfg)
	if err != nil {
		return nil, err
	}
	pool := llm.NewPool(cfg.Model.Workers, cfg.Model.QueueTimeout)
	budget := server.RequestBudget(cfg.Server)
	if budget > 0 && cfg.Model.QueueTimeout+cfg.Model.Timeout > budget {
		logx.Warn().
			Dur("queue_timeout", cfg.Model.QueueTimeout).
			Dur("model_timeout", cfg.Model.Timeout).
			Dur("request_budget", budget).
			Msg("model waits can exceed the write timeout; long requests get the timeout fallback")
	}

	a := &app{
		cfg:       cfg,
		backend:   backend,
		cache:     cache.New(cfg.Cache.MaxSize, cfg.Cache.TTL),
		knowledge: kb,
		canned:    canned.NewResolver(canned.DefaultTemplates()),
		pool:      pool,
	}

	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.rdb = rdb
		a.transcripts = repo.NewRedisTranscriptRepository(rdb, cfg.Transcript)
		logx.Info().Msg("transcripts enabled")
	}

	a.pipeline, err = pipeline.New(pipeline.Config{
		Cache:       a.cache,
		Classifier:  intents.NewClassifier(intents.DefaultTable()),
		Canned:      a.canned,
		Prompts:     builder,
		Invoker:     llm.NewPooledInvoker(invoker, pool),
		Transcripts: a.transcripts,
		Dedupe:      cfg.Model.Dedupe,
		Deadline:    budget,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	logx.Info().
		Str("backend", backend).
		Int("workers", pool.Stats().Size).
		Dur("model_timeout", cfg.Model.Timeout).
		Int("cache_max_size", a.cache.MaxSize()).
		Dur("cache_ttl", a.cache.TTL()).
		Msg("assistant ready")
	return a, nil
}

func newBackend(ctx context.Context, backend string, cfg *AppConfig) (llm.Invoker, error) {
	switch backend {
	case model.BackendOllama:
		return llm.NewSubprocessInvoker(cfg.Ollama, cfg.Model.Timeout), nil
	case model.BackendGemini:
		chat, err := llm.NewGeminiChatModel(ctx, cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		return llm.NewChatModelInvoker(chat, cfg.Gemini.Model, cfg.Model.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", backend)
	}
}

func (a *app) server() *server.Server {
	return server.New(a.cfg.Server, server.Deps{
		Pipeline:    a.pipeline,
		Cache:       a.cache,
		Knowledge:   a.knowledge,
		Canned:      a.canned,
		Pool:        a.pool,
		Transcripts: a.transcripts,
		Environment: a.cfg.Env(),
		Backend:     a.backend,
	})
}

func (a *app) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logx.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
