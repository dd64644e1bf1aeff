// Package pipeline resolves a chat message into a response: cache, intent,
// canned answer, and finally the language model with fallbacks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/quantumgateway/hotelchat/internal/assistant/cache"
	"github.com/quantumgateway/hotelchat/internal/assistant/canned"
	"github.com/quantumgateway/hotelchat/internal/assistant/enhance"
	"github.com/quantumgateway/hotelchat/internal/assistant/intents"
	"github.com/quantumgateway/hotelchat/internal/assistant/llm"
	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	"github.com/quantumgateway/hotelchat/internal/assistant/sanitize"
	errx "github.com/quantumgateway/hotelchat/internal/core/error"
	logx "github.com/quantumgateway/hotelchat/pkg/logger"
)

const (
	// GenericFallback replaces any failed or unusable model answer.
	GenericFallback = "Para esa información específica, revisa las secciones del menú superior o contáctanos " +
		"directamente por el WhatsApp del hotel desde la sección Contacto."
	// CancellationFallback replaces an unusable answer to a cancellation question.
	CancellationFallback = "Para cancelar tu reserva, abre Mis Reservas en el menú superior o comunícate con recepción " +
		"desde la sección Contacto. Ten a mano tu código de reserva y los datos de tu estadía."

	noAccessMarker = "no tengo acceso"
)

var cancellationWords = []string{"cancelar", "cancelación", "cancelacion", "cancelaste"}

// PromptBuilder renders the model prompt for a message.
type PromptBuilder interface {
	Build(ctx context.Context, message string) (string, error)
}

type Config struct {
	Cache      *cache.Store
	Classifier *intents.Classifier
	Canned     *canned.Resolver
	Prompts    PromptBuilder
	Invoker    llm.Invoker
	// Transcripts is optional; exchanges are recorded only for requests that
	// carry a session id.
	Transcripts model.TranscriptRepository
	// Dedupe makes concurrent misses for one fingerprint share a model call.
	Dedupe bool
	// Deadline bounds the whole model path, queueing included. Overruns are
	// answered with llm.TimeoutFallback. Zero leaves it to the invoker.
	Deadline time.Duration
	// NewID generates request ids, uuid by default.
	NewID func() string
}

type Pipeline struct {
	cache       *cache.Store
	classifier  *intents.Classifier
	canned      *canned.Resolver
	prompts     PromptBuilder
	invoker     llm.Invoker
	transcripts model.TranscriptRepository
	dedupe      bool
	deadline    time.Duration
	newID       func() string

	flight singleflight.Group
}

type generated struct {
	text   string
	source model.Source
}

func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Cache == nil:
		return nil, errors.New("pipeline: cache is nil")
	case cfg.Classifier == nil:
		return nil, errors.New("pipeline: classifier is nil")
	case cfg.Canned == nil:
		return nil, errors.New("pipeline: canned resolver is nil")
	case cfg.Prompts == nil:
		return nil, errors.New("pipeline: prompt builder is nil")
	case cfg.Invoker == nil:
		return nil, errors.New("pipeline: invoker is nil")
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Pipeline{
		cache:       cfg.Cache,
		classifier:  cfg.Classifier,
		canned:      cfg.Canned,
		prompts:     cfg.Prompts,
		invoker:     cfg.Invoker,
		transcripts: cfg.Transcripts,
		dedupe:      cfg.Dedupe,
		deadline:    cfg.Deadline,
		newID:       newID,
	}, nil
}

// Resolve turns req into a response. The only errors it returns are
// errx.ErrEmptyMessage (400) and internal failures (500); model failures are
// logged and answered with fallback text.
func (p *Pipeline) Resolve(ctx context.Context, req model.ChatRequest) (res *model.Resolution, err error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, errx.EmptyMessage()
	}

	requestID := p.newID()
	logger := logx.With().Str("request_id", requestID).Str("session_id", req.SessionID).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("component", "pipeline").Msgf("panic recovered: %v", r)
			res = nil
			err = errx.Internal(fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	start := time.Now()
	fp := cache.Fingerprint(message)
	res = &model.Resolution{Fingerprint: fp, RequestID: requestID}

	if cached, ok := p.cache.Get(fp); ok {
		res.Response, res.Cached, res.Source = cached, true, model.SourceCache
	} else {
		label, matched := p.classifier.Classify(message)
		res.Intent = label

		var answered bool
		if matched {
			if text, ok := p.canned.Resolve(label, req.Message); ok {
				p.cache.Put(fp, text)
				res.Response, res.Source = text, model.SourceCanned
				answered = true
			}
		}
		if !answered {
			out, err := p.generate(ctx, message, fp, &logger)
			if err != nil {
				logger.Error().Err(err).Str("fingerprint", fp).Msg("chat resolution failed")
				return nil, errx.Internal(err)
			}
			res.Response, res.Source = out.text, out.source
		}
	}

	logger.Info().
		Str("fingerprint", fp).
		Str("source", string(res.Source)).
		Str("intent", res.Intent).
		Bool("cached", res.Cached).
		Dur("elapsed", time.Since(start)).
		Msg("chat resolved")

	p.record(ctx, req.SessionID, message, res, &logger)
	return res, nil
}

func (p *Pipeline) generate(ctx context.Context, message, fp string, logger *zerolog.Logger) (generated, error) {
	if !p.dedupe {
		return p.runModel(ctx, message, fp, logger)
	}

	v, err, shared := p.flight.Do(fp, func() (any, error) {
		// one caller going away must not fail the others sharing this call
		return p.runModel(context.WithoutCancel(ctx), message, fp, logger)
	})
	if err != nil {
		return generated{}, err
	}
	if shared {
		logger.Debug().Str("fingerprint", fp).Msg("shared in-flight model call")
	}
	return v.(generated), nil
}

func (p *Pipeline) runModel(ctx context.Context, message, fp string, logger *zerolog.Logger) (generated, error) {
	if p.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deadline)
		defer cancel()
	}

	prompt, err := p.prompts.Build(ctx, message)
	if err != nil {
		return generated{}, fmt.Errorf("build prompt: %w", err)
	}

	out := generated{source: model.SourceModel}
	raw, err := p.invoker.Invoke(ctx, prompt)
	switch {
	case err != nil:
		logger.Warn().Err(err).Str("fingerprint", fp).Msg("model failed, serving fallback")
		out = generated{text: fallbackFor(err), source: model.SourceFallback}
	default:
		clean := strings.TrimSpace(sanitize.Strip(raw))
		if clean == "" || strings.Contains(strings.ToLower(clean), noAccessMarker) {
			logger.Warn().Str("fingerprint", fp).Int("raw_bytes", len(raw)).Msg("model answer unusable, serving fallback")
			out = generated{text: contextualFallback(message), source: model.SourceFallback}
		} else {
			out.text = enhance.Enhance(clean, message)
		}
	}

	p.cache.Put(fp, out.text)
	return out, nil
}

func (p *Pipeline) record(ctx context.Context, sessionID, message string, res *model.Resolution, logger *zerolog.Logger) {
	if p.transcripts == nil || sessionID == "" {
		return
	}
	err := p.transcripts.Append(ctx, sessionID, model.Exchange{
		RequestID: res.RequestID,
		Message:   message,
		Response:  res.Response,
		Source:    res.Source,
		Intent:    res.Intent,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to record transcript")
	}
}

// fallbackFor picks the text that replaces a failed model call.
func fallbackFor(err error) string {
	var invErr *llm.Error
	if errors.As(err, &invErr) && invErr.Fallback != "" {
		return invErr.Fallback
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.TimeoutFallback
	}
	return GenericFallback
}

func contextualFallback(message string) string {
	lower := strings.ToLower(message)
	for _, w := range cancellationWords {
		if strings.Contains(lower, w) {
			return CancellationFallback
		}
	}
	return GenericFallback
}
