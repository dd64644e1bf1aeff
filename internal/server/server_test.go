package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumgateway/hotelchat/internal/assistant/cache"
	"github.com/quantumgateway/hotelchat/internal/assistant/canned"
	"github.com/quantumgateway/hotelchat/internal/assistant/intents"
	"github.com/quantumgateway/hotelchat/internal/assistant/knowledge"
	"github.com/quantumgateway/hotelchat/internal/assistant/llm"
	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	"github.com/quantumgateway/hotelchat/internal/assistant/pipeline"
	"github.com/quantumgateway/hotelchat/internal/assistant/prompts"
	"github.com/quantumgateway/hotelchat/internal/assistant/repo"
	"github.com/quantumgateway/hotelchat/internal/core"
	errx "github.com/quantumgateway/hotelchat/internal/core/error"
)

const origin = "http://127.0.0.1:5500"

type stubInvoker struct {
	calls atomic.Int32
	out   string
	err   error
}

func (s *stubInvoker) Invoke(context.Context, string) (string, error) {
	s.calls.Add(1)
	return s.out, s.err
}

type panickingResolver struct{}

func (panickingResolver) Resolve(context.Context, model.ChatRequest) (*model.Resolution, error) {
	panic("unexpected")
}

func setupServer(t *testing.T, inv llm.Invoker, mutate ...func(*Deps)) *Server {
	t.Helper()
	kb, err := knowledge.Default()
	require.NoError(t, err)
	builder, err := prompts.NewBuilder(kb)
	require.NoError(t, err)

	store := cache.New(cache.DefaultMaxSize, cache.DefaultTTL)
	resolver := canned.NewResolver(canned.DefaultTemplates())
	p, err := pipeline.New(pipeline.Config{
		Cache:      store,
		Classifier: intents.NewClassifier(intents.DefaultTable()),
		Canned:     resolver,
		Prompts:    builder,
		Invoker:    inv,
		Dedupe:     true,
	})
	require.NoError(t, err)

	deps := Deps{
		Pipeline:    p,
		Cache:       store,
		Knowledge:   kb,
		Canned:      resolver,
		Pool:        llm.NewPool(2, 0),
		Environment: core.Testing,
		Backend:     model.BackendOllama,
	}
	for _, m := range mutate {
		m(&deps)
	}
	return New(model.ServerConfig{Addr: ":0", AllowedOrigin: origin}, deps)
}

func postChat(t *testing.T, srv http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestChatGreetingThenCached(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})

	w := postChat(t, srv, `{"message":"hola"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	first := decode[model.ChatResponse](t, w)
	assert.Equal(t, canned.DefaultTemplates()[intents.Saludo], first.Response)
	assert.False(t, first.Cached)

	w = postChat(t, srv, `{"message":"hola"}`)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[model.ChatResponse](t, w)
	assert.Equal(t, first.Response, second.Response)
	assert.True(t, second.Cached)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})

	for _, body := range []string{`{"message":""}`, `{"message":"   "}`, `{}`} {
		w := postChat(t, srv, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, errx.EmptyMessageMessage, decode[errorResponse](t, w).Error)
	}

	stats := httptest.NewRecorder()
	srv.ServeHTTP(stats, httptest.NewRequest(http.MethodGet, "/cache-stats", nil))
	assert.Zero(t, decode[cacheStatsResponse](t, stats).Size)
}

func TestChatRejectsMalformedJSON(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})

	w := postChat(t, srv, `{"message":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errx.InvalidRequestMessage, decode[errorResponse](t, w).Error)
}

func TestChatRejectsOversizedBody(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})

	w := postChat(t, srv, `{"message":"`+strings.Repeat("a", maxBodyBytes)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatTimeoutIsMaskedAsFallback(t *testing.T) {
	inv := &stubInvoker{err: &llm.Error{Kind: errx.ErrModelTimeout, Fallback: llm.TimeoutFallback}}
	srv := setupServer(t, inv)
	body := `{"message":"¿tienen habitaciones con vista al mar?"}`

	w := postChat(t, srv, body)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[model.ChatResponse](t, w)
	assert.Equal(t, llm.TimeoutFallback, resp.Response)
	assert.False(t, resp.Cached)

	w = postChat(t, srv, body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.ChatResponse](t, w).Cached)
	assert.Equal(t, int32(1), inv.calls.Load())
}

func TestChatPanicIsInternalError(t *testing.T) {
	srv := setupServer(t, &stubInvoker{}, func(d *Deps) {
		d.Pipeline = panickingResolver{}
	})

	w := postChat(t, srv, `{"message":"hola"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errx.SystemErrorMessage, decode[errorResponse](t, w).Error)
}

func TestChatWrongMethod(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestPageKnowledge(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})
	postChat(t, srv, `{"message":"hola"}`)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page-knowledge", nil))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[pageKnowledgeResponse](t, w)
	require.NotNil(t, resp.Knowledge)
	assert.Equal(t, "Hotel Quantum Gateway", resp.Knowledge.Hotel)
	assert.NotEmpty(t, resp.Knowledge.Sections)
	assert.Len(t, resp.Intents, len(canned.DefaultTemplates()))
	for _, in := range resp.Intents {
		assert.NotEmpty(t, in.Response, in.Label)
	}
	assert.Equal(t, 1, resp.Cache.Size)
	assert.Equal(t, cache.DefaultMaxSize, resp.Cache.MaxSize)
}

func TestCacheStats(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})
	postChat(t, srv, `{"message":"hola"}`)
	postChat(t, srv, `{"message":"hola"}`)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cache-stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[cacheStatsResponse](t, w)
	assert.Equal(t, 1, resp.Size)
	assert.Equal(t, cache.DefaultMaxSize, resp.MaxSize)
	assert.Equal(t, 60.0, resp.TTLMinutes)
	assert.Equal(t, int64(1), resp.Hits)
	assert.Equal(t, int64(1), resp.Misses)
}

func TestHealth(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[healthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "testing", resp.Environment)
	assert.Equal(t, model.BackendOllama, resp.ModelBackend)
	require.NotNil(t, resp.Pool)
	assert.Equal(t, 2, resp.Pool.Size)
}

func TestTranscriptDisabled(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/s1/transcript", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranscriptRecordedThroughChat(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	transcripts := repo.NewRedisTranscriptRepository(rdb, model.TranscriptConfig{TTL: time.Hour, MaxItems: 10})

	kb, err := knowledge.Default()
	require.NoError(t, err)
	builder, err := prompts.NewBuilder(kb)
	require.NoError(t, err)
	store := cache.New(10, time.Hour)
	resolver := canned.NewResolver(canned.DefaultTemplates())
	p, err := pipeline.New(pipeline.Config{
		Cache:       store,
		Classifier:  intents.NewClassifier(intents.DefaultTable()),
		Canned:      resolver,
		Prompts:     builder,
		Invoker:     &stubInvoker{err: errors.New("unused")},
		Transcripts: transcripts,
	})
	require.NoError(t, err)
	srv := New(model.ServerConfig{AllowedOrigin: origin}, Deps{
		Pipeline:    p,
		Cache:       store,
		Knowledge:   kb,
		Canned:      resolver,
		Transcripts: transcripts,
	})

	w := postChat(t, srv, `{"message":"hola","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/s1/transcript", nil))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[transcriptResponse](t, w)
	assert.Equal(t, "s1", resp.SessionID)
	require.Len(t, resp.Exchanges, 1)
	assert.Equal(t, "hola", resp.Exchanges[0].Message)
	assert.Equal(t, model.SourceCanned, resp.Exchanges[0].Source)
}

func TestCORS(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})

	preflight := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	preflight.Header.Set("Origin", origin)
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflight.Header.Set("Access-Control-Request-Headers", "content-type")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, preflight)
	assert.Less(t, w.Code, 300)
	assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req := httptest.NewRequest(http.MethodGet, "/cache-stats", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv := setupServer(t, &stubInvoker{})
	srv.cfg.Addr = "127.0.0.1:0"
	srv.cfg.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRequestBudget(t *testing.T) {
	assert.Zero(t, RequestBudget(model.ServerConfig{}))
	assert.Equal(t, 70*time.Second, RequestBudget(model.ServerConfig{WriteTimeout: 75 * time.Second}))
	assert.Equal(t, 1200*time.Millisecond, RequestBudget(model.ServerConfig{WriteTimeout: 1500 * time.Millisecond}))
}

// A saturated single worker with a queue wait plus model timeout longer than
// the write timeout must still answer every request before the connection
// is closed.
func TestChatAnswersWithinWriteTimeout(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	cfg := model.ServerConfig{AllowedOrigin: origin, WriteTimeout: 1500 * time.Millisecond}

	kb, err := knowledge.Default()
	require.NoError(t, err)
	builder, err := prompts.NewBuilder(kb)
	require.NoError(t, err)
	slow := llm.NewSubprocessInvoker(model.OllamaConfig{
		Binary:     "/bin/sh",
		RunCommand: "-c",
		Model:      "exec sleep 5",
	}, 600*time.Millisecond)
	pool := llm.NewPool(1, 1200*time.Millisecond)

	store := cache.New(10, time.Hour)
	resolver := canned.NewResolver(canned.DefaultTemplates())
	p, err := pipeline.New(pipeline.Config{
		Cache:      store,
		Classifier: intents.NewClassifier(intents.DefaultTable()),
		Canned:     resolver,
		Prompts:    builder,
		Invoker:    llm.NewPooledInvoker(slow, pool),
		Deadline:   RequestBudget(cfg),
	})
	require.NoError(t, err)
	srv := New(cfg, Deps{Pipeline: p, Cache: store, Knowledge: kb, Canned: resolver, Pool: pool})

	ts := httptest.NewUnstartedServer(srv)
	ts.Config.WriteTimeout = cfg.WriteTimeout
	ts.Start()
	defer ts.Close()

	messages := []string{
		"¿tienen vista al mar?",
		"¿hay cuna para bebés?",
		"¿aceptan mascotas?",
		"¿tienen ascensor?",
	}
	var wg sync.WaitGroup
	for _, msg := range messages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(model.ChatRequest{Message: msg})
			resp, err := ts.Client().Post(ts.URL+"/chat", "application/json", strings.NewReader(string(body)))
			if !assert.NoError(t, err, msg) {
				return
			}
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode, msg)

			var out model.ChatResponse
			assert.NoError(t, json.NewDecoder(resp.Body).Decode(&out), msg)
			assert.Equal(t, llm.TimeoutFallback, out.Response, msg)
		}()
	}
	wg.Wait()
}
