package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quantumgateway/hotelchat/internal/assistant/knowledge"
	"github.com/quantumgateway/hotelchat/internal/assistant/llm"
	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	errx "github.com/quantumgateway/hotelchat/internal/core/error"
	logx "github.com/quantumgateway/hotelchat/pkg/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

type intentEntry struct {
	Label    string `json:"label"`
	Response string `json:"response"`
}

type cacheCapacity struct {
	Size    int `json:"size"`
	MaxSize int `json:"max_size"`
}

type pageKnowledgeResponse struct {
	Knowledge *knowledge.Base `json:"knowledge"`
	Intents   []intentEntry   `json:"intents"`
	Cache     cacheCapacity   `json:"cache"`
}

type cacheStatsResponse struct {
	Size       int     `json:"size"`
	MaxSize    int     `json:"max_size"`
	TTLMinutes float64 `json:"ttl_minutes"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
}

type healthResponse struct {
	Status       string         `json:"status"`
	Environment  string         `json:"environment"`
	ModelBackend string         `json:"model_backend"`
	Pool         *llm.PoolStats `json:"pool,omitempty"`
}

type transcriptResponse struct {
	SessionID string           `json:"session_id"`
	Exchanges []model.Exchange `json:"exchanges"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errx.BadRequest(err))
		return
	}

	res, err := s.deps.Pipeline.Resolve(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ChatResponse{Response: res.Response, Cached: res.Cached})
}

func (s *Server) handlePageKnowledge(w http.ResponseWriter, _ *http.Request) {
	templates := s.deps.Canned.Templates()
	labels := s.deps.Canned.Labels()
	intents := make([]intentEntry, 0, len(labels))
	for _, label := range labels {
		intents = append(intents, intentEntry{Label: label, Response: templates[label]})
	}

	writeJSON(w, http.StatusOK, pageKnowledgeResponse{
		Knowledge: s.deps.Knowledge,
		Intents:   intents,
		Cache:     cacheCapacity{Size: s.deps.Cache.Len(), MaxSize: s.deps.Cache.MaxSize()},
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	st := s.deps.Cache.Stats()
	writeJSON(w, http.StatusOK, cacheStatsResponse{
		Size:       st.Size,
		MaxSize:    st.MaxSize,
		TTLMinutes: st.TTL.Minutes(),
		Hits:       st.Hits,
		Misses:     st.Misses,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:       "ok",
		Environment:  s.deps.Environment.String(),
		ModelBackend: s.deps.Backend,
	}
	if s.deps.Pool != nil {
		st := s.deps.Pool.Stats()
		resp.Pool = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if s.deps.Transcripts == nil {
		writeError(w, errx.New(errors.New("transcripts disabled"), http.StatusNotFound, "transcripts are not enabled"))
		return
	}
	sessionID := r.PathValue("id")

	exchanges, err := s.deps.Transcripts.Load(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{SessionID: sessionID, Exchanges: exchanges})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("failed to encode response")
	}
}

// writeError writes the client-safe message of err; details stay in the logs.
func writeError(w http.ResponseWriter, err error) {
	status := errx.Status(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: errx.PublicMessage(err)})
}
