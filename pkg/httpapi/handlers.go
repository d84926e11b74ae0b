package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rayied/cora/pkg/apperrors"
)

type askRequest struct {
	Question  string `json:"question"`
	Language  string `json:"language,omitempty"`
	AppName   string `json:"app_name,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type classifyRequest struct {
	Text string `json:"text"`
}

type streamChunk struct {
	Chunk string `json:"chunk,omitempty"`
	Final any    `json:"final,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": serviceVersion})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "cora",
		"version": serviceVersion,
		"endpoints": []string{
			"GET /health",
			"POST /ask",
			"POST /ask/stream",
			"POST /classify",
		},
	})
}

// handleAsk implements spec §6's POST /ask: status 200 even for the
// "no relevant information" answer, 500 only for an unhandled engine
// error.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question field cannot be empty")
		return
	}

	result, err := s.engine.Ask(r.Context(), req.Question, req.Language, req.AppName, req.SessionID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindTimeout) {
			writeError(w, http.StatusGatewayTimeout, "request timed out")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to generate answer")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAskStream implements spec §6's POST /ask/stream: a chunked
// newline-delimited JSON stream of {"chunk": ...} events terminated by
// one {"final": AnswerResult} event.
func (s *Server) handleAskStream(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question field cannot be empty")
		return
	}

	tokens, final, err := s.engine.Stream(r.Context(), req.Question, req.Language, req.AppName, req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start answer stream")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)

	enc := json.NewEncoder(w)
	for tok := range tokens {
		enc.Encode(streamChunk{Chunk: tok})
		if canFlush {
			flusher.Flush()
		}
	}
	result := <-final
	enc.Encode(streamChunk{Final: result})
	if canFlush {
		flusher.Flush()
	}
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text field cannot be empty")
		return
	}

	result, err := s.classifier.Classify(r.Context(), req.Text)
	if err != nil {
		if apperrors.Is(err, apperrors.KindTimeout) {
			writeError(w, http.StatusGatewayTimeout, "request timed out")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to classify text")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
