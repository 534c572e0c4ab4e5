package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/eduflow/pipeline"
	"github.com/BaSui01/eduflow/types"
)

// =============================================================================
// 🌐 出题 API
// =============================================================================

// questionsRequest 出题请求负载
type questionsRequest struct {
	RequestID      string         `json:"request_id,omitempty"`
	Subject        string         `json:"subject"`
	ExamTags       []string       `json:"exam_tags,omitempty"`
	Difficulty     string         `json:"difficulty,omitempty"`
	TotalQuestions int            `json:"total_questions,omitempty"`
	Topics         []topicPayload `json:"topics"`
}

type topicPayload struct {
	Topic         string `json:"topic"`
	NoOfQuestions int    `json:"no_of_questions"`
}

// questionsResponse 出题响应负载
type questionsResponse struct {
	RequestID      string        `json:"request_id"`
	Subject        string        `json:"subject"`
	CachedTotal    int           `json:"cached_total"`
	GeneratedTotal int           `json:"generated_total"`
	Topics         []topicResult `json:"topics"`
}

type topicResult struct {
	Topic     string                 `json:"topic"`
	Requested int                    `json:"requested"`
	FromCache int                    `json:"from_cache"`
	Generated int                    `json:"generated"`
	Questions []types.CachedQuestion `json:"questions"`
}

// handleQuestions 处理 POST /api/v1/questions
func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req questionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subject == "" {
		writeJSONError(w, http.StatusBadRequest, "subject is required")
		return
	}
	if len(req.Topics) == 0 {
		writeJSONError(w, http.StatusBadRequest, "at least one topic is required")
		return
	}

	topics := make([]*types.TopicRequest, len(req.Topics))
	for i, t := range req.Topics {
		if t.Topic == "" {
			writeJSONError(w, http.StatusBadRequest, "topic name is required")
			return
		}
		topics[i] = &types.TopicRequest{
			TopicName:     t.Topic,
			NoOfQuestions: t.NoOfQuestions,
		}
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = RequestIDFromContext(r.Context())
	}

	resp, err := s.currentPipeline().Run(r.Context(), pipeline.Request{
		RequestID:      requestID,
		Subject:        req.Subject,
		ExamTags:       req.ExamTags,
		Difficulty:     req.Difficulty,
		TotalQuestions: req.TotalQuestions,
		Topics:         topics,
	})
	if err != nil {
		s.logger.Error("question request failed",
			zap.String("subject", req.Subject), zap.Error(err))
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	out := questionsResponse{
		RequestID:      resp.RequestID,
		Subject:        resp.Subject,
		CachedTotal:    resp.CachedTotal,
		GeneratedTotal: resp.GeneratedTotal,
		Topics:         make([]topicResult, len(resp.Topics)),
	}
	for i, t := range resp.Topics {
		out.Topics[i] = topicResult{
			Topic:     t.Topic,
			Requested: t.Requested,
			FromCache: t.FromCache,
			Generated: t.Generated,
			Questions: t.Questions,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Error("response encode failed", zap.Error(err))
	}
}

// handleHealth 处理 /health：探活存储连接
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// handleVersion 处理 /version
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})
}
