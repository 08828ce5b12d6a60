package server

import (
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tokentrim/tokentrim/internal/concept"
	"github.com/tokentrim/tokentrim/internal/optimizer"
	"github.com/tokentrim/tokentrim/internal/storage"
)

// optimizeRequest is the JSON body for POST /v1/optimize.
type optimizeRequest struct {
	Prompt              string  `json:"prompt" binding:"required"`
	OutputLanguage      string  `json:"output_language"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	AggressiveMode      bool    `json:"aggressive_mode"`
	DirectiveFormat     string  `json:"directive_format"`
}

// optimizePrompt handles POST /v1/optimize.
func (s *Server) optimizePrompt(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}
	if req.ConfidenceThreshold < 0 || req.ConfidenceThreshold > 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "confidence_threshold must be in [0, 1]",
		})
		return
	}

	engineReq := optimizer.Request{
		Prompt:              req.Prompt,
		OutputLanguage:      optimizer.Language(req.OutputLanguage),
		ConfidenceThreshold: req.ConfidenceThreshold,
		AggressiveMode:      req.AggressiveMode,
		DirectiveFormat:     optimizer.DirectiveFormat(req.DirectiveFormat),
	}
	if engineReq.OutputLanguage == "" {
		engineReq.OutputLanguage = optimizer.Language(s.cfg.Optimizer.DefaultLanguage)
	}
	if engineReq.ConfidenceThreshold == 0 {
		engineReq.ConfidenceThreshold = s.cfg.Optimizer.DefaultThreshold
	}
	if engineReq.DirectiveFormat == "" {
		engineReq.DirectiveFormat = optimizer.DirectiveFormat(s.cfg.Optimizer.DefaultDirective)
	}

	start := time.Now()
	result, err := s.engine.Optimize(c.Request.Context(), engineReq)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordOptimization(false, req.AggressiveMode, 0, 0, 0)
		}
		s.logger.Error("optimization failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "optimization_failed",
			"message": err.Error(),
		})
		return
	}

	if s.metrics != nil {
		s.metrics.RecordOptimization(true, req.AggressiveMode,
			time.Since(start).Seconds(), result.TokenSavings, result.SavingsPercentage)
		byCategory := make(map[string]int)
		for _, e := range result.Applied {
			byCategory[string(e.Category)]++
		}
		s.metrics.RecordEdits(byCategory, len(result.RequiresReview))
		s.metrics.RecordProtectedRegions(result.ProtectedRegions)
	}

	// Fold applied rule hits into persisted rule counters; best effort.
	for _, e := range result.Applied {
		if e.RuleID == "" {
			continue
		}
		if err := s.store.RecordRuleApplication(c.Request.Context(), e.RuleID, e.TokenSavings); err != nil {
			var notFound *storage.ErrNotFound
			if !errors.As(err, &notFound) {
				s.logger.Warn("failed to record rule application",
					zap.String("rule_id", e.RuleID), zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, result)
}

// feedbackRequest is the JSON body for POST /v1/feedback.
type feedbackRequest struct {
	EditID   string `json:"edit_id" binding:"required"`
	Pattern  string `json:"pattern" binding:"required"`
	Category string `json:"category"`
	RuleID   string `json:"rule_id"`
	Accepted *bool  `json:"accepted" binding:"required"`
	Note     string `json:"note"`
}

// recordFeedback handles POST /v1/feedback: it persists the decision and
// updates the in-memory corpus so future scoring reflects it immediately.
func (s *Server) recordFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	rec := &storage.FeedbackRecord{
		EditID:   req.EditID,
		Pattern:  req.Pattern,
		Category: optimizer.EditCategory(req.Category),
		RuleID:   req.RuleID,
		Accepted: *req.Accepted,
		Note:     req.Note,
	}
	if err := s.store.RecordFeedback(c.Request.Context(), rec); err != nil {
		s.logger.Error("failed to record feedback", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": err.Error(),
		})
		return
	}

	s.engine.Corpus().RecordDecision(req.Pattern, *req.Accepted)
	if s.metrics != nil {
		s.metrics.RecordFeedback(*req.Accepted)
	}

	c.JSON(http.StatusCreated, rec)
}

// listPatterns handles GET /v1/patterns: pattern frequency statistics plus
// persisted rules with their feedback-adjusted confidence.
func (s *Server) listPatterns(c *gin.Context) {
	rules, err := s.store.LoadRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": err.Error(),
		})
		return
	}

	type ruleView struct {
		storage.RuleRecord
		EffectiveConfidence float64 `json:"effective_confidence"`
	}
	views := make([]ruleView, 0, len(rules))
	for _, r := range rules {
		views = append(views, ruleView{RuleRecord: r, EffectiveConfidence: r.EffectiveConfidence()})
	}

	c.JSON(http.StatusOK, gin.H{
		"patterns": s.engine.Corpus().Snapshot(),
		"rules":    views,
	})
}

// upsertConcept handles POST /v1/concepts.
func (s *Server) upsertConcept(c *gin.Context) {
	var body concept.Concept
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}
	if body.Label == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "label is required",
		})
		return
	}

	if err := s.store.UpsertConcept(c.Request.Context(), &body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, body)
}

// getConcept handles GET /v1/concepts/:id.
func (s *Server) getConcept(c *gin.Context) {
	id := c.Param("id")
	found, err := s.store.GetConcept(c.Request.Context(), id)
	if err != nil {
		var notFound *storage.ErrNotFound
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, found)
}

// putSurfaceForm handles POST /v1/concepts/:id/forms.
func (s *Server) putSurfaceForm(c *gin.Context) {
	var form concept.SurfaceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}
	form.ConceptID = c.Param("id")
	if form.CharCount == 0 {
		form.CharCount = utf8.RuneCountInString(form.Text)
	}
	if form.Text == "" || form.TokenizerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "text and tokenizer_id are required",
		})
		return
	}

	if err := s.store.PutSurfaceForm(c.Request.Context(), &form); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, form)
}

// listSurfaceForms handles GET /v1/concepts/:id/forms. The tokenizer query
// parameter defaults to the configured tokenizer.
func (s *Server) listSurfaceForms(c *gin.Context) {
	tokenizerID := c.DefaultQuery("tokenizer", s.cfg.Optimizer.Tokenizer)
	forms, err := s.store.GetSurfaceForms(c.Request.Context(), c.Param("id"), tokenizerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"concept_id": c.Param("id"),
		"tokenizer":  tokenizerID,
		"forms":      forms,
	})
}

// getStats handles GET /v1/stats.
func (s *Server) getStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// readyHandler handles GET /ready; the server is ready when the store
// answers.
func (s *Server) readyHandler(c *gin.Context) {
	if _, err := s.store.Stats(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
