package apihttp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cryptopredict/internal/causal"
	"cryptopredict/internal/chat"
	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/gateway/provider"
	"cryptopredict/internal/inference"
	"cryptopredict/internal/logger"
	symbolpkg "cryptopredict/internal/pkg/symbol"
	"cryptopredict/internal/prediction"
	"cryptopredict/internal/predline"
	"cryptopredict/internal/sentiment"

	"github.com/gin-gonic/gin"
)

const (
	detailVIPOnly       = "This feature is only available for VIP users. Please upgrade your account."
	detailChatDown      = "AI chat service is temporarily unavailable. Please contact support."
	detailLineDown      = "AI prediction service is temporarily unavailable. Please configure OPENAI_API_KEY."
	detailInternalError = "An internal error occurred. Please try again later."
)

type PollResolver interface {
	Resolve(ctx context.Context, symbol string, clientTs *time.Time) prediction.Resolution
}

type OneShotPredictor interface {
	Predict(ctx context.Context, symbol string, limit int) (prediction.Record, []crawler.NewsItem, error)
}

type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string, forceFallback bool) inference.SentimentResult
	Batch(ctx context.Context, texts []string, forceFallback bool) []inference.SentimentResult
}

type CausalAnalyzer interface {
	Analyze(ctx context.Context, req causal.Request) (causal.Result, error)
}

type LineGenerator interface {
	Generate(ctx context.Context, req predline.Request) (predline.Result, error)
}

type ChatService interface {
	Send(ctx context.Context, conversationID, text string) (chat.Reply, error)
	Clear(ctx context.Context, conversationID string) error
}

// Handlers groups the endpoint implementations. Nil dependencies leave the
// matching routes unregistered.
type Handlers struct {
	Poll      PollResolver
	Predictor OneShotPredictor
	Sentiment SentimentAnalyzer
	Causal    CausalAnalyzer
	Line      LineGenerator
	Chat      ChatService
	Version   string
	Env       string
}

type pollRequest struct {
	Symbol             string `json:"symbol" binding:"required,min=1,max=20"`
	LastPredictionTime string `json:"last_prediction_time"`
	Timeout            *int   `json:"timeout" binding:"omitempty,min=5,max=120"`
}

func (h *Handlers) pollPrediction(c *gin.Context) {
	var req pollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBinding(c, err)
		return
	}
	symbol, ok := canonicalSymbol(c, req.Symbol)
	if !ok {
		return
	}
	var clientTs *time.Time
	if raw := strings.TrimSpace(req.LastPredictionTime); raw != "" {
		ts, ok := crawler.ParsePublished(raw)
		if !ok {
			abortValidation(c, FieldError{Field: "last_prediction_time", Message: "must be an ISO-8601 timestamp"})
			return
		}
		clientTs = &ts
	}
	c.JSON(http.StatusOK, h.Poll.Resolve(c.Request.Context(), symbol, clientTs))
}

// predictRequest accepts include_historical_price but the response always
// carries a null historical_price.
type predictRequest struct {
	Symbol                 string `json:"symbol" binding:"required,min=1,max=20"`
	Limit                  *int   `json:"limit" binding:"omitempty,min=1,max=50"`
	IncludeHistoricalPrice bool   `json:"include_historical_price"`
}

type predictResponse struct {
	Success         bool               `json:"success"`
	Prediction      prediction.Record  `json:"prediction"`
	NewsArticles    []crawler.NewsItem `json:"news_articles"`
	HistoricalPrice *float64           `json:"historical_price"`
}

func (h *Handlers) predictPrice(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBinding(c, err)
		return
	}
	symbol, ok := canonicalSymbol(c, req.Symbol)
	if !ok {
		return
	}
	rec, news, err := h.Predictor.Predict(c.Request.Context(), symbol, orDefault(req.Limit, 10))
	switch {
	case errors.Is(err, prediction.ErrNoArticles):
		abortError(c, http.StatusBadRequest, codeNoArticles, "No news articles found for "+symbol)
		return
	case err != nil:
		h.internalError(c, "predict-price", err)
		return
	}
	c.JSON(http.StatusOK, predictResponse{Success: true, Prediction: rec, NewsArticles: news})
}

type sentimentRequest struct {
	Text string `json:"text" binding:"required,min=1,max=10000"`
}

func (h *Handlers) analyzeSentiment(c *gin.Context) {
	var req sentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBinding(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Sentiment.Analyze(c.Request.Context(), req.Text, false))
}

type quickQuery struct {
	Text      string `form:"text" binding:"required,min=1,max=10000"`
	UseOpenAI *bool  `form:"use_openai"`
}

func (h *Handlers) quickSentiment(c *gin.Context) {
	var q quickQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortBinding(c, err)
		return
	}
	force := q.UseOpenAI != nil && !*q.UseOpenAI
	c.JSON(http.StatusOK, h.Sentiment.Analyze(c.Request.Context(), q.Text, force))
}

func (h *Handlers) batchSentiment(c *gin.Context) {
	var texts []string
	if err := c.ShouldBindJSON(&texts); err != nil {
		abortBinding(c, err)
		return
	}
	if len(texts) > sentiment.MaxBatch {
		abortValidation(c, FieldError{Field: "body", Message: "at most 10 texts per batch"})
		return
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			abortValidation(c, FieldError{Field: "body", Message: "texts must not be empty"})
			return
		}
	}
	c.JSON(http.StatusOK, h.Sentiment.Batch(c.Request.Context(), texts, false))
}

type causalRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=500"`
	Content     string `json:"content" binding:"required,min=1"`
	PublishedAt string `json:"published_at" binding:"required"`
	Symbol      string `json:"symbol" binding:"required,min=1,max=20"`
	HoursBefore *int   `json:"hours_before" binding:"omitempty,min=1,max=168"`
	HoursAfter  *int   `json:"hours_after" binding:"omitempty,min=1,max=168"`
	Horizon     string `json:"prediction_horizon" binding:"omitempty,oneof=1h 4h 24h 7d"`
}

type causalResponse struct {
	Success bool          `json:"success"`
	Data    causal.Result `json:"data"`
	Message string        `json:"message"`
}

func (h *Handlers) analyzeCausal(c *gin.Context) {
	var req causalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBinding(c, err)
		return
	}
	symbol, ok := canonicalSymbol(c, req.Symbol)
	if !ok {
		return
	}
	published, ok := crawler.ParsePublished(req.PublishedAt)
	if !ok {
		abortValidation(c, FieldError{Field: "published_at", Message: "must be an ISO-8601 timestamp"})
		return
	}
	res, err := h.Causal.Analyze(c.Request.Context(), causal.Request{
		Title:       req.Title,
		Content:     req.Content,
		PublishedAt: published,
		Symbol:      symbol,
		HoursBefore: orDefault(req.HoursBefore, 24),
		HoursAfter:  orDefault(req.HoursAfter, 24),
		Horizon:     orDefaultString(req.Horizon, "24h"),
	})
	if err != nil {
		h.internalError(c, "causal", err)
		return
	}
	c.JSON(http.StatusOK, causalResponse{Success: true, Data: res, Message: "Causal analysis completed successfully"})
}

type lineRequest struct {
	Symbol    string `json:"symbol" binding:"required,min=1,max=20"`
	Interval  string `json:"interval" binding:"omitempty,oneof=1m 5m 15m 30m 1h 4h 1d 1w"`
	Periods   *int   `json:"periods" binding:"omitempty,min=4,max=100"`
	NewsLimit *int   `json:"news_limit" binding:"omitempty,min=1,max=50"`
}

func (h *Handlers) predictionLine(c *gin.Context) {
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBinding(c, err)
		return
	}
	symbol, ok := canonicalSymbol(c, req.Symbol)
	if !ok {
		return
	}
	res, err := h.Line.Generate(c.Request.Context(), predline.Request{
		Symbol:    symbol,
		Interval:  orDefaultString(req.Interval, "1h"),
		Periods:   orDefault(req.Periods, 24),
		NewsLimit: orDefault(req.NewsLimit, 10),
	})
	switch {
	case errors.Is(err, provider.ErrNotConfigured):
		abortError(c, http.StatusServiceUnavailable, codeUnavailable, detailLineDown)
		return
	case errors.Is(err, predline.ErrNoMarketData):
		abortError(c, http.StatusBadRequest, codeNoMarketData, "No market data available for "+symbol)
		return
	case errors.Is(err, predline.ErrUpstream):
		logger.Warnf("[api] prediction-line %s: %v", symbol, err)
		abortError(c, http.StatusBadGateway, codeUpstream, "Prediction model returned an unusable response")
		return
	case err != nil:
		h.internalError(c, "prediction-line", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type chatRequest struct {
	Message        string `json:"message" binding:"required,min=1,max=2000"`
	ConversationID string `json:"conversation_id" binding:"omitempty,max=64"`
}

func (h *Handlers) sendChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBinding(c, err)
		return
	}
	reply, err := h.Chat.Send(c.Request.Context(), req.ConversationID, req.Message)
	switch {
	case errors.Is(err, provider.ErrNotConfigured):
		abortError(c, http.StatusServiceUnavailable, codeUnavailable, detailChatDown)
		return
	case err != nil:
		h.internalError(c, "chat", err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *Handlers) deleteChat(c *gin.Context) {
	id := strings.TrimSpace(c.Param("conversation_id"))
	if id == "" {
		abortError(c, http.StatusBadRequest, codeBadRequest, "conversation_id is required")
		return
	}
	if err := h.Chat.Clear(c.Request.Context(), id); err != nil {
		h.internalError(c, "chat delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"version":     h.Version,
		"environment": h.Env,
	})
}

func liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) internalError(c *gin.Context, op string, err error) {
	logger.Errorf("[api] %s failed: %v", op, err)
	abortError(c, http.StatusInternalServerError, codeInternal, detailInternalError)
}

// canonicalSymbol trims and uppercases raw, aborting with 422 when nothing is left.
func canonicalSymbol(c *gin.Context, raw string) (string, bool) {
	symbol := symbolpkg.Canonical(raw)
	if symbol == "" {
		abortValidation(c, FieldError{Field: "symbol", Message: "must not be blank"})
		return "", false
	}
	return symbol, true
}

func orDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func orDefaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
