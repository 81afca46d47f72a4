package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cryptopredict/internal/causal"
	"cryptopredict/internal/chat"
	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/gateway/provider"
	"cryptopredict/internal/inference"
	"cryptopredict/internal/prediction"
	"cryptopredict/internal/predline"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePoll struct {
	symbol   string
	clientTs *time.Time
	res      prediction.Resolution
	panics   bool
}

func (f *fakePoll) Resolve(_ context.Context, symbol string, clientTs *time.Time) prediction.Resolution {
	if f.panics {
		panic("store exploded")
	}
	f.symbol, f.clientTs = symbol, clientTs
	return f.res
}

type fakePredictor struct {
	symbol string
	limit  int
	err    error
}

func (f *fakePredictor) Predict(_ context.Context, symbol string, limit int) (prediction.Record, []crawler.NewsItem, error) {
	f.symbol, f.limit = symbol, limit
	if f.err != nil {
		return prediction.Record{}, nil, f.err
	}
	rec := prediction.Record{Symbol: symbol, Direction: inference.DirectionBullish, Confidence: 0.7}
	return rec, []crawler.NewsItem{{ID: "1", Title: "ETF inflows"}}, nil
}

type fakeSentiment struct {
	forced bool
}

func (f *fakeSentiment) Analyze(_ context.Context, text string, force bool) inference.SentimentResult {
	f.forced = force
	return inference.SentimentResult{Label: "neutral", Score: 0.5, Confidence: 0.5, ModelVersion: "test"}
}

func (f *fakeSentiment) Batch(_ context.Context, texts []string, force bool) []inference.SentimentResult {
	out := make([]inference.SentimentResult, len(texts))
	for i := range texts {
		out[i] = inference.SentimentResult{Label: "neutral", Score: 0.5}
	}
	return out
}

type fakeCausal struct {
	req causal.Request
}

func (f *fakeCausal) Analyze(_ context.Context, req causal.Request) (causal.Result, error) {
	f.req = req
	return causal.Result{Symbol: req.Symbol}, nil
}

type fakeLine struct {
	req predline.Request
	err error
}

func (f *fakeLine) Generate(_ context.Context, req predline.Request) (predline.Result, error) {
	f.req = req
	if f.err != nil {
		return predline.Result{}, f.err
	}
	return predline.Result{Success: true, Symbol: req.Symbol, Interval: req.Interval}, nil
}

type fakeChat struct {
	err     error
	cleared string
}

func (f *fakeChat) Send(_ context.Context, id, text string) (chat.Reply, error) {
	if f.err != nil {
		return chat.Reply{}, f.err
	}
	if id == "" {
		id = "new"
	}
	return chat.Reply{ConversationID: id, Message: chat.Message{Role: "assistant", Content: "hi"}, TotalMessages: 2}, nil
}

func (f *fakeChat) Clear(_ context.Context, id string) error {
	f.cleared = id
	return nil
}

type fixture struct {
	poll   *fakePoll
	pred   *fakePredictor
	sent   *fakeSentiment
	causal *fakeCausal
	line   *fakeLine
	chat   *fakeChat
	router *gin.Engine
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		poll:   &fakePoll{res: prediction.Resolution{Success: true, HasNewData: true, NextPollAfter: 300}},
		pred:   &fakePredictor{},
		sent:   &fakeSentiment{},
		causal: &fakeCausal{},
		line:   &fakeLine{},
		chat:   &fakeChat{},
	}
	f.router = NewRouter(&Handlers{
		Poll:      f.poll,
		Predictor: f.pred,
		Sentiment: f.sent,
		Causal:    f.causal,
		Line:      f.line,
		Chat:      f.chat,
		Version:   "test",
	})
	return f
}

func (f *fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPollUppercasesSymbolAndParsesTimestamp(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/ai/predict-price-poll",
		`{"symbol":"btcusdt","last_prediction_time":"2024-05-01T10:00:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BTCUSDT", f.poll.symbol)
	require.NotNil(t, f.poll.clientTs)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), f.poll.clientTs.UTC())

	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, true, res["has_new_data"])
	assert.EqualValues(t, 300, res["next_poll_after"])
	assert.Contains(t, res, "prediction")
}

func TestPollValidation(t *testing.T) {
	f := newFixture()
	cases := map[string]string{
		"missing symbol": `{}`,
		"long symbol":    `{"symbol":"ABCDEFGHIJKLMNOPQRSTUVWXYZ"}`,
		"short timeout":  `{"symbol":"BTCUSDT","timeout":1}`,
		"bad timestamp":  `{"symbol":"BTCUSDT","last_prediction_time":"yesterday"}`,
		"malformed":      `{"symbol":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/v1/ai/predict-price-poll", body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			errBody := decodeError(t, rec)
			assert.Equal(t, codeValidation, errBody.ErrorCode)
			assert.NotEmpty(t, errBody.Errors)
		})
	}
}

func TestRecoveryAnswersEnvelope(t *testing.T) {
	f := newFixture()
	f.poll.panics = true
	rec := f.do(http.MethodPost, "/api/v1/ai/predict-price-poll", `{"symbol":"BTCUSDT"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, codeInternal, body.ErrorCode)
	assert.NotContains(t, body.Detail, "exploded")
}

func TestPredictPriceDefaultsLimit(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/ai/predict-price", `{"symbol":"ethusdt"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, f.pred.limit)

	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, true, res["success"])
	assert.Nil(t, res["historical_price"])
	assert.Len(t, res["news_articles"], 1)
}

func TestSymbolsAreTrimmedAndUppercased(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/ai/predict-price-poll", `{"symbol":" btcusdt "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BTCUSDT", f.poll.symbol)

	rec = f.do(http.MethodPost, "/api/v1/ai/predict-price", `{"symbol":"\tethusdt\n"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ETHUSDT", f.pred.symbol)

	rec = f.do(http.MethodPost, "/api/v1/causal/analyze/direct",
		`{"title":"t","content":"c","published_at":"2024-05-01T10:00:00Z","symbol":" solusdt"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SOLUSDT", f.causal.req.Symbol)

	rec = f.do(http.MethodPost, "/api/v1/ai/prediction-line", `{"symbol":"bnbusdt  "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BNBUSDT", f.line.req.Symbol)
}

func TestBlankSymbolRejected(t *testing.T) {
	f := newFixture()
	for _, path := range []string{"/api/v1/ai/predict-price-poll", "/api/v1/ai/predict-price", "/api/v1/ai/prediction-line"} {
		rec := f.do(http.MethodPost, path, `{"symbol":"   "}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, path)
		body := decodeError(t, rec)
		require.Len(t, body.Errors, 1, path)
		assert.Equal(t, "symbol", body.Errors[0].Field)
	}
	assert.Empty(t, f.poll.symbol)
}

func TestExplicitZeroIsRejected(t *testing.T) {
	f := newFixture()
	cases := map[string]struct {
		path string
		body string
	}{
		"limit":        {"/api/v1/ai/predict-price", `{"symbol":"BTCUSDT","limit":0}`},
		"periods":      {"/api/v1/ai/prediction-line", `{"symbol":"BTCUSDT","periods":0}`},
		"news limit":   {"/api/v1/ai/prediction-line", `{"symbol":"BTCUSDT","news_limit":0}`},
		"hours before": {"/api/v1/causal/analyze/direct", `{"title":"t","content":"c","published_at":"2024-05-01T10:00:00Z","symbol":"BTCUSDT","hours_before":0}`},
		"hours after":  {"/api/v1/causal/analyze/direct", `{"title":"t","content":"c","published_at":"2024-05-01T10:00:00Z","symbol":"BTCUSDT","hours_after":0}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, codeValidation, decodeError(t, rec).ErrorCode)
		})
	}
	assert.Zero(t, f.pred.limit)
}

func TestExplicitValuesPassThrough(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/ai/predict-price", `{"symbol":"BTCUSDT","limit":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.pred.limit)

	rec = f.do(http.MethodPost, "/api/v1/causal/analyze/direct",
		`{"title":"t","content":"c","published_at":"2024-05-01T10:00:00Z","symbol":"BTCUSDT","hours_before":168,"hours_after":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 168, f.causal.req.HoursBefore)
	assert.Equal(t, 1, f.causal.req.HoursAfter)
}

func TestPredictPriceNoArticles(t *testing.T) {
	f := newFixture()
	f.pred.err = prediction.ErrNoArticles
	rec := f.do(http.MethodPost, "/api/v1/ai/predict-price", `{"symbol":"BTCUSDT"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeNoArticles, decodeError(t, rec).ErrorCode)
}

func TestInternalErrorDoesNotLeakDetail(t *testing.T) {
	f := newFixture()
	f.pred.err = errors.New("sqlite: disk I/O error")
	rec := f.do(http.MethodPost, "/api/v1/ai/predict-price", `{"symbol":"BTCUSDT"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, codeInternal, body.ErrorCode)
	assert.NotContains(t, body.Detail, "sqlite")
}

func TestQuickSentimentUseOpenAIFalseForcesFallback(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/ai/analyze/quick?text=bitcoin+rally&use_openai=false", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.sent.forced)

	rec = f.do(http.MethodPost, "/api/v1/ai/analyze/quick?text=bitcoin+rally", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.sent.forced)
}

func TestBatchSentimentLimit(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/ai/analyze/batch", `["a","b"]`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res, 2)

	texts := make([]string, 11)
	for i := range texts {
		texts[i] = fmt.Sprintf("%q", "text")
	}
	rec = f.do(http.MethodPost, "/api/v1/ai/analyze/batch", "["+strings.Join(texts, ",")+"]")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSentimentRejectsEmptyText(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/sentiment/analyze", `{"text":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errBody := decodeError(t, rec)
	require.Len(t, errBody.Errors, 1)
	assert.Equal(t, "text", errBody.Errors[0].Field)
}

func TestCausalAppliesDefaults(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/causal/analyze/direct",
		`{"title":"ETF approved","content":"SEC approves","published_at":"2024-05-01T10:00:00Z","symbol":"btcusdt"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BTCUSDT", f.causal.req.Symbol)
	assert.Equal(t, 24, f.causal.req.HoursBefore)
	assert.Equal(t, 24, f.causal.req.HoursAfter)
	assert.Equal(t, "24h", f.causal.req.Horizon)

	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Causal analysis completed successfully", res["message"])
}

func TestCausalRejectsBadHorizon(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/causal/analyze/direct",
		`{"title":"t","content":"c","published_at":"2024-05-01T10:00:00Z","symbol":"BTCUSDT","prediction_horizon":"2d"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPredictionLineErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{provider.ErrNotConfigured, http.StatusServiceUnavailable, codeUnavailable},
		{predline.ErrNoMarketData, http.StatusBadRequest, codeNoMarketData},
		{fmt.Errorf("%w: %w", predline.ErrUpstream, inference.ErrMalformed), http.StatusBadGateway, codeUpstream},
	}
	for _, tc := range cases {
		f := newFixture()
		f.line.err = tc.err
		rec := f.do(http.MethodPost, "/api/v1/ai/prediction-line", `{"symbol":"BTCUSDT"}`)
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, tc.code, decodeError(t, rec).ErrorCode)
	}
}

func TestPredictionLineDefaults(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/ai/prediction-line", `{"symbol":"solusdt"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, predline.Request{Symbol: "SOLUSDT", Interval: "1h", Periods: 24, NewsLimit: 10}, f.line.req)

	rec = f.do(http.MethodPost, "/api/v1/ai/prediction-line", `{"symbol":"BTCUSDT","periods":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChatRequiresVIP(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/ai/chat", `{"message":"hello"}`, headerAccountType, "FREE")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, detailVIPOnly, body.Detail)

	rec = f.do(http.MethodPost, "/api/v1/ai/chat", `{"message":"hello"}`, headerAccountType, "VIP")
	require.Equal(t, http.StatusOK, rec.Code)
	var reply chat.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "new", reply.ConversationID)
}

func TestChatUnavailable(t *testing.T) {
	f := newFixture()
	f.chat.err = provider.ErrNotConfigured
	rec := f.do(http.MethodPost, "/api/v1/ai/chat", `{"message":"hello"}`, headerAccountType, "VIP")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, detailChatDown, decodeError(t, rec).Detail)
}

func TestDeleteChat(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodDelete, "/api/v1/ai/chat/abc123", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/ai/chat/abc123", "", headerAccountType, "VIP")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "abc123", f.chat.cleared)
}

func TestHealth(t *testing.T) {
	f := newFixture()
	for _, path := range []string{"/healthz", "/api/v1/health"} {
		rec := f.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestUnsetDependencySkipsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(&Handlers{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
