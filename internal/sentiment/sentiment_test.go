package sentiment

import (
	"context"
	"errors"
	"testing"

	"cryptopredict/internal/config"
	"cryptopredict/internal/fallback"
	"cryptopredict/internal/gateway/provider"
	"cryptopredict/internal/inference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
	enabled bool
}

func (m *mockProvider) ID() string    { return "mock" }
func (m *mockProvider) Enabled() bool { return m.enabled }

func (m *mockProvider) Call(ctx context.Context, p provider.ChatPayload) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) Converse(ctx context.Context, c provider.Conversation) (provider.Reply, error) {
	return provider.Reply{}, errors.New("unused")
}

func newService(t *testing.T, p *mockProvider) *Service {
	t.Helper()
	reg, err := fallback.NewRegistry("")
	require.NoError(t, err)
	cfg := config.Default().AI
	cfg.Model = "gpt-test"
	return NewService(inference.NewInvoker(p, cfg), fallback.NewAnalyzer(reg))
}

func TestServiceSelectsFallbackWithoutKey(t *testing.T) {
	p := &mockProvider{}
	s := newService(t, p)
	assert.Equal(t, inference.VariantFallback, s.Variant())

	res := s.Analyze(context.Background(), "bitcoin crash and dump", false)
	assert.Equal(t, "bearish", res.Label)
	assert.Equal(t, inference.FallbackModelVersion, res.ModelVersion)
	p.AssertNotCalled(t, "Call", mock.Anything, mock.Anything)
}

func TestServiceUsesLLM(t *testing.T) {
	p := &mockProvider{enabled: true}
	p.On("Call", mock.Anything, mock.Anything).
		Return(`{"sentiment_label":"bullish","sentiment_score":1.4,"confidence":0.9}`, nil)
	s := newService(t, p)

	res := s.Analyze(context.Background(), "whatever", false)
	assert.Equal(t, inference.VariantLLM, s.Variant())
	assert.Equal(t, "bullish", res.Label)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
	assert.Equal(t, "gpt-test", res.ModelVersion)
}

func TestServiceDegradesOnMalformed(t *testing.T) {
	p := &mockProvider{enabled: true}
	p.On("Call", mock.Anything, mock.Anything).Return("not json", nil)
	s := newService(t, p)

	res := s.Analyze(context.Background(), "rally surge", false)
	assert.Equal(t, "bullish", res.Label)
	assert.Equal(t, inference.VariantFallback, res.Variant)
}

func TestServiceForceFallback(t *testing.T) {
	p := &mockProvider{enabled: true}
	s := newService(t, p)

	res := s.Analyze(context.Background(), "stable", true)
	assert.Equal(t, inference.FallbackModelVersion, res.ModelVersion)
	p.AssertNotCalled(t, "Call", mock.Anything, mock.Anything)
}

func TestBatchKeepsOrder(t *testing.T) {
	s := newService(t, &mockProvider{})
	texts := []string{"crash", "rally", "stable", "dump dump", "moon"}

	out := s.Batch(context.Background(), texts, false)
	require.Len(t, out, len(texts))
	assert.Equal(t, []string{"bearish", "bullish", "neutral", "bearish", "bullish"},
		[]string{out[0].Label, out[1].Label, out[2].Label, out[3].Label, out[4].Label})
}
