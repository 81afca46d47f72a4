package chat

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"cryptopredict/internal/config"
	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/gateway/provider"
	"cryptopredict/internal/inference"
	"cryptopredict/internal/prediction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type mockProvider struct {
	mock.Mock
	enabled bool
}

func (m *mockProvider) ID() string    { return "mock" }
func (m *mockProvider) Enabled() bool { return m.enabled }

func (m *mockProvider) Call(context.Context, provider.ChatPayload) (string, error) {
	return "", errors.New("unused")
}

func (m *mockProvider) Converse(ctx context.Context, c provider.Conversation) (provider.Reply, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(provider.Reply), args.Error(1)
}

type fakeResolver struct {
	res     prediction.Resolution
	symbols []string
}

func (f *fakeResolver) Resolve(_ context.Context, symbol string, _ *time.Time) prediction.Resolution {
	f.symbols = append(f.symbols, symbol)
	return f.res
}

type fakeSearcher struct {
	items []crawler.NewsItem
	err   error
	query string
	limit int
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int) ([]crawler.NewsItem, error) {
	f.query, f.limit = query, limit
	return f.items, f.err
}

func newChat(p *mockProvider, r *fakeResolver, s *fakeSearcher) (*Service, *MemoryStore) {
	store := NewMemoryStore(50)
	return NewService(p, store, r, s, config.Default().AI), store
}

func TestSendDirectAnswer(t *testing.T) {
	p := &mockProvider{enabled: true}
	p.On("Converse", mock.Anything, mock.MatchedBy(func(c provider.Conversation) bool {
		return len(c.Tools) == 2 && c.MaxTokens == 800 && c.Temperature == 0.7
	})).Return(provider.Reply{Content: "Hello!"}, nil).Once()
	svc, _ := newChat(p, &fakeResolver{}, &fakeSearcher{})

	reply, err := svc.Send(context.Background(), "", "hi there")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^conv-[0-9a-f]{16}$`), reply.ConversationID)
	assert.Regexp(t, regexp.MustCompile(`^assistant-[0-9a-f]{12}$`), reply.Message.ID)
	assert.Equal(t, "assistant", reply.Message.Role)
	assert.Equal(t, "Hello!", reply.Message.Content)
	assert.Equal(t, 2, reply.TotalMessages)
	p.AssertExpectations(t)
}

func TestSendRunsPredictionTool(t *testing.T) {
	rec := &prediction.Record{
		Symbol: "BTCUSDT", Direction: inference.DirectionBullish, Confidence: 0.8,
		Reasoning: "inflows", KeyFactors: []string{"ETF"}, NewsAnalyzed: 5,
		CreatedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	resolver := &fakeResolver{res: prediction.Resolution{Success: true, HasNewData: true, Prediction: rec}}
	p := &mockProvider{enabled: true}
	var toolContent string
	p.On("Converse", mock.Anything, mock.MatchedBy(func(c provider.Conversation) bool { return len(c.Tools) > 0 })).
		Return(provider.Reply{ToolCalls: []provider.ToolCall{{ID: "call_1", Name: toolPrediction, Arguments: `{"symbol":"btcusdt","limit":50}`}}}, nil).Once()
	p.On("Converse", mock.Anything, mock.MatchedBy(func(c provider.Conversation) bool { return len(c.Tools) == 0 })).
		Run(func(args mock.Arguments) {
			c := args.Get(1).(provider.Conversation)
			last := c.Messages[len(c.Messages)-1]
			assert.Equal(t, "tool", last.Role)
			assert.Equal(t, "call_1", last.ToolCallID)
			toolContent = last.Content
		}).
		Return(provider.Reply{Content: "📈 Bullish"}, nil).Once()
	svc, _ := newChat(p, resolver, &fakeSearcher{})

	reply, err := svc.Send(context.Background(), "", "What is the bitcoin price outlook?")
	require.NoError(t, err)
	assert.Equal(t, "📈 Bullish", reply.Message.Content)
	assert.Equal(t, []string{"BTCUSDT"}, resolver.symbols)
	assert.True(t, gjson.Get(toolContent, "success").Bool())
	assert.Equal(t, "bullish", gjson.Get(toolContent, "prediction").String())
	assert.Equal(t, "2026-07-01T00:00:00Z", gjson.Get(toolContent, "analyzed_at").String())
	p.AssertExpectations(t)
}

func TestSendFriendlyMessageOnFailure(t *testing.T) {
	p := &mockProvider{enabled: true}
	p.On("Converse", mock.Anything, mock.Anything).Return(provider.Reply{}, errors.New("boom"))
	svc, _ := newChat(p, &fakeResolver{}, &fakeSearcher{})

	reply, err := svc.Send(context.Background(), "conv-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, troubledReply, reply.Message.Content)
}

func TestSendEmptyContent(t *testing.T) {
	p := &mockProvider{enabled: true}
	p.On("Converse", mock.Anything, mock.Anything).Return(provider.Reply{Content: "  "}, nil)
	svc, _ := newChat(p, &fakeResolver{}, &fakeSearcher{})

	reply, err := svc.Send(context.Background(), "conv-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, emptyReply, reply.Message.Content)
}

func TestSendNotConfigured(t *testing.T) {
	svc, store := newChat(&mockProvider{}, &fakeResolver{}, &fakeSearcher{})
	_, err := svc.Send(context.Background(), "conv-1", "hi")
	assert.ErrorIs(t, err, provider.ErrNotConfigured)
	hist, _ := store.History(context.Background(), "conv-1")
	assert.Empty(t, hist)
}

func TestSendCarriesHistory(t *testing.T) {
	p := &mockProvider{enabled: true}
	p.On("Converse", mock.Anything, mock.Anything).Return(provider.Reply{Content: "ok"}, nil)
	svc, _ := newChat(p, &fakeResolver{}, &fakeSearcher{})
	ctx := context.Background()

	first, err := svc.Send(ctx, "", "one")
	require.NoError(t, err)
	second, err := svc.Send(ctx, first.ConversationID, "two")
	require.NoError(t, err)
	assert.Equal(t, 4, second.TotalMessages)

	conv := p.Calls[1].Arguments.Get(1).(provider.Conversation)
	// system, user one, assistant ok, user two
	require.Len(t, conv.Messages, 4)
	assert.Equal(t, "one", conv.Messages[1].Content)
	assert.Equal(t, "two", conv.Messages[3].Content)
}

func TestSearchTool(t *testing.T) {
	searcher := &fakeSearcher{items: []crawler.NewsItem{{ID: "7", Title: "SEC update", Source: "coindesk"}}}
	tb := toolbox{articles: searcher}

	out := tb.execute(context.Background(), provider.ToolCall{Name: toolSearch, Arguments: `{"keyword":"regulation","symbol":"BTC"}`})
	assert.Equal(t, "BTC regulation", searcher.query)
	assert.Equal(t, 10, searcher.limit)
	assert.Equal(t, int64(1), gjson.Get(out, "articles_found").Int())
	assert.Equal(t, "SEC update", gjson.Get(out, "articles.0.title").String())

	searcher.items = nil
	out = tb.execute(context.Background(), provider.ToolCall{Name: toolSearch, Arguments: `{"keyword":"defi","limit":2}`})
	assert.Equal(t, 5, searcher.limit)
	assert.Equal(t, "No articles found for keyword: defi", gjson.Get(out, "message").String())
}

func TestUnknownTool(t *testing.T) {
	out := toolbox{}.execute(context.Background(), provider.ToolCall{Name: "nope"})
	assert.False(t, gjson.Get(out, "success").Bool())
	assert.Equal(t, "Unknown tool: nope", gjson.Get(out, "error").String())
}

func TestPredictionToolWithoutRecord(t *testing.T) {
	tb := toolbox{predictions: &fakeResolver{res: prediction.Resolution{NextPollAfter: 10}}}
	out := tb.execute(context.Background(), provider.ToolCall{Name: toolPrediction, Arguments: `{"symbol":"ETHUSDT"}`})
	assert.False(t, gjson.Get(out, "success").Bool())
}

func TestMemoryStoreCapsAtInsert(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := store.Append(ctx, "c", Message{ID: string(rune('a' + i))})
		require.NoError(t, err)
	}
	hist, err := store.History(ctx, "c")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "c", hist[0].ID)
	assert.Equal(t, "e", hist[2].ID)

	require.NoError(t, store.Delete(ctx, "c"))
	hist, _ = store.History(ctx, "c")
	assert.Empty(t, hist)
}

func TestExtractSymbol(t *testing.T) {
	sym, ok := ExtractSymbol("Will Ethereum rise?")
	assert.True(t, ok)
	assert.Equal(t, "ETHUSDT", sym)

	_, ok = ExtractSymbol("what about bitcoins")
	assert.False(t, ok)
	assert.True(t, IsPredictionRequest("Forecast for SOL"))
}
