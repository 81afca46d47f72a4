// Package chat is the VIP research assistant: a tool-calling conversation over
// the prediction controller and the article search.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cryptopredict/internal/config"
	"cryptopredict/internal/gateway/provider"
	"cryptopredict/internal/logger"

	"github.com/google/uuid"
)

const (
	emptyReply    = "I'm sorry, I couldn't generate a response."
	troubledReply = "I'm sorry, I'm having trouble processing your request right now. Please try again later."
)

const systemPrompt = `### Role
You are an advanced research assistant for cryptocurrency markets. You provide predictive insights based on the internal database of news articles and real-time price predictions.

### Instructions
1. For research queries, use the search_articles_db tool to find recent, relevant articles.
2. For price forecast queries, use the get_crypto_price_prediction tool.
3. Analyze the retrieved data, identify emerging patterns and give a short future outlook.
4. Cite specific articles or publication dates from the data.
5. End every answer with three follow-up questions formatted exactly as:
   [SUGGESTIONS]
   - Question 1?
   - Question 2?
   - Question 3?

### Prediction formatting
- Bullish: start with 📈 🚀, bearish: 📉 🔻, neutral: ➡️ ⚖️.
- Show the direction, the confidence percentage, the key reasoning and key factors from the tool data.
- Add a disclaimer that this is not financial advice.

### Constraints
- Supported coins: Bitcoin (BTCUSDT), Ethereum (ETHUSDT), Solana (SOLUSDT), BNB (BNBUSDT), Cardano (ADAUSDT), Dogecoin (DOGEUSDT), Ripple (XRPUSDT), Polkadot (DOTUSDT), Avalanche (AVAXUSDT), Polygon (MATICUSDT).
- If data is limited, say: 'Limited data available for a high-confidence prediction.'
- Be concise, analytical and honest about what you do not know.`

// Reply is the chat endpoint response.
type Reply struct {
	ConversationID string  `json:"conversation_id"`
	Message        Message `json:"message"`
	TotalMessages  int     `json:"total_messages"`
}

type Service struct {
	provider    provider.ModelProvider
	store       ConversationStore
	tools       toolbox
	maxTokens   int
	temperature float64
	now         func() time.Time
}

func NewService(p provider.ModelProvider, store ConversationStore, predictions PredictionResolver, articles ArticleSearcher, cfg config.AIConfig) *Service {
	return &Service{
		provider:    p,
		store:       store,
		tools:       toolbox{predictions: predictions, articles: articles},
		maxTokens:   cfg.ChatMaxTokens,
		temperature: cfg.ChatTemperature,
		now:         time.Now,
	}
}

func (s *Service) Available() bool { return s.provider != nil && s.provider.Enabled() }

// Send answers text within conversationID, starting a new conversation when it
// is empty. Only a missing API key is returned as an error; model failures
// become an apologetic assistant message.
func (s *Service) Send(ctx context.Context, conversationID, text string) (Reply, error) {
	if !s.Available() {
		return Reply{}, provider.ErrNotConfigured
	}
	if conversationID == "" {
		conversationID = "conv-" + hexID(16)
	}
	history, err := s.store.History(ctx, conversationID)
	if err != nil {
		return Reply{}, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	user := Message{ID: "user-" + hexID(12), Role: "user", Content: text, Timestamp: s.now().UTC()}

	content := s.complete(ctx, conversationID, history, text)
	assistant := Message{ID: "assistant-" + hexID(12), Role: "assistant", Content: content, Timestamp: s.now().UTC()}

	total, err := s.store.Append(ctx, conversationID, user, assistant)
	if err != nil {
		return Reply{}, fmt.Errorf("save conversation %s: %w", conversationID, err)
	}
	logger.Infof("[chat] conversation=%s messages=%d", conversationID, total)
	return Reply{ConversationID: conversationID, Message: assistant, TotalMessages: total}, nil
}

func (s *Service) Clear(ctx context.Context, conversationID string) error {
	if err := s.store.Delete(ctx, conversationID); err != nil {
		return err
	}
	logger.Infof("[chat] conversation=%s cleared", conversationID)
	return nil
}

func (s *Service) complete(ctx context.Context, conversationID string, history []Message, text string) string {
	msgs := make([]provider.Message, 0, len(history)+3)
	msgs = append(msgs, provider.Message{Role: "system", Content: systemPrompt})
	if hint := symbolHint(text); hint != "" {
		msgs = append(msgs, provider.Message{Role: "system", Content: hint})
	}
	for _, m := range history {
		msgs = append(msgs, provider.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, provider.Message{Role: "user", Content: text})

	conv := provider.Conversation{
		Messages:    msgs,
		Tools:       toolDefinitions(),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Purpose:     conversationID,
	}
	first, err := s.provider.Converse(ctx, conv)
	if err != nil {
		logger.Errorf("[chat] completion failed: %v", err)
		return troubledReply
	}
	if len(first.ToolCalls) == 0 {
		return orEmptyReply(first.Content)
	}

	logger.Infof("[chat] model requested %d tool call(s)", len(first.ToolCalls))
	conv.Messages = append(conv.Messages, provider.Message{Role: "assistant", Content: first.Content, ToolCalls: first.ToolCalls})
	for _, call := range first.ToolCalls {
		conv.Messages = append(conv.Messages, provider.Message{
			Role:       "tool",
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    s.tools.execute(ctx, call),
		})
	}
	conv.Tools = nil
	second, err := s.provider.Converse(ctx, conv)
	if err != nil {
		logger.Errorf("[chat] completion with tool results failed: %v", err)
		return troubledReply
	}
	return orEmptyReply(second.Content)
}

func symbolHint(text string) string {
	sym, ok := ExtractSymbol(text)
	if !ok || !IsPredictionRequest(text) {
		return ""
	}
	return fmt.Sprintf("The user is asking about %s. Call get_crypto_price_prediction with symbol %s if a forecast is needed.", sym, sym)
}

func orEmptyReply(content string) string {
	if strings.TrimSpace(content) == "" {
		return emptyReply
	}
	return content
}

func hexID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
