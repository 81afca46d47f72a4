package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cryptopredict/internal/logger"
	"cryptopredict/internal/pkg/circuit"

	"golang.org/x/time/rate"
)

// OpenAIChatClient speaks the OpenAI-compatible /chat/completions API. Calls
// pass the rate limiter, then the circuit breaker, then a bounded retry on
// 429/5xx that honours Retry-After.
type OpenAIChatClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBase    time.Duration
	ExtraHeaders map[string]string
	Limiter      *rate.Limiter
	Breaker      *circuit.CircuitBreaker
	HTTPClient   *http.Client
}

// APIError is a non-2xx answer from the completions endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status=%d: %s", e.StatusCode, e.Message)
}

func (e *APIError) retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *OpenAIChatClient) endpoint() string {
	url := strings.TrimRight(c.BaseURL, "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

// Complete sends a single system+user turn and returns the message content.
func (c *OpenAIChatClient) Complete(ctx context.Context, p ChatPayload) (string, error) {
	messages := []wireMessage{}
	if p.System != "" {
		messages = append(messages, wireMessage{Role: "system", Content: strPtr(p.System)})
	}
	messages = append(messages, wireMessage{Role: "user", Content: strPtr(p.User)})
	body := map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"temperature": p.Temperature,
	}
	if p.MaxTokens > 0 {
		body["max_tokens"] = p.MaxTokens
	}
	if p.ExpectJSON {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	kind := p.Kind
	if kind == "" {
		kind = "completion"
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode %s request: %w", kind, err)
	}
	logger.LogLLMRequest(kind, c.Model, p.Purpose, p.System, p.User, string(raw))
	resp, err := c.do(ctx, raw)
	if err != nil {
		logger.LogLLMError(kind, c.Model, p.Purpose, err)
		return "", err
	}
	msg := resp.Choices[0].Message
	content := ""
	if msg.Content != nil {
		content = *msg.Content
	}
	logger.LogLLMResponse(kind, c.Model, p.Purpose, content)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty response content")
	}
	return content, nil
}

// Chat sends a conversation, with tools when provided.
func (c *OpenAIChatClient) Chat(ctx context.Context, conv Conversation) (Reply, error) {
	messages := make([]wireMessage, 0, len(conv.Messages))
	var system, lastUser string
	for _, m := range conv.Messages {
		wm := wireMessage{Role: m.Role, Content: strPtr(m.Content), Name: m.Name, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			w := wireToolCall{ID: tc.ID, Type: "function"}
			w.Function.Name = tc.Name
			w.Function.Arguments = tc.Arguments
			wm.ToolCalls = append(wm.ToolCalls, w)
		}
		if len(wm.ToolCalls) > 0 && m.Content == "" {
			wm.Content = nil
		}
		switch m.Role {
		case "system":
			system = m.Content
		case "user":
			lastUser = m.Content
		}
		messages = append(messages, wm)
	}
	body := map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"temperature": conv.Temperature,
		"top_p":       1,
	}
	if conv.MaxTokens > 0 {
		body["max_tokens"] = conv.MaxTokens
	}
	if len(conv.Tools) > 0 {
		tools := make([]map[string]any, 0, len(conv.Tools))
		for _, t := range conv.Tools {
			tools = append(tools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Parameters,
				},
			})
		}
		body["tools"] = tools
		body["tool_choice"] = "auto"
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return Reply{}, fmt.Errorf("encode chat request: %w", err)
	}
	logger.LogLLMRequest("chat", c.Model, conv.Purpose, system, lastUser, string(raw))
	resp, err := c.do(ctx, raw)
	if err != nil {
		logger.LogLLMError("chat", c.Model, conv.Purpose, err)
		return Reply{}, err
	}
	msg := resp.Choices[0].Message
	out := Reply{TotalTokens: resp.Usage.TotalTokens}
	if msg.Content != nil {
		out.Content = *msg.Content
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	logger.LogLLMResponse("chat", c.Model, conv.Purpose, out.Content)
	return out, nil
}

func (c *OpenAIChatClient) do(ctx context.Context, body []byte) (completionResponse, error) {
	if c.Breaker != nil && !c.Breaker.Allow() {
		return completionResponse{}, ErrCircuitOpen
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			c.release()
			return completionResponse{}, fmt.Errorf("rate limiter: %w", err)
		}
	}
	resp, err := c.doWithRetry(ctx, body)
	switch {
	case err == nil:
		if c.Breaker != nil {
			c.Breaker.RecordSuccess()
		}
	case errors.Is(err, context.Canceled):
		c.release()
	default:
		if c.Breaker != nil {
			c.Breaker.RecordFailure()
		}
	}
	return resp, err
}

// release ends a half-open probe that never reached a verdict.
func (c *OpenAIChatClient) release() {
	if c.Breaker != nil {
		c.Breaker.Release()
	}
}

func (c *OpenAIChatClient) doWithRetry(ctx context.Context, body []byte) (completionResponse, error) {
	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	base := c.RetryBase
	if base <= 0 {
		base = 800 * time.Millisecond
	}
	httpc := c.HTTPClient
	if httpc == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}
	url := c.endpoint()
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt == 0 {
			logger.Debugf("[llm] POST %s model=%s key=%s", url, c.Model, maskKey(c.APIKey))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return completionResponse{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}
		for k, v := range c.ExtraHeaders {
			req.Header.Set(k, v)
		}
		resp, err := httpc.Do(req)
		if err != nil {
			return completionResponse{}, err
		}
		if resp.StatusCode/100 == 2 {
			var out completionResponse
			derr := json.NewDecoder(resp.Body).Decode(&out)
			resp.Body.Close()
			if derr != nil {
				return completionResponse{}, fmt.Errorf("decode completion: %w", derr)
			}
			if len(out.Choices) == 0 {
				return completionResponse{}, fmt.Errorf("empty choices")
			}
			return out, nil
		}
		var eresp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eresp)
		resp.Body.Close()
		msg := strings.TrimSpace(eresp.Error.Message)
		if msg == "" {
			msg = resp.Status
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: msg}
		lastErr = apiErr
		if !apiErr.retryable() || attempt == maxRetries {
			break
		}
		wait := time.Duration(0)
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, perr := strconv.Atoi(ra); perr == nil {
				wait = time.Duration(secs) * time.Second
			}
		}
		if wait == 0 {
			wait = base << attempt
			if wait > 8*time.Second {
				wait = 8 * time.Second
			}
		}
		logger.Warnf("[llm] %v, retry %d/%d in %s", apiErr, attempt+1, maxRetries, wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return completionResponse{}, ctx.Err()
		case <-timer.C:
		}
	}
	return completionResponse{}, lastErr
}

func maskKey(key string) string {
	if key == "" {
		return "<none>"
	}
	if len(key) > 4 {
		return "****" + key[len(key)-4:]
	}
	return "****"
}

func strPtr(s string) *string { return &s }

// OpenAIModelProvider implements ModelProvider on top of OpenAIChatClient.
type OpenAIModelProvider struct {
	id     string
	client *OpenAIChatClient
}

func NewOpenAIModelProvider(id string, client *OpenAIChatClient) *OpenAIModelProvider {
	return &OpenAIModelProvider{id: id, client: client}
}

func (p *OpenAIModelProvider) ID() string    { return p.id }
func (p *OpenAIModelProvider) Enabled() bool { return true }

func (p *OpenAIModelProvider) Call(ctx context.Context, payload ChatPayload) (string, error) {
	return p.client.Complete(ctx, payload)
}

func (p *OpenAIModelProvider) Converse(ctx context.Context, conv Conversation) (Reply, error) {
	return p.client.Chat(ctx, conv)
}

// disabledProvider answers ErrNotConfigured for every call.
type disabledProvider struct {
	id string
}

func (d disabledProvider) ID() string    { return d.id }
func (d disabledProvider) Enabled() bool { return false }

func (d disabledProvider) Call(context.Context, ChatPayload) (string, error) {
	return "", ErrNotConfigured
}

func (d disabledProvider) Converse(context.Context, Conversation) (Reply, error) {
	return Reply{}, ErrNotConfigured
}
