package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	llmMu          sync.Mutex
	llmLog         *log.Logger
	llmDumpPayload bool
)

// SetLLMWriter sets the transcript sink for model traffic; nil disables it.
func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

type llmSection struct {
	Title string
	Body  string
}

func logLLM(kind, provider, purpose string, sections []llmSection) {
	llmMu.Lock()
	out := llmLog
	llmMu.Unlock()
	if out == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM]")
	for _, tag := range []string{kind, provider, purpose} {
		if tag == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(tag)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	out.Print(b.String())
}

// LogLLMRequest records the prompts of one completion. The raw request body is
// appended only when payload dumping is enabled.
func LogLLMRequest(kind, provider, purpose, systemPrompt, userPrompt, payload string) {
	sections := []llmSection{
		{Title: "SYSTEM", Body: systemPrompt},
		{Title: "USER", Body: userPrompt},
	}
	llmMu.Lock()
	dump := llmDumpPayload
	llmMu.Unlock()
	if dump && strings.TrimSpace(payload) != "" {
		sections = append(sections, llmSection{Title: "PAYLOAD", Body: payload})
	}
	logLLM(kind+"-request", provider, purpose, sections)
}

func LogLLMResponse(kind, provider, purpose, raw string) {
	logLLM(kind+"-response", provider, purpose, []llmSection{{Title: "RAW", Body: raw}})
}

func LogLLMError(kind, provider, purpose string, err error) {
	if err == nil {
		return
	}
	logLLM(kind+"-error", provider, purpose, []llmSection{{Title: "ERROR", Body: err.Error()}})
}

func EnableLLMPayloadDump(enabled bool) {
	llmMu.Lock()
	llmDumpPayload = enabled
	llmMu.Unlock()
}
