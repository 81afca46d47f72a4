package logger

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	SetLevel("warn")
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")
	assert.Equal(t, "warn", Level())

	SetLevel("bogus")
	assert.Equal(t, "info", Level())
}

func TestSetFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat("json")
	defer func() {
		SetFormat("text")
		SetOutput(os.Stdout)
	}()
	SetLevel("info")

	Infof("[poll] symbol=%s", "BTCUSDT")
	assert.Contains(t, buf.String(), `"msg":"[poll] symbol=BTCUSDT"`)
}

func TestLLMTranscript(t *testing.T) {
	var buf bytes.Buffer
	SetLLMWriter(&buf)
	defer SetLLMWriter(nil)

	EnableLLMPayloadDump(false)
	LogLLMRequest("prediction", "openai:gpt-4o-mini", "BTCUSDT", "sys", "user", `{"model":"x"}`)
	assert.Contains(t, buf.String(), "[LLM][prediction-request][openai:gpt-4o-mini][BTCUSDT]")
	assert.Contains(t, buf.String(), "--- SYSTEM ---\nsys\n")
	assert.NotContains(t, buf.String(), "PAYLOAD")

	buf.Reset()
	EnableLLMPayloadDump(true)
	defer EnableLLMPayloadDump(false)
	LogLLMRequest("prediction", "openai", "", "sys", "user", `{"model":"x"}`)
	assert.Contains(t, buf.String(), "--- PAYLOAD ---")

	buf.Reset()
	LogLLMResponse("prediction", "openai", "", `{"prediction":"bullish"}`)
	LogLLMError("prediction", "openai", "", errors.New("status=500"))
	assert.Contains(t, buf.String(), "--- RAW ---")
	assert.Contains(t, buf.String(), "status=500")
}
