package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cryptopredict/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "predictions.db")
	cfg.App.HTTPAddr = "127.0.0.1:0"
	return cfg
}

func TestNewAppWithoutAPIKey(t *testing.T) {
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	require.NotNil(t, app.Summary)
	assert.False(t, app.Summary.LLMEnabled)
	assert.Equal(t, 300, app.Summary.RefreshEvery)
	assert.Positive(t, app.Summary.LexiconSizes[0])
	assert.NotNil(t, app.http)
}

func TestNewAppRejectsBadLexicon(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fallback.LexiconPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewApp(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lexicon")
}

func TestRunStopsOnCancel(t *testing.T) {
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)
	app.Summary = nil
	app.cleanup = nil

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.NoError(t, app.store.Close())
}

func TestNilConfig(t *testing.T) {
	_, err := NewApp(nil)
	assert.Error(t, err)
}
