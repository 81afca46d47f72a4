package fallback

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"cryptopredict/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Registry serves the active lexicon. When backed by a file it re-reads the
// file on change and keeps the previous lexicon if the new one is invalid.
type Registry struct {
	mu      sync.RWMutex
	path    string
	lexicon Lexicon
	watcher *viper.Viper
}

// NewRegistry loads path, or the built-in lexicon when path is empty.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: strings.TrimSpace(path), lexicon: DefaultLexicon().normalized()}
	if r.path == "" {
		return r, nil
	}
	lex, err := readLexiconFile(r.path)
	if err != nil {
		return nil, err
	}
	r.lexicon = lex
	logger.Infof("[fallback] lexicon loaded from %s (bullish=%d bearish=%d neutral=%d)",
		r.path, len(lex.Bullish), len(lex.Bearish), len(lex.Neutral))
	return r, nil
}

// Watch starts reloading the lexicon file on change. It is a no-op for the built-in lexicon.
func (r *Registry) Watch() {
	if r.path == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher != nil {
		return
	}
	v := viper.New()
	v.SetConfigFile(r.path)
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		if err := r.Reload(); err != nil {
			logger.Warnf("[fallback] lexicon reload failed, keeping previous: %v", err)
		}
	})
	v.WatchConfig()
	r.watcher = v
}

// Reload re-reads the backing file.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	lex, err := readLexiconFile(r.path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.lexicon = lex
	r.mu.Unlock()
	logger.Infof("[fallback] lexicon reloaded from %s", r.path)
	return nil
}

func (r *Registry) Lexicon() Lexicon {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lexicon
}

func readLexiconFile(path string) (Lexicon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon file failed: %w", err)
	}
	var lex Lexicon
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon file failed: %w", err)
	}
	lex = lex.normalized()
	if err := lex.validate(); err != nil {
		return Lexicon{}, err
	}
	return lex, nil
}
