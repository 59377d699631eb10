package internal

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lychee-technology/fabrica"
)

// Engine implements fabrica.Generator. One engine carries its own
// configuration, verb lexicon and synthesizer, so independent engines can
// run concurrent generation trees without cross-talk.
type Engine struct {
	schema     fabrica.SchemaSource
	store      fabrica.Store
	backend    fabrica.ContentBackend
	synth      fabrica.Synthesizer
	prefetcher fabrica.ContextPrefetcher
	templates  fabrica.TemplateResolver
	lexicon    *fabrica.VerbLexicon
	config     *fabrica.Config
	logger     *zap.SugaredLogger

	mu      sync.RWMutex
	enabled bool
	model   string
}

// NewEngine creates a generation engine. The backend may be nil, in which
// case every generation falls back to placeholder synthesis regardless of
// the enabled flag.
func NewEngine(config *fabrica.Config, schema fabrica.SchemaSource, store fabrica.Store, backend fabrica.ContentBackend) (*Engine, error) {
	if config == nil {
		config = fabrica.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, fabrica.NewConfigError("schema source is required")
	}
	if store == nil {
		return nil, fabrica.NewConfigError("store is required")
	}

	e := &Engine{
		schema:  schema,
		store:   store,
		backend: backend,
		synth:   NewPlaceholderSynthesizer(config.Synthesis.MaxValueLength),
		lexicon: fabrica.NewVerbLexicon(),
		config:  config,
		logger:  zap.S(),
		enabled: config.Generation.Enabled,
		model:   config.Generation.Model,
	}
	e.prefetcher = NewStorePrefetcher(schema, store)
	e.templates = NewStoreTemplateResolver(schema, store)
	return e, nil
}

// UseSynthesizer replaces the placeholder synthesizer.
func (e *Engine) UseSynthesizer(s fabrica.Synthesizer) {
	if s != nil {
		e.synth = s
	}
}

// UsePrefetcher replaces the store-backed context prefetcher.
func (e *Engine) UsePrefetcher(p fabrica.ContextPrefetcher) {
	if p != nil {
		e.prefetcher = p
	}
}

// UseTemplateResolver replaces the store-backed template resolver.
func (e *Engine) UseTemplateResolver(r fabrica.TemplateResolver) {
	if r != nil {
		e.templates = r
	}
}

// UseLexicon replaces the verb lexicon.
func (e *Engine) UseLexicon(l *fabrica.VerbLexicon) {
	if l != nil {
		e.lexicon = l
	}
}

// Lexicon returns the verb lexicon this engine consults when locating
// backward relation counterparts.
func (e *Engine) Lexicon() *fabrica.VerbLexicon {
	return e.lexicon
}

// GenerationEnabled reports whether backend generation is active.
func (e *Engine) GenerationEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled && e.backend != nil
}

// SetGenerationEnabled toggles backend generation for this engine.
func (e *Engine) SetGenerationEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// Model returns the backend model identifier.
func (e *Engine) Model() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// SetModel changes the backend model identifier for this engine.
func (e *Engine) SetModel(model string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = model
}

func (e *Engine) maxDepth() int {
	return e.config.Generation.MaxDepth
}
