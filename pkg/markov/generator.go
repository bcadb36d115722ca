package markov

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultOrder is the key length used when no WithOrder option is given.
const DefaultOrder = 2

// Generator is the main entry point for generating text from a corpus.
// It holds the corpus tokens, builds its Chain on first use and reuses it
// for every later generation. Build, Generate and Stats are safe for
// concurrent use.
type Generator struct {
	tokens      []string
	order       int
	minLength   int
	maxAttempts int
	logger      *slog.Logger

	mu     sync.Mutex // serializes building
	chain  atomic.Pointer[Chain]
	builds int
}

// Option is a function that configures a Generator.
type Option func(*Generator)

// WithOrder sets the number of preceding tokens used to predict the next one.
// Higher values yield texts that stay closer to the corpus.
// Default: 2
func WithOrder(n int) Option {
	return func(g *Generator) { g.order = n }
}

// WithDefaultMinLength sets the minimum length used when Generate is called
// without WithMinLength.
// Default: DefaultMinLength
func WithDefaultMinLength(n int) Option {
	return func(g *Generator) { g.minLength = n }
}

// WithAttemptBudget sets the attempt budget used when Generate is called
// without WithMaxAttempts.
// Default: DefaultMaxAttempts(len(tokens))
func WithAttemptBudget(n int) Option {
	return func(g *Generator) { g.maxAttempts = n }
}

// NewGenerator creates and returns a new Generator for tokens. The tokens
// are not copied and must not be modified afterwards. The chain is not built
// until Build or Generate is called.
func NewGenerator(tokens []string, opts ...Option) (*Generator, error) {
	g := &Generator{
		tokens:      tokens,
		order:       DefaultOrder,
		minLength:   DefaultMinLength,
		maxAttempts: DefaultMaxAttempts(len(tokens)),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.order < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, g.order)
	}
	if g.minLength < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, g.minLength)
	}
	if g.maxAttempts < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAttempts, g.maxAttempts)
	}
	return g, nil
}

// SetLogger sets the logger for the Generator. By default, all logs are discarded.
// Providing a `log/slog.Logger` will enable logging for building and generation.
func (g *Generator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// Order returns the key length of the generator.
func (g *Generator) Order() int {
	return g.order
}

// Build builds the chain if it has not been built yet. Calling it again, or
// concurrently, has no further effect.
func (g *Generator) Build(ctx context.Context) error {
	_, err := g.ensureChain(ctx)
	return err
}

// Built reports whether the chain has been built.
func (g *Generator) Built() bool {
	return g.chain.Load() != nil
}

// BuildCount returns how many times the chain has been built. It never
// exceeds 1.
func (g *Generator) BuildCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.builds
}

// Chain returns the chain, building it first if needed.
func (g *Generator) Chain(ctx context.Context) (*Chain, error) {
	return g.ensureChain(ctx)
}

// Stats returns the statistics of the chain, building it first if needed.
func (g *Generator) Stats(ctx context.Context) (*ChainStats, error) {
	chain, err := g.ensureChain(ctx)
	if err != nil {
		return nil, err
	}
	stats := chain.Stats()
	return &stats, nil
}

// Generate creates a new text and returns it. The chain is built on the
// first call. Generation can be customized with GenerateOption functions;
// WithMinLength and WithMaxAttempts default to the generator's settings.
func (g *Generator) Generate(ctx context.Context, opts ...GenerateOption) (string, error) {
	res, err := g.GenerateResult(ctx, opts...)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// GenerateResult is like Generate but returns the full Result, including
// whether the attempt budget was exhausted.
func (g *Generator) GenerateResult(ctx context.Context, opts ...GenerateOption) (*Result, error) {
	chain, err := g.ensureChain(ctx)
	if err != nil {
		return nil, err
	}

	all := make([]GenerateOption, 0, len(opts)+2)
	all = append(all, WithMinLength(g.minLength), WithMaxAttempts(g.maxAttempts))
	all = append(all, opts...)

	res, err := Sample(chain, all...)
	if err != nil {
		g.logger.WarnContext(ctx, "Generation failed",
			slog.Int("order", g.order),
			slog.Any("error", err),
		)
		return nil, err
	}

	if res.StartExhausted {
		g.logger.DebugContext(ctx, "No uppercase start word found, using last candidate",
			slog.Int("max_attempts", g.maxAttempts),
		)
	}
	if res.StepsExhausted {
		g.logger.DebugContext(ctx, "Generation terminated by reaching the step ceiling",
			slog.Int("generated_length", res.Words),
			slog.Int("steps", res.Steps),
		)
	} else {
		g.logger.DebugContext(ctx, "Generation completed",
			slog.Int("generated_length", res.Words),
			slog.Int("steps", res.Steps),
		)
	}
	return res, nil
}

// ensureChain returns the cached chain, building it under the lock on first use.
func (g *Generator) ensureChain(ctx context.Context) (*Chain, error) {
	if chain := g.chain.Load(); chain != nil {
		return chain, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if chain := g.chain.Load(); chain != nil {
		return chain, nil
	}

	chain, err := Build(g.tokens, g.order)
	if err != nil {
		return nil, err
	}
	g.chain.Store(chain)
	g.builds++

	g.logger.InfoContext(ctx, "Chain built",
		slog.Int("order", g.order),
		slog.Int("corpus_tokens", len(g.tokens)),
		slog.Int("keys", chain.Len()),
	)
	return chain, nil
}
