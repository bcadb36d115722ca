package markov

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestNewGenerator(t *testing.T) {
	testCases := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "Defaults", opts: nil},
		{name: "Order one", opts: []Option{WithOrder(1)}},
		{name: "Zero order", opts: []Option{WithOrder(0)}, wantErr: ErrInvalidOrder},
		{name: "Negative min length", opts: []Option{WithDefaultMinLength(-1)}, wantErr: ErrInvalidLength},
		{name: "Zero attempts", opts: []Option{WithAttemptBudget(0)}, wantErr: ErrInvalidAttempts},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewGenerator(helloTokens, tc.opts...)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("got unexpected error: %v", err)
			}
			if g.Built() {
				t.Error("expected the chain not to be built by NewGenerator")
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	ctx, g := setupGenerator(t, "Hello world .\nHello there .\n", WithOrder(1))

	output, err := g.Generate(ctx, WithMinLength(0))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	expected1 := "Hello world."
	expected2 := "Hello there."
	if output != expected1 && output != expected2 {
		t.Errorf("Generate() got = %q, want one of [%q, %q]", output, expected1, expected2)
	}
}

func TestGenerateBuildsOnce(t *testing.T) {
	ctx, g := setupGenerator(t, "One fish two fish. Red fish blue fish.")

	for i := 0; i < 50; i++ {
		if _, err := g.Generate(ctx, WithMinLength(3)); err != nil {
			t.Fatalf("Generate #%d failed: %v", i, err)
		}
	}
	if !g.Built() {
		t.Error("expected the chain to be built after Generate")
	}
	if n := g.BuildCount(); n != 1 {
		t.Errorf("expected the chain to be built once, got %d builds", n)
	}

	first, _ := g.Chain(ctx)
	second, _ := g.Chain(ctx)
	if first != second {
		t.Error("expected Chain to return the cached chain")
	}
}

func TestGenerateConcurrentFirstUse(t *testing.T) {
	ctx, g := setupGenerator(t, "One fish two fish. Red fish blue fish.")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Generate(ctx, WithMinLength(5)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Generate failed: %v", err)
	}
	if n := g.BuildCount(); n != 1 {
		t.Errorf("expected a single build under concurrent first use, got %d", n)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	ctx, g := setupGenerator(t, "A b c.")

	for i := 0; i < 3; i++ {
		if err := g.Build(ctx); err != nil {
			t.Fatalf("Build failed: %v", err)
		}
	}
	if n := g.BuildCount(); n != 1 {
		t.Errorf("expected 1 build, got %d", n)
	}
}

func TestGenerateEmptyCorpus(t *testing.T) {
	ctx, g := setupGenerator(t, "")

	_, err := g.Generate(ctx)
	if !errors.Is(err, ErrNoContinuation) {
		t.Errorf("expected ErrNoContinuation for an empty corpus, got %v", err)
	}
}

func TestGenerateUsesGeneratorDefaults(t *testing.T) {
	// Every key starts with "Alpha", so the start search never runs out.
	g, err := NewGenerator(strings.Fields(strings.Repeat("Alpha ", 50)), WithOrder(1), WithAttemptBudget(4))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := g.GenerateResult(ctx)
		if err != nil {
			t.Fatalf("GenerateResult failed: %v", err)
		}
		if res.Steps > 4 {
			t.Errorf("expected the generator budget of 4 steps to apply, got %d steps", res.Steps)
		}
	}

	// Per-call options override the generator defaults.
	res, err := g.GenerateResult(ctx, WithMaxAttempts(1))
	if err != nil {
		t.Fatalf("GenerateResult failed: %v", err)
	}
	if res.Steps > 1 {
		t.Errorf("expected the per-call budget of 1 step to apply, got %d steps", res.Steps)
	}
}

func TestGeneratorStats(t *testing.T) {
	g, err := NewGenerator(helloTokens, WithOrder(1))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	stats, err := g.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	expected := ChainStats{
		Order:           1,
		CorpusTokens:    6,
		Keys:            5,
		Transitions:     7,
		Vocabulary:      4,
		StartingTokens:  1,
		CapitalizedKeys: 2,
	}
	if *stats != expected {
		t.Errorf("Stats() = %+v, want %+v", *stats, expected)
	}
}

func TestGeneratorSetLogger(t *testing.T) {
	ctx, g := setupGenerator(t, "One fish two fish.")

	var buf bytes.Buffer
	g.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	g.SetLogger(nil) // ignored

	if _, err := g.Generate(ctx, WithMinLength(1)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Chain built") {
		t.Errorf("expected a build log line, got %q", buf.String())
	}
}

func BenchmarkGenerate(b *testing.B) {
	corpus := createBenchmarkCorpus()
	tokens, err := ReadTokens(NewDefaultTokenizer(), strings.NewReader(corpus))
	if err != nil {
		b.Fatal(err)
	}
	g, err := NewGenerator(tokens)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	if err := g.Build(ctx); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := g.Generate(ctx, WithMinLength(50)); err != nil {
				b.Errorf("Generate() failed: %v", err)
				return
			}
		}
	})
}
