package markov

import (
	"context"
	"go/build"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// helloTokens is the smallest corpus with two competing continuations.
var helloTokens = []string{"Hello", "world", ".", "Hello", "there", "."}

// seeded returns a deterministic random source for a test case.
func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// mustBuild builds a chain and fails the test on error.
func mustBuild(t testing.TB, tokens []string, order int) *Chain {
	t.Helper()
	c, err := Build(tokens, order)
	if err != nil {
		t.Fatalf("Build(order=%d) error = %v", order, err)
	}
	return c
}

// setupGenerator tokenizes corpus with the default tokenizer and returns a
// Generator for it.
func setupGenerator(t *testing.T, corpus string, opts ...Option) (context.Context, *Generator) {
	t.Helper()
	tokens, err := ReadTokens(NewDefaultTokenizer(), strings.NewReader(corpus))
	if err != nil {
		t.Fatalf("setup: ReadTokens() failed: %v", err)
	}
	g, err := NewGenerator(tokens, opts...)
	if err != nil {
		t.Fatalf("setup: NewGenerator() failed: %v", err)
	}
	return context.Background(), g
}

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = "This is a fallback corpus for benchmarking. It is not very long but will prevent a crash. "
				return
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
