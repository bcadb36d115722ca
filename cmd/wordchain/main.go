// Command wordchain generates random texts from a corpus with a word-level
// Markov chain. It can run an interactive session, print chain statistics
// or serve generation over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/CTAG07/wordchain/pkg/archive"
	"github.com/CTAG07/wordchain/pkg/corpus"
	"github.com/CTAG07/wordchain/pkg/markov"
)

// errInvalidFile is returned once a missing corpus file has been reported.
var errInvalidFile = errors.New("invalid corpus file")

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// settings is the effective configuration of one run, after the config file,
// flags and positional arguments have been applied in that order.
type settings struct {
	file        string
	order       int
	minLength   int
	maxAttempts int
	encoding    string
	outputDir   string
	archiveDB   string
	apiAddr     string
	logLevel    string
}

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errInvalidFile) {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// newApp builds the command tree. in and out carry the interactive session.
func newApp(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "wordchain",
		Usage:     "Generate random texts from a corpus with a word Markov chain",
		Version:   fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		ArgsUsage: "FILE [MIN_LENGTH] [ORDER] [ENCODING]",
		Flags:     commonFlags(),
		Writer:    out,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				_, _ = fmt.Fprintln(out, "No filename provided.")
				return nil
			}
			s, logger, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			gen, err := loadGenerator(ctx, s, out, logger)
			if err != nil {
				return err
			}
			a, closeArchive, err := openArchive(s, logger)
			if err != nil {
				return err
			}
			defer closeArchive()

			return NewSession(gen, a, s.minLength, s.file, in, out, logger).Run(ctx)
		},
		Commands: []*cli.Command{
			statsCmd(out),
			serveCmd(out),
		},
	}
}

func statsCmd(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Print statistics about the chain built from FILE",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				_, _ = fmt.Fprintln(out, "No filename provided.")
				return nil
			}
			s, logger, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			gen, err := loadGenerator(ctx, s, out, logger)
			if err != nil {
				return err
			}
			stats, err := gen.Stats(ctx)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, string(data))
			return nil
		},
	}
}

func serveCmd(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Serve text generation from FILE over HTTP",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				_, _ = fmt.Fprintln(out, "No filename provided.")
				return nil
			}
			s, logger, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			gen, err := loadGenerator(ctx, s, out, logger)
			if err != nil {
				return err
			}
			// Build before listening so the first request is not delayed.
			if err = gen.Build(ctx); err != nil {
				return err
			}
			a, closeArchive, err := openArchive(s, logger)
			if err != nil {
				return err
			}
			defer closeArchive()

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			api := NewAPI(gen, a, s.minLength, s.file, logger)
			return serveHTTP(ctx, s.apiAddr, api.Routes(), logger)
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a JSON or YAML config file, created with defaults if missing"},
		&cli.IntFlag{Name: "min-length", Usage: "minimum number of generation steps before a text may end"},
		&cli.IntFlag{Name: "order", Aliases: []string{"n"}, Usage: "number of preceding words used to pick the next one"},
		&cli.IntFlag{Name: "max-attempts", Usage: "attempt budget for the start search and the generation loop (0 = 10 per corpus word)"},
		&cli.StringFlag{Name: "encoding", Aliases: []string{"e"}, Usage: "encoding of the corpus file, e.g. latin1"},
		&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "directory saved texts are written to"},
		&cli.StringFlag{Name: "archive-db", Usage: "SQLite database recording saved texts (empty disables the history)"},
		&cli.StringFlag{Name: "log-level", Usage: "log level (debug, info, warn, error)"},
	}
}

// loadSettings loads the config file and applies flags and positional
// arguments on top of it, then sets up the logger.
func loadSettings(cmd *cli.Command) (*settings, *slog.Logger, error) {
	config, err := LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	s := &settings{
		order:       config.Generator.Order,
		minLength:   config.Generator.MinLength,
		maxAttempts: config.Generator.MaxAttempts,
		encoding:    config.Generator.Encoding,
		outputDir:   config.Generator.OutputDir,
		archiveDB:   config.Server.ArchiveDatabasePath,
		apiAddr:     config.Server.ApiAddr,
		logLevel:    config.Server.LogLevel,
	}
	applyFlags(cmd, s)
	applyArgs(cmd.Args().Slice(), s)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(s.logLevel)}))
	return s, logger, nil
}

// applyFlags overrides settings with the flags that were explicitly set.
func applyFlags(cmd *cli.Command, s *settings) {
	if cmd.IsSet("order") {
		s.order = cmd.Int("order")
	}
	if cmd.IsSet("min-length") {
		s.minLength = cmd.Int("min-length")
	}
	if cmd.IsSet("max-attempts") {
		s.maxAttempts = cmd.Int("max-attempts")
	}
	if cmd.IsSet("encoding") {
		s.encoding = cmd.String("encoding")
	}
	if cmd.IsSet("output-dir") {
		s.outputDir = cmd.String("output-dir")
	}
	if cmd.IsSet("archive-db") {
		s.archiveDB = cmd.String("archive-db")
	}
	if cmd.IsSet("log-level") {
		s.logLevel = cmd.String("log-level")
	}
	if cmd.IsSet("addr") {
		s.apiAddr = cmd.String("addr")
	}
}

// applyArgs applies the positional FILE [MIN_LENGTH] [ORDER] [ENCODING]
// arguments. A MIN_LENGTH or ORDER that is not an integer leaves the
// configured value in place.
func applyArgs(args []string, s *settings) {
	if len(args) > 0 {
		s.file = args[0]
	}
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			s.minLength = n
		}
	}
	if len(args) > 2 {
		if n, err := strconv.Atoi(args[2]); err == nil {
			s.order = n
		}
	}
	if len(args) > 3 {
		s.encoding = args[3]
	}
}

// loadGenerator reads the corpus and creates a generator for it. A missing
// corpus file is reported on out the way the interactive tool always has.
func loadGenerator(ctx context.Context, s *settings, out io.Writer, logger *slog.Logger) (*markov.Generator, error) {
	tokens, err := corpus.Load(s.file, s.encoding, markov.NewDefaultTokenizer())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			_, _ = fmt.Fprintf(out, "Invalid filename: '%s'\n", s.file)
			return nil, errInvalidFile
		}
		return nil, err
	}
	logger.DebugContext(ctx, "Corpus loaded", slog.String("file", s.file), slog.Int("tokens", len(tokens)))

	opts := []markov.Option{
		markov.WithOrder(s.order),
		markov.WithDefaultMinLength(s.minLength),
	}
	if s.maxAttempts != 0 {
		opts = append(opts, markov.WithAttemptBudget(s.maxAttempts))
	}
	gen, err := markov.NewGenerator(tokens, opts...)
	if err != nil {
		return nil, err
	}
	gen.SetLogger(logger)
	return gen, nil
}

// openArchive creates the archive saved texts go to, with a history store if
// a database is configured. The returned function releases the store.
func openArchive(s *settings, logger *slog.Logger) (*archive.Archive, func(), error) {
	if s.archiveDB == "" {
		a := archive.New(s.outputDir, nil)
		a.SetLogger(logger)
		return a, func() {}, nil
	}

	db, err := initDB(s.archiveDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = archive.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to setup archive schema: %w", err)
	}
	store, err := archive.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to prepare archive statements: %w", err)
	}
	store.SetLogger(logger)

	a := archive.New(s.outputDir, store)
	a.SetLogger(logger)
	return a, func() {
		store.Close()
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}, nil
}
