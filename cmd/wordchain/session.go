package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/CTAG07/wordchain/pkg/archive"
	"github.com/CTAG07/wordchain/pkg/markov"
)

const (
	promptAnother = "Another one (y/n)?"
	promptSave    = " or save (s)?"
	promptName    = "input name of file:"
)

// Session runs the interactive generate / save loop over a reader and a writer.
type Session struct {
	gen       *markov.Generator
	archive   *archive.Archive
	minLength int
	source    string
	in        *bufio.Scanner
	out       io.Writer
	logger    *slog.Logger
}

// NewSession creates a Session reading answers from in and writing texts and
// prompts to out.
func NewSession(gen *markov.Generator, a *archive.Archive, minLength int, source string, in io.Reader, out io.Writer, logger *slog.Logger) *Session {
	return &Session{
		gen:       gen,
		archive:   a,
		minLength: minLength,
		source:    source,
		in:        bufio.NewScanner(in),
		out:       out,
		logger:    logger,
	}
}

// Run prints a text and asks for another one until the user declines or the
// input ends. Right after a save the same text is kept and saving is not
// offered again.
func (s *Session) Run(ctx context.Context) error {
	var text string
	saved := false

	for {
		if !saved {
			var err error
			text, err = s.gen.Generate(ctx, markov.WithMinLength(s.minLength))
			if err != nil {
				return fmt.Errorf("could not generate text: %w", err)
			}
			_, _ = fmt.Fprintln(s.out, "\n"+text)
		}
		_, _ = fmt.Fprintln(s.out)

		prompt := promptAnother
		if !saved {
			prompt += promptSave
		}
		decision, ok := s.ask(prompt)
		if !ok {
			return s.in.Err()
		}
		_, _ = fmt.Fprintln(s.out)

		if !saved && startsWith(decision, 's') {
			name, ok := s.ask(promptName)
			if !ok {
				return s.in.Err()
			}
			entry, err := s.archive.Save(ctx, archive.SaveRequest{
				Name:      name,
				Text:      text,
				Order:     s.gen.Order(),
				MinLength: s.minLength,
				Source:    s.source,
			})
			if err != nil {
				return fmt.Errorf("could not save text: %w", err)
			}
			_, _ = fmt.Fprintln(s.out, "saved to: "+entry.Path)
			saved = true
			continue
		}

		saved = false
		if !(decision == "" || startsWith(decision, 'y')) {
			s.logger.DebugContext(ctx, "Session ended by user", slog.String("decision", decision))
			return nil
		}
	}
}

// ask prints prompt on its own line and reads one line of input. It reports
// false once the input is exhausted.
func (s *Session) ask(prompt string) (string, bool) {
	_, _ = fmt.Fprintln(s.out, prompt)
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

// startsWith reports whether answer begins with the letter c in either case.
func startsWith(answer string, c byte) bool {
	return answer != "" && strings.ToLower(answer[:1])[0] == c
}
