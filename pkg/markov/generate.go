package markov

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMinLength is the number of steps generated before the sampler
	// starts looking for a sentence end.
	DefaultMinLength = 100

	// attemptsPerToken scales the attempt budget with the corpus size.
	attemptsPerToken = 10
	// minAttempts keeps tiny corpora from getting a useless budget.
	minAttempts = 10

	// eolMarks are the characters that end a sentence.
	eolMarks = ".?!"
)

// separatorExcRegex matches tokens that are written without a separator before them.
var separatorExcRegex = regexp.MustCompile(`^[.,!?;:]+$`)

// generateOptions Is used by Sample to configure a single generation.
type generateOptions struct {
	minLength   int
	maxAttempts int
	rng         *rand.Rand
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument in Sample, Generator.Generate and Generator.GenerateResult.
type GenerateOption func(*generateOptions)

// WithMinLength sets how many steps must be generated before a token ending
// in '.', '?' or '!' stops generation.
func WithMinLength(n int) GenerateOption {
	return func(o *generateOptions) { o.minLength = n }
}

// WithMaxAttempts caps both the number of random start picks and the number
// of generation steps.
func WithMaxAttempts(n int) GenerateOption {
	return func(o *generateOptions) { o.maxAttempts = n }
}

// WithRand makes generation draw from r instead of the global source.
// A *rand.Rand is not safe for concurrent use, so r must not be shared
// between concurrent calls.
func WithRand(r *rand.Rand) GenerateOption {
	return func(o *generateOptions) { o.rng = r }
}

func (o *generateOptions) intN(n int) int {
	if o.rng != nil {
		return o.rng.IntN(n)
	}
	return rand.IntN(n)
}

// DefaultMaxAttempts returns the attempt budget used for a corpus of
// corpusSize tokens.
func DefaultMaxAttempts(corpusSize int) int {
	return max(corpusSize*attemptsPerToken, minAttempts)
}

// Result describes a single generated text.
type Result struct {
	Text  string
	Words int // tokens in the output, the start word included
	Steps int // sampling steps taken after the start word

	// StartExhausted reports that no uppercase start word was found within
	// the attempt budget and the last candidate was used instead.
	StartExhausted bool
	// StepsExhausted reports that generation hit the step ceiling before
	// reaching a sentence end.
	StepsExhausted bool
}

// Sample generates one text from chain. A start word is searched for by
// picking keys at random and taking their first follower until one starts
// with an uppercase letter. Followers are then sampled uniformly from the
// key formed by the latest tokens until at least the minimum length has been
// generated and the last token ends a sentence, the End-Of-Chain marker is
// drawn, or the attempt budget runs out.
func Sample(chain *Chain, opts ...GenerateOption) (*Result, error) {
	if chain == nil || chain.Len() == 0 {
		return nil, fmt.Errorf("%w: empty chain", ErrNoContinuation)
	}

	options := &generateOptions{
		minLength:   DefaultMinLength,
		maxAttempts: DefaultMaxAttempts(chain.size),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.minLength < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, options.minLength)
	}
	if options.maxAttempts < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAttempts, options.maxAttempts)
	}

	prefix, word, startExhausted := chain.chooseStart(options)
	if word == EOCTokenID {
		return nil, fmt.Errorf("%w: no token can start a text", ErrNoContinuation)
	}

	output := []int{word}
	steps := 0
	stepsExhausted := false

	for {
		if steps >= options.minLength && endsSentence(chain.vocab[word]) {
			break
		}

		prefix = append(prefix[1:], word)
		choices := chain.followerIDs(prefix)
		if len(choices) == 0 {
			return nil, fmt.Errorf("%w: '%s'", ErrNoContinuation, appendPrefixKey(nil, prefix))
		}

		word = choices[options.intN(len(choices))]
		steps++
		if word == EOCTokenID {
			break
		}
		if steps >= options.maxAttempts {
			stepsExhausted = true
			break
		}
		output = append(output, word)
	}

	return &Result{
		Text:           chain.render(output),
		Words:          len(output),
		Steps:          steps,
		StartExhausted: startExhausted,
		StepsExhausted: stepsExhausted,
	}, nil
}

// chooseStart picks random keys until the first follower of one of them can
// start a text, or the attempt budget is spent. On exhaustion the last real
// token drawn is used, falling back to the first corpus token when every
// pick hit the End-Of-Chain marker. EOCTokenID is returned only for an empty
// corpus. The key is returned as a copy.
func (c *Chain) chooseStart(options *generateOptions) (Key, int, bool) {
	lastIdx, lastWord := -1, EOCTokenID
	for attempts := 0; attempts <= options.maxAttempts; attempts++ {
		idx := options.intN(len(c.keys))
		if len(c.followers[idx]) == 0 || c.followers[idx][0] < firstTokenID {
			continue
		}
		lastIdx, lastWord = idx, c.followers[idx][0]
		if c.canStart(lastWord) {
			return append(Key(nil), c.keys[idx]...), lastWord, false
		}
	}

	if lastIdx < 0 {
		// The start key is registered first and holds the first corpus token.
		if len(c.followers[0]) == 0 || c.followers[0][0] < firstTokenID {
			return nil, EOCTokenID, true
		}
		lastIdx, lastWord = 0, c.followers[0][0]
	}
	return append(Key(nil), c.keys[lastIdx]...), lastWord, true
}

// canStart reports whether id is a real token starting with an uppercase letter.
func (c *Chain) canStart(id int) bool {
	if id < firstTokenID {
		return false
	}
	r, _ := utf8.DecodeRuneInString(c.vocab[id])
	return unicode.IsUpper(r)
}

// render joins the tokens of a generated text and makes sure it ends with
// a sentence mark. A trailing newline is dropped before the mark is added.
func (c *Chain) render(ids []int) string {
	var builder strings.Builder
	var lastWord string
	for i, id := range ids {
		text := c.vocab[id]
		if i > 0 {
			builder.WriteString(separator(lastWord, text))
		}
		builder.WriteString(text)
		lastWord = text
	}

	out := strings.TrimRight(builder.String(), Newline)
	if !endsSentence(out) {
		out += "."
	}
	return out
}

// separator returns the string written between two generated tokens.
func separator(prev, next string) string {
	if prev == Newline || next == Newline || separatorExcRegex.MatchString(next) {
		return ""
	}
	return " "
}

// endsSentence reports whether the last character of s is a sentence mark.
func endsSentence(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && strings.ContainsRune(eolMarks, r)
}
