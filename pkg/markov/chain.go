package markov

import (
	"fmt"
	"strconv"
)

const (
	// SOCTokenID is the reserved ID for the Start-Of-Chain token. Every key
	// slot that precedes the first real token holds it.
	SOCTokenID = 0
	// EOCTokenID is the reserved ID for the End-Of-Chain token, recorded as
	// the follower of the final key.
	EOCTokenID = 1
	// SOCTokenText is the display text for the Start-Of-Chain token.
	SOCTokenText = "<SOC>"
	// EOCTokenText is the display text for the End-Of-Chain token.
	EOCTokenText = "<EOC>"

	// firstTokenID is the ID handed to the first real token of a corpus.
	firstTokenID = 2
)

// Key is an ordered window of token IDs used to look up followers in a Chain.
type Key []int

// Chain maps every key seen in a corpus to the tokens that followed it.
// Duplicate followers are kept, so frequency is encoded by repetition, and
// followers are stored in the order they were seen. A Chain is never
// modified after Build returns it.
type Chain struct {
	order      int
	size       int            // number of corpus tokens the chain was built from
	vocab      []string       // token_id -> token_text
	vocabIndex map[string]int // token_text -> token_id
	prefixes   map[string]int // prefix_text -> index into keys
	keys       []Key
	followers  [][]int
}

// Build creates a Chain of the given order from tokens. Every token is
// recorded under the key formed by the order tokens before it, with
// SOCTokenID filling the slots before the first token, and the key after the
// last token always receives EOCTokenID.
func Build(tokens []string, order int) (*Chain, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}

	c := &Chain{
		order:      order,
		size:       len(tokens),
		vocab:      []string{SOCTokenText, EOCTokenText},
		vocabIndex: make(map[string]int),
		prefixes:   make(map[string]int),
	}

	prefix := make(Key, order)
	var keyBuf []byte
	for _, text := range tokens {
		tokenID := c.intern(text)
		keyBuf = c.link(keyBuf, prefix, tokenID)
		prefix = append(prefix[1:], tokenID)
	}
	c.link(keyBuf, prefix, EOCTokenID)

	return c, nil
}

// intern returns the ID of text, adding it to the vocabulary if needed.
func (c *Chain) intern(text string) int {
	if id, ok := c.vocabIndex[text]; ok {
		return id
	}
	id := len(c.vocab)
	c.vocab = append(c.vocab, text)
	c.vocabIndex[text] = id
	return id
}

// link appends next to the follower list of prefix, registering prefix as a
// new key the first time it is seen. keyBuf is reused between calls.
func (c *Chain) link(keyBuf []byte, prefix Key, next int) []byte {
	keyBuf = appendPrefixKey(keyBuf[:0], prefix)
	idx, ok := c.prefixes[string(keyBuf)]
	if !ok {
		idx = len(c.keys)
		c.prefixes[string(keyBuf)] = idx
		c.keys = append(c.keys, append(Key(nil), prefix...))
		c.followers = append(c.followers, nil)
	}
	c.followers[idx] = append(c.followers[idx], next)
	return keyBuf
}

// appendPrefixKey writes the space separated token IDs of prefix to buf.
func appendPrefixKey(buf []byte, prefix Key) []byte {
	for j, tokenID := range prefix {
		if j > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(tokenID), 10)
	}
	return buf
}

// Order returns the number of tokens in every key of the chain.
func (c *Chain) Order() int {
	return c.order
}

// Len returns the number of distinct keys in the chain.
func (c *Chain) Len() int {
	return len(c.keys)
}

// Keys returns every key of the chain in the order it was first seen.
// The returned slice must not be modified.
func (c *Chain) Keys() []Key {
	return c.keys
}

// StartKey returns the key made only of Start-Of-Chain tokens.
func (c *Chain) StartKey() Key {
	return make(Key, c.order)
}

// KeyOf builds a key from token texts. It returns false if the number of
// words does not match the chain order or a word is not in the vocabulary.
func (c *Chain) KeyOf(words ...string) (Key, bool) {
	if len(words) != c.order {
		return nil, false
	}
	key := make(Key, 0, c.order)
	for _, w := range words {
		id, ok := c.vocabIndex[w]
		if !ok {
			return nil, false
		}
		key = append(key, id)
	}
	return key, true
}

// TokenID looks up the ID of a real token.
func (c *Chain) TokenID(text string) (int, bool) {
	id, ok := c.vocabIndex[text]
	return id, ok
}

// TokenText returns the text of a token ID. The reserved IDs map to
// SOCTokenText and EOCTokenText.
func (c *Chain) TokenText(id int) (string, bool) {
	if id < 0 || id >= len(c.vocab) {
		return "", false
	}
	return c.vocab[id], true
}

// Followers returns the tokens recorded after key, in insertion order and
// with duplicates. The End-Of-Chain marker is returned as a Token with EOC
// set. A nil slice means the key was never seen.
func (c *Chain) Followers(key Key) []Token {
	ids := c.followerIDs(key)
	if ids == nil {
		return nil
	}
	tokens := make([]Token, len(ids))
	for i, id := range ids {
		if id == EOCTokenID {
			tokens[i] = Token{EOC: true}
			continue
		}
		tokens[i] = Token{Text: c.vocab[id]}
	}
	return tokens
}

// followerIDs returns the raw follower list of key, or nil if it is unknown.
func (c *Chain) followerIDs(key Key) []int {
	if len(key) != c.order {
		return nil
	}
	idx, ok := c.prefixes[string(appendPrefixKey(nil, key))]
	if !ok {
		return nil
	}
	return c.followers[idx]
}
