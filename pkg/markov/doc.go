/*
Package markov provides an in-memory toolkit for building word-level Markov
chains from a corpus and generating text from them.

A Chain maps every key, the N tokens preceding a position in the corpus, to
the tokens that followed it. Frequencies are kept by repetition, so sampling
uniformly from a follower list reproduces the corpus statistics. Generated
texts start with a capitalized word and end on a sentence mark, and every
generation is bounded by an attempt budget so that sparse or cyclic corpora
cannot stall it.

Typical use:

	tokens, err := markov.ReadTokens(markov.NewDefaultTokenizer(), r)
	if err != nil {
		return err
	}
	g, err := markov.NewGenerator(tokens, markov.WithOrder(2))
	if err != nil {
		return err
	}
	text, err := g.Generate(ctx, markov.WithMinLength(50))
*/
package markov
