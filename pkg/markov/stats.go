package markov

// ChainStats holds aggregated statistics for a single Chain.
type ChainStats struct {
	Order           int `json:"order"`            // The number of tokens in each key.
	CorpusTokens    int `json:"corpus_tokens"`    // The number of tokens the chain was built from.
	Keys            int `json:"keys"`             // The number of distinct keys.
	Transitions     int `json:"transitions"`      // The number of recorded followers, the End-Of-Chain marker included.
	Vocabulary      int `json:"vocabulary"`       // The number of distinct real tokens.
	StartingTokens  int `json:"starting_tokens"`  // The number of followers recorded under the start key.
	CapitalizedKeys int `json:"capitalized_keys"` // The number of keys whose first follower can start a text.
}

// Stats returns a snapshot of statistics for the chain.
func (c *Chain) Stats() ChainStats {
	stats := ChainStats{
		Order:        c.order,
		CorpusTokens: c.size,
		Keys:         len(c.keys),
		Vocabulary:   len(c.vocab) - firstTokenID,
	}
	for _, followers := range c.followers {
		stats.Transitions += len(followers)
		if len(followers) > 0 && c.canStart(followers[0]) {
			stats.CapitalizedKeys++
		}
	}
	stats.StartingTokens = len(c.followerIDs(c.StartKey()))
	return stats
}
