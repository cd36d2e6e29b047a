// Package transcript corrects recognized speech against a configured
// vocabulary of domain terms.
//
// Speech recognition of specialist terms (drug names, conditions, product
// names) often produces near-miss spellings. The Corrector aligns transcript
// tokens to the vocabulary in two stages:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     each transcript token and each vocabulary term. A term whose codes
//     overlap the token's becomes a phonetic candidate.
//
//  2. Jaro-Winkler ranking: among phonetic candidates, the term whose tokens
//     align best with the window wins, provided every aligned token pair
//     exceeds the phonetic threshold. When no candidate survives, a fallback
//     pass accepts a pure string-similarity match at a stricter threshold.
//
// Multi-word terms (e.g., "beta blocker") are handled with n-gram windows:
// at each position the longest matching window is consumed first. A window
// only ever matches a term with the same word count, so a correction never
// inserts or drops words the speaker did not say.
package transcript

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Correction records one substitution the corrector applied.
type Correction struct {
	// Original is the transcript span that was replaced.
	Original string

	// Corrected is the vocabulary term it was replaced with.
	Corrected string

	// Confidence is the Jaro-Winkler score of the accepted match.
	Confidence float64
}

// Option is a functional option for configuring a Corrector.
type Option func(*Corrector)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched term to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(c *Corrector) { c.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic candidate is found and the corrector falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(c *Corrector) { c.fuzzyThreshold = threshold }
}

// Corrector aligns transcript text to a fixed vocabulary. It is read-only
// after construction and safe for concurrent use.
type Corrector struct {
	vocabulary  []string
	vocabTokens [][]string
	vocabCodes  []map[string]struct{}
	maxWords    int

	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New builds a Corrector over vocabulary. Phonetic codes for every term are
// precomputed once. An empty vocabulary yields a Corrector whose Correct is
// the identity function.
func New(vocabulary []string, opts ...Option) *Corrector {
	c := &Corrector{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(c)
	}

	for _, term := range vocabulary {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		tokens := strings.Fields(strings.ToLower(term))
		c.vocabulary = append(c.vocabulary, term)
		c.vocabTokens = append(c.vocabTokens, tokens)
		c.vocabCodes = append(c.vocabCodes, codesForTokens(tokens))
		if len(tokens) > c.maxWords {
			c.maxWords = len(tokens)
		}
	}
	return c
}

// Correct rewrites text by replacing spans that align to vocabulary terms.
// The returned corrections are in text order. When nothing matches, text is
// returned unchanged with a nil corrections slice.
func (c *Corrector) Correct(text string) (string, []Correction) {
	if len(c.vocabulary) == 0 {
		return text, nil
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return text, nil
	}

	var output []string
	var corrections []Correction

	i := 0
	for i < len(tokens) {
		maxN := c.maxWords
		if i+maxN > len(tokens) {
			maxN = len(tokens) - i
		}

		matched := false
		// Longest window first so multi-word terms beat partial matches.
		for n := maxN; n >= 1; n-- {
			window := strings.Join(tokens[i:i+n], " ")
			term, conf, ok := c.match(window)
			if !ok {
				continue
			}
			if strings.EqualFold(window, term) {
				// Exact hit, keep the speaker's casing.
				output = append(output, tokens[i:i+n]...)
			} else {
				output = append(output, strings.Fields(term)...)
				corrections = append(corrections, Correction{
					Original:   window,
					Corrected:  term,
					Confidence: conf,
				})
			}
			i += n
			matched = true
			break
		}

		if !matched {
			output = append(output, tokens[i])
			i++
		}
	}

	if len(corrections) == 0 {
		return text, nil
	}
	return strings.Join(output, " "), corrections
}

// match tests one window against the vocabulary and returns the best term.
func (c *Corrector) match(window string) (term string, confidence float64, matched bool) {
	windowLower := strings.ToLower(strings.TrimSpace(window))
	if windowLower == "" {
		return window, 0, false
	}
	windowTokens := strings.Fields(windowLower)
	windowCodes := codesForTokens(windowTokens)

	type candidate struct {
		term     string
		score    float64
		phonetic bool
	}
	var best candidate

	for idx, t := range c.vocabulary {
		termTokens := c.vocabTokens[idx]

		// A window only matches a term with the same word count; anything
		// else would splice words into or out of the transcript.
		if len(termTokens) != len(windowTokens) {
			continue
		}

		phoneticMatch := codesOverlap(windowCodes, c.vocabCodes[idx])
		jwScore := alignmentScore(windowTokens, termTokens)

		if phoneticMatch {
			if jwScore >= c.phoneticThreshold {
				if !best.phonetic || jwScore > best.score {
					best = candidate{term: t, score: jwScore, phonetic: true}
				}
			}
		} else if !best.phonetic {
			if jwScore >= c.fuzzyThreshold && jwScore > best.score {
				best = candidate{term: t, score: jwScore, phonetic: false}
			}
		}
	}

	if best.term != "" {
		return best.term, best.score, true
	}
	return window, 0, false
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// alignmentScore scores a window against a term of the same word count as
// the weakest positional Jaro-Winkler pair. Taking the minimum means every
// spoken word must resemble its counterpart: one strong token cannot carry
// an otherwise unrelated window.
func alignmentScore(windowTokens, termTokens []string) float64 {
	score := 1.0
	for i, wt := range windowTokens {
		if s := matchr.JaroWinkler(wt, termTokens[i], false); s < score {
			score = s
		}
	}
	return score
}
