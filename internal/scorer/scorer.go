// Package scorer implements keystroke-oriented fuzzy matching of a short
// search string against a small corpus of keyword documents. It builds
// inverted indexes from exact keywords and from every prefix of every
// keyword, and ranks the whole corpus by a per-word minimum edit-distance
// sum on each call, so a caller can re-score on every keystroke.
package scorer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/suggestkit/suggestd/pkg/errors"
)

// Unmatched is the sentinel score for a document that no query word matched
// within the distance threshold. Unmatched documents sort after every
// matched document.
const Unmatched = math.MaxInt

// DefaultDistanceThreshold is the edit-distance cutoff applied when no
// threshold option is given.
const DefaultDistanceThreshold = 1

// ScoredDoc is one entry of a ranking: a document id and its summed edit
// distance across all query words. Lower is better.
type ScoredDoc struct {
	DocumentID string `json:"document_id"`
	Score      int    `json:"score"`
	Matched    bool   `json:"matched"`
}

// QueryScorer owns a corpus of documents and ranks them against a query.
// AddDocument and SetStopWords take the write lock; Score only reads, so
// steady-state querying is safe from concurrent callers.
type QueryScorer struct {
	mu               sync.RWMutex
	threshold        int
	costs            editCosts
	stopWords        map[string]struct{}
	stopWordPrefixes map[string]struct{}

	docs    []Document
	handles map[string]handle
	index   *corpusIndex
}

// Option configures a QueryScorer at construction time.
type Option func(*QueryScorer)

// WithDistanceThreshold sets the edit-distance cutoff. Distances strictly
// greater than the threshold are treated as no-match for that word pair.
func WithDistanceThreshold(d int) Option {
	return func(s *QueryScorer) { s.threshold = d }
}

// WithStopWords sets the words skipped during scoring. An exact stop word is
// skipped as the first query word; any prefix of a stop word is skipped as a
// later query word, since later words are assumed still being typed.
func WithStopWords(words ...string) Option {
	return func(s *QueryScorer) {
		s.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			s.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// WithEditCosts overrides the unit costs of insertion, replacement, and
// deletion used by the distance routine.
func WithEditCosts(insert, replace, delete int) Option {
	return func(s *QueryScorer) {
		s.costs = editCosts{insert: insert, replace: replace, delete: delete}
	}
}

// New builds a QueryScorer. The stop-word prefix set is derived eagerly so
// every Score call reuses it.
func New(opts ...Option) (*QueryScorer, error) {
	s := &QueryScorer{
		threshold: DefaultDistanceThreshold,
		costs:     defaultEditCosts,
		stopWords: make(map[string]struct{}),
		handles:   make(map[string]handle),
		index:     newCorpusIndex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.threshold < 0 {
		return nil, fmt.Errorf("%w: distance threshold must be non-negative, got %d",
			errors.ErrInvalidConfiguration, s.threshold)
	}
	if s.costs.insert < 0 || s.costs.replace < 0 || s.costs.delete < 0 {
		return nil, fmt.Errorf("%w: edit costs must be non-negative",
			errors.ErrInvalidConfiguration)
	}
	s.stopWordPrefixes = prefixSet(s.stopWords)
	return s, nil
}

// AddDocument normalizes the document's keywords to lowercase and inserts
// it into both inverted indexes. The corpus is append-only: there is no
// update or remove. A duplicate id is rejected so result consumers can rely
// on ids being unambiguous.
func (s *QueryScorer) AddDocument(doc Document) error {
	if err := doc.validate(); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handles[doc.ID]; exists {
		return fmt.Errorf("%w: document %q", errors.ErrDocumentExists, doc.ID)
	}

	normalized := make([]string, len(doc.Keywords))
	for i, kw := range doc.Keywords {
		normalized[i] = strings.ToLower(kw)
	}
	doc.Keywords = normalized

	h := handle(len(s.docs))
	s.docs = append(s.docs, doc)
	s.handles[doc.ID] = h
	for _, kw := range doc.Keywords {
		s.index.addKeyword(h, kw)
	}
	return nil
}

// SetStopWords replaces the stop-word set and recomputes the derived prefix
// set. Reconfigure-then-query: consistency for Score calls already in
// flight is not guaranteed.
func (s *QueryScorer) SetStopWords(words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWords = make(map[string]struct{}, len(words))
	for _, w := range words {
		s.stopWords[strings.ToLower(w)] = struct{}{}
	}
	s.stopWordPrefixes = prefixSet(s.stopWords)
}

// DocumentCount returns the number of registered documents.
func (s *QueryScorer) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Score ranks every registered document against the query, ascending by
// summed edit distance. The ranking always contains exactly one entry per
// document; documents no query word matched carry the Unmatched sentinel
// and sort last, keeping corpus insertion order among themselves.
//
// The first query word is compared against exact keywords and later words
// against keyword prefixes: the first word may be complete, while the user
// is assumed to still be typing the last one. Each scored word contributes
// its per-document minimum distance to a running sum, and a word that finds
// no match within the threshold for a document makes that document's total
// Unmatched.
func (s *QueryScorer) Score(query string) []ScoredDoc {
	s.mu.RLock()
	defer s.mu.RUnlock()

	words := splitQuery(query)
	sums := make([]int, len(s.docs))
	scoredWords := 0

	for pos, word := range words {
		if s.skipWord(word, pos) {
			continue
		}
		keys := s.index.byKeywordPrefix
		if pos == 0 {
			keys = s.index.byExactKeyword
		}

		minByDoc := make(map[handle]int)
		for key, bucket := range keys {
			d := levenshtein(word, key, s.costs)
			if d > s.threshold {
				continue
			}
			for h := range bucket {
				if best, ok := minByDoc[h]; !ok || d < best {
					minByDoc[h] = d
				}
			}
		}

		for i := range sums {
			m, ok := minByDoc[handle(i)]
			if !ok {
				m = Unmatched
			}
			sums[i] = saturatingAdd(sums[i], m)
		}
		scoredWords++
	}

	results := make([]ScoredDoc, len(s.docs))
	for i, doc := range s.docs {
		score := Unmatched
		if scoredWords > 0 {
			score = sums[i]
		}
		results[i] = ScoredDoc{
			DocumentID: doc.ID,
			Score:      score,
			Matched:    score != Unmatched,
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return results
}

func (s *QueryScorer) skipWord(word string, pos int) bool {
	if pos == 0 {
		_, skip := s.stopWords[word]
		return skip
	}
	_, skip := s.stopWordPrefixes[word]
	return skip
}

// splitQuery trims the query, splits on runs of whitespace, and lowercases
// the tokens. Empty input yields a single empty token, which participates
// in distance computation like any other word.
func splitQuery(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return []string{""}
	}
	return words
}

// prefixSet returns every rune-aligned prefix, length 1 through full
// length, of every word in the set.
func prefixSet(words map[string]struct{}) map[string]struct{} {
	prefixes := make(map[string]struct{})
	for w := range words {
		for i := range w {
			if i > 0 {
				prefixes[w[:i]] = struct{}{}
			}
		}
		if w != "" {
			prefixes[w] = struct{}{}
		}
	}
	return prefixes
}

func saturatingAdd(a, b int) int {
	if a == Unmatched || b == Unmatched {
		return Unmatched
	}
	return a + b
}
