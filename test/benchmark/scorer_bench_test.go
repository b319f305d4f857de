package benchmark

import (
	"fmt"
	"testing"

	"github.com/suggestkit/suggestd/internal/scorer"
)

func newScorer(b *testing.B, numDocs, keywordsPerDoc int) *scorer.QueryScorer {
	b.Helper()
	sc, err := scorer.New(
		scorer.WithDistanceThreshold(1),
		scorer.WithStopWords("app", "the"),
	)
	if err != nil {
		b.Fatal(err)
	}
	for d := 0; d < numDocs; d++ {
		keywords := make([]string, keywordsPerDoc)
		for k := 0; k < keywordsPerDoc; k++ {
			keywords[k] = fmt.Sprintf("keyword%dvariant%d", k, d)
		}
		doc := scorer.Document{ID: fmt.Sprintf("doc-%d", d), Keywords: keywords}
		if err := sc.AddDocument(doc); err != nil {
			b.Fatal(err)
		}
	}
	return sc
}

// BenchmarkScoreQueryShapes measures scoring latency for the query shapes a
// suggest box produces while the user types.
func BenchmarkScoreQueryShapes(b *testing.B) {
	sc, err := scorer.New(
		scorer.WithDistanceThreshold(1),
		scorer.WithStopWords("app", "the"),
	)
	if err != nil {
		b.Fatal(err)
	}
	docs := []scorer.Document{
		{ID: "clear-data", Keywords: []string{"cache", "clear", "cookies", "delete", "history", "remove"}},
		{ID: "refresh-profile", Keywords: []string{"fix", "profile", "refresh", "repair", "reset", "restore", "slow"}},
		{ID: "update-app", Keywords: []string{"latest", "update", "upgrade", "version"}},
	}
	for _, doc := range docs {
		if err := sc.AddDocument(doc); err != nil {
			b.Fatal(err)
		}
	}

	queries := []struct {
		name  string
		query string
	}{
		{"single_char", "c"},
		{"exact_word", "update"},
		{"typo", "updaet"},
		{"two_words", "clear his"},
		{"stop_word_lead", "the app is slo"},
		{"no_match", "banana aardvark"},
		{"long", "please clear all of my browsing history and cookies right now"},
	}

	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ranking := sc.Score(q.query)
				_ = ranking
			}
		})
	}
}

// BenchmarkScoreCorpusSize measures how scoring scales with corpus size.
func BenchmarkScoreCorpusSize(b *testing.B) {
	sizes := []int{3, 10, 50, 200}
	for _, numDocs := range sizes {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			sc := newScorer(b, numDocs, 6)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ranking := sc.Score("keyword3variant7 keyw")
				_ = ranking
			}
		})
	}
}

// BenchmarkAddDocument measures corpus build cost, including prefix-index
// population.
func BenchmarkAddDocument(b *testing.B) {
	keywordCounts := []int{4, 16, 64}
	for _, kc := range keywordCounts {
		b.Run(fmt.Sprintf("keywords_%d", kc), func(b *testing.B) {
			keywords := make([]string, kc)
			for k := 0; k < kc; k++ {
				keywords[k] = fmt.Sprintf("benchmarkkeyword%d", k)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				sc, err := scorer.New()
				if err != nil {
					b.Fatal(err)
				}
				doc := scorer.Document{ID: "doc", Keywords: keywords}
				if err := sc.AddDocument(doc); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkScoreParallel measures concurrent scoring throughput; Score only
// takes the read lock, so this should scale with cores.
func BenchmarkScoreParallel(b *testing.B) {
	sc := newScorer(b, 50, 6)

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ranking := sc.Score("keyword2variant11 keyw")
			_ = ranking
		}
	})
}
