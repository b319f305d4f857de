package scorer

// handle identifies a document by its position in the corpus arena. The
// index buckets store handles rather than document references so the arena
// remains the single owner of document data.
type handle int

type handleSet map[handle]struct{}

func (s handleSet) add(h handle) {
	s[h] = struct{}{}
}

// corpusIndex holds the two derived inverted indexes: one from exact
// keywords and one from every prefix of every keyword (length 1 through the
// full keyword). Both are built incrementally as documents are registered
// and never reference a handle outside the arena.
type corpusIndex struct {
	byExactKeyword  map[string]handleSet
	byKeywordPrefix map[string]handleSet
}

func newCorpusIndex() *corpusIndex {
	return &corpusIndex{
		byExactKeyword:  make(map[string]handleSet),
		byKeywordPrefix: make(map[string]handleSet),
	}
}

// addKeyword registers a normalized keyword for the given document handle.
// Bucket membership is set-based: inserting the same handle twice never
// creates duplicate scoring credit.
func (ci *corpusIndex) addKeyword(h handle, keyword string) {
	if keyword == "" {
		return
	}
	insert(ci.byExactKeyword, keyword, h)
	// Prefix boundaries are rune-aligned so multi-byte keywords never
	// produce a torn prefix.
	for i := range keyword {
		if i > 0 {
			insert(ci.byKeywordPrefix, keyword[:i], h)
		}
	}
	insert(ci.byKeywordPrefix, keyword, h)
}

func insert(m map[string]handleSet, key string, h handle) {
	bucket, ok := m[key]
	if !ok {
		bucket = make(handleSet)
		m[key] = bucket
	}
	bucket.add(h)
}
