package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Match is a ranked document.
type Match struct {
	Document Document
	Score    float64
}

// Retriever holds the loaded corpus. Reload swaps it atomically; readers
// never observe a partially loaded corpus.
type Retriever struct {
	source Source
	group  singleflight.Group

	mu       sync.RWMutex
	docs     []Document
	samples  bool
	loadedAt time.Time
}

func NewRetriever(source Source) *Retriever {
	return &Retriever{source: source}
}

// Reload re-reads the source. Concurrent callers share one load. When the
// source yields nothing the sample documents are served instead. On error the
// previous corpus is kept, or the samples when there was none.
func (r *Retriever) Reload(ctx context.Context) (int, error) {
	v, err, shared := r.group.Do("reload", func() (interface{}, error) {
		docs, err := r.source.Load(ctx)
		if err != nil {
			r.mu.Lock()
			if len(r.docs) == 0 {
				r.docs, r.samples = SampleDocuments, true
			}
			r.mu.Unlock()
			return 0, err
		}

		samples := false
		if len(docs) == 0 {
			docs, samples = SampleDocuments, true
			log.Info().Str("source", r.source.Name()).Msg("no documents found, using sample documents")
		}
		r.mu.Lock()
		r.docs, r.samples, r.loadedAt = docs, samples, time.Now()
		r.mu.Unlock()

		log.Info().Str("source", r.source.Name()).Int("count", len(docs)).Msg("loaded documents for retrieval")
		return len(docs), nil
	})
	if shared {
		log.Debug().Msg("reload shared with concurrent caller")
	}
	n, _ := v.(int)
	return n, err
}

// Retrieve ranks the loaded corpus against query.
func (r *Retriever) Retrieve(query string, topK int) []Match {
	r.mu.RLock()
	docs := r.docs
	r.mu.RUnlock()
	return Rank(docs, query, topK)
}

func (r *Retriever) Documents() []Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Document(nil), r.docs...)
}

func (r *Retriever) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

// UsingSamples reports whether the sample corpus is being served.
func (r *Retriever) UsingSamples() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.samples
}

func (r *Retriever) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

func (r *Retriever) SourceName() string { return r.source.Name() }

// Source returns the underlying document source.
func (r *Retriever) Source() Source { return r.source }

// Rank scores docs by Jaccard similarity of lowercase whitespace tokens,
// sorts descending (ties keep corpus order), takes the first topK and
// drops zero scores.
func Rank(docs []Document, query string, topK int) []Match {
	if len(docs) == 0 || topK <= 0 {
		return []Match{}
	}
	q := tokenSet(query)
	matches := make([]Match, len(docs))
	for i, d := range docs {
		matches[i] = Match{Document: d, Score: jaccard(q, tokenSet(d.Text()))}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	out := matches[:0]
	for _, m := range matches {
		if m.Score > 0 {
			out = append(out, m)
		}
	}
	return out
}

// Similarity is the Jaccard similarity of the lowercase whitespace tokens of a and b.
func Similarity(a, b string) float64 {
	return jaccard(tokenSet(a), tokenSet(b))
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
