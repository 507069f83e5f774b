package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aar-healthcare/medbot/domain/knowledge"
	"github.com/aar-healthcare/medbot/domain/search"
	"golang.org/x/sync/singleflight"
)

// Tier identifies which stage of the cascade produced an answer.
type Tier int

// Tier values, in cascade order.
const (
	TierKeyword Tier = iota
	TierKnowledge
	TierSemanticKeyword
	TierFallback
)

// String returns the tier name used in logs and tool output.
func (t Tier) String() string {
	switch t {
	case TierKeyword:
		return "keyword"
	case TierKnowledge:
		return "knowledge"
	case TierSemanticKeyword:
		return "semantic_keyword"
	default:
		return "fallback"
	}
}

// Answer is the selected response and where it came from.
type Answer struct {
	text    string
	tier    Tier
	keyword string
	score   float64
}

// NewAnswer creates an Answer.
func NewAnswer(text string, tier Tier, keyword string, score float64) Answer {
	return Answer{text: text, tier: tier, keyword: keyword, score: score}
}

// Text returns the response text.
func (a Answer) Text() string { return a.text }

// Tier returns the cascade stage that answered.
func (a Answer) Tier() Tier { return a.tier }

// Keyword returns the matched keyword for keyword tiers.
func (a Answer) Keyword() string { return a.keyword }

// Score returns the winning similarity for embedding tiers.
func (a Answer) Score() float64 { return a.score }

// Selector runs the response cascade against a keyword table and a
// knowledge base.
type Selector struct {
	keywords KeywordTable
	base     knowledge.Base
	embedder search.Embedder
	logger   *slog.Logger

	flight         singleflight.Group
	mu             sync.RWMutex
	keywordVectors [][]float64
}

// NewSelector creates a Selector.
func NewSelector(keywords KeywordTable, base knowledge.Base, embedder search.Embedder, logger *slog.Logger) (*Selector, error) {
	if embedder == nil {
		return nil, fmt.Errorf("NewSelector: nil embedder")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		keywords: keywords,
		base:     base,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Select returns the answer for query. The only error is a failed
// embedding; every other outcome cascades down to GenericFallback.
func (s *Selector) Select(ctx context.Context, query string) (Answer, error) {
	normalized := normalize(query)

	if entry, ok := s.keywords.Match(normalized); ok {
		s.logger.Info("keyword match", slog.String("keyword", entry.Keyword()))
		return Answer{text: entry.Response(), tier: TierKeyword, keyword: entry.Keyword()}, nil
	}

	s.logger.Debug("no keyword match, retrieving knowledge", slog.String("query", normalized))
	queryVec, err := search.EmbedOne(ctx, s.embedder, normalized)
	if err != nil {
		return Answer{}, fmt.Errorf("embed query: %w", err)
	}

	if answer, ok := s.fromKnowledge(queryVec); ok {
		return answer, nil
	}

	answer, ok, err := s.fromKeywordVectors(ctx, queryVec)
	if err != nil {
		return Answer{}, err
	}
	if ok {
		return answer, nil
	}

	s.logger.Info("fallback response")
	return Answer{text: GenericFallback, tier: TierFallback}, nil
}

// Retrieve returns up to RetrievalTopK knowledge matches scoring above
// RetrievalFloor, best first.
func (s *Selector) Retrieve(queryVec []float64) []search.Match {
	ranked := search.Rank(queryVec, s.base.Embeddings())
	return search.Top(search.Above(ranked, RetrievalFloor), RetrievalTopK)
}

func (s *Selector) fromKnowledge(queryVec []float64) (Answer, bool) {
	matches := s.Retrieve(queryVec)
	if len(matches) == 0 || matches[0].Score() <= AcceptanceFloor {
		return Answer{}, false
	}

	best := matches[0]
	s.logger.Info("knowledge match", slog.Int("chunk", best.Index()), slog.Float64("score", best.Score()))
	return Answer{
		text:  s.base.Chunk(best.Index()).Text() + KnowledgeSuffix,
		tier:  TierKnowledge,
		score: best.Score(),
	}, true
}

func (s *Selector) fromKeywordVectors(ctx context.Context, queryVec []float64) (Answer, bool, error) {
	entries := s.keywords.Entries()
	if len(entries) == 0 {
		return Answer{}, false, nil
	}

	vectors, err := s.keywordEmbeddings(ctx)
	if err != nil {
		return Answer{}, false, fmt.Errorf("embed keywords: %w", err)
	}

	ranked := search.Rank(queryVec, vectors)
	for _, m := range search.Top(ranked, CandidateLogCount) {
		s.logger.Debug("semantic keyword candidate",
			slog.String("keyword", entries[m.Index()].Keyword()),
			slog.Float64("score", m.Score()),
		)
	}

	best := ranked[0]
	if best.Score() <= AcceptanceFloor {
		return Answer{}, false, nil
	}

	entry := entries[best.Index()]
	s.logger.Info("semantic keyword match", slog.String("keyword", entry.Keyword()), slog.Float64("score", best.Score()))
	return Answer{
		text:    entry.Response(),
		tier:    TierSemanticKeyword,
		keyword: entry.Keyword(),
		score:   best.Score(),
	}, true, nil
}

// keywordEmbeddings embeds every keyword once and reuses the vectors for
// later queries. Concurrent first callers share one embedding call; a
// failed call is not cached.
func (s *Selector) keywordEmbeddings(ctx context.Context) ([][]float64, error) {
	s.mu.RLock()
	cached := s.keywordVectors
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := s.flight.Do("keywords", func() (any, error) {
		vectors, err := s.embedder.Embed(ctx, s.keywords.Keywords())
		if err != nil {
			return nil, err
		}
		if len(vectors) != s.keywords.Len() {
			return nil, fmt.Errorf("got %d vectors for %d keywords", len(vectors), s.keywords.Len())
		}
		s.mu.Lock()
		s.keywordVectors = vectors
		s.mu.Unlock()
		return vectors, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([][]float64), nil
}

// Warm embeds the keyword table ahead of the first fallback query.
func (s *Selector) Warm(ctx context.Context) error {
	if s.keywords.Len() == 0 {
		return nil
	}
	_, err := s.keywordEmbeddings(ctx)
	return err
}
