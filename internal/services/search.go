package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/streed/smart-notes/internal/ai"
	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/models"
	"github.com/streed/smart-notes/internal/search"
)

// SearchService handles keyword and semantic search
type SearchService struct {
	store    NoteStore
	embedder ai.Embedder
	ranker   *search.Ranker
}

func NewSearchService(store NoteStore, embedder ai.Embedder) *SearchService {
	return &SearchService{store: store, embedder: embedder, ranker: search.NewRanker()}
}

// Semantic embeds the query and ranks every stored note against it. An
// empty result is not an error; a query that cannot be embedded is.
func (s *SearchService) Semantic(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, interrors.ErrEmptyQuery
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Error("Query embedding failed: %v", err)
		return nil, fmt.Errorf("%w: %v", interrors.ErrQueryEmbedding, err)
	}
	if len(embedding) == 0 {
		return nil, interrors.ErrQueryEmbedding
	}

	corpus, err := s.store.ListAll()
	if err != nil {
		return nil, err
	}

	results := s.ranker.Rank(embedding, corpus)
	logger.Debug("Semantic search %q: %d of %d notes ranked", query, len(results), len(corpus))
	return results, nil
}

// Keyword matches the query against content, summary and tag names.
func (s *SearchService) Keyword(query string) ([]*models.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, interrors.ErrEmptyQuery
	}
	return s.store.Search(query)
}
