package search

import (
	"sort"
	"strconv"

	"github.com/streed/smart-notes/internal/constants"
	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/models"
	"github.com/streed/smart-notes/internal/vector"
)

// Ranker scores notes against a query embedding by cosine similarity.
type Ranker struct {
	limit int
}

func NewRanker() *Ranker {
	return &Ranker{limit: constants.SemanticSearchLimit}
}

// Rank returns the highest scoring notes, best first. Notes without an
// embedding are skipped. Notes whose stored vector is malformed or has a
// different length than the query are skipped and logged. Equal scores
// keep corpus order.
func (r *Ranker) Rank(query []float64, corpus []*models.Note) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(corpus))
	for _, note := range corpus {
		if note.EmbeddingErr != nil {
			logger.Warn("Skipping note %d: stored embedding is malformed: %v", note.ID, note.EmbeddingErr)
			continue
		}
		if !note.HasEmbedding() {
			continue
		}
		if len(note.Embedding) != len(query) {
			logger.Warn("Skipping note %d: embedding has %d dimensions, query has %d",
				note.ID, len(note.Embedding), len(query))
			continue
		}

		score := vector.CosineSimilarity(query, note.Embedding)
		results = append(results, models.SearchResult{Note: note, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if r.limit > 0 && len(results) > r.limit {
		results = results[:r.limit]
	}
	for i := range results {
		results[i].Similarity = FormatSimilarity(results[i].Score)
	}
	return results
}

// FormatSimilarity renders a score with four decimals.
func FormatSimilarity(score float64) string {
	if score == 0 {
		// normalise negative zero
		score = 0
	}
	return strconv.FormatFloat(score, 'f', constants.SimilarityPrecision, 64)
}
