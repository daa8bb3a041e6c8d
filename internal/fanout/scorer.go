package fanout

import "github.com/insyd/notify/backend/internal/models"

// Scorer assigns a delivery priority to a freshly written notification.
// Higher is more important. Scores are not stored.
type Scorer interface {
	Score(n *models.Notification) int64
}

// ScorerFunc adapts a function to Scorer
type ScorerFunc func(n *models.Notification) int64

func (f ScorerFunc) Score(n *models.Notification) int64 { return f(n) }

// RecencyScorer ranks newer notifications higher
type RecencyScorer struct{}

func (RecencyScorer) Score(n *models.Notification) int64 {
	return n.CreatedAt.UnixMilli()
}
