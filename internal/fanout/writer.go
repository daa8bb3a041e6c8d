package fanout

import (
	"context"
	"fmt"

	"github.com/insyd/notify/backend/internal/models"
)

// NotificationStore is the insert-if-absent primitive the writer needs
type NotificationStore interface {
	CreateIfAbsent(ctx context.Context, notification *models.Notification) (bool, error)
}

// WriteRequest carries the event fields copied onto every row
type WriteRequest struct {
	EventID   string
	Type      models.EventType
	ActorID   uint
	ContentID *uint
	Metadata  models.Metadata
}

// Writer persists one notification per recipient, at most once per event
type Writer struct {
	store  NotificationStore
	scorer Scorer
}

func NewWriter(store NotificationStore, scorer Scorer) *Writer {
	if scorer == nil {
		scorer = RecencyScorer{}
	}
	return &Writer{store: store, scorer: scorer}
}

// Write inserts a row for every recipient and returns the rows that did
// not exist before, scored and in recipient order. Recipients that already
// have a row for req.EventID are skipped silently.
//
// On a store failure the rows written so far are returned with the error;
// they stay persisted.
func (w *Writer) Write(ctx context.Context, req WriteRequest, recipients []uint) ([]models.Notification, error) {
	created := make([]models.Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		n := models.Notification{
			EventID:     req.EventID,
			RecipientID: recipientID,
			Type:        string(req.Type),
			ActorID:     req.ActorID,
			ContentID:   req.ContentID,
			Metadata:    req.Metadata,
		}
		isNew, err := w.store.CreateIfAbsent(ctx, &n)
		if err != nil {
			return created, fmt.Errorf("notify %d: %w", recipientID, err)
		}
		if !isNew {
			continue
		}
		n.Score = w.scorer.Score(&n)
		created = append(created, n)
	}
	return created, nil
}
