package models

// EventType tags an incoming activity event
type EventType string

const (
	EventFollow      EventType = "follow"
	EventPostCreated EventType = "post_created"
	EventLike        EventType = "like"
	EventMention     EventType = "mention"
)

// Event is a caller-submitted activity. EventID is the idempotency token.
type Event struct {
	EventID          string         `json:"event_id" validate:"required,max=128"`
	Type             EventType      `json:"type" validate:"required"`
	ActorID          uint           `json:"actor_id" validate:"required"`
	ContentID        *uint          `json:"content_id,omitempty"`
	TargetUserID     *uint          `json:"target_user_id,omitempty"`
	MentionedUserIDs []uint         `json:"mentioned_user_ids,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}
