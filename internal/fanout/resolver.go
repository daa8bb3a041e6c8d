package fanout

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/insyd/notify/backend/internal/models"
	"github.com/insyd/notify/backend/internal/repositories"
	"github.com/samber/lo"
)

// RecipientSet is a set of user ids
type RecipientSet map[uint]struct{}

func newRecipientSet(ids ...uint) RecipientSet {
	s := make(RecipientSet, len(ids))
	for _, id := range ids {
		if id != 0 {
			s[id] = struct{}{}
		}
	}
	return s
}

// IDs returns the members in ascending order
func (s RecipientSet) IDs() []uint {
	ids := lo.Keys(s)
	slices.Sort(ids)
	return ids
}

// Contains reports whether id is a member
func (s RecipientSet) Contains(id uint) bool {
	_, ok := s[id]
	return ok
}

// FollowerLookup finds who follows a user
type FollowerLookup interface {
	GetFollowerIDs(ctx context.Context, followeeID uint) ([]uint, error)
}

// ContentLookup finds content by id
type ContentLookup interface {
	GetContentByID(ctx context.Context, id uint) (*models.Content, error)
}

type resolveFunc func(ctx context.Context, ev *models.Event) (RecipientSet, error)

// Resolver maps an event to the users that should be notified.
// It only reads from the store.
type Resolver struct {
	followers FollowerLookup
	content   ContentLookup
	rules     map[models.EventType]resolveFunc
}

func NewResolver(followers FollowerLookup, content ContentLookup) *Resolver {
	r := &Resolver{followers: followers, content: content}
	r.rules = map[models.EventType]resolveFunc{
		models.EventFollow:      r.resolveFollow,
		models.EventPostCreated: r.resolvePostCreated,
		models.EventLike:        r.resolveLike,
		models.EventMention:     r.resolveMention,
	}
	return r
}

// Supports reports whether t has a recipient rule
func (r *Resolver) Supports(t models.EventType) bool {
	_, ok := r.rules[t]
	return ok
}

// Resolve returns the recipient set of ev. Unsupported types and missing
// optional fields give an empty set; only store failures are errors.
func (r *Resolver) Resolve(ctx context.Context, ev *models.Event) (RecipientSet, error) {
	rule, ok := r.rules[ev.Type]
	if !ok {
		return newRecipientSet(), nil
	}
	return rule(ctx, ev)
}

// the followed user learns about the new follower
func (r *Resolver) resolveFollow(_ context.Context, ev *models.Event) (RecipientSet, error) {
	if ev.TargetUserID == nil {
		return newRecipientSet(), nil
	}
	return newRecipientSet(*ev.TargetUserID), nil
}

// every follower of the author; the author only gets the content push
func (r *Resolver) resolvePostCreated(ctx context.Context, ev *models.Event) (RecipientSet, error) {
	ids, err := r.followers.GetFollowerIDs(ctx, ev.ActorID)
	if err != nil {
		return nil, fmt.Errorf("followers of %d: %w", ev.ActorID, err)
	}
	return newRecipientSet(ids...), nil
}

// the author of the liked content
func (r *Resolver) resolveLike(ctx context.Context, ev *models.Event) (RecipientSet, error) {
	if ev.ContentID == nil {
		return newRecipientSet(), nil
	}
	content, err := r.content.GetContentByID(ctx, *ev.ContentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return newRecipientSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("content %d: %w", *ev.ContentID, err)
	}
	return newRecipientSet(content.AuthorID), nil
}

func (r *Resolver) resolveMention(_ context.Context, ev *models.Event) (RecipientSet, error) {
	return newRecipientSet(ev.MentionedUserIDs...), nil
}
