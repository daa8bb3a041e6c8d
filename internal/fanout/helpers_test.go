package fanout

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/insyd/notify/backend/internal/models"
	"github.com/insyd/notify/backend/internal/realtime"
	"github.com/insyd/notify/backend/internal/repositories"
	"github.com/insyd/notify/backend/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type push struct {
	users     []uint
	broadcast bool
	msg       realtime.Message
}

// recordingRouter remembers every push instead of writing to sockets
type recordingRouter struct {
	mu     sync.Mutex
	pushes []push
}

func (r *recordingRouter) SendToUser(userID uint, msg realtime.Message) int {
	return r.SendToUsers([]uint{userID}, msg)
}

func (r *recordingRouter) SendToUsers(userIDs []uint, msg realtime.Message) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, push{users: append([]uint(nil), userIDs...), msg: msg})
	return len(userIDs)
}

func (r *recordingRouter) Broadcast(msg realtime.Message) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, push{broadcast: true, msg: msg})
	return 1
}

// received returns the pushes of one event kind that reached userID
func (r *recordingRouter) received(userID uint, event string) []realtime.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.Message
	for _, p := range r.pushes {
		if p.msg.Event != event {
			continue
		}
		if p.broadcast {
			out = append(out, p.msg)
			continue
		}
		for _, id := range p.users {
			if id == userID {
				out = append(out, p.msg)
				break
			}
		}
	}
	return out
}

func (r *recordingRouter) broadcasts(event string) []realtime.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.Message
	for _, p := range r.pushes {
		if p.broadcast && p.msg.Event == event {
			out = append(out, p.msg)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenSQL("sqlite", filepath.Join(t.TempDir(), "notify.db"), "")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Follow{}, &models.Content{}, &models.Notification{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	db      *gorm.DB
	router  *recordingRouter
	service *Service
}

// newFixture builds a service over a fresh store holding the demo users
// and follow graph: 2, 3 and 4 follow 1, and 1 follows 2
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := newTestDB(t)
	router := &recordingRouter{}
	service := NewService(Dependencies{
		Users:         repositories.NewPostgresUserRepository(db),
		Follows:       repositories.NewPostgresFollowRepository(db),
		Content:       repositories.NewPostgresContentRepository(db),
		Notifications: repositories.NewPostgresNotificationRepository(db),
		Router:        router,
		Logger:        discardLogger(),
	}, opts...)
	_, err := service.Seed(t.Context())
	require.NoError(t, err)
	return &fixture{db: db, router: router, service: service}
}

func uintPtr(v uint) *uint { return &v }
