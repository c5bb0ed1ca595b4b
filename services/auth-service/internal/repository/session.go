package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/model"
)

var ErrDuplicateToken = errors.New("session token already exists")

// SessionRepository defines the interface for session-related storage operations.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) (*model.Session, error)
	GetSessionByToken(ctx context.Context, token string) (*model.Session, error)
	ListSessionsByUserID(ctx context.Context, userID string) ([]*model.Session, error)
	// DeleteSessionByToken reports whether a session was removed.
	DeleteSessionByToken(ctx context.Context, token string) (bool, error)
	DeleteSessionsByUserID(ctx context.Context, userID string) (int, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

type sessionSnapshotRepository struct {
	sessions *Collection[model.Session]
}

func NewSessionRepository(backend Backend, logger *zerolog.Logger) SessionRepository {
	return &sessionSnapshotRepository{
		sessions: NewCollection[model.Session](backend, KindSessions, logger),
	}
}

func (r *sessionSnapshotRepository) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	created := *session
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	err := r.sessions.Mutate(ctx, func(sessions []model.Session) ([]model.Session, error) {
		if slices.ContainsFunc(sessions, func(s model.Session) bool { return s.Token == created.Token }) {
			return nil, ErrDuplicateToken
		}
		return append(sessions, created), nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *sessionSnapshotRepository) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	session, ok, err := r.sessions.Find(ctx, func(s model.Session) bool { return s.Token == token })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	return &session, nil
}

func (r *sessionSnapshotRepository) ListSessionsByUserID(ctx context.Context, userID string) ([]*model.Session, error) {
	all, err := r.sessions.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	var sessions []*model.Session
	for _, s := range all {
		if s.UserID == userID {
			sessions = append(sessions, &s)
		}
	}

	return sessions, nil
}

func (r *sessionSnapshotRepository) DeleteSessionByToken(ctx context.Context, token string) (bool, error) {
	deleted := false
	err := r.sessions.Mutate(ctx, func(sessions []model.Session) ([]model.Session, error) {
		idx := slices.IndexFunc(sessions, func(s model.Session) bool { return s.Token == token })
		if idx == -1 {
			return nil, errUnchanged
		}

		deleted = true
		return slices.Delete(sessions, idx, idx+1), nil
	})

	return deleted, err
}

func (r *sessionSnapshotRepository) DeleteSessionsByUserID(ctx context.Context, userID string) (int, error) {
	return r.deleteWhere(ctx, func(s model.Session) bool { return s.UserID == userID })
}

func (r *sessionSnapshotRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return r.deleteWhere(ctx, func(s model.Session) bool { return !s.ActiveAt(now) })
}

func (r *sessionSnapshotRepository) deleteWhere(ctx context.Context, match func(model.Session) bool) (int, error) {
	removed := 0
	err := r.sessions.Mutate(ctx, func(sessions []model.Session) ([]model.Session, error) {
		before := len(sessions)
		sessions = slices.DeleteFunc(sessions, match)
		removed = before - len(sessions)
		if removed == 0 {
			return nil, errUnchanged
		}
		return sessions, nil
	})

	return removed, err
}
