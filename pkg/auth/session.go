package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

const sessionCookieName = "kalendo_session"

// Session is a signed-in browser session. The id is an opaque uuid handed to
// the browser in an HttpOnly cookie; everything else stays server-side.
type Session struct {
	Id        string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

type SessionRepository interface {
	StoreSession(ctx context.Context, session Session) error
	FindSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type SessionRepositoryImpl struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepositoryImpl {
	return &SessionRepositoryImpl{db: db}
}

func (r *SessionRepositoryImpl) StoreSession(ctx context.Context, session Session) error {
	query := "INSERT INTO session (id, email, created_at, expires_at) VALUES ($1, $2, $3, $4)"

	_, err := r.db.ExecContext(ctx, query, session.Id, session.Email,
		session.CreatedAt.UnixMilli(), session.ExpiresAt.UnixMilli())
	if err != nil {
		err := fmt.Errorf("could not store session: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *SessionRepositoryImpl) FindSession(ctx context.Context, id string) (*Session, error) {
	query := "SELECT id, email, created_at, expires_at FROM session WHERE id = $1"

	var session Session
	var createdAt, expiresAt int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&session.Id, &session.Email, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		err := fmt.Errorf("could not query session: %w", err)
		log.Error(err)
		return nil, err
	}
	session.CreatedAt = time.UnixMilli(createdAt)
	session.ExpiresAt = time.UnixMilli(expiresAt)
	return &session, nil
}

func (r *SessionRepositoryImpl) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM session WHERE id = $1", id)
	if err != nil {
		err := fmt.Errorf("could not delete session: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *SessionRepositoryImpl) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM session WHERE expires_at < $1", now.UnixMilli())
	if err != nil {
		err := fmt.Errorf("could not delete expired sessions: %w", err)
		log.Error(err)
		return 0, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return deleted, nil
}

func SetSessionCookie(w http.ResponseWriter, session Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Id,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// ReadSessionId extracts the session id from the request cookie, or "" when
// the request carries none.
func ReadSessionId(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
