package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// MembershipRepository answers whether an identity holds administrative
// privilege. Privileged identities live only in the membership store, never
// in code or configuration.
type MembershipRepository interface {
	IsAdmin(ctx context.Context, identity string) (bool, error)
}

type MembershipRepositoryImpl struct {
	db *sql.DB
}

func NewMembershipRepo(db *sql.DB) *MembershipRepositoryImpl {
	return &MembershipRepositoryImpl{db: db}
}

// IsAdmin reports whether a record exists for the identity in the admin table.
func (r *MembershipRepositoryImpl) IsAdmin(ctx context.Context, identity string) (bool, error) {
	query := "SELECT email FROM admin WHERE email = $1"

	var email string
	err := r.db.QueryRowContext(ctx, query, identity).Scan(&email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		err := fmt.Errorf("could not query admin membership: %w", err)
		log.Error(err)
		return false, err
	}
	return true, nil
}

// AddAdmin registers an identity as an administrator. Used by provisioning,
// not exposed over HTTP.
func (r *MembershipRepositoryImpl) AddAdmin(ctx context.Context, identity string, displayName string) error {
	query := "INSERT INTO admin (email, display_name, created_at) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING"

	_, err := r.db.ExecContext(ctx, query, identity, displayName, time.Now().UnixMilli())
	if err != nil {
		err := fmt.Errorf("could not insert admin record: %w", err)
		log.Error(err)
		return err
	}
	return nil
}
