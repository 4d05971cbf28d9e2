package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"soulkitchen/internal/database"
	"soulkitchen/internal/models"
)

// ErrInvalidToken is returned when a bearer token is unknown or expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier resolves a bearer token to a verified actor. Token issuance
// belongs to the external auth service; this side only checks.
type Verifier interface {
	Verify(ctx context.Context, token string) (models.Actor, error)
}

// PostgresVerifier verifies tokens against the auth_tokens table the
// external auth service maintains.
type PostgresVerifier struct {
	db *database.DB
}

// NewPostgresVerifier creates a token verifier backed by the database.
func NewPostgresVerifier(db *database.DB) *PostgresVerifier {
	return &PostgresVerifier{db: db}
}

// Verify looks up an unexpired token and returns the owning user's
// identity and role.
func (v *PostgresVerifier) Verify(ctx context.Context, token string) (models.Actor, error) {
	var actor models.Actor
	err := v.db.QueryRow(ctx, database.GetActorByTokenSQL, token).Scan(&actor.ID, &actor.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Actor{}, ErrInvalidToken
		}
		return models.Actor{}, err
	}
	return actor, nil
}
