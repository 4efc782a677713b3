package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agroconta/danfe-ledger-service/internal/auth"
)

// UserStore backs auth.Authenticator with the usuarios table.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `SELECT id, email, nome, senha_hash
	          FROM usuarios
	          WHERE LOWER(email) = LOWER($1) AND ativo = true`

	var u auth.User
	err := s.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.Nome, &u.SenhaHash)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) TouchLastAccess(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.pool.Exec(ctx, `UPDATE usuarios SET ultimo_acesso = NOW() WHERE id = $1::uuid`, userID); err != nil {
		log.Printf("db: updating last access for %s: %v", userID, err)
	}
}
