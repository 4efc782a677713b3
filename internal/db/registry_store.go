package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agroconta/danfe-ledger-service/internal/registry"
)

// RegistryStore implements registry.Store on PostgreSQL.
type RegistryStore struct {
	pool *pgxpool.Pool
}

func NewRegistryStore(pool *pgxpool.Pool) *RegistryStore {
	return &RegistryStore{pool: pool}
}

const partyColumns = `id, tipo, razao_social, COALESCE(nome_fantasia, ''), cnpj_cpf,
	COALESCE(telefone, ''), COALESCE(email, ''), COALESCE(endereco, ''),
	ativo, created_at, updated_at`

func scanParty(row pgx.Row) (*registry.Party, error) {
	var p registry.Party
	err := row.Scan(
		&p.ID, &p.Role, &p.LegalName, &p.TradeName, &p.TaxID,
		&p.Phone, &p.Email, &p.Address,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RegistryStore) FindParty(ctx context.Context, role registry.PartyRole, taxID string) (*registry.Party, error) {
	query := fmt.Sprintf(`SELECT %s FROM pessoas WHERE tipo = $1 AND cnpj_cpf = $2`, partyColumns)

	p, err := scanParty(s.pool.QueryRow(ctx, query, role, taxID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find party: %w", err)
	}
	return p, nil
}

func (s *RegistryStore) FindPartyAnyRole(ctx context.Context, taxID string) (*registry.Party, error) {
	query := fmt.Sprintf(`SELECT %s FROM pessoas WHERE cnpj_cpf = $1`, partyColumns)

	p, err := scanParty(s.pool.QueryRow(ctx, query, taxID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find party by tax id: %w", err)
	}
	return p, nil
}

func (s *RegistryStore) InsertParty(ctx context.Context, p *registry.Party) error {
	query := `
		INSERT INTO pessoas (id, tipo, razao_social, nome_fantasia, cnpj_cpf, telefone, email, endereco, ativo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		p.ID, p.Role, p.LegalName, p.TradeName, p.TaxID,
		p.Phone, p.Email, p.Address, p.Active,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if isUniqueViolation(err) {
		return registry.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert party: %w", err)
	}
	return nil
}

func (s *RegistryStore) FindClassification(ctx context.Context, kind registry.ClassificationKind, description string) (*registry.Classification, error) {
	query := `
		SELECT id, tipo, descricao, ativo, created_at
		FROM classificacao
		WHERE tipo = $1 AND LOWER(descricao) = LOWER($2)
	`
	var c registry.Classification
	err := s.pool.QueryRow(ctx, query, kind, description).Scan(
		&c.ID, &c.Kind, &c.Description, &c.Active, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find classification: %w", err)
	}
	return &c, nil
}

func (s *RegistryStore) InsertClassification(ctx context.Context, c *registry.Classification) error {
	query := `
		INSERT INTO classificacao (id, tipo, descricao, ativo)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := s.pool.QueryRow(ctx, query, c.ID, c.Kind, c.Description, c.Active).Scan(&c.CreatedAt)
	if isUniqueViolation(err) {
		return registry.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert classification: %w", err)
	}
	return nil
}

// SetPartyActive flips the active flag. Records are never deleted, only
// deactivated and reactivated.
func (s *RegistryStore) SetPartyActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pessoas SET ativo = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set party active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return registry.ErrNotFound
	}
	return nil
}

func (s *RegistryStore) SetClassificationActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE classificacao SET ativo = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set classification active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// ListParties returns parties, newest first, optionally filtered by role.
func (s *RegistryStore) ListParties(ctx context.Context, role registry.PartyRole, limit int) ([]registry.Party, error) {
	query := fmt.Sprintf(`SELECT %s FROM pessoas WHERE ($1 = '' OR tipo = $1)
		ORDER BY created_at DESC LIMIT $2`, partyColumns)

	rows, err := s.pool.Query(ctx, query, string(role), limit)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()

	var parties []registry.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("list parties: %w", err)
		}
		parties = append(parties, *p)
	}
	return parties, rows.Err()
}

// ListClassifications returns classifications ordered by description,
// optionally filtered by kind.
func (s *RegistryStore) ListClassifications(ctx context.Context, kind registry.ClassificationKind) ([]registry.Classification, error) {
	query := `
		SELECT id, tipo, descricao, ativo, created_at
		FROM classificacao
		WHERE ($1 = '' OR tipo = $1)
		ORDER BY descricao
	`
	rows, err := s.pool.Query(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	defer rows.Close()

	var classifications []registry.Classification
	for rows.Next() {
		var c registry.Classification
		if err := rows.Scan(&c.ID, &c.Kind, &c.Description, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("list classifications: %w", err)
		}
		classifications = append(classifications, c)
	}
	return classifications, rows.Err()
}
