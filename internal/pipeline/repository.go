package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedlot-ap/feedlot-ap/internal/document"
	"github.com/feedlot-ap/feedlot-ap/internal/shared"
)

// PackageStore reads extracted packages awaiting resolution.
type PackageStore interface {
	GetPackage(ctx context.Context, id uuid.UUID) (document.Package, error)
}

// ArtifactStore persists decision artifacts for audit and downstream ERP
// payload construction.
type ArtifactStore interface {
	SaveResult(ctx context.Context, result PackageResult) error
	GetResult(ctx context.Context, packageID uuid.UUID) (PackageResult, error)
}

// PGStore implements both stores on postgres, storing documents and
// artifacts as JSONB.
type PGStore struct {
	pool *pgxpool.Pool
}

var (
	_ PackageStore  = (*PGStore)(nil)
	_ ArtifactStore = (*PGStore)(nil)
)

// NewPGStore constructs a postgres-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// GetPackage implements PackageStore.
func (s *PGStore) GetPackage(ctx context.Context, id uuid.UUID) (document.Package, error) {
	const query = `SELECT document FROM packages WHERE id = $1`
	var raw []byte
	if err := s.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return document.Package{}, fmt.Errorf("package %s: %w", id, shared.ErrNotFound)
		}
		return document.Package{}, fmt.Errorf("get package %s: %w", id, err)
	}
	var pkg document.Package
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return document.Package{}, fmt.Errorf("decode package %s: %w", id, err)
	}
	pkg.ID = id
	return pkg, nil
}

// SaveResult implements ArtifactStore. Re-running a package replaces its
// artifact; results for one package id converge rather than accumulate.
func (s *PGStore) SaveResult(ctx context.Context, result PackageResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", result.ScopeKey, err)
	}
	const query = `
		INSERT INTO decision_artifacts (package_id, scope_key, status, artifact, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (package_id) DO UPDATE
		SET status = EXCLUDED.status,
		    artifact = EXCLUDED.artifact,
		    created_at = EXCLUDED.created_at`
	_, err = s.pool.Exec(ctx, query, result.PackageID, result.ScopeKey, string(result.Report.Status), raw, result.CompletedAt)
	if err != nil {
		return fmt.Errorf("save result %s: %w", result.ScopeKey, err)
	}
	return nil
}

// GetResult implements ArtifactStore.
func (s *PGStore) GetResult(ctx context.Context, packageID uuid.UUID) (PackageResult, error) {
	const query = `SELECT artifact FROM decision_artifacts WHERE package_id = $1`
	var raw []byte
	if err := s.pool.QueryRow(ctx, query, packageID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PackageResult{}, fmt.Errorf("artifact %s: %w", packageID, shared.ErrNotFound)
		}
		return PackageResult{}, fmt.Errorf("get artifact %s: %w", packageID, err)
	}
	var result PackageResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return PackageResult{}, fmt.Errorf("decode artifact %s: %w", packageID, err)
	}
	return result, nil
}
