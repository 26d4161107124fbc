package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedvix/syncledger-extract/internal/common"
	"github.com/vedvix/syncledger-extract/internal/entity"
)

type MappingProfileRepository interface {
	GetByID(ctx context.Context, id string) (*entity.MappingProfile, error)
	ListByOrg(ctx context.Context, orgID string) ([]*entity.MappingProfile, error)
	Upsert(ctx context.Context, p *entity.MappingProfile) error
	Delete(ctx context.Context, id string) error
}

type mappingProfileRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewMappingProfileRepository(pool *pgxpool.Pool, logger *slog.Logger) MappingProfileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &mappingProfileRepo{pool: pool, logger: logger}
}

const mappingProfileColumns = `id, org_id, name, description, vendor_pattern, is_default, rules, created_at, updated_at`

func scanMappingProfile(row pgx.Row) (*entity.MappingProfile, error) {
	var p entity.MappingProfile
	var rules []byte
	err := row.Scan(&p.ID, &p.OrgID, &p.Name, &p.Description, &p.VendorPattern, &p.IsDefault, &rules, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError("PROFILE_NOT_FOUND", "mapping profile not found", common.ErrNotFound)
		}
		return nil, common.WrapError(err, "scan mapping profile")
	}
	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &p.Rules); err != nil {
			return nil, common.WrapError(err, "decode profile rules")
		}
	}
	return &p, nil
}

func (r *mappingProfileRepo) GetByID(ctx context.Context, id string) (*entity.MappingProfile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+mappingProfileColumns+` FROM mapping_profiles WHERE id = $1`, id)
	return scanMappingProfile(row)
}

func (r *mappingProfileRepo) ListByOrg(ctx context.Context, orgID string) ([]*entity.MappingProfile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+mappingProfileColumns+`
		 FROM mapping_profiles
		 WHERE org_id = $1 OR org_id = ''
		 ORDER BY id`, orgID)
	if err != nil {
		return nil, common.WrapError(err, "list mapping profiles")
	}
	defer rows.Close()

	var out []*entity.MappingProfile
	for rows.Next() {
		p, err := scanMappingProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *mappingProfileRepo) Upsert(ctx context.Context, p *entity.MappingProfile) error {
	rules, err := json.Marshal(p.Rules)
	if err != nil {
		return common.WrapError(err, "encode profile rules")
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err = r.pool.Exec(ctx,
		`INSERT INTO mapping_profiles (`+mappingProfileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   org_id = EXCLUDED.org_id,
		   name = EXCLUDED.name,
		   description = EXCLUDED.description,
		   vendor_pattern = EXCLUDED.vendor_pattern,
		   is_default = EXCLUDED.is_default,
		   rules = EXCLUDED.rules,
		   updated_at = EXCLUDED.updated_at`,
		p.ID, p.OrgID, p.Name, p.Description, p.VendorPattern, p.IsDefault, rules, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Error("repo.profiles.upsert_error", "profile_id", p.ID, "error", err)
		return common.WrapError(err, "upsert mapping profile")
	}
	r.logger.Info("repo.profiles.upserted", "profile_id", p.ID, "org_id", p.OrgID)
	return nil
}

func (r *mappingProfileRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM mapping_profiles WHERE id = $1`, id)
	if err != nil {
		return common.WrapError(err, "delete mapping profile")
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("PROFILE_NOT_FOUND", "mapping profile not found", common.ErrNotFound)
	}
	r.logger.Info("repo.profiles.deleted", "profile_id", id)
	return nil
}
