package contribution

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type ContributionRepo interface {
	Create(dbc dbctx.Context, rows []*types.Contribution) ([]*types.Contribution, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Contribution, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Contribution, error)
	LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Contribution, error)

	ListByResearcher(dbc dbctx.Context, researcherID uuid.UUID) ([]*types.Contribution, error)
	// ListAll returns every contribution when status is "" or "all".
	ListAll(dbc dbctx.Context, status string) ([]*types.Contribution, error)
	ListIDsByTargetModel(dbc dbctx.Context, modelID uuid.UUID) ([]uuid.UUID, error)
	ListIDsByResearcher(dbc dbctx.Context, researcherID uuid.UUID) ([]uuid.UUID, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type contributionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContributionRepo(db *gorm.DB, baseLog *logger.Logger) ContributionRepo {
	return &contributionRepo{db: db, log: baseLog.With("repo", "ContributionRepo")}
}

func (r *contributionRepo) Create(dbc dbctx.Context, rows []*types.Contribution) ([]*types.Contribution, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Contribution{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contributionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Contribution, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Contribution
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contributionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Contribution, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// LockByIDs locks rows in id order so concurrent lockers cannot deadlock.
func (r *contributionRepo) LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Contribution, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Contribution
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contributionRepo) ListByResearcher(dbc dbctx.Context, researcherID uuid.UUID) ([]*types.Contribution, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Contribution
	if err := t.WithContext(dbc.Ctx).
		Where("researcher_id = ?", researcherID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contributionRepo) ListAll(dbc dbctx.Context, status string) ([]*types.Contribution, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Contribution{})
	if s := strings.ToLower(strings.TrimSpace(status)); s != "" && s != "all" {
		q = q.Where("status = ?", s)
	}
	var out []*types.Contribution
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contributionRepo) ListIDsByTargetModel(dbc dbctx.Context, modelID uuid.UUID) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var ids []uuid.UUID
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Contribution{}).
		Where("target_model_id = ?", modelID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *contributionRepo) ListIDsByResearcher(dbc dbctx.Context, researcherID uuid.UUID) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var ids []uuid.UUID
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Contribution{}).
		Where("researcher_id = ?", researcherID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *contributionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Contribution{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *contributionRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Contribution{}).Error
}
