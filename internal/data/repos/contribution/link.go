package contribution

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type ModelContributionLinkRepo interface {
	// Create ignores pairs that already exist.
	Create(dbc dbctx.Context, rows []*types.ModelContributionLink) error
	CountByContribution(dbc dbctx.Context, contributionID uuid.UUID) (int64, error)
	ListByModel(dbc dbctx.Context, modelID uuid.UUID) ([]*types.ModelContributionLink, error)
	DeleteByContributionIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteByModelID(dbc dbctx.Context, modelID uuid.UUID) error
}

type linkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModelContributionLinkRepo(db *gorm.DB, baseLog *logger.Logger) ModelContributionLinkRepo {
	return &linkRepo{db: db, log: baseLog.With("repo", "ModelContributionLinkRepo")}
}

func (r *linkRepo) Create(dbc dbctx.Context, rows []*types.ModelContributionLink) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *linkRepo) CountByContribution(dbc dbctx.Context, contributionID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.ModelContributionLink{}).
		Where("contribution_id = ?", contributionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *linkRepo) ListByModel(dbc dbctx.Context, modelID uuid.UUID) ([]*types.ModelContributionLink, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ModelContributionLink
	if err := t.WithContext(dbc.Ctx).
		Where("model_id = ?", modelID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *linkRepo) DeleteByContributionIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("contribution_id IN ?", ids).
		Delete(&types.ModelContributionLink{}).Error
}

func (r *linkRepo) DeleteByModelID(dbc dbctx.Context, modelID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("model_id = ?", modelID).
		Delete(&types.ModelContributionLink{}).Error
}
