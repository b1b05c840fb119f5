package feedback

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type RatingRepo interface {
	// Upsert keeps one rating per (user, model).
	Upsert(dbc dbctx.Context, row *types.Rating) error
	ListByModel(dbc dbctx.Context, modelID uuid.UUID) ([]*types.Rating, error)
	DeleteByModelID(dbc dbctx.Context, modelID uuid.UUID) error
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error
}

type CommentRepo interface {
	Create(dbc dbctx.Context, row *types.Comment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error)
	ListByModel(dbc dbctx.Context, modelID uuid.UUID, approvedOnly bool) ([]*types.Comment, error)
	SetApproved(dbc dbctx.Context, id uuid.UUID, approved bool) error
	DeleteByModelID(dbc dbctx.Context, modelID uuid.UUID) error
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error
}

type ratingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	return &ratingRepo{db: db, log: baseLog.With("repo", "RatingRepo")}
}

func (r *ratingRepo) Upsert(dbc dbctx.Context, row *types.Rating) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "model_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
		}).
		Create(row).Error
}

func (r *ratingRepo) ListByModel(dbc dbctx.Context, modelID uuid.UUID) ([]*types.Rating, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Rating
	if err := t.WithContext(dbc.Ctx).
		Where("model_id = ?", modelID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ratingRepo) DeleteByModelID(dbc dbctx.Context, modelID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Where("model_id = ?", modelID).Delete(&types.Rating{}).Error
}

func (r *ratingRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Delete(&types.Rating{}).Error
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return &commentRepo{db: db, log: baseLog.With("repo", "CommentRepo")}
}

func (r *commentRepo) Create(dbc dbctx.Context, row *types.Comment) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *commentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Comment
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *commentRepo) ListByModel(dbc dbctx.Context, modelID uuid.UUID, approvedOnly bool) ([]*types.Comment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Where("model_id = ?", modelID)
	if approvedOnly {
		q = q.Where("is_approved = ?", true)
	}
	var out []*types.Comment
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commentRepo) SetApproved(dbc dbctx.Context, id uuid.UUID, approved bool) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Comment{}).
		Where("id = ?", id).
		Update("is_approved", approved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *commentRepo) DeleteByModelID(dbc dbctx.Context, modelID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Where("model_id = ?", modelID).Delete(&types.Comment{}).Error
}

func (r *commentRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Delete(&types.Comment{}).Error
}
