package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.User, error)
	ListExcluding(dbc dbctx.Context, excludeID uuid.UUID) ([]*types.User, error)
	ListIDsByRoleNames(dbc dbctx.Context, roleNames []string) ([]uuid.UUID, error)

	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	AddPoints(dbc dbctx.Context, id uuid.UUID, delta int) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Omit(clause.Associations).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.User
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Preload("Role").
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
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

func (r *userRepo) GetByUsername(dbc dbctx.Context, username string) (*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.User
	if err := t.WithContext(dbc.Ctx).
		Preload("Role").
		Where("username = ?", username).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) ListExcluding(dbc dbctx.Context, excludeID uuid.UUID) ([]*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.User
	if err := t.WithContext(dbc.Ctx).
		Preload("Role").
		Where("id <> ?", excludeID).
		Order("username ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) ListIDsByRoleNames(dbc dbctx.Context, roleNames []string) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var ids []uuid.UUID
	if len(roleNames) == 0 {
		return ids, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Joins(`JOIN "role" ON "role".id = "user".role_id`).
		Where(`"role".name IN ?`, roleNames).
		Order(`"user".id`).
		Pluck(`"user".id`, &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.User
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// AddPoints increments total_points in SQL so concurrent awards never lose an update.
func (r *userRepo) AddPoints(dbc dbctx.Context, id uuid.UUID, delta int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if delta <= 0 {
		return nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", id).
		Update("total_points", gorm.Expr("total_points + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.User{}).Error
}
