package registry

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

// ModelFilter narrows List. Zero values mean "no filter".
type ModelFilter struct {
	Status    string
	Ascending bool
	Limit     int
}

type ModelRepo interface {
	Create(dbc dbctx.Context, rows []*types.Model) ([]*types.Model, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Model, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Model, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Model, error)
	List(dbc dbctx.Context, f ModelFilter) ([]*types.Model, error)
	MaxVersion(dbc dbctx.Context) (int, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type modelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModelRepo(db *gorm.DB, baseLog *logger.Logger) ModelRepo {
	return &modelRepo{db: db, log: baseLog.With("repo", "ModelRepo")}
}

func (r *modelRepo) Create(dbc dbctx.Context, rows []*types.Model) ([]*types.Model, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Model{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *modelRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Model, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Model
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *modelRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Model, error) {
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

func (r *modelRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Model, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Model
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

func (r *modelRepo) List(dbc dbctx.Context, f ModelFilter) ([]*types.Model, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Model{})
	if s := strings.TrimSpace(f.Status); s != "" {
		q = q.Where("status = ?", s)
	}
	if f.Ascending {
		q = q.Order("version ASC")
	} else {
		q = q.Order("version DESC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []*types.Model
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MaxVersion returns 0 when no model exists.
func (r *modelRepo) MaxVersion(dbc dbctx.Context) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var v int
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Model{}).
		Select("COALESCE(MAX(version), 0)").
		Scan(&v).Error; err != nil {
		return 0, err
	}
	return v, nil
}

func (r *modelRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Model{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *modelRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.Model{}).Error
}
