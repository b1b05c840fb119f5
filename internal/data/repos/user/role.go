package user

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type RoleRepo interface {
	// Seed inserts the fixed role rows; existing rows are left alone.
	Seed(dbc dbctx.Context) error
	GetByName(dbc dbctx.Context, name string) (*types.Role, error)
	List(dbc dbctx.Context) ([]*types.Role, error)
}

type roleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoleRepo(db *gorm.DB, baseLog *logger.Logger) RoleRepo {
	return &roleRepo{db: db, log: baseLog.With("repo", "RoleRepo")}
}

func (r *roleRepo) Seed(dbc dbctx.Context) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	rows := make([]*types.Role, 0, len(roles.All()))
	for _, role := range roles.All() {
		rows = append(rows, &types.Role{ID: uint(role.Level()), Name: role.String()})
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *roleRepo) GetByName(dbc dbctx.Context, name string) (*types.Role, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Role
	if err := t.WithContext(dbc.Ctx).Where("name = ?", name).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *roleRepo) List(dbc dbctx.Context) ([]*types.Role, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Role
	if err := t.WithContext(dbc.Ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
