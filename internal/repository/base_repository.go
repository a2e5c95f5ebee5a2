package repository

import (
	"context"
	"errors"

	appErr "github.com/testboard/engine/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BaseRepository defines common CRUD operations.
type BaseRepository[T any] interface {
	Create(ctx context.Context, obj *T) error
	GetByID(ctx context.Context, id any, dest *T) error
	Update(ctx context.Context, obj *T) error
	Delete(ctx context.Context, id any) error
	List(ctx context.Context) ([]T, error)
	Upsert(ctx context.Context, objs []T) error
}

type baseRepository[T any] struct {
	db     *gorm.DB
	entity string
	order  string
}

// NewBaseRepository builds CRUD for T. entity names T in error messages and
// order is the ORDER BY clause used by List.
func NewBaseRepository[T any](db *gorm.DB, entity, order string) BaseRepository[T] {
	return &baseRepository[T]{db: db, entity: entity, order: order}
}

func (r *baseRepository[T]) Create(ctx context.Context, obj *T) error {
	if err := r.db.WithContext(ctx).Create(obj).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appErr.Wrap(err, appErr.CodeConflict, r.entity+" already exists")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "create "+r.entity+" failed")
	}
	return nil
}

func (r *baseRepository[T]) GetByID(ctx context.Context, id any, dest *T) error {
	if err := r.db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.NotFound(r.entity, id)
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get "+r.entity+" failed")
	}
	return nil
}

// Update replaces every column of obj; the row must already exist.
func (r *baseRepository[T]) Update(ctx context.Context, obj *T) error {
	res := r.db.WithContext(ctx).Model(obj).Select("*").Omit("created_at").Updates(obj)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update "+r.entity+" failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, r.entity+" not found")
	}
	return nil
}

func (r *baseRepository[T]) Delete(ctx context.Context, id any) error {
	var t T
	res := r.db.WithContext(ctx).Delete(&t, "id = ?", id)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "delete "+r.entity+" failed")
	}
	if res.RowsAffected == 0 {
		return appErr.NotFound(r.entity, id)
	}
	return nil
}

func (r *baseRepository[T]) List(ctx context.Context) ([]T, error) {
	out := []T{}
	if err := r.db.WithContext(ctx).Order(r.order).Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list "+r.entity+"s failed")
	}
	return out, nil
}

// Upsert inserts objs, overwriting rows that share a primary key.
func (r *baseRepository[T]) Upsert(ctx context.Context, objs []T) error {
	if len(objs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&objs, 200).Error
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "upsert "+r.entity+"s failed")
	}
	return nil
}
