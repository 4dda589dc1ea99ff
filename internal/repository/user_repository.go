package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/trustcircle/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	// FindByIDs 批量查询，缺失的 id 不出现在结果中
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)
}

type userRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	out := make(map[int64]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []*model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
