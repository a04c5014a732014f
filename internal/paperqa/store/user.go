package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/paperqa/internal/model"
)

type users struct {
	db *gorm.DB
}

func newUsers(db *gorm.DB) *users {
	return &users{db: db}
}

func (u *users) Create(ctx context.Context, user *model.User) error {
	return u.db.WithContext(ctx).Create(user).Error
}

// Get 按用户名查询，登录与注册查重都走这里。
func (u *users) Get(ctx context.Context, username string) (*model.User, error) {
	return u.first(ctx, "username = ?", username)
}

// GetByID 按 JWT subject 中的用户 ID 查询。
func (u *users) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return u.first(ctx, "id = ?", id)
}

func (u *users) first(ctx context.Context, cond string, arg any) (*model.User, error) {
	user := new(model.User)
	if err := u.db.WithContext(ctx).Where(cond, arg).Take(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
