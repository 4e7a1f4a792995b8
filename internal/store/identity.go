package store

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"GuardLink/internal/alert"
	"GuardLink/internal/models"
	"GuardLink/pkg/errors"
)

// IdentityStore 基于用户表的身份解析
type IdentityStore struct {
	db *gorm.DB
}

// NewIdentityStore 创建身份解析器
func NewIdentityStore(db *gorm.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

// Resolve 解析触发者身份，用户不存在返回NotFound
func (s *IdentityStore) Resolve(ctx context.Context, userID string) (alert.Identity, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return alert.Identity{}, errors.NotFound("user not found: " + userID)
		}
		return alert.Identity{}, errors.Wrap(err, "query user")
	}
	return alert.Identity{ID: user.ID, Name: user.Name}, nil
}
