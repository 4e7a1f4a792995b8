package store

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"GuardLink/internal/alert"
	"GuardLink/internal/models"
	"GuardLink/pkg/cache"
	"GuardLink/pkg/errors"
	"GuardLink/pkg/logger"
)

// DefaultMembershipTTL 守护关系缓存时长
// 告警高峰期同一用户可能被连续触发，短TTL挡住重复查询
const DefaultMembershipTTL = 30 * time.Second

// MembershipStore 守护关系解析：一对一守护人 + 守护圈共同成员
type MembershipStore struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
}

// NewMembershipStore 创建守护关系解析器，cache可为nil（不缓存）
func NewMembershipStore(db *gorm.DB, c cache.Cache) *MembershipStore {
	return &MembershipStore{db: db, cache: c, ttl: DefaultMembershipTTL}
}

// Resolve 返回userID全部接收者的去重并集，不含本人
//
// 两个来源：
//  1. 生效中的一对一守护关系（contact_id侧）
//  2. 用户所在全部守护圈的其他成员
//
// 同一人出现在多个来源只计一次
func (s *MembershipStore) Resolve(ctx context.Context, userID string) ([]alert.Recipient, error) {
	if cached, ok := s.fromCache(ctx, userID); ok {
		return cached, nil
	}

	ids := make(map[string]struct{})

	var contactIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.TrustedContact{}).
		Where("user_id = ? AND status = ?", userID, models.TrustedContactStatusActive).
		Pluck("contact_id", &contactIDs).Error
	if err != nil {
		return nil, errors.Wrap(err, "query trusted contacts")
	}
	for _, id := range contactIDs {
		ids[id] = struct{}{}
	}

	var groupIDs []string
	err = s.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &groupIDs).Error
	if err != nil {
		return nil, errors.Wrap(err, "query group memberships")
	}

	if len(groupIDs) > 0 {
		var memberIDs []string
		err = s.db.WithContext(ctx).
			Model(&models.GroupMember{}).
			Where("group_id IN ? AND user_id <> ?", groupIDs, userID).
			Distinct("user_id").
			Pluck("user_id", &memberIDs).Error
		if err != nil {
			return nil, errors.Wrap(err, "query group members")
		}
		for _, id := range memberIDs {
			ids[id] = struct{}{}
		}
	}

	delete(ids, userID)
	if len(ids) == 0 {
		// 没有守护关系不是错误
		return []alert.Recipient{}, nil
	}

	idList := make([]string, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", idList).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "load recipient profiles")
	}

	recipients := make([]alert.Recipient, 0, len(users))
	for _, u := range users {
		recipients = append(recipients, alert.Recipient{
			ID:        u.ID,
			Name:      u.Name,
			Phone:     u.Phone,
			PushToken: u.PushToken,
		})
	}

	s.toCache(ctx, userID, recipients)
	return recipients, nil
}

func membershipKey(userID string) string { return "membership:" + userID }

// fromCache 以JSON字符串形式缓存，本地与Redis后端行为一致
func (s *MembershipStore) fromCache(ctx context.Context, userID string) ([]alert.Recipient, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok := s.cache.Get(ctx, membershipKey(userID))
	if !ok {
		return nil, false
	}
	text, ok := raw.(string)
	if !ok {
		return nil, false
	}
	var recipients []alert.Recipient
	if err := json.Unmarshal([]byte(text), &recipients); err != nil {
		return nil, false
	}
	return recipients, true
}

func (s *MembershipStore) toCache(ctx context.Context, userID string, recipients []alert.Recipient) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(recipients)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, membershipKey(userID), string(data), s.ttl); err != nil {
		// 缓存失败只降级为直查
		logger.Debug("membership cache set failed", zap.Error(err))
	}
}

// Invalidate 守护关系变更后主动失效缓存
func (s *MembershipStore) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, membershipKey(userID)); err != nil {
		logger.Debug("membership cache delete failed", zap.Error(err))
	}
}
