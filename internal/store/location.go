package store

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"GuardLink/internal/models"
	"GuardLink/internal/proximity"
	"GuardLink/pkg/errors"
)

// LocationStore 用户最近位置存取，每用户一行，后写覆盖
type LocationStore struct {
	db *gorm.DB
}

// NewLocationStore 创建位置存储
func NewLocationStore(db *gorm.DB) *LocationStore {
	return &LocationStore{db: db}
}

// Upsert 写入/覆盖某用户的最近位置
// 不做坐标校验也不做时间先后判断，以最后一次写入为准
func (s *LocationStore) Upsert(ctx context.Context, loc models.Location) error {
	if loc.RecordedAt.IsZero() {
		loc.RecordedAt = time.Now()
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&loc).Error
	if err != nil {
		return errors.Wrap(err, "upsert location")
	}
	return nil
}

// Get 读取某用户的最近位置
func (s *LocationStore) Get(ctx context.Context, userID string) (*models.Location, error) {
	var loc models.Location
	err := s.db.WithContext(ctx).First(&loc, "user_id = ?", userID).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("no location for user: " + userID)
		}
		return nil, errors.Wrap(err, "query location")
	}
	return &loc, nil
}

// Snapshot 返回全量位置快照并带上推送令牌，供半径检索使用
// 朴素全扫描在当前规模下足够，检索接口允许之后换空间索引
func (s *LocationStore) Snapshot(ctx context.Context) ([]proximity.Sample, error) {
	var rows []struct {
		UserID     string
		Latitude   float64
		Longitude  float64
		PushToken  string
		RecordedAt time.Time
	}
	err := s.db.WithContext(ctx).
		Model(&models.Location{}).
		Select("locations.user_id, locations.latitude, locations.longitude, locations.recorded_at, users.push_token").
		Joins("LEFT JOIN users ON users.id = locations.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "snapshot locations")
	}

	samples := make([]proximity.Sample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, proximity.Sample{
			UserID:     row.UserID,
			Lat:        row.Latitude,
			Lon:        row.Longitude,
			PushToken:  row.PushToken,
			RecordedAt: row.RecordedAt,
		})
	}
	return samples, nil
}

// DeleteOlderThan 清理早于cutoff的位置记录，返回删除行数
// 由定时任务调用
func (s *LocationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("recorded_at < ?", cutoff).
		Delete(&models.Location{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "sweep stale locations")
	}
	return result.RowsAffected, nil
}
