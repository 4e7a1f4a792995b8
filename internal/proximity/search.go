package proximity

import (
	"context"
	"sort"
	"time"

	"GuardLink/pkg/geo"
)

// Sample 某用户的最近位置样本
type Sample struct {
	UserID     string
	Lat        float64
	Lon        float64
	PushToken  string
	RecordedAt time.Time
}

// Match 半径检索命中结果
type Match struct {
	UserID     string  `json:"userId"`
	Lat        float64 `json:"latitude"`
	Lon        float64 `json:"longitude"`
	DistanceKm float64 `json:"distanceKm"`
	PushToken  string  `json:"-"`
}

// LocationSource 全量位置快照来源
type LocationSource interface {
	Snapshot(ctx context.Context) ([]Sample, error)
}

// Searcher 半径检索接口
// 朴素扫描到达规模上限后，可在不改变调用方契约的前提下
// 换成geohash分桶或R树实现
type Searcher interface {
	Query(ctx context.Context, origin geo.Point, radiusKm float64, excludeUserID string) ([]Match, error)
}

// ScanSearcher 基于全表扫描的半径检索
type ScanSearcher struct {
	source LocationSource
}

// NewScanSearcher 创建全扫描检索器
func NewScanSearcher(source LocationSource) *ScanSearcher {
	return &ScanSearcher{source: source}
}

// Query 返回 radiusKm 内（含边界）的用户，按距离升序
// 发起者自身与无坐标用户不会出现在结果中；空结果不是错误
func (s *ScanSearcher) Query(ctx context.Context, origin geo.Point, radiusKm float64, excludeUserID string) ([]Match, error) {
	samples, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0)
	for _, sample := range samples {
		if sample.UserID == excludeUserID {
			continue
		}
		point := geo.Point{Lat: sample.Lat, Lon: sample.Lon}
		if !point.Valid() {
			continue
		}

		distance := geo.DistanceKm(origin, point)
		if distance > radiusKm {
			continue
		}
		matches = append(matches, Match{
			UserID:     sample.UserID,
			Lat:        sample.Lat,
			Lon:        sample.Lon,
			DistanceKm: distance,
			PushToken:  sample.PushToken,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
	return matches, nil
}
