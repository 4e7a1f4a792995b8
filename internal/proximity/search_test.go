package proximity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GuardLink/pkg/geo"
)

// staticSource 固定样本来源
type staticSource struct {
	samples []Sample
	err     error
}

func (s *staticSource) Snapshot(ctx context.Context) ([]Sample, error) {
	return s.samples, s.err
}

func TestQueryRadiusAndOrdering(t *testing.T) {
	// 班加罗尔场景：B约0.776公里在半径内，C约14.5公里在半径外
	source := &staticSource{samples: []Sample{
		{UserID: "user_c", Lat: 13.1000, Lon: 77.6000, PushToken: "ExponentPushToken[c]"},
		{UserID: "user_b", Lat: 12.9750, Lon: 77.5950, PushToken: "ExponentPushToken[b]"},
	}}
	searcher := NewScanSearcher(source)

	origin := geo.Point{Lat: 12.9700, Lon: 77.5900}
	matches, err := searcher.Query(context.Background(), origin, 3.0, "origin_user")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "user_b", matches[0].UserID)
	assert.InDelta(t, 0.776, matches[0].DistanceKm, 0.01)
}

func TestQueryExcludesOrigin(t *testing.T) {
	source := &staticSource{samples: []Sample{
		{UserID: "origin_user", Lat: 12.9700, Lon: 77.5900},
		{UserID: "user_b", Lat: 12.9701, Lon: 77.5901},
	}}
	searcher := NewScanSearcher(source)

	matches, err := searcher.Query(context.Background(),
		geo.Point{Lat: 12.9700, Lon: 77.5900}, 3.0, "origin_user")
	require.NoError(t, err)

	// 发起者距离为0也不能出现在结果里
	require.Len(t, matches, 1)
	assert.Equal(t, "user_b", matches[0].UserID)
}

func TestQuerySortedAscending(t *testing.T) {
	source := &staticSource{samples: []Sample{
		{UserID: "far", Lat: 12.9900, Lon: 77.6100},
		{UserID: "near", Lat: 12.9705, Lon: 77.5905},
		{UserID: "mid", Lat: 12.9800, Lon: 77.6000},
	}}
	searcher := NewScanSearcher(source)

	matches, err := searcher.Query(context.Background(),
		geo.Point{Lat: 12.9700, Lon: 77.5900}, 10.0, "")
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "near", matches[0].UserID)
	assert.Equal(t, "mid", matches[1].UserID)
	assert.Equal(t, "far", matches[2].UserID)
	assert.LessOrEqual(t, matches[0].DistanceKm, matches[1].DistanceKm)
	assert.LessOrEqual(t, matches[1].DistanceKm, matches[2].DistanceKm)

	// 所有命中都在半径内
	for _, m := range matches {
		assert.LessOrEqual(t, m.DistanceKm, 10.0)
	}
}

func TestQuerySkipsInvalidCoordinates(t *testing.T) {
	source := &staticSource{samples: []Sample{
		{UserID: "bogus", Lat: 999, Lon: 999},
		{UserID: "ok", Lat: 12.9705, Lon: 77.5905},
	}}
	searcher := NewScanSearcher(source)

	matches, err := searcher.Query(context.Background(),
		geo.Point{Lat: 12.9700, Lon: 77.5900}, 3.0, "")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "ok", matches[0].UserID)
}

func TestQueryEmptyResultIsNotError(t *testing.T) {
	searcher := NewScanSearcher(&staticSource{})

	matches, err := searcher.Query(context.Background(),
		geo.Point{Lat: 12.9700, Lon: 77.5900}, 3.0, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestQuerySourceError(t *testing.T) {
	searcher := NewScanSearcher(&staticSource{err: errors.New("db gone")})

	_, err := searcher.Query(context.Background(),
		geo.Point{Lat: 12.9700, Lon: 77.5900}, 3.0, "")
	assert.Error(t, err)
}
