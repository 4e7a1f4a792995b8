package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"GuardLink/internal/models"
	"GuardLink/pkg/cache"
	pkgerrors "GuardLink/pkg/errors"
	"GuardLink/pkg/util"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := util.OpenDatabase(&gorm.Config{}, "", "")
	require.NoError(t, err)

	// 内存库每个连接各自独立，限制连接池避免建表丢失
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, name, token string) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{ID: id, Name: name, PushToken: token}).Error)
}

func TestIdentityResolve(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "user_x", "Asha", "ExponentPushToken[x]")

	store := NewIdentityStore(db)

	identity, err := store.Resolve(context.Background(), "user_x")
	require.NoError(t, err)
	assert.Equal(t, "user_x", identity.ID)
	assert.Equal(t, "Asha", identity.Name)

	_, err = store.Resolve(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestMembershipUnionDedup(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "user_x", "X", "")
	seedUser(t, db, "user_y", "Y", "ExponentPushToken[y]")
	seedUser(t, db, "user_z", "Z", "ExponentPushToken[z]")
	seedUser(t, db, "user_p", "P", "")

	// Y既是X的守护人，又和X同在两个守护圈
	require.NoError(t, db.Create(&models.TrustedContact{
		UserID: "user_x", ContactID: "user_y", Status: models.TrustedContactStatusActive,
	}).Error)
	// pending关系不参与告警
	require.NoError(t, db.Create(&models.TrustedContact{
		UserID: "user_x", ContactID: "user_p", Status: "pending",
	}).Error)

	require.NoError(t, db.Create(&models.Group{ID: "g1", Name: "Family", OwnerID: "user_x"}).Error)
	require.NoError(t, db.Create(&models.Group{ID: "g2", Name: "Friends", OwnerID: "user_y"}).Error)
	for _, m := range []models.GroupMember{
		{GroupID: "g1", UserID: "user_x"},
		{GroupID: "g1", UserID: "user_y"},
		{GroupID: "g2", UserID: "user_x"},
		{GroupID: "g2", UserID: "user_y"},
		{GroupID: "g2", UserID: "user_z"},
	} {
		member := m
		require.NoError(t, db.Create(&member).Error)
	}

	store := NewMembershipStore(db, nil)
	recipients, err := store.Resolve(context.Background(), "user_x")
	require.NoError(t, err)

	// Y只出现一次，触发者本人与pending关系都不在集合里
	ids := make([]string, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"user_y", "user_z"}, ids)
}

func TestMembershipEmptyIsNotError(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "loner", "Solo", "")

	store := NewMembershipStore(db, nil)
	recipients, err := store.Resolve(context.Background(), "loner")
	require.NoError(t, err)
	assert.Empty(t, recipients)
}

func TestMembershipCache(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "user_x", "X", "")
	seedUser(t, db, "user_y", "Y", "ExponentPushToken[y]")
	require.NoError(t, db.Create(&models.TrustedContact{
		UserID: "user_x", ContactID: "user_y", Status: models.TrustedContactStatusActive,
	}).Error)

	c := cache.NewGoCache(cache.LocalConfig{})
	store := NewMembershipStore(db, c)

	first, err := store.Resolve(context.Background(), "user_x")
	require.NoError(t, err)
	require.Len(t, first, 1)

	// TTL内的变更被缓存挡住
	require.NoError(t, db.Model(&models.TrustedContact{}).
		Where("user_id = ?", "user_x").
		Update("status", "revoked").Error)

	second, err := store.Resolve(context.Background(), "user_x")
	require.NoError(t, err)
	assert.Len(t, second, 1)

	// 主动失效后立即看到新状态
	store.Invalidate(context.Background(), "user_x")
	third, err := store.Resolve(context.Background(), "user_x")
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestLocationUpsertOverwrites(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "user_x", "X", "")

	store := NewLocationStore(db)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, models.Location{
		UserID: "user_x", Latitude: 12.9716, Longitude: 77.5946,
	}))
	require.NoError(t, store.Upsert(ctx, models.Location{
		UserID: "user_x", Latitude: 13.0827, Longitude: 80.2707,
	}))

	loc, err := store.Get(ctx, "user_x")
	require.NoError(t, err)
	assert.InDelta(t, 13.0827, loc.Latitude, 1e-9)
	assert.InDelta(t, 80.2707, loc.Longitude, 1e-9)

	var count int64
	require.NoError(t, db.Model(&models.Location{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLocationGetNotFound(t *testing.T) {
	db := newTestDB(t)
	store := NewLocationStore(db)

	_, err := store.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestLocationSnapshotCarriesPushToken(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "user_x", "X", "ExponentPushToken[x]")
	seedUser(t, db, "user_y", "Y", "unknown")

	store := NewLocationStore(db)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, models.Location{UserID: "user_x", Latitude: 12.97, Longitude: 77.59}))
	require.NoError(t, store.Upsert(ctx, models.Location{UserID: "user_y", Latitude: 12.98, Longitude: 77.60}))

	samples, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	tokens := map[string]string{}
	for _, s := range samples {
		tokens[s.UserID] = s.PushToken
	}
	assert.Equal(t, "ExponentPushToken[x]", tokens["user_x"])
	assert.Equal(t, "unknown", tokens["user_y"])
}

func TestLocationSweep(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "user_old", "Old", "")
	seedUser(t, db, "user_new", "New", "")

	store := NewLocationStore(db)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, models.Location{
		UserID: "user_old", Latitude: 12.97, Longitude: 77.59,
		RecordedAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, store.Upsert(ctx, models.Location{
		UserID: "user_new", Latitude: 12.98, Longitude: 77.60,
	}))

	deleted, err := store.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.Get(ctx, "user_old")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = store.Get(ctx, "user_new")
	assert.NoError(t, err)
}
