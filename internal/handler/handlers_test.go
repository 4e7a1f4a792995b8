package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"GuardLink/internal/alert"
	"GuardLink/internal/models"
	"GuardLink/pkg/constant"
	"GuardLink/pkg/errors"
	"GuardLink/pkg/util"
	"GuardLink/pkg/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTrigger struct {
	privateResult *alert.PrivateResult
	publicResult  *alert.PublicResult
	err           error
	lastUserID    string
	lastLat       float64
	lastLon       float64
}

func (f *fakeTrigger) TriggerPrivate(ctx context.Context, userID string, lat, lon float64) (*alert.PrivateResult, error) {
	f.lastUserID, f.lastLat, f.lastLon = userID, lat, lon
	return f.privateResult, f.err
}

func (f *fakeTrigger) TriggerPublic(ctx context.Context, userID string, lat, lon float64) (*alert.PublicResult, error) {
	f.lastUserID, f.lastLat, f.lastLon = userID, lat, lon
	return f.publicResult, f.err
}

type fakeLocations struct {
	last models.Location
	err  error
}

func (f *fakeLocations) Upsert(ctx context.Context, loc models.Location) error {
	f.last = loc
	return f.err
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := util.OpenDatabase(&gorm.Config{}, "", "")
	require.NoError(t, err)
	return db
}

func newTestRouter(t *testing.T, trigger AlertTrigger, locations LocationWriter) *gin.Engine {
	t.Helper()
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)

	r, err := NewRouter(Deps{
		DB:             testDB(t),
		Trigger:        trigger,
		Locations:      locations,
		Hub:            hub,
		AlertRateLimit: "100-M",
	})
	require.NoError(t, err)
	return r
}

func doJSON(r *gin.Engine, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(constant.HeaderUserID, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAlertRequiresIdentity(t *testing.T) {
	r := newTestRouter(t, &fakeTrigger{}, &fakeLocations{})

	w := doJSON(r, http.MethodPost, "/api/alert/private", "", gin.H{"latitude": 12.97, "longitude": 77.59})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPrivateAlertEndpoint(t *testing.T) {
	trigger := &fakeTrigger{privateResult: &alert.PrivateResult{Success: true, NotifiedCount: 2}}
	r := newTestRouter(t, trigger, &fakeLocations{})

	w := doJSON(r, http.MethodPost, "/api/alert/private", "user_x", gin.H{"latitude": 12.97, "longitude": 77.59})
	require.Equal(t, http.StatusOK, w.Code)

	var body alert.PrivateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.NotifiedCount)

	assert.Equal(t, "user_x", trigger.lastUserID)
	assert.InDelta(t, 12.97, trigger.lastLat, 1e-9)
}

func TestAlertMissingCoordinates(t *testing.T) {
	r := newTestRouter(t, &fakeTrigger{}, &fakeLocations{})

	w := doJSON(r, http.MethodPost, "/api/alert/private", "user_x", gin.H{"latitude": 12.97})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAlertErrorCodeMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", errors.NotFound("user not found"), http.StatusNotFound},
		{"validation", errors.Validation("invalid origin coordinates"), http.StatusBadRequest},
		{"foreign error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeTrigger{err: tc.err}, &fakeLocations{})
			w := doJSON(r, http.MethodPost, "/api/alert/public", "user_x", gin.H{"latitude": 12.97, "longitude": 77.59})
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestPublicAlertEndpoint(t *testing.T) {
	trigger := &fakeTrigger{publicResult: &alert.PublicResult{
		Success:         true,
		HelpersNotified: 1,
		Helpers:         []alert.HelperRef{{UserID: "helper", DistanceKm: 0.63}},
	}}
	r := newTestRouter(t, trigger, &fakeLocations{})

	w := doJSON(r, http.MethodPost, "/api/alert/public", "user_x", gin.H{"latitude": 12.97, "longitude": 77.59})
	require.Equal(t, http.StatusOK, w.Code)

	var body alert.PublicResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.HelpersNotified)
	require.Len(t, body.Helpers, 1)
	assert.Equal(t, "helper", body.Helpers[0].UserID)
}

func TestLocationUpdateEndpoint(t *testing.T) {
	locations := &fakeLocations{}
	r := newTestRouter(t, &fakeTrigger{}, locations)

	w := doJSON(r, http.MethodPost, "/api/location", "user_x", gin.H{
		"latitude": 12.97, "longitude": 77.59, "speed": 1.5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "user_x", locations.last.UserID)
	assert.InDelta(t, 1.5, locations.last.Speed, 1e-9)
}

func TestLocationRejectsOutOfRange(t *testing.T) {
	r := newTestRouter(t, &fakeTrigger{}, &fakeLocations{})

	w := doJSON(r, http.MethodPost, "/api/location", "user_x", gin.H{"latitude": 999.0, "longitude": 77.59})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWSLocationMessage(t *testing.T) {
	locations := &fakeLocations{}
	h := NewLocationHandler(locations)
	handle := h.WSMessageHandler()

	conn := &websocket.Connection{UserID: "user_x"}
	data, _ := json.Marshal(gin.H{"latitude": 12.97, "longitude": 77.59})
	handle(conn, websocket.InboundMessage{Type: websocket.MessageTypeLocation, Data: data})

	assert.Equal(t, "user_x", locations.last.UserID)
	assert.InDelta(t, 12.97, locations.last.Latitude, 1e-9)

	// 非位置消息与坏载荷都被静默忽略
	locations.last = models.Location{}
	handle(conn, websocket.InboundMessage{Type: "chat", Data: data})
	assert.Empty(t, locations.last.UserID)

	handle(conn, websocket.InboundMessage{Type: websocket.MessageTypeLocation, Data: []byte("{")})
	assert.Empty(t, locations.last.UserID)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, &fakeTrigger{}, &fakeLocations{})

	w := doJSON(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAlertRateLimit(t *testing.T) {
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)

	r, err := NewRouter(Deps{
		DB:             testDB(t),
		Trigger:        &fakeTrigger{privateResult: &alert.PrivateResult{Success: true}},
		Locations:      &fakeLocations{},
		Hub:            hub,
		AlertRateLimit: "2-M",
	})
	require.NoError(t, err)

	body := gin.H{"latitude": 12.97, "longitude": 77.59}
	for i := 0; i < 2; i++ {
		w := doJSON(r, http.MethodPost, "/api/alert/private", "user_x", body)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(r, http.MethodPost, "/api/alert/private", "user_x", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
