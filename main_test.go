package main

import (
	"fmt"
	"testing"
	"time"

	"slotswap-server/models"
	"slotswap-server/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/iris-contrib/httpexpect/v2"
	"github.com/kataras/iris/v12/httptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T) *httpexpect.Expect {
	t.Helper()

	t.Setenv("ACCESS_TOKEN_SECRET", "test-access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "test-refresh-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Event{},
		&models.SwapRequest{},
		&models.Notification{},
	))
	storage.DB = db

	mr := miniredis.RunT(t)
	storage.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return httptest.New(t, buildApp())
}

func registerTestUser(t *testing.T, e *httpexpect.Expect, email string) string {
	t.Helper()

	body := map[string]interface{}{
		"firstName": "Test",
		"lastName":  "User",
		"email":     email,
		"password":  "password123",
	}
	token := e.POST("/api/user/register").WithJSON(body).
		Expect().Status(httptest.StatusOK).
		JSON().Object().Value("accessToken").String().Raw()
	require.NotEmpty(t, token)
	return token
}

func createTestEvent(t *testing.T, e *httpexpect.Expect, token, title string, offered bool) uint {
	t.Helper()

	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	body := map[string]interface{}{
		"title":     title,
		"startTime": start.Format(time.RFC3339),
		"endTime":   start.Add(time.Hour).Format(time.RFC3339),
		"offered":   offered,
	}
	id := e.POST("/api/events").WithHeader("Authorization", "Bearer "+token).
		WithJSON(body).
		Expect().Status(httptest.StatusCreated).
		JSON().Object().Value("event").Object().Value("id").Number().Raw()
	return uint(id)
}

func TestHealthEndpoint(t *testing.T) {
	e := setupTestApp(t)
	e.GET("/health").Expect().Status(httptest.StatusOK).
		JSON().Object().Value("status").String().IsEqual("ok")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	e := setupTestApp(t)
	registerTestUser(t, e, "taken@example.com")

	body := map[string]interface{}{
		"firstName": "Other",
		"lastName":  "User",
		"email":     "taken@example.com",
		"password":  "password456",
	}
	e.POST("/api/user/register").WithJSON(body).
		Expect().Status(httptest.StatusConflict)
}

func TestEventEndpointsRequireAuth(t *testing.T) {
	e := setupTestApp(t)
	e.GET("/api/events").Expect().Status(httptest.StatusUnauthorized)
	e.GET("/api/marketplace").Expect().Status(httptest.StatusUnauthorized)
	e.GET("/api/swaps").Expect().Status(httptest.StatusUnauthorized)
}

func TestMarketplaceExcludesOwnEvents(t *testing.T) {
	e := setupTestApp(t)
	aliceToken := registerTestUser(t, e, "alice@example.com")
	bobToken := registerTestUser(t, e, "bob@example.com")

	aliceEventID := createTestEvent(t, e, aliceToken, "Alice's slot", true)
	bobEventID := createTestEvent(t, e, bobToken, "Bob's slot", true)

	market := e.GET("/api/marketplace").WithHeader("Authorization", "Bearer "+aliceToken).
		Expect().Status(httptest.StatusOK).JSON().Object()

	listings := market.Value("listings").Array()
	listings.Length().IsEqual(1)
	listings.Value(0).Object().Value("id").Number().IsEqual(float64(bobEventID))
	listings.Value(0).Object().Value("ownerName").String().IsEqual("Test User")

	mine := market.Value("mine").Array()
	mine.Length().IsEqual(1)
	mine.Value(0).Object().Value("id").Number().IsEqual(float64(aliceEventID))
}

func TestSwapLifecycleOverHTTP(t *testing.T) {
	e := setupTestApp(t)
	aliceToken := registerTestUser(t, e, "alice@example.com")
	bobToken := registerTestUser(t, e, "bob@example.com")

	aliceEventID := createTestEvent(t, e, aliceToken, "Alice's slot", true)
	bobEventID := createTestEvent(t, e, bobToken, "Bob's slot", true)

	// Alice proposes her slot for Bob's
	requestID := uint(e.POST("/api/swaps").WithHeader("Authorization", "Bearer "+aliceToken).
		WithJSON(map[string]interface{}{
			"requesterEventID": aliceEventID,
			"recipientEventID": bobEventID,
		}).
		Expect().Status(httptest.StatusCreated).
		JSON().Object().Value("request").Object().Value("id").Number().Raw())

	// Alice cannot accept her own proposal
	e.POST(fmt.Sprintf("/api/swaps/%d/accept", requestID)).
		WithHeader("Authorization", "Bearer "+aliceToken).
		Expect().Status(httptest.StatusForbidden)

	// Bob accepts; the two events swap owners
	e.POST(fmt.Sprintf("/api/swaps/%d/accept", requestID)).
		WithHeader("Authorization", "Bearer "+bobToken).
		Expect().Status(httptest.StatusOK).
		JSON().Object().Value("request").Object().Value("status").String().IsEqual("ACCEPTED")

	var swapped models.Event
	require.NoError(t, storage.DB.First(&swapped, aliceEventID).Error)
	var alice, bob models.User
	require.NoError(t, storage.DB.Where("email = ?", "alice@example.com").First(&alice).Error)
	require.NoError(t, storage.DB.Where("email = ?", "bob@example.com").First(&bob).Error)
	assert.Equal(t, bob.ID, swapped.UserID)
	assert.Equal(t, models.EventStatusBusy, swapped.Status)

	var counterpart models.Event
	require.NoError(t, storage.DB.First(&counterpart, bobEventID).Error)
	assert.Equal(t, alice.ID, counterpart.UserID)

	// a second accept is rejected, not re-applied
	e.POST(fmt.Sprintf("/api/swaps/%d/accept", requestID)).
		WithHeader("Authorization", "Bearer "+bobToken).
		Expect().Status(httptest.StatusConflict)

	// Alice got notified about the acceptance
	notifications := e.GET("/api/notifications").WithHeader("Authorization", "Bearer "+aliceToken).
		Expect().Status(httptest.StatusOK).JSON().Object()
	notifications.Value("notifications").Array().Length().Gt(0)
}

func TestToggleLockedEventOverHTTP(t *testing.T) {
	e := setupTestApp(t)
	aliceToken := registerTestUser(t, e, "alice@example.com")
	bobToken := registerTestUser(t, e, "bob@example.com")

	aliceEventID := createTestEvent(t, e, aliceToken, "Alice's slot", true)
	bobEventID := createTestEvent(t, e, bobToken, "Bob's slot", true)

	e.POST("/api/swaps").WithHeader("Authorization", "Bearer "+aliceToken).
		WithJSON(map[string]interface{}{
			"requesterEventID": aliceEventID,
			"recipientEventID": bobEventID,
		}).
		Expect().Status(httptest.StatusCreated)

	// the pending swap locks the slot against toggling
	e.PATCH(fmt.Sprintf("/api/events/%d/status", aliceEventID)).
		WithHeader("Authorization", "Bearer "+aliceToken).
		WithJSON(map[string]interface{}{"status": "BUSY"}).
		Expect().Status(httptest.StatusConflict)
}
