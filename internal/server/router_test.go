package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-weather/backend/internal/models"
	"task-weather/backend/internal/monitoring"
	"task-weather/backend/internal/server"
	"task-weather/backend/internal/services"
	"task-weather/backend/internal/weather"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixedWeather struct{}

func (fixedWeather) Lookup(ctx context.Context, location string) weather.Report {
	return weather.Available(weather.Summary{Description: "overcast clouds", Temperature: 61.3})
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	router, _ := newTestServer(t)
	return router
}

func newTestServer(t *testing.T) (*gin.Engine, *monitoring.Monitor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))

	tokens := services.NewTokenService("router-secret")
	monitor := monitoring.NewMonitor()
	monitor.RegisterHealthCheck("database", func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	})

	router := server.NewRouter(server.Dependencies{
		DB:             db,
		AuthService:    services.NewAuthService(services.NewBcryptHasher(bcrypt.MinCost), tokens),
		Tokens:         tokens,
		TaskService:    services.NewTaskService(),
		Presenter:      services.NewTaskPresenter(fixedWeather{}),
		Monitor:        monitor,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return router, monitor
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func TestRouter_TaskLifecycle(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}

	assert.Equal(t, http.StatusCreated, c.do("POST", "/register", `{"username": "alice", "password": "pw1"}`).Code)
	assert.Equal(t, http.StatusConflict, c.do("POST", "/register", `{"username": "alice", "password": "pw2"}`).Code)

	w := c.do("POST", "/login", `{"username": "alice", "password": "pw1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)
	c.token = login.AccessToken

	w = c.do("GET", "/tasks/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = c.do("POST", "/tasks/", `{"id": 1, "description": "buy milk", "completed": "false", "due_date": "2025-01-01"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = c.do("GET", "/tasks/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"description":"buy milk","completed":false,"due_date":"2025-01-01"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, c.do("DELETE", "/tasks/1", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, c.do("GET", "/tasks/1", "").Code)
}

func TestRouter_WeatherEnrichment(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}
	c.do("POST", "/register", `{"username": "bob", "password": "pw"}`)
	var login map[string]string
	require.NoError(t, json.Unmarshal(c.do("POST", "/login", `{"username": "bob", "password": "pw"}`).Body.Bytes(), &login))
	c.token = login["access_token"]

	require.Equal(t, http.StatusCreated, c.do("POST", "/tasks", `{"id": 3, "description": "picnic", "location": "Seattle"}`).Code)

	w := c.do("GET", "/tasks", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":3,"description":"picnic","completed":false,"due_date":"",
		"location":"Seattle","weather":{"description":"overcast clouds","temperature":61.3}}]`, w.Body.String())

	w = c.do("PUT", "/tasks/3", `{"location": null, "completed": true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3,"description":"picnic","completed":true,"due_date":""}`, w.Body.String())
}

func TestRouter_AuthGate(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}

	w := c.do("GET", "/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Token is missing!"}`, w.Body.String())

	c.token = "garbage"
	w = c.do("GET", "/tasks/1", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid Token: ")
}

func TestRouter_OpsRoutes(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}

	w := c.do("GET", "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"Hello World!"`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusOK, c.do("GET", "/health", "").Code)
	assert.Equal(t, http.StatusOK, c.do("GET", "/live", "").Code)
	assert.Equal(t, http.StatusOK, c.do("GET", "/metrics", "").Code)
}

func TestRouter_PanicIsCounted(t *testing.T) {
	router, monitor := newTestServer(t)
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	c := &client{t: t, router: router}
	w := c.do("GET", "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	snapshot := monitor.Snapshot()
	assert.Equal(t, int64(0), snapshot.ActiveRequests)
	assert.Equal(t, int64(1), snapshot.RequestCount)
	assert.Equal(t, int64(1), snapshot.ErrorCount)
	assert.Equal(t, int64(1), snapshot.StatusCodes["Internal Server Error"])
}

func TestRouter_CORS(t *testing.T) {
	router := newTestRouter(t)

	req, _ := http.NewRequest("OPTIONS", "/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
