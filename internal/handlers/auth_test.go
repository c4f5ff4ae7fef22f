package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"task-weather/backend/internal/handlers"
	"task-weather/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *services.JWTTokenService) {
	gin.SetMode(gin.TestMode)
	db := openTestDB(t)
	tokens := services.NewTokenService("handler-secret")
	handler := handlers.NewAuthHandler(db, services.NewAuthService(services.NewBcryptHasher(bcrypt.MinCost), tokens))

	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)
	return router, tokens
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := postJSON(router, "/register", `{"username": "alice", "password": "pw1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"User Created Successfully"}`, w.Body.String())

	w = postJSON(router, "/register", `{"username": "alice", "password": "pw2"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"Username already exists."}`, w.Body.String())
}

func TestRegister_MissingFields(t *testing.T) {
	router, _ := setupAuthRouter(t)

	for _, body := range []string{`{"username": "alice"}`, `{"password": "pw"}`, `invalid json`, ``} {
		w := postJSON(router, "/register", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	router, _ := setupAuthRouter(t)

	body := fmt.Sprintf(`{"username": "alice", "password": %q}`, strings.Repeat("p", 73))
	w := postJSON(router, "/register", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Password must be at most 72 bytes"}`, w.Body.String())

	w = postJSON(router, "/login", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin(t *testing.T) {
	router, tokens := setupAuthRouter(t)
	postJSON(router, "/register", `{"username": "alice", "password": "pw1"}`)

	w := postJSON(router, "/login", `{"username": "alice", "password": "pw1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	userID, err := tokens.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.NotZero(t, userID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	router, _ := setupAuthRouter(t)
	postJSON(router, "/register", `{"username": "alice", "password": "pw1"}`)

	for _, body := range []string{
		`{"username": "alice", "password": "wrong"}`,
		`{"username": "mallory", "password": "pw1"}`,
	} {
		w := postJSON(router, "/login", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, body)
		assert.JSONEq(t, `{"message":"Invalid credentials"}`, w.Body.String())
	}

	w := postJSON(router, "/login", `{"username": "alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
