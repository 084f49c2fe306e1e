package admin

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/common"
	"portfolio/models"
)

type meResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user"`
}

func decodeMe(t *testing.T, body []byte) meResponse {
	t.Helper()
	var me meResponse
	require.NoError(t, json.Unmarshal(body, &me))
	return me
}

func TestLogin_ThenMe(t *testing.T) {
	env := setupTestEnv(t, nil)
	user := createTestUser(t, env.db, "admin", true)

	env.login(t, "admin")
	w := env.as("GET", "/api/auth/me", "")

	assert.Equal(t, http.StatusOK, w.Code)
	me := decodeMe(t, w.Body.Bytes())
	assert.True(t, me.Authenticated)
	require.NotNil(t, me.User)
	assert.Equal(t, user.ID, me.User.ID)
	assert.Equal(t, "admin", me.User.Username)
	assert.NotContains(t, w.Body.String(), "$2a$")
}

func TestLogin_GenericFailure(t *testing.T) {
	env := setupTestEnv(t, nil)
	createTestUser(t, env.db, "admin", true)

	wrongPassword := env.request("POST", "/api/auth/login", `{"username":"admin","password":"wrong-password"}`)
	unknownUser := env.request("POST", "/api/auth/login", `{"username":"nobody","password":"`+adminPassword+`"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, wrongPassword.Body.String())
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Empty(t, wrongPassword.Result().Cookies())
}

func TestLogin_MissingFields(t *testing.T) {
	env := setupTestEnv(t, nil)

	w := env.request("POST", "/api/auth/login", `{"username":"admin"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"password"`)
}

func TestLogin_RateLimited(t *testing.T) {
	env := setupTestEnv(t, common.NewRateLimiter(0.001, 2))
	body := `{"username":"admin","password":"wrong-password"}`

	assert.Equal(t, http.StatusUnauthorized, env.request("POST", "/api/auth/login", body).Code)
	assert.Equal(t, http.StatusUnauthorized, env.request("POST", "/api/auth/login", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.request("POST", "/api/auth/login", body).Code)
}

func TestLogout_ThenMe(t *testing.T) {
	env := setupTestEnv(t, nil)
	env.loginAdmin(t)

	w := env.as("POST", "/api/auth/logout", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	cleared := w.Result().Cookies()

	w = env.request("GET", "/api/auth/me", "", cleared...)
	assert.False(t, decodeMe(t, w.Body.Bytes()).Authenticated)

	w = env.request("POST", "/api/auth/logout", "", cleared...)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMe_Anonymous(t *testing.T) {
	env := setupTestEnv(t, nil)

	w := env.request("GET", "/api/auth/me", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
}

func TestRequireAdmin_Anonymous(t *testing.T) {
	env := setupTestEnv(t, nil)

	w := env.request("GET", "/api/admin/projects", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, w.Body.String())
}

func TestRequireAdmin_NonAdmin(t *testing.T) {
	env := setupTestEnv(t, nil)
	createTestUser(t, env.db, "editor", false)
	env.login(t, "editor")

	w := env.as("GET", "/api/admin/projects", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_DeletedUser(t *testing.T) {
	env := setupTestEnv(t, nil)
	user := createTestUser(t, env.db, "admin", true)
	env.login(t, "admin")
	require.NoError(t, env.db.Delete(user).Error)

	w := env.as("GET", "/api/admin/projects", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.as("GET", "/api/auth/me", "")
	assert.False(t, decodeMe(t, w.Body.Bytes()).Authenticated)
}

func TestChangePassword(t *testing.T) {
	env := setupTestEnv(t, nil)
	user := createTestUser(t, env.db, "admin", true)
	env.login(t, "admin")
	newPassword := "a-much-longer-passphrase-2026"

	w := env.as("PUT", "/api/admin/account/password", `{"currentPassword":"wrong-password","newPassword":"`+newPassword+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"currentPassword"`)

	w = env.as("PUT", "/api/admin/account/password", `{"currentPassword":"`+adminPassword+`","newPassword":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"newPassword"`)

	w = env.as("PUT", "/api/admin/account/password", `{"currentPassword":"`+adminPassword+`","newPassword":"`+newPassword+`"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	assert.True(t, stored.CheckPassword(newPassword))
	assert.False(t, stored.CheckPassword(adminPassword))
}

func TestCheckPassword_NilUser(t *testing.T) {
	var user *models.User
	assert.False(t, user.CheckPassword(adminPassword))
}
