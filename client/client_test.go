package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI imitates the auth and project endpoints of the server.
type fakeAPI struct {
	projectGets atomic.Int32
	failWrites  bool

	mu       sync.Mutex
	projects []string
	// When set, the next project listing is read, then held until release
	// is closed.
	started chan struct{}
	release chan struct{}
}

// holdNextList makes the next GET of the project list wait after reading
// the data. The returned channel is closed once that request is waiting.
func (f *fakeAPI) holdNextList() (started <-chan struct{}, release chan<- struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = make(chan struct{})
	f.release = make(chan struct{})
	return f.started, f.release
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret-passphrase" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid credentials"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
		w.Write([]byte(`{"user":{"id":1,"username":"` + body.Username + `","isAdmin":true}}`))
	})

	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil && c.Value == "ok" {
			w.Write([]byte(`{"authenticated":true,"user":{"id":1,"username":"admin","isAdmin":true}}`))
			return
		}
		w.Write([]byte(`{"authenticated":false}`))
	})

	mux.HandleFunc("GET /api/admin/projects", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "ok" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		f.projectGets.Add(1)

		f.mu.Lock()
		projects := append([]string(nil), f.projects...)
		started, release := f.started, f.release
		f.started, f.release = nil, nil
		f.mu.Unlock()

		if release != nil {
			close(started)
			<-release
		}
		json.NewEncoder(w).Encode(projects)
	})

	mux.HandleFunc("POST /api/admin/projects", func(w http.ResponseWriter, r *http.Request) {
		if f.failWrites {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"validation failed"}`))
			return
		}
		var body struct{ Title string }
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.projects = append(f.projects, body.Title)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	})

	return mux
}

func setupTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{projects: []string{}}
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	c, err := New(server.URL)
	require.NoError(t, err)
	return c, api
}

func TestRequest_StatusError(t *testing.T) {
	c, _ := setupTestClient(t)

	_, err := c.Login(context.Background(), "admin", "wrong")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
	assert.Equal(t, `401: {"error":"invalid credentials"}`, err.Error())
	assert.True(t, IsUnauthorized(err))
}

func TestLogin_KeepsSessionCookie(t *testing.T) {
	c, _ := setupTestClient(t)
	ctx := context.Background()

	user, err := c.Login(ctx, "admin", "secret-passphrase")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	session, err := c.Me(ctx)
	require.NoError(t, err)
	assert.True(t, session.Authenticated)

	require.NoError(t, c.Logout(ctx))
	require.NoError(t, c.Logout(ctx))
	session, err = c.Me(ctx)
	require.NoError(t, err)
	assert.False(t, session.Authenticated)
}

func TestQuery_ServedFromCache(t *testing.T) {
	c, api := setupTestClient(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "admin", "secret-passphrase")
	require.NoError(t, err)
	qc := NewQueryCache(c)

	first, err := Query[[]string](ctx, qc, "/api/admin/projects")
	require.NoError(t, err)
	second, err := Query[[]string](ctx, qc, "/api/admin/projects")
	require.NoError(t, err)

	assert.Empty(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), api.projectGets.Load())
}

func TestQuery_StaleTime(t *testing.T) {
	c, api := setupTestClient(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "admin", "secret-passphrase")
	require.NoError(t, err)
	qc := NewQueryCache(c)
	now := time.Now()
	qc.now = func() time.Time { return now }

	_, err = Query[[]string](ctx, qc, "/api/admin/projects", WithStaleTime(time.Minute))
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = Query[[]string](ctx, qc, "/api/admin/projects", WithStaleTime(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.projectGets.Load())

	now = now.Add(time.Minute)
	_, err = Query[[]string](ctx, qc, "/api/admin/projects", WithStaleTime(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.projectGets.Load())
}

func TestMutate_InvalidatesOnSuccess(t *testing.T) {
	c, api := setupTestClient(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "admin", "secret-passphrase")
	require.NoError(t, err)
	qc := NewQueryCache(c)
	const key = "/api/admin/projects"

	_, err = Query[[]string](ctx, qc, key)
	require.NoError(t, err)

	err = qc.Mutate(ctx, http.MethodPost, key, map[string]string{"title": "Portfolio"}, nil, key)
	require.NoError(t, err)

	projects, err := Query[[]string](ctx, qc, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"Portfolio"}, projects)
	assert.Equal(t, int32(2), api.projectGets.Load())
}

func TestMutate_DuringInFlightQuery(t *testing.T) {
	c, api := setupTestClient(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "admin", "secret-passphrase")
	require.NoError(t, err)
	qc := NewQueryCache(c)
	const key = "/api/admin/projects"
	api.projects = []string{"old"}

	started, release := api.holdNextList()
	done := make(chan []string, 1)
	go func() {
		projects, err := Query[[]string](ctx, qc, key)
		assert.NoError(t, err)
		done <- projects
	}()
	<-started

	err = qc.Mutate(ctx, http.MethodPost, key, map[string]string{"title": "new"}, nil, key)
	require.NoError(t, err)
	close(release)
	assert.Equal(t, []string{"old"}, <-done)

	projects, err := Query[[]string](ctx, qc, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "new"}, projects)
	assert.Equal(t, int32(2), api.projectGets.Load())
}

func TestMutate_FailureKeepsCache(t *testing.T) {
	c, api := setupTestClient(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "admin", "secret-passphrase")
	require.NoError(t, err)
	qc := NewQueryCache(c)
	const key = "/api/admin/projects"
	_, err = Query[[]string](ctx, qc, key)
	require.NoError(t, err)
	api.failWrites = true

	err = qc.Mutate(ctx, http.MethodPost, key, map[string]string{"title": "Broken"}, nil, key)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
	_, err = Query[[]string](ctx, qc, key)
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.projectGets.Load())
}

func TestGuard_Lifecycle(t *testing.T) {
	c, _ := setupTestClient(t)
	ctx := context.Background()
	guard := NewGuard(c)

	assert.Equal(t, Checking, guard.State())
	_, redirect := guard.Redirect()
	assert.False(t, redirect)

	state, err := guard.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, Unauthenticated, state)
	path, redirect := guard.Redirect()
	assert.True(t, redirect)
	assert.Equal(t, LoginPath, path)

	require.NoError(t, guard.Login(ctx, "admin", "secret-passphrase"))
	state, err = guard.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, Authenticated, state)
	assert.Equal(t, "admin", guard.User().Username)

	require.NoError(t, guard.Logout(ctx))
	assert.Equal(t, Unauthenticated, guard.State())
	assert.Nil(t, guard.User())
}

func TestGuard_ObserveUnauthorized(t *testing.T) {
	c, _ := setupTestClient(t)
	ctx := context.Background()
	guard := NewGuard(c)
	require.NoError(t, guard.Login(ctx, "admin", "secret-passphrase"))
	require.NoError(t, c.Logout(ctx))

	_, err := Query[[]string](ctx, NewQueryCache(c), "/api/admin/projects")
	require.Error(t, err)

	assert.NoError(t, guard.Observe(err))
	assert.Equal(t, Unauthenticated, guard.State())

	other := &StatusError{Status: http.StatusInternalServerError, Body: "boom"}
	assert.Equal(t, other, guard.Observe(other))
}

func TestGuard_LoginFailure(t *testing.T) {
	c, _ := setupTestClient(t)
	guard := NewGuard(c)

	err := guard.Login(context.Background(), "admin", "wrong")

	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, Unauthenticated, guard.State())
}
