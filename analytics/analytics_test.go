package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"portfolio/common"
	"portfolio/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := common.OpenMemoryDb()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(append(models.All(), &PostView{})...))
	return db
}

func createTestPost(t *testing.T, db *gorm.DB, title string) *models.BlogPost {
	t.Helper()
	post := &models.BlogPost{Title: title, Slug: models.GenerateSlug(title), Content: "body", Published: true}
	require.NoError(t, db.Create(post).Error)
	return post
}

func setupTestRouter(a *AnalyticsModule, postID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/view", func(c *gin.Context) {
		a.TrackView(c, postID)
		c.Status(http.StatusOK)
	})
	return router
}

func visit(router *gin.Engine, cookie *http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/view", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 Firefox/120.0")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func visitorCookieFrom(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == visitorCookie {
			return c
		}
	}
	return nil
}

func viewCount(t *testing.T, a *AnalyticsModule, postID uint) int64 {
	t.Helper()
	count, err := a.GetPostViewCount(context.Background(), postID)
	require.NoError(t, err)
	return count
}

func TestTrackView_ThrottlesSameVisitor(t *testing.T) {
	db := setupTestDB(t)
	a := NewAnalyticsModule(db, false)
	post := createTestPost(t, db, "Hello")
	router := setupTestRouter(a, post.ID)

	first := visit(router, nil)
	cookie := visitorCookieFrom(first)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	visit(router, cookie)
	assert.Equal(t, int64(1), viewCount(t, a, post.ID))

	visit(router, nil)
	assert.Equal(t, int64(2), viewCount(t, a, post.ID))

	var view PostView
	require.NoError(t, db.First(&view).Error)
	require.NotNil(t, view.Browser)
	assert.Equal(t, "Firefox", *view.Browser)
	require.NotNil(t, view.Language)
	assert.Equal(t, "pt-BR", *view.Language)
}

func TestTrackView_CountsAgainAfterWindow(t *testing.T) {
	db := setupTestDB(t)
	a := NewAnalyticsModule(db, false)
	post := createTestPost(t, db, "Hello")
	old := PostView{PostID: post.ID, VisitorID: "v1", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	require.NoError(t, db.Create(&old).Error)

	visit(setupTestRouter(a, post.ID), &http.Cookie{Name: visitorCookie, Value: "v1"})

	assert.Equal(t, int64(2), viewCount(t, a, post.ID))
}

func TestBuildReport(t *testing.T) {
	db := setupTestDB(t)
	a := NewAnalyticsModule(db, false)
	popular := createTestPost(t, db, "Popular")
	quiet := createTestPost(t, db, "Quiet")
	now := time.Now().UTC()

	views := []PostView{
		{PostID: popular.ID, VisitorID: "a", CreatedAt: now},
		{PostID: popular.ID, VisitorID: "b", CreatedAt: now},
		{PostID: quiet.ID, VisitorID: "a", CreatedAt: now},
		{PostID: quiet.ID, VisitorID: "c", CreatedAt: now.AddDate(0, 0, -60)},
	}
	require.NoError(t, db.Create(&views).Error)

	report, err := a.BuildReport(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, 7, report.Days)
	assert.Len(t, report.ByDay, 7)
	assert.Equal(t, int64(3), report.Total)
	assert.Equal(t, now.Format("2006-01-02"), report.ByDay[6].Date)
	assert.Equal(t, int64(3), report.ByDay[6].Count)
	require.Len(t, report.TopPosts, 2)
	assert.Equal(t, "Popular", report.TopPosts[0].PostTitle)
	assert.Equal(t, int64(2), report.TopPosts[0].Count)
}

func TestQueries_ReportDatabaseErrors(t *testing.T) {
	db := setupTestDB(t)
	a := NewAnalyticsModule(db, false)
	post := createTestPost(t, db, "Hello")
	require.NoError(t, db.Migrator().DropTable(&PostView{}))
	ctx := context.Background()

	count, err := a.GetPostViewCount(ctx, post.ID)
	assert.Error(t, err)
	assert.Zero(t, count)

	_, err = a.BuildReport(ctx, 7)
	assert.Error(t, err)
}

func TestBuildReport_CanceledContext(t *testing.T) {
	db := setupTestDB(t)
	a := NewAnalyticsModule(db, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.BuildReport(ctx, 7)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeleteForPost(t *testing.T) {
	db := setupTestDB(t)
	a := NewAnalyticsModule(db, false)
	post := createTestPost(t, db, "Hello")
	require.NoError(t, db.Create(&PostView{PostID: post.ID, VisitorID: "a", CreatedAt: time.Now().UTC()}).Error)

	require.NoError(t, DeleteForPost(db, post.ID))

	assert.Equal(t, int64(0), viewCount(t, a, post.ID))
}

func TestExtractLanguage(t *testing.T) {
	assert.Nil(t, extractLanguage(""))
	assert.Equal(t, "en-US", *extractLanguage("en-US,en;q=0.9"))
	assert.Equal(t, "de", *extractLanguage("de;q=1.0"))
}
