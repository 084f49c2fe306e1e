package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	visitorCookie  = "portfolio_visitor_id"
	visitorMaxAge  = 60 * 60 * 24 * 365 * 2 // 2 years
	throttleWindow = 30 * time.Minute
)

// PostView is one counted visit of a blog post.
type PostView struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	VisitorID string    `gorm:"not null;index" json:"visitorId"`
	Browser   *string   `json:"browser,omitempty"`
	Language  *string   `json:"language,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

type AnalyticsModule struct {
	db           *gorm.DB
	secureCookie bool
}

func NewAnalyticsModule(db *gorm.DB, secureCookie bool) *AnalyticsModule {
	return &AnalyticsModule{db: db, secureCookie: secureCookie}
}

// TrackView records a view of postID. Repeated views by the same visitor
// within 30 minutes count once.
func (a *AnalyticsModule) TrackView(c *gin.Context, postID uint) {
	if a == nil || a.db == nil {
		return
	}

	visitorID := a.visitorID(c)
	since := time.Now().UTC().Add(-throttleWindow)

	var recent int64
	err := a.db.WithContext(c.Request.Context()).Model(&PostView{}).
		Where("visitor_id = ? AND post_id = ? AND created_at > ?", visitorID, postID, since).
		Count(&recent).Error
	if err != nil {
		slog.Warn("checking recent views failed", "post_id", postID, "error", err)
		return
	}
	if recent > 0 {
		return
	}

	view := PostView{
		PostID:    postID,
		VisitorID: visitorID,
		Browser:   extractBrowser(c.Request.UserAgent()),
		Language:  extractLanguage(c.GetHeader("Accept-Language")),
		CreatedAt: time.Now().UTC(),
	}
	if err := a.db.WithContext(c.Request.Context()).Create(&view).Error; err != nil {
		slog.Warn("saving post view failed", "post_id", postID, "error", err)
	}
}

// DeleteForPost removes the views of a post; tx is the caller's transaction.
func DeleteForPost(tx *gorm.DB, postID uint) error {
	return tx.Where("post_id = ?", postID).Delete(&PostView{}).Error
}

// visitorID returns the visitor cookie, setting a new one when missing.
func (a *AnalyticsModule) visitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookie); err == nil && id != "" {
		return id
	}

	id := uuid.NewString()
	c.SetCookie(visitorCookie, id, visitorMaxAge, "/", "", a.secureCookie, true)
	return id
}

func extractBrowser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	ua := strings.ToLower(userAgent)
	var browser string

	// most specific first
	switch {
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	default:
		browser = "Other"
	}

	return &browser
}

// extractLanguage returns the preferred entry of an Accept-Language header.
func extractLanguage(acceptLang string) *string {
	first, _, _ := strings.Cut(acceptLang, ",")
	lang, _, _ := strings.Cut(strings.TrimSpace(first), ";")
	if lang == "" {
		return nil
	}
	return &lang
}

type DayViews struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type PostViews struct {
	PostID    uint   `json:"postId"`
	PostTitle string `json:"postTitle"`
	Count     int64  `json:"count"`
}

type Report struct {
	Days     int         `json:"days"`
	Total    int64       `json:"total"`
	ByDay    []DayViews  `json:"byDay"`
	TopPosts []PostViews `json:"topPosts"`
}

// GetViewsByDay returns one entry per day of the last days days, oldest
// first, including days without views.
func (a *AnalyticsModule) GetViewsByDay(ctx context.Context, days int) ([]DayViews, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	var results []DayViews
	err := a.db.WithContext(ctx).Model(&PostView{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", start).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.Date] = r.Count
	}

	byDay := make([]DayViews, days)
	for i := range byDay {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		byDay[i] = DayViews{Date: date, Count: counts[date]}
	}
	return byDay, nil
}

// GetTopPosts returns the most viewed posts of the last days days.
func (a *AnalyticsModule) GetTopPosts(ctx context.Context, days, limit int) ([]PostViews, error) {
	start := time.Now().UTC().AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	results := []PostViews{}
	err := a.db.WithContext(ctx).Table("post_views").
		Select("post_views.post_id as post_id, blog_posts.title as post_title, COUNT(*) as count").
		Joins("JOIN blog_posts ON blog_posts.id = post_views.post_id").
		Where("post_views.created_at >= ?", start).
		Group("post_views.post_id, blog_posts.title").
		Order("count DESC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}

// GetPostViewCount returns the all-time views of a post.
func (a *AnalyticsModule) GetPostViewCount(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&PostView{}).Where("post_id = ?", postID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting views of post %d: %w", postID, err)
	}
	return count, nil
}

// BuildReport aggregates views for the admin dashboard.
func (a *AnalyticsModule) BuildReport(ctx context.Context, days int) (*Report, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}

	byDay, err := a.GetViewsByDay(ctx, days)
	if err != nil {
		return nil, err
	}
	top, err := a.GetTopPosts(ctx, days, 10)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, d := range byDay {
		total += d.Count
	}

	return &Report{Days: days, Total: total, ByDay: byDay, TopPosts: top}, nil
}
