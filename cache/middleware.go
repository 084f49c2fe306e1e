package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Resource groups of the public API. Admin mutations invalidate the group of
// the entity they touch.
const (
	GroupProjects       = "projects"
	GroupExperiences    = "experiences"
	GroupTestimonials   = "testimonials"
	GroupSkills         = "skills"
	GroupSocialProfiles = "social-profiles"
	GroupContent        = "content"
	GroupBlog           = "blog"
	GroupLanguages      = "languages"
	GroupTranslations   = "translations"
)

var allGroups = []string{
	GroupProjects, GroupExperiences, GroupTestimonials, GroupSkills, GroupSocialProfiles,
	GroupContent, GroupBlog, GroupLanguages, GroupTranslations,
}

const jsonContentType = "application/json; charset=utf-8"

// ResponseCache caches successful JSON GET responses.
type ResponseCache struct {
	store Store
	ttl   time.Duration
}

func NewResponseCache(store Store, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResponseCache{store: store, ttl: ttl}
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware serves GET requests of group from the cache and fills it on a
// miss. The X-Cache header tells which happened.
func (rc *ResponseCache) Middleware(group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		gen, err := rc.store.Generation(ctx, group)
		if err != nil {
			slog.Warn("cache generation read failed", "group", group, "error", err)
			c.Next()
			return
		}
		key := Key(group, gen, c.Request.URL.RequestURI())

		if cached, err := rc.store.Get(ctx, key); err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, jsonContentType, cached)
			c.Abort()
			return
		} else if !errors.Is(err, ErrMiss) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}

		c.Header("X-Cache", "MISS")

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() != http.StatusOK || len(c.Errors) > 0 {
			return
		}
		if !strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "application/json") {
			return
		}
		// Skip the store when the group was invalidated while the handler ran.
		if current, err := rc.store.Generation(ctx, group); err != nil || current != gen {
			return
		}
		if err := rc.store.Set(ctx, key, writer.body.Bytes(), rc.ttl); err != nil {
			slog.Warn("cache write failed", "key", key, "error", err)
		}
	}
}

// Invalidate drops every cached response of the given groups. The
// generation is bumped first so a response still being built for the old
// data is never served.
func (rc *ResponseCache) Invalidate(ctx context.Context, groups ...string) {
	for _, group := range groups {
		if err := rc.store.BumpGeneration(ctx, group); err != nil {
			slog.Warn("cache generation bump failed", "group", group, "error", err)
		}
		if err := rc.store.DeletePrefix(ctx, groupPrefix(group)); err != nil {
			slog.Warn("cache invalidation failed", "group", group, "error", err)
		}
	}
}

// Invalidator returns a callback that invalidates groups, for use as a
// CRUD change hook.
func (rc *ResponseCache) Invalidator(groups ...string) func() {
	return func() {
		rc.Invalidate(context.Background(), groups...)
	}
}

func (rc *ResponseCache) Clear(ctx context.Context) error {
	for _, group := range allGroups {
		if err := rc.store.BumpGeneration(ctx, group); err != nil {
			return err
		}
	}
	return rc.store.Clear(ctx)
}
