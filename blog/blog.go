package blog

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"portfolio/analytics"
	"portfolio/cache"
	"portfolio/common"
	"portfolio/crud"
	"portfolio/models"
	"portfolio/validation"
)

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // raw HTML is kept here and sanitized afterwards
	),
)

var policy = bluemonday.UGCPolicy()

type CommentService = crud.Service[models.BlogComment, models.BlogCommentForm, *models.BlogCommentForm]

type BlogModule struct {
	db        *gorm.DB
	comments  *CommentService
	analytics *analytics.AnalyticsModule
	cache     *cache.ResponseCache
	limiter   *common.RateLimiter
}

func NewBlogModule(db *gorm.DB, v *validation.Validator, a *analytics.AnalyticsModule, rc *cache.ResponseCache, limiter *common.RateLimiter) *BlogModule {
	return &BlogModule{
		db: db,
		comments: crud.NewService[models.BlogComment, models.BlogCommentForm](db, v, crud.Options[models.BlogComment]{
			Name: "comment",
		}),
		analytics: a,
		cache:     rc,
		limiter:   limiter,
	}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/blog-posts")
	{
		api.GET("", b.cache.Middleware(cache.GroupBlog), b.index)
		api.GET("/:slug", b.post)
		api.POST("/:slug/comments", b.limiter.Middleware(), b.comment)
	}
}

// PostSummary is the list representation of a published post.
type PostSummary struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Excerpt     string            `json:"excerpt"`
	CoverImage  string            `json:"coverImage"`
	Tags        models.StringList `json:"tags"`
	PublishedAt *time.Time        `json:"publishedAt,omitempty"`
	ReadTime    int               `json:"readTime"`
}

// PublicComment hides the commenter's email address.
type PublicComment struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type PostDetail struct {
	PostSummary
	Content   string          `json:"content"`
	HTML      string          `json:"html"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Views     int64           `json:"views"`
	Comments  []PublicComment `json:"comments"`
}

func summarize(p *models.BlogPost) PostSummary {
	return PostSummary{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		CoverImage:  p.CoverImage,
		Tags:        p.Tags,
		PublishedAt: p.PublishedAt,
		ReadTime:    p.ReadTime,
	}
}

func publicComment(c *models.BlogComment) PublicComment {
	return PublicComment{ID: c.ID, Name: c.Name, Content: c.Content, CreatedAt: c.CreatedAt}
}

// index lists published posts, newest first. ?tag= narrows to one tag.
func (b *BlogModule) index(c *gin.Context) {
	query := b.db.WithContext(c.Request.Context()).
		Where("published = ?", true).
		Order("published_at DESC, id DESC")
	if tag := c.Query("tag"); tag != "" {
		query = query.Where("EXISTS (SELECT 1 FROM json_each(blog_posts.tags) WHERE json_each.value = ?)", tag)
	}

	var posts []models.BlogPost
	if err := query.Find(&posts).Error; err != nil {
		c.Error(err)
		return
	}

	out := make([]PostSummary, 0, len(posts))
	for i := range posts {
		out = append(out, summarize(&posts[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (b *BlogModule) getPublishedPost(c *gin.Context) (*models.BlogPost, bool) {
	var post models.BlogPost
	err := b.db.WithContext(c.Request.Context()).
		Where("slug = ? AND published = ?", c.Param("slug"), true).
		First(&post).Error
	if err != nil {
		if common.IsNotFound(err) {
			c.Error(common.NotFound("post"))
		} else {
			c.Error(err)
		}
		return nil, false
	}
	return &post, true
}

// post returns a published post with rendered content and approved comments.
func (b *BlogModule) post(c *gin.Context) {
	post, ok := b.getPublishedPost(c)
	if !ok {
		return
	}

	var comments []models.BlogComment
	err := b.db.WithContext(c.Request.Context()).
		Where("post_id = ? AND approved = ?", post.ID, true).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		c.Error(err)
		return
	}

	public := make([]PublicComment, 0, len(comments))
	for i := range comments {
		public = append(public, publicComment(&comments[i]))
	}

	b.analytics.TrackView(c, post.ID)

	// A failed count still serves the post, with zero views.
	views, err := b.analytics.GetPostViewCount(c.Request.Context(), post.ID)
	if err != nil {
		slog.Warn("reading view count failed", "post_id", post.ID, "error", err)
	}

	c.JSON(http.StatusOK, PostDetail{
		PostSummary: summarize(post),
		Content:     post.Content,
		HTML:        renderMarkdown(post.Content),
		UpdatedAt:   post.UpdatedAt,
		Views:       views,
		Comments:    public,
	})
}

// comment stores a reader comment. It stays hidden until approved.
func (b *BlogModule) comment(c *gin.Context) {
	post, ok := b.getPublishedPost(c)
	if !ok {
		return
	}
	body, ok := crud.ReadBody(c)
	if !ok {
		return
	}

	form := &models.BlogCommentForm{}
	if err := b.comments.Decode(body, form); err != nil {
		c.Error(err)
		return
	}
	form.PostID = post.ID
	form.Approved = false

	comment, err := b.comments.CreateForm(c.Request.Context(), form)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"comment": publicComment(comment),
		"message": "comment received and awaiting moderation",
	})
}

// DeletePostDependents removes the comments and view records of a post.
// It runs inside the transaction that deletes the post.
func DeletePostDependents(tx *gorm.DB, post *models.BlogPost) error {
	if err := tx.Where("post_id = ?", post.ID).Delete(&models.BlogComment{}).Error; err != nil {
		return err
	}
	return analytics.DeleteForPost(tx, post.ID)
}

// renderMarkdown converts markdown to HTML safe to embed in a page.
func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return policy.Sanitize(content)
	}
	return policy.Sanitize(buf.String())
}
