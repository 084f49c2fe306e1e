package site

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/cache"
	"portfolio/common"
	"portfolio/crud"
	"portfolio/models"
	"portfolio/validation"
)

// Notifier delivers the side effects of public writes. Failures are logged
// and never fail the request.
type Notifier interface {
	NotifyContact(ctx context.Context, contact *models.Contact) error
	SubscribeNewsletter(ctx context.Context, sub *models.NewsletterSubscriber) error
	UnsubscribeNewsletter(ctx context.Context, email string) error
}

type SiteModule struct {
	db       *gorm.DB
	v        *validation.Validator
	cache    *cache.ResponseCache
	limiter  *common.RateLimiter
	notifier Notifier
	siteURL  string

	contacts    *crud.Service[models.Contact, models.ContactForm, *models.ContactForm]
	subscribers *crud.Service[models.NewsletterSubscriber, models.NewsletterForm, *models.NewsletterForm]
}

func NewSiteModule(db *gorm.DB, v *validation.Validator, rc *cache.ResponseCache, limiter *common.RateLimiter, notifier Notifier, siteURL string) *SiteModule {
	return &SiteModule{
		db:       db,
		v:        v,
		cache:    rc,
		limiter:  limiter,
		notifier: notifier,
		siteURL:  strings.TrimSuffix(siteURL, "/"),
		contacts: crud.NewService[models.Contact, models.ContactForm](db, v, crud.Options[models.Contact]{
			Name: "contact",
		}),
		subscribers: crud.NewService[models.NewsletterSubscriber, models.NewsletterForm](db, v, crud.Options[models.NewsletterSubscriber]{
			Name: "subscriber",
		}),
	}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")

	publicList(api, s.cache, cache.GroupProjects, "/projects",
		crud.NewService[models.Project, models.ProjectForm](s.db, s.v, crud.Options[models.Project]{
			Name: "project", FilterParam: "category", FilterColumn: "category",
		}))
	publicList(api, s.cache, cache.GroupExperiences, "/experiences",
		crud.NewService[models.Experience, models.ExperienceForm](s.db, s.v, crud.Options[models.Experience]{
			Name: "experience",
		}))
	publicList(api, s.cache, cache.GroupTestimonials, "/testimonials",
		crud.NewService[models.Testimonial, models.TestimonialForm](s.db, s.v, crud.Options[models.Testimonial]{
			Name: "testimonial",
		}))
	publicList(api, s.cache, cache.GroupSkills, "/skills",
		crud.NewService[models.Skill, models.SkillForm](s.db, s.v, crud.Options[models.Skill]{
			Name: "skill", FilterParam: "category", FilterColumn: "category",
		}))
	publicList(api, s.cache, cache.GroupSocialProfiles, "/social-profiles",
		crud.NewService[models.SocialProfile, models.SocialProfileForm](s.db, s.v, crud.Options[models.SocialProfile]{
			Name: "social profile", FilterParam: "platform", FilterColumn: "platform",
		}))
	publicList(api, s.cache, cache.GroupContent, "/content",
		crud.NewService[models.SiteContent, models.SiteContentForm](s.db, s.v, crud.Options[models.SiteContent]{
			Name: "content", FilterParam: "section", FilterColumn: "section",
		}))
	publicList(api, s.cache, cache.GroupLanguages, "/languages",
		crud.NewService[models.Language, models.LanguageForm](s.db, s.v, crud.Options[models.Language]{
			Name: "language",
		}))

	api.GET("/translations/:code", s.cache.Middleware(cache.GroupTranslations), s.translations)

	writes := api.Group("", s.limiter.Middleware())
	{
		writes.POST("/contact", s.contact)
		writes.POST("/newsletter/subscribe", s.subscribe)
		writes.POST("/newsletter/unsubscribe", s.unsubscribe)
	}

	router.GET("/sitemap.xml", s.sitemap)
}

func publicList[E any, F any, PF interface {
	*F
	crud.Form[E]
}](api *gin.RouterGroup, rc *cache.ResponseCache, group, path string, service *crud.Service[E, F, PF]) {
	cached := api.Group("", rc.Middleware(group))
	crud.NewHandler(service).Register(cached, path, crud.ReadOnly)
}

// translations returns the key/value map of one language.
func (s *SiteModule) translations(c *gin.Context) {
	code := c.Param("code")

	var language models.Language
	if err := s.db.WithContext(c.Request.Context()).Where("code = ?", code).First(&language).Error; err != nil {
		if common.IsNotFound(err) {
			c.Error(common.NotFound("language"))
		} else {
			c.Error(err)
		}
		return
	}

	var rows []models.Translation
	if err := s.db.WithContext(c.Request.Context()).Where("language_code = ?", code).Order("id ASC").Find(&rows).Error; err != nil {
		c.Error(err)
		return
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	c.JSON(http.StatusOK, out)
}

func (s *SiteModule) contact(c *gin.Context) {
	body, ok := crud.ReadBody(c)
	if !ok {
		return
	}

	contact, err := s.contacts.Create(c.Request.Context(), body)
	if err != nil {
		c.Error(err)
		return
	}

	if err := s.notifier.NotifyContact(c.Request.Context(), contact); err != nil {
		slog.Warn("contact notification failed", "contact_id", contact.ID, "error", err)
	}

	c.JSON(http.StatusCreated, contact)
}

// subscribe adds a newsletter subscriber. An address that unsubscribed
// earlier is reactivated; an active one is a conflict.
func (s *SiteModule) subscribe(c *gin.Context) {
	ctx := c.Request.Context()
	body, ok := crud.ReadBody(c)
	if !ok {
		return
	}

	form := &models.NewsletterForm{}
	if err := s.subscribers.Decode(body, form); err != nil {
		c.Error(err)
		return
	}
	form.IsActive = nil

	sub, err := s.subscribers.CreateForm(ctx, form)
	var appErr *common.Error
	if errors.As(err, &appErr) && appErr.Status == http.StatusConflict {
		sub, err = s.reactivate(ctx, form.Email, form.Name, appErr)
	}
	if err != nil {
		c.Error(err)
		return
	}

	if err := s.notifier.SubscribeNewsletter(ctx, sub); err != nil {
		slog.Warn("newsletter sync failed", "email", sub.Email, "error", err)
	}

	c.JSON(http.StatusCreated, sub)
}

func (s *SiteModule) reactivate(ctx context.Context, email, name string, conflict *common.Error) (*models.NewsletterSubscriber, error) {
	var sub models.NewsletterSubscriber
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&sub).Error; err != nil {
		return nil, conflict
	}
	if sub.IsActive {
		return nil, common.Conflict("email is already subscribed", conflict)
	}

	sub.IsActive = true
	if name != "" {
		sub.Name = name
	}
	if err := s.db.WithContext(ctx).Save(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

type unsubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// unsubscribe always answers 204 so it never reveals which addresses are subscribed.
func (s *SiteModule) unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(validation.BindError(err))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	result := s.db.WithContext(c.Request.Context()).
		Model(&models.NewsletterSubscriber{}).
		Where("email = ? AND is_active = ?", email, true).
		Update("is_active", false)
	if result.Error != nil {
		c.Error(result.Error)
		return
	}

	if result.RowsAffected > 0 {
		if err := s.notifier.UnsubscribeNewsletter(c.Request.Context(), email); err != nil {
			slog.Warn("newsletter unsubscribe sync failed", "email", email, "error", err)
		}
	}

	c.Status(http.StatusNoContent)
}

func (s *SiteModule) sitemap(c *gin.Context) {
	var posts []models.BlogPost
	err := s.db.WithContext(c.Request.Context()).
		Select("slug", "updated_at").
		Where("published = ?", true).
		Order("published_at DESC").
		Find(&posts).Error
	if err != nil {
		c.Error(err)
		return
	}

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	writeURL(&sitemap, s.siteURL+"/", "", "weekly", "1.0")
	writeURL(&sitemap, s.siteURL+"/projects", "", "weekly", "0.8")
	writeURL(&sitemap, s.siteURL+"/blog", "", "daily", "0.8")

	for _, post := range posts {
		writeURL(&sitemap, s.siteURL+"/blog/"+post.Slug, post.UpdatedAt.Format(time.RFC3339), "monthly", "0.6")
	}

	sitemap.WriteString("</urlset>\n")

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, sitemap.String())
}

func writeURL(b *strings.Builder, loc, lastmod, changefreq, priority string) {
	b.WriteString("  <url>\n")
	b.WriteString("    <loc>" + loc + "</loc>\n")
	if lastmod != "" {
		b.WriteString("    <lastmod>" + lastmod + "</lastmod>\n")
	}
	b.WriteString("    <changefreq>" + changefreq + "</changefreq>\n")
	b.WriteString("    <priority>" + priority + "</priority>\n")
	b.WriteString("  </url>\n")
}
