package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/analytics"
	"portfolio/blog"
	"portfolio/cache"
	"portfolio/common"
	"portfolio/crud"
	"portfolio/models"
	"portfolio/storage"
	"portfolio/validation"
)

type AdminModule struct {
	db           *gorm.DB
	v            *validation.Validator
	cache        *cache.ResponseCache
	uploader     *storage.Uploader
	analytics    *analytics.AnalyticsModule
	loginLimiter *common.RateLimiter
}

func NewAdminModule(db *gorm.DB, v *validation.Validator, rc *cache.ResponseCache, uploader *storage.Uploader, analyticsModule *analytics.AnalyticsModule, loginLimiter *common.RateLimiter) *AdminModule {
	return &AdminModule{
		db:           db,
		v:            v,
		cache:        rc,
		uploader:     uploader,
		analytics:    analyticsModule,
		loginLimiter: loginLimiter,
	}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	a.registerAuthRoutes(router)

	adminGroup := router.Group("/api/admin")
	adminGroup.Use(a.RequireAdmin)
	{
		adminGroup.PUT("/account/password", a.changePassword)
		adminGroup.POST("/social-profiles/:id/sync", a.syncSocialProfile)
		adminGroup.POST("/upload", a.upload)
		adminGroup.GET("/analytics", a.analyticsReport)
		adminGroup.POST("/cache/clear", a.clearCache)
	}

	a.registerResources(adminGroup)
}

func (a *AdminModule) registerResources(rg *gin.RouterGroup) {
	crud.NewHandler(crud.NewService[models.Project, models.ProjectForm](a.db, a.v, crud.Options[models.Project]{
		Name: "project", FilterParam: "category", FilterColumn: "category",
		OnChange:     a.cache.Invalidator(cache.GroupProjects),
		Files:        func(p *models.Project) []string { return []string{p.Image} },
		ReleaseFiles: a.uploader.Release,
	})).Register(rg, "/projects", crud.AllOps)

	crud.NewHandler(crud.NewService[models.Experience, models.ExperienceForm](a.db, a.v, crud.Options[models.Experience]{
		Name:     "experience",
		OnChange: a.cache.Invalidator(cache.GroupExperiences),
	})).Register(rg, "/experiences", crud.AllOps)

	crud.NewHandler(crud.NewService[models.Testimonial, models.TestimonialForm](a.db, a.v, crud.Options[models.Testimonial]{
		Name:         "testimonial",
		OnChange:     a.cache.Invalidator(cache.GroupTestimonials),
		Files:        func(t *models.Testimonial) []string { return []string{t.Avatar} },
		ReleaseFiles: a.uploader.Release,
	})).Register(rg, "/testimonials", crud.AllOps)

	crud.NewHandler(crud.NewService[models.BlogPost, models.BlogPostForm](a.db, a.v, crud.Options[models.BlogPost]{
		Name:         "post",
		BeforeDelete: blog.DeletePostDependents,
		OnChange:     a.cache.Invalidator(cache.GroupBlog),
		Files:        func(p *models.BlogPost) []string { return []string{p.CoverImage} },
		ReleaseFiles: a.uploader.Release,
	})).Register(rg, "/blog-posts", crud.AllOps)

	crud.NewHandler(crud.NewService[models.BlogComment, models.BlogCommentForm](a.db, a.v, crud.Options[models.BlogComment]{
		Name: "comment", FilterParam: "postId", FilterColumn: "post_id",
		OnChange: a.cache.Invalidator(cache.GroupBlog),
	})).Register(rg, "/blog-comments", crud.AllOps)

	crud.NewHandler(crud.NewService[models.Skill, models.SkillForm](a.db, a.v, crud.Options[models.Skill]{
		Name: "skill", FilterParam: "category", FilterColumn: "category",
		OnChange: a.cache.Invalidator(cache.GroupSkills),
	})).Register(rg, "/skills", crud.AllOps)

	crud.NewHandler(crud.NewService[models.SocialProfile, models.SocialProfileForm](a.db, a.v, crud.Options[models.SocialProfile]{
		Name: "social profile", FilterParam: "platform", FilterColumn: "platform",
		OnChange: a.cache.Invalidator(cache.GroupSocialProfiles),
	})).Register(rg, "/social-profiles", crud.AllOps)

	crud.NewHandler(crud.NewService[models.SiteContent, models.SiteContentForm](a.db, a.v, crud.Options[models.SiteContent]{
		Name: "content", FilterParam: "section", FilterColumn: "section",
		OnChange: a.cache.Invalidator(cache.GroupContent),
	})).Register(rg, "/content", crud.AllOps)

	crud.NewHandler(crud.NewService[models.Language, models.LanguageForm](a.db, a.v, crud.Options[models.Language]{
		Name:         "language",
		BeforeDelete: deleteLanguageTranslations,
		OnChange:     a.cache.Invalidator(cache.GroupLanguages, cache.GroupTranslations),
	})).Register(rg, "/languages", crud.AllOps)

	crud.NewHandler(crud.NewService[models.Translation, models.TranslationForm](a.db, a.v, crud.Options[models.Translation]{
		Name: "translation", FilterParam: "language", FilterColumn: "language_code",
		OnChange: a.cache.Invalidator(cache.GroupTranslations),
	})).Register(rg, "/translations", crud.AllOps)

	crud.NewHandler(crud.NewService[models.NewsletterSubscriber, models.NewsletterForm](a.db, a.v, crud.Options[models.NewsletterSubscriber]{
		Name: "subscriber",
	})).Register(rg, "/newsletter-subscribers", crud.OpList|crud.OpGet|crud.OpUpdate|crud.OpDelete)

	crud.NewHandler(crud.NewService[models.Contact, models.ContactForm](a.db, a.v, crud.Options[models.Contact]{
		Name: "contact",
	})).Register(rg, "/contacts", crud.OpList|crud.OpGet|crud.OpDelete)
}

func deleteLanguageTranslations(tx *gorm.DB, language *models.Language) error {
	return tx.Where("language_code = ?", language.Code).Delete(&models.Translation{}).Error
}

// syncSocialProfile marks a profile as synced. Fetching data from the
// platform itself is not implemented.
func (a *AdminModule) syncSocialProfile(c *gin.Context) {
	id, err := crud.ParseID(c.Param("id"))
	if err != nil {
		c.Error(common.NotFound("social profile"))
		return
	}

	var profile models.SocialProfile
	if err := a.db.WithContext(c.Request.Context()).First(&profile, id).Error; err != nil {
		if common.IsNotFound(err) {
			c.Error(common.NotFound("social profile"))
		} else {
			c.Error(err)
		}
		return
	}

	now := time.Now().UTC()
	profile.LastSynced = &now
	if err := a.db.WithContext(c.Request.Context()).Save(&profile).Error; err != nil {
		c.Error(err)
		return
	}
	a.cache.Invalidate(c.Request.Context(), cache.GroupSocialProfiles)

	c.JSON(http.StatusOK, profile)
}

type uploadRequest struct {
	Base64Data string `json:"base64Data" binding:"required"`
	Filename   string `json:"filename"`
}

func (a *AdminModule) upload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(validation.BindError(err))
		return
	}

	path, err := a.uploader.Upload(c.Request.Context(), req.Base64Data, req.Filename)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"filePath": path})
}

func (a *AdminModule) analyticsReport(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))

	report, err := a.analytics.BuildReport(c.Request.Context(), days)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *AdminModule) clearCache(c *gin.Context) {
	if err := a.cache.Clear(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
