package models

import (
	"math"
	"strings"
	"time"
)

// Forms are the validation schemas of the admin and public write endpoints.
// Each form can be loaded from an existing row (so a partial update only has
// to carry the fields it changes) and applied back onto a row once valid.

type ProjectForm struct {
	Title        string     `json:"title" binding:"required,max=200"`
	Description  string     `json:"description" binding:"required,min=10"`
	Image        string     `json:"image" binding:"required,imageref"`
	Category     string     `json:"category" binding:"required,max=50"`
	Technologies StringList `json:"technologies" binding:"required,min=1"`
	Tags         StringList `json:"tags" binding:"required,min=1"`
	Link         string     `json:"link" binding:"omitempty,url"`
	GithubURL    string     `json:"githubUrl" binding:"omitempty,url"`
	Featured     bool       `json:"featured"`
	Order        int        `json:"order"`
}

func (f *ProjectForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Image = strings.TrimSpace(f.Image)
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	f.Link = strings.TrimSpace(f.Link)
	f.GithubURL = strings.TrimSpace(f.GithubURL)
}

func (f *ProjectForm) Load(p *Project) {
	f.Title = p.Title
	f.Description = p.Description
	f.Image = p.Image
	f.Category = p.Category
	f.Technologies = p.Technologies
	f.Tags = p.Tags
	f.Link = p.Link
	f.GithubURL = p.GithubURL
	f.Featured = p.Featured
	f.Order = p.SortOrder
}

func (f *ProjectForm) Apply(p *Project) {
	p.Title = f.Title
	p.Description = f.Description
	p.Image = f.Image
	p.Category = f.Category
	p.Technologies = f.Technologies
	p.Tags = f.Tags
	p.Link = f.Link
	p.GithubURL = f.GithubURL
	p.Featured = f.Featured
	p.SortOrder = f.Order
}

type ExperienceForm struct {
	Title        string     `json:"title" binding:"required,max=200"`
	Company      string     `json:"company" binding:"required,max=200"`
	Location     string     `json:"location" binding:"max=200"`
	StartDate    string     `json:"startDate" binding:"required,max=50"`
	EndDate      string     `json:"endDate" binding:"required_if=Current false,max=50"`
	Current      bool       `json:"current"`
	Description  StringList `json:"description" binding:"required,min=1"`
	Technologies StringList `json:"technologies"`
	Order        int        `json:"order"`
}

func (f *ExperienceForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Company = strings.TrimSpace(f.Company)
	f.Location = strings.TrimSpace(f.Location)
	f.StartDate = strings.TrimSpace(f.StartDate)
	f.EndDate = strings.TrimSpace(f.EndDate)
	if f.Current {
		f.EndDate = ""
	}
}

func (f *ExperienceForm) Load(e *Experience) {
	f.Title = e.Title
	f.Company = e.Company
	f.Location = e.Location
	f.StartDate = e.StartDate
	f.EndDate = e.EndDate
	f.Current = e.Current
	f.Description = e.Description
	f.Technologies = e.Technologies
	f.Order = e.SortOrder
}

func (f *ExperienceForm) Apply(e *Experience) {
	e.Title = f.Title
	e.Company = f.Company
	e.Location = f.Location
	e.StartDate = f.StartDate
	e.EndDate = f.EndDate
	e.Current = f.Current
	e.Description = f.Description
	e.Technologies = f.Technologies
	e.SortOrder = f.Order
}

type TestimonialForm struct {
	Name     string `json:"name" binding:"required,max=100"`
	Role     string `json:"role" binding:"max=100"`
	Company  string `json:"company" binding:"max=100"`
	Content  string `json:"content" binding:"required,min=10,max=2000"`
	Avatar   string `json:"avatar" binding:"omitempty,imageref"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Featured bool   `json:"featured"`
	Order    int    `json:"order"`
}

func (f *TestimonialForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Content = strings.TrimSpace(f.Content)
	f.Avatar = strings.TrimSpace(f.Avatar)
}

func (f *TestimonialForm) Load(t *Testimonial) {
	f.Name = t.Name
	f.Role = t.Role
	f.Company = t.Company
	f.Content = t.Content
	f.Avatar = t.Avatar
	f.Rating = t.Rating
	f.Featured = t.Featured
	f.Order = t.SortOrder
}

func (f *TestimonialForm) Apply(t *Testimonial) {
	t.Name = f.Name
	t.Role = f.Role
	t.Company = f.Company
	t.Content = f.Content
	t.Avatar = f.Avatar
	t.Rating = f.Rating
	t.Featured = f.Featured
	t.SortOrder = f.Order
}

// wordsPerMinute drives the read time estimate of blog posts.
const wordsPerMinute = 200

type BlogPostForm struct {
	Title      string     `json:"title" binding:"required,max=200"`
	Slug       string     `json:"slug" binding:"required,slug,max=200"`
	Excerpt    string     `json:"excerpt" binding:"max=500"`
	Content    string     `json:"content" binding:"required"`
	CoverImage string     `json:"coverImage" binding:"omitempty,imageref"`
	Tags       StringList `json:"tags"`
	Published  bool       `json:"published"`
}

// Normalize derives the slug from the title when none was given.
func (f *BlogPostForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.CoverImage = strings.TrimSpace(f.CoverImage)
	if f.Slug == "" {
		f.Slug = GenerateSlug(f.Title)
	}
}

func (f *BlogPostForm) Load(p *BlogPost) {
	f.Title = p.Title
	f.Slug = p.Slug
	f.Excerpt = p.Excerpt
	f.Content = p.Content
	f.CoverImage = p.CoverImage
	f.Tags = p.Tags
	f.Published = p.Published
}

func (f *BlogPostForm) Apply(p *BlogPost) {
	p.Title = f.Title
	p.Slug = f.Slug
	p.Excerpt = f.Excerpt
	p.Content = f.Content
	p.CoverImage = f.CoverImage
	p.Tags = f.Tags
	p.ReadTime = ReadTime(f.Content)

	switch {
	case f.Published && p.PublishedAt == nil:
		now := time.Now().UTC()
		p.PublishedAt = &now
	case !f.Published:
		p.PublishedAt = nil
	}
	p.Published = f.Published
}

// ReadTime estimates reading minutes for content, never less than one.
func ReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

type BlogCommentForm struct {
	PostID   uint   `json:"postId" binding:"required"`
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Content  string `json:"content" binding:"required,min=2,max=2000"`
	Approved bool   `json:"approved"`
}

func (f *BlogCommentForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Content = strings.TrimSpace(f.Content)
}

func (f *BlogCommentForm) Load(c *BlogComment) {
	f.PostID = c.PostID
	f.Name = c.Name
	f.Email = c.Email
	f.Content = c.Content
	f.Approved = c.Approved
}

func (f *BlogCommentForm) Apply(c *BlogComment) {
	c.PostID = f.PostID
	c.Name = f.Name
	c.Email = f.Email
	c.Content = f.Content
	c.Approved = f.Approved
}

type SkillForm struct {
	Name     string `json:"name" binding:"required,max=100"`
	Category string `json:"category" binding:"required,max=50"`
	Level    int    `json:"level" binding:"min=0,max=100"`
	Icon     string `json:"icon" binding:"max=200"`
	Order    int    `json:"order"`
}

func (f *SkillForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
}

func (f *SkillForm) Load(s *Skill) {
	f.Name = s.Name
	f.Category = s.Category
	f.Level = s.Level
	f.Icon = s.Icon
	f.Order = s.SortOrder
}

func (f *SkillForm) Apply(s *Skill) {
	s.Name = f.Name
	s.Category = f.Category
	s.Level = f.Level
	s.Icon = f.Icon
	s.SortOrder = f.Order
}

type SocialProfileForm struct {
	Platform     string `json:"platform" binding:"required,max=50"`
	Username     string `json:"username" binding:"required,max=100"`
	ProfileURL   string `json:"profileUrl" binding:"required,url"`
	IsConnected  bool   `json:"isConnected"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (f *SocialProfileForm) Normalize() {
	f.Platform = strings.ToLower(strings.TrimSpace(f.Platform))
	f.Username = strings.TrimSpace(f.Username)
	f.ProfileURL = strings.TrimSpace(f.ProfileURL)
}

func (f *SocialProfileForm) Load(s *SocialProfile) {
	f.Platform = s.Platform
	f.Username = s.Username
	f.ProfileURL = s.ProfileURL
	f.IsConnected = s.IsConnected
	f.AccessToken = s.AccessToken
	f.RefreshToken = s.RefreshToken
}

func (f *SocialProfileForm) Apply(s *SocialProfile) {
	s.Platform = f.Platform
	s.Username = f.Username
	s.ProfileURL = f.ProfileURL
	s.IsConnected = f.IsConnected
	s.AccessToken = f.AccessToken
	s.RefreshToken = f.RefreshToken
}

type SiteContentForm struct {
	Section string `json:"section" binding:"required,max=50"`
	Key     string `json:"key" binding:"required,max=100"`
	Value   string `json:"value"`
	Type    string `json:"type" binding:"required,oneof=text html image json url"`
}

func (f *SiteContentForm) Normalize() {
	f.Section = strings.TrimSpace(f.Section)
	f.Key = strings.TrimSpace(f.Key)
	if f.Type == "" {
		f.Type = "text"
	}
}

func (f *SiteContentForm) Load(c *SiteContent) {
	f.Section = c.Section
	f.Key = c.Key
	f.Value = c.Value
	f.Type = c.Type
}

func (f *SiteContentForm) Apply(c *SiteContent) {
	c.Section = f.Section
	c.Key = f.Key
	c.Value = f.Value
	c.Type = f.Type
}

type ContactForm struct {
	Name    string `json:"name" binding:"required,min=2,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required,min=3,max=200"`
	Message string `json:"message" binding:"required,min=10,max=5000"`
}

func (f *ContactForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
}

func (f *ContactForm) Load(c *Contact) {
	f.Name = c.Name
	f.Email = c.Email
	f.Subject = c.Subject
	f.Message = c.Message
}

func (f *ContactForm) Apply(c *Contact) {
	c.Name = f.Name
	c.Email = f.Email
	c.Subject = f.Subject
	c.Message = f.Message
}

type NewsletterForm struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"max=100"`
	IsActive *bool  `json:"isActive"`
}

func (f *NewsletterForm) Normalize() {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Name = strings.TrimSpace(f.Name)
}

func (f *NewsletterForm) Load(s *NewsletterSubscriber) {
	active := s.IsActive
	f.Email = s.Email
	f.Name = s.Name
	f.IsActive = &active
}

// Apply activates new subscribers unless told otherwise.
func (f *NewsletterForm) Apply(s *NewsletterSubscriber) {
	s.Email = f.Email
	s.Name = f.Name
	switch {
	case f.IsActive != nil:
		s.IsActive = *f.IsActive
	case s.ID == 0:
		s.IsActive = true
	}
}

type LanguageForm struct {
	Code      string `json:"code" binding:"required,bcp47_language_tag"`
	Name      string `json:"name" binding:"required,max=100"`
	IsDefault bool   `json:"isDefault"`
}

func (f *LanguageForm) Normalize() {
	f.Code = strings.TrimSpace(f.Code)
	f.Name = strings.TrimSpace(f.Name)
}

func (f *LanguageForm) Load(l *Language) {
	f.Code = l.Code
	f.Name = l.Name
	f.IsDefault = l.IsDefault
}

func (f *LanguageForm) Apply(l *Language) {
	l.Code = f.Code
	l.Name = f.Name
	l.IsDefault = f.IsDefault
}

type TranslationForm struct {
	LanguageCode string `json:"languageCode" binding:"required,max=20"`
	Key          string `json:"key" binding:"required,max=200"`
	Value        string `json:"value" binding:"required"`
}

func (f *TranslationForm) Normalize() {
	f.LanguageCode = strings.TrimSpace(f.LanguageCode)
	f.Key = strings.TrimSpace(f.Key)
}

func (f *TranslationForm) Load(t *Translation) {
	f.LanguageCode = t.LanguageCode
	f.Key = t.Key
	f.Value = t.Value
}

func (f *TranslationForm) Apply(t *Translation) {
	t.LanguageCode = f.LanguageCode
	t.Key = f.Key
	t.Value = f.Value
}
