package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"` // never exposed
	IsAdmin      bool      `gorm:"default:false" json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Contact struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Subject   string    `gorm:"not null" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SiteContent is a configurable text/image slot of a public page section.
type SiteContent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Section   string    `gorm:"not null;uniqueIndex:idx_content_section_key" json:"section"`
	Key       string    `gorm:"not null;uniqueIndex:idx_content_section_key" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"not null;default:text" json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SiteContent) TableName() string {
	return "content"
}

type Project struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string     `gorm:"not null" json:"title"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	Image        string     `gorm:"not null" json:"image"`
	Category     string     `gorm:"not null;index" json:"category"`
	Technologies StringList `gorm:"serializer:json" json:"technologies"`
	Tags         StringList `gorm:"serializer:json" json:"tags"`
	Link         string     `json:"link"`
	GithubURL    string     `json:"githubUrl"`
	Featured     bool       `gorm:"default:false" json:"featured"`
	SortOrder    int        `gorm:"default:0" json:"order"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Experience struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string     `gorm:"not null" json:"title"`
	Company      string     `gorm:"not null" json:"company"`
	Location     string     `json:"location"`
	StartDate    string     `gorm:"not null" json:"startDate"`
	EndDate      string     `json:"endDate"`
	Current      bool       `gorm:"default:false" json:"current"`
	Description  StringList `gorm:"serializer:json" json:"description"`
	Technologies StringList `gorm:"serializer:json" json:"technologies"`
	SortOrder    int        `gorm:"default:0" json:"order"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Testimonial struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Role      string    `json:"role"`
	Company   string    `json:"company"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Avatar    string    `json:"avatar"`
	Rating    int       `gorm:"default:5" json:"rating"`
	Featured  bool      `gorm:"default:false" json:"featured"`
	SortOrder int       `gorm:"default:0" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type BlogPost struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Excerpt     string     `gorm:"type:text" json:"excerpt"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	CoverImage  string     `json:"coverImage"`
	Tags        StringList `gorm:"serializer:json" json:"tags"`
	Published   bool       `gorm:"default:false;index" json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	ReadTime    int        `gorm:"default:1" json:"readTime"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type BlogComment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	Post      *BlogPost `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Approved  bool      `gorm:"default:false;index" json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Skill struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Category  string    `gorm:"not null;index" json:"category"`
	Level     int       `gorm:"default:0" json:"level"`
	Icon      string    `json:"icon"`
	SortOrder int       `gorm:"default:0" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SocialProfile struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Platform     string     `gorm:"uniqueIndex;not null" json:"platform"`
	Username     string     `gorm:"not null" json:"username"`
	ProfileURL   string     `gorm:"not null" json:"profileUrl"`
	IsConnected  bool       `gorm:"default:false" json:"isConnected"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	LastSynced   *time.Time `json:"lastSynced,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type NewsletterSubscriber struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Language struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	IsDefault bool      `gorm:"default:false" json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Translation struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LanguageCode string    `gorm:"not null;uniqueIndex:idx_translation_language_key" json:"languageCode"`
	Key          string    `gorm:"not null;uniqueIndex:idx_translation_language_key" json:"key"`
	Value        string    `gorm:"type:text" json:"value"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// All lists every table in migration order.
func All() []any {
	return []any{
		&User{},
		&Contact{},
		&SiteContent{},
		&Project{},
		&Experience{},
		&Testimonial{},
		&BlogPost{},
		&BlogComment{},
		&Skill{},
		&SocialProfile{},
		&NewsletterSubscriber{},
		&Language{},
		&Translation{},
	}
}
