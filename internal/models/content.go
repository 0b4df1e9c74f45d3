// internal/models/content.go
package models

type BlogPost struct {
	BaseModel
	Title           string `json:"title" gorm:"size:200;not null"`
	TitlePersian    string `json:"title_persian" gorm:"size:200"`
	Content         string `json:"content" gorm:"type:text;not null"`
	ContentPersian  string `json:"content_persian" gorm:"type:text"`
	Excerpt         string `json:"excerpt" gorm:"type:text"`
	ExcerptPersian  string `json:"excerpt_persian" gorm:"type:text"`
	ImageURL        string `json:"image_url" gorm:"size:500"`
	AuthorID        uint   `json:"author_id" gorm:"not null;index"`
	IsPublished     bool   `json:"is_published" gorm:"not null;index"`
	MetaTitle       string `json:"meta_title" gorm:"size:200"`
	MetaDescription string `json:"meta_description" gorm:"size:300"`
	Slug            string `json:"slug" gorm:"uniqueIndex;size:200;not null"`

	// Relationships
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

type Newsletter struct {
	BaseModel
	Email    string `json:"email" gorm:"uniqueIndex;size:120;not null"`
	IsActive bool   `json:"is_active" gorm:"not null"`
}
