package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	BlogPostStatusDraft     = "draft"
	BlogPostStatusPublished = "published"
	BlogPostStatusArchived  = "archived"

	blogCategoryNameMaxLength = 100
	blogPostTitleMaxLength    = 200
	blogPostSlugMaxLength     = 200
	blogPostSummaryMaxLength  = 300
	blogPostMetaDescriptionMaxLength = 160
	blogPostMetaKeywordsMaxLength    = 200

	defaultBlogAuthorName      = "Admin"
	readTimeWordsPerMinute     = 200
	minimumReadTimeMinutes     = 1
)

var (
	ErrInvalidBlogCategoryName = errors.New("invalid_blog_category_name")
	ErrInvalidBlogPostTitle    = errors.New("invalid_blog_post_title")
	ErrInvalidBlogPostBody     = errors.New("invalid_blog_post_body")
	ErrInvalidBlogPostStatus   = errors.New("invalid_blog_post_status")
)

var (
	htmlTagExpression       = regexp.MustCompile(`<[^>]+>`)
	slugInvalidRuneExpression = regexp.MustCompile(`[^a-z0-9]+`)
)

// BlogCategory groups blog posts.
type BlogCategory struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Name        string    `gorm:"not null;size:100;uniqueIndex"`
	Slug        string    `gorm:"not null;size:100;uniqueIndex"`
	Description string    `gorm:"size:1000"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// BlogCategoryInput holds the raw values used to construct a BlogCategory.
type BlogCategoryInput struct {
	Name        string
	Slug        string
	Description string
}

// NewBlogCategory constructs a BlogCategory, deriving the slug from the name when absent.
func NewBlogCategory(input BlogCategoryInput) (BlogCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > blogCategoryNameMaxLength {
		return BlogCategory{}, fmt.Errorf("%w: empty or too long", ErrInvalidBlogCategoryName)
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return BlogCategory{}, fmt.Errorf("%w: unusable slug", ErrInvalidBlogCategoryName)
	}

	return BlogCategory{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
	}, nil
}

// BlogPost is a blog article. Publication state gates public visibility.
type BlogPost struct {
	ID              string  `gorm:"primaryKey;size:36"`
	Title           string  `gorm:"not null;size:200"`
	Slug            string  `gorm:"not null;size:200;uniqueIndex"`
	Body            string  `gorm:"not null"`
	Summary         string  `gorm:"size:300"`
	Author          string  `gorm:"not null;size:100"`
	CategoryID      *string `gorm:"size:36;index"`
	Status          string  `gorm:"not null;size:20;index"`
	Featured        bool    `gorm:"not null;index"`
	ReadTimeMinutes int     `gorm:"not null"`
	MetaDescription string  `gorm:"size:160"`
	MetaKeywords    string  `gorm:"size:200"`
	PublishedAt     time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// BlogPostInput holds the raw values used to construct a BlogPost.
type BlogPostInput struct {
	Title           string
	Slug            string
	Body            string
	Summary         string
	Author          string
	CategoryID      string
	Status          string
	Featured        bool
	MetaDescription string
	MetaKeywords    string
	PublishedAt     time.Time
}

// NewBlogPost constructs a BlogPost, deriving slug, summary, read time and SEO
// metadata when they are not supplied.
func NewBlogPost(input BlogPostInput) (BlogPost, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || len(title) > blogPostTitleMaxLength {
		return BlogPost{}, fmt.Errorf("%w: empty or too long", ErrInvalidBlogPostTitle)
	}

	body := strings.TrimSpace(input.Body)
	if body == "" {
		return BlogPost{}, fmt.Errorf("%w: empty", ErrInvalidBlogPostBody)
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = BlogPostStatusDraft
	}
	if validateErr := ValidateBlogPostStatus(status); validateErr != nil {
		return BlogPost{}, validateErr
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" || len(slug) > blogPostSlugMaxLength {
		return BlogPost{}, fmt.Errorf("%w: unusable slug", ErrInvalidBlogPostTitle)
	}

	summary := strings.TrimSpace(input.Summary)
	if summary == "" {
		summary = DeriveSummary(body, blogPostSummaryMaxLength)
	}

	metaDescription := strings.TrimSpace(input.MetaDescription)
	if metaDescription == "" {
		metaDescription = DeriveSummary(summary, blogPostMetaDescriptionMaxLength)
	}

	author := strings.TrimSpace(input.Author)
	if author == "" {
		author = defaultBlogAuthorName
	}

	publishedAt := input.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	var categoryID *string
	trimmedCategoryID := strings.TrimSpace(input.CategoryID)
	if trimmedCategoryID != "" {
		categoryID = &trimmedCategoryID
	}

	return BlogPost{
		ID:              uuid.NewString(),
		Title:           title,
		Slug:            slug,
		Body:            body,
		Summary:         summary,
		Author:          author,
		CategoryID:      categoryID,
		Status:          status,
		Featured:        input.Featured,
		ReadTimeMinutes: EstimateReadTimeMinutes(body),
		MetaDescription: metaDescription,
		MetaKeywords:    strings.TrimSpace(input.MetaKeywords),
		PublishedAt:     publishedAt,
	}, nil
}

// IsPublished reports whether the post is publicly visible.
func (post BlogPost) IsPublished() bool {
	return post.Status == BlogPostStatusPublished
}

// ValidateBlogPostStatus rejects statuses outside the closed enumeration.
func ValidateBlogPostStatus(status string) error {
	switch status {
	case BlogPostStatusDraft, BlogPostStatusPublished, BlogPostStatusArchived:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidBlogPostStatus, status)
	}
}

// Slugify lowers a title to a URL-safe hyphenated slug.
func Slugify(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	replaced := slugInvalidRuneExpression.ReplaceAllString(lowered, "-")
	return strings.Trim(replaced, "-")
}

// DeriveSummary strips markup from the body and truncates it to maxLength
// runes, appending an ellipsis when content was cut. Cutting on rune
// boundaries keeps multi-byte text valid.
func DeriveSummary(body string, maxLength int) string {
	plain := strings.TrimSpace(htmlTagExpression.ReplaceAllString(body, ""))
	runes := []rune(plain)
	if len(runes) <= maxLength {
		return plain
	}
	return string(runes[:maxLength-3]) + "..."
}

// EstimateReadTimeMinutes estimates reading time from the word count of the body.
func EstimateReadTimeMinutes(body string) int {
	words := len(strings.Fields(htmlTagExpression.ReplaceAllString(body, " ")))
	minutes := (words + readTimeWordsPerMinute - 1) / readTimeWordsPerMinute
	if minutes < minimumReadTimeMinutes {
		return minimumReadTimeMinutes
	}
	return minutes
}
