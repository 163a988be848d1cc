package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/model"
)

const (
	errorValueUnknownBlogPost     = "unknown_blog_post"
	errorValueUnknownBlogCategory = "unknown_blog_category"

	dateRangeLastWeek  = "last_week"
	dateRangeLastMonth = "last_month"
	dateRangeLastYear  = "last_year"

	blogSortRecent   = "recent"
	blogSortOldest   = "oldest"
	blogSortTitle    = "title"
	blogSortReadTime = "read_time"
)

func blogDateRangeCutoff(keyword string, now time.Time) (time.Time, bool) {
	switch keyword {
	case dateRangeLastWeek:
		return now.AddDate(0, 0, -7), true
	case dateRangeLastMonth:
		return now.AddDate(0, -1, 0), true
	case dateRangeLastYear:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

func blogSortOrder(key string) string {
	switch key {
	case blogSortOldest:
		return "published_at ASC"
	case blogSortTitle:
		return "title ASC"
	case blogSortReadTime:
		return "read_time_minutes ASC"
	case blogSortRecent:
		return "published_at DESC"
	default:
		return "published_at DESC"
	}
}

// BlogHandlers serves the public blog.
type BlogHandlers struct {
	database *gorm.DB
	logger   *zap.Logger
}

// NewBlogHandlers constructs a BlogHandlers instance.
func NewBlogHandlers(database *gorm.DB, logger *zap.Logger) *BlogHandlers {
	return &BlogHandlers{database: database, logger: logger}
}

type blogPostListResponse struct {
	Posts    []model.BlogPost `json:"posts"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// ListPosts returns published posts, optionally filtered by search text,
// category slug and the featured flag.
func (h *BlogHandlers) ListPosts(context *gin.Context) {
	query := h.database.Model(&model.BlogPost{}).Where("status = ?", model.BlogPostStatusPublished)

	if search := strings.TrimSpace(context.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(body) LIKE ?", pattern, pattern)
	}
	if categorySlug := strings.TrimSpace(context.Query("category")); categorySlug != "" {
		var category model.BlogCategory
		if findErr := h.database.First(&category, "slug = ?", categorySlug).Error; findErr != nil {
			context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownBlogCategory})
			return
		}
		query = query.Where("category_id = ?", category.ID)
	}
	if featured := strings.TrimSpace(context.Query("featured")); featured == "true" {
		query = query.Where("featured = ?", true)
	}
	if rangeKeyword := strings.TrimSpace(context.Query("date_range")); rangeKeyword != "" {
		if cutoff, known := blogDateRangeCutoff(rangeKeyword, time.Now()); known {
			query = query.Where("published_at >= ?", cutoff)
		}
	}

	query = query.Order(blogSortOrder(strings.TrimSpace(context.Query("sort"))))

	var total int64
	if countErr := query.Count(&total).Error; countErr != nil {
		h.logger.Warn("count_blog_posts", zap.Error(countErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	page, pageSize := parsePagination(context)
	var posts []model.BlogPost
	if listErr := query.Limit(pageSize).Offset((page - 1) * pageSize).Find(&posts).Error; listErr != nil {
		h.logger.Warn("list_blog_posts", zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, blogPostListResponse{Posts: posts, Total: total, Page: page, PageSize: pageSize})
}

// GetPost returns one published post by slug.
func (h *BlogHandlers) GetPost(context *gin.Context) {
	slug := strings.TrimSpace(context.Param("slug"))

	var post model.BlogPost
	if findErr := h.database.First(&post, "slug = ?", slug).Error; findErr != nil || !post.IsPublished() {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownBlogPost})
		return
	}

	response := gin.H{"post": post}
	if post.CategoryID != nil {
		var category model.BlogCategory
		if findErr := h.database.First(&category, "id = ?", *post.CategoryID).Error; findErr == nil {
			response["category"] = category
		}
	}

	context.JSON(http.StatusOK, response)
}

// ListCategories returns every blog category.
func (h *BlogHandlers) ListCategories(context *gin.Context) {
	var categories []model.BlogCategory
	if listErr := h.database.Order("name ASC").Find(&categories).Error; listErr != nil {
		h.logger.Warn("list_blog_categories", zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}
	context.JSON(http.StatusOK, gin.H{"categories": categories})
}
