package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/model"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100

	sortKeyNewest    = "newest"
	sortKeyPriceAsc  = "price_asc"
	sortKeyPriceDesc = "price_desc"
)

// CatalogHandlers serves the public property catalog.
type CatalogHandlers struct {
	database *gorm.DB
	logger   *zap.Logger
}

// NewCatalogHandlers constructs a CatalogHandlers instance.
func NewCatalogHandlers(database *gorm.DB, logger *zap.Logger) *CatalogHandlers {
	return &CatalogHandlers{database: database, logger: logger}
}

type propertyListResponse struct {
	Properties []model.Property `json:"properties"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// ListProperties returns listings filtered by query-string thresholds.
// Supported filters: search, min_price, max_price, bedrooms, bathrooms,
// parking, seller_id, sort, page, page_size.
func (h *CatalogHandlers) ListProperties(context *gin.Context) {
	query := h.database.Model(&model.Property{})

	if search := strings.TrimSpace(context.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if minPrice, ok := parsePositiveInt64(context.Query("min_price")); ok {
		query = query.Where("price >= ?", minPrice)
	}
	if maxPrice, ok := parsePositiveInt64(context.Query("max_price")); ok {
		query = query.Where("price <= ?", maxPrice)
	}
	if bedrooms, ok := parsePositiveInt(context.Query("bedrooms")); ok {
		query = query.Where("bedrooms >= ?", bedrooms)
	}
	if bathrooms, ok := parsePositiveInt(context.Query("bathrooms")); ok {
		query = query.Where("bathrooms >= ?", bathrooms)
	}
	if parking, ok := parsePositiveInt(context.Query("parking")); ok {
		query = query.Where("parking_spots >= ?", parking)
	}
	if sellerID := strings.TrimSpace(context.Query("seller_id")); sellerID != "" {
		query = query.Where("seller_id = ?", sellerID)
	}

	switch strings.TrimSpace(context.Query("sort")) {
	case sortKeyPriceAsc:
		query = query.Order("price ASC")
	case sortKeyPriceDesc:
		query = query.Order("price DESC")
	default:
		// newest first
		query = query.Order("listed_on DESC")
	}

	var total int64
	if countErr := query.Count(&total).Error; countErr != nil {
		h.logger.Warn("count_properties", zap.Error(countErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	page, pageSize := parsePagination(context)
	var properties []model.Property
	if listErr := query.Limit(pageSize).Offset((page - 1) * pageSize).Find(&properties).Error; listErr != nil {
		h.logger.Warn("list_properties", zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, propertyListResponse{
		Properties: properties,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetProperty returns one listing with its assigned seller, when any.
func (h *CatalogHandlers) GetProperty(context *gin.Context) {
	propertyID := strings.TrimSpace(context.Param("property_id"))

	var property model.Property
	if findErr := h.database.First(&property, "id = ?", propertyID).Error; findErr != nil {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownProperty})
		return
	}

	response := gin.H{"property": property}
	if property.SellerID != nil {
		var seller model.Seller
		if findErr := h.database.First(&seller, "id = ?", *property.SellerID).Error; findErr == nil {
			response["seller"] = seller
		}
	}

	context.JSON(http.StatusOK, response)
}

// ListSellers returns all registered sellers.
func (h *CatalogHandlers) ListSellers(context *gin.Context) {
	var sellers []model.Seller
	if listErr := h.database.Order("last_name ASC, first_name ASC").Find(&sellers).Error; listErr != nil {
		h.logger.Warn("list_sellers", zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}
	context.JSON(http.StatusOK, gin.H{"sellers": sellers})
}

func parsePagination(context *gin.Context) (int, int) {
	page := 1
	if parsed, ok := parsePositiveInt(context.Query("page")); ok {
		page = parsed
	}
	pageSize := defaultPageSize
	if parsed, ok := parsePositiveInt(context.Query("page_size")); ok && parsed <= maxPageSize {
		pageSize = parsed
	}
	return page, pageSize
}

func parsePositiveInt(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	parsed, parseErr := strconv.Atoi(trimmed)
	if parseErr != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}

func parsePositiveInt64(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	parsed, parseErr := strconv.ParseInt(trimmed, 10, 64)
	if parseErr != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
