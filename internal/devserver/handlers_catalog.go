package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"github.com/threadlane/storefront-go/pkg/types"
	"gorm.io/gorm"
)

const defaultPageSize = 12

// productPayload is the wire shape of one catalog record.
type productPayload struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Price         decimal.Decimal    `json:"price"`
	DiscountPrice *decimal.Decimal   `json:"discountPrice,omitempty"`
	Category      string             `json:"category"`
	Gender        string             `json:"gender,omitempty"`
	Brand         string             `json:"brand"`
	Sizes         []types.SizeOption `json:"sizes"`
	Colors        []string           `json:"colors"`
	Images        []string           `json:"images"`
	TotalStock    int                `json:"totalStock"`
	AverageRating float64            `json:"averageRating"`
	TotalReviews  int                `json:"totalReviews"`
	Featured      bool               `json:"featured"`
	IsActive      bool               `json:"isActive"`
}

func (s *Server) toPayload(record productRecord) productPayload {
	avg, count := s.reviewStats(record.ID)
	return productPayload{
		ID:            record.ID,
		Name:          record.Name,
		Description:   record.Description,
		Price:         record.Price,
		DiscountPrice: record.DiscountPrice,
		Category:      record.Category,
		Gender:        record.Gender,
		Brand:         record.Brand,
		Sizes:         record.Sizes,
		Colors:        record.Colors,
		Images:        record.Images,
		TotalStock:    record.TotalStock,
		AverageRating: avg,
		TotalReviews:  count,
		Featured:      record.Featured,
		IsActive:      record.IsActive,
	}
}

func (s *Server) toPayloads(records []productRecord) []productPayload {
	payloads := make([]productPayload, len(records))
	for i, record := range records {
		payloads[i] = s.toPayload(record)
	}
	return payloads
}

func (s *Server) reviewStats(productID string) (float64, int) {
	var reviews []reviewRecord
	if err := s.db.Where("product_id = ?", productID).Find(&reviews).Error; err != nil || len(reviews) == 0 {
		return 0, 0
	}
	total := 0
	for _, review := range reviews {
		total += review.Rating
	}
	return float64(total) / float64(len(reviews)), len(reviews)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tx := s.db.Model(&productRecord{}).Where("is_active = ?", true)

	if category := q.Get("category"); category != "" {
		tx = tx.Where("category = ?", category)
	}
	if brand := q.Get("brand"); brand != "" {
		tx = tx.Where("brand = ?", brand)
	}
	if gender := q.Get("gender"); gender != "" {
		tx = tx.Where("gender = ?", gender)
	}
	if search := q.Get("search"); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if minPrice := q.Get("minPrice"); minPrice != "" {
		if value, err := decimal.NewFromString(minPrice); err == nil {
			tx = tx.Where("price >= ?", value)
		}
	}
	if maxPrice := q.Get("maxPrice"); maxPrice != "" {
		if value, err := decimal.NewFromString(maxPrice); err == nil {
			tx = tx.Where("price <= ?", value)
		}
	}

	switch q.Get("sort") {
	case "price-asc":
		tx = tx.Order("price ASC")
	case "price-desc":
		tx = tx.Order("price DESC")
	case "newest":
		tx = tx.Order("created_at DESC")
	default:
		tx = tx.Order("created_at DESC")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products"))
		return
	}

	page := 1
	if parsed, err := strconv.Atoi(q.Get("page")); err == nil && parsed > 0 {
		page = parsed
	}
	limit := defaultPageSize
	if parsed, err := strconv.Atoi(q.Get("limit")); err == nil && parsed > 0 {
		limit = parsed
	}

	var records []productRecord
	if err := tx.Offset((page - 1) * limit).Limit(limit).Find(&records).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products"))
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"products":    s.toPayloads(records),
		"totalPages":  totalPages,
		"currentPage": page,
		"total":       total,
	})
}

func (s *Server) findProduct(id string) (*productRecord, error) {
	var record productRecord
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
	}
	return &record, nil
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	record, err := s.findProduct(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"product": s.toPayload(*record)})
}

func (s *Server) handleFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	var records []productRecord
	if err := s.db.Where("featured = ? AND is_active = ?", true, true).Find(&records).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"products": s.toPayloads(records)})
}

func (s *Server) handleRelatedProducts(w http.ResponseWriter, r *http.Request) {
	record, err := s.findProduct(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	var records []productRecord
	err = s.db.
		Where("category = ? AND id <> ? AND is_active = ?", record.Category, record.ID, true).
		Limit(4).
		Find(&records).Error
	if err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list related"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"products": s.toPayloads(records)})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	var categories []string
	if err := s.db.Model(&productRecord{}).Distinct("category").Order("category").Pluck("category", &categories).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	var brands []string
	if err := s.db.Model(&productRecord{}).Distinct("brand").Order("brand").Pluck("brand", &brands).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list brands"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"brands": brands})
}
