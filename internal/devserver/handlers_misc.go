package devserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadlane/storefront-go/pkg/enums"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"gorm.io/gorm"
)

// reviewPayload is the wire shape of one review.
type reviewPayload struct {
	ID        string         `json:"id"`
	User      map[string]any `json:"user"`
	ProductID string         `json:"product"`
	Rating    int            `json:"rating"`
	Comment   string         `json:"comment"`
	Helpful   []string       `json:"helpful"`
	Verified  bool           `json:"verified"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toReviewPayload(record reviewRecord) reviewPayload {
	helpful := record.Helpful
	if helpful == nil {
		helpful = []string{}
	}
	return reviewPayload{
		ID:        record.ID,
		User:      map[string]any{"id": record.UserID, "name": record.UserName},
		ProductID: record.ProductID,
		Rating:    record.Rating,
		Comment:   record.Comment,
		Helpful:   helpful,
		Verified:  record.Verified,
		CreatedAt: record.CreatedAt,
	}
}

func (s *Server) handleProductReviews(w http.ResponseWriter, r *http.Request) {
	var records []reviewRecord
	err := s.db.
		Where("product_id = ?", chi.URLParam(r, "id")).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews"))
		return
	}

	payloads := make([]reviewPayload, len(records))
	totalRating := 0
	for i, record := range records {
		payloads[i] = toReviewPayload(record)
		totalRating += record.Rating
	}
	average := 0.0
	if len(records) > 0 {
		average = float64(totalRating) / float64(len(records))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"reviews":       payloads,
		"totalReviews":  len(records),
		"averageRating": average,
	})
}

type reviewRequest struct {
	ProductID string `json:"product"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	account, err := s.currentUser(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	var req reviewRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5"))
		return
	}
	if _, err := s.findProduct(req.ProductID); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	// Verified means the reviewer actually bought the product here.
	var purchases int64
	s.db.Model(&orderRecord{}).
		Where("user_id = ? AND lines LIKE ?", account.ID, "%"+req.ProductID+"%").
		Count(&purchases)

	record := reviewRecord{
		ID:        uuid.NewString(),
		UserID:    account.ID,
		UserName:  account.Name,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Helpful:   []string{},
		Verified:  purchases > 0,
		CreatedAt: s.now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review"))
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "review submitted",
		"review":  toReviewPayload(record),
	})
}

func (s *Server) findOwnReview(r *http.Request) (*reviewRecord, error) {
	var record reviewRecord
	err := s.db.
		Where("id = ? AND user_id = ?", chi.URLParam(r, "id"), userIDFrom(r.Context())).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup review")
	}
	return &record, nil
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	record, err := s.findOwnReview(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	var req reviewRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5"))
		return
	}

	record.Rating = req.Rating
	record.Comment = req.Comment
	if err := s.db.Save(record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update review"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "review updated",
		"review":  toReviewPayload(*record),
	})
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	record, err := s.findOwnReview(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if err := s.db.Delete(record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete review"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
}

func (s *Server) handleMarkHelpful(w http.ResponseWriter, r *http.Request) {
	var record reviewRecord
	err := s.db.First(&record, "id = ?", chi.URLParam(r, "id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeNotFound, "review not found"))
			return
		}
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup review"))
		return
	}

	voter := userIDFrom(r.Context())
	for _, id := range record.Helpful {
		if id == voter {
			s.writeJSON(w, http.StatusOK, map[string]string{"message": "already marked helpful"})
			return
		}
	}
	record.Helpful = append(record.Helpful, voter)
	if err := s.db.Save(&record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update review"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "marked helpful"})
}

// Flash sales are derived from the seeded catalog rather than stored: every
// featured product with a discount is on sale for the rest of the day.
type salePayload struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Products  []saleProductEntry `json:"products"`
	StartTime time.Time          `json:"startTime"`
	EndTime   time.Time          `json:"endTime"`
	IsActive  bool               `json:"isActive"`
	Priority  int                `json:"priority"`
}

type saleProductEntry struct {
	ProductID          string          `json:"product"`
	OriginalPrice      decimal.Decimal `json:"originalPrice"`
	FlashPrice         decimal.Decimal `json:"flashPrice"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	StockLimit         int             `json:"stockLimit"`
	SoldCount          int             `json:"soldCount"`
	IsActive           bool            `json:"isActive"`
}

const dailySaleID = "daily-deals"

func (s *Server) dailySale() (*salePayload, error) {
	var records []productRecord
	err := s.db.
		Where("featured = ? AND discount_price IS NOT NULL", true).
		Find(&records).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sale products")
	}
	if len(records) == 0 {
		return nil, nil
	}

	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	entries := make([]saleProductEntry, len(records))
	for i, record := range records {
		flash := *record.DiscountPrice
		percent := decimal.Zero
		if record.Price.IsPositive() {
			percent = record.Price.Sub(flash).Div(record.Price).Mul(decimal.NewFromInt(100)).Round(0)
		}
		entries[i] = saleProductEntry{
			ProductID:          record.ID,
			OriginalPrice:      record.Price,
			FlashPrice:         flash,
			DiscountPercentage: percent,
			StockLimit:         record.TotalStock,
			IsActive:           true,
		}
	}
	return &salePayload{
		ID:        dailySaleID,
		Name:      "Daily Deals",
		Products:  entries,
		StartTime: start,
		EndTime:   start.Add(24 * time.Hour),
		IsActive:  true,
		Priority:  1,
	}, nil
}

func (s *Server) handleActiveFlashSales(w http.ResponseWriter, r *http.Request) {
	sale, err := s.dailySale()
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	sales := []salePayload{}
	if sale != nil {
		sales = append(sales, *sale)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"data": sales})
}

func (s *Server) handleUpcomingFlashSales(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"data": []salePayload{}})
}

func (s *Server) handleGetFlashSale(w http.ResponseWriter, r *http.Request) {
	sale, err := s.dailySale()
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if sale == nil || chi.URLParam(r, "id") != sale.ID {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeNotFound, "flash sale not found"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"data": sale})
}

func (s *Server) handleFlashSalePrice(w http.ResponseWriter, r *http.Request) {
	sale, err := s.dailySale()
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	productID := chi.URLParam(r, "id")
	if sale != nil {
		for _, entry := range sale.Products {
			if entry.ProductID == productID {
				s.writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
					"product":    productID,
					"flashPrice": entry.FlashPrice,
					"saleId":     sale.ID,
					"endsAt":     sale.EndTime,
				}})
				return
			}
		}
	}
	s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeNotFound, "product is not on sale"))
}

type subscribeRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

func (s *Server) handleNewsletterSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "email is required"))
		return
	}

	record := subscriberRecord{
		Email:           req.Email,
		Name:            req.Name,
		Source:          req.Source,
		IsActive:        true,
		NewArrivals:     true,
		Sales:           true,
		Recommendations: true,
		CreatedAt:       s.now(),
	}
	if err := s.db.Save(&record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save subscriber"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "subscribed to newsletter"})
}

func (s *Server) handleNewsletterUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	result := s.db.Model(&subscriberRecord{}).Where("email = ?", email).Update("is_active", false)
	if result.Error != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "update subscriber"))
		return
	}
	if result.RowsAffected == 0 {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeNotFound, "subscriber not found"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "unsubscribed from newsletter"})
}

type preferencesRequest struct {
	Email       string `json:"email"`
	Preferences struct {
		NewArrivals     bool `json:"newArrivals"`
		Sales           bool `json:"sales"`
		Recommendations bool `json:"recommendations"`
	} `json:"preferences"`
}

func (s *Server) handleNewsletterPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	result := s.db.Model(&subscriberRecord{}).Where("email = ?", email).Updates(map[string]any{
		"new_arrivals":    req.Preferences.NewArrivals,
		"sales":           req.Preferences.Sales,
		"recommendations": req.Preferences.Recommendations,
	})
	if result.Error != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "update subscriber"))
		return
	}
	if result.RowsAffected == 0 {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeNotFound, "subscriber not found"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "preferences updated"})
}

type createReturnRequest struct {
	OrderID    string       `json:"order"`
	Items      []returnItem `json:"items"`
	ReturnType string       `json:"returnType"`
}

// returnPayload is the wire shape of one return request.
type returnPayload struct {
	ID         string       `json:"id"`
	OrderID    string       `json:"order"`
	Items      []returnItem `json:"items"`
	ReturnType string       `json:"returnType"`
	Status     string       `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
}

func toReturnPayload(record returnRecord) returnPayload {
	return returnPayload{
		ID:         record.ID,
		OrderID:    record.OrderID,
		Items:      record.Items,
		ReturnType: record.ReturnType,
		Status:     record.Status,
		CreatedAt:  record.CreatedAt,
	}
}

func (s *Server) handleCreateReturn(w http.ResponseWriter, r *http.Request) {
	var req createReturnRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if len(req.Items) == 0 {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "return must contain at least one item"))
		return
	}
	if !enums.ReturnType(req.ReturnType).IsValid() {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "invalid return type"))
		return
	}

	userID := userIDFrom(r.Context())
	var order orderRecord
	err := s.db.Where("id = ? AND user_id = ?", req.OrderID, userID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup order"))
		return
	}
	if order.Status != string(enums.OrderStatusDelivered) {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeConflict, "only delivered orders can be returned"))
		return
	}

	record := returnRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		OrderID:    req.OrderID,
		Items:      req.Items,
		ReturnType: req.ReturnType,
		Status:     "requested",
		CreatedAt:  s.now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create return"))
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "return requested",
		"return":  toReturnPayload(record),
	})
}

func (s *Server) handleListReturns(w http.ResponseWriter, r *http.Request) {
	var records []returnRecord
	err := s.db.
		Where("user_id = ?", userIDFrom(r.Context())).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list returns"))
		return
	}
	payloads := make([]returnPayload, len(records))
	for i, record := range records {
		payloads[i] = toReturnPayload(record)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"returns": payloads})
}

func (s *Server) handleGetReturn(w http.ResponseWriter, r *http.Request) {
	var record returnRecord
	err := s.db.
		Where("id = ? AND user_id = ?", chi.URLParam(r, "id"), userIDFrom(r.Context())).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeNotFound, "return not found"))
			return
		}
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup return"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"return": toReturnPayload(record)})
}
