package devserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadlane/storefront-go/internal/pricing"
	"github.com/threadlane/storefront-go/pkg/enums"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"github.com/threadlane/storefront-go/pkg/types"
	"gorm.io/gorm"
)

type createOrderRequest struct {
	Lines           []newOrderLine        `json:"products"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	CouponApplied   *couponPayload        `json:"couponApplied"`
}

type newOrderLine struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type couponPayload struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// orderPayload is the wire shape of one placed order.
type orderPayload struct {
	ID                 string                `json:"id"`
	Lines              []orderLine           `json:"products"`
	ShippingAddress    types.ShippingAddress `json:"shippingAddress"`
	PaymentMethod      string                `json:"paymentMethod"`
	PaymentStatus      string                `json:"paymentStatus"`
	Subtotal           decimal.Decimal       `json:"subtotal"`
	Tax                decimal.Decimal       `json:"tax"`
	ShippingCharge     decimal.Decimal       `json:"shippingCharge"`
	Discount           decimal.Decimal       `json:"discount"`
	Total              decimal.Decimal       `json:"total"`
	Status             string                `json:"orderStatus"`
	CancellationReason string                `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
}

func toOrderPayload(record orderRecord) orderPayload {
	return orderPayload{
		ID:                 record.ID,
		Lines:              record.Lines,
		ShippingAddress:    record.ShippingAddress,
		PaymentMethod:      record.PaymentMethod,
		PaymentStatus:      record.PaymentStatus,
		Subtotal:           record.Subtotal,
		Tax:                record.Tax,
		ShippingCharge:     record.ShippingCharge,
		Discount:           record.Discount,
		Total:              record.Total,
		Status:             record.Status,
		CancellationReason: record.CancellationReason,
		CreatedAt:          record.CreatedAt,
	}
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	record, err := s.currentUser(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	var req createOrderRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if len(req.Lines) == 0 {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item"))
		return
	}
	if method := enums.PaymentMethod(req.PaymentMethod); !method.IsValid() {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
		return
	}

	// A replayed submission returns the already-placed order instead of
	// charging twice.
	if key := r.Header.Get("X-Idempotency-Key"); key != "" {
		var existing orderRecord
		err := s.db.Where("idempotency_key = ? AND user_id = ?", key, record.ID).First(&existing).Error
		if err == nil {
			s.writeJSON(w, http.StatusOK, map[string]any{
				"message": "order placed",
				"order":   toOrderPayload(existing),
			})
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup order"))
			return
		}
	}

	lines := make([]orderLine, len(req.Lines))
	priceables := make([]pricing.Priceable, len(req.Lines))
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive"))
			return
		}
		product, err := s.findProduct(line.ProductID)
		if err != nil {
			s.writeError(r.Context(), w, err)
			return
		}
		snapshot := types.ProductSnapshot{
			ID:            product.ID,
			Name:          product.Name,
			Images:        product.Images,
			Price:         product.Price,
			DiscountPrice: product.DiscountPrice,
		}
		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		lines[i] = orderLine{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     image,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
			Price:     snapshot.EffectivePrice(),
		}
		priceables[i] = pricing.Priceable{Product: snapshot, Quantity: line.Quantity}
	}

	quote := pricing.Quote(priceables)
	discount := decimal.Zero
	if req.CouponApplied != nil {
		discount = req.CouponApplied.Discount
	}

	order := orderRecord{
		ID:              uuid.NewString(),
		UserID:          record.ID,
		Lines:           lines,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   string(enums.PaymentStatusPending),
		Subtotal:        quote.Subtotal,
		Tax:             quote.Tax,
		ShippingCharge:  quote.Shipping,
		Discount:        discount,
		Total:           quote.Total.Sub(discount),
		Status:          string(enums.OrderStatusPending),
		IdempotencyKey:  r.Header.Get("X-Idempotency-Key"),
		CreatedAt:       s.now(),
	}
	if err := s.db.Create(&order).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order"))
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "order placed",
		"order":   toOrderPayload(order),
	})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var records []orderRecord
	err := s.db.
		Where("user_id = ?", userIDFrom(r.Context())).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders"))
		return
	}
	payloads := make([]orderPayload, len(records))
	for i, record := range records {
		payloads[i] = toOrderPayload(record)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"orders": payloads})
}

func (s *Server) findOrder(r *http.Request) (*orderRecord, error) {
	var record orderRecord
	err := s.db.
		Where("id = ? AND user_id = ?", chi.URLParam(r, "id"), userIDFrom(r.Context())).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup order")
	}
	return &record, nil
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	record, err := s.findOrder(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"order": toOrderPayload(*record)})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	record, err := s.findOrder(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	var req cancelOrderRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	if !enums.OrderStatus(record.Status).IsCancellable() {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeConflict, "order can no longer be cancelled"))
		return
	}

	record.Status = string(enums.OrderStatusCancelled)
	record.CancellationReason = req.Reason
	if err := s.db.Save(record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "order cancelled",
		"order":   toOrderPayload(*record),
	})
}
