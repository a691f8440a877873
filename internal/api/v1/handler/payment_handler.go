package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PaymentHandler handles subscription and payment endpoints
type PaymentHandler struct {
	subscriptionService service.SubscriptionService
	validate            *validator.Validate
	logger              zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(subscriptionService service.SubscriptionService, validate *validator.Validate, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{subscriptionService: subscriptionService, validate: validate, logger: logger.With().Str("handler", "PaymentHandler").Logger()}
}

// RegisterRoutes mounts payment routes. Every route requires a session; the
// payment listing additionally requires the ADMIN role.
func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	admin := auth.RequireRoles(model.RoleAdmin)

	mux.Handle("/payments", auth.Authenticate(admin(http.HandlerFunc(h.listPayments))))
	mux.Handle("/payments/apikey", auth.Authenticate(http.HandlerFunc(h.apiKey)))
	mux.Handle("/payments/subscribe", auth.Authenticate(http.HandlerFunc(h.subscribe)))
	mux.Handle("/payments/verify", auth.Authenticate(http.HandlerFunc(h.verify)))
	mux.Handle("/payments/unsubscribe", auth.Authenticate(http.HandlerFunc(h.unsubscribe)))
	mux.Handle("/payments/payment/", auth.Authenticate(http.HandlerFunc(h.fetchPayment)))
}

func (h *PaymentHandler) apiKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "payment api key",
		"key":     h.subscriptionService.APIKey(),
	})
}

// subscribe godoc
// @Summary Purchase a subscription
// @Description Creates a recurring subscription with the payment provider and stores its id against the user.
// @Tags payments
// @Produce json
// @Success 200 {object} dto.SubscribeResponseDTO
// @Failure 400 {string} string "Subscription already exists"
// @Failure 403 {string} string "Admins cannot subscribe"
// @Router /payments/subscribe [post]
func (h *PaymentHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthenticated, please login again")
		return
	}

	subscriptionID, err := h.subscriptionService.Purchase(r.Context(), identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":         true,
		"message":         "subscribed successfully",
		"subscription_id": subscriptionID,
	})
}

// verify godoc
// @Summary Verify a subscription payment
// @Description Checks the provider's HMAC signature, records the payment and activates the subscription.
// @Tags payments
// @Accept json
// @Produce json
// @Param payment body dto.VerifyPaymentDTO true "Signed payment confirmation"
// @Success 200 {string} string "Payment verified successfully"
// @Failure 400 {string} string "Payment not verified"
// @Router /payments/verify [post]
func (h *PaymentHandler) verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthenticated, please login again")
		return
	}
	var req dto.VerifyPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "all fields are required: "+err.Error())
		return
	}

	if err := h.subscriptionService.Verify(r.Context(), identity.ID, req.PaymentID, req.Signature, req.SubscriptionID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "payment verified successfully")
}

// unsubscribe godoc
// @Summary Cancel the current subscription
// @Tags payments
// @Produce json
// @Success 200 {string} string "Subscription cancelled successfully"
// @Failure 400 {string} string "No subscription to cancel"
// @Router /payments/unsubscribe [post]
func (h *PaymentHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthenticated, please login again")
		return
	}

	if err := h.subscriptionService.Cancel(r.Context(), identity.ID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "subscription cancelled successfully")
}

func (h *PaymentHandler) fetchPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	paymentID := strings.TrimPrefix(r.URL.Path, "/payments/payment/")
	if paymentID == "" || strings.Contains(paymentID, "/") {
		http.NotFound(w, r)
		return
	}

	payment, err := h.subscriptionService.FetchPayment(r.Context(), paymentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "payment details",
		"payment": payment,
	})
}

// listPayments godoc
// @Summary List recent provider payments
// @Description Admin-only report of the provider's recent payments; count defaults to 10.
// @Tags payments
// @Produce json
// @Param count query int false "Number of payments"
// @Success 200 {array} object
// @Failure 403 {string} string "Admin only"
// @Router /payments [get]
func (h *PaymentHandler) listPayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "count must be a number")
			return
		}
		count = parsed
	}

	payments, err := h.subscriptionService.ListPayments(r.Context(), count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":  true,
		"message":  "all payments",
		"payments": payments,
	})
}
