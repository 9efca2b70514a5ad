//go:generate mockgen -source handler.go -destination ./mocks/mock_store.go -package mocks

package foods

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayush/food-nest/backend/internal/auth"
	"github.com/ayush/food-nest/backend/internal/logger"
	"github.com/ayush/food-nest/backend/internal/middleware"
	"github.com/ayush/food-nest/backend/internal/models"
)

// FeaturedLimit is the number of listings returned by GET /featureFoods.
const FeaturedLimit = 6

const (
	msgEmailRequired = `{"message":"email is required"}`
	msgInvalidBody   = `{"message":"invalid request body"}`
	msgUnauthorized  = `{"message":"unauthorized access"}`
)

// ListingStore defines the interface for listing persistence.
type ListingStore interface {
	ListAvailable(ctx context.Context) ([]models.Listing, error)
	ListByDonor(ctx context.Context, email string) ([]models.Listing, error)
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	Featured(ctx context.Context, limit int) ([]models.Listing, error)
	InsertListing(ctx context.Context, doc *models.Listing) (*models.InsertResult, error)
	UpdateStatus(ctx context.Context, id string, status *string) (*models.UpdateResult, error)
	UpsertListing(ctx context.Context, id string, doc *models.Listing) (*models.UpdateResult, error)
	DeleteListing(ctx context.Context, id string) (*models.DeleteResult, error)
}

// RequestStore defines the interface for food request persistence.
type RequestStore interface {
	ListRequests(ctx context.Context) ([]models.FoodRequest, error)
	ListRequestsByUser(ctx context.Context, email string) ([]models.FoodRequest, error)
	InsertRequest(ctx context.Context, doc *models.FoodRequest) (*models.InsertResult, error)
}

// Handler holds listing and request HTTP handlers.
type Handler struct {
	listings ListingStore
	requests RequestStore
	log      logger.Logger
}

func NewHandler(listings ListingStore, requests RequestStore, log logger.Logger) *Handler {
	return &Handler{listings: listings, requests: requests, log: log}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// fail reports a data-layer failure. The error is logged, not returned to
// the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.ErrorWithContext(r.Context(), op+" failed", zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// ListAvailable returns every listing whose status is "available".
func (h *Handler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	docs, err := h.listings.ListAvailable(r.Context())
	if err != nil {
		h.fail(w, r, "list available listings", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// GetListing returns one listing by id. When none matches the response is
// 200 with an empty body.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	doc, err := h.listings.GetListing(r.Context(), middleware.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get listing", err)
		return
	}
	if doc == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Featured returns the listings with the largest quantities.
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	docs, err := h.listings.Featured(r.Context(), FeaturedLimit)
	if err != nil {
		h.fail(w, r, "featured listings", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// ListByDonor returns the listings donated by {email}.
func (h *Handler) ListByDonor(w http.ResponseWriter, r *http.Request) {
	email := middleware.URLParam(r, "email")
	if email == "" {
		writeMessage(w, http.StatusBadRequest, msgEmailRequired)
		return
	}
	docs, err := h.listings.ListByDonor(r.Context(), email)
	if err != nil {
		h.fail(w, r, "list listings by donor", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// CreateListing stores a new listing owned by the authenticated caller.
// Any user_email in the body is replaced with the verified email.
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var doc models.Listing
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	doc.UserEmail = claims.Email

	res, err := h.listings.InsertListing(r.Context(), &doc)
	if err != nil {
		h.fail(w, r, "insert listing", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UpdateStatus sets the status field of a listing.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body models.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.listings.UpdateStatus(r.Context(), middleware.URLParam(r, "id"), body.Status)
	if err != nil {
		h.fail(w, r, "update listing status", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ReplaceListing writes the body onto the listing at {id}, creating it
// when it does not exist.
func (h *Handler) ReplaceListing(w http.ResponseWriter, r *http.Request) {
	var doc models.Listing
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.listings.UpsertListing(r.Context(), middleware.URLParam(r, "id"), &doc)
	if err != nil {
		h.fail(w, r, "upsert listing", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteListing removes a listing.
func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	res, err := h.listings.DeleteListing(r.Context(), middleware.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "delete listing", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListRequests returns every food request.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	docs, err := h.requests.ListRequests(r.Context())
	if err != nil {
		h.fail(w, r, "list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// ListRequestsByUser returns the requests made by {email}.
func (h *Handler) ListRequestsByUser(w http.ResponseWriter, r *http.Request) {
	email := middleware.URLParam(r, "email")
	if email == "" {
		writeMessage(w, http.StatusBadRequest, msgEmailRequired)
		return
	}
	docs, err := h.requests.ListRequestsByUser(r.Context(), email)
	if err != nil {
		h.fail(w, r, "list requests by user", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// CreateRequest stores the body as a new food request.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var doc models.FoodRequest
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.requests.InsertRequest(r.Context(), &doc)
	if err != nil {
		h.fail(w, r, "insert request", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
