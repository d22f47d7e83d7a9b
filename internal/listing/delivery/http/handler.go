package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/marketplace/internal/ai"
	"github.com/tair/marketplace/internal/invitation"
	"github.com/tair/marketplace/internal/listing/access"
	"github.com/tair/marketplace/internal/listing/domain"
	"github.com/tair/marketplace/internal/listing/usecase/command"
	"github.com/tair/marketplace/internal/listing/usecase/query"
	"github.com/tair/marketplace/internal/payment"
	"github.com/tair/marketplace/internal/storage"
	"github.com/tair/marketplace/kafka"
	"github.com/tair/marketplace/pkg/logger"
)

const maxUploadBytes = 10 << 20

// ListingHandler handles HTTP requests for listings
type ListingHandler struct {
	// Command handlers
	createHandler     *command.CreateListingHandler
	updateHandler     *command.UpdateListingHandler
	deleteHandler     *command.DeleteListingHandler
	markSoldHandler   *command.MarkSoldHandler
	archiveHandler    *command.ArchiveListingHandler
	recordViewHandler *command.RecordViewHandler
	shareLinkHandler  *command.GenerateShareLinkHandler
	appendActivity    *command.AppendActivityHandler

	// Query handlers
	getHandler          *query.GetListingHandler
	shareHandler        *query.GetByShareLinkHandler
	listHandler         *query.ListListingsHandler
	listByStatusHandler *query.ListByStatusHandler
	activitiesHandler   *query.ListActivitiesHandler
	statsHandler        *query.GetStatsHandler

	resolver *access.Resolver

	// Optional collaborators; nil disables the corresponding endpoint
	// or side effect.
	invitations *invitation.Gateway
	payments    *payment.Client
	aiClient    *ai.Client
	images      *storage.ImageStore
	publisher   *kafka.Publisher
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listings domain.ListingRepository, activities domain.ActivityRepository, resolver *access.Resolver) *ListingHandler {
	return &ListingHandler{
		createHandler:     command.NewCreateListingHandler(listings, activities),
		updateHandler:     command.NewUpdateListingHandler(listings),
		deleteHandler:     command.NewDeleteListingHandler(listings),
		markSoldHandler:   command.NewMarkSoldHandler(listings, activities),
		archiveHandler:    command.NewArchiveListingHandler(listings),
		recordViewHandler: command.NewRecordViewHandler(listings),
		shareLinkHandler:  command.NewGenerateShareLinkHandler(listings, activities),
		appendActivity:    command.NewAppendActivityHandler(activities),

		getHandler:          query.NewGetListingHandler(listings),
		shareHandler:        query.NewGetByShareLinkHandler(listings),
		listHandler:         query.NewListListingsHandler(listings),
		listByStatusHandler: query.NewListByStatusHandler(listings),
		activitiesHandler:   query.NewListActivitiesHandler(activities),
		statsHandler:        query.NewGetStatsHandler(listings),

		resolver: resolver,
	}
}

// NewListingHandlerWithDI creates a listing handler from pre-built
// usecase handlers, for wire-based initialization
func NewListingHandlerWithDI(
	createHandler *command.CreateListingHandler,
	updateHandler *command.UpdateListingHandler,
	deleteHandler *command.DeleteListingHandler,
	markSoldHandler *command.MarkSoldHandler,
	archiveHandler *command.ArchiveListingHandler,
	recordViewHandler *command.RecordViewHandler,
	shareLinkHandler *command.GenerateShareLinkHandler,
	appendActivity *command.AppendActivityHandler,
	getHandler *query.GetListingHandler,
	shareHandler *query.GetByShareLinkHandler,
	listHandler *query.ListListingsHandler,
	listByStatusHandler *query.ListByStatusHandler,
	activitiesHandler *query.ListActivitiesHandler,
	statsHandler *query.GetStatsHandler,
	resolver *access.Resolver,
) *ListingHandler {
	return &ListingHandler{
		createHandler:       createHandler,
		updateHandler:       updateHandler,
		deleteHandler:       deleteHandler,
		markSoldHandler:     markSoldHandler,
		archiveHandler:      archiveHandler,
		recordViewHandler:   recordViewHandler,
		shareLinkHandler:    shareLinkHandler,
		appendActivity:      appendActivity,
		getHandler:          getHandler,
		shareHandler:        shareHandler,
		listHandler:         listHandler,
		listByStatusHandler: listByStatusHandler,
		activitiesHandler:   activitiesHandler,
		statsHandler:        statsHandler,
		resolver:            resolver,
	}
}

// WithInvitations attaches the invitation gateway
func (h *ListingHandler) WithInvitations(g *invitation.Gateway) *ListingHandler {
	h.invitations = g
	return h
}

// WithPayments attaches the payment client
func (h *ListingHandler) WithPayments(c *payment.Client) *ListingHandler {
	h.payments = c
	return h
}

// WithAI attaches the description generator client
func (h *ListingHandler) WithAI(c *ai.Client) *ListingHandler {
	h.aiClient = c
	return h
}

// WithImages attaches the image store
func (h *ListingHandler) WithImages(s *storage.ImageStore) *ListingHandler {
	h.images = s
	return h
}

// WithPublisher attaches the Kafka publisher
func (h *ListingHandler) WithPublisher(p *kafka.Publisher) *ListingHandler {
	h.publisher = p
	return h
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

type listingRequest struct {
	Title                    string   `json:"title"`
	Description              string   `json:"description"`
	PriceCents               int64    `json:"price"`
	Category                 string   `json:"category"`
	Condition                string   `json:"condition"`
	Visibility               string   `json:"visibility"`
	Images                   []string `json:"images"`
	ShippingOffered          bool     `json:"shippingOffered"`
	LocalPickup              bool     `json:"localPickup"`
	InvitedEmails            []string `json:"invitedEmails"`
	AllowFacebookConnections bool     `json:"allowFacebookConnections"`
}

// CreateListing handles POST /api/listings
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	ownerID, _ := r.Context().Value(UserIDKey).(string)

	listing, err := h.createHandler.Handle(r.Context(), command.CreateListingCommand{
		OwnerID:                  ownerID,
		Title:                    req.Title,
		Description:              req.Description,
		PriceCents:               req.PriceCents,
		Category:                 domain.Category(req.Category),
		Condition:                domain.Condition(req.Condition),
		Visibility:               domain.Visibility(req.Visibility),
		Images:                   req.Images,
		ShippingOffered:          req.ShippingOffered,
		LocalPickup:              req.LocalPickup,
		InvitedEmails:            req.InvitedEmails,
		AllowFacebookConnections: req.AllowFacebookConnections,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	if h.invitations != nil && listing.Visibility == domain.VisibilityPrivate && len(listing.InvitedEmails) > 0 {
		// Delivery happens after the listing is committed and never
		// blocks or fails the response.
		go h.invitations.DispatchInvitations(context.Background(), listing)
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Listing created successfully",
		Data:    listing,
	})
}

// ListListings handles GET /api/listings
func (h *ListingHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	requester := requesterFromRequest(r)

	var (
		listings []domain.Listing
		err      error
	)

	if status := r.URL.Query().Get("status"); status != "" {
		listings, err = h.listByStatusHandler.Handle(r.Context(), query.ListByStatusQuery{
			Status: domain.ListingStatus(status),
		})
	} else {
		listings, err = h.listHandler.Handle(r.Context(), query.ListListingsQuery{
			Filter: domain.ListingFilter{
				Query:      r.URL.Query().Get("q"),
				Category:   domain.Category(r.URL.Query().Get("category")),
				Visibility: domain.Visibility(r.URL.Query().Get("visibility")),
			},
		})
	}
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	// Browse results only contain what the requester may see; denied
	// listings are silently absent rather than redacted.
	visible := make([]domain.Listing, 0, len(listings))
	for i := range listings {
		if h.resolver.CanView(r.Context(), &listings[i], requester) {
			visible = append(visible, listings[i])
		}
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    visible,
	})
}

// GetListing handles GET /api/listings/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requester := requesterFromRequest(r)

	listing, err := h.getHandler.Handle(r.Context(), query.GetListingQuery{ID: id})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	if !h.resolver.CanView(r.Context(), listing, requester) {
		// Denied reads answer exactly like missing listings.
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Listing not found",
		})
		return
	}

	if requester.UserID != listing.OwnerID {
		if err := h.recordViewHandler.Handle(r.Context(), command.RecordViewCommand{ID: id}); err != nil {
			logger.Warn(r.Context()).Err(err).Str("listing_id", id).Msg("Failed to record view")
		} else {
			listing.Views++
			listingViews.Inc()
		}
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    listing,
	})
}

// GetByShareLink handles GET /api/share/{token}
func (h *ListingHandler) GetByShareLink(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	listing, err := h.shareHandler.Handle(r.Context(), query.GetByShareLinkQuery{Token: token})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	requester := requesterFromRequest(r)
	requester.ShareToken = token
	if !h.resolver.CanView(r.Context(), listing, requester) {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Listing not found",
		})
		return
	}

	if requester.UserID != listing.OwnerID {
		if err := h.recordViewHandler.Handle(r.Context(), command.RecordViewCommand{ID: listing.ID}); err != nil {
			logger.Warn(r.Context()).Err(err).Str("listing_id", listing.ID).Msg("Failed to record view")
		} else {
			listing.Views++
			listingViews.Inc()
		}
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    listing,
	})
}

type updateListingRequest struct {
	Title                    *string   `json:"title"`
	Description              *string   `json:"description"`
	PriceCents               *int64    `json:"price"`
	Category                 *string   `json:"category"`
	Condition                *string   `json:"condition"`
	Visibility               *string   `json:"visibility"`
	Images                   *[]string `json:"images"`
	ShippingOffered          *bool     `json:"shippingOffered"`
	LocalPickup              *bool     `json:"localPickup"`
	InvitedEmails            *[]string `json:"invitedEmails"`
	AllowFacebookConnections *bool     `json:"allowFacebookConnections"`
	DeliveryMethod           *string   `json:"deliveryMethod"`
	DeliveryStatus           *string   `json:"deliveryStatus"`
	TrackingNumber           *string   `json:"trackingNumber"`
	DeliveryAddress          *string   `json:"deliveryAddress"`
	DeliveryNotes            *string   `json:"deliveryNotes"`
}

func (req *updateListingRequest) toPatch() domain.ListingPatch {
	patch := domain.ListingPatch{
		Title:                    req.Title,
		Description:              req.Description,
		PriceCents:               req.PriceCents,
		Images:                   req.Images,
		ShippingOffered:          req.ShippingOffered,
		LocalPickup:              req.LocalPickup,
		InvitedEmails:            req.InvitedEmails,
		AllowFacebookConnections: req.AllowFacebookConnections,
		DeliveryMethod:           req.DeliveryMethod,
		DeliveryStatus:           req.DeliveryStatus,
		TrackingNumber:           req.TrackingNumber,
		DeliveryAddress:          req.DeliveryAddress,
		DeliveryNotes:            req.DeliveryNotes,
	}
	if req.Category != nil {
		c := domain.Category(*req.Category)
		patch.Category = &c
	}
	if req.Condition != nil {
		c := domain.Condition(*req.Condition)
		patch.Condition = &c
	}
	if req.Visibility != nil {
		v := domain.Visibility(*req.Visibility)
		patch.Visibility = &v
	}
	return patch
}

// UpdateListing handles PUT /api/listings/{id}
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	current, ok := h.requireOwner(w, r, id)
	if !ok {
		return
	}

	var req updateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	updated, err := h.updateHandler.Handle(r.Context(), command.UpdateListingCommand{
		ID:    id,
		Patch: req.toPatch(),
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	if _, err := h.appendActivity.Handle(r.Context(), command.AppendActivityCommand{
		Type:        domain.ActivityListingEdited,
		Description: "Listing updated: " + updated.Title,
		ListingID:   updated.ID,
	}); err != nil {
		logger.Warn(r.Context()).Err(err).Str("listing_id", updated.ID).Msg("Failed to record edit activity")
	}

	if h.invitations != nil && updated.Visibility == domain.VisibilityPrivate {
		if added := newlyInvited(current.InvitedEmails, updated.InvitedEmails); len(added) > 0 {
			target := *updated
			target.InvitedEmails = added
			go h.invitations.DispatchInvitations(context.Background(), &target)
		}
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Listing updated successfully",
		Data:    updated,
	})
}

// newlyInvited returns the emails present in next but not in prev.
// Both lists are already normalized.
func newlyInvited(prev, next []string) []string {
	known := make(map[string]bool, len(prev))
	for _, e := range prev {
		known[e] = true
	}
	var added []string
	for _, e := range next {
		if !known[e] {
			added = append(added, e)
		}
	}
	return added
}

// DeleteListing handles DELETE /api/listings/{id}
func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, ok := h.requireOwner(w, r, id); !ok {
		return
	}

	deleted, err := h.deleteHandler.Handle(r.Context(), command.DeleteListingCommand{ID: id})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !deleted {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Listing not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Listing deleted successfully",
	})
}

// GenerateShareLink handles POST /api/listings/{id}/share
func (h *ListingHandler) GenerateShareLink(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, ok := h.requireOwner(w, r, id); !ok {
		return
	}

	token, err := h.shareLinkHandler.Handle(r.Context(), command.GenerateShareLinkCommand{ID: id})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]string{
			"shareLink": token,
		},
	})
}

// MarkSold handles POST /api/listings/{id}/sold
func (h *ListingHandler) MarkSold(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	listing, ok := h.requireOwner(w, r, id)
	if !ok {
		return
	}

	var req struct {
		SalePriceCents *int64 `json:"salePrice"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid request body",
			})
			return
		}
	}

	salePrice := listing.PriceCents
	if req.SalePriceCents != nil {
		salePrice = *req.SalePriceCents
	}

	sold, err := h.markSoldHandler.Handle(r.Context(), command.MarkSoldCommand{
		ID:             id,
		SalePriceCents: salePrice,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	listingSales.Inc()

	if h.publisher != nil {
		if err := h.publisher.PublishListingSold(r.Context(), kafka.ListingSoldEvent{
			ListingID:   sold.ID,
			OwnerID:     sold.OwnerID,
			AmountCents: salePrice,
		}); err != nil {
			logger.Warn(r.Context()).Err(err).Str("listing_id", sold.ID).Msg("Failed to publish sale event")
		}
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Listing marked as sold",
		Data:    sold,
	})
}

// ArchiveListing handles POST /api/listings/{id}/archive
func (h *ListingHandler) ArchiveListing(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, ok := h.requireOwner(w, r, id); !ok {
		return
	}

	archived, err := h.archiveHandler.Handle(r.Context(), command.ArchiveListingCommand{ID: id})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Listing archived",
		Data:    archived,
	})
}

// GetStats handles GET /api/stats
func (h *ListingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsHandler.Handle(r.Context(), query.GetStatsQuery{})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    stats,
	})
}

// ListActivities handles GET /api/activities
func (h *ListingHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid limit",
			})
			return
		}
		limit = parsed
	}

	activities, err := h.activitiesHandler.Handle(r.Context(), query.ListActivitiesQuery{Limit: limit})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    activities,
	})
}

// CreatePaymentIntent handles POST /api/create-payment-intent
func (h *ListingHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		respondJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Payments are not configured",
		})
		return
	}

	var req struct {
		ListingID string `json:"listingId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ListingID == "" {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	listing, err := h.getHandler.Handle(r.Context(), query.GetListingQuery{ID: req.ListingID})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	// Purchase intents pass the same visibility gate as reads.
	if !h.resolver.CanView(r.Context(), listing, requesterFromRequest(r)) {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Listing not found",
		})
		return
	}

	if listing.Status != domain.StatusActive {
		respondJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   "Listing is no longer available",
		})
		return
	}

	clientSecret, err := h.payments.CreateIntent(r.Context(), listing.PriceCents, listing.ID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]string{
			"clientSecret": clientSecret,
		},
	})
}

// GenerateDescription handles POST /api/ai/description
func (h *ListingHandler) GenerateDescription(w http.ResponseWriter, r *http.Request) {
	if h.aiClient == nil {
		respondJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Description generation is not configured",
		})
		return
	}

	var req ai.DescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}
	if req.Title == "" {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Title is required",
		})
		return
	}

	description, err := h.aiClient.GenerateDescription(r.Context(), req)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]string{
			"description": description,
		},
	})
}

// ImproveDescription handles POST /api/ai/description/improve
func (h *ListingHandler) ImproveDescription(w http.ResponseWriter, r *http.Request) {
	if h.aiClient == nil {
		respondJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Description generation is not configured",
		})
		return
	}

	var req struct {
		Text    string `json:"text"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	description, err := h.aiClient.ImproveDescription(r.Context(), req.Text, req.Context)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]string{
			"description": description,
		},
	})
}

// UploadImage handles POST /api/uploads
func (h *ListingHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		respondJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Image uploads are not configured",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid multipart form",
		})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Missing image file",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Failed to read image file",
		})
		return
	}

	url, err := h.images.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Image upload failed")
		respondJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Error:   "Failed to store image",
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Data: map[string]string{
			"url": url,
		},
	})
}

// requireOwner loads a listing and verifies the authenticated user owns
// it. Non-owners get the not-found response so ownership probes learn
// nothing.
func (h *ListingHandler) requireOwner(w http.ResponseWriter, r *http.Request, id string) (*domain.Listing, bool) {
	listing, err := h.getHandler.Handle(r.Context(), query.GetListingQuery{ID: id})
	if err != nil {
		h.respondDomainError(w, r, err)
		return nil, false
	}

	userID, _ := r.Context().Value(UserIDKey).(string)
	if userID == "" || userID != listing.OwnerID {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Listing not found",
		})
		return nil, false
	}

	return listing, true
}

func (h *ListingHandler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Listing not found",
		})
	case errors.Is(err, domain.ErrInvalidState):
		respondJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   "Listing is not in a valid state for this operation",
		})
	case domain.IsDependency(err):
		logger.Error(r.Context()).Err(err).Msg("Collaborator failure")
		respondJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Error:   "Upstream service unavailable",
		})
	default:
		logger.Error(r.Context()).Err(err).Msg("Request failed")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Internal server error",
		})
	}
}

// RegisterRoutes registers all listing routes
func (h *ListingHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/listings", metricsMiddleware("/api/listings", OptionalAuth(h.ListListings))).Methods("GET")
	router.HandleFunc("/api/listings", metricsMiddleware("/api/listings", RequireAuth(h.CreateListing))).Methods("POST")
	router.HandleFunc("/api/listings/{id}", metricsMiddleware("/api/listings/{id}", OptionalAuth(h.GetListing))).Methods("GET")
	router.HandleFunc("/api/listings/{id}", metricsMiddleware("/api/listings/{id}", RequireAuth(h.UpdateListing))).Methods("PUT")
	router.HandleFunc("/api/listings/{id}", metricsMiddleware("/api/listings/{id}", RequireAuth(h.DeleteListing))).Methods("DELETE")
	router.HandleFunc("/api/listings/{id}/share", metricsMiddleware("/api/listings/{id}/share", RequireAuth(h.GenerateShareLink))).Methods("POST")
	router.HandleFunc("/api/listings/{id}/sold", metricsMiddleware("/api/listings/{id}/sold", RequireAuth(h.MarkSold))).Methods("POST")
	router.HandleFunc("/api/listings/{id}/archive", metricsMiddleware("/api/listings/{id}/archive", RequireAuth(h.ArchiveListing))).Methods("POST")
	router.HandleFunc("/api/share/{token}", metricsMiddleware("/api/share/{token}", OptionalAuth(h.GetByShareLink))).Methods("GET")
	router.HandleFunc("/api/stats", metricsMiddleware("/api/stats", RequireAuth(h.GetStats))).Methods("GET")
	router.HandleFunc("/api/activities", metricsMiddleware("/api/activities", RequireAuth(h.ListActivities))).Methods("GET")
	router.HandleFunc("/api/create-payment-intent", metricsMiddleware("/api/create-payment-intent", OptionalAuth(h.CreatePaymentIntent))).Methods("POST")
	router.HandleFunc("/api/ai/description", metricsMiddleware("/api/ai/description", RequireAuth(h.GenerateDescription))).Methods("POST")
	router.HandleFunc("/api/ai/description/improve", metricsMiddleware("/api/ai/description/improve", RequireAuth(h.ImproveDescription))).Methods("POST")
	router.HandleFunc("/api/uploads", metricsMiddleware("/api/uploads", RequireAuth(h.UploadImage))).Methods("POST")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
