package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finchoice/backend/internal/model"
	"github.com/finchoice/backend/pkg/datetime"
)

type ProductHandler struct {
	service ProductServiceInterface
}

func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// productPayload shadows the promo cutoff so clients can send either a
// date ("2025-06-30") or a full timestamp.
type productPayload struct {
	model.Product
	PromoValidUntil *datetime.Date `json:"promoValidUntil,omitempty"`
}

func (p *productPayload) toModel() *model.Product {
	product := p.Product
	if p.PromoValidUntil != nil {
		t := p.PromoValidUntil.Time
		product.PromoValidUntil = &t
	}
	return &product
}

// List godoc
// @Summary List products
// @Description List active products of a category, optionally narrowed by rate, amount, region, promotions and banks
// @Tags products
// @Produce json
// @Param category query string true "Product category (mortgage, deposit, credit, insurance)"
// @Param region query string false "Region code"
// @Param minRate query number false "Minimum effective rate"
// @Param maxRate query number false "Maximum effective rate"
// @Param minAmount query string false "Minimum amount the product must support"
// @Param maxAmount query string false "Maximum amount the product must support"
// @Param promoOnly query bool false "Only products with an active promotion"
// @Param banks query string false "Comma-separated bank ids"
// @Success 200 {array} model.Product
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category := parseCategory(q.Get("category"))
	if category == "" {
		respondError(w, http.StatusBadRequest, "unknown or missing category")
		return
	}

	filter := model.CatalogFilter{
		Category:  category,
		Region:    q.Get("region"),
		PromoOnly: q.Get("promoOnly") == "true",
	}

	if raw := q.Get("minRate"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid minRate")
			return
		}
		filter.MinRate = &rate
	}
	if raw := q.Get("maxRate"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid maxRate")
			return
		}
		filter.MaxRate = &rate
	}
	if raw := q.Get("minAmount"); raw != "" {
		amount, err := parseDecimal(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid minAmount")
			return
		}
		filter.MinAmount = &amount
	}
	if raw := q.Get("maxAmount"); raw != "" {
		amount, err := parseDecimal(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid maxAmount")
			return
		}
		filter.MaxAmount = &amount
	}
	if raw := q.Get("banks"); raw != "" {
		ids, err := parseUUIDList(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid bank id list")
			return
		}
		filter.AllowedBanks = ids
	}

	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// Get godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} model.Product
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Featured godoc
// @Summary List featured products
// @Tags products
// @Produce json
// @Param limit query int false "Maximum entries (default 10)"
// @Success 200 {array} model.Product
// @Failure 500 {object} ErrorResponse
// @Router /products/featured [get]
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.service.Featured(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// Create godoc
// @Summary Create a product
// @Description Add a product to the catalog
// @Tags products
// @Accept json
// @Produce json
// @Param input body model.Product true "Product data"
// @Success 201 {object} model.Product
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product := payload.toModel()

	if err := h.service.Create(r.Context(), product); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// Update godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body model.Product true "Product data"
// @Success 200 {object} model.Product
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product := payload.toModel()
	product.ID = id

	if err := h.service.Update(r.Context(), product); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Deactivate godoc
// @Summary Deactivate a product
// @Description Soft-remove a product from the catalog
// @Tags products
// @Param id path string true "Product ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ListBanks godoc
// @Summary List banks
// @Tags banks
// @Produce json
// @Success 200 {array} model.Bank
// @Failure 500 {object} ErrorResponse
// @Router /banks [get]
func (h *ProductHandler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.service.Banks(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, banks)
}

// GetBank godoc
// @Summary Get a bank with its products
// @Tags banks
// @Produce json
// @Param id path string true "Bank ID"
// @Success 200 {object} BankWithProducts
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /banks/{id} [get]
func (h *ProductHandler) GetBank(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	bank, err := h.service.Bank(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "bank not found")
		return
	}
	products, err := h.service.BankProducts(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, BankWithProducts{Bank: bank, Products: products})
}

// BankWithProducts is the bank detail payload.
type BankWithProducts struct {
	Bank     *model.Bank     `json:"bank"`
	Products []model.Product `json:"products"`
}
