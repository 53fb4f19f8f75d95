package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/arnavk09/campusswap/internal/api/middleware"
	"github.com/arnavk09/campusswap/internal/catalog"
	"github.com/arnavk09/campusswap/internal/models"
	"github.com/arnavk09/campusswap/internal/utils"
)

// maxListingUpload bounds one multipart create request.
const maxListingUpload = 25 << 20 // 25 MB

// ItemCatalog is the catalog service surface the item routes need.
type ItemCatalog interface {
	List(ctx context.Context, f catalog.Filter) ([]models.Item, catalog.Pagination, error)
	ListBySeller(ctx context.Context, sellerUID string, f catalog.Filter) ([]models.Item, catalog.Pagination, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Similar(ctx context.Context, id uuid.UUID) ([]models.Item, error)
	Create(ctx context.Context, sellerUID string, input catalog.CreateItemInput) (*models.Item, error)
	Update(ctx context.Context, sellerUID string, id uuid.UUID, input catalog.UpdateItemInput) (*models.Item, error)
	Delete(ctx context.Context, sellerUID string, id uuid.UUID) error
}

// ItemsHandler serves the listing feed and seller listing management.
type ItemsHandler struct {
	Catalog ItemCatalog
}

func NewItemsHandler(c ItemCatalog) *ItemsHandler {
	return &ItemsHandler{Catalog: c}
}

// GET /api/items
// ListItems godoc
// @Summary List available items
// @Description Filtered, sorted, paginated feed of available listings.
// @Tags Items
// @Produce json
// @Param search query string false "Substring match on title or description"
// @Param category query string false "Exact category"
// @Param minPrice query number false "Inclusive lower price bound"
// @Param maxPrice query number false "Inclusive upper price bound"
// @Param condition query string false "Exact condition"
// @Param tags query string false "Comma-separated tags, any overlap"
// @Param sortBy query string false "recent | price_low | price_high | popular"
// @Param page query int false "Page number (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} utils.Payload
// @Router /api/items [get]
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ParseFilter(r.URL.Query())

	items, pagination, err := h.Catalog.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data: map[string]any{
			"items":      items,
			"pagination": pagination,
		},
	})
}

// GET /api/items/my
func (h *ItemsHandler) My(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ParseFilter(r.URL.Query())

	items, pagination, err := h.Catalog.ListBySeller(r.Context(), middleware.CallerUID(r), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data: map[string]any{
			"items":      items,
			"pagination": pagination,
		},
	})
}

// GET /api/items/{id}
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data:    map[string]any{"item": item},
	})
}

// GET /api/items/{id}/similar
// SimilarItems godoc
// @Summary List similar items
// @Description Up to 8 other available items in the same category, newest first.
// @Tags Items
// @Produce json
// @Param id path string true "Item id"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/items/{id}/similar [get]
func (h *ItemsHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	items, err := h.Catalog.Similar(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data:    map[string]any{"items": items},
	})
}

// POST /api/items
// CreateItem godoc
// @Summary Create a listing
// @Description Multipart form: title, price, category, condition, description, tags and 1-5 images.
// @Tags Items
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/items [post]
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxListingUpload); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid upload form",
		})
		return
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid price",
		})
		return
	}

	input := catalog.CreateItemInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		Condition:   r.FormValue("condition"),
		Tags:        catalog.NormalizeTags(r.FormValue("tags")),
	}

	for _, header := range r.MultipartForm.File["images"] {
		src, err := header.Open()
		if err != nil {
			utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
				Success: false,
				Message: "Unreadable image upload",
			})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
				Success: false,
				Message: "Unreadable image upload",
			})
			return
		}
		input.Images = append(input.Images, catalog.ImageUpload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	item, err := h.Catalog.Create(r.Context(), middleware.CallerUID(r), input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Item created",
		Data:    map[string]any{"item": item},
	})
}

// PUT /api/items/{id}
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var input struct {
		Title       *string   `json:"title"`
		Description *string   `json:"description"`
		Price       *float64  `json:"price"`
		Category    *string   `json:"category"`
		Condition   *string   `json:"condition"`
		Tags        *[]string `json:"tags"`
		IsAvailable *bool     `json:"isAvailable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	item, err := h.Catalog.Update(r.Context(), middleware.CallerUID(r), id, catalog.UpdateItemInput{
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Condition:   input.Condition,
		Tags:        input.Tags,
		IsAvailable: input.IsAvailable,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Item updated",
		Data:    map[string]any{"item": item},
	})
}

// DELETE /api/items/{id}
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Catalog.Delete(r.Context(), middleware.CallerUID(r), id); err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Item deleted",
	})
}

// writeError maps catalog errors to response statuses. Ownership
// failures surface as not-found so foreign listings are not confirmed
// to exist.
func (h *ItemsHandler) writeError(w http.ResponseWriter, err error) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: verr.Reason,
		})
	case errors.Is(err, catalog.ErrItemNotFound), errors.Is(err, catalog.ErrNotSeller):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "Item not found",
		})
	case errors.Is(err, catalog.ErrUserNotFound):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "User not found",
		})
	default:
		log.Printf("items: %v", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Something went wrong",
		})
	}
}

// pathUUID parses a uuid path segment, answering 400 on garbage.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid id",
		})
		return uuid.Nil, false
	}
	return id, true
}
