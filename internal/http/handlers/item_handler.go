// Item HTTP handlers.
//
// This file exposes REST endpoints for the item resource:
//   - POST   /items        (create)
//   - GET    /items        (list, paginated, ETag support)
//   - GET    /items/{id}   (read)
//   - PATCH  /items/{id}   (update description)
//   - DELETE /items/{id}   (delete)
//   - GET    /items/export (plain-text listing, written without an envelope)
//
// Handlers are transport-thin: they decode input, call application services
// and return values or errors. The Responder renders both.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/utils"
)

//
// Service contracts (context-aware)
//

// ItemService defines item operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ItemService interface {
	Create(ctx context.Context, name, description string) (*domain.Item, error)
	Get(ctx context.Context, id string) (*domain.Item, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Item, int64, error)
	UpdateDescription(ctx context.Context, id, description string) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
	// Stats returns the live count and latest update time (ETag input).
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// IncidentService defines the read side of the incident log.
type IncidentService interface {
	ListPage(ctx context.Context, code string, page, pageSize int) ([]domain.Incident, int64, error)
	CountsByCode(ctx context.Context, since *time.Time) ([]domain.CodeCount, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for items and incidents.
type Handlers struct {
	items     ItemService
	incidents IncidentService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(items ItemService, incidents IncidentService) *Handlers {
	return &Handlers{items: items, incidents: incidents}
}

//
// DTOs
//

// CreateItemRequest is the JSON payload for creating an item.
type CreateItemRequest struct {
	Name        string `json:"name" binding:"required,max=128" example:"widget"`
	Description string `json:"description" binding:"max=2000" example:"A small blue widget"`
}

// UpdateItemRequest is the JSON payload for updating an item.
type UpdateItemRequest struct {
	Description string `json:"description" binding:"max=2000" example:"Now in red"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListItemsResponse wraps a page of items and pagination information.
type ListItemsResponse struct {
	Items      []domain.Item `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses page and page_size query params and bounds them
// with utils.Window, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	pageSize = utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	page, pageSize, _ = utils.Window(page, pageSize)
	return
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.PageCount(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// CreateItem godoc
// @ID          createItem
// @Summary     Create an item
// @Description Creates an item. Names are unique.
// @Tags        Items
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateItemRequest  true  "Create item payload"
//
// @Success     201  {object}  domain.Body{data=domain.Item}
// @Failure     400  {object}  domain.Body  "Malformed body"
// @Failure     409  {object}  domain.Body  "Duplicate name"
// @Failure     422  {object}  domain.Body  "Validation failed"
// @Failure     500  {object}  domain.Body  "Internal error"
// @Router      /items [post]
func (h *Handlers) CreateItem(c *gin.Context) (any, error) {
	var req CreateItemRequest
	if err := bindJSON(c, &req); err != nil {
		return nil, err
	}
	it, err := h.items.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	c.Header("Location", fmt.Sprintf("%s/%s", strings.TrimSuffix(c.Request.URL.Path, "/"), it.ID))
	c.Status(http.StatusCreated)
	return it, nil
}

// ListItems godoc
// @ID          listItems
// @Summary     List items (paginated)
// @Description Returns a page of items, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Items
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} domain.Body{data=handlers.ListItemsResponse}
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} domain.Body "Internal error"
// @Router      /items [get]
func (h *Handlers) ListItems(c *gin.Context) (any, error) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.items.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"items:%d:%d:%d:%d"`, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return nil, nil
		}
	}

	items, total, err := h.items.ListPage(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return ListItemsResponse{
		Items:      items,
		Pagination: newPagination(page, pageSize, total),
	}, nil
}

// GetItem godoc
// @ID          getItem
// @Summary     Get an item
// @Tags        Items
// @Produce     json
//
// @Param       id  path  string  true  "Item ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Body{data=domain.Item}
// @Failure     400  {object} domain.Body "Malformed ID"
// @Failure     404  {object} domain.Body "Item not found"
// @Router      /items/{id} [get]
func (h *Handlers) GetItem(c *gin.Context) (any, error) {
	id, err := pathUUID(c, "id")
	if err != nil {
		return nil, err
	}
	return h.items.Get(c.Request.Context(), id)
}

// UpdateItem godoc
// @ID          updateItem
// @Summary     Update an item's description
// @Tags        Items
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                      true  "Item ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateItemRequest  true  "New description"
//
// @Success     200  {object} domain.Body{data=domain.Item}
// @Failure     400  {object} domain.Body "Malformed request"
// @Failure     404  {object} domain.Body "Item not found"
// @Failure     422  {object} domain.Body "Validation failed"
// @Router      /items/{id} [patch]
func (h *Handlers) UpdateItem(c *gin.Context) (any, error) {
	id, err := pathUUID(c, "id")
	if err != nil {
		return nil, err
	}
	var req UpdateItemRequest
	if err := bindJSON(c, &req); err != nil {
		return nil, err
	}
	return h.items.UpdateDescription(c.Request.Context(), id, req.Description)
}

// DeleteItem godoc
// @ID          deleteItem
// @Summary     Delete an item
// @Tags        Items
//
// @Param       id  path  string  true  "Item ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} domain.Body "Malformed ID"
// @Failure     404  {object} domain.Body "Item not found"
// @Router      /items/{id} [delete]
func (h *Handlers) DeleteItem(c *gin.Context) (any, error) {
	id, err := pathUUID(c, "id")
	if err != nil {
		return nil, err
	}
	if err := h.items.Delete(c.Request.Context(), id); err != nil {
		return nil, err
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}

// ExportItems godoc
// @ID          exportItems
// @Summary     Export items as text
// @Description One "id<TAB>name" line per item on the first page (max 100). The body is plain text, not an envelope.
// @Tags        Items
// @Produce     plain
//
// @Success     200  {string} string "Item lines"
// @Failure     500  {object} domain.Body "Internal error"
// @Router      /items/export [get]
func (h *Handlers) ExportItems(c *gin.Context) (any, error) {
	items, _, err := h.items.ListPage(c.Request.Context(), 1, 100)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString(it.ID)
		b.WriteByte('\t')
		b.WriteString(it.Name)
		b.WriteByte('\n')
	}
	c.Header("Content-Type", "text/plain; charset=utf-8")
	return []byte(b.String()), nil
}
