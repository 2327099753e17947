// Incident HTTP handlers.
//
// Read-only endpoints over the incident log written by the error pipeline:
//   - GET /incidents        (list, paginated, optional ?code= filter)
//   - GET /incidents/stats  (counts per envelope code, optional ?since=RFC3339)
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/fault"
)

// ListIncidentsResponse wraps a page of incidents and pagination information.
type ListIncidentsResponse struct {
	Incidents  []domain.Incident `json:"incidents"`
	Pagination Pagination        `json:"pagination"`
}

// IncidentStatsResponse holds per-code incident counts.
type IncidentStatsResponse struct {
	Since  *time.Time         `json:"since,omitempty"`
	Counts []domain.CodeCount `json:"counts"`
}

// ListIncidents godoc
// @ID          listIncidents
// @Summary     List recorded incidents
// @Description Returns intercepted errors, newest first.
// @Tags        Incidents
// @Produce     json
//
// @Param       code       query  string  false "Filter by envelope code"  example(NOT_FOUND)
// @Param       page       query  int     false "Page number"              minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"           minimum(1) maximum(100) default(20)
//
// @Success     200  {object} domain.Body{data=handlers.ListIncidentsResponse}
// @Failure     422  {object} domain.Body "Invalid code filter"
// @Router      /incidents [get]
func (h *Handlers) ListIncidents(c *gin.Context) (any, error) {
	page, pageSize := clampPagination(c)
	items, total, err := h.incidents.ListPage(c.Request.Context(), c.Query("code"), page, pageSize)
	if err != nil {
		return nil, err
	}
	return ListIncidentsResponse{
		Incidents:  items,
		Pagination: newPagination(page, pageSize, total),
	}, nil
}

// IncidentStats godoc
// @ID          incidentStats
// @Summary     Incident counts per code
// @Tags        Incidents
// @Produce     json
//
// @Param       since  query  string  false "Only count incidents at or after this time (RFC3339)"  example(2024-01-01T00:00:00Z)
//
// @Success     200  {object} domain.Body{data=handlers.IncidentStatsResponse}
// @Failure     400  {object} domain.Body "Malformed since"
// @Router      /incidents/stats [get]
func (h *Handlers) IncidentStats(c *gin.Context) (any, error) {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fault.Wrap(fault.CategoryBadRequest, err, "since must be an RFC3339 timestamp")
		}
		since = &t
	}
	counts, err := h.incidents.CountsByCode(c.Request.Context(), since)
	if err != nil {
		return nil, err
	}
	return IncidentStatsResponse{Since: since, Counts: counts}, nil
}
