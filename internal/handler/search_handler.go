// Package handler holds the Gin handlers for the HTTP surface.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"najah-search-go/internal/model"
	"najah-search-go/internal/service"
	"najah-search-go/pkg/log"
)

// SearchHandler serves the retrieval endpoints.
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search handles GET /api/v1/search.
//
// Query parameters: q (required), lang (en|ar, default en), k (default 10),
// vector (default true), lat/lon/distance for the geo filter, from/to for the
// publication date window.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter 'q'"})
		return
	}

	k, err := strconv.Atoi(c.DefaultQuery("k", "10"))
	if err != nil || k <= 0 {
		k = 10
	}

	req := service.SearchRequest{
		Query:     query,
		Language:  c.DefaultQuery("lang", model.LangEN),
		K:         k,
		UseVector: c.DefaultQuery("vector", "true") == "true",
	}

	if latStr, lonStr := c.Query("lat"), c.Query("lon"); latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat/lon parameters"})
			return
		}
		req.Geo = &service.GeoFilter{
			Center:   model.GeoCoordinates{Lat: lat, Lon: lon},
			Distance: c.DefaultQuery("distance", "100km"),
		}
	}

	if from, to := c.Query("from"), c.Query("to"); from != "" || to != "" {
		req.Date = &service.DateFilter{From: from, To: to}
	}

	results, err := h.searchService.Search(c.Request.Context(), req)
	if err != nil {
		log.Errorf("[SearchHandler] search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": results, "message": "success"})
}

// Suggest handles GET /api/v1/suggest.
func (h *SearchHandler) Suggest(c *gin.Context) {
	prefix := c.Query("q")
	size, err := strconv.Atoi(c.DefaultQuery("size", "5"))
	if err != nil || size <= 0 {
		size = 5
	}

	suggestions, err := h.searchService.Suggest(c.Request.Context(), prefix, size)
	if err != nil {
		log.Errorf("[SearchHandler] suggest failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "suggest failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": suggestions, "message": "success"})
}
