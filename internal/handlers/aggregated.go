package handlers

import (
	"errors"
	"log"

	"github.com/conservetrack/conservedb/internal/services"
	"github.com/conservetrack/conservedb/internal/types"
	"github.com/conservetrack/conservedb/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AggregatedStatsHandler handles the rollup read route
type AggregatedStatsHandler struct {
	DB *gorm.DB
}

// Get handles GET /api/aggregated-stats
// @Summary Aggregate statistics across locations
// @Description Sum stored statistics across a set of location codes, grouped by year and category, with coverage recomputed from the summed areas
// @Tags Stats
// @Accept json
// @Produce json
// @Param locations query string true "Comma-separated location codes"
// @Param stats query string false "Stats category filter"
// @Param environment query string false "Environment slug filter"
// @Param year query int false "Year filter"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /aggregated-stats [get]
func (h *AggregatedStatsHandler) Get(c *fiber.Ctx) error {
	locations := parseCSVParam(c, "locations")
	if len(locations) == 0 {
		return utils.ErrorResponse(c, "At least one location is required", fiber.StatusBadRequest, "aggregated.validation.locations")
	}

	statsFilter := c.Query("stats")
	environment := c.Query("environment")
	year := c.QueryInt("year", 0)

	result, err := services.AggregateStats(h.DB, locations, statsFilter, environment, year)
	if err != nil {
		var ce *types.CustomError
		if errors.As(err, &ce) {
			return utils.ErrorResponse(c, ce.Message, ce.Code, ce.Type)
		}
		log.Printf("aggregateStats failed: %v", err)
		return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, "aggregateStats")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": result,
	})
}
