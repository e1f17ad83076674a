package handlers

import (
	"github.com/conservetrack/conservedb/internal/services"
	"github.com/conservetrack/conservedb/internal/types"
	"github.com/conservetrack/conservedb/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StatsHandler handles bulk statistic import routes
type StatsHandler struct {
	DB *gorm.DB
}

// UpsertProtectionCoverage handles POST /api/stats/protection-coverage/:year
// @Summary Bulk upsert protection coverage statistics
// @Description Create or update protection coverage records for one year, keyed by location code and environment slug
// @Tags Stats
// @Accept json
// @Produce json
// @Param year path int true "Statistic year"
// @Param body body object true "Records to upsert"
// @Success 200 {object} utils.BulkResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /stats/protection-coverage/{year} [post]
func (h *StatsHandler) UpsertProtectionCoverage(c *fiber.Ctx) error {
	year, err := c.ParamsInt("year")
	if err != nil || year <= 0 {
		return utils.ErrorResponse(c, "Invalid year", fiber.StatusBadRequest, "stats.validation.year")
	}

	var body struct {
		Data types.FlexList[services.ProtectionCoverageInput] `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "stats.validation.input")
	}
	if len(body.Data) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "stats.validation.input")
	}

	result, err := services.UpsertProtectionCoverageStats(h.DB, year, body.Data.Slice())
	return bulkResponse(c, result, err, "upsertProtectionCoverage")
}

// UpsertHabitatCoverage handles POST /api/stats/habitat-coverage/:year
// @Summary Bulk upsert habitat coverage statistics
// @Description Create or update habitat coverage records for one year, keyed by location code, environment slug and habitat slug
// @Tags Stats
// @Accept json
// @Produce json
// @Param year path int true "Statistic year"
// @Param body body object true "Records to upsert"
// @Success 200 {object} utils.BulkResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /stats/habitat-coverage/{year} [post]
func (h *StatsHandler) UpsertHabitatCoverage(c *fiber.Ctx) error {
	year, err := c.ParamsInt("year")
	if err != nil || year <= 0 {
		return utils.ErrorResponse(c, "Invalid year", fiber.StatusBadRequest, "stats.validation.year")
	}

	var body struct {
		Data types.FlexList[services.HabitatStatInput] `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "stats.validation.input")
	}
	if len(body.Data) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "stats.validation.input")
	}

	result, err := services.UpsertHabitatStats(h.DB, year, body.Data.Slice())
	return bulkResponse(c, result, err, "upsertHabitatCoverage")
}

// UpsertMpaaProtectionLevels handles POST /api/stats/mpaa-protection-level
// @Summary Bulk upsert MPAA protection level statistics
// @Description Create or update MPAA protection level records, keyed by location code and level slug; these stats carry no year axis
// @Tags Stats
// @Accept json
// @Produce json
// @Param body body object true "Records to upsert"
// @Success 200 {object} utils.BulkResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /stats/mpaa-protection-level [post]
func (h *StatsHandler) UpsertMpaaProtectionLevels(c *fiber.Ctx) error {
	var body struct {
		Data types.FlexList[services.MpaaProtectionLevelInput] `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "stats.validation.input")
	}
	if len(body.Data) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "stats.validation.input")
	}

	result, err := services.UpsertMpaaProtectionLevelStats(h.DB, body.Data.Slice())
	return bulkResponse(c, result, err, "upsertMpaaProtectionLevels")
}

// UpsertFishingProtectionLevels handles POST /api/stats/fishing-protection-level
// @Summary Bulk upsert fishing protection level statistics
// @Description Create or update fishing protection level records, keyed by location code and level slug; these stats carry no year axis
// @Tags Stats
// @Accept json
// @Produce json
// @Param body body object true "Records to upsert"
// @Success 200 {object} utils.BulkResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /stats/fishing-protection-level [post]
func (h *StatsHandler) UpsertFishingProtectionLevels(c *fiber.Ctx) error {
	var body struct {
		Data types.FlexList[services.FishingProtectionLevelInput] `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "stats.validation.input")
	}
	if len(body.Data) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "stats.validation.input")
	}

	result, err := services.UpsertFishingProtectionLevelStats(h.DB, body.Data.Slice())
	return bulkResponse(c, result, err, "upsertFishingProtectionLevels")
}
