package handlers

import (
	"github.com/conservetrack/conservedb/internal/services"
	"github.com/conservetrack/conservedb/internal/types"
	"github.com/conservetrack/conservedb/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LocationsHandler handles the location reference import route
type LocationsHandler struct {
	DB *gorm.DB
}

// Upsert handles POST /api/locations
// @Summary Bulk upsert locations
// @Description Create or update locations by code, including group membership wiring
// @Tags Locations
// @Accept json
// @Produce json
// @Param body body object true "Locations to upsert"
// @Success 200 {object} utils.BulkResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /locations [post]
func (h *LocationsHandler) Upsert(c *fiber.Ctx) error {
	var body struct {
		Data types.FlexList[services.LocationInput] `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "locations.validation.input")
	}
	if len(body.Data) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "locations.validation.input")
	}

	result, err := services.UpsertLocations(h.DB, body.Data.Slice())
	return bulkResponse(c, result, err, "upsertLocations")
}
