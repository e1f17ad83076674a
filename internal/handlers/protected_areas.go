package handlers

import (
	"log"
	"time"

	"github.com/conservetrack/conservedb/internal/services"
	"github.com/conservetrack/conservedb/internal/types"
	"github.com/conservetrack/conservedb/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ProtectedAreasHandler handles protected area import routes
type ProtectedAreasHandler struct {
	DB *gorm.DB
}

// Upsert handles POST /api/pas
// @Summary Bulk upsert protected areas
// @Description Create or update protected areas by wdpaid/zone natural keys, including parent/children relations that may resolve within the batch
// @Tags ProtectedAreas
// @Accept json
// @Produce json
// @Param body body object true "Protected areas to upsert"
// @Success 200 {object} utils.BulkResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /pas [post]
func (h *ProtectedAreasHandler) Upsert(c *fiber.Ctx) error {
	var body struct {
		Data types.FlexList[services.ProtectedAreaInput] `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "pas.validation.input")
	}
	if len(body.Data) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "pas.validation.input")
	}

	result, err := services.UpsertProtectedAreas(h.DB, body.Data.Slice())
	return bulkResponse(c, result, err, "upsertProtectedAreas")
}

// Patch handles PATCH /api/pas
// @Summary Batch delete protected areas
// @Description Delete protected areas by id; the only accepted method is DELETE
// @Tags ProtectedAreas
// @Accept json
// @Produce json
// @Param body body object true "Method and ids"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /pas [patch]
func (h *ProtectedAreasHandler) Patch(c *fiber.Ctx) error {
	var body struct {
		Data struct {
			Method string                       `json:"method"`
			IDs    types.FlexList[types.FlexUint64] `json:"ids"`
		} `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "pas.validation.input")
	}
	if body.Data.Method != "DELETE" {
		return utils.ErrorResponse(c, "Unsupported method", fiber.StatusBadRequest, "pas.validation.method")
	}
	if len(body.Data.IDs) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "pas.validation.input")
	}

	ids := make([]uint64, 0, len(body.Data.IDs))
	for _, id := range body.Data.IDs {
		ids = append(ids, id.Uint64())
	}

	deleted, failed, err := services.DeleteProtectedAreas(h.DB, ids)
	if err != nil {
		log.Printf("deleteProtectedAreas failed: %v", err)
		return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, "deleteProtectedAreas")
	}

	if deleted == nil {
		deleted = []uint64{}
	}
	if failed == nil {
		failed = []uint64{}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":   "Success",
		"ok":        true,
		"deleted":   deleted,
		"failed":    failed,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
