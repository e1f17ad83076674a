package handlers

import (
	"log"
	"strings"

	"github.com/conservetrack/conservedb/internal/services"
	"github.com/conservetrack/conservedb/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// parseCSVParam collects a query parameter that may appear multiple times
// and/or hold comma-separated values into a deduplicated list, preserving
// first-seen order.
func parseCSVParam(c *fiber.Ctx, name string) []string {
	seen := make(map[string]struct{})
	var values []string

	args := c.Context().QueryArgs()
	for key, value := range args.All() {
		if string(key) != name {
			continue
		}
		for _, v := range strings.Split(string(value), ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}

	return values
}

// bulkResponse maps a bulk upsert outcome to the HTTP envelope: 500 with a
// generic message when the transaction failed (detail stays in the server
// log), 400 when every record was rejected, 200 otherwise with errors null
// on full success.
func bulkResponse(c *fiber.Ctx, result services.BulkResult, err error, operation string) error {
	if err != nil {
		log.Printf("%s failed: %v", operation, err)
		return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, operation)
	}
	if result.AllFailed() {
		return utils.BulkFailureResponse(c, result.Errors)
	}
	var errs interface{}
	if len(result.Errors) > 0 {
		errs = result.Errors
	}
	return utils.BulkSuccessResponse(c, result.Created, result.Updated, errs)
}
