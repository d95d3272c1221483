package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"inmuebles_console/internal/records"
	"inmuebles_console/internal/store"
	"inmuebles_console/pkg/config"
)

type PropertyController struct {
	listings *store.ListingStore
	orch     *records.Orchestrator
}

func NewPropertyController(listings *store.ListingStore, orch *records.Orchestrator) *PropertyController {
	return &PropertyController{listings: listings, orch: orch}
}

// ListProperties returns the live dashboard snapshot, newest first, with the
// primary image pulled out for the thumbnail column.
func (pc *PropertyController) ListProperties(c *fiber.Ctx) error {
	props := pc.listings.All()

	items := make([]fiber.Map, 0, len(props))
	for i := range props {
		items = append(items, fiber.Map{
			"property":      props[i],
			"primary_image": props[i].PrimaryImage(),
		})
	}

	return c.JSON(fiber.Map{
		"loading":    !pc.listings.Loaded(),
		"properties": items,
	})
}

// DeleteProperty removes a listing. The explicit confirm flag stands in for
// the confirmation dialog; without it nothing is deleted.
func (pc *PropertyController) DeleteProperty(c *fiber.Ctx) error {
	if c.Query("confirm") != "true" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Deletion requires confirmation",
		})
	}

	id := c.Params("id")
	if err := pc.orch.Delete(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Property not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete property",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// FormOptions returns the fixed option lists the property form offers.
func (pc *PropertyController) FormOptions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"categories": config.CategoryOptions,
		"services":   config.ServiceOptions,
	})
}
