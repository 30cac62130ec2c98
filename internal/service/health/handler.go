package health

import (
	"github.com/gofiber/fiber/v2"
)

type FiberHandler struct {
	service *Service
}

func NewFiberHandler(service *Service) *FiberHandler {
	return &FiberHandler{service: service}
}

// RegisterRoutes mounts liveness on /health, /healthz, /live and /livez and
// readiness on /ready and /readyz.
func (h *FiberHandler) RegisterRoutes(app *fiber.App) {
	for _, path := range []string{"/health", "/healthz", "/live", "/livez"} {
		app.Get(path, h.Live)
	}
	for _, path := range []string{"/ready", "/readyz"} {
		app.Get(path, h.Ready)
	}
}

func (h *FiberHandler) Live(c *fiber.Ctx) error {
	return c.JSON(h.service.Live())
}

// Ready answers 503 while any dependency is down.
func (h *FiberHandler) Ready(c *fiber.Ctx) error {
	resp := h.service.Ready(c.UserContext())
	if !resp.Ready {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(resp)
}
