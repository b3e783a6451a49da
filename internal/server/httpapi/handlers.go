package httpapi

import (
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/server/retention"
	"github.com/dmitrijs2005/gophvault/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

// Handlers serves the record API on top of the per-collection services.
type Handlers struct {
	registry *services.Registry
	logger   logging.Logger
}

func NewHandlers(registry *services.Registry, logger logging.Logger) *Handlers {
	return &Handlers{registry: registry, logger: logger.With("component", "handlers")}
}

func (h *Handlers) service(c *fiber.Ctx) (*services.RecordService, error) {
	return h.registry.For(c.Params("collection"))
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// List handles GET /api/v1/:collection.
func (h *Handlers) List(c *fiber.Ctx) error {
	s, err := h.service(c)
	if err != nil {
		return errorResponse(c, err)
	}
	recs, err := s.ListActive(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}

	out := make([]RecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecordResponse(r))
	}
	return c.JSON(RecordListResponse{Records: out, Total: len(out)})
}

// Create handles POST /api/v1/:collection.
func (h *Handlers) Create(c *fiber.Ctx) error {
	s, err := h.service(c)
	if err != nil {
		return errorResponse(c, err)
	}

	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	rec, task, err := s.Create(c.UserContext(), req.Label)
	if err != nil {
		return h.fail(c, err)
	}

	resp := CreateResponse{Record: toRecordResponse(*rec)}
	if task != nil {
		resp.Upload = &UploadResponse{URL: task.URL}
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Get handles GET /api/v1/:collection/:id.
func (h *Handlers) Get(c *fiber.Ctx) error {
	s, err := h.service(c)
	if err != nil {
		return errorResponse(c, err)
	}
	rec, children, err := s.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}

	resp := RecordDetailResponse{Record: toRecordResponse(*rec)}
	if children != nil {
		resp.Messages = toMessageResponses(children)
	}
	return c.JSON(resp)
}

// AddMessage handles POST /api/v1/conversations/:id/messages.
func (h *Handlers) AddMessage(c *fiber.Ctx) error {
	s, err := h.registry.For(retention.Conversations)
	if err != nil {
		return errorResponse(c, err)
	}

	var req AddMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	child, err := s.AddChild(c.UserContext(), c.Params("id"), req.Body)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(MessageResponse{ID: child.ID, Body: child.Body, CreatedAt: child.CreatedAt})
}

// ListTrash handles GET /api/v1/:collection/trash.
func (h *Handlers) ListTrash(c *fiber.Ctx) error {
	s, err := h.service(c)
	if err != nil {
		return errorResponse(c, err)
	}
	recs, err := s.ListTrashed(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}

	out := make([]TrashedRecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, TrashedRecordResponse{RecordResponse: toRecordResponse(r.Record), DaysRemaining: r.DaysRemaining})
	}
	return c.JSON(TrashListResponse{Records: out, Total: len(out)})
}

// SoftDelete handles DELETE /api/v1/:collection/:id.
func (h *Handlers) SoftDelete(c *fiber.Ctx) error {
	s, err := h.service(c)
	if err != nil {
		return errorResponse(c, err)
	}
	rec, err := s.SoftDelete(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toRecordResponse(*rec))
}

// Restore handles POST /api/v1/:collection/:id/restore.
func (h *Handlers) Restore(c *fiber.Ctx) error {
	s, err := h.service(c)
	if err != nil {
		return errorResponse(c, err)
	}
	rec, err := s.Restore(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toRecordResponse(*rec))
}

// Purge handles DELETE /api/v1/:collection/:id/permanent.
func (h *Handlers) Purge(c *fiber.Ctx) error {
	s, err := h.service(c)
	if err != nil {
		return errorResponse(c, err)
	}
	id := c.Params("id")
	if err := s.Purge(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(PurgeResponse{ID: id, Purged: true})
}

// PurgeAll handles DELETE /api/v1/:collection.
func (h *Handlers) PurgeAll(c *fiber.Ctx) error {
	s, err := h.service(c)
	if err != nil {
		return errorResponse(c, err)
	}
	n, err := s.PurgeAll(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(PurgeAllResponse{Purged: n})
}

// fail logs server-side failures before mapping err to a problem response.
// Validation and not-found outcomes are expected and not logged.
func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	resp := errorResponse(c, err)
	if c.Response().StatusCode() >= fiber.StatusInternalServerError {
		h.logger.Error(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "error", err)
	}
	return resp
}
