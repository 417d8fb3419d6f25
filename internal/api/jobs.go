package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/teemow/inboxreply/internal/gmail"
	"github.com/teemow/inboxreply/internal/jobs"
	"github.com/teemow/inboxreply/internal/logging"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SendRequest is the body of POST /messages/send.
type SendRequest struct {
	ProjectID string `json:"projectId"`
	ThreadID  string `json:"threadId" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

// run handles POST /agent/run
func (h *handler) run(c *fiber.Ctx) error {
	var req jobs.RunRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return validationError(c, "Invalid request body")
		}
	}

	id, err := h.jobs.Run(c.UserContext(), req)
	if err != nil {
		var rerr *jobs.RequestError
		if errors.As(err, &rerr) {
			return validationError(c, rerr.Detail)
		}
		h.logger.Error("job store unavailable", logging.Operation("agent.run"), logging.Err(err))
		return serviceError(c, fiber.StatusServiceUnavailable, "Job store unavailable")
	}
	return c.JSON(fiber.Map{"jobId": id})
}

// getJob handles GET /jobs/:id
func (h *handler) getJob(c *fiber.Ctx) error {
	job, err := h.jobs.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		return notFound(c, "Job not found")
	}
	if err != nil {
		h.logger.Error("job lookup failed", logging.Operation("jobs.get"), logging.Err(err))
		return serviceError(c, fiber.StatusServiceUnavailable, "Job store unavailable")
	}
	return c.JSON(job)
}

// listThreads handles GET /threads
func (h *handler) listThreads(c *fiber.Ctx) error {
	maxResults := c.QueryInt("maxResults", gmail.DefaultMaxResults)
	return items(c, h.jobs.ListThreads(c.UserContext(), projectID(c), maxResults))
}

// sendMessage handles POST /messages/send
func (h *handler) sendMessage(c *fiber.Ctx) error {
	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, formatValidationErrors(err))
	}
	if req.ProjectID == "" {
		req.ProjectID = jobs.DefaultProjectID
	}

	sent, err := h.jobs.SendReply(c.UserContext(), req.ProjectID, req.ThreadID, req.Text)
	switch {
	case err == nil:
		return c.JSON(sent)
	case errors.Is(err, jobs.ErrInvalidRequest):
		return validationError(c, err.Error())
	case errors.Is(err, jobs.ErrUnauthenticated):
		return unauthorized(c, "Gmail is not connected for this project")
	default:
		h.logger.Warn("send failed", logging.Operation("messages.send"), logging.Thread(req.ThreadID), logging.Err(err))
		return upstreamError(c, "Failed to send message")
	}
}

// formatValidationErrors names the first failing field the way clients
// send it.
func formatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		switch field {
		case "ThreadID":
			field = "threadId"
		case "Text":
			field = "text"
		}
		return field + " is " + verrs[0].Tag()
	}
	return err.Error()
}
