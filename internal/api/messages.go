package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teemow/inboxreply/internal/logging"
	"github.com/teemow/inboxreply/internal/store/postgres"
)

const (
	defaultMessagesLimit     = 50
	defaultRecentDraftsLimit = 5
	maxListLimit             = 100
)

func limit(c *fiber.Ctx, def int) int {
	n := c.QueryInt("limit", def)
	switch {
	case n < 1:
		return 1
	case n > maxListLimit:
		return maxListLimit
	}
	return n
}

// listMessages handles GET /messages. Without a durable store the list is empty.
func (h *handler) listMessages(c *fiber.Ctx) error {
	if h.messages == nil {
		return items[postgres.MessageRecord](c, nil)
	}
	list, err := h.messages.ListMessages(c.UserContext(), projectID(c), limit(c, defaultMessagesLimit))
	if err != nil {
		h.logger.Error("listing messages failed", logging.Operation("messages.list"), logging.Err(err))
		return serviceError(c, fiber.StatusServiceUnavailable, "Message store unavailable")
	}
	return items(c, list)
}

// dashboardStats handles GET /dashboard/stats
func (h *handler) dashboardStats(c *fiber.Ctx) error {
	if h.messages == nil {
		return c.JSON(postgres.Stats{})
	}
	stats, err := h.messages.Stats(c.UserContext(), projectID(c))
	if err != nil {
		h.logger.Error("computing stats failed", logging.Operation("dashboard.stats"), logging.Err(err))
		return serviceError(c, fiber.StatusServiceUnavailable, "Message store unavailable")
	}
	return c.JSON(stats)
}

// recentDrafts handles GET /dashboard/recent-drafts
func (h *handler) recentDrafts(c *fiber.Ctx) error {
	if h.messages == nil {
		return items[postgres.RecentDraft](c, nil)
	}
	list, err := h.messages.RecentDrafts(c.UserContext(), projectID(c), limit(c, defaultRecentDraftsLimit))
	if err != nil {
		h.logger.Error("listing recent drafts failed", logging.Operation("dashboard.recent_drafts"), logging.Err(err))
		return serviceError(c, fiber.StatusServiceUnavailable, "Message store unavailable")
	}
	return items(c, list)
}
