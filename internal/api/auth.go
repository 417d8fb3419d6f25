package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/teemow/inboxreply/internal/google"
	"github.com/teemow/inboxreply/internal/logging"
)

const oauthNotConfigured = "OAuth credentials not configured"

// authStart handles GET /auth/google
func (h *handler) authStart(c *fiber.Ctx) error {
	if h.oauth == nil {
		return serviceError(c, fiber.StatusInternalServerError, oauthNotConfigured)
	}
	url, state := h.oauth.AuthURL(projectID(c), c.Query("redirect_to", c.Query("redirectTo")))
	return c.JSON(fiber.Map{"authorization_url": url, "state": state})
}

// authCallback handles GET /auth/callback: exchanges the code, stores the
// credential and sends the browser back to the web app.
func (h *handler) authCallback(c *fiber.Ctx) error {
	if oauthErr := c.Query("error"); oauthErr != "" {
		return validationError(c, "OAuth error: "+oauthErr)
	}
	code := c.Query("code")
	if code == "" {
		return validationError(c, "code is required")
	}
	if h.oauth == nil {
		return serviceError(c, fiber.StatusInternalServerError, oauthNotConfigured)
	}

	project, redirectTo := google.ParseState(c.Query("state"))
	log := h.logger.With(logging.Operation("auth.callback"), logging.Project(project))

	tok, err := h.oauth.Exchange(c.UserContext(), code)
	if err != nil {
		log.Warn("token exchange failed", logging.Err(err))
		return validationError(c, "Token exchange failed")
	}

	rec := google.RecordFromToken(project, tok)
	if h.tokens != nil {
		if err := h.tokens.Upsert(c.UserContext(), rec); err != nil {
			log.Error("storing credential failed", logging.Err(err))
			return serviceError(c, fiber.StatusInternalServerError, "Failed to store credential")
		}
	} else {
		log.Warn("no credential store configured, token discarded")
	}
	log.Info("gmail connected", "scopes", strings.Join(rec.Scopes, " "))

	return c.Redirect(h.callbackTarget(redirectTo), fiber.StatusFound)
}

// callbackTarget honors redirectTo only when it points at an allowed origin.
func (h *handler) callbackTarget(redirectTo string) string {
	if redirectTo != "" {
		for _, origin := range append([]string{h.webAppURL}, h.origins...) {
			if origin != "" && (redirectTo == origin || strings.HasPrefix(redirectTo, origin+"/") || strings.HasPrefix(redirectTo, origin+"?")) {
				return redirectTo
			}
		}
	}
	base := h.webAppURL
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + "/playground?connected=true"
}

// authStatus handles GET /auth/status
func (h *handler) authStatus(c *fiber.Ctx) error {
	project := projectID(c)
	resp := fiber.Map{
		"project_id": project,
		"connected":  false,
		"expired":    false,
		"scopes":     []string{},
		"expires_at": nil,
	}
	if h.credentials == nil {
		return c.JSON(resp)
	}

	st, err := h.credentials.Status(c.UserContext(), project)
	if err != nil {
		h.logger.Error("credential status failed", logging.Operation("auth.status"), logging.Project(project), logging.Err(err))
		return serviceError(c, fiber.StatusServiceUnavailable, "Credential store unavailable")
	}
	resp["connected"] = st.Connected
	resp["expired"] = st.Expired
	if st.Scopes != nil {
		resp["scopes"] = st.Scopes
	}
	if st.ExpiresAt != nil {
		resp["expires_at"] = st.ExpiresAt.UTC()
	}
	return c.JSON(resp)
}
