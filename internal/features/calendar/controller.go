package calendar

import (
	"errors"
	"html/template"
	"strings"
	"time"

	"crm-imobiliario/internal/common/apierror"
	"crm-imobiliario/internal/features/visit"
	"crm-imobiliario/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// maxStatusWait caps the long-poll on an authorization status request
const maxStatusWait = 60 * time.Second

type CalendarController struct {
	Service CalendarService
	Logger  *zap.Logger
}

func NewCalendarController(service CalendarService, logger *zap.Logger) *CalendarController {
	return &CalendarController{Service: service, Logger: logger}
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, utils.ErrNoActor):
		return apierror.Respond(c, fiber.StatusUnauthorized, err)
	case errors.Is(err, ErrCalendarNotConfigured):
		return apierror.Respond(c, fiber.StatusServiceUnavailable, err)
	case errors.Is(err, ErrAuthorizationUnknown), errors.Is(err, visit.ErrVisitNotFound):
		return apierror.Respond(c, fiber.StatusNotFound, err)
	case errors.Is(err, ErrAuthorizationCancelled), errors.Is(err, ErrAuthorizationResolved):
		return apierror.Respond(c, fiber.StatusConflict, err)
	case errors.Is(err, ErrAuthorizationTimedOut):
		return apierror.Respond(c, fiber.StatusRequestTimeout, err)
	case errors.Is(err, ErrNotConnected):
		return apierror.Respond(c, fiber.StatusPreconditionFailed, err)
	case errors.Is(err, ErrExchangeFailed):
		return apierror.Respond(c, fiber.StatusBadGateway, err)
	}
	return apierror.Respond(c, fiber.StatusInternalServerError, err)
}

// BeginAuthorization godoc
// @Summary      Start Google Calendar authorization
// @Description  Returns the consent URL to open in a popup and the state that identifies the attempt
// @Tags         calendar
// @Produce      json
// @Success      200  {object}  AuthorizationStart
// @Router       /calendar/google/auth [post]
func (ctrl *CalendarController) BeginAuthorization(c *fiber.Ctx) error {
	start, err := ctrl.Service.BeginAuthorization(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(start)
}

// AuthorizationStatus godoc
// @Summary      Authorization attempt status
// @Description  With ?wait=30s the call blocks until the attempt resolves or the wait elapses
// @Tags         calendar
// @Produce      json
// @Param        state  path   string  true   "Authorization state"
// @Param        wait   query  string  false  "Go duration, max 60s"
// @Success      200  {object}  Flow
// @Router       /calendar/google/auth/{state} [get]
func (ctrl *CalendarController) AuthorizationStatus(c *fiber.Ctx) error {
	var wait time.Duration
	if raw := c.Query("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid wait duration"})
		}
		wait = min(d, maxStatusWait)
	}
	flow, err := ctrl.Service.AuthorizationStatus(c.UserContext(), c.Params("state"), wait)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(flow)
}

func (ctrl *CalendarController) CancelAuthorization(c *fiber.Ctx) error {
	if err := ctrl.Service.CancelAuthorization(c.UserContext(), c.Params("state")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Exchange godoc
// @Summary      Exchange the authorization code for tokens
// @Tags         calendar
// @Accept       json
// @Produce      json
// @Param        body  body  ExchangeRequest  true  "Code and state"
// @Success      200  {object}  ConnectionStatus
// @Failure      502  {object}  map[string]string
// @Router       /calendar/google/exchange [post]
func (ctrl *CalendarController) Exchange(c *fiber.Ctx) error {
	var req ExchangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	status, err := ctrl.Service.Exchange(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

func (ctrl *CalendarController) Status(c *fiber.Ctx) error {
	status, err := ctrl.Service.Status(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

func (ctrl *CalendarController) Disconnect(c *fiber.Ctx) error {
	if err := ctrl.Service.Disconnect(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ManualSync godoc
// @Summary      Push one visit to the caller's calendar
// @Tags         calendar
// @Accept       json
// @Param        body  body  SyncRequest  true  "Action and visit"
// @Success      204
// @Router       /calendar/google/sync [post]
func (ctrl *CalendarController) ManualSync(c *fiber.Ctx) error {
	var req SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ctrl.Service.ManualSync(c.UserContext(), req); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (ctrl *CalendarController) RenewChannels(c *fiber.Ctx) error {
	renewed, err := ctrl.Service.RenewChannels(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"renewed": renewed})
}

// Webhook godoc
// @Summary      Google Calendar push notification receiver
// @Description  Always acknowledges with 200 so the provider does not retry
// @Tags         calendar
// @Param        X-Goog-Channel-ID      header  string  true  "Channel id"
// @Param        X-Goog-Resource-ID     header  string  true  "Resource id"
// @Param        X-Goog-Resource-State  header  string  true  "sync | exists | not_exists"
// @Success      200
// @Router       /webhooks/google-calendar [post]
func (ctrl *CalendarController) Webhook(c *fiber.Ctx) error {
	n := Notification{
		ChannelID:     c.Get("X-Goog-Channel-ID"),
		ResourceID:    c.Get("X-Goog-Resource-ID"),
		ResourceState: c.Get("X-Goog-Resource-State"),
	}
	updated, err := ctrl.Service.HandleNotification(c.UserContext(), n)
	if err != nil {
		ctrl.Logger.Error("calendar webhook failed",
			zap.String("channel_id", n.ChannelID), zap.String("state", n.ResourceState), zap.Error(err))
		return c.JSON(fiber.Map{"received": true})
	}
	return c.JSON(fiber.Map{"received": true, "updated": updated})
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Google Calendar</title></head>
<body>
<p>{{if .Error}}Não foi possível conectar ao Google Calendar.{{else}}Conectando ao Google Calendar...{{end}}</p>
<script>
(function () {
  var msg = {{if .Error}}{type: "google-calendar-error", error: {{.Error}}, state: {{.State}}}{{else}}{type: "google-calendar-code", code: {{.Code}}, state: {{.State}}}{{end}};
  if (window.opener) {
    window.opener.postMessage(msg, {{.Origin}});
  }
  window.close();
})();
</script>
</body>
</html>`))

type callbackData struct {
	Code   string
	State  string
	Error  string
	Origin string
}

// Callback is the OAuth redirect target. It hands the code or error to the
// window that opened the popup and closes itself.
func (ctrl *CalendarController) Callback(origin string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data := callbackData{
			Code:   c.Query("code"),
			State:  c.Query("state"),
			Error:  c.Query("error"),
			Origin: origin,
		}
		if data.Error == "" && data.Code == "" {
			data.Error = "missing_code"
		}
		var sb strings.Builder
		if err := callbackPage.Execute(&sb, data); err != nil {
			return apierror.Respond(c, fiber.StatusInternalServerError, err)
		}
		c.Type("html", "utf-8")
		return c.SendString(sb.String())
	}
}
