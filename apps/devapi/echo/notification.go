package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/notification"
	"github.com/trezcool/masomo-console/storage/database"
)

func (s *server) registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	ng := g.Group("/"+notification.Resource, jwt)
	ng.GET("/unread-count", s.unreadCount)
	ng.POST("/:id/read", s.markRead)
}

// visibleNotifications lists the notifications aimed at the caller.
func (s *server) visibleNotifications(ctx echo.Context) ([]notification.Notification, error) {
	who, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.opts.Records.ListRecords(ctx.Request().Context(), notification.Resource)
	if err != nil {
		return nil, errors.Wrap(err, "listing notifications")
	}

	items := make([]notification.Notification, 0, len(docs))
	for _, doc := range docs {
		var n notification.Notification
		if err = fromDocument(doc, &n); err != nil {
			return nil, err
		}
		if notification.Visible(who, n) {
			items = append(items, n)
		}
	}
	return items, nil
}

func (s *server) unreadCount(ctx echo.Context) error {
	items, err := s.visibleNotifications(ctx)
	if err != nil {
		return err
	}
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": count})
}

func (s *server) markRead(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	items, err := s.visibleNotifications(ctx)
	if err != nil {
		return err
	}
	for _, n := range items {
		if n.ID != id {
			continue
		}
		if _, err = s.opts.Records.UpdateRecord(ctx.Request().Context(), notification.Resource, id, database.Document{"read": true}); err != nil {
			return errors.Wrap(err, "marking notification as read")
		}
		return ctx.JSON(http.StatusOK, echo.Map{"message": "marked as read"})
	}
	return errHttpNotFound
}
