package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sage3280/tracker/audit"
)

func (h *Handler) ListAuditEntries(ec echo.Context) error {
	ctx := ec.Request().Context()

	filter := &audit.Filter{
		Username: queryParam(ec, "username"),
	}
	if value := queryParam(ec, "action"); value != nil {
		action := audit.Action(*value)
		filter.Action = &action
	}
	if value := queryParam(ec, "category"); value != nil {
		category := audit.Category(*value)
		filter.Category = &category
	}
	if value := queryParam(ec, "from"); value != nil {
		if from, err := time.Parse(time.RFC3339, *value); err == nil {
			filter.From = &from
		}
	}
	if value := queryParam(ec, "to"); value != nil {
		if to, err := time.Parse(time.RFC3339, *value); err == nil {
			filter.To = &to
		}
	}

	list, err := h.audit.List(ctx, filter, pagination(ec))
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, list)
}
