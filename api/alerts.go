package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/errors"
)

func (h *Handler) ListAlerts(ec echo.Context) error {
	ctx := ec.Request().Context()

	filter := alertFilter(ec)
	list, err := h.alerts.List(ctx, filter, pagination(ec))
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewAlertDtos(list))
}

func (h *Handler) ListPatientAlerts(ec echo.Context) error {
	ctx := ec.Request().Context()

	patientId := ec.Param("id")
	if _, err := primitive.ObjectIDFromHex(patientId); err != nil {
		return errors.BadRequest
	}

	filter := alertFilter(ec)
	filter.PatientId = &patientId

	list, err := h.alerts.List(ctx, filter, pagination(ec))
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewAlertDtos(list))
}

func (h *Handler) UpdateAlert(ec echo.Context) error {
	ctx := ec.Request().Context()

	update := alerts.Update{}
	if err := ec.Bind(&update); err != nil {
		return errors.BadRequest
	}

	alert, err := h.alerts.Update(ctx, ec.Param("id"), update)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewAlertDto(alert))
}

func (h *Handler) DismissAlert(ec echo.Context) error {
	alert, err := h.alerts.Dismiss(ec.Request().Context(), ec.Param("id"))
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, NewAlertDto(alert))
}

func alertFilter(ec echo.Context) *alerts.Filter {
	filter := &alerts.Filter{
		PatientId: queryParam(ec, "patientId"),
	}
	if value := queryParam(ec, "type"); value != nil {
		typ := alerts.Type(*value)
		filter.Type = &typ
	}
	if value := queryParam(ec, "priority"); value != nil {
		priority := alerts.Priority(*value)
		filter.Priority = &priority
	}
	if value := queryParam(ec, "status"); value != nil {
		status := alerts.Status(*value)
		filter.Status = &status
	}
	if value := queryParam(ec, "dueBefore"); value != nil {
		if dueBefore, err := time.Parse(time.RFC3339, *value); err == nil {
			filter.DueBefore = &dueBefore
		} else if dueBefore, err := time.Parse("2006-01-02", *value); err == nil {
			filter.DueBefore = &dueBefore
		}
	}
	return filter
}
