package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sage3280/tracker/controls"
	"github.com/sage3280/tracker/errors"
)

func (h *Handler) ListControls(ec echo.Context) error {
	ctx := ec.Request().Context()

	filter := controlFilter(ec)
	list, err := h.controls.List(ctx, filter, pagination(ec))
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewControlDtos(list))
}

func (h *Handler) ListPatientControls(ec echo.Context) error {
	ctx := ec.Request().Context()

	patientId := ec.Param("id")
	if _, err := primitive.ObjectIDFromHex(patientId); err != nil {
		return errors.BadRequest
	}

	filter := controlFilter(ec)
	filter.PatientId = &patientId

	list, err := h.controls.List(ctx, filter, pagination(ec))
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewControlDtos(list))
}

func (h *Handler) UpdateControl(ec echo.Context) error {
	ctx := ec.Request().Context()

	update := controls.Update{}
	if err := ec.Bind(&update); err != nil {
		return errors.BadRequest
	}

	control, err := h.controls.Update(ctx, ec.Param("id"), update)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewControlDto(control))
}

func controlFilter(ec echo.Context) *controls.Filter {
	filter := &controls.Filter{
		PatientId: queryParam(ec, "patientId"),
	}
	if value := queryParam(ec, "type"); value != nil {
		typ := controls.Type(*value)
		filter.Type = &typ
	}
	if value := queryParam(ec, "status"); value != nil {
		status := controls.Status(*value)
		filter.Status = &status
	}
	if urgent := boolQueryParam(ec, "urgent"); urgent != nil {
		filter.UrgentOnly = *urgent
	}
	return filter
}
