package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sage3280/tracker/audit"
	"github.com/sage3280/tracker/deletions"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/patients"
)

type PatientListDto struct {
	Items  []PatientDto `json:"items"`
	Total  int          `json:"total"`
	Offset int          `json:"offset"`
	Limit  int          `json:"limit"`
}

type ContactRequest struct {
	Notes *string `json:"notes,omitempty"`
}

func (h *Handler) ListPatients(ec echo.Context) error {
	ctx := ec.Request().Context()

	filter := patientFilter(ec)
	page := pagination(ec)

	list, err := h.patients.List(ctx, filter, page)
	if err != nil {
		return err
	}
	total, err := h.patients.Count(ctx, filter)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, PatientListDto{
		Items:  NewPatientDtos(list),
		Total:  total,
		Offset: page.Offset,
		Limit:  page.Limit,
	})
}

func (h *Handler) GetPatient(ec echo.Context) error {
	patient, err := h.patients.Get(ec.Request().Context(), ec.Param("id"))
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, NewPatientDto(patient))
}

func (h *Handler) CreatePatient(ec echo.Context) error {
	ctx := ec.Request().Context()

	request := PatientRequest{}
	if err := ec.Bind(&request); err != nil {
		return errors.BadRequest
	}
	if err := ec.Validate(&request); err != nil {
		return err
	}

	patient, err := h.deriver.Create(ctx, request.Patient())
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusCreated, NewPatientDto(patient))
}

func (h *Handler) UpdatePatient(ec echo.Context) error {
	ctx := ec.Request().Context()

	request := PatientRequest{}
	if err := ec.Bind(&request); err != nil {
		return errors.BadRequest
	}
	if err := ec.Validate(&request); err != nil {
		return err
	}

	patient, err := h.deriver.Update(ctx, ec.Param("id"), request.Patient())
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewPatientDto(patient))
}

func (h *Handler) DeletePatient(ec echo.Context) error {
	ctx := ec.Request().Context()
	id := ec.Param("id")

	username := h.currentUsername(ec)
	err := h.deriver.Delete(ctx, id, deletions.Metadata{
		DeletedByUserId: username,
		Reason:          queryParam(ec, "reason"),
	})
	if err != nil {
		return err
	}

	h.record(ec, audit.PatientDeleted(id, username))
	return ec.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkPatientContacted(ec echo.Context) error {
	ctx := ec.Request().Context()

	request := ContactRequest{}
	if err := ec.Bind(&request); err != nil {
		return errors.BadRequest
	}

	patient, err := h.patients.MarkContacted(ctx, ec.Param("id"), request.Notes)
	if err != nil {
		return err
	}

	h.record(ec, audit.PatientContacted(patient.Id.Hex(), h.currentUsername(ec)))
	return ec.JSON(http.StatusOK, NewPatientDto(patient))
}

// ReclassifyPatient reruns classification and rebuilds the derived control
// and alert sets for one patient without touching roster-sourced data.
func (h *Handler) ReclassifyPatient(ec echo.Context) error {
	patient, err := h.deriver.Rederive(ec.Request().Context(), ec.Param("id"))
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, NewPatientDto(patient))
}

func patientFilter(ec echo.Context) *patients.Filter {
	filter := &patients.Filter{
		Search:                queryParam(ec, "search"),
		IsPregnant:            boolQueryParam(ec, "isPregnant"),
		IsHypertensive:        boolQueryParam(ec, "isHypertensive"),
		IsDiabetic:            boolQueryParam(ec, "isDiabetic"),
		HasCardiovascularRisk: boolQueryParam(ec, "hasCardiovascularRisk"),
		IsContacted:           boolQueryParam(ec, "isContacted"),
		LastUploadId:          queryParam(ec, "uploadId"),
	}
	if value := queryParam(ec, "ageGroup"); value != nil {
		group := patients.AgeGroup(*value)
		filter.AgeGroup = &group
	}
	if value := queryParam(ec, "sex"); value != nil {
		sex := patients.Sex(*value)
		filter.Sex = &sex
	}
	if value := queryParam(ec, "attentionType"); value != nil {
		attention := patients.AttentionType(*value)
		filter.AttentionType = &attention
	}
	if value := queryParam(ec, "riskLevel"); value != nil {
		level := patients.RiskLevel(*value)
		filter.RiskLevel = &level
	}
	if include := boolQueryParam(ec, "includeInactive"); include != nil {
		filter.IncludeInactive = *include
	}
	return filter
}
