package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/exams"
)

type CreateExamRequest struct {
	ExamType string    `json:"examType" validate:"required"`
	Name     string    `json:"name" validate:"required"`
	ExamDate time.Time `json:"examDate" validate:"required"`

	Result       string   `json:"result" validate:"omitempty,oneof=normal anormal pendiente_resultado no_concluyente"`
	Value        *string  `json:"value,omitempty"`
	NumericValue *float64 `json:"numericValue,omitempty"`
	Unit         *string  `json:"unit,omitempty"`
	Notes        *string  `json:"notes,omitempty"`

	Provider  *string `json:"provider,omitempty"`
	OrderedBy *string `json:"orderedBy,omitempty"`
}

func (h *Handler) ListPatientExams(ec echo.Context) error {
	ctx := ec.Request().Context()

	patientId, err := primitive.ObjectIDFromHex(ec.Param("id"))
	if err != nil {
		return errors.BadRequest
	}

	list, err := h.exams.ListByPatient(ctx, patientId)
	if err != nil {
		return err
	}

	dtos := make([]ExamDto, 0, len(list))
	for _, exam := range list {
		dtos = append(dtos, NewExamDto(exam))
	}
	return ec.JSON(http.StatusOK, dtos)
}

// CreatePatientExam records a performed exam and rederives the patient so
// alerts the exam satisfies move their due dates forward.
func (h *Handler) CreatePatientExam(ec echo.Context) error {
	ctx := ec.Request().Context()

	patientId, err := primitive.ObjectIDFromHex(ec.Param("id"))
	if err != nil {
		return errors.BadRequest
	}

	request := CreateExamRequest{}
	if err := ec.Bind(&request); err != nil {
		return errors.BadRequest
	}
	if err := ec.Validate(&request); err != nil {
		return err
	}

	result := exams.Result(request.Result)
	if result == "" {
		result = exams.ResultPendiente
	}

	exam, err := h.deriver.RecordExam(ctx, exams.Exam{
		PatientId: patientId,
		ExamType:  alerts.Type(request.ExamType),
		Name:      request.Name,
		ExamDate:  request.ExamDate,

		Result:       result,
		Value:        request.Value,
		NumericValue: request.NumericValue,
		Unit:         request.Unit,
		Notes:        request.Notes,

		Provider:  request.Provider,
		OrderedBy: request.OrderedBy,
	})
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusCreated, NewExamDto(exam))
}
