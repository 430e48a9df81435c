// Package exams keeps the per-patient exam history. The most recent exam
// date of each type feeds alert generation so patients are not asked to
// repeat procedures they already had.
package exams

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/errors"
)

const CollectionName = "exams"

var ErrNotFound = fmt.Errorf("exam %w", errors.NotFound)

// Result is the outcome recorded for a performed exam.
type Result string

const (
	ResultNormal        Result = "normal"
	ResultAnormal       Result = "anormal"
	ResultPendiente     Result = "pendiente_resultado"
	ResultNoConcluyente Result = "no_concluyente"
)

// Exam is a single performed procedure. Exam types share the alert type
// vocabulary so histories line up with the alerts they satisfy.
type Exam struct {
	Id        *primitive.ObjectID `bson:"_id,omitempty"`
	PatientId primitive.ObjectID  `bson:"patientId"`
	ExamType  alerts.Type         `bson:"examType"`
	Name      string              `bson:"name"`
	ExamDate  time.Time           `bson:"examDate"`

	Result       Result   `bson:"result"`
	Value        *string  `bson:"value,omitempty"`
	NumericValue *float64 `bson:"numericValue,omitempty"`
	Unit         *string  `bson:"unit,omitempty"`
	Notes        *string  `bson:"notes,omitempty"`

	Provider  *string `bson:"provider,omitempty"`
	OrderedBy *string `bson:"orderedBy,omitempty"`

	// UploadId tracks the roster upload that reported the exam, when any.
	UploadId *primitive.ObjectID `bson:"uploadId,omitempty"`

	CreatedTime time.Time `bson:"createdTime,omitempty"`
	UpdatedTime time.Time `bson:"updatedTime,omitempty"`
}

// IsRecent reports whether the exam happened within the given interval
// before the reference date.
func (e *Exam) IsRecent(intervalDays int, asOf time.Time) bool {
	return !e.ExamDate.Before(asOf.AddDate(0, 0, -intervalDays))
}
