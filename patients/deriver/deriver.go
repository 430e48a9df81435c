// Package deriver orchestrates classification. Every patient write flows
// through it so the stored record, its controls and its alerts never drift
// apart: the patient is classified, persisted, and both derived sets are
// replaced in a single transaction.
package deriver

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/classification"
	"github.com/sage3280/tracker/controls"
	"github.com/sage3280/tracker/deletions"
	"github.com/sage3280/tracker/exams"
	"github.com/sage3280/tracker/patients"
	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/store"
)

const reclassifyPageSize = 100

//go:generate mockgen --build_flags=--mod=mod -source=./deriver.go -destination=./test/mock_deriver.go -package test MockDeriver
type Deriver interface {
	Create(ctx context.Context, patient patients.Patient) (*patients.Patient, error)
	Update(ctx context.Context, id string, patient patients.Patient) (*patients.Patient, error)
	// Upsert creates or refreshes the patient matching the document number
	// and reports whether a new record was created. Roster ingestion feeds
	// every parsed row through it.
	Upsert(ctx context.Context, patient patients.Patient) (*patients.Patient, bool, error)
	// Rederive refreshes the derived fields and sets of a single patient
	// without changing the roster-sourced data.
	Rederive(ctx context.Context, id string) (*patients.Patient, error)
	// RecordExam stores a performed exam and rederives the patient so
	// satisfied alerts move their due dates forward.
	RecordExam(ctx context.Context, exam exams.Exam) (*exams.Exam, error)
	// ReclassifyAll rederives every active patient and returns how many
	// were processed. Used after classification rule changes.
	ReclassifyAll(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string, metadata deletions.Metadata) error
}

type Params struct {
	fx.In

	Patients   patients.Service
	Controls   controls.Repository
	Alerts     alerts.Repository
	Exams      exams.Repository
	Classifier *classification.Classifier
	Generator  *alerts.Generator
	DbClient   *mongo.Client
	Logger     *zap.SugaredLogger
}

type deriver struct {
	patients   patients.Service
	controls   controls.Repository
	alerts     alerts.Repository
	exams      exams.Repository
	classifier *classification.Classifier
	generator  *alerts.Generator
	dbClient   *mongo.Client
	logger     *zap.SugaredLogger
}

var _ Deriver = &deriver{}

func NewDeriver(p Params) (Deriver, error) {
	return &deriver{
		patients:   p.Patients,
		controls:   p.Controls,
		alerts:     p.Alerts,
		exams:      p.Exams,
		classifier: p.Classifier,
		generator:  p.Generator,
		dbClient:   p.DbClient,
		logger:     p.Logger,
	}, nil
}

func (d *deriver) Create(ctx context.Context, patient patients.Patient) (*patients.Patient, error) {
	asOf := derivationDate()
	res, err := store.WithTransaction(ctx, d.dbClient, func(sessionCtx mongo.SessionContext) (interface{}, error) {
		created, err := d.patients.Create(sessionCtx, patient)
		if err != nil {
			return nil, err
		}
		return d.reclassify(sessionCtx, created, asOf)
	})
	if err != nil {
		return nil, err
	}

	created := res.(*patients.Patient)
	d.logger.Infow("created patient", "id", created.Id, "documentNumber", created.DocumentNumber)
	return created, nil
}

func (d *deriver) Update(ctx context.Context, id string, patient patients.Patient) (*patients.Patient, error) {
	asOf := derivationDate()
	res, err := store.WithTransaction(ctx, d.dbClient, func(sessionCtx mongo.SessionContext) (interface{}, error) {
		updated, err := d.patients.Update(sessionCtx, id, patient)
		if err != nil {
			return nil, err
		}
		return d.reclassify(sessionCtx, updated, asOf)
	})
	if err != nil {
		return nil, err
	}

	d.logger.Infow("updated patient", "id", id)
	return res.(*patients.Patient), nil
}

func (d *deriver) Upsert(ctx context.Context, patient patients.Patient) (*patients.Patient, bool, error) {
	asOf := derivationDate()
	res, err := store.WithTransaction(ctx, d.dbClient, func(sessionCtx mongo.SessionContext) (interface{}, error) {
		upserted, created, err := d.patients.Upsert(sessionCtx, patient)
		if err != nil {
			return nil, err
		}
		reclassified, err := d.reclassify(sessionCtx, upserted, asOf)
		if err != nil {
			return nil, err
		}
		return upsertResult{patient: reclassified, created: created}, nil
	})
	if err != nil {
		return nil, false, err
	}

	result := res.(upsertResult)
	return result.patient, result.created, nil
}

func (d *deriver) Rederive(ctx context.Context, id string) (*patients.Patient, error) {
	asOf := derivationDate()
	res, err := store.WithTransaction(ctx, d.dbClient, func(sessionCtx mongo.SessionContext) (interface{}, error) {
		patient, err := d.patients.Get(sessionCtx, id)
		if err != nil {
			return nil, err
		}
		return d.reclassify(sessionCtx, patient, asOf)
	})
	if err != nil {
		return nil, err
	}
	return res.(*patients.Patient), nil
}

func (d *deriver) RecordExam(ctx context.Context, exam exams.Exam) (*exams.Exam, error) {
	patient, err := d.patients.Get(ctx, exam.PatientId.Hex())
	if err != nil {
		return nil, err
	}

	created, err := d.exams.Create(ctx, &exam)
	if err != nil {
		return nil, err
	}

	if _, err := d.Rederive(ctx, patient.Id.Hex()); err != nil {
		return nil, err
	}
	return created, nil
}

func (d *deriver) ReclassifyAll(ctx context.Context) (int, error) {
	count := 0
	pagination := store.Pagination{Limit: reclassifyPageSize}

	for {
		page, err := d.patients.List(ctx, &patients.Filter{}, pagination)
		if err != nil {
			return count, err
		}
		for _, patient := range page {
			if _, err := d.Rederive(ctx, patient.Id.Hex()); err != nil {
				return count, err
			}
			count++
		}
		if len(page) < reclassifyPageSize {
			break
		}
		pagination.Offset += reclassifyPageSize
	}

	d.logger.Infow("reclassified population", "count", count)
	return count, nil
}

func (d *deriver) Delete(ctx context.Context, id string, metadata deletions.Metadata) error {
	patient, err := d.patients.Get(ctx, id)
	if err != nil {
		return err
	}

	_, err = store.WithTransaction(ctx, d.dbClient, func(sessionCtx mongo.SessionContext) (interface{}, error) {
		if err := d.patients.Delete(sessionCtx, id, metadata); err != nil {
			return nil, err
		}
		if err := d.controls.DeleteForPatient(sessionCtx, *patient.Id); err != nil {
			return nil, err
		}
		return nil, d.alerts.DeleteForPatient(sessionCtx, *patient.Id)
	})
	if err != nil {
		return err
	}

	d.logger.Infow("deleted patient", "id", id)
	return nil
}

// reclassify runs the classifier over the stored record, persists the
// derived fields and replaces the patient's controls and alerts.
func (d *deriver) reclassify(ctx context.Context, patient *patients.Patient, asOf time.Time) (*patients.Patient, error) {
	d.classifier.Classify(patient, asOf)

	updated, err := d.patients.Update(ctx, patient.Id.Hex(), *patient)
	if err != nil {
		return nil, err
	}
	if err := d.deriveSets(ctx, updated, asOf); err != nil {
		return nil, err
	}
	return updated, nil
}

func (d *deriver) deriveSets(ctx context.Context, patient *patients.Patient, asOf time.Time) error {
	lastControl := patient.EffectiveLastControl()

	required := d.classifier.RequiredControls(patient, asOf)
	controlRows := make([]controls.Control, 0, len(required))
	for _, descriptor := range required {
		row := controls.Control{
			Type:          descriptor.Type,
			Name:          descriptor.Name,
			Status:        controls.StatusPendiente,
			IsUrgent:      descriptor.Urgent,
			FrequencyDays: descriptor.FrequencyDays,
			PriorityScore: patient.PriorityScore,
			LastDate:      lastControl,
		}
		if descriptor.Description != "" {
			row.Description = pointer.FromAny(descriptor.Description)
		}
		due := asOf.AddDate(0, 0, descriptor.FrequencyDays)
		if lastControl != nil {
			due = lastControl.AddDate(0, 0, descriptor.FrequencyDays)
		}
		row.DueDate = &due
		controlRows = append(controlRows, row)
	}
	if err := d.controls.ReplaceForPatient(ctx, *patient.Id, controlRows); err != nil {
		return err
	}

	lastExams, err := d.exams.LatestByPatient(ctx, *patient.Id)
	if err != nil {
		return err
	}

	descriptors := alerts.Prioritize(d.generator.Generate(patient, lastExams, asOf))
	alertRows := make([]alerts.Alert, 0, len(descriptors))
	for _, descriptor := range descriptors {
		row := alerts.Alert{
			Type:        descriptor.Type,
			Name:        descriptor.Name,
			Priority:    descriptor.Priority,
			CreatedDate: asOf,
			DueDate:     pointer.FromAny(descriptor.DueDate),
		}
		if descriptor.Reason != "" {
			row.Reason = pointer.FromAny(descriptor.Reason)
		}
		if descriptor.Criteria != "" {
			row.Criteria = pointer.FromAny(descriptor.Criteria)
		}
		alertRows = append(alertRows, row)
	}
	return d.alerts.ReplaceForPatient(ctx, *patient.Id, alertRows)
}

type upsertResult struct {
	patient *patients.Patient
	created bool
}

// derivationDate pins every derivation to UTC midnight so stored due
// dates and the day-granular urgency windows do not move within a day.
func derivationDate() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
