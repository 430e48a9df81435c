package patients

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sage3280/tracker/deletions"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/store"
)

type service struct {
	repo   Repository
	logger *zap.SugaredLogger
}

var _ Service = &service{}

func NewService(repo Repository, logger *zap.SugaredLogger) (Service, error) {
	return &service{
		repo:   repo,
		logger: logger,
	}, nil
}

func (s *service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) GetByDocument(ctx context.Context, documentNumber string) (*Patient, error) {
	return s.repo.GetByDocument(ctx, documentNumber)
}

func (s *service) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error) {
	return s.repo.List(ctx, filter, pagination)
}

func (s *service) Count(ctx context.Context, filter *Filter) (int, error) {
	return s.repo.Count(ctx, filter)
}

func (s *service) Create(ctx context.Context, patient Patient) (*Patient, error) {
	if err := validate(patient); err != nil {
		return nil, err
	}
	patient.IsActive = true
	return s.repo.Create(ctx, patient)
}

func (s *service) Update(ctx context.Context, id string, patient Patient) (*Patient, error) {
	if err := validate(patient); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patient.CreatedTime = existing.CreatedTime

	return s.repo.Update(ctx, id, patient)
}

func (s *service) Upsert(ctx context.Context, patient Patient) (*Patient, bool, error) {
	if err := validate(patient); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.GetByDocument(ctx, patient.DocumentNumber)
	if err == ErrNotFound {
		patient.IsActive = true
		created, err := s.repo.Create(ctx, patient)
		return created, true, err
	} else if err != nil {
		return nil, false, err
	}

	merged := merge(*existing, patient)
	updated, err := s.repo.Update(ctx, existing.Id.Hex(), merged)
	return updated, false, err
}

func (s *service) MarkContacted(ctx context.Context, id string, notes *string) (*Patient, error) {
	return s.repo.MarkContacted(ctx, id, notes)
}

func (s *service) Delete(ctx context.Context, id string, metadata deletions.Metadata) error {
	return s.repo.Deactivate(ctx, id, metadata)
}

func validate(patient Patient) error {
	if patient.DocumentNumber == "" {
		return fmt.Errorf("%w: document number is missing", errors.BadRequest)
	}
	if patient.FullName == "" {
		return fmt.Errorf("%w: full name is missing", errors.BadRequest)
	}
	return nil
}

// merge lays the incoming roster row over the stored record. Absent cells
// keep the stored value, while the flags derived from the diagnoses text
// always reflect the latest upload. Reappearing in a roster revives an
// inactive patient.
func merge(existing Patient, incoming Patient) Patient {
	merged := existing

	merged.DocumentNumber = incoming.DocumentNumber
	if incoming.DocumentType != nil {
		merged.DocumentType = incoming.DocumentType
	}
	if incoming.FullName != "" {
		merged.FullName = incoming.FullName
	}
	if incoming.BirthDate != nil {
		merged.BirthDate = incoming.BirthDate
	}
	if incoming.Age != nil {
		merged.Age = incoming.Age
	}
	if incoming.Sex != "" {
		merged.Sex = incoming.Sex
	}
	if incoming.Phone != nil {
		merged.Phone = incoming.Phone
	}
	if incoming.Email != nil {
		merged.Email = incoming.Email
	}
	if incoming.Address != nil {
		merged.Address = incoming.Address
	}
	if incoming.Neighborhood != nil {
		merged.Neighborhood = incoming.Neighborhood
	}
	if incoming.City != nil {
		merged.City = incoming.City
	}
	if incoming.EpsCode != nil {
		merged.EpsCode = incoming.EpsCode
	}
	if incoming.EpsName != nil {
		merged.EpsName = incoming.EpsName
	}
	if incoming.TipoConvenio != nil {
		merged.TipoConvenio = incoming.TipoConvenio
	}

	if incoming.Diagnoses != nil {
		merged.Diagnoses = incoming.Diagnoses
	}
	merged.Chronic = incoming.Chronic
	merged.IsPregnant = incoming.IsPregnant
	merged.IsSmoker = incoming.IsSmoker

	merged.Measurements = mergeMeasurements(existing.Measurements, incoming.Measurements)

	if incoming.LastControlDate != nil {
		merged.LastControlDate = incoming.LastControlDate
	}
	if incoming.LastGeneralControl != nil {
		merged.LastGeneralControl = incoming.LastGeneralControl
	}
	if incoming.Last3280Control != nil {
		merged.Last3280Control = incoming.Last3280Control
	}
	if incoming.LastHTAControl != nil {
		merged.LastHTAControl = incoming.LastHTAControl
	}
	if incoming.LastDMControl != nil {
		merged.LastDMControl = incoming.LastDMControl
	}

	if incoming.LastUploadId != nil {
		merged.LastUploadId = incoming.LastUploadId
	}
	merged.IsActive = true

	return merged
}

func mergeMeasurements(existing Measurements, incoming Measurements) Measurements {
	merged := existing
	if incoming.SystolicBP != nil {
		merged.SystolicBP = incoming.SystolicBP
	}
	if incoming.DiastolicBP != nil {
		merged.DiastolicBP = incoming.DiastolicBP
	}
	if incoming.TotalCholesterol != nil {
		merged.TotalCholesterol = incoming.TotalCholesterol
	}
	if incoming.HDL != nil {
		merged.HDL = incoming.HDL
	}
	if incoming.LDL != nil {
		merged.LDL = incoming.LDL
	}
	if incoming.Triglycerides != nil {
		merged.Triglycerides = incoming.Triglycerides
	}
	if incoming.Glucose != nil {
		merged.Glucose = incoming.Glucose
	}
	if incoming.HbA1c != nil {
		merged.HbA1c = incoming.HbA1c
	}
	if incoming.Creatinine != nil {
		merged.Creatinine = incoming.Creatinine
	}
	if incoming.BMI != nil {
		merged.BMI = incoming.BMI
	}
	if incoming.WeightKg != nil {
		merged.WeightKg = incoming.WeightKg
	}
	if incoming.HeightCm != nil {
		merged.HeightCm = incoming.HeightCm
	}
	return merged
}
