package patients

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sage3280/tracker/deletions"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/store"
)

const CollectionName = "patients"

var (
	ErrNotFound  = fmt.Errorf("patient %w", errors.NotFound)
	ErrDuplicate = fmt.Errorf("%w: a patient with the same document number already exists", errors.Duplicate)
)

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
	SexOther  Sex = "O"
)

// AgeGroup is the life-course band ("curso de vida") of Resolución 3280.
type AgeGroup string

const (
	AgeGroupPrimeraInfancia AgeGroup = "primera_infancia"
	AgeGroupInfancia        AgeGroup = "infancia"
	AgeGroupAdolescencia    AgeGroup = "adolescencia"
	AgeGroupJuventud        AgeGroup = "juventud"
	AgeGroupAdultez         AgeGroup = "adultez"
	AgeGroupVejez           AgeGroup = "vejez"
)

// AttentionType groups patients by route of care. GrupoC is reserved for
// future complex-care routing and is never assigned by the classifier.
type AttentionType string

const (
	AttentionGrupoA AttentionType = "grupo_a"
	AttentionGrupoB AttentionType = "grupo_b"
	AttentionGrupoC AttentionType = "grupo_c"
)

// RiskLevel stores the cardiovascular risk level of a patient. The
// simplified classification path only produces the four canonical values
// below; the comprehensive path stores the recommended algorithm's category
// verbatim, which may also be "moderado", "borderline" or "intermedio".
type RiskLevel string

const (
	RiskLevelBajo    RiskLevel = "bajo"
	RiskLevelMedio   RiskLevel = "medio"
	RiskLevelAlto    RiskLevel = "alto"
	RiskLevelMuyAlto RiskLevel = "muy_alto"
)

// ChronicConditions are the chronic disease flags extracted from roster
// diagnoses. Any set flag routes the patient to grupo_b.
type ChronicConditions struct {
	IsHypertensive    bool `bson:"isHypertensive" json:"isHypertensive"`
	IsDiabetic        bool `bson:"isDiabetic" json:"isDiabetic"`
	HasKidneyDisease  bool `bson:"hasKidneyDisease" json:"hasKidneyDisease"`
	HasCOPD           bool `bson:"hasCopd" json:"hasCopd"`
	HasAsthma         bool `bson:"hasAsthma" json:"hasAsthma"`
	HasHeartDisease   bool `bson:"hasHeartDisease" json:"hasHeartDisease"`
	HasHypothyroidism bool `bson:"hasHypothyroidism" json:"hasHypothyroidism"`
}

func (c ChronicConditions) Any() bool {
	return c.Count() > 0
}

func (c ChronicConditions) Count() int {
	count := 0
	for _, set := range []bool{
		c.IsHypertensive,
		c.IsDiabetic,
		c.HasKidneyDisease,
		c.HasCOPD,
		c.HasAsthma,
		c.HasHeartDisease,
		c.HasHypothyroidism,
	} {
		if set {
			count++
		}
	}
	return count
}

// Measurements are the most recent clinical measurements known for a
// patient, refreshed by every roster upload that carries them.
type Measurements struct {
	SystolicBP       *int     `bson:"systolicBp,omitempty"`
	DiastolicBP      *int     `bson:"diastolicBp,omitempty"`
	TotalCholesterol *float64 `bson:"totalCholesterol,omitempty"`
	HDL              *float64 `bson:"hdl,omitempty"`
	LDL              *float64 `bson:"ldl,omitempty"`
	Triglycerides    *float64 `bson:"triglycerides,omitempty"`
	Glucose          *float64 `bson:"glucose,omitempty"`
	HbA1c            *float64 `bson:"hba1c,omitempty"`
	Creatinine       *float64 `bson:"creatinine,omitempty"`
	BMI              *float64 `bson:"bmi,omitempty"`
	WeightKg         *float64 `bson:"weightKg,omitempty"`
	HeightCm         *float64 `bson:"heightCm,omitempty"`
}

type Patient struct {
	Id             *primitive.ObjectID `bson:"_id,omitempty"`
	DocumentType   *string             `bson:"documentType,omitempty"`
	DocumentNumber string              `bson:"documentNumber"`
	FullName       string              `bson:"fullName"`
	BirthDate      *time.Time          `bson:"birthDate,omitempty"`
	Age            *int                `bson:"age,omitempty"`
	Sex            Sex                 `bson:"sex"`
	Phone          *string             `bson:"phone,omitempty"`
	Email          *string             `bson:"email,omitempty"`
	Address        *string             `bson:"address,omitempty"`
	Neighborhood   *string             `bson:"neighborhood,omitempty"`
	City           *string             `bson:"city,omitempty"`
	EpsCode        *string             `bson:"epsCode,omitempty"`
	EpsName        *string             `bson:"epsName,omitempty"`
	TipoConvenio   *string             `bson:"tipoConvenio,omitempty"`

	// Diagnoses keeps the raw roster text the chronic flags were extracted
	// from, so a reupload or manual review can re-derive them.
	Diagnoses  *string           `bson:"diagnoses,omitempty"`
	Chronic    ChronicConditions `bson:"chronicConditions"`
	IsPregnant bool              `bson:"isPregnant"`
	IsSmoker   bool              `bson:"isSmoker"`

	Measurements Measurements `bson:"measurements"`

	// LastControlDate is the date the classifier reads when deciding
	// whether a control is overdue. Rosters usually report per-programme
	// dates instead, so the most recent of those is promoted into it.
	LastControlDate    *time.Time `bson:"lastControlDate,omitempty"`
	LastGeneralControl *time.Time `bson:"lastGeneralControl,omitempty"`
	Last3280Control    *time.Time `bson:"last3280Control,omitempty"`
	LastHTAControl     *time.Time `bson:"lastHtaControl,omitempty"`
	LastDMControl      *time.Time `bson:"lastDmControl,omitempty"`

	// Derived by the classifier on every create, update and upload.
	AgeGroup                *AgeGroup      `bson:"ageGroup,omitempty"`
	AttentionType           *AttentionType `bson:"attentionType,omitempty"`
	HasCardiovascularRisk   bool           `bson:"hasCardiovascularRisk"`
	CardiovascularRiskLevel *RiskLevel     `bson:"cardiovascularRiskLevel,omitempty"`
	PriorityScore           int            `bson:"priorityScore"`

	IsContacted  bool       `bson:"isContacted"`
	ContactedAt  *time.Time `bson:"contactedAt,omitempty"`
	ContactNotes *string    `bson:"contactNotes,omitempty"`

	IsActive     bool                `bson:"isActive"`
	LastUploadId *primitive.ObjectID `bson:"lastUploadId,omitempty"`
	CreatedTime  time.Time           `bson:"createdTime,omitempty"`
	UpdatedTime  time.Time           `bson:"updatedTime,omitempty"`
}

// EffectiveLastControl returns the date the control and priority derivation
// should treat as the last completed control. When the compatibility date is
// unset it falls back to the most recent per-programme date.
func (p *Patient) EffectiveLastControl() *time.Time {
	if p.LastControlDate != nil {
		return p.LastControlDate
	}
	var latest *time.Time
	for _, candidate := range []*time.Time{p.LastGeneralControl, p.Last3280Control, p.LastHTAControl, p.LastDMControl} {
		if candidate == nil {
			continue
		}
		if latest == nil || candidate.After(*latest) {
			latest = candidate
		}
	}
	return latest
}

type Filter struct {
	Search                *string
	AgeGroup              *AgeGroup
	Sex                   *Sex
	AttentionType         *AttentionType
	RiskLevel             *RiskLevel
	IsPregnant            *bool
	IsHypertensive        *bool
	IsDiabetic            *bool
	HasCardiovascularRisk *bool
	IsContacted           *bool
	LastUploadId          *string
	IncludeInactive       bool
}

//go:generate mockgen --build_flags=--mod=mod -source=./patients.go -destination=./test/mock_service.go -package test MockService

type Service interface {
	Get(ctx context.Context, id string) (*Patient, error)
	GetByDocument(ctx context.Context, documentNumber string) (*Patient, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error)
	Count(ctx context.Context, filter *Filter) (int, error)
	Create(ctx context.Context, patient Patient) (*Patient, error)
	Update(ctx context.Context, id string, patient Patient) (*Patient, error)
	// Upsert creates or refreshes the patient matching the document number
	// and reports whether a new record was created.
	Upsert(ctx context.Context, patient Patient) (*Patient, bool, error)
	MarkContacted(ctx context.Context, id string, notes *string) (*Patient, error)
	Delete(ctx context.Context, id string, metadata deletions.Metadata) error
}
