package classification

import (
	"time"

	"go.uber.org/zap"

	"github.com/sage3280/tracker/patients"
	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/risk"
)

// Classifier derives the population-health attributes of a patient
// following Resolución 3280 (life-course preventive routes) and
// Resolución 412 (chronic follow-up): age group, attention group,
// cardiovascular risk, the catalog of controls the patient needs and a
// contact priority score.
type Classifier struct {
	logger *zap.SugaredLogger
}

func NewClassifier(logger *zap.SugaredLogger) *Classifier {
	return &Classifier{
		logger: logger,
	}
}

// Classify refreshes the derived attributes of the patient in place. Risk
// comes first because the control catalog and the priority score read the
// stored risk flags.
func (c *Classifier) Classify(patient *patients.Patient, asOf time.Time) {
	if patient.BirthDate != nil {
		if age := AgeAt(*patient.BirthDate, asOf); age >= 0 {
			patient.Age = pointer.FromAny(age)
		}
	}

	patient.AgeGroup = c.AgeGroup(patient.Age)
	attention := c.AttentionType(patient.Chronic)
	patient.AttentionType = &attention

	hasRisk, level, _ := c.CardiovascularRisk(patient)
	patient.HasCardiovascularRisk = hasRisk
	patient.CardiovascularRiskLevel = level

	patient.PriorityScore = c.PriorityScore(patient, asOf)
}

// AgeGroup maps an age in years to its life-course band.
func (c *Classifier) AgeGroup(age *int) *patients.AgeGroup {
	if age == nil || *age < 0 {
		return nil
	}

	var group patients.AgeGroup
	switch {
	case *age <= 5:
		group = patients.AgeGroupPrimeraInfancia
	case *age <= 11:
		group = patients.AgeGroupInfancia
	case *age <= 17:
		group = patients.AgeGroupAdolescencia
	case *age <= 28:
		group = patients.AgeGroupJuventud
	case *age <= 59:
		group = patients.AgeGroupAdultez
	default:
		group = patients.AgeGroupVejez
	}
	return &group
}

// AttentionType routes patients with any chronic condition to the active
// follow-up group. GrupoC is reachable in the model but never assigned
// here.
func (c *Classifier) AttentionType(chronic patients.ChronicConditions) patients.AttentionType {
	if chronic.Any() {
		return patients.AttentionGrupoB
	}
	return patients.AttentionGrupoA
}

// CardiovascularRisk evaluates the patient's 10-year cardiovascular risk.
// When the measurement snapshot carries blood pressure and a lipid panel
// the multi-algorithm comparison runs; otherwise a simplified risk-factor
// count stands in. The returned level on the comprehensive path is the
// recommended algorithm's category verbatim, which extends beyond the four
// simplified levels.
func (c *Classifier) CardiovascularRisk(patient *patients.Patient) (bool, *patients.RiskLevel, *risk.Comparison) {
	if patient.Age == nil || patient.Sex == "" {
		return false, nil, nil
	}

	if hasRisk, level, detail, ok := c.comprehensiveRisk(patient); ok {
		return hasRisk, level, detail
	}
	hasRisk, level := c.simplifiedRisk(patient)
	return hasRisk, level, nil
}

func (c *Classifier) comprehensiveRisk(patient *patients.Patient) (hasRisk bool, level *patients.RiskLevel, detail *risk.Comparison, ok bool) {
	measurements := patient.Measurements
	if measurements.SystolicBP == nil || measurements.TotalCholesterol == nil || measurements.HDL == nil {
		return false, nil, nil, false
	}
	if *patient.Age < 30 {
		return false, nil, nil, false
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorw("comprehensive risk calculation failed, downgrading to simplified scoring",
				"patientId", patient.Id,
				"error", r,
			)
			hasRisk, level, detail, ok = false, nil, nil, false
		}
	}()

	// Rosters carry neither race nor family history. Hispanic is the
	// population default for the ASCVD adjustment.
	comparison := risk.Comprehensive(risk.Profile{
		Age:              patient.Age,
		Sex:              string(patient.Sex),
		Race:             risk.RaceHispanic,
		SystolicBP:       measurements.SystolicBP,
		DiastolicBP:      measurements.DiastolicBP,
		TotalCholesterol: measurements.TotalCholesterol,
		HDL:              measurements.HDL,
		LDL:              measurements.LDL,
		Glucose:          measurements.Glucose,
		BMI:              measurements.BMI,
		Smoker:           patient.IsSmoker,
		Diabetic:         patient.Chronic.IsDiabetic,
		OnBPMeds:         patient.Chronic.IsHypertensive,
	})
	// A complete panel keeps the patient on the comprehensive path even
	// when no algorithm's age window applies: the comparison then reports
	// the low-risk defaults instead of re-routing to factor counting.
	overall := patients.RiskLevel(comparison.OverallCategory)
	return comparison.HighestPercentage >= 5.0, &overall, comparison, true
}

func (c *Classifier) simplifiedRisk(patient *patients.Patient) (bool, *patients.RiskLevel) {
	age := *patient.Age
	measurements := patient.Measurements

	factors := 0
	if (patient.Sex == patients.SexMale && age >= 45) || (patient.Sex == patients.SexFemale && age >= 55) {
		factors++
	}
	if patient.Chronic.IsHypertensive {
		factors += 2
	}
	if patient.Chronic.IsDiabetic {
		factors += 2
	}
	if patient.IsSmoker {
		factors++
	}
	if measurements.SystolicBP != nil && *measurements.SystolicBP >= 140 {
		factors++
	}
	if measurements.TotalCholesterol != nil && *measurements.TotalCholesterol >= 240 {
		factors++
	}
	if measurements.HDL != nil && *measurements.HDL < 40 {
		factors++
	}

	var level patients.RiskLevel
	switch {
	case factors == 0:
		return false, nil
	case factors <= 1:
		level = patients.RiskLevelBajo
	case factors <= 3:
		level = patients.RiskLevelMedio
	case factors <= 5:
		level = patients.RiskLevelAlto
	default:
		level = patients.RiskLevelMuyAlto
	}
	return true, &level
}

// AgeAt computes completed years between the birth date and the reference
// date.
func AgeAt(birthDate, asOf time.Time) int {
	years := asOf.Year() - birthDate.Year()
	if asOf.Month() < birthDate.Month() || (asOf.Month() == birthDate.Month() && asOf.Day() < birthDate.Day()) {
		years--
	}
	return years
}

func daysSince(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
