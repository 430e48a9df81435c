package classification

import (
	"time"

	"github.com/sage3280/tracker/controls"
	"github.com/sage3280/tracker/patients"
)

// RequiredControls derives the catalog of controls the patient needs as of
// the given date. The age band selects exactly one preventive block, and
// every chronic condition appends its follow-up control. A single
// days-since-last-control reading drives each block's urgency: overdue
// means urgent, and a patient with no recorded control is overdue for
// everything.
func (c *Classifier) RequiredControls(patient *patients.Patient, asOf time.Time) []controls.Descriptor {
	group := c.AgeGroup(patient.Age)
	if patient.Age == nil || group == nil {
		return nil
	}
	age := *patient.Age

	lastControl := patient.EffectiveLastControl()
	overdue := func(frequencyDays int) bool {
		if lastControl == nil {
			return true
		}
		return daysSince(*lastControl, asOf) > frequencyDays
	}

	var result []controls.Descriptor

	switch *group {
	case patients.AgeGroupPrimeraInfancia:
		frequency := 180
		if age < 2 {
			frequency = 60
		}
		urgent := overdue(frequency)

		vaccineFrequency := 180
		if age < 1 {
			vaccineFrequency = 30
		}

		result = append(result,
			controls.Descriptor{
				Type:          controls.TypePrimeraInfancia,
				Name:          "Control de Primera Infancia",
				Description:   "Valoración integral: crecimiento físico, desarrollo psicomotor, nutrición, vínculo afectivo",
				Urgent:        urgent,
				FrequencyDays: frequency,
			},
			controls.Descriptor{
				Type:          controls.TypeCrecimientoDesarrollo,
				Name:          "Valoración de Crecimiento y Desarrollo",
				Description:   "Medición de peso, talla, perímetro cefálico. Evaluación de hitos del desarrollo",
				Urgent:        urgent,
				FrequencyDays: frequency,
			},
			controls.Descriptor{
				Type:          controls.TypeVacunacion,
				Name:          "Esquema de Vacunación",
				Description:   "Esquema PAI: BCG, Hepatitis B, Pentavalente, Neumococo, Rotavirus, Influenza, Triple Viral, Varicela",
				Urgent:        urgent,
				FrequencyDays: vaccineFrequency,
			},
			controls.Descriptor{
				Type:          controls.TypeValoracionNutricional,
				Name:          "Valoración Nutricional",
				Description:   "Evaluación del estado nutricional, detección de desnutrición o sobrepeso, lactancia materna",
				Urgent:        urgent,
				FrequencyDays: frequency,
			},
		)

	case patients.AgeGroupInfancia:
		frequency := 365
		urgent := overdue(frequency)

		result = append(result,
			controls.Descriptor{
				Type:          controls.TypeInfancia,
				Name:          "Control de Infancia",
				Description:   "Valoración integral de salud escolar, crecimiento, desarrollo, nutrición",
				Urgent:        urgent,
				FrequencyDays: frequency,
			},
			controls.Descriptor{
				Type:          controls.TypeSaludOral,
				Name:          "Control de Salud Oral",
				Description:   "Valoración odontológica preventiva, higiene oral, detección de caries",
				Urgent:        urgent,
				FrequencyDays: frequency,
			},
			controls.Descriptor{
				Type:          controls.TypeValoracionNutricional,
				Name:          "Valoración Nutricional",
				Description:   "Evaluación de IMC, detección de malnutrición, hábitos alimentarios",
				Urgent:        urgent,
				FrequencyDays: frequency,
			},
			controls.Descriptor{
				Type:          controls.TypeSaludMental,
				Name:          "Tamizaje de Salud Mental",
				Description:   "Detección temprana de problemas de salud mental, adaptación escolar",
				Urgent:        false,
				FrequencyDays: frequency,
			},
		)

	case patients.AgeGroupAdolescencia:
		frequency := 365
		urgent := overdue(frequency)

		result = append(result,
			controls.Descriptor{
				Type:          controls.TypeAdolescencia,
				Name:          "Control de Adolescencia",
				Description:   "Valoración integral del adolescente: desarrollo puberal, salud mental, conductas de riesgo",
				Urgent:        urgent,
				FrequencyDays: frequency,
			},
			controls.Descriptor{
				Type:          controls.TypeSaludSexualReproductiva,
				Name:          "Salud Sexual y Reproductiva",
				Description:   "Educación sexual, anticoncepción, prevención de ITS, detección de VIH",
				Urgent:        false,
				FrequencyDays: frequency,
			},
			controls.Descriptor{
				Type:          controls.TypeDeteccionITS,
				Name:          "Detección de ITS",
				Description:   "Tamizaje de infecciones de transmisión sexual en población sexualmente activa",
				Urgent:        false,
				FrequencyDays: 365,
			},
			controls.Descriptor{
				Type:          controls.TypeSaludMental,
				Name:          "Salud Mental Adolescente",
				Description:   "Detección de depresión, ansiedad, trastornos alimentarios, consumo de sustancias",
				Urgent:        false,
				FrequencyDays: frequency,
			},
		)

	case patients.AgeGroupJuventud:
		frequency := 730
		urgent := overdue(frequency)

		result = append(result, controls.Descriptor{
			Type:          controls.TypeJuventud,
			Name:          "Control de Juventud",
			Description:   "Valoración de salud general, factores de riesgo, estilos de vida saludables",
			Urgent:        urgent,
			FrequencyDays: frequency,
		})

		if patient.Sex == patients.SexFemale {
			result = append(result, controls.Descriptor{
				Type:          controls.TypePlanificacionFamiliar,
				Name:          "Planificación Familiar",
				Description:   "Asesoría en métodos anticonceptivos, preconcepcional",
				Urgent:        false,
				FrequencyDays: 365,
			})
		}

	case patients.AgeGroupAdultez:
		frequency := 730
		if patient.Chronic.IsHypertensive || patient.Chronic.IsDiabetic || patient.HasCardiovascularRisk {
			frequency = 365
		}

		result = append(result, controls.Descriptor{
			Type:          controls.TypeAdultez,
			Name:          "Control de Adultez",
			Description:   "Valoración integral: tamizaje de enfermedades crónicas (HTA, DM), riesgo CV, cáncer",
			Urgent:        overdue(frequency),
			FrequencyDays: frequency,
		})

	case patients.AgeGroupVejez:
		frequency := 365
		urgent := overdue(frequency)

		result = append(result,
			controls.Descriptor{
				Type:          controls.TypeVejez,
				Name:          "Control de Vejez",
				Description:   "Control anual obligatorio para adulto mayor",
				Urgent:        urgent,
				FrequencyDays: frequency,
			},
			controls.Descriptor{
				Type:          controls.TypeValoracionGeriatrica,
				Name:          "Valoración Geriátrica Integral",
				Description:   "Evaluación multidimensional: funcional, cognitiva, afectiva, social, nutricional",
				Urgent:        urgent,
				FrequencyDays: frequency,
			},
			controls.Descriptor{
				Type:          controls.TypeEvaluacionFuncionalidad,
				Name:          "Evaluación de Funcionalidad",
				Description:   "Escala de Barthel, Lawton-Brody. Evaluación de riesgo de caídas",
				Urgent:        urgent,
				FrequencyDays: frequency,
			},
			controls.Descriptor{
				Type:          controls.TypeSaludMental,
				Name:          "Evaluación Cognitiva",
				Description:   "Detección de deterioro cognitivo, demencia, depresión en adulto mayor",
				Urgent:        false,
				FrequencyDays: frequency,
			},
		)
	}

	if patient.IsPregnant && patient.Sex == patients.SexFemale {
		result = append(result, controls.Descriptor{
			Type:          controls.TypePrenatal,
			Name:          "Control Prenatal",
			Description:   "Mínimo 4 controles prenatales. Mensual hasta semana 32, quincenal hasta 36, semanal después",
			Urgent:        true,
			FrequencyDays: 30,
		})
	}

	if patient.Chronic.IsHypertensive {
		result = append(result, controls.Descriptor{
			Type:          controls.TypeHipertenso,
			Name:          "Control de Hipertensión Arterial",
			Description:   "Control mensual: toma de PA, adherencia tratamiento, función renal, perfil lipídico semestral",
			Urgent:        overdue(30),
			FrequencyDays: 30,
		})
	}

	if patient.Chronic.IsDiabetic {
		result = append(result, controls.Descriptor{
			Type:          controls.TypeDiabetico,
			Name:          "Control de Diabetes Mellitus",
			Description:   "Control mensual: glicemia, HbA1c trimestral, pie diabético trimestral, fondo de ojo anual",
			Urgent:        overdue(30),
			FrequencyDays: 30,
		})
	}

	if patient.Chronic.HasHypothyroidism {
		result = append(result, controls.Descriptor{
			Type:          controls.TypeHipotiroidismo,
			Name:          "Control de Hipotiroidismo",
			Description:   "Control trimestral: TSH, T4 libre, adherencia a levotiroxina, síntomas clínicos",
			Urgent:        overdue(90),
			FrequencyDays: 90,
		})
	}

	if patient.Chronic.HasCOPD {
		result = append(result, controls.Descriptor{
			Type:          controls.TypeEPOC,
			Name:          "Control de EPOC",
			Description:   "Control trimestral: espirometría, saturación O2, exacerbaciones, adherencia a inhaladores",
			Urgent:        overdue(90),
			FrequencyDays: 90,
		})
	}

	if patient.Chronic.HasAsthma {
		result = append(result, controls.Descriptor{
			Type:          controls.TypeAsma,
			Name:          "Control de Asma",
			Description:   "Control trimestral: control de síntomas (ACT), espirometría, técnica inhalatoria, plan de acción",
			Urgent:        overdue(90),
			FrequencyDays: 90,
		})
	}

	if patient.Chronic.HasKidneyDisease {
		result = append(result, controls.Descriptor{
			Type:          controls.TypeIRC,
			Name:          "Control de Insuficiencia Renal Crónica",
			Description:   "Control según estadio: creatinina, TFG, BUN, K+, Ca, P, anemia, PA",
			Urgent:        overdue(90),
			FrequencyDays: 90,
		})
	}

	if patient.Chronic.HasHeartDisease {
		result = append(result, controls.Descriptor{
			Type:          controls.TypeCardiovascular,
			Name:          "Control de Enfermedad Cardiovascular",
			Description:   "Seguimiento post-IAM, ICC, ECV: síntomas, adherencia antiagregación, perfil lipídico, ecocardiograma",
			Urgent:        overdue(90),
			FrequencyDays: 90,
		})
	}

	if patient.HasCardiovascularRisk && age >= 40 && !patient.Chronic.HasHeartDisease {
		result = append(result, controls.Descriptor{
			Type:          controls.TypeRiesgoCardiovascular,
			Name:          "Evaluación de Riesgo Cardiovascular",
			Description:   "Valoración anual: Framingham/ASCVD, perfil lipídico, PA, glicemia, IMC, tabaquismo",
			Urgent:        overdue(365),
			FrequencyDays: 365,
		})
	}

	if patient.Chronic.Count() >= 2 {
		result = append(result, controls.Descriptor{
			Type:          controls.TypeMedicamentos,
			Name:          "Revisión de Medicamentos",
			Description:   "Revisión de adherencia, interacciones medicamentosas, RAM, ajuste de dosis",
			Urgent:        false,
			FrequencyDays: 180,
		})
	}

	return result
}

// PriorityScore ranks how urgently the patient should be contacted on a
// 0-100 scale. Weights reflect care-gap severity; the risk weights read
// the stored cardiovascular flags.
func (c *Classifier) PriorityScore(patient *patients.Patient, asOf time.Time) int {
	score := 50

	if patient.Age != nil {
		switch age := *patient.Age; {
		case age < 1:
			score += 20
		case age >= 65:
			score += 15
		case age <= 5:
			score += 10
		}
	}

	if patient.IsPregnant {
		score += 25
	}

	chronic := patient.Chronic
	if chronic.IsDiabetic {
		score += 15
	}
	if chronic.IsHypertensive {
		score += 15
	}
	if chronic.HasKidneyDisease {
		score += 20
	}
	if chronic.HasHeartDisease {
		score += 18
	}
	if chronic.HasCOPD {
		score += 12
	}
	if chronic.HasAsthma {
		score += 8
	}
	if chronic.HasHypothyroidism {
		score += 5
	}

	if patient.HasCardiovascularRisk {
		level := patient.CardiovascularRiskLevel
		switch {
		case level != nil && *level == patients.RiskLevelMuyAlto:
			score += 20
		case level != nil && *level == patients.RiskLevelAlto:
			score += 15
		case level != nil && *level == patients.RiskLevelMedio:
			score += 10
		default:
			score += 5
		}
	}

	if lastControl := patient.EffectiveLastControl(); lastControl != nil {
		switch days := daysSince(*lastControl, asOf); {
		case days > 730:
			score += 15
		case days > 365:
			score += 10
		case days > 180:
			score += 5
		}
	} else {
		score += 20
	}

	if score > 100 {
		score = 100
	}
	return score
}
