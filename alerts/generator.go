package alerts

import (
	"fmt"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/sage3280/tracker/patients"
)

type GeneratorConfig struct {
	// ColonoscopyByHistory gates colonoscopy screening on exam history
	// instead of screening-decade birthdays.
	ColonoscopyByHistory bool
}

// Generator derives the preventive alerts a patient needs from the
// screening rules of Resolución 3280 and the Colombian clinical practice
// guidelines. It holds no mutable state and is safe for concurrent use.
type Generator struct {
	config GeneratorConfig
}

func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{
		config: config,
	}
}

// Generate evaluates every screening rule against the patient as of the
// given date. lastExams maps exam types to the date they were last
// performed and drives the due dates: a known exam is due one interval
// after it, an exam with no history is due in 30 days under urgent rules
// and 90 days otherwise. Each type is emitted at most once, first rule
// wins.
func (g *Generator) Generate(patient *patients.Patient, lastExams map[Type]time.Time, asOf time.Time) []Descriptor {
	if patient.Age == nil {
		return nil
	}
	age := *patient.Age

	hasRisk := patient.HasCardiovascularRisk
	level := patient.CardiovascularRiskLevel
	chronic := patient.Chronic
	highRisk := level != nil && (*level == patients.RiskLevelAlto || *level == patients.RiskLevelMuyAlto)

	emitted := mapset.NewThreadUnsafeSet[Type]()
	var result []Descriptor

	dueDate := func(typ Type, intervalDays int, urgentRule bool) time.Time {
		if last, ok := lastExams[typ]; ok {
			return last.AddDate(0, 0, intervalDays)
		}
		if urgentRule {
			return asOf.AddDate(0, 0, 30)
		}
		return asOf.AddDate(0, 0, 90)
	}

	add := func(descriptor Descriptor, intervalDays int, urgentRule bool) {
		if !emitted.Add(descriptor.Type) {
			return
		}
		descriptor.DueDate = dueDate(descriptor.Type, intervalDays, urgentRule)
		result = append(result, descriptor)
	}

	if age >= 18 {
		add(Descriptor{
			Type:     TypeTomaPresion,
			Name:     "Toma de Presión Arterial",
			Priority: PriorityMedia,
			Reason:   "Control anual de presión arterial para adultos",
			Criteria: fmt.Sprintf("Edad: %d años", age),
		}, 365, false)

		add(Descriptor{
			Type:     TypeMedicionIMC,
			Name:     "Medición de IMC",
			Priority: PriorityBaja,
			Reason:   "Control de peso y estado nutricional",
			Criteria: fmt.Sprintf("Edad: %d años", age),
		}, 365, false)

		glicemiaInterval := 1095
		if chronic.IsDiabetic || chronic.IsHypertensive || hasRisk {
			glicemiaInterval = 365
		}
		add(Descriptor{
			Type:     TypeGlicemia,
			Name:     "Glicemia en Ayunas",
			Priority: PriorityMedia,
			Reason:   "Tamizaje de diabetes",
			Criteria: fmt.Sprintf("Edad: %d años", age),
		}, glicemiaInterval, false)
	}

	if age <= 17 {
		priority, interval, reason := PriorityMedia, 365, "Control de peso y talla - anual en edad escolar"
		if age < 5 {
			priority, interval, reason = PriorityUrgente, 180, "Control de peso y talla - semestral en primera infancia"
		}
		add(Descriptor{
			Type:     TypePesoTalla,
			Name:     "Control de Peso y Talla",
			Priority: priority,
			Reason:   reason,
			Criteria: fmt.Sprintf("Edad: %d años", age),
		}, interval, false)
	}

	if age < 5 {
		screeningInterval := 180
		if age < 2 {
			screeningInterval = 60
		}
		add(Descriptor{
			Type:     TypeTamizajeDesarrollo,
			Name:     "Tamizaje del Desarrollo",
			Priority: PriorityMedia,
			Reason:   fmt.Sprintf("Vigilancia del desarrollo psicomotor - cada %d meses", screeningInterval/30),
			Criteria: fmt.Sprintf("Edad: %d años", age),
		}, screeningInterval, false)

		vaccineInterval, vaccineReason := 180, "Verificación semestral del esquema PAI"
		if age < 1 {
			vaccineInterval, vaccineReason = 30, "Verificación mensual del esquema PAI en menores de un año"
		}
		add(Descriptor{
			Type:     TypeVacuna,
			Name:     "Verificación del Esquema de Vacunación",
			Priority: PriorityAlta,
			Reason:   vaccineReason,
			Criteria: fmt.Sprintf("Edad: %d años", age),
		}, vaccineInterval, false)
	}

	if age >= 6 && age <= 17 {
		add(Descriptor{
			Type:     TypeSaludOral,
			Name:     "Control de Salud Oral",
			Priority: PriorityMedia,
			Reason:   "Valoración odontológica preventiva - anual",
			Criteria: fmt.Sprintf("Edad: %d años", age),
		}, 365, false)
	}

	if patient.Sex == patients.SexFemale {
		if age >= 25 && age <= 65 {
			add(Descriptor{
				Type:     TypeCitologia,
				Name:     "Citología Cervicouterina",
				Priority: PriorityAlta,
				Reason:   "Tamizaje de cáncer cervicouterino - anual",
				Criteria: fmt.Sprintf("Mujer, %d años (rango 25-65)", age),
			}, 365, true)
		}

		if age >= 30 && age <= 65 {
			add(Descriptor{
				Type:     TypeVPH,
				Name:     "Prueba ADN-VPH",
				Priority: PriorityMedia,
				Reason:   "Tamizaje de cáncer cervicouterino con prueba VPH - cada 3 años",
				Criteria: fmt.Sprintf("Mujer, %d años (rango 30-65)", age),
			}, 1095, false)
		}

		if age >= 50 && age <= 69 {
			add(Descriptor{
				Type:     TypeMamografia,
				Name:     "Mamografía",
				Priority: PriorityAlta,
				Reason:   "Tamizaje de cáncer de mama - cada 2 años",
				Criteria: fmt.Sprintf("Mujer, %d años (rango 50-69)", age),
			}, 730, true)
		}
	}

	if patient.Sex == patients.SexMale && age >= 50 {
		add(Descriptor{
			Type:     TypePSA,
			Name:     "Antígeno Prostático Específico (PSA)",
			Priority: PriorityMedia,
			Reason:   "Tamizaje de cáncer de próstata - anual",
			Criteria: fmt.Sprintf("Hombre, %d años (≥50)", age),
		}, 365, false)
	}

	if age >= 50 {
		add(Descriptor{
			Type:     TypeSangreOculta,
			Name:     "Sangre Oculta en Heces",
			Priority: PriorityMedia,
			Reason:   "Tamizaje de cáncer colorrectal - anual",
			Criteria: fmt.Sprintf("Edad: %d años (≥50)", age),
		}, 365, false)

		if g.colonoscopyDue(age, lastExams, asOf) {
			add(Descriptor{
				Type:     TypeColonoscopia,
				Name:     "Colonoscopia",
				Priority: PriorityAlta,
				Reason:   "Tamizaje de cáncer colorrectal - cada 10 años",
				Criteria: fmt.Sprintf("Edad: %d años (≥50)", age),
			}, 3650, true)
		}
	}

	if (age >= 6 && age <= 11) || age >= 60 {
		add(Descriptor{
			Type:     TypeAgudezaVisual,
			Name:     "Valoración de Agudeza Visual",
			Priority: PriorityMedia,
			Reason:   "Tamizaje de alteraciones visuales - cada 2 años",
			Criteria: fmt.Sprintf("Edad: %d años", age),
		}, 730, false)
	}

	if age >= 60 {
		add(Descriptor{
			Type:     TypeAgudezaAuditiva,
			Name:     "Valoración de Agudeza Auditiva",
			Priority: PriorityMedia,
			Reason:   "Tamizaje de hipoacusia en el adulto mayor - cada 2 años",
			Criteria: fmt.Sprintf("Edad: %d años (≥60)", age),
		}, 730, false)

		add(Descriptor{
			Type:     TypeVacunaInfluenza,
			Name:     "Vacuna contra Influenza",
			Priority: PriorityAlta,
			Reason:   "Vacunación anual contra influenza en el adulto mayor",
			Criteria: fmt.Sprintf("Edad: %d años (≥60)", age),
		}, 365, true)

		add(Descriptor{
			Type:     TypeVacunaNeumococo,
			Name:     "Vacuna Antineumocócica",
			Priority: PriorityAlta,
			Reason:   "Vacunación contra neumococo en el adulto mayor - cada 5 años",
			Criteria: fmt.Sprintf("Edad: %d años (≥60)", age),
		}, 1825, true)
	}

	if age >= 18 {
		add(Descriptor{
			Type:     TypeRefuerzoTetanos,
			Name:     "Refuerzo de Toxoide Tetánico",
			Priority: PriorityBaja,
			Reason:   "Refuerzo antitetánico - cada 10 años",
			Criteria: fmt.Sprintf("Edad: %d años", age),
		}, 3650, false)
	}

	if hasRisk || chronic.HasHeartDisease || age >= 40 {
		interval := 1095
		switch {
		case highRisk || chronic.HasHeartDisease:
			interval = 365
		case hasRisk:
			interval = 730
		}

		priority := PriorityMedia
		if hasRisk {
			priority = PriorityAlta
		}

		levelText := "a evaluar"
		if level != nil {
			levelText = string(*level)
		}

		add(Descriptor{
			Type:     TypePerfilLipidico,
			Name:     "Perfil Lipídico",
			Priority: priority,
			Reason:   fmt.Sprintf("Evaluación de riesgo cardiovascular - cada %d año(s)", interval/365),
			Criteria: fmt.Sprintf("Edad: %d años, Riesgo CV: %s", age, levelText),
		}, interval, hasRisk)
	}

	if highRisk || chronic.HasHeartDisease || age >= 50 {
		priority := PriorityMedia
		if chronic.HasHeartDisease {
			priority = PriorityAlta
		}
		add(Descriptor{
			Type:     TypeEKG,
			Name:     "Electrocardiograma",
			Priority: priority,
			Reason:   "Evaluación de función cardíaca - anual",
			Criteria: fmt.Sprintf("Edad: %d años, Riesgo CV: %t", age, hasRisk),
		}, 365, chronic.HasHeartDisease)
	}

	if patient.IsPregnant && patient.Sex == patients.SexFemale {
		add(Descriptor{
			Type:     TypeEcografia,
			Name:     "Ecografía Obstétrica",
			Priority: PriorityUrgente,
			Reason:   "Control prenatal - mínimo 3 ecografías durante embarazo",
			Criteria: "Paciente gestante",
		}, 42, true)

		add(Descriptor{
			Type:     TypeHemograma,
			Name:     "Hemograma Completo",
			Priority: PriorityAlta,
			Reason:   "Control prenatal - hemograma trimestral",
			Criteria: "Paciente gestante",
		}, 90, true)
	}

	if chronic.IsHypertensive {
		add(Descriptor{
			Type:     TypeCreatinina,
			Name:     "Creatinina Sérica",
			Priority: PriorityAlta,
			Reason:   "Evaluación de función renal en hipertenso - cada 6 meses",
			Criteria: "Paciente hipertenso",
		}, 180, true)

		add(Descriptor{
			Type:     TypePotasio,
			Name:     "Potasio Sérico",
			Priority: PriorityMedia,
			Reason:   "Control de electrolitos en hipertenso - cada 6 meses",
			Criteria: "Paciente hipertenso",
		}, 180, false)

		add(Descriptor{
			Type:     TypeMicroalbuminuria,
			Name:     "Microalbuminuria",
			Priority: PriorityAlta,
			Reason:   "Detección de daño renal en hipertenso - cada 6 meses",
			Criteria: "Paciente hipertenso",
		}, 180, true)

		add(Descriptor{
			Type:     TypeUroanalisis,
			Name:     "Uroanálisis",
			Priority: PriorityMedia,
			Reason:   "Análisis de orina en hipertenso - anual",
			Criteria: "Paciente hipertenso",
		}, 365, false)
	}

	if chronic.IsDiabetic {
		add(Descriptor{
			Type:     TypeHbA1c,
			Name:     "Hemoglobina Glicosilada (HbA1c)",
			Priority: PriorityUrgente,
			Reason:   "Control de diabetes - cada 3 meses",
			Criteria: "Paciente diabético",
		}, 90, true)

		add(Descriptor{
			Type:     TypeFondoOjo,
			Name:     "Fondo de Ojo",
			Priority: PriorityAlta,
			Reason:   "Detección de retinopatía diabética - anual",
			Criteria: "Paciente diabético",
		}, 365, true)

		add(Descriptor{
			Type:     TypeValoracionPieDiabetico,
			Name:     "Valoración de Pie Diabético",
			Priority: PriorityAlta,
			Reason:   "Prevención de complicaciones en pie diabético - cada 3 meses",
			Criteria: "Paciente diabético",
		}, 90, true)

		add(Descriptor{
			Type:     TypeCreatinina,
			Name:     "Creatinina Sérica",
			Priority: PriorityAlta,
			Reason:   "Evaluación de función renal en diabético - cada 6 meses",
			Criteria: "Paciente diabético",
		}, 180, true)

		add(Descriptor{
			Type:     TypeMicroalbuminuria,
			Name:     "Microalbuminuria",
			Priority: PriorityAlta,
			Reason:   "Detección de nefropatía diabética - cada 6 meses",
			Criteria: "Paciente diabético",
		}, 180, true)
	}

	if chronic.HasHypothyroidism {
		add(Descriptor{
			Type:     TypeTSH,
			Name:     "TSH",
			Priority: PriorityMedia,
			Reason:   "Control de función tiroidea - cada 4 meses",
			Criteria: "Paciente con hipotiroidismo",
		}, 120, false)

		add(Descriptor{
			Type:     TypeT4Libre,
			Name:     "T4 Libre",
			Priority: PriorityMedia,
			Reason:   "Control de función tiroidea - cada 6 meses",
			Criteria: "Paciente con hipotiroidismo",
		}, 180, false)
	}

	if chronic.HasCOPD {
		add(Descriptor{
			Type:     TypeEspirometria,
			Name:     "Espirometría",
			Priority: PriorityAlta,
			Reason:   "Evaluación de función pulmonar en EPOC - cada 9 meses",
			Criteria: "Paciente con EPOC",
		}, 270, true)

		add(Descriptor{
			Type:     TypeRayosX,
			Name:     "Rayos X de Tórax",
			Priority: PriorityMedia,
			Reason:   "Control radiológico en EPOC - anual",
			Criteria: "Paciente con EPOC",
		}, 365, false)

		add(Descriptor{
			Type:     TypeGasesArteriales,
			Name:     "Gases Arteriales",
			Priority: PriorityAlta,
			Reason:   "Evaluación de oxigenación en EPOC - cada 6 meses",
			Criteria: "Paciente con EPOC",
		}, 180, true)
	}

	if chronic.HasAsthma {
		add(Descriptor{
			Type:     TypeEspirometria,
			Name:     "Espirometría",
			Priority: PriorityMedia,
			Reason:   "Evaluación de función pulmonar en asma - cada 9 meses",
			Criteria: "Paciente con asma",
		}, 270, false)
	}

	if chronic.HasKidneyDisease {
		add(Descriptor{
			Type:     TypeDepuracionCreatinina,
			Name:     "Depuración de Creatinina",
			Priority: PriorityUrgente,
			Reason:   "Estimación de tasa de filtración glomerular - cada 4 meses",
			Criteria: "Paciente con enfermedad renal crónica",
		}, 120, true)

		add(Descriptor{
			Type:     TypeBUN,
			Name:     "Nitrógeno Ureico (BUN)",
			Priority: PriorityAlta,
			Reason:   "Control de función renal - cada 4 meses",
			Criteria: "Paciente con enfermedad renal crónica",
		}, 120, true)

		add(Descriptor{
			Type:     TypeHemograma,
			Name:     "Hemograma Completo",
			Priority: PriorityAlta,
			Reason:   "Detección de anemia en enfermedad renal crónica - cada 4 meses",
			Criteria: "Paciente con enfermedad renal crónica",
		}, 120, true)
	}

	if chronic.HasHeartDisease {
		add(Descriptor{
			Type:     TypeEcocardiograma,
			Name:     "Ecocardiograma",
			Priority: PriorityAlta,
			Reason:   "Seguimiento de enfermedad cardiovascular establecida - anual",
			Criteria: "Paciente con enfermedad cardiovascular",
		}, 365, true)
	}

	return result
}

func (g *Generator) colonoscopyDue(age int, lastExams map[Type]time.Time, asOf time.Time) bool {
	if g.config.ColonoscopyByHistory {
		last, ok := lastExams[TypeColonoscopia]
		return !ok || !last.AddDate(0, 0, 3650).After(asOf)
	}
	return age%10 == 0
}

// Prioritize orders alerts most pressing first: by priority rank, then by
// due date. The sort is stable so rule order breaks remaining ties.
func Prioritize(descriptors []Descriptor) []Descriptor {
	sort.SliceStable(descriptors, func(i, j int) bool {
		if descriptors[i].Priority.Rank() != descriptors[j].Priority.Rank() {
			return descriptors[i].Priority.Rank() < descriptors[j].Priority.Rank()
		}
		return descriptors[i].DueDate.Before(descriptors[j].DueDate)
	})
	return descriptors
}
