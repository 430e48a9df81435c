package alerts

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sage3280/tracker/errors"
)

const CollectionName = "alerts"

var ErrNotFound = fmt.Errorf("alert %w", errors.NotFound)

// Type identifies the exam or procedure an alert asks for. Exam records
// reuse these tags, which is what links an alert to the history that
// satisfies it.
type Type string

const (
	// Laboratorio
	TypePerfilLipidico       Type = "perfil_lipidico"
	TypeGlicemia             Type = "glicemia"
	TypeHbA1c                Type = "hba1c"
	TypeCreatinina           Type = "creatinina"
	TypePotasio              Type = "potasio"
	TypeMicroalbuminuria     Type = "microalbuminuria"
	TypeUroanalisis          Type = "uroanalisis"
	TypeTSH                  Type = "tsh"
	TypeT4Libre              Type = "t4_libre"
	TypeDepuracionCreatinina Type = "depuracion_creatinina"
	TypeBUN                  Type = "bun"
	TypeHemograma            Type = "hemograma"
	TypeGasesArteriales      Type = "gases_arteriales"
	TypeSangreOculta         Type = "sangre_oculta"

	// Imágenes
	TypeMamografia     Type = "mamografia"
	TypeEcografia      Type = "ecografia"
	TypeRayosX         Type = "rayos_x"
	TypeEKG            Type = "ekg"
	TypeEcocardiograma Type = "ecocardiograma"
	TypeEspirometria   Type = "espirometria"

	// Tamizajes
	TypePSA                Type = "psa"
	TypeCitologia          Type = "citologia"
	TypeVPH                Type = "vph"
	TypeColonoscopia       Type = "colonoscopia"
	TypePesoTalla          Type = "peso_talla"
	TypeTamizajeDesarrollo Type = "tamizaje_desarrollo"
	TypeSaludOral          Type = "salud_oral"
	TypeAgudezaVisual      Type = "agudeza_visual"
	TypeAgudezaAuditiva    Type = "agudeza_auditiva"

	// Evaluaciones
	TypeFondoOjo                       Type = "fondo_ojo"
	TypeValoracionPieDiabetico         Type = "valoracion_pie_diabetico"
	TypeEvaluacionRiesgoCardiovascular Type = "evaluacion_riesgo_cardiovascular"

	// Otros
	TypeVacuna          Type = "vacuna"
	TypeVacunaInfluenza Type = "vacuna_influenza"
	TypeVacunaNeumococo Type = "vacuna_neumococo"
	TypeRefuerzoTetanos Type = "refuerzo_tetanos"
	TypeTomaPresion     Type = "toma_presion"
	TypeMedicionIMC     Type = "medicion_imc"
)

type Priority string

const (
	PriorityBaja    Priority = "baja"
	PriorityMedia   Priority = "media"
	PriorityAlta    Priority = "alta"
	PriorityUrgente Priority = "urgente"
)

// Rank orders priorities for sorting, most pressing first. Unknown values
// sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgente:
		return 0
	case PriorityAlta:
		return 1
	case PriorityMedia:
		return 2
	case PriorityBaja:
		return 3
	default:
		return 4
	}
}

type Status string

const (
	StatusActiva     Status = "activa"
	StatusNotificada Status = "notificada"
	StatusProgramada Status = "programada"
	StatusCompletada Status = "completada"
	StatusIgnorada   Status = "ignorada"
)

// Descriptor is one alert the generator produced for a patient. Reason
// explains the rule and its frequency, Criteria echoes the patient values
// that triggered it.
type Descriptor struct {
	Type     Type
	Name     string
	Priority Priority
	Reason   string
	Criteria string
	DueDate  time.Time
}

type Alert struct {
	Id        *primitive.ObjectID `bson:"_id,omitempty"`
	PatientId primitive.ObjectID  `bson:"patientId"`
	Type      Type                `bson:"alertType"`
	Name      string              `bson:"name"`
	Priority  Priority            `bson:"priority"`

	// PriorityRank mirrors Priority for index-backed sorting.
	PriorityRank int    `bson:"priorityRank"`
	Status       Status `bson:"status"`

	Reason   *string `bson:"reason,omitempty"`
	Criteria *string `bson:"criteria,omitempty"`

	CreatedDate   time.Time  `bson:"createdDate"`
	DueDate       *time.Time `bson:"dueDate,omitempty"`
	NotifiedDate  *time.Time `bson:"notifiedDate,omitempty"`
	CompletedDate *time.Time `bson:"completedDate,omitempty"`

	ActionTaken *string `bson:"actionTaken,omitempty"`
	Notes       *string `bson:"notes,omitempty"`

	CreatedTime time.Time `bson:"createdTime,omitempty"`
	UpdatedTime time.Time `bson:"updatedTime,omitempty"`
}

// Update carries the mutable fields of an alert. Marking an alert
// completada stamps the completion date; setting a completion date marks
// it completada; notifying stamps the notification time.
type Update struct {
	Status        *Status    `json:"status,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	ActionTaken   *string    `json:"actionTaken,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

type Filter struct {
	PatientId *string
	Type      *Type
	Priority  *Priority
	Status    *Status
	DueBefore *time.Time
}

type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByPriority map[string]int `json:"byPriority"`
	ByType     map[string]int `json:"byType"`
}
