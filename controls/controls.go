package controls

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sage3280/tracker/errors"
)

const CollectionName = "controls"

var ErrNotFound = fmt.Errorf("control %w", errors.NotFound)

// Type identifies one control of the Resolución 3280 / 412 catalog.
type Type string

const (
	TypePrimeraInfancia         Type = "control_primera_infancia"
	TypeCrecimientoDesarrollo   Type = "control_crecimiento_desarrollo"
	TypeInfancia                Type = "control_infancia"
	TypeAdolescencia            Type = "control_adolescencia"
	TypeJuventud                Type = "control_juventud"
	TypeAdultez                 Type = "control_adultez"
	TypeVejez                   Type = "control_vejez"
	TypeSaludSexualReproductiva Type = "salud_sexual_reproductiva"
	TypePlanificacionFamiliar   Type = "planificacion_familiar"
	TypeDeteccionITS            Type = "deteccion_its"
	TypeSaludMental             Type = "salud_mental"
	TypeSaludOral               Type = "salud_oral"
	TypeValoracionNutricional   Type = "valoracion_nutricional"
	TypeValoracionGeriatrica    Type = "valoracion_geriatrica"
	TypeEvaluacionFuncionalidad Type = "evaluacion_funcionalidad"
	TypeVacunacion              Type = "vacunacion"
	TypePrenatal                Type = "control_prenatal"
	TypeHipertenso              Type = "control_hipertenso"
	TypeDiabetico               Type = "control_diabetico"
	TypeHipotiroidismo          Type = "control_hipotiroidismo"
	TypeEPOC                    Type = "control_epoc"
	TypeAsma                    Type = "control_asma"
	TypeIRC                     Type = "control_irc"
	TypeCardiovascular          Type = "control_cardiovascular"
	TypeRiesgoCardiovascular    Type = "control_riesgo_cardiovascular"
	TypeMedicamentos            Type = "control_medicamentos"
	TypeResultados              Type = "control_resultados"
)

// Status tracks the lifecycle of a scheduled control. Reclassification
// recreates the patient's rows in "pendiente".
type Status string

const (
	StatusPendiente  Status = "pendiente"
	StatusProgramado Status = "programado"
	StatusCompletado Status = "completado"
	StatusVencido    Status = "vencido"
	StatusCancelado  Status = "cancelado"
)

// Descriptor is one control the classifier determined a patient needs.
// Urgent reflects whether the control is overdue given the patient's last
// control date, except for controls that are urgent by nature (prenatal)
// or never urgent (mental health screenings, medication reviews).
type Descriptor struct {
	Type          Type
	Name          string
	Description   string
	Urgent        bool
	FrequencyDays int
}

type Control struct {
	Id            *primitive.ObjectID `bson:"_id,omitempty"`
	PatientId     primitive.ObjectID  `bson:"patientId"`
	Type          Type                `bson:"controlType"`
	Name          string              `bson:"name"`
	Description   *string             `bson:"description,omitempty"`
	Status        Status              `bson:"status"`
	IsUrgent      bool                `bson:"isUrgent"`
	FrequencyDays int                 `bson:"frequencyDays"`

	// PriorityScore is copied from the patient at derivation time so lists
	// can be ordered without a join.
	PriorityScore int `bson:"priorityScore"`

	LastDate      *time.Time `bson:"lastDate,omitempty"`
	DueDate       *time.Time `bson:"dueDate,omitempty"`
	ScheduledDate *time.Time `bson:"scheduledDate,omitempty"`
	CompletedDate *time.Time `bson:"completedDate,omitempty"`
	Notes         *string    `bson:"notes,omitempty"`

	CreatedTime time.Time `bson:"createdTime,omitempty"`
	UpdatedTime time.Time `bson:"updatedTime,omitempty"`
}

// Update carries the mutable fields of a control. Setting a scheduled date
// on a pending control moves it to "programado"; setting a completion date
// moves it to "completado".
type Update struct {
	Status        *Status    `json:"status,omitempty"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

type Filter struct {
	PatientId  *string
	Type       *Type
	Status     *Status
	UrgentOnly bool
}

type Stats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"byStatus"`
	ByType      map[string]int `json:"byType"`
	UrgentCount int            `json:"urgentCount"`
}
