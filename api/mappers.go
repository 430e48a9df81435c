package api

import (
	"time"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/controls"
	"github.com/sage3280/tracker/exams"
	"github.com/sage3280/tracker/patients"
	"github.com/sage3280/tracker/roster"
)

type PatientDto struct {
	Id             string     `json:"id"`
	DocumentType   *string    `json:"documentType,omitempty"`
	DocumentNumber string     `json:"documentNumber"`
	FullName       string     `json:"fullName"`
	BirthDate      *time.Time `json:"birthDate,omitempty"`
	Age            *int       `json:"age,omitempty"`
	Sex            string     `json:"sex"`
	Phone          *string    `json:"phone,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Address        *string    `json:"address,omitempty"`
	Neighborhood   *string    `json:"neighborhood,omitempty"`
	City           *string    `json:"city,omitempty"`
	EpsCode        *string    `json:"epsCode,omitempty"`
	EpsName        *string    `json:"epsName,omitempty"`
	TipoConvenio   *string    `json:"tipoConvenio,omitempty"`

	Diagnoses  *string                    `json:"diagnoses,omitempty"`
	Chronic    patients.ChronicConditions `json:"chronicConditions"`
	IsPregnant bool                       `json:"isPregnant"`
	IsSmoker   bool                       `json:"isSmoker"`

	Measurements MeasurementsDto `json:"measurements"`

	LastControlDate *time.Time `json:"lastControlDate,omitempty"`

	AgeGroup                *patients.AgeGroup      `json:"ageGroup,omitempty"`
	AttentionType           *patients.AttentionType `json:"attentionType,omitempty"`
	HasCardiovascularRisk   bool                    `json:"hasCardiovascularRisk"`
	CardiovascularRiskLevel *patients.RiskLevel     `json:"cardiovascularRiskLevel,omitempty"`
	PriorityScore           int                     `json:"priorityScore"`

	IsContacted  bool       `json:"isContacted"`
	ContactedAt  *time.Time `json:"contactedAt,omitempty"`
	ContactNotes *string    `json:"contactNotes,omitempty"`

	IsActive    bool      `json:"isActive"`
	CreatedTime time.Time `json:"createdTime"`
	UpdatedTime time.Time `json:"updatedTime"`
}

type MeasurementsDto struct {
	SystolicBP       *int     `json:"systolicBp,omitempty"`
	DiastolicBP      *int     `json:"diastolicBp,omitempty"`
	TotalCholesterol *float64 `json:"totalCholesterol,omitempty"`
	HDL              *float64 `json:"hdl,omitempty"`
	LDL              *float64 `json:"ldl,omitempty"`
	Triglycerides    *float64 `json:"triglycerides,omitempty"`
	Glucose          *float64 `json:"glucose,omitempty"`
	HbA1c            *float64 `json:"hba1c,omitempty"`
	Creatinine       *float64 `json:"creatinine,omitempty"`
	BMI              *float64 `json:"bmi,omitempty"`
	WeightKg         *float64 `json:"weightKg,omitempty"`
	HeightCm         *float64 `json:"heightCm,omitempty"`
}

func NewPatientDto(patient *patients.Patient) PatientDto {
	return PatientDto{
		Id:             patient.Id.Hex(),
		DocumentType:   patient.DocumentType,
		DocumentNumber: patient.DocumentNumber,
		FullName:       patient.FullName,
		BirthDate:      patient.BirthDate,
		Age:            patient.Age,
		Sex:            string(patient.Sex),
		Phone:          patient.Phone,
		Email:          patient.Email,
		Address:        patient.Address,
		Neighborhood:   patient.Neighborhood,
		City:           patient.City,
		EpsCode:        patient.EpsCode,
		EpsName:        patient.EpsName,
		TipoConvenio:   patient.TipoConvenio,

		Diagnoses:  patient.Diagnoses,
		Chronic:    patient.Chronic,
		IsPregnant: patient.IsPregnant,
		IsSmoker:   patient.IsSmoker,

		Measurements: MeasurementsDto(patient.Measurements),

		LastControlDate: patient.EffectiveLastControl(),

		AgeGroup:                patient.AgeGroup,
		AttentionType:           patient.AttentionType,
		HasCardiovascularRisk:   patient.HasCardiovascularRisk,
		CardiovascularRiskLevel: patient.CardiovascularRiskLevel,
		PriorityScore:           patient.PriorityScore,

		IsContacted:  patient.IsContacted,
		ContactedAt:  patient.ContactedAt,
		ContactNotes: patient.ContactNotes,

		IsActive:    patient.IsActive,
		CreatedTime: patient.CreatedTime,
		UpdatedTime: patient.UpdatedTime,
	}
}

func NewPatientDtos(list []*patients.Patient) []PatientDto {
	dtos := make([]PatientDto, 0, len(list))
	for _, patient := range list {
		dtos = append(dtos, NewPatientDto(patient))
	}
	return dtos
}

type PatientRequest struct {
	DocumentType   *string    `json:"documentType,omitempty"`
	DocumentNumber string     `json:"documentNumber" validate:"required"`
	FullName       string     `json:"fullName" validate:"required"`
	BirthDate      *time.Time `json:"birthDate,omitempty"`
	Age            *int       `json:"age,omitempty" validate:"omitempty,gte=0,lte=130"`
	Sex            string     `json:"sex" validate:"omitempty,oneof=M F O"`
	Phone          *string    `json:"phone,omitempty"`
	Email          *string    `json:"email,omitempty" validate:"omitempty,email"`
	Address        *string    `json:"address,omitempty"`
	Neighborhood   *string    `json:"neighborhood,omitempty"`
	City           *string    `json:"city,omitempty"`
	EpsCode        *string    `json:"epsCode,omitempty"`
	EpsName        *string    `json:"epsName,omitempty"`
	TipoConvenio   *string    `json:"tipoConvenio,omitempty"`

	Diagnoses  *string                    `json:"diagnoses,omitempty"`
	Chronic    patients.ChronicConditions `json:"chronicConditions"`
	IsPregnant bool                       `json:"isPregnant"`
	IsSmoker   bool                       `json:"isSmoker"`

	Measurements MeasurementsDto `json:"measurements"`

	LastControlDate *time.Time `json:"lastControlDate,omitempty"`
}

func (r PatientRequest) Patient() patients.Patient {
	return patients.Patient{
		DocumentType:   r.DocumentType,
		DocumentNumber: r.DocumentNumber,
		FullName:       r.FullName,
		BirthDate:      r.BirthDate,
		Age:            r.Age,
		Sex:            patients.Sex(r.Sex),
		Phone:          r.Phone,
		Email:          r.Email,
		Address:        r.Address,
		Neighborhood:   r.Neighborhood,
		City:           r.City,
		EpsCode:        r.EpsCode,
		EpsName:        r.EpsName,
		TipoConvenio:   r.TipoConvenio,

		Diagnoses:  r.Diagnoses,
		Chronic:    r.Chronic,
		IsPregnant: r.IsPregnant,
		IsSmoker:   r.IsSmoker,

		Measurements: patients.Measurements(r.Measurements),

		LastControlDate: r.LastControlDate,
	}
}

type AlertDto struct {
	Id        string          `json:"id"`
	PatientId string          `json:"patientId"`
	Type      alerts.Type     `json:"alertType"`
	Name      string          `json:"name"`
	Priority  alerts.Priority `json:"priority"`
	Status    alerts.Status   `json:"status"`

	Reason   *string `json:"reason,omitempty"`
	Criteria *string `json:"criteria,omitempty"`

	CreatedDate   time.Time  `json:"createdDate"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	NotifiedDate  *time.Time `json:"notifiedDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`

	ActionTaken *string `json:"actionTaken,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

func NewAlertDto(alert *alerts.Alert) AlertDto {
	return AlertDto{
		Id:        alert.Id.Hex(),
		PatientId: alert.PatientId.Hex(),
		Type:      alert.Type,
		Name:      alert.Name,
		Priority:  alert.Priority,
		Status:    alert.Status,

		Reason:   alert.Reason,
		Criteria: alert.Criteria,

		CreatedDate:   alert.CreatedDate,
		DueDate:       alert.DueDate,
		NotifiedDate:  alert.NotifiedDate,
		CompletedDate: alert.CompletedDate,

		ActionTaken: alert.ActionTaken,
		Notes:       alert.Notes,
	}
}

func NewAlertDtos(list []*alerts.Alert) []AlertDto {
	dtos := make([]AlertDto, 0, len(list))
	for _, alert := range list {
		dtos = append(dtos, NewAlertDto(alert))
	}
	return dtos
}

type ControlDto struct {
	Id            string          `json:"id"`
	PatientId     string          `json:"patientId"`
	Type          controls.Type   `json:"controlType"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Status        controls.Status `json:"status"`
	IsUrgent      bool            `json:"isUrgent"`
	FrequencyDays int             `json:"frequencyDays"`
	PriorityScore int             `json:"priorityScore"`

	LastDate      *time.Time `json:"lastDate,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

func NewControlDto(control *controls.Control) ControlDto {
	return ControlDto{
		Id:            control.Id.Hex(),
		PatientId:     control.PatientId.Hex(),
		Type:          control.Type,
		Name:          control.Name,
		Description:   control.Description,
		Status:        control.Status,
		IsUrgent:      control.IsUrgent,
		FrequencyDays: control.FrequencyDays,
		PriorityScore: control.PriorityScore,

		LastDate:      control.LastDate,
		DueDate:       control.DueDate,
		ScheduledDate: control.ScheduledDate,
		CompletedDate: control.CompletedDate,
		Notes:         control.Notes,
	}
}

func NewControlDtos(list []*controls.Control) []ControlDto {
	dtos := make([]ControlDto, 0, len(list))
	for _, control := range list {
		dtos = append(dtos, NewControlDto(control))
	}
	return dtos
}

type ExamDto struct {
	Id        string      `json:"id"`
	PatientId string      `json:"patientId"`
	ExamType  alerts.Type `json:"examType"`
	Name      string      `json:"name"`
	ExamDate  time.Time   `json:"examDate"`

	Result       exams.Result `json:"result"`
	Value        *string      `json:"value,omitempty"`
	NumericValue *float64     `json:"numericValue,omitempty"`
	Unit         *string      `json:"unit,omitempty"`
	Notes        *string      `json:"notes,omitempty"`

	Provider  *string `json:"provider,omitempty"`
	OrderedBy *string `json:"orderedBy,omitempty"`
}

func NewExamDto(exam *exams.Exam) ExamDto {
	return ExamDto{
		Id:        exam.Id.Hex(),
		PatientId: exam.PatientId.Hex(),
		ExamType:  exam.ExamType,
		Name:      exam.Name,
		ExamDate:  exam.ExamDate,

		Result:       exam.Result,
		Value:        exam.Value,
		NumericValue: exam.NumericValue,
		Unit:         exam.Unit,
		Notes:        exam.Notes,

		Provider:  exam.Provider,
		OrderedBy: exam.OrderedBy,
	}
}

type UploadDto struct {
	Id               string              `json:"id"`
	OriginalFilename string              `json:"originalFilename"`
	FileSize         int64               `json:"fileSize"`
	Status           roster.UploadStatus `json:"status"`

	TotalRows     int `json:"totalRows"`
	ProcessedRows int `json:"processedRows"`
	CreatedRows   int `json:"createdRows"`
	UpdatedRows   int `json:"updatedRows"`
	FailedRows    int `json:"failedRows"`

	RowErrors         []RowErrorDto             `json:"rowErrors,omitempty"`
	DuplicateClusters []roster.DuplicateCluster `json:"duplicateClusters,omitempty"`
	ErrorMessage      *string                   `json:"errorMessage,omitempty"`

	UploadedBy  *string    `json:"uploadedBy,omitempty"`
	CreatedTime time.Time  `json:"createdTime"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type RowErrorDto struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func NewUploadDto(upload *roster.Upload) UploadDto {
	rowErrors := make([]RowErrorDto, 0, len(upload.RowErrors))
	for _, rowError := range upload.RowErrors {
		rowErrors = append(rowErrors, RowErrorDto(rowError))
	}

	return UploadDto{
		Id:               upload.Id.Hex(),
		OriginalFilename: upload.OriginalFilename,
		FileSize:         upload.FileSize,
		Status:           upload.Status,

		TotalRows:     upload.TotalRows,
		ProcessedRows: upload.ProcessedRows,
		CreatedRows:   upload.CreatedRows,
		UpdatedRows:   upload.UpdatedRows,
		FailedRows:    upload.FailedRows,

		RowErrors:         rowErrors,
		DuplicateClusters: upload.DuplicateClusters,
		ErrorMessage:      upload.ErrorMessage,

		UploadedBy:  upload.UploadedBy,
		CreatedTime: upload.CreatedTime,
		CompletedAt: upload.CompletedAt,
	}
}
