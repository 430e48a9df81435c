package reporting

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/controls"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/patients"
	"github.com/sage3280/tracker/store"
)

const (
	SheetNamePatients = "Pacientes"
	SheetNameAlerts   = "Alertas"
	SheetNameControls = "Controles"

	exportPageSize = 500
)

type patientColumn struct {
	key    string
	header string
	value  func(p *patients.Patient) interface{}
}

// patientColumns defines the Pacientes sheet. Options.Columns selects a
// subset by key; the canonical order is always kept.
var patientColumns = []patientColumn{
	{"document", "Documento", func(p *patients.Patient) interface{} { return p.DocumentNumber }},
	{"fullName", "Nombre completo", func(p *patients.Patient) interface{} { return p.FullName }},
	{"birthDate", "Fecha de nacimiento", func(p *patients.Patient) interface{} { return formatDate(p.BirthDate) }},
	{"age", "Edad", func(p *patients.Patient) interface{} {
		if p.Age == nil {
			return ""
		}
		return *p.Age
	}},
	{"sex", "Sexo", func(p *patients.Patient) interface{} { return string(p.Sex) }},
	{"phone", "Teléfono", func(p *patients.Patient) interface{} { return stringValue(p.Phone) }},
	{"eps", "EPS", func(p *patients.Patient) interface{} { return stringValue(p.EpsName) }},
	{"ageGroup", "Curso de vida", func(p *patients.Patient) interface{} {
		if p.AgeGroup == nil {
			return ""
		}
		return string(*p.AgeGroup)
	}},
	{"attentionType", "Grupo de atención", func(p *patients.Patient) interface{} {
		if p.AttentionType == nil {
			return ""
		}
		return string(*p.AttentionType)
	}},
	{"riskLevel", "Riesgo cardiovascular", func(p *patients.Patient) interface{} {
		if p.CardiovascularRiskLevel == nil {
			return ""
		}
		return string(*p.CardiovascularRiskLevel)
	}},
	{"priorityScore", "Puntaje de prioridad", func(p *patients.Patient) interface{} { return p.PriorityScore }},
	{"isContacted", "Contactado", func(p *patients.Patient) interface{} { return yesNo(p.IsContacted) }},
	{"lastControl", "Último control", func(p *patients.Patient) interface{} { return formatDate(p.EffectiveLastControl()) }},
}

type ExporterParams struct {
	fx.In

	Patients patients.Service
	Alerts   alerts.Repository
	Controls controls.Repository
	Logger   *zap.SugaredLogger
}

// Exporter builds the downloadable workbook: the filtered patient listing
// plus the alert and control rows belonging to those patients.
type Exporter struct {
	patients patients.Service
	alerts   alerts.Repository
	controls controls.Repository
	logger   *zap.SugaredLogger
}

func NewExporter(p ExporterParams) (*Exporter, error) {
	return &Exporter{
		patients: p.Patients,
		alerts:   p.Alerts,
		controls: p.Controls,
		logger:   p.Logger,
	}, nil
}

func (e *Exporter) Export(ctx context.Context, options Options) (*xlsx.File, error) {
	if !options.Sheets.Patients && !options.Sheets.Alerts && !options.Sheets.Controls {
		return nil, fmt.Errorf("%w: no sheets selected", errors.BadRequest)
	}

	columns, err := selectColumns(options)
	if err != nil {
		return nil, err
	}

	population, err := e.loadPatients(ctx, options)
	if err != nil {
		return nil, err
	}

	report := xlsx.NewFile()

	components := []func(report *xlsx.File) error{}
	if options.Sheets.Patients {
		components = append(components, func(report *xlsx.File) error {
			return addPatientsSheet(report, population, columns)
		})
	}
	if options.Sheets.Alerts {
		components = append(components, func(report *xlsx.File) error {
			return e.addAlertsSheet(ctx, report, population)
		})
	}
	if options.Sheets.Controls {
		components = append(components, func(report *xlsx.File) error {
			return e.addControlsSheet(ctx, report, population)
		})
	}
	for _, fn := range components {
		if err := fn(report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// ExportBytes renders the workbook for HTTP responses and CLI output.
func (e *Exporter) ExportBytes(ctx context.Context, options Options) ([]byte, error) {
	report, err := e.Export(ctx, options)
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	if err := report.Write(&buffer); err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buffer.Bytes(), nil
}

func (e *Exporter) loadPatients(ctx context.Context, options Options) (map[primitive.ObjectID]*patients.Patient, error) {
	filter := options.PatientFilter()
	population := map[primitive.ObjectID]*patients.Patient{}

	pagination := store.Pagination{Limit: exportPageSize}
	for {
		page, err := e.patients.List(ctx, filter, pagination)
		if err != nil {
			return nil, err
		}
		for _, patient := range page {
			population[*patient.Id] = patient
		}
		if len(page) < pagination.Limit {
			return population, nil
		}
		pagination.Offset += pagination.Limit
	}
}

func addPatientsSheet(report *xlsx.File, population map[primitive.ObjectID]*patients.Patient, columns []patientColumn) error {
	sh, err := report.AddSheet(SheetNamePatients)
	if err != nil {
		return err
	}

	header := sh.AddRow()
	for _, column := range columns {
		header.AddCell().SetValue(column.header)
	}

	for _, patient := range sortedByPriority(population) {
		row := sh.AddRow()
		for _, column := range columns {
			row.AddCell().SetValue(column.value(patient))
		}
	}

	return nil
}

func (e *Exporter) addAlertsSheet(ctx context.Context, report *xlsx.File, population map[primitive.ObjectID]*patients.Patient) error {
	sh, err := report.AddSheet(SheetNameAlerts)
	if err != nil {
		return err
	}

	header := sh.AddRow()
	for _, name := range []string{"Documento", "Paciente", "Tipo", "Alerta", "Prioridad", "Estado", "Motivo", "Fecha de creación", "Fecha límite"} {
		header.AddCell().SetValue(name)
	}

	pagination := store.Pagination{Limit: exportPageSize}
	for {
		page, err := e.alerts.List(ctx, &alerts.Filter{}, pagination)
		if err != nil {
			return err
		}

		for _, alert := range page {
			patient, ok := population[alert.PatientId]
			if !ok {
				continue
			}

			row := sh.AddRow()
			row.AddCell().SetValue(patient.DocumentNumber)
			row.AddCell().SetValue(patient.FullName)
			row.AddCell().SetValue(string(alert.Type))
			row.AddCell().SetValue(alert.Name)
			row.AddCell().SetValue(string(alert.Priority))
			row.AddCell().SetValue(string(alert.Status))
			row.AddCell().SetValue(stringValue(alert.Reason))
			row.AddCell().SetValue(alert.CreatedDate.Format("2006-01-02"))
			row.AddCell().SetValue(formatDate(alert.DueDate))
		}

		if len(page) < pagination.Limit {
			return nil
		}
		pagination.Offset += pagination.Limit
	}
}

func (e *Exporter) addControlsSheet(ctx context.Context, report *xlsx.File, population map[primitive.ObjectID]*patients.Patient) error {
	sh, err := report.AddSheet(SheetNameControls)
	if err != nil {
		return err
	}

	header := sh.AddRow()
	for _, name := range []string{"Documento", "Paciente", "Control", "Nombre", "Estado", "Urgente", "Frecuencia (días)", "Última fecha", "Próxima fecha"} {
		header.AddCell().SetValue(name)
	}

	pagination := store.Pagination{Limit: exportPageSize}
	for {
		page, err := e.controls.List(ctx, &controls.Filter{}, pagination)
		if err != nil {
			return err
		}

		for _, control := range page {
			patient, ok := population[control.PatientId]
			if !ok {
				continue
			}

			row := sh.AddRow()
			row.AddCell().SetValue(patient.DocumentNumber)
			row.AddCell().SetValue(patient.FullName)
			row.AddCell().SetValue(string(control.Type))
			row.AddCell().SetValue(control.Name)
			row.AddCell().SetValue(string(control.Status))
			row.AddCell().SetValue(yesNo(control.IsUrgent))
			row.AddCell().SetValue(control.FrequencyDays)
			row.AddCell().SetValue(formatDate(control.LastDate))
			row.AddCell().SetValue(formatDate(control.DueDate))
		}

		if len(page) < pagination.Limit {
			return nil
		}
		pagination.Offset += pagination.Limit
	}
}

func selectColumns(options Options) ([]patientColumn, error) {
	if len(options.Columns) == 0 {
		return patientColumns, nil
	}

	requested := map[string]struct{}{}
	for _, key := range options.Columns {
		requested[key] = struct{}{}
	}

	columns := make([]patientColumn, 0, len(requested))
	for _, column := range patientColumns {
		if _, ok := requested[column.key]; ok {
			columns = append(columns, column)
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no known columns selected", errors.BadRequest)
	}

	return columns, nil
}

// sortedByPriority orders the sheet by descending priority score, ties by
// document number, so the patients needing attention first are on top.
func sortedByPriority(population map[primitive.ObjectID]*patients.Patient) []*patients.Patient {
	sorted := make([]*patients.Patient, 0, len(population))
	for _, patient := range population {
		sorted = append(sorted, patient)
	}

	slices.SortFunc(sorted, func(a, b *patients.Patient) int {
		if a.PriorityScore != b.PriorityScore {
			return b.PriorityScore - a.PriorityScore
		}
		return strings.Compare(a.DocumentNumber, b.DocumentNumber)
	})
	return sorted
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02")
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func yesNo(value bool) string {
	if value {
		return "Sí"
	}
	return "No"
}
