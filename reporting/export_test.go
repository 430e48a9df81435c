package reporting_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tealeg/xlsx/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/controls"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/patients"
	patientsTest "github.com/sage3280/tracker/patients/test"
	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/reporting"
	dbTest "github.com/sage3280/tracker/store/test"
)

const (
	// patientsSheetIdx is the 0-based index of the patients sheet in the xlsx.
	patientsSheetIdx = 0
	// alertsSheetIdx is the 0-based index of the alerts sheet in the xlsx.
	alertsSheetIdx = 1
	// controlsSheetIdx is the 0-based index of the controls sheet in the xlsx.
	controlsSheetIdx = 2
	// firstDataRowIdx is the 0-based index of the first data row in a sheet.
	firstDataRowIdx = 1
	// documentColIdx is the 0-based index of the document column.
	documentColIdx = 0
	// fullNameColIdx is the 0-based index of the patient name column.
	fullNameColIdx = 1
)

var _ = Describe("Exporter", func() {
	var database *mongo.Database
	var patientsRepo patients.Repository
	var alertsRepo alerts.Repository
	var controlsRepo controls.Repository
	var exporter *reporting.Exporter

	BeforeEach(func() {
		database = dbTest.GetTestDatabase()
		for _, name := range []string{patients.CollectionName, alerts.CollectionName, controls.CollectionName} {
			_, err := database.Collection(name).DeleteMany(context.Background(), bson.M{})
			Expect(err).ToNot(HaveOccurred())
		}

		lifecycle := fxtest.NewLifecycle(GinkgoT())
		lgr := zap.NewNop().Sugar()

		var err error
		patientsRepo, err = patients.NewRepository(database, lgr, lifecycle)
		Expect(err).ToNot(HaveOccurred())

		alertsRepo, err = alerts.NewRepository(database, lgr, lifecycle)
		Expect(err).ToNot(HaveOccurred())

		controlsRepo, err = controls.NewRepository(database, lgr, lifecycle)
		Expect(err).ToNot(HaveOccurred())

		patientsSvc, err := patients.NewService(patientsRepo, lgr)
		Expect(err).ToNot(HaveOccurred())

		exporter, err = reporting.NewExporter(reporting.ExporterParams{
			Patients: patientsSvc,
			Alerts:   alertsRepo,
			Controls: controlsRepo,
			Logger:   lgr,
		})
		Expect(err).ToNot(HaveOccurred())

		lifecycle.RequireStart()
	})

	seedPatient := func(mutate func(patient *patients.Patient)) *patients.Patient {
		GinkgoHelper()
		patient := patientsTest.RandomPatient()
		mutate(&patient)
		created, err := patientsRepo.Create(context.Background(), patient)
		Expect(err).ToNot(HaveOccurred())
		return created
	}

	Describe("Export", func() {
		It("rejects exports with no sheets selected", func() {
			options := reporting.DefaultOptions()
			options.Sheets = reporting.SheetToggles{}

			_, err := exporter.Export(context.Background(), options)
			Expect(err).To(MatchError(errors.BadRequest))
		})

		It("rejects unknown column selections", func() {
			options := reporting.DefaultOptions()
			options.Columns = []string{"nonexistent"}

			_, err := exporter.Export(context.Background(), options)
			Expect(err).To(MatchError(errors.BadRequest))
		})

		It("orders the patients sheet by descending priority", func() {
			seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "500"
				patient.PriorityScore = 50
			})
			seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "900"
				patient.FullName = "Vera Vargas"
				patient.PriorityScore = 90
				patient.IsContacted = true
			})
			seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "200"
				patient.PriorityScore = 20
			})
			seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "999"
				patient.IsActive = false
			})

			report, err := exporter.Export(context.Background(), reporting.DefaultOptions())
			Expect(err).ToNot(HaveOccurred())

			m, err := report.ToSlice()
			Expect(err).ToNot(HaveOccurred())

			sheet := m[patientsSheetIdx]
			Expect(sheet[0][documentColIdx]).To(Equal("Documento"))
			Expect(sheet[0][fullNameColIdx]).To(Equal("Nombre completo"))
			Expect(sheet[0]).To(HaveLen(13))

			Expect(sheet).To(HaveLen(4))
			Expect(sheet[firstDataRowIdx][documentColIdx]).To(Equal("900"))
			Expect(sheet[firstDataRowIdx+1][documentColIdx]).To(Equal("500"))
			Expect(sheet[firstDataRowIdx+2][documentColIdx]).To(Equal("200"))

			Expect(sheet[firstDataRowIdx][fullNameColIdx]).To(Equal("Vera Vargas"))
			Expect(sheet[firstDataRowIdx][11]).To(Equal("Sí"))
			Expect(sheet[firstDataRowIdx+1][11]).To(Equal("No"))
		})

		It("joins alerts and controls to the exported population", func() {
			first := seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "900"
				patient.FullName = "Vera Vargas"
				patient.PriorityScore = 90
			})
			second := seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "500"
				patient.FullName = "Simón Soto"
				patient.PriorityScore = 50
			})

			err := alertsRepo.ReplaceForPatient(context.Background(), *first.Id, []alerts.Alert{
				{
					Type:     alerts.TypeTomaPresion,
					Name:     "Toma de presión arterial",
					Priority: alerts.PriorityAlta,
					Reason:   pointer.FromAny("sin registro de presión arterial"),
					DueDate:  pointer.FromAny(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
				},
			})
			Expect(err).ToNot(HaveOccurred())

			err = controlsRepo.ReplaceForPatient(context.Background(), *second.Id, []controls.Control{
				{
					Type:          controls.TypeAdultez,
					Name:          "Control de adultez",
					Status:        controls.StatusVencido,
					IsUrgent:      true,
					FrequencyDays: 730,
				},
			})
			Expect(err).ToNot(HaveOccurred())

			report, err := exporter.Export(context.Background(), reporting.DefaultOptions())
			Expect(err).ToNot(HaveOccurred())

			m, err := report.ToSlice()
			Expect(err).ToNot(HaveOccurred())

			alertsSheet := m[alertsSheetIdx]
			Expect(alertsSheet).To(HaveLen(2))
			Expect(alertsSheet[firstDataRowIdx][documentColIdx]).To(Equal("900"))
			Expect(alertsSheet[firstDataRowIdx][fullNameColIdx]).To(Equal("Vera Vargas"))
			Expect(alertsSheet[firstDataRowIdx][2]).To(Equal("toma_presion"))
			Expect(alertsSheet[firstDataRowIdx][4]).To(Equal("alta"))
			Expect(alertsSheet[firstDataRowIdx][5]).To(Equal("activa"))
			Expect(alertsSheet[firstDataRowIdx][8]).To(Equal("2026-03-01"))

			controlsSheet := m[controlsSheetIdx]
			Expect(controlsSheet).To(HaveLen(2))
			Expect(controlsSheet[firstDataRowIdx][documentColIdx]).To(Equal("500"))
			Expect(controlsSheet[firstDataRowIdx][2]).To(Equal("control_adultez"))
			Expect(controlsSheet[firstDataRowIdx][4]).To(Equal("vencido"))
			Expect(controlsSheet[firstDataRowIdx][5]).To(Equal("Sí"))
			Expect(controlsSheet[firstDataRowIdx][6]).To(Equal("730"))
		})

		It("filters the population before exporting", func() {
			older := seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "900"
				patient.AgeGroup = pointer.FromAny(patients.AgeGroupVejez)
			})
			younger := seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "500"
				patient.AgeGroup = pointer.FromAny(patients.AgeGroupAdultez)
			})

			for _, patient := range []*patients.Patient{older, younger} {
				err := alertsRepo.ReplaceForPatient(context.Background(), *patient.Id, []alerts.Alert{
					{Type: alerts.TypeGlicemia, Name: "Glicemia en ayunas", Priority: alerts.PriorityMedia},
				})
				Expect(err).ToNot(HaveOccurred())
			}

			options := reporting.DefaultOptions()
			options.Filter.AgeGroup = pointer.FromAny("vejez")

			report, err := exporter.Export(context.Background(), options)
			Expect(err).ToNot(HaveOccurred())

			m, err := report.ToSlice()
			Expect(err).ToNot(HaveOccurred())

			Expect(m[patientsSheetIdx]).To(HaveLen(2))
			Expect(m[patientsSheetIdx][firstDataRowIdx][documentColIdx]).To(Equal("900"))

			// Alerts of patients outside the filter stay out of the workbook.
			Expect(m[alertsSheetIdx]).To(HaveLen(2))
			Expect(m[alertsSheetIdx][firstDataRowIdx][documentColIdx]).To(Equal("900"))
		})

		It("restricts the patients sheet to the requested columns", func() {
			seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "900"
				patient.PriorityScore = 90
			})

			options := reporting.DefaultOptions()
			options.Sheets = reporting.SheetToggles{Patients: true}
			options.Columns = []string{"priorityScore", "document"}

			report, err := exporter.Export(context.Background(), options)
			Expect(err).ToNot(HaveOccurred())

			m, err := report.ToSlice()
			Expect(err).ToNot(HaveOccurred())

			Expect(m).To(HaveLen(1))
			Expect(m[patientsSheetIdx][0]).To(Equal([]string{"Documento", "Puntaje de prioridad"}))
			Expect(m[patientsSheetIdx][firstDataRowIdx]).To(Equal([]string{"900", "90"}))
		})

		It("omits sheets that are toggled off", func() {
			seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "900"
			})

			options := reporting.DefaultOptions()
			options.Sheets = reporting.SheetToggles{Alerts: true, Controls: true}

			report, err := exporter.Export(context.Background(), options)
			Expect(err).ToNot(HaveOccurred())

			Expect(report.Sheets).To(HaveLen(2))
			Expect(report.Sheets[0].Name).To(Equal(reporting.SheetNameAlerts))
			Expect(report.Sheets[1].Name).To(Equal(reporting.SheetNameControls))
		})
	})

	Describe("ExportBytes", func() {
		It("produces a workbook readable from bytes", func() {
			seedPatient(func(patient *patients.Patient) {
				patient.DocumentNumber = "900"
				patient.FullName = "Vera Vargas"
			})

			bs, err := exporter.ExportBytes(context.Background(), reporting.DefaultOptions())
			Expect(err).ToNot(HaveOccurred())
			Expect(bs).ToNot(BeEmpty())

			report, err := xlsx.OpenBinary(bs)
			Expect(err).ToNot(HaveOccurred())
			Expect(report.Sheet).To(HaveKey(reporting.SheetNamePatients))

			m, err := report.ToSlice()
			Expect(err).ToNot(HaveOccurred())
			Expect(m[patientsSheetIdx][firstDataRowIdx][documentColIdx]).To(Equal("900"))
			Expect(m[patientsSheetIdx][firstDataRowIdx][fullNameColIdx]).To(Equal("Vera Vargas"))
		})
	})
})
