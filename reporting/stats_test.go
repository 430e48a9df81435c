package reporting_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/controls"
	"github.com/sage3280/tracker/patients"
	patientsTest "github.com/sage3280/tracker/patients/test"
	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/reporting"
	dbTest "github.com/sage3280/tracker/store/test"
)

var _ = Describe("Reporter", func() {
	var database *mongo.Database
	var patientsRepo patients.Repository
	var alertsRepo alerts.Repository
	var controlsRepo controls.Repository
	var reporter *reporting.Reporter

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

		reporter, err = reporting.NewReporter(reporting.ReporterParams{
			Db:       database,
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

	Describe("Dashboard", func() {
		It("returns zeroes for an empty population", func() {
			dashboard, err := reporter.Dashboard(context.Background())
			Expect(err).ToNot(HaveOccurred())

			Expect(dashboard.Patients.Total).To(Equal(0))
			Expect(dashboard.Patients.Active).To(Equal(0))
			Expect(dashboard.Patients.ContactedRatio).To(BeZero())
			Expect(dashboard.Patients.ByAgeGroup).To(BeEmpty())
			Expect(dashboard.Alerts.Total).To(Equal(0))
			Expect(dashboard.Controls.Total).To(Equal(0))
		})

		It("aggregates the active population", func() {
			seedPatient(func(patient *patients.Patient) {
				patient.Sex = patients.SexFemale
				patient.AgeGroup = pointer.FromAny(patients.AgeGroupAdultez)
				patient.AttentionType = pointer.FromAny(patients.AttentionGrupoA)
				patient.IsContacted = true
			})
			seedPatient(func(patient *patients.Patient) {
				patient.Sex = patients.SexMale
				patient.AgeGroup = pointer.FromAny(patients.AgeGroupVejez)
				patient.AttentionType = pointer.FromAny(patients.AttentionGrupoB)
				patient.HasCardiovascularRisk = true
				patient.CardiovascularRiskLevel = pointer.FromAny(patients.RiskLevelAlto)
			})
			seedPatient(func(patient *patients.Patient) {
				patient.Sex = patients.SexFemale
				patient.AgeGroup = pointer.FromAny(patients.AgeGroupAdultez)
				patient.AttentionType = pointer.FromAny(patients.AttentionGrupoA)
				patient.IsPregnant = true
			})
			seedPatient(func(patient *patients.Patient) {
				patient.AgeGroup = pointer.FromAny(patients.AgeGroupInfancia)
				patient.IsActive = false
			})

			dashboard, err := reporter.Dashboard(context.Background())
			Expect(err).ToNot(HaveOccurred())

			Expect(dashboard.Patients.Total).To(Equal(4))
			Expect(dashboard.Patients.Active).To(Equal(3))
			Expect(dashboard.Patients.Contacted).To(Equal(1))
			Expect(dashboard.Patients.Pregnant).To(Equal(1))
			Expect(dashboard.Patients.WithCardiovascularRisk).To(Equal(1))
			Expect(dashboard.Patients.ContactedRatio).To(BeNumerically("~", 1.0/3.0, 0.001))

			Expect(dashboard.Patients.ByAgeGroup).To(Equal(map[string]int{
				"adultez": 2,
				"vejez":   1,
			}))
			Expect(dashboard.Patients.BySex).To(Equal(map[string]int{
				"F": 2,
				"M": 1,
			}))
			Expect(dashboard.Patients.ByAttentionType).To(Equal(map[string]int{
				"grupo_a": 2,
				"grupo_b": 1,
			}))
			Expect(dashboard.Patients.ByRiskLevel).To(Equal(map[string]int{
				"alto": 1,
			}))
		})

		It("includes alert and control statistics", func() {
			patient := seedPatient(func(patient *patients.Patient) {
				patient.AgeGroup = pointer.FromAny(patients.AgeGroupAdultez)
			})

			err := alertsRepo.ReplaceForPatient(context.Background(), *patient.Id, []alerts.Alert{
				{Type: alerts.TypeTomaPresion, Name: "Toma de presión arterial", Priority: alerts.PriorityAlta},
				{Type: alerts.TypeGlicemia, Name: "Glicemia en ayunas", Priority: alerts.PriorityMedia},
			})
			Expect(err).ToNot(HaveOccurred())

			err = controlsRepo.ReplaceForPatient(context.Background(), *patient.Id, []controls.Control{
				{Type: controls.TypeAdultez, Name: "Control de adultez", Status: controls.StatusVencido, IsUrgent: true, FrequencyDays: 730},
				{Type: controls.TypeSaludOral, Name: "Salud oral", Status: controls.StatusPendiente, FrequencyDays: 365},
			})
			Expect(err).ToNot(HaveOccurred())

			dashboard, err := reporter.Dashboard(context.Background())
			Expect(err).ToNot(HaveOccurred())

			Expect(dashboard.Alerts.Total).To(Equal(2))
			Expect(dashboard.Alerts.ByPriority).To(HaveKeyWithValue("alta", 1))
			Expect(dashboard.Alerts.ByPriority).To(HaveKeyWithValue("media", 1))
			Expect(dashboard.Controls.Total).To(Equal(2))
			Expect(dashboard.Controls.UrgentCount).To(Equal(1))
			Expect(dashboard.Controls.ByStatus).To(HaveKeyWithValue("vencido", 1))
			Expect(dashboard.Controls.ByStatus).To(HaveKeyWithValue("pendiente", 1))
		})
	})
})
