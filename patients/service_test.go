package patients_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/deletions"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/patients"
	patientsTest "github.com/sage3280/tracker/patients/test"
	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/test"
)

var _ = Describe("Patients Service", func() {
	var service patients.Service
	var repo *patientsTest.MockRepository
	var repoCtrl *gomock.Controller

	BeforeEach(func() {
		repoCtrl = gomock.NewController(GinkgoT())
		repo = patientsTest.NewMockRepository(repoCtrl)

		var err error
		service, err = patients.NewService(repo, zap.NewNop().Sugar())
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		repoCtrl.Finish()
	})

	Describe("Create", func() {
		It("requires a document number", func() {
			patient := patientsTest.RandomPatient()
			patient.DocumentNumber = ""

			_, err := service.Create(context.Background(), patient)
			Expect(err).To(MatchError(errors.BadRequest))
		})

		It("requires a full name", func() {
			patient := patientsTest.RandomPatient()
			patient.FullName = ""

			_, err := service.Create(context.Background(), patient)
			Expect(err).To(MatchError(errors.BadRequest))
		})

		It("stores new patients active", func() {
			patient := patientsTest.RandomPatient()
			patient.IsActive = false

			repo.EXPECT().
				Create(gomock.Any(), test.Match[patients.Patient](func(p patients.Patient) bool {
					return p.IsActive
				})).
				Return(&patient, nil)

			result, err := service.Create(context.Background(), patient)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).ToNot(BeNil())
		})
	})

	Describe("Update", func() {
		It("keeps the original creation time", func() {
			id := primitive.NewObjectID()
			createdTime := time.Now().Add(-24 * time.Hour)

			existing := patientsTest.RandomPatient()
			existing.Id = &id
			existing.CreatedTime = createdTime

			update := patientsTest.RandomPatient()
			update.DocumentNumber = existing.DocumentNumber

			repo.EXPECT().
				Get(gomock.Any(), gomock.Eq(id.Hex())).
				Return(&existing, nil)
			repo.EXPECT().
				Update(gomock.Any(), gomock.Eq(id.Hex()), test.Match[patients.Patient](func(p patients.Patient) bool {
					return p.CreatedTime.Equal(createdTime)
				})).
				Return(&update, nil)

			_, err := service.Update(context.Background(), id.Hex(), update)
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Describe("Upsert", func() {
		It("creates a patient when the document number is unknown", func() {
			patient := patientsTest.RandomPatient()

			repo.EXPECT().
				GetByDocument(gomock.Any(), gomock.Eq(patient.DocumentNumber)).
				Return(nil, patients.ErrNotFound)
			repo.EXPECT().
				Create(gomock.Any(), gomock.Any()).
				Return(&patient, nil)

			_, created, err := service.Upsert(context.Background(), patient)
			Expect(err).ToNot(HaveOccurred())
			Expect(created).To(BeTrue())
		})

		Context("with an existing patient", func() {
			var id primitive.ObjectID
			var existing patients.Patient

			BeforeEach(func() {
				id = primitive.NewObjectID()
				existing = patientsTest.RandomPatient()
				existing.Id = &id
				existing.Phone = pointer.FromAny("3001234567")
				existing.Measurements.HDL = pointer.FromAny(45.0)
				existing.Chronic.IsHypertensive = true
				existing.IsActive = false
			})

			It("lays the incoming row over the stored record", func() {
				incoming := patients.Patient{
					DocumentNumber: existing.DocumentNumber,
					FullName:       "Nombre Actualizado",
					Email:          pointer.FromAny("nuevo@example.com"),
					Measurements: patients.Measurements{
						SystolicBP: pointer.FromAny(145),
					},
				}

				repo.EXPECT().
					GetByDocument(gomock.Any(), gomock.Eq(existing.DocumentNumber)).
					Return(&existing, nil)
				repo.EXPECT().
					Update(gomock.Any(), gomock.Eq(id.Hex()), test.Match[patients.Patient](func(p patients.Patient) bool {
						return p.FullName == "Nombre Actualizado" &&
							*p.Email == "nuevo@example.com" &&
							*p.Phone == "3001234567" &&
							*p.Measurements.SystolicBP == 145 &&
							*p.Measurements.HDL == 45.0
					})).
					Return(&existing, nil)

				_, created, err := service.Upsert(context.Background(), incoming)
				Expect(err).ToNot(HaveOccurred())
				Expect(created).To(BeFalse())
			})

			It("always refreshes the diagnosis-derived flags", func() {
				incoming := patients.Patient{
					DocumentNumber: existing.DocumentNumber,
					FullName:       existing.FullName,
				}

				repo.EXPECT().
					GetByDocument(gomock.Any(), gomock.Eq(existing.DocumentNumber)).
					Return(&existing, nil)
				repo.EXPECT().
					Update(gomock.Any(), gomock.Eq(id.Hex()), test.Match[patients.Patient](func(p patients.Patient) bool {
						return !p.Chronic.IsHypertensive
					})).
					Return(&existing, nil)

				_, _, err := service.Upsert(context.Background(), incoming)
				Expect(err).ToNot(HaveOccurred())
			})

			It("revives an inactive patient", func() {
				incoming := patients.Patient{
					DocumentNumber: existing.DocumentNumber,
					FullName:       existing.FullName,
				}

				repo.EXPECT().
					GetByDocument(gomock.Any(), gomock.Eq(existing.DocumentNumber)).
					Return(&existing, nil)
				repo.EXPECT().
					Update(gomock.Any(), gomock.Eq(id.Hex()), test.Match[patients.Patient](func(p patients.Patient) bool {
						return p.IsActive
					})).
					Return(&existing, nil)

				_, _, err := service.Upsert(context.Background(), incoming)
				Expect(err).ToNot(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		It("deactivates the patient", func() {
			id := primitive.NewObjectID().Hex()
			metadata := deletions.Metadata{DeletedByUserId: pointer.FromAny("admin")}

			repo.EXPECT().
				Deactivate(gomock.Any(), gomock.Eq(id), gomock.Eq(metadata)).
				Return(nil)

			Expect(service.Delete(context.Background(), id, metadata)).To(Succeed())
		})
	})
})
