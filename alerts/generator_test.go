package alerts_test

import (
	"time"

	"github.com/mohae/deepcopy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/patients"
	"github.com/sage3280/tracker/pointer"
)

var _ = Describe("Generator", func() {
	var generator *alerts.Generator
	var asOf time.Time

	BeforeEach(func() {
		generator = alerts.NewGenerator(alerts.GeneratorConfig{})
		asOf = time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	})

	Describe("Generate", func() {
		It("returns nothing when the age is unknown", func() {
			patient := &patients.Patient{Sex: patients.SexMale}
			Expect(generator.Generate(patient, nil, asOf)).To(BeEmpty())
		})

		It("limits a healthy adult to the general adult screenings", func() {
			result := generator.Generate(newPatient(30, patients.SexMale), nil, asOf)
			Expect(alertTypes(result)).To(ConsistOf(
				alerts.TypeTomaPresion,
				alerts.TypeMedicionIMC,
				alerts.TypeGlicemia,
				alerts.TypeRefuerzoTetanos,
			))
		})

		It("dates alerts one interval after the last matching exam", func() {
			lastExams := map[alerts.Type]time.Time{
				alerts.TypeTomaPresion: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			}
			result := generator.Generate(newPatient(30, patients.SexMale), lastExams, asOf)

			presion := byAlertType(result, alerts.TypeTomaPresion)
			Expect(presion.DueDate).To(Equal(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)))
		})

		It("dates alerts without exam history from the evaluation date", func() {
			patient := newPatient(30, patients.SexFemale)
			result := generator.Generate(patient, nil, asOf)

			// Urgent rules leave 30 days, the rest 90.
			citologia := byAlertType(result, alerts.TypeCitologia)
			Expect(citologia.DueDate).To(Equal(asOf.AddDate(0, 0, 30)))

			presion := byAlertType(result, alerts.TypeTomaPresion)
			Expect(presion.DueDate).To(Equal(asOf.AddDate(0, 0, 90)))
		})

		It("tightens the glucose screening interval for hypertensive patients", func() {
			lastExams := map[alerts.Type]time.Time{
				alerts.TypeGlicemia: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			}

			healthy := generator.Generate(newPatient(30, patients.SexMale), lastExams, asOf)
			Expect(byAlertType(healthy, alerts.TypeGlicemia).DueDate).
				To(Equal(time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC)))

			hypertensive := newPatient(30, patients.SexMale)
			hypertensive.Chronic.IsHypertensive = true
			result := generator.Generate(hypertensive, lastExams, asOf)
			Expect(byAlertType(result, alerts.TypeGlicemia).DueDate).
				To(Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
		})

		Context("in childhood", func() {
			It("schedules infant growth, development and vaccination checks", func() {
				result := generator.Generate(newPatient(0, patients.SexMale), nil, asOf)
				Expect(alertTypes(result)).To(ConsistOf(
					alerts.TypePesoTalla,
					alerts.TypeTamizajeDesarrollo,
					alerts.TypeVacuna,
				))

				peso := byAlertType(result, alerts.TypePesoTalla)
				Expect(peso.Priority).To(Equal(alerts.PriorityUrgente))
				Expect(peso.Reason).To(ContainSubstring("semestral en primera infancia"))

				vacuna := byAlertType(result, alerts.TypeVacuna)
				Expect(vacuna.Priority).To(Equal(alerts.PriorityAlta))
				Expect(vacuna.Reason).To(Equal("Verificación mensual del esquema PAI en menores de un año"))
			})

			It("relaxes the vaccination and development checks after the first year", func() {
				lastExams := map[alerts.Type]time.Time{
					alerts.TypeVacuna:             asOf,
					alerts.TypeTamizajeDesarrollo: asOf,
				}
				result := generator.Generate(newPatient(3, patients.SexMale), lastExams, asOf)

				Expect(byAlertType(result, alerts.TypeVacuna).DueDate).To(Equal(asOf.AddDate(0, 0, 180)))
				Expect(byAlertType(result, alerts.TypeTamizajeDesarrollo).DueDate).To(Equal(asOf.AddDate(0, 0, 180)))
			})

			It("switches school-age children to annual growth and oral health checks", func() {
				result := generator.Generate(newPatient(10, patients.SexFemale), nil, asOf)
				Expect(alertTypes(result)).To(ConsistOf(
					alerts.TypePesoTalla,
					alerts.TypeSaludOral,
					alerts.TypeAgudezaVisual,
				))

				peso := byAlertType(result, alerts.TypePesoTalla)
				Expect(peso.Priority).To(Equal(alerts.PriorityMedia))
				Expect(peso.Reason).To(ContainSubstring("anual en edad escolar"))
			})
		})

		Context("for women", func() {
			It("starts cervical screening at 25 and adds HPV testing at 30", func() {
				young := generator.Generate(newPatient(24, patients.SexFemale), nil, asOf)
				Expect(alertTypes(young)).NotTo(ContainElement(alerts.TypeCitologia))

				at25 := generator.Generate(newPatient(25, patients.SexFemale), nil, asOf)
				Expect(alertTypes(at25)).To(ContainElement(alerts.TypeCitologia))
				Expect(alertTypes(at25)).NotTo(ContainElement(alerts.TypeVPH))

				at30 := generator.Generate(newPatient(30, patients.SexFemale), nil, asOf)
				Expect(alertTypes(at30)).To(ContainElements(alerts.TypeCitologia, alerts.TypeVPH))
			})

			It("covers mammography between 50 and 69", func() {
				at55 := generator.Generate(newPatient(55, patients.SexFemale), nil, asOf)
				Expect(alertTypes(at55)).To(ContainElement(alerts.TypeMamografia))

				at71 := generator.Generate(newPatient(71, patients.SexFemale), nil, asOf)
				Expect(alertTypes(at71)).NotTo(ContainElement(alerts.TypeMamografia))
			})

			It("adds prenatal surveillance during pregnancy", func() {
				patient := newPatient(28, patients.SexFemale)
				patient.IsPregnant = true
				result := generator.Generate(patient, nil, asOf)

				ecografia := byAlertType(result, alerts.TypeEcografia)
				Expect(ecografia.Priority).To(Equal(alerts.PriorityUrgente))
				Expect(ecografia.Criteria).To(Equal("Paciente gestante"))
				Expect(ecografia.DueDate).To(Equal(asOf.AddDate(0, 0, 30)))

				hemograma := byAlertType(result, alerts.TypeHemograma)
				Expect(hemograma.Priority).To(Equal(alerts.PriorityAlta))
				Expect(hemograma.Reason).To(ContainSubstring("hemograma trimestral"))
			})
		})

		Context("for men", func() {
			It("starts prostate screening at 50", func() {
				at49 := generator.Generate(newPatient(49, patients.SexMale), nil, asOf)
				Expect(alertTypes(at49)).NotTo(ContainElement(alerts.TypePSA))

				at52 := generator.Generate(newPatient(52, patients.SexMale), nil, asOf)
				psa := byAlertType(at52, alerts.TypePSA)
				Expect(psa.Criteria).To(Equal("Hombre, 52 años (≥50)"))
			})
		})

		Context("colorectal screening", func() {
			It("recommends colonoscopy on screening-decade birthdays", func() {
				at50 := generator.Generate(newPatient(50, patients.SexMale), nil, asOf)
				Expect(alertTypes(at50)).To(ContainElements(alerts.TypeSangreOculta, alerts.TypeColonoscopia))

				at52 := generator.Generate(newPatient(52, patients.SexMale), nil, asOf)
				Expect(alertTypes(at52)).To(ContainElement(alerts.TypeSangreOculta))
				Expect(alertTypes(at52)).NotTo(ContainElement(alerts.TypeColonoscopia))
			})

			Context("when colonoscopy is gated on exam history", func() {
				BeforeEach(func() {
					generator = alerts.NewGenerator(alerts.GeneratorConfig{ColonoscopyByHistory: true})
				})

				It("recommends colonoscopy when there is no history", func() {
					result := generator.Generate(newPatient(52, patients.SexMale), nil, asOf)
					Expect(alertTypes(result)).To(ContainElement(alerts.TypeColonoscopia))
				})

				It("skips colonoscopy performed within the last decade", func() {
					lastExams := map[alerts.Type]time.Time{
						alerts.TypeColonoscopia: asOf.AddDate(-5, 0, 0),
					}
					result := generator.Generate(newPatient(52, patients.SexMale), lastExams, asOf)
					Expect(alertTypes(result)).NotTo(ContainElement(alerts.TypeColonoscopia))
				})

				It("recommends colonoscopy once a decade has passed", func() {
					lastExams := map[alerts.Type]time.Time{
						alerts.TypeColonoscopia: asOf.AddDate(-11, 0, 0),
					}
					result := generator.Generate(newPatient(52, patients.SexMale), lastExams, asOf)
					Expect(alertTypes(result)).To(ContainElement(alerts.TypeColonoscopia))
				})
			})
		})

		Context("in older adults", func() {
			It("adds sensory screening and vaccination from 60", func() {
				result := generator.Generate(newPatient(61, patients.SexMale), nil, asOf)
				Expect(alertTypes(result)).To(ContainElements(
					alerts.TypeAgudezaVisual,
					alerts.TypeAgudezaAuditiva,
					alerts.TypeVacunaInfluenza,
					alerts.TypeVacunaNeumococo,
				))

				influenza := byAlertType(result, alerts.TypeVacunaInfluenza)
				Expect(influenza.Priority).To(Equal(alerts.PriorityAlta))
				Expect(influenza.DueDate).To(Equal(asOf.AddDate(0, 0, 30)))
			})
		})

		Context("cardiovascular surveillance", func() {
			It("requests a lipid panel every three years from 40 without risk", func() {
				result := generator.Generate(newPatient(45, patients.SexMale), nil, asOf)

				perfil := byAlertType(result, alerts.TypePerfilLipidico)
				Expect(perfil.Priority).To(Equal(alerts.PriorityMedia))
				Expect(perfil.Reason).To(Equal("Evaluación de riesgo cardiovascular - cada 3 año(s)"))
				Expect(perfil.Criteria).To(Equal("Edad: 45 años, Riesgo CV: a evaluar"))
				Expect(perfil.DueDate).To(Equal(asOf.AddDate(0, 0, 90)))
			})

			It("tightens the lipid panel for patients with cardiovascular risk", func() {
				patient := newPatient(45, patients.SexMale)
				patient.HasCardiovascularRisk = true
				patient.CardiovascularRiskLevel = pointer.FromAny(patients.RiskLevelMedio)
				result := generator.Generate(patient, nil, asOf)

				perfil := byAlertType(result, alerts.TypePerfilLipidico)
				Expect(perfil.Priority).To(Equal(alerts.PriorityAlta))
				Expect(perfil.Reason).To(Equal("Evaluación de riesgo cardiovascular - cada 2 año(s)"))
				Expect(perfil.DueDate).To(Equal(asOf.AddDate(0, 0, 30)))
			})

			It("requests an annual lipid panel at high risk", func() {
				patient := newPatient(35, patients.SexMale)
				patient.HasCardiovascularRisk = true
				patient.CardiovascularRiskLevel = pointer.FromAny(patients.RiskLevelMuyAlto)
				result := generator.Generate(patient, nil, asOf)

				perfil := byAlertType(result, alerts.TypePerfilLipidico)
				Expect(perfil.Reason).To(Equal("Evaluación de riesgo cardiovascular - cada 1 año(s)"))
				Expect(perfil.Criteria).To(Equal("Edad: 35 años, Riesgo CV: muy_alto"))
			})

			It("requests an EKG from 50 and escalates it with heart disease", func() {
				at49 := generator.Generate(newPatient(49, patients.SexMale), nil, asOf)
				Expect(alertTypes(at49)).NotTo(ContainElement(alerts.TypeEKG))

				at55 := generator.Generate(newPatient(55, patients.SexMale), nil, asOf)
				Expect(byAlertType(at55, alerts.TypeEKG).Priority).To(Equal(alerts.PriorityMedia))

				cardiac := newPatient(55, patients.SexMale)
				cardiac.Chronic.HasHeartDisease = true
				result := generator.Generate(cardiac, nil, asOf)
				ekg := byAlertType(result, alerts.TypeEKG)
				Expect(ekg.Priority).To(Equal(alerts.PriorityAlta))
				Expect(ekg.DueDate).To(Equal(asOf.AddDate(0, 0, 30)))
			})
		})

		Context("chronic disease follow-up", func() {
			It("schedules renal and metabolic labs for hypertensive patients", func() {
				patient := newPatient(45, patients.SexMale)
				patient.Chronic.IsHypertensive = true
				result := generator.Generate(patient, nil, asOf)

				Expect(alertTypes(result)).To(ContainElements(
					alerts.TypeCreatinina,
					alerts.TypePotasio,
					alerts.TypeMicroalbuminuria,
					alerts.TypeUroanalisis,
				))

				potasio := byAlertType(result, alerts.TypePotasio)
				Expect(potasio.Priority).To(Equal(alerts.PriorityMedia))
				Expect(potasio.DueDate).To(Equal(asOf.AddDate(0, 0, 90)))
			})

			It("schedules quarterly HbA1c and eye and foot care for diabetic patients", func() {
				patient := newPatient(45, patients.SexMale)
				patient.Chronic.IsDiabetic = true
				result := generator.Generate(patient, nil, asOf)

				hba1c := byAlertType(result, alerts.TypeHbA1c)
				Expect(hba1c.Priority).To(Equal(alerts.PriorityUrgente))

				Expect(alertTypes(result)).To(ContainElements(
					alerts.TypeFondoOjo,
					alerts.TypeValoracionPieDiabetico,
					alerts.TypeCreatinina,
					alerts.TypeMicroalbuminuria,
				))
			})

			It("emits shared labs once, keeping the first matching rule", func() {
				patient := newPatient(45, patients.SexMale)
				patient.Chronic.IsHypertensive = true
				patient.Chronic.IsDiabetic = true
				result := generator.Generate(patient, nil, asOf)

				var creatinina []alerts.Descriptor
				for _, descriptor := range result {
					if descriptor.Type == alerts.TypeCreatinina {
						creatinina = append(creatinina, descriptor)
					}
				}
				Expect(creatinina).To(HaveLen(1))
				Expect(creatinina[0].Criteria).To(Equal("Paciente hipertenso"))

				micro := byAlertType(result, alerts.TypeMicroalbuminuria)
				Expect(micro.Reason).To(Equal("Detección de daño renal en hipertenso - cada 6 meses"))
			})

			It("keeps the COPD spirometry rule over the asthma one", func() {
				patient := newPatient(45, patients.SexMale)
				patient.Chronic.HasCOPD = true
				patient.Chronic.HasAsthma = true
				result := generator.Generate(patient, nil, asOf)

				espirometria := byAlertType(result, alerts.TypeEspirometria)
				Expect(espirometria.Priority).To(Equal(alerts.PriorityAlta))
				Expect(espirometria.Criteria).To(Equal("Paciente con EPOC"))
			})

			It("schedules renal surveillance for chronic kidney disease", func() {
				patient := newPatient(45, patients.SexMale)
				patient.Chronic.HasKidneyDisease = true
				result := generator.Generate(patient, nil, asOf)

				depuracion := byAlertType(result, alerts.TypeDepuracionCreatinina)
				Expect(depuracion.Priority).To(Equal(alerts.PriorityUrgente))

				Expect(alertTypes(result)).To(ContainElements(alerts.TypeBUN, alerts.TypeHemograma))
			})

			It("keeps the prenatal hemogram over the renal one during pregnancy", func() {
				patient := newPatient(30, patients.SexFemale)
				patient.IsPregnant = true
				patient.Chronic.HasKidneyDisease = true
				result := generator.Generate(patient, nil, asOf)

				hemograma := byAlertType(result, alerts.TypeHemograma)
				Expect(hemograma.Criteria).To(Equal("Paciente gestante"))
			})

			It("schedules an annual echocardiogram for established heart disease", func() {
				patient := newPatient(45, patients.SexMale)
				patient.Chronic.HasHeartDisease = true
				result := generator.Generate(patient, nil, asOf)

				eco := byAlertType(result, alerts.TypeEcocardiograma)
				Expect(eco.Priority).To(Equal(alerts.PriorityAlta))
			})
		})

		It("neither mutates its inputs nor varies between identical calls", func() {
			patient := newPatient(55, patients.SexFemale)
			patient.Chronic.IsHypertensive = true
			patient.Chronic.IsDiabetic = true
			lastExams := map[alerts.Type]time.Time{
				alerts.TypeGlicemia:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				alerts.TypeCitologia: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			}

			patientCopy := deepcopy.Copy(patient).(*patients.Patient)
			examsCopy := deepcopy.Copy(lastExams).(map[alerts.Type]time.Time)

			first := generator.Generate(patient, lastExams, asOf)
			second := generator.Generate(patient, lastExams, asOf)

			Expect(second).To(Equal(first))
			Expect(patient).To(Equal(patientCopy))
			Expect(lastExams).To(Equal(examsCopy))
		})
	})

	Describe("Prioritize", func() {
		It("orders by priority rank and then by due date", func() {
			descriptors := []alerts.Descriptor{
				{Type: alerts.TypeGlicemia, Priority: alerts.PriorityBaja, DueDate: asOf},
				{Type: alerts.TypeCitologia, Priority: alerts.PriorityAlta, DueDate: asOf.AddDate(0, 0, 10)},
				{Type: alerts.TypeHbA1c, Priority: alerts.PriorityUrgente, DueDate: asOf.AddDate(0, 0, 60)},
				{Type: alerts.TypeMamografia, Priority: alerts.PriorityAlta, DueDate: asOf.AddDate(0, 0, 5)},
				{Type: alerts.TypeTomaPresion, Priority: alerts.PriorityMedia, DueDate: asOf},
			}

			ordered := alerts.Prioritize(descriptors)
			Expect(alertTypes(ordered)).To(Equal([]alerts.Type{
				alerts.TypeHbA1c,
				alerts.TypeMamografia,
				alerts.TypeCitologia,
				alerts.TypeTomaPresion,
				alerts.TypeGlicemia,
			}))
		})

		It("keeps the original order for full ties", func() {
			descriptors := []alerts.Descriptor{
				{Type: alerts.TypeCreatinina, Priority: alerts.PriorityAlta, DueDate: asOf},
				{Type: alerts.TypeMicroalbuminuria, Priority: alerts.PriorityAlta, DueDate: asOf},
			}

			ordered := alerts.Prioritize(descriptors)
			Expect(alertTypes(ordered)).To(Equal([]alerts.Type{
				alerts.TypeCreatinina,
				alerts.TypeMicroalbuminuria,
			}))
		})
	})
})

func newPatient(age int, sex patients.Sex) *patients.Patient {
	return &patients.Patient{
		Age: pointer.FromAny(age),
		Sex: sex,
	}
}

func alertTypes(descriptors []alerts.Descriptor) []alerts.Type {
	types := make([]alerts.Type, 0, len(descriptors))
	for _, descriptor := range descriptors {
		types = append(types, descriptor.Type)
	}
	return types
}

func byAlertType(descriptors []alerts.Descriptor, typ alerts.Type) alerts.Descriptor {
	GinkgoHelper()
	for _, descriptor := range descriptors {
		if descriptor.Type == typ {
			return descriptor
		}
	}
	Fail("missing alert " + string(typ))
	return alerts.Descriptor{}
}
