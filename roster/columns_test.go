package roster_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sage3280/tracker/roster"
)

var _ = Describe("Columns", func() {
	Describe("NormalizeHeader", func() {
		It("folds accents, case and separators", func() {
			Expect(roster.NormalizeHeader("Fecha de Nacimiento")).To(Equal("fecha_de_nacimiento"))
			Expect(roster.NormalizeHeader("  TELÉFONO ")).To(Equal("telefono"))
			Expect(roster.NormalizeHeader("Barrio / Vereda")).To(Equal("barrio___vereda"))
			Expect(roster.NormalizeHeader("Número de Documento")).To(Equal("numero_de_documento"))
		})

		It("handles the long-form diagnosis header", func() {
			header := "Diagnósticos (texto libre y/o códigos CIE-10)"
			Expect(roster.NormalizeHeader(header)).To(Equal("diagnosticos_texto_libre_y_o_codigos_cie-10"))
		})
	})

	Describe("MapColumns", func() {
		It("resolves synonym headers to canonical fields", func() {
			headers := []string{"Cédula", "Tipo Documento", "Nombres", "Apellidos", "Fecha Nacimiento", "Sexo", "Celular", "Diagnósticos"}

			columns, missing := roster.MapColumns(headers)
			Expect(missing).To(BeEmpty())
			Expect(columns).To(HaveKeyWithValue(roster.FieldDocument, 0))
			Expect(columns).To(HaveKeyWithValue(roster.FieldDocumentType, 1))
			Expect(columns).To(HaveKeyWithValue(roster.FieldFirstName, 2))
			Expect(columns).To(HaveKeyWithValue(roster.FieldLastName, 3))
			Expect(columns).To(HaveKeyWithValue(roster.FieldBirthDate, 4))
			Expect(columns).To(HaveKeyWithValue(roster.FieldSex, 5))
			Expect(columns).To(HaveKeyWithValue(roster.FieldPhone, 6))
			Expect(columns).To(HaveKeyWithValue(roster.FieldDiagnoses, 7))
		})

		It("maps measurement and habit columns", func() {
			headers := []string{"Presión Sistólica", "Colesterol Total", "HDL", "Glicemia", "HbA1c", "IMC", "Fumador", "Embarazada"}

			columns, _ := roster.MapColumns(headers)
			Expect(columns).To(HaveKeyWithValue(roster.FieldSystolicBP, 0))
			Expect(columns).To(HaveKeyWithValue(roster.FieldTotalCholesterol, 1))
			Expect(columns).To(HaveKeyWithValue(roster.FieldHDL, 2))
			Expect(columns).To(HaveKeyWithValue(roster.FieldGlucose, 3))
			Expect(columns).To(HaveKeyWithValue(roster.FieldHbA1c, 4))
			Expect(columns).To(HaveKeyWithValue(roster.FieldBMI, 5))
			Expect(columns).To(HaveKeyWithValue(roster.FieldSmoker, 6))
			Expect(columns).To(HaveKeyWithValue(roster.FieldPregnant, 7))
		})

		It("maps per-programme control date columns", func() {
			headers := []string{"Fecha Último Control General", "Fecha Último Control HTA", "Fecha Último Control DM", "Fecha Último Control 3280"}

			columns, _ := roster.MapColumns(headers)
			Expect(columns).To(HaveKeyWithValue(roster.FieldLastGeneralControl, 0))
			Expect(columns).To(HaveKeyWithValue(roster.FieldLastHTAControl, 1))
			Expect(columns).To(HaveKeyWithValue(roster.FieldLastDMControl, 2))
			Expect(columns).To(HaveKeyWithValue(roster.FieldLast3280Control, 3))
		})

		It("reports missing required fields in a stable order", func() {
			columns, missing := roster.MapColumns([]string{"Nombres", "Sexo"})
			Expect(columns).To(HaveKey(roster.FieldFirstName))
			Expect(missing).To(Equal([]roster.Field{
				roster.FieldDocument,
				roster.FieldDocumentType,
				roster.FieldLastName,
				roster.FieldBirthDate,
				roster.FieldPhone,
			}))
		})

		It("keeps the first matching column when a header repeats", func() {
			columns, _ := roster.MapColumns([]string{"Documento", "Documento"})
			Expect(columns).To(HaveKeyWithValue(roster.FieldDocument, 0))
		})
	})

	Describe("Value", func() {
		It("returns empty for unmapped fields and short records", func() {
			columns, _ := roster.MapColumns([]string{"Documento", "Nombres"})
			Expect(columns.Value([]string{" 123 ", "Ana"}, roster.FieldDocument)).To(Equal("123"))
			Expect(columns.Value([]string{"123"}, roster.FieldFirstName)).To(Equal(""))
			Expect(columns.Value([]string{"123", "Ana"}, roster.FieldSex)).To(Equal(""))
		})
	})
})
