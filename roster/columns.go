package roster

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is a canonical roster column. Headers in uploaded files are matched
// against the synonym lists below after normalization, so "Fecha de
// Nacimiento", "FECHA_NACIMIENTO" and "fecha nacimiento" all resolve to
// FieldBirthDate.
type Field string

const (
	FieldDocument     Field = "document"
	FieldDocumentType Field = "documentType"
	FieldFirstName    Field = "firstName"
	FieldLastName     Field = "lastName"
	FieldBirthDate    Field = "birthDate"
	FieldAge          Field = "age"
	FieldSex          Field = "sex"
	FieldPhone        Field = "phone"
	FieldEmail        Field = "email"
	FieldAddress      Field = "address"
	FieldNeighborhood Field = "neighborhood"
	FieldCity         Field = "city"
	FieldEps          Field = "eps"
	FieldTipoConvenio Field = "tipoConvenio"
	FieldDiagnoses    Field = "diagnoses"
	FieldSmoker       Field = "smoker"
	FieldPregnant     Field = "pregnant"

	FieldSystolicBP       Field = "systolicBp"
	FieldDiastolicBP      Field = "diastolicBp"
	FieldTotalCholesterol Field = "totalCholesterol"
	FieldHDL              Field = "hdl"
	FieldLDL              Field = "ldl"
	FieldTriglycerides    Field = "triglycerides"
	FieldGlucose          Field = "glucose"
	FieldHbA1c            Field = "hba1c"
	FieldCreatinine       Field = "creatinine"
	FieldBMI              Field = "bmi"
	FieldWeight           Field = "weight"
	FieldHeight           Field = "height"

	FieldLastGeneralControl Field = "lastGeneralControl"
	FieldLast3280Control    Field = "last3280Control"
	FieldLastHTAControl     Field = "lastHtaControl"
	FieldLastDMControl      Field = "lastDmControl"
)

// requiredFields must all be present for a roster to be processable. The
// list follows the minimum dataset EPS and IPS rosters are contracted to
// carry.
var requiredFields = []Field{
	FieldDocument,
	FieldDocumentType,
	FieldFirstName,
	FieldLastName,
	FieldBirthDate,
	FieldSex,
	FieldPhone,
}

// synonyms lists the normalized header spellings observed in real EPS,
// SISBEN and IPS exports for each canonical field. Earlier entries win when
// a file carries more than one.
var synonyms = map[Field][]string{
	FieldDocument:     {"documento", "cedula", "cc", "identificacion", "doc", "numero_documento", "num_documento", "numero_de_documento"},
	FieldDocumentType: {"tipo_de_documento", "tipo_documento", "tipo_doc", "tipodocumento"},
	FieldFirstName:    {"nombres", "nombre", "primer_nombre", "first_name", "name"},
	FieldLastName:     {"apellidos", "apellido", "primer_apellido", "last_name", "lastname", "surname"},
	FieldBirthDate:    {"fecha_de_nacimiento", "fecha_nacimiento", "nacimiento", "fecha_nac", "fec_nac", "fec_nacimiento", "fechanacimiento", "birth_date", "birthdate", "dob"},
	FieldAge:          {"edad", "age"},
	FieldSex:          {"sexo", "genero", "sex", "gender"},
	FieldPhone:        {"telefono", "celular", "tel", "movil", "phone"},
	FieldEmail:        {"correo", "email", "e-mail", "mail", "correo_electronico"},
	FieldAddress:      {"direccion", "direccion_residencia", "address"},
	FieldNeighborhood: {"barrio___vereda", "barrio_vereda", "barrio", "vereda"},
	FieldCity:         {"municipio", "ciudad", "city"},
	FieldEps:          {"eps", "aseguradora", "eapb"},
	FieldTipoConvenio: {"tipo_de_convenio", "tipo_convenio", "tipoconvenio", "convenio"},
	FieldDiagnoses:    {"diagnosticos_texto_libre_y_o_codigos_cie-10", "diagnosticos", "codigos_cie-10", "codigos_cie10", "diagnostico", "dx", "diagnoses", "patologias"},
	FieldSmoker:       {"fumador", "tabaquismo", "fuma"},
	FieldPregnant:     {"embarazada", "gestante"},

	FieldSystolicBP:       {"presion_sistolica", "pa_sistolica", "sistolica", "tas"},
	FieldDiastolicBP:      {"presion_diastolica", "pa_diastolica", "diastolica", "tad"},
	FieldTotalCholesterol: {"colesterol_total", "colesterol"},
	FieldHDL:              {"hdl", "colesterol_hdl"},
	FieldLDL:              {"ldl", "colesterol_ldl"},
	FieldTriglycerides:    {"trigliceridos"},
	FieldGlucose:          {"glicemia", "glucosa", "glucemia"},
	FieldHbA1c:            {"hba1c", "hemoglobina_glicosilada"},
	FieldCreatinine:       {"creatinina"},
	FieldBMI:              {"imc", "indice_de_masa_corporal", "indice_masa_corporal"},
	FieldWeight:           {"peso", "peso_kg"},
	FieldHeight:           {"talla", "talla_cm", "estatura"},

	FieldLastGeneralControl: {"fecha_ultimo_control_general", "ultimo_control_general", "ult_control_general"},
	FieldLast3280Control:    {"fecha_ultimo_control_3280", "ultimo_control_3280", "ult_control_3280"},
	FieldLastHTAControl:     {"fecha_ultimo_control_hta", "ultimo_control_hta", "ult_control_hta"},
	FieldLastDMControl:      {"fecha_ultimo_control_dm", "ultimo_control_dm", "ult_control_dm"},
}

// ColumnMap resolves canonical fields to zero-based column positions of a
// concrete file.
type ColumnMap map[Field]int

// MapColumns matches a header row against the known synonyms. It returns
// the resolved columns and the required fields no header satisfied, in
// requiredFields order.
func MapColumns(headers []string) (ColumnMap, []Field) {
	positions := make(map[string]int, len(headers))
	for i, header := range headers {
		name := NormalizeHeader(header)
		if name == "" {
			continue
		}
		if _, ok := positions[name]; !ok {
			positions[name] = i
		}
	}

	columns := ColumnMap{}
	for field, names := range synonyms {
		for _, name := range names {
			if position, ok := positions[name]; ok {
				columns[field] = position
				break
			}
		}
	}

	var missing []Field
	for _, field := range requiredFields {
		if _, ok := columns[field]; !ok {
			missing = append(missing, field)
		}
	}

	return columns, missing
}

// Value returns the trimmed cell of a record for a canonical field, or ""
// when the field is unmapped or the record is short.
func (c ColumnMap) Value(record []string, field Field) string {
	position, ok := c[field]
	if !ok || position >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[position])
}

var headerReplacer = strings.NewReplacer(" ", "_", "/", "_", "(", "", ")", "")

// NormalizeHeader folds accents, lowercases and collapses separators so
// header matching is insensitive to the formatting quirks of exported
// spreadsheets.
func NormalizeHeader(header string) string {
	return headerReplacer.Replace(strings.ToLower(strings.TrimSpace(foldAccents(header))))
}

// foldAccents strips combining marks, mapping "Dirección" to "Direccion".
func foldAccents(value string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, value)
	if err != nil {
		return value
	}
	return folded
}
