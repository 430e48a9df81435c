package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/sage3280/tracker/classification"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/patients"
	"github.com/sage3280/tracker/pointer"
)

var ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", errors.BadRequest)

// Row is a single parsed roster line. Number is the 1-based data row
// position, excluding the header, so error reports match what the operator
// sees in the spreadsheet.
type Row struct {
	Number  int
	Patient patients.Patient
}

// ParseResult is the outcome of reading one roster file. Rows sharing a
// document number are collapsed to the last occurrence, so len(Rows) can be
// lower than Total even when nothing was skipped.
type ParseResult struct {
	Rows    []Row
	Total   int
	Skipped int
}

// Parser turns roster spreadsheets into patient records.
type Parser struct {
	diagnoses *DiagnosisParser
}

func NewParser(diagnoses *DiagnosisParser) *Parser {
	return &Parser{diagnoses: diagnoses}
}

// ParseFile reads a roster from disk, dispatching on the file extension.
// xlsx workbooks and csv exports are supported; the legacy binary xls
// format is not.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	var records [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		records, err = readWorkbook(path)
	case ".csv":
		records, err = readCSV(path)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return p.extract(records)
}

func (p *Parser) extract(records [][]string) (*ParseResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: the file has no header row", errors.BadRequest)
	}

	columns, missing := MapColumns(records[0])
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, field := range missing {
			names = append(names, string(field))
		}
		return nil, fmt.Errorf("%w: missing required columns: %s", errors.BadRequest, strings.Join(names, ", "))
	}

	result := &ParseResult{}
	rowByDocument := map[string]int{}

	for i, record := range records[1:] {
		result.Total++

		row, ok := p.parseRow(columns, record, i+1)
		if !ok {
			result.Skipped++
			continue
		}

		// Repeated documents within one file: the last row wins.
		if at, seen := rowByDocument[row.Patient.DocumentNumber]; seen {
			result.Rows[at] = row
			continue
		}
		rowByDocument[row.Patient.DocumentNumber] = len(result.Rows)
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

func (p *Parser) parseRow(columns ColumnMap, record []string, number int) (Row, bool) {
	document := normalizeDocument(columns.Value(record, FieldDocument))
	if document == "" {
		return Row{}, false
	}

	firstName := columns.Value(record, FieldFirstName)
	lastName := columns.Value(record, FieldLastName)
	if firstName == "" && lastName == "" {
		return Row{}, false
	}

	patient := patients.Patient{
		DocumentNumber: document,
		FullName:       strings.TrimSpace(firstName + " " + lastName),
		Sex:            normalizeSex(columns.Value(record, FieldSex)),
	}

	if value := columns.Value(record, FieldDocumentType); value != "" {
		patient.DocumentType = pointer.FromAny(value)
	}
	if birthDate := parseDate(columns.Value(record, FieldBirthDate)); birthDate != nil {
		patient.BirthDate = birthDate
		if years := classification.AgeAt(*birthDate, time.Now()); years >= 0 {
			patient.Age = pointer.FromAny(years)
		}
	} else if age := parseInt(columns.Value(record, FieldAge)); age != nil {
		patient.Age = age
	}

	patient.Phone = optionalString(columns.Value(record, FieldPhone))
	patient.Email = optionalString(columns.Value(record, FieldEmail))
	patient.Address = optionalString(columns.Value(record, FieldAddress))
	patient.Neighborhood = optionalString(columns.Value(record, FieldNeighborhood))
	patient.City = optionalString(columns.Value(record, FieldCity))
	patient.EpsName = optionalString(columns.Value(record, FieldEps))
	patient.TipoConvenio = optionalString(columns.Value(record, FieldTipoConvenio))

	if text := columns.Value(record, FieldDiagnoses); text != "" {
		patient.Diagnoses = pointer.FromAny(text)

		parsed := p.diagnoses.Parse(text)
		patient.Chronic = parsed.Chronic
		patient.IsPregnant = parsed.IsPregnant
	}
	if parseBool(columns.Value(record, FieldSmoker)) {
		patient.IsSmoker = true
	}
	if parseBool(columns.Value(record, FieldPregnant)) {
		patient.IsPregnant = true
	}

	patient.Measurements = patients.Measurements{
		SystolicBP:       parseInt(columns.Value(record, FieldSystolicBP)),
		DiastolicBP:      parseInt(columns.Value(record, FieldDiastolicBP)),
		TotalCholesterol: parseFloat(columns.Value(record, FieldTotalCholesterol)),
		HDL:              parseFloat(columns.Value(record, FieldHDL)),
		LDL:              parseFloat(columns.Value(record, FieldLDL)),
		Triglycerides:    parseFloat(columns.Value(record, FieldTriglycerides)),
		Glucose:          parseFloat(columns.Value(record, FieldGlucose)),
		HbA1c:            parseFloat(columns.Value(record, FieldHbA1c)),
		Creatinine:       parseFloat(columns.Value(record, FieldCreatinine)),
		BMI:              parseFloat(columns.Value(record, FieldBMI)),
		WeightKg:         parseFloat(columns.Value(record, FieldWeight)),
		HeightCm:         parseFloat(columns.Value(record, FieldHeight)),
	}

	patient.LastGeneralControl = parseDate(columns.Value(record, FieldLastGeneralControl))
	patient.Last3280Control = parseDate(columns.Value(record, FieldLast3280Control))
	patient.LastHTAControl = parseDate(columns.Value(record, FieldLastHTAControl))
	patient.LastDMControl = parseDate(columns.Value(record, FieldLastDMControl))

	return Row{Number: number, Patient: patient}, true
}

func readWorkbook(path string) ([][]string, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening roster workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("%w: the workbook has no sheets", errors.BadRequest)
	}

	sheet := file.Sheets[0]
	records := make([][]string, 0, sheet.MaxRow)
	err = sheet.ForEachRow(func(row *xlsx.Row) error {
		record := make([]string, sheet.MaxCol)
		for i := 0; i < sheet.MaxCol; i++ {
			record[i] = cellValue(row.GetCell(i))
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading roster workbook: %w", err)
	}

	return records, nil
}

func cellValue(cell *xlsx.Cell) string {
	if cell == nil {
		return ""
	}
	if cell.IsTime() {
		if value, err := cell.GetTime(false); err == nil {
			return value.Format("2006-01-02")
		}
	}
	return strings.TrimSpace(cell.String())
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening roster file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errors.BadRequest, err.Error())
	}
	return records, nil
}

// dateLayouts are tried in order. dd/mm beats mm/dd for ambiguous values,
// matching how Colombian rosters are written.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
}

func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}

func normalizeSex(value string) patients.Sex {
	switch strings.ToUpper(strings.TrimSpace(foldAccents(value))) {
	case "":
		return ""
	case "M", "MASCULINO", "HOMBRE", "MALE", "1":
		return patients.SexMale
	case "F", "FEMENINO", "MUJER", "FEMALE", "2":
		return patients.SexFemale
	default:
		return patients.SexOther
	}
}

// normalizeDocument strips the separators and float artifacts numeric
// document columns pick up in spreadsheets ("12.345.678", "12345678.0").
func normalizeDocument(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimSuffix(value, ".0")

	cleaned := strings.NewReplacer(".", "", ",", "", " ", "").Replace(value)
	if cleaned != "" && isDigits(cleaned) {
		return cleaned
	}
	return value
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseFloat(value string) *float64 {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseInt(value string) *int {
	parsed := parseFloat(value)
	if parsed == nil {
		return nil
	}
	return pointer.FromAny(int(*parsed))
}

// truthyCells are the spellings rosters use for an affirmative cell.
var truthyCells = map[string]struct{}{
	"si":        {},
	"x":         {},
	"1":         {},
	"true":      {},
	"verdadero": {},
}

func parseBool(value string) bool {
	_, ok := truthyCells[strings.ToLower(strings.TrimSpace(foldAccents(value)))]
	return ok
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return pointer.FromAny(value)
}
