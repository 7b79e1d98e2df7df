// Package importer turns uploaded CSV files into lead records.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// MaxRows bounds one import.
const MaxRows = 5000

// Record is one parsed CSV row. Line is 1-based and counts the header.
type Record struct {
	Line             int
	Name             string
	Email            string
	Company          string
	Phone            string
	Source           string
	Status           string
	AssignedTo       string
	NextFollowupDate *time.Time
	DealAmount       *decimal.Decimal
	Probability      *int
}

// Warning describes a row or field that was skipped.
type Warning struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type field int

const (
	fieldName field = iota
	fieldEmail
	fieldCompany
	fieldPhone
	fieldSource
	fieldStatus
	fieldAssignedTo
	fieldNextFollowup
	fieldDealAmount
	fieldProbability
)

var headerAliases = map[string]field{
	"name":               fieldName,
	"full_name":          fieldName,
	"fullname":           fieldName,
	"contact_name":       fieldName,
	"email":              fieldEmail,
	"e_mail":             fieldEmail,
	"email_address":      fieldEmail,
	"company":            fieldCompany,
	"company_name":       fieldCompany,
	"organization":       fieldCompany,
	"organisation":       fieldCompany,
	"phone":              fieldPhone,
	"phone_number":       fieldPhone,
	"telephone":          fieldPhone,
	"source":             fieldSource,
	"lead_source":        fieldSource,
	"status":             fieldStatus,
	"stage":              fieldStatus,
	"assigned_to":        fieldAssignedTo,
	"assignee":           fieldAssignedTo,
	"owner":              fieldAssignedTo,
	"next_followup":      fieldNextFollowup,
	"next_followup_date": fieldNextFollowup,
	"next_follow_up":     fieldNextFollowup,
	"deal_amount":        fieldDealAmount,
	"amount":             fieldDealAmount,
	"deal_value":         fieldDealAmount,
	"probability":        fieldProbability,
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04", time.DateOnly, "01/02/2006"}

// Decoder returns the decoder for a charset label. Empty means UTF-8. A
// byte order mark in the input overrides the label.
func Decoder(charset string) (*encoding.Decoder, error) {
	var fallback encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		fallback = xunicode.UTF8
	case "windows-1252", "cp1252":
		fallback = charmap.Windows1252
	case "iso-8859-1", "latin1", "latin-1":
		fallback = charmap.ISO8859_1
	case "utf-16", "utf16":
		fallback = xunicode.UTF16(xunicode.LittleEndian, xunicode.ExpectBOM)
	default:
		return nil, apperrors.NewValidationError("unsupported charset", map[string]any{"charset": charset})
	}
	return &encoding.Decoder{Transformer: xunicode.BOMOverride(fallback.NewDecoder())}, nil
}

// Parse reads a CSV document. Rows without a name are skipped with a
// warning; unparseable optional fields are dropped with a warning.
func Parse(r io.Reader, charset string) ([]Record, []Warning, error) {
	dec, err := Decoder(charset)
	if err != nil {
		return nil, nil, err
	}
	reader := csv.NewReader(transform.NewReader(r, dec))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, apperrors.NewValidationError("csv is empty", nil)
		}
		return nil, nil, apperrors.NewValidationError("csv header unreadable", map[string]any{"error": err.Error()})
	}
	columns := mapHeader(header)
	if _, ok := columns[fieldName]; !ok {
		return nil, nil, apperrors.NewValidationError("csv has no name column", map[string]any{"header": header})
	}

	var (
		records  []Record
		warnings []Warning
	)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			warnings = append(warnings, Warning{Line: line, Message: err.Error()})
			continue
		}
		if len(records) >= MaxRows {
			return nil, nil, apperrors.NewValidationError("too many rows", map[string]any{"max_rows": MaxRows})
		}
		rec, rowWarnings, ok := parseRow(line, row, columns)
		warnings = append(warnings, rowWarnings...)
		if ok {
			records = append(records, rec)
		}
	}
	return records, warnings, nil
}

func parseRow(line int, row []string, columns map[field]int) (Record, []Warning, bool) {
	get := func(f field) string {
		idx, ok := columns[f]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := Record{
		Line:       line,
		Name:       get(fieldName),
		Email:      get(fieldEmail),
		Company:    get(fieldCompany),
		Phone:      get(fieldPhone),
		Source:     get(fieldSource),
		Status:     get(fieldStatus),
		AssignedTo: get(fieldAssignedTo),
	}
	if rec.Name == "" {
		if isBlank(row) {
			return Record{}, nil, false
		}
		return Record{}, []Warning{{Line: line, Message: "missing name"}}, false
	}

	var warnings []Warning
	if raw := get(fieldNextFollowup); raw != "" {
		if t, ok := parseDate(raw); ok {
			rec.NextFollowupDate = &t
		} else {
			warnings = append(warnings, Warning{Line: line, Message: fmt.Sprintf("invalid next follow-up date %q", raw)})
		}
	}
	if raw := get(fieldDealAmount); raw != "" {
		amount, err := decimal.NewFromString(strings.NewReplacer(",", "", "$", "").Replace(raw))
		if err != nil || amount.IsNegative() {
			warnings = append(warnings, Warning{Line: line, Message: fmt.Sprintf("invalid deal amount %q", raw)})
		} else {
			rec.DealAmount = &amount
		}
	}
	if raw := get(fieldProbability); raw != "" {
		prob, err := strconv.Atoi(strings.TrimSuffix(raw, "%"))
		if err != nil || prob < 0 || prob > 100 {
			warnings = append(warnings, Warning{Line: line, Message: fmt.Sprintf("invalid probability %q", raw)})
		} else {
			rec.Probability = &prob
		}
	}
	return rec, warnings, true
}

func mapHeader(header []string) map[field]int {
	columns := make(map[field]int)
	for i, h := range header {
		f, ok := headerAliases[headerKey(h)]
		if !ok {
			continue
		}
		if _, seen := columns[f]; !seen {
			columns[f] = i
		}
	}
	return columns
}

// headerKey folds a header cell to snake case without accents, so
// "E-mail", "Full Name" and "Téléphone" style headers line up with aliases.
func headerKey(h string) string {
	decomposed := norm.NFD.String(strings.TrimSpace(h))
	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.Trim(b.String(), "_")
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
