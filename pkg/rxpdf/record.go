package rxpdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gardar/rxscribe/pkg/qr"
)

// Prescription is the input record for one document.
type Prescription struct {
	PatientID    string       `json:"patient_id"`
	PatientName  string       `json:"patient_name"`
	IssueDate    string       `json:"issue_date"` // YYYY-MM-DD
	ClinicHeader []string     `json:"clinic_header,omitempty"`
	QRPayload    string       `json:"qr_payload,omitempty"`
	Medications  []Medication `json:"medications"`
	Instructions []string     `json:"instructions,omitempty"`
	Notes        []string     `json:"notes,omitempty"`
}

// Medication is one prescribed item.
type Medication struct {
	Type      string      `json:"type"` // Eye Drops, Tablet, ...
	Name      string      `json:"name"`
	Dosage    string      `json:"dosage,omitempty"`
	Frequency string      `json:"frequency,omitempty"`
	Duration  string      `json:"duration,omitempty"`
	Tapering  []TaperStep `json:"tapering,omitempty"`
}

// TaperStep is one row of a tapering schedule.
type TaperStep struct {
	Label           string `json:"label"`
	InstructionText string `json:"instruction_text"`
}

// DateLayout is the accepted issue date format.
const DateLayout = "2006-01-02"

// ParseRecord decodes a JSON prescription and validates it.
func ParseRecord(r io.Reader) (*Prescription, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, &InputValidationError{Field: "record", Reason: "not valid UTF-8"}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var rx Prescription
	if err := dec.Decode(&rx); err != nil {
		return nil, &InputValidationError{Field: "record", Reason: err.Error()}
	}
	if err := rx.Validate(); err != nil {
		return nil, err
	}
	return &rx, nil
}

// Validate checks the record before anything is drawn.
func (rx *Prescription) Validate() error {
	invalid := func(field, reason string) error {
		return &InputValidationError{Field: field, Reason: reason}
	}

	if strings.TrimSpace(rx.PatientID) == "" {
		return invalid("patient_id", "must not be empty")
	}
	if _, err := time.Parse(DateLayout, rx.IssueDate); err != nil {
		return invalid("issue_date", fmt.Sprintf("%q is not a YYYY-MM-DD date", rx.IssueDate))
	}
	if len(rx.QRPayload) > qr.MaxPayload {
		return invalid("qr_payload", fmt.Sprintf("longer than %d bytes", qr.MaxPayload))
	}
	for i, m := range rx.Medications {
		path := fmt.Sprintf("medications[%d]", i)
		if strings.TrimSpace(m.Type) == "" {
			return invalid(path+".type", "must not be empty")
		}
		if strings.TrimSpace(m.Name) == "" {
			return invalid(path+".name", "must not be empty")
		}
		for j, s := range m.Tapering {
			if strings.TrimSpace(s.InstructionText) == "" {
				return invalid(fmt.Sprintf("%s.tapering[%d].instruction_text", path, j), "must not be empty")
			}
		}
	}

	fields := rx.textFields()
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		if !utf8.ValidString(fields[field]) {
			return invalid(field, "not valid UTF-8")
		}
	}
	return nil
}

// textFields returns every free-text field keyed by its JSON path.
func (rx *Prescription) textFields() map[string]string {
	out := map[string]string{
		"patient_id":   rx.PatientID,
		"patient_name": rx.PatientName,
		"qr_payload":   rx.QRPayload,
	}
	for i, s := range rx.ClinicHeader {
		out[fmt.Sprintf("clinic_header[%d]", i)] = s
	}
	for i, m := range rx.Medications {
		p := fmt.Sprintf("medications[%d].", i)
		out[p+"type"] = m.Type
		out[p+"name"] = m.Name
		out[p+"dosage"] = m.Dosage
		out[p+"frequency"] = m.Frequency
		out[p+"duration"] = m.Duration
		for j, s := range m.Tapering {
			q := fmt.Sprintf("%stapering[%d].", p, j)
			out[q+"label"] = s.Label
			out[q+"instruction_text"] = s.InstructionText
		}
	}
	for i, s := range rx.Instructions {
		out[fmt.Sprintf("instructions[%d]", i)] = s
	}
	for i, s := range rx.Notes {
		out[fmt.Sprintf("notes[%d]", i)] = s
	}
	return out
}

// Payload returns the QR payload, derived from the patient fields when the
// record does not carry one.
func (rx *Prescription) Payload() string {
	if rx.QRPayload != "" {
		return rx.QRPayload
	}
	return fmt.Sprintf("ID:%s|%s|%s", rx.PatientID, rx.PatientName, rx.IssueDate)
}
