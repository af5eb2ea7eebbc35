package rxpdf

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `{
  "patient_id": "42",
  "patient_name": "John Smith",
  "issue_date": "2025-01-15",
  "clinic_header": ["Eye Care Clinic", "عيادة العيون"],
  "medications": [{
    "type": "Eye Drops", "name": "Prednisolone Acetate 1%",
    "dosage": "1 drop", "frequency": "QID", "duration": "4 weeks",
    "tapering": [{"label": "1", "instruction_text": "QID for 1 week"}]
  }],
  "instructions": ["Shake well before use"],
  "notes": ["Follow up in 2 weeks"]
}`

func TestParseRecord(t *testing.T) {
	rx, err := ParseRecord(strings.NewReader(sampleRecord))
	require.NoError(t, err)

	want := &Prescription{
		PatientID:    "42",
		PatientName:  "John Smith",
		IssueDate:    "2025-01-15",
		ClinicHeader: []string{"Eye Care Clinic", "عيادة العيون"},
		Medications: []Medication{{
			Type: "Eye Drops", Name: "Prednisolone Acetate 1%",
			Dosage: "1 drop", Frequency: "QID", Duration: "4 weeks",
			Tapering: []TaperStep{{Label: "1", InstructionText: "QID for 1 week"}},
		}},
		Instructions: []string{"Shake well before use"},
		Notes:        []string{"Follow up in 2 weeks"},
	}
	if diff := cmp.Diff(want, rx); diff != "" {
		t.Errorf("ParseRecord mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "ID:42|John Smith|2025-01-15", rx.Payload())
}

func TestParseRecordErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"not json", `{"patient_id":`, "record"},
		{"unknown field", `{"patient_id":"1","issue_date":"2025-01-15","dose":"x"}`, "record"},
		{"invalid utf-8", "{\"patient_id\":\"1\xff\",\"issue_date\":\"2025-01-15\"}", "record"},
		{"empty id", `{"patient_id":" ","issue_date":"2025-01-15"}`, "patient_id"},
		{"bad date", `{"patient_id":"1","issue_date":"15/01/2025"}`, "issue_date"},
		{"medication without name", `{"patient_id":"1","issue_date":"2025-01-15","medications":[{"type":"Tablet"}]}`, "medications[0].name"},
		{"medication without type", `{"patient_id":"1","issue_date":"2025-01-15","medications":[{"name":"Aspirin"}]}`, "medications[0].type"},
		{
			"empty step",
			`{"patient_id":"1","issue_date":"2025-01-15","medications":[{"type":"Tablet","name":"A","tapering":[{"label":"1","instruction_text":"BID"},{"label":"2","instruction_text":""}]}]}`,
			"medications[0].tapering[1].instruction_text",
		},
		{"long payload", `{"patient_id":"1","issue_date":"2025-01-15","qr_payload":"` + strings.Repeat("x", 513) + `"}`, "qr_payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(strings.NewReader(tt.input))
			var ve *InputValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidateInvalidUTF8Field(t *testing.T) {
	rx := s1Record()
	rx.Notes = []string{"ok", "bad \xfe"}
	err := rx.Validate()
	var ve *InputValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "notes[1]", ve.Field)
}

func TestPayloadOverride(t *testing.T) {
	rx := s1Record()
	rx.QRPayload = "custom"
	assert.Equal(t, "custom", rx.Payload())
}
