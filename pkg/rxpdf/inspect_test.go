package rxpdf

import (
	"bytes"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestInspectPDFParsesNames(t *testing.T) {
	data := []byte("%PDF-1.3\n" +
		"1 0 obj\n<</Type /Pages /Kids [3 0 R 4 0 R] /Count 2>>\nendobj\n" +
		"3 0 obj\n<</Type /Page\n/Parent 1 0 R>>\nendobj\n" +
		"4 0 obj\n<</Type /Page\n/Parent 1 0 R>>\nendobj\n" +
		"5 0 obj\n<</Type /OCG /Name (\xfe\xff\x00P\x00a\x00g\x00e\x00 \x00C\x00h\x00r\x00o\x00m\x00e\x00 \x00-\x00 \x00P\x00a\x00g\x00e\x00 \x001)>>\nendobj\n" +
		"6 0 obj\n<</Type /OCG /Name (Page Chrome - Page 2)>>\nendobj\n" +
		"7 0 obj\n<</Type /OCG /Name (Notes \\(draft\\) caf\xe9)>>\nendobj\n")

	in, err := InspectPDF(data)
	require.NoError(t, err)
	assert.Equal(t, 2, in.Pages)
	assert.Equal(t, []string{"Page Chrome - Page 1", "Page Chrome - Page 2", "Notes (draft) café"}, in.Layers)
	assert.Equal(t, map[int]int{1: 1, 2: 1}, in.Chrome)
	assert.NoError(t, in.Verify())
}

func TestInspectionVerify(t *testing.T) {
	in := Inspection{Pages: 3, Chrome: map[int]int{1: 1, 2: 2, 5: 1}}
	err := in.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2: 2 decoration groups")
	assert.Contains(t, err.Error(), "page 3: no decoration group")
	assert.Contains(t, err.Error(), "missing page 5")

	assert.Error(t, Inspection{}.Verify())
}

func TestInspectPDFRejectsGarbage(t *testing.T) {
	_, err := InspectPDF(nil)
	assert.Error(t, err)
	_, err = InspectPDF([]byte("hello"))
	assert.Error(t, err)
}

func letterhead(t *testing.T) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(72, 72, "Eye Care Clinic letterhead")
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestFpdfBackendGroupsAndLetterhead(t *testing.T) {
	b := NewFpdfBackend(FpdfOptions{Letterhead: letterhead(t), Title: "Prescription 42", Creator: "rxscribe", Created: printDate})
	require.NoError(t, b.RegisterFont(FaceLatin, goregular.TTF))

	for p := 1; p <= 2; p++ {
		b.NewPage()
		assert.Equal(t, p, b.PageNumber())
		b.BeginGroup(chromeGroupName(p))
		b.DrawRect(10, 10, 592, 772, borderPaint)
		b.DrawArc(10, 10, 8, 0, 90, ornamentPaint)
		b.DrawCircle(12, 12, 1.5, dotPaint)
		b.EndGroup()
		b.DrawText(54, 700, "ID: 42", TextStyle{Face: FaceLatin, Size: 10})
		b.DrawLine(54, 690, 558, 690, rulePaint)
	}
	assert.Greater(t, b.TextWidth("ID: 42", FaceLatin, 10), 0.0)
	require.NoError(t, b.Err())

	var out bytes.Buffer
	require.NoError(t, b.Save(&out))

	in, err := InspectPDF(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, in.Pages)
	assert.NoError(t, in.Verify())
	assert.Equal(t, []string{"Page Chrome - Page 1", "Page Chrome - Page 2"}, in.Layers)
}

func TestFpdfBackendRejectsEmptyFont(t *testing.T) {
	b := NewFpdfBackend(FpdfOptions{})
	var de *BackendDrawError
	assert.ErrorAs(t, b.RegisterFont(FaceArabic, nil), &de)
}
