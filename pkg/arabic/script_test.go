package arabic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsArabicChar(t *testing.T) {
	for _, r := range []rune{0x0628, 0x0654, 0x0750, 0x0780, 0x08A0, 0xFB50, 0xFDF2, 0xFE70, 0xFEFC} {
		assert.Truef(t, IsArabicChar(r), "expected %U to be Arabic", r)
	}
	for _, r := range []rune{'a', '1', ' ', 0x05D0, 0xFF10} {
		assert.Falsef(t, IsArabicChar(r), "expected %U not to be Arabic", r)
	}
}

func TestIsPrimarilyArabic(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"Aspirin 100mg", false},
		{"قطرة للعين", true},
		{"Prednisolone قطرة عين", true}, // 7 of 19 non-space characters
		{"Prednisolone ب", false},
		{"رقم الملف: 42", true},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, IsPrimarilyArabic(tt.in, 0), "IsPrimarilyArabic(%q)", tt.in)
	}
}

func TestContainsEasternDigits(t *testing.T) {
	assert.True(t, ContainsEasternDigits("رقم ٤٢"))
	assert.False(t, ContainsEasternDigits("رقم 42"))
	assert.False(t, ContainsEasternDigits("\u06f4\u06f2")) // Persian digits are a different block
}

func TestDigitConverter(t *testing.T) {
	d := NewDigitConverter(DefaultDigitOffset)

	out, dy := d.ToEastern("رقم الملف: 42")
	assert.Equal(t, "رقم الملف: ٤٢", out)
	assert.Equal(t, DefaultDigitOffset, dy)

	out, dy = d.ToEastern("بدون أرقام")
	assert.Equal(t, "بدون أرقام", out)
	assert.Zero(t, dy)

	out, _ = d.ToEastern("0123456789")
	assert.Equal(t, "٠١٢٣٤٥٦٧٨٩", out)
}
