package arabic

import "unicode"

// DefaultPrimaryThreshold is the share of Arabic characters among non-space
// characters at which a string counts as primarily Arabic.
const DefaultPrimaryThreshold = 0.3

// arabicRanges lists the Arabic, Arabic Supplement, Thaana, Arabic Extended-A
// and both presentation-form blocks.
var arabicRanges = [...][2]rune{
	{0x0600, 0x06FF},
	{0x0750, 0x077F},
	{0x0780, 0x07BF},
	{0x08A0, 0x08FF},
	{0xFB50, 0xFDFF},
	{0xFE70, 0xFEFF},
}

// IsArabicChar reports whether r lies in one of the Arabic script blocks.
func IsArabicChar(r rune) bool {
	for _, rg := range arabicRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

// ContainsArabic reports whether any character of s is Arabic.
func ContainsArabic(s string) bool {
	for _, r := range s {
		if IsArabicChar(r) {
			return true
		}
	}
	return false
}

// IsPrimarilyArabic reports whether the Arabic share of the non-space
// characters of s reaches threshold. A threshold <= 0 selects
// DefaultPrimaryThreshold. Strings without non-space characters are never
// primarily Arabic.
func IsPrimarilyArabic(s string, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultPrimaryThreshold
	}
	var arabic, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if IsArabicChar(r) {
			arabic++
		}
	}
	if total == 0 {
		return false
	}
	return float64(arabic)/float64(total) >= threshold
}

// ContainsEasternDigits reports whether s contains any of U+0660..U+0669.
func ContainsEasternDigits(s string) bool {
	for _, r := range s {
		if r >= 0x0660 && r <= 0x0669 {
			return true
		}
	}
	return false
}
