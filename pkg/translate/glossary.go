package translate

import (
	"regexp"
	"strings"
)

// Glossary maps normalised English phrases to Arabic.
type Glossary map[string]string

// maxPhraseWords bounds the longest glossary key tried during composition.
const maxPhraseWords = 5

var numberToken = regexp.MustCompile(`^[0-9]+([.,/][0-9]+)?(%|[a-zA-Z]{1,4})?$`)

// DefaultGlossary returns a copy of the built-in clinical glossary.
func DefaultGlossary() Glossary {
	g := make(Glossary, len(builtin))
	for k, v := range builtin {
		g[k] = v
	}
	return g
}

// Merge adds extra entries, overriding existing ones.
func (g Glossary) Merge(extra map[string]string) Glossary {
	for k, v := range extra {
		if k = normalize(k); k != "" {
			g[k] = v
		}
	}
	return g
}

// Lookup returns the exact translation of phrase.
func (g Glossary) Lookup(phrase string) (string, bool) {
	v, ok := g[normalize(phrase)]
	return v, ok
}

// Compose translates phrase word by word, preferring the longest glossary
// match at each position. Every word must be covered by an entry or be a
// number, otherwise Compose reports false.
func (g Glossary) Compose(phrase string) (string, bool) {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return "", false
	}

	var out []string
	matched := false
	for i := 0; i < len(words); {
		n, ar := g.longest(words[i:])
		if n > 0 {
			out = append(out, ar)
			matched = true
			i += n
			continue
		}
		core, punct := splitPunct(words[i])
		if numberToken.MatchString(core) {
			out = append(out, core+punct)
			i++
			continue
		}
		return "", false
	}
	if !matched {
		return "", false
	}
	return strings.Join(out, " "), true
}

func (g Glossary) longest(words []string) (int, string) {
	limit := min(len(words), maxPhraseWords)
	for n := limit; n > 0; n-- {
		cand := append([]string(nil), words[:n]...)
		core, punct := splitPunct(cand[n-1])
		cand[n-1] = core
		if v, ok := g[normalize(strings.Join(cand, " "))]; ok {
			return n, v + arabicPunct(punct)
		}
	}
	return 0, ""
}

func splitPunct(w string) (string, string) {
	core := strings.TrimRight(w, ".,;:!?")
	return core, w[len(core):]
}

func arabicPunct(p string) string {
	return strings.NewReplacer(",", "،", ";", "؛", "?", "؟").Replace(p)
}

var builtin = map[string]string{
	// labels
	"dosage":            "الجرعة",
	"dose":              "الجرعة",
	"frequency":         "عدد المرات",
	"duration":          "المدة",
	"step":              "الخطوة",
	"instructions":      "التعليمات",
	"notes":             "ملاحظات",
	"name":              "الاسم",
	"patient name":      "اسم المريض",
	"patient":           "المريض",
	"id":                "رقم الملف",
	"patient id":        "رقم الملف",
	"date":              "التاريخ",
	"medication":        "الدواء",
	"medications":       "الأدوية",
	"tapering schedule": "جدول تخفيف الجرعة",
	"prescription":      "وصفة طبية",

	// medication forms
	"eye drops":    "قطرة للعين",
	"eye drop":     "قطرة للعين",
	"ear drops":    "قطرة للأذن",
	"eye ointment": "مرهم للعين",
	"eye gel":      "جل للعين",
	"ointment":     "مرهم",
	"cream":        "كريم",
	"gel":          "جل",
	"tablet":       "أقراص",
	"tablets":      "أقراص",
	"capsule":      "كبسولة",
	"capsules":     "كبسولات",
	"syrup":        "شراب",
	"injection":    "حقنة",
	"drop":         "قطرة",
	"drops":        "قطرات",

	// frequencies
	"daily":             "مرة يوميا",
	"once daily":        "مرة يوميا",
	"bid":               "مرتين يوميا",
	"twice daily":       "مرتين يوميا",
	"tid":               "ثلاث مرات يوميا",
	"three times daily": "ثلاث مرات يوميا",
	"qid":               "أربع مرات يوميا",
	"four times daily":  "أربع مرات يوميا",
	"every hour":        "كل ساعة",
	"every 2 hours":     "كل ساعتين",
	"at bedtime":        "عند النوم",
	"qhs":               "عند النوم",
	"as needed":         "عند الحاجة",
	"prn":               "عند الحاجة",

	// durations
	"for":     "لمدة",
	"1 day":   "يوم واحد",
	"day":     "يوم",
	"days":    "أيام",
	"1 week":  "أسبوع واحد",
	"week":    "أسبوع",
	"weeks":   "أسابيع",
	"1 month": "شهر واحد",
	"month":   "شهر",
	"months":  "أشهر",

	// application
	"apply":                 "ضع",
	"use":                   "استعمل",
	"take":                  "تناول",
	"then":                  "ثم",
	"and":                   "و",
	"stop":                  "توقف",
	"in":                    "في",
	"1 drop":                "قطرة واحدة",
	"both eyes":             "كلتا العينين",
	"right eye":             "العين اليمنى",
	"left eye":              "العين اليسرى",
	"in both eyes":          "في كلتا العينين",
	"in the right eye":      "في العين اليمنى",
	"in the left eye":       "في العين اليسرى",
	"shake well before use": "رج جيدا قبل الاستعمال",
	"follow up":             "مراجعة",
	"follow up in":          "مراجعة بعد",
}
