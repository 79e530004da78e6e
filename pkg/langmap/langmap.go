// Package langmap converts between the language detector's short codes,
// human-readable language names and the locale tags used by IndicTrans-style
// model endpoints (e.g. "hin_Deva").
//
// Every lookup falls back to returning its input unchanged when the key is
// not in the table. Callers chaining lookups must accept that a code may pass
// through unmodified.
package langmap

import "sort"

// DefaultName is the language name used when no code is available.
const DefaultName = "English"

// names maps detector codes to human-readable language names.
var names = map[string]string{
	"as":       "Assamese",
	"bn":       "Bengali",
	"brx":      "Bodo",
	"doi":      "Dogri",
	"en":       "English",
	"gu":       "Gujarati",
	"hi":       "Hindi",
	"kn":       "Kannada",
	"ks_arab":  "Kashmiri (Arabic)",
	"ks_deva":  "Kashmiri (Devanagari)",
	"kok":      "Konkani",
	"mai":      "Maithili",
	"ml":       "Malayalam",
	"mni_beng": "Manipuri (Bengali)",
	"mni_mei":  "Manipuri (Meitei)",
	"mr":       "Marathi",
	"ne":       "Nepali",
	"or":       "Odia",
	"pa":       "Punjabi",
	"sa":       "Sanskrit",
	"sat":      "Santali",
	"sd_arab":  "Sindhi (Arabic)",
	"sd_deva":  "Sindhi (Devanagari)",
	"ta":       "Tamil",
	"te":       "Telugu",
	"ur":       "Urdu",
}

// tags maps human-readable language names to service locale tags.
var tags = map[string]string{
	"Assamese":              "asm_Beng",
	"Bengali":               "ben_Beng",
	"Bodo":                  "brx_Deva",
	"Dogri":                 "doi_Deva",
	"English":               "eng_Latn",
	"Gujarati":              "guj_Gujr",
	"Hindi":                 "hin_Deva",
	"Kannada":               "kan_Knda",
	"Kashmiri (Arabic)":     "kas_Arab",
	"Kashmiri (Devanagari)": "kas_Deva",
	"Konkani":               "gom_Deva",
	"Maithili":              "mai_Deva",
	"Malayalam":             "mal_Mlym",
	"Manipuri (Bengali)":    "mni_Beng",
	"Manipuri (Meitei)":     "mni_Mtei",
	"Marathi":               "mar_Deva",
	"Nepali":                "npi_Deva",
	"Odia":                  "ory_Orya",
	"Punjabi":               "pan_Guru",
	"Sanskrit":              "san_Deva",
	"Santali":               "sat_Olck",
	"Sindhi (Arabic)":       "snd_Arab",
	"Sindhi (Devanagari)":   "snd_Deva",
	"Tamil":                 "tam_Taml",
	"Telugu":                "tel_Telu",
	"Urdu":                  "urd_Arab",
}

// reverse lookups, built once
var (
	namesByTag  = invert(tags)
	codesByName = invert(names)
)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// Name returns the human-readable name for a detector code.
// An empty code yields DefaultName; an unknown code is returned unchanged.
func Name(code string) string {
	if code == "" {
		return DefaultName
	}
	if name, ok := names[code]; ok {
		return name
	}
	return code
}

// Tag returns the service locale tag for a language name, or the name itself
// if it is not known.
func Tag(name string) string {
	if tag, ok := tags[name]; ok {
		return tag
	}
	return name
}

// ToServiceCode chains Name and Tag: "hi" -> "Hindi" -> "hin_Deva".
// If either link misses, the value passes through that link unchanged, so an
// unknown detector code such as "fr" comes back as "fr".
func ToServiceCode(code string) string {
	return Tag(Name(code))
}

// FromServiceCode is the inverse chain: "hin_Deva" -> "Hindi" -> "hi".
func FromServiceCode(tag string) string {
	name, ok := namesByTag[tag]
	if !ok {
		name = tag
	}
	if code, ok := codesByName[name]; ok {
		return code
	}
	return name
}

// Languages returns the detector codes known to the table, sorted.
func Languages() []string {
	codes := make([]string, 0, len(names))
	for code := range names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
