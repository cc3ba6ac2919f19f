package narrative

import (
	"fmt"
	"strings"

	"macrobrief/internal/model"
)

type Section struct {
	Heading string
	Series  model.Series
}

type PromptInput struct {
	CountryName string
	Words       int
	Years       int
	Sections    []Section
}

type language struct {
	name       string
	intro      string
	source     string
	instruct   string
	perSection string
	closing    string
	countries  map[model.CountryCode]string
	fallback   string
}

var languages = map[string]language{
	"es": {
		name:       "Español",
		intro:      "Eres un economista que debe redactar un resumen macroeconómico profesional de aproximadamente %d palabras.",
		source:     "Los siguientes datos reales pertenecen a %s, extraídos directamente de Eurostat:",
		instruct:   "Redacta un análisis técnico y claro que describa las tendencias económicas más relevantes de los últimos %d años, incluyendo fases de aceleración o ralentización.",
		perSection: "Dedica un párrafo a cada indicador y termina con un párrafo de síntesis que sitúe al lector en el contexto actual.",
		closing:    "El texto debe estar en español.",
		countries: map[model.CountryCode]string{
			"NL": "Países Bajos", "ES": "España", "FR": "Francia", "IT": "Italia",
			"DE": "Alemania", "BE": "Bélgica", "PT": "Portugal", "AT": "Austria",
		},
		fallback: "País (%s)",
	},
	"en": {
		name:       "English",
		intro:      "You are an economist writing a professional macroeconomic summary of approximately %d words.",
		source:     "The following are real economic indicators for %s, sourced directly from Eurostat:",
		instruct:   "Write a clear, technical summary of the main economic trends over the past %d years, including any acceleration or slowdown phases.",
		perSection: "Write one paragraph per indicator and conclude with a synthesis paragraph that situates the reader in the current moment.",
		closing:    "The text must be written in English.",
		countries: map[model.CountryCode]string{
			"NL": "the Netherlands", "ES": "Spain", "FR": "France", "IT": "Italy",
			"DE": "Germany", "BE": "Belgium", "PT": "Portugal", "AT": "Austria",
		},
		fallback: "Country (%s)",
	},
}

// SupportedLanguage reports whether prompts can be built for lang.
func SupportedLanguage(lang string) bool {
	_, ok := languages[strings.ToLower(strings.TrimSpace(lang))]
	return ok
}

// LanguageName is the display name of lang, or lang itself when unknown.
func LanguageName(lang string) string {
	if l, ok := languages[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return l.name
	}
	return lang
}

// CountryName localizes code for lang.
func CountryName(lang string, code model.CountryCode) string {
	l, ok := languages[strings.ToLower(strings.TrimSpace(lang))]
	if !ok {
		l = languages["en"]
	}
	if name, ok := l.countries[code]; ok {
		return name
	}
	return fmt.Sprintf(l.fallback, code)
}

func BuildPrompt(lang string, in PromptInput) (string, error) {
	l, ok := languages[strings.ToLower(strings.TrimSpace(lang))]
	if !ok {
		return "", fmt.Errorf("%w: unsupported language %q", model.ErrInvalidRequest, lang)
	}
	if err := ValidateWords(in.Words); err != nil {
		return "", err
	}
	if len(in.Sections) == 0 {
		return "", fmt.Errorf("%w: no indicator sections", model.ErrInvalidRequest)
	}
	years := in.Years
	if years <= 0 {
		years = 5
	}

	var b strings.Builder
	fmt.Fprintf(&b, l.intro, in.Words)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, l.source, in.CountryName)
	b.WriteString("\n")
	for _, section := range in.Sections {
		fmt.Fprintf(&b, "\n📌 %s:\n%s\n", section.Heading, TextBlock(section.Series))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, l.instruct, years)
	b.WriteString(" ")
	b.WriteString(l.perSection)
	b.WriteString(" ")
	b.WriteString(l.closing)
	b.WriteString("\n")
	return b.String(), nil
}
