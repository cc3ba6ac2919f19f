package narrative

import (
	"errors"
	"strings"
	"testing"

	"macrobrief/internal/model"
)

func sampleSeries() model.Series {
	return model.Series{
		{Period: "2021Q1", Value: 108.5},
		{Period: "2021Q2", Value: 110.25},
		{Period: "2021Q3", Value: 1234567.5},
	}
}

func TestTextBlock(t *testing.T) {
	got := TextBlock(sampleSeries())
	want := strings.Join([]string{
		"Period     Value",
		"2021Q1     108.5",
		"2021Q2    110.25",
		"2021Q3 1234567.5",
	}, "\n")
	if got != want {
		t.Errorf("TextBlock =\n%s\nwant\n%s", got, want)
	}

	if got := TextBlock(nil); got != "Period Value" {
		t.Errorf("TextBlock(nil) = %q", got)
	}
}

func TestBuildPromptSpanish(t *testing.T) {
	prompt, err := BuildPrompt("es", PromptInput{
		CountryName: CountryName("es", "ES"),
		Words:       150,
		Years:       5,
		Sections: []Section{
			{Heading: "Inflación armonizada (HICP)", Series: sampleSeries()},
			{Heading: "PIB trimestral (volumen encadenado)", Series: sampleSeries()[:1]},
		},
	})
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}

	for _, want := range []string{
		"aproximadamente 150 palabras",
		"pertenecen a España",
		"📌 Inflación armonizada (HICP):",
		"📌 PIB trimestral (volumen encadenado):\nPeriod Value\n2021Q1 108.5",
		"últimos 5 años",
		"párrafo de síntesis",
		"El texto debe estar en español.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptEnglish(t *testing.T) {
	prompt, err := BuildPrompt("EN", PromptInput{
		CountryName: CountryName("en", "NL"),
		Words:       300,
		Sections:    []Section{{Heading: "Quarterly GDP (chain-linked volumes)", Series: sampleSeries()}},
	})
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	for _, want := range []string{
		"approximately 300 words",
		"indicators for the Netherlands",
		"past 5 years",
		"The text must be written in English.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptValidation(t *testing.T) {
	sections := []Section{{Heading: "x", Series: sampleSeries()}}

	if _, err := BuildPrompt("fr", PromptInput{Words: 150, Sections: sections}); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("unsupported language: got %v", err)
	}
	if _, err := BuildPrompt("en", PromptInput{Words: 99, Sections: sections}); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("too few words: got %v", err)
	}
	if _, err := BuildPrompt("en", PromptInput{Words: 301, Sections: sections}); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("too many words: got %v", err)
	}
	if _, err := BuildPrompt("en", PromptInput{Words: 150}); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("no sections: got %v", err)
	}
}

func TestCountryName(t *testing.T) {
	tests := []struct {
		lang string
		code model.CountryCode
		want string
	}{
		{"es", "NL", "Países Bajos"},
		{"es", "PL", "País (PL)"},
		{"en", "DE", "Germany"},
		{"en", "PL", "Country (PL)"},
		{"xx", "AT", "Austria"},
	}
	for _, tt := range tests {
		if got := CountryName(tt.lang, tt.code); got != tt.want {
			t.Errorf("CountryName(%q, %q) = %q, want %q", tt.lang, tt.code, got, tt.want)
		}
	}
	if !SupportedLanguage(" ES ") || SupportedLanguage("fr") {
		t.Error("unexpected SupportedLanguage result")
	}
	if LanguageName("en") != "English" || LanguageName("fr") != "fr" {
		t.Error("unexpected LanguageName result")
	}
}
