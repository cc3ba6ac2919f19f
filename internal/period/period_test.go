package period

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"2021Q1", "2021Q1", true},
		{"2021-Q3", "2021Q3", true},
		{"2021-q4", "2021Q4", true},
		{"2021-01", "2021Q1", true},
		{"2021-05", "2021Q2", true},
		{"2021M09", "2021Q3", true},
		{"202112", "2021Q4", true},
		{"2021", "2021Q1", true},
		{" 2022-Q2 ", "2022Q2", true},
		{"2021Q5", "", false},
		{"2021-13", "", false},
		{"2021-S1", "", false},
		{"Q1-2021", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := Normalize(tt.label)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Normalize(%q) = %q, %v; want %q, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLeadingYear(t *testing.T) {
	tests := []struct {
		label string
		want  int
		ok    bool
	}{
		{"2021Q1", 2021, true},
		{"1999-12", 1999, true},
		{"2024", 2024, true},
		{"20x1Q1", 0, false},
		{"Q1", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := LeadingYear(tt.label)
		if ok != tt.ok || got != tt.want {
			t.Errorf("LeadingYear(%q) = %d, %v; want %d, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKeyOrdersQuarters(t *testing.T) {
	if Key("2021Q4") >= Key("2022Q1") {
		t.Error("expected 2021Q4 to sort before 2022Q1")
	}
	if Key("2022-Q1") != Key("2022Q1") {
		t.Error("expected equivalent labels to share a key")
	}
	if Key("garbage") != 0 {
		t.Error("expected unparseable label to have key 0")
	}
}
