// Package period parses the time labels used by statistics APIs (2021, 2021-Q1,
// 2021Q1, 2021-01, 2021M01) and renders them as canonical quarter strings.
package period

import (
	"fmt"
	"strconv"
	"strings"
)

// LeadingYear parses the first four characters of label as a year.
func LeadingYear(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if len(label) < 4 || !isDigits(label[:4]) {
		return 0, false
	}
	year, err := strconv.Atoi(label[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}

// Quarter maps a quarterly, monthly or annual label onto the quarter that
// contains it. Annual labels map to the first quarter of the year.
func Quarter(label string) (int, int, bool) {
	if year, quarter, ok := ParseYearQuarter(label); ok {
		return year, quarter, true
	}
	if year, month, ok := ParseYearMonth(label); ok {
		return year, (month-1)/3 + 1, true
	}
	if year, ok := ParseYear(label); ok {
		return year, 1, true
	}
	return 0, 0, false
}

// Normalize renders label as YYYYQn.
func Normalize(label string) (string, bool) {
	year, quarter, ok := Quarter(label)
	if !ok {
		return "", false
	}
	return Format(year, quarter), true
}

func Format(year, quarter int) string {
	return fmt.Sprintf("%04dQ%d", year, quarter)
}

// Key orders canonical periods; unparseable labels sort first.
func Key(label string) int {
	year, quarter, ok := Quarter(label)
	if !ok {
		return 0
	}
	return year*10 + quarter
}

func ParseYearMonth(value string) (int, int, bool) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if len(value) == 6 && isDigits(value) {
		year, _ := strconv.Atoi(value[:4])
		month, _ := strconv.Atoi(value[4:])
		if month >= 1 && month <= 12 {
			return year, month, true
		}
	}

	if len(value) == 7 && value[4] == 'M' && isDigits(value[:4]) && isDigits(value[5:]) {
		year, _ := strconv.Atoi(value[:4])
		month, _ := strconv.Atoi(value[5:])
		if month >= 1 && month <= 12 {
			return year, month, true
		}
	}

	parts := strings.Split(value, "-")
	if len(parts) == 2 && len(parts[0]) == 4 && isDigits(parts[1]) {
		year, errYear := strconv.Atoi(parts[0])
		month, errMonth := strconv.Atoi(parts[1])
		if errYear == nil && errMonth == nil && month >= 1 && month <= 12 {
			return year, month, true
		}
	}
	return 0, 0, false
}

func ParseYearQuarter(value string) (int, int, bool) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if strings.Contains(value, "-Q") {
		parts := strings.Split(value, "-Q")
		if len(parts) == 2 {
			return yearQuarter(parts[0], parts[1])
		}
	}
	if strings.Contains(value, "Q") {
		parts := strings.Split(value, "Q")
		if len(parts) == 2 {
			return yearQuarter(parts[0], parts[1])
		}
	}
	return 0, 0, false
}

func yearQuarter(yearPart, quarterPart string) (int, int, bool) {
	if len(yearPart) != 4 || !isDigits(yearPart) {
		return 0, 0, false
	}
	year, errYear := strconv.Atoi(yearPart)
	quarter, errQuarter := strconv.Atoi(quarterPart)
	if errYear == nil && errQuarter == nil && quarter >= 1 && quarter <= 4 {
		return year, quarter, true
	}
	return 0, 0, false
}

func ParseYear(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if len(value) != 4 || !isDigits(value) {
		return 0, false
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return year, true
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
