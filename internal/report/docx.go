// Package report exports archived or freshly generated runs as Word documents.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gingfrederik/docx"

	"macrobrief/internal/model"
	"macrobrief/internal/narrative"
)

const separator = "--------------------------------------------------"

// FormatValue renders an indicator value with thousands separators and at
// most two decimals.
func FormatValue(v float64) string {
	return humanize.CommafWithDigits(math.Round(v*100)/100, 2)
}

func WriteDocx(path string, run model.Run) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("report: path is required")
	}

	f := docx.NewFile()

	title := run.CountryName
	if title == "" {
		title = run.Country.String()
	}
	titleRun := f.AddParagraph().AddText("Macroeconomic summary: " + title)
	titleRun.Size(20)

	meta := f.AddParagraph().AddText(fmt.Sprintf("Country: %s | Address: %s | Data since: %d | Generated: %s",
		run.Country, run.Address, run.CutoffYear, run.CreatedAt.UTC().Format("2006-01-02 15:04 MST")))
	meta.Size(10)
	meta.Color("808080")
	f.AddParagraph()

	for _, indicator := range run.Indicators {
		heading := f.AddParagraph().AddText(indicator.Title)
		heading.Size(16)
		if indicator.UnitLabel != "" {
			unit := f.AddParagraph().AddText(indicator.UnitLabel)
			unit.Size(10)
			unit.Color("808080")
		}
		if len(indicator.Series) == 0 {
			f.AddParagraph().AddText("No observations.")
		}
		for _, point := range indicator.Series {
			f.AddParagraph().AddText(fmt.Sprintf("%s  %s", point.Period, FormatValue(point.Value)))
		}
		f.AddParagraph()
	}

	for _, summary := range run.Summaries {
		f.AddParagraph().AddText(separator)
		heading := f.AddParagraph().AddText(fmt.Sprintf("Summary (%s)", narrative.LanguageName(summary.Language)))
		heading.Size(16)
		for _, txt := range strings.Split(summary.Text, "\n\n") {
			txt = strings.TrimSpace(txt)
			if txt != "" {
				f.AddParagraph().AddText(txt)
			}
		}
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
