package services

import (
	"fmt"
	"io"
	"os"
	"strings"

	"taxi-report/models"
)

// SummaryPrinter renders a human-readable overview of a report.
type SummaryPrinter struct {
	out io.Writer
}

// NewSummaryPrinter prints to stdout when out is nil.
func NewSummaryPrinter(out io.Writer) *SummaryPrinter {
	if out == nil {
		out = os.Stdout
	}
	return &SummaryPrinter{out: out}
}

func (p *SummaryPrinter) Print(r *models.Report) {
	sep := strings.Repeat("═", 62)
	thin := strings.Repeat("─", 62)
	w := p.out

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🚕 YELLOW TAXI REPORT %s → %s\033[0m\n", r.StartDate, r.EndDate)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Cleaning\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Raw trips     : \033[1m%d\033[0m\n", r.RawCount)
	fmt.Fprintf(w, "  Clean trips   : \033[1m%d\033[0m\n", r.CleanCount)
	for _, reason := range r.Stats.Reasons {
		if n := r.Stats.Dropped[reason]; n > 0 {
			fmt.Fprintf(w, "    - %-26s %d\n", reason, n)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Weekly services\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Weekly) == 0 {
		fmt.Fprintf(w, "  No complete weeks in range\n")
	} else {
		busiest := r.Weekly[0]
		total := 0
		for _, row := range r.Weekly {
			total += row.TotalServices
			if row.TotalServices > busiest.TotalServices {
				busiest = row
			}
			fmt.Fprintf(w, "  %-10s %10d  %s\n", row.YearWeek, row.TotalServices, formatVariation(row.PercentageVariation))
		}
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  Total services : \033[1m%d\033[0m\n", total)
		fmt.Fprintf(w, "  Busiest week   : \033[1;32m%s\033[0m (%d)\n", busiest.YearWeek, busiest.TotalServices)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Monthly services by rate class\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, class := range models.RateClasses {
		rows := r.Monthly[class]
		if len(rows) == 0 {
			fmt.Fprintf(w, "  %-8s no trips\n", class.SheetName())
			continue
		}
		for _, row := range rows {
			fmt.Fprintf(w, "  %-8s %s %-8s %10d services %12.2f mi %10d pax\n",
				class.SheetName(), row.YearMonth, row.DayType, row.Services, row.Distances, row.Passengers)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func formatVariation(v *float64) string {
	if v == nil {
		return "      n/a"
	}
	color := "32"
	if *v < 0 {
		color = "31"
	}
	return fmt.Sprintf("\033[%sm%+8.2f%%\033[0m", color, *v)
}
