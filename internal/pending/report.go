package pending

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ProblematicReport reconstructs how many verification cycles have elapsed
// per entry and writes a flat text report of the albums that have survived at
// least minAttempts cycles without resolving. Returns the number of entries
// included.
func (s *Store) ProblematicReport(dir string, minAttempts int) (int, error) {
	if minAttempts < 1 {
		minAttempts = 1
	}
	now := s.now()

	var problematic []Entry
	for _, entry := range s.All() {
		if entry.ElapsedCycles(now) >= minAttempts-1 {
			problematic = append(problematic, entry)
		}
	}
	if len(problematic) == 0 {
		return 0, nil
	}

	rendered := renderProblematic(problematic, now)
	path := filepath.Join(dir, "pending_problematic.txt")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return 0, fmt.Errorf("write problematic report: %w", err)
	}
	return len(problematic), nil
}

// RenderProblematic returns the report table for entries with at least
// minAttempts elapsed cycles, for direct CLI display.
func (s *Store) RenderProblematic(minAttempts int) string {
	if minAttempts < 1 {
		minAttempts = 1
	}
	now := s.now()
	var problematic []Entry
	for _, entry := range s.All() {
		if entry.ElapsedCycles(now) >= minAttempts-1 {
			problematic = append(problematic, entry)
		}
	}
	return renderProblematic(problematic, now)
}

func renderProblematic(entries []Entry, now time.Time) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Artist", "Album", "Reason", "First Attempt", "Last Attempt", "Attempts", "Days Pending"})

	for _, entry := range entries {
		cycles := entry.ElapsedCycles(now)
		first := entry.MarkedAt
		last := first.Add(time.Duration(cycles*entry.RecheckDays) * 24 * time.Hour)
		tw.AppendRow(table.Row{
			entry.Artist,
			entry.Album,
			entry.Reason,
			first.Format("2006-01-02"),
			last.Format("2006-01-02"),
			cycles + 1,
			entry.DaysPending(now),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	return tw.Render()
}
