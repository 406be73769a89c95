// Package view maps reservation entries to the rows shown in the
// reservation table. Rendering here is pure; HTML and event wiring live in
// the web package.
package view

import (
	"fmt"

	"github.com/roomescape/reservation-web/internal/config"
	"github.com/roomescape/reservation-web/internal/models"
)

// ColumnCount is the fixed number of cells in every row
const ColumnCount = 5

// Labels controls the strings produced by Render
type Labels struct {
	Confirmed     string
	WaitingFormat string
	CancelText    string
}

// LabelsFromConfig converts the label configuration
func LabelsFromConfig(cfg config.LabelConfig) Labels {
	return Labels{
		Confirmed:     cfg.Confirmed,
		WaitingFormat: cfg.WaitingFormat,
		CancelText:    cfg.CancelText,
	}
}

// Row describes one rendered table row
type Row struct {
	ReservationID models.ReservationID
	Theme         string
	Date          string
	Time          string
	// StatusLabel is the status verbatim when confirmed, the rank text otherwise
	StatusLabel string
	// Cancelable is true for waitlisted entries; the action cell then holds
	// a cancel control labelled CancelText
	Cancelable bool
	CancelText string
}

// Cells returns the row's cells in column order. The action cell is empty
// for confirmed entries and holds the cancel label otherwise.
func (r Row) Cells() [ColumnCount]string {
	action := ""
	if r.Cancelable {
		action = r.CancelText
	}
	return [ColumnCount]string{r.Theme, r.Date, r.Time, r.StatusLabel, action}
}

// Render produces one row per entry, in input order
func Render(entries []models.ReservationEntry, labels Labels) []Row {
	rows := make([]Row, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, renderRow(entry, labels))
	}
	return rows
}

func renderRow(entry models.ReservationEntry, labels Labels) Row {
	row := Row{
		ReservationID: entry.ReservationID,
		Theme:         entry.Theme,
		Date:          entry.Date,
		Time:          entry.Time,
	}

	if entry.IsConfirmed(labels.Confirmed) {
		row.StatusLabel = entry.Status
		return row
	}

	rank := 0
	if entry.Rank != nil {
		rank = *entry.Rank
	}
	row.StatusLabel = fmt.Sprintf(labels.WaitingFormat, rank)
	row.Cancelable = true
	row.CancelText = labels.CancelText
	return row
}
