// Package report renders availability as XLSX workbooks.
package report

import (
	"fmt"
	"io"

	"truckslot/internal/availability"
	"truckslot/internal/model"
)

const (
	SheetAvailability = "Availability"
	SheetOverflow     = "Overflow"
	ContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	availabilityColumns = []string{
		"Date", "Weekday", "Source", "Override", "Start", "End",
		"Max trucks", "Booked", "Available", "Overflow", "Note",
	}
	overflowColumns = []string{
		"Date", "Start", "End", "Max trucks", "Booked", "Excess",
	}
)

// Filename is the suggested download name of an export.
func Filename(terminalID int64, days []availability.DayAvailability) string {
	if len(days) == 0 {
		return fmt.Sprintf("availability_%d.xlsx", terminalID)
	}
	return fmt.Sprintf("availability_%d_%s_%s.xlsx", terminalID,
		model.FormatDate(days[0].Date), model.FormatDate(days[len(days)-1].Date))
}

// WriteAvailability writes one row per slot, and one row per closed day, plus
// a sheet listing overflowing slots.
func WriteAvailability(wr io.Writer, days []availability.DayAvailability) error {
	wb := NewWorkbook()
	defer wb.Close()

	if err := wb.AddSheet(SheetAvailability); err != nil {
		return err
	}
	if err := wb.WriteHeader(availabilityColumns); err != nil {
		return err
	}
	for _, day := range days {
		if err := writeDay(wb, day); err != nil {
			return err
		}
	}

	if err := wb.AddSheet(SheetOverflow); err != nil {
		return err
	}
	if err := wb.WriteHeader(overflowColumns); err != nil {
		return err
	}
	for _, day := range days {
		for _, s := range day.Slots {
			if !s.Overflow {
				continue
			}
			row := []any{
				model.FormatDate(day.Date), s.StartTime.String(), s.EndTime.String(),
				s.MaxCapacity, s.BookedCount, s.OverflowBy,
			}
			if err := wb.WriteRow(row); err != nil {
				return err
			}
		}
	}

	return wb.Save(wr)
}

func writeDay(wb *Workbook, day availability.DayAvailability) error {
	date := model.FormatDate(day.Date)
	hours := day.OperatingHours

	if day.IsClosed {
		note := day.Reason
		if note == "" {
			note = "closed"
		}
		return wb.WriteRow([]any{date, day.Weekday.String(), string(hours.Source), "", "", "", 0, 0, 0, "", note})
	}

	var note string
	if day.UnmatchedBookings > 0 {
		note = fmt.Sprintf("%d unmatched bookings", day.UnmatchedBookings)
	}
	for _, s := range day.Slots {
		overflow := ""
		if s.Overflow {
			overflow = "yes"
		}
		row := []any{
			date, day.Weekday.String(), string(hours.Source), hours.OverrideLabel,
			s.StartTime.String(), s.EndTime.String(),
			s.MaxCapacity, s.BookedCount, s.AvailableCapacity, overflow, note,
		}
		if err := wb.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}
