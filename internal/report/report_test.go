package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"truckslot/internal/availability"
	"truckslot/internal/capacity"
	"truckslot/internal/model"
)

var monday = time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

func sampleDays() []availability.DayAvailability {
	open := availability.BuildDay(capacity.Resolution{
		Date:   monday,
		Source: capacity.SourceDefaultConfig,
		Config: &model.DayConfig{
			OperatingStart:      model.MustTimeOfDay("08:00"),
			OperatingEnd:        model.MustTimeOfDay("10:00"),
			SlotDurationMinutes: 60,
			MaxTrucksPerSlot:    2,
		},
	}, map[model.TimeOfDay]int{model.MustTimeOfDay("09:00"): 3})

	closed := availability.BuildDay(capacity.Resolution{
		Date:   monday.AddDate(0, 0, 1),
		Source: capacity.SourceClosedDate,
		Closed: true,
		Reason: "strike",
	}, nil)
	return []availability.DayAvailability{open, closed}
}

func TestWriteAvailability(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAvailability(&buf, sampleDays()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetAvailability, SheetOverflow}, f.GetSheetList())

	rows, err := f.GetRows(SheetAvailability)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, availabilityColumns, rows[0])
	assert.Equal(t, []string{"2026-01-12", "MONDAY", "DEFAULT_CONFIG", "", "08:00", "09:00", "2", "0", "2"}, rows[1])
	assert.Equal(t, "yes", rows[2][9])
	assert.Equal(t, []string{"2026-01-13", "TUESDAY", "CLOSED_DATE", "", "", "", "0", "0", "0", "", "strike"}, rows[3])

	over, err := f.GetRows(SheetOverflow)
	require.NoError(t, err)
	require.Len(t, over, 2)
	assert.Equal(t, []string{"2026-01-12", "09:00", "10:00", "2", "3", "1"}, over[1])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "availability_4.xlsx", Filename(4, nil))
	assert.Equal(t, "availability_4_2026-01-12_2026-01-13.xlsx", Filename(4, sampleDays()))
}

func TestWorkbookRequiresSheet(t *testing.T) {
	wb := NewWorkbook()
	defer wb.Close()
	assert.Error(t, wb.WriteRow([]any{"x"}))
}
