package slots

import (
	"testing"

	"truckslot/internal/model"
)

func dayConfig(start, end string, duration, trucks int) model.DayConfig {
	return model.DayConfig{
		OperatingStart:      model.MustTimeOfDay(start),
		OperatingEnd:        model.MustTimeOfDay(end),
		SlotDurationMinutes: duration,
		MaxTrucksPerSlot:    trucks,
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name          string
		cfg           model.DayConfig
		expectedCount int
		lastStart     string
		lastEnd       string
	}{
		{
			name:          "full day hourly",
			cfg:           dayConfig("08:00", "18:00", 60, 10),
			expectedCount: 10,
			lastStart:     "17:00",
			lastEnd:       "18:00",
		},
		{
			name:          "30 minute slots",
			cfg:           dayConfig("10:00", "12:00", 30, 4),
			expectedCount: 4,
			lastStart:     "11:30",
			lastEnd:       "12:00",
		},
		{
			name:          "trailing partial slot kept",
			cfg:           dayConfig("08:00", "10:30", 60, 2),
			expectedCount: 3,
			lastStart:     "10:00",
			lastEnd:       "10:30",
		},
		{
			name:          "window shorter than one slot",
			cfg:           dayConfig("08:00", "08:20", 60, 2),
			expectedCount: 1,
			lastStart:     "08:00",
			lastEnd:       "08:20",
		},
		{
			name:          "until end of day",
			cfg:           dayConfig("22:00", "24:00", 60, 2),
			expectedCount: 2,
			lastStart:     "23:00",
			lastEnd:       "24:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := Generate(tt.cfg)

			if len(slots) != tt.expectedCount {
				t.Fatalf("expected %d slots, got %d", tt.expectedCount, len(slots))
			}

			last := slots[len(slots)-1]
			if last.StartTime.String() != tt.lastStart || last.EndTime.String() != tt.lastEnd {
				t.Errorf("unexpected last slot %s-%s", last.StartTime, last.EndTime)
			}

			for i, s := range slots {
				if s.MaxCapacity != tt.cfg.MaxTrucksPerSlot {
					t.Errorf("slot %d: max capacity %d, want %d", i, s.MaxCapacity, tt.cfg.MaxTrucksPerSlot)
				}
				if s.BookedCount != 0 {
					t.Errorf("slot %d: booked count should start at zero", i)
				}
				if i > 0 && s.StartTime != slots[i-1].EndTime {
					t.Errorf("slot %d not contiguous with previous", i)
				}
			}
		})
	}
}

func TestGenerate_HourlyMondayStarts(t *testing.T) {
	slots := Generate(dayConfig("08:00", "18:00", 60, 10))

	want := []string{"08:00", "09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}
	for i, s := range slots {
		if s.StartTime.String() != want[i] {
			t.Errorf("slot %d: start %s, want %s", i, s.StartTime, want[i])
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := dayConfig("06:15", "19:40", 45, 7)
	first := Generate(cfg)
	second := Generate(cfg)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("slot %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	if got := Generate(dayConfig("08:00", "08:00", 60, 1)); got != nil {
		t.Errorf("expected no slots for empty window, got %d", len(got))
	}
	if got := Generate(dayConfig("08:00", "18:00", 0, 1)); got != nil {
		t.Errorf("expected no slots for zero duration, got %d", len(got))
	}
}

func TestApplyCounts(t *testing.T) {
	slots := Generate(dayConfig("08:00", "11:00", 60, 5))
	counts := map[model.TimeOfDay]int{
		model.MustTimeOfDay("09:00"): 7,
		model.MustTimeOfDay("10:00"): 2,
		model.MustTimeOfDay("09:30"): 1, // off-grid
	}

	unmatched := ApplyCounts(slots, counts)

	if unmatched != 1 {
		t.Errorf("expected 1 unmatched booking, got %d", unmatched)
	}
	if slots[0].BookedCount != 0 || slots[1].BookedCount != 7 || slots[2].BookedCount != 2 {
		t.Errorf("unexpected counts: %+v", slots)
	}
	if !slots[1].Overflow() || slots[1].AvailableCapacity() != 0 {
		t.Errorf("09:00 slot should overflow with zero availability")
	}
}

func TestFindConsecutiveSlots(t *testing.T) {
	slots := Generate(dayConfig("08:00", "13:00", 60, 1))
	slots[2].BookedCount = 1 // 10:00 full

	groups := FindConsecutiveSlots(slots)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups[0]) != 2 || len(groups[1]) != 2 {
		t.Errorf("unexpected group sizes %d and %d", len(groups[0]), len(groups[1]))
	}

	for i := range slots {
		slots[i].BookedCount = 1
	}
	if groups := FindConsecutiveSlots(slots); groups != nil {
		t.Errorf("expected no groups when everything is full, got %d", len(groups))
	}
}

func TestOverflowingSlots(t *testing.T) {
	slots := Generate(dayConfig("08:00", "10:00", 60, 3))
	slots[0].BookedCount = 3
	slots[1].BookedCount = 4

	over := OverflowingSlots(slots)
	if len(over) != 1 || over[0].StartTime.String() != "09:00" {
		t.Errorf("unexpected overflowing slots: %+v", over)
	}
	if len(GetAvailableSlots(slots)) != 0 {
		t.Errorf("no slot should be available")
	}
}
