package slots

import (
	"truckslot/internal/model"
)

// Generate partitions the operating window of cfg into contiguous slots of
// cfg.SlotDurationMinutes. A trailing remainder shorter than the duration is
// kept as a final shorter slot. Booked counts start at zero.
func Generate(cfg model.DayConfig) []model.TimeSlot {
	if cfg.SlotDurationMinutes <= 0 || cfg.OperatingEnd <= cfg.OperatingStart {
		return nil
	}

	n := (int(cfg.OperatingEnd-cfg.OperatingStart) + cfg.SlotDurationMinutes - 1) / cfg.SlotDurationMinutes
	slots := make([]model.TimeSlot, 0, n)

	for cursor := cfg.OperatingStart; cursor < cfg.OperatingEnd; cursor = cursor.Add(cfg.SlotDurationMinutes) {
		end := cursor.Add(cfg.SlotDurationMinutes)
		if end > cfg.OperatingEnd {
			end = cfg.OperatingEnd
		}
		slots = append(slots, model.TimeSlot{
			StartTime:   cursor,
			EndTime:     end,
			MaxCapacity: cfg.MaxTrucksPerSlot,
		})
	}
	return slots
}

// ApplyCounts sets BookedCount on each slot from counts keyed by slot start.
// It returns how many counted bookings matched no slot start.
func ApplyCounts(slots []model.TimeSlot, counts map[model.TimeOfDay]int) (unmatched int) {
	matched := 0
	for i := range slots {
		c := counts[slots[i].StartTime]
		slots[i].BookedCount = c
		matched += c
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	return total - matched
}

// GetAvailableSlots returns only slots with free capacity.
func GetAvailableSlots(slots []model.TimeSlot) []model.TimeSlot {
	var available []model.TimeSlot
	for _, s := range slots {
		if s.IsAvailable() {
			available = append(available, s)
		}
	}
	return available
}

// OverflowingSlots returns slots whose bookings exceed capacity.
func OverflowingSlots(slots []model.TimeSlot) []model.TimeSlot {
	var over []model.TimeSlot
	for _, s := range slots {
		if s.Overflow() {
			over = append(over, s)
		}
	}
	return over
}

// FindConsecutiveSlots groups available slots into runs of back-to-back slots.
func FindConsecutiveSlots(slots []model.TimeSlot) [][]model.TimeSlot {
	available := GetAvailableSlots(slots)
	if len(available) == 0 {
		return nil
	}

	var groups [][]model.TimeSlot
	currentGroup := []model.TimeSlot{available[0]}

	for i := 1; i < len(available); i++ {
		if available[i].StartTime == currentGroup[len(currentGroup)-1].EndTime {
			currentGroup = append(currentGroup, available[i])
		} else {
			groups = append(groups, currentGroup)
			currentGroup = []model.TimeSlot{available[i]}
		}
	}
	groups = append(groups, currentGroup)

	return groups
}
