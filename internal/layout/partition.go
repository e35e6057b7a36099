package layout

import (
	"fmt"
	"time"
)

// Slot is one row of the time ruler drawn beside the day grid.
type Slot struct {
	Period
	Top    int
	Height int
}

// Partition splits period into consecutive slots of incrementMinutes each
// and gives every slot an equal share of height. A trailing remainder that
// does not fill a whole increment is dropped, so a period shorter than one
// increment yields no slots.
//
// width is validated but not used for geometry; slots span the ruler.
func Partition(period Period, incrementMinutes, width, height int) ([]Slot, error) {
	if err := period.validate(); err != nil {
		return nil, err
	}
	if incrementMinutes <= 0 {
		return nil, fmt.Errorf("layout: slot increment %d minutes: %w", incrementMinutes, ErrInvalidGeometry)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("layout: slot area %dx%d: %w", width, height, ErrInvalidGeometry)
	}

	step := time.Duration(incrementMinutes) * time.Minute
	count := int(period.Seconds() / wholeSeconds(step))
	slots := make([]Slot, 0, count)
	if count == 0 {
		return slots, nil
	}

	rowHeight := height / count
	cursor := period.Start
	for i := 0; i < count; i++ {
		slots = append(slots, Slot{
			Period: period.TimeSlot(cursor, cursor.Add(step)),
			Top:    rowHeight * i,
			Height: rowHeight,
		})
		cursor = cursor.Add(step)
	}
	return slots, nil
}
