package model

import "fmt"

// Table is a row of the `dining_tables` reference table.
type Table struct {
	ID       uint64 `json:"table_id"`
	Capacity int    `json:"capacity"`
}

// TableAvailability is a table annotated for one (date, time, party size)
// query. It is derived per request and never stored.
type TableAvailability struct {
	Table
	CapacityDisplay string `json:"capacity_display"`
	Available       bool   `json:"is_available"`
}

// CapacityLabel is "Perfect Fit" when the table seats exactly the party and
// "Seats N" otherwise.
func CapacityLabel(capacity, partySize int) string {
	if capacity == partySize {
		return "Perfect Fit"
	}
	return fmt.Sprintf("Seats %d", capacity)
}

// FitDistance is |capacity - partySize|, the closest-fit rank key.
func FitDistance(capacity, partySize int) int {
	if d := capacity - partySize; d >= 0 {
		return d
	}
	return partySize - capacity
}
