package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ashroots/table-reservation/internal/calendar"
	"github.com/ashroots/table-reservation/internal/model"
)

// AvailabilityResult is the ranked answer to one availability query.
// Tables is empty when no table seats the party; Available is false when
// tables exist but all are taken. Both cases carry a Message, neither is
// an error.
type AvailabilityResult struct {
	Available bool                      `json:"available"`
	Message   string                    `json:"message"`
	Tables    []model.TableAvailability `json:"tables"`
}

// AvailabilityService answers which tables can take a party at a slot.
type AvailabilityService struct {
	tables       TableStore
	reservations ReservationStore
	stepTimeout  time.Duration
}

func NewAvailabilityService(tables TableStore, reservations ReservationStore, stepTimeout time.Duration) *AvailabilityService {
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	return &AvailabilityService{tables: tables, reservations: reservations, stepTimeout: stepTimeout}
}

// FindAvailableTables lists tables seating at least partySize, available
// ones first, then by closest fit.
func (s *AvailabilityService) FindAvailableTables(ctx context.Context, date, timeOfDay string, partySize int) (AvailabilityResult, error) {
	d, err := calendar.ParseDate(date)
	if err != nil {
		return AvailabilityResult{}, invalid("date: %v", err)
	}
	t, err := calendar.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return AvailabilityResult{}, invalid("time: %v", err)
	}
	if partySize <= 0 {
		return AvailabilityResult{}, invalid("partySize must be a positive integer")
	}

	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	rows, err := s.tables.Availability(ctx, d, t, partySize)
	if err != nil {
		return AvailabilityResult{}, fmt.Errorf("load table availability: %w", err)
	}
	ranked := RankTables(rows, partySize)

	free := 0
	for _, ta := range ranked {
		if ta.Available {
			free++
		}
	}
	res := AvailabilityResult{Available: free > 0, Tables: ranked}
	switch {
	case len(ranked) == 0:
		res.Message = fmt.Sprintf("No table can seat a party of %d.", partySize)
	case free == 0:
		res.Message = "No tables are available for the selected date and time. Please choose a different time slot."
	default:
		res.Message = fmt.Sprintf("Found %d available table(s) for your party size", free)
	}
	return res, nil
}

// CheckTable reports whether one table is free at date/slot.
func (s *AvailabilityService) CheckTable(ctx context.Context, tableID uint64, date, timeSlot string) (bool, error) {
	if tableID == 0 {
		return false, invalid("table_id is required")
	}
	d, err := calendar.ParseDate(date)
	if err != nil {
		return false, invalid("reservation_date: %v", err)
	}
	t, err := calendar.ParseTimeOfDay(timeSlot)
	if err != nil {
		return false, invalid("time_slot: %v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	taken, err := s.reservations.SlotTaken(ctx, tableID, d, t)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return !taken, nil
}

// ListTables returns every table.
func (s *AvailabilityService) ListTables(ctx context.Context) ([]model.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.tables.List(ctx)
}

// RankTables drops tables too small for the party, labels the rest and
// orders them: available before unavailable, then by |capacity - party|
// ascending, then by table id.
func RankTables(in []model.TableAvailability, partySize int) []model.TableAvailability {
	out := make([]model.TableAvailability, 0, len(in))
	for _, ta := range in {
		if ta.Capacity < partySize {
			continue
		}
		ta.CapacityDisplay = model.CapacityLabel(ta.Capacity, partySize)
		out = append(out, ta)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Available != b.Available {
			return a.Available
		}
		da, db := model.FitDistance(a.Capacity, partySize), model.FitDistance(b.Capacity, partySize)
		if da != db {
			return da < db
		}
		return a.ID < b.ID
	})
	return out
}
