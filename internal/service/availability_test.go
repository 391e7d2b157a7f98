package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashroots/table-reservation/internal/model"
)

func TestFindAvailableTablesScenario(t *testing.T) {
	// table 3 seats exactly four
	f := newFixture(t, 2, 6, 4, 8, 4)
	ctx := context.Background()

	res, err := f.avail.FindAvailableTables(ctx, "2024-06-01", "19:00:00", 4)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, "Found 4 available table(s) for your party size", res.Message)
	require.Len(t, res.Tables, 4)
	assert.Equal(t, uint64(3), res.Tables[0].ID)
	assert.Equal(t, "Perfect Fit", res.Tables[0].CapacityDisplay)
	assert.True(t, res.Tables[0].Available)
	assert.Equal(t, []uint64{3, 5, 2, 4}, ids(res.Tables))

	booking := request("scenario@example.com", 3)
	booking.Date, booking.TimeSlot = "2024-06-01", "19:00:00"
	_, err = f.booking.CreateBooking(ctx, booking)
	require.NoError(t, err)

	res, err = f.avail.FindAvailableTables(ctx, "2024-06-01", "19:00", 4)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, []uint64{5, 2, 4, 3}, ids(res.Tables))
	last := res.Tables[len(res.Tables)-1]
	assert.False(t, last.Available)
	assert.Equal(t, "Perfect Fit", last.CapacityDisplay)

	booking.Email = "second@example.com"
	_, err = f.booking.CreateBooking(ctx, booking)
	assert.ErrorIs(t, err, ErrSlotReserved)
	all, err := f.booking.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// other slots are unaffected
	res, err = f.avail.FindAvailableTables(ctx, "2024-06-01", "20:00:00", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Tables[0].ID)
	assert.True(t, res.Tables[0].Available)
}

func TestFindAvailableTablesMessages(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	res, err := f.avail.FindAvailableTables(ctx, "2024-06-01", "19:00", 3)
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Empty(t, res.Tables)
	assert.Equal(t, "No table can seat a party of 3.", res.Message)

	booking := request("msg@example.com", 1)
	booking.Date = "2024-06-01"
	_, err = f.booking.CreateBooking(ctx, booking)
	require.NoError(t, err)

	res, err = f.avail.FindAvailableTables(ctx, "2024-06-01", "19:00", 2)
	require.NoError(t, err)
	assert.False(t, res.Available)
	require.Len(t, res.Tables, 1)
	assert.Equal(t, "No tables are available for the selected date and time. Please choose a different time slot.", res.Message)
}

func TestFindAvailableTablesValidation(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	_, err := f.avail.FindAvailableTables(ctx, "", "19:00", 2)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.avail.FindAvailableTables(ctx, "2024-06-01", "7pm", 2)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.avail.FindAvailableTables(ctx, "2024-06-01", "19:00", 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.avail.CheckTable(ctx, 0, "2024-06-01", "19:00")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRankTablesProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		party := 1 + rng.Intn(8)
		in := make([]model.TableAvailability, 0, 12)
		for id := 1; id <= 12; id++ {
			in = append(in, model.TableAvailability{
				Table:     model.Table{ID: uint64(id), Capacity: 1 + rng.Intn(10)},
				Available: rng.Intn(2) == 0,
			})
		}
		rng.Shuffle(len(in), func(i, j int) { in[i], in[j] = in[j], in[i] })

		out := RankTables(in, party)
		want := 0
		for _, ta := range in {
			if ta.Capacity >= party {
				want++
			}
		}
		require.Len(t, out, want)
		for i, ta := range out {
			assert.GreaterOrEqual(t, ta.Capacity, party)
			assert.Equal(t, model.CapacityLabel(ta.Capacity, party), ta.CapacityDisplay)
			if i == 0 {
				continue
			}
			prev := out[i-1]
			if prev.Available != ta.Available {
				assert.True(t, prev.Available, "available tables come first")
				continue
			}
			dp, dc := model.FitDistance(prev.Capacity, party), model.FitDistance(ta.Capacity, party)
			assert.LessOrEqual(t, dp, dc)
			if dp == dc {
				assert.Less(t, prev.ID, ta.ID)
			}
		}
	}
}

func TestListTables(t *testing.T) {
	f := newFixture(t, 2, 4)
	tables, err := f.avail.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Table{{ID: 1, Capacity: 2}, {ID: 2, Capacity: 4}}, tables)
}

func ids(in []model.TableAvailability) []uint64 {
	out := make([]uint64, len(in))
	for i, ta := range in {
		out[i] = ta.ID
	}
	return out
}
