package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, in := range []string{"confirmed", "cancelled", "pending"} {
		st, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.NotEmpty(t, st)
	}
	for _, in := range []string{"", "completed", "deleted", "CONFIRMED!", "CONFIRMED", "Cancelled", " pending", "pending\n"} {
		_, err := ParseStatus(in)
		assert.ErrorIs(t, err, ErrUnknownStatus, in)
	}
}

func TestStatusBlocks(t *testing.T) {
	assert.True(t, StatusConfirmed.Blocks())
	assert.True(t, StatusPending.Blocks())
	assert.False(t, StatusCancelled.Blocks())
}

func TestCapacityLabel(t *testing.T) {
	assert.Equal(t, "Perfect Fit", CapacityLabel(4, 4))
	assert.Equal(t, "Seats 6", CapacityLabel(6, 4))
	assert.Equal(t, 2, FitDistance(6, 4))
	assert.Equal(t, 2, FitDistance(2, 4))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("")
	assert.True(t, ok)
	assert.Equal(t, RoleCustomer, r)

	r, ok = ParseRole("ADMIN")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("owner")
	assert.False(t, ok)
}

func TestMoney(t *testing.T) {
	for in, want := range map[string]Money{
		"12":     1200,
		"12.5":   1250,
		"12.50":  1250,
		"0.05":   5,
		" 3.20 ": 320,
		"-1.10":  -110,
	} {
		got, err := ParseMoney(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "1.234", "abc", ".50", "1.x"} {
		_, err := ParseMoney(in)
		assert.Error(t, err, in)
	}

	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.10", Money(-110).String())
	assert.Equal(t, Money(6300), Money(2100).Times(3))

	b, err := Money(450).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "4.50", string(b))

	var m Money
	require.NoError(t, m.Scan([]byte("21.00")))
	assert.Equal(t, Money(2100), m)
	require.NoError(t, m.Scan(int64(3)))
	assert.Equal(t, Money(300), m)
	require.NoError(t, m.Scan(nil))
	assert.Zero(t, m)
	assert.Error(t, m.Scan(1.5))
}
