package email

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/ashroots/table-reservation/internal/calendar"
	"github.com/ashroots/table-reservation/internal/model"
)

func sample() model.Confirmation {
	return model.Confirmation{
		ReservationID:   42,
		Name:            "Ada <script>",
		Email:           "ada@example.com",
		TableID:         3,
		TableCapacity:   4,
		Date:            calendar.Date{Year: 2024, Month: time.March, Day: 15},
		TimeSlot:        calendar.TimeOfDay{Hour: 19, Minute: 30},
		SpecialRequests: "Birthday",
	}
}

func TestRenderConfirmation(t *testing.T) {
	subject, html, text, err := RenderConfirmation(sample())
	require.NoError(t, err)

	assert.Equal(t, "Reservation Confirmation - Ash Roots Cafe", subject)
	assert.Contains(t, html, "#42")
	assert.Contains(t, html, "Friday, March 15, 2024")
	assert.Contains(t, html, "7:30 PM")
	assert.Contains(t, html, "Table 3 (seats 4)")
	assert.Contains(t, html, "Birthday")
	assert.NotContains(t, html, "<script>", "names are escaped")

	assert.Contains(t, text, "Date: Friday, March 15, 2024")
	assert.Contains(t, text, "Seats: 4")
}

func TestRenderConfirmationWithoutCapacity(t *testing.T) {
	c := sample()
	c.TableCapacity = 0
	c.SpecialRequests = ""
	_, html, text, err := RenderConfirmation(c)
	require.NoError(t, err)
	assert.NotContains(t, html, "seats")
	assert.NotContains(t, html, "Special requests")
	assert.NotContains(t, text, "Seats:")
}

type captureDialer struct {
	msgs []*mail.Msg
	err  error
}

func (d *captureDialer) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	d.msgs = append(d.msgs, msgs...)
	return d.err
}

func TestSendConfirmation(t *testing.T) {
	d := &captureDialer{}
	s := &Sender{from: "bookings@ashroots.example", client: d}

	require.NoError(t, s.SendConfirmation(context.Background(), sample()))
	require.Len(t, d.msgs, 1)

	rcpts, err := d.msgs[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com"}, rcpts)
	assert.Equal(t, []string{"Reservation Confirmation - Ash Roots Cafe"}, d.msgs[0].GetGenHeader(mail.HeaderSubject))

	var raw bytes.Buffer
	_, err = d.msgs[0].WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "text/html")
}

func TestSendConfirmationErrors(t *testing.T) {
	s := &Sender{from: "bookings@ashroots.example", client: &captureDialer{err: errors.New("relay refused")}}
	assert.ErrorContains(t, s.SendConfirmation(context.Background(), sample()), "relay refused")

	c := sample()
	c.Email = "not an address"
	assert.Error(t, s.SendConfirmation(context.Background(), c))
}
