package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ashroots/table-reservation/internal/model"
)

const confirmationSubject = "Reservation Confirmation - Ash Roots Cafe"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Thank you for your reservation, {{.Name}}!</h2>
  <p>We are delighted to confirm your table at Ash Roots Cafe.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><strong>Reservation ID</strong></td><td>#{{.ReservationID}}</td></tr>
    <tr><td><strong>Date</strong></td><td>{{.Date}}</td></tr>
    <tr><td><strong>Time</strong></td><td>{{.Time}}</td></tr>
    <tr><td><strong>Table</strong></td><td>Table {{.TableID}}{{if .Capacity}} (seats {{.Capacity}}){{end}}</td></tr>
    {{- if .SpecialRequests}}
    <tr><td><strong>Special requests</strong></td><td>{{.SpecialRequests}}</td></tr>
    {{- end}}
  </table>
  <p>If you need to change or cancel your booking, please contact us.</p>
  <p>See you soon!</p>
</body>
</html>
`))

type confirmationView struct {
	Name            string
	ReservationID   uint64
	Date            string
	Time            string
	TableID         uint64
	Capacity        int
	SpecialRequests string
}

// RenderConfirmation returns the subject, HTML body and plain-text body for c.
func RenderConfirmation(c model.Confirmation) (subject, html, text string, err error) {
	v := confirmationView{
		Name:            c.Name,
		ReservationID:   c.ReservationID,
		Date:            c.Date.Long(),
		Time:            c.TimeSlot.Kitchen(),
		TableID:         c.TableID,
		Capacity:        c.TableCapacity,
		SpecialRequests: c.SpecialRequests,
	}
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, v); err != nil {
		return "", "", "", fmt.Errorf("render confirmation: %w", err)
	}

	text = fmt.Sprintf("Thank you for your reservation, %s!\n\nReservation ID: #%d\nDate: %s\nTime: %s\nTable: %d\n",
		v.Name, v.ReservationID, v.Date, v.Time, v.TableID)
	if v.Capacity > 0 {
		text += fmt.Sprintf("Seats: %d\n", v.Capacity)
	}
	if v.SpecialRequests != "" {
		text += "Special requests: " + v.SpecialRequests + "\n"
	}
	return confirmationSubject, buf.String(), text, nil
}
