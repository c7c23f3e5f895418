package notify

import (
	"bytes"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// TicketPDF renders a one-page ticket for a confirmed booking and
// returns the raw PDF bytes.
func TicketPDF(recipient string, p Payload) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Movie Ticket", false)
	pdf.AddPage()

	pdf.SetFillColor(74, 111, 165)
	pdf.Rect(0, 0, 210, 30, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(0, 10)
	pdf.CellFormat(210, 10, "MOVIE TICKET", "", 1, "C", false, 0, "")

	pdf.SetTextColor(44, 62, 80)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(20, 42)
	pdf.CellFormat(170, 10, orNA(p.MovieName), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(51, 51, 51)
	rows := []struct{ label, value string }{
		{"Booking ID", p.BookingID},
		{"Theatre", orNA(p.TheatreName)},
		{"Date", orNA(p.ShowDate)},
		{"Time", orNA(p.ShowTime)},
		{"Seats", strings.Join(p.Seats, ", ")},
		{"Booked by", recipient},
	}
	y := 58.0
	for _, row := range rows {
		pdf.SetXY(20, y)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(40, 8, row.label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(130, 8, row.value, "", "L", false)
		y = pdf.GetY()
	}

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetDashPattern([]float64{3, 2}, 0)
	pdf.Line(20, y+6, 190, y+6)
	pdf.SetDashPattern([]float64{}, 0)

	pdf.SetXY(20, y+12)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(119, 119, 119)
	pdf.MultiCell(170, 6,
		"Please arrive at least 20 minutes before the show. This ticket is valid only for the date, time and seats printed above.",
		"", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
