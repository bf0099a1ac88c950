// Package receipt renders the PDF payment receipt attached to confirmation
// mails.
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	qrImageName = "checkin-qr"
	qrSizePx    = 256
	qrSizeMM    = 45.0
	pageMargin  = 18.0
)

// Data is everything printed on a receipt.
type Data struct {
	EventName       string
	Name            string
	CompetitionName string
	City            string
	RegistrationID  string
	PaymentID       string
	Amount          string // already formatted, e.g. "1180"
	Currency        string
	Date            time.Time
}

func (d Data) validate() error {
	if d.RegistrationID == "" {
		return errors.New("receipt: registration id is required")
	}
	if d.Name == "" {
		return errors.New("receipt: participant name is required")
	}
	return nil
}

var (
	brandColor  = [3]int{107, 45, 31}
	headerFill  = [3]int{252, 233, 228}
	stripeFill  = [3]int{249, 249, 249}
	bodyColor   = [3]int{51, 51, 51}
	footerColor = [3]int{136, 136, 136}
)

// Render returns the receipt as PDF bytes. The page carries a QR code of the
// registration ID for check-in scanning.
func Render(d Data) ([]byte, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	qr, err := qrcode.Encode(d.RegistrationID, qrcode.Medium, qrSizePx)
	if err != nil {
		return nil, fmt.Errorf("receipt: encode qr: %w", err)
	}
	if d.Currency == "" {
		d.Currency = "INR"
	}
	if d.Date.IsZero() {
		d.Date = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetTitle("Registration Receipt "+d.RegistrationID, false)
	pdf.SetCreationDate(d.Date)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin

	// Header
	setColor(pdf.SetTextColor, brandColor)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(contentW, 10, d.EventName, "", 1, "C", false, 0, "")
	setColor(pdf.SetTextColor, bodyColor)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(contentW, 8, "Registration Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, "Date: "+d.Date.Format("02 Jan 2006"), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	// Participant
	section(pdf, contentW, "Participant Details")
	for _, line := range []string{
		"Name: " + d.Name,
		"Competition: " + d.CompetitionName,
		"City: " + d.City,
	} {
		pdf.CellFormat(contentW, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Payment table
	section(pdf, contentW, "Payment Information")
	half := contentW / 2
	setColor(pdf.SetDrawColor, brandColor)
	setColor(pdf.SetFillColor, headerFill)
	setColor(pdf.SetTextColor, brandColor)
	pdf.CellFormat(half, 9, "  Field", "1", 0, "L", true, 0, "")
	pdf.CellFormat(half, 9, "  Details", "1", 1, "L", true, 0, "")
	setColor(pdf.SetTextColor, bodyColor)
	setColor(pdf.SetFillColor, stripeFill)
	rows := [][2]string{
		{"Registration ID", d.RegistrationID},
		{"Payment ID", d.PaymentID},
		{"Amount Paid", d.Currency + " " + d.Amount},
	}
	for i, row := range rows {
		fill := i%2 == 0
		pdf.CellFormat(half, 9, "  "+row[0], "1", 0, "L", fill, 0, "")
		pdf.CellFormat(half, 9, "  "+row[1], "1", 1, "L", fill, 0, "")
	}
	pdf.Ln(10)

	// Check-in QR
	pdf.RegisterImageOptionsReader(qrImageName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qr))
	y := pdf.GetY()
	pdf.ImageOptions(qrImageName, (pageW-qrSizeMM)/2, y, qrSizeMM, qrSizeMM, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetY(y + qrSizeMM + 3)
	setColor(pdf.SetTextColor, brandColor)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 6, "Scan at Event Check-In", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	// Footer
	setColor(pdf.SetTextColor, bodyColor)
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(contentW, 6, "Thank you for registering! We look forward to seeing you at the championship.", "", "C", false)
	setColor(pdf.SetTextColor, footerColor)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 6, "This receipt was generated electronically and needs no signature.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName is the attachment name for a registration's receipt.
func FileName(registrationID string) string {
	return "Receipt-" + registrationID + ".pdf"
}

func section(pdf *fpdf.Fpdf, w float64, title string) {
	setColor(pdf.SetTextColor, brandColor)
	pdf.SetFont("Helvetica", "BU", 13)
	pdf.CellFormat(w, 8, title, "", 1, "L", false, 0, "")
	setColor(pdf.SetTextColor, bodyColor)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Ln(1)
}

func setColor(set func(r, g, b int), c [3]int) {
	set(c[0], c[1], c[2])
}
