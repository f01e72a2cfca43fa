// Package pdf renders a planilla into the printable match-day document.
package pdf

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/go-pdf/fpdf"
)

// Layout constants are in millimeters on an A4 portrait page. The player
// grid and staff slots mirror the printed form the league hands out.
const (
	headerTop      = 18.0
	playersTop     = 62.0
	playerRowH     = 9.0
	staffTop       = 210.0
	staffRowH      = 10.0
	leftMargin     = 14.0
	colNumberX     = 16.0
	colNumberW     = 14.0
	colNameX       = 30.0
	colNameW       = 110.0
	colDNIX        = 140.0
	colDNIW        = 42.0
	maxPlayerSlots = 14
)

type Renderer struct {
	templatePath string
}

// NewRenderer builds a renderer. templatePath may point at a background
// image (the scanned blank form); empty disables it and the renderer draws
// its own grid.
func NewRenderer(templatePath string) *Renderer {
	return &Renderer{templatePath: templatePath}
}

// Render produces the PDF document for a fully loaded planilla: Team,
// Jugadores and Personas must already be populated.
func (r *Renderer) Render(planilla *models.Planilla) ([]byte, error) {
	if planilla.Team == nil {
		return nil, fmt.Errorf("planilla %d has no team loaded", planilla.ID)
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Planilla de Buena Fe - %s", planilla.Team.Nombre), true)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	// Status and charge strings carry Spanish accents; the core fonts are
	// cp1252 so everything goes through the translator.
	tr := doc.UnicodeTranslatorFromDescriptor("")

	if r.templatePath != "" {
		if _, err := os.Stat(r.templatePath); err == nil {
			doc.ImageOptions(r.templatePath, 0, 0, 210, 297, false,
				fpdf.ImageOptions{ImageType: "", ReadDpi: true}, 0, "")
		}
	}

	r.drawHeader(doc, tr, planilla)
	r.drawPlayers(doc, tr, planilla.Jugadores)
	r.drawStaff(doc, tr, planilla.Personas)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render planilla %d: %w", planilla.ID, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawHeader(doc *fpdf.Fpdf, tr func(string) string, planilla *models.Planilla) {
	doc.SetFont("Helvetica", "B", 16)
	doc.SetXY(leftMargin, headerTop)
	doc.CellFormat(182, 8, tr("Planilla de Buena Fe"), "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "B", 12)
	doc.SetXY(leftMargin, headerTop+14)
	doc.CellFormat(120, 7, tr(planilla.Team.Nombre), "", 0, "L", false, 0, "")
	doc.CellFormat(62, 7, tr(fmt.Sprintf("Categoría %d", planilla.Team.Category)), "", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.SetXY(leftMargin, headerTop+22)
	doc.CellFormat(120, 6, tr(fmt.Sprintf("Estado: %s", planilla.Status)), "", 0, "L", false, 0, "")
	doc.CellFormat(62, 6, planilla.UpdatedAt.Format("02/01/2006"), "", 1, "R", false, 0, "")
}

func (r *Renderer) drawPlayers(doc *fpdf.Fpdf, tr func(string) string, jugadores []models.Jugador) {
	doc.SetFont("Helvetica", "B", 10)
	doc.SetXY(colNumberX, playersTop-8)
	doc.CellFormat(colNumberW, 6, "N°", "B", 0, "C", false, 0, "")
	doc.SetX(colNameX)
	doc.CellFormat(colNameW, 6, tr("Apellido y Nombre"), "B", 0, "L", false, 0, "")
	doc.SetX(colDNIX)
	doc.CellFormat(colDNIW, 6, "DNI", "B", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	for slot := 0; slot < maxPlayerSlots; slot++ {
		y := playersTop + float64(slot)*playerRowH
		doc.SetXY(colNumberX, y)
		if slot < len(jugadores) {
			j := jugadores[slot]
			doc.CellFormat(colNumberW, playerRowH, fmt.Sprintf("%d", j.Number), "B", 0, "C", false, 0, "")
			doc.SetX(colNameX)
			doc.CellFormat(colNameW, playerRowH, tr(fmt.Sprintf("%s, %s", j.SecondName, j.Name)), "B", 0, "L", false, 0, "")
			doc.SetX(colDNIX)
			doc.CellFormat(colDNIW, playerRowH, j.DNI, "B", 1, "L", false, 0, "")
		} else {
			doc.CellFormat(colNumberW, playerRowH, "", "B", 0, "C", false, 0, "")
			doc.SetX(colNameX)
			doc.CellFormat(colNameW, playerRowH, "", "B", 0, "L", false, 0, "")
			doc.SetX(colDNIX)
			doc.CellFormat(colDNIW, playerRowH, "", "B", 1, "L", false, 0, "")
		}
	}
}

func (r *Renderer) drawStaff(doc *fpdf.Fpdf, tr func(string) string, personas []models.Persona) {
	byCharge := make(map[models.PersonaCharge]*models.Persona, len(personas))
	for i := range personas {
		p := personas[i]
		byCharge[p.Charge] = &p
	}

	charges := []models.PersonaCharge{
		models.ChargeTecnico,
		models.ChargeDelegado,
		models.ChargeMedico,
	}

	for i, charge := range charges {
		y := staffTop + float64(i)*staffRowH
		doc.SetFont("Helvetica", "B", 10)
		doc.SetXY(leftMargin, y)
		doc.CellFormat(34, staffRowH, tr(string(charge)), "B", 0, "L", false, 0, "")

		doc.SetFont("Helvetica", "", 10)
		if p, ok := byCharge[charge]; ok {
			doc.CellFormat(86, staffRowH, tr(fmt.Sprintf("%s, %s", p.SecondName, p.Name)), "B", 0, "L", false, 0, "")
			doc.CellFormat(30, staffRowH, p.DNI, "B", 0, "L", false, 0, "")
			doc.CellFormat(32, staffRowH, tr(p.PhoneNumber), "B", 1, "L", false, 0, "")
		} else {
			doc.CellFormat(86, staffRowH, "", "B", 0, "L", false, 0, "")
			doc.CellFormat(30, staffRowH, "", "B", 0, "L", false, 0, "")
			doc.CellFormat(32, staffRowH, "", "B", 1, "L", false, 0, "")
		}
	}

	doc.SetFont("Helvetica", "I", 8)
	doc.SetXY(leftMargin, 282)
	doc.CellFormat(182, 5,
		tr(fmt.Sprintf("Generado el %s", time.Now().Format("02/01/2006 15:04"))),
		"", 1, "R", false, 0, "")
}
