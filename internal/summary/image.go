// Package summary renders the admin overview of open leads as a PNG table.
package summary

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fogleman/gg"

	"leadflow/internal/lead"
)

// ErrNoLeads is returned when there is nothing to render.
var ErrNoLeads = errors.New("no open leads to render")

// Table styling, rendered at 2x scale for Telegram clarity.
const (
	cellPaddingX  = 20
	cellPaddingY  = 16
	minRowHeight  = 76
	headerHeight  = 88
	fontSize      = 26
	headerFontSz  = 26
	titleFontSz   = 40
	titlePadding  = 110
	footerPadding = 80
	minColWidth   = 110
	tableMargin   = 40.0
	maxNameWidth  = 300.0
	maxTextWidth  = 420.0
	maxCommentLen = 120
)

var (
	bgColor         = color.RGBA{R: 245, G: 247, B: 250, A: 255}
	titleColor      = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	headerBgColor   = color.RGBA{R: 22, G: 101, B: 52, A: 255}
	headerTextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	rowEvenColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	rowOddColor     = color.RGBA{R: 240, G: 253, B: 244, A: 255}
	partnerRowColor = color.RGBA{R: 254, G: 249, B: 195, A: 255}
	textColor       = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	borderColor     = color.RGBA{R: 203, G: 213, B: 225, A: 255}
	footerColor     = color.RGBA{R: 100, G: 116, B: 139, A: 255}
)

type column struct {
	header   string
	field    func(r *lead.Record) string
	maxWidth float64 // 0 means auto
}

var columns = []column{
	{"#", func(r *lead.Record) string { return r.ID }, 0},
	{"Дата", func(r *lead.Record) string { return shortDate(r.CreatedAt) }, 0},
	{"Тип", func(r *lead.Record) string { return r.Kind }, 0},
	{"Имя", func(r *lead.Record) string { return r.Name }, maxNameWidth},
	{"Телефон", func(r *lead.Record) string { return r.Phone }, 0},
	{"Город", func(r *lead.Record) string { return r.City }, maxNameWidth},
	{"Объект", func(r *lead.Record) string { return joinNonEmpty(r.PropertyType, r.Area) }, maxNameWidth},
	{"Задача", func(r *lead.Record) string { return truncate(r.Comment, maxCommentLen) }, maxTextWidth},
	{"Статус", func(r *lead.Record) string { return r.Status }, 0},
	{"Сумма", func(r *lead.Record) string { return r.Amount }, 0},
}

// findFont locates a TrueType font with Cyrillic coverage.
func findFont(bold bool) string {
	var candidates []string
	if runtime.GOOS == "windows" {
		winRoot := os.Getenv("WINDIR")
		if winRoot == "" {
			winRoot = `C:\Windows`
		}
		name := "arial.ttf"
		if bold {
			name = "arialbd.ttf"
		}
		candidates = []string{winRoot + `\Fonts\` + name}
	} else {
		name := "DejaVuSans.ttf"
		if bold {
			name = "DejaVuSans-Bold.ttf"
		}
		candidates = []string{
			"/usr/share/fonts/truetype/dejavu/" + name,
			"/usr/share/fonts/TTF/" + name,
			"/usr/share/fonts/dejavu/" + name,
		}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return candidates[0]
}

// wrapText splits text into lines no wider than maxWidth.
func wrapText(dc *gg.Context, text string, maxWidth float64) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if maxWidth <= 0 {
		return []string{text}
	}
	if w, _ := dc.MeasureString(text); w <= maxWidth {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if w, _ := dc.MeasureString(candidate); w > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

// layout holds measured geometry for one render.
type layout struct {
	colWidths  []float64
	rowHeights []float64
	lineH      float64
	width      float64 // table width
	rowsHeight float64
}

func (l *layout) lineSpacing() float64 { return l.lineH + 4 }

func measure(dc *gg.Context, boldFont, regularFont string, leads []lead.Record) (*layout, error) {
	if err := dc.LoadFontFace(boldFont, headerFontSz); err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}
	l := &layout{colWidths: make([]float64, len(columns))}
	for i, col := range columns {
		w, _ := dc.MeasureString(col.header)
		l.colWidths[i] = max(w+cellPaddingX*2+4, float64(minColWidth))
	}

	if err := dc.LoadFontFace(regularFont, fontSize); err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}
	for i := range leads {
		for c, col := range columns {
			w, _ := dc.MeasureString(col.field(&leads[i]))
			l.colWidths[c] = max(l.colWidths[c], w+cellPaddingX*2+4)
		}
	}
	for i, col := range columns {
		if col.maxWidth > 0 && l.colWidths[i] > col.maxWidth {
			l.colWidths[i] = col.maxWidth
		}
		l.width += l.colWidths[i]
	}

	_, l.lineH = dc.MeasureString("Ay")
	l.rowHeights = make([]float64, len(leads))
	for i := range leads {
		lines := 1
		for c, col := range columns {
			wrapped := wrapText(dc, col.field(&leads[i]), l.colWidths[c]-cellPaddingX*2)
			lines = max(lines, len(wrapped))
		}
		l.rowHeights[i] = max(float64(lines)*l.lineSpacing()+cellPaddingY*2, float64(minRowHeight))
		l.rowsHeight += l.rowHeights[i]
	}
	return l, nil
}

// RenderTable draws leads (already filtered and ordered, see OpenLeads) and
// returns PNG bytes. now stamps the title.
func RenderTable(leads []lead.Record, now time.Time) ([]byte, error) {
	if len(leads) == 0 {
		return nil, ErrNoLeads
	}

	boldFont := findFont(true)
	regularFont := findFont(false)

	l, err := measure(gg.NewContext(1, 1), boldFont, regularFont, leads)
	if err != nil {
		return nil, err
	}

	canvasWidth := l.width + tableMargin*2
	canvasHeight := float64(titlePadding) + float64(headerHeight) + l.rowsHeight + float64(footerPadding)
	dc := gg.NewContext(int(canvasWidth), int(canvasHeight))

	dc.SetColor(bgColor)
	dc.Clear()

	if err := dc.LoadFontFace(boldFont, titleFontSz); err != nil {
		return nil, err
	}
	dc.SetColor(titleColor)
	title := fmt.Sprintf("Открытые заявки · %s", now.Format("02.01.2006 15:04"))
	dc.DrawStringAnchored(title, canvasWidth/2, float64(titlePadding)/2+2, 0.5, 0.5)

	tableX, tableY := tableMargin, float64(titlePadding)

	dc.SetColor(headerBgColor)
	dc.DrawRoundedRectangle(tableX, tableY, l.width, float64(headerHeight), 16)
	dc.Fill()

	if err := dc.LoadFontFace(boldFont, headerFontSz); err != nil {
		return nil, err
	}
	dc.SetColor(headerTextColor)
	x := tableX
	for i, col := range columns {
		dc.DrawStringAnchored(col.header, x+l.colWidths[i]/2, tableY+float64(headerHeight)/2, 0.5, 0.5)
		x += l.colWidths[i]
	}

	if err := dc.LoadFontFace(regularFont, fontSize); err != nil {
		return nil, err
	}
	curY := tableY + float64(headerHeight)
	for i := range leads {
		drawRow(dc, l, &leads[i], i, tableX, curY)
		curY += l.rowHeights[i]
	}

	totalTableH := float64(headerHeight) + l.rowsHeight
	dc.SetColor(borderColor)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(tableX, tableY, l.width, totalTableH, 16)
	dc.Stroke()

	dc.SetLineWidth(0.5)
	x = tableX
	for i := 0; i < len(columns)-1; i++ {
		x += l.colWidths[i]
		dc.DrawLine(x, tableY+float64(headerHeight), x, tableY+totalTableH)
		dc.Stroke()
	}

	if err := dc.LoadFontFace(regularFont, 24); err != nil {
		return nil, err
	}
	dc.SetColor(footerColor)
	dc.DrawStringAnchored(footer(leads), canvasWidth/2, canvasHeight-30, 0.5, 0.5)

	return encodeImage(dc.Image())
}

func drawRow(dc *gg.Context, l *layout, r *lead.Record, idx int, x0, y float64) {
	rh := l.rowHeights[idx]

	switch k, _ := lead.ParseKind(r.Kind); {
	case k == lead.KindPartner:
		dc.SetColor(partnerRowColor)
	case idx%2 == 0:
		dc.SetColor(rowEvenColor)
	default:
		dc.SetColor(rowOddColor)
	}
	dc.DrawRectangle(x0, y, l.width, rh)
	dc.Fill()

	dc.SetColor(borderColor)
	dc.SetLineWidth(0.5)
	dc.DrawLine(x0, y+rh, x0+l.width, y+rh)
	dc.Stroke()

	dc.SetColor(textColor)
	x := x0
	for c, col := range columns {
		wrapped := wrapText(dc, col.field(r), l.colWidths[c]-cellPaddingX*2)
		startY := y + (rh-float64(len(wrapped))*l.lineSpacing())/2 + l.lineH
		for n, line := range wrapped {
			dc.DrawString(line, x+cellPaddingX, startY+float64(n)*l.lineSpacing())
		}
		x += l.colWidths[c]
	}
}

func footer(leads []lead.Record) string {
	var clients, partners int
	for _, r := range leads {
		if k, _ := lead.ParseKind(r.Kind); k == lead.KindPartner {
			partners++
		} else {
			clients++
		}
	}
	return fmt.Sprintf("Всего: %d (заказчики: %d, партнёры: %d)", len(leads), clients, partners)
}

func encodeImage(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if utf8.RuneCountInString(s) > maxLen {
		return string([]rune(s)[:maxLen]) + "…"
	}
	return s
}

// shortDate turns "2006-01-02 15:04:05" into "02.01.2006"; other text is kept.
func shortDate(s string) string {
	t, err := time.Parse(lead.TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format("02.01.2006")
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
