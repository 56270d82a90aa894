package render

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Размеры и отступы
const (
	imageHeight   = 520
	headerHeight  = 90
	footerHeight  = 70
	sidePadding   = 40
	dayWidth      = 240
	barWidth      = 70
	barGap        = 24
	barRadius     = 6.0
	minImageWidth = 480
)

const (
	titleFontSize = 26.0
	dayFontSize   = 20.0
	labelFontSize = 15.0
)

// Цветовая схема
var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 230}
	todayBgColor   = color.NRGBA{255, 99, 71, 60}
	evenDayColor   = color.NRGBA{238, 238, 238, 255}
	oddDayColor    = color.NRGBA{225, 225, 225, 255}
	capacityColor  = color.RGBA{133, 193, 85, 220}
	bookedColor    = color.RGBA{255, 182, 193, 255}
	overLimitColor = color.RGBA{220, 70, 70, 230}
	barTextColor   = color.RGBA{20, 24, 28, 230}
)

type fontStyle int

const (
	fontRegular fontStyle = iota
	fontBold
)

var (
	fontsOnce   sync.Once
	parsedFonts map[fontStyle]*opentype.Font
)

// setFont ставит Go-шрифт нужного размера, при ошибке basicfont
func setFont(dc *gg.Context, size float64, style fontStyle) {
	fontsOnce.Do(func() {
		parsedFonts = make(map[fontStyle]*opentype.Font, 2)
		if f, err := opentype.Parse(goregular.TTF); err == nil {
			parsedFonts[fontRegular] = f
		}
		if f, err := opentype.Parse(gobold.TTF); err == nil {
			parsedFonts[fontBold] = f
		}
	})

	f, ok := parsedFonts[style]
	if !ok {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// ScheduleImage рисует загрузку врача по датам: для каждого периода столбец лимита
// и занятая часть внутри него
func ScheduleImage(doctor *model.Doctor, entries []*model.ScheduleEntry, today time.Time) ([]byte, error) {
	width := sidePadding*2 + dayWidth*len(entries)
	if width < minImageWidth {
		width = minImageWidth
	}

	dc := gg.NewContext(width, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	drawTitle(dc, doctor)

	if len(entries) == 0 {
		setFont(dc, dayFontSize, fontRegular)
		dc.SetColor(textColor)
		dc.DrawStringAnchored("No schedule in the current window", float64(width)/2, imageHeight/2, 0.5, 0.5)
		return encode(dc)
	}

	scale := maxCapacity(entries)
	todayDate := model.DateOf(today)

	for i, entry := range entries {
		x := float64(sidePadding + i*dayWidth)
		drawDay(dc, entry, x, i, entry.Date.Equal(todayDate), scale)
	}

	drawLegend(dc, width)
	return encode(dc)
}

func drawTitle(dc *gg.Context, doctor *model.Doctor) {
	title := "Schedule"
	if doctor != nil {
		title = fmt.Sprintf("%s, %s", doctor.Name, doctor.Department)
	}

	setFont(dc, titleFontSize, fontBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, sidePadding, headerHeight/2, 0, 0.5)
}

func drawDay(dc *gg.Context, entry *model.ScheduleEntry, x float64, index int, isToday bool, scale int) {
	top := float64(headerHeight)
	height := float64(imageHeight - headerHeight - footerHeight)

	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case index%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, top, dayWidth, height)
	dc.Fill()

	setFont(dc, dayFontSize, fontBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(entry.Date.Format("02.01 Mon"), x+dayWidth/2, top+20, 0.5, 0.5)

	barsTop := top + 50
	barsHeight := height - 90
	barsLeft := x + (dayWidth-2*barWidth-barGap)/2

	for i, p := range model.Periods {
		booked, limit := entry.Counts(p)
		bx := barsLeft + float64(i)*(barWidth+barGap)
		drawBar(dc, bx, barsTop, barsHeight, booked, limit, scale)

		setFont(dc, labelFontSize, fontRegular)
		dc.SetColor(textColor)
		dc.DrawStringAnchored(periodLabel(p), bx+barWidth/2, barsTop+barsHeight+18, 0.5, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%d/%d", booked, limit), bx+barWidth/2, barsTop+barsHeight+36, 0.5, 0.5)
	}
}

// drawBar высота столбца пропорциональна лимиту, заливка снизу пропорциональна занятым местам
func drawBar(dc *gg.Context, x, top, height float64, booked, limit, scale int) {
	bottom := top + height
	unit := height / float64(scale)

	capHeight := float64(limit) * unit
	dc.SetColor(capacityColor)
	dc.DrawRoundedRectangle(x, bottom-capHeight, barWidth, capHeight, barRadius)
	dc.Fill()

	if booked == 0 {
		return
	}

	fill := bookedColor
	if booked > limit {
		fill = overLimitColor
	}
	bookedHeight := float64(booked) * unit
	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x, bottom-bookedHeight, barWidth, bookedHeight, barRadius)
	dc.Fill()

	setFont(dc, labelFontSize, fontBold)
	dc.SetColor(barTextColor)
	dc.DrawStringAnchored(fmt.Sprint(booked), x+barWidth/2, bottom-bookedHeight/2, 0.5, 0.5)
}

func drawLegend(dc *gg.Context, width int) {
	y := float64(imageHeight - footerHeight/2)
	items := []struct {
		c     color.Color
		label string
	}{
		{capacityColor, "free"},
		{bookedColor, "booked"},
		{overLimitColor, "over limit"},
	}

	setFont(dc, labelFontSize, fontRegular)
	x := float64(sidePadding)
	for _, item := range items {
		dc.SetColor(item.c)
		dc.DrawRoundedRectangle(x, y-8, 16, 16, 3)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(item.label, x+24, y, 0, 0.5)
		w, _ := dc.MeasureString(item.label)
		x += 24 + w + 30
		if x > float64(width) {
			break
		}
	}
}

func maxCapacity(entries []*model.ScheduleEntry) int {
	scale := 1
	for _, e := range entries {
		for _, p := range model.Periods {
			booked, limit := e.Counts(p)
			scale = max(scale, booked, limit)
		}
	}
	return scale
}

func periodLabel(p model.Period) string {
	if p == model.PeriodMorning {
		return "AM"
	}
	return "PM"
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
