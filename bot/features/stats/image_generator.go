package stats

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// LeaderboardImageName is the attachment name referenced by the stats embed
const LeaderboardImageName = "leaderboard.png"

const maxNameRunes = 16

// TableStyle defines the visual style of the leaderboard image
type TableStyle struct {
	Width         int
	Padding       int
	RowHeight     int
	SectionGap    int
	RankX         int
	NameX         int
	WinsX         int
	PodiumColors  [3][3]float64
	PodiumOverlay [3][4]float64
}

// LeaderboardImageGenerator renders leaderboard sections as a PNG table
type LeaderboardImageGenerator struct {
	style TableStyle
}

// NewLeaderboardImageGenerator creates a new image generator with default style
func NewLeaderboardImageGenerator() *LeaderboardImageGenerator {
	return &LeaderboardImageGenerator{
		style: TableStyle{
			Width:      380,
			Padding:    15,
			RowHeight:  26,
			SectionGap: 20,
			RankX:      15,
			NameX:      40,
			WinsX:      300,
			PodiumColors: [3][3]float64{
				{1, 0.84, 0},       // Gold
				{0.75, 0.75, 0.75}, // Silver
				{0.8, 0.5, 0.2},    // Bronze
			},
			PodiumOverlay: [3][4]float64{
				{1, 0.84, 0, 0.1},
				{0.8, 0.8, 0.8, 0.08},
				{0.8, 0.5, 0.2, 0.06},
			},
		},
	}
}

// imageHeight returns the canvas height needed for the sections
func (g *LeaderboardImageGenerator) imageHeight(sections []LeaderboardSection) int {
	height := g.style.Padding
	for _, section := range sections {
		rows := len(section.Winners)
		if rows == 0 {
			rows = 1 // placeholder row
		}
		// Title bar + header + rows
		height += 25 + 25 + rows*g.style.RowHeight + g.style.SectionGap
	}
	return height
}

// Generate renders every section below each other
func (g *LeaderboardImageGenerator) Generate(sections []LeaderboardSection) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("section_count", len(sections)).
			Debug("Leaderboard image generation completed")
	}()

	height := g.imageHeight(sections)
	dc := gg.NewContext(g.style.Width, height)

	// Vertical gradient background
	for i := 0; i < height; i++ {
		t := float64(i) / float64(height)
		dc.SetRGB(0.02+t*0.03, 0.02+t*0.05, 0.05+t*0.1)
		dc.DrawLine(0, float64(i), float64(g.style.Width), float64(i))
		dc.Stroke()
	}

	face, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	titleFace, err := loadFont(gobold.TTF, 13)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	rankFace, err := loadFont(gobold.TTF, 9)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	y := float64(g.style.Padding) + 10
	for _, section := range sections {
		// Section title
		dc.SetFontFace(titleFace)
		dc.SetRGB(1, 1, 1)
		drawSharpText(dc, section.Heading(), float64(g.style.Padding), y)
		y += 25

		// Header row
		dc.SetFontFace(face)
		dc.SetRGBA(0.3, 0.3, 0.4, 0.4)
		dc.DrawRectangle(0, y-15, float64(g.style.Width), 20)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		drawSharpText(dc, "#", float64(g.style.RankX), y)
		drawSharpText(dc, "Player", float64(g.style.NameX), y)
		drawSharpText(dc, "Wins", float64(g.style.WinsX), y)
		dc.SetRGBA(0.6, 0.6, 0.7, 0.7)
		dc.SetLineWidth(1)
		dc.DrawLine(0, y+8, float64(g.style.Width), y+8)
		dc.Stroke()
		y += 25

		if len(section.Winners) == 0 {
			dc.SetRGB(0.7, 0.7, 0.7)
			drawSharpText(dc, "No winners yet", float64(g.style.NameX), y)
			y += float64(g.style.RowHeight)
		}

		for idx, stat := range section.Winners {
			if idx < 3 {
				overlay := g.style.PodiumOverlay[idx]
				dc.SetRGBA(overlay[0], overlay[1], overlay[2], overlay[3])
				dc.DrawRectangle(0, y-15, float64(g.style.Width), float64(g.style.RowHeight))
				dc.Fill()

				color := g.style.PodiumColors[idx]
				dc.SetRGB(color[0], color[1], color[2])
				dc.DrawCircle(float64(g.style.RankX+3), y-4, 6)
				dc.Fill()

				dc.SetRGB(0, 0, 0)
				dc.SetFontFace(rankFace)
				dc.DrawStringAnchored(fmt.Sprintf("%d", idx+1), float64(g.style.RankX+3), y-5, 0.5, 0.4)
				dc.SetFontFace(face)
			} else {
				dc.SetRGB(0.85, 0.85, 0.9)
				drawSharpText(dc, fmt.Sprintf("%d", idx+1), float64(g.style.RankX), y)
			}

			dc.SetRGB(1, 1, 1)
			drawSharpText(dc, truncateName(stat.DisplayName), float64(g.style.NameX), y)
			dc.SetRGB(0.85, 1, 0.85)
			drawSharpText(dc, fmt.Sprintf("%d", stat.Wins), float64(g.style.WinsX), y)

			y += float64(g.style.RowHeight)
		}

		y += float64(g.style.SectionGap)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// truncateName shortens long display names to fit the column
func truncateName(name string) string {
	if name == "" {
		return "Unknown"
	}
	if utf8.RuneCountInString(name) <= maxNameRunes {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxNameRunes-1]) + "…"
}

// drawSharpText draws text with a faint shadow for readability
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()

	dc.DrawString(text, x, y)
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	})
	return face, nil
}
