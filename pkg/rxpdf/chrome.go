package rxpdf

import (
	"math"
	"strings"
	"time"
)

// PageChrome draws the border, corner ornaments and footer of each page,
// at most once per page number.
type PageChrome struct {
	rc      *renderContext
	printed time.Time
	drawn   map[int]struct{}
}

func newPageChrome(rc *renderContext) *PageChrome {
	clock := rc.cfg.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &PageChrome{
		rc:      rc,
		printed: clock.Now(),
		drawn:   make(map[int]struct{}),
	}
}

// Decorate draws the chrome of page unless it was drawn already. It
// reports whether anything was drawn.
func (c *PageChrome) Decorate(page int) bool {
	if _, ok := c.drawn[page]; ok {
		return false
	}
	c.drawn[page] = struct{}{}

	b := c.rc.b
	b.BeginGroup(chromeGroupName(page))
	c.border()
	c.footer()
	b.EndGroup()
	return true
}

// Decorated reports whether page has its chrome.
func (c *PageChrome) Decorated(page int) bool {
	_, ok := c.drawn[page]
	return ok
}

var (
	borderPaint   = Paint{Mode: Stroke, Stroke: DarkBlue, Width: 0.8}
	ornamentPaint = Paint{Mode: Stroke, Stroke: DarkBlue, Width: 0.5}
	dotPaint      = Paint{Mode: Fill, Stroke: DarkBlue, Fill: DarkBlue}
	rulePaint     = Paint{Mode: Stroke, Stroke: Grey, Width: 0.5}
)

func (c *PageChrome) border() {
	b := c.rc.b
	in := c.rc.g.BorderInset
	w, h := c.rc.w, c.rc.h
	b.DrawRect(in, in, w-2*in, h-2*in, borderPaint)

	// Each ornament opens towards the page interior.
	corners := []struct{ x, y, start float64 }{
		{in, in, 0},
		{w - in, in, 90},
		{w - in, h - in, 180},
		{in, h - in, 270},
	}
	for _, k := range corners {
		b.DrawArc(k.x, k.y, 8, k.start, k.start+90, ornamentPaint)
		b.DrawArc(k.x, k.y, 5, k.start, k.start+90, ornamentPaint)
		rad := (k.start + 45) * math.Pi / 180
		b.DrawCircle(k.x+3*math.Cos(rad), k.y+3*math.Sin(rad), 1.5, dotPaint)
	}
}

func (c *PageChrome) footer() {
	rc := c.rc
	b := rc.b
	clinic := rc.cfg.Clinic
	size := rc.cfg.FooterSize
	step := size + 4
	y := rc.g.FooterTop

	b.DrawLine(rc.left, y, rc.right, y, rulePaint)

	y -= step
	latin := TextStyle{Face: FaceLatin, Size: size, Color: DarkBlue}
	c.centre(y, clinic.Name, latin)

	y -= step
	switch {
	case clinic.AddressArabic != "" && rc.arabicOK:
		text, dy, err := rc.arabicRun(clinic.AddressArabic)
		if err == nil {
			c.centre(y+dy, text, TextStyle{Face: FaceArabic, Size: size, Color: DarkBlue})
			break
		}
		rc.warn(clinic.AddressArabic, err)
		c.centre(y, clinic.Address, latin)
	default:
		c.centre(y, clinic.Address, latin)
	}

	y -= step
	parts := []string{}
	if clinic.Contact != "" {
		parts = append(parts, clinic.Contact)
	}
	parts = append(parts, "Printed "+c.printed.Format(DateLayout))
	c.centre(y, strings.Join(parts, "  |  "), latin)
}

func (c *PageChrome) centre(y float64, text string, st TextStyle) {
	if text == "" {
		return
	}
	rc := c.rc
	if st.Face == FaceArabic {
		rc.b.DrawText((rc.w-rc.b.TextWidth(text, st.Face, st.Size))/2, y, text, st)
		return
	}
	segs := rc.segments(text, st)
	rc.drawSegments((rc.w-rc.segmentsWidth(segs, st))/2, y, segs, st)
}
