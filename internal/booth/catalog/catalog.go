// Package catalog holds the fixed selection tables of the booth: photo
// layouts, preview filters, frame templates and sticker glyphs. All entries
// are immutable; callers look them up by id and never modify them.
package catalog

// Layout describes a collage grid shape. The number of shots a session has
// to take is Rows*Cols.
type Layout struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
}

// ShotCount returns the number of photos required to fill the layout.
func (l Layout) ShotCount() int {
	return l.Rows * l.Cols
}

// Filter describes a named render effect applied uniformly to the camera
// preview and every captured frame. CSS carries the equivalent style string a
// thin browser client can apply to its live preview element; the server-side
// compositor applies the same effect pixel-for-pixel on capture.
type Filter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	CSS  string `json:"css"`
}

// FrameTemplate describes a decorative border drawn around the finished
// collage. Theme "none" means no border is drawn.
type FrameTemplate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Theme string `json:"theme"`
}

// Sticker is a glyph users can place on their photos as an overlay.
type Sticker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FilterIdentity is the default filter: no effect.
const FilterIdentity = ""

// FrameNone is the frame template id meaning "no decorative border".
const FrameNone = "none"

var layouts = []Layout{
	{ID: "4x1", Name: "4x1 Strip", Description: "4 photos vertical", Rows: 4, Cols: 1},
	{ID: "4x2", Name: "4x2 Grid", Description: "8 photos grid", Rows: 4, Cols: 2},
	{ID: "2x2", Name: "2x2 Grid", Description: "4 photos square", Rows: 2, Cols: 2},
	{ID: "3x2", Name: "3x2 Grid", Description: "6 photos wide", Rows: 3, Cols: 2},
}

var filters = []Filter{
	{ID: FilterIdentity, Name: "Original", CSS: ""},
	{ID: "grayscale", Name: "B&W", CSS: "grayscale(100%)"},
	{ID: "sepia", Name: "Sepia", CSS: "sepia(100%)"},
	{ID: "vintage", Name: "Vintage", CSS: "sepia(50%) contrast(120%) brightness(110%)"},
	{ID: "cool", Name: "Cool", CSS: "hue-rotate(180deg) saturate(120%)"},
}

var frames = []FrameTemplate{
	{ID: FrameNone, Name: "No Frame", Theme: "none"},
	{ID: "heart", Name: "Heart", Theme: "heart"},
	{ID: "rainbow", Name: "Rainbow", Theme: "rainbow"},
	{ID: "star", Name: "Star", Theme: "star"},
	{ID: "flower", Name: "Flower", Theme: "flower"},
	{ID: "party", Name: "Party", Theme: "party"},
	{ID: "cute", Name: "Cute", Theme: "cute"},
	{ID: "cool", Name: "Cool", Theme: "cool"},
	{ID: "vintage", Name: "Vintage", Theme: "vintage"},
	{ID: "modern", Name: "Modern", Theme: "modern"},
}

var stickers = []Sticker{
	{ID: "smile", Name: "Smile"},
	{ID: "cool", Name: "Cool"},
	{ID: "party", Name: "Party"},
	{ID: "heart-eyes", Name: "Heart Eyes"},
	{ID: "star-struck", Name: "Star Struck"},
	{ID: "kiss", Name: "Kiss"},
	{ID: "loved", Name: "Loved"},
	{ID: "yum", Name: "Yum"},
	{ID: "hug", Name: "Hug"},
	{ID: "halo", Name: "Halo"},
	{ID: "unicorn", Name: "Unicorn"},
	{ID: "rainbow", Name: "Rainbow"},
	{ID: "star", Name: "Star"},
	{ID: "heart", Name: "Heart"},
	{ID: "confetti", Name: "Confetti"},
}

// Layouts returns all selectable layouts in display order.
func Layouts() []Layout {
	return layouts
}

// Filters returns all selectable filters in display order.
func Filters() []Filter {
	return filters
}

// Frames returns all selectable frame templates in display order.
func Frames() []FrameTemplate {
	return frames
}

// Stickers returns all placeable stickers in display order.
func Stickers() []Sticker {
	return stickers
}

// LayoutByID looks up a layout; ok is false for unknown ids.
func LayoutByID(id string) (Layout, bool) {
	for _, l := range layouts {
		if l.ID == id {
			return l, true
		}
	}
	return Layout{}, false
}

// FilterByID looks up a filter; ok is false for unknown ids. The empty id
// resolves to the identity filter.
func FilterByID(id string) (Filter, bool) {
	for _, f := range filters {
		if f.ID == id {
			return f, true
		}
	}
	return Filter{}, false
}

// FrameByID looks up a frame template; ok is false for unknown ids.
func FrameByID(id string) (FrameTemplate, bool) {
	for _, f := range frames {
		if f.ID == id {
			return f, true
		}
	}
	return FrameTemplate{}, false
}

// StickerByID looks up a sticker; ok is false for unknown ids.
func StickerByID(id string) (Sticker, bool) {
	for _, s := range stickers {
		if s.ID == id {
			return s, true
		}
	}
	return Sticker{}, false
}
