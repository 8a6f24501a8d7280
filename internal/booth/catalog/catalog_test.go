package catalog

import "testing"

func TestLayoutShotCounts(t *testing.T) {
	expected := map[string]int{
		"4x1": 4,
		"4x2": 8,
		"2x2": 4,
		"3x2": 6,
	}

	if len(Layouts()) != len(expected) {
		t.Fatalf("expected %d layouts, got %d", len(expected), len(Layouts()))
	}

	for id, want := range expected {
		l, ok := LayoutByID(id)
		if !ok {
			t.Fatalf("layout %q not found", id)
		}
		if got := l.ShotCount(); got != want {
			t.Errorf("layout %q shot count = %d, want %d", id, got, want)
		}
		if l.ShotCount() != l.Rows*l.Cols {
			t.Errorf("layout %q shot count %d does not equal rows*cols %d", id, l.ShotCount(), l.Rows*l.Cols)
		}
	}
}

func TestUniqueIDs(t *testing.T) {
	seenLayouts := map[string]bool{}
	for _, l := range Layouts() {
		if seenLayouts[l.ID] {
			t.Errorf("duplicate layout id %q", l.ID)
		}
		seenLayouts[l.ID] = true
	}

	seenFilters := map[string]bool{}
	for _, f := range Filters() {
		if seenFilters[f.ID] {
			t.Errorf("duplicate filter id %q", f.ID)
		}
		seenFilters[f.ID] = true
	}

	seenFrames := map[string]bool{}
	for _, f := range Frames() {
		if seenFrames[f.ID] {
			t.Errorf("duplicate frame id %q", f.ID)
		}
		seenFrames[f.ID] = true
	}

	seenStickers := map[string]bool{}
	for _, s := range Stickers() {
		if seenStickers[s.ID] {
			t.Errorf("duplicate sticker id %q", s.ID)
		}
		seenStickers[s.ID] = true
	}
}

func TestIdentityFilterIsDefault(t *testing.T) {
	f, ok := FilterByID(FilterIdentity)
	if !ok {
		t.Fatalf("identity filter not found")
	}
	if f.CSS != "" {
		t.Errorf("identity filter should carry no effect, got %q", f.CSS)
	}
}

func TestFrameNonePresent(t *testing.T) {
	f, ok := FrameByID(FrameNone)
	if !ok {
		t.Fatalf("frame %q not found", FrameNone)
	}
	if f.Theme != "none" {
		t.Errorf("frame %q theme = %q, want none", FrameNone, f.Theme)
	}
}

func TestUnknownLookups(t *testing.T) {
	if _, ok := LayoutByID("9x9"); ok {
		t.Errorf("expected lookup miss for unknown layout")
	}
	if _, ok := FilterByID("nope"); ok {
		t.Errorf("expected lookup miss for unknown filter")
	}
	if _, ok := FrameByID("nope"); ok {
		t.Errorf("expected lookup miss for unknown frame")
	}
	if _, ok := StickerByID("nope"); ok {
		t.Errorf("expected lookup miss for unknown sticker")
	}
}
