package stats

import "testing"

func TestTopLanguages(t *testing.T) {
	langs := []LanguageStat{
		{Name: "rust", LinesAccepted: 10},
		{Name: "go", LinesAccepted: 40},
		{Name: "python", LinesAccepted: 40},
	}
	top := TopLanguages(langs, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 languages, got %d", len(top))
	}
	if top[0] != "go" || top[1] != "python" {
		t.Fatalf("unexpected order: %v", top)
	}
	if langs[0].Name != "rust" {
		t.Fatalf("input must not be reordered")
	}
	if got := TopLanguages(langs, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}

func TestWeakLanguages(t *testing.T) {
	langs := []LanguageStat{
		{Name: "go", Suggestions: 100, Rate: 40},
		{Name: "python", Suggestions: 50, Rate: 20},
		{Name: "markdown", Suggestions: 0, Rate: 0},
		{Name: "rust", Suggestions: 10, Rate: 20},
	}
	weak := WeakLanguages(langs, 2, 1)
	if len(weak) != 2 {
		t.Fatalf("expected 2 languages, got %d", len(weak))
	}
	if weak[0].Name != "python" || weak[1].Name != "rust" {
		t.Fatalf("unexpected order: %+v", weak)
	}
	if got := WeakLanguages(langs, 0, 1000); got != nil {
		t.Fatalf("expected nil when nothing qualifies, got %+v", got)
	}
}
