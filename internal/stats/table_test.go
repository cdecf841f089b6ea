package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Editor", "Share", "Lines"}
	rows := [][]string{
		{"vscode", "97.50%", "12"},
		{"jetbrains", "8.00%", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Editor     Share Lines" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "vscode    97.50%    12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "jetbrains  8.00%     3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Repo", "N"}, [][]string{{"org/日本", "1"}, {"org/abcde", "2"}}, map[int]bool{1: true})
	if lines[1] != "org/日本  1" {
		t.Fatalf("unexpected wide-rune row: %q", lines[1])
	}
	if lines[2] != "org/abcde 2" {
		t.Fatalf("unexpected row: %q", lines[2])
	}
}
