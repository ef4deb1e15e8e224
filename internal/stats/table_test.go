package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Sentence", "Words", "WPM"}
	rows := [][]string{
		{"1", "9", "90"},
		{"12", "11", "105"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Sentence Words WPM" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "1"+"       "+" "+"    9"+" "+" 90" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "12"+"      "+" "+"   11"+" "+"105" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableMeasuresWideRunes(t *testing.T) {
	lines := formatTable([]string{"Text", "N"}, [][]string{{"中文", "1"}}, nil)
	if lines[0] != "Text N" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "中文 1" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
}
