package tui

import (
	"reflect"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestWrapWordsBreaksBetweenWords(t *testing.T) {
	got := wrapWords("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wrapWords = %q, want %q", got, want)
	}
}

func TestWrapWordsCollapsesWhitespace(t *testing.T) {
	got := wrapWords("  a   b  ", 0)
	want := []string{"a b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wrapWords = %q, want %q", got, want)
	}
	if got := wrapWords("   ", 10); got != nil {
		t.Fatalf("expected no lines for blank text, got %q", got)
	}
}

func TestWrapWordsSplitsLongWord(t *testing.T) {
	got := wrapWords("ab abcdefgh", 4)
	want := []string{"ab", "abcd", "efgh"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wrapWords = %q, want %q", got, want)
	}
}

func TestWrapWordsMeasuresCells(t *testing.T) {
	got := wrapWords("中文 中文", 5)
	want := []string{"中文", "中文"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wrapWords = %q, want %q", got, want)
	}
}

func TestWrapWordsKeepsRTLWordOrder(t *testing.T) {
	text := "این یک جمله نمونه برای تست سرعت خواندن است."
	lines := wrapWords(text, 20)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %q", lines)
	}
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > 20 {
			t.Fatalf("line %q is %d cells wide", line, w)
		}
	}
	if lines[0][:len("این")] != "این" {
		t.Fatalf("expected first word first, got %q", lines[0])
	}
}
