package card

import (
	"testing"
	"unicode/utf8"

	"github.com/starford/cardgrid/internal/models"
)

func TestTruncate_Shortened(t *testing.T) {
	got := Truncate("abcdefghij", 5)
	if got != "ab..." {
		t.Errorf("Truncate = %q, want %q", got, "ab...")
	}
	if n := utf8.RuneCountInString(got); n != 5 {
		t.Errorf("len = %d, want 5", n)
	}
}

func TestTruncate_NoOpWhenShortEnough(t *testing.T) {
	for _, s := range []string{"", "abc", "abcde"} {
		if got := Truncate(s, 5); got != s {
			t.Errorf("Truncate(%q, 5) = %q, want unchanged", s, got)
		}
	}
}

func TestTruncate_Multibyte(t *testing.T) {
	s := "日本語のテキストです"
	got := Truncate(s, 6)
	if !utf8.ValidString(got) {
		t.Fatalf("invalid UTF-8: %q", got)
	}
	if got != "日本語..." {
		t.Errorf("Truncate = %q, want %q", got, "日本語...")
	}
}

func TestTruncate_TinyLimit(t *testing.T) {
	if got := Truncate("abcdef", 2); got != ".." {
		t.Errorf("Truncate = %q, want %q", got, "..")
	}
	if got := Truncate("abcdef", 0); got != "" {
		t.Errorf("Truncate = %q, want empty", got)
	}
}

func TestPreview_CollapsesWhitespace(t *testing.T) {
	got := Preview("  line one\n\n\tline   two ")
	if got != "line one line two" {
		t.Errorf("Preview = %q", got)
	}
}

func TestPreview_Bounded(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "word "
	}
	got := Preview(long)
	if n := utf8.RuneCountInString(got); n != PreviewLength {
		t.Errorf("len = %d, want %d", n, PreviewLength)
	}
}

func TestStyleFor(t *testing.T) {
	cases := map[string]models.StyleHint{
		"pro":   models.StylePositive,
		"PROS":  models.StylePositive,
		"Con":   models.StyleNegative,
		"cons":  models.StyleNegative,
		"pro1":  models.StyleNone,
		"props": models.StyleNone,
		"":      models.StyleNone,
	}
	for label, want := range cases {
		if got := StyleFor(label); got != want {
			t.Errorf("StyleFor(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestError(t *testing.T) {
	c := Error("boom")
	if c.Kind != models.KindError || c.Label != "Error" || c.Detail != "boom" {
		t.Errorf("unexpected card: %+v", c)
	}
}
