package parser

import (
	"testing"
	"time"
)

func TestDateParser_ExplicitFormats(t *testing.T) {
	t.Parallel()

	p := NewDateParser()
	want := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{
		"2024/11/05",
		"05-11-2024",
		"11/05/2024",
		"2024-11-05",
		"2024-11-05 23:59:10",
		"2024-11-05T08:30:00Z",
		"2024/11/05 14:20",
		"45601",
	} {
		got, ok := p.Parse(in)
		if !ok {
			t.Fatalf("Parse(%q) failed", in)
		}
		if !got.Equal(want) {
			t.Fatalf("Parse(%q) want=%s got=%s", in, want, got)
		}
	}
}

func TestDateParser_DayFirstFallback(t *testing.T) {
	t.Parallel()

	got, ok := NewDateParser().Parse("25/11/2024")
	if !ok {
		t.Fatalf("expected day-first fallback to parse")
	}
	if got.Day() != 25 || got.Month() != time.November {
		t.Fatalf("unexpected date: %s", got)
	}
}

func TestDateParser_TruncatesToDay(t *testing.T) {
	t.Parallel()

	got, ok := NewDateParser().Parse("2024-11-30 23:59:59")
	if !ok {
		t.Fatalf("parse failed")
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Location() != time.UTC {
		t.Fatalf("expected day truncation, got %s", got)
	}
}

func TestDateParser_Unparseable(t *testing.T) {
	t.Parallel()

	p := NewDateParser()
	for _, in := range []string{"", "nan", "sin fecha", "2024-13-45"} {
		if _, ok := p.Parse(in); ok {
			t.Fatalf("Parse(%q) expected failure", in)
		}
	}
}

func TestDateParser_ExtraFormats(t *testing.T) {
	t.Parallel()

	p := NewDateParser().WithExtraFormats("02 de 01 de 2006")
	got, ok := p.Parse("05 de 11 de 2024")
	if !ok || got.Day() != 5 || got.Month() != time.November {
		t.Fatalf("extra format not applied: %v %s", ok, got)
	}
}
