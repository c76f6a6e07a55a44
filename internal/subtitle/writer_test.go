package subtitle

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func speakerTrack() *Subtitle {
	return &Subtitle{Entries: []Entry{
		{Index: 1, StartTime: 0, EndTime: 5 * time.Second, Speaker: "Alice", Text: "first"},
		{Index: 2, StartTime: 5 * time.Second, EndTime: 7500 * time.Millisecond, Text: "second"},
	}}
}

func TestRenderSRTIncludesSpeakerLabels(t *testing.T) {
	out, err := Render(speakerTrack(), FormatSRT)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "1\n00:00:00,000 --> 00:00:05,000\n[Alice]: first\n\n" +
		"2\n00:00:05,000 --> 00:00:07,500\nsecond\n\n"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestRenderASSUsesNameColumn(t *testing.T) {
	out, err := Render(speakerTrack(), FormatASS)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "Dialogue: 0,0:00:00.00,0:00:05.00,Default,Alice,0,0,0,,first") {
		t.Errorf("missing speaker dialogue, got:\n%s", out)
	}
}

func TestWriteThenOpenKeepsSpeakers(t *testing.T) {
	for _, format := range []Format{FormatSRT, FormatVTT, FormatASS} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out"+format.Extension())
			writer, err := NewWriter(format)
			if err != nil {
				t.Fatalf("NewWriter failed: %v", err)
			}
			if err := writer.Write(speakerTrack(), path); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			file, err := Open(path)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			entries := file.Subtitle().Entries
			if len(entries) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(entries))
			}
			if entries[0].Speaker != "Alice" || entries[0].Text != "first" {
				t.Errorf("entry 0: got %q / %q", entries[0].Speaker, entries[0].Text)
			}
			if entries[1].Speaker != "" || entries[1].EndTime != 7500*time.Millisecond {
				t.Errorf("entry 1: got %q ending %v", entries[1].Speaker, entries[1].EndTime)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"srt": FormatSRT, " VTT ": FormatVTT, "webvtt": FormatVTT, "ssa": FormatASS} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseFormat("txt"); err == nil {
		t.Error("expected error for txt")
	}
}

func TestSplitterKeepsSpeakerAcrossCues(t *testing.T) {
	s := NewSplitter()
	sub, err := s.Generate([]Segment{
		{StartTime: 0, EndTime: 2 * time.Second, Speaker: "Gabriel", Text: "  Olá  a todos. "},
		{StartTime: 2 * time.Second, EndTime: 3 * time.Second, Speaker: "Gabriel", Text: "   "},
		{
			StartTime: 3 * time.Second,
			EndTime:   23 * time.Second,
			Speaker:   "Jairo",
			Text:      "muitos anos já de mercado financeiro e gestão de patrimônio",
		},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// 20s with a 7s ceiling needs three cues
	if len(sub.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d: %+v", len(sub.Entries), sub.Entries)
	}
	if first := sub.Entries[0]; first.Text != "Olá a todos." || first.Speaker != "Gabriel" {
		t.Errorf("entry 0 = %+v", first)
	}

	prevEnd := 3 * time.Second
	for i, e := range sub.Entries[1:] {
		if e.Index != i+2 {
			t.Errorf("entry %d has index %d", i+1, e.Index)
		}
		if e.Speaker != "Jairo" {
			t.Errorf("entry %d lost its speaker: %q", i+1, e.Speaker)
		}
		if e.StartTime != prevEnd || e.EndTime <= e.StartTime {
			t.Errorf("entry %d spans %v-%v after %v", i+1, e.StartTime, e.EndTime, prevEnd)
		}
		prevEnd = e.EndTime
	}
	if prevEnd != 23*time.Second {
		t.Errorf("last entry should end at 23s, got %v", prevEnd)
	}
}

func TestSplitterWrap(t *testing.T) {
	s := &Splitter{LineWidth: 10, Lines: 2}
	tests := []struct {
		in   string
		want string
	}{
		{"short", "short"},
		{"exactly 10", "exactly 10"},
		{"uma frase um pouco longa", "uma frase um\npouco longa"},
		{"semespacosnenhumaqui", "semespacosnenhumaqui"},
	}
	for _, tt := range tests {
		if got := s.wrap(tt.in); got != tt.want {
			t.Errorf("wrap(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
