package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reinocast/speakersync/internal/attribute"
	"github.com/reinocast/speakersync/internal/logging"
	"github.com/reinocast/speakersync/internal/subtitle"
)

const podcast = `Transcrição
Pesquisar transcrição

texto antes do primeiro tempo
0:00
Olá, eu sou o Gabriel Tintor,
fundador e CEO da Reino Capital.
0:07
E aqui comigo o nosso diretor jurídico.
0:15
1:02
Sou advogado há 14 anos.
1:00:05
Trabalhei como auditor.
1:00:09
Muito obrigado a todos.
`

var podcastHeaders = []string{"Transcrição", "Pesquisar transcrição"}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"0:00", 0, false},
		{"5:41", 341 * time.Second, false},
		{"12:03", 12*time.Minute + 3*time.Second, false},
		{"1:02:03", time.Hour + 2*time.Minute + 3*time.Second, false},
		{"0:60", 0, true},
		{"1:60:00", 0, true},
		{"123:00", 0, true},
		{"1:2", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadBlocks(t *testing.T) {
	blocks, err := ReadBlocks(strings.NewReader(podcast), podcastHeaders)
	if err != nil {
		t.Fatalf("ReadBlocks failed: %v", err)
	}

	want := []Block{
		{Start: 0, Text: "Olá, eu sou o Gabriel Tintor, fundador e CEO da Reino Capital."},
		{Start: 7 * time.Second, Text: "E aqui comigo o nosso diretor jurídico."},
		{Start: 62 * time.Second, Text: "Sou advogado há 14 anos."},
		{Start: time.Hour + 5*time.Second, Text: "Trabalhei como auditor."},
		{Start: time.Hour + 9*time.Second, Text: "Muito obrigado a todos."},
	}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d: %+v", len(blocks), len(want), blocks)
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("block %d = %+v, want %+v", i, blocks[i], want[i])
		}
	}
}

func podcastRules(t *testing.T) attribute.Attributor {
	t.Helper()
	r, err := attribute.NewRules([]attribute.Rule{
		{Speaker: "Gabriel Tintor", UntilSegment: 1},
		{Speaker: "Wagner Maranhão", Keywords: []string{"advogado"}},
		{Speaker: "Douglas", Keywords: []string{"auditor"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestConvertCarriesSpeakerForward(t *testing.T) {
	blocks, _ := ReadBlocks(strings.NewReader(podcast), podcastHeaders)

	c := NewConverter(podcastRules(t), Options{DefaultSpeaker: "Gabriel Tintor"}, nil)
	segments, err := c.Convert(context.Background(), blocks)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	wantSpeakers := []string{"Gabriel Tintor", "Gabriel Tintor", "Wagner Maranhão", "Douglas", "Douglas"}
	for i, seg := range segments {
		if seg.Speaker != wantSpeakers[i] {
			t.Errorf("segment %d speaker = %q, want %q", i, seg.Speaker, wantSpeakers[i])
		}
	}

	if segments[0].EndTime != segments[1].StartTime {
		t.Errorf("segment end should be next start, got %v", segments[0].EndTime)
	}
	last := segments[len(segments)-1]
	if last.EndTime != last.StartTime+DefaultDuration {
		t.Errorf("last segment end = %v, want start+5s", last.EndTime)
	}
}

func TestConvertUsesMediaDurationForLastBlock(t *testing.T) {
	blocks := []Block{{Start: 0, Text: "a"}, {Start: 10 * time.Second, Text: "b"}}

	c := NewConverter(podcastRules(t), Options{MediaDuration: 42 * time.Second}, nil)
	segments, err := c.Convert(context.Background(), blocks)
	if err != nil {
		t.Fatal(err)
	}
	if segments[1].EndTime != 42*time.Second {
		t.Errorf("last end = %v, want media duration", segments[1].EndTime)
	}

	c = NewConverter(podcastRules(t), Options{MediaDuration: 5 * time.Second}, nil)
	segments, _ = c.Convert(context.Background(), blocks)
	if segments[1].EndTime != 15*time.Second {
		t.Errorf("media shorter than last start should be ignored, got %v", segments[1].EndTime)
	}
}

func TestConvertBackwardsTimestamps(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := NewConverter(podcastRules(t), Options{DefaultDuration: 3 * time.Second}, logging.New(zap.New(core)))

	segments, err := c.Convert(context.Background(), []Block{
		{Start: 20 * time.Second, Text: "a"},
		{Start: 10 * time.Second, Text: "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if segments[0].EndTime != 23*time.Second {
		t.Errorf("end = %v, want start+default", segments[0].EndTime)
	}
	if logs.FilterMessage("Transcript timestamps go backwards").Len() != 1 {
		t.Error("expected warning for backwards timestamps")
	}
}

type failingAttributor struct{}

func (failingAttributor) Attribute(context.Context, []attribute.Item) ([]attribute.Result, error) {
	return nil, errors.New("rate limited")
}

func TestConvertPropagatesAttributionErrors(t *testing.T) {
	c := NewConverter(failingAttributor{}, Options{}, nil)
	_, err := c.Convert(context.Background(), []Block{{Start: 0, Text: "a"}})
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected attribution error, got %v", err)
	}
}

func TestSubtitleRendersSpeakerLabels(t *testing.T) {
	sub := Subtitle([]subtitle.Segment{
		{StartTime: 0, EndTime: 7 * time.Second, Speaker: "Gabriel Tintor", Text: "Olá"},
		{StartTime: 7 * time.Second, EndTime: 12 * time.Second, Speaker: "Jairo", Text: "Oi"},
	})

	got, err := subtitle.Render(sub, subtitle.FormatSRT)
	if err != nil {
		t.Fatal(err)
	}
	want := "1\n00:00:00,000 --> 00:00:07,000\n[Gabriel Tintor]: Olá\n\n" +
		"2\n00:00:07,000 --> 00:00:12,000\n[Jairo]: Oi\n\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestStats(t *testing.T) {
	segments := []subtitle.Segment{
		{Speaker: "Gabriel Tintor", EndTime: 5 * time.Second},
		{Speaker: "Douglas", EndTime: 10 * time.Second},
		{Speaker: "Douglas", EndTime: 15 * time.Second},
		{Speaker: "Jairo", EndTime: 20 * time.Second},
	}

	sum := Stats(segments)
	if sum.Segments != 4 || sum.Duration != 20*time.Second {
		t.Errorf("summary = %+v", sum)
	}

	want := []SpeakerStat{
		{Speaker: "Douglas", Count: 2, Percent: 50},
		{Speaker: "Gabriel Tintor", Count: 1, Percent: 25},
		{Speaker: "Jairo", Count: 1, Percent: 25},
	}
	if len(sum.Speakers) != len(want) {
		t.Fatalf("got %d speakers, want %d", len(sum.Speakers), len(want))
	}
	for i := range want {
		if sum.Speakers[i] != want[i] {
			t.Errorf("stat %d = %+v, want %+v", i, sum.Speakers[i], want[i])
		}
	}

	if empty := Stats(nil); empty.Segments != 0 || len(empty.Speakers) != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}
