package transcript

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/reinocast/speakersync/internal/subtitle"
)

// share of a transcript attributed to one speaker
type SpeakerStat struct {
	Speaker string
	Count   int
	Percent float64
}

type Summary struct {
	Segments int
	Duration time.Duration // end of the last segment
	Speakers []SpeakerStat
}

// Stats counts segments per speaker, most frequent first; ties keep the
// order of first appearance.
func Stats(segments []subtitle.Segment) Summary {
	sum := Summary{Segments: len(segments)}
	if len(segments) == 0 {
		return sum
	}
	sum.Duration = lo.MaxBy(segments, func(a, b subtitle.Segment) bool {
		return a.EndTime > b.EndTime
	}).EndTime

	counts := lo.CountValuesBy(segments, func(s subtitle.Segment) string {
		return s.Speaker
	})
	order := lo.Uniq(lo.Map(segments, func(s subtitle.Segment, _ int) string {
		return s.Speaker
	}))

	sum.Speakers = lo.Map(order, func(name string, _ int) SpeakerStat {
		return SpeakerStat{
			Speaker: name,
			Count:   counts[name],
			Percent: float64(counts[name]) * 100 / float64(len(segments)),
		}
	})
	sort.SliceStable(sum.Speakers, func(i, j int) bool {
		return sum.Speakers[i].Count > sum.Speakers[j].Count
	})
	return sum
}
