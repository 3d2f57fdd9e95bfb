package usage

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"wellsync/internal/clock"
	"wellsync/internal/types"
)

const (
	maxDailyMinutes = 24 * 60
	minVariation    = 0.7
	maxVariation    = 1.3
)

// Normalizer expands aggregate raw stats into a per-day, per-app series
type Normalizer struct {
	clock     clock.Clock
	generator *Generator
}

// NewNormalizer creates a normalizer; generator supplies the fallback series
func NewNormalizer(c clock.Clock, generator *Generator) *Normalizer {
	if c == nil {
		c = clock.New()
	}
	if generator == nil {
		generator = NewGenerator(c)
	}
	return &Normalizer{clock: c, generator: generator}
}

// Dedupe drops malformed stats and keeps one stat per package, the one with the most usage
func Dedupe(raw []types.RawUsageStat) []types.RawUsageStat {
	byPkg := make(map[string]types.RawUsageStat, len(raw))
	for _, s := range raw {
		if !s.Valid() {
			continue
		}
		if prev, ok := byPkg[s.PackageName]; ok && prev.UsageTimeMillis >= s.UsageTimeMillis {
			continue
		}
		byPkg[s.PackageName] = s
	}

	out := make([]types.RawUsageStat, 0, len(byPkg))
	for _, s := range byPkg {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PackageName < out[j].PackageName })
	return out
}

// Normalize returns a days-long series for every unique app in raw. With nothing usable it
// returns generated data instead, never a blend of both.
func (n *Normalizer) Normalize(raw []types.RawUsageStat, days int) []types.UsageRecord {
	days = ClampDays(days)
	stats := Dedupe(raw)
	if len(stats) == 0 {
		return n.generator.Generate(days)
	}

	pkgs := make([]string, len(stats))
	for i, s := range stats {
		pkgs[i] = s.PackageName
	}
	seed := HashSeed(strings.Join(pkgs, ",") + "|" + strconv.Itoa(days))
	today := types.StartOfDay(n.clock.Now())

	records := make([]types.UsageRecord, 0, len(stats)*days)
	for appIdx, s := range stats {
		category := Categorize(s.PackageName)
		dailyBase := float64(s.UsageTimeMillis) / float64(time.Minute/time.Millisecond) / windowDays(s, days)

		for offset := 0; offset < days; offset++ {
			date := dayAt(today, offset)
			rng := NewRandom(seed + int64(appIdx)*104729 + int64(offset)*7919)
			variation := rng.Between(minVariation, maxVariation)

			minutes := int(math.Round(dailyBase * DayOfWeekFactor(category, date) * variation))
			minutes = clampInt(minutes, 0, maxDailyMinutes)

			hour := typicalHour(category, rng)
			if !s.FirstTimestamp.IsZero() {
				hour = s.FirstTimestamp.In(date.Location()).Hour()
			}
			start := date.Add(time.Duration(hour) * time.Hour)

			records = append(records, types.UsageRecord{
				ID:           types.RecordID(s.PackageName, date),
				Date:         date,
				AppName:      s.AppName,
				PackageName:  s.PackageName,
				UsageMinutes: minutes,
				StartTime:    start,
				EndTime:      start.Add(time.Duration(minutes) * time.Minute),
				Category:     category,
			})
		}
	}

	types.SortRecords(records)
	return records
}

// windowDays is the divisor spreading a raw total over the series: the requested window,
// or the observed first-to-last span when the aggregate covers more days than that
func windowDays(s types.RawUsageStat, days int) float64 {
	window := float64(days)
	if s.FirstTimestamp.IsZero() || s.LastTimestamp.IsZero() || s.LastTimestamp.Before(s.FirstTimestamp) {
		return window
	}
	span := math.Ceil(s.LastTimestamp.Sub(s.FirstTimestamp).Hours() / 24)
	return math.Max(span, window)
}
