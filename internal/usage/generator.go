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
	minGeneratedMinutes = 1
	maxGeneratedMinutes = 120
	minAppsPerDay       = 3
	appsPerDaySpread    = 3
)

// CandidateApp is an app the generator may emit, with its plausible daily minute range
type CandidateApp struct {
	Name       string
	Package    string
	MinMinutes int
	MaxMinutes int
}

// DefaultCandidates is the fixed synthetic app list. The first health app is always included.
var DefaultCandidates = []CandidateApp{
	{Name: "ZenFlow", Package: "com.zenflow.app", MinMinutes: 10, MaxMinutes: 30},
	{Name: "YouTube", Package: "com.google.android.youtube", MinMinutes: 30, MaxMinutes: 90},
	{Name: "Instagram", Package: "com.instagram.android", MinMinutes: 20, MaxMinutes: 60},
	{Name: "WhatsApp", Package: "com.whatsapp", MinMinutes: 15, MaxMinutes: 45},
	{Name: "Netflix", Package: "com.netflix.mediaclient", MinMinutes: 30, MaxMinutes: 90},
	{Name: "Gmail", Package: "com.google.android.gm", MinMinutes: 10, MaxMinutes: 40},
	{Name: "Slack", Package: "com.slack", MinMinutes: 20, MaxMinutes: 60},
	{Name: "Spotify", Package: "com.spotify.music", MinMinutes: 15, MaxMinutes: 60},
	{Name: "Strava", Package: "com.strava", MinMinutes: 10, MaxMinutes: 40},
	{Name: "Chrome", Package: "com.android.chrome", MinMinutes: 10, MaxMinutes: 45},
}

// Generator produces reproducible synthetic usage when no real source is available
type Generator struct {
	clock      clock.Clock
	candidates []CandidateApp
	anchor     int
}

// NewGenerator creates a generator over the default candidate apps
func NewGenerator(c clock.Clock) *Generator {
	return NewGeneratorWithCandidates(c, DefaultCandidates)
}

// NewGeneratorWithCandidates creates a generator that picks from candidates instead of the defaults
func NewGeneratorWithCandidates(c clock.Clock, candidates []CandidateApp) *Generator {
	if c == nil {
		c = clock.New()
	}
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	anchorPkg := ""
	for _, app := range candidates {
		if Categorize(app.Package) == types.CategoryHealth {
			anchorPkg = app.Package
			break
		}
	}

	cands := make([]CandidateApp, len(candidates))
	copy(cands, candidates)
	sort.Slice(cands, func(i, j int) bool { return cands[i].Package < cands[j].Package })

	anchor := -1
	for i, app := range cands {
		if app.Package == anchorPkg {
			anchor = i
			break
		}
	}
	return &Generator{clock: c, candidates: cands, anchor: anchor}
}

// Seed derives the generation seed from the candidate set, the window and today's date
func (g *Generator) Seed(days int, today time.Time) int64 {
	pkgs := make([]string, len(g.candidates))
	for i, c := range g.candidates {
		pkgs[i] = c.Package
	}
	return HashSeed(strings.Join(pkgs, ",") + "|" + strconv.Itoa(days) + "|" + today.Format(types.DateLayout))
}

// Generate returns one record per selected (app, day) for the most recent days, today included
func (g *Generator) Generate(days int) []types.UsageRecord {
	days = ClampDays(days)
	today := types.StartOfDay(g.clock.Now())
	seed := g.Seed(days, today)

	records := make([]types.UsageRecord, 0, days*(minAppsPerDay+appsPerDaySpread))
	for offset := 0; offset < days; offset++ {
		date := dayAt(today, offset)
		rng := NewRandom(seed + int64(offset)*7919)

		for _, app := range g.pickApps(rng) {
			category := Categorize(app.Package)
			base := float64(app.MinMinutes) + rng.Float64()*float64(app.MaxMinutes-app.MinMinutes)
			minutes := int(math.Round(base * DayOfWeekFactor(category, date)))
			minutes = clampInt(minutes, minGeneratedMinutes, maxGeneratedMinutes)

			start := date.Add(time.Duration(typicalHour(category, rng))*time.Hour +
				time.Duration(rng.Intn(60))*time.Minute)
			records = append(records, types.UsageRecord{
				ID:           types.RecordID(app.Package, date),
				Date:         date,
				AppName:      app.Name,
				PackageName:  app.Package,
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

// pickApps selects 3 to 5 candidates: the anchor plus a seeded shuffle of the rest
func (g *Generator) pickApps(rng *Random) []CandidateApp {
	size := minAppsPerDay + rng.Intn(appsPerDaySpread)
	if size > len(g.candidates) {
		size = len(g.candidates)
	}

	pool := make([]int, 0, len(g.candidates))
	for i := range g.candidates {
		if i != g.anchor {
			pool = append(pool, i)
		}
	}
	for i := len(pool) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	picked := make([]CandidateApp, 0, size)
	if g.anchor >= 0 {
		picked = append(picked, g.candidates[g.anchor])
	}
	for _, idx := range pool {
		if len(picked) == size {
			break
		}
		picked = append(picked, g.candidates[idx])
	}
	return picked
}
