package types

import (
	"sort"
	"time"
)

// DateLayout is the canonical calendar-day format used in record IDs and logs
const DateLayout = "2006-01-02"

// Category is the semantic bucket an application belongs to
type Category string

const (
	CategorySocial        Category = "social"
	CategoryEntertainment Category = "entertainment"
	CategoryProductivity  Category = "productivity"
	CategoryHealth        Category = "health"
	CategoryOther         Category = "other"
)

// AllCategories returns every category in categorizer priority order
func AllCategories() []Category {
	return []Category{
		CategorySocial,
		CategoryEntertainment,
		CategoryProductivity,
		CategoryHealth,
		CategoryOther,
	}
}

// IsValid reports whether c is one of the fixed categories
func (c Category) IsValid() bool {
	switch c {
	case CategorySocial, CategoryEntertainment, CategoryProductivity, CategoryHealth, CategoryOther:
		return true
	}
	return false
}

// IsDistracting reports whether minutes in this category count as distraction
func (c Category) IsDistracting() bool {
	return c == CategorySocial || c == CategoryEntertainment
}

// IsHealthy reports whether minutes in this category count toward the wellness score
func (c Category) IsHealthy() bool {
	return c == CategoryProductivity || c == CategoryHealth
}

// UsageRecord is one app's usage on one calendar day
type UsageRecord struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	AppName      string    `json:"appName"`
	PackageName  string    `json:"packageName"`
	UsageMinutes int       `json:"usageMinutes"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Category     Category  `json:"category"`
}

// RecordID builds the stable identifier for a (package, day) pair
func RecordID(packageName string, date time.Time) string {
	return packageName + "_" + date.Format(DateLayout)
}

// RawUsageStat is an aggregate reported by a real usage source over some window
type RawUsageStat struct {
	PackageName     string    `json:"packageName"`
	AppName         string    `json:"appName"`
	UsageTimeMillis int64     `json:"usageTimeMillis"`
	FirstTimestamp  time.Time `json:"firstTimestamp"`
	LastTimestamp   time.Time `json:"lastTimestamp"`
}

// Valid reports whether the stat carries enough data to be normalized
func (s RawUsageStat) Valid() bool {
	return s.PackageName != "" && s.AppName != "" && s.UsageTimeMillis >= 0
}

// StartOfDay truncates t to local midnight in t's location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaySummary aggregates all records of one calendar day
type DaySummary struct {
	Date               time.Time
	TotalMinutes       int
	HealthyMinutes     int
	ProductiveMinutes  int
	DistractingMinutes int
}

// HealthyPercent returns healthy/total*100, or 0 for an empty day
func (d DaySummary) HealthyPercent() float64 {
	if d.TotalMinutes <= 0 {
		return 0
	}
	return float64(d.HealthyMinutes) / float64(d.TotalMinutes) * 100
}

// ProductivePercent returns productive/total*100, or 0 for an empty day
func (d DaySummary) ProductivePercent() float64 {
	if d.TotalMinutes <= 0 {
		return 0
	}
	return float64(d.ProductiveMinutes) / float64(d.TotalMinutes) * 100
}

// SummarizeByDay groups records by calendar day, sorted by date ascending
func SummarizeByDay(records []UsageRecord) []DaySummary {
	byDay := make(map[string]*DaySummary)
	for _, r := range records {
		day := StartOfDay(r.Date)
		key := day.Format(DateLayout)
		s, ok := byDay[key]
		if !ok {
			s = &DaySummary{Date: day}
			byDay[key] = s
		}
		s.TotalMinutes += r.UsageMinutes
		if r.Category.IsHealthy() {
			s.HealthyMinutes += r.UsageMinutes
		}
		if r.Category == CategoryProductivity {
			s.ProductiveMinutes += r.UsageMinutes
		}
		if r.Category.IsDistracting() {
			s.DistractingMinutes += r.UsageMinutes
		}
	}

	out := make([]DaySummary, 0, len(byDay))
	for _, s := range byDay {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// SortRecords orders records by date, then package name
func SortRecords(records []UsageRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].PackageName < records[j].PackageName
	})
}

// AppSample is a persisted desktop sampler row: seconds of foreground time for one app on one day
type AppSample struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	AppName     string    `json:"appName"`
	PackageName string    `json:"packageName"`
	Seconds     int64     `json:"seconds"`
	FirstSeen   time.Time `json:"firstSeen"`
	LastSeen    time.Time `json:"lastSeen"`
	ExePath     string    `json:"exePath"`
}
