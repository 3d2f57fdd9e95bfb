package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	repoerrors "wellsync/internal/infrastructure/errors"
	"wellsync/internal/types"
)

func TestSQLiteRepository_AccumulateSamples_Merges(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local)

	first := []types.AppSample{{
		Date: day, AppName: "Slack", PackageName: "desktop.slack", Seconds: 90,
		FirstSeen: day.Add(9 * time.Hour), LastSeen: day.Add(10 * time.Hour),
		ExePath: `C:\Slack\slack.exe`,
	}}
	second := []types.AppSample{{
		Date: day, AppName: "Slack", PackageName: "desktop.slack", Seconds: 30,
		FirstSeen: day.Add(8 * time.Hour), LastSeen: day.Add(11 * time.Hour),
	}}

	if err := repo.AccumulateSamples(ctx, first); err != nil {
		t.Fatalf("AccumulateSamples() first error = %v", err)
	}
	if err := repo.AccumulateSamples(ctx, second); err != nil {
		t.Fatalf("AccumulateSamples() second error = %v", err)
	}

	samples, err := repo.GetSamplesInRange(ctx, day, day)
	if err != nil {
		t.Fatalf("GetSamplesInRange() error = %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("Expected 1 merged sample, got %d", len(samples))
	}

	got := samples[0]
	if got.Seconds != 120 {
		t.Errorf("Seconds = %d, want 120", got.Seconds)
	}
	if !got.FirstSeen.Equal(day.Add(8 * time.Hour)) {
		t.Errorf("FirstSeen = %v, want %v", got.FirstSeen, day.Add(8*time.Hour))
	}
	if !got.LastSeen.Equal(day.Add(11 * time.Hour)) {
		t.Errorf("LastSeen = %v, want %v", got.LastSeen, day.Add(11*time.Hour))
	}
	if got.ExePath != `C:\Slack\slack.exe` {
		t.Errorf("ExePath = %q, expected earlier path to be kept", got.ExePath)
	}
	if dayKey(got.Date) != "2024-03-04" {
		t.Errorf("Date = %v, want 2024-03-04", got.Date)
	}
}

func TestSQLiteRepository_AccumulateSamples_Batches(t *testing.T) {
	repo := setupTestRepository(t)
	repo.batchConfig = &BatchConfig{DefaultBatchSize: 2, MaxBatchSize: 2}
	ctx := context.Background()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local)

	var samples []types.AppSample
	for i := 0; i < 5; i++ {
		samples = append(samples, types.AppSample{
			Date: day, AppName: fmt.Sprintf("App%d", i), PackageName: fmt.Sprintf("desktop.app%d", i), Seconds: int64(i * 10),
		})
	}
	if err := repo.AccumulateSamples(ctx, samples); err != nil {
		t.Fatalf("AccumulateSamples() error = %v", err)
	}

	got, err := repo.GetSamplesInRange(ctx, day, day)
	if err != nil {
		t.Fatalf("GetSamplesInRange() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Expected 5 samples, got %d", len(got))
	}
	for i, s := range got {
		if s.PackageName != fmt.Sprintf("desktop.app%d", i) {
			t.Errorf("samples[%d].PackageName = %q, expected package ordering", i, s.PackageName)
		}
	}
}

func TestSQLiteRepository_AccumulateSamples_Validation(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name   string
		sample types.AppSample
	}{
		{"negative seconds", types.AppSample{Date: day, AppName: "A", PackageName: "desktop.a", Seconds: -1}},
		{"missing package", types.AppSample{Date: day, AppName: "A", Seconds: 1}},
		{"missing name", types.AppSample{Date: day, PackageName: "desktop.a", Seconds: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.AccumulateSamples(ctx, []types.AppSample{tt.sample})
			if !repoerrors.IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}

	if err := repo.AccumulateSamples(ctx, nil); err != nil {
		t.Errorf("AccumulateSamples(nil) error = %v", err)
	}
}

func TestSQLiteRepository_GetSamplesInRange(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)

	var samples []types.AppSample
	for i := 0; i < 5; i++ {
		samples = append(samples, types.AppSample{
			Date: base.AddDate(0, 0, i), AppName: "Code", PackageName: "desktop.code", Seconds: 60,
		})
	}
	if err := repo.AccumulateSamples(ctx, samples); err != nil {
		t.Fatalf("AccumulateSamples() error = %v", err)
	}

	got, err := repo.GetSamplesInRange(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("GetSamplesInRange() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected inclusive range of 3 days, got %d", len(got))
	}
	if dayKey(got[0].Date) != "2024-03-02" || dayKey(got[2].Date) != "2024-03-04" {
		t.Errorf("Unexpected range bounds %s..%s", dayKey(got[0].Date), dayKey(got[2].Date))
	}

	if _, err := repo.GetSamplesInRange(ctx, base.AddDate(0, 0, 3), base); !repoerrors.IsValidation(err) {
		t.Errorf("Expected validation error for reversed range, got %v", err)
	}
}

func TestSQLiteRepository_DeleteOldUsage(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)

	var samples []types.AppSample
	for i := 0; i < 4; i++ {
		samples = append(samples, types.AppSample{
			Date: base.AddDate(0, 0, i), AppName: "Code", PackageName: "desktop.code", Seconds: 60,
		})
	}
	if err := repo.AccumulateSamples(ctx, samples); err != nil {
		t.Fatalf("AccumulateSamples() error = %v", err)
	}

	deleted, err := repo.DeleteOldUsage(ctx, base.AddDate(0, 0, 2).Add(15*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOldUsage() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeleteOldUsage() deleted %d, want 2", deleted)
	}

	remaining, err := repo.GetSamplesInRange(ctx, base, base.AddDate(0, 0, 10))
	if err != nil {
		t.Fatalf("GetSamplesInRange() error = %v", err)
	}
	if len(remaining) != 2 || dayKey(remaining[0].Date) != "2024-03-03" {
		t.Errorf("Unexpected remaining samples: %+v", remaining)
	}

	if _, err := repo.DeleteOldUsage(ctx, time.Time{}); !repoerrors.IsValidation(err) {
		t.Errorf("Expected validation error for zero cutoff, got %v", err)
	}
}
