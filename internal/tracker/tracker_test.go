package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
	"github.com/hammamikhairi/compostcoach/internal/storage"
)

// fakeContent implements domain.ContentService and records BinHealth calls.
type fakeContent struct {
	domain.ContentService
	binType domain.BinType
	logs    []domain.BinLog
}

func (f *fakeContent) BinHealth(ctx context.Context, binType domain.BinType, logs []domain.BinLog) (string, error) {
	f.binType = binType
	f.logs = logs
	return "Add browns.", nil
}

// stepClock advances one hour per call.
func stepClock() func() time.Time {
	t := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Hour)
		return t
	}
}

func setupTracker(t *testing.T, content domain.ContentService) *Tracker {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	return New(storage.NewMemoryBinStore(log), content, log, WithClock(stepClock()))
}

func TestCreateBin(t *testing.T) {
	tr := setupTracker(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      BinInput
		wantErr bool
	}{
		{"hot", BinInput{Name: "Backyard", Type: "hot"}, false},
		{"mixed case type", BinInput{Name: "Worms", Type: " Vermicompost "}, false},
		{"bad type", BinInput{Name: "Tumbler", Type: "tumbler"}, true},
		{"no name", BinInput{Name: "  ", Type: "cold"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, err := tr.CreateBin(ctx, tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			_, perr := uuid.Parse(bin.ID)
			assert.NoError(t, perr)
			assert.False(t, bin.StartDate.IsZero())
		})
	}

	bins, err := tr.Bins(ctx)
	require.NoError(t, err)
	assert.Len(t, bins, 2)
}

func TestAddLogValidation(t *testing.T) {
	tr := setupTracker(t, nil)
	ctx := context.Background()
	bin, err := tr.CreateBin(ctx, BinInput{Name: "Pile", Type: "hot"})
	require.NoError(t, err)

	hot, frozen := 62.0, -55.0
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		in      LogInput
		wantErr bool
	}{
		{"full", LogInput{Temperature: &hot, Moisture: "ideal", Smell: "earthy", Notes: "steaming"}, false},
		{"no temperature", LogInput{Moisture: "Wet", Smell: "sour"}, false},
		{"bad moisture", LogInput{Moisture: "soggy", Smell: "earthy"}, true},
		{"bad smell", LogInput{Moisture: "dry", Smell: "roses"}, true},
		{"too cold", LogInput{Temperature: &frozen, Moisture: "dry", Smell: "none"}, true},
		{"notes too long", LogInput{Moisture: "dry", Smell: "none", Notes: string(long)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.AddLog(ctx, bin.ID, tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}

	got, err := tr.Bin(ctx, bin.ID)
	require.NoError(t, err)
	require.Len(t, got.Logs, 2)
	assert.Equal(t, "steaming", got.Logs[0].Notes)
	assert.Equal(t, domain.MoistureWet, got.Logs[1].Moisture)
	assert.True(t, got.Logs[0].Date.Before(got.Logs[1].Date))
}

func TestAddLogUnknownBin(t *testing.T) {
	tr := setupTracker(t, nil)
	_, err := tr.AddLog(context.Background(), "missing", LogInput{Moisture: "dry", Smell: "none"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalyze(t *testing.T) {
	content := &fakeContent{}
	tr := setupTracker(t, content)
	ctx := context.Background()

	bin, err := tr.CreateBin(ctx, BinInput{Name: "Worms", Type: "vermicompost"})
	require.NoError(t, err)

	_, err = tr.Analyze(ctx, bin.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	notes := []string{"one", "two", "three", "four", "five", "six", "seven"}
	for _, n := range notes {
		_, err := tr.AddLog(ctx, bin.ID, LogInput{Moisture: "ideal", Smell: "earthy", Notes: n})
		require.NoError(t, err)
	}

	text, err := tr.Analyze(ctx, bin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Add browns.", text)
	assert.Equal(t, domain.BinVermicompost, content.binType)
	require.Len(t, content.logs, 5)
	assert.Equal(t, "seven", content.logs[0].Notes)
	assert.Equal(t, "three", content.logs[4].Notes)
}

func TestAnalyzeWithoutContent(t *testing.T) {
	tr := setupTracker(t, nil)
	ctx := context.Background()
	bin, err := tr.CreateBin(ctx, BinInput{Name: "Pile", Type: "cold"})
	require.NoError(t, err)
	_, err = tr.AddLog(ctx, bin.ID, LogInput{Moisture: "dry", Smell: "none"})
	require.NoError(t, err)

	_, err = tr.Analyze(ctx, bin.ID)
	assert.ErrorIs(t, err, domain.ErrAdvisoryUnavailable)
}

func TestDeleteBin(t *testing.T) {
	tr := setupTracker(t, nil)
	ctx := context.Background()
	bin, err := tr.CreateBin(ctx, BinInput{Name: "Old", Type: "cold"})
	require.NoError(t, err)

	require.NoError(t, tr.DeleteBin(ctx, bin.ID))
	assert.ErrorIs(t, tr.DeleteBin(ctx, bin.ID), domain.ErrNotFound)
}

func TestAddLogConcurrent(t *testing.T) {
	ctx := context.Background()
	log := logger.New(logger.LevelOff, nil)
	tr := New(storage.NewMemoryBinStore(log), nil, log)
	bin, err := tr.CreateBin(ctx, BinInput{Name: "Worm tower", Type: "vermicompost"})
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.AddLog(ctx, bin.ID, LogInput{Moisture: "ideal", Smell: "earthy"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := tr.Bin(ctx, bin.ID)
	require.NoError(t, err)
	assert.Len(t, got.Logs, writers)
}
