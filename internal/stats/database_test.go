package stats

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "stats", "stats.json"), zap.NewNop())
	require.NoError(t, err)
	return db
}

func TestDatabase(t *testing.T) {
	t.Run("Add And Reload", func(t *testing.T) {
		db := newTestDatabase(t)
		now := time.Now()

		require.NoError(t, db.AddRunRecord(&RunRecord{
			ID:             "a",
			Timestamp:      now,
			Format:         "pdf",
			Paragraphs:     12,
			CharacterCount: 1000,
			Replacements:   4,
			Duration:       time.Second,
			Status:         StatusCompleted,
		}))
		require.NoError(t, db.AddRunRecord(&RunRecord{
			ID:               "b",
			Timestamp:        now.Add(time.Minute),
			Format:           "pdf",
			CharacterCount:   500,
			FallbackAppended: true,
			Duration:         2 * time.Second,
			Status:           StatusFailed,
			ErrorMessage:     "boom",
		}))

		reloaded, err := NewDatabase(db.Path(), zap.NewNop())
		require.NoError(t, err)
		stats := reloaded.GetStats()

		assert.Equal(t, int64(2), stats.TotalRuns)
		assert.Equal(t, int64(1), stats.TotalFailures)
		assert.Equal(t, int64(1), stats.TotalFallbacks)
		assert.Equal(t, int64(4), stats.TotalReplacements)
		assert.Equal(t, int64(1500), stats.TotalCharacters)
		assert.Equal(t, int64(12), stats.TotalParagraphs)

		pdf := stats.FormatStats["pdf"]
		require.NotNil(t, pdf)
		assert.Equal(t, int64(2), pdf.RunCount)
		assert.InDelta(t, 0.5, pdf.SuccessRate, 1e-9)
		assert.Equal(t, 1500*time.Millisecond, pdf.AverageDuration)

		assert.Equal(t, time.Second, stats.PerformanceStats.FastestRun)
		assert.Equal(t, 2*time.Second, stats.PerformanceStats.SlowestRun)

		recent := reloaded.GetRecentRuns(1)
		require.Len(t, recent, 1)
		assert.Equal(t, "b", recent[0].ID)
	})

	t.Run("Recent Records Capped", func(t *testing.T) {
		db := newTestDatabase(t)
		base := time.Now()
		for i := 0; i < MaxRecentRecords+5; i++ {
			require.NoError(t, db.AddRunRecord(&RunRecord{
				ID:        fmt.Sprintf("run-%d", i),
				Timestamp: base.Add(time.Duration(i) * time.Second),
				Format:    "docx",
				Status:    StatusCompleted,
			}))
		}
		recent := db.GetRecentRuns(0)
		assert.Len(t, recent, MaxRecentRecords)
		assert.Equal(t, fmt.Sprintf("run-%d", MaxRecentRecords+4), recent[0].ID)
		assert.Equal(t, int64(MaxRecentRecords+5), db.GetStats().TotalRuns)
	})

	t.Run("Reset", func(t *testing.T) {
		db := newTestDatabase(t)
		require.NoError(t, db.AddRunRecord(&RunRecord{ID: "x", Timestamp: time.Now(), Format: "pdf", Status: StatusCompleted}))
		require.NoError(t, db.Reset())
		assert.Equal(t, int64(0), db.GetStats().TotalRuns)
		assert.Empty(t, db.GetRecentRuns(10))
	})

	t.Run("Stats Copy Is Detached", func(t *testing.T) {
		db := newTestDatabase(t)
		snapshot := db.GetStats()
		snapshot.TotalRuns = 42
		assert.Equal(t, int64(0), db.GetStats().TotalRuns)
	})
}

func TestVisualizer(t *testing.T) {
	color.NoColor = true

	db := newTestDatabase(t)
	require.NoError(t, db.AddRunRecord(&RunRecord{
		ID:           "a",
		Timestamp:    time.Now(),
		InputFile:    "/very/long/path/that/does/not/fit/in/the/table/column/journal.pdf",
		OutputFile:   "out.docx",
		Format:       "pdf",
		TemplateMode: "rewrite",
		Paragraphs:   7,
		Replacements: 3,
		Duration:     250 * time.Millisecond,
		Status:       StatusFailed,
		ErrorMessage: "template missing",
	}))

	var buf bytes.Buffer
	v := NewVisualizer(db, &buf)
	v.ShowOverview()
	v.ShowFormatStats()
	v.ShowRecentRuns(5)

	out := buf.String()
	assert.Contains(t, out, "Conversion Statistics Overview")
	assert.Contains(t, out, "PDF")
	assert.Contains(t, out, "journal.pdf")
	assert.Contains(t, out, "template missing")
	assert.Contains(t, out, "250ms")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
	assert.Equal(t, "-1,000", formatNumber(-1000))
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "N/A", formatTime(time.Time{}))
	assert.Equal(t, "short.pdf", truncatePath("short.pdf"))
	assert.Equal(t, "…"+string(filepath.Separator)+"journal.pdf",
		truncatePath("/very/long/path/that/does/not/fit/in/the/table/column/journal.pdf"))
}
