package service

import (
	"context"
	"testing"
	"time"

	"knesset-pulse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedStatsDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)

	members := []model.Member{
		{MkID: 101, Name: "דוד לוי", Party: "הליכוד", IsCurrent: true},
		{MkID: 102, Name: "רות כהן", Party: "העבודה", IsCurrent: true},
		{MkID: 103, Name: "יוסי מזרחי", Party: "ש\"ס", IsCurrent: true},
		{MkID: 104, Name: "מירי אשכנזי", Party: "יש עתיד", IsCurrent: true},
	}
	require.NoError(t, db.Create(&members).Error)

	stats := []model.WeeklyStat{
		// Previous week, superseded by the one below.
		{MkID: 101, SpeakerName: "דוד לוי", WeekStart: "2025-12-28", WeekEnd: "2026-01-03",
			SpeechCount: 9, WordCount: 9000, ImpactScore: 40},
		// Latest week.
		{MkID: 101, SpeakerName: "דוד לוי", WeekStart: "2026-01-04", WeekEnd: "2026-01-10",
			SpeechCount: 8, WordCount: 4000, ImpactScore: 28.5},
		{MkID: 102, SpeakerName: "רות כהן", WeekStart: "2026-01-04", WeekEnd: "2026-01-10",
			SpeechCount: 4, WordCount: 2000, ImpactScore: 13.5},
		{MkID: 103, SpeakerName: "יוסי מזרחי", WeekStart: "2026-01-04", WeekEnd: "2026-01-10",
			SpeechCount: 2, WordCount: 500, ImpactScore: 7},
		{MkID: 104, SpeakerName: "מירי אשכנזי", WeekStart: "2026-01-04", WeekEnd: "2026-01-10",
			SpeechCount: 1, WordCount: 100, ImpactScore: 2.6},
		// Unresolved speaker, kept out of joined views.
		{MkID: 0, SpeakerName: "אורח מזדמן", WeekStart: "2026-01-04", WeekEnd: "2026-01-10",
			SpeechCount: 1, WordCount: 50, ImpactScore: 2.6},
	}
	require.NoError(t, db.Create(&stats).Error)
	return db
}

func TestWeeklyTopPodium(t *testing.T) {
	svc := NewStatsService(seedStatsDB(t))

	top, err := svc.WeeklyTop(context.Background())
	require.NoError(t, err)

	require.NotNil(t, top.First)
	assert.Equal(t, "דוד לוי", top.First.Name)
	assert.Equal(t, "הליכוד", top.First.Party)
	assert.InDelta(t, 28.5, top.First.ImpactScore, 1e-9, "latest week wins over older rows")

	require.NotNil(t, top.Second)
	assert.Equal(t, "רות כהן", top.Second.Name)
	require.NotNil(t, top.Third)
	assert.Equal(t, "יוסי מזרחי", top.Third.Name)

	require.Len(t, top.Others, 1)
	assert.Equal(t, "מירי אשכנזי", top.Others[0].Name)
	for _, e := range top.Others {
		assert.NotEqual(t, "אורח מזדמן", e.Name, "unresolved speakers have no member row to join")
	}
}

func TestWeeklyTopEmptyDB(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	top, err := svc.WeeklyTop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, top.First)
	assert.Nil(t, top.Second)
	assert.Nil(t, top.Third)
	assert.NotNil(t, top.Others)
	assert.Empty(t, top.Others)
}

func TestRecentStatsLimit(t *testing.T) {
	svc := NewStatsService(seedStatsDB(t))

	entries, err := svc.RecentStats(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEmpty(t, e.Name)
		assert.NotEmpty(t, e.Party)
	}
}

func TestWeeklyReport(t *testing.T) {
	svc := NewStatsService(seedStatsDB(t))

	// Wednesday after the latest synced week.
	now := time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC)
	report, err := svc.WeeklyReport(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, "2026-01-04", report.WeekStart)
	assert.Equal(t, "2026-01-10", report.WeekEnd)
	require.Len(t, report.TopSpeakers, 4)
	assert.Equal(t, "דוד לוי", report.TopSpeakers[0].Name)

	// Totals include the unresolved bucket row.
	assert.Equal(t, 16, report.Stats.TotalSpeeches)
	assert.Equal(t, 6650, report.Stats.TotalWords)
	assert.Equal(t, 5, report.Stats.ActiveMKs)
}

func TestWeeklyReportNoData(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	report, err := svc.WeeklyReport(context.Background(), time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotNil(t, report.TopSpeakers)
	assert.Empty(t, report.TopSpeakers)
	assert.Equal(t, 0, report.Stats.TotalSpeeches)
	assert.Equal(t, 0, report.Stats.ActiveMKs)
}

func TestStatsContext(t *testing.T) {
	svc := NewStatsService(seedStatsDB(t))
	ctxText := svc.StatsContext(context.Background())
	assert.Contains(t, ctxText, "דוד לוי")
	assert.Contains(t, ctxText, "הליכוד")
	assert.Contains(t, ctxText, "28.50")

	empty := NewStatsService(newTestDB(t))
	assert.Contains(t, empty.StatsContext(context.Background()), "אין נתונים זמינים")
}
