package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"knesset-pulse/internal/knesset"
	"knesset-pulse/internal/model"

	"gorm.io/gorm"
)

// StatsService answers read queries over the synced weekly stats.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService { return &StatsService{db: db} }

const joinMembers = "INNER JOIN knesset_members ON mk_weekly_stats.mk_id = knesset_members.mk_id"

const entryColumns = `knesset_members.mk_id AS mk_id, knesset_members.name AS name,
knesset_members.party AS party, knesset_members.img_url AS img_url,
mk_weekly_stats.speech_count AS speech_count, mk_weekly_stats.word_count AS word_count,
mk_weekly_stats.impact_score AS impact_score`

// WeeklyTop returns the podium view for the most recent synced week.
func (s *StatsService) WeeklyTop(ctx context.Context) (*model.WeeklyTop, error) {
	var latest model.WeeklyStat
	err := s.db.WithContext(ctx).Order("week_start DESC").First(&latest).Error
	if err == gorm.ErrRecordNotFound {
		return &model.WeeklyTop{Others: []model.WeeklyTopEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest week: %w", err)
	}

	var entries []model.WeeklyTopEntry
	err = s.db.WithContext(ctx).Table("mk_weekly_stats").
		Select(entryColumns).
		Joins(joinMembers).
		Where("mk_weekly_stats.week_start = ?", latest.WeekStart).
		Order("mk_weekly_stats.impact_score DESC").
		Limit(10).
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("query top: %w", err)
	}

	top := &model.WeeklyTop{Others: []model.WeeklyTopEntry{}}
	for i := range entries {
		e := entries[i]
		switch i {
		case 0:
			top.First = &e
		case 1:
			top.Second = &e
		case 2:
			top.Third = &e
		default:
			top.Others = append(top.Others, e)
		}
	}
	return top, nil
}

// RecentStats returns member rows joined with their latest weekly stats,
// newest week first. Used by the stats endpoint and as LLM context.
func (s *StatsService) RecentStats(ctx context.Context, limit int) ([]model.WeeklyTopEntry, error) {
	var entries []model.WeeklyTopEntry
	err := s.db.WithContext(ctx).Table("mk_weekly_stats").
		Select(entryColumns).
		Joins(joinMembers).
		Order("mk_weekly_stats.week_start DESC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("query recent stats: %w", err)
	}
	return entries, nil
}

// WeeklyReport returns the previous week's top speakers with week totals.
func (s *StatsService) WeeklyReport(ctx context.Context, now time.Time) (*model.WeeklyReport, error) {
	weekStart, weekEnd := knesset.PreviousWeek(now)
	startStr := knesset.DateString(weekStart)
	endStr := knesset.DateString(weekEnd)

	var speakers []model.WeeklyTopEntry
	err := s.db.WithContext(ctx).Table("mk_weekly_stats").
		Select(entryColumns).
		Joins(joinMembers).
		Where("mk_weekly_stats.week_start = ?", startStr).
		Order("mk_weekly_stats.impact_score DESC").
		Limit(10).
		Scan(&speakers).Error
	if err != nil {
		return nil, fmt.Errorf("query top speakers: %w", err)
	}

	var totals model.WeekTotals
	err = s.db.WithContext(ctx).Table("mk_weekly_stats").
		Select(`COALESCE(SUM(speech_count), 0) AS total_speeches,
COALESCE(SUM(word_count), 0) AS total_words,
COUNT(DISTINCT mk_id) AS active_mks`).
		Where("week_start = ?", startStr).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}

	if speakers == nil {
		speakers = []model.WeeklyTopEntry{}
	}
	return &model.WeeklyReport{
		WeekStart:   startStr,
		WeekEnd:     endStr,
		TopSpeakers: speakers,
		Stats:       totals,
	}, nil
}

// StatsContext renders recent stats as prompt context lines for the LLM.
func (s *StatsService) StatsContext(ctx context.Context) string {
	entries, err := s.RecentStats(ctx, 20)
	if err != nil || len(entries) == 0 {
		return "אין נתונים זמינים על חברי כנסת מהשבוע האחרון."
	}
	var sb strings.Builder
	sb.WriteString("מידע עדכני על חברי כנסת מהשבוע האחרון:\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s (%s): %d נאומים, ציון השפעה: %.2f\n",
			e.Name, e.Party, e.SpeechCount, e.ImpactScore)
	}
	return sb.String()
}
