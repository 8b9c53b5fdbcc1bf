package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"knesset-pulse/internal/knesset"
	"knesset-pulse/internal/logger"
	"knesset-pulse/internal/model"
	"knesset-pulse/internal/search"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSyncRunning is returned when a sync is triggered while another run for
// the same process is still in flight.
var ErrSyncRunning = errors.New("sync already running")

const defaultTopic = "דיון כללי"

// SyncService runs the weekly pipeline: refresh the member directory,
// aggregate the previous week's committee transcripts, score each speaker
// and replace that week's stat rows.
type SyncService struct {
	db     *gorm.DB
	client *knesset.Client
	mu     sync.Mutex

	// Now is the clock used to resolve the previous week. Overridden in tests.
	Now func() time.Time
}

func NewSyncService(db *gorm.DB, client *knesset.Client) *SyncService {
	return &SyncService{db: db, client: client, Now: time.Now}
}

// Run executes one full sync. Runs are serialized: the week replace is a
// delete-then-insert and must never interleave with another run's writes.
func (s *SyncService) Run(ctx context.Context) (*model.SyncResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrSyncRunning
	}
	defer s.mu.Unlock()

	logger.Info("sync.start")

	members, err := s.client.FetchMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("שגיאה בסנכרון: %w", err)
	}
	if len(members) == 0 {
		return nil, errors.New("שגיאה בסנכרון: לא נמצאו חברי כנסת מה-API")
	}
	logger.Info("sync.members.fetched", "count", len(members))

	if err := s.upsertMembers(ctx, members); err != nil {
		return nil, fmt.Errorf("שגיאה בסנכרון: %w", err)
	}

	weekStart, weekEnd := knesset.PreviousWeek(s.Now())
	startStr := knesset.DateString(weekStart)
	endStr := knesset.DateString(weekEnd)
	logger.Info("sync.week", "start", startStr, "end", endStr)

	meetings, err := s.client.FetchMeetings(ctx, startStr, endStr)
	if err != nil {
		return nil, fmt.Errorf("שגיאה בסנכרון: %w", err)
	}
	speeches := knesset.AggregateSpeeches(ctx, meetings, s.client.FetchMeetingDetail)
	logger.Info("sync.speeches.aggregated", "meetings", len(meetings), "speakers", len(speeches))

	resolve := buildResolver(members)

	var statsCount, resolved, unmatched int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("week_start = ? AND week_end = ?", startStr, endStr).
			Delete(&model.WeeklyStat{}).Error; err != nil {
			return fmt.Errorf("clear week stats: %w", err)
		}

		for name, agg := range speeches {
			mkID := resolve(name)
			if mkID != 0 {
				resolved++
			} else {
				unmatched++
			}
			row := model.WeeklyStat{
				MkID:        mkID,
				SpeakerName: name,
				WeekStart:   startStr,
				WeekEnd:     endStr,
				SpeechCount: agg.SpeechCount,
				WordCount:   agg.WordCount,
				ImpactScore: knesset.ImpactScore(agg),
				Topics:      statTopics(agg.Topics),
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert stat for %q: %w", name, err)
			}
			statsCount++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("שגיאה בסנכרון: %w", err)
	}

	logger.Info("sync.done", "members", len(members), "stats", statsCount,
		"resolved", resolved, "unmatched", unmatched)

	return &model.SyncResult{
		Success:        true,
		Synced:         len(members),
		StatsGenerated: statsCount,
		Resolved:       resolved,
		Unmatched:      unmatched,
		WeekStart:      startStr,
		WeekEnd:        endStr,
		Message: fmt.Sprintf("עודכן בהצלחה! %d חברי כנסת, %d דוחות שבועיים מהשבוע הקודם",
			len(members), statsCount),
	}, nil
}

func (s *SyncService) upsertMembers(ctx context.Context, members []knesset.Member) error {
	for _, m := range members {
		party := m.CurrentPartyName
		if party == "" {
			party = "ללא מפלגה"
		}
		row := model.Member{
			MkID:      m.ID,
			Name:      m.DisplayName(),
			NameEn:    m.Name,
			Party:     party,
			Faction:   m.CurrentRoleDescriptions,
			ImgURL:    m.ImgURL,
			Email:     m.Email,
			Website:   m.Website,
			Phone:     m.Phone,
			StartDate: nullableDate(m.StartDate),
			EndDate:   nullableDate(m.EndDate),
			IsCurrent: m.IsCurrent,
		}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "mk_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "party", "is_current", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upsert member %d: %w", m.ID, err)
		}
	}
	return nil
}

// nullableDate maps an absent upstream date to NULL. A strict-mode DATE
// column rejects the empty string outright.
func nullableDate(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// buildResolver maps normalized directory names to member ids. Unresolved
// speaker labels resolve to 0 and stay in the unmatched bucket.
func buildResolver(members []knesset.Member) func(label string) int {
	byName := make(map[string]int, len(members))
	for _, m := range members {
		if name := search.Normalize(m.DisplayName()); name != "" {
			byName[name] = m.ID
		}
	}
	return func(label string) int {
		return byName[search.Normalize(label)]
	}
}

func statTopics(topics []string) model.Topics {
	t := model.Topics{Main: defaultTopic, Secondary: []string{}}
	if len(topics) > 0 {
		t.Main = topics[0]
	}
	if len(topics) > 1 {
		end := len(topics)
		if end > 3 {
			end = 3
		}
		t.Secondary = topics[1:end]
	}
	return t
}
