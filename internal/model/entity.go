package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Topics is the JSON column payload on a weekly stat row: the first
// committee a speaker appeared in plus up to two secondary ones.
type Topics struct {
	Main      string   `json:"main"`
	Secondary []string `json:"secondary"`
}

func (t Topics) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *Topics) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	case nil:
		*t = Topics{}
		return nil
	default:
		return fmt.Errorf("topics: unsupported scan type %T", src)
	}
}

// Member is a parliamentary representative, upserted by mk_id on every sync.
type Member struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	MkID      int       `gorm:"uniqueIndex" json:"mk_id"`
	Name      string    `json:"name"`
	NameEn    string    `json:"name_en"`
	Party     string    `json:"party"`
	Faction   string    `json:"faction"`
	ImgURL    string    `json:"img_url"`
	Email     string    `json:"email"`
	Website   string    `json:"website"`
	Phone     string    `json:"phone"`
	StartDate *string   `gorm:"type:date" json:"start_date"`
	EndDate   *string   `gorm:"type:date" json:"end_date"`
	IsCurrent bool      `gorm:"default:true" json:"is_current"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WeeklyStat is one row per (speaker, week). MkID is 0 when the transcript
// speaker label could not be resolved against the member directory; the raw
// label is always kept in SpeakerName so unmatched speakers stay queryable
// instead of being forced into the integer key.
type WeeklyStat struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	MkID        int       `gorm:"index" json:"mk_id"`
	SpeakerName string    `json:"speaker_name"`
	WeekStart   string    `gorm:"type:date;index" json:"week_start"`
	WeekEnd     string    `gorm:"type:date" json:"week_end"`
	SpeechCount int       `json:"speech_count"`
	WordCount   int       `json:"word_count"`
	ImpactScore float64   `gorm:"type:decimal(10,2)" json:"impact_score"`
	Topics      Topics    `gorm:"type:json" json:"topics"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Member) TableName() string     { return "knesset_members" }
func (WeeklyStat) TableName() string { return "mk_weekly_stats" }
