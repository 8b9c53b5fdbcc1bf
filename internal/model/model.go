package model

type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Model    string        `json:"model,omitempty"`
}

// SearchSource is one mapped web-search result. Fields are always populated
// with best-effort values, never left empty-typed (see search.mapOrganic).
type SearchSource struct {
	Title   string   `json:"title"`
	Snippet string   `json:"snippet"`
	Link    string   `json:"link"`
	Images  []string `json:"images"`
}

// MentionStat counts how many search results mentioned one member name, or,
// in the heuristic fallback, how often a frequent token appeared.
type MentionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ChatAnswer struct {
	Answer  string         `json:"answer"`
	Sources []SearchSource `json:"sources"`
	Stats   []MentionStat  `json:"stats"`
	Images  []string       `json:"images"`
}

type SyncResult struct {
	Success        bool   `json:"success"`
	Synced         int    `json:"synced"`
	StatsGenerated int    `json:"statsGenerated"`
	Resolved       int    `json:"resolved"`
	Unmatched      int    `json:"unmatched"`
	WeekStart      string `json:"weekStart"`
	WeekEnd        string `json:"weekEnd"`
	Message        string `json:"message"`
}

// NewsPost is one AI-generated digest item served by /api/news.
type NewsPost struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Quote    string   `json:"quote"`
	Sources  []string `json:"sources"`
	VideoURL string   `json:"videoUrl"`
	Category string   `json:"category"`
	ImageURL string   `json:"imageUrl"`
}

// WeeklyTopEntry is one member row in the weekly-top and weekly-report
// responses, joined against the member directory.
type WeeklyTopEntry struct {
	MkID        int     `json:"mk_id"`
	Name        string  `json:"name"`
	Party       string  `json:"party"`
	ImgURL      string  `json:"img_url,omitempty"`
	SpeechCount int     `json:"speech_count"`
	WordCount   int     `json:"word_count,omitempty"`
	ImpactScore float64 `json:"impact_score"`
}

type WeeklyTop struct {
	First  *WeeklyTopEntry  `json:"first"`
	Second *WeeklyTopEntry  `json:"second"`
	Third  *WeeklyTopEntry  `json:"third"`
	Others []WeeklyTopEntry `json:"others"`
}

type WeekTotals struct {
	TotalSpeeches int `gorm:"column:total_speeches" json:"totalSpeeches"`
	TotalWords    int `gorm:"column:total_words" json:"totalWords"`
	ActiveMKs     int `gorm:"column:active_mks" json:"activeMKs"`
}

type WeeklyReport struct {
	WeekStart   string           `json:"weekStart"`
	WeekEnd     string           `json:"weekEnd"`
	TopSpeakers []WeeklyTopEntry `json:"topSpeakers"`
	Stats       WeekTotals       `json:"stats"`
}
