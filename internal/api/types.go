package api

import "time"

type Chapter struct {
	ID            string    `json:"id"`
	NovelID       string    `json:"novelId"`
	Title         string    `json:"title"`
	ChapterNumber int       `json:"chapterNumber"`
	WordCount     int       `json:"wordCount,omitempty"`
	IsLocked      bool      `json:"isLocked,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Page is the paginated envelope returned by list endpoints.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

type CompetitionNovel struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
	CoverURL   string `json:"coverUrl,omitempty"`
	Votes      int    `json:"votes"`
	Rank       int    `json:"rank,omitempty"`
}

type Participation struct {
	CompetitionID    string    `json:"competitionId"`
	CompetitionTitle string    `json:"competitionTitle"`
	NovelID          string    `json:"novelId"`
	NovelTitle       string    `json:"novelTitle"`
	JoinedAt         time.Time `json:"joinedAt"`
}

// NovelPrivilege is what the current user may do with a novel.
type NovelPrivilege struct {
	NovelID    string `json:"novelId"`
	Role       string `json:"role"`
	CanEdit    bool   `json:"canEdit"`
	CanPublish bool   `json:"canPublish"`
	CanDelete  bool   `json:"canDelete"`
}

// Envelope is the generic success answer of write endpoints.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ProgressResult is returned by the reading progress tracker.
type ProgressResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
