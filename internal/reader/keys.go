package reader

import (
	"github.com/novelhub/readerkit/internal/api"
	"github.com/novelhub/readerkit/internal/query"
)

const (
	resNovelChapters     = "novel-chapters"
	resCompetitionNovels = "competition-novels"
	resMyParticipations  = "my-participations"
	resNovelPrivilege    = "novel-privilege"
	resNovel             = "novel"
	resNovelReviews      = "novel-reviews"
	resReadingHistory    = "readingHistory"
)

func NovelChaptersKey(novelID string) query.Key {
	return query.Key{resNovelChapters, novelID}
}

// CompetitionNovelsKey includes every request parameter so each page and
// sort order is cached separately.
func CompetitionNovelsKey(competitionID string, p api.CompetitionNovelsParams) query.Key {
	p = p.Normalize()
	return query.Key{resCompetitionNovels, competitionID, p.SortBy, p.PageNumber, p.PageSize}
}

func MyParticipationsKey() query.Key {
	return query.Key{resMyParticipations}
}

func NovelPrivilegeKey(novelID string) query.Key {
	return query.Key{resNovelPrivilege, novelID}
}

func NovelKey(novelID string) query.Key {
	return query.Key{resNovel, novelID}
}

func NovelReviewsKey(novelID string) query.Key {
	return query.Key{resNovelReviews, novelID}
}

func ReadingHistoryKey() query.Key {
	return query.Key{resReadingHistory}
}

// UserScoped are the prefixes whose data depends on who is logged in.
// They are dropped on login and logout and never persisted.
func UserScoped() []query.Key {
	return []query.Key{
		MyParticipationsKey(),
		ReadingHistoryKey(),
		{resNovelPrivilege},
	}
}
