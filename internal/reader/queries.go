package reader

import (
	"context"
	"strings"

	"github.com/novelhub/readerkit/internal/api"
	"github.com/novelhub/readerkit/internal/query"
)

// NovelChapters is disabled until a novel id is known.
func (s *Service) NovelChapters(novelID string) query.Query[[]api.Chapter] {
	return query.Query[[]api.Chapter]{
		Key: NovelChaptersKey(novelID),
		Fetch: func(ctx context.Context) ([]api.Chapter, error) {
			return s.API.NovelChapters(ctx, novelID)
		},
		Options: []query.ReadOption{
			query.Enabled(strings.TrimSpace(novelID) != ""),
			query.StaleTime(ChaptersStaleTime),
		},
	}
}

// CompetitionNovels keeps the previous page on screen while the next one
// loads.
func (s *Service) CompetitionNovels(competitionID string, p api.CompetitionNovelsParams) query.Query[api.Page[api.CompetitionNovel]] {
	p = p.Normalize()
	return query.Query[api.Page[api.CompetitionNovel]]{
		Key: CompetitionNovelsKey(competitionID, p),
		Fetch: func(ctx context.Context) (api.Page[api.CompetitionNovel], error) {
			return s.API.CompetitionNovels(ctx, competitionID, p)
		},
		Options: []query.ReadOption{
			query.Enabled(strings.TrimSpace(competitionID) != ""),
			query.StaleTime(CompetitionStaleTime),
			query.KeepPreviousData(),
		},
	}
}

// MyParticipations only runs with a token. Anonymous reads resolve to an
// empty list without touching the network.
func (s *Service) MyParticipations(ctx context.Context) query.Query[[]api.Participation] {
	return query.Query[[]api.Participation]{
		Key: MyParticipationsKey(),
		Fetch: func(ctx context.Context) ([]api.Participation, error) {
			return s.API.MyParticipations(ctx)
		},
		Options: []query.ReadOption{
			query.Enabled(s.LoggedIn(ctx)),
			query.StaleTime(ParticipationsStaleTime),
			query.Placeholder([]api.Participation{}),
		},
	}
}

// NovelPrivilege resolves to nil when the server has no privilege record.
func (s *Service) NovelPrivilege(novelID string) query.Query[*api.NovelPrivilege] {
	return query.Query[*api.NovelPrivilege]{
		Key: NovelPrivilegeKey(novelID),
		Fetch: func(ctx context.Context) (*api.NovelPrivilege, error) {
			return s.API.NovelPrivilege(ctx, novelID)
		},
		Options: []query.ReadOption{
			query.Enabled(strings.TrimSpace(novelID) != ""),
			query.StaleTime(PrivilegeStaleTime),
		},
	}
}

// Get runs q to completion and reports failures through the notifier.
func Get[T any](ctx context.Context, s *Service, q query.Query[T]) (T, error) {
	v, err := q.Get(ctx, s.Cache)
	if err != nil {
		s.notifyError(err)
	}
	return v, err
}

func (s *Service) notifyError(err error) {
	if msg, ok := api.UserMessage(err); ok {
		s.Notify.Error(msg)
	}
}
