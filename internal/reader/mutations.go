package reader

import (
	"context"

	"github.com/novelhub/readerkit/internal/api"
	"github.com/novelhub/readerkit/internal/query"
)

// Every write and the cache keys it makes stale. Keep new mutations in
// this file so the whole mapping can be read in one place.
//
//	delete review(novelId)            ["novel-reviews", novelId], ["novel", novelId]
//	track reading progress(chapterId) ["readingHistory"]
//	forgot password(email)            nothing

func (s *Service) deleteReview() query.Mutation[string, *api.Envelope] {
	return query.Mutation[string, *api.Envelope]{
		Fn: s.API.DeleteReview,
		Invalidates: func(novelID string, _ *api.Envelope) []query.Key {
			return []query.Key{NovelReviewsKey(novelID), NovelKey(novelID)}
		},
		OnError: s.onError,
	}
}

func (s *Service) trackReadingProgress() query.Mutation[string, *api.ProgressResult] {
	return query.Mutation[string, *api.ProgressResult]{
		Fn: s.API.TrackReadingProgress,
		Invalidates: func(_ string, res *api.ProgressResult) []query.Key {
			// nil means nothing was recorded (no token).
			if res == nil {
				return nil
			}
			return []query.Key{ReadingHistoryKey()}
		},
		OnError: s.onError,
	}
}

func (s *Service) forgotPassword() query.Mutation[string, *api.Envelope] {
	return query.Mutation[string, *api.Envelope]{
		Fn: s.API.ForgotPassword,
		OnSuccess: func(_ string, env *api.Envelope) {
			if env != nil && env.Message != "" {
				s.Notify.Success(env.Message)
			}
		},
		OnError: s.onError,
	}
}

func (s *Service) onError(_ string, err error) {
	s.notifyError(err)
}

func (s *Service) DeleteReview(ctx context.Context, novelID string) (*api.Envelope, error) {
	return s.deleteReview().Run(ctx, s.Cache, novelID)
}

// TrackReadingProgress resolves to nil without a token.
func (s *Service) TrackReadingProgress(ctx context.Context, chapterID string) (*api.ProgressResult, error) {
	return s.trackReadingProgress().Run(ctx, s.Cache, chapterID)
}

func (s *Service) ForgotPassword(ctx context.Context, email string) (*api.Envelope, error) {
	return s.forgotPassword().Run(ctx, s.Cache, email)
}
