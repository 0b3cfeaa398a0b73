package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 20
)

// CompetitionNovelsParams filters and pages a competition's entries. Zero
// values fall back to the defaults.
type CompetitionNovelsParams struct {
	SortBy     string
	PageNumber int
	PageSize   int
}

// Normalize fills in pagination defaults.
func (p CompetitionNovelsParams) Normalize() CompetitionNovelsParams {
	p.SortBy = strings.TrimSpace(p.SortBy)
	if p.PageNumber < 1 {
		p.PageNumber = DefaultPageNumber
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p
}

func (p CompetitionNovelsParams) values() url.Values {
	q := url.Values{}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	q.Set("pageNumber", strconv.Itoa(p.PageNumber))
	q.Set("pageSize", strconv.Itoa(p.PageSize))
	return q
}

// CompetitionNovels returns one page of the novels entered in a competition.
func (c *Client) CompetitionNovels(ctx context.Context, competitionID string, params CompetitionNovelsParams) (Page[CompetitionNovel], error) {
	if strings.TrimSpace(competitionID) == "" {
		return Page[CompetitionNovel]{}, ErrMissingID
	}
	params = params.Normalize()
	var page Page[CompetitionNovel]
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/competition/" + escape(competitionID) + "/novels",
		query:  params.values(),
	}, &page)
	if err != nil {
		return Page[CompetitionNovel]{}, err
	}
	if page.Items == nil {
		page.Items = []CompetitionNovel{}
	}
	return page, nil
}

// MyParticipations lists the competitions the caller entered. Anonymous
// callers get an empty list: no request is sent without a token, and a 401
// is read as "nothing to show".
func (c *Client) MyParticipations(ctx context.Context) ([]Participation, error) {
	if _, ok := c.token(ctx); !ok {
		return []Participation{}, nil
	}
	var out []Participation
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/competition/my-participations"}, &out)
	if err != nil {
		if StatusOf(err) == http.StatusUnauthorized {
			return []Participation{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = []Participation{}
	}
	return out, nil
}
