package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

func generateOnce(t *testing.T, s *apiStack, templateID string, count int) {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/v1/generate", generateRequest{
		TemplateID: templateID,
		Count:      count,
		Options:    domain.GenerateOptions{Seed: i64(11)},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	s := newAPIStack(t)
	mustRegister(t, s, campaignTemplate())
	mustRegister(t, s, minimalTemplate("alpha"))
	generateOnce(t, s, "campaign_performance", 10)
	generateOnce(t, s, "alpha", 5)

	resp := s.do(t, http.MethodGet, "/v1/runs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page paginatedRuns
	decodeInto(t, resp, &page)
	require.Len(t, page.Data, 2)
	assert.Nil(t, page.NextPageToken)

	resp = s.do(t, http.MethodGet, "/v1/runs?template_id=alpha", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var filtered paginatedRuns
	decodeInto(t, resp, &filtered)
	require.Len(t, filtered.Data, 1)
	assert.Equal(t, "alpha", filtered.Data[0].TemplateID)
	assert.Equal(t, 5, filtered.Data[0].RequestedCount)
}

func TestListRuns_Empty(t *testing.T) {
	t.Parallel()

	s := newAPIStack(t)
	resp := s.do(t, http.MethodGet, "/v1/runs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page paginatedRuns
	decodeInto(t, resp, &page)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestListRuns_PageTokenOnPartialPage(t *testing.T) {
	t.Parallel()

	s := newAPIStack(t)
	s.runs.ListFn = func(_ context.Context, _ string, page domain.PageRequest) ([]*domain.GenerationRun, int64, error) {
		out := make([]*domain.GenerationRun, page.Limit())
		for i := range out {
			out[i] = &domain.GenerationRun{ID: domain.NewID(), TemplateID: "alpha"}
		}
		return out, 5, nil
	}

	resp := s.do(t, http.MethodGet, "/v1/runs?max_results=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page paginatedRuns
	decodeInto(t, resp, &page)
	assert.Len(t, page.Data, 2)
	require.NotNil(t, page.NextPageToken)
	assert.Equal(t, domain.EncodePageToken(2), *page.NextPageToken)
}

func TestGetRun(t *testing.T) {
	t.Parallel()

	s := newAPIStack(t)
	mustRegister(t, s, campaignTemplate())
	generateOnce(t, s, "campaign_performance", 10)

	want := s.runs.LastRun()
	require.NotNil(t, want)

	resp := s.do(t, http.MethodGet, "/v1/runs/"+want.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run domain.GenerationRun
	decodeInto(t, resp, &run)
	assert.Equal(t, want.ID, run.ID)
	assert.Equal(t, "campaign_performance", run.TemplateID)
	assert.Equal(t, 10, run.Accepted)
	require.NotNil(t, run.Seed)
	assert.Equal(t, int64(11), *run.Seed)
}

func TestGetRun_NotFound(t *testing.T) {
	t.Parallel()

	s := newAPIStack(t)
	resp := s.do(t, http.MethodGet, "/v1/runs/ghost", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var e Error
	decodeInto(t, resp, &e)
	assert.Equal(t, http.StatusNotFound, e.Code)
}
