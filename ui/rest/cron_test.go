package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainDispatch "github.com/twitboost/twitboost-api/domains/dispatch"
	"github.com/twitboost/twitboost-api/pkg/runlog"
	"github.com/twitboost/twitboost-api/ui/rest/middleware"
)

type stubDispatcher struct {
	runCalls int
	summary  domainDispatch.RunSummary
	runErr   error
	outcome  domainDispatch.TweetOutcome
	postErr  error
}

func (s *stubDispatcher) Run(_ context.Context) (domainDispatch.RunSummary, error) {
	s.runCalls++
	return s.summary, s.runErr
}

func (s *stubDispatcher) PostNow(_ context.Context, _ string) (domainDispatch.TweetOutcome, error) {
	return s.outcome, s.postErr
}

func newCronApp(dispatcher *stubDispatcher, runLog *runlog.Log, secret string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/cron", middleware.CronAuth(secret))
	InitRestCron(group, dispatcher, runLog)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestCronTrigger_RejectsMissingBearer(t *testing.T) {
	dispatcher := &stubDispatcher{}
	app := newCronApp(dispatcher, runlog.New(100), "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/trigger", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unauthorized", body["error"])
	assert.Zero(t, dispatcher.runCalls, "a rejected trigger must not run a dispatch")
}

func TestCronTrigger_RejectsWrongSecret(t *testing.T) {
	dispatcher := &stubDispatcher{}
	log := runlog.New(100)
	app := newCronApp(dispatcher, log, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/trigger", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, dispatcher.runCalls)
	assert.Zero(t, log.Len(), "no run entry for a rejected request")
}

func TestCronTrigger_RejectsNonBearerScheme(t *testing.T) {
	dispatcher := &stubDispatcher{}
	app := newCronApp(dispatcher, runlog.New(100), "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/trigger", nil)
	req.Header.Set("Authorization", "Basic s3cret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCronTrigger_UnconfiguredSecretIsUnavailable(t *testing.T) {
	dispatcher := &stubDispatcher{}
	app := newCronApp(dispatcher, runlog.New(100), "")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/trigger", nil)
	req.Header.Set("Authorization", "Bearer anything")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Zero(t, dispatcher.runCalls)
}

func TestCronTrigger_ReturnsRunSummary(t *testing.T) {
	dispatcher := &stubDispatcher{
		summary: domainDispatch.RunSummary{
			RunID:     "run-abc",
			Timestamp: time.Now().UTC(),
			Processed: 3,
			Posted:    2,
			Failed:    1,
			Results: []domainDispatch.TweetOutcome{
				{TweetID: "t1", Status: domainDispatch.OutcomePosted, TwitterID: "111"},
				{TweetID: "t2", Status: domainDispatch.OutcomePosted, TwitterID: "222"},
				{TweetID: "t3", Status: domainDispatch.OutcomeFailed, Detail: "missing access token"},
			},
		},
	}
	app := newCronApp(dispatcher, runlog.New(100), "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/trigger", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, dispatcher.runCalls)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "run-abc", body["runId"])
	assert.Equal(t, float64(3), body["processed"])
	assert.Equal(t, float64(2), body["posted"])
	assert.Equal(t, float64(1), body["failed"])
	assert.Equal(t, float64(0), body["skipped"])

	results, ok := body["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 3)
	first := results[0].(map[string]any)
	assert.Equal(t, "t1", first["tweetId"])
	assert.Equal(t, "111", first["twitterId"])
}

func TestCronTrigger_RunErrorIs500(t *testing.T) {
	dispatcher := &stubDispatcher{
		summary: domainDispatch.RunSummary{Error: "failed to select due tweets: primary unavailable"},
		runErr:  errors.New("primary unavailable"),
	}
	app := newCronApp(dispatcher, runlog.New(100), "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/trigger", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["details"], "primary unavailable")
}

func TestCronLogs_PaginatesNewestFirst(t *testing.T) {
	log := runlog.New(100)
	for i := 1; i <= 5; i++ {
		log.Record(domainDispatch.RunSummary{RunID: fmt.Sprintf("run-%d", i)})
	}
	app := newCronApp(&stubDispatcher{}, log, "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/api/cron/logs?limit=2&offset=1", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(5), body["total"])
	assert.Equal(t, float64(2), body["limit"])
	assert.Equal(t, float64(1), body["offset"])

	logs, ok := body["logs"].([]any)
	require.True(t, ok)
	require.Len(t, logs, 2)
	assert.Equal(t, "run-4", logs[0].(map[string]any)["runId"])
	assert.Equal(t, "run-3", logs[1].(map[string]any)["runId"])
}

func TestCronLogs_RequiresAuth(t *testing.T) {
	app := newCronApp(&stubDispatcher{}, runlog.New(100), "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/api/cron/logs", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
