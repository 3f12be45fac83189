package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/featurepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
	"github.com/vncsmyrnk/featurepoll/internal/core/services"
)

var testSecret = []byte("test-secret")

type testApp struct {
	server *httptest.Server
	client *http.Client
}

func setupTestApp(t *testing.T, tally services.TallyConfig) *testApp {
	t.Helper()
	store := memory.NewStore()
	lifecycle := services.NewLifecycleService(store, store, nil, services.LifecycleConfig{
		Tally:                 tally,
		DecisionRetryInterval: time.Millisecond,
	}, nil)
	suggestions := services.NewSuggestionService(store.Suggestions(), store, nil)

	router := NewHandler(
		NewPollHandler(lifecycle, suggestions),
		NewVoteHandler(lifecycle),
		NewSuggestionHandler(suggestions),
		testSecret,
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, client: server.Client()}
}

func signToken(t *testing.T, subject string, staff bool, roles ...string) string {
	t.Helper()
	claims := Claims{
		Name:  subject,
		Staff: staff,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func (app *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, app.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (app *testApp) submit(t *testing.T, author string, internal bool) submitResponse {
	t.Helper()
	resp := app.do(t, http.MethodPost, "/api/suggestions", signToken(t, author, true), map[string]any{
		"artist_name": "Portishead",
		"album_name":  "Dummy",
		"links":       "https://example.com/dummy",
		"internal":    internal,
		"message_id":  "msg-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[submitResponse](t, resp)
}

func TestPollFlowOverHTTP(t *testing.T) {
	app := setupTestApp(t, services.TallyConfig{QuorumPublic: 3})
	created := app.submit(t, "author", false)
	pollPath := "/api/polls/" + created.Poll.ID.String()

	for voter, choice := range map[string]string{"A": "for", "B": "for", "C": "against"} {
		resp := app.do(t, http.MethodPost, pollPath+"/votes", signToken(t, voter, false), voteRequest{Choice: choice})
		require.Equal(t, http.StatusCreated, resp.StatusCode, voter)
	}

	resp := app.do(t, http.MethodGet, pollPath+"/tally", signToken(t, "A", false), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decode[domain.Outcome](t, resp)
	assert.True(t, preview.Approved)

	resp = app.do(t, http.MethodPost, pollPath+"/close", signToken(t, "A", false), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = app.do(t, http.MethodPost, pollPath+"/close", signToken(t, "mod", true, "facilitator"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[ports.CloseResult](t, resp)
	assert.Equal(t, domain.PollStatusDecided, result.Poll.Status)
	assert.Equal(t, domain.VerdictApproved, result.Outcome.Verdict)

	resp = app.do(t, http.MethodPost, pollPath+"/votes", signToken(t, "D", false), voteRequest{Choice: "for"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/suggestions/next", signToken(t, "anyone", false), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next := decode[domain.Suggestion](t, resp)
	assert.Equal(t, created.Suggestion.ID, next.ID)
	assert.True(t, next.Approved)
}

func TestVoteRequiresToken(t *testing.T) {
	app := setupTestApp(t, services.TallyConfig{})
	created := app.submit(t, "author", false)
	path := "/api/polls/" + created.Poll.ID.String() + "/votes"

	resp := app.do(t, http.MethodPost, path, "", voteRequest{Choice: "for"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = app.do(t, http.MethodPost, path, "not-a-token", voteRequest{Choice: "for"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVoteErrorsMapToStatus(t *testing.T) {
	app := setupTestApp(t, services.TallyConfig{})
	public := app.submit(t, "author", false)
	internal := app.submit(t, "author", true)

	tests := []struct {
		name   string
		path   string
		token  string
		choice string
		status int
	}{
		{"self vote", "/api/polls/" + public.Poll.ID.String() + "/votes", signToken(t, "author", false), "for", http.StatusForbidden},
		{"non staff on internal poll", "/api/polls/" + internal.Poll.ID.String() + "/votes", signToken(t, "guest", false), "for", http.StatusForbidden},
		{"bad choice", "/api/polls/" + public.Poll.ID.String() + "/votes", signToken(t, "A", false), "maybe", http.StatusBadRequest},
		{"bad poll id", "/api/polls/nope/votes", signToken(t, "A", false), "for", http.StatusBadRequest},
		{"unknown poll", "/api/polls/00000000-0000-0000-0000-000000000001/votes", signToken(t, "A", false), "for", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := app.do(t, http.MethodPost, tt.path, tt.token, voteRequest{Choice: tt.choice})
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRetractVoteOverHTTP(t *testing.T) {
	app := setupTestApp(t, services.TallyConfig{})
	created := app.submit(t, "author", false)
	path := "/api/polls/" + created.Poll.ID.String() + "/votes"
	token := signToken(t, "A", false)

	resp := app.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = app.do(t, http.MethodPost, path, token, voteRequest{Choice: "against"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = app.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	poll := decode[domain.Poll](t, resp)
	assert.Empty(t, poll.Votes)
}

func TestCancelOverHTTP(t *testing.T) {
	app := setupTestApp(t, services.TallyConfig{})
	created := app.submit(t, "author", false)
	path := "/api/polls/" + created.Poll.ID.String() + "/cancel"

	resp := app.do(t, http.MethodPost, path, signToken(t, "someone", false), cancelRequest{Reason: "revoked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = app.do(t, http.MethodPost, path, signToken(t, "someone", false), cancelRequest{Reason: "vetoed"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = app.do(t, http.MethodPost, path, signToken(t, "author", false), cancelRequest{Reason: "later"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = app.do(t, http.MethodPost, path, signToken(t, "mod", false, "facilitator"), cancelRequest{Reason: "vetoed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	poll := decode[domain.Poll](t, resp)
	assert.Equal(t, domain.PollStatusCancelled, poll.Status)
	assert.Equal(t, domain.CancelReasonVetoed, poll.CancelReason)

	resp = app.do(t, http.MethodPost, "/api/polls/"+created.Poll.ID.String()+"/archive", signToken(t, "mod", false, "facilitator"), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSubmitInternalRequiresStaff(t *testing.T) {
	app := setupTestApp(t, services.TallyConfig{})

	resp := app.do(t, http.MethodPost, "/api/suggestions", signToken(t, "guest", false), map[string]any{
		"artist_name": "Portishead",
		"album_name":  "Dummy",
		"links":       "https://example.com/dummy",
		"internal":    true,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = app.do(t, http.MethodPost, "/api/suggestions", signToken(t, "guest", false), map[string]any{
		"artist_name": "Portishead",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadEndpoints(t *testing.T) {
	app := setupTestApp(t, services.TallyConfig{})
	created := app.submit(t, "author", true)
	staff := signToken(t, "staffer", true)

	resp := app.do(t, http.MethodGet, "/api/polls/"+created.Poll.ID.String(), staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	poll := decode[domain.Poll](t, resp)
	assert.Equal(t, domain.PollStatusOpen, poll.Status)

	resp = app.do(t, http.MethodGet, "/api/polls/"+created.Poll.ID.String()+"/suggestion", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	suggestion := decode[domain.Suggestion](t, resp)
	assert.Equal(t, created.Suggestion.ID, suggestion.ID)

	resp = app.do(t, http.MethodGet, "/api/suggestions/"+created.Suggestion.ID.String(), staff, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/polls/"+created.Poll.ID.String()+"/tally", staff, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/suggestions/next?internal=true", signToken(t, "guest", false), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/suggestions/next?internal=true", staff, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInternalReadsNeedStaff(t *testing.T) {
	app := setupTestApp(t, services.TallyConfig{})
	internal := app.submit(t, "author", true)
	public := app.submit(t, "author", false)
	guest := signToken(t, "guest", false)

	paths := []string{
		"/api/polls/" + internal.Poll.ID.String(),
		"/api/polls/" + internal.Poll.ID.String() + "/suggestion",
		"/api/polls/" + internal.Poll.ID.String() + "/tally",
		"/api/suggestions/" + internal.Suggestion.ID.String(),
	}
	for _, path := range paths {
		resp := app.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)

		resp = app.do(t, http.MethodGet, path, guest, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}

	resp := app.do(t, http.MethodGet, "/api/polls/"+public.Poll.ID.String(), guest, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/suggestions/"+public.Suggestion.ID.String(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
