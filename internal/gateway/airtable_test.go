package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uninspired/inspire-wall/backend/internal/config"
	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

func newTestAirtable(t *testing.T, h http.HandlerFunc) *Airtable {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	a := NewAirtable(config.GatewayConfig{
		BaseID:       "appTest",
		APIKey:       "patSecret",
		BaseURL:      srv.URL,
		ThreadsTable: "Threads",
		DropsTable:   "Drops",
		RPS:          100,
		Timeout:      2 * time.Second,
	}, nil, nil)
	a.now = func() time.Time { return time.Date(2025, time.May, 24, 9, 0, 0, 0, time.UTC) }
	return a
}

func TestAirtableThreadsQueryAndNormalize(t *testing.T) {
	a := newTestAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appTest/Threads", r.URL.Path)
		assert.Equal(t, "Bearer patSecret", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "AND({drop_id}='drop_003',{wall_status}='Accepted')", q.Get("filterByFormula"))
		assert.Equal(t, "125", q.Get("maxRecords"))
		assert.Equal(t, "upvote_count", q.Get("sort[0][field]"))
		assert.Equal(t, "desc", q.Get("sort[0][direction]"))

		_, _ = io.WriteString(w, `{"records":[
			{"id":"recA","createdTime":"2025-05-23T10:30:00.000Z","fields":{
				"submission_id":"sub-1","text_snippet":"Finally breathing again",
				"emotion_tag":"relief","reactions":"{\"heart\":4,\"fire\":1}","optional_name":"Mo"}},
			{"id":"recB","createdTime":"2025-05-22T08:00:00.000Z","fields":{
				"message":"Legacy field names still work","emotion":"GRIEF",
				"reactions":{"sparkles":2},"thread_number":42,"created_at":"2025-05-21T00:00:00Z"}},
			{"id":"recC","fields":{"text_snippet":"   "}}
		]}`)
	})

	threads, err := a.Threads(context.Background(), "drop_003")
	require.NoError(t, err)
	require.Len(t, threads, 2)

	first := threads[0]
	assert.Equal(t, "sub-1", first.ID)
	assert.Equal(t, thread.Relief, first.Emotion)
	assert.Equal(t, 1, first.ThreadNumber)
	assert.Equal(t, 4, first.Reactions.Get(thread.Heart))
	assert.Equal(t, 0, first.Reactions.Get(thread.Sad))
	assert.Equal(t, "Mo", first.Name)
	assert.Equal(t, time.Date(2025, time.May, 23, 10, 30, 0, 0, time.UTC), first.CreatedAt)

	second := threads[1]
	assert.Equal(t, "recB", second.ID)
	assert.Equal(t, thread.Grief, second.Emotion)
	assert.Equal(t, 42, second.ThreadNumber)
	assert.Equal(t, 2, second.Reactions.Get(thread.Sparkles))
	assert.Equal(t, "Anonymous", second.Name)
	assert.Equal(t, time.Date(2025, time.May, 21, 0, 0, 0, 0, time.UTC), second.CreatedAt)
}

func TestAirtableCurrentDrop(t *testing.T) {
	a := newTestAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appTest/Drops", r.URL.Path)
		assert.Equal(t, "{drop_status}='live'", r.URL.Query().Get("filterByFormula"))
		_, _ = io.WriteString(w, `{"records":[{"id":"recD","fields":{
			"drop_id":"drop_004","theme":"Soft Power","drop_status":"live",
			"launch_date":"2025-06-01","est_close_date":"2025-06-07"}}]}`)
	})

	drop, err := a.CurrentDrop(context.Background())
	require.NoError(t, err)
	require.NotNil(t, drop)
	assert.Equal(t, "drop_004", drop.ID)
	assert.Equal(t, "Soft Power", drop.Title)
	assert.Equal(t, thread.DefaultDrop().Summary, drop.Summary)
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), drop.LaunchAt)
	assert.Equal(t, time.Date(2025, time.June, 7, 23, 59, 59, 0, time.UTC), drop.CloseAt)
}

func TestAirtableCurrentDropWithoutDropID(t *testing.T) {
	a := newTestAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"records":[{"id":"recAbc123","fields":{"theme":"Untitled","drop_status":"live"}}]}`)
	})

	drop, err := a.CurrentDrop(context.Background())
	require.NoError(t, err)
	require.NotNil(t, drop)
	assert.Equal(t, thread.DefaultDrop().ID, drop.ID)
	assert.Equal(t, "Untitled", drop.Title)
}

func TestAirtableCurrentDropNoneLive(t *testing.T) {
	a := newTestAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"records":[]}`)
	})

	drop, err := a.CurrentDrop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, drop)
}

func TestAirtableErrorStatusBecomesGatewayError(t *testing.T) {
	a := newTestAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"INVALID_PERMISSIONS"}`, http.StatusForbidden)
	})

	_, err := a.Threads(context.Background(), "drop_003")
	require.Error(t, err)

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, OpThreads, gwErr.Op)
	assert.Equal(t, http.StatusForbidden, gwErr.Status)
	assert.True(t, IsGatewayError(err))
}

func TestAirtableSubmitThread(t *testing.T) {
	var got map[string]map[string]any
	a := newTestAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id":"recNew","fields":{}}`)
	})

	res, err := a.SubmitThread(context.Background(), Submission{
		Message: "I finally said no",
		Emotion: thread.Empowerment,
		DropID:  "drop_003",
	})
	require.NoError(t, err)
	assert.Equal(t, "recNew", res.ThreadID)

	fields := got["fields"]
	assert.Equal(t, "I finally said no", fields["text_snippet"])
	assert.Equal(t, "empowerment", fields["emotion_tag"])
	assert.Equal(t, "Pending", fields["wall_status"])
	assert.Equal(t, "Anonymous", fields["optional_name"])
	assert.Equal(t, "2025-05-24T09:00:00Z", fields["timestamp"])
	assert.JSONEq(t, `{"heart":0,"fire":0,"sparkles":0,"sad":0,"rage":0}`, fields["reactions"].(string))
}

func TestAirtableUpdateReactionsReadsThenPatches(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
		patched map[string]map[string]string
	)
	a := newTestAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		methods = append(methods, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"id":"recA","fields":{"reactions":"{\"heart\":3}"}}`)
		case http.MethodPatch:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			_, _ = io.WriteString(w, `{"id":"recA","fields":{}}`)
		}
	})
	a.recordIDs["sub-1"] = "recA"

	require.NoError(t, a.UpdateReactions(context.Background(), "sub-1", thread.Heart))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"GET /appTest/Threads/recA", "PATCH /appTest/Threads/recA"}, methods)
	assert.JSONEq(t, `{"heart":4,"fire":0,"sparkles":0,"sad":0,"rage":0}`, patched["fields"]["reactions"])
}

func TestAirtableUpdateReactionsNotFound(t *testing.T) {
	a := newTestAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	err := a.UpdateReactions(context.Background(), "recMissing", thread.Fire)
	assert.ErrorIs(t, err, ErrNotFound)
}
