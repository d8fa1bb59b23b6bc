package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/uninspired/inspire-wall/backend/internal/config"
	"github.com/uninspired/inspire-wall/backend/internal/metrics"
	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

const maxThreadRecords = 125

// Airtable talks to the record store's REST API. Every request waits on a
// shared limiter so bursts of reaction clicks stay within the API quota.
type Airtable struct {
	cfg     config.GatewayConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu        sync.RWMutex
	recordIDs map[string]string
}

// NewAirtable builds a client from the gateway configuration.
func NewAirtable(cfg config.GatewayConfig, logger *zap.Logger, m *metrics.Metrics) *Airtable {
	if logger == nil {
		logger = zap.NewNop()
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Airtable{
		cfg:       cfg,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		logger:    logger.Named("airtable"),
		metrics:   m,
		now:       time.Now,
		recordIDs: make(map[string]string),
	}
}

func (a *Airtable) CurrentDrop(ctx context.Context) (*thread.Drop, error) {
	q := url.Values{}
	q.Set("filterByFormula", "{drop_status}='live'")
	q.Set("maxRecords", "1")

	var resp listResponse
	if err := a.do(ctx, OpCurrentDrop, http.MethodGet, a.tableURL(a.cfg.DropsTable, "", q), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Records) == 0 {
		return nil, nil
	}
	drop := dropFromRecord(resp.Records[0])
	return &drop, nil
}

func (a *Airtable) Threads(ctx context.Context, dropID string) ([]thread.Thread, error) {
	q := url.Values{}
	q.Set("filterByFormula", fmt.Sprintf("AND({drop_id}='%s',{wall_status}='Accepted')", escapeFormula(dropID)))
	q.Set("maxRecords", fmt.Sprint(maxThreadRecords))
	q.Set("sort[0][field]", "upvote_count")
	q.Set("sort[0][direction]", "desc")

	var resp listResponse
	if err := a.do(ctx, OpThreads, http.MethodGet, a.tableURL(a.cfg.ThreadsTable, "", q), nil, &resp); err != nil {
		return nil, err
	}

	threads := make([]thread.Thread, 0, len(resp.Records))
	ids := make(map[string]string, len(resp.Records))
	for i, rec := range resp.Records {
		t, ok := threadFromRecord(rec, i)
		if !ok {
			a.logger.Debug("skip record without text", zap.String("record", rec.ID))
			continue
		}
		ids[t.ID] = rec.ID
		threads = append(threads, t)
	}

	a.mu.Lock()
	for k, v := range ids {
		a.recordIDs[k] = v
	}
	a.mu.Unlock()

	return threads, nil
}

func (a *Airtable) SubmitThread(ctx context.Context, sub Submission) (SubmitResult, error) {
	name := strings.TrimSpace(sub.Name)
	if name == "" {
		name = "Anonymous"
	}
	dropID := sub.DropID
	if dropID == "" {
		dropID = thread.DefaultDrop().ID
	}
	zero, err := json.Marshal(thread.Reactions{})
	if err != nil {
		return SubmitResult{}, err
	}

	body := map[string]any{
		"fields": map[string]any{
			"text_snippet":   sub.Message,
			"emotion_tag":    string(sub.Emotion),
			"drop_id":        dropID,
			"wall_status":    "Pending",
			"email_for_drop": sub.Email,
			"optional_name":  name,
			"upvote_count":   0,
			"reactions":      string(zero),
			"timestamp":      a.now().UTC().Format(time.RFC3339),
		},
	}

	var created record
	if err := a.do(ctx, OpSubmit, http.MethodPost, a.tableURL(a.cfg.ThreadsTable, "", nil), body, &created); err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{ThreadID: created.ID}, nil
}

// UpdateReactions reads the stored counts, increments kind and writes the
// whole field back. The store offers no atomic increment, so two concurrent
// clicks on the same thread can lose one count; the next reload shows it.
func (a *Airtable) UpdateReactions(ctx context.Context, threadID string, kind thread.ReactionKind) error {
	recordID := a.resolveRecordID(threadID)

	var current record
	if err := a.do(ctx, OpUpdateReactions, http.MethodGet, a.tableURL(a.cfg.ThreadsTable, recordID, nil), nil, &current); err != nil {
		return err
	}

	reactions := reactionsField(current.Fields, "reactions")
	reactions[kind] = reactions.Get(kind) + 1
	encoded, err := json.Marshal(reactions)
	if err != nil {
		return err
	}

	body := map[string]any{
		"fields": map[string]any{"reactions": string(encoded)},
	}
	return a.do(ctx, OpUpdateReactions, http.MethodPatch, a.tableURL(a.cfg.ThreadsTable, recordID, nil), body, nil)
}

func (a *Airtable) resolveRecordID(threadID string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id, ok := a.recordIDs[threadID]; ok {
		return id
	}
	return threadID
}

func (a *Airtable) tableURL(table, recordID string, q url.Values) string {
	u := strings.TrimRight(a.cfg.BaseURL, "/") + "/" + url.PathEscape(a.cfg.BaseID) + "/" + url.PathEscape(table)
	if recordID != "" {
		u += "/" + url.PathEscape(recordID)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (a *Airtable) do(ctx context.Context, op, method, target string, body, out any) (err error) {
	defer func() { a.metrics.ObserveGateway(op, err) }()

	if err := a.limiter.Wait(ctx); err != nil {
		return &GatewayError{Op: op, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &GatewayError{Op: op, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := a.now()
	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
		return &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	a.logger.Debug("request done",
		zap.String("op", op),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", a.now().Sub(started)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		cause := fmt.Errorf("%s", strings.TrimSpace(string(snippet)))
		if resp.StatusCode == http.StatusNotFound {
			cause = ErrNotFound
		}
		return &GatewayError{Op: op, Status: resp.StatusCode, Err: cause}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &GatewayError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func escapeFormula(v string) string {
	return strings.ReplaceAll(v, "'", "\\'")
}
