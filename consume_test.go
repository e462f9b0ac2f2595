package main

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerzync/internal/database"
	"github.com/muhammadolammi/careerzync/internal/storage"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queuedSession seeds a pending session with an uploaded resume.
func queuedSession(t *testing.T, ta *testApp) Session {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	sess, err := ta.store.CreateSession(ctx, database.CreateSessionParams{
		ID:           id,
		Name:         "jane.txt",
		Status:       StatusPending,
		JobTitle:     "Data Engineer",
		AssumedScore: 70,
	})
	require.NoError(t, err)
	key := storage.ResumeKey(id.String(), "jane.txt")
	require.NoError(t, ta.objects.Put(ctx, key, "text/plain", []byte(sampleResume)))
	_, err = ta.store.CreateResume(ctx, database.CreateResumeParams{
		ID:        uuid.New(),
		Mime:      "text/plain",
		ObjectKey: key,
		SessionID: id,
	})
	require.NoError(t, err)
	return sessionFromDB(sess)
}

func TestHandleMessageCompletes(t *testing.T) {
	ta := newTestApp()
	s := queuedSession(t, ta)

	ta.handleMessage(context.Background(), 1, mustJSON(t, s))

	assert.Equal(t, []string{StatusProcessing, StatusCompleted}, ta.store.statuses)
	assert.Equal(t, []string{StatusProcessing, StatusCompleted}, ta.broker.statuses())
	assert.Equal(t, StatusCompleted, ta.store.sessions[s.ID].Status)

	assert.Equal(t, "Data Engineer", ta.runner.got.JobTitle)
	assert.Equal(t, "text/plain", ta.runner.got.ResumeMime)
	assert.Equal(t, sampleResume, string(ta.runner.got.Resume))

	stored := ta.store.results[s.ID]
	assert.JSONEq(t, `{
		"ats_compatibility_score": 68,
		"skills": ["Go"],
		"keywords": ["distributed systems"],
		"trending_skills": null,
		"trending_keywords": null,
		"suggestions": null
	}`, string(stored.Results))
	assert.Contains(t, ta.objects.objects, storage.IndexKey(s.ID.String()))
}

func TestHandleMessageRetriesDownload(t *testing.T) {
	ta := newTestApp()
	s := queuedSession(t, ta)
	ta.objects.getErrs = 2

	ta.handleMessage(context.Background(), 1, mustJSON(t, s))
	assert.Equal(t, StatusCompleted, ta.store.sessions[s.ID].Status)
}

func TestHandleMessageFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(ta *testApp, s Session)
	}{
		{"pipeline error", func(ta *testApp, _ Session) {
			ta.runner.err = errors.New("ats analysis: model returned invalid JSON")
		}},
		{"no resume", func(ta *testApp, s Session) {
			delete(ta.store.resumes, s.ID)
		}},
		{"resume missing from storage", func(ta *testApp, s Session) {
			delete(ta.objects.objects, storage.ResumeKey(s.ID.String(), "jane.txt"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp()
			s := queuedSession(t, ta)
			tt.setup(ta, s)

			ta.handleMessage(context.Background(), 2, mustJSON(t, s))

			assert.Equal(t, []string{StatusProcessing, StatusFailed}, ta.broker.statuses())
			assert.Equal(t, StatusFailed, ta.store.sessions[s.ID].Status)
			assert.NotContains(t, ta.store.results, s.ID)
		})
	}
}

func TestHandleMessageDropsBadBody(t *testing.T) {
	ta := newTestApp()
	ta.handleMessage(context.Background(), 1, []byte("{not json"))

	assert.Empty(t, ta.store.statuses)
	assert.Empty(t, ta.broker.updates)
}

func TestProcessSessionSaveFailure(t *testing.T) {
	ta := newTestApp()
	s := queuedSession(t, ta)
	ta.store.failOn = "CreateOrUpdateAnalysesResults"

	err := ta.processSession(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStore)
	assert.NotContains(t, ta.objects.objects, storage.IndexKey(s.ID.String()))
}

func TestHandleMessageRequeuesOnShutdown(t *testing.T) {
	ta := newTestApp()
	s := queuedSession(t, ta)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ta.runner.during = cancel

	requeue := ta.handleMessage(ctx, 1, mustJSON(t, s))

	assert.True(t, requeue)
	assert.Equal(t, StatusPending, ta.store.sessions[s.ID].Status)
	assert.Equal(t, []string{StatusProcessing, StatusPending}, ta.broker.statuses())
	assert.NotContains(t, ta.store.results, s.ID)
}

func TestHandleMessageFailureIsNotRequeued(t *testing.T) {
	ta := newTestApp()
	s := queuedSession(t, ta)
	ta.runner.err = errors.New("index build: embedding call failed")

	assert.False(t, ta.handleMessage(context.Background(), 1, mustJSON(t, s)))
	assert.False(t, ta.handleMessage(context.Background(), 1, []byte("{not json")))
}

type recordingAcknowledger struct {
	acked, nacked, requeued bool
}

func (a *recordingAcknowledger) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *recordingAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func (a *recordingAcknowledger) Reject(uint64, bool) error { return nil }

func TestSettle(t *testing.T) {
	done := &recordingAcknowledger{}
	require.NoError(t, settle(amqp.Delivery{Acknowledger: done, DeliveryTag: 1}, false))
	assert.True(t, done.acked)
	assert.False(t, done.nacked)

	interrupted := &recordingAcknowledger{}
	require.NoError(t, settle(amqp.Delivery{Acknowledger: interrupted, DeliveryTag: 2}, true))
	assert.False(t, interrupted.acked)
	assert.True(t, interrupted.nacked)
	assert.True(t, interrupted.requeued)
}
