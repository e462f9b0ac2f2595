package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/muhammadolammi/careerzync/internal/advisor"
	"github.com/muhammadolammi/careerzync/internal/database"
	"github.com/muhammadolammi/careerzync/internal/retry"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

const statusWriteTimeout = 10 * time.Second

var statusMessages = map[string]string{
	StatusPending:    "analysis requeued",
	StatusProcessing: "analysis started",
	StatusCompleted:  "analysis completed",
	StatusFailed:     "analysis failed",
}

// setStatus records a session status and fans it out to session_updates.
// The write outlives ctx so a shutting-down worker still settles the session.
func (app *App) setStatus(ctx context.Context, s Session, status string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()

	err := app.DB.UpdateSessionStatus(ctx, database.UpdateSessionStatusParams{
		Status: status,
		ID:     s.ID,
	})
	if err != nil {
		app.Logger.ErrorContext(ctx, "failed to update session status", "session_id", s.ID, "status", status, "err", err)
	}

	update := map[string]any{
		"session_id": s.ID,
		"status":     status,
		"message":    statusMessages[status],
		"timestamp":  time.Now(),
	}
	if err := app.Broker.PublishSessionUpdate(ctx, s.ID.String(), update); err != nil {
		app.Logger.WarnContext(ctx, "failed to publish update", "session_id", s.ID, "err", err)
	}
}

// processSession downloads the session's resume, runs the pipeline and stores
// the results and the chat index.
func (app *App) processSession(ctx context.Context, s Session) error {
	resumes, err := app.DB.GetResumesBySession(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("error getting resumes for session: %v, err: %w", s.ID, err)
	}
	if len(resumes) == 0 {
		return fmt.Errorf("no resume uploaded for session %v", s.ID)
	}
	// one resume per analysis; the latest upload wins
	latest := resumes[len(resumes)-1]

	fileBytes, err := retry.Do(ctx, 3, 500*time.Millisecond, func() ([]byte, error) {
		return app.Objects.Get(ctx, latest.ObjectKey)
	})
	if err != nil {
		return fmt.Errorf("file download error: %w", err)
	}

	outcome, err := app.Pipeline.Run(ctx, advisor.Input{
		ResumeMime:     latest.Mime,
		Resume:         fileBytes,
		JobTitle:       s.JobTitle,
		JobDescription: s.JobDescription,
	})
	if err != nil {
		return err
	}

	resultsJSON, err := json.Marshal(outcome.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal analyses results: %w", err)
	}
	sectionsJSON, err := json.Marshal(outcome.Sections)
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}

	_, err = retry.Do(ctx, 3, 500*time.Millisecond, func() (any, error) {
		return nil, app.DB.CreateOrUpdateAnalysesResults(ctx, database.CreateOrUpdateAnalysesResultsParams{
			Results:        resultsJSON,
			Sections:       sectionsJSON,
			JobDescription: outcome.JobDescription,
			SessionID:      s.ID,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save analysis result after retries: %w", err)
	}

	if err := app.Indexes.Put(ctx, s.ID, outcome.Index); err != nil {
		return err
	}
	app.Logger.InfoContext(ctx, "session analyzed",
		"session_id", s.ID,
		"score", outcome.Result.Score,
		"documents", outcome.Index.Len(),
	)
	return nil
}

// handleMessage runs one queue delivery to completion and reports whether the
// delivery should go back on the queue. A body that cannot be decoded is dropped.
// A session interrupted by shutdown returns to pending and is requeued.
func (app *App) handleMessage(ctx context.Context, workerID int, body []byte) (requeue bool) {
	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		app.Logger.ErrorContext(ctx, "error unmarshalling message body", "worker", workerID, "err", err)
		return false
	}

	app.Logger.InfoContext(ctx, "processing session", "worker", workerID, "session_id", s.ID)
	app.setStatus(ctx, s, StatusProcessing)

	err := app.processSession(ctx, s)
	switch {
	case err == nil:
		app.setStatus(ctx, s, StatusCompleted)
		return false
	case ctx.Err() != nil:
		app.Logger.WarnContext(ctx, "analysis interrupted, requeueing", "session_id", s.ID, "err", err)
		app.setStatus(ctx, s, StatusPending)
		return true
	default:
		app.Logger.ErrorContext(ctx, "error analyzing session", "session_id", s.ID, "err", err)
		app.setStatus(ctx, s, StatusFailed)
		return false
	}
}

// settle acks a finished delivery or hands it back to the broker.
func settle(d amqp.Delivery, requeue bool) error {
	if requeue {
		return d.Nack(false, true)
	}
	return d.Ack(false)
}

func (app *App) worker(ctx context.Context, id int) error {
	conn, err := amqp.Dial(app.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		sessionsQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := ch.Consume(
		sessionsQueue,
		fmt.Sprintf("careerzync-worker-%d", id),
		false, // manual ack once the session is settled
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("error consuming rabbitmq message: %w", err)
	}

	app.Logger.Info("worker started", "worker", id)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			requeue := app.handleMessage(ctx, id, msg.Body)
			if err := settle(msg, requeue); err != nil {
				app.Logger.Warn("failed to settle message", "worker", id, "requeue", requeue, "err", err)
			}
		}
	}
}

// StartConsumerWorkerPool blocks until ctx is cancelled or a worker fails.
func (app *App) StartConsumerWorkerPool(ctx context.Context, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := range numWorkers {
		g.Go(func() error {
			return app.worker(ctx, i+1)
		})
	}
	return g.Wait()
}
