package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const createOrUpdateAnalysesResults = `-- name: CreateOrUpdateAnalysesResults :exec
INSERT INTO analyses_results (
results, sections, job_description, session_id)
VALUES ( $1, $2, $3, $4)
ON CONFLICT (session_id)
DO UPDATE SET
    results = EXCLUDED.results,
    sections = EXCLUDED.sections,
    job_description = EXCLUDED.job_description,
    updated_at = CURRENT_TIMESTAMP
`

type CreateOrUpdateAnalysesResultsParams struct {
	Results        json.RawMessage
	Sections       json.RawMessage
	JobDescription string
	SessionID      uuid.UUID
}

func (q *Queries) CreateOrUpdateAnalysesResults(ctx context.Context, arg CreateOrUpdateAnalysesResultsParams) error {
	_, err := q.db.ExecContext(ctx, createOrUpdateAnalysesResults,
		arg.Results,
		arg.Sections,
		arg.JobDescription,
		arg.SessionID,
	)
	return err
}

const getAnalysesResultsBySession = `-- name: GetAnalysesResultsBySession :one
SELECT id, results, sections, job_description, created_at, updated_at, session_id FROM analyses_results WHERE session_id=$1
`

func (q *Queries) GetAnalysesResultsBySession(ctx context.Context, sessionID uuid.UUID) (AnalysesResult, error) {
	row := q.db.QueryRowContext(ctx, getAnalysesResultsBySession, sessionID)
	var i AnalysesResult
	err := row.Scan(
		&i.ID,
		&i.Results,
		&i.Sections,
		&i.JobDescription,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.SessionID,
	)
	return i, err
}
