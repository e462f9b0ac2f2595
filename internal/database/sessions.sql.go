package database

import (
	"context"

	"github.com/google/uuid"
)

const createSession = `-- name: CreateSession :one
INSERT INTO sessions (id, name, status, job_title, job_description, assumed_score)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, name, status, job_title, job_description, assumed_score
`

type CreateSessionParams struct {
	ID             uuid.UUID
	Name           string
	Status         string
	JobTitle       string
	JobDescription string
	AssumedScore   float64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRowContext(ctx, createSession,
		arg.ID,
		arg.Name,
		arg.Status,
		arg.JobTitle,
		arg.JobDescription,
		arg.AssumedScore,
	)
	var i Session
	err := row.Scan(
		&i.ID,
		&i.CreatedAt,
		&i.Name,
		&i.Status,
		&i.JobTitle,
		&i.JobDescription,
		&i.AssumedScore,
	)
	return i, err
}

const getSession = `-- name: GetSession :one
SELECT id, created_at, name, status, job_title, job_description, assumed_score FROM sessions WHERE id=$1
`

func (q *Queries) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession, id)
	var i Session
	err := row.Scan(
		&i.ID,
		&i.CreatedAt,
		&i.Name,
		&i.Status,
		&i.JobTitle,
		&i.JobDescription,
		&i.AssumedScore,
	)
	return i, err
}

const updateSessionStatus = `-- name: UpdateSessionStatus :exec
UPDATE sessions 
SET status=$1
WHERE id=$2
`

type UpdateSessionStatusParams struct {
	Status string
	ID     uuid.UUID
}

func (q *Queries) UpdateSessionStatus(ctx context.Context, arg UpdateSessionStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateSessionStatus, arg.Status, arg.ID)
	return err
}
