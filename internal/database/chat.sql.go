package database

import (
	"context"

	"github.com/google/uuid"
)

const createChatMessage = `-- name: CreateChatMessage :one
INSERT INTO chat_messages (id, session_id, query, response)
VALUES ($1, $2, $3, $4)
RETURNING id, session_id, query, response, created_at
`

type CreateChatMessageParams struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Query     string
	Response  string
}

func (q *Queries) CreateChatMessage(ctx context.Context, arg CreateChatMessageParams) (ChatMessage, error) {
	row := q.db.QueryRowContext(ctx, createChatMessage,
		arg.ID,
		arg.SessionID,
		arg.Query,
		arg.Response,
	)
	var i ChatMessage
	err := row.Scan(
		&i.ID,
		&i.SessionID,
		&i.Query,
		&i.Response,
		&i.CreatedAt,
	)
	return i, err
}

const getChatMessagesBySession = `-- name: GetChatMessagesBySession :many
SELECT id, session_id, query, response, created_at FROM chat_messages WHERE session_id=$1 ORDER BY created_at ASC
`

func (q *Queries) GetChatMessagesBySession(ctx context.Context, sessionID uuid.UUID) ([]ChatMessage, error) {
	rows, err := q.db.QueryContext(ctx, getChatMessagesBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ChatMessage
	for rows.Next() {
		var i ChatMessage
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.Query,
			&i.Response,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
