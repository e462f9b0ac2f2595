package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AnalysesResult struct {
	ID             uuid.UUID
	Results        json.RawMessage
	Sections       json.RawMessage
	JobDescription string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	SessionID      uuid.UUID
}

type ChatMessage struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Query     string
	Response  string
	CreatedAt time.Time
}

type Resume struct {
	ID               uuid.UUID
	OriginalFilename string
	Mime             string
	SizeBytes        int64
	StorageProvider  string
	ObjectKey        string
	StorageUrl       string
	UploadStatus     string
	CreatedAt        time.Time
	SessionID        uuid.UUID
}

type Session struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Name           string
	Status         string
	JobTitle       string
	JobDescription string
	AssumedScore   float64
}
