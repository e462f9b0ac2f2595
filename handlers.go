package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/muhammadolammi/careerzync/internal/apierror"
	"github.com/muhammadolammi/careerzync/internal/ats"
	"github.com/muhammadolammi/careerzync/internal/chat"
	"github.com/muhammadolammi/careerzync/internal/database"
	"github.com/muhammadolammi/careerzync/internal/resume"
	"github.com/muhammadolammi/careerzync/internal/storage"
)

func supportedMime(mime string) bool {
	switch mime {
	case resume.MimePDF, resume.MimeDocx, resume.MimeText:
		return true
	}
	return false
}

func (app *App) handleCreateAnalysis(c *gin.Context) {
	ctx := c.Request.Context()

	fh, err := c.FormFile("resume")
	if err != nil {
		respondWithError(c, apierror.ErrBadRequest("resume file is required"))
		return
	}
	if fh.Size > maxUploadBytes {
		respondWithError(c, apierror.ErrBadRequest("resume file is larger than 10MB"))
		return
	}
	title := strings.TrimSpace(c.PostForm("job_title"))
	if title == "" {
		respondWithError(c, apierror.ErrBadRequest("job_title is required"))
		return
	}
	assumed := ats.DefaultAssumedScore
	if raw := strings.TrimSpace(c.PostForm("assumed_ats_percentage")); raw != "" {
		assumed, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			respondWithError(c, apierror.ErrBadRequest("assumed_ats_percentage must be a number"))
			return
		}
	}
	mime := resume.DetectMime(fh.Header.Get("Content-Type"), fh.Filename)
	if !supportedMime(mime) {
		respondWithError(c, apierror.ErrBadRequest(fmt.Sprintf("unsupported file type: %s", mime)))
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondWithError(c, apierror.ErrBadRequest("could not read resume file"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondWithError(c, apierror.ErrBadRequest("could not read resume file"))
		return
	}

	id := uuid.New()
	filename := filepath.Base(fh.Filename)
	key := storage.ResumeKey(id.String(), filename)
	if err := app.Objects.Put(ctx, key, mime, data); err != nil {
		app.Logger.ErrorContext(ctx, "failed to upload resume", "key", key, "err", err)
		respondWithError(c, apierror.ErrInternal("failed to store resume"))
		return
	}

	sess, err := app.DB.CreateSession(ctx, database.CreateSessionParams{
		ID:             id,
		Name:           filename,
		Status:         StatusPending,
		JobTitle:       title,
		JobDescription: strings.TrimSpace(c.PostForm("job_description")),
		AssumedScore:   assumed,
	})
	if err != nil {
		app.Logger.ErrorContext(ctx, "failed to create session", "err", err)
		respondWithError(c, apierror.ErrInternal("failed to create analysis"))
		return
	}
	_, err = app.DB.CreateResume(ctx, database.CreateResumeParams{
		ID:               uuid.New(),
		OriginalFilename: filename,
		Mime:             mime,
		SizeBytes:        int64(len(data)),
		StorageProvider:  "r2",
		ObjectKey:        key,
		UploadStatus:     "uploaded",
		SessionID:        id,
	})
	if err != nil {
		app.Logger.ErrorContext(ctx, "failed to create resume", "err", err)
		respondWithError(c, apierror.ErrInternal("failed to create analysis"))
		return
	}

	if err := app.Broker.PublishSession(ctx, sessionFromDB(sess)); err != nil {
		app.Logger.ErrorContext(ctx, "failed to queue session", "session_id", id, "err", err)
		_ = app.DB.UpdateSessionStatus(ctx, database.UpdateSessionStatusParams{Status: StatusFailed, ID: id})
		respondWithError(c, apierror.ErrInternal("failed to queue analysis"))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": id, "status": sess.Status})
}

// loadSession resolves :id and writes the error response itself when it fails.
func (app *App) loadSession(c *gin.Context) (database.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondWithError(c, apierror.ErrBadRequest("invalid analysis id"))
		return database.Session{}, false
	}
	sess, err := app.DB.GetSession(c.Request.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		respondWithError(c, apierror.ErrNotFound(fmt.Sprintf("analysis %s", id)))
		return database.Session{}, false
	}
	if err != nil {
		app.Logger.ErrorContext(c.Request.Context(), "failed to get session", "session_id", id, "err", err)
		respondWithError(c, apierror.ErrInternal("failed to load analysis"))
		return database.Session{}, false
	}
	return sess, true
}

func (app *App) handleGetAnalysis(c *gin.Context) {
	sess, ok := app.loadSession(c)
	if !ok {
		return
	}
	resp := AnalysisResponse{
		ID:             sess.ID,
		Status:         sess.Status,
		JobTitle:       sess.JobTitle,
		JobDescription: sess.JobDescription,
		CreatedAt:      sess.CreatedAt,
	}
	if sess.Status != StatusCompleted {
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx := c.Request.Context()
	stored, err := app.DB.GetAnalysesResultsBySession(ctx, sess.ID)
	if err != nil {
		app.Logger.ErrorContext(ctx, "failed to get analysis results", "session_id", sess.ID, "err", err)
		respondWithError(c, apierror.ErrInternal("failed to load analysis results"))
		return
	}
	var result ats.Result
	if err := json.Unmarshal(stored.Results, &result); err != nil {
		respondWithError(c, apierror.ErrInternal("stored analysis results are corrupt"))
		return
	}
	if len(stored.Sections) > 0 {
		if err := json.Unmarshal(stored.Sections, &resp.Sections); err != nil {
			app.Logger.WarnContext(ctx, "ignoring corrupt sections", "session_id", sess.ID, "err", err)
		}
	}
	cmp := ats.Compare(&result, sess.AssumedScore)
	resp.Results = &result
	resp.JobDescription = stored.JobDescription
	resp.Comparison = &ComparisonBody{Comparison: cmp, Summary: cmp.Summary()}
	c.JSON(http.StatusOK, resp)
}

func (app *App) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apierror.ErrBadRequest("body must be JSON with a query field"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondWithError(c, apierror.ErrBadRequest(chat.ErrEmptyQuery.Error()))
		return
	}
	sess, ok := app.loadSession(c)
	if !ok {
		return
	}
	if sess.Status != StatusCompleted {
		respondWithError(c, apierror.ErrConflict(fmt.Sprintf("analysis is %s", sess.Status)))
		return
	}

	ctx := c.Request.Context()
	idx, err := app.Indexes.Get(ctx, sess.ID)
	if err != nil {
		app.Logger.ErrorContext(ctx, "failed to load index", "session_id", sess.ID, "err", err)
		respondWithError(c, apierror.ErrInternal("failed to load resume index"))
		return
	}
	responder, err := chat.NewResponder(idx, app.Embedder, app.ChatModel, sess.JobTitle, app.Logger)
	if err != nil {
		respondWithError(c, apierror.ErrInternal(err.Error()))
		return
	}
	conversationID := sess.ID.String()
	if err := app.ChatModel.Resume(ctx, conversationID, app.chatHistory(sess.ID)); err != nil {
		app.Logger.WarnContext(ctx, "continuing chat without stored history", "session_id", sess.ID, "err", err)
	}
	answer, err := responder.Ask(ctx, conversationID, req.Query)
	if err != nil {
		app.Logger.ErrorContext(ctx, "chat failed", "session_id", sess.ID, "err", err)
		respondWithError(c, apierror.ErrLLMProcessing("failed to generate a response"))
		return
	}

	msg, err := app.DB.CreateChatMessage(ctx, database.CreateChatMessageParams{
		ID:        uuid.New(),
		SessionID: sess.ID,
		Query:     req.Query,
		Response:  answer,
	})
	if err != nil {
		app.Logger.WarnContext(ctx, "failed to save chat message", "session_id", sess.ID, "err", err)
		msg = database.ChatMessage{Query: req.Query, Response: answer}
	}
	c.JSON(http.StatusOK, chatMessageFromDB(msg))
}

// chatHistory loads the stored turns of a session for the chat model.
func (app *App) chatHistory(sessionID uuid.UUID) chat.HistoryFunc {
	return func(ctx context.Context) ([]chat.Turn, error) {
		rows, err := app.DB.GetChatMessagesBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		turns := make([]chat.Turn, 0, len(rows))
		for _, m := range rows {
			turns = append(turns, chat.Turn{Query: m.Query, Response: m.Response})
		}
		return turns, nil
	}
}

func (app *App) handleChatHistory(c *gin.Context) {
	sess, ok := app.loadSession(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rows, err := app.DB.GetChatMessagesBySession(ctx, sess.ID)
	if err != nil {
		app.Logger.ErrorContext(ctx, "failed to get chat history", "session_id", sess.ID, "err", err)
		respondWithError(c, apierror.ErrInternal("failed to load chat history"))
		return
	}
	messages := make([]ChatMessage, 0, len(rows))
	for _, m := range rows {
		messages = append(messages, chatMessageFromDB(m))
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
