package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/muhammadolammi/careerzync/internal/apierror"
	"github.com/muhammadolammi/careerzync/internal/logger"
)

const maxUploadBytes = 10 << 20

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= 500:
			log.ErrorContext(ctx, "request failed with server error", attrs...)
		case status >= 400:
			log.WarnContext(ctx, "request failed with client error", attrs...)
		default:
			log.InfoContext(ctx, "request completed", attrs...)
		}
	}
}

func recoverer(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "panic recovered", "error", recovered, "path", c.Request.URL.Path)
		respondWithError(c, apierror.ErrInternal("unexpected server error occurred"))
	})
}

func respondWithError(c *gin.Context, err *apierror.APIError) {
	c.AbortWithStatusJSON(err.Code, err.WithRequestID(logger.RequestID(c.Request.Context())))
}

func (app *App) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxUploadBytes
	r.Use(requestID(), requestLogger(app.Logger), recoverer(app.Logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:   []string{"X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/analyses", app.handleCreateAnalysis)
	api.GET("/analyses/:id", app.handleGetAnalysis)
	api.POST("/analyses/:id/chat", app.handleChat)
	api.GET("/analyses/:id/chat", app.handleChatHistory)

	r.NoRoute(func(c *gin.Context) {
		respondWithError(c, apierror.ErrNotFound("no route for "+c.Request.URL.Path))
	})
	return r
}
