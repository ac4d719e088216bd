// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// CampaignIDKey is the context key for campaign ID
	CampaignIDKey contextKey = "campaign_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and campaign_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if campaignID, ok := ctx.Value(CampaignIDKey).(string); ok && campaignID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("campaign_id", campaignID)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// LeadEvent logs a lead lifecycle transition
func (l *Logger) LeadEvent(action, email, status string) {
	l.Info("lead_event",
		slog.String("action", action),
		slog.String("email", email),
		slog.String("status", status),
	)
}

// MailEvent logs an outbound email attempt
func (l *Logger) MailEvent(to, messageID string, dryRun bool) {
	l.Info("mail_event",
		slog.String("to", to),
		slog.String("message_id", messageID),
		slog.Bool("dry_run", dryRun),
	)
}

// StoreError logs lead store errors
func (l *Logger) StoreError(operation string, err error) {
	l.Error("store_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
