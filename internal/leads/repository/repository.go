// Package repository provides persistence adapters for lead records.
// Both backends implement the same read-modify-write contract: Put merges
// the incoming record against the stored one key-wise (see domain.Merge)
// and writes the full result. Isolation from a concurrent Put on the same
// key is not guaranteed unless the backend's conditional-write mode is on.
package repository

import (
	"context"

	"outreach_backend/internal/leads/domain"
)

// Store is the lead record store.
type Store interface {
	// Get returns the lead for a normalized email, or a not-found error.
	Get(ctx context.Context, email string) (*domain.Lead, error)
	// Put merges the record against the stored one and persists the result,
	// returning the merged record as written.
	Put(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
	// List returns the most recently updated leads, newest first.
	List(ctx context.Context, limit int) ([]*domain.Lead, error)
	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
}
