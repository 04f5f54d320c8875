// Package models contains the tenant-scoped entities of the back office.
package models

import "fmt"

// Status is the lifecycle state shared by every scoped entity.
// Transitions only move forward: active -> deleted.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// ParseStatus validates a status filter value. Empty is allowed and means
// "any non-deleted".
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "", StatusActive, StatusDeleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("status must be one of %s, %s", StatusActive, StatusDeleted)
	}
}

// Entity is implemented by every scoped record.
type Entity interface {
	EntityID() int64
	LifecycleStatus() Status
}
