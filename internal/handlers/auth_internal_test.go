package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	// 23505 is Postgres unique_violation, raised when a concurrent signup
	// wins the race past the duplicate-email SELECT.
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert user: %w", &pq.Error{Code: "23505"})))

	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"})) // foreign_key_violation
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
	assert.False(t, isUniqueViolation(nil))
}
