package database

import (
	"testing"

	"github.com/pashagolub/pgxmock/v3"
)

// Stores take a DBTX so unit tests can swap the pool for pgxmock:
//
//   mock := NewMockPool(t)
//   store := NewWebhookDeliveryStoreWithDB(mock)
//   mock.ExpectQuery(`SELECT EXISTS`).WithArgs("id").WillReturnRows(...)
//
// Expectations use regexp matching. Multi-line statements need (?s) when a
// pattern spans lines. Use pgxmock.AnyArg() for nil pointer arguments.
// Expectations are verified in t.Cleanup.

// NewMockPool creates a new pgxmock pool for testing.
// The mock is automatically configured with QueryMatcherRegexp for flexible query matching.
// Call mock.ExpectationsWereMet() at the end of your test to verify all expectations.
func NewMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(func() {
		mock.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled mock expectations: %v", err)
		}
	})
	return mock
}

// NewMockPoolWithQueryMatcher creates a mock pool with a custom query matcher.
// Use pgxmock.QueryMatcherEqual for exact string matching if regexp is not desired.
func NewMockPoolWithQueryMatcher(t *testing.T, matcher pgxmock.QueryMatcher) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(matcher))
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(func() {
		mock.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled mock expectations: %v", err)
		}
	})
	return mock
}
