package testutil

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MockDB is a sqlx handle backed by sqlmock. Expectations are literal SQL
// fragments: whitespace is collapsed on both sides and the fragment has to
// appear somewhere in the executed statement.
type MockDB struct {
	DB   *sqlx.DB
	Mock sqlmock.Sqlmock
}

func NewMockDB(t *testing.T) *MockDB {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlFragmentMatcher))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return &MockDB{DB: sqlx.NewDb(db, "postgres"), Mock: mock}
}

var sqlFragmentMatcher = sqlmock.QueryMatcherFunc(func(expected, actual string) error {
	want, got := collapseSpace(expected), collapseSpace(actual)
	if !strings.Contains(got, want) {
		return fmt.Errorf("query %q does not contain %q", got, want)
	}
	return nil
})

func collapseSpace(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func (m *MockDB) Close() error {
	return m.DB.Close()
}

func (m *MockDB) ExpectQuery(fragment string) *sqlmock.ExpectedQuery {
	return m.Mock.ExpectQuery(fragment)
}

func (m *MockDB) ExpectExec(fragment string) *sqlmock.ExpectedExec {
	return m.Mock.ExpectExec(fragment)
}

func (m *MockDB) ExpectBegin() *sqlmock.ExpectedBegin {
	return m.Mock.ExpectBegin()
}

func (m *MockDB) ExpectCommit() *sqlmock.ExpectedCommit {
	return m.Mock.ExpectCommit()
}

func (m *MockDB) ExpectRollback() *sqlmock.ExpectedRollback {
	return m.Mock.ExpectRollback()
}

// ExpectationsWereMet fails the test when an expected statement never ran
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	if err := m.Mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// MockRows starts a result set with the given columns
func MockRows(columns ...string) *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

// AnyUUID matches a generated primary key
type AnyUUID struct{}

func (AnyUUID) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// MockPublisher is an in-memory event sink. Setting Err makes every publish fail.
type MockPublisher struct {
	Err error

	mu     sync.Mutex
	events []PublishedEvent
}

// PublishedEvent is one message handed to the sink
type PublishedEvent struct {
	Type    string
	Payload interface{}
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{Type: eventType, Payload: payload})
	return nil
}

// Events returns the payloads published under eventType, oldest first
func (m *MockPublisher) Events(eventType string) []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []interface{}
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e.Payload)
		}
	}
	return out
}

func (m *MockPublisher) AssertEventPublished(t *testing.T, eventType string) {
	t.Helper()
	if len(m.Events(eventType)) == 0 {
		t.Errorf("expected event %q to be published, but it wasn't", eventType)
	}
}

func (m *MockPublisher) AssertNoEventsPublished(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) > 0 {
		t.Errorf("expected no events, but got %d: %+v", len(m.events), m.events)
	}
}
