package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sku_sequences table in memory.
type mockQuerier struct {
	mu          sync.Mutex
	rows        map[string]int64
	insertFails int // number of INSERTs that fail with 23505
	inserts     int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{rows: map[string]int64{}}
}

func (m *mockQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.HasPrefix(sql, "INSERT") {
		m.inserts++
		if m.insertFails > 0 {
			m.insertFails--
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		}
		m.rows[args[0].(string)] = 0
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := args[0].(string)
	v, ok := m.rows[key]
	if strings.HasPrefix(sql, "SELECT") {
		if !ok {
			return &mockRow{err: pgx.ErrNoRows}
		}
		return &mockRow{val: v}
	}
	v++
	m.rows[key] = v
	return &mockRow{val: v}
}

func TestNext_Sequential(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("RIDAX")

	num, err := svc.Next(ctx, cfg, "ACME-TIRE-15IN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RIDAX-ACME-TIRE-15IN-00001" {
		t.Errorf("expected RIDAX-ACME-TIRE-15IN-00001, got %s", num)
	}

	num, err = svc.Next(ctx, cfg, "ACME-TIRE-15IN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RIDAX-ACME-TIRE-15IN-00002" {
		t.Errorf("expected RIDAX-ACME-TIRE-15IN-00002, got %s", num)
	}

	num, _ = svc.Next(ctx, cfg, "GEN-GEN-NA")
	if num != "RIDAX-GEN-GEN-NA-00001" {
		t.Errorf("keys must have independent counters, got %s", num)
	}
}

func TestNext_RetriesOnUniqueViolation(t *testing.T) {
	q := newMockQuerier()
	q.insertFails = 2

	var attempts int
	svc := New(q, WithAttemptRunner(func(ctx context.Context, fn func(ctx context.Context) error) error {
		attempts++
		return fn(ctx)
	}))

	num, err := svc.Next(context.Background(), DefaultConfig("RIDAX"), "K")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RIDAX-K-00001" {
		t.Errorf("expected RIDAX-K-00001, got %s", num)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestNext_GivesUpAfterMaxAttempts(t *testing.T) {
	q := newMockQuerier()
	q.insertFails = 10
	svc := New(q)

	_, err := svc.Next(context.Background(), DefaultConfig("RIDAX"), "K")
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if q.inserts != DefaultMaxAttempts {
		t.Errorf("expected %d inserts, got %d", DefaultMaxAttempts, q.inserts)
	}
}

func TestNext_OtherErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("connection reset")
	svc := New(&failingQuerier{err: boom})

	_, err := svc.Next(context.Background(), DefaultConfig("RIDAX"), "K")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped connection error, got %v", err)
	}
}

type failingQuerier struct{ err error }

func (f *failingQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, f.err
}

func (f *failingQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return &mockRow{err: f.err}
}

func TestNext_Concurrent(t *testing.T) {
	q := newMockQuerier()
	q.rows["K"] = 0
	svc := New(q)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.Next(ctx, DefaultConfig("RIDAX"), "K")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for r := range results {
		if seen[r] {
			t.Errorf("duplicate number %s", r)
		}
		seen[r] = true
	}
	if len(seen) != 20 {
		t.Errorf("expected 20 unique numbers, got %d", len(seen))
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"RIDAX-ACME-TIRE-15IN-00042", 42},
		{"RIDAX-GEN-GEN-NA-00001", 1},
		{"garbage", -1},
		{"RIDAX-", -1},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
