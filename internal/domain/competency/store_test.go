package competency

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestPgErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		unique bool
		fk     bool
	}{
		{name: "unique", err: &pgconn.PgError{Code: "23505"}, unique: true},
		{name: "wrapped fk", err: fmt.Errorf("delete: %w", &pgconn.PgError{Code: "23503"}), fk: true},
		{name: "other pg", err: &pgconn.PgError{Code: "42P01"}},
		{name: "plain", err: errors.New("boom")},
		{name: "nil", err: nil},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := isUniqueViolation(tc.err); got != tc.unique {
				t.Fatalf("unique: expected %v, got %v", tc.unique, got)
			}
			if got := isForeignKeyViolation(tc.err); got != tc.fk {
				t.Fatalf("fk: expected %v, got %v", tc.fk, got)
			}
		})
	}
}
