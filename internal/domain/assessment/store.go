package assessment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"talenthub/internal/platform/querier"
)

type Store struct {
	DB   *pgxpool.Pool
	q    querier.Querier
	inTx bool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db, q: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx StoreAPI) error) error {
	if s.inTx {
		return fn(s)
	}
	return querier.RunInTx(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(&Store{DB: s.DB, q: tx, inTx: true})
	})
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// detailColumns whitelists the columns a score submission may touch.
var detailColumns = map[string]string{
	FieldSelfLevel:   "self_level",
	FieldLeaderLevel: "leader_level",
	FieldFinalLevel:  "final_level",
}
