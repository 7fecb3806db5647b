package techniques

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore reads the techniques table (title text, steps text[], crop text)
// with a case-insensitive partial match on the crop column.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) FetchByCrop(ctx context.Context, crop string) ([]Technique, error) {
	rows, err := s.db.Query(ctx, `
		SELECT title, steps
		FROM techniques
		WHERE crop ILIKE '%' || $1 || '%'
		ORDER BY title
	`, crop)
	if err != nil {
		return nil, fmt.Errorf("querying techniques: %w", err)
	}
	defer rows.Close()

	var out []Technique
	for rows.Next() {
		var t Technique
		if err := rows.Scan(&t.Title, &t.Steps); err != nil {
			return nil, fmt.Errorf("scanning technique row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

var _ Store = (*PGStore)(nil)
