package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListRecords retrieves every bank record in insertion order.
func (r *QuestionRepository) ListRecords(ctx context.Context) ([]model.QuestionRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT difficulty, data, multiple_correct
		 FROM question_records
		 ORDER BY position, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]model.QuestionRecord, 0)
	for rows.Next() {
		var rec model.QuestionRecord
		if err := rows.Scan(&rec.Difficulty, &rec.Data, &rec.MultipleCorrect); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountByDifficulty returns the number of stored records per difficulty.
func (r *QuestionRepository) CountByDifficulty(ctx context.Context) (map[model.Difficulty]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT difficulty, COUNT(*) FROM question_records GROUP BY difficulty`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Difficulty]int, 3)
	for rows.Next() {
		var d model.Difficulty
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, err
		}
		counts[d] = n
	}
	return counts, rows.Err()
}

// ReplaceAll swaps the whole bank for records inside one transaction.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, records []model.QuestionRecord) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM question_records`); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}

		rows := make([][]any, len(records))
		for i, rec := range records {
			rows[i] = []any{i, string(rec.Difficulty), rec.Data, rec.MultipleCorrect}
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"question_records"},
			[]string{"position", "difficulty", "data", "multiple_correct"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy records: %w", err)
		}
		return nil
	})
}
