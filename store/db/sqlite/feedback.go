package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/phantomdelux3/ai-product-reccomendation/store"
)

func (d *DB) CreateFeedback(ctx context.Context, create *store.Feedback) (*store.Feedback, error) {
	fields := []string{"session_uid", "message_uid", "product_id", "rating", "reason", "category", "created_ts"}
	args := []any{create.SessionUID, create.MessageUID, create.ProductID, create.Rating, create.Reason, create.Category, create.CreatedTs}

	stmt := `INSERT INTO feedback (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	return create, nil
}

func (d *DB) ListFeedback(ctx context.Context, find *store.FindFeedback) ([]*store.Feedback, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.SessionUID != nil {
		where, args = append(where, "session_uid = "+placeholder(len(args)+1)), append(args, *find.SessionUID)
	}
	if find.ProductID != nil {
		where, args = append(where, "product_id = "+placeholder(len(args)+1)), append(args, *find.ProductID)
	}

	query := `SELECT id, session_uid, message_uid, product_id, rating, reason, category, created_ts FROM feedback WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Feedback, 0)
	for rows.Next() {
		f := &store.Feedback{}
		if err := rows.Scan(&f.ID, &f.SessionUID, &f.MessageUID, &f.ProductID, &f.Rating, &f.Reason, &f.Category, &f.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		list = append(list, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}

	return list, nil
}
