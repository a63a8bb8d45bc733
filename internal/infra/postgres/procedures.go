package postgres

import (
	"context"
	"errors"
	"fmt"

	"study-portal/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Procedures calls the stored functions installed by the migrations.
type Procedures struct {
	pool *pgxpool.Pool
}

func NewProcedures(pool *pgxpool.Pool) *Procedures {
	return &Procedures{pool: pool}
}

// SearchPosts returns posts matching query ordered by full-text relevance.
func (p *Procedures) SearchPosts(ctx context.Context, query string) ([]domain.Post, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, title, content, author_id, author_name, subject,
		       created_at, updated_at, likes, is_answered
		FROM search_forum_posts($1)`, query)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	defer rows.Close()

	posts := make([]domain.Post, 0)
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(
			&post.ID, &post.Title, &post.Content, &post.AuthorID, &post.AuthorName, &post.Subject,
			&post.CreatedAt, &post.UpdatedAt, &post.Likes, &post.IsAnswered,
		); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}

// UpdateUserRanks renumbers current_rank for every stats row.
func (p *Procedures) UpdateUserRanks(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `SELECT update_user_ranks()`); err != nil {
		return fmt.Errorf("update user ranks: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
