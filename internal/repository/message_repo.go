package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"andse-chat/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	ListBySessionID(ctx context.Context, sessionID string) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, session_id, sender, content, attachment_path, attachment_name, attachment_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var attachPath, attachName, attachType interface{}
	if message.Attachment != nil {
		attachPath = message.Attachment.Filepath
		attachName = message.Attachment.Filename
		attachType = string(message.Attachment.MediaType)
	}

	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.SessionID,
		message.Sender,
		message.Content,
		attachPath,
		attachName,
		attachType,
		message.CreatedAt,
	)
	return err
}

func (r *PgMessageRepository) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Message, error) {
	const query = `
		SELECT id, session_id, sender, content, attachment_path, attachment_name, attachment_type, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var attachPath, attachName, attachType *string

		err = rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Sender,
			&msg.Content,
			&attachPath,
			&attachName,
			&attachType,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if attachPath != nil {
			msg.Attachment = &domain.Attachment{
				Filepath: *attachPath,
			}
			if attachName != nil {
				msg.Attachment.Filename = *attachName
			}
			if attachType != nil {
				msg.Attachment.MediaType = domain.MediaType(*attachType)
			}
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
