package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

// PgDirectoryRepository implements the directory contract over Postgres.
// Tables: conversations, participants, profiles, messages.
type PgDirectoryRepository struct {
	pool *pgxpool.Pool
}

func NewPgDirectoryRepository(pool *pgxpool.Pool) *PgDirectoryRepository {
	return &PgDirectoryRepository{pool: pool}
}

var _ repository.DirectoryRepository = (*PgDirectoryRepository)(nil)

func (r *PgDirectoryRepository) ListParticipations(ctx context.Context, userID string) ([]int64, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgDirectoryRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT conversation_id
		FROM participants
		WHERE user_id = $1::uuid
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PgDirectoryRepository) ListOtherParticipants(ctx context.Context, conversationIDs []int64, excludingUserID string) ([]messaging.Participant, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgDirectoryRepository: nil pool")
	}
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT conversation_id, user_id::text
		FROM participants
		WHERE conversation_id = ANY($1) AND user_id <> $2::uuid
	`, conversationIDs, excludingUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []messaging.Participant
	for rows.Next() {
		var p messaging.Participant
		if err := rows.Scan(&p.ConversationID, &p.UserID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PgDirectoryRepository) OtherParticipant(ctx context.Context, conversationID int64, excludingUserID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgDirectoryRepository: nil pool")
	}
	var userID string
	err := r.pool.QueryRow(ctx, `
		SELECT user_id::text
		FROM participants
		WHERE conversation_id = $1 AND user_id <> $2::uuid
		LIMIT 1
	`, conversationID, excludingUserID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	return userID, err
}

func (r *PgDirectoryRepository) GetProfiles(ctx context.Context, userIDs []string) ([]messaging.Profile, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgDirectoryRepository: nil pool")
	}
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, username, avatar_url
		FROM profiles
		WHERE id = ANY($1::uuid[])
	`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []messaging.Profile
	for rows.Next() {
		var p messaging.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PgDirectoryRepository) GetProfile(ctx context.Context, userID string) (*messaging.Profile, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgDirectoryRepository: nil pool")
	}
	var p messaging.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, username, avatar_url
		FROM profiles
		WHERE id = $1::uuid
	`, userID).Scan(&p.ID, &p.Username, &p.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrCreateConversation serializes concurrent creates for the same pair
// with a transaction-scoped advisory lock keyed on the ordered pair, so both
// argument orders contend on the same key and the second caller finds the
// first caller's row.
func (r *PgDirectoryRepository) GetOrCreateConversation(ctx context.Context, userA, userB string) (int64, bool, error) {
	if r == nil || r.pool == nil {
		return 0, false, errors.New("PgDirectoryRepository: nil pool")
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		SELECT pg_advisory_xact_lock(hashtextextended(least($1::text, $2::text) || ':' || greatest($1::text, $2::text), 0))
	`, userA, userB); err != nil {
		return 0, false, err
	}

	var id int64
	err = tx.QueryRow(ctx, `
		SELECT p1.conversation_id
		FROM participants p1
		JOIN participants p2 ON p2.conversation_id = p1.conversation_id
		WHERE p1.user_id = $1::uuid AND p2.user_id = $2::uuid
		LIMIT 1
	`, userA, userB).Scan(&id)
	switch {
	case err == nil:
		return id, false, tx.Commit(ctx)
	case errors.Is(err, pgx.ErrNoRows):
		// fall through to create
	default:
		return 0, false, err
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO conversations (created_at) VALUES (now()) RETURNING id`,
	).Scan(&id); err != nil {
		return 0, false, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO participants (conversation_id, user_id)
		VALUES ($1, $2::uuid), ($1, $3::uuid)
	`, id, userA, userB); err != nil {
		return 0, false, err
	}

	return id, true, tx.Commit(ctx)
}

func (r *PgDirectoryRepository) ListMessages(ctx context.Context, conversationID int64) ([]messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgDirectoryRepository: nil pool")
	}
	// conversationID 0 selects the whole table (shared public room view).
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.conversation_id, m.sender_id::text, m.content, m.created_at,
		       p.id::text, p.username, p.avatar_url
		FROM messages m
		LEFT JOIN profiles p ON p.id = m.sender_id
		WHERE ($1 = 0 OR m.conversation_id = $1)
		ORDER BY m.created_at ASC, m.id ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []messaging.Message
	for rows.Next() {
		var (
			m         messaging.Message
			profileID *string
			username  *string
			avatarURL *string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.CreatedAt,
			&profileID, &username, &avatarURL); err != nil {
			return nil, err
		}
		if profileID != nil {
			m.Sender = &messaging.Profile{ID: *profileID, Username: username, AvatarURL: avatarURL}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *PgDirectoryRepository) SaveMessage(ctx context.Context, m messaging.Message) (messaging.Message, error) {
	if r == nil || r.pool == nil {
		return messaging.Message{}, errors.New("PgDirectoryRepository: nil pool")
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, content, created_at)
		VALUES ($1, $2::uuid, $3, $4)
		RETURNING id, created_at
	`, m.ConversationID, m.SenderID, m.Content, m.CreatedAt).Scan(&m.ID, &m.CreatedAt)
	return m, err
}

func (r *PgDirectoryRepository) IsParticipant(ctx context.Context, conversationID int64, userID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgDirectoryRepository: nil pool")
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM participants
			WHERE conversation_id = $1 AND user_id = $2::uuid
		)
	`, conversationID, userID).Scan(&ok)
	return ok, err
}

func (r *PgDirectoryRepository) SuggestProfiles(ctx context.Context, limit int, excludingUserID string) ([]messaging.Profile, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgDirectoryRepository: nil pool")
	}
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, username, avatar_url
		FROM profiles
		WHERE id <> $1::uuid
		ORDER BY random()
		LIMIT $2
	`, excludingUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []messaging.Profile
	for rows.Next() {
		var p messaging.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
