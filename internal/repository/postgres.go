package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-management/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// eventColumns selects an event row together with its active participant ids
// in registration order.
const eventColumns = `e.id, e.title, e.description, e.event_date, e.event_time, e.location,
	e.organizer_id, e.max_participants, e.status, e.created_at, e.updated_at,
	ARRAY(SELECT r.user_id FROM registrations r
	      WHERE r.event_id = e.id AND r.status = 'registered'
	      ORDER BY r.seq) AS participants`

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// ─── Users ────────────────────────────────────────────────────────────────────

// CreateUser inserts a user and maps a duplicate email to ErrEmailTaken.
func (s *PostgresStore) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.PasswordHash, user.Name, string(user.Role), user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return storageErr("insert user", err)
	}
	return nil
}

// FindUserByID returns a user or ErrNotFound.
func (s *PostgresStore) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, `WHERE id = $1`, id)
}

// FindUserByEmail returns a user or ErrNotFound.
func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, `WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *PostgresStore) findUser(ctx context.Context, where string, arg string) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, email, password_hash, name, role, created_at FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get user", err)
	}
	u.Role = model.Role(role)
	return &u, nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent inserts a new event.
func (s *PostgresStore) CreateEvent(ctx context.Context, event *model.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.UpdatedAt = event.CreatedAt
	event.Participants = []string{}

	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, title, description, event_date, event_time, location,
		                     organizer_id, max_participants, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		event.ID, event.Title, event.Description, event.Date, event.Time, event.Location,
		event.OrganizerID, event.MaxParticipants, string(event.Status), event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return storageErr("insert event", err)
	}
	return nil
}

// GetEvent returns a single event or ErrNotFound.
func (s *PostgresStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, s.db, id)
}

// ListEvents returns all events in insertion order.
func (s *PostgresStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.listEvents(ctx, `SELECT `+eventColumns+` FROM events e ORDER BY e.seq`)
}

// ListEventsByOrganizer returns the events owned by organizerID.
func (s *PostgresStore) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	return s.listEvents(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.organizer_id = $1 ORDER BY e.seq`,
		organizerID)
}

// ListEventsByParticipant returns the events userID is registered for.
func (s *PostgresStore) ListEventsByParticipant(ctx context.Context, userID string) ([]model.Event, error) {
	return s.listEvents(ctx,
		`SELECT `+eventColumns+` FROM events e
		 WHERE EXISTS (SELECT 1 FROM registrations r
		               WHERE r.event_id = e.id AND r.user_id = $1 AND r.status = 'registered')
		 ORDER BY e.seq`,
		userID)
}

func (s *PostgresStore) listEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storageErr("scan event", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list events", err)
	}
	return events, nil
}

// UpdateEvent locks the event row, applies mutate and writes the result back
// in the same transaction.
func (s *PostgresStore) UpdateEvent(ctx context.Context, id string, mutate func(*model.Event) error) (*model.Event, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orig, err := lockEvent(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	next := orig.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	preserveImmutable(orig, next)
	next.UpdatedAt = later(orig.UpdatedAt)

	_, err = tx.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, event_date = $4, event_time = $5, location = $6,
		     max_participants = $7, status = $8, updated_at = $9
		 WHERE id = $1`,
		id, next.Title, next.Description, next.Date, next.Time, next.Location,
		next.MaxParticipants, string(next.Status), next.UpdatedAt,
	)
	if err != nil {
		return nil, storageErr("update event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("commit transaction", err)
	}
	return next, nil
}

// DeleteEvent locks the event row, runs guard and deletes the row. The
// registrations table cascades.
func (s *PostgresStore) DeleteEvent(ctx context.Context, id string, guard func(*model.Event) error) (*model.Event, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	snapshot, err := lockEvent(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard(snapshot); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return nil, storageErr("delete event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("commit transaction", err)
	}
	return snapshot, nil
}

// AddParticipant performs a concurrency-safe registration inside a transaction.
//
// A naive read-then-write lets two requests both read count = N-1 for an
// event of capacity N and both insert, leaving N+1 registrations. The event
// row is therefore locked with SELECT … FOR UPDATE before anything is read:
// any other transaction locking the same row blocks until this one commits or
// rolls back, so the duplicate check, the capacity check and the insert are
// serialised per event. Rows of other events are not touched.
func (s *PostgresStore) AddParticipant(ctx context.Context, eventID, userID string) (*model.Registration, int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, storageErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// ── Step 1: lock the event row. ───────────────────────────────────────
	var (
		maxParticipants *int
		updatedAt       time.Time
	)
	err = tx.QueryRow(ctx,
		`SELECT max_participants, updated_at FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&maxParticipants, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, storageErr("lock event row", err)
	}

	// ── Step 2: duplicate and capacity checks. ────────────────────────────
	var dupCount, count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE user_id = $2), COUNT(*)
		 FROM registrations
		 WHERE event_id = $1 AND status = 'registered'`,
		eventID, userID,
	).Scan(&dupCount, &count)
	if err != nil {
		return nil, 0, storageErr("count registrations", err)
	}
	if dupCount > 0 {
		return nil, count, ErrAlreadyRegistered
	}
	if maxParticipants != nil && count >= *maxParticipants {
		return nil, count, ErrCapacityExceeded
	}

	// ── Step 3: insert the registration and touch the event. ──────────────
	now := later(updatedAt)
	reg := &model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		UserID:       userID,
		Status:       model.RegistrationActive,
		RegisteredAt: now,
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, user_id, status, registered_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		reg.ID, reg.EventID, reg.UserID, string(reg.Status), reg.RegisteredAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, count, ErrAlreadyRegistered
		}
		return nil, 0, storageErr("insert registration", err)
	}
	if _, err = tx.Exec(ctx, `UPDATE events SET updated_at = $2 WHERE id = $1`, eventID, now); err != nil {
		return nil, 0, storageErr("touch event", err)
	}

	// ── Step 4: commit; only now do other transactions see the change. ────
	if err = tx.Commit(ctx); err != nil {
		return nil, 0, storageErr("commit transaction", err)
	}
	return reg, count + 1, nil
}

// RemoveParticipant cancels userID's active registration under the event row lock.
func (s *PostgresStore) RemoveParticipant(ctx context.Context, eventID, userID string) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, storageErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var updatedAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT updated_at FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, storageErr("lock event row", err)
	}

	now := later(updatedAt)
	tag, err := tx.Exec(ctx,
		`UPDATE registrations SET status = 'cancelled', cancelled_at = $3
		 WHERE event_id = $1 AND user_id = $2 AND status = 'registered'`,
		eventID, userID, now,
	)
	if err != nil {
		return 0, storageErr("cancel registration", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'registered'`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, storageErr("count registrations", err)
	}
	if tag.RowsAffected() == 0 {
		return count, ErrNotRegistered
	}

	if _, err = tx.Exec(ctx, `UPDATE events SET updated_at = $2 WHERE id = $1`, eventID, now); err != nil {
		return 0, storageErr("touch event", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, storageErr("commit transaction", err)
	}
	return count, nil
}

// ListRegistrations returns the event's active registrations in registration order.
func (s *PostgresStore) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := getEvent(ctx, s.db, eventID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, event_id, user_id, status, registered_at, cancelled_at
		 FROM registrations
		 WHERE event_id = $1 AND status = 'registered'
		 ORDER BY seq`,
		eventID,
	)
	if err != nil {
		return nil, storageErr("list registrations", err)
	}
	defer rows.Close()

	regs := []model.Registration{}
	for rows.Next() {
		var (
			reg    model.Registration
			status string
		)
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &status, &reg.RegisteredAt, &reg.CancelledAt); err != nil {
			return nil, storageErr("scan registration", err)
		}
		reg.Status = model.RegistrationStatus(status)
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list registrations", err)
	}
	return regs, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEvent(ctx context.Context, q querier, id string) (*model.Event, error) {
	e, err := scanEvent(q.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get event", err)
	}
	return e, nil
}

// lockEvent takes the row lock first, then reads the full event in the same transaction.
func lockEvent(ctx context.Context, tx pgx.Tx, id string) (*model.Event, error) {
	var locked string
	err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("lock event row", err)
	}
	return getEvent(ctx, tx, id)
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e      model.Event
		status string
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location,
		&e.OrganizerID, &e.MaxParticipants, &status, &e.CreatedAt, &e.UpdatedAt,
		&e.Participants,
	)
	if err != nil {
		return nil, err
	}
	e.Status = model.EventStatus(status)
	if e.Participants == nil {
		e.Participants = []string{}
	}
	return &e, nil
}

// later returns the current time, or prev if the clock is behind it.
func later(prev time.Time) time.Time {
	now := time.Now().UTC()
	if now.Before(prev) {
		return prev
	}
	return now
}
