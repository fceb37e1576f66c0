package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository"
)

const shiftColumns = "id, user_id, guild_id, start_ts, pause_ts, resume_ts, end_ts, total_seconds, type, status"
const loaColumns = "id, user_id, guild_id, start_ts, end_ts, reason, status, actor_id"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateShift(ctx context.Context, input repository.CreateShiftInput) (*repository.Shift, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO shifts (user_id, guild_id, start_ts, type, status)
		 VALUES ($1, $2, $3, $4, 'active')
		 RETURNING `+shiftColumns,
		input.UserID, input.GuildID, input.StartTs, input.Type)
	return scanShift(row)
}

func (r *PostgresRepository) GetShiftByID(ctx context.Context, id int64) (*repository.Shift, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id)
	s, err := scanShift(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *PostgresRepository) GetOpenShiftByUser(ctx context.Context, guildID, userID string) (*repository.Shift, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+shiftColumns+` FROM shifts
		 WHERE guild_id = $1 AND user_id = $2 AND status IN ('active', 'paused')
		 ORDER BY id DESC LIMIT 1`,
		guildID, userID)
	s, err := scanShift(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// PauseShift closes the open interval and moves the shift to paused in one
// conditional statement. The elapsed computation happens inside the UPDATE so
// two concurrent pauses cannot both add to total_seconds; the loser matches
// zero rows and gets nil back.
func (r *PostgresRepository) PauseShift(ctx context.Context, id, pauseTs int64) (*repository.Shift, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE shifts
		 SET pause_ts = $2, status = 'paused',
		     total_seconds = total_seconds + GREATEST(0, $2 - start_ts)
		 WHERE id = $1 AND status = 'active'
		 RETURNING `+shiftColumns,
		id, pauseTs)
	s, err := scanShift(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// ResumeShift restarts the interval clock: start_ts is reset to the resume
// instant, accumulated time stays in total_seconds.
func (r *PostgresRepository) ResumeShift(ctx context.Context, id, resumeTs int64) (*repository.Shift, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE shifts
		 SET resume_ts = $2, start_ts = $2, status = 'active'
		 WHERE id = $1 AND status = 'paused'
		 RETURNING `+shiftColumns,
		id, resumeTs)
	s, err := scanShift(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// EndShift terminates an open shift; a still-active interval is rolled into
// total_seconds, a paused one contributes nothing further.
func (r *PostgresRepository) EndShift(ctx context.Context, id, endTs int64) (*repository.Shift, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE shifts
		 SET end_ts = $2, status = 'ended',
		     total_seconds = total_seconds + CASE WHEN status = 'active' THEN GREATEST(0, $2 - start_ts) ELSE 0 END
		 WHERE id = $1 AND status IN ('active', 'paused')
		 RETURNING `+shiftColumns,
		id, endTs)
	s, err := scanShift(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *PostgresRepository) ListOpenShifts(ctx context.Context, filter repository.ShiftFilter) ([]repository.Shift, error) {
	where, args := buildShiftFilter(filter, true)
	return r.queryShifts(ctx, where, args)
}

func (r *PostgresRepository) ListShifts(ctx context.Context, filter repository.ShiftFilter) ([]repository.Shift, error) {
	where, args := buildShiftFilter(filter, false)
	return r.queryShifts(ctx, where, args)
}

func (r *PostgresRepository) queryShifts(ctx context.Context, where string, args []any) ([]repository.Shift, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE `+where+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func buildShiftFilter(filter repository.ShiftFilter, openOnly bool) (string, []any) {
	conds := []string{"guild_id = $1"}
	args := []any{filter.GuildID}
	if openOnly {
		conds = append(conds, "status IN ('active', 'paused')")
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.BeforeTs > 0 {
		args = append(args, filter.BeforeTs)
		conds = append(conds, fmt.Sprintf("start_ts < $%d", len(args)))
	}
	if filter.IDs != nil {
		args = append(args, filter.IDs)
		conds = append(conds, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) DeleteShift(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) CreateLoa(ctx context.Context, input repository.CreateLoaInput) (*repository.Loa, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO loa (user_id, guild_id, start_ts, end_ts, reason, status)
		 VALUES ($1, $2, $3, $4, $5, 'pending')
		 RETURNING `+loaColumns,
		input.UserID, input.GuildID, input.StartTs, input.EndTs, input.Reason)
	return scanLoa(row)
}

func (r *PostgresRepository) GetLoaByID(ctx context.Context, id int64) (*repository.Loa, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+loaColumns+` FROM loa WHERE id = $1`, id)
	l, err := scanLoa(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return l, err
}

// ResolveLoa is conditional on the request still being pending, so a request
// can be resolved exactly once.
func (r *PostgresRepository) ResolveLoa(ctx context.Context, id int64, status repository.LoaStatus, actorID string) (*repository.Loa, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE loa SET status = $2, actor_id = $3
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+loaColumns,
		id, status, actorID)
	l, err := scanLoa(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (r *PostgresRepository) ListLoasByUser(ctx context.Context, guildID, userID string, limit int) ([]repository.Loa, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+loaColumns+` FROM loa
		 WHERE guild_id = $1 AND user_id = $2
		 ORDER BY id DESC LIMIT $3`,
		guildID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLoas(rows)
}

func (r *PostgresRepository) ListLoasByGuild(ctx context.Context, guildID string, pendingOnly bool, limit int) ([]repository.Loa, error) {
	query := `SELECT ` + loaColumns + ` FROM loa WHERE guild_id = $1`
	if pendingOnly {
		query += ` AND status = 'pending'`
	}
	query += ` ORDER BY id DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLoas(rows)
}

func (r *PostgresRepository) LatestLoaByUser(ctx context.Context, guildID, userID string) (*repository.Loa, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+loaColumns+` FROM loa
		 WHERE guild_id = $1 AND user_id = $2
		 ORDER BY id DESC LIMIT 1`,
		guildID, userID)
	l, err := scanLoa(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (r *PostgresRepository) InsertAuditLog(ctx context.Context, input repository.InsertAuditLogInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO logs (user_id, guild_id, actor_id, action, data, ts)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		input.UserID, input.GuildID, input.ActorID, input.Action, input.Data, input.Ts)
	return err
}

func (r *PostgresRepository) ListAuditLogs(ctx context.Context, guildID, userID string, limit int) ([]repository.AuditLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, guild_id, actor_id, action, data, ts FROM logs
		 WHERE guild_id = $1 AND user_id = $2
		 ORDER BY ts DESC, id DESC LIMIT $3`,
		guildID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.AuditLogEntry
	for rows.Next() {
		var e repository.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.GuildID, &e.ActorID, &e.Action, &e.Data, &e.Ts); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanShift(row pgx.Row) (*repository.Shift, error) {
	var s repository.Shift
	err := row.Scan(&s.ID, &s.UserID, &s.GuildID, &s.StartTs, &s.PauseTs, &s.ResumeTs,
		&s.EndTs, &s.TotalSeconds, &s.Type, &s.Status)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanLoa(row pgx.Row) (*repository.Loa, error) {
	var l repository.Loa
	err := row.Scan(&l.ID, &l.UserID, &l.GuildID, &l.StartTs, &l.EndTs, &l.Reason, &l.Status, &l.ActorID)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLoas(rows pgx.Rows) ([]repository.Loa, error) {
	var list []repository.Loa
	for rows.Next() {
		l, err := scanLoa(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}
