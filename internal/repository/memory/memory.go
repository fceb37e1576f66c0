// Package memory provides an in-process Repository used by tests and local
// development. It mirrors the conditional-update semantics of the Postgres
// implementation, including the clamp-to-zero elapsed computation.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository"
)

var errEndShiftFailed = errors.New("end shift failed")

type Store struct {
	mu sync.Mutex

	shifts      map[int64]*repository.Shift
	loas        map[int64]*repository.Loa
	logs        []repository.AuditLogEntry
	nextShiftID int64
	nextLoaID   int64
	nextLogID   int64

	// FailEndShiftIDs makes EndShift fail for specific ids, for exercising
	// partial-failure paths in bulk operations.
	FailEndShiftIDs map[int64]bool
	// FailAuditInsert makes InsertAuditLog fail, for exercising the
	// swallow-and-warn contract.
	FailAuditInsert error
}

func NewStore() *Store {
	return &Store{
		shifts: make(map[int64]*repository.Shift),
		loas:   make(map[int64]*repository.Loa),
	}
}

func (s *Store) CreateShift(_ context.Context, input repository.CreateShiftInput) (*repository.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextShiftID++
	shiftType := input.Type
	if shiftType == "" {
		shiftType = "normal"
	}
	rec := &repository.Shift{
		ID:      s.nextShiftID,
		UserID:  input.UserID,
		GuildID: input.GuildID,
		StartTs: input.StartTs,
		Type:    shiftType,
		Status:  repository.ShiftStatusActive,
	}
	s.shifts[rec.ID] = rec
	return copyShift(rec), nil
}

func (s *Store) GetShiftByID(_ context.Context, id int64) (*repository.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.shifts[id]
	if !ok {
		return nil, nil
	}
	return copyShift(rec), nil
}

func (s *Store) GetOpenShiftByUser(_ context.Context, guildID, userID string) (*repository.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest *repository.Shift
	for _, rec := range s.shifts {
		if rec.GuildID != guildID || rec.UserID != userID || rec.Status == repository.ShiftStatusEnded {
			continue
		}
		if newest == nil || rec.ID > newest.ID {
			newest = rec
		}
	}
	if newest == nil {
		return nil, nil
	}
	return copyShift(newest), nil
}

func (s *Store) PauseShift(_ context.Context, id, pauseTs int64) (*repository.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.shifts[id]
	if !ok || rec.Status != repository.ShiftStatusActive {
		return nil, nil
	}
	rec.TotalSeconds += clampNonNegative(pauseTs - rec.StartTs)
	rec.PauseTs = pauseTs
	rec.Status = repository.ShiftStatusPaused
	return copyShift(rec), nil
}

func (s *Store) ResumeShift(_ context.Context, id, resumeTs int64) (*repository.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.shifts[id]
	if !ok || rec.Status != repository.ShiftStatusPaused {
		return nil, nil
	}
	rec.ResumeTs = resumeTs
	rec.StartTs = resumeTs
	rec.Status = repository.ShiftStatusActive
	return copyShift(rec), nil
}

func (s *Store) EndShift(_ context.Context, id, endTs int64) (*repository.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.endShiftFailure(id); ok {
		return nil, err
	}
	rec, ok := s.shifts[id]
	if !ok || rec.Status == repository.ShiftStatusEnded {
		return nil, nil
	}
	if rec.Status == repository.ShiftStatusActive {
		rec.TotalSeconds += clampNonNegative(endTs - rec.StartTs)
	}
	rec.EndTs = endTs
	rec.Status = repository.ShiftStatusEnded
	return copyShift(rec), nil
}

func (s *Store) endShiftFailure(id int64) (error, bool) {
	if s.FailEndShiftIDs != nil && s.FailEndShiftIDs[id] {
		return errEndShiftFailed, true
	}
	return nil, false
}

func (s *Store) ListOpenShifts(_ context.Context, filter repository.ShiftFilter) ([]repository.Shift, error) {
	return s.listShifts(filter, true), nil
}

func (s *Store) ListShifts(_ context.Context, filter repository.ShiftFilter) ([]repository.Shift, error) {
	return s.listShifts(filter, false), nil
}

func (s *Store) listShifts(filter repository.ShiftFilter, openOnly bool) []repository.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []repository.Shift
	for _, rec := range s.shifts {
		if rec.GuildID != filter.GuildID {
			continue
		}
		if openOnly && rec.Status == repository.ShiftStatusEnded {
			continue
		}
		if filter.UserID != "" && rec.UserID != filter.UserID {
			continue
		}
		if filter.BeforeTs > 0 && rec.StartTs >= filter.BeforeTs {
			continue
		}
		if filter.IDs != nil && !containsID(filter.IDs, rec.ID) {
			continue
		}
		list = append(list, *copyShift(rec))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *Store) DeleteShift(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shifts[id]; !ok {
		return false, nil
	}
	delete(s.shifts, id)
	return true, nil
}

func (s *Store) CreateLoa(_ context.Context, input repository.CreateLoaInput) (*repository.Loa, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLoaID++
	rec := &repository.Loa{
		ID:      s.nextLoaID,
		UserID:  input.UserID,
		GuildID: input.GuildID,
		StartTs: input.StartTs,
		EndTs:   input.EndTs,
		Reason:  input.Reason,
		Status:  repository.LoaStatusPending,
	}
	s.loas[rec.ID] = rec
	return copyLoa(rec), nil
}

func (s *Store) GetLoaByID(_ context.Context, id int64) (*repository.Loa, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.loas[id]
	if !ok {
		return nil, nil
	}
	return copyLoa(rec), nil
}

func (s *Store) ResolveLoa(_ context.Context, id int64, status repository.LoaStatus, actorID string) (*repository.Loa, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.loas[id]
	if !ok || rec.Status != repository.LoaStatusPending {
		return nil, nil
	}
	rec.Status = status
	rec.ActorID = actorID
	return copyLoa(rec), nil
}

func (s *Store) ListLoasByUser(_ context.Context, guildID, userID string, limit int) ([]repository.Loa, error) {
	return s.listLoas(guildID, userID, false, limit), nil
}

func (s *Store) ListLoasByGuild(_ context.Context, guildID string, pendingOnly bool, limit int) ([]repository.Loa, error) {
	return s.listLoas(guildID, "", pendingOnly, limit), nil
}

func (s *Store) listLoas(guildID, userID string, pendingOnly bool, limit int) []repository.Loa {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []repository.Loa
	for _, rec := range s.loas {
		if rec.GuildID != guildID {
			continue
		}
		if userID != "" && rec.UserID != userID {
			continue
		}
		if pendingOnly && rec.Status != repository.LoaStatusPending {
			continue
		}
		list = append(list, *copyLoa(rec))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

func (s *Store) LatestLoaByUser(_ context.Context, guildID, userID string) (*repository.Loa, error) {
	list := s.listLoas(guildID, userID, false, 1)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (s *Store) InsertAuditLog(_ context.Context, input repository.InsertAuditLogInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAuditInsert != nil {
		return s.FailAuditInsert
	}
	s.nextLogID++
	s.logs = append(s.logs, repository.AuditLogEntry{
		ID:      s.nextLogID,
		UserID:  input.UserID,
		GuildID: input.GuildID,
		ActorID: input.ActorID,
		Action:  input.Action,
		Data:    input.Data,
		Ts:      input.Ts,
	})
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, guildID, userID string, limit int) ([]repository.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []repository.AuditLogEntry
	for i := len(s.logs) - 1; i >= 0; i-- {
		e := s.logs[i]
		if e.GuildID != guildID || e.UserID != userID {
			continue
		}
		list = append(list, e)
		if limit > 0 && len(list) == limit {
			break
		}
	}
	return list, nil
}

// AuditEntries returns every stored log entry in insertion order.
func (s *Store) AuditEntries() []repository.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.AuditLogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func copyShift(rec *repository.Shift) *repository.Shift {
	out := *rec
	return &out
}

func copyLoa(rec *repository.Loa) *repository.Loa {
	out := *rec
	return &out
}
