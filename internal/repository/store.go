package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/Freeeeeet/hospital_booking/internal/repository/base"
	"github.com/Freeeeeet/hospital_booking/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ service.Store = (*Store)(nil)

// Store хранилище поверх PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Schedules() service.ScheduleStore {
	return NewScheduleRepository(s.pool)
}

func (s *Store) Appointments() service.AppointmentLedger {
	return NewAppointmentRepository(s.pool)
}

func (s *Store) Notifications() service.NotificationInbox {
	return NewNotificationRepository(s.pool)
}

func (s *Store) Users() service.UserDirectory {
	return NewUserRepository(s.pool)
}

func (s *Store) Doctors() service.DoctorDirectory {
	return NewDoctorRepository(s.pool)
}

// WithinSlots открывает транзакцию и берёт транзакционные advisory-блокировки
// на каждый слот. Блокировки снимаются при commit или rollback.
func (s *Store) WithinSlots(ctx context.Context, keys []model.SlotKey, fn func(ctx context.Context, tx service.SlotRepositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, lockID := range slotLockIDs(keys) {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockID); err != nil {
			return fmt.Errorf("lock slot: %w", err)
		}
	}

	if err := fn(ctx, &txRepos{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type txRepos struct {
	tx base.DBTX
}

func (t *txRepos) Schedules() service.ScheduleStore {
	return NewScheduleRepository(t.tx)
}

func (t *txRepos) Appointments() service.AppointmentLedger {
	return NewAppointmentRepository(t.tx)
}

func (t *txRepos) Notifications() service.NotificationInbox {
	return NewNotificationRepository(t.tx)
}

// slotLockIDs ключи advisory-блокировок без повторов, в возрастающем порядке
func slotLockIDs(keys []model.SlotKey) []int64 {
	seen := make(map[int64]struct{}, len(keys))
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		id := slotLockID(k)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func slotLockID(k model.SlotKey) int64 {
	h := fnv.New64a()
	h.Write([]byte("slot:" + k.String()))
	return int64(h.Sum64())
}
