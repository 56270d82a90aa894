package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/Freeeeeet/hospital_booking/internal/service"
)

var _ service.Store = (*Store)(nil)

// Store хранилище в памяти процесса с теми же контрактами, что и PostgreSQL
type Store struct {
	mu sync.RWMutex

	users           map[int64]*model.User
	usersByTelegram map[int64]int64
	doctors         map[int64]*model.Doctor
	schedules       map[scheduleKey]*model.ScheduleEntry
	appointments    map[int64]*model.Appointment
	appointmentIdx  map[appointmentKey]int64
	notifications   map[int64]*model.Notification

	lastUserID         int64
	lastDoctorID       int64
	lastScheduleID     int64
	lastAppointmentID  int64
	lastNotificationID int64

	locks *slotLocks
}

func NewStore() *Store {
	return &Store{
		users:           make(map[int64]*model.User),
		usersByTelegram: make(map[int64]int64),
		doctors:         make(map[int64]*model.Doctor),
		schedules:       make(map[scheduleKey]*model.ScheduleEntry),
		appointments:    make(map[int64]*model.Appointment),
		appointmentIdx:  make(map[appointmentKey]int64),
		notifications:   make(map[int64]*model.Notification),
		locks:           newSlotLocks(),
	}
}

func (s *Store) Schedules() service.ScheduleStore {
	return &scheduleRepo{s: s}
}

func (s *Store) Appointments() service.AppointmentLedger {
	return &appointmentRepo{s: s}
}

func (s *Store) Notifications() service.NotificationInbox {
	return &notificationRepo{s: s}
}

func (s *Store) Users() service.UserDirectory {
	return &userRepo{s: s}
}

func (s *Store) Doctors() service.DoctorDirectory {
	return &doctorRepo{s: s}
}

// WithinSlots берёт блокировки слотов в отсортированном порядке и откатывает
// все изменения tx, если fn вернул ошибку
func (s *Store) WithinSlots(ctx context.Context, keys []model.SlotKey, fn func(ctx context.Context, tx service.SlotRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	names := lockNames(keys)
	for _, name := range names {
		s.locks.lock(name)
	}
	defer func() {
		for i := len(names) - 1; i >= 0; i-- {
			s.locks.unlock(names[i])
		}
	}()

	tx := &txRepos{s: s, undo: &undoLog{}}
	if err := fn(ctx, tx); err != nil {
		s.mu.Lock()
		tx.undo.rollback()
		s.mu.Unlock()
		return err
	}

	return nil
}

type txRepos struct {
	s    *Store
	undo *undoLog
}

func (t *txRepos) Schedules() service.ScheduleStore {
	return &scheduleRepo{s: t.s, undo: t.undo}
}

func (t *txRepos) Appointments() service.AppointmentLedger {
	return &appointmentRepo{s: t.s, undo: t.undo}
}

func (t *txRepos) Notifications() service.NotificationInbox {
	return &notificationRepo{s: t.s, undo: t.undo}
}

// undoLog действия отката, выполняются под s.mu в обратном порядке
type undoLog struct {
	actions []func()
}

func (u *undoLog) push(action func()) {
	if u == nil {
		return
	}
	u.actions = append(u.actions, action)
}

func (u *undoLog) rollback() {
	for i := len(u.actions) - 1; i >= 0; i-- {
		u.actions[i]()
	}
	u.actions = nil
}

func lockNames(keys []model.SlotKey) []string {
	seen := make(map[string]struct{}, len(keys))
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k.String()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// slotLocks мьютексы по ключу слота, удаляются когда никто их не держит
type slotLocks struct {
	mu sync.Mutex
	m  map[string]*slotLock
}

type slotLock struct {
	mu   sync.Mutex
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{m: make(map[string]*slotLock)}
}

func (l *slotLocks) lock(name string) {
	l.mu.Lock()
	e, ok := l.m[name]
	if !ok {
		e = &slotLock{}
		l.m[name] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

func (l *slotLocks) unlock(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[name]
	if !ok {
		panic(fmt.Sprintf("memory: unlock of unlocked slot %s", name))
	}
	e.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.m, name)
	}
}
