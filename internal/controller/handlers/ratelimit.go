package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type userLimit struct {
	lim  *rate.Limiter
	seen time.Time
}

// UserLimiter ограничивает частоту команд записи и отмены для каждого пользователя
type UserLimiter struct {
	mu      sync.Mutex
	clients map[int64]*userLimit
	r       rate.Limit
	burst   int
	now     func() time.Time
}

// NewUserLimiter perMinute команд в минуту, столько же разрешено подряд
func NewUserLimiter(perMinute int) *UserLimiter {
	return &UserLimiter{
		clients: make(map[int64]*userLimit),
		r:       rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		now:     time.Now,
	}
}

// Allow тратит один токен пользователя
func (l *UserLimiter) Allow(telegramID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	c, ok := l.clients[telegramID]
	if !ok {
		c = &userLimit{lim: rate.NewLimiter(l.r, l.burst)}
		l.clients[telegramID] = c
	}
	c.seen = now

	return c.lim.AllowN(now, 1)
}

// evict убирает давно неактивных пользователей, вызывается под mu
func (l *UserLimiter) evict(now time.Time) {
	for id, c := range l.clients {
		if now.Sub(c.seen) > limiterIdleTTL {
			delete(l.clients, id)
		}
	}
}
