package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrAccountLocked is returned when another loader holds the account.
var ErrAccountLocked = errors.New("account is locked by another loader")

// Compare-and-delete / compare-and-expire so a loader never touches a lock it
// no longer owns.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

func accountLockKey(chainID uint64, account string) string {
	return fmt.Sprintf("merchantloader:lock:%d:%s", chainID, strings.ToLower(account))
}

// AccountLock is a held lock on one signing account. It refreshes itself in
// the background until released.
type AccountLock struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration

	// refreshFn extends the lock; it reports false when the key is no longer ours.
	refreshFn func(ctx context.Context) (bool, error)
	now       func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
	lost   chan struct{}
	once   sync.Once
}

// AcquireAccountLock takes the lock for account on chainID. token identifies
// the holder (the run ID).
func (c *Client) AcquireAccountLock(
	ctx context.Context,
	chainID uint64,
	account, token string,
) (*AccountLock, error) {
	key := accountLockKey(chainID, account)
	ok, err := c.rdb.SetNX(ctx, key, token, c.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("setnx failed: %w", err)
	}
	if !ok {
		holder, _ := c.rdb.Get(ctx, key).Result()
		return nil, fmt.Errorf("%w (holder %s)", ErrAccountLocked, holder)
	}

	l := &AccountLock{
		client: c,
		key:    key,
		token:  token,
		ttl:    c.lockTTL,
		now:    time.Now,
		lost:   make(chan struct{}),
	}
	l.refreshFn = l.refresh
	l.start()
	return l, nil
}

// Lost is closed once the lock may have expired or been taken over: the key
// belongs to someone else, or no refresh has succeeded for a full TTL.
func (l *AccountLock) Lost() <-chan struct{} {
	return l.lost
}

func (l *AccountLock) start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.wg.Add(1)
	go l.refreshLoop(ctx)
}

func (l *AccountLock) stop() {
	l.cancel()
	l.wg.Wait()
}

func (l *AccountLock) markLost() {
	l.once.Do(func() { close(l.lost) })
}

func (l *AccountLock) refreshLoop(ctx context.Context) {
	defer l.wg.Done()

	interval := l.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastOK := l.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		refreshCtx, cancel := context.WithTimeout(ctx, interval)
		ok, err := l.refreshFn(refreshCtx)
		cancel()

		switch {
		case err == nil && ok:
			lastOK = l.now()
		case err == nil:
			slog.Error("Account lock taken over", "key", l.key)
			l.markLost()
			return
		case ctx.Err() != nil:
			return
		default:
			if l.now().Sub(lastOK) >= l.ttl {
				slog.Error("Account lock expired while Redis was unreachable", "key", l.key, "error", err)
				l.markLost()
				return
			}
			slog.Warn("Failed to refresh account lock", "key", l.key, "error", err)
		}
	}
}

func (l *AccountLock) refresh(ctx context.Context) (bool, error) {
	n, err := refreshScript.Run(ctx, l.client.rdb, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release stops refreshing and deletes the lock if still owned.
func (l *AccountLock) Release(ctx context.Context) error {
	l.stop()

	if err := releaseScript.Run(ctx, l.client.rdb, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
