package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Wyydra/signalhub/internal/core/domain"
)

// fakeConn implements port.Conn and records everything sent to it.
type fakeConn struct {
	mu      sync.Mutex
	notices []domain.Notice
	closed  bool
}

func (c *fakeConn) Send(notice domain.Notice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, notice)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) noticesOfType(noticeType string) []domain.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Notice
	for _, n := range c.notices {
		if n.Type == noticeType {
			out = append(out, n)
		}
	}
	return out
}

func (c *fakeConn) lastNotice() (domain.Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.notices) == 0 {
		return domain.Notice{}, false
	}
	return c.notices[len(c.notices)-1], true
}

// fakeBackend implements port.CredentialBackend. Tokens in rejected are
// refused; everything else maps to itself.
type fakeBackend struct {
	rejected map[string]bool
}

func (b *fakeBackend) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if b.rejected[token] {
		return "", errors.New("token rejected")
	}
	return domain.Identity(token), nil
}

func newTestAuthenticator(registry *Registry, allowAnonymous bool) *Authenticator {
	return NewAuthenticator(&fakeBackend{}, registry, []string{"4.4"}, allowAnonymous)
}
