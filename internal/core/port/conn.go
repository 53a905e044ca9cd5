package port

import "github.com/Wyydra/signalhub/internal/core/domain"

// Conn is a live transport channel owned by at most one identity. Send is
// fire-and-forget: the core never awaits a recipient-side ack.
type Conn interface {
	Send(notice domain.Notice) error
	Close() error
}
