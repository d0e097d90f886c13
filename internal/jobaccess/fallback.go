package jobaccess

import (
	"fmt"

	"github.com/aidino/aicode-reviewer-sub001/internal/ipc"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
)

// Session bundles a job access handle with the cleanup for whichever
// transport backs it. Direct is true when the daemon was unreachable and
// the session talks to the store file itself; cancelling a running job in
// that mode only sets the database flag, since no manager token exists to
// flip.
type Session struct {
	Access Access
	Direct bool
	close  func() error
}

// Close releases the IPC connection or store handle behind the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback prefers the daemon's IPC socket and degrades to opening
// the job store directly when the dial fails. A nil dial skips straight to
// the store.
func OpenWithFallback(
	dial func() (*ipc.Client, error),
	openStore func() (*queue.Store, error),
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{Access: NewIPCAccess(client), close: client.Close}, nil
		}
	}
	if openStore == nil {
		return Session{}, fmt.Errorf("open job store: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open job store: %w", err)
	}
	return Session{Access: NewStoreAccess(store), Direct: true, close: store.Close}, nil
}
