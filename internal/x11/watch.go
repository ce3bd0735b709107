package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"
)

const (
	xfixesMajorVersion = 5
	xfixesMinorVersion = 0

	ownerEventMask = xfixes.SelectionEventMaskSetSelectionOwner |
		xfixes.SelectionEventMaskSelectionWindowDestroy |
		xfixes.SelectionEventMaskSelectionClientClose
)

// OwnerChange reports that a watched selection changed hands
type OwnerChange struct {
	Selection xproto.Atom
	Owner     xproto.Window
	Reason    string
}

// Watcher listens for selection ownership changes through XFixes.
// It uses its own connection so its events never reach a Session's
// TARGETS poll loop.
type Watcher struct {
	conn   *xgb.Conn
	window xproto.Window
	logger *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher connects to display and negotiates the XFixes extension
func NewWatcher(display string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if err := xfixes.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("xfixes init: %w", err)
	}
	version, err := xfixes.QueryVersion(conn, xfixesMajorVersion, xfixesMinorVersion).Reply()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("xfixes version handshake: %w", err)
	}
	if version.MajorVersion < xfixesMajorVersion {
		conn.Close()
		return nil, fmt.Errorf("x11 xfixes extension is too old: %d.%d", version.MajorVersion, version.MinorVersion)
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := createProxyWindow(conn, screen, false)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Watcher{conn: conn, window: window, logger: logger, done: make(chan struct{})}, nil
}

// Atom interns name on the watcher connection
func (w *Watcher) Atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(w.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone, fmt.Errorf("no %s atom: %w", name, err)
	}
	return reply.Atom, nil
}

// Watch subscribes to ownership changes of sel
func (w *Watcher) Watch(sel xproto.Atom) error {
	if err := xfixes.SelectSelectionInputChecked(w.conn, w.window, sel, ownerEventMask).Check(); err != nil {
		return fmt.Errorf("failed to select selection events: %w", err)
	}
	return nil
}

// Changes streams ownership changes until the watcher is closed
func (w *Watcher) Changes() <-chan OwnerChange {
	ch := make(chan OwnerChange)
	conn := w.conn
	go func() {
		defer close(ch)
		for {
			ev, err := conn.WaitForEvent()
			if err != nil {
				w.logger.Debug("X error while watching", zap.Error(err))
				continue
			}
			if ev == nil {
				return
			}

			notify, ok := ev.(xfixes.SelectionNotifyEvent)
			if !ok {
				continue
			}
			change := OwnerChange{
				Selection: notify.Selection,
				Owner:     notify.Owner,
				Reason:    changeReason(notify.Subtype),
			}
			select {
			case ch <- change:
			case <-w.done:
				return
			}
		}
	}()
	return ch
}

// Close releases the watcher; Changes drains and closes afterwards
func (w *Watcher) Close() {
	if w == nil || w.conn == nil {
		return
	}
	w.closeOnce.Do(func() {
		close(w.done)
		xproto.DestroyWindow(w.conn, w.window)
		w.conn.Close()
	})
}

func changeReason(subtype byte) string {
	switch subtype {
	case xfixes.SelectionEventSetSelectionOwner:
		return "owner-changed"
	case xfixes.SelectionEventSelectionWindowDestroy:
		return "owner-destroyed"
	case xfixes.SelectionEventSelectionClientClose:
		return "owner-closed"
	default:
		return "unknown"
	}
}
