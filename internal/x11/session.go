package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"

	"github.com/berrythewa/xselq/internal/selection"
)

// ErrConnect marks a failure to reach the X server. It is fatal to the run.
var ErrConnect = errors.New("cannot connect to X server")

var _ selection.Conn = (*Session)(nil)

// Session owns one X connection and the hidden proxy window used as the
// requestor of every selection conversion.
type Session struct {
	conn    *xgb.Conn
	screen  *xproto.ScreenInfo
	window  xproto.Window
	display string
	logger  *zap.Logger
}

// Open connects to display (empty means $DISPLAY) and creates the proxy
// window. The caller must Close the session.
func Open(display string, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := createProxyWindow(conn, screen, true)
	if err != nil {
		conn.Close()
		return nil, err
	}

	logger.Debug("X session opened",
		zap.String("display", display),
		zap.Uint32("root", uint32(screen.Root)),
		zap.Uint32("proxy", uint32(window)))

	return &Session{
		conn:    conn,
		screen:  screen,
		window:  window,
		display: display,
		logger:  logger,
	}, nil
}

// createProxyWindow makes a 1x1 override-redirect window on the default
// screen that listens for property changes.
func createProxyWindow(conn *xgb.Conn, screen *xproto.ScreenInfo, mapped bool) (xproto.Window, error) {
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}

	err = xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root,
		0, 0, 1, 1, 0, xproto.WindowClassCopyFromParent, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{screen.BlackPixel, 1, xproto.EventMaskPropertyChange},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create proxy window: %w", err)
	}

	if mapped {
		xproto.MapWindow(conn, window)
	}
	return window, nil
}

// Close destroys the proxy window and closes the connection
func (s *Session) Close() {
	if s == nil || s.conn == nil {
		return
	}
	xproto.DestroyWindow(s.conn, s.window)
	s.conn.Close()
	s.conn = nil
	s.logger.Debug("X session closed", zap.Uint32("proxy", uint32(s.window)))
}

// Display returns the display name the session was opened with
func (s *Session) Display() string {
	return s.display
}

// ProxyWindow returns the requestor window id
func (s *Session) ProxyWindow() xproto.Window {
	return s.window
}

func (s *Session) InternAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(s.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone, err
	}
	if reply == nil {
		return xproto.AtomNone, selection.ErrNoReply
	}
	return reply.Atom, nil
}

func (s *Session) GetAtomName(atom xproto.Atom) (string, error) {
	reply, err := xproto.GetAtomName(s.conn, atom).Reply()
	if err != nil {
		return "", err
	}
	if reply == nil {
		return "", selection.ErrNoReply
	}
	return reply.Name, nil
}

func (s *Session) GetSelectionOwner(sel xproto.Atom) (xproto.Window, error) {
	reply, err := xproto.GetSelectionOwner(s.conn, sel).Reply()
	if err != nil {
		return xproto.WindowNone, err
	}
	if reply == nil {
		return xproto.WindowNone, selection.ErrNoReply
	}
	return reply.Owner, nil
}

func (s *Session) ConvertSelection(requestor xproto.Window, sel, target, property xproto.Atom, time xproto.Timestamp) {
	xproto.ConvertSelection(s.conn, requestor, sel, target, property, time)
}

func (s *Session) GetProperty(del bool, window xproto.Window, property, propType xproto.Atom, offset, length uint32) (*xproto.GetPropertyReply, error) {
	reply, err := xproto.GetProperty(s.conn, del, window, property, propType, offset, length).Reply()
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, selection.ErrNoReply
	}
	return reply, nil
}

func (s *Session) DeleteProperty(window xproto.Window, property xproto.Atom) {
	xproto.DeleteProperty(s.conn, window, property)
}

// PollForEvent returns the next queued event without blocking
func (s *Session) PollForEvent() (xgb.Event, error) {
	ev, xerr := s.conn.PollForEvent()
	if xerr != nil {
		return ev, xerr
	}
	return ev, nil
}

// Flush waits until every request issued so far has reached the server.
// xgb writes requests from its own goroutine, so a cheap round trip is
// what guarantees delivery.
func (s *Session) Flush() error {
	if _, err := xproto.GetInputFocus(s.conn).Reply(); err != nil {
		return fmt.Errorf("failed to sync with X server: %w", err)
	}
	return nil
}
