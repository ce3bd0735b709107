package cmd

import (
	"errors"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"

	"github.com/berrythewa/xselq/internal/x11"
)

type fakeOwner struct {
	window  xproto.Window
	name    string
	targets []string
	silent  bool
}

// fakeSession plays the X server for command tests
type fakeSession struct {
	display string
	owners  map[string]fakeOwner
	broken  map[string]bool

	atoms  map[string]xproto.Atom
	names  map[xproto.Atom]string
	props  map[xproto.Atom][]byte
	events []xgb.Event
	closed bool
}

func newFakeSession(owners map[string]fakeOwner) *fakeSession {
	return &fakeSession{
		display: ":42",
		owners:  owners,
		broken:  map[string]bool{},
		atoms:   map[string]xproto.Atom{},
		names:   map[xproto.Atom]string{},
		props:   map[xproto.Atom][]byte{},
	}
}

func (s *fakeSession) atom(name string) xproto.Atom {
	if a, ok := s.atoms[name]; ok {
		return a
	}
	a := xproto.Atom(100 + len(s.atoms))
	s.atoms[name] = a
	s.names[a] = name
	return a
}

func (s *fakeSession) InternAtom(name string) (xproto.Atom, error) {
	if s.broken[name] {
		return 0, errors.New("no reply")
	}
	return s.atom(name), nil
}

func (s *fakeSession) GetAtomName(atom xproto.Atom) (string, error) {
	if name, ok := s.names[atom]; ok {
		return name, nil
	}
	return "", errors.New("BadAtom")
}

func (s *fakeSession) GetSelectionOwner(sel xproto.Atom) (xproto.Window, error) {
	return s.owners[s.names[sel]].window, nil
}

func (s *fakeSession) ConvertSelection(requestor xproto.Window, sel, target, property xproto.Atom, time xproto.Timestamp) {
	owner := s.owners[s.names[sel]]
	if owner.silent {
		return
	}
	buf := make([]byte, 4*len(owner.targets))
	for i, t := range owner.targets {
		xgb.Put32(buf[i*4:], uint32(s.atom(t)))
	}
	s.props[property] = buf
	s.events = append(s.events, xproto.SelectionNotifyEvent{
		Requestor: requestor, Selection: sel, Target: target, Property: property,
	})
}

func (s *fakeSession) GetProperty(del bool, window xproto.Window, property, propType xproto.Atom, offset, length uint32) (*xproto.GetPropertyReply, error) {
	if window == s.ProxyWindow() {
		if v, ok := s.props[property]; ok && propType == xproto.AtomAtom {
			return &xproto.GetPropertyReply{Type: xproto.AtomAtom, Format: 32, Value: v}, nil
		}
		return &xproto.GetPropertyReply{}, nil
	}
	for _, o := range s.owners {
		if o.window == window && property == xproto.AtomWmName && propType == xproto.AtomString && o.name != "" {
			return &xproto.GetPropertyReply{Type: xproto.AtomString, Format: 8, Value: []byte(o.name)}, nil
		}
	}
	return &xproto.GetPropertyReply{}, nil
}

func (s *fakeSession) DeleteProperty(window xproto.Window, property xproto.Atom) {
	delete(s.props, property)
}

func (s *fakeSession) PollForEvent() (xgb.Event, error) {
	if len(s.events) == 0 {
		return nil, nil
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *fakeSession) Flush() error               { return nil }
func (s *fakeSession) ProxyWindow() xproto.Window { return 0x400001 }
func (s *fakeSession) Display() string            { return s.display }
func (s *fakeSession) Close()                     { s.closed = true }

// fakeWatcher replays a fixed list of ownership changes
type fakeWatcher struct {
	atoms   func(string) xproto.Atom
	watched []xproto.Atom
	changes chan x11.OwnerChange
	closed  bool
}

func (w *fakeWatcher) Atom(name string) (xproto.Atom, error) { return w.atoms(name), nil }

func (w *fakeWatcher) Watch(sel xproto.Atom) error {
	w.watched = append(w.watched, sel)
	return nil
}

func (w *fakeWatcher) Changes() <-chan x11.OwnerChange { return w.changes }
func (w *fakeWatcher) Close()                          { w.closed = true }

// useFakes installs session, watcher and store factories for one test
func useFakes(t interface{ Cleanup(func()) }, session *fakeSession, watcher *fakeWatcher) {
	origSession, origWatcher := openSession, openWatcher
	t.Cleanup(func() {
		openSession, openWatcher = origSession, origWatcher
	})

	openSession = func(string, *zap.Logger) (querySession, error) {
		if session == nil {
			return nil, x11.ErrConnect
		}
		return session, nil
	}
	openWatcher = func(string, *zap.Logger) (ownerWatcher, error) {
		if watcher == nil {
			return nil, errors.New("no xfixes")
		}
		return watcher, nil
	}
}
