package selection

import (
	"errors"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

type propKey struct {
	window   xproto.Window
	property xproto.Atom
}

type fakeProp struct {
	typ   xproto.Atom
	value []byte
}

type convertCall struct {
	requestor xproto.Window
	selection xproto.Atom
	target    xproto.Atom
	property  xproto.Atom
	time      xproto.Timestamp
}

type getPropCall struct {
	delete bool
	key    propKey
	typ    xproto.Atom
	offset uint32
	length uint32
}

// fakeConn is an in-memory X server good enough for the selection core
type fakeConn struct {
	proxy xproto.Window

	atoms map[string]xproto.Atom
	names map[xproto.Atom]string
	next  xproto.Atom

	failIntern map[string]bool
	failName   map[xproto.Atom]bool
	ownerErr   error

	owners map[xproto.Atom]xproto.Window
	props  map[propKey]fakeProp
	events []xgb.Event

	onConvert func(f *fakeConn, c convertCall)

	converts    []convertCall
	deletes     []propKey
	getProps    []getPropCall
	internCalls int
	nameCalls   int
	polls       int
	flushes     int
}

func newFakeConn() *fakeConn {
	f := &fakeConn{
		proxy:      0x400001,
		atoms:      make(map[string]xproto.Atom),
		names:      make(map[xproto.Atom]string),
		next:       300,
		failIntern: make(map[string]bool),
		failName:   make(map[xproto.Atom]bool),
		owners:     make(map[xproto.Atom]xproto.Window),
		props:      make(map[propKey]fakeProp),
	}
	for name, atom := range map[string]xproto.Atom{
		"PRIMARY":   xproto.AtomPrimary,
		"SECONDARY": xproto.AtomSecondary,
		"ATOM":      xproto.AtomAtom,
		"STRING":    xproto.AtomString,
		"WM_NAME":   xproto.AtomWmName,
	} {
		f.atoms[name] = atom
		f.names[atom] = name
	}
	return f
}

func (f *fakeConn) atom(name string) xproto.Atom {
	if atom, ok := f.atoms[name]; ok {
		return atom
	}
	f.next++
	f.atoms[name] = f.next
	f.names[f.next] = name
	return f.next
}

func (f *fakeConn) InternAtom(name string) (xproto.Atom, error) {
	f.internCalls++
	if f.failIntern[name] {
		return xproto.AtomNone, ErrNoReply
	}
	return f.atom(name), nil
}

func (f *fakeConn) GetAtomName(atom xproto.Atom) (string, error) {
	f.nameCalls++
	if f.failName[atom] {
		return "", errors.New("BadAtom")
	}
	name, ok := f.names[atom]
	if !ok {
		return "", errors.New("BadAtom")
	}
	return name, nil
}

func (f *fakeConn) GetSelectionOwner(selection xproto.Atom) (xproto.Window, error) {
	if f.ownerErr != nil {
		return xproto.WindowNone, f.ownerErr
	}
	return f.owners[selection], nil
}

func (f *fakeConn) ConvertSelection(requestor xproto.Window, selection, target, property xproto.Atom, time xproto.Timestamp) {
	c := convertCall{requestor, selection, target, property, time}
	f.converts = append(f.converts, c)
	if f.onConvert != nil {
		f.onConvert(f, c)
	}
}

func (f *fakeConn) GetProperty(delete bool, window xproto.Window, property, propType xproto.Atom, offset, length uint32) (*xproto.GetPropertyReply, error) {
	key := propKey{window, property}
	f.getProps = append(f.getProps, getPropCall{delete, key, propType, offset, length})

	p, ok := f.props[key]
	if !ok {
		return &xproto.GetPropertyReply{Type: xproto.AtomNone}, nil
	}
	if p.typ != propType {
		return &xproto.GetPropertyReply{Type: p.typ, Format: 8, BytesAfter: uint32(len(p.value))}, nil
	}

	value := p.value
	var after uint32
	if max := int(length) * 4; len(value) > max {
		after = uint32(len(value) - max)
		value = value[:max]
	}
	return &xproto.GetPropertyReply{
		Type:       p.typ,
		Format:     8,
		BytesAfter: after,
		ValueLen:   uint32(len(value)),
		Value:      value,
	}, nil
}

func (f *fakeConn) DeleteProperty(window xproto.Window, property xproto.Atom) {
	key := propKey{window, property}
	f.deletes = append(f.deletes, key)
	delete(f.props, key)
}

func (f *fakeConn) PollForEvent() (xgb.Event, error) {
	f.polls++
	if len(f.events) == 0 {
		return nil, nil
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, nil
}

func (f *fakeConn) Flush() error {
	f.flushes++
	return nil
}

func (f *fakeConn) ProxyWindow() xproto.Window {
	return f.proxy
}

func (f *fakeConn) setString(window xproto.Window, property xproto.Atom, value string) {
	f.props[propKey{window, property}] = fakeProp{typ: xproto.AtomString, value: []byte(value)}
}

// own makes window the owner of selection and answers TARGETS requests
// with targets, the way a well-behaved client would.
func (f *fakeConn) own(selection string, window xproto.Window, targets ...string) {
	sel := f.atom(selection)
	f.owners[sel] = window

	previous := f.onConvert
	f.onConvert = func(f *fakeConn, c convertCall) {
		if c.selection != sel {
			if previous != nil {
				previous(f, c)
			}
			return
		}
		atoms := make([]xproto.Atom, 0, len(targets))
		for _, t := range targets {
			atoms = append(atoms, f.atom(t))
		}
		f.props[propKey{c.requestor, c.property}] = fakeProp{typ: xproto.AtomAtom, value: encodeAtoms(atoms)}
		f.events = append(f.events, xproto.SelectionNotifyEvent{
			Requestor: c.requestor,
			Selection: c.selection,
			Target:    c.target,
			Property:  c.property,
		})
	}
}

// ownSilently makes window the owner of selection without ever answering
func (f *fakeConn) ownSilently(selection string, window xproto.Window) {
	f.owners[f.atom(selection)] = window
}

func encodeAtoms(atoms []xproto.Atom) []byte {
	buf := make([]byte, 4*len(atoms))
	for i, a := range atoms {
		xgb.Put32(buf[i*4:], uint32(a))
	}
	return buf
}
