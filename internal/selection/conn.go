package selection

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Conn is the slice of the X transport the selection core consumes.
// Implemented by x11.Session; tests use an in-memory fake.
type Conn interface {
	InternAtom(name string) (xproto.Atom, error)
	GetAtomName(atom xproto.Atom) (string, error)
	GetSelectionOwner(selection xproto.Atom) (xproto.Window, error)

	// ConvertSelection has no reply; completion arrives as a
	// SelectionNotify event on the requestor window.
	ConvertSelection(requestor xproto.Window, selection, target, property xproto.Atom, time xproto.Timestamp)

	GetProperty(delete bool, window xproto.Window, property, propType xproto.Atom, offset, length uint32) (*xproto.GetPropertyReply, error)
	DeleteProperty(window xproto.Window, property xproto.Atom)

	// PollForEvent never blocks. Both return values are nil when the
	// queue is empty.
	PollForEvent() (xgb.Event, error)
	Flush() error

	ProxyWindow() xproto.Window
}
