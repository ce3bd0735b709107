package selection

import (
	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"
)

// AtomCodec maps atom names to atom ids and back through the server
type AtomCodec struct {
	conn   Conn
	logger *zap.Logger

	cache bool
	atoms map[string]xproto.Atom
	names map[xproto.Atom]string
}

// NewAtomCodec creates a codec. With cache enabled each name and id is
// fetched from the server at most once per session.
func NewAtomCodec(conn Conn, logger *zap.Logger, cache bool) *AtomCodec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AtomCodec{
		conn:   conn,
		logger: logger,
		cache:  cache,
		atoms:  make(map[string]xproto.Atom),
		names:  make(map[xproto.Atom]string),
	}
}

// NameToAtom interns name with the server
func (c *AtomCodec) NameToAtom(name string) (xproto.Atom, error) {
	if c.cache {
		if atom, ok := c.atoms[name]; ok {
			return atom, nil
		}
	}

	atom, err := c.conn.InternAtom(name)
	if err != nil {
		return xproto.AtomNone, &ProtocolError{Op: "intern atom", Name: name, Err: err}
	}

	c.logger.Debug("Interned atom", zap.String("name", name), zap.Uint32("atom", uint32(atom)))
	c.remember(name, atom)
	return atom, nil
}

// AtomToName fetches the name of atom
func (c *AtomCodec) AtomToName(atom xproto.Atom) (string, error) {
	if c.cache {
		if name, ok := c.names[atom]; ok {
			return name, nil
		}
	}

	name, err := c.conn.GetAtomName(atom)
	if err != nil {
		return "", &ProtocolError{Op: "get atom name", Name: atomLabel(atom), Err: err}
	}

	c.remember(name, atom)
	return name, nil
}

func (c *AtomCodec) remember(name string, atom xproto.Atom) {
	if !c.cache || atom == xproto.AtomNone {
		return
	}
	c.atoms[name] = atom
	c.names[atom] = name
}
