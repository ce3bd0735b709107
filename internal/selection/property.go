package selection

import (
	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"
)

// propertyMaxWords caps every property read. Longer values are truncated
// to 32 * 4 bytes; a TARGETS list therefore holds at most 32 atoms.
const propertyMaxWords = 32

// PropertyReader fetches raw window property values
type PropertyReader struct {
	conn   Conn
	logger *zap.Logger
}

// NewPropertyReader creates a PropertyReader
func NewPropertyReader(conn Conn, logger *zap.Logger) *PropertyReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyReader{conn: conn, logger: logger}
}

// ReadProperty returns the value of property on window, or an empty slice
// when the property is missing, unreadable or not of expectedType.
// It never deletes the property.
func (p *PropertyReader) ReadProperty(window xproto.Window, property, expectedType xproto.Atom) []byte {
	reply, err := p.conn.GetProperty(false, window, property, expectedType, 0, propertyMaxWords)
	if err != nil {
		p.logger.Debug("Property read failed",
			zap.Uint32("window", uint32(window)),
			zap.Uint32("property", uint32(property)),
			zap.Error(err))
		return []byte{}
	}
	if reply == nil || reply.Type != expectedType {
		return []byte{}
	}

	if reply.BytesAfter > 0 {
		p.logger.Debug("Property value truncated",
			zap.Uint32("window", uint32(window)),
			zap.Uint32("property", uint32(property)),
			zap.Uint32("bytes_after", reply.BytesAfter))
	}

	value := make([]byte, len(reply.Value))
	copy(value, reply.Value)
	return value
}
