package selection

import (
	"context"
	"fmt"
	"strconv"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"

	"github.com/berrythewa/xselq/internal/types"
)

// Options configures a Resolver
type Options struct {
	Policy     Policy
	CacheAtoms bool

	// NameFallback reads _NET_WM_NAME (UTF8_STRING) when the owner has no
	// WM_NAME of type STRING.
	NameFallback bool

	Logger *zap.Logger
}

// Resolver builds the owner and targets report for a selection
type Resolver struct {
	conn    Conn
	atoms   *AtomCodec
	props   *PropertyReader
	targets *TargetsRequester
	logger  *zap.Logger

	nameFallback bool
}

// NewResolver wires the atom codec, property reader and targets requester
// around conn
func NewResolver(conn Conn, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	atoms := NewAtomCodec(conn, logger, opts.CacheAtoms)
	return &Resolver{
		conn:         conn,
		atoms:        atoms,
		props:        NewPropertyReader(conn, logger),
		targets:      NewTargetsRequester(conn, atoms, opts.Policy, logger),
		logger:       logger,
		nameFallback: opts.NameFallback,
	}
}

// Atoms exposes the resolver's codec
func (r *Resolver) Atoms() *AtomCodec {
	return r.atoms
}

// Resolve queries the owner of the named selection, the owner's name and
// the targets it advertises. A selection without owner is not an error;
// a failed exchange with the server returns a *ProtocolError.
func (r *Resolver) Resolve(ctx context.Context, name string) (*types.SelectionResult, error) {
	atom, err := r.atoms.NameToAtom(name)
	if err != nil {
		return nil, err
	}
	result := &types.SelectionResult{
		Query: types.SelectionQuery{Name: name, Atom: atom},
	}

	owner, err := r.conn.GetSelectionOwner(atom)
	if err != nil {
		return nil, &ProtocolError{Op: "get selection owner", Name: name, Err: err}
	}
	if owner == xproto.WindowNone {
		r.logger.Debug("Selection has no owner", zap.String("selection", name))
		return result, nil
	}

	info := &types.OwnerInfo{
		Window:      owner,
		DisplayName: r.displayName(owner),
		Targets:     []types.TargetInfo{},
	}
	result.Owner = info

	if r.targets.RequestTargets(ctx, atom, owner) {
		info.Targets = r.readTargets(atom)
	}

	r.logger.Debug("Selection resolved",
		zap.String("selection", name),
		zap.Uint32("owner", uint32(owner)),
		zap.Int("targets", len(info.Targets)))
	return result, nil
}

// ResolveAll resolves names in order. A query that fails is reported as a
// degraded result and does not stop the batch.
func (r *Resolver) ResolveAll(ctx context.Context, names []string) []*types.SelectionResult {
	results := make([]*types.SelectionResult, 0, len(names))
	for _, name := range names {
		results = append(results, r.ResolveOne(ctx, name))
	}
	return results
}

// ResolveOne is Resolve with the error folded into the result
func (r *Resolver) ResolveOne(ctx context.Context, name string) *types.SelectionResult {
	result, err := r.Resolve(ctx, name)
	if err != nil {
		r.logger.Warn("Selection query failed", zap.String("selection", name), zap.Error(err))
		return &types.SelectionResult{
			Query: types.SelectionQuery{Name: name},
			Err:   err.Error(),
		}
	}
	return result
}

func (r *Resolver) displayName(owner xproto.Window) string {
	if name := r.props.ReadProperty(owner, xproto.AtomWmName, xproto.AtomString); len(name) > 0 {
		return string(name)
	}
	if !r.nameFallback {
		return ""
	}

	netName, err := r.atoms.NameToAtom("_NET_WM_NAME")
	if err != nil {
		return ""
	}
	utf8, err := r.atoms.NameToAtom("UTF8_STRING")
	if err != nil {
		return ""
	}
	return string(r.props.ReadProperty(owner, netName, utf8))
}

// readTargets decodes the ATOM array the owner stored on the proxy window
// and removes the property so a later query cannot see a stale value.
func (r *Resolver) readTargets(selection xproto.Atom) []types.TargetInfo {
	proxy := r.conn.ProxyWindow()
	raw := r.props.ReadProperty(proxy, selection, xproto.AtomAtom)

	atoms := decodeAtoms(raw)
	targets := make([]types.TargetInfo, 0, len(atoms))
	for _, atom := range atoms {
		name, err := r.atoms.AtomToName(atom)
		if err != nil {
			r.logger.Debug("Unnamed target atom", zap.Uint32("atom", uint32(atom)), zap.Error(err))
			name = placeholderName(atom)
		}
		targets = append(targets, types.TargetInfo{Atom: atom, Name: name})
	}

	r.conn.DeleteProperty(proxy, selection)
	if err := r.conn.Flush(); err != nil {
		r.logger.Warn("Flush after delete property failed", zap.Error(err))
	}
	return targets
}

// decodeAtoms splits raw into 32-bit atom ids, keeping their order.
// A trailing partial word is ignored.
func decodeAtoms(raw []byte) []xproto.Atom {
	atoms := make([]xproto.Atom, 0, len(raw)/4)
	for len(raw) >= 4 {
		atoms = append(atoms, xproto.Atom(xgb.Get32(raw)))
		raw = raw[4:]
	}
	return atoms
}

func placeholderName(atom xproto.Atom) string {
	return fmt.Sprintf("unknown(%d)", atom)
}

func atomLabel(atom xproto.Atom) string {
	return strconv.FormatUint(uint64(atom), 10)
}
