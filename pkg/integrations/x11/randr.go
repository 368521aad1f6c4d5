package x11

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/refreshmon/refreshmon/pkg/display"
)

// Backend implements display.Backend on top of the RandR extension
type Backend struct {
	mu       sync.Mutex
	conn     *xgb.Conn
	root     xproto.Window
	edidAtom xproto.Atom
	initErr  error
}

// outputState is one connected output with its resolved modes
type outputState struct {
	id      randr.Output
	name    string
	label   string
	crtc    randr.Crtc
	modes   []randr.Mode
	current randr.Mode
	err     error // set when the output's replies failed; the other outputs stay usable
}

// NewBackend connects to the X server named by $DISPLAY. Connection errors are
// kept and reported through IsAvailable and Outputs.
func NewBackend() *Backend {
	b := &Backend{}

	conn, err := xgb.NewConn()
	if err != nil {
		b.initErr = errors.Wrap(err, "connect to X server")
		return b
	}

	if err := randr.Init(conn); err != nil {
		conn.Close()
		b.initErr = errors.Wrap(err, "initialize RandR extension")
		return b
	}

	version, err := randr.QueryVersion(conn, 1, 3).Reply()
	if err != nil {
		conn.Close()
		b.initErr = errors.Wrap(err, "query RandR version")
		return b
	}
	if version.MajorVersion < 1 || (version.MajorVersion == 1 && version.MinorVersion < 3) {
		conn.Close()
		b.initErr = fmt.Errorf("RandR %d.%d is too old, 1.3 required", version.MajorVersion, version.MinorVersion)
		return b
	}

	b.conn = conn
	b.root = xproto.Setup(conn).DefaultScreen(conn).Root

	name := "EDID"
	if reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply(); err == nil {
		b.edidAtom = reply.Atom
	}

	return b
}

// Name returns "x11"
func (b *Backend) Name() string {
	return "x11"
}

// IsAvailable reports whether the X server connection is usable
func (b *Backend) IsAvailable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Outputs returns every connected output that is driven by a CRTC
func (b *Backend) Outputs() ([]display.Output, error) {
	states, _, err := b.query()
	if err != nil {
		return nil, err
	}

	outputs := make([]display.Output, 0, len(states))
	for _, st := range states {
		outputs = append(outputs, display.Output{ID: st.name, Label: st.label})
	}
	return outputs, nil
}

// CurrentMode returns the mode the output's CRTC is currently using
func (b *Backend) CurrentMode(id string) (display.Mode, error) {
	states, modes, err := b.query()
	if err != nil {
		return display.Mode{}, err
	}
	return currentMode(states, modes, id)
}

// Modes returns every mode the output advertises
func (b *Backend) Modes(id string) ([]display.Mode, error) {
	states, modes, err := b.query()
	if err != nil {
		return nil, err
	}
	return outputModes(states, modes, id)
}

func findOutput(states []outputState, id string) (outputState, error) {
	for _, st := range states {
		if st.name == id {
			return st, st.err
		}
	}
	return outputState{}, display.ErrNotFound
}

func currentMode(states []outputState, modes map[uint32]randr.ModeInfo, id string) (display.Mode, error) {
	st, err := findOutput(states, id)
	if err != nil {
		return display.Mode{}, err
	}
	info, ok := modes[uint32(st.current)]
	if !ok {
		return display.Mode{}, fmt.Errorf("current mode %d of %s not in screen resources", st.current, id)
	}
	return toMode(info), nil
}

func outputModes(states []outputState, modes map[uint32]randr.ModeInfo, id string) ([]display.Mode, error) {
	st, err := findOutput(states, id)
	if err != nil {
		return nil, err
	}
	result := make([]display.Mode, 0, len(st.modes))
	for _, m := range st.modes {
		if info, ok := modes[uint32(m)]; ok {
			result = append(result, toMode(info))
		}
	}
	return result, nil
}

// Bell rings the X keyboard bell at the given volume percent (-100..100)
func (b *Backend) Bell(percent int8) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		if b.initErr != nil {
			return b.initErr
		}
		return errors.New("X connection closed")
	}
	if err := xproto.BellChecked(b.conn, percent).Check(); err != nil {
		return errors.Wrap(err, "ring X bell")
	}
	return nil
}

// Close closes the X connection
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	return nil
}

// query reads the current screen resources and resolves active outputs
func (b *Backend) query() ([]outputState, map[uint32]randr.ModeInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		if b.initErr != nil {
			return nil, nil, b.initErr
		}
		return nil, nil, errors.New("X connection closed")
	}

	res, err := randr.GetScreenResourcesCurrent(b.conn, b.root).Reply()
	if err != nil {
		return nil, nil, errors.Wrap(err, "get screen resources")
	}

	modes := make(map[uint32]randr.ModeInfo, len(res.Modes))
	for _, m := range res.Modes {
		modes[m.Id] = m
	}

	var states []outputState
	for _, out := range res.Outputs {
		info, err := randr.GetOutputInfo(b.conn, out, res.ConfigTimestamp).Reply()
		if err != nil {
			// an output unplugged since the resources were read
			states = append(states, outputState{
				id:   out,
				name: fmt.Sprintf("output-%d", out),
				err:  errors.Wrapf(err, "get output info %d", out),
			})
			continue
		}
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}

		crtc, err := randr.GetCrtcInfo(b.conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			states = append(states, outputState{
				id:   out,
				name: string(info.Name),
				crtc: info.Crtc,
				err:  errors.Wrapf(err, "get crtc info %d of %s", info.Crtc, info.Name),
			})
			continue
		}
		if crtc.Mode == 0 {
			continue
		}

		states = append(states, outputState{
			id:      out,
			name:    string(info.Name),
			label:   b.monitorName(out),
			crtc:    info.Crtc,
			modes:   info.Modes,
			current: crtc.Mode,
		})
	}

	return states, modes, nil
}

// monitorName reads the EDID property of an output and extracts the model name
func (b *Backend) monitorName(out randr.Output) string {
	if b.edidAtom == 0 {
		return ""
	}
	reply, err := randr.GetOutputProperty(b.conn, out, b.edidAtom, xproto.GetPropertyTypeAny, 0, 64, false, false).Reply()
	if err != nil || reply == nil {
		return ""
	}
	return parseEDIDName(reply.Data)
}

func toMode(info randr.ModeInfo) display.Mode {
	return display.Mode{
		Width:  int(info.Width),
		Height: int(info.Height),
		RefreshHz: display.RateFromTimings(
			info.DotClock,
			info.Htotal,
			info.Vtotal,
			info.ModeFlags&randr.ModeFlagInterlace != 0,
			info.ModeFlags&randr.ModeFlagDoubleScan != 0,
		),
	}
}

// parseEDIDName returns the monitor name descriptor (tag 0xFC) of an EDID block
func parseEDIDName(edid []byte) string {
	if len(edid) < 128 {
		return ""
	}
	for offset := 54; offset+18 <= 126; offset += 18 {
		desc := edid[offset : offset+18]
		if desc[0] != 0 || desc[1] != 0 || desc[3] != 0xFC {
			continue
		}
		name := desc[5:]
		if i := bytes.IndexByte(name, '\n'); i >= 0 {
			name = name[:i]
		}
		return string(bytes.TrimSpace(name))
	}
	return ""
}
