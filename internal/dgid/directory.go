// Package dgid builds and holds the fixed 100-slot DG-ID directory: the
// table mapping DG-ID 1..99 to a backend binding plus per-slot policy.
package dgid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgidgateway/dgidgateway/internal/backend"
	"github.com/dgidgateway/dgidgateway/internal/backend/fcs"
	"github.com/dgidgateway/dgidgateway/internal/backend/imrs"
	"github.com/dgidgateway/dgidgateway/internal/backend/ysf"
	"github.com/dgidgateway/dgidgateway/internal/config"
	"github.com/dgidgateway/dgidgateway/internal/locator"
	"github.com/dgidgateway/dgidgateway/internal/logging"
	"github.com/dgidgateway/dgidgateway/internal/modemask"
	"github.com/dgidgateway/dgidgateway/internal/netio"
	"github.com/dgidgateway/dgidgateway/internal/reflectors"
)

// Binding is the per-slot directory entry described by the data model.
type Binding struct {
	Kind         backend.Kind
	Backend      backend.Backend
	Static       bool
	RFHangMS     uint32
	NetHangMS    uint32
	AllowedModes modemask.ModeMask
	Description  string
}

// Table is the fixed 100-entry directory; index 0 is always nil.
type Table struct {
	Slots [100]*Binding

	// imrsBackend is the single owned IMRS instance; every IMRS-typed
	// slot's Binding.Backend aliases it. nil if no IMRS slots exist.
	imrsBackend backend.Backend
}

// IMRSBackend returns the shared IMRS backend instance, or nil.
func (t *Table) IMRSBackend() backend.Backend { return t.imrsBackend }

// SetIMRSBackend overrides the shared IMRS backend instance. Exposed for
// tests that assemble a Table by hand instead of through Build.
func (t *Table) SetIMRSBackend(be backend.Backend) { t.imrsBackend = be }

// Build constructs the directory from configuration. refl resolves a
// plain-YSF slot's address by name against the reflector hosts file when
// the entry gives no literal address; it may be nil if no such slot needs
// name resolution. Per-slot failures (unknown type, unresolvable address,
// bad IMRS destination list) leave that slot empty and log a warning
// instead of aborting; only a malformed DG-ID key is treated as a
// configuration error. Build opens no backend: open failures are handled
// by Table.Open.
func Build(entries map[string]config.DGIdEntry, identity config.Identity, refl *reflectors.Directory, log *logging.Logger) (*Table, error) {
	callsign := identity.Callsign
	gridLocator := locator.Calculate(identity.Latitude, identity.Longitude)
	t := &Table{}

	var imrsEntries []struct {
		dgid  int
		entry config.DGIdEntry
	}

	for key, entry := range entries {
		dgidNum, err := strconv.Atoi(key)
		if err != nil || dgidNum < 1 || dgidNum > 99 {
			return nil, fmt.Errorf("dgid: invalid slot key %q", key)
		}

		kind, ok := parseKind(entry.Type)
		if !ok {
			log.Warn("dgid: unknown backend type, skipping slot", logging.Int("dgid", dgidNum), logging.String("type", entry.Type))
			continue
		}

		if kind == backend.KindIMRS {
			imrsEntries = append(imrsEntries, struct {
				dgid  int
				entry config.DGIdEntry
			}{dgidNum, entry})
			continue
		}

		modes := backend.DefaultModes(kind)
		rfHangMS := uint32(entry.RFHangSeconds) * 1000
		netHangMS := uint32(entry.NetHangSeconds) * 1000

		var be backend.Backend
		switch kind {
		case backend.KindFCS:
			peer, err := fcs.New(fcs.Params{
				DGID: uint8(dgidNum), Desc: entry.Name, Modes: modes,
				Static: entry.Static, RFHangMS: rfHangMS, NetHangMS: netHangMS,
				Callsign: callsign, Locator: gridLocator, Address: entry.Address, Port: entry.Port, Log: log,
			})
			if err != nil {
				log.Warn("dgid: address unresolvable, skipping slot", logging.Int("dgid", dgidNum), logging.Err(err))
				continue
			}
			be = peer
		default: // YSF, Parrot, YSF2DMR, YSF2NXDN, YSF2P25 are all plain YSF peers
			address, port := entry.Address, entry.Port
			if kind == backend.KindYSF && address == "" && refl != nil {
				r, ok := refl.Lookup(entry.Name)
				if !ok {
					log.Warn("dgid: reflector name not found, skipping slot", logging.Int("dgid", dgidNum), logging.String("name", entry.Name))
					continue
				}
				address, port = r.Address, r.Port
			}
			peer, err := ysf.New(ysf.Params{
				DGID: uint8(dgidNum), Desc: entry.Name, Modes: modes,
				Static: entry.Static, RFHangMS: rfHangMS, NetHangMS: netHangMS,
				Callsign: callsign, Address: address, Port: port, Log: log,
			})
			if err != nil {
				log.Warn("dgid: address unresolvable, skipping slot", logging.Int("dgid", dgidNum), logging.Err(err))
				continue
			}
			be = peer
		}

		t.Slots[dgidNum] = &Binding{
			Kind: kind, Backend: be, Static: entry.Static,
			RFHangMS: rfHangMS, NetHangMS: netHangMS,
			AllowedModes: modes, Description: entry.Name,
		}
	}

	if len(imrsEntries) > 0 {
		localPort := imrsEntries[0].entry.LocalPort
		shared := imrs.New(localPort, log)
		t.imrsBackend = shared

		for _, e := range imrsEntries {
			dests, err := parseDestinations(e.entry.Destinations)
			if err != nil {
				log.Warn("dgid: bad IMRS destination list, skipping slot", logging.Int("dgid", e.dgid), logging.Err(err))
				continue
			}
			shared.AddSlot(uint8(e.dgid), e.entry.Name, dests)
			t.Slots[e.dgid] = &Binding{
				// IMRS bindings are always static, matching the shared
				// backend's own Static() and the original's unconditional
				// m_static = true for every IMRS entry — a misconfigured
				// static=false here must not cause link/unlink traffic
				// against the engine-owned shared backend.
				Kind: backend.KindIMRS, Backend: shared, Static: true,
				RFHangMS:     uint32(e.entry.RFHangSeconds) * 1000,
				NetHangMS:    uint32(e.entry.NetHangSeconds) * 1000,
				AllowedModes: backend.DefaultModes(backend.KindIMRS),
				Description:  e.entry.Name,
			}
		}
	}

	return t, nil
}

// Open opens every distinct backend instance referenced by the
// directory (deduplicating the IMRS alias) and clears any slot whose
// backend failed to open.
func (t *Table) Open(log *logging.Logger) {
	seen := make(map[backend.Backend]bool)
	for i := 1; i <= 99; i++ {
		b := t.Slots[i]
		if b == nil || seen[b.Backend] {
			continue
		}
		seen[b.Backend] = true
		if !b.Backend.Open() {
			log.Warn("dgid: backend open failed, clearing bound slots", logging.String("desc", b.Description))
			t.clearSlotsFor(b.Backend)
		}
	}
}

func (t *Table) clearSlotsFor(be backend.Backend) {
	for i := 1; i <= 99; i++ {
		if t.Slots[i] != nil && t.Slots[i].Backend == be {
			t.Slots[i] = nil
		}
	}
	if t.imrsBackend == be {
		t.imrsBackend = nil
	}
}

func parseKind(t string) (backend.Kind, bool) {
	switch strings.ToUpper(t) {
	case "YSF":
		return backend.KindYSF, true
	case "FCS":
		return backend.KindFCS, true
	case "IMRS":
		return backend.KindIMRS, true
	case "PARROT":
		return backend.KindParrot, true
	case "YSF2DMR":
		return backend.KindYSF2DMR, true
	case "YSF2NXDN":
		return backend.KindYSF2NXDN, true
	case "YSF2P25":
		return backend.KindYSF2P25, true
	default:
		return 0, false
	}
}

// parseDestinations parses a "remote_dgid:host:port,remote_dgid:host:port"
// list into resolved IMRS destinations.
func parseDestinations(raw string) ([]imrs.Destination, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty destination list")
	}
	var dests []imrs.Destination
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed destination %q", item)
		}
		remoteDGID, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("malformed remote dgid in %q: %w", item, err)
		}
		port, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("malformed port in %q: %w", item, err)
		}
		addr, err := netio.Resolve(parts[1], port)
		if err != nil {
			return nil, err
		}
		dests = append(dests, imrs.Destination{RemoteDGID: uint8(remoteDGID), Addr: addr})
	}
	return dests, nil
}
