// Package framing implements the per-line framing state machine that
// segments an agent's raw byte stream into host sections and piggyback
// blocks.
//
// The machine is a tagged sum (NOOP / HostSection / Piggyback) with a single
// Step dispatch per line rather than a class hierarchy per state, since the
// transitions between the three states are simple enough that the dispatch
// table is easier to follow as one switch than as scattered methods.
package framing

import (
	"bytes"

	"github.com/morph027/checkmk/internal/logger"
	"github.com/morph027/checkmk/pkg/accumulator"
	"github.com/morph027/checkmk/pkg/header"
	"github.com/morph027/checkmk/pkg/payload"
	"github.com/morph027/checkmk/pkg/hostname"
	"github.com/morph027/checkmk/pkg/section"
)

type kind int

const (
	kindNOOP kind = iota
	kindHostSection
	kindPiggyback
)

// Machine is the framing state machine. Zero value is not usable; use New.
type Machine struct {
	kind   kind
	host   header.Header // valid when kind == kindHostSection
	target section.Host  // valid when kind == kindPiggyback

	self       section.Host
	acc        *accumulator.HostSections
	capturedAt int
	cacheAge   int
}

// New returns a machine in the initial NOOP state, writing into acc.
// self is the receiving host's (already sanitized) name, used to drop
// self-piggyback blocks. capturedAt/cacheAge are stamped into piggyback
// headers rewritten with an injected cached(...) option.
func New(self section.Host, acc *accumulator.HostSections, capturedAt, cacheAge int) *Machine {
	return &Machine{kind: kindNOOP, self: self, acc: acc, capturedAt: capturedAt, cacheAge: cacheAge}
}

// Step feeds one line (without its trailing newline) into the machine.
// Any fault while handling the line is logged as a warning and demotes the
// machine to NOOP; Step never returns an error because a fault on one line
// should not abort the rest of the stream.
func (m *Machine) Step(line []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("parser: recovered from panic handling line, demoting to NOOP",
				"line", string(line), "panic", r)
			m.toNOOP()
		}
	}()

	if len(bytes.TrimSpace(line)) == 0 {
		return
	}

	switch m.kind {
	case kindNOOP:
		m.stepNOOP(line)
	case kindHostSection:
		m.stepHostSection(line)
	case kindPiggyback:
		m.stepPiggyback(line)
	}
}

func (m *Machine) toNOOP() {
	m.kind = kindNOOP
}

// validateHeaderOptions resolves every recognized option on h so a failure
// anywhere in the option set is caught before the header takes effect;
// any such failure is treated as an invalid header.
func validateHeaderOptions(h header.Header) error {
	if _, _, _, err := h.Cached(); err != nil {
		return err
	}
	if _, _, err := h.Persist(); err != nil {
		return err
	}
	if _, _, err := h.Separator(); err != nil {
		return err
	}
	return nil
}

func (m *Machine) toHostSection(h header.Header) {
	m.acc.OpenSection(h.Name)

	if validUntil, ok, _ := h.Persist(); ok {
		cacheInterval := validUntil - m.capturedAt
		m.acc.SetCacheInfo(h.Name, accumulator.CacheInfo{CapturedAt: m.capturedAt, Interval: cacheInterval})
		m.acc.StagePersist(h.Name, m.capturedAt, validUntil)
	}

	if capturedAt, interval, ok, _ := h.Cached(); ok {
		m.acc.SetCacheInfo(h.Name, accumulator.CacheInfo{CapturedAt: capturedAt, Interval: interval})
	}

	m.kind = kindHostSection
	m.host = h
}

func (m *Machine) toPiggyback(target section.Host) {
	m.kind = kindPiggyback
	m.target = target
}

// piggybackTarget parses and sanitizes a piggyback header's target host.
func (m *Machine) piggybackTarget(line []byte) section.Host {
	raw := header.ParsePiggybackTarget(line)
	return hostname.Sanitize(raw)
}

// parseHostHeader parses line as a host-section header and resolves every
// option it carries, so a malformed option is caught here rather than later.
func parseHostHeader(line []byte) (header.Header, error) {
	h, err := header.Parse(line)
	if err != nil {
		return header.Header{}, err
	}
	if err := validateHeaderOptions(h); err != nil {
		return header.Header{}, err
	}
	return h, nil
}

func (m *Machine) stepNOOP(line []byte) {
	switch {
	case header.IsPiggybackHeader(line):
		target := m.piggybackTarget(line)
		if target == m.self {
			return
		}
		m.toPiggyback(target)
	case header.IsPiggybackFooter(line):
		// no-op
	case header.IsHostHeader(line):
		h, err := parseHostHeader(line)
		if err != nil {
			logger.Warn("parser: ignoring invalid raw section", "line", string(line), "error", err)
			return
		}
		m.toHostSection(h)
	case header.IsHostFooter(line):
		// no-op
	default:
		// dropped
	}
}

func (m *Machine) stepHostSection(line []byte) {
	switch {
	case header.IsPiggybackHeader(line):
		target := m.piggybackTarget(line)
		if target == m.self {
			m.toNOOP()
			return
		}
		m.toPiggyback(target)
	case header.IsPiggybackFooter(line):
		m.toNOOP()
	case header.IsHostFooter(line):
		m.toNOOP()
	case header.IsHostHeader(line):
		h, err := parseHostHeader(line)
		if err != nil {
			logger.Warn("parser: ignoring invalid raw section, demoting to NOOP", "line", string(line), "error", err)
			m.toNOOP()
			return
		}
		m.toHostSection(h)
	default:
		m.appendContentRow(line)
	}
}

// appendContentRow decodes one content line and appends it to the open
// section. The header's options were already validated in parseHostHeader,
// so Separator() cannot fail here.
func (m *Machine) appendContentRow(line []byte) {
	h := m.host
	raw := line
	if !h.NoStrip() {
		raw = payload.Strip(raw)
	}
	text := payload.Decode(raw, h.Encoding())
	sep, hasSep, _ := h.Separator()
	row := payload.Split(text, sep, hasSep)
	m.acc.AppendRow(h.Name, row)
}

func (m *Machine) stepPiggyback(line []byte) {
	switch {
	case header.IsPiggybackFooter(line):
		m.toNOOP()
	case header.IsPiggybackHeader(line):
		target := m.piggybackTarget(line)
		if target == m.self {
			m.toNOOP()
			return
		}
		m.toPiggyback(target)
	case header.IsHostHeader(line):
		rewritten := header.Rewrite(bytes.TrimSpace(line), m.capturedAt, m.cacheAge)
		m.acc.AppendPiggyback(m.target, rewritten)
	default:
		m.acc.AppendPiggyback(m.target, line)
	}
}
