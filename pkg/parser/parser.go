// Package parser ties together the framing state machine, accumulator and
// persisted-section store into the public Agent Parser orchestrator.
package parser

import (
	"bytes"
	"math"
	"time"

	"github.com/morph027/checkmk/pkg/accumulator"
	"github.com/morph027/checkmk/pkg/framing"
	"github.com/morph027/checkmk/pkg/parsermetrics"
	"github.com/morph027/checkmk/pkg/persist"
	"github.com/morph027/checkmk/pkg/section"
)

// Selection restricts which sections a Parse call returns.
type Selection struct {
	all   bool
	names []section.Name
}

// All selects every parsed section.
func All() Selection { return Selection{all: true} }

// Only selects the named sections; piggybacked raw data is always returned
// regardless of selection.
func Only(names ...section.Name) Selection { return Selection{names: names} }

func (s Selection) apply(acc *accumulator.HostSections) *accumulator.HostSections {
	if s.all {
		return acc
	}
	return acc.Filter(s.names)
}

// Config holds the orchestrator's external knobs.
type Config struct {
	// CheckInterval is check_mk_check_interval, in seconds. Default 60
	// (checkmk's default one-minute check interval).
	CheckInterval int

	// KeepOutdatedPersisted corresponds to
	// keep_outdated_persisted_sections: when true, expired persisted
	// sections are still merged in rather than dropped.
	KeepOutdatedPersisted bool

	// Simulator, when non-nil, substitutes the raw bytes before parsing
	// (agent_simulator_enabled collaborator).
	Simulator func(raw []byte) []byte

	// Clock returns the current wall-clock time in epoch seconds; defaults
	// to time.Now when nil. Exposed for deterministic tests.
	Clock func() int64

	// Metrics, when non-nil, receives Prometheus instrumentation for this
	// parser's activity.
	Metrics *parsermetrics.Metrics
}

func (c Config) now() int64 {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().Unix()
}

func (c Config) checkInterval() int {
	if c.CheckInterval > 0 {
		return c.CheckInterval
	}
	return 60
}

// Parser is the Agent Parser orchestrator (C5): raw bytes -> framing ->
// accumulator -> persisted-store merge -> filtered result.
type Parser struct {
	host  section.Host
	store *persist.Store
	cfg   Config
}

// New returns a Parser for host, backed by store, with the given Config.
func New(host section.Host, store *persist.Store, cfg Config) *Parser {
	return &Parser{host: host, store: store, cfg: cfg}
}

// Parse decodes raw into a HostSections, merges in still-valid persisted
// sections, and restricts the result to selection.
//
// Store write errors (persist.ErrPersist) are returned to the caller; the
// in-memory accumulator from the fresh parse, unfiltered and without merged
// persisted sections, is still returned alongside the error so callers can
// fall back to it.
func (p *Parser) Parse(raw []byte, selection Selection) (*accumulator.HostSections, error) {
	if p.cfg.Simulator != nil {
		raw = p.cfg.Simulator(raw)
	}

	capturedAt := int(p.cfg.now())
	cacheAge := int(math.Floor(1.5 * float64(p.cfg.checkInterval())))

	acc := accumulator.New()
	machine := framing.New(p.host, acc, capturedAt, cacheAge)

	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\n"))
		machine.Step(line)
	}

	for range acc.SectionNames() {
		p.cfg.Metrics.ObserveSection("ok")
	}
	for range acc.PiggybackedHosts() {
		p.cfg.Metrics.ObservePiggybackBlock()
	}

	p.store.SetMetrics(p.cfg.Metrics)
	if err := p.store.Update(acc.PersistedSections()); err != nil {
		return acc, err
	}

	p.store.MergeInto(acc, capturedAt, p.cfg.KeepOutdatedPersisted)

	return selection.apply(acc), nil
}
