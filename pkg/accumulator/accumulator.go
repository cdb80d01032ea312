// Package accumulator implements HostSections, the in-memory data model that
// the framing state machine writes into and that the parser orchestrator
// returns to its caller.
package accumulator

import (
	"github.com/morph027/checkmk/pkg/payload"
	"github.com/morph027/checkmk/pkg/section"
)

// CacheInfo describes the freshness of a section: when it was captured and
// how long (in seconds) it remains valid for.
type CacheInfo struct {
	CapturedAt int
	Interval   int
}

// Entry is a persisted section as staged by the accumulator (or as read back
// from the on-disk store): its capture window plus the payload itself.
type Entry struct {
	CapturedAt int
	ValidUntil int
	Payload    []payload.Row
}

// sectionData is the mutable backing store for a single section's rows. It
// is heap-allocated and shared by pointer between sections and persisted so
// appends made after a section is staged for persistence are visible to the
// staged entry too.
type sectionData struct {
	rows []payload.Row
}

// HostSections is the per-parse-call accumulator: the parsed sections,
// piggybacked raw data, cache info and staged persisted entries.
type HostSections struct {
	sectionOrder []section.Name
	sections     map[section.Name]*sectionData

	piggybackOrder []section.Host
	piggybacked    map[section.Host]*[][]byte

	cacheInfo map[section.Name]CacheInfo

	persistOrder []section.Name
	persisted    map[section.Name]*persistedStage
}

type persistedStage struct {
	capturedAt int
	validUntil int
	data       *sectionData
}

// New returns an empty HostSections ready to be fed by the framing state
// machine.
func New() *HostSections {
	return &HostSections{
		sections:    make(map[section.Name]*sectionData),
		piggybacked: make(map[section.Host]*[][]byte),
		cacheInfo:   make(map[section.Name]CacheInfo),
		persisted:   make(map[section.Name]*persistedStage),
	}
}

// OpenSection ensures a section exists (creating an empty payload if it is
// new) and returns whether it already existed. Re-observing the same header
// appends to the existing payload rather than clearing it.
func (h *HostSections) OpenSection(name section.Name) (existed bool) {
	if _, ok := h.sections[name]; ok {
		return true
	}
	h.sections[name] = &sectionData{}
	h.sectionOrder = append(h.sectionOrder, name)
	return false
}

// AppendRow appends a decoded row to the named section. OpenSection must
// have been called for name first.
func (h *HostSections) AppendRow(name section.Name, row payload.Row) {
	h.sections[name].rows = append(h.sections[name].rows, row)
}

// SetCacheInfo records (or overwrites) the cache_info entry for a section.
func (h *HostSections) SetCacheInfo(name section.Name, info CacheInfo) {
	h.cacheInfo[name] = info
}

// StagePersist records that the named section must be persisted until
// validUntil. The staged entry aliases the section's live payload, so
// subsequent AppendRow calls are reflected in PersistedSections() output.
func (h *HostSections) StagePersist(name section.Name, capturedAt, validUntil int) {
	if _, ok := h.persisted[name]; !ok {
		h.persistOrder = append(h.persistOrder, name)
	}
	h.persisted[name] = &persistedStage{
		capturedAt: capturedAt,
		validUntil: validUntil,
		data:       h.sections[name],
	}
}

// AppendPiggyback appends a raw line to the named target's piggyback buffer.
func (h *HostSections) AppendPiggyback(target section.Host, line []byte) {
	buf, ok := h.piggybacked[target]
	if !ok {
		h.piggybackOrder = append(h.piggybackOrder, target)
		var b [][]byte
		buf = &b
		h.piggybacked[target] = buf
	}
	*buf = append(*buf, line)
}

// HasSection reports whether name is already present in Sections.
func (h *HostSections) HasSection(name section.Name) bool {
	_, ok := h.sections[name]
	return ok
}

// SectionNames returns section names in insertion order.
func (h *HostSections) SectionNames() []section.Name {
	out := make([]section.Name, len(h.sectionOrder))
	copy(out, h.sectionOrder)
	return out
}

// Section returns the payload for name and whether it is present.
func (h *HostSections) Section(name section.Name) ([]payload.Row, bool) {
	d, ok := h.sections[name]
	if !ok {
		return nil, false
	}
	return d.rows, true
}

// CacheInfoFor returns the cache_info entry for name, if any.
func (h *HostSections) CacheInfoFor(name section.Name) (CacheInfo, bool) {
	c, ok := h.cacheInfo[name]
	return c, ok
}

// PiggybackedHosts returns the set of piggyback target hosts in insertion
// order.
func (h *HostSections) PiggybackedHosts() []section.Host {
	out := make([]section.Host, len(h.piggybackOrder))
	copy(out, h.piggybackOrder)
	return out
}

// PiggybackedRawData returns the raw lines buffered for target.
func (h *HostSections) PiggybackedRawData(target section.Host) ([][]byte, bool) {
	buf, ok := h.piggybacked[target]
	if !ok {
		return nil, false
	}
	return *buf, true
}

// PersistedSections returns the entries staged this cycle for persistence,
// keyed by section name. The result is a map, so iteration order is not
// defined.
func (h *HostSections) PersistedSections() map[section.Name]Entry {
	out := make(map[section.Name]Entry, len(h.persisted))
	for name, stage := range h.persisted {
		out[name] = Entry{
			CapturedAt: stage.capturedAt,
			ValidUntil: stage.validUntil,
			Payload:    stage.data.rows,
		}
	}
	return out
}

// InsertMerged inserts a section coming from the persisted store: used only
// when the fresh parse did not already produce that section (fresh always
// wins). It also records cache_info for the merged section.
func (h *HostSections) InsertMerged(name section.Name, rows []payload.Row, info CacheInfo) {
	if h.HasSection(name) {
		return
	}
	h.sections[name] = &sectionData{rows: rows}
	h.sectionOrder = append(h.sectionOrder, name)
	h.cacheInfo[name] = info
}

// Filter restricts Sections/CacheInfo to names in selection (a nil or empty
// selection keeps none); piggybacked raw data is always retained.
func (h *HostSections) Filter(selection []section.Name) *HostSections {
	want := make(map[section.Name]bool, len(selection))
	for _, n := range selection {
		want[n] = true
	}

	out := New()
	for _, name := range h.sectionOrder {
		if !want[name] {
			continue
		}
		out.sections[name] = h.sections[name]
		out.sectionOrder = append(out.sectionOrder, name)
		if info, ok := h.cacheInfo[name]; ok {
			out.cacheInfo[name] = info
		}
	}
	for _, host := range h.piggybackOrder {
		out.piggybackOrder = append(out.piggybackOrder, host)
		out.piggybacked[host] = h.piggybacked[host]
	}
	for _, name := range h.persistOrder {
		out.persistOrder = append(out.persistOrder, name)
		out.persisted[name] = h.persisted[name]
	}
	return out
}
