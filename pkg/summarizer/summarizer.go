// Package summarizer computes a compact health verdict from a host's
// check_mk section: agent version/OS text plus, in checking mode, the
// expected-version and only-from sub-checks.
package summarizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/morph027/checkmk/pkg/onlyfrom"
	"github.com/morph027/checkmk/pkg/payload"
)

// Status mirrors a Nagios/checkmk service state.
type Status int

const (
	StatusOK Status = iota
	StatusWarn
	StatusCrit
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarn:
		return "WARN"
	case StatusCrit:
		return "CRIT"
	default:
		return "UNKNOWN"
	}
}

// Metric is one perfdata tuple emitted alongside the summary text.
type Metric struct {
	Name  string
	Value float64
}

// Mode distinguishes the checking run (where expected-version/only-from
// sub-checks run) from discovery, where only the version/OS text applies.
type Mode int

const (
	ModeDiscovery Mode = iota
	ModeChecking
)

// AtLeast expresses an "at least this build or release" expectation.
type AtLeast struct {
	DailyBuild string // e.g. "2014.06.01"
	Release    string // e.g. "2.0.0p10"
}

// TargetVersion is either a literal expected version string or an AtLeast
// clause; exactly one field should be set.
type TargetVersion struct {
	Literal string
	AtLeast *AtLeast
}

// Config is the explicit, ambient-state-free configuration the summarizer
// needs — it takes no package-level globals, so callers can run multiple
// independently-configured summarizers concurrently.
type Config struct {
	Mode Mode

	// TargetVersion is nil when no expected-version check should run.
	TargetVersion *TargetVersion

	// OnlyFrom is the configured set of allowed IP ranges; nil disables the
	// only-from check.
	OnlyFrom []string

	IsCluster bool

	// WrongVersionStatus is the exit status used for a version mismatch or
	// an unresolvable version comparison. Default 1 (WARN).
	WrongVersionStatus int

	// RestrictedAddressMismatchStatus is the exit status used for an
	// only-from mismatch. Default 1 (WARN).
	RestrictedAddressMismatchStatus int

	// DebugEnabled makes version-comparison failures propagate as errors
	// instead of being folded into the summary as a sub-result with
	// WrongVersionStatus.
	DebugEnabled bool
}

// DefaultConfig returns a Config with the documented default exit statuses.
func DefaultConfig() Config {
	return Config{WrongVersionStatus: int(StatusWarn), RestrictedAddressMismatchStatus: int(StatusWarn)}
}

// ErrVersionCheck wraps an unresolvable version comparison when
// Config.DebugEnabled is true.
var ErrVersionCheck = errors.New("summarizer: unable to check agent version")

type subResult struct {
	status Status
	text   string
	perf   []Metric
}

// Summarize computes the (status, summary, perfdata) verdict for the given
// check_mk section rows.
func Summarize(rows []payload.Row, cfg Config) (Status, string, []Metric, error) {
	info := extractAgentInfo(rows)

	status := StatusOK
	var parts []string
	var perf []Metric

	if !cfg.IsCluster {
		if v, ok := info["version"]; ok {
			parts = append(parts, "Version: "+v)
		}
		if os, ok := info["agentos"]; ok {
			parts = append(parts, "OS: "+os)
		}
	}

	if cfg.Mode == ModeChecking && len(rows) > 0 {
		sub, err := versionSubResult(info, cfg)
		if err != nil {
			if cfg.DebugEnabled {
				return StatusUnknown, "", nil, fmt.Errorf("%w: %s", ErrVersionCheck, err)
			}
			status = maxStatus(status, Status(cfg.WrongVersionStatus))
			parts = append(parts, fmt.Sprintf(
				"Unable to check agent version (Agent: %s Expected: %s, Error: %s)",
				displayVersion(info), describeExpected(cfg.TargetVersion), err))
		} else if sub != nil {
			status = maxStatus(status, sub.status)
			parts = append(parts, sub.text)
			perf = append(perf, sub.perf...)
		}

		if sub := onlyFromSubResult(info, cfg); sub != nil {
			status = maxStatus(status, sub.status)
			parts = append(parts, sub.text)
			perf = append(perf, sub.perf...)
		}
	}

	return status, strings.Join(parts, ", "), perf, nil
}

func maxStatus(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// extractAgentInfo interprets the first field of each row as "key:" and the
// remaining fields, joined by a single space, as the value.
func extractAgentInfo(rows []payload.Row) map[string]string {
	info := make(map[string]string, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSuffix(row[0], ":"))
		var value string
		if len(row) > 1 {
			value = strings.Join(row[1:], " ")
		}
		info[key] = value
	}
	return info
}

func displayVersion(info map[string]string) string {
	if v, ok := info["version"]; ok {
		return v
	}
	return "(unknown)"
}

func versionSubResult(info map[string]string, cfg Config) (*subResult, error) {
	if cfg.TargetVersion == nil {
		return nil, nil
	}

	agentVersion, present := info["version"]
	ok, err := isExpectedVersion(agentVersion, present, cfg.TargetVersion)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	status := Status(cfg.WrongVersionStatus)
	text := fmt.Sprintf("unexpected agent version %s (should be %s)", displayVersion(info), describeExpected(cfg.TargetVersion))
	return &subResult{status: status, text: text}, nil
}

// isExpectedVersion decides whether agentVersion satisfies expected,
// treating a handful of sentinel observed values ("(unknown)", "None") as an
// always-mismatch regardless of the expectation shape.
func isExpectedVersion(agentVersion string, present bool, expected *TargetVersion) (bool, error) {
	if !present {
		return false, nil
	}
	if agentVersion == "(unknown)" || agentVersion == "None" {
		return false, nil
	}

	if expected.Literal != "" {
		return agentVersion == expected.Literal, nil
	}

	if al := expected.AtLeast; al != nil {
		if al.DailyBuild != "" && isDailyBuildVersion(agentVersion) {
			expectedOrdinal, err := strconv.Atoi(strings.ReplaceAll(al.DailyBuild, ".", ""))
			if err != nil {
				return false, fmt.Errorf("parsing expected daily build %q: %w", al.DailyBuild, err)
			}
			agentOrdinal, err := dailyBuildOrdinal(agentVersion)
			if err != nil {
				return false, fmt.Errorf("parsing agent daily build %q: %w", agentVersion, err)
			}
			return agentOrdinal >= expectedOrdinal, nil
		}
		if al.Release != "" {
			if isDailyBuildVersion(agentVersion) {
				return false, nil
			}
			agentN, err := ParseVersion(agentVersion)
			if err != nil {
				return false, err
			}
			expN, err := ParseVersion(al.Release)
			if err != nil {
				return false, err
			}
			return agentN >= expN, nil
		}
	}

	return true, nil
}

func describeExpected(tv *TargetVersion) string {
	if tv == nil {
		return ""
	}
	if tv.Literal != "" {
		return tv.Literal
	}
	if al := tv.AtLeast; al != nil {
		s := "at least"
		if al.DailyBuild != "" {
			s += " build " + al.DailyBuild
		}
		if al.Release != "" {
			if al.DailyBuild != "" {
				s += " or"
			}
			s += " release " + al.Release
		}
		return s
	}
	return ""
}

func onlyFromSubResult(info map[string]string, cfg Config) *subResult {
	raw, ok := info["onlyfrom"]
	if !ok || cfg.OnlyFrom == nil {
		return nil
	}

	allowed := onlyfrom.Normalize(strings.Fields(raw))
	expected := onlyfrom.Normalize(cfg.OnlyFrom)

	if onlyfrom.Equal(allowed, expected) {
		return &subResult{status: StatusOK, text: "Allowed IP ranges: " + strings.Join(allowed, " ")}
	}

	exceeding, missing := onlyfrom.Diff(allowed, expected)
	var infotexts []string
	if len(exceeding) > 0 {
		infotexts = append(infotexts, "exceeding: "+strings.Join(exceeding, " "))
	}
	if len(missing) > 0 {
		infotexts = append(infotexts, "missing: "+strings.Join(missing, " "))
	}

	return &subResult{
		status: Status(cfg.RestrictedAddressMismatchStatus),
		text:   fmt.Sprintf("Unexpected allowed IP ranges (%s)", strings.Join(infotexts, "; ")),
	}
}
