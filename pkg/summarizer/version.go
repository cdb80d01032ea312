package summarizer

import (
	"regexp"
	"strconv"
	"strings"
)

// dailyBuildPattern matches the date suffix checkmk daily builds embed in
// their version string, e.g. "2014.06.01" inside "1.2.4-2014.06.01".
var dailyBuildPattern = regexp.MustCompile(`\d{4}\.\d{2}\.\d{2}`)

// isDailyBuildVersion reports whether v looks like a daily-build version
// (carries a YYYY.MM.DD date component) rather than a numbered release.
func isDailyBuildVersion(v string) bool {
	return dailyBuildPattern.MatchString(v)
}

// branchOfDailyBuild returns the branch name a daily build was cut from:
// the portion before the first "-", or "master" if there is none.
func branchOfDailyBuild(v string) string {
	if idx := strings.Index(v, "-"); idx >= 0 {
		return v[:idx]
	}
	return "master"
}

// dailyBuildOrdinal turns a daily build version into a comparable integer by
// stripping dots. For branch builds (containing "-"), only the portion
// after the branch name is used, so builds from different branches compare
// by date rather than by branch-name prefix.
func dailyBuildOrdinal(v string) (int, error) {
	branch := branchOfDailyBuild(v)
	s := v
	if branch != "master" {
		if idx := strings.Index(v, "-"); idx >= 0 {
			s = v[idx+1:]
		}
	}
	return strconv.Atoi(strings.ReplaceAll(s, ".", ""))
}

// versionPattern matches a release version like "2.0.0", "2.0.0p12" or
// "2.0.0b1": major.minor.patch plus an optional single-letter maturity
// suffix and trailing number.
var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)([a-zA-Z]?)(\d*)$`)

// suffixRank orders maturity suffixes: innovation and beta builds precede
// the final release, which shares the patch rank so that "2.0.0" compares
// as patch level 0 and "2.0.0pN" outranks it.
var suffixRank = map[string]int{
	"i": 10, // innovation release
	"b": 20, // beta
	"p": 50, // patch release
	"":  50, // final release (patch level 0)
}

// ParseVersion encodes a release version string as a monotonically
// comparable integer: larger means newer. Returns an error if v does not
// match the expected major.minor.patch[suffix[n]] shape.
func ParseVersion(v string) (int64, error) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return 0, errVersionParse(v)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	suffix := strings.ToLower(m[4])
	rank, ok := suffixRank[suffix]
	if !ok {
		rank = 0
	}
	num := 0
	if m[5] != "" {
		num, _ = strconv.Atoi(m[5])
	}

	var n int64
	n = int64(major)
	n = n*1_000 + int64(minor)
	n = n*1_000 + int64(patch)
	n = n*100 + int64(rank)
	n = n*1_000 + int64(num)
	return n, nil
}

func errVersionParse(v string) error {
	return &versionParseError{v: v}
}

type versionParseError struct{ v string }

func (e *versionParseError) Error() string {
	return "summarizer: cannot parse version " + strconv.Quote(e.v)
}
