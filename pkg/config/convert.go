package config

import (
	"github.com/morph027/checkmk/pkg/parser"
	"github.com/morph027/checkmk/pkg/summarizer"
)

// ToSummarizerConfig builds a summarizer.Config from SummarizerConfig.
func (c SummarizerConfig) ToSummarizerConfig() summarizer.Config {
	cfg := summarizer.Config{
		OnlyFrom:                        c.OnlyFrom,
		IsCluster:                       c.IsCluster,
		WrongVersionStatus:              c.WrongVersionStatus,
		RestrictedAddressMismatchStatus: c.RestrictedAddressMismatchStatus,
		DebugEnabled:                    c.DebugEnabled,
	}
	if c.Mode == "discovery" {
		cfg.Mode = summarizer.ModeDiscovery
	} else {
		cfg.Mode = summarizer.ModeChecking
	}

	if c.TargetVersion.Literal != "" || c.TargetVersion.AtLeast != nil {
		tv := &summarizer.TargetVersion{Literal: c.TargetVersion.Literal}
		if al := c.TargetVersion.AtLeast; al != nil && (al.DailyBuild != "" || al.Release != "") {
			tv.AtLeast = &summarizer.AtLeast{DailyBuild: al.DailyBuild, Release: al.Release}
		}
		cfg.TargetVersion = tv
	}
	return cfg
}

// ToParserConfig builds a parser.Config from ParserConfig.
func (c ParserConfig) ToParserConfig() parser.Config {
	return parser.Config{
		CheckInterval:         int(c.CheckInterval.Seconds()),
		KeepOutdatedPersisted: c.KeepOutdatedPersisted,
	}
}
