package optimizer

import (
	"regexp"
	"sort"
	"strings"
)

// ProtectionPolicy controls how much of the input is considered off-limits.
type ProtectionPolicy string

const (
	// ProtectionConservative protects identifiers and quoted strings in
	// addition to everything ProtectionAggressive protects.
	ProtectionConservative ProtectionPolicy = "conservative"
	// ProtectionAggressive protects only code, templates, URLs, paths, and
	// instruction keywords. More optimization opportunity, higher risk.
	ProtectionAggressive ProtectionPolicy = "aggressive"
)

var (
	reFencedCode = regexp.MustCompile("(?s)```.*?```")
	reInlineCode = regexp.MustCompile("`[^`]+`")

	reMustacheVar = regexp.MustCompile(`\{\{[^}]+\}\}`)
	reDollarVar   = regexp.MustCompile(`\$\{[^}]+\}`)
	reTagVar      = regexp.MustCompile(`\{%[^%]+%\}`)

	reURL  = regexp.MustCompile(`https?://[^\s]+`)
	rePath = regexp.MustCompile(`(?:/[a-zA-Z0-9_.-]+)+|(?:[a-zA-Z]:\\[a-zA-Z0-9_.\\-]+)`)

	reCamelCase     = regexp.MustCompile(`\b[a-z]+[A-Z][a-zA-Z0-9]*\b`)
	reSnakeCase     = regexp.MustCompile(`\b[a-z]+_[a-z0-9_]+\b`)
	reScreamingCase = regexp.MustCompile(`\b[A-Z][A-Z0-9_]{2,}\b`)

	reDoubleQuoted = regexp.MustCompile(`"[^"]*"`)
	reSingleQuoted = regexp.MustCompile(`'[^']*'`)

	reInstructionKeyword = regexp.MustCompile(
		`(?i)\b(MUST|REQUIRED|MANDATORY|FORMAT|OUTPUT|RETURN|RESPOND|JSON|XML|YAML|CSV)\b`)
)

// RegionDetector finds byte ranges of the input that must never be rewritten.
type RegionDetector struct {
	policy ProtectionPolicy
}

// NewRegionDetector creates a detector with the given policy.
func NewRegionDetector(policy ProtectionPolicy) *RegionDetector {
	if policy == "" {
		policy = ProtectionConservative
	}
	return &RegionDetector{policy: policy}
}

// Policy returns the detector's protection policy.
func (d *RegionDetector) Policy() ProtectionPolicy { return d.policy }

// Detect returns the sorted, merged protected regions of text.
// Conservative always protects a superset of what Aggressive protects.
func (d *RegionDetector) Detect(text string) []ProtectedRegion {
	var regions []ProtectedRegion

	regions = append(regions, findAll(text, reFencedCode, RegionCodeBlock)...)
	regions = append(regions, findAll(text, reInlineCode, RegionCodeBlock)...)
	regions = append(regions, indentedCodeLines(text)...)

	regions = append(regions, findAll(text, reMustacheVar, RegionTemplateVariable)...)
	regions = append(regions, findAll(text, reDollarVar, RegionTemplateVariable)...)
	regions = append(regions, findAll(text, reTagVar, RegionTemplateVariable)...)

	regions = append(regions, findAll(text, reURL, RegionURLOrPath)...)
	regions = append(regions, findAll(text, rePath, RegionURLOrPath)...)

	regions = append(regions, findAll(text, reInstructionKeyword, RegionInstructionKeyword)...)

	if d.policy == ProtectionConservative {
		regions = append(regions, findAll(text, reCamelCase, RegionIdentifier)...)
		regions = append(regions, findAll(text, reSnakeCase, RegionIdentifier)...)
		regions = append(regions, findAll(text, reScreamingCase, RegionIdentifier)...)
		regions = append(regions, findAll(text, reDoubleQuoted, RegionQuotedString)...)
		regions = append(regions, findAll(text, reSingleQuoted, RegionQuotedString)...)
	}

	return mergeRegions(regions)
}

// IsProtected reports whether [start, end) intersects any region.
func IsProtected(regions []ProtectedRegion, start, end int) bool {
	for _, r := range regions {
		if start < r.End && end > r.Start {
			return true
		}
	}
	return false
}

func findAll(text string, re *regexp.Regexp, kind RegionKind) []ProtectedRegion {
	var out []ProtectedRegion
	for _, m := range re.FindAllStringIndex(text, -1) {
		out = append(out, ProtectedRegion{Start: m[0], End: m[1], Kind: kind})
	}
	return out
}

// indentedCodeLines protects non-empty lines that start with four spaces.
func indentedCodeLines(text string) []ProtectedRegion {
	var out []ProtectedRegion
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSuffix(line, "\n")
		if strings.HasPrefix(trimmed, "    ") && strings.TrimSpace(trimmed) != "" {
			out = append(out, ProtectedRegion{
				Start: offset,
				End:   offset + len(trimmed),
				Kind:  RegionCodeBlock,
			})
		}
		offset += len(line)
	}
	return out
}

// mergeRegions sorts by start offset and merges any region that overlaps or
// touches the running end of the open region (interval-union sweep).
func mergeRegions(regions []ProtectedRegion) []ProtectedRegion {
	if len(regions) == 0 {
		return nil
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Start < regions[j].Start
	})

	merged := make([]ProtectedRegion, 0, len(regions))
	current := regions[0]
	for _, r := range regions[1:] {
		if r.Start <= current.End {
			if r.End > current.End {
				current.End = r.End
			}
			continue
		}
		merged = append(merged, current)
		current = r
	}
	merged = append(merged, current)
	return merged
}
