package records

import "strings"

// Remarks values with defined meaning. Anything else in Remarks is a
// specific rejection or failure string.
const (
	RemarkAccepted           = ""
	RemarkWebsiteUnavailable = "website unavailable"
	RemarkNotApplicable      = "NA"

	// FatalErrorPrefix marks a record whose row failed resolution entirely.
	// The orchestrator appends the error detail after the prefix.
	FatalErrorPrefix = "FATAL_ERROR: "
)

// Business status tokens reported by the extraction call. The language
// model port normalizes free-form status text to one of these.
const (
	StatusOperational = "operational"
	StatusClosed      = "closed"
	StatusUnknown     = "unknown"
)

// ExtraColumn is one passthrough column carried verbatim from the input
// row. Order matters, so passthrough data is a slice rather than a map.
type ExtraColumn struct {
	Header string `json:"header"`
	Value  string `json:"value"`
}

// RawRecord is one input row after column mapping. All fields except Name
// are optional and empty when the corresponding column is unmapped or
// blank.
type RawRecord struct {
	Name    string        `json:"merchant_name_raw"`
	Address string        `json:"address,omitempty"`
	City    string        `json:"city,omitempty"`
	Country string        `json:"country,omitempty"`
	State   string        `json:"state,omitempty"`
	Extra   []ExtraColumn `json:"extra,omitempty"`
}

// ResolvedRecord is the verified identity produced for one RawRecord.
//
// Invariants:
//   - Website != "" implies Socials is empty.
//   - Remarks == "NA" implies CleanedName, Website, and Socials are all empty.
//   - AccumulatedCost only ever grows while the record is being resolved.
type ResolvedRecord struct {
	CleanedName     string   `json:"cleaned_name"`
	Website         string   `json:"website"`
	Socials         []string `json:"socials"`
	Evidence        string   `json:"evidence"`
	EvidenceLinks   []string `json:"evidence_links"`
	AccumulatedCost float64  `json:"accumulated_cost"`
	Remarks         string   `json:"remarks"`
	LogoFilename    string   `json:"logo_filename"`
}

// Rejected reports whether the record carries the NA rejection marker.
func (r ResolvedRecord) Rejected() bool {
	return r.Remarks == RemarkNotApplicable
}

// Failed reports whether the record was produced by row-level failure
// conversion rather than by the resolver pipeline.
func (r ResolvedRecord) Failed() bool {
	return strings.HasPrefix(r.Remarks, FatalErrorPrefix)
}

// LogoFilename derives the name of the logo asset for a resolved identity.
// A verified website wins: the first domain label, lower-cased, with a
// ".png" suffix. Without a website a social fallback uses the cleaned name
// with all whitespace stripped. Records with neither get no logo.
func LogoFilename(website string, socials []string, cleanedName string) string {
	if host := firstDomainLabel(website); host != "" {
		return strings.ToLower(host) + ".png"
	}
	if len(socials) > 0 {
		name := strings.Join(strings.Fields(cleanedName), "")
		if name == "" {
			return ""
		}
		return name + ".png"
	}
	return ""
}

func firstDomainLabel(website string) string {
	trimmed := strings.TrimSpace(website)
	if trimmed == "" {
		return ""
	}
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	if idx := strings.IndexAny(trimmed, "/?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	trimmed = strings.TrimPrefix(trimmed, "www.")
	if idx := strings.IndexByte(trimmed, '.'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}
