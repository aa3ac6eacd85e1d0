// Package risk scores requests for suspicious traits. Pure: no state, no
// side effects, no I/O.
package risk

import "strings"

// Level is the derived suspicion level.
type Level string

const (
	LevelNone   Level = "none"
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Reason names for triggered checks.
const (
	ReasonAdminPath     = "admin_path_access"
	ReasonShortAgent    = "missing_or_short_user_agent"
	ReasonAutomationSig = "automation_user_agent"
)

// Assessment is the scoring outcome. Level follows purely from the count of
// triggered reasons: 0 none, 1 low, 2 medium, 3+ high.
type Assessment struct {
	Suspicious bool
	Level      Level
	Reasons    []string
}

// defaultSignatures are substrings (matched case-insensitively) of user
// agents used by unattended tooling.
var defaultSignatures = []string{
	"bot", "crawler", "spider", "scraper", "curl", "wget", "python-requests",
}

const defaultMinAgentLen = 10

// Scorer evaluates requests against a fixed set of independent checks.
type Scorer struct {
	AdminPathPrefix string
	MinAgentLen     int
	Signatures      []string
}

// NewScorer creates a Scorer with the default thresholds for the given
// admin path prefix.
func NewScorer(adminPrefix string) *Scorer {
	return &Scorer{
		AdminPathPrefix: adminPrefix,
		MinAgentLen:     defaultMinAgentLen,
		Signatures:      defaultSignatures,
	}
}

// Score runs every check and derives the level from how many triggered.
func (s *Scorer) Score(subjectID, sourceIP, userAgent, resource string) Assessment {
	var reasons []string

	if s.AdminPathPrefix != "" && strings.HasPrefix(resource, s.AdminPathPrefix) {
		reasons = append(reasons, ReasonAdminPath)
	}

	if len(strings.TrimSpace(userAgent)) < s.MinAgentLen {
		reasons = append(reasons, ReasonShortAgent)
	}

	lower := strings.ToLower(userAgent)
	for _, sig := range s.Signatures {
		if sig != "" && strings.Contains(lower, sig) {
			reasons = append(reasons, ReasonAutomationSig)
			break
		}
	}

	return Assessment{
		Suspicious: len(reasons) > 0,
		Level:      levelFor(len(reasons)),
		Reasons:    reasons,
	}
}

func levelFor(n int) Level {
	switch {
	case n == 0:
		return LevelNone
	case n == 1:
		return LevelLow
	case n == 2:
		return LevelMedium
	default:
		return LevelHigh
	}
}
