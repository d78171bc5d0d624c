package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

// StatusKeywords binds one status to its detection keywords. The slice order
// in Rules.StatusKeywords is the match precedence: first hit wins.
type StatusKeywords struct {
	Status   string   `yaml:"status"`
	Keywords []string `yaml:"keywords"`
}

// Rules is the externally configurable reconciliation rule set: status
// hierarchy, keyword sets, subject templates, and cleanup lists. Every field
// has a built-in default; a YAML rules file overrides fields wholesale.
type Rules struct {
	Hierarchy        map[string]int    `yaml:"hierarchy"`
	ExcludedFromPeak []string          `yaml:"excluded_from_peak"`
	Terminal         []string          `yaml:"terminal"`
	StatusKeywords   []StatusKeywords  `yaml:"status_keywords"`
	SubjectTemplates []string          `yaml:"subject_templates"`
	DomainDenyList   []string          `yaml:"domain_deny_list"`
	Platforms        map[string]string `yaml:"platforms"`
	NoiseWords       []string          `yaml:"noise_words"`
	LegalSuffixes    []string          `yaml:"legal_suffixes"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		Hierarchy: map[string]int{
			string(model.StatusUnresolved): 0,
			string(model.StatusUpdate):     0,
			string(model.StatusApplied):    1,
			string(model.StatusViewed):     2,
			string(model.StatusAssessment): 3,
			string(model.StatusInterview):  4,
			string(model.StatusOffer):      5,
			string(model.StatusRejected):   5,
			string(model.StatusWithdrawn):  5,
			string(model.StatusAccepted):   6,
		},
		ExcludedFromPeak: []string{
			string(model.StatusRejected),
			string(model.StatusAccepted),
			string(model.StatusWithdrawn),
			string(model.StatusUpdate),
			string(model.StatusUnresolved),
		},
		Terminal: []string{
			string(model.StatusRejected),
			string(model.StatusAccepted),
			string(model.StatusWithdrawn),
		},
		// Ordered: offer > interview > assessment > viewed > rejection.
		StatusKeywords: []StatusKeywords{
			{Status: string(model.StatusOffer), Keywords: []string{
				"pleased to offer", "offer letter", "job offer",
				"extend an offer", "offer of employment",
			}},
			{Status: string(model.StatusInterview), Keywords: []string{
				"interview", "phone screen", "schedule a call",
				"schedule some time", "speak with you", "meet the team",
			}},
			{Status: string(model.StatusAssessment), Keywords: []string{
				"assessment", "coding challenge", "take-home", "online test",
				"hackerrank", "codility", "skills test",
			}},
			{Status: string(model.StatusViewed), Keywords: []string{
				"application was viewed", "viewed your application",
				"viewed by the hiring team", "your application has been viewed",
			}},
			{Status: string(model.StatusRejected), Keywords: []string{
				"unfortunately", "not to move forward", "other candidates",
				"will not be moving forward", "no longer under consideration",
				"decided to pursue other", "position has been filled",
			}},
		},
		SubjectTemplates: []string{
			`(?i)^your application (?:for|to) (?:the )?(?P<title>.+?) (?:position |role )?at (?P<company>.+?)\s*$`,
			`(?i)^application (?:for|to) (?P<title>.+?) at (?P<company>.+?)\s*$`,
			`(?i)^thank you for applying (?:to|at|for a position at) (?P<company>.+?)[.!]?\s*$`,
			`(?i)^interview (?:with|at) (?P<company>.+?) for (?:the )?(?P<title>.+?)\s*$`,
			`(?i)^(?P<company>.+?) application(?: update| received)?\s*$`,
			`(?i)your application to (?P<company>.+?) for (?P<title>.+)`,
		},
		DomainDenyList: []string{
			"linkedin.com", "indeed.com", "glassdoor.com", "ziprecruiter.com",
			"greenhouse.io", "lever.co", "workday.com", "myworkday.com",
			"smartrecruiters.com", "ashbyhq.com", "icims.com", "bamboohr.com",
			"jobvite.com", "wellfound.com", "hired.com", "gmail.com",
			"googlemail.com", "outlook.com", "yahoo.com",
		},
		Platforms: map[string]string{
			"linkedin.com":       "LinkedIn",
			"indeed.com":         "Indeed",
			"glassdoor.com":      "Glassdoor",
			"ziprecruiter.com":   "ZipRecruiter",
			"greenhouse.io":      "Greenhouse",
			"lever.co":           "Lever",
			"workday.com":        "Workday",
			"myworkday.com":      "Workday",
			"smartrecruiters.com": "SmartRecruiters",
			"ashbyhq.com":        "Ashby",
			"icims.com":          "iCIMS",
			"wellfound.com":      "Wellfound",
		},
		NoiseWords: []string{
			"careers", "jobs", "recruiting", "recruitment", "talent",
			"hiring", "team", "hr", "noreply", "no-reply", "notifications",
			"notification", "donotreply", "do-not-reply", "via",
		},
		LegalSuffixes: []string{
			"inc", "inc.", "llc", "llc.", "ltd", "ltd.", "corp", "corp.",
			"co", "co.", "gmbh", "plc", "s.a.", "pty",
		},
	}
}

// LoadRules reads a rules YAML from path, overlaying the defaults. An empty
// path returns the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, eris.Wrapf(err, "rules: read %s", path)
	}

	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return rules, eris.Wrapf(err, "rules: parse %s", path)
	}

	if len(override.Hierarchy) > 0 {
		rules.Hierarchy = override.Hierarchy
	}
	if len(override.ExcludedFromPeak) > 0 {
		rules.ExcludedFromPeak = override.ExcludedFromPeak
	}
	if len(override.Terminal) > 0 {
		rules.Terminal = override.Terminal
	}
	if len(override.StatusKeywords) > 0 {
		rules.StatusKeywords = override.StatusKeywords
	}
	if len(override.SubjectTemplates) > 0 {
		rules.SubjectTemplates = override.SubjectTemplates
	}
	if len(override.DomainDenyList) > 0 {
		rules.DomainDenyList = override.DomainDenyList
	}
	if len(override.Platforms) > 0 {
		rules.Platforms = override.Platforms
	}
	if len(override.NoiseWords) > 0 {
		rules.NoiseWords = override.NoiseWords
	}
	if len(override.LegalSuffixes) > 0 {
		rules.LegalSuffixes = override.LegalSuffixes
	}

	return rules, nil
}

// BuildHierarchy converts the rule tables into the model's hierarchy form.
func (r Rules) BuildHierarchy() model.Hierarchy {
	h := model.Hierarchy{
		Ranks:            make(map[model.Status]int, len(r.Hierarchy)),
		ExcludedFromPeak: make(map[model.Status]bool, len(r.ExcludedFromPeak)),
		Terminal:         make(map[model.Status]bool, len(r.Terminal)),
	}
	for s, rank := range r.Hierarchy {
		h.Ranks[model.Status(s)] = rank
	}
	for _, s := range r.ExcludedFromPeak {
		h.ExcludedFromPeak[model.Status(s)] = true
	}
	for _, s := range r.Terminal {
		h.Terminal[model.Status(s)] = true
	}
	return h
}
