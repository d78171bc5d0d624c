package extract

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/config"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

// bodyCompanyPatterns locate a company mention in free body text. Last
// resort after subject templates and sender-based derivation.
var bodyCompanyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:position|role|opportunity|opening) at (?P<company>[A-Z][\w&.' -]{1,40}?)(?:[.,!\n]|$)`),
	regexp.MustCompile(`(?i)applying to (?P<company>[A-Z][\w&.' -]{1,40}?)(?:[.,!\n]|$)`),
	regexp.MustCompile(`(?i)your interest in (?P<company>[A-Z][\w&.' -]{1,40}?)(?:[.,!\n]|$)`),
	regexp.MustCompile(`(?i)the (?:team|recruiting team) at (?P<company>[A-Z][\w&.' -]{1,40}?)(?:[.,!\n]|$)`),
}

var bodyTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:for|in) (?:the|our|a) (?P<title>[\w&/.' -]{3,60}?) (?:position|role|opening)`),
	regexp.MustCompile(`(?i)application for (?P<title>[\w&/.' -]{3,60}?)(?:[.,!\n]|$)`),
}

// commonSubdomains are stripped before deriving a company from a sender
// domain.
var commonSubdomains = map[string]bool{
	"www": true, "mail": true, "email": true, "careers": true, "jobs": true,
	"talent": true, "hire": true, "apply": true, "notifications": true,
	"notify": true, "hello": true, "team": true, "us": true, "eu": true,
}

// Fallback is the deterministic second extraction tier: keyword sets for
// status, layered heuristics for company and title.
type Fallback struct {
	rules     config.Rules
	subjectRe []*regexp.Regexp
	scanChars int
	titleCase cases.Caser
}

// NewFallback compiles the rule set's subject templates. Template order is
// match precedence.
func NewFallback(rules config.Rules, scanChars int) (*Fallback, error) {
	if scanChars <= 0 {
		scanChars = 1500
	}
	f := &Fallback{
		rules:     rules,
		scanChars: scanChars,
		titleCase: cases.Title(language.English),
	}
	for _, tmpl := range rules.SubjectTemplates {
		re, err := regexp.Compile(tmpl)
		if err != nil {
			return nil, eris.Wrapf(err, "fallback: compile subject template %q", tmpl)
		}
		f.subjectRe = append(f.subjectRe, re)
	}
	return f, nil
}

// Status scans the subject and the body prefix against the ordered keyword
// sets. The first set with a hit wins; no hit is unresolved and the caller
// supplies the default.
func (f *Fallback) Status(subject, body string) model.Status {
	text := strings.ToLower(subject + "\n" + prefix(body, f.scanChars))
	for _, set := range f.rules.StatusKeywords {
		for _, kw := range set.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return model.Status(set.Status)
			}
		}
	}
	return model.StatusUnresolved
}

// CompanyTitle derives company and title without the primary extractor:
// subject templates first, then sender display name, then sender domain,
// then a bounded body scan. Empty string means unresolved.
func (f *Fallback) CompanyTitle(subject, body, sender string) (company, title string) {
	company, title = f.fromSubject(subject)

	if company == "" {
		company = f.fromSenderName(sender)
	}
	if company == "" {
		company = f.fromSenderDomain(SenderDomain(sender))
	}

	snippet := prefix(body, f.scanChars)
	if company == "" {
		company = f.firstMatch(bodyCompanyPatterns, snippet, "company")
	}
	if title == "" {
		title = f.firstMatch(bodyTitlePatterns, snippet, "title")
	}
	return company, title
}

// Platform maps a sender domain to a display platform name ("LinkedIn",
// "Greenhouse"). Unknown domains yield "".
func (f *Fallback) Platform(domain string) string {
	return f.rules.Platforms[registrableDomain(domain)]
}

func (f *Fallback) fromSubject(subject string) (company, title string) {
	for _, re := range f.subjectRe {
		m := re.FindStringSubmatch(subject)
		if m == nil {
			continue
		}
		for i, name := range re.SubexpNames() {
			if i == 0 || i >= len(m) {
				continue
			}
			switch name {
			case "company":
				// Lazy templates can capture prose like "Update on your"
				// from generic subjects; those are never employer names.
				if v := Canonicalize(m[i], f.rules.LegalSuffixes); !hasSubjectStopWord(v) {
					company = v
				}
			case "title":
				title = Canonicalize(m[i], f.rules.LegalSuffixes)
			}
		}
		if company != "" || title != "" {
			return company, title
		}
	}
	return "", ""
}

// fromSenderName cleans the From display name down to a plausible company:
// ATS noise and generic role words are removed word by word.
func (f *Fallback) fromSenderName(sender string) string {
	addr, err := mail.ParseAddress(sender)
	if err != nil || addr.Name == "" {
		return ""
	}

	var kept []string
	for _, w := range strings.Fields(addr.Name) {
		trimmed := strings.ToLower(strings.Trim(w, `"',.|`))
		if trimmed == "" || f.isNoiseWord(trimmed) {
			continue
		}
		kept = append(kept, strings.Trim(w, `"',|`))
	}
	if len(kept) == 0 {
		return ""
	}

	name := Canonicalize(strings.Join(kept, " "), f.rules.LegalSuffixes)
	if name == "" || f.isPlatformName(name) {
		return ""
	}
	return name
}

// fromSenderDomain turns mail.acme.com into "Acme". Deny-listed ATS and
// generic provider domains never name a company.
func (f *Fallback) fromSenderDomain(domain string) string {
	if domain == "" {
		return ""
	}
	reg := registrableDomain(domain)
	for _, deny := range f.rules.DomainDenyList {
		if reg == deny || strings.HasSuffix(reg, "."+deny) {
			return ""
		}
	}

	label := strings.SplitN(reg, ".", 2)[0]
	if len(label) < 2 {
		return ""
	}
	return f.titleCase.String(label)
}

func (f *Fallback) firstMatch(patterns []*regexp.Regexp, text, group string) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for i, name := range re.SubexpNames() {
			if name == group && i < len(m) {
				if v := Canonicalize(m[i], f.rules.LegalSuffixes); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// subjectStopWords mark a template-captured company candidate as prose
// rather than an employer name.
var subjectStopWords = map[string]bool{
	"your": true, "my": true, "our": true, "this": true,
	"update": true, "application": true, "applications": true,
	"interview": true, "status": true, "regarding": true, "re": true,
}

func hasSubjectStopWord(s string) bool {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if subjectStopWords[w] {
			return true
		}
	}
	return false
}

func (f *Fallback) isNoiseWord(w string) bool {
	for _, noise := range f.rules.NoiseWords {
		if w == noise {
			return true
		}
	}
	return false
}

func (f *Fallback) isPlatformName(name string) bool {
	for _, platform := range f.rules.Platforms {
		if strings.EqualFold(name, platform) {
			return true
		}
	}
	return false
}

// SenderDomain extracts the bare domain from an RFC 5322 From value.
func SenderDomain(sender string) string {
	addr, err := mail.ParseAddress(sender)
	if err != nil {
		// Tolerate bare addresses without display name or brackets.
		if i := strings.LastIndex(sender, "@"); i >= 0 {
			return strings.ToLower(strings.Trim(sender[i+1:], "> "))
		}
		return ""
	}
	if i := strings.LastIndex(addr.Address, "@"); i >= 0 {
		return strings.ToLower(addr.Address[i+1:])
	}
	return ""
}

// registrableDomain approximates the registrable part of a host: common
// mailer subdomains are stripped, then the last two labels are kept.
func registrableDomain(domain string) string {
	labels := strings.Split(strings.ToLower(domain), ".")
	for len(labels) > 2 && commonSubdomains[labels[0]] {
		labels = labels[1:]
	}
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return strings.Join(labels, ".")
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
