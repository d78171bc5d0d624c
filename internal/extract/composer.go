// Package extract composes the two-tier field extraction: a probabilistic
// primary extractor backed by Claude, with a deterministic per-field
// fallback over keyword sets and sender heuristics.
package extract

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

// Extraction is the composed result for one message: each field resolved
// independently by the primary tier, the fallback tier, or neither.
type Extraction struct {
	Company string
	Title   string
	Status  model.Status

	CompanySource model.FieldSource
	TitleSource   model.FieldSource
	StatusSource  model.FieldSource
}

// Composer runs the primary extractor and fills any unresolved field from
// the fallback, field by field. A nil primary means fallback-only operation.
type Composer struct {
	primary       *Primary
	fallback      *Fallback
	legalSuffixes []string
}

// NewComposer wires the two extraction tiers.
func NewComposer(primary *Primary, fallback *Fallback) *Composer {
	return &Composer{
		primary:       primary,
		fallback:      fallback,
		legalSuffixes: fallback.rules.LegalSuffixes,
	}
}

// Compose extracts company, title, and status for one message. Extraction
// failure is never fatal: a failed primary call degrades to the fallback
// for every field, and fields neither tier resolves come back unresolved.
func (c *Composer) Compose(ctx context.Context, subject, body, sender string) Extraction {
	out := Extraction{
		CompanySource: model.SourceUnresolved,
		TitleSource:   model.SourceUnresolved,
		StatusSource:  model.SourceUnresolved,
		Status:        model.StatusUnresolved,
	}

	if c.primary != nil {
		fields, err := c.primary.Extract(ctx, subject, body)
		if err != nil {
			zap.L().Warn("primary extractor failed, using fallback",
				zap.String("subject", subject),
				zap.Error(err),
			)
		} else {
			// The sentinel may come back in any casing the model chooses.
			if v := Canonicalize(fields.Company, c.legalSuffixes); v != "" && !strings.EqualFold(fields.Company, model.Unresolved) {
				out.Company = v
				out.CompanySource = model.SourcePrimary
			}
			if v := Canonicalize(fields.Title, c.legalSuffixes); v != "" && !strings.EqualFold(fields.Title, model.Unresolved) {
				out.Title = v
				out.TitleSource = model.SourcePrimary
			}
			if s := model.ParseStatus(fields.Status); s != model.StatusUnresolved {
				out.Status = s
				out.StatusSource = model.SourcePrimary
			}
		}
	}

	// Per-field fallback: the primary's company may be trusted while its
	// title falls back, and vice versa.
	if out.Company == "" || out.Title == "" {
		company, title := c.fallback.CompanyTitle(subject, body, sender)
		if out.Company == "" && company != "" {
			out.Company = company
			out.CompanySource = model.SourceFallback
		}
		if out.Title == "" && title != "" {
			out.Title = title
			out.TitleSource = model.SourceFallback
		}
	}
	if out.Status == model.StatusUnresolved {
		if s := c.fallback.Status(subject, body); s != model.StatusUnresolved {
			out.Status = s
			out.StatusSource = model.SourceFallback
		}
	}

	if out.Company == "" {
		out.Company = model.Unresolved
	}
	if out.Title == "" {
		out.Title = model.Unresolved
	}

	return out
}

// Platform identifies the job platform behind a sender address, if any.
func (c *Composer) Platform(sender string) string {
	return c.fallback.Platform(SenderDomain(sender))
}
