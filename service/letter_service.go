package service

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"lexintake-backend/models"

	"github.com/google/uuid"
)

// LetterStore persists engagement letter rows
type LetterStore interface {
	Create(ctx context.Context, letter *models.EngagementLetter) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.EngagementLetter, error)
	GetLatestByMatterID(ctx context.Context, matterID uuid.UUID) (*models.EngagementLetter, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.LetterStatus) error
}

// BlobStore stores rendered letter documents
type BlobStore interface {
	Upload(ctx context.Context, key string, data io.Reader) (string, error)
}

var (
	ErrLetterNotFound          = errors.New("engagement letter not found")
	ErrInvalidLetterTransition = errors.New("engagement letter status can only move forward")
	ErrUnknownTemplate         = errors.New("unknown letter template")
)

// letterTemplates holds the engagement letter text per template ID.
// Templates are plain text with literal {{placeholder}} markers; no logic or
// branching happens inside a template.
var letterTemplates = map[string]string{
	"default": `ENGAGEMENT LETTER

Date: {{date}}

Dear {{client_name}},

Thank you for selecting {{firm_name}} to represent you in connection with
your {{matter_type}} matter. This letter confirms the terms of our
engagement.

Scope of representation: {{scope}}

Fees: {{fee_arrangement}}

Our representation is limited to the scope described above. Please sign and
return this letter to confirm the engagement.

Sincerely,
{{firm_name}}`,

	"family_law": `ENGAGEMENT LETTER - FAMILY LAW

Date: {{date}}

Dear {{client_name}},

Thank you for selecting {{firm_name}} to represent you in your family law
matter. Family matters are personal; we will keep you informed at every
stage and will not take significant steps without your instruction.

Scope of representation: {{scope}}

Fees: {{fee_arrangement}}

Please note that court filing fees, process server fees, and expert costs
are billed separately from our professional fees.

Sincerely,
{{firm_name}}`,

	"employment": `ENGAGEMENT LETTER - EMPLOYMENT

Date: {{date}}

Dear {{client_name}},

Thank you for selecting {{firm_name}} to represent you in your employment
matter. Employment claims are frequently subject to short administrative
deadlines; we will calendar and monitor all applicable limitation periods.

Scope of representation: {{scope}}

Fees: {{fee_arrangement}}

Sincerely,
{{firm_name}}`,
}

// renderShell wraps the filled letter text in an HTML document. The content
// is interpolated through html/template so user-supplied text is escaped and
// cannot inject markup into the rendered document.
var renderShell = template.Must(template.New("letter").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Engagement Letter</title></head>
<body><pre style="font-family: Georgia, serif; white-space: pre-wrap;">{{.Content}}</pre></body>
</html>
`))

// EngagementLetterGenerator renders and versions engagement-letter
// documents from templates.
type EngagementLetterGenerator struct {
	letters LetterStore
	blobs   BlobStore
	now     func() time.Time
}

// LetterGeneratorOption is a functional option for EngagementLetterGenerator
type LetterGeneratorOption func(*EngagementLetterGenerator)

// LetterWithStore sets the letter store
func LetterWithStore(store LetterStore) LetterGeneratorOption {
	return func(g *EngagementLetterGenerator) {
		g.letters = store
	}
}

// LetterWithBlobStore sets the blob store for rendered documents
func LetterWithBlobStore(blobs BlobStore) LetterGeneratorOption {
	return func(g *EngagementLetterGenerator) {
		g.blobs = blobs
	}
}

// LetterWithClock overrides the clock (used by tests)
func LetterWithClock(now func() time.Time) LetterGeneratorOption {
	return func(g *EngagementLetterGenerator) {
		g.now = now
	}
}

// NewEngagementLetterGenerator creates a new letter generator
func NewEngagementLetterGenerator(opts ...LetterGeneratorOption) *EngagementLetterGenerator {
	g := &EngagementLetterGenerator{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateLetter fills the selected template, renders it, stores the
// rendered document, and records a draft letter row. Regenerating for the
// same matter produces the next version.
func (g *EngagementLetterGenerator) GenerateLetter(ctx context.Context, matterID uuid.UUID, templateID string, data map[string]string) (*models.EngagementLetter, error) {
	if templateID == "" {
		templateID = "default"
	}
	tmpl, ok := letterTemplates[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}

	content := g.fillTemplate(tmpl, data)

	rendered, err := renderLetter(content)
	if err != nil {
		return nil, fmt.Errorf("failed to render letter: %w", err)
	}

	key := fmt.Sprintf("letters/%s/%d.html", matterID, g.now().UnixNano())
	storedKey, err := g.blobs.Upload(ctx, key, strings.NewReader(rendered))
	if err != nil {
		return nil, fmt.Errorf("failed to store rendered letter: %w", err)
	}

	letter := &models.EngagementLetter{
		MatterID:            matterID,
		TemplateID:          templateID,
		Content:             content,
		RenderedDocumentKey: storedKey,
		Status:              models.LetterDraft,
	}

	if err := g.letters.Create(ctx, letter); err != nil {
		return nil, fmt.Errorf("failed to record letter: %w", err)
	}

	return letter, nil
}

// UpdateStatus moves a letter along its forward-only lifecycle
func (g *EngagementLetterGenerator) UpdateStatus(ctx context.Context, letterID uuid.UUID, next models.LetterStatus) error {
	letter, err := g.letters.GetByID(ctx, letterID)
	if err != nil {
		return ErrLetterNotFound
	}

	if !letter.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidLetterTransition, letter.Status, next)
	}

	return g.letters.UpdateStatus(ctx, letterID, next)
}

// LatestForMatter returns the highest-version letter for a matter, or nil
func (g *EngagementLetterGenerator) LatestForMatter(ctx context.Context, matterID uuid.UUID) (*models.EngagementLetter, error) {
	return g.letters.GetLatestByMatterID(ctx, matterID)
}

// fillTemplate performs literal placeholder substitution. Unknown
// placeholders are left in place so missing data is visible in review.
func (g *EngagementLetterGenerator) fillTemplate(tmpl string, data map[string]string) string {
	pairs := make([]string, 0, 2*(len(data)+1))
	pairs = append(pairs, "{{date}}", g.now().Format("January 2, 2006"))
	for key, value := range data {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// renderLetter produces the stored HTML document from the filled text
func renderLetter(content string) (string, error) {
	var sb strings.Builder
	err := renderShell.Execute(&sb, struct{ Content string }{Content: content})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
