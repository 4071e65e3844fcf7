package proposal

import (
	"context"
	"fmt"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/mailer"
	"github.com/cleanbid/backend/internal/pdf"
)

// TokenMinter creates tracking tokens for shared proposals.
type TokenMinter interface {
	MintToken(ctx context.Context, proposalID string) (*domain.Tracking, error)
}

// ShareLinks builds the recipient-facing URLs for a token.
type ShareLinks interface {
	ViewerURL(token string) string
	PixelURL(token string) string
}

// TemplateRenderer renders the share email body.
type TemplateRenderer interface {
	Render(cacheKey, templateStr string, bindings map[string]interface{}) (string, error)
}

// Mailer delivers the share email.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Sharer sends a proposal to its recipient: it mints one tracking token,
// renders the share email with the viewer link and open pixel, and delivers
// it. Sharing does not change the proposal's status.
type Sharer struct {
	svc       *Service
	tokens    TokenMinter
	links     ShareLinks
	templates TemplateRenderer
	mail      Mailer
	fromName  string
	fromEmail string
}

// NewSharer wires the share flow.
func NewSharer(svc *Service, tokens TokenMinter, links ShareLinks, templates TemplateRenderer, mail Mailer, fromName, fromEmail string) *Sharer {
	return &Sharer{
		svc:       svc,
		tokens:    tokens,
		links:     links,
		templates: templates,
		mail:      mail,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Share sends the proposal to recipientEmail (the proposal's client email
// when empty) and returns the viewer URL embedded in the email.
func (sh *Sharer) Share(ctx context.Context, tenantID, id, recipientEmail string) (string, error) {
	p, err := sh.svc.Get(ctx, tenantID, id)
	if err != nil {
		return "", err
	}

	to := recipientEmail
	if to == "" {
		to = p.ClientEmail
	}
	if to == "" {
		return "", &ValidationError{Field: "recipient_email", Reason: "required"}
	}

	tok, err := sh.tokens.MintToken(ctx, p.ID)
	if err != nil {
		return "", fmt.Errorf("mint tracking token: %w", err)
	}

	viewerURL := sh.links.ViewerURL(tok.Token)
	bindings := pdf.ProposalBindings(p)
	bindings["sender_name"] = sh.fromName
	bindings["viewer_url"] = viewerURL
	bindings["pixel_url"] = sh.links.PixelURL(tok.Token)

	html, err := sh.templates.Render("share-email", pdf.ShareEmailTemplate, bindings)
	if err != nil {
		return "", fmt.Errorf("render share email: %w", err)
	}

	msg := mailer.Message{
		To:          to,
		FromName:    sh.fromName,
		FromEmail:   sh.fromEmail,
		Subject:     fmt.Sprintf("Proposal: %s", p.Title),
		HTMLContent: html,
		ProposalID:  p.ID,
	}
	if err := sh.mail.Send(ctx, msg); err != nil {
		return "", fmt.Errorf("send share email: %w", err)
	}

	return viewerURL, nil
}
