// Package api wires the HTTP surface: authenticated proposal and usage
// endpoints under /api, public beacon endpoints under /track.
package api

import (
	"context"

	"github.com/cleanbid/backend/internal/billing"
	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/engagement"
	"github.com/cleanbid/backend/internal/pdf"
	"github.com/cleanbid/backend/internal/service/proposal"
)

// ProposalFinder resolves proposals without tenant scoping for the public
// token-authorized download path.
type ProposalFinder interface {
	GetByID(ctx context.Context, id string) (*domain.Proposal, error)
}

// Handlers carries the services behind the HTTP surface.
type Handlers struct {
	Proposals  *proposal.Service
	Sharer     *proposal.Sharer
	Billing    *billing.Service
	Engagement *engagement.Service
	Exporter   *pdf.Exporter
	Links      *engagement.LinkBuilder
	Finder     ProposalFinder

	// UpgradeURL is returned with 402 responses from the usage gate.
	UpgradeURL string
}
