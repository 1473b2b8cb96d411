package services

import (
	"context"
	"fmt"

	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
)

// reportingService implements the read-only admin aggregations.
type reportingService struct {
	reporting portsrepo.ReportingRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(reporting portsrepo.ReportingRepository) portssvc.ReportingSvcFacade {
	return &reportingService{reporting: reporting}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// Summary aggregates balances and pending payouts across all accounts.
func (s *reportingService) Summary(ctx context.Context) (*domain.WalletSummary, error) {
	kinds, err := s.reporting.GetKindSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build wallet summary: %w", err)
	}
	return &domain.WalletSummary{Kinds: kinds}, nil
}
