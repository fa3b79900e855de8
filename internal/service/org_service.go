package service

import (
	"context"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/repository"
	"github.com/rs/zerolog"
)

// orgService is the concrete implementation of OrgService
type orgService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newOrgService(repos *repository.Repositories, log zerolog.Logger) *orgService {
	return &orgService{
		repos: repos,
		log:   log.With().Str("service", "org").Logger(),
	}
}

// Departments lists every department
func (s *orgService) Departments(ctx context.Context) ([]*models.Department, error) {
	deps, err := s.repos.Department.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list departments")
		return nil, err
	}
	return nonNil(deps), nil
}

// Designations lists the designations of a department, all of them for 0
func (s *orgService) Designations(ctx context.Context, departmentID int64) ([]*models.Designation, error) {
	list, err := s.repos.Designation.ListByDepartment(ctx, departmentID)
	if err != nil {
		s.log.Error().Err(err).Int64("department_id", departmentID).Msg("Failed to list designations")
		return nil, err
	}
	return nonNil(list), nil
}

// ReportToCandidates lists the possible managers within a department
func (s *orgService) ReportToCandidates(ctx context.Context, departmentID, excludeID int64) ([]*models.ReportToCandidate, error) {
	if departmentID <= 0 {
		return []*models.ReportToCandidate{}, nil
	}
	list, err := s.repos.User.ReportToCandidates(ctx, departmentID, excludeID)
	if err != nil {
		s.log.Error().Err(err).Int64("department_id", departmentID).Msg("Failed to list report-to candidates")
		return nil, err
	}
	return nonNil(list), nil
}

// nonNil keeps empty lists encoding as [] instead of null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
