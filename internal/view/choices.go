package view

import (
	"context"
	"strconv"
	"strings"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"golang.org/x/sync/errgroup"
)

// OptionLoader is the option data provider
type OptionLoader interface {
	LoadDepartments(ctx context.Context) ([]models.Option, error)
	LoadDesignations(ctx context.Context, departmentID int64) ([]models.Option, error)
	LoadReportToCandidates(ctx context.Context, departmentID, excludeUserID int64) ([]models.Option, error)
}

// LoadChoices fetches the three option lists for d concurrently. The
// dependent lists stay empty until a department is chosen.
func LoadChoices(ctx context.Context, loader OptionLoader, d *models.UserDraft, excludeUserID int64) (Choices, error) {
	var choices Choices
	deptID, _ := strconv.ParseInt(strings.TrimSpace(d.Department), 10, 64)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts, err := loader.LoadDepartments(ctx)
		choices.Departments = opts
		return err
	})
	if deptID > 0 {
		g.Go(func() error {
			opts, err := loader.LoadDesignations(ctx, deptID)
			choices.Designations = opts
			return err
		})
		g.Go(func() error {
			opts, err := loader.LoadReportToCandidates(ctx, deptID, excludeUserID)
			choices.ReportTo = opts
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return choices, err
	}
	return choices, nil
}
