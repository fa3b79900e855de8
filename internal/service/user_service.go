package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/repository"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgUserCreated  = "User created successfully"
	msgUserUpdated  = "User updated successfully"
	msgImageMissing = "Uploaded image was not found, please upload it again"
)

// userService is the concrete implementation of UserService
type userService struct {
	repos    *repository.Repositories
	uploads  UploadService
	hashCost int
	now      func() time.Time
	log      zerolog.Logger
}

func newUserService(repos *repository.Repositories, uploads UploadService, cfg config.SecurityConfig, log zerolog.Logger) *userService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &userService{
		repos:    repos,
		uploads:  uploads,
		hashCost: cost,
		now:      time.Now,
		log:      log.With().Str("service", "user").Logger(),
	}
}

// Create validates in and inserts a new user
func (s *userService) Create(ctx context.Context, in *UserInput) (*models.SubmitResult, error) {
	draft := &models.UserDraft{}
	if err := overlay(draft, in.Values); err != nil {
		return nil, err
	}

	user := &models.User{}
	if err := s.prepare(ctx, validation.ModeCreate, user, draft, in); err != nil {
		return nil, err
	}

	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, s.writeError(err, "create")
	}

	s.log.Info().Int64("user_id", user.ID).Str("user_name", user.UserName).Msg("User created")
	return &models.SubmitResult{User: user, Messages: []string{msgUserCreated}}, nil
}

// Update validates in against the stored record and overwrites it
func (s *userService) Update(ctx context.Context, id int64, in *UserInput) (*models.SubmitResult, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	draft := models.DraftFromUser(existing)
	if err := overlay(draft, in.Values); err != nil {
		return nil, err
	}

	user := *existing
	user.PasswordHash = nil
	if err := s.prepare(ctx, validation.ModeEdit, &user, draft, in); err != nil {
		return nil, err
	}

	if err := s.repos.User.Update(ctx, &user); err != nil {
		return nil, s.writeError(err, "update")
	}

	s.log.Info().Int64("user_id", user.ID).Msg("User updated")
	return &models.SubmitResult{User: &user, Messages: []string{msgUserUpdated}}, nil
}

// Get returns a user or models.ErrNotFound
func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, models.ErrNotFound
	}
	return user, nil
}

// CheckAvailability reports whether value is free for a unique field
func (s *userService) CheckAvailability(ctx context.Context, field models.Field, value string, excludeID int64) (models.Availability, error) {
	if !models.UniqueFields[field] {
		return models.Availability{}, fmt.Errorf("%w: %s", models.ErrUnknownField, field)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return models.Availability{Available: true}, nil
	}

	exists, err := s.repos.User.FieldExists(ctx, field, value, excludeID)
	if err != nil {
		return models.Availability{}, fmt.Errorf("failed to check %s: %w", field, err)
	}
	if exists {
		return models.Availability{Message: takenMessage(field)}, nil
	}
	return models.Availability{Available: true}, nil
}

// prepare runs every server side check and fills user from draft. Field
// problems come back as a *models.ValidationFailure.
func (s *userService) prepare(ctx context.Context, mode validation.Mode, user *models.User, draft *models.UserDraft, in *UserInput) error {
	rules := validation.NewRules(mode)
	rules.Now = s.now
	if mode == validation.ModeEdit && !user.DateOfJoining.IsZero() {
		rules.StoredJoining = user.DateOfJoining.Format(models.DateLayout)
	}
	errs := rules.ValidateDraft(draft)

	if err := s.checkReferences(ctx, user.ID, draft, errs); err != nil {
		return err
	}
	if err := s.checkUnique(ctx, user.ID, draft, errs); err != nil {
		return err
	}
	if len(errs) > 0 {
		return errs.ToFailure()
	}

	if err := applyDraft(user, draft); err != nil {
		return err
	}

	if draft.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(draft.Password), s.hashCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	return s.attachImage(ctx, user, in)
}

func (s *userService) checkReferences(ctx context.Context, selfID int64, d *models.UserDraft, errs validation.ErrorSet) error {
	deptID, _ := d.ID(models.FieldDepartment)
	deptOK := false
	if !errs.Has(models.FieldDepartment) && deptID > 0 {
		exists, err := s.repos.Department.Exists(ctx, deptID)
		if err != nil {
			return fmt.Errorf("failed to check department: %w", err)
		}
		if !exists {
			errs[models.FieldDepartment] = serverError("Selected department does not exist")
		}
		deptOK = exists
	}

	if desigID, _ := d.ID(models.FieldDesignation); !errs.Has(models.FieldDesignation) && desigID > 0 {
		desig, err := s.repos.Designation.GetByID(ctx, desigID)
		if err != nil {
			return fmt.Errorf("failed to check designation: %w", err)
		}
		switch {
		case desig == nil:
			errs[models.FieldDesignation] = serverError("Selected designation does not exist")
		case deptOK && desig.DepartmentID != deptID:
			errs[models.FieldDesignation] = serverError("Designation does not belong to the selected department")
		}
	}

	if managerID, _ := d.ID(models.FieldReportTo); !errs.Has(models.FieldReportTo) && managerID > 0 {
		if selfID != 0 && managerID == selfID {
			errs[models.FieldReportTo] = serverError("A user cannot report to themselves")
			return nil
		}
		manager, err := s.repos.User.GetByID(ctx, managerID)
		if err != nil {
			return fmt.Errorf("failed to check manager: %w", err)
		}
		switch {
		case manager == nil:
			errs[models.FieldReportTo] = serverError("Selected manager does not exist")
		case deptOK && manager.DepartmentID != deptID:
			errs[models.FieldReportTo] = serverError("Manager must belong to the selected department")
		}
	}
	return nil
}

func (s *userService) checkUnique(ctx context.Context, selfID int64, d *models.UserDraft, errs validation.ErrorSet) error {
	for _, f := range models.AllFields {
		if !models.UniqueFields[f] || errs.Has(f) {
			continue
		}
		exists, err := s.repos.User.FieldExists(ctx, f, strings.TrimSpace(d.Value(f)), selfID)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", f, err)
		}
		if exists {
			errs[f] = serverError(takenMessage(f))
		}
	}
	return nil
}

func (s *userService) attachImage(ctx context.Context, user *models.User, in *UserInput) error {
	switch {
	case in.Image != nil:
		rec, err := s.uploads.StoreProfileImage(ctx, in.Image)
		if isUploadRejection(err) {
			vf := models.NewValidationFailure()
			vf.Add(string(models.FieldProfileImage), s.uploads.Limits().Message(err))
			return vf
		}
		if err != nil {
			return err
		}
		user.ProfileImage = rec.URL
	case in.ImageURL != "":
		if in.ImageURL == user.ProfileImage {
			return nil
		}
		rec, err := s.uploads.Resolve(ctx, in.ImageURL)
		if errors.Is(err, models.ErrNotFound) {
			vf := models.NewValidationFailure()
			vf.Add(string(models.FieldProfileImage), msgImageMissing)
			return vf
		}
		if err != nil {
			return err
		}
		user.ProfileImage = rec.URL
	}
	return nil
}

// writeError maps a unique index collision that slipped past the checks
// into a field error
func (s *userService) writeError(err error, op string) error {
	if f, ok := repository.UniqueViolation(err); ok {
		vf := models.NewValidationFailure()
		vf.Add(string(f), takenMessage(f))
		return vf
	}
	if errors.Is(err, models.ErrNotFound) {
		return err
	}
	s.log.Error().Err(err).Str("op", op).Msg("Failed to write user")
	return fmt.Errorf("failed to %s user: %w", op, err)
}

// overlay copies the sent values onto d, trimming everything but credentials
func overlay(d *models.UserDraft, values map[models.Field]string) error {
	for f, v := range values {
		if !models.WriteOnlyFields[f] {
			v = strings.TrimSpace(v)
		}
		if err := d.Set(f, v); err != nil {
			return err
		}
	}
	return nil
}

// applyDraft converts the validated draft into record values
func applyDraft(u *models.User, d *models.UserDraft) error {
	u.Name = d.Name
	u.UserName = d.UserName
	u.Email = strings.ToLower(d.Email)
	u.EmployeeID = d.EmployeeID
	u.Gender = d.Gender
	u.Phone = d.Phone
	u.Address = d.Address
	u.BankName = d.BankName
	u.AccountNumber = d.AccountNumber
	u.IFSC = strings.ToUpper(d.IFSC)
	u.PAN = strings.ToUpper(d.PAN)

	joined, err := time.Parse(models.DateLayout, d.DateOfJoining)
	if err != nil {
		return fmt.Errorf("invalid date_of_joining: %w", err)
	}
	u.DateOfJoining = joined

	u.Birthday = nil
	if d.Birthday != "" {
		born, err := time.Parse(models.DateLayout, d.Birthday)
		if err != nil {
			return fmt.Errorf("invalid birthday: %w", err)
		}
		u.Birthday = &born
	}

	if u.DepartmentID, err = d.ID(models.FieldDepartment); err != nil {
		return fmt.Errorf("invalid department: %w", err)
	}
	if u.DesignationID, err = d.ID(models.FieldDesignation); err != nil {
		return fmt.Errorf("invalid designation: %w", err)
	}

	u.ReportTo = nil
	if d.ReportTo != "" {
		id, err := strconv.ParseInt(d.ReportTo, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid report_to: %w", err)
		}
		u.ReportTo = &id
	}
	return nil
}

func isUploadRejection(err error) bool {
	return errors.Is(err, upload.ErrFileTooLarge) ||
		errors.Is(err, upload.ErrUnsupportedType) ||
		errors.Is(err, upload.ErrEmptyFile)
}

func takenMessage(f models.Field) string {
	return f.Label() + " is already taken"
}

func serverError(msg string) validation.FieldError {
	return validation.FieldError{Message: msg, Source: validation.SourceServer}
}
