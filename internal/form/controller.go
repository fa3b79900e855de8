// Package form implements the state controller of the user wizard. It owns
// the draft, the current step, the merged error set and the submission
// lifecycle, and converts every collaborator failure into state.
package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/fieldcheck"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/validation"
	"github.com/rs/zerolog"
)

var (
	ErrNotEditing = errors.New("wizard is not accepting edits")
	ErrDisposed   = errors.New("wizard disposed")
)

const (
	msgCreated      = "User created successfully"
	msgUpdated      = "User updated successfully"
	msgFailed       = "Something went wrong, please try again"
	msgTimeout      = "The server took too long to respond, please try again"
	msgDiscard      = "Discard unsaved changes?"
	defaultTimeout  = 15 * time.Second
	msgFixHighlight = "Please fix the highlighted fields"
)

// UserAPI is the user create/update collaborator
type UserAPI interface {
	CreateUser(ctx context.Context, p *Payload) (*models.SubmitResult, error)
	UpdateUser(ctx context.Context, id int64, p *Payload) (*models.SubmitResult, error)
}

// Notifier shows toasts
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// OptionSource answers membership questions for dependent fields
type OptionSource interface {
	DesignationBelongs(ctx context.Context, designationID, departmentID int64) (bool, error)
	CandidateBelongs(ctx context.Context, userID, departmentID, excludeUserID int64) (bool, error)
}

// Config tunes a Controller
type Config struct {
	IncludeProfile bool
	// Timeout bounds the create/update request
	Timeout     time.Duration
	EagerUpload bool
	Validation  fieldcheck.Options
	Now         func() time.Time
}

// Deps are the collaborators of a Controller. Only API is required.
type Deps struct {
	API         UserAPI
	Checker     fieldcheck.Checker
	Options     OptionSource
	Uploads     *upload.Manager
	Notifier    Notifier
	Confirmer   Confirmer
	UniqueCache *fieldcheck.ResultCache
	OnSuccess   func(*models.User)
}

// Controller is the wizard state machine
type Controller struct {
	cfg      Config
	deps     Deps
	sections []Section
	engine   *fieldcheck.Engine
	log      zerolog.Logger

	root       context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup

	mu           sync.Mutex
	mode         validation.Mode
	rules        *validation.Rules
	phase        Phase
	step         int
	userID       int64
	draft        *models.UserDraft
	original     *models.UserDraft
	errs         validation.ErrorSet
	warnings     validation.ErrorSet
	touched      map[models.Field]bool
	notices      []string
	submitCancel context.CancelFunc
	version      uint64
	disposed     bool
}

// New creates a Controller in create mode with an empty draft
func New(cfg Config, deps Deps, log zerolog.Logger) *Controller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Validation.Timeout <= 0 {
		cfg.Validation = fieldcheck.DefaultOptions()
	}
	if deps.Uploads == nil {
		deps.Uploads = upload.NewManager(upload.DefaultLimits(), nil, nil, log)
	}

	root, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:        cfg,
		deps:       deps,
		sections:   Sections(cfg.IncludeProfile),
		log:        log.With().Str("component", "form").Logger(),
		root:       root,
		rootCancel: cancel,
	}
	c.rules = c.newRules(validation.ModeCreate)
	c.engine = fieldcheck.New(c.rules, deps.Checker, deps.UniqueCache, c.onOutcome, cfg.Validation, log)
	c.resetLocked(nil)
	return c
}

func (c *Controller) newRules(mode validation.Mode) *validation.Rules {
	r := validation.NewRules(mode)
	if c.cfg.Now != nil {
		r.Now = c.cfg.Now
	}
	return r
}

// Open starts a new session: create mode when existing is nil, otherwise
// edit mode seeded from existing
func (c *Controller) Open(existing *models.User) error {
	c.engine.CancelAll()
	c.deps.Uploads.RemoveFile()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	c.cancelSubmitLocked()
	c.resetLocked(existing)
	return nil
}

// resetLocked replaces all state. The phase always ends in Editing.
func (c *Controller) resetLocked(existing *models.User) {
	c.mode = validation.ModeCreate
	c.userID = 0
	c.draft = &models.UserDraft{}
	if existing != nil {
		c.mode = validation.ModeEdit
		c.userID = existing.ID
		c.draft = models.DraftFromUser(existing)
	}
	c.original = c.draft.Clone()
	c.rules = c.newRules(c.mode)
	if c.mode == validation.ModeEdit {
		c.rules.StoredJoining = c.original.DateOfJoining
	}
	c.engine.SetRules(c.rules)
	c.engine.SetExcludeID(c.userID)

	c.phase = PhaseEditing
	c.step = 1
	c.errs = make(validation.ErrorSet)
	c.warnings = make(validation.ErrorSet)
	c.touched = make(map[models.Field]bool)
	c.notices = nil
	c.version++
}

// Sections returns the steps of this wizard
func (c *Controller) Sections() []Section {
	return c.sections
}

// ChangeField updates f and schedules its validation. A department change
// clears a designation or manager outside the new department before
// ChangeField returns.
func (c *Controller) ChangeField(ctx context.Context, f models.Field, value string) error {
	if !f.IsKnown() {
		return fmt.Errorf("%w: %s", models.ErrUnknownField, f)
	}

	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}

	old := c.draft.Value(f)
	_ = c.draft.Set(f, value)
	c.touched[f] = true
	delete(c.errs, f)
	delete(c.warnings, f)
	c.refreshAdviceLocked()
	c.version++

	c.validateLocked(f, value)
	if f == models.FieldPassword && (c.draft.PasswordConfirmation != "" || c.touched[models.FieldPasswordConfirmation]) {
		c.applyRuleLocked(models.FieldPasswordConfirmation, c.draft.PasswordConfirmation)
	}

	var dep *dependents
	if f == models.FieldDepartment && old != value {
		dep = &dependents{
			department:  value,
			designation: c.draft.Designation,
			reportTo:    c.draft.ReportTo,
			userID:      c.userID,
		}
	}
	c.mu.Unlock()

	if dep != nil {
		c.resetDependents(ctx, dep)
	}
	return nil
}

// validateLocked runs or schedules the checks for a freshly changed field
func (c *Controller) validateLocked(f models.Field, value string) {
	if c.engine.IsAsync(f) {
		unchanged := c.mode == validation.ModeEdit && strings.TrimSpace(value) == strings.TrimSpace(c.original.Value(f))
		switch {
		case unchanged, !c.rules.ValidateField(f, value, c.draft).Valid:
			c.engine.Cancel(f)
		default:
			c.engine.Enqueue(f, value)
		}
	}

	if c.engine.IsEager(f) {
		c.applyRuleLocked(f, value)
		return
	}
	c.engine.ScheduleSync(f, value, c.draft.Clone())
}

func (c *Controller) applyRuleLocked(f models.Field, value string) {
	res := c.rules.ValidateField(f, value, c.draft)
	if res.Valid {
		c.errs.ClearSource(f, validation.SourceRule)
		return
	}
	c.errs[f] = validation.FieldError{Message: res.Message, Source: validation.SourceRule}
}

func (c *Controller) refreshAdviceLocked() {
	for f, w := range c.warnings {
		if w.Source == validation.SourceAdvice {
			delete(c.warnings, f)
		}
	}
	if !c.cfg.IncludeProfile {
		return
	}
	c.warnings.Merge(validation.Advise(c.draft))
}

// onOutcome applies a finished validation if the field still holds the
// validated value
func (c *Controller) onOutcome(o fieldcheck.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseEditing || c.disposed {
		return
	}
	if c.draft.Value(o.Field) != o.Value {
		return
	}

	src := validation.SourceRule
	if o.Kind == fieldcheck.KindUniqueness {
		src = validation.SourceUniqueness
	}
	switch {
	case o.Result.Valid:
		c.errs.ClearSource(o.Field, src)
		if o.Warning != "" {
			c.warnings[o.Field] = validation.FieldError{Message: o.Warning, Source: validation.SourceUniqueness}
		}
	case src == validation.SourceUniqueness:
		c.errs[o.Field] = validation.FieldError{Message: o.Result.Message, Source: src}
	default:
		// a rule failure never hides a uniqueness failure for the same value
		if fe, ok := c.errs[o.Field]; ok && fe.Source == validation.SourceUniqueness {
			return
		}
		c.errs[o.Field] = validation.FieldError{Message: o.Result.Message, Source: src}
	}
	c.version++
}

type dependents struct {
	department  string
	designation string
	reportTo    string
	userID      int64
}

func (c *Controller) resetDependents(ctx context.Context, dep *dependents) {
	deptID, _ := strconv.ParseInt(strings.TrimSpace(dep.department), 10, 64)

	clearDesignation := dep.designation != "" && !c.belongs(ctx, deptID, dep.designation, func(id int64) (bool, error) {
		return c.deps.Options.DesignationBelongs(ctx, id, deptID)
	})
	clearReportTo := dep.reportTo != "" && !c.belongs(ctx, deptID, dep.reportTo, func(id int64) (bool, error) {
		return c.deps.Options.CandidateBelongs(ctx, id, deptID, dep.userID)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.Department != dep.department {
		return
	}
	if clearDesignation && c.draft.Designation == dep.designation {
		c.clearFieldLocked(models.FieldDesignation)
	}
	if clearReportTo && c.draft.ReportTo == dep.reportTo {
		c.clearFieldLocked(models.FieldReportTo)
	}
}

// belongs reports whether raw is a member of department deptID. Any doubt
// counts as not belonging.
func (c *Controller) belongs(ctx context.Context, deptID int64, raw string, check func(int64) (bool, error)) bool {
	if c.deps.Options == nil || deptID <= 0 {
		return false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return false
	}
	ok, err := check(id)
	if err != nil {
		c.log.Warn().Err(err).Int64("department", deptID).Int64("id", id).Msg("Membership check failed")
		return false
	}
	return ok
}

func (c *Controller) clearFieldLocked(f models.Field) {
	_ = c.draft.Set(f, "")
	c.engine.Cancel(f)
	delete(c.errs, f)
	delete(c.warnings, f)
	c.version++
}

// SelectImage validates and attaches a. A rejected file leaves the previous
// attachment in place and reports the problem on the profile image field.
func (c *Controller) SelectImage(a *models.Attachment) error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	selErr := c.deps.Uploads.SelectFile(a)
	st := c.deps.Uploads.State()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched[models.FieldProfileImage] = true
	c.version++
	if selErr != nil {
		c.errs[models.FieldProfileImage] = validation.FieldError{Message: st.Error, Source: validation.SourceRule}
		return nil
	}
	delete(c.errs, models.FieldProfileImage)
	c.draft.ProfileImage = st.File

	if c.cfg.EagerUpload {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			_ = c.UploadImage(c.root)
		}()
	}
	return nil
}

// UploadImage sends the selected image ahead of submission
func (c *Controller) UploadImage(ctx context.Context) error {
	res, err := c.deps.Uploads.Upload(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if errors.Is(err, upload.ErrCanceled) || errors.Is(err, upload.ErrNoFile) {
		return nil
	}
	c.version++
	if err != nil {
		c.errs[models.FieldProfileImage] = validation.FieldError{
			Message: c.deps.Uploads.State().Error,
			Source:  validation.SourceServer,
		}
		return nil
	}
	if c.draft.ProfileImage != nil {
		c.draft.ProfileImage.URL = res.URL
	}
	delete(c.errs, models.FieldProfileImage)
	return nil
}

// RemoveImage drops the attachment and cancels its upload
func (c *Controller) RemoveImage() error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.deps.Uploads.RemoveFile()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.ProfileImage = nil
	delete(c.errs, models.FieldProfileImage)
	c.touched[models.FieldProfileImage] = true
	c.version++
	return nil
}

// NextStep validates the current section and advances when it is clean.
// It reports whether the step changed.
func (c *Controller) NextStep(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return false, err
	}
	if c.step >= len(c.sections) {
		return false, nil
	}
	c.transitionLocked(evValidate)

	fields := scalarFields(c.sections[c.step-1 : c.step])
	sectionErrs := c.validateFieldsLocked(fields)
	for _, f := range fields {
		c.touched[f] = true
	}
	c.version++

	if len(sectionErrs) > 0 {
		c.transitionLocked(evInvalid)
		return false, nil
	}
	c.transitionLocked(evValid)
	c.step++
	return true, nil
}

// PreviousStep moves back one step without validation
func (c *Controller) PreviousStep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editableLocked() != nil || c.step <= 1 {
		return false
	}
	c.step--
	c.version++
	return true
}

// validateFieldsLocked re-runs the rules for fields, keeping uniqueness and
// server errors the rules cannot see, and returns the errors on fields
func (c *Controller) validateFieldsLocked(fields []models.Field) validation.ErrorSet {
	ruleErrs := c.rules.ValidateDraft(c.draft, fields...)
	for _, f := range fields {
		c.errs.ClearSource(f, validation.SourceRule)
	}
	c.errs.Merge(ruleErrs)

	out := make(validation.ErrorSet)
	for _, f := range fields {
		if fe, ok := c.errs[f]; ok {
			out[f] = fe
		}
	}
	return out
}

// Submit validates the whole draft and sends it. The returned phase is
// Success or Editing.
func (c *Controller) Submit(ctx context.Context) Phase {
	c.mu.Lock()
	if c.editableLocked() != nil {
		defer c.mu.Unlock()
		return c.phase
	}
	c.transitionLocked(evValidate)
	c.notices = nil

	fields := scalarFields(c.sections)
	for _, f := range fields {
		c.errs.ClearSource(f, validation.SourceServer)
		c.touched[f] = true
	}
	errs := c.validateFieldsLocked(fields)
	c.version++
	if len(errs) > 0 {
		c.transitionLocked(evInvalid)
		c.jumpToFirstErrorLocked()
		c.mu.Unlock()
		c.notify(false, msgFixHighlight)
		return PhaseEditing
	}

	payload := ComposePayload(c.draft, c.mode, c.userID, c.sections)
	mode, userID := c.mode, c.userID
	c.transitionLocked(evSubmit)
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	c.submitCancel = cancel
	c.mu.Unlock()
	defer cancel()

	var (
		res *models.SubmitResult
		err error
	)
	if mode == validation.ModeEdit {
		res, err = c.deps.API.UpdateUser(reqCtx, userID, payload)
	} else {
		res, err = c.deps.API.CreateUser(reqCtx, payload)
	}

	c.mu.Lock()
	if c.phase != PhaseSubmitting {
		// closed or reopened while the request was in flight
		defer c.mu.Unlock()
		return c.phase
	}
	c.submitCancel = nil

	if err != nil {
		toasts := c.failLocked(reqCtx, err)
		c.mu.Unlock()
		for _, t := range toasts {
			c.notify(false, t)
		}
		return PhaseEditing
	}

	c.transitionLocked(evSucceeded)
	c.engine.CancelAll()
	c.forgetClaimedLocked()
	c.draft = &models.UserDraft{}
	c.original = c.draft.Clone()
	c.errs = make(validation.ErrorSet)
	c.warnings = make(validation.ErrorSet)
	c.touched = make(map[models.Field]bool)
	c.step = 1
	c.version++
	c.mu.Unlock()

	c.deps.Uploads.RemoveFile()

	var (
		messages []string
		user     *models.User
	)
	if res != nil {
		messages = res.Messages
		user = res.User
	}
	if len(messages) == 0 {
		messages = []string{msgCreated}
		if mode == validation.ModeEdit {
			messages = []string{msgUpdated}
		}
	}
	for _, m := range messages {
		c.notify(true, m)
	}
	if c.deps.OnSuccess != nil {
		c.deps.OnSuccess(user)
	}
	c.log.Info().Str("mode", mode.String()).Msg("User submitted")
	return PhaseSuccess
}

// forgetClaimedLocked drops cached "available" answers for the unique
// values the saved record now holds
func (c *Controller) forgetClaimedLocked() {
	cache := c.engine.Cache()
	for _, f := range models.AllFields {
		if !models.UniqueFields[f] {
			continue
		}
		v := c.draft.Value(f)
		if v == "" {
			continue
		}
		cache.Invalidate(fieldcheck.CacheKey(f, v))
		cache.Invalidate(fieldcheck.CacheKey(f, strings.TrimSpace(v)))
	}
}

// failLocked maps a submission error into state and returns the toasts to
// show
func (c *Controller) failLocked(reqCtx context.Context, err error) []string {
	c.transitionLocked(evFailed)
	c.version++

	if vf, ok := models.AsValidationFailure(err); ok {
		set, general := validation.FromFailure(vf)
		c.errs.Merge(set)
		c.notices = general
		c.jumpToFirstErrorLocked()
		return general
	}

	c.log.Error().Err(err).Msg("Submission failed")
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return []string{msgTimeout}
	}
	return []string{models.ErrorMessage(err, msgFailed)}
}

func (c *Controller) jumpToFirstErrorLocked() {
	for _, f := range c.errs.Fields() {
		if step := StepOf(c.sections, f); step > 0 {
			c.step = step
			return
		}
	}
}

// HasChanges reports whether the draft differs from the state at open.
// Credentials count only when non-empty.
func (c *Controller) HasChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasChangesLocked()
}

func (c *Controller) hasChangesLocked() bool {
	for _, f := range models.AllFields {
		v := c.draft.Value(f)
		if models.WriteOnlyFields[f] {
			if v != "" {
				return true
			}
			continue
		}
		if v != c.original.Value(f) {
			return true
		}
	}
	return c.draft.ProfileImage != nil
}

// Close discards the session. With unsaved changes the Confirmer is asked
// first; Close reports whether the wizard was closed.
func (c *Controller) Close(ctx context.Context) bool {
	c.mu.Lock()
	dirty := c.phase != PhaseSuccess && c.hasChangesLocked()
	c.mu.Unlock()

	if dirty && c.deps.Confirmer != nil && !c.deps.Confirmer.Confirm(ctx, msgDiscard) {
		return false
	}

	c.engine.CancelAll()
	c.deps.Uploads.RemoveFile()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelSubmitLocked()
	c.resetLocked(nil)
	return true
}

// Dispose stops all background work; the controller is unusable afterwards
func (c *Controller) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.cancelSubmitLocked()
	c.mu.Unlock()

	c.rootCancel()
	c.engine.Close()
	c.deps.Uploads.Close()
	c.wg.Wait()
}

// Wait blocks until scheduled validations and uploads have finished
func (c *Controller) Wait() {
	c.engine.Wait()
	c.wg.Wait()
}

// Phase returns the current phase
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) editableLocked() error {
	if c.disposed {
		return ErrDisposed
	}
	if c.phase == PhaseSuccess {
		// a finished wizard starts over on the next edit
		c.transitionLocked(evReset)
	}
	if c.phase != PhaseEditing {
		return ErrNotEditing
	}
	return nil
}

func (c *Controller) cancelSubmitLocked() {
	if c.submitCancel != nil {
		c.submitCancel()
		c.submitCancel = nil
	}
}

func (c *Controller) transitionLocked(ev event) {
	to, err := next(c.phase, ev)
	if err != nil {
		c.log.Error().Err(err).Msg("Rejected phase transition")
		return
	}
	c.phase = to
}

func (c *Controller) notify(success bool, message string) {
	if c.deps.Notifier == nil || message == "" {
		return
	}
	if success {
		c.deps.Notifier.Success(message)
		return
	}
	c.deps.Notifier.Error(message)
}
