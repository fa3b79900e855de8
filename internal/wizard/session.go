package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/form"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/options"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/view"
	"github.com/rs/zerolog"
)

// Toast kinds
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// Toast is a notification raised by the controller
type Toast struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type toastQueue struct {
	mu    sync.Mutex
	items []Toast
}

func (q *toastQueue) Success(message string) { q.push(ToastSuccess, message) }
func (q *toastQueue) Error(message string)   { q.push(ToastError, message) }

func (q *toastQueue) push(kind, message string) {
	q.mu.Lock()
	q.items = append(q.items, Toast{Kind: kind, Message: message})
	q.mu.Unlock()
}

// drain returns and forgets the queued toasts
func (q *toastQueue) drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

type confirmKey struct{}

// WithConfirm records the caller's answer to a discard prompt on ctx
func WithConfirm(ctx context.Context, yes bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, yes)
}

// contextConfirmer answers with the value stored by WithConfirm. A hosted
// session cannot ask interactively, so the answer travels with the request.
type contextConfirmer struct{}

func (contextConfirmer) Confirm(ctx context.Context, message string) bool {
	yes, _ := ctx.Value(confirmKey{}).(bool)
	return yes
}

// View is what a client renders for a session
type View struct {
	ID     string       `json:"id"`
	Dialog view.Dialog  `json:"dialog"`
	Toasts []Toast      `json:"toasts"`
	User   *models.User `json:"user,omitempty"`
}

// Session is one open wizard
type Session struct {
	ID string

	ctrl     *form.Controller
	provider *options.Provider
	uploads  *upload.Manager
	previews *upload.MemoryPreviews
	toasts   *toastQueue
	log      zerolog.Logger

	mu       sync.Mutex
	lastSeen time.Time
	saved    *models.User
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) onSuccess(user *models.User) {
	s.mu.Lock()
	s.saved = user
	s.mu.Unlock()
	if user != nil && user.DepartmentID > 0 {
		// the new user is now a report-to candidate of its department
		s.provider.Invalidate(options.KindReportTo, user.DepartmentID)
	}
}

// View renders the current state and drains pending toasts. Option lists
// that fail to load are left empty; the dialog is still usable.
func (s *Session) View(ctx context.Context) *View {
	snap := s.ctrl.Snapshot()

	choices, err := view.LoadChoices(ctx, s.provider, snap.Draft, snap.UserID)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load option lists")
	}

	s.mu.Lock()
	saved := s.saved
	s.mu.Unlock()

	return &View{
		ID:     s.ID,
		Dialog: view.Compose(snap, choices, s.uploads.Limits()),
		Toasts: s.toasts.drain(),
		User:   saved,
	}
}

// Snapshot returns the raw controller state
func (s *Session) Snapshot() form.Snapshot {
	return s.ctrl.Snapshot()
}

// Apply changes several fields. They are applied in display order so a
// department change is seen before its dependents.
func (s *Session) Apply(ctx context.Context, values map[models.Field]string) error {
	for f := range values {
		if !f.IsKnown() {
			return models.ErrUnknownField
		}
	}
	for _, f := range models.AllFields {
		v, ok := values[f]
		if !ok {
			continue
		}
		if err := s.ctrl.ChangeField(ctx, f, v); err != nil {
			return err
		}
	}
	return nil
}

// Next advances to the next step when the current one is valid
func (s *Session) Next(ctx context.Context) (bool, error) {
	return s.ctrl.NextStep(ctx)
}

// Previous goes back one step
func (s *Session) Previous() bool {
	return s.ctrl.PreviousStep()
}

// Submit validates everything and sends the draft
func (s *Session) Submit(ctx context.Context) form.Phase {
	return s.ctrl.Submit(ctx)
}

// SelectImage attaches a profile image
func (s *Session) SelectImage(a *models.Attachment) error {
	return s.ctrl.SelectImage(a)
}

// RemoveImage drops the profile image
func (s *Session) RemoveImage() error {
	return s.ctrl.RemoveImage()
}

// Preview returns the image behind the current preview URL
func (s *Session) Preview() (*models.Attachment, bool) {
	url := s.uploads.State().PreviewURL
	if url == "" {
		return nil, false
	}
	return s.previews.Lookup(url)
}

// Wait blocks until background validations and uploads are done
func (s *Session) Wait() {
	s.ctrl.Wait()
}

func (s *Session) dispose() {
	s.ctrl.Dispose()
}
