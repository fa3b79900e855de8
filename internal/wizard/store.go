// Package wizard hosts user wizard sessions on the server. Each session
// owns a form controller wired to a Backend; the Store keeps them by id and
// expires idle ones.
package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/fieldcheck"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/form"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/options"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned for unknown or expired session ids
var ErrSessionNotFound = errors.New("wizard session not found")

const (
	defaultSessionTTL      = 30 * time.Minute
	defaultJanitorInterval = time.Minute
)

// Config tunes a Store
type Config struct {
	Form            form.Config
	Limits          upload.Limits
	SessionTTL      time.Duration
	JanitorInterval time.Duration
	// OptionTTL bounds how long option lists are shared between sessions
	OptionTTL time.Duration
}

// ConfigFrom maps the application configuration onto a Store config
func ConfigFrom(cfg *config.Config) Config {
	v := fieldcheck.DefaultOptions()
	v.SyncDelay = cfg.Wizard.SyncDebounce
	v.AsyncDelay = cfg.Wizard.AsyncDebounce
	v.Timeout = cfg.Wizard.RequestTimeout

	return Config{
		Form: form.Config{
			IncludeProfile: cfg.Wizard.ProfileStep,
			Timeout:        cfg.Wizard.RequestTimeout,
			EagerUpload:    cfg.Wizard.EagerImageUpload,
			Validation:     v,
		},
		Limits:          upload.Limits{MaxSize: cfg.Upload.MaxSize, AllowedTypes: cfg.Upload.AllowedTypes},
		SessionTTL:      cfg.Wizard.SessionTTL,
		JanitorInterval: cfg.Wizard.JanitorInterval,
		OptionTTL:       cfg.Wizard.OptionCacheTTL,
	}
}

// Store holds the open sessions
type Store struct {
	cfg     Config
	backend Backend
	options *options.Cache
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	janitorMu sync.Mutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewStore creates an empty Store
func NewStore(cfg Config, backend Backend, log zerolog.Logger) *Store {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = defaultJanitorInterval
	}
	if cfg.Limits.MaxSize <= 0 {
		cfg.Limits = upload.DefaultLimits()
	}
	return &Store{
		cfg:      cfg,
		backend:  backend,
		options:  options.NewCache(cfg.OptionTTL),
		log:      log.With().Str("component", "wizard").Logger(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session. userID 0 opens create mode, otherwise the user is
// loaded and edited.
func (s *Store) Open(ctx context.Context, userID int64) (*Session, error) {
	var existing *models.User
	if userID > 0 {
		u, err := s.backend.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		existing = u
	}

	id := uuid.New().String()
	log := s.log.With().Str("session", id).Logger()
	previews := upload.NewMemoryPreviews()
	sess := &Session{
		ID:       id,
		provider: s.newProvider(log),
		uploads:  upload.NewManager(s.cfg.Limits, previews, s.backend, log),
		previews: previews,
		toasts:   &toastQueue{},
		log:      log,
		lastSeen: s.now(),
	}
	sess.ctrl = form.New(s.cfg.Form, form.Deps{
		API:         s.backend,
		Checker:     s.backend,
		Options:     sess.provider,
		Uploads:     sess.uploads,
		Notifier:    sess.toasts,
		Confirmer:   contextConfirmer{},
		UniqueCache: fieldcheck.NewResultCache(),
		OnSuccess:   sess.onSuccess,
	}, log)

	if err := sess.ctrl.Open(existing); err != nil {
		sess.dispose()
		return nil, err
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	log.Info().Int64("user_id", userID).Msg("Wizard session opened")
	return sess, nil
}

func (s *Store) newProvider(log zerolog.Logger) *options.Provider {
	p := options.NewProvider(options.Seed{}, s.options, s.backend, log)
	p.SetTimeout(s.cfg.Form.Timeout)
	return p
}

// Get returns a live session and marks it as used
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Close closes a session. A session with unsaved changes stays open unless
// confirm is set; Close reports whether it was closed.
func (s *Store) Close(ctx context.Context, id string, confirm bool) (bool, error) {
	sess, err := s.Get(id)
	if err != nil {
		return false, err
	}
	if !sess.ctrl.Close(WithConfirm(ctx, confirm)) {
		return false, nil
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	sess.dispose()

	s.log.Info().Str("session", id).Msg("Wizard session closed")
	return true, nil
}

// Len returns the number of open sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// StartJanitor expires idle sessions until ctx is done or StopJanitor is
// called. It blocks.
func (s *Store) StartJanitor(ctx context.Context) {
	s.janitorMu.Lock()
	if s.running {
		s.janitorMu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.janitorMu.Unlock()
	defer s.wg.Done()

	s.log.Info().Dur("ttl", s.cfg.SessionTTL).Msg("Session janitor started")

	ticker := time.NewTicker(s.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Session janitor stopping")
			return
		case <-ticker.C:
			s.expire(s.now())
		}
	}
}

// StopJanitor stops the janitor and waits for it
func (s *Store) StopJanitor() {
	s.janitorMu.Lock()
	defer s.janitorMu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Session janitor stopped")
}

// expire disposes sessions idle for longer than the TTL
func (s *Store) expire(now time.Time) int {
	var stale []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.idleSince()) > s.cfg.SessionTTL {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		sess.dispose()
	}
	if len(stale) > 0 {
		s.log.Info().Int("expired", len(stale)).Msg("Expired idle wizard sessions")
	}
	return len(stale)
}

// Shutdown disposes every session
func (s *Store) Shutdown() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.dispose()
	}
}
