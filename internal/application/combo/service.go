package combo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/foodtruck/internal/domain/combo"
	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"github.com/Zhima-Mochi/foodtruck/internal/observability/logctx"
	"github.com/shopspring/decimal"
)

const componentComboService = "combo_service"

// Service owns the page-view sessions and the selection changes made through rendered rows.
type Service struct {
	repo domain.Repository
	ids  IDGenerator
	now  func() time.Time
	log  observability.Logger
}

func NewService(repo domain.Repository, ids IDGenerator, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		repo: repo,
		ids:  ids,
		now:  time.Now,
		log:  logger.With(observability.F("component", componentComboService)),
	}
}

// OpenSession returns the session with the given id, or starts a new one when id is empty or unknown.
// The boolean reports whether a new session was created.
func (s *Service) OpenSession(ctx context.Context, id string) (*domain.Session, bool, error) {
	if id != "" {
		session, err := s.repo.Get(ctx, id)
		switch {
		case err == nil:
			session.Touch(s.now())
			return session, false, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, false, fmt.Errorf("combo: load session: %w", err)
		}
	}

	session := domain.NewSession(s.ids.NewID(), s.now())
	if err := s.repo.Insert(ctx, session); err != nil {
		return nil, false, fmt.Errorf("combo: create session: %w", err)
	}
	logctx.FromOr(ctx, s.log).Debug("session_opened", observability.F("session_id", session.ID))
	return session, true, nil
}

func (s *Service) Session(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("combo: load session: %w", err)
	}
	return session, nil
}

// Toggle applies the selection change bound to rowKey by the last committed render.
func (s *Service) Toggle(ctx context.Context, sessionID, rowKey string) (domain.Snapshot, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	binding, ok := session.Resolve(rowKey)
	if !ok {
		logctx.FromOr(ctx, s.log).Warn("toggle_unbound_row",
			observability.F("session_id", sessionID),
			observability.F("row", rowKey),
		)
		return domain.Snapshot{}, fmt.Errorf("%w: %q", ErrUnboundRow, rowKey)
	}
	if err := session.Selection.Toggle(binding.Category, binding.Item); err != nil {
		return domain.Snapshot{}, err
	}
	session.Touch(s.now())

	snap := session.Selection.Snapshot()
	logctx.FromOr(ctx, s.log).Debug("selection_toggled",
		observability.F("session_id", sessionID),
		observability.F("row", rowKey),
		observability.F("total", snap.Total().StringFixed(2)),
	)
	return snap, nil
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Selection.Clear()
	return nil
}

// View is a read-only picture of a session.
type View struct {
	SessionID string
	Selection domain.Snapshot
	Total     decimal.Decimal
	Receipts  []domain.Receipt
}

func (s *Service) View(ctx context.Context, sessionID string) (*View, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap := session.Selection.Snapshot()
	return &View{
		SessionID: session.ID,
		Selection: snap,
		Total:     snap.Total(),
		Receipts:  session.Receipts(),
	}, nil
}

// PruneIdle drops sessions without activity for longer than ttl.
func (s *Service) PruneIdle(ctx context.Context, ttl time.Duration) (int, error) {
	removed, err := s.repo.Prune(ctx, s.now().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("combo: prune sessions: %w", err)
	}
	if removed > 0 {
		logctx.FromOr(ctx, s.log).Info("sessions_pruned", observability.F("removed", removed))
	}
	return removed, nil
}
