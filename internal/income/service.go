package income

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
)

type Service struct {
	store  Store
	links  *LinkEngine
	clock  clock.Clock
	log    *slog.Logger
	notify domain.ChangeNotifier
}

func NewService(store Store, links *LinkEngine, clk clock.Clock, log *slog.Logger, notify domain.ChangeNotifier) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if notify == nil {
		notify = domain.NopNotifier{}
	}
	return &Service{store: store, links: links, clock: clk, log: logger.OrDefault(log).With("component", "income"), notify: notify}
}

type Input struct {
	Amount      int64
	Source      string
	Category    string
	Description string
	Date        time.Time
	IsConnected bool
	IsRecurring bool
}

func (s *Service) Create(ctx context.Context, ownerID string, in Input) (domain.Income, error) {
	if in.Amount <= 0 {
		return domain.Income{}, domain.Invalid("amount", "must be greater than zero")
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		return domain.Income{}, domain.Invalid("source", "required")
	}
	now := s.clock.Now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	inc := domain.Income{
		OwnerID:        ownerID,
		OriginalAmount: in.Amount,
		Amount:         in.Amount,
		Source:         source,
		Category:       strings.TrimSpace(in.Category),
		Description:    strings.TrimSpace(in.Description),
		Date:           date,
		IsConnected:    in.IsConnected,
		IsRecurring:    in.IsRecurring,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.InsertIncome(ctx, &inc); err != nil {
		return domain.Income{}, fmt.Errorf("insert income: %w", err)
	}
	s.notify.Changed(ownerID)
	return inc, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (domain.Income, error) {
	return s.store.GetIncome(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Income, error) {
	return s.store.ListIncomes(ctx, ownerID)
}

// Patch edits an income. Amount is the original amount; the remaining
// balance follows from it.
type Patch struct {
	Amount      *int64
	Source      *string
	Category    *string
	Description *string
	Date        *time.Time
	IsConnected *bool
	IsRecurring *bool
}

func (s *Service) Update(ctx context.Context, ownerID, id string, patch Patch) (domain.Income, error) {
	inc, err := s.store.GetIncome(ctx, ownerID, id)
	if err != nil {
		return domain.Income{}, err
	}
	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return domain.Income{}, domain.Invalid("amount", "must be greater than zero")
		}
		inc.OriginalAmount = *patch.Amount
	}
	if patch.Source != nil {
		src := strings.TrimSpace(*patch.Source)
		if src == "" {
			return domain.Income{}, domain.Invalid("source", "required")
		}
		inc.Source = src
	}
	if patch.Category != nil {
		inc.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Description != nil {
		inc.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Date != nil {
		inc.Date = *patch.Date
	}
	if patch.IsRecurring != nil {
		inc.IsRecurring = *patch.IsRecurring
	}
	if patch.IsConnected != nil && inc.IsConnected && !*patch.IsConnected {
		n, err := s.store.CountLinkedExpenses(ctx, ownerID, id)
		if err != nil {
			return domain.Income{}, err
		}
		if n > 0 {
			return domain.Income{}, domain.InvalidState("income", id, fmt.Sprintf("%d expenses still draw on it", n))
		}
	}
	if patch.IsConnected != nil {
		inc.IsConnected = *patch.IsConnected
	}
	inc.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateIncome(ctx, inc); err != nil {
		return domain.Income{}, err
	}
	s.notify.Changed(ownerID)

	remaining, err := s.links.Recompute(ctx, ownerID, id)
	if err != nil {
		s.log.Warn("remaining balance not refreshed", "owner_id", ownerID, "income_id", id, "err", err)
		return inc, nil
	}
	inc.Amount = remaining
	return inc, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.store.GetIncome(ctx, ownerID, id); err != nil {
		return err
	}
	n, err := s.store.CountLinkedExpenses(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.InvalidState("income", id, fmt.Sprintf("%d expenses still draw on it", n))
	}
	if err := s.store.DeleteIncome(ctx, ownerID, id); err != nil {
		return err
	}
	s.notify.Changed(ownerID)
	return nil
}
