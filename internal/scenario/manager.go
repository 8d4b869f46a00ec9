// Package scenario saves, lists, loads and deletes projections through an
// injected scenario.Store. Each operation makes exactly one store call and
// surfaces any failure to the caller without retrying.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/iwvelando/invoice-roi/pkg/roi"
	records "github.com/iwvelando/invoice-roi/pkg/scenario"
	"github.com/iwvelando/invoice-roi/pkg/validation"
)

// ErrMissingInformation is returned by Save when the name, email or
// calculation is absent. The store is not called.
var ErrMissingInformation = errors.New("missing information")

// SaveRequest is a projection to persist under a name. Results is nil until
// the calculation has been run.
type SaveRequest struct {
	Name    string       `json:"name"`
	Email   string       `json:"email"`
	Inputs  *roi.Inputs  `json:"inputs"`
	Results *roi.Results `json:"results"`

	// CostBreakdownKnown is false for results loaded from a record without
	// the manual and automated cost columns. Nil means known.
	CostBreakdownKnown *bool `json:"costBreakdownKnown,omitempty"`
}

// Manager runs scenario operations against a store.
type Manager struct {
	store  records.Store
	logger *zap.Logger
}

// NewManager returns a Manager backed by store.
func NewManager(store records.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger}
}

// Save persists req and returns the assigned id.
func (m *Manager) Save(ctx context.Context, req SaveRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	switch {
	case name == "":
		return "", fmt.Errorf("%w: please enter a scenario name", ErrMissingInformation)
	case email == "":
		return "", fmt.Errorf("%w: please enter an email address", ErrMissingInformation)
	case req.Inputs == nil || req.Results == nil:
		return "", fmt.Errorf("%w: please calculate ROI before saving", ErrMissingInformation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: email: %q is not a valid address", validation.ErrInvalidInput, email)
	}
	if err := validation.ValidateInputs(*req.Inputs); err != nil {
		return "", err
	}
	if err := validation.ValidateResults(*req.Results); err != nil {
		return "", err
	}

	rec := records.ToRecord(*req.Inputs, *req.Results, name, email)
	if req.CostBreakdownKnown != nil && !*req.CostBreakdownKnown {
		rec = rec.WithoutCostBreakdown()
	}
	id, err := m.store.Insert(ctx, rec)
	if err != nil {
		m.logger.Error("failed to save scenario",
			zap.String("op", "scenario.Save"),
			zap.String("name", name),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to save scenario %q: %w", name, err)
	}

	m.logger.Info("saved scenario",
		zap.String("op", "scenario.Save"),
		zap.String("id", id),
		zap.String("name", name),
	)
	return id, nil
}

// List returns the saved scenarios newest first. Records that cannot be
// reconstructed are logged and left out.
func (m *Manager) List(ctx context.Context) ([]records.Summary, error) {
	recs, err := m.store.List(ctx)
	if err != nil {
		m.logger.Error("failed to list scenarios",
			zap.String("op", "scenario.List"),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}

	summaries := make([]records.Summary, 0, len(recs))
	for _, rec := range recs {
		s, err := records.FromRecord(rec)
		if err != nil {
			m.logger.Warn("skipping malformed scenario record",
				zap.String("op", "scenario.List"),
				zap.Any("id", rec[records.ColumnID]),
				zap.Error(err),
			)
			continue
		}
		summaries = append(summaries, s.Summary())
	}
	return summaries, nil
}

// Load returns the saved scenario with the given id. Stored results are
// returned as saved; nothing is recomputed.
func (m *Manager) Load(ctx context.Context, id string) (records.Scenario, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, records.ErrNotFound) {
			m.logger.Error("failed to load scenario",
				zap.String("op", "scenario.Load"),
				zap.String("id", id),
				zap.Error(err),
			)
		}
		return records.Scenario{}, fmt.Errorf("failed to load scenario %s: %w", id, err)
	}

	s, err := records.FromRecord(rec)
	if err != nil {
		m.logger.Warn("rejected malformed scenario record",
			zap.String("op", "scenario.Load"),
			zap.String("id", id),
			zap.Error(err),
		)
		return records.Scenario{}, fmt.Errorf("failed to load scenario %s: %w", id, err)
	}

	m.logger.Debug("loaded scenario",
		zap.String("op", "scenario.Load"),
		zap.String("id", id),
		zap.Bool("costBreakdownKnown", s.CostBreakdownKnown),
	)
	return s, nil
}

// Delete removes the saved scenario with the given id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Error("failed to delete scenario",
			zap.String("op", "scenario.Delete"),
			zap.String("id", id),
			zap.Error(err),
		)
		return fmt.Errorf("failed to delete scenario %s: %w", id, err)
	}

	m.logger.Info("deleted scenario",
		zap.String("op", "scenario.Delete"),
		zap.String("id", id),
	)
	return nil
}
