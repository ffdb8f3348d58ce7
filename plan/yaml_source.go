package plan

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/subscriptions/period"
)

// yamlPlan mirrors the documented catalog file shape. IDs are optional:
// missing ones are generated at load time, which suits catalogs that
// are authored by hand and seeded into storage once.
type yamlPlan struct {
	ID          string `yaml:"id"`
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Active      bool   `yaml:"active"`

	Price     int64  `yaml:"price"`
	SignupFee int64  `yaml:"signup_fee"`
	Currency  string `yaml:"currency"`

	TrialPeriod     int             `yaml:"trial_period"`
	TrialInterval   period.Interval `yaml:"trial_interval"`
	InvoicePeriod   int             `yaml:"invoice_period"`
	InvoiceInterval period.Interval `yaml:"invoice_interval"`
	GracePeriod     int             `yaml:"grace_period"`
	GraceInterval   period.Interval `yaml:"grace_interval"`

	ActiveSubscribersLimit int `yaml:"active_subscribers_limit"`
	SortOrder              int `yaml:"sort_order"`

	Features []yamlFeature `yaml:"features"`
}

type yamlFeature struct {
	ID                 string          `yaml:"id"`
	Slug               string          `yaml:"slug"`
	Name               string          `yaml:"name"`
	Description        string          `yaml:"description"`
	Value              string          `yaml:"value"`
	ResettablePeriod   int             `yaml:"resettable_period"`
	ResettableInterval period.Interval `yaml:"resettable_interval"`
	SortOrder          int             `yaml:"sort_order"`
}

type yamlSource struct {
	path string
	data []byte
}

// NewYAMLSource returns a Source that reads the plan catalog from a
// YAML file on every Load, so catalog edits are picked up by services
// that reload their plans.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

// NewYAMLBytesSource returns a Source backed by an in-memory YAML
// document, useful for embedded catalogs.
func NewYAMLBytesSource(data []byte) Source {
	return &yamlSource{data: data}
}

// Load parses the catalog and validates every plan in it.
func (s *yamlSource) Load(ctx context.Context) (map[uuid.UUID]Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	data := s.data
	if s.path != "" {
		var err error
		if data, err = os.ReadFile(s.path); err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans, err)
		}
	}

	var raw struct {
		Plans []yamlPlan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(raw.Plans) == 0 {
		return nil, errors.Join(ErrFailedToLoadPlans, errors.New("no plans found in catalog"))
	}

	plans := make(map[uuid.UUID]Plan, len(raw.Plans))
	for _, yp := range raw.Plans {
		p, err := yp.toPlan()
		if err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := plans[p.ID]; dup {
			return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("duplicate plan id %s", p.ID))
		}
		plans[p.ID] = p
	}
	return plans, nil
}

func (yp yamlPlan) toPlan() (Plan, error) {
	id, err := parseOrNewID(yp.ID)
	if err != nil {
		return Plan{}, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("plan %q: %w", yp.Slug, err))
	}

	p := Plan{
		ID:                     id,
		Slug:                   yp.Slug,
		Name:                   yp.Name,
		Description:            yp.Description,
		IsActive:               yp.Active,
		Price:                  yp.Price,
		SignupFee:              yp.SignupFee,
		Currency:               yp.Currency,
		TrialPeriod:            yp.TrialPeriod,
		TrialInterval:          yp.TrialInterval,
		InvoicePeriod:          yp.InvoicePeriod,
		InvoiceInterval:        yp.InvoiceInterval,
		GracePeriod:            yp.GracePeriod,
		GraceInterval:          yp.GraceInterval,
		ActiveSubscribersLimit: yp.ActiveSubscribersLimit,
		SortOrder:              yp.SortOrder,
	}

	for _, yf := range yp.Features {
		fid, err := parseOrNewID(yf.ID)
		if err != nil {
			return Plan{}, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("feature %q: %w", yf.Slug, err))
		}
		if err := p.AddFeature(Feature{
			ID:                 fid,
			PlanID:             id,
			Slug:               yf.Slug,
			Name:               yf.Name,
			Description:        yf.Description,
			Value:              yf.Value,
			ResettablePeriod:   yf.ResettablePeriod,
			ResettableInterval: yf.ResettableInterval,
			SortOrder:          yf.SortOrder,
		}); err != nil {
			return Plan{}, err
		}
	}
	return p, nil
}

func parseOrNewID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(s)
}
