// Package plan defines subscription plan and feature descriptors.
//
// A Plan is an immutable priced bundle of Features with trial, invoice,
// and grace cadences expressed as (count, interval) pairs. A Feature is
// a named, quota-bearing capability: its Value holds either a numeric
// quota or the literal sentinels "true"/"false" for boolean features,
// and an optional resettable cadence controls how often the usage
// counter for the feature zeroes.
//
// Key concepts:
//
//   - Plan: pricing, billing cadences, and the feature set it grants
//   - Feature: quota value plus optional reset cadence, slug-unique per plan
//   - Source: loads the plan catalog (in-memory or YAML file)
//
// Plans are configuration, not live state. The subscription package
// consumes them through the data shape defined here and never mutates
// them beyond the explicit Activate/Deactivate switches.
//
// Basic usage:
//
//	p := plan.Plan{
//	    ID:              uuid.New(),
//	    Slug:            "pro",
//	    Name:            "Pro",
//	    Price:           900,
//	    Currency:        "USD",
//	    TrialPeriod:     15,
//	    TrialInterval:   period.Day,
//	    InvoicePeriod:   1,
//	    InvoiceInterval: period.Month,
//	}
//	if err := p.AddFeature(plan.Feature{Slug: "listings", Value: "50"}); err != nil {
//	    // Handle duplicate slug
//	}
//	if err := p.Validate(); err != nil {
//	    // Handle misconfiguration
//	}
package plan
