// Package registry loads lead reference data (sources and statuses) used to
// validate and preview imports. Reference data is advisory: when a backend
// cannot supply it, built-in fallbacks keep the import pipeline running.
package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadimport-cli/internal/model"
	"github.com/sells-group/leadimport-cli/internal/store"
)

// Fallback values used when no backend reference data is available. They
// match the seed rows shipped with the store migrations.
var (
	FallbackSources = []model.LeadSource{
		{ID: "src_website", Name: "website"},
		{ID: "src_referral", Name: "referral"},
		{ID: "src_ads", Name: "ads"},
		{ID: "src_csv_import", Name: "csv_import"},
	}
	FallbackStatuses = []model.LeadStatus{
		{ID: "sts_new", Name: "New"},
		{ID: "sts_contacted", Name: "Contacted"},
		{ID: "sts_qualified", Name: "Qualified"},
		{ID: "sts_converted", Name: "Converted"},
		{ID: "sts_lost", Name: "Lost"},
	}
)

// Reference holds the lead sources and statuses known to the target system.
type Reference struct {
	Sources  []model.LeadSource
	Statuses []model.LeadStatus
}

// SourceNames returns the source names in registry order.
func (r Reference) SourceNames() []string {
	names := make([]string, len(r.Sources))
	for i, s := range r.Sources {
		names[i] = s.Name
	}
	return names
}

// StatusNames returns the status names in registry order.
func (r Reference) StatusNames() []string {
	names := make([]string, len(r.Statuses))
	for i, s := range r.Statuses {
		names[i] = s.Name
	}
	return names
}

// HasSource reports whether name is a known lead source.
func (r Reference) HasSource(name string) bool {
	for _, s := range r.Sources {
		if s.Name == name {
			return true
		}
	}
	return false
}

// HasStatus reports whether name is a known lead status.
func (r Reference) HasStatus(name string) bool {
	for _, s := range r.Statuses {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Load fetches reference data from the store. Lookup failures are logged and
// replaced with fallbacks so a missing reference table never blocks an import.
func Load(ctx context.Context, s store.Store) Reference {
	ref := Reference{}

	sources, err := s.ListSources(ctx)
	if err != nil {
		zap.L().Warn("registry: falling back to built-in sources", zap.Error(err))
		sources = FallbackSources
	} else if len(sources) == 0 {
		sources = FallbackSources
	}
	ref.Sources = sources

	statuses, err := s.ListStatuses(ctx)
	if err != nil {
		zap.L().Warn("registry: falling back to built-in statuses", zap.Error(err))
		statuses = FallbackStatuses
	} else if len(statuses) == 0 {
		statuses = FallbackStatuses
	}
	ref.Statuses = statuses

	return ref
}

// Fallback returns the built-in reference data, for backends that have no
// queryable source and status tables.
func Fallback() Reference {
	return Reference{Sources: FallbackSources, Statuses: FallbackStatuses}
}
