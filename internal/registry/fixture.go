package registry

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadimport-cli/internal/model"
)

// LoadSourcesFromFile reads a JSON array of model.LeadSource from the given path.
func LoadSourcesFromFile(path string) ([]model.LeadSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read sources fixture")
	}

	var sources []model.LeadSource
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal sources fixture")
	}

	return sources, nil
}

// LoadStatusesFromFile reads a JSON array of model.LeadStatus from the given path.
func LoadStatusesFromFile(path string) ([]model.LeadStatus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read statuses fixture")
	}

	var statuses []model.LeadStatus
	if err := json.Unmarshal(data, &statuses); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal statuses fixture")
	}

	return statuses, nil
}

// LoadReferenceFromFiles builds a Reference from fixture files. An empty path
// falls back to the built-in values for that half.
func LoadReferenceFromFiles(sourcesPath, statusesPath string) (Reference, error) {
	ref := Fallback()

	if sourcesPath != "" {
		sources, err := LoadSourcesFromFile(sourcesPath)
		if err != nil {
			return Reference{}, err
		}
		ref.Sources = sources
	}
	if statusesPath != "" {
		statuses, err := LoadStatusesFromFile(statusesPath)
		if err != nil {
			return Reference{}, err
		}
		ref.Statuses = statuses
	}

	return ref, nil
}
