package salesforce

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadimport-cli/internal/model"
)

// fallbackCompany fills the Company field when a candidate has no
// organization. Salesforce rejects Lead inserts without one.
const fallbackCompany = "Unknown"

// CreateLead inserts a Lead sObject built from the candidate and returns the
// created record.
func CreateLead(ctx context.Context, c Client, cand model.Candidate) (*model.Lead, error) {
	if cand.Name == "" || cand.Email == "" {
		return nil, eris.New("sf: lead name and email are required")
	}

	first, last := splitName(cand.Name)
	fields := map[string]any{
		"LastName": last,
		"Email":    cand.Email,
		"Company":  cand.Organization,
	}
	if first != "" {
		fields["FirstName"] = first
	}
	if cand.Phone != "" {
		fields["Phone"] = cand.Phone
	}
	if cand.Source != "" {
		fields["LeadSource"] = cand.Source
	}
	if cand.Status != "" {
		fields["Status"] = cand.Status
	}
	if cand.Organization == "" {
		fields["Company"] = fallbackCompany
	}

	id, err := c.InsertOne(ctx, "Lead", fields)
	if err != nil {
		return nil, eris.Wrap(err, "sf: create lead")
	}

	return &model.Lead{
		ID:           id,
		Name:         cand.Name,
		Email:        cand.Email,
		Phone:        cand.Phone,
		Source:       cand.Source,
		Status:       cand.Status,
		Organization: cand.Organization,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// splitName splits a full name into first and last parts. A single-word name
// becomes the last name, which Salesforce requires.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// leadStatusRecord is the SOQL row shape for the LeadStatus sObject.
type leadStatusRecord struct {
	ID          string `json:"Id"`
	MasterLabel string `json:"MasterLabel"`
}

// ListLeadStatuses queries the org's lead status picklist.
func ListLeadStatuses(ctx context.Context, c Client) ([]model.LeadStatus, error) {
	var records []leadStatusRecord
	soql := "SELECT Id, MasterLabel FROM LeadStatus ORDER BY SortOrder"
	if err := c.Query(ctx, soql, &records); err != nil {
		return nil, eris.Wrap(err, "sf: list lead statuses")
	}

	statuses := make([]model.LeadStatus, len(records))
	for i, r := range records {
		statuses[i] = model.LeadStatus{ID: r.ID, Name: r.MasterLabel}
	}
	return statuses, nil
}

// VerifyLeadAccess describes the Lead sObject, confirming connectivity and
// object permissions before an import starts.
func VerifyLeadAccess(ctx context.Context, c Client) (int, error) {
	desc, err := c.DescribeSObject(ctx, "Lead")
	if err != nil {
		return 0, eris.Wrap(err, "sf: verify lead access")
	}
	return len(desc.Fields), nil
}
