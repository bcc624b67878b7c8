package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadimport-cli/internal/model"
)

// CreateLeadPage creates a page in the lead database from the candidate and
// returns the created lead with the Notion page ID.
func CreateLeadPage(ctx context.Context, c Client, dbID string, cand model.Candidate) (*model.Lead, error) {
	if cand.Name == "" || cand.Email == "" {
		return nil, eris.New("notion: lead name and email are required")
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: leadProperties(cand),
	}

	page, err := c.CreatePage(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: create lead page")
	}
	if page == nil {
		return nil, eris.New("notion: create lead page returned no page")
	}

	return &model.Lead{
		ID:           string(page.ID),
		Name:         cand.Name,
		Email:        cand.Email,
		Phone:        cand.Phone,
		Source:       cand.Source,
		Status:       cand.Status,
		Organization: cand.Organization,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// leadProperties maps candidate fields onto the lead database schema:
// Name is the title, Email and Phone use their native property types,
// Source and Status are selects, Organization is rich text.
func leadProperties(cand model.Candidate) notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: cand.Name}},
			},
		},
		"Email": notionapi.EmailProperty{
			Type:  notionapi.PropertyTypeEmail,
			Email: cand.Email,
		},
	}

	if cand.Phone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{
			Type:        notionapi.PropertyTypePhoneNumber,
			PhoneNumber: cand.Phone,
		}
	}
	if cand.Source != "" {
		props["Source"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: cand.Source},
		}
	}
	if cand.Status != "" {
		props["Status"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: cand.Status},
		}
	}
	if cand.Organization != "" {
		props["Organization"] = notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: cand.Organization}},
			},
		}
	}

	return props
}

// CountLeads returns the number of pages in the lead database, paginating
// through all results.
func CountLeads(ctx context.Context, c Client, dbID string) (int, error) {
	pages, err := QueryAll(ctx, c, dbID, nil)
	if err != nil {
		return 0, eris.Wrap(err, "notion: count leads")
	}
	return len(pages), nil
}
