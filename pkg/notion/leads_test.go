package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadimport-cli/internal/model"
)

// mockClient is a hand-written Client mock recording create requests.
type mockClient struct {
	createFn func(req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	queryFn  func(dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	created []*notionapi.PageCreateRequest
}

func (m *mockClient) QueryDatabase(_ context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if m.queryFn == nil {
		return &notionapi.DatabaseQueryResponse{}, nil
	}
	return m.queryFn(dbID, req)
}

func (m *mockClient) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	m.created = append(m.created, req)
	if m.createFn == nil {
		return &notionapi.Page{ID: "page-1"}, nil
	}
	return m.createFn(req)
}

func TestCreateLeadPage(t *testing.T) {
	mock := &mockClient{}

	lead, err := CreateLeadPage(context.Background(), mock, "db-1", model.Candidate{
		Name:         "Jane Doe",
		Email:        "jane@acme.com",
		Phone:        "555-0101",
		Source:       "csv_import",
		Status:       "New",
		Organization: "Acme Inc",
	})
	require.NoError(t, err)
	assert.Equal(t, "page-1", lead.ID)
	assert.Equal(t, "Jane Doe", lead.Name)
	assert.False(t, lead.CreatedAt.IsZero())

	require.Len(t, mock.created, 1)
	req := mock.created[0]
	assert.Equal(t, notionapi.DatabaseID("db-1"), req.Parent.DatabaseID)

	title := req.Properties["Name"].(notionapi.TitleProperty)
	require.Len(t, title.Title, 1)
	assert.Equal(t, "Jane Doe", title.Title[0].Text.Content)

	email := req.Properties["Email"].(notionapi.EmailProperty)
	assert.Equal(t, "jane@acme.com", email.Email)

	source := req.Properties["Source"].(notionapi.SelectProperty)
	assert.Equal(t, "csv_import", source.Select.Name)

	org := req.Properties["Organization"].(notionapi.RichTextProperty)
	require.Len(t, org.RichText, 1)
	assert.Equal(t, "Acme Inc", org.RichText[0].Text.Content)
}

func TestCreateLeadPage_OmitsEmptyOptionals(t *testing.T) {
	mock := &mockClient{}

	_, err := CreateLeadPage(context.Background(), mock, "db-1", model.Candidate{
		Name:  "John Smith",
		Email: "john@example.com",
	})
	require.NoError(t, err)

	props := mock.created[0].Properties
	for _, key := range []string{"Phone", "Source", "Status", "Organization"} {
		_, ok := props[key]
		assert.False(t, ok, "expected %s to be omitted", key)
	}
}

func TestCreateLeadPage_MissingRequired(t *testing.T) {
	mock := &mockClient{}

	_, err := CreateLeadPage(context.Background(), mock, "db-1", model.Candidate{Email: "x@y.com"})
	require.Error(t, err)
	assert.Empty(t, mock.created)
}

func TestCreateLeadPage_APIError(t *testing.T) {
	mock := &mockClient{
		createFn: func(*notionapi.PageCreateRequest) (*notionapi.Page, error) {
			return nil, eris.New("validation_error: Status is not a property")
		},
	}

	_, err := CreateLeadPage(context.Background(), mock, "db-1", model.Candidate{
		Name:  "John Smith",
		Email: "john@example.com",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create lead page")
}

func TestQueryAllPaginates(t *testing.T) {
	calls := 0
	mock := &mockClient{
		queryFn: func(dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			calls++
			switch calls {
			case 1:
				assert.Empty(t, req.StartCursor)
				return &notionapi.DatabaseQueryResponse{
					Results:    []notionapi.Page{{ID: "a"}, {ID: "b"}},
					HasMore:    true,
					NextCursor: "cursor-1",
				}, nil
			default:
				assert.Equal(t, notionapi.Cursor("cursor-1"), req.StartCursor)
				return &notionapi.DatabaseQueryResponse{
					Results: []notionapi.Page{{ID: "c"}},
				}, nil
			}
		},
	}

	pages, err := QueryAll(context.Background(), mock, "db-1", nil)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, 2, calls)
}

func TestCountLeads(t *testing.T) {
	mock := &mockClient{
		queryFn: func(string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return &notionapi.DatabaseQueryResponse{
				Results: []notionapi.Page{{ID: "a"}, {ID: "b"}},
			}, nil
		},
	}

	n, err := CountLeads(context.Background(), mock, "db-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
