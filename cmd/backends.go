package main

import (
	"context"
	"os"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadimport-cli/internal/importer"
	"github.com/sells-group/leadimport-cli/internal/model"
	"github.com/sells-group/leadimport-cli/internal/registry"
	"github.com/sells-group/leadimport-cli/internal/resilience"
	"github.com/sells-group/leadimport-cli/internal/store"
	"github.com/sells-group/leadimport-cli/pkg/notion"
	sfpkg "github.com/sells-group/leadimport-cli/pkg/salesforce"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadimport.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (LEADIMPORT_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := gosf.Init(gosf.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RateLimit)), nil
}

func initNotion() (notion.Client, error) {
	if cfg.Notion.Token == "" {
		return nil, eris.New("notion token is required (LEADIMPORT_NOTION_TOKEN)")
	}
	if cfg.Notion.LeadDB == "" {
		return nil, eris.New("notion lead DB ID is required (LEADIMPORT_NOTION_LEAD_DB)")
	}
	return notion.NewClient(cfg.Notion.Token), nil
}

// backendEnv bundles the record-creation backend with the run-tracking store.
type backendEnv struct {
	Store   store.Store
	Backend string
	Create  importer.CreateFunc
	Ref     registry.Reference
}

func (e *backendEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initBackend wires up the configured lead backend. The local store is always
// opened: it records import runs even when leads go to Salesforce or Notion.
func initBackend(ctx context.Context, backend string) (*backendEnv, error) {
	if backend == "" {
		backend = cfg.Import.Backend
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	env := &backendEnv{Store: st, Backend: backend}

	switch backend {
	case "store":
		env.Create = st.CreateLead
		env.Ref = registry.Load(ctx, st)

	case "salesforce":
		client, err := initSalesforce()
		if err != nil {
			env.Close()
			return nil, err
		}

		fieldCount, err := sfpkg.VerifyLeadAccess(ctx, client)
		if err != nil {
			env.Close()
			return nil, err
		}
		zap.L().Info("salesforce lead access verified", zap.Int("fields", fieldCount))

		policy := resilience.DefaultPolicy()
		policy.OnRetry = resilience.Logger("salesforce", "create_lead")
		env.Create = func(ctx context.Context, cand model.Candidate) (*model.Lead, error) {
			return resilience.Do(ctx, policy, func(ctx context.Context) (*model.Lead, error) {
				return sfpkg.CreateLead(ctx, client, cand)
			})
		}
		env.Ref = salesforceReference(ctx, client)

	case "notion":
		client, err := initNotion()
		if err != nil {
			env.Close()
			return nil, err
		}

		dbID := cfg.Notion.LeadDB
		policy := resilience.DefaultPolicy()
		policy.OnRetry = resilience.Logger("notion", "create_lead_page")
		env.Create = func(ctx context.Context, cand model.Candidate) (*model.Lead, error) {
			return resilience.Do(ctx, policy, func(ctx context.Context) (*model.Lead, error) {
				return notion.CreateLeadPage(ctx, client, dbID, cand)
			})
		}
		env.Ref = registry.Fallback()

	default:
		env.Close()
		return nil, eris.Errorf("unsupported import backend: %s", backend)
	}

	return env, nil
}

// salesforceReference queries the org's lead statuses, keeping the built-in
// sources since Salesforce exposes LeadSource only as a picklist.
func salesforceReference(ctx context.Context, client sfpkg.Client) registry.Reference {
	ref := registry.Fallback()
	statuses, err := sfpkg.ListLeadStatuses(ctx, client)
	if err != nil {
		zap.L().Warn("falling back to built-in lead statuses", zap.Error(err))
		return ref
	}
	if len(statuses) > 0 {
		ref.Statuses = statuses
	}
	return ref
}
