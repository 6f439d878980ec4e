package deployment

import (
	"testing"

	"github.com/router-for-me/proxyseed/internal/catalog"
)

func TestBuild_OnePerEntryInOrder(t *testing.T) {
	cat := catalog.Catalog{Entries: []catalog.Entry{
		{ModelName: "openai/gpt-4", Model: "gpt-4", Provider: "openai", APIKeyEnv: "OPENAI_API_KEY"},
		{ModelName: "anthropic/claude-3-haiku", Model: "claude-3-haiku", Provider: "anthropic", APIKeyEnv: "ANTHROPIC_API_KEY", APIBaseEnv: "ANTHROPIC_API_BASE"},
		{ModelName: "openai/gpt-4", Model: "gpt-4", Provider: "openai"},
	}}
	env := map[string]string{
		"OPENAI_API_KEY":     "sk-openai",
		"ANTHROPIC_API_KEY":  "sk-ant",
		"ANTHROPIC_API_BASE": "https://anthropic.internal",
	}

	got := Build(cat, "org-system", func(name string) string { return env[name] })
	if len(got) != 3 {
		t.Fatalf("expected 3 deployments, got %d", len(got))
	}
	for i, dep := range got {
		if dep.ModelName != cat.Entries[i].ModelName {
			t.Fatalf("deployment %d: expected name %q, got %q", i, cat.Entries[i].ModelName, dep.ModelName)
		}
		if dep.Params.Provider != cat.Entries[i].Provider {
			t.Fatalf("deployment %d: expected provider %q, got %q", i, cat.Entries[i].Provider, dep.Params.Provider)
		}
		if dep.Info.OrgID != "org-system" {
			t.Fatalf("deployment %d: expected org id org-system, got %q", i, dep.Info.OrgID)
		}
	}
	if got[0].Params.APIKey != "sk-openai" {
		t.Fatalf("expected openai key, got %q", got[0].Params.APIKey)
	}
	if got[1].Params.APIBase != "https://anthropic.internal" {
		t.Fatalf("expected anthropic base, got %q", got[1].Params.APIBase)
	}
	if got[2].Params.APIKey != "" {
		t.Fatalf("expected no key without env name, got %q", got[2].Params.APIKey)
	}
}

func TestBuild_EmptyCatalog(t *testing.T) {
	got := Build(catalog.Catalog{}, "org", nil)
	if len(got) != 0 {
		t.Fatalf("expected no deployments, got %d", len(got))
	}
}
