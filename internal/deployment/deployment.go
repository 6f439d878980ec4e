// Package deployment builds in-memory model deployment descriptors.
package deployment

import (
	"github.com/router-for-me/proxyseed/internal/catalog"
)

// Params holds provider-specific call parameters for a deployment.
type Params struct {
	Model    string `json:"model"`
	Provider string `json:"custom_llm_provider"`
	APIKey   string `json:"api_key,omitempty"`
	APIBase  string `json:"api_base,omitempty"`
}

// Info carries deployment metadata.
type Info struct {
	OrgID string `json:"org_id"`
}

// Deployment describes one model endpoint before it is persisted.
type Deployment struct {
	ModelName string `json:"model_name"`
	Params    Params `json:"litellm_params"`
	Info      Info   `json:"model_info"`
}

// Build returns one deployment per catalog entry, in catalog order, tagged with orgID.
// Entries are not deduplicated.
func Build(cat catalog.Catalog, orgID string, lookup catalog.LookupFunc) []Deployment {
	out := make([]Deployment, 0, cat.Len())
	info := Info{OrgID: orgID}
	for _, entry := range cat.Entries {
		apiKey, apiBase := entry.Credentials(lookup)
		out = append(out, Deployment{
			ModelName: entry.ModelName,
			Params: Params{
				Model:    entry.Model,
				Provider: entry.Provider,
				APIKey:   apiKey,
				APIBase:  apiBase,
			},
			Info: info,
		})
	}
	return out
}
