// internal/domain/agency/entity.go
package agency

import "errors"

var ErrUnknownAgency = errors.New("unknown agency")

type SourceKind string

const (
	SourceBigQuery    SourceKind = "bigquery"
	SourceSpreadsheet SourceKind = "spreadsheet"
)

// FieldMapping names the source columns that differ between agencies.
type FieldMapping struct {
	Model       string `yaml:"model" json:"model"`
	InvoiceName string `yaml:"invoice_name" json:"invoice_name"`
	Agency      string `yaml:"agency" json:"agency"`
	LastVisit   string `yaml:"last_visit" json:"last_visit"`
}

// Agency is a dealership location together with where its records live.
type Agency struct {
	Name    string       `yaml:"name" json:"name"`
	Source  SourceKind   `yaml:"source" json:"source"`
	Mapping FieldMapping `yaml:"mapping" json:"mapping"`

	// BigQuery
	ProjectID       string `yaml:"project_id" json:"project_id,omitempty"`
	Dataset         string `yaml:"dataset" json:"dataset,omitempty"`
	Table           string `yaml:"table" json:"table,omitempty"`
	CredentialsFile string `yaml:"credentials_file" json:"-"`

	// Spreadsheet: local path or gs://bucket/object
	File     string `yaml:"file" json:"file,omitempty"`
	Encoding string `yaml:"encoding" json:"encoding,omitempty"`
}

type AgencyInfo struct {
	Name   string     `json:"name"`
	Source SourceKind `json:"source"`
}

// Registry is the configured set of agencies, in display order.
type Registry struct {
	agencies []Agency
	byName   map[string]Agency
}

func NewRegistry(agencies []Agency) *Registry {
	r := &Registry{byName: make(map[string]Agency, len(agencies))}
	for _, a := range agencies {
		if _, dup := r.byName[a.Name]; dup {
			continue
		}
		r.agencies = append(r.agencies, a)
		r.byName[a.Name] = a
	}
	return r
}

func (r *Registry) Get(name string) (Agency, error) {
	a, ok := r.byName[name]
	if !ok {
		return Agency{}, ErrUnknownAgency
	}
	return a, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agencies))
	for _, a := range r.agencies {
		names = append(names, a.Name)
	}
	return names
}

func (r *Registry) List() []AgencyInfo {
	out := make([]AgencyInfo, 0, len(r.agencies))
	for _, a := range r.agencies {
		out = append(out, AgencyInfo{Name: a.Name, Source: a.Source})
	}
	return out
}
