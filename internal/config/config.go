// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"retention-service/internal/domain/agency"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	// Server
	HTTPAddr    string
	Env         string
	CORSOrigins []string

	// PostgreSQL, optional: search history stays in memory without it
	DatabaseURL string
	DBMaxConns  int32

	// Redis, optional: views and rows stay in process without it
	RedisAddrs   []string
	RedisPass    string
	RedisCluster bool

	// Data
	CacheTTL        time.Duration
	PreloadOnStart  bool
	PageSize        int
	ViewTTL         time.Duration
	MaxViews        int
	SearchDebounce  time.Duration
	HistoryTable    string
	DataDir         string
	CredentialsFile string
	AgenciesFile    string

	Agencies []agency.Agency
}

func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Load loads environment variables into AppConfig. The agency table comes
// from AGENCIES_FILE when set, else the built-in defaults.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:    getEnv("HTTP_ADDR", ":"+getEnv("PORT", "3001")),
		Env:         getEnv("APP_ENV", "production"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", nil),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBMaxConns:  int32(getEnvInt("DB_MAX_CONNS", 10)),

		RedisAddrs:   getEnvSlice("REDIS_ADDR", nil),
		RedisPass:    getEnv("REDIS_PASS", ""),
		RedisCluster: getEnvBool("REDIS_CLUSTER", false),

		CacheTTL:        getEnvDuration("CACHE_TTL", time.Hour),
		PreloadOnStart:  getEnvBool("PRELOAD_ON_START", false),
		PageSize:        getEnvInt("PAGE_SIZE", 700),
		ViewTTL:         getEnvDuration("VIEW_TTL", 12*time.Hour),
		MaxViews:        getEnvInt("MAX_VIEWS", 1024),
		SearchDebounce:  getEnvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		HistoryTable:    getEnv("HISTORY_TABLE", "search_history"),
		DataDir:         getEnv("DATA_DIR", "./data"),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		AgenciesFile:    getEnv("AGENCIES_FILE", ""),
	}

	if cfg.AgenciesFile == "" {
		cfg.Agencies = DefaultAgencies()
		return cfg, nil
	}

	data, err := os.ReadFile(cfg.AgenciesFile)
	if err != nil {
		return cfg, fmt.Errorf("failed to read agencies file: %w", err)
	}
	agencies, err := ParseAgencies(data)
	if err != nil {
		return cfg, err
	}
	cfg.Agencies = agencies
	return cfg, nil
}

type agenciesFile struct {
	Agencies []agency.Agency `yaml:"agencies"`
}

// ParseAgencies reads the YAML agency table. Source defaults to
// spreadsheet and missing mapping columns fall back to the common names.
func ParseAgencies(data []byte) ([]agency.Agency, error) {
	var f agenciesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid agencies file: %w", err)
	}
	if len(f.Agencies) == 0 {
		return nil, fmt.Errorf("agencies file lists no agencies")
	}

	seen := make(map[string]bool, len(f.Agencies))
	for i := range f.Agencies {
		a := &f.Agencies[i]
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			return nil, fmt.Errorf("agency %d has no name", i+1)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("duplicate agency %q", a.Name)
		}
		seen[a.Name] = true

		if a.Source == "" {
			a.Source = agency.SourceSpreadsheet
		}
		switch a.Source {
		case agency.SourceSpreadsheet:
			if a.File == "" {
				return nil, fmt.Errorf("agency %q has no file", a.Name)
			}
		case agency.SourceBigQuery:
			if a.ProjectID == "" || a.Dataset == "" || a.Table == "" {
				return nil, fmt.Errorf("agency %q needs project_id, dataset and table", a.Name)
			}
		default:
			return nil, fmt.Errorf("agency %q has unknown source %q", a.Name, a.Source)
		}

		if a.Mapping.Model == "" {
			a.Mapping.Model = "MODELO"
		}
		if a.Mapping.InvoiceName == "" {
			a.Mapping.InvoiceName = "NOMBRE_FAC"
		}
		if a.Mapping.Agency == "" {
			a.Mapping.Agency = "AGENCIA"
		}
		if a.Mapping.LastVisit == "" {
			a.Mapping.LastVisit = "ULT_VISITA"
		}
	}
	return f.Agencies, nil
}

// DefaultAgencies is the dealership table the dashboard ships with.
func DefaultAgencies() []agency.Agency {
	return []agency.Agency{
		spreadsheet("Gran Auto", "granauto.csv", "cp1252", "Modelo", "NOMBRE_FAC", "AGENCI", "ULT_VISITA"),
		spreadsheet("Gasme", "gasme.csv", "utf-8", "MODELO", "NOMBRE_FAC", "AGENCI", "FECHA_FAC"),
		spreadsheet("Sierra", "sierra.csv", "utf-8", "MODELO", "NOMBRE_FAC", "AGENCIA", "FECHA_FAC"),
		spreadsheet("Huerpel", "huerpel.csv", "utf-8", "MODELO", "NOMBRE_FACT", "AGENCIA", "ULT_VISITA"),
		spreadsheet("Del Bravo", "delbravo.csv", "utf-8", "MODELO", "NOMBRE_FAC", "AGENCIA", "ULT_VISITA"),
	}
}

func spreadsheet(name, file, encoding, model, invoiceName, agencyCol, lastVisit string) agency.Agency {
	return agency.Agency{
		Name:     name,
		Source:   agency.SourceSpreadsheet,
		File:     file,
		Encoding: encoding,
		Mapping: agency.FieldMapping{
			Model:       model,
			InvoiceName: invoiceName,
			Agency:      agencyCol,
			LastVisit:   lastVisit,
		},
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
