// internal/repository/bigquery/source.go
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"retention-service/internal/domain/agency"
	"retention-service/internal/service/customer"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Source reads whole agency tables from BigQuery. One client is kept per
// project and credentials file.
type Source struct {
	defaultCredentials string
	logger             *zap.Logger

	mu      sync.Mutex
	clients map[string]*bigquery.Client
}

func NewSource(defaultCredentials string, logger *zap.Logger) *Source {
	return &Source{
		defaultCredentials: defaultCredentials,
		logger:             logger,
		clients:            make(map[string]*bigquery.Client),
	}
}

func (s *Source) client(ctx context.Context, a agency.Agency) (*bigquery.Client, error) {
	creds := a.CredentialsFile
	if creds == "" {
		creds = s.defaultCredentials
	}
	key := a.ProjectID + "|" + creds

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[key]; ok {
		return c, nil
	}

	var opts []option.ClientOption
	if creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	c, err := bigquery.NewClient(ctx, a.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client for %s: %w", a.ProjectID, err)
	}
	s.clients[key] = c
	return c, nil
}

// TableRef is the fully qualified table of an agency.
func TableRef(a agency.Agency) (string, error) {
	if a.ProjectID == "" || a.Dataset == "" || a.Table == "" {
		return "", fmt.Errorf("agency %s has an incomplete BigQuery table", a.Name)
	}
	for _, part := range []string{a.ProjectID, a.Dataset, a.Table} {
		if strings.ContainsAny(part, "`;") {
			return "", fmt.Errorf("invalid BigQuery identifier %q", part)
		}
	}
	return fmt.Sprintf("`%s.%s.%s`", a.ProjectID, a.Dataset, a.Table), nil
}

func (s *Source) Fetch(ctx context.Context, a agency.Agency) ([]customer.Row, error) {
	table, err := TableRef(a)
	if err != nil {
		return nil, err
	}
	client, err := s.client(ctx, a)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	it, err := client.Query("SELECT * FROM " + table).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}

	var rows []customer.Row
	for {
		var raw map[string]bigquery.Value
		err := it.Next(&raw)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", table, err)
		}
		row := make(customer.Row, len(raw))
		for k, v := range raw {
			row[k] = convertValue(v)
		}
		rows = append(rows, row)
	}

	s.logger.Info("bigquery table loaded",
		zap.String("agency", a.Name),
		zap.String("table", table),
		zap.Int("rows", len(rows)),
		zap.Duration("took", time.Since(start)),
	)
	return rows, nil
}

// convertValue maps warehouse values onto the types the normalizer reads.
func convertValue(v bigquery.Value) any {
	switch t := v.(type) {
	case civil.Date:
		return time.Date(t.Year, t.Month, t.Day, 0, 0, 0, 0, time.UTC)
	case civil.DateTime:
		return t.In(time.UTC)
	case civil.Time:
		return t.String()
	case time.Time:
		return t.UTC()
	case []byte:
		return string(t)
	case *big.Rat:
		if t == nil {
			return nil
		}
		f, _ := t.Float64()
		return f
	}
	return v
}

// Close releases every client.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for key, c := range s.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.clients, key)
	}
	return errors.Join(errs...)
}
