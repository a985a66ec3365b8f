// internal/repository/spreadsheet/source.go
package spreadsheet

import (
	"context"
	"fmt"
	"path"

	"retention-service/internal/domain/agency"
	"retention-service/internal/service/customer"

	"go.uber.org/zap"
)

// Source loads agency records from a spreadsheet export.
type Source struct {
	opener Opener
	logger *zap.Logger
}

func NewSource(opener Opener, logger *zap.Logger) *Source {
	return &Source{opener: opener, logger: logger}
}

func (s *Source) Fetch(ctx context.Context, a agency.Agency) ([]customer.Row, error) {
	if a.File == "" {
		return nil, fmt.Errorf("agency %s has no spreadsheet file", a.Name)
	}

	rc, err := s.opener.Open(ctx, a.File)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	cells, err := readCells(rc, path.Base(a.File), a.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", a.File, err)
	}
	rows := toRows(cells)

	s.logger.Info("spreadsheet loaded",
		zap.String("agency", a.Name),
		zap.String("file", a.File),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}
