// internal/repository/spreadsheet/opener.go
package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// Opener returns a reader over a spreadsheet file.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// FileOpener reads local paths relative to BaseDir, and gs://bucket/object
// paths through Cloud Storage when a client is configured.
type FileOpener struct {
	BaseDir string
	GCS     *storage.Client
}

// NewGCSClient builds a Cloud Storage client, with a service account key
// when credentialsFile is set and application default credentials otherwise.
func NewGCSClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("service account key not found at path: %s: %w", credentialsFile, err)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return client, nil
}

func (o *FileOpener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, gcsScheme) {
		return o.openGCS(ctx, path)
	}
	if !filepath.IsAbs(path) && o.BaseDir != "" {
		path = filepath.Join(o.BaseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func (o *FileOpener) openGCS(ctx context.Context, path string) (io.ReadCloser, error) {
	if o.GCS == nil {
		return nil, fmt.Errorf("no storage client configured for %s", path)
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(path, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return nil, fmt.Errorf("invalid storage path: %s", path)
	}
	r, err := o.GCS.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return r, nil
}
