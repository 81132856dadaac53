package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/hermeslink/hlink-backup/internal/config"
)

// GDriveStorage keeps backups in one Drive folder shared with a service
// account.
type GDriveStorage struct {
	service  *drive.Service
	folderID string
}

func NewGDrive(ctx context.Context, cfg *config.UploadTarget) (*GDriveStorage, error) {
	service, err := drive.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(drive.DriveFileScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDriveStorage{
		service:  service,
		folderID: cfg.FolderID,
	}, nil
}

func (g *GDriveStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	meta := &drive.File{
		Name:     remoteName,
		Parents:  []string{g.folderID},
		MimeType: "application/gzip",
	}

	if _, err := g.service.Files.Create(meta).Media(file).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to upload to gdrive: %w", err)
	}

	return nil
}

func (g *GDriveStorage) List(ctx context.Context) ([]string, error) {
	return g.names(ctx, g.folderQuery())
}

func (g *GDriveStorage) Delete(ctx context.Context, remoteName string) error {
	query := fmt.Sprintf("%s and name='%s'", g.folderQuery(), escapeQuery(remoteName))

	fileList, err := g.service.Files.List().Q(query).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to find file: %w", err)
	}
	if len(fileList.Files) == 0 {
		return fmt.Errorf("file not found: %s", remoteName)
	}

	for _, f := range fileList.Files {
		if err := g.service.Files.Delete(f.Id).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}
	}

	return nil
}

func (g *GDriveStorage) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	query := fmt.Sprintf("%s and modifiedTime < '%s'", g.folderQuery(), cutoffTime.UTC().Format(time.RFC3339))
	return g.names(ctx, query)
}

func (g *GDriveStorage) names(ctx context.Context, query string) ([]string, error) {
	var files []string
	err := g.service.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name)").
		Context(ctx).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				files = append(files, f.Name)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

func (g *GDriveStorage) folderQuery() string {
	return fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(g.folderID))
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
