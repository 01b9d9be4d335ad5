package adapter

import (
	"bytes"
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/model"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// Hub is the interface for pushing a curated dataset to object storage
type Hub interface {
	// UploadDataset serializes items in the given format and uploads them as
	// one object under repoID. It returns the URL of the uploaded object.
	UploadDataset(ctx context.Context, token, repoID string, items []*model.Item, filename string, isPublic bool, format Format) (string, error)
}

// storageHub implements Hub using Cloud Storage. The repoID maps to a bucket
// name; the access token, when set, overrides ambient credentials.
type storageHub struct{}

// NewStorageHub creates a Cloud Storage backed Hub
func NewStorageHub() Hub {
	return &storageHub{}
}

func (h *storageHub) UploadDataset(ctx context.Context, token, repoID string, items []*model.Item, filename string, isPublic bool, format Format) (string, error) {
	if err := format.Validate(); err != nil {
		return "", err
	}
	if repoID == "" {
		return "", goerr.New("repository ID is required")
	}

	var opts []option.ClientOption
	if token != "" {
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create storage client")
	}
	defer client.Close()

	var buf bytes.Buffer
	if err := format.Encode(&buf, items); err != nil {
		return "", err
	}

	obj := client.Bucket(repoID).Object(filename)
	writer := obj.NewWriter(ctx)
	if _, err := writer.Write(buf.Bytes()); err != nil {
		_ = writer.Close()
		return "", goerr.Wrap(err, "failed to upload dataset", goerr.Value("repo", repoID), goerr.Value("filename", filename))
	}
	if err := writer.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize upload", goerr.Value("repo", repoID), goerr.Value("filename", filename))
	}

	if isPublic {
		if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
			return "", goerr.Wrap(err, "failed to grant public access", goerr.Value("repo", repoID))
		}
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", repoID, filename), nil
}
