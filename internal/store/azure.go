package store

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// AzureConfig configures an AzureBackend.
type AzureConfig struct {
	AccountName       string
	AccountKey        string
	ContainerName     string
	ConnectionString  string
}

// AzureBackend implements Backend against Azure Blob Storage.
type AzureBackend struct {
	client    *azblob.Client
	container string
}

// NewAzureBackend authenticates via connection string or account key and
// verifies the container exists.
func NewAzureBackend(ctx context.Context, cfg *AzureConfig) (*AzureBackend, error) {
	var client *azblob.Client
	var err error

	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	case cfg.AccountKey != "":
		var cred *azblob.SharedKeyCredential
		cred, err = azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err == nil {
			serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
			client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		}
	default:
		return nil, apperrors.New(apperrors.CodeInvalidInput, "azure backend requires a connection string or account key")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to create azure client", err)
	}

	if _, err := client.ServiceClient().NewContainerClient(cfg.ContainerName).GetProperties(ctx, nil); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to access container "+cfg.ContainerName, err)
	}

	return &AzureBackend{client: client, container: cfg.ContainerName}, nil
}

// Type reports "azure".
func (a *AzureBackend) Type() string { return "azure" }

// Get downloads the blob at key.
func (a *AzureBackend) Get(ctx context.Context, key string) ([]byte, error) {
	blob := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(key)
	resp, err := blob.DownloadStream(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "blob not found: "+key)
		}
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to download "+key, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to read blob "+key, err)
	}
	return data, nil
}

// Put uploads data as the blob at key.
func (a *AzureBackend) Put(ctx context.Context, key string, data []byte) error {
	_, err := a.client.UploadBuffer(ctx, a.container, key, data, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to upload "+key, err)
	}
	return nil
}

// Exists reports whether the blob at key exists.
func (a *AzureBackend) Exists(ctx context.Context, key string) (bool, error) {
	blob := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(key)
	_, err := blob.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.CodeIOFailure, "failed to stat blob "+key, err)
	}
	return true, nil
}

// List returns every blob name under prefix, sorted.
func (a *AzureBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	pager := a.client.NewListBlobsFlatPager(a.container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to list "+prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}
