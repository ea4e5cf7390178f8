package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

const publicCacheControl = "public, max-age=86400"

// AzureBlobStorage keeps each logical container in its own blob container.
// Public objects are still served through the API under publicURL so the
// storage account can stay private.
type AzureBlobStorage struct {
	client     *azblob.Client
	containers map[ContainerType]string
	publicURL  string
}

func NewAzureBlobStorage(endpoint, accountName, accountKey, publicContainer, privateContainer, publicURL string) (*AzureBlobStorage, error) {
	if endpoint == "" || accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("azure blob: missing endpoint or credentials")
	}
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure blob: credential error: %w", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob: client init failed: %w", err)
	}
	return &AzureBlobStorage{
		client: client,
		containers: map[ContainerType]string{
			ContainerPublic:  publicContainer,
			ContainerPrivate: privateContainer,
		},
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// blobRef resolves the blob container and cleaned blob name for a key.
func (s *AzureBlobStorage) blobRef(ct ContainerType, key string) (string, string, error) {
	name, ok := s.containers[ct]
	if !ok {
		return "", "", fmt.Errorf("azure blob: unknown container %q", ct)
	}
	if name == "" {
		return "", "", fmt.Errorf("azure blob: %s container not configured", ct)
	}
	blobName, err := CleanKey(key)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	return name, blobName, nil
}

func (s *AzureBlobStorage) Upload(ctx context.Context, obj *Object) (*Location, error) {
	if err := ValidateObject(obj); err != nil {
		return nil, err
	}
	container, blobName, err := s.blobRef(obj.Container, obj.Key)
	if err != nil {
		return nil, err
	}

	headers := &blob.HTTPHeaders{}
	if obj.ContentType != "" {
		headers.BlobContentType = &obj.ContentType
	}
	if obj.Container == ContainerPublic {
		cc := publicCacheControl
		headers.BlobCacheControl = &cc
	}
	opts := &azblob.UploadStreamOptions{HTTPHeaders: headers}
	if _, err := s.client.UploadStream(ctx, container, blobName, obj.Reader, opts); err != nil {
		return nil, fmt.Errorf("azure blob: upload %s failed: %w", blobName, err)
	}

	loc := &Location{Container: obj.Container, Path: blobName}
	if obj.Container == ContainerPublic {
		loc.URL = s.publicURL + "/" + blobName
	}
	return loc, nil
}

func (s *AzureBlobStorage) Download(ctx context.Context, loc *Location) (*DownloadResult, error) {
	if err := ValidateLocation(loc); err != nil {
		return nil, err
	}
	container, blobName, err := s.blobRef(loc.Container, loc.Path)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("azure blob: download %s failed: %w", blobName, err)
	}

	res := &DownloadResult{Reader: resp.Body}
	if resp.ContentType != nil {
		res.ContentType = *resp.ContentType
	}
	if resp.ContentLength != nil {
		res.Size = *resp.ContentLength
	}
	return res, nil
}

// Delete treats a missing blob as already deleted.
func (s *AzureBlobStorage) Delete(ctx context.Context, loc *Location) error {
	if err := ValidateLocation(loc); err != nil {
		return err
	}
	container, blobName, err := s.blobRef(loc.Container, loc.Path)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteBlob(ctx, container, blobName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("azure blob: delete %s failed: %w", blobName, err)
	}
	return nil
}
