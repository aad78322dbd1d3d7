package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/anime-shed/body-measure-go/pkg/sizing"
	"github.com/anime-shed/body-measure-go/pkg/validation"
)

// AzureChartFetcher reads a size chart from Azure Blob Storage.
type AzureChartFetcher struct {
	account   string
	client    *azblob.Client
	validator *validation.URLValidator
}

// NewAzureChartFetcher authenticates with a shared account key.
func NewAzureChartFetcher(accountName, accountKey string) (*AzureChartFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureChartFetcher{
		account:   accountName,
		client:    client,
		validator: validation.NewURLValidatorWithOptions([]string{"https"}, nil),
	}, nil
}

// FetchChart downloads the blob named by
// https://<account>.blob.core.windows.net/<container>?blob=<name>.
func (s *AzureChartFetcher) FetchChart(ctx context.Context, blobURL string) (*sizing.Chart, error) {
	account, container, blob, err := s.validator.ValidateBlobURL(blobURL)
	if err != nil {
		return nil, err
	}
	if account != s.account {
		return nil, fmt.Errorf("blob account %q does not match configured account %q", account, s.account)
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeChart(resp.Body)
}
