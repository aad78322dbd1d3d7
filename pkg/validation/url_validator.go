package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/body-measure-go/internal/errors"
)

const azureBlobHostSuffix = ".blob.core.windows.net"

// URLValidator checks size chart source locations before they are fetched.
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a new URL validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateChartURL validates a remote size chart location.
func (v *URLValidator) ValidateChartURL(chartURL string) error {
	_, err := v.parse(chartURL)
	return err
}

// ValidateBlobURL validates an Azure Blob Storage chart location of the
// form https://<account>.blob.core.windows.net/<container>?blob=<name> and
// returns its parts.
func (v *URLValidator) ValidateBlobURL(blobURL string) (account, container, blob string, err error) {
	parsed, err := v.parse(blobURL)
	if err != nil {
		return "", "", "", err
	}
	host := strings.ToLower(parsed.Hostname())
	if !strings.HasSuffix(host, azureBlobHostSuffix) {
		return "", "", "", apperrors.NewValidationError("URL is not an Azure Blob Storage endpoint", nil)
	}
	account = strings.TrimSuffix(host, azureBlobHostSuffix)
	container = strings.Trim(parsed.Path, "/")
	blob = parsed.Query().Get("blob")
	if account == "" || container == "" || strings.Contains(container, "/") {
		return "", "", "", apperrors.NewValidationError("URL must name exactly one container", nil)
	}
	if blob == "" {
		return "", "", "", apperrors.NewValidationError("URL must include a blob query parameter", nil)
	}
	return account, container, blob, nil
}

func (v *URLValidator) parse(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return nil, apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return nil, apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Host) {
		return nil, apperrors.NewValidationError("URL host not allowed", nil)
	}

	return parsedURL, nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
