package trustxapi

import (
	"context"
	"net/http"

	"github.com/OmerShlush/trustx-migration/internal/httpexec"
)

// DownloadResource fetches an absolute URL without tenant authentication.
// Preview pages and theme/page asset files are served from public storage and
// reject bearer headers meant for the API.
func (client *Client) DownloadResource(executionContext context.Context, absoluteURL string) ([]byte, error) {
	requestResult, executionError := client.executor.Execute(executionContext, httpexec.RequestDetails{
		Method:      http.MethodGet,
		URL:         absoluteURL,
		Description: "download " + absoluteURL,
	})
	if executionError != nil {
		return nil, executionError
	}
	return requestResult.Body, nil
}
