// Catalog service for the streaming API song and section endpoints.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/tunefeed/internal/shared"
)

// catalogRequestsPerSecond caps how fast the feed prefetcher may hit the
// catalog endpoints.
const catalogRequestsPerSecond = 5

// CatalogService implements [Catalog] against the streaming API. Requests go
// through the refreshing client, so an expired access token mid-browse is
// handled without surfacing to the caller.
type CatalogService struct {
	client  *Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewCatalogService creates a [CatalogService] on the shared client.
func NewCatalogService(client *Client, logger *log.Logger) *CatalogService {
	return &CatalogService{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(catalogRequestsPerSecond), 1),
		logger:  logger,
	}
}

// doRequest performs a rate-limited GET against a catalog endpoint and
// decodes the JSON response into result.
func (c *CatalogService) doRequest(ctx context.Context, endpoint string, query map[string]string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if len(query) > 0 {
		q := req.URL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, req.URL.Path)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: catalog request rejected", shared.ErrNotAuthenticated)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: catalog returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Songs retrieves one page of the global song feed. Pages are 1-based.
func (c *CatalogService) Songs(ctx context.Context, page int) (*SongPage, error) {
	if page < 1 {
		page = 1
	}

	var result SongPage
	endpoint := c.client.Endpoint("songs")
	if err := c.doRequest(ctx, endpoint, map[string]string{"page": strconv.Itoa(page)}, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched feed page", "page", result.Page, "items", len(result.Items), "hasNext", result.HasNextPage)
	return &result, nil
}

// ArtistSongs retrieves every song for the given artist.
func (c *CatalogService) ArtistSongs(ctx context.Context, artistID int) ([]Track, error) {
	var result []Track
	endpoint := c.client.Endpoint("artists", strconv.Itoa(artistID), "songs")
	if err := c.doRequest(ctx, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Sections retrieves the curated home sections.
func (c *CatalogService) Sections(ctx context.Context) ([]Section, error) {
	var result []Section
	if err := c.doRequest(ctx, c.client.Endpoint("sections"), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}
