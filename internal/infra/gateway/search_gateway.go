package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/amberflux/lorepo"
)

const capabilitiesCacheKey = "capabilities"

type indexCapabilities struct {
	PartialUpdate bool `json:"partialUpdate"`
}

// SearchGateway talks to the external search index over http. The index's
// capability document is cached so routine calls don't re-probe it.
type SearchGateway struct {
	addr   string
	client *http.Client
	cache  *cache.Cache
}

func NewSearchGateway(addr string) *SearchGateway {
	return &SearchGateway{
		addr: addr,
		client: &http.Client{
			Timeout: 3 * time.Second,
		},
		cache: cache.New(10*time.Minute, 15*time.Minute),
	}
}

func (g *SearchGateway) capabilities(ctx context.Context) (indexCapabilities, error) {

	if cached, found := g.cache.Get(capabilitiesCacheKey); found {
		return cached.(indexCapabilities), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.addr+"/capabilities", nil)
	if err != nil {
		return indexCapabilities{}, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return indexCapabilities{}, errors.Wrap(err, "failed to probe search index")
	}
	defer resp.Body.Close()

	var caps indexCapabilities
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&caps); err != nil {
			return indexCapabilities{}, err
		}
	}

	g.cache.Set(capabilitiesCacheKey, caps, cache.DefaultExpiration)
	return caps, nil
}

func (g *SearchGateway) do(ctx context.Context, method, path string, payload any) error {

	var body *bytes.Reader
	if payload != nil {
		jsonstr, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(jsonstr)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.addr+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "search index unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("search index returned %d for %s %s", resp.StatusCode, method, path)
	}

	return nil
}

func (g *SearchGateway) PublishSubmission(ctx context.Context, doc lorepo.SubmissionDocument) error {
	return g.do(ctx, http.MethodPost, "/documents", doc)
}

func (g *SearchGateway) UpdateSubmission(ctx context.Context, id string, updates map[string]any) error {

	caps, err := g.capabilities(ctx)
	if err != nil {
		return err
	}
	if caps.PartialUpdate {
		return g.do(ctx, http.MethodPatch, "/documents/"+id, updates)
	}
	return g.do(ctx, http.MethodPut, "/documents/"+id, updates)
}

func (g *SearchGateway) DeleteSubmission(ctx context.Context, id string) error {
	return g.do(ctx, http.MethodDelete, "/documents/"+id, nil)
}

func (g *SearchGateway) DeletePreviousRelease(ctx context.Context, id string) error {
	return g.do(ctx, http.MethodDelete, "/releases/"+id, nil)
}
