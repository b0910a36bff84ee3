// Package governorsdk is a thin Go client for tool authors who want to
// call the governor's decision pipeline and lifecycle operations directly
// from process code, rather than through the MCP stdio transport.
//
// Unlike the network client it's adapted from, there is no server to
// reach: the governor runs in the same process, so Evaluate calls
// straight into a *governor.Governor. The caching layer is kept because
// repeated identical calls (the same tool, args, and run) are common in
// agent loops and a short-lived cache avoids redundant audit churn.
package governorsdk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/response"
)

// ActionRequest describes one action to evaluate against the governor's
// policy pipeline.
type ActionRequest struct {
	Tool      string
	Risk      governor.RiskLevel
	Arguments map[string]any
	RunID     string
	OwnerID   string
	SkipAudit bool
}

// Client wraps a governor.Governor with a cache and convenience methods
// for the lifecycle, bundle, and explain operations.
type Client struct {
	gov *governor.Governor

	cache        sync.Map
	cacheTTL     time.Duration
	cacheMaxSize int
	cacheCount   int64
	cacheMu      sync.Mutex

	logger *slog.Logger
}

type cacheEntry struct {
	resp      *response.Response
	expiresAt time.Time
	createdAt time.Time
}

// NewClient wraps an existing governor for in-process use.
func NewClient(gov *governor.Governor, opts ...Option) *Client {
	c := &Client{
		gov:          gov,
		cacheTTL:     2 * time.Second,
		cacheMaxSize: 1000,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate runs the decision pipeline for req and returns the resulting
// envelope. A blocked decision surfaces as *ActionBlockedError; an error
// decision surfaces as *ActionFailedError. Both wrap the full response.
func (c *Client) Evaluate(ctx context.Context, req ActionRequest) (*response.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := c.buildCacheKey(req)
	if resp, ok := c.getFromCache(key); ok {
		return resp, classify(resp)
	}

	decision := c.gov.ValidateAction(req.Tool, req.Risk, req.Arguments, req.RunID, req.OwnerID, req.SkipAudit)
	resp := decision.BlockResponse
	if resp == nil {
		c.logger.Error("governorsdk: decision carried no response envelope", "tool", req.Tool)
		return nil, fmt.Errorf("governorsdk: nil response for tool %q", req.Tool)
	}

	if decision.Allowed() {
		c.putInCache(key, resp)
	}
	return resp, classify(resp)
}

// Check is a convenience wrapper that reports whether an action is
// allowed, without surfacing a typed error for the block/error case.
func (c *Client) Check(ctx context.Context, req ActionRequest) (bool, error) {
	resp, err := c.Evaluate(ctx, req)
	if err != nil {
		var blocked *ActionBlockedError
		if asBlocked(err, &blocked) {
			return false, nil
		}
		return false, err
	}
	return resp.Status == response.StatusOK, nil
}

// StartRun begins a new run scoped to ownerID.
func (c *Client) StartRun(ownerID string, metadata map[string]any) (*response.Response, error) {
	resp := c.gov.StartRun(ownerID, metadata)
	return &resp, classify(&resp)
}

// EndRun closes an existing run, failing if ownerID does not match the
// run's owner or the run is already ended.
func (c *Client) EndRun(runID, ownerID string) (*response.Response, error) {
	resp := c.gov.EndRun(runID, ownerID)
	return &resp, classify(&resp)
}

// GetRunSummary reports the tool sequence and risk distribution recorded
// for a run.
func (c *Client) GetRunSummary(runID, ownerID string) (*response.Response, error) {
	resp := c.gov.GetRunSummary(runID, ownerID)
	return &resp, classify(&resp)
}

// CreateChangeBundle registers a diff for later review, returning the
// same bundle when called again with identical content. Under the ci
// profile this is a write-risk action and requires a non-empty runID.
func (c *Client) CreateChangeBundle(diffText string, targetFiles []string, runID, ownerID string, metadata map[string]any) (*response.Response, error) {
	resp := c.gov.CreateChangeBundle(diffText, targetFiles, runID, ownerID, metadata)
	return &resp, classify(&resp)
}

// BundleReport summarizes a previously created change bundle. An owner
// mismatch against the bundle's creator is indistinguishable from an
// unknown bundle_id.
func (c *Client) BundleReport(bundleID, runID, ownerID string) (*response.Response, error) {
	resp := c.gov.BundleReport(bundleID, runID, ownerID)
	return &resp, classify(&resp)
}

// ExplainPolicyDecision looks up a previously logged audit entry and
// returns the evidence and remediation text for why it was allowed or
// blocked.
func (c *Client) ExplainPolicyDecision(auditID, ownerID string) (*response.Response, error) {
	resp := c.gov.ExplainPolicyDecision(auditID, ownerID)
	return &resp, classify(&resp)
}

// classify turns a non-ok envelope into the matching typed SDK error,
// mirroring the decision switch the network client used for deny.
func classify(resp *response.Response) error {
	switch resp.Status {
	case response.StatusOK:
		return nil
	case response.StatusBlocked:
		v, _ := resp.Data["policy_violation"].(response.Violation)
		return &ActionBlockedError{
			Violation: v,
			Summary:   resp.Summary,
			AuditID:   resp.Meta.AuditID,
		}
	default:
		return &ActionFailedError{
			Code:    resp.Code,
			Summary: resp.Summary,
			AuditID: resp.Meta.AuditID,
		}
	}
}

func asBlocked(err error, target **ActionBlockedError) bool {
	b, ok := err.(*ActionBlockedError)
	if ok {
		*target = b
	}
	return ok
}

// buildCacheKey hashes the tool, run, owner, and arguments so identical
// calls within the cache TTL skip a redundant pipeline run.
func (c *Client) buildCacheKey(req ActionRequest) string {
	h := sha256.New()
	if req.Arguments != nil {
		argBytes, _ := json.Marshal(req.Arguments)
		h.Write(argBytes)
	}
	argsHash := hex.EncodeToString(h.Sum(nil))[:16]
	return fmt.Sprintf("%s:%s:%s:%s", req.Tool, req.RunID, req.OwnerID, argsHash)
}

func (c *Client) getFromCache(key string) (*response.Response, bool) {
	val, ok := c.cache.Load(key)
	if !ok {
		return nil, false
	}
	entry := val.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.cache.Delete(key)
		c.cacheMu.Lock()
		c.cacheCount--
		c.cacheMu.Unlock()
		return nil, false
	}
	return entry.resp, true
}

func (c *Client) putInCache(key string, resp *response.Response) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	if c.cacheCount >= int64(c.cacheMaxSize) {
		now := time.Now()
		evicted := 0
		c.cache.Range(func(k, v any) bool {
			entry := v.(*cacheEntry)
			if now.After(entry.expiresAt) {
				c.cache.Delete(k)
				evicted++
			}
			return evicted < 100
		})
		c.cacheCount -= int64(evicted)

		if c.cacheCount >= int64(c.cacheMaxSize) {
			var oldest time.Time
			var oldestKey any
			c.cache.Range(func(k, v any) bool {
				entry := v.(*cacheEntry)
				if oldest.IsZero() || entry.createdAt.Before(oldest) {
					oldest = entry.createdAt
					oldestKey = k
				}
				return true
			})
			if oldestKey != nil {
				c.cache.Delete(oldestKey)
				c.cacheCount--
			}
		}
	}

	c.cache.Store(key, &cacheEntry{
		resp:      resp,
		expiresAt: time.Now().Add(c.cacheTTL),
		createdAt: time.Now(),
	})
	c.cacheCount++
}
