package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kvmeta/internal/api"
	"kvmeta/internal/meta"
)

const (
	// requestTimeout bounds calls that carry no explicit wait.
	requestTimeout = 30 * time.Second
	// waitGrace pads the per-request deadline so the upstream can report
	// its own wait timeout first.
	waitGrace = 2 * time.Second
)

// Client talks to a remote kvmeta node. It satisfies the same dispatcher
// capability as the local coordinator.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for the node at base, e.g. "http://10.0.0.5:7400".
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{},
	}
}

// Submit forwards the operation to the upstream node. The wait timeout
// travels as the timeout query parameter, in whole seconds.
func (c *Client) Submit(ctx context.Context, op meta.Operation, wait *time.Duration) (meta.OperationResult, error) {
	ctx, cancel := c.submitContext(ctx, wait)
	defer cancel()

	var (
		method string
		target string
		body   any
	)
	switch o := op.(type) {
	case meta.CreateCollectionOperation:
		cfg := o.Config
		method = http.MethodPut
		target = c.collectionURL(o.CollectionName, wait)
		body = api.CreateCollection{Config: &cfg}
	case meta.UpdateCollectionOperation:
		diff := o.Diff
		method = http.MethodPatch
		target = c.collectionURL(o.CollectionName, wait)
		body = api.UpdateCollection{Config: &diff}
	case meta.DeleteCollectionOperation:
		method = http.MethodDelete
		target = c.collectionURL(o.CollectionName, wait)
	case meta.ChangeAliasesOperation:
		actions, err := wireActions(o.Actions)
		if err != nil {
			return meta.OperationResult{}, status.Error(codes.Internal, err.Error())
		}
		method = http.MethodPost
		target = c.url("/aliases", wait)
		body = api.ChangeAliases{Actions: actions}
	default:
		return meta.OperationResult{}, status.Errorf(codes.Internal, "unknown operation %T", op)
	}

	var resp api.CollectionOperationResponse
	if err := c.do(ctx, method, target, body, &resp); err != nil {
		return meta.OperationResult{}, err
	}
	return meta.OperationResult{Applied: resp.Result}, nil
}

// ListCollections fetches all collection names from the upstream.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var resp api.ListCollectionsResponse
	if err := c.do(ctx, http.MethodGet, c.base+"/collections", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Collections))
	for _, d := range resp.Collections {
		names = append(names, d.Name)
	}
	return names, nil
}

// ListAliases fetches every alias binding from the upstream.
func (c *Client) ListAliases(ctx context.Context) ([]meta.AliasBinding, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var resp api.ListAliasesResponse
	if err := c.do(ctx, http.MethodGet, c.base+"/aliases", nil, &resp); err != nil {
		return nil, err
	}
	bindings := make([]meta.AliasBinding, 0, len(resp.Aliases))
	for _, a := range resp.Aliases {
		bindings = append(bindings, meta.AliasBinding{Alias: a.AliasName, Collection: a.CollectionName})
	}
	return bindings, nil
}

// CollectionAliases fetches the alias names of one collection. Only the
// names come back; the local service reattaches its own caller's collection
// name.
func (c *Client) CollectionAliases(ctx context.Context, collection string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var resp api.ListAliasesResponse
	target := c.base + "/collections/" + url.PathEscape(collection) + "/aliases"
	if err := c.do(ctx, http.MethodGet, target, nil, &resp); err != nil {
		return nil, err
	}
	aliases := make([]string, 0, len(resp.Aliases))
	for _, a := range resp.Aliases {
		aliases = append(aliases, a.AliasName)
	}
	return aliases, nil
}

// GetCollectionInfo fetches one collection's info from the upstream.
func (c *Client) GetCollectionInfo(ctx context.Context, collection string) (meta.CollectionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var resp api.GetCollectionInfoResponse
	target := c.base + "/collections/" + url.PathEscape(collection)
	if err := c.do(ctx, http.MethodGet, target, nil, &resp); err != nil {
		return meta.CollectionInfo{}, err
	}
	return resp.Result, nil
}

func (c *Client) submitContext(ctx context.Context, wait *time.Duration) (context.Context, context.CancelFunc) {
	if wait != nil {
		return context.WithTimeout(ctx, *wait+waitGrace)
	}
	return context.WithTimeout(ctx, requestTimeout)
}

func (c *Client) url(path string, wait *time.Duration) string {
	target := c.base + path
	if wait != nil {
		target += fmt.Sprintf("?timeout=%d", uint64(*wait/time.Second))
	}
	return target
}

func (c *Client) collectionURL(name string, wait *time.Duration) string {
	return c.url("/collections/"+url.PathEscape(name), wait)
}

// do sends one JSON request and decodes the response into out. Failures
// come back as status errors: transport problems as Unavailable, remote
// error envelopes with the code their HTTP status maps to.
func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return status.Errorf(codes.Internal, "encode request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return status.Errorf(codes.Internal, "build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return status.Error(codes.DeadlineExceeded, err.Error())
		case errors.Is(err, context.Canceled):
			return status.Error(codes.Canceled, err.Error())
		}
		return status.Error(codes.Unavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("upstream returned %d", resp.StatusCode)
		var envelope api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Status.Error != "" {
			msg = envelope.Status.Error
		}
		return status.Error(api.CodeFromHTTPStatus(resp.StatusCode), msg)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return status.Errorf(codes.Internal, "decode upstream response: %v", err)
	}
	return nil
}

func wireActions(actions []meta.AliasAction) ([]api.AliasAction, error) {
	out := make([]api.AliasAction, 0, len(actions))
	for _, action := range actions {
		switch a := action.(type) {
		case meta.CreateAliasAction:
			out = append(out, api.AliasAction{CreateAlias: &api.CreateAlias{
				CollectionName: a.Collection,
				AliasName:      a.Alias,
			}})
		case meta.RenameAliasAction:
			out = append(out, api.AliasAction{RenameAlias: &api.RenameAlias{
				OldAliasName: a.OldAlias,
				NewAliasName: a.NewAlias,
			}})
		case meta.DeleteAliasAction:
			out = append(out, api.AliasAction{DeleteAlias: &api.DeleteAlias{
				AliasName: a.Alias,
			}})
		default:
			return nil, fmt.Errorf("unknown alias action %T", action)
		}
	}
	return out, nil
}
