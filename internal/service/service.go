package service

import (
	"context"
	"time"

	"kvmeta/internal/api"
	"kvmeta/internal/meta"
)

// Dispatcher is the coordinator capability the service depends on. The
// local coordinator and the remote proxy client both satisfy it, and tests
// swap in stubs.
type Dispatcher interface {
	// Submit applies one operation. A nil wait leaves the timeout to the
	// dispatcher's default.
	Submit(ctx context.Context, op meta.Operation, wait *time.Duration) (meta.OperationResult, error)
	ListCollections(ctx context.Context) ([]string, error)
	ListAliases(ctx context.Context) ([]meta.AliasBinding, error)
	CollectionAliases(ctx context.Context, collection string) ([]string, error)
	GetCollectionInfo(ctx context.Context, collection string) (meta.CollectionInfo, error)
}

// operationRequest is the capability shared by all mutating requests: the
// pipeline below needs nothing else from them.
type operationRequest interface {
	WaitTimeout() *time.Duration
	Operation() (meta.Operation, error)
}

// Service dispatches collection metadata requests. It holds no state beyond
// the dispatcher reference and is safe for concurrent use.
type Service struct {
	dispatcher Dispatcher
}

// New returns a service over the given dispatcher.
func New(d Dispatcher) *Service {
	return &Service{dispatcher: d}
}

// performOperation runs the uniform mutating pipeline. Conversion failures
// abort before anything reaches the dispatcher; the reported time spans the
// dispatcher call only.
func (s *Service) performOperation(ctx context.Context, req operationRequest) (api.CollectionOperationResponse, error) {
	wait := req.WaitTimeout()
	start := time.Now()

	op, err := req.Operation()
	if err != nil {
		return api.CollectionOperationResponse{}, err
	}

	res, err := s.dispatcher.Submit(ctx, op, wait)
	if err != nil {
		return api.CollectionOperationResponse{}, errToStatus(err)
	}
	return api.CollectionOperationResponse{
		Result: res.Applied,
		Time:   time.Since(start).Seconds(),
	}, nil
}

// Create makes a new collection.
func (s *Service) Create(ctx context.Context, req api.CreateCollection) (api.CollectionOperationResponse, error) {
	return s.performOperation(ctx, req)
}

// Update changes the settings of an existing collection.
func (s *Service) Update(ctx context.Context, req api.UpdateCollection) (api.CollectionOperationResponse, error) {
	return s.performOperation(ctx, req)
}

// Delete removes a collection.
func (s *Service) Delete(ctx context.Context, req api.DeleteCollection) (api.CollectionOperationResponse, error) {
	return s.performOperation(ctx, req)
}

// UpdateAliases applies a batch of alias changes.
func (s *Service) UpdateAliases(ctx context.Context, req api.ChangeAliases) (api.CollectionOperationResponse, error) {
	return s.performOperation(ctx, req)
}

// List returns every collection name.
func (s *Service) List(ctx context.Context) (api.ListCollectionsResponse, error) {
	start := time.Now()
	names, err := s.dispatcher.ListCollections(ctx)
	if err != nil {
		return api.ListCollectionsResponse{}, errToStatus(err)
	}
	collections := make([]api.CollectionDescription, 0, len(names))
	for _, name := range names {
		collections = append(collections, api.CollectionDescription{Name: name})
	}
	return api.ListCollectionsResponse{
		Collections: collections,
		Time:        time.Since(start).Seconds(),
	}, nil
}

// ListAliases returns every alias binding in the cluster.
func (s *Service) ListAliases(ctx context.Context) (api.ListAliasesResponse, error) {
	start := time.Now()
	bindings, err := s.dispatcher.ListAliases(ctx)
	if err != nil {
		return api.ListAliasesResponse{}, errToStatus(err)
	}
	aliases := make([]api.AliasDescription, 0, len(bindings))
	for _, b := range bindings {
		aliases = append(aliases, api.AliasDescription{
			AliasName:      b.Alias,
			CollectionName: b.Collection,
		})
	}
	return api.ListAliasesResponse{
		Aliases: aliases,
		Time:    time.Since(start).Seconds(),
	}, nil
}

// ListCollectionAliases returns the aliases of one collection. The
// collection name attached to each entry is the caller's, echoed verbatim;
// the coordinator only supplies the alias names.
func (s *Service) ListCollectionAliases(ctx context.Context, collection string) (api.ListAliasesResponse, error) {
	start := time.Now()
	names, err := s.dispatcher.CollectionAliases(ctx, collection)
	if err != nil {
		return api.ListAliasesResponse{}, errToStatus(err)
	}
	aliases := make([]api.AliasDescription, 0, len(names))
	for _, alias := range names {
		aliases = append(aliases, api.AliasDescription{
			AliasName:      alias,
			CollectionName: collection,
		})
	}
	return api.ListAliasesResponse{
		Aliases: aliases,
		Time:    time.Since(start).Seconds(),
	}, nil
}

// Get returns the info of one collection.
func (s *Service) Get(ctx context.Context, collection string) (api.GetCollectionInfoResponse, error) {
	start := time.Now()
	info, err := s.dispatcher.GetCollectionInfo(ctx, collection)
	if err != nil {
		return api.GetCollectionInfoResponse{}, errToStatus(err)
	}
	return api.GetCollectionInfoResponse{
		Result: info,
		Time:   time.Since(start).Seconds(),
	}, nil
}
