package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kvmeta/internal/api"
	"kvmeta/internal/catalog"
	"kvmeta/internal/coordinator"
	"kvmeta/internal/meta"
)

// stubDispatcher records every Submit and serves canned read results.
type stubDispatcher struct {
	mu    sync.Mutex
	ops   []meta.Operation
	waits []*time.Duration

	delay     time.Duration
	submitErr error

	collections []string
	bindings    []meta.AliasBinding
	aliases     []string
	info        meta.CollectionInfo
	readErr     error
}

func (d *stubDispatcher) Submit(ctx context.Context, op meta.Operation, wait *time.Duration) (meta.OperationResult, error) {
	d.mu.Lock()
	d.ops = append(d.ops, op)
	d.waits = append(d.waits, wait)
	seq := uint64(len(d.ops))
	d.mu.Unlock()

	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.submitErr != nil {
		return meta.OperationResult{}, d.submitErr
	}
	return meta.OperationResult{Applied: true, Seq: seq}, nil
}

func (d *stubDispatcher) ListCollections(ctx context.Context) ([]string, error) {
	return d.collections, d.readErr
}

func (d *stubDispatcher) ListAliases(ctx context.Context) ([]meta.AliasBinding, error) {
	return d.bindings, d.readErr
}

func (d *stubDispatcher) CollectionAliases(ctx context.Context, collection string) ([]string, error) {
	return d.aliases, d.readErr
}

func (d *stubDispatcher) GetCollectionInfo(ctx context.Context, collection string) (meta.CollectionInfo, error) {
	return d.info, d.readErr
}

func (d *stubDispatcher) submitCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ops)
}

func TestService_ConversionFailureNeverSubmits(t *testing.T) {
	tests := []struct {
		name string
		call func(s *Service) error
	}{
		{
			name: "create with bad name",
			call: func(s *Service) error {
				_, err := s.Create(context.Background(), api.CreateCollection{CollectionName: "bad name"})
				return err
			},
		},
		{
			name: "update with zero quorum",
			call: func(s *Service) error {
				zero := uint32(0)
				_, err := s.Update(context.Background(), api.UpdateCollection{
					CollectionName: "users",
					Config:         &meta.ConfigDiff{ReadQuorum: &zero},
				})
				return err
			},
		},
		{
			name: "delete with empty name",
			call: func(s *Service) error {
				_, err := s.Delete(context.Background(), api.DeleteCollection{})
				return err
			},
		},
		{
			name: "aliases with empty action",
			call: func(s *Service) error {
				_, err := s.UpdateAliases(context.Background(), api.ChangeAliases{Actions: []api.AliasAction{{}}})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubDispatcher{}
			err := tt.call(New(stub))
			if status.Code(err) != codes.InvalidArgument {
				t.Errorf("code = %v, want InvalidArgument (err %v)", status.Code(err), err)
			}
			if n := stub.submitCount(); n != 0 {
				t.Errorf("submit called %d times, want 0", n)
			}
		})
	}
}

func TestService_WaitTimeoutPassesThrough(t *testing.T) {
	seven := uint64(7)
	zero := uint64(0)

	tests := []struct {
		name string
		call func(s *Service) error
		want *time.Duration
	}{
		{
			name: "absent stays nil",
			call: func(s *Service) error {
				_, err := s.Create(context.Background(), api.CreateCollection{CollectionName: "users"})
				return err
			},
			want: nil,
		},
		{
			name: "seven seconds",
			call: func(s *Service) error {
				_, err := s.Delete(context.Background(), api.DeleteCollection{CollectionName: "users", Timeout: &seven})
				return err
			},
			want: durationp(7 * time.Second),
		},
		{
			name: "zero seconds stays zero",
			call: func(s *Service) error {
				_, err := s.Update(context.Background(), api.UpdateCollection{CollectionName: "users", Timeout: &zero})
				return err
			},
			want: durationp(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubDispatcher{}
			if err := tt.call(New(stub)); err != nil {
				t.Fatalf("call: %v", err)
			}
			if len(stub.waits) != 1 {
				t.Fatalf("submit called %d times, want 1", len(stub.waits))
			}
			got := stub.waits[0]
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("wait = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("wait = nil, want %v", *tt.want)
			case tt.want != nil && got != nil && *got != *tt.want:
				t.Errorf("wait = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func durationp(d time.Duration) *time.Duration { return &d }

func TestService_OperationKindsMatchRequests(t *testing.T) {
	stub := &stubDispatcher{}
	s := New(stub)
	ctx := context.Background()

	if _, err := s.Create(ctx, api.CreateCollection{CollectionName: "users"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Update(ctx, api.UpdateCollection{CollectionName: "users"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.Delete(ctx, api.DeleteCollection{CollectionName: "users"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.UpdateAliases(ctx, api.ChangeAliases{Actions: []api.AliasAction{
		{DeleteAlias: &api.DeleteAlias{AliasName: "u"}},
	}}); err != nil {
		t.Fatalf("update aliases: %v", err)
	}

	wantKinds := []string{"create_collection", "update_collection", "delete_collection", "change_aliases"}
	if len(stub.ops) != len(wantKinds) {
		t.Fatalf("submitted %d operations, want %d", len(stub.ops), len(wantKinds))
	}
	for i, want := range wantKinds {
		if got := stub.ops[i].Kind(); got != want {
			t.Errorf("operation %d kind = %q, want %q", i, got, want)
		}
	}
}

func TestService_ElapsedCoversDispatcherCall(t *testing.T) {
	const delay = 100 * time.Millisecond
	stub := &stubDispatcher{delay: delay}
	s := New(stub)

	resp, err := s.Create(context.Background(), api.CreateCollection{CollectionName: "users"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !resp.Result {
		t.Error("result = false, want true")
	}
	if resp.Time < delay.Seconds() {
		t.Errorf("time = %v, want >= %v", resp.Time, delay.Seconds())
	}
}

func TestService_ListCollectionAliasesAttachesCallerName(t *testing.T) {
	stub := &stubDispatcher{aliases: []string{"a", "b"}}
	s := New(stub)

	resp, err := s.ListCollectionAliases(context.Background(), "foo")
	if err != nil {
		t.Fatalf("list collection aliases: %v", err)
	}
	want := []api.AliasDescription{
		{AliasName: "a", CollectionName: "foo"},
		{AliasName: "b", CollectionName: "foo"},
	}
	if len(resp.Aliases) != len(want) {
		t.Fatalf("aliases = %v, want %v", resp.Aliases, want)
	}
	for i := range want {
		if resp.Aliases[i] != want[i] {
			t.Errorf("aliases[%d] = %+v, want %+v", i, resp.Aliases[i], want[i])
		}
	}
	if resp.Time < 0 {
		t.Errorf("time = %v, want >= 0", resp.Time)
	}
}

func TestService_ListCollectionAliasesEchoesNameVerbatim(t *testing.T) {
	stub := &stubDispatcher{aliases: []string{"x"}}
	s := New(stub)

	// The caller's spelling wins even when the coordinator normalizes
	// collection names differently.
	resp, err := s.ListCollectionAliases(context.Background(), "Users_V2")
	if err != nil {
		t.Fatalf("list collection aliases: %v", err)
	}
	if resp.Aliases[0].CollectionName != "Users_V2" {
		t.Errorf("collection name = %q, want Users_V2", resp.Aliases[0].CollectionName)
	}
}

func TestService_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "collection not found", err: catalog.ErrCollectionNotFound, want: codes.NotFound},
		{name: "alias not found wrapped", err: fmt.Errorf("%w: %q", catalog.ErrAliasNotFound, "u"), want: codes.NotFound},
		{name: "collection exists", err: catalog.ErrCollectionExists, want: codes.AlreadyExists},
		{name: "alias exists wrapped", err: fmt.Errorf("action 1: %w", catalog.ErrAliasExists), want: codes.AlreadyExists},
		{name: "invalid config", err: fmt.Errorf("%w: quorum", meta.ErrInvalidConfig), want: codes.InvalidArgument},
		{name: "wait timeout", err: coordinator.ErrTimeout, want: codes.DeadlineExceeded},
		{name: "context deadline", err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{name: "stopped", err: coordinator.ErrStopped, want: codes.Unavailable},
		{name: "context canceled", err: context.Canceled, want: codes.Canceled},
		{name: "unknown error", err: errors.New("disk on fire"), want: codes.Internal},
		{name: "status passes through", err: status.Error(codes.ResourceExhausted, "slow down"), want: codes.ResourceExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubDispatcher{submitErr: tt.err}
			s := New(stub)

			_, err := s.Delete(context.Background(), api.DeleteCollection{CollectionName: "users"})
			if status.Code(err) != tt.want {
				t.Errorf("code = %v, want %v (err %v)", status.Code(err), tt.want, err)
			}

			// Read paths share the same table.
			stub.readErr = tt.err
			_, err = s.Get(context.Background(), "users")
			if status.Code(err) != tt.want {
				t.Errorf("read code = %v, want %v (err %v)", status.Code(err), tt.want, err)
			}
		})
	}
}

func TestService_ReadAdapters(t *testing.T) {
	now := time.Now().UTC()
	stub := &stubDispatcher{
		collections: []string{"events", "users"},
		bindings: []meta.AliasBinding{
			{Alias: "u", Collection: "users"},
			{Alias: "e", Collection: "events"},
		},
		info: meta.CollectionInfo{
			Status:    meta.StatusReady,
			Config:    meta.DefaultCollectionConfig(),
			Version:   3,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	s := New(stub)
	ctx := context.Background()

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Collections) != 2 || list.Collections[0].Name != "events" || list.Collections[1].Name != "users" {
		t.Errorf("collections = %v", list.Collections)
	}

	aliases, err := s.ListAliases(ctx)
	if err != nil {
		t.Fatalf("list aliases: %v", err)
	}
	if len(aliases.Aliases) != 2 {
		t.Fatalf("aliases = %v", aliases.Aliases)
	}
	if aliases.Aliases[0] != (api.AliasDescription{AliasName: "u", CollectionName: "users"}) {
		t.Errorf("aliases[0] = %+v", aliases.Aliases[0])
	}

	info, err := s.Get(ctx, "users")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if info.Result.Version != 3 || info.Result.Status != meta.StatusReady {
		t.Errorf("info = %+v", info.Result)
	}
}

func TestService_ConcurrentCreatesStayIndependent(t *testing.T) {
	stub := &stubDispatcher{delay: 50 * time.Millisecond}
	s := New(stub)

	var wg sync.WaitGroup
	results := make([]api.CollectionOperationResponse, 2)
	errs := make([]error, 2)
	names := []string{"alpha", "beta"}
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Create(context.Background(), api.CreateCollection{CollectionName: names[i]})
		}(i)
	}
	wg.Wait()

	for i := range names {
		if errs[i] != nil {
			t.Fatalf("create %s: %v", names[i], errs[i])
		}
		if !results[i].Result {
			t.Errorf("create %s: result = false", names[i])
		}
		if results[i].Time < 0.05 {
			t.Errorf("create %s: time = %v, want >= 0.05", names[i], results[i].Time)
		}
	}

	got := map[string]bool{}
	for _, op := range stub.ops {
		create, ok := op.(meta.CreateCollectionOperation)
		if !ok {
			t.Fatalf("unexpected operation %T", op)
		}
		got[create.CollectionName] = true
	}
	if !got["alpha"] || !got["beta"] {
		t.Errorf("submitted names = %v, want alpha and beta", got)
	}
}
