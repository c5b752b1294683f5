package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kvmeta/internal/api"
	"kvmeta/internal/service"
)

// Server exposes the collection metadata service over HTTP/JSON.
type Server struct {
	id  string
	svc *service.Service
	mux *http.ServeMux
}

// NewServer builds the route table over the given service. The node id
// prefixes log lines.
func NewServer(nodeID string, svc *service.Service) *Server {
	s := &Server{id: nodeID, svc: svc, mux: http.NewServeMux()}

	s.mux.HandleFunc("PUT /collections/{name}", s.handleCreate)
	s.mux.HandleFunc("PATCH /collections/{name}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /collections/{name}", s.handleDelete)
	s.mux.HandleFunc("POST /aliases", s.handleUpdateAliases)

	s.mux.HandleFunc("GET /collections", s.handleList)
	s.mux.HandleFunc("GET /collections/{name}", s.handleGet)
	s.mux.HandleFunc("GET /aliases", s.handleListAliases)
	s.mux.HandleFunc("GET /collections/{name}/aliases", s.handleListCollectionAliases)

	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return s
}

// Handler returns the root handler for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// call carries the per-request bookkeeping every handler shares.
type call struct {
	id     string
	start  time.Time
	method string
	path   string
}

func newCall(r *http.Request) call {
	return call{
		id:     uuid.NewString(),
		start:  time.Now(),
		method: r.Method,
		path:   r.URL.Path,
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	c := newCall(r)
	req := api.CreateCollection{CollectionName: r.PathValue("name")}
	var err error
	if req.Timeout, err = timeoutParam(r); err != nil {
		s.fail(w, c, err)
		return
	}
	// The body is optional: a bare create takes the default config.
	if err := decodeBody(r, &req, true); err != nil {
		s.fail(w, c, err)
		return
	}
	resp, err := s.svc.Create(r.Context(), req)
	if err != nil {
		s.fail(w, c, err)
		return
	}
	s.respond(w, c, resp)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	c := newCall(r)
	req := api.UpdateCollection{CollectionName: r.PathValue("name")}
	var err error
	if req.Timeout, err = timeoutParam(r); err != nil {
		s.fail(w, c, err)
		return
	}
	if err := decodeBody(r, &req, true); err != nil {
		s.fail(w, c, err)
		return
	}
	resp, err := s.svc.Update(r.Context(), req)
	if err != nil {
		s.fail(w, c, err)
		return
	}
	s.respond(w, c, resp)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	c := newCall(r)
	req := api.DeleteCollection{CollectionName: r.PathValue("name")}
	var err error
	if req.Timeout, err = timeoutParam(r); err != nil {
		s.fail(w, c, err)
		return
	}
	resp, err := s.svc.Delete(r.Context(), req)
	if err != nil {
		s.fail(w, c, err)
		return
	}
	s.respond(w, c, resp)
}

func (s *Server) handleUpdateAliases(w http.ResponseWriter, r *http.Request) {
	c := newCall(r)
	var req api.ChangeAliases
	var err error
	if req.Timeout, err = timeoutParam(r); err != nil {
		s.fail(w, c, err)
		return
	}
	if err := decodeBody(r, &req, false); err != nil {
		s.fail(w, c, err)
		return
	}
	resp, err := s.svc.UpdateAliases(r.Context(), req)
	if err != nil {
		s.fail(w, c, err)
		return
	}
	s.respond(w, c, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	c := newCall(r)
	resp, err := s.svc.List(r.Context())
	if err != nil {
		s.fail(w, c, err)
		return
	}
	s.respond(w, c, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	c := newCall(r)
	resp, err := s.svc.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		s.fail(w, c, err)
		return
	}
	s.respond(w, c, resp)
}

func (s *Server) handleListAliases(w http.ResponseWriter, r *http.Request) {
	c := newCall(r)
	resp, err := s.svc.ListAliases(r.Context())
	if err != nil {
		s.fail(w, c, err)
		return
	}
	s.respond(w, c, resp)
}

func (s *Server) handleListCollectionAliases(w http.ResponseWriter, r *http.Request) {
	c := newCall(r)
	resp, err := s.svc.ListCollectionAliases(r.Context(), r.PathValue("name"))
	if err != nil {
		s.fail(w, c, err)
		return
	}
	s.respond(w, c, resp)
}

// timeoutParam reads the optional timeout query parameter, whole seconds.
func timeoutParam(r *http.Request) (*uint64, error) {
	raw := r.URL.Query().Get("timeout")
	if raw == "" {
		return nil, nil
	}
	secs, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "timeout must be a non-negative integer of seconds, got %q", raw)
	}
	return &secs, nil
}

// decodeBody fills dst from the request body. An empty body is fine when
// optional; anything present must be well-formed JSON with known fields.
func decodeBody(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return status.Errorf(codes.InvalidArgument, "decode request body: %v", err)
	}
	return nil
}

func (s *Server) respond(w http.ResponseWriter, c call, payload any) {
	s.write(w, c, http.StatusOK, payload)
}

func (s *Server) fail(w http.ResponseWriter, c call, err error) {
	st, _ := status.FromError(err)
	s.write(w, c, api.HTTPStatus(st.Code()), api.ErrorResponse{
		Status: api.ErrorStatus{Error: st.Message()},
		Time:   time.Since(c.start).Seconds(),
	})
}

func (s *Server) write(w http.ResponseWriter, c call, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[%s] %s encode response: %v", s.id, c.id, err)
	}
	log.Printf("[%s] %s %s %s -> %d (%s)", s.id, c.id, c.method, c.path, httpStatus, time.Since(c.start))
}
