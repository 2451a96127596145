package service

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/formstate"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/netconfig"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/pkg/metrics"
)

var ErrSessionNotFound = errors.New("form session not found")

type formSession struct {
	mu        sync.Mutex
	store     *formstate.Store
	allocator *formstate.Allocator
}

// FormService keeps one node form per browser session. Each session's store
// is driven by one request at a time.
type FormService struct {
	clusters *ClusterService
	logger   *logger.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*formSession
}

func NewFormService(clusters *ClusterService, logger *logger.Logger, m *metrics.Metrics) *FormService {
	return &FormService{
		clusters: clusters,
		logger:   logger,
		metrics:  m,
		sessions: make(map[string]*formSession),
	}
}

func (s *FormService) Create() model.SessionState {
	store := formstate.NewStore()
	sess := &formSession{store: store, allocator: formstate.NewAllocator(store)}
	id := uuid.New().String()

	s.mu.Lock()
	s.sessions[id] = sess
	s.metrics.FormSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	return s.state(id, sess)
}

func (s *FormService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.metrics.FormSessions.Set(float64(len(s.sessions)))
	return nil
}

// SessionIDs lists the open sessions, sorted.
func (s *FormService) SessionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// with runs fn while holding the session lock.
func (s *FormService) with(id string, fn func(*formSession) error) (model.SessionState, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return model.SessionState{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := fn(sess); err != nil {
		return model.SessionState{}, err
	}
	return s.state(id, sess), nil
}

func (s *FormService) state(id string, sess *formSession) model.SessionState {
	return model.SessionState{
		SessionID:  id,
		Nodes:      sess.store.Nodes(),
		RoleCounts: sess.store.RoleCounts(),
		Reserved:   sess.store.Reserved(),
		Dropdowns:  sess.allocator.Refresh(),
	}
}

func (s *FormService) State(id string) (model.SessionState, error) {
	return s.with(id, func(*formSession) error { return nil })
}

func (s *FormService) AddNode(id string) (int, model.SessionState, error) {
	var index int
	st, err := s.with(id, func(sess *formSession) error {
		index = sess.store.AddNode()
		return nil
	})
	return index, st, err
}

func (s *FormService) RemoveNode(id string, index int) (model.SessionState, error) {
	return s.with(id, func(sess *formSession) error {
		return sess.store.RemoveNode(index)
	})
}

func (s *FormService) SetRole(id string, index int, role string) (model.SessionState, error) {
	r, err := formstate.ParseRole(role)
	if err != nil {
		return model.SessionState{}, err
	}
	return s.with(id, func(sess *formSession) error {
		return sess.store.SetRole(index, r)
	})
}

func (s *FormService) SetHostname(id string, index int, hostname string) (model.SessionState, error) {
	return s.with(id, func(sess *formSession) error {
		return sess.store.SetHostname(index, hostname)
	})
}

func (s *FormService) SetInterfaceType(id string, index int, interfaceType string) (model.SessionState, error) {
	t, err := formstate.ParseInterfaceType(interfaceType)
	if err != nil {
		return model.SessionState{}, err
	}
	return s.with(id, func(sess *formSession) error {
		return sess.store.SetInterfaceType(index, t)
	})
}

func (s *FormService) Candidates(id string, index int) ([]string, error) {
	var out []string
	_, err := s.with(id, func(sess *formSession) error {
		var err error
		out, err = sess.store.CandidateHostnames(index)
		return err
	})
	return out, err
}

// Build produces the agent-config hosts of the session from the stored
// cluster inventory, with optional per-node overrides. Without an uploaded
// inventory every field comes from the overrides.
func (s *FormService) Build(id string, overrides map[int]map[string]string) ([]netconfig.Host, string, error) {
	ds, err := s.clusters.Load()
	if errors.Is(err, clusterdata.ErrNotFound) {
		ds, err = clusterdata.Dataset{}, nil
	}
	if err != nil {
		return nil, "", err
	}

	var hosts []netconfig.Host
	_, err = s.with(id, func(sess *formSession) error {
		fields := netconfig.Overlay{Base: netconfig.DatasetFields{Dataset: ds}, Overrides: overrides}
		var err error
		hosts, err = netconfig.NewBuilder(netconfig.MetaFromDataset(ds), fields).Build(sess.store.Nodes())
		return err
	})
	if err != nil {
		s.logger.ValidationRejected("build-nodes", err)
		return nil, "", err
	}

	data, err := json.Marshal(hosts)
	if err != nil {
		return nil, "", err
	}
	return hosts, string(data), nil
}
