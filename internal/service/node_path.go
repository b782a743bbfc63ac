/*-------------------------------------------------------------------------
 *
 * node_path.go
 *    Node path service
 *
 * Delegates to the persistence layer, keeps the optional read-through
 * cache coherent and publishes change events. Missing rows are reported
 * as a nil result, never as an error.
 *
 *-------------------------------------------------------------------------
 */

package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronFlow/internal/cache"
	"github.com/neurondb/NeuronFlow/internal/db"
	"github.com/neurondb/NeuronFlow/internal/engine"
	"github.com/neurondb/NeuronFlow/internal/events"
	"github.com/neurondb/NeuronFlow/internal/logging"
	"github.com/neurondb/NeuronFlow/internal/metrics"
)

const nodePathCachePrefix = "node-path:"

/* NodePathStore is the persistence the service needs */
type NodePathStore interface {
	CreateNodePath(ctx context.Context, m *engine.CreateNodePathModel) (*engine.NodePath, error)
	GetNodePath(ctx context.Context, id uuid.UUID) (*engine.NodePath, error)
	UpdateNodePath(ctx context.Context, id uuid.UUID, m *engine.UpdateNodePathModel) (*engine.NodePath, error)
	DeleteNodePath(ctx context.Context, id uuid.UUID) (bool, error)
	SearchNodePaths(ctx context.Context, f *engine.NodePathSearchFilters) ([]engine.NodePath, int, error)
	ListNodePathsByParent(ctx context.Context, parentID uuid.UUID) ([]engine.NodePath, error)
	SetNextNode(ctx context.Context, id, nextNodeID uuid.UUID) (*engine.NodePath, error)
}

/* NodePathService implements the node path use cases */
type NodePathService struct {
	store    NodePathStore
	cache    cache.Cache
	cacheTTL time.Duration
	hub      *events.Hub
	logger   *logging.Logger
}

/* Option configures a NodePathService */
type Option func(*NodePathService)

/* WithCache enables the read-through cache; a nil cache leaves it off */
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *NodePathService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

/* WithEvents publishes changes to hub */
func WithEvents(hub *events.Hub) Option {
	return func(s *NodePathService) {
		s.hub = hub
	}
}

/* NewNodePathService creates the service */
func NewNodePathService(store NodePathStore, logger *logging.Logger, opts ...Option) *NodePathService {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &NodePathService{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new node path
func (s *NodePathService) Create(ctx context.Context, m *engine.CreateNodePathModel) (*engine.NodePath, error) {
	p, err := s.store.CreateNodePath(ctx, m)
	if err != nil {
		return s.fail("create", err, uuid.Nil)
	}
	metrics.RecordNodePathOperation("create", metrics.OutcomeSuccess)
	s.remember(ctx, p)
	s.publish(events.NodePathCreated, p.ID, p)
	return p, nil
}

// GetByID returns the node path or nil when it does not exist
func (s *NodePathService) GetByID(ctx context.Context, id uuid.UUID) (*engine.NodePath, error) {
	if p := s.recall(ctx, id); p != nil {
		metrics.RecordNodePathOperation("get", metrics.OutcomeSuccess)
		return p, nil
	}

	p, err := s.store.GetNodePath(ctx, id)
	if err != nil {
		return s.fail("get", err, id)
	}
	metrics.RecordNodePathOperation("get", metrics.OutcomeSuccess)
	s.remember(ctx, p)
	return p, nil
}

// Update applies m and returns the stored row, or nil when it does not exist
func (s *NodePathService) Update(ctx context.Context, id uuid.UUID, m *engine.UpdateNodePathModel) (*engine.NodePath, error) {
	p, err := s.store.UpdateNodePath(ctx, id, m)
	if err != nil {
		s.forget(ctx, id)
		return s.fail("update", err, id)
	}
	metrics.RecordNodePathOperation("update", metrics.OutcomeSuccess)
	s.forget(ctx, id)
	if !m.IsEmpty() {
		s.publish(events.NodePathUpdated, id, p)
	}
	return p, nil
}

// Delete removes the node path and reports whether it existed
func (s *NodePathService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := s.store.DeleteNodePath(ctx, id)
	if err != nil {
		metrics.RecordNodePathOperation("delete", metrics.OutcomeError)
		s.logger.Error("Failed to delete node path", err, map[string]interface{}{"node_path_id": id.String()})
		return false, err
	}
	s.forget(ctx, id)
	if !deleted {
		metrics.RecordNodePathOperation("delete", metrics.OutcomeNotFound)
		return false, nil
	}
	metrics.RecordNodePathOperation("delete", metrics.OutcomeSuccess)
	s.publish(events.NodePathDeleted, id, nil)
	return true, nil
}

// Search returns one page of matching node paths
func (s *NodePathService) Search(ctx context.Context, f *engine.NodePathSearchFilters) (*engine.SearchResults[engine.NodePath], error) {
	records, total, err := s.store.SearchNodePaths(ctx, f)
	if err != nil {
		metrics.RecordNodePathOperation("search", metrics.OutcomeError)
		s.logger.Error("Failed to search node paths", err, nil)
		return nil, err
	}
	metrics.RecordNodePathOperation("search", metrics.OutcomeSuccess)
	results := engine.NewSearchResults(records, total, f.SearchFilters)
	return &results, nil
}

// ListByParent returns the paths leaving a node
func (s *NodePathService) ListByParent(ctx context.Context, parentID uuid.UUID) ([]engine.NodePath, error) {
	paths, err := s.store.ListNodePathsByParent(ctx, parentID)
	if err != nil {
		metrics.RecordNodePathOperation("list_by_parent", metrics.OutcomeError)
		s.logger.Error("Failed to list node paths", err, map[string]interface{}{"parent_node_id": parentID.String()})
		return nil, err
	}
	metrics.RecordNodePathOperation("list_by_parent", metrics.OutcomeSuccess)
	return paths, nil
}

// SetNextNode links the node path to its next node, or returns nil when it does not exist
func (s *NodePathService) SetNextNode(ctx context.Context, id, nextNodeID uuid.UUID) (*engine.NodePath, error) {
	p, err := s.store.SetNextNode(ctx, id, nextNodeID)
	if err != nil {
		return s.fail("set_next_node", err, id)
	}
	metrics.RecordNodePathOperation("set_next_node", metrics.OutcomeSuccess)
	s.forget(ctx, id)
	s.publish(events.NextNodeSet, id, p)
	return p, nil
}

/* fail maps db.ErrNotFound onto a nil result and logs everything else */
func (s *NodePathService) fail(op string, err error, id uuid.UUID) (*engine.NodePath, error) {
	if errors.Is(err, db.ErrNotFound) {
		metrics.RecordNodePathOperation(op, metrics.OutcomeNotFound)
		return nil, nil
	}
	metrics.RecordNodePathOperation(op, metrics.OutcomeError)
	fields := map[string]interface{}{"operation": op}
	if id != uuid.Nil {
		fields["node_path_id"] = id.String()
	}
	s.logger.Error("Node path operation failed", err, fields)
	return nil, err
}

func (s *NodePathService) publish(t events.Type, id uuid.UUID, p *engine.NodePath) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(events.Event{Type: t, NodePathId: id, NodePath: p})
}

func cacheKey(id uuid.UUID) string {
	return nodePathCachePrefix + id.String()
}

/* recall reads through the cache; cache failures count as misses */
func (s *NodePathService) recall(ctx context.Context, id uuid.UUID) *engine.NodePath {
	if s.cache == nil {
		return nil
	}
	data, ok, err := s.cache.Get(ctx, cacheKey(id))
	if err != nil {
		s.logger.Warn("Node path cache read failed", map[string]interface{}{
			"node_path_id": id.String(),
			"error":        err.Error(),
		})
		return nil
	}
	metrics.RecordCacheLookup(ok)
	if !ok {
		return nil
	}
	var p engine.NodePath
	if err := json.Unmarshal(data, &p); err != nil {
		s.forget(ctx, id)
		return nil
	}
	return &p
}

func (s *NodePathService) remember(ctx context.Context, p *engine.NodePath) {
	if s.cache == nil || p == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(p.ID), data, s.cacheTTL); err != nil {
		s.logger.Warn("Node path cache write failed", map[string]interface{}{
			"node_path_id": p.ID.String(),
			"error":        err.Error(),
		})
	}
}

func (s *NodePathService) forget(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("Node path cache invalidation failed", map[string]interface{}{
			"node_path_id": id.String(),
			"error":        err.Error(),
		})
	}
}
