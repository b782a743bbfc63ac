package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronFlow/internal/engine"
	"github.com/neurondb/NeuronFlow/internal/response"
	"github.com/neurondb/NeuronFlow/internal/validation"
)

// NodePathService is the business layer behind the node path routes
type NodePathService interface {
	Create(ctx context.Context, m *engine.CreateNodePathModel) (*engine.NodePath, error)
	Update(ctx context.Context, id uuid.UUID, m *engine.UpdateNodePathModel) (*engine.NodePath, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*engine.NodePath, error)
	Search(ctx context.Context, f *engine.NodePathSearchFilters) (*engine.SearchResults[engine.NodePath], error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]engine.NodePath, error)
	SetNextNode(ctx context.Context, id, nextNodeID uuid.UUID) (*engine.NodePath, error)
}

// NodePathHandlers handles node path endpoints
type NodePathHandlers struct {
	validator *validation.Validator
	service   NodePathService
}

// NewNodePathHandlers creates new node path handlers
func NewNodePathHandlers(v *validation.Validator, service NodePathService) *NodePathHandlers {
	return &NodePathHandlers{validator: v, service: service}
}

type nodePathData struct {
	NodePath *engine.NodePath `json:"NodePath"`
}

type deletedData struct {
	Deleted bool `json:"Deleted"`
}

type nodePathRecordsData struct {
	NodePathRecords *engine.SearchResults[engine.NodePath] `json:"NodePathRecords"`
}

type nodePathsData struct {
	NodePaths []engine.NodePath `json:"NodePaths"`
}

// Create handles POST /node-paths
func (h *NodePathHandlers) Create(w http.ResponseWriter, r *http.Request) error {
	model, err := h.validator.ValidateCreateNodePath(r)
	if err != nil {
		return err
	}

	created, err := h.service.Create(r.Context(), model)
	if err != nil {
		return err
	}
	if created == nil {
		return &OperationFailedError{Operation: "node path create"}
	}

	response.WriteSuccess(w, r, http.StatusCreated, "Node path created", nodePathData{NodePath: created})
	return nil
}

// Update handles PUT/PATCH /node-paths/{id}
func (h *NodePathHandlers) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := validation.RequestParamAsUUID(r, "id")
	if err != nil {
		return err
	}
	model, err := h.validator.ValidateUpdateNodePath(r)
	if err != nil {
		return err
	}

	updated, err := h.service.Update(r.Context(), id, model)
	if err != nil {
		return err
	}
	if updated == nil {
		return &OperationFailedError{Operation: "node path update"}
	}

	response.WriteSuccess(w, r, http.StatusOK, "Node path updated", nodePathData{NodePath: updated})
	return nil
}

// Delete handles DELETE /node-paths/{id}
func (h *NodePathHandlers) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := validation.RequestParamAsUUID(r, "id")
	if err != nil {
		return err
	}

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		return err
	}

	message := "Node path deleted"
	if !deleted {
		message = "Node path did not exist"
	}
	response.WriteSuccess(w, r, http.StatusOK, message, deletedData{Deleted: deleted})
	return nil
}

// GetByID handles GET /node-paths/{id}
func (h *NodePathHandlers) GetByID(w http.ResponseWriter, r *http.Request) error {
	id, err := validation.RequestParamAsUUID(r, "id")
	if err != nil {
		return err
	}

	path, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	if path == nil {
		return &NotFoundError{Entity: "node path", ID: id.String()}
	}

	response.WriteSuccess(w, r, http.StatusOK, "Node path found", nodePathData{NodePath: path})
	return nil
}

// Search handles GET /node-paths/search
func (h *NodePathHandlers) Search(w http.ResponseWriter, r *http.Request) error {
	filters, err := h.validator.ValidateSearchNodePaths(r)
	if err != nil {
		return err
	}

	results, err := h.service.Search(r.Context(), filters)
	if err != nil {
		return err
	}
	if results == nil {
		empty := engine.NewSearchResults[engine.NodePath](nil, 0, filters.SearchFilters)
		results = &empty
	}

	response.WriteSuccess(w, r, http.StatusOK, "Node paths found", nodePathRecordsData{NodePathRecords: results})
	return nil
}

// ListByParent handles GET /nodes/{nodeId}/paths
func (h *NodePathHandlers) ListByParent(w http.ResponseWriter, r *http.Request) error {
	parentID, err := validation.RequestParamAsUUID(r, "nodeId")
	if err != nil {
		return err
	}

	paths, err := h.service.ListByParent(r.Context(), parentID)
	if err != nil {
		return err
	}
	if paths == nil {
		paths = []engine.NodePath{}
	}

	response.WriteSuccess(w, r, http.StatusOK, "Node paths found", nodePathsData{NodePaths: paths})
	return nil
}

// SetNextNode handles PUT /node-paths/{id}/next-node/{nextNodeId}
func (h *NodePathHandlers) SetNextNode(w http.ResponseWriter, r *http.Request) error {
	id, idErr := validation.RequestParamAsUUID(r, "id")
	nextID, nextErr := validation.RequestParamAsUUID(r, "nextNodeId")
	if err := joinValidation(idErr, nextErr); err != nil {
		return err
	}

	path, err := h.service.SetNextNode(r.Context(), id, nextID)
	if err != nil {
		return err
	}
	if path == nil {
		return &NotFoundError{Entity: "node path", ID: id.String()}
	}

	response.WriteSuccess(w, r, http.StatusOK, "Next node set", nodePathData{NodePath: path})
	return nil
}

/* joinValidation merges the violations of several validation errors */
func joinValidation(errs ...error) error {
	verr := &validation.ValidationError{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve *validation.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		verr.Merge(ve)
	}
	return verr.OrNil()
}
