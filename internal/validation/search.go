package validation

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/neurondb/NeuronFlow/internal/engine"
)

// NodePathOrderBy lists the columns a node path search may sort by
var NodePathOrderBy = []string{"CreatedAt", "UpdatedAt", "Name", "Type"}

/*
 * ValidateBaseFilters reads the pagination and ordering shared by every
 * search: itemsPerPage (1..100, default 25), pageIndex (>= 0, default 0),
 * orderBy (one of allowedOrderBy, default CreatedAt) and order
 * (ascending|descending, default descending).
 */
func (v *Validator) ValidateBaseFilters(q url.Values, allowedOrderBy []string) (engine.SearchFilters, *ValidationError) {
	filters := engine.DefaultSearchFilters()
	verr := &ValidationError{}

	if raw := strings.TrimSpace(q.Get("itemsPerPage")); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			verr.Add("itemsPerPage", "must be a number")
		default:
			if e := v.Var("itemsPerPage", n, "min=1,max=100"); e.HasErrors() {
				verr.Merge(e)
			} else {
				filters.ItemsPerPage = n
			}
		}
	}

	if raw := strings.TrimSpace(q.Get("pageIndex")); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			verr.Add("pageIndex", "must be a number")
		case n < 0:
			verr.Add("pageIndex", "must be at least 0")
		default:
			filters.PageIndex = n
		}
	}

	if raw := strings.TrimSpace(q.Get("orderBy")); raw != "" {
		if e := v.Var("orderBy", raw, "oneof="+strings.Join(allowedOrderBy, " ")); e.HasErrors() {
			verr.Merge(e)
		} else {
			filters.OrderBy = raw
		}
	}

	if raw := strings.TrimSpace(q.Get("order")); raw != "" {
		if e := v.Var("order", raw, "oneof=ascending descending"); e.HasErrors() {
			verr.Merge(e)
		} else {
			filters.Order = engine.SortOrder(raw)
		}
	}

	return filters, verr
}

/*
 * ValidateSearchNodePaths builds a sparse filter set from the query string.
 * A filter is set only when its parameter was supplied and non-empty.
 */
func (v *Validator) ValidateSearchNodePaths(r *http.Request) (*engine.NodePathSearchFilters, error) {
	q := r.URL.Query()
	out := &engine.NodePathSearchFilters{}

	base, verr := v.ValidateBaseFilters(q, NodePathOrderBy)
	out.SearchFilters = base

	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		if e := v.Var("type", raw, "action_type"); e.HasErrors() {
			verr.Merge(e)
		} else {
			t := engine.ActionType(raw)
			out.Type = &t
		}
	}

	if raw := strings.TrimSpace(q.Get("name")); raw != "" {
		if e := v.Var("name", raw, "max=64"); e.HasErrors() {
			verr.Merge(e)
		} else {
			out.Name = &raw
		}
	}

	out.ParentNodeId = optionalUUID(q, "parentNodeId", verr)
	out.SchemaId = optionalUUID(q, "schemaId", verr)

	if verr.HasErrors() {
		return nil, verr
	}
	return out, nil
}

func optionalUUID(q url.Values, name string, verr *ValidationError) *uuid.UUID {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		verr.Add(name, "must be a valid UUID")
		return nil
	}
	return &id
}
