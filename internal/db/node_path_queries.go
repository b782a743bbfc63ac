package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/neurondb/NeuronFlow/internal/engine"
)

const nodePathColumns = `id, type, name, description, parent_node_id, schema_id, next_node_id, actions, created_at, updated_at`

/* nodePathOrderColumns maps API sort names onto columns */
var nodePathOrderColumns = map[string]string{
	"CreatedAt": "created_at",
	"UpdatedAt": "updated_at",
	"Name":      "name",
	"Type":      "type",
}

// NodePathQueries provides node path persistence
type NodePathQueries struct {
	db  *DB
	now func() time.Time
}

// NewNodePathQueries creates a new NodePathQueries instance
func NewNodePathQueries(d *DB) *NodePathQueries {
	return &NodePathQueries{db: d, now: time.Now}
}

// CreateNodePath inserts a node path and returns the stored row
func (q *NodePathQueries) CreateNodePath(ctx context.Context, m *engine.CreateNodePathModel) (*engine.NodePath, error) {
	id := uuid.New()
	now := q.now().UTC()

	var description interface{}
	if m.Description != "" {
		description = m.Description
	}

	query := q.db.Rebind(`
		INSERT INTO node_paths (id, type, name, description, parent_node_id, schema_id, next_node_id, actions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)
	`)
	_, err := q.db.ExecContext(ctx, query,
		id, string(m.Type), m.Name, description, m.ParentNodeId, m.SchemaId,
		ActionList(m.Actions), q.db.timeArg(now), q.db.timeArg(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert node path: %w", err)
	}
	return q.GetNodePath(ctx, id)
}

// GetNodePath gets a node path by ID
func (q *NodePathQueries) GetNodePath(ctx context.Context, id uuid.UUID) (*engine.NodePath, error) {
	return getNodePath(ctx, q.db.DB, id)
}

func getNodePath(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*engine.NodePath, error) {
	var row nodePathRow
	query := ext.Rebind(`SELECT ` + nodePathColumns + ` FROM node_paths WHERE id = ?`)
	if err := sqlx.GetContext(ctx, ext, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get node path %s: %w", id, err)
	}
	p := row.toEngine()
	return &p, nil
}

/*
 * UpdateNodePath applies the set fields of m in one transaction.
 * Unset fields keep their stored value; a null Description is stored as
 * NULL and null Actions as an empty list.
 */
func (q *NodePathQueries) UpdateNodePath(ctx context.Context, id uuid.UUID, m *engine.UpdateNodePathModel) (*engine.NodePath, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if v, ok := m.Type.Get(); ok {
		add("type", string(v))
	}
	if v, ok := m.Name.Get(); ok {
		add("name", v)
	}
	if m.Description.Set {
		if v, ok := m.Description.Get(); ok {
			add("description", v)
		} else {
			add("description", nil)
		}
	}
	if v, ok := m.ParentNodeId.Get(); ok {
		add("parent_node_id", v)
	}
	if v, ok := m.SchemaId.Get(); ok {
		add("schema_id", v)
	}
	if m.Actions.Set {
		v, _ := m.Actions.Get()
		add("actions", ActionList(v))
	}

	if len(sets) == 0 {
		return q.GetNodePath(ctx, id)
	}
	add("updated_at", q.db.timeArg(q.now()))
	args = append(args, id)

	tx, err := q.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`UPDATE node_paths SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update node path %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	p, err := getNodePath(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return p, nil
}

// DeleteNodePath deletes a node path and reports whether a row was removed
func (q *NodePathQueries) DeleteNodePath(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := q.db.ExecContext(ctx, q.db.Rebind(`DELETE FROM node_paths WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete node path %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SearchNodePaths returns one page of node paths matching f and the total match count
func (q *NodePathQueries) SearchNodePaths(ctx context.Context, f *engine.NodePathSearchFilters) ([]engine.NodePath, int, error) {
	where := []string{}
	args := []interface{}{}

	if f.Type != nil {
		where = append(where, "type = ?")
		args = append(args, string(*f.Type))
	}
	if f.Name != nil {
		where = append(where, q.db.lower("name")+` LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(*f.Name))+"%")
	}
	if f.ParentNodeId != nil {
		where = append(where, "parent_node_id = ?")
		args = append(args, *f.ParentNodeId)
	}
	if f.SchemaId != nil {
		where = append(where, "schema_id = ?")
		args = append(args, *f.SchemaId)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := q.db.Rebind(`SELECT COUNT(*) FROM node_paths` + clause)
	if err := q.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count node paths: %w", err)
	}

	column, ok := nodePathOrderColumns[f.OrderBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if f.Order == engine.SortAscending {
		direction = "ASC"
	}

	limit := f.ItemsPerPage
	if limit <= 0 {
		limit = engine.DefaultItemsPerPage
	}
	pageArgs := append(append([]interface{}{}, args...), limit, limit*f.PageIndex)

	var rows []nodePathRow
	query := q.db.Rebind(`SELECT ` + nodePathColumns + ` FROM node_paths` + clause +
		fmt.Sprintf(` ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`, column, direction))
	if err := q.db.SelectContext(ctx, &rows, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to search node paths: %w", err)
	}
	return toNodePaths(rows), total, nil
}

// ListNodePathsByParent lists the paths leaving a node, oldest first
func (q *NodePathQueries) ListNodePathsByParent(ctx context.Context, parentID uuid.UUID) ([]engine.NodePath, error) {
	var rows []nodePathRow
	query := q.db.Rebind(`SELECT ` + nodePathColumns + ` FROM node_paths WHERE parent_node_id = ? ORDER BY created_at ASC, id ASC`)
	if err := q.db.SelectContext(ctx, &rows, query, parentID); err != nil {
		return nil, fmt.Errorf("failed to list node paths for node %s: %w", parentID, err)
	}
	return toNodePaths(rows), nil
}

// SetNextNode points a node path at the next node
func (q *NodePathQueries) SetNextNode(ctx context.Context, id, nextNodeID uuid.UUID) (*engine.NodePath, error) {
	query := q.db.Rebind(`UPDATE node_paths SET next_node_id = ?, updated_at = ? WHERE id = ?`)
	res, err := q.db.ExecContext(ctx, query, nextNodeID, q.db.timeArg(q.now()), id)
	if err != nil {
		return nil, fmt.Errorf("failed to set next node on %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return q.GetNodePath(ctx, id)
}

func toNodePaths(rows []nodePathRow) []engine.NodePath {
	out := make([]engine.NodePath, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEngine())
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
