package db_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/neurondb/NeuronFlow/internal/db"
	"github.com/neurondb/NeuronFlow/internal/engine"
	testutil "github.com/neurondb/NeuronFlow/internal/testing"
)

type NodePathQueriesSuite struct {
	suite.Suite
	setupDB func(t *testing.T) *testutil.TestDB
	tdb     *testutil.TestDB
	ctx     context.Context
	parent  uuid.UUID
	schema  uuid.UUID
}

func (s *NodePathQueriesSuite) SetupTest() {
	s.tdb = s.setupDB(s.T())
	s.ctx = context.Background()
	s.parent = uuid.New()
	s.schema = uuid.New()
}

func TestNodePathQueriesSQLite(t *testing.T) {
	suite.Run(t, &NodePathQueriesSuite{setupDB: testutil.SetupTestDB})
}

func TestNodePathQueriesPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	suite.Run(t, &NodePathQueriesSuite{setupDB: testutil.SetupPostgresTestDB})
}

func (s *NodePathQueriesSuite) TestCreateAndGet() {
	actions := []engine.Action{
		{ActionType: engine.ActionTypeSendMessage, Name: "first", Input: json.RawMessage(`{"Body":"hi"}`)},
		{ActionType: engine.ActionTypeExit, Name: "second"},
		{ActionType: engine.ActionTypeSendMessage, Name: "third"},
	}
	m := testutil.NewCreateNodePathModel("welcome", s.parent, s.schema, actions...)
	m.Description = "greets the user"

	created, err := s.tdb.NodePaths.CreateNodePath(s.ctx, m)
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, created.ID)
	s.Equal("welcome", created.Name)
	s.Equal(engine.ActionTypeSendMessage, created.Type)
	s.Require().NotNil(created.Description)
	s.Equal("greets the user", *created.Description)
	s.Equal(s.parent, created.ParentNodeId)
	s.Equal(s.schema, created.SchemaId)
	s.Nil(created.NextNodeId)
	s.False(created.CreatedAt.IsZero())

	got, err := s.tdb.NodePaths.GetNodePath(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Actions, 3)
	for i, name := range []string{"first", "second", "third"} {
		s.Equal(name, got.Actions[i].Name)
	}
	s.Equal(engine.ActionTypeExit, got.Actions[1].ActionType)
	s.JSONEq(`{"Body":"hi"}`, string(got.Actions[0].Input))
}

func (s *NodePathQueriesSuite) TestCreateWithoutDescriptionStoresNull() {
	created, err := testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, "plain", s.parent, s.schema)
	s.Require().NoError(err)
	s.Nil(created.Description)
	s.NotNil(created.Actions)
	s.Empty(created.Actions)
}

func (s *NodePathQueriesSuite) TestGetMissing() {
	_, err := s.tdb.NodePaths.GetNodePath(s.ctx, uuid.New())
	s.ErrorIs(err, db.ErrNotFound)
}

func (s *NodePathQueriesSuite) TestUpdateTriState() {
	m := testutil.NewCreateNodePathModel("before", s.parent, s.schema,
		engine.Action{ActionType: engine.ActionTypeContinue, Name: "keep"})
	m.Description = "old"
	created, err := s.tdb.NodePaths.CreateNodePath(s.ctx, m)
	s.Require().NoError(err)

	/* Name set, Description cleared, everything else untouched */
	updated, err := s.tdb.NodePaths.UpdateNodePath(s.ctx, created.ID, &engine.UpdateNodePathModel{
		Name:        engine.Some("after"),
		Description: engine.Null[string](),
	})
	s.Require().NoError(err)
	s.Equal("after", updated.Name)
	s.Nil(updated.Description)
	s.Equal(s.parent, updated.ParentNodeId)
	s.Require().Len(updated.Actions, 1)
	s.Equal("keep", updated.Actions[0].Name)
	s.False(updated.UpdatedAt.Before(created.UpdatedAt))

	/* Clearing actions stores an empty list */
	updated, err = s.tdb.NodePaths.UpdateNodePath(s.ctx, created.ID, &engine.UpdateNodePathModel{
		Actions: engine.Null[[]engine.Action](),
		Type:    engine.Some(engine.ActionTypeRestApiCall),
	})
	s.Require().NoError(err)
	s.NotNil(updated.Actions)
	s.Empty(updated.Actions)
	s.Equal(engine.ActionTypeRestApiCall, updated.Type)
	s.Equal("after", updated.Name)
}

func (s *NodePathQueriesSuite) TestUpdateEmptyReturnsCurrent() {
	created, err := testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, "same", s.parent, s.schema)
	s.Require().NoError(err)

	got, err := s.tdb.NodePaths.UpdateNodePath(s.ctx, created.ID, &engine.UpdateNodePathModel{})
	s.Require().NoError(err)
	s.Equal(created.Name, got.Name)
	s.True(created.UpdatedAt.Equal(got.UpdatedAt))
}

func (s *NodePathQueriesSuite) TestUpdateMissing() {
	_, err := s.tdb.NodePaths.UpdateNodePath(s.ctx, uuid.New(), &engine.UpdateNodePathModel{
		Name: engine.Some("ghost"),
	})
	s.ErrorIs(err, db.ErrNotFound)
}

func (s *NodePathQueriesSuite) TestDelete() {
	created, err := testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, "doomed", s.parent, s.schema)
	s.Require().NoError(err)

	deleted, err := s.tdb.NodePaths.DeleteNodePath(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(deleted)

	deleted, err = s.tdb.NodePaths.DeleteNodePath(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(deleted)

	_, err = s.tdb.NodePaths.GetNodePath(s.ctx, created.ID)
	s.ErrorIs(err, db.ErrNotFound)
}

func (s *NodePathQueriesSuite) TestSearchPagingAndSorting() {
	for i := 0; i < 7; i++ {
		_, err := testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, fmt.Sprintf("path-%02d", i), s.parent, s.schema)
		s.Require().NoError(err)
	}
	/* noise under another schema */
	_, err := testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, "other", s.parent, uuid.New())
	s.Require().NoError(err)

	f := &engine.NodePathSearchFilters{SchemaId: &s.schema, SearchFilters: engine.SearchFilters{
		ItemsPerPage: 3, PageIndex: 0, OrderBy: "Name", Order: engine.SortAscending,
	}}
	page, total, err := s.tdb.NodePaths.SearchNodePaths(s.ctx, f)
	s.Require().NoError(err)
	s.Equal(7, total)
	s.Require().Len(page, 3)
	s.Equal([]string{"path-00", "path-01", "path-02"}, names(page))

	f.PageIndex = 2
	page, _, err = s.tdb.NodePaths.SearchNodePaths(s.ctx, f)
	s.Require().NoError(err)
	s.Equal([]string{"path-06"}, names(page))

	f.PageIndex = 0
	f.Order = engine.SortDescending
	page, _, err = s.tdb.NodePaths.SearchNodePaths(s.ctx, f)
	s.Require().NoError(err)
	s.Equal([]string{"path-06", "path-05", "path-04"}, names(page))

	f.PageIndex = 5
	page, total, err = s.tdb.NodePaths.SearchNodePaths(s.ctx, f)
	s.Require().NoError(err)
	s.Equal(7, total)
	s.Empty(page)
}

func (s *NodePathQueriesSuite) TestSearchFilters() {
	other := uuid.New()
	m := testutil.NewCreateNodePathModel("Send_Welcome", s.parent, s.schema)
	m.Type = engine.ActionTypeSendEmail
	_, err := s.tdb.NodePaths.CreateNodePath(s.ctx, m)
	s.Require().NoError(err)
	_, err = testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, "sendwelcome", other, s.schema)
	s.Require().NoError(err)
	_, err = testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, "goodbye", s.parent, s.schema)
	s.Require().NoError(err)

	base := engine.DefaultSearchFilters()
	base.OrderBy = "Name"
	base.Order = engine.SortAscending

	name := "send_"
	page, total, err := s.tdb.NodePaths.SearchNodePaths(s.ctx, &engine.NodePathSearchFilters{Name: &name, SearchFilters: base})
	s.Require().NoError(err)
	s.Equal(1, total, "underscore must match literally")
	s.Equal([]string{"Send_Welcome"}, names(page))

	name = "WELCOME"
	_, total, err = s.tdb.NodePaths.SearchNodePaths(s.ctx, &engine.NodePathSearchFilters{Name: &name, SearchFilters: base})
	s.Require().NoError(err)
	s.Equal(2, total)

	_, err = testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, "Étape_Über", s.parent, s.schema)
	s.Require().NoError(err)
	name = "étape_über"
	page, total, err = s.tdb.NodePaths.SearchNodePaths(s.ctx, &engine.NodePathSearchFilters{Name: &name, SearchFilters: base})
	s.Require().NoError(err)
	s.Equal(1, total, "case folding covers non-ASCII letters")
	s.Equal([]string{"Étape_Über"}, names(page))

	kind := engine.ActionTypeSendEmail
	page, _, err = s.tdb.NodePaths.SearchNodePaths(s.ctx, &engine.NodePathSearchFilters{Type: &kind, SearchFilters: base})
	s.Require().NoError(err)
	s.Equal([]string{"Send_Welcome"}, names(page))

	page, _, err = s.tdb.NodePaths.SearchNodePaths(s.ctx, &engine.NodePathSearchFilters{ParentNodeId: &other, SearchFilters: base})
	s.Require().NoError(err)
	s.Equal([]string{"sendwelcome"}, names(page))
}

func (s *NodePathQueriesSuite) TestListByParentAndSetNext() {
	first, err := testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, "first", s.parent, s.schema)
	s.Require().NoError(err)
	second, err := testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, "second", s.parent, s.schema)
	s.Require().NoError(err)
	_, err = testutil.CreateTestNodePath(s.ctx, s.tdb.NodePaths, "elsewhere", uuid.New(), s.schema)
	s.Require().NoError(err)

	list, err := s.tdb.NodePaths.ListNodePathsByParent(s.ctx, s.parent)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.Equal(second.ID, list[1].ID)

	next := uuid.New()
	updated, err := s.tdb.NodePaths.SetNextNode(s.ctx, first.ID, next)
	s.Require().NoError(err)
	s.Require().NotNil(updated.NextNodeId)
	s.Equal(next, *updated.NextNodeId)

	_, err = s.tdb.NodePaths.SetNextNode(s.ctx, uuid.New(), next)
	s.ErrorIs(err, db.ErrNotFound)
}

func names(paths []engine.NodePath) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, p.Name)
	}
	return out
}

func TestActionListScan(t *testing.T) {
	var list db.ActionList
	require.NoError(t, list.Scan(nil))
	assert.NotNil(t, list)
	assert.Empty(t, list)

	require.NoError(t, list.Scan([]byte(`[{"ActionType":"Exit","Name":"stop"}]`)))
	require.Len(t, list, 1)
	assert.Equal(t, engine.ActionTypeExit, list[0].ActionType)

	assert.Error(t, list.Scan(42))
	assert.Error(t, list.Scan("not json"))

	v, err := db.ActionList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
