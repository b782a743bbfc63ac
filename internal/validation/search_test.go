package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronFlow/internal/engine"
)

func searchRequest(query string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/v1/node-paths/search?"+query, nil)
}

func TestValidateSearchNodePathsSparse(t *testing.T) {
	v := New()

	tests := []struct {
		name           string
		query          string
		wantType       bool
		wantName       bool
		wantParent     bool
		wantSchema     bool
		wantErrorField string
	}{
		{name: "no params"},
		{name: "empty params are omitted", query: "type=&name=&parentNodeId=&schemaId="},
		{name: "type only", query: "type=SendSms", wantType: true},
		{name: "name only", query: "name=greet", wantName: true},
		{name: "ids", query: "parentNodeId=" + parentID + "&schemaId=" + schemaID, wantParent: true, wantSchema: true},
		{name: "bad type", query: "type=Jump", wantErrorField: "type"},
		{name: "long name", query: "name=" + strings.Repeat("a", 65), wantErrorField: "name"},
		{name: "bad parent", query: "parentNodeId=xyz", wantErrorField: "parentNodeId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := v.ValidateSearchNodePaths(searchRequest(tt.query))
			if tt.wantErrorField != "" {
				verr := requireValidationError(t, err)
				assert.Equal(t, tt.wantErrorField, verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, f.Type != nil)
			assert.Equal(t, tt.wantName, f.Name != nil)
			assert.Equal(t, tt.wantParent, f.ParentNodeId != nil)
			assert.Equal(t, tt.wantSchema, f.SchemaId != nil)
		})
	}
}

func TestValidateBaseFilters(t *testing.T) {
	v := New()

	t.Run("defaults", func(t *testing.T) {
		f, err := v.ValidateSearchNodePaths(searchRequest(""))
		require.NoError(t, err)
		assert.Equal(t, engine.DefaultSearchFilters(), f.SearchFilters)
	})

	t.Run("explicit values", func(t *testing.T) {
		f, err := v.ValidateSearchNodePaths(searchRequest("itemsPerPage=10&pageIndex=3&orderBy=Name&order=ascending"))
		require.NoError(t, err)
		assert.Equal(t, 10, f.ItemsPerPage)
		assert.Equal(t, 3, f.PageIndex)
		assert.Equal(t, "Name", f.OrderBy)
		assert.Equal(t, engine.SortAscending, f.Order)
	})

	t.Run("out of range values are all reported", func(t *testing.T) {
		_, err := v.ValidateSearchNodePaths(searchRequest("itemsPerPage=500&pageIndex=-1&orderBy=Secret&order=up"))
		verr := requireValidationError(t, err)
		assert.Len(t, verr.Errors, 4)
		assert.Equal(t, "itemsPerPage", verr.Field)
	})

	t.Run("non numeric page", func(t *testing.T) {
		_, err := v.ValidateSearchNodePaths(searchRequest("pageIndex=two"))
		verr := requireValidationError(t, err)
		assert.Equal(t, "pageIndex", verr.Field)
	})
}
