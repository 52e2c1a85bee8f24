package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phantomdelux3/ai-product-reccomendation/internal/profile"
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/vector"
)

type unreachableIndex struct {
	*vector.MockIndex
}

func (unreachableIndex) CollectionExists(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func getHealth(t *testing.T, service *APIV1Service) map[string]string {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, service.health(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response
}

func TestHealthReportsIndexReachability(t *testing.T) {
	index := vector.NewMockIndex()
	index.Seed("products", nil)
	service := &APIV1Service{
		Profile: &profile.Profile{Version: "test", GenericCollection: "products"},
		Index:   index,
	}

	response := getHealth(t, service)
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "test", response["version"])
	assert.Equal(t, "ok", response["qdrant"])
}

func TestHealthReportsMissingCollection(t *testing.T) {
	service := &APIV1Service{
		Profile: &profile.Profile{Version: "test", GenericCollection: "products"},
		Index:   vector.NewMockIndex(),
	}

	response := getHealth(t, service)
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "missing_collection", response["qdrant"])
}

func TestHealthReportsUnreachableIndex(t *testing.T) {
	service := &APIV1Service{
		Profile: &profile.Profile{Version: "test", GenericCollection: "products"},
		Index:   unreachableIndex{vector.NewMockIndex()},
	}

	response := getHealth(t, service)
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "unreachable", response["qdrant"])
}
