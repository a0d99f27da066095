package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/physical-ai/textbook-rag/models"
)

type fakeIngestor struct {
	resp *models.IngestResponse
	err  error
}

func (f *fakeIngestor) IngestDirectory(ctx context.Context) (*models.IngestResponse, error) {
	return f.resp, f.err
}

func doIngest(ingestor *fakeIngestor, key string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api", APIKeyAuth(testAPIKey))
	api.POST("/ingest", NewIngestController(ingestor, testLogger()).Ingest)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIngest_Success(t *testing.T) {
	rec := doIngest(&fakeIngestor{resp: &models.IngestResponse{
		FilesProcessed: 3,
		ChunksUpserted: 42,
	}}, testAPIKey)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp models.IngestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.FilesProcessed != 3 || resp.ChunksUpserted != 42 {
		t.Errorf("response = %+v", resp)
	}
}

func TestIngest_Failure(t *testing.T) {
	rec := doIngest(&fakeIngestor{err: errors.New("qdrant down")}, testAPIKey)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestIngest_RequiresAPIKey(t *testing.T) {
	rec := doIngest(&fakeIngestor{resp: &models.IngestResponse{}}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
