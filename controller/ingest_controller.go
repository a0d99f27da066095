package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/physical-ai/textbook-rag/models"
)

// DirectoryIngestor runs a full ingestion pass over the content directory.
type DirectoryIngestor interface {
	IngestDirectory(ctx context.Context) (*models.IngestResponse, error)
}

// IngestController handles the maintenance-only POST /api/ingest endpoint.
type IngestController struct {
	ingestor DirectoryIngestor
	log      *logrus.Logger
}

// NewIngestController injects the ingestion dependency.
func NewIngestController(ingestor DirectoryIngestor, log *logrus.Logger) *IngestController {
	return &IngestController{ingestor: ingestor, log: log}
}

// Ingest triggers a full re-chunk + re-embed + re-upsert pass.
func (c *IngestController) Ingest(ctx *gin.Context) {
	resp, err := c.ingestor.IngestDirectory(ctx.Request.Context())
	if err != nil {
		c.log.WithError(err).Error("ingestion pass failed")
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "ingestion failed"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
