package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/msa-market-engine/internal/errors"
	"github.com/ajharbinger/msa-market-engine/internal/ingest"
	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/services"
)

// uploadField is the multipart field holding the dataset file
const uploadField = "file"

// DatasetHandler handles dataset uploads and reads
type DatasetHandler struct {
	datasets services.DatasetService
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(datasets services.DatasetService) *DatasetHandler {
	return &DatasetHandler{datasets: datasets}
}

func datasetKind(c *gin.Context) (models.DatasetKind, error) {
	kind, err := models.ParseDatasetKind(c.Param("kind"))
	if err != nil {
		return "", errors.InvalidInput("unknown dataset kind", err).WithDetails(c.Param("kind"))
	}
	return kind, nil
}

// uploadFormat honours an explicit ?format= or form field, then sniffs the
// file name and part content type
func uploadFormat(c *gin.Context, filename, contentType string) (ingest.Format, error) {
	explicit := strings.ToLower(strings.TrimSpace(c.DefaultPostForm("format", c.Query("format"))))
	switch ingest.Format(explicit) {
	case "":
		return ingest.DetectFormat(filename, contentType), nil
	case ingest.FormatCSV, ingest.FormatHTML:
		return ingest.Format(explicit), nil
	}
	return "", errors.InvalidInput("unsupported format, expected csv or html", nil).WithDetails(explicit)
}

// Upload replaces the stored dataset of a kind with the uploaded file
func (h *DatasetHandler) Upload(c *gin.Context) {
	kind, err := datasetKind(c)
	if err != nil {
		respondError(c, err)
		return
	}

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		respondError(c, errors.InvalidInput("No dataset file provided", err))
		return
	}
	defer file.Close()

	format, err := uploadFormat(c, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.datasets.Upload(kind, header.Filename, format, file)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"message":  "Dataset uploaded successfully",
		"batch":    result.Batch,
		"report":   result.Report,
		"filename": header.Filename,
	})
}

// Get returns the stored dataset of a kind with its latest upload
func (h *DatasetHandler) Get(c *gin.Context) {
	kind, err := datasetKind(c)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.datasets.Summary(kind)
	if err != nil {
		respondError(c, err)
		return
	}

	var records interface{}
	count := 0
	switch kind {
	case models.DatasetAttractiveness:
		rows, err := h.datasets.Attractiveness()
		if err != nil {
			respondError(c, err)
			return
		}
		records, count = rows, len(rows)
	case models.DatasetOpportunities:
		rows, err := h.datasets.Opportunities()
		if err != nil {
			respondError(c, err)
			return
		}
		records, count = rows, len(rows)
	case models.DatasetDeposits:
		rows, err := h.datasets.Deposits()
		if err != nil {
			respondError(c, err)
			return
		}
		records, count = rows, len(rows)
	}

	respond(c, http.StatusOK, gin.H{
		"kind":    kind,
		"stored":  summary.Stored,
		"batch":   summary.Batch,
		"count":   count,
		"records": records,
	})
}
