package api

import (
	"net/http"

	"github.com/okian/audiogram/internal/domain/severity"
)

// ReportHandler serves cohort summaries and dataset status.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleSummary handles GET /api/summary.
func (h *ReportHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sum, err := h.deps.Summary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type classificationResponse struct {
	Bands   []severity.Band   `json:"bands"`
	NoData  severity.Category `json:"no_data"`
	Unknown string            `json:"unknown"`
}

// HandleClassification handles GET /api/classification.
func (h *ReportHandler) HandleClassification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, classificationResponse{
		Bands:   h.deps.Bands(),
		NoData:  severity.NoData,
		Unknown: severity.Category("").String(),
	})
}

// HandleDataset handles GET /api/dataset.
func (h *ReportHandler) HandleDataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Dataset(r.Context()))
}
