package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/muletrace/mule-engine/internal/heuristics"
	"github.com/muletrace/mule-engine/internal/ingest"
	"github.com/muletrace/mule-engine/pkg/models"
)

type APIHandler struct {
	wsHub *Hub
}

func SetupRouter(wsHub *Hub) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://muletrace.io
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{wsHub: wsHub}

	// Analysis is CPU-bound per request; keep abusive clients from
	// queueing unbounded work.
	limiter := NewRateLimiter(30, 10)

	api := r.Group("/api/v1")
	{
		api.POST("/analyze", limiter.Middleware(), handler.handleAnalyze)
		api.GET("/health", handler.handleHealth)
		api.GET("/stream", wsHub.Subscribe)
	}

	return r
}

// handleAnalyze runs the full detection pipeline over one uploaded batch.
// Accepts either a multipart CSV upload under the "file" field, or a JSON
// body {"transactions": [...]}. The report is all-or-nothing: a failed
// run returns 500 with no partial results.
func (h *APIHandler) handleAnalyze(c *gin.Context) {
	records, err := h.decodeRecords(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID := uuid.New().String()

	report, err := heuristics.Analyze(c.Request.Context(), records)
	if err != nil {
		log.Printf("Run %s failed: %v", runID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	h.broadcastRunComplete(runID, report)

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"report": report,
	})
}

// decodeRecords extracts the raw record sequence from the request. The
// multipart stream is decoded directly; no temp file is written, so there
// is nothing to clean up afterward.
func (h *APIHandler) decodeRecords(c *gin.Context) ([]models.RawRecord, error) {
	if fileHeader, err := c.FormFile("file"); err == nil {
		f, err := fileHeader.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ingest.ReadCSV(f)
	}

	var req struct {
		Transactions []models.RawRecord `json:"transactions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	return req.Transactions, nil
}

// broadcastRunComplete pushes a run summary to connected stream clients.
func (h *APIHandler) broadcastRunComplete(runID string, report *models.Report) {
	if h.wsHub == nil {
		return
	}
	payload := gin.H{
		"type":    "analysis_complete",
		"run_id":  runID,
		"summary": report.Summary,
	}
	msg, _ := json.Marshal(payload)
	h.wsHub.Broadcast(msg)
}

// handleHealth returns engine status and capabilities for service discovery.
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "MuleTrace Detection Engine v1.0",
		"capabilities": gin.H{
			"cycle_detection": true,
			"smurf_detection": true,
			"shell_detection": true,
			"risk_scoring":    true,
		},
	})
}
