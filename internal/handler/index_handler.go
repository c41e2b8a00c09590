package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"najah-search-go/pkg/kafka"
	"najah-search-go/pkg/log"
	"najah-search-go/pkg/tasks"
)

// IndexHandler accepts harvest batches for asynchronous indexing.
type IndexHandler struct {
	producer *kafka.Producer
}

// NewIndexHandler creates an IndexHandler.
func NewIndexHandler(producer *kafka.Producer) *IndexHandler {
	return &IndexHandler{producer: producer}
}

// batchRequest names the harvest object to index. Bucket is optional; the
// configured harvest bucket is used when it is empty.
type batchRequest struct {
	ObjectName string `json:"object_name" binding:"required"`
	Bucket     string `json:"bucket"`
	BatchID    string `json:"batch_id"`
}

// SubmitBatch handles POST /api/v1/index/batch. The batch is queued and
// processed by the pipeline consumer; the response carries the batch id the
// caller can correlate in the logs.
func (h *IndexHandler) SubmitBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: object_name is required"})
		return
	}

	batchID := req.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}

	task := tasks.HarvestTask{
		BatchID:    batchID,
		Bucket:     req.Bucket,
		ObjectName: req.ObjectName,
	}
	if err := h.producer.ProduceHarvestTask(c.Request.Context(), task); err != nil {
		log.Errorf("[IndexHandler] failed to queue harvest task: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue batch"})
		return
	}

	log.Infof("[IndexHandler] queued harvest batch %s (%s)", batchID, req.ObjectName)
	c.JSON(http.StatusAccepted, gin.H{"code": 202, "data": gin.H{"batch_id": batchID}, "message": "queued"})
}
