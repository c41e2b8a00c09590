// Package tasks defines the structure of jobs carried by the ingest queue.
package tasks

// HarvestTask points the pipeline at one object of harvested raw records
// (JSON Lines) waiting in the bucket.
type HarvestTask struct {
	BatchID    string `json:"batch_id"`
	Bucket     string `json:"bucket"`
	ObjectName string `json:"object_name"`
}
