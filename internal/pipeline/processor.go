package pipeline

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"najah-search-go/internal/index"
	"najah-search-go/internal/model"
	"najah-search-go/internal/repository"
	"najah-search-go/pkg/log"
	"najah-search-go/pkg/tasks"
)

// ObjectStore streams harvested record batches out of the bucket.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
}

// Indexer is the write side consumed by the processor.
type Indexer interface {
	BulkUpsert(ctx context.Context, docs []*model.ArticleDocument) []index.Result
}

// BatchReport is the per-document outcome of one harvest task. Batches are
// never reported as a single pass/fail.
type BatchReport struct {
	BatchID   string
	Total     int
	Skipped   int
	Succeeded int
	Failed    int
	Results   []index.Result
}

// Processor runs the pipeline over harvest tasks: stream raw records from the
// bucket, assemble them on a worker pool, bulk-upsert the survivors, and
// record per-source state. Records are independent; assembly runs in
// parallel, each record's own steps stay sequential.
type Processor struct {
	assembler     *Assembler
	indexer       Indexer
	store         ObjectStore
	articleRepo   repository.ArticleRepository
	pool          *ants.Pool
	defaultBucket string
	bulkSize      int
	recordTimeout time.Duration
	schemaVersion int
}

// NewProcessor creates a Processor with a worker pool of the given size.
func NewProcessor(
	assembler *Assembler,
	indexer Indexer,
	store ObjectStore,
	articleRepo repository.ArticleRepository,
	workers int,
	defaultBucket string,
	bulkSize int,
	recordTimeout time.Duration,
	schemaVersion int,
) (*Processor, error) {
	if workers < 1 {
		workers = 1
	}
	if bulkSize < 1 {
		bulkSize = 100
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &Processor{
		assembler:     assembler,
		indexer:       indexer,
		store:         store,
		articleRepo:   articleRepo,
		pool:          pool,
		defaultBucket: defaultBucket,
		bulkSize:      bulkSize,
		recordTimeout: recordTimeout,
		schemaVersion: schemaVersion,
	}, nil
}

// Release tears down the worker pool.
func (p *Processor) Release() {
	p.pool.Release()
}

// pendingRecord is a raw record admitted for assembly, with its position in
// the batch and the content hash of its source line.
type pendingRecord struct {
	seq  int
	raw  model.RawRecord
	hash string
}

// assembled pairs a pending record with its assembly outcome.
type assembled struct {
	seq    int
	record pendingRecord
	doc    *model.ArticleDocument
	err    error
}

// Process runs one harvest task to completion and returns the batch report.
// Only task-level problems (missing object, unreadable stream) return an
// error; record-level problems land in the report.
func (p *Processor) Process(ctx context.Context, task tasks.HarvestTask) (*BatchReport, error) {
	bucket := task.Bucket
	if bucket == "" {
		bucket = p.defaultBucket
	}
	log.Infof("[Processor] batch %s: reading %s/%s", task.BatchID, bucket, task.ObjectName)

	object, err := p.store.GetObject(ctx, bucket, task.ObjectName)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch harvest object %s/%s: %w", bucket, task.ObjectName, err)
	}
	defer object.Close()

	report := &BatchReport{BatchID: task.BatchID}
	pending := p.admitRecords(object, report)
	log.Infof("[Processor] batch %s: %d records admitted, %d skipped", task.BatchID, len(pending), report.Skipped)

	outcomes := p.assembleAll(ctx, pending)

	// Validation failures go straight into the report; survivors move on to
	// the indexing client in input order.
	var docs []*model.ArticleDocument
	for _, out := range outcomes {
		if out.err != nil {
			report.Results = append(report.Results, index.Result{
				SourceUUID: out.record.raw.SourceUUID,
				Kind:       index.KindOf(out.err),
				Err:        out.err,
			})
			p.recordOutcome(out.record, "", model.IndexStatusFailed, out.err)
			continue
		}
		docs = append(docs, out.doc)
	}

	hashByUUID := make(map[string]pendingRecord, len(pending))
	for _, rec := range pending {
		hashByUUID[rec.raw.SourceUUID] = rec
	}

	for start := 0; start < len(docs); start += p.bulkSize {
		end := start + p.bulkSize
		if end > len(docs) {
			end = len(docs)
		}
		for _, res := range p.indexer.BulkUpsert(ctx, docs[start:end]) {
			report.Results = append(report.Results, res)
			rec := hashByUUID[res.SourceUUID]
			if res.Err != nil {
				p.recordOutcome(rec, res.DocID, model.IndexStatusFailed, res.Err)
			} else {
				p.recordOutcome(rec, res.DocID, model.IndexStatusIndexed, nil)
			}
		}
	}

	for _, res := range report.Results {
		if res.Kind == index.KindSuccess {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	report.Total = report.Skipped + len(outcomes)

	log.Infof("[Processor] batch %s done: %d total, %d indexed, %d failed, %d skipped",
		task.BatchID, report.Total, report.Succeeded, report.Failed, report.Skipped)
	return report, nil
}

// admitRecords scans the JSONL stream and keeps the records worth processing.
// Malformed lines and records with no abstract in either language are
// skipped; so are records whose content hash already sits in the index under
// the active schema version.
func (p *Processor) admitRecords(object io.Reader, report *BatchReport) []pendingRecord {
	var pending []pendingRecord
	scanner := bufio.NewScanner(object)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	seq := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw model.RawRecord
		if err := json.Unmarshal(line, &raw); err != nil {
			log.Warnf("[Processor] skipping malformed record line: %v", err)
			report.Skipped++
			continue
		}
		if model.FieldText(raw.Abstract, model.LangEN) == "" && model.FieldText(raw.Abstract, model.LangAR) == "" {
			report.Skipped++
			continue
		}

		hash := fmt.Sprintf("%x", md5.Sum(line))
		if p.alreadyIndexed(raw.SourceUUID, hash) {
			log.Infof("[Processor] record %s unchanged, skipping re-index", raw.SourceUUID)
			report.Skipped++
			continue
		}

		pending = append(pending, pendingRecord{seq: seq, raw: raw, hash: hash})
		seq++
	}
	if err := scanner.Err(); err != nil {
		log.Errorf("[Processor] harvest stream truncated: %v", err)
	}
	return pending
}

// alreadyIndexed reports whether the exact content is already indexed under
// the active schema version.
func (p *Processor) alreadyIndexed(sourceUUID, hash string) bool {
	if sourceUUID == "" {
		return false
	}
	record, err := p.articleRepo.FindBySourceUUID(sourceUUID)
	if err != nil {
		log.Warnf("[Processor] bookkeeping lookup failed for %s: %v", sourceUUID, err)
		return false
	}
	return record != nil &&
		record.Status == model.IndexStatusIndexed &&
		record.ContentHash == hash &&
		record.SchemaVersion == p.schemaVersion
}

// assembleAll runs assembly for every pending record on the worker pool and
// returns the outcomes in input order.
func (p *Processor) assembleAll(ctx context.Context, pending []pendingRecord) []assembled {
	outcomes := make([]assembled, len(pending))
	var wg sync.WaitGroup

	for _, rec := range pending {
		rec := rec
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			recordCtx, cancel := context.WithTimeout(ctx, p.recordTimeout)
			defer cancel()
			doc, err := p.assembler.Assemble(recordCtx, rec.raw)
			outcomes[rec.seq] = assembled{seq: rec.seq, record: rec, doc: doc, err: err}
		})
		if submitErr != nil {
			wg.Done()
			outcomes[rec.seq] = assembled{seq: rec.seq, record: rec, err: fmt.Errorf("worker pool rejected record: %w", submitErr)}
		}
	}
	wg.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].seq < outcomes[j].seq })
	return outcomes
}

// Handle adapts Process to the ingest queue: the report is logged here and
// only task-level failures propagate, so the queue retries whole batches, not
// individual documents.
func (p *Processor) Handle(ctx context.Context, task tasks.HarvestTask) error {
	report, err := p.Process(ctx, task)
	if err != nil {
		return err
	}
	for _, res := range report.Results {
		if res.Kind != index.KindSuccess {
			log.Warnf("[Processor] batch %s: document source=%s kind=%s error=%v",
				report.BatchID, res.SourceUUID, res.Kind, res.Err)
		}
	}
	return nil
}

// recordOutcome persists the per-source index state; bookkeeping trouble is
// logged, never allowed to fail the batch.
func (p *Processor) recordOutcome(rec pendingRecord, docID, status string, cause error) {
	if rec.raw.SourceUUID == "" {
		return
	}
	record := &model.ArticleRecord{
		SourceUUID:    rec.raw.SourceUUID,
		DocID:         docID,
		ContentHash:   rec.hash,
		SchemaVersion: p.schemaVersion,
		Status:        status,
		IndexedAt:     time.Now(),
	}
	if cause != nil {
		record.LastError = cause.Error()
	}
	if err := p.articleRepo.Upsert(record); err != nil {
		log.Warnf("[Processor] failed to record outcome for %s: %v", rec.raw.SourceUUID, err)
	}
}
