package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phiguard/phiguard/internal/alert"
	"github.com/phiguard/phiguard/internal/audit"
	"github.com/phiguard/phiguard/internal/controls"
	"github.com/phiguard/phiguard/internal/ledger"
	"github.com/phiguard/phiguard/internal/model"
	"github.com/phiguard/phiguard/internal/pipeline"
)

// TransferRequest is the inbox file format: one evaluation request.
type TransferRequest struct {
	Context          model.JurisdictionContext `json:"context"`
	Resource         map[string]any            `json:"resource"`
	DetectorFindings []model.Violation         `json:"detector_findings,omitempty"`
	DetectorMethods  []string                  `json:"detector_methods,omitempty"`
	Purpose          string                    `json:"purpose"`
	Provenance       model.InputProvenance     `json:"provenance"`
	Human            model.HumanDecision       `json:"human_decision"`
}

// TransferResult is written to the outbox for each processed request.
type TransferResult struct {
	Request    string                    `json:"request"`
	Error      string                    `json:"error,omitempty"`
	Decision   *model.ComplianceDecision `json:"decision,omitempty"`
	Suppressed []controls.Explained      `json:"suppressed_findings,omitempty"`
	AuditID    string                    `json:"audit_id,omitempty"`
	Record     *audit.AuditRecord        `json:"audit_record,omitempty"`
}

// evalTimeout bounds one request evaluation including the ledger
// commit.
const evalTimeout = 30 * time.Second

// Processor evaluates transfer requests and commits the results.
type Processor struct {
	engine *pipeline.Engine
	store  ledger.Ledger
	alerts *alert.Dispatcher
	outbox string
	logger *log.Logger
}

// NewProcessor wires the daemon's evaluation path. alerts may be nil.
func NewProcessor(engine *pipeline.Engine, store ledger.Ledger, alerts *alert.Dispatcher, outbox string, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(os.Stderr, "daemon: ", log.LstdFlags)
	}
	return &Processor{engine: engine, store: store, alerts: alerts, outbox: outbox, logger: logger}
}

// Handle processes one inbox file end to end: parse, evaluate, commit
// to the ledger, alert, write the outbox result, remove the request.
func (p *Processor) Handle(path string) {
	result := p.process(path)
	if result.Error != "" {
		p.logger.Printf("%s: %s", filepath.Base(path), result.Error)
	}
	if err := p.writeResult(path, result); err != nil {
		p.logger.Printf("write result for %s: %v", path, err)
		return
	}
	if err := os.Remove(path); err != nil {
		p.logger.Printf("remove %s: %v", path, err)
	}
}

func (p *Processor) process(path string) TransferResult {
	result := TransferResult{Request: filepath.Base(path)}

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Sprintf("read request: %v", err)
		return result
	}
	var req TransferRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		result.Error = fmt.Sprintf("parse request: %v", err)
		return result
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	input, err := audit.CanonicalJSON(req.Resource)
	if err != nil {
		result.Error = fmt.Sprintf("serialize resource: %v", err)
		return result
	}

	// Chain the record onto its dataset's tail.
	dataset := audit.Fingerprint(input)
	tail, err := p.store.Tail(ctx, dataset)
	if err != nil {
		result.Error = fmt.Sprintf("ledger tail: %v", err)
		return result
	}
	prev := ""
	if tail != nil {
		prev = tail.RecordHash
	}

	res, err := p.engine.Evaluate(ctx, pipeline.Request{
		Context:            req.Context,
		Resource:           req.Resource,
		RawInput:           input,
		DetectorFindings:   req.DetectorFindings,
		DetectorMethods:    req.DetectorMethods,
		Purpose:            req.Purpose,
		Provenance:         req.Provenance,
		Human:              req.Human,
		PreviousRecordHash: prev,
		DatasetFingerprint: dataset,
	})
	if err != nil {
		result.Error = fmt.Sprintf("evaluate: %v", err)
		return result
	}

	if err := p.store.Append(ctx, res.Record); err != nil {
		// Fail closed: without its audit record the decision is void.
		result.Error = fmt.Sprintf("audit commit: %v", err)
		return result
	}

	p.dispatchAlert(res)

	result.Decision = &res.Decision
	result.Suppressed = res.Suppressed
	result.AuditID = res.Record.AuditID
	result.Record = &res.Record
	return result
}

func (p *Processor) dispatchAlert(res pipeline.Result) {
	if p.alerts == nil {
		return
	}
	p.alerts.Dispatch(alert.AlertEvent{
		Timestamp:           res.Record.Timestamp.Format(time.RFC3339),
		AuditID:             res.Record.AuditID,
		DatasetFingerprint:  res.Record.DatasetFingerprint,
		Outcome:             string(res.Decision.Outcome),
		RiskScore:           res.Decision.RiskScore,
		ScoreBasis:          res.Decision.ScoreBasis,
		Policy:              res.Decision.Policy,
		GoverningRegulation: res.Resolution.GoverningRegulation,
		Rationale:           res.Decision.Rationale,
	})
}

// writeResult writes the outbox file via temp-then-rename so readers
// never see a partial result.
func (p *Processor) writeResult(reqPath string, result TransferResult) error {
	if err := os.MkdirAll(p.outbox, 0o750); err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(reqPath), ".json") + ".result.json"
	final := filepath.Join(p.outbox, name)
	tmp := final + ".tmp"

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}
