// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/models"
)

// OffloadInput is the full, self-contained description of one apply handed
// to an offload executor. It crosses the executor boundary as JSON, so the
// executor never shares memory with the engine.
type OffloadInput struct {
	Payload  models.DifferentialPayload `json:"payload"`
	Snapshot []models.Record            `json:"snapshot"`
	Edits    []models.LocalEdit         `json:"edits"`
	Strategy string                     `json:"strategy"`
}

// OffloadOutcome is the executor's answer: the complete post-apply record
// set plus the bookkeeping the engine needs to import the result.
type OffloadOutcome struct {
	Records      []models.Record        `json:"records"`
	Applied      []models.SyncOperation `json:"applied"`
	Conflicts    []models.ConflictInfo  `json:"conflicts"`
	ClearedEdits []string               `json:"cleared_edits"`
}

// Offloader executes a large apply outside the engine's own goroutine.
// Ping must be cheap; the engine probes once before first use and falls
// back to in-process application when the probe or a Process call fails.
type Offloader interface {
	Ping(ctx context.Context) error
	Process(ctx context.Context, input OffloadInput) (OffloadOutcome, error)
}

type offloadRequest struct {
	// data is nil for a ping.
	data  []byte
	reply chan offloadReply
}

type offloadReply struct {
	data []byte
	err  error
}

// taskOffloader runs applies on a dedicated long-lived goroutine. Input and
// outcome are serialized through JSON on both sides of the channel, keeping
// the executor fully decoupled from engine memory.
type taskOffloader struct {
	resolver ConflictResolver
	log      *logger.Logger
	requests chan offloadRequest
}

// NewTaskOffloader constructs an Offloader backed by a worker goroutine.
func NewTaskOffloader(resolver ConflictResolver, log *logger.Logger) Offloader {
	o := &taskOffloader{
		resolver: resolver,
		log:      log,
		requests: make(chan offloadRequest),
	}
	go o.loop()
	return o
}

func (o *taskOffloader) loop() {
	for req := range o.requests {
		if req.data == nil {
			req.reply <- offloadReply{}
			continue
		}

		var input OffloadInput
		if err := json.Unmarshal(req.data, &input); err != nil {
			req.reply <- offloadReply{err: fmt.Errorf("decode offload input: %w", err)}
			continue
		}

		outcome := computeOutcome(input, o.resolver)

		data, err := json.Marshal(outcome)
		if err != nil {
			req.reply <- offloadReply{err: fmt.Errorf("encode offload outcome: %w", err)}
			continue
		}
		req.reply <- offloadReply{data: data}
	}
}

func (o *taskOffloader) Ping(ctx context.Context) error {
	backoff := retry.WithMaxRetries(2, retry.NewConstant(50*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(o.exchange(ctx, offloadRequest{reply: make(chan offloadReply, 1)}, nil))
	})
}

func (o *taskOffloader) Process(ctx context.Context, input OffloadInput) (OffloadOutcome, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return OffloadOutcome{}, fmt.Errorf("encode offload input: %w", err)
	}

	var outcome OffloadOutcome
	err = o.exchange(ctx, offloadRequest{data: data, reply: make(chan offloadReply, 1)}, &outcome)
	return outcome, err
}

func (o *taskOffloader) exchange(ctx context.Context, req offloadRequest, out *OffloadOutcome) error {
	select {
	case o.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case reply := <-req.reply:
		if reply.err != nil {
			return reply.err
		}
		if out != nil {
			if err := json.Unmarshal(reply.data, out); err != nil {
				return fmt.Errorf("decode offload outcome: %w", err)
			}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// computeOutcome applies the payload to the snapshot purely in memory.
// It mirrors the engine's phase order but cannot fail per item: there is no
// store underneath, only the map.
func computeOutcome(input OffloadInput, resolver ConflictResolver) OffloadOutcome {
	records := make(map[string]models.Record, len(input.Snapshot))
	for _, r := range input.Snapshot {
		records[r.ID] = r
	}

	edits := make(map[string]models.LocalEdit, len(input.Edits))
	for _, edit := range input.Edits {
		edits[edit.ID] = edit
	}

	strategy, err := ParseStrategy(input.Strategy)
	if err != nil {
		strategy = StrategyRemoteWins
	}

	outcome := OffloadOutcome{
		Applied:      make([]models.SyncOperation, 0),
		Conflicts:    make([]models.ConflictInfo, 0),
		ClearedEdits: make([]string, 0),
	}
	note := func(opType models.OperationType, id string) {
		outcome.Applied = append(outcome.Applied, models.SyncOperation{
			OpID:      uuid.NewString(),
			Type:      opType,
			ID:        id,
			Timestamp: time.Now(),
		})
	}

	for _, id := range input.Payload.Deleted {
		if _, ok := records[id]; ok {
			delete(records, id)
			note(models.OperationDelete, id)
		}
	}

	for _, record := range input.Payload.Added {
		incoming := record
		if edit, ok := edits[record.ID]; ok {
			incoming = edit.ApplyTo(record)
		}
		records[record.ID] = incoming
		note(models.OperationAdd, record.ID)
	}

	for _, remote := range input.Payload.Updated {
		local, ok := records[remote.ID]
		if !ok {
			records[remote.ID] = remote
			note(models.OperationAdd, remote.ID)
			continue
		}

		edit, hasEdit := edits[remote.ID]
		if hasEdit && !recordsEqual(local, remote) {
			res := resolver.Resolve(local, remote, &edit, strategy)
			info := models.ConflictInfo{
				ID:                       remote.ID,
				Conflicts:                res.Conflicts,
				Resolved:                 res.Resolved,
				RequiresUserIntervention: res.RequiresUserIntervention,
				Strategy:                 strategy.String(),
			}
			outcome.Conflicts = append(outcome.Conflicts, info)
			if !res.Resolved {
				continue
			}
			records[remote.ID] = res.Record
			note(models.OperationUpdate, remote.ID)
			outcome.ClearedEdits = append(outcome.ClearedEdits, remote.ID)
			continue
		}

		records[remote.ID] = remote
		note(models.OperationUpdate, remote.ID)
		if hasEdit {
			outcome.ClearedEdits = append(outcome.ClearedEdits, remote.ID)
		}
	}

	outcome.Records = make([]models.Record, 0, len(records))
	for _, r := range records {
		outcome.Records = append(outcome.Records, r)
	}
	sort.Slice(outcome.Records, func(i, j int) bool {
		return outcome.Records[i].ID < outcome.Records[j].ID
	})

	return outcome
}

// ── engine delegation ───────────────────────────────────────────────────────

// shouldOffload additionally refuses delegation while a conflict handler is
// installed: the callback cannot cross the executor's serialization boundary,
// and both paths must produce the same outcome for the same payload.
func (e *syncEngine) shouldOffload(payload models.DifferentialPayload) bool {
	return e.offloader != nil &&
		e.conflictFn == nil &&
		e.cfg.OffloadThreshold > 0 &&
		payload.Size() >= e.cfg.OffloadThreshold
}

// tryOffload delegates the apply to the offload executor. Any failure along
// the way returns ok=false and the caller continues with the in-process
// path; the store is only touched once a complete outcome is in hand.
func (e *syncEngine) tryOffload(ctx context.Context, payload models.DifferentialPayload, start time.Time, payloadBytes int) (models.SyncResult, bool) {
	if !e.offloadChecked {
		pingCtx, cancel := context.WithTimeout(ctx, e.cfg.OffloadPingTimeout)
		err := e.offloader.Ping(pingCtx)
		cancel()

		e.offloadChecked = true
		e.offloadHealthy = err == nil
		if err != nil {
			e.log.Warn().Err(err).Msg("offload executor unavailable, applying in-process")
		}
	}
	if !e.offloadHealthy {
		return models.SyncResult{}, false
	}

	snapshot, err := e.store.GetAll(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("snapshot for offload failed, applying in-process")
		return models.SyncResult{}, false
	}

	input := OffloadInput{
		Payload:  payload,
		Snapshot: snapshot,
		Edits:    e.tracker.All(),
		Strategy: e.cfg.DefaultStrategy.String(),
	}

	outcome, err := e.offloader.Process(ctx, input)
	if err != nil {
		e.log.Warn().Err(err).Msg("offload processing failed, applying in-process")
		return models.SyncResult{}, false
	}

	if err = e.store.ReplaceAll(ctx, outcome.Records); err != nil {
		e.log.Warn().Err(err).Msg("importing offload outcome failed, applying in-process")
		return models.SyncResult{}, false
	}

	tx := newTxLog()
	tx.applied = outcome.Applied
	tx.conflicts = outcome.Conflicts

	for _, id := range outcome.ClearedEdits {
		e.tracker.Clear(id)
		e.clearRecordState(id)
	}
	remoteByID := make(map[string]models.Record, len(payload.Updated))
	for _, r := range payload.Updated {
		remoteByID[r.ID] = r
	}
	for _, info := range outcome.Conflicts {
		if !info.Resolved {
			if remote, ok := remoteByID[info.ID]; ok {
				e.notePending(info.ID, remote)
			}
		}
	}

	result := e.finalize(ctx, payload, tx, start, payloadBytes)
	e.log.Debug().Int("items", payload.Size()).Msg("apply delegated to offload executor")
	return result, true
}
