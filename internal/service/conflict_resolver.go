// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package service

import (
	"sort"
	"sync"
	"time"

	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/models"
)

// conflictResolver is the concrete implementation of ConflictResolver.
//
// Detection compares every field present in either record under canonical
// equality; divergences are reported whether or not the tracked local edit
// touched the field. Resolution results are memoized per
// (id, local.Updated, remote.Updated, strategy) so re-resolving an
// already-seen pair is O(1). The memo is unbounded for the lifetime of the
// resolver, which is acceptable because distinct pairs are few relative to
// sync frequency.
type conflictResolver struct {
	log *logger.Logger

	mu      sync.RWMutex
	mergers map[string]MergeFunc
	custom  CustomResolveFunc
	memo    map[memoKey]Resolution
}

type memoKey struct {
	id            string
	localUpdated  int64
	remoteUpdated int64
	strategy      Strategy
}

// NewConflictResolver constructs a ConflictResolver with the built-in merge
// table (severity ordinal, tag-list union, free-text concatenation, later
// timestamp) pre-registered. All built-ins can be overridden via
// RegisterMerger.
func NewConflictResolver(log *logger.Logger) ConflictResolver {
	return &conflictResolver{
		log:     log,
		mergers: builtinMergers(),
		memo:    make(map[memoKey]Resolution),
	}
}

func (r *conflictResolver) RegisterMerger(field string, fn MergeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mergers[field] = fn
}

func (r *conflictResolver) RegisterCustomResolver(fn CustomResolveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = fn
}

// DetectConflicts implements ConflictResolver. The returned slice is sorted
// by field name, so identical inputs always produce an identical conflict
// set regardless of map iteration order.
func (r *conflictResolver) DetectConflicts(local, remote models.Record, _ *models.LocalEdit) []models.FieldConflict {
	fields := make(map[string]struct{}, len(local.Fields)+len(remote.Fields))
	for f := range local.Fields {
		fields[f] = struct{}{}
	}
	for f := range remote.Fields {
		fields[f] = struct{}{}
	}

	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	var conflicts []models.FieldConflict
	for _, field := range names {
		localValue, localPresent := local.Field(field)
		remoteValue, remotePresent := remote.Field(field)

		if localPresent && remotePresent && valuesEqual(localValue, remoteValue) {
			continue
		}
		if !localPresent && !remotePresent {
			continue
		}

		conflicts = append(conflicts, models.FieldConflict{
			Field:       field,
			LocalValue:  localValue,
			RemoteValue: remoteValue,
			Resolution:  models.ResolutionPending,
		})
	}

	return conflicts
}

// Resolve implements ConflictResolver.
func (r *conflictResolver) Resolve(local, remote models.Record, edit *models.LocalEdit, strategy Strategy) Resolution {
	key := memoKey{
		id:            remote.ID,
		localUpdated:  local.Updated.UnixNano(),
		remoteUpdated: remote.Updated.UnixNano(),
		strategy:      strategy,
	}

	r.mu.RLock()
	cached, hit := r.memo[key]
	r.mu.RUnlock()
	if hit {
		return cached
	}

	conflicts := r.DetectConflicts(local, remote, edit)
	res := r.resolveConflicts(local, remote, edit, strategy, conflicts)

	r.mu.Lock()
	r.memo[key] = res
	r.mu.Unlock()

	r.log.Debug().
		Str("id", remote.ID).
		Str("strategy", strategy.String()).
		Int("conflicts", len(conflicts)).
		Bool("resolved", res.Resolved).
		Str("fingerprint", fingerprint(res.Record.Fields)).
		Msg("conflict resolution")

	return res
}

func (r *conflictResolver) resolveConflicts(
	local, remote models.Record,
	edit *models.LocalEdit,
	strategy Strategy,
	conflicts []models.FieldConflict,
) Resolution {
	switch strategy {
	case StrategyLocalWins:
		resolved := remote.Clone()
		for field, value := range local.Fields {
			if resolved.Fields == nil {
				resolved.Fields = make(map[string]any, len(local.Fields))
			}
			resolved.Fields[field] = value
		}
		resolved.Updated = laterOf(local.Updated, remote.Updated)
		return Resolution{
			Resolved:  true,
			Record:    resolved,
			Conflicts: markAll(conflicts, models.ResolutionLocal),
		}

	case StrategyRemoteWins:
		resolved := local.Clone()
		resolved.ID = remote.ID
		for field, value := range remote.Fields {
			if resolved.Fields == nil {
				resolved.Fields = make(map[string]any, len(remote.Fields))
			}
			resolved.Fields[field] = value
		}
		resolved.Updated = laterOf(local.Updated, remote.Updated)
		return Resolution{
			Resolved:  true,
			Record:    resolved,
			Conflicts: markAll(conflicts, models.ResolutionRemote),
		}

	case StrategyMerge:
		return r.mergeResolution(local, remote, conflicts)

	case StrategyPromptUser:
		return Resolution{
			Resolved:                 false,
			Record:                   remote.Clone(),
			Conflicts:                markAll(conflicts, models.ResolutionPending),
			RequiresUserIntervention: true,
		}

	case StrategyCustom:
		r.mu.RLock()
		custom := r.custom
		r.mu.RUnlock()
		if custom != nil {
			return custom(local, remote, edit)
		}
		return r.resolveConflicts(local, remote, edit, StrategyRemoteWins, conflicts)

	default:
		return r.resolveConflicts(local, remote, edit, StrategyRemoteWins, conflicts)
	}
}

// mergeResolution reconciles field by field: a registered merger decides the
// field when one exists, the generic fallback otherwise. Non-conflicting
// fields from both sides are carried over unchanged.
func (r *conflictResolver) mergeResolution(local, remote models.Record, conflicts []models.FieldConflict) Resolution {
	resolved := local.Clone()
	resolved.ID = remote.ID
	if resolved.Fields == nil {
		resolved.Fields = make(map[string]any, len(remote.Fields))
	}

	conflicting := make(map[string]struct{}, len(conflicts))
	for _, c := range conflicts {
		conflicting[c.Field] = struct{}{}
	}

	for field, value := range remote.Fields {
		if _, isConflict := conflicting[field]; !isConflict {
			resolved.Fields[field] = value
		}
	}

	r.mu.RLock()
	mergers := r.mergers
	r.mu.RUnlock()

	merged := make([]models.FieldConflict, len(conflicts))
	for i, c := range conflicts {
		fn, ok := mergers[c.Field]
		if !ok {
			fn = genericMerge
		}

		value := fn(c.Field, c.LocalValue, c.RemoteValue)
		resolved.Fields[c.Field] = value

		c.Resolution = models.ResolutionMerged
		c.MergedValue = value
		merged[i] = c
	}

	resolved.Updated = laterOf(local.Updated, remote.Updated)
	return Resolution{
		Resolved:  true,
		Record:    resolved,
		Conflicts: merged,
	}
}

func markAll(conflicts []models.FieldConflict, resolution models.Resolution) []models.FieldConflict {
	out := make([]models.FieldConflict, len(conflicts))
	for i, c := range conflicts {
		c.Resolution = resolution
		out[i] = c
	}
	return out
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
