package service

import (
	"context"
	"errors"

	"netfence/internal/domain"
)

// Decision is the resolver's answer for one ordered device pair.
type Decision struct {
	SourceID int64             `json:"source_id"`
	TargetID int64             `json:"target_id"`
	Access   domain.AccessType `json:"access"`
}

// Resolve answers whether the source device may reach the target, and
// how. The decision is strictly directional: swap the pair and you may
// get a different answer.
func (s *PolicyService) Resolve(ctx context.Context, sourceID, targetID int64) (*Decision, error) {
	source, err := s.store.GetDevice(ctx, sourceID)
	if err != nil {
		return nil, storage(err)
	}
	target, err := s.store.GetDevice(ctx, targetID)
	if err != nil {
		return nil, storage(err)
	}

	decision := &Decision{SourceID: sourceID, TargetID: targetID}

	// Unsegmented or same-segment traffic never consults rules.
	if source.VlanID == nil || target.VlanID == nil || *source.VlanID == *target.VlanID {
		decision.Access = domain.ResolveAccess(source, target, nil, false)
		return decision, nil
	}

	rule, err := s.store.GetRuleByPair(ctx, *source.VlanID, *target.VlanID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, storage(err)
	}

	sourceExempt := false
	if rule != nil && rule.AccessType == domain.AccessLimited {
		sourceExempt, err = s.store.IsLimitedDevice(ctx, rule.ID, sourceID)
		if err != nil {
			return nil, storage(err)
		}
	}

	decision.Access = domain.ResolveAccess(source, target, rule, sourceExempt)
	return decision, nil
}
