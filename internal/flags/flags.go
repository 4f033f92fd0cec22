// Package flags is the persisted client-state service: a typed get/set
// contract over per-device flags (greeting month, recap acknowledgment,
// onboarding tour) rather than ad hoc key access scattered across handlers.
package flags

import "context"

// Flag names as stored. One file row per (owner, device, name).
const (
	greetingMonthFlag = "greeting_month"
	recapSeenFlag     = "recap_seen"
	tourSeenFlag      = "tour_seen"
)

const tourSeenValue = "done"

// Store is the persistence contract, satisfied by storage.SQLiteRepository.
type Store interface {
	GetClientFlag(ctx context.Context, ownerID, deviceID, name string) (string, error)
	SetClientFlag(ctx context.Context, ownerID, deviceID, name, value string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// GreetingMonth returns the month key ("{year}-{month}") last acknowledged by
// the new-month toast on this device, or "" if never set.
func (s *Service) GreetingMonth(ctx context.Context, ownerID, deviceID string) (string, error) {
	return s.store.GetClientFlag(ctx, ownerID, deviceID, greetingMonthFlag)
}

// SetGreetingMonth records the toast acknowledgment for a month key.
func (s *Service) SetGreetingMonth(ctx context.Context, ownerID, deviceID, monthKey string) error {
	return s.store.SetClientFlag(ctx, ownerID, deviceID, greetingMonthFlag, monthKey)
}

// RecapSeen returns the month key whose recap the user has dismissed on this
// device, or "" if none.
func (s *Service) RecapSeen(ctx context.Context, ownerID, deviceID string) (string, error) {
	return s.store.GetClientFlag(ctx, ownerID, deviceID, recapSeenFlag)
}

// SetRecapSeen records recap dismissal for a month key.
func (s *Service) SetRecapSeen(ctx context.Context, ownerID, deviceID, monthKey string) error {
	return s.store.SetClientFlag(ctx, ownerID, deviceID, recapSeenFlag, monthKey)
}

// TourSeen reports whether the onboarding tour was completed on this device.
func (s *Service) TourSeen(ctx context.Context, ownerID, deviceID string) (bool, error) {
	v, err := s.store.GetClientFlag(ctx, ownerID, deviceID, tourSeenFlag)
	if err != nil {
		return false, err
	}
	return v == tourSeenValue, nil
}

// MarkTourSeen records tour completion.
func (s *Service) MarkTourSeen(ctx context.Context, ownerID, deviceID string) error {
	return s.store.SetClientFlag(ctx, ownerID, deviceID, tourSeenFlag, tourSeenValue)
}
