package storage

import "epic-nft-gallery/internal/domain"

// ValidateSnapshot checks the fields every store requires.
func ValidateSnapshot(s *domain.Snapshot) error {
	if s == nil || s.Contract == "" {
		return ErrInvalidInput
	}
	return nil
}

// ValidatePass checks the fields every pass store requires.
func ValidatePass(p *domain.PassRecord) error {
	if p == nil || p.Contract == "" || !p.Trigger.IsValid() {
		return ErrInvalidInput
	}
	return nil
}
