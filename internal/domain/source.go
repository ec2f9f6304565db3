package domain

// Trigger names what caused a reconciliation pass.
type Trigger string

const (
	TriggerSupply   Trigger = "supply"
	TriggerContract Trigger = "contract"
	TriggerAccount  Trigger = "account"
	TriggerPoll     Trigger = "poll"
	TriggerEvent    Trigger = "event"
	TriggerManual   Trigger = "manual"
)

// String returns the string representation of Trigger.
func (t Trigger) String() string {
	return string(t)
}

// IsValid checks if the trigger is a known value.
func (t Trigger) IsValid() bool {
	switch t {
	case TriggerSupply, TriggerContract, TriggerAccount, TriggerPoll, TriggerEvent, TriggerManual:
		return true
	}
	return false
}

// SkipReason classifies why a token id was left out of a pass.
type SkipReason string

const (
	SkipReadFailed   SkipReason = "read_failed"
	SkipNotDataURI   SkipReason = "not_data_uri"
	SkipDecodeFailed SkipReason = "decode_failed"
)

// String returns the string representation of SkipReason.
func (r SkipReason) String() string {
	return string(r)
}
