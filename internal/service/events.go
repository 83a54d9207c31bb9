package service

// Realtime event names pushed to dashboard clients
const (
	EventDonationRequestCreated       = "donation_request.created"
	EventDonationRequestStatusChanged = "donation_request.status_changed"
	EventDonationRequestUpdated       = "donation_request.updated"
	EventDonationRequestDeleted       = "donation_request.deleted"
)

// EventPublisher delivers realtime notifications. Failures are reported, never retried.
type EventPublisher interface {
	Publish(event string, payload any) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) error { return nil }
