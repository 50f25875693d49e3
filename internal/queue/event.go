package queue // package queue defines the messages exchanged over RabbitMQ

import "time"

// QueuePickupApproved is the durable queue carrying hand-out notifications.
const QueuePickupApproved = "pickup.approved"

// PickupApprovedEvent is published whenever a parcel hand-out is approved.
// Downstream consumers (audit log, partner notifications) key on EventID for
// deduplication, since a retried publish may deliver the message twice.
type PickupApprovedEvent struct {
    EventID       uint64    `json:"event_id"`
    ParticipantID uint64    `json:"participant_id"`
    WorkerID      uint64    `json:"worker_id"`
    LocationID    uint64    `json:"location_id"`
    TenantID      uint64    `json:"tenant_id"`
    Channel       string    `json:"channel"`
    ApprovedAt    time.Time `json:"approved_at"`
}
