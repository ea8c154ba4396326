package models

import "time"

// RawRecord is one row of an uploaded transfer file, exactly as decoded.
// Amount and Timestamp stay as strings until graph construction validates
// them; a row that fails validation becomes a RejectedRecord instead of a
// Transfer.
type RawRecord struct {
	TransactionID string `json:"transaction_id"`
	SenderID      string `json:"sender_id"`
	ReceiverID    string `json:"receiver_id"`
	Amount        string `json:"amount"`
	Timestamp     string `json:"timestamp"`
}

// Transfer is one directed movement of funds between two accounts.
// Immutable after construction.
type Transfer struct {
	ID        string    `json:"transaction_id"`
	Sender    string    `json:"sender_id"`
	Receiver  string    `json:"receiver_id"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// RejectedRecord is a malformed input row, kept for observability.
type RejectedRecord struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}
