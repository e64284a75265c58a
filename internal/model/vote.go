package model

import "fmt"

// Channel identifies the payment channel chosen by the voter
type Channel string

const (
	ChannelMTN        Channel = "MTN"
	ChannelVodafone   Channel = "VODAFONE"
	ChannelAirtelTigo Channel = "AIRTELTIGO"
	ChannelCard       Channel = "CARD"
)

// ParseChannel validates and normalizes a channel string
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelMTN, ChannelVodafone, ChannelAirtelTigo, ChannelCard:
		return Channel(s), nil
	default:
		return "", fmt.Errorf("unknown payment channel: %q", s)
	}
}

// IsMobileMoney reports whether the channel uses the direct-charge flow.
// Card payments always go through the checkout redirect instead.
func (c Channel) IsMobileMoney() bool {
	switch c {
	case ChannelMTN, ChannelVodafone, ChannelAirtelTigo:
		return true
	default:
		return false
	}
}

// VotePurchaseRequest represents a request to buy votes for a nominee
type VotePurchaseRequest struct {
	NomineeID  string  `json:"nominee_id"`
	Quantity   int     `json:"number_of_votes"`
	VoterName  string  `json:"voter_name,omitempty"`
	VoterPhone string  `json:"voter_phone,omitempty"`
	VoterEmail string  `json:"voter_email,omitempty"`
	Channel    Channel `json:"payment_channel"`
}

// Validate checks the request before any network call is made
func (r *VotePurchaseRequest) Validate() error {
	if r.NomineeID == "" {
		return fmt.Errorf("nominee_id is required")
	}
	if r.Quantity < 1 {
		return fmt.Errorf("number_of_votes must be at least 1, got %d", r.Quantity)
	}
	if _, err := ParseChannel(string(r.Channel)); err != nil {
		return err
	}
	if r.Channel.IsMobileMoney() && r.VoterPhone == "" {
		return fmt.Errorf("voter_phone is required for %s payments", r.Channel)
	}
	return nil
}

// VoteDetails holds the recorded vote information returned on settlement
type VoteDetails struct {
	Nominee       string `json:"nominee"`
	Category      string `json:"category"`
	Award         string `json:"award"`
	NumberOfVotes int    `json:"number_of_votes"`
}

// Outcome is the terminal result of a confirmation
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ConfirmationResult is the terminal state handed to the caller once a
// payment attempt settles. VoteDetails is present only on success.
type ConfirmationResult struct {
	Outcome     Outcome      `json:"outcome"`
	Message     string       `json:"message,omitempty"`
	VoteDetails *VoteDetails `json:"vote_details,omitempty"`
}
