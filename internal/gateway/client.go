package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"votepay-gateway/internal/config"
	"votepay-gateway/internal/model"
	"votepay-gateway/pkg/logger"
)

// Client talks to the remote voting platform's payment API
type Client struct {
	httpClient *http.Client
	config     *config.PlatformConfig
	logger     *logger.Logger
}

// NewClient creates a new payment gateway client
func NewClient(cfg *config.PlatformConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		config: cfg,
		logger: log,
	}
}

// initiateData is the data member of the initiate response envelope
type initiateData struct {
	CheckoutURL  string `json:"checkout_url"`
	Reference    string `json:"reference"`
	PaymentToken string `json:"payment_token"`
	IsDirect     bool   `json:"is_direct"`
}

// confirmData is the data member of the confirm response envelope
type confirmData struct {
	Status        string `json:"status"`
	PaymentToken  string `json:"payment_token"`
	Nominee       string `json:"nominee"`
	Category      string `json:"category"`
	Award         string `json:"award"`
	NumberOfVotes int    `json:"number_of_votes"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Confirmation is a single settlement check result. Details is populated
// only when the remote service reports the attempt as paid.
type Confirmation struct {
	Status  model.AttemptStatus
	Details *model.VoteDetails
}

// ConfirmQuery identifies a payment attempt for confirmation, either by the
// polling reference or by the callback token. Exactly one field is set.
type ConfirmQuery struct {
	Reference string `json:"reference,omitempty"`
	Token     string `json:"token,omitempty"`
}

// Initiate sends the create-pending-vote request for a nominee. It makes
// exactly one network call; retry is a fresh user submission. A failed
// envelope comes back as an InitiationFailure, transport problems as an
// error for the caller to map.
func (c *Client) Initiate(ctx context.Context, req *model.VotePurchaseRequest) (model.Initiation, error) {
	payload := map[string]any{
		"number_of_votes": req.Quantity,
		"voter_email":     req.VoterEmail,
		"voter_name":      req.VoterName,
		"voter_phone":     req.VoterPhone,
		"direct_charge":   req.Channel.IsMobileMoney(),
		"network":         string(req.Channel),
	}

	url := fmt.Sprintf("%s/votes/nominees/%s", c.config.BaseURL, req.NomineeID)
	env, err := c.post(ctx, url, payload, uuid.NewString())
	if err != nil {
		return model.Initiation{}, err
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "Payment could not be initiated"
		}
		return model.InitiationFailed(msg), nil
	}

	var data initiateData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return model.Initiation{}, fmt.Errorf("failed to decode initiate response: %w", err)
		}
	}

	// The branch is data driven: checkout_url wins, then any direct-charge
	// indicator, otherwise the payload shape is unknown and the attempt fails.
	switch {
	case data.CheckoutURL != "":
		return model.Redirect(data.CheckoutURL), nil
	case data.Reference != "" && (data.IsDirect || req.Channel.IsMobileMoney()):
		return model.PollableCharge(data.Reference), nil
	default:
		c.logger.WithChannel(string(req.Channel)).Warn("Initiate response carried neither checkout_url nor direct-charge reference")
		return model.InitiationFailed("Payment could not be initiated"), nil
	}
}

// Confirm asks the remote service whether the attempt has settled. The
// endpoint is read-only and idempotent, so repeated calls are safe.
func (c *Client) Confirm(ctx context.Context, query ConfirmQuery) (*Confirmation, error) {
	url := c.config.BaseURL + "/votes/confirm"
	env, err := c.post(ctx, url, query, "")
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return &Confirmation{Status: model.StatusFailed}, nil
	}

	var data confirmData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode confirm response: %w", err)
		}
	}

	confirmation := &Confirmation{}
	switch data.Status {
	case "paid":
		confirmation.Status = model.StatusPaid
		confirmation.Details = &model.VoteDetails{
			Nominee:       data.Nominee,
			Category:      data.Category,
			Award:         data.Award,
			NumberOfVotes: data.NumberOfVotes,
		}
	case "failed":
		confirmation.Status = model.StatusFailed
	default:
		confirmation.Status = model.StatusPendingAuthorization
	}
	return confirmation, nil
}

// post performs the actual HTTP request against the platform API. The
// initiate call carries an idempotency key so a duplicated submission
// cannot double-charge; confirm is read-only and passes none.
func (c *Client) post(ctx context.Context, url string, payload any, idempotencyKey string) (*envelope, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "votepay-gateway/1.0")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &env, nil
}
