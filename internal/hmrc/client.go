package hmrc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/logging"
	"github.com/rgehrsitz/satax/internal/saga"
)

const acceptHeader = "application/vnd.hmrc.1.0+json"

// HTTPClientSource supplies an authorised HTTP client. *OAuthService satisfies it.
type HTTPClientSource interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
}

// Client submits final declarations. It implements saga.Submitter.
type Client struct {
	submitURL string
	auth      HTTPClientSource
	logger    logging.Logger
}

// NewClient creates a submission client posting to submitURL.
func NewClient(submitURL string, auth HTTPClientSource, logger logging.Logger) *Client {
	return &Client{submitURL: submitURL, auth: auth, logger: logging.OrNop(logger)}
}

type submissionRequest struct {
	TaxYear     string             `json:"taxYear"`
	Declaration declarationPayload `json:"declaration"`
	Liability   liabilityPayload   `json:"liability"`
}

type declarationPayload struct {
	ID            string    `json:"id"`
	CompletedAt   time.Time `json:"completedAt"`
	Confirmations []string  `json:"confirmations"`
}

type liabilityPayload struct {
	NetProfit      string `json:"netProfit"`
	IncomeTax      string `json:"incomeTax"`
	NIClass2       string `json:"class2Nics"`
	NIClass4       string `json:"class4Nics"`
	TotalLiability string `json:"totalLiability"`
}

type submissionResponse struct {
	Reference string `json:"chargeReference"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Submit posts the declaration and liability. A 4xx response other than an
// authorisation failure is a rejection Outcome; transport errors, auth
// failures and 5xx responses are errors.
func (c *Client) Submit(ctx context.Context, decl *declaration.SubmissionDeclaration, result *domain.TaxLiabilityResult) (saga.Outcome, error) {
	if decl == nil || result == nil {
		return saga.Outcome{}, errors.New("declaration and liability are required")
	}
	if c.submitURL == "" {
		return saga.Outcome{}, errors.New("HMRC submission URL is not configured")
	}

	body, err := json.Marshal(newSubmissionRequest(decl, result))
	if err != nil {
		return saga.Outcome{}, err
	}
	httpClient, err := c.auth.HTTPClient(ctx)
	if err != nil {
		return saga.Outcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL, bytes.NewReader(body))
	if err != nil {
		return saga.Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptHeader)

	c.logger.Debugf("POST %s declaration=%s", c.submitURL, decl.ID)
	resp, err := httpClient.Do(req)
	if err != nil {
		return saga.Outcome{}, fmt.Errorf("submission request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return saga.Outcome{}, fmt.Errorf("failed to read submission response: %w", err)
	}
	var parsed submissionResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode < 300 {
			return saga.Outcome{}, fmt.Errorf("failed to decode submission response: %w", err)
		}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return saga.Outcome{Accepted: true, Reference: parsed.Reference}, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return saga.Outcome{}, fmt.Errorf("%w: HMRC returned %d", ErrNotConnected, resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return saga.Outcome{Accepted: false, Message: rejectionMessage(resp.StatusCode, parsed)}, nil
	default:
		return saga.Outcome{}, fmt.Errorf("HMRC returned %d: %s", resp.StatusCode, rejectionMessage(resp.StatusCode, parsed))
	}
}

func newSubmissionRequest(decl *declaration.SubmissionDeclaration, result *domain.TaxLiabilityResult) submissionRequest {
	keys := make([]string, len(decl.Confirmations))
	for i, c := range decl.Confirmations {
		keys[i] = string(c.Key)
	}
	return submissionRequest{
		TaxYear: decl.TaxYear.APIFormat(),
		Declaration: declarationPayload{
			ID:            decl.ID,
			CompletedAt:   decl.CompletedAt,
			Confirmations: keys,
		},
		Liability: liabilityPayload{
			NetProfit:      result.NetProfit.StringFixed(2),
			IncomeTax:      result.TotalIncomeTax.StringFixed(2),
			NIClass2:       result.NIClass2.StringFixed(2),
			NIClass4:       result.NIClass4.StringFixed(2),
			TotalLiability: result.TotalLiability.StringFixed(2),
		},
	}
}

func rejectionMessage(status int, r submissionResponse) string {
	switch {
	case r.Code != "" && r.Message != "":
		return r.Code + ": " + r.Message
	case r.Message != "":
		return r.Message
	case r.Code != "":
		return r.Code
	default:
		return http.StatusText(status)
	}
}

var _ saga.Submitter = (*Client)(nil)
