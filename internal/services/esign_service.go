// internal/services/esign_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/accessramp/ramp-backend/internal/config"
)

// ESignProvider is the slice of the e-signature API the agreement workflow
// needs: create a signature request, get back a document id and sign page.
type ESignProvider interface {
	CreateDocument(req *CreateDocumentRequest) (*CreateDocumentResult, error)
}

type DocumentSigner struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile,omitempty"`
}

type PlaceholderField struct {
	APIKey string `json:"api_key"`
	Value  string `json:"value"`
}

type CreateDocumentRequest struct {
	TemplateID        string             `json:"template_id"`
	Title             string             `json:"title"`
	Signers           []DocumentSigner   `json:"signers"`
	PlaceholderFields []PlaceholderField `json:"placeholder_fields,omitempty"`
	Metadata          string             `json:"metadata,omitempty"`
	WebhookURL        string             `json:"webhook_url,omitempty"`
	ExpireInHours     int                `json:"expire_in_hours,omitempty"`
}

type CreateDocumentResult struct {
	DocumentID  string `json:"document_id"`
	SignPageURL string `json:"sign_page_url"`
}

// ESignWebhookPayload is the provider's callback body.
type ESignWebhookPayload struct {
	Status string `json:"status"`
	Data   struct {
		Contract struct {
			ID          string     `json:"id"`
			Metadata    string     `json:"metadata"`
			FinalizedAt *time.Time `json:"finalized_at"`
			PDFURL      string     `json:"contract_pdf_url"`
		} `json:"contract"`
		Signer *struct {
			Events []struct {
				Event     string     `json:"event"`
				Timestamp *time.Time `json:"timestamp"`
			} `json:"events"`
		} `json:"signer"`
	} `json:"data"`
}

type ESignService struct {
	config     *config.Config
	httpClient *http.Client
}

func NewESignService(config *config.Config) *ESignService {
	return &ESignService{
		config:     config,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type createContractResponse struct {
	Status string `json:"status"`
	Data   struct {
		Contract struct {
			ID      string `json:"id"`
			Signers []struct {
				ID          string `json:"id"`
				SignPageURL string `json:"sign_page_url"`
			} `json:"signers"`
		} `json:"contract"`
	} `json:"data"`
}

func (s *ESignService) CreateDocument(req *CreateDocumentRequest) (*CreateDocumentResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signature request: %w", err)
	}

	url := fmt.Sprintf("%s/contracts?token=%s", s.config.ESign.BaseURL, s.config.ESign.APIKey)
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build signature request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("e-signature request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("e-signature request failed: status %d", resp.StatusCode)
	}

	var parsed createContractResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode e-signature response: %w", err)
	}

	if parsed.Data.Contract.ID == "" || len(parsed.Data.Contract.Signers) == 0 {
		return nil, fmt.Errorf("e-signature response missing contract or signer")
	}

	return &CreateDocumentResult{
		DocumentID:  parsed.Data.Contract.ID,
		SignPageURL: parsed.Data.Contract.Signers[0].SignPageURL,
	}, nil
}
