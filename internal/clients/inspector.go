package clients

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"

	"github.com/scanwell/sbomscan/internal/models"
)

const serviceName = "inspector2"

// InspectorClient talks to the Amazon Inspector SBOM scan API. The SBOM scan
// operations are not surfaced by the Go SDK service clients, so requests are
// SigV4-signed REST calls against the regional endpoint.
type InspectorClient struct {
	httpClient  *http.Client
	endpoint    string
	region      string
	credentials aws.CredentialsProvider
	signer      *v4.Signer
	now         func() time.Time
}

// NewInspectorClient creates a client from a resolved AWS config.
func NewInspectorClient(cfg aws.Config, timeout time.Duration) *InspectorClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &InspectorClient{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    fmt.Sprintf("https://inspector2.%s.amazonaws.com", cfg.Region),
		region:      cfg.Region,
		credentials: cfg.Credentials,
		signer:      v4.NewSigner(),
		now:         time.Now,
	}
}

// createScanRequest is the wire shape of a scan submission.
type createScanRequest struct {
	Name       string `json:"name"`
	SBOMFormat string `json:"sbomFormat"`
	SBOMURL    string `json:"sbomUrl"`
}

type createScanResponse struct {
	SBOMScanID string `json:"sbomScanId"`
}

// getScanResponse is the wire shape of a scan record.
type getScanResponse struct {
	SBOMScanID  string     `json:"sbomScanId"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	SBOMURL     string     `json:"sbomUrl"`
	CompletedAt *time.Time `json:"completedAt"`
}

type listFindingsRequest struct {
	FilterCriteria filterCriteria `json:"filterCriteria"`
	MaxResults     int            `json:"maxResults,omitempty"`
	NextToken      string         `json:"nextToken,omitempty"`
}

type filterCriteria struct {
	SBOMScanARN stringFilter `json:"sbomScanArn"`
}

type stringFilter struct {
	Comparison string `json:"comparison"`
	Value      string `json:"value"`
}

type listFindingsResponse struct {
	Findings  []findingJSON `json:"findings"`
	NextToken string        `json:"nextToken"`
}

// findingJSON mirrors the backend finding record; only the fields the
// classifier and reports consume are decoded.
type findingJSON struct {
	FindingARN      string     `json:"findingArn"`
	Title           string     `json:"title"`
	Severity        string     `json:"severity"`
	FirstObservedAt *time.Time `json:"firstObservedAt"`
	LastObservedAt  *time.Time `json:"lastObservedAt"`

	PackageVulnerabilityDetails struct {
		VulnerabilityID    string `json:"vulnerabilityId"`
		VulnerablePackages []struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"vulnerablePackages"`
		CVSS []struct {
			BaseScore float64 `json:"baseScore"`
		} `json:"cvss"`
	} `json:"packageVulnerabilityDetails"`
	FixAvailable string `json:"fixAvailable"`
}

func (j findingJSON) toModel() models.Finding {
	f := models.Finding{
		ID:              lastSegment(j.FindingARN),
		Title:           j.Title,
		Severity:        models.ParseSeverity(j.Severity),
		VulnerabilityID: j.PackageVulnerabilityDetails.VulnerabilityID,
		FixAvailable:    j.FixAvailable == "YES",
		FirstObservedAt: j.FirstObservedAt,
		LastObservedAt:  j.LastObservedAt,
	}
	if pkgs := j.PackageVulnerabilityDetails.VulnerablePackages; len(pkgs) > 0 {
		f.PackageName = pkgs[0].Name
		f.PackageVersion = pkgs[0].Version
	}
	if cvss := j.PackageVulnerabilityDetails.CVSS; len(cvss) > 0 {
		f.CVSSScore = cvss[0].BaseScore
	}
	return f
}

func lastSegment(arn string) string {
	for i := len(arn) - 1; i >= 0; i-- {
		if arn[i] == '/' {
			return arn[i+1:]
		}
	}
	return arn
}

// CreateSbomScan submits a new scan and returns the backend job identifier.
func (c *InspectorClient) CreateSbomScan(ctx context.Context, req models.ScanRequest) (string, error) {
	body := createScanRequest{
		Name:       req.Name,
		SBOMFormat: string(req.Format),
		SBOMURL:    req.SBOMURL,
	}

	var resp createScanResponse
	if err := c.do(ctx, http.MethodPost, "/sbom-scans", body, &resp); err != nil {
		return "", err
	}
	if resp.SBOMScanID == "" {
		return "", fmt.Errorf("backend returned empty scan id for %q", req.Name)
	}
	return resp.SBOMScanID, nil
}

// GetSbomScan fetches the current job record for a scan id.
func (c *InspectorClient) GetSbomScan(ctx context.Context, scanID string) (models.ScanJob, error) {
	var resp getScanResponse
	if err := c.do(ctx, http.MethodGet, "/sbom-scans/"+scanID, nil, &resp); err != nil {
		return models.ScanJob{}, err
	}

	return models.ScanJob{
		ID:          resp.SBOMScanID,
		Name:        resp.Name,
		Status:      models.ScanStatus(resp.Status),
		SBOMURL:     resp.SBOMURL,
		CompletedAt: resp.CompletedAt,
	}, nil
}

// GetStatus fetches only the lifecycle status for a scan id.
func (c *InspectorClient) GetStatus(ctx context.Context, scanID string) (models.ScanStatus, error) {
	job, err := c.GetSbomScan(ctx, scanID)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

// ListFindings fetches every finding associated with a scan, following
// pagination tokens until exhausted.
func (c *InspectorClient) ListFindings(ctx context.Context, scanID string) ([]models.Finding, error) {
	var findings []models.Finding

	req := listFindingsRequest{
		FilterCriteria: filterCriteria{
			SBOMScanARN: stringFilter{Comparison: "EQUALS", Value: scanID},
		},
		MaxResults: 100,
	}

	for {
		var resp listFindingsResponse
		if err := c.do(ctx, http.MethodPost, "/findings/list", req, &resp); err != nil {
			return nil, err
		}
		for _, j := range resp.Findings {
			findings = append(findings, j.toModel())
		}
		if resp.NextToken == "" {
			return findings, nil
		}
		req.NextToken = resp.NextToken
	}
}

// do signs and executes one API call, retrying transient failures. Client
// errors (4xx) are authoritative answers from the backend and are returned
// immediately as *APIError.
func (c *InspectorClient) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoff(attempt)); err != nil {
				return err
			}
		}

		data, err := c.doOnce(ctx, method, path, payload)
		if err != nil {
			if !isTransient(err) {
				return err
			}
			lastErr = err
			continue
		}

		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
			}
		}
		return nil
	}
	return fmt.Errorf("%s %s failed after %d attempts: %w", method, path, maxAttempts, lastErr)
}

func (c *InspectorClient) doOnce(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	creds, err := c.credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	hash := sha256.Sum256(payload)
	if err := c.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(hash[:]), serviceName, c.region, c.now()); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{err: err}
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.Message
		}
		if apiErr.Transient() {
			return nil, &transientError{err: apiErr}
		}
		return nil, apiErr
	}

	return data, nil
}
