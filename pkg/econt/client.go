package econt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/parcelflow-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/parcelflow-backend/pkg/errors"
	"github.com/angelmondragon/parcelflow-backend/pkg/logger"
)

const (
	defaultBaseURL = "https://ee.econt.com/services"

	pathGetCities       = "Nomenclatures/NomenclaturesService.getCities.json"
	pathGetOffices      = "Nomenclatures/NomenclaturesService.getOffices.json"
	pathGetStreets      = "Nomenclatures/NomenclaturesService.getStreets.json"
	pathCreateLabel     = "Shipments/LabelService.createLabel.json"
	pathDeleteLabels    = "Shipments/LabelService.deleteLabels.json"
	pathShipmentStatus  = "Shipments/ShipmentService.getShipmentStatuses.json"
	responseBodyLimit   = 1 << 20
	errorBodyPreviewLen = 1024
)

var (
	errCredentialsRequired = errors.New("econt username and password are required")
)

// Client is the stateless HTTP wrapper around the Econt JSON services.
// Authentication is static per deployment; every call sends the configured
// basic-auth credentials.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Econt base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Econt client from the deployment configuration.
func NewClient(cfg config.EcontConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	username := strings.TrimSpace(cfg.Username)
	password := strings.TrimSpace(cfg.Password)
	if username == "" || password == "" {
		return nil, errCredentialsRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		username:   username,
		password:   password,
		logg:       logg,
	}
	if cfg.BaseURL != "" {
		client.baseURL = strings.TrimSpace(cfg.BaseURL)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// GetCities lists the carrier's serviced cities for a country.
func (c *Client) GetCities(ctx context.Context, countryCode string) ([]City, error) {
	req := getCitiesRequest{CountryCode: normalizeCountry(countryCode)}
	var resp getCitiesResponse
	if _, _, err := c.post(ctx, pathGetCities, req, &resp); err != nil {
		return nil, err
	}
	return resp.Cities, nil
}

// GetOffices lists pickup offices, optionally filtered by city.
func (c *Client) GetOffices(ctx context.Context, params OfficesParams) ([]Office, error) {
	req := getOfficesRequest{
		CountryCode: normalizeCountry(params.CountryCode),
		CityID:      params.CityID,
	}
	var resp getOfficesResponse
	if _, _, err := c.post(ctx, pathGetOffices, req, &resp); err != nil {
		return nil, err
	}
	return resp.Offices, nil
}

// GetStreets lists named streets for a city.
func (c *Client) GetStreets(ctx context.Context, cityID int) ([]Street, error) {
	if cityID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city id is required")
	}
	req := getStreetsRequest{CityID: cityID}
	var resp getStreetsResponse
	if _, _, err := c.post(ctx, pathGetStreets, req, &resp); err != nil {
		return nil, err
	}
	return resp.Streets, nil
}

// CalculateShipment performs a dry-run label creation returning the price and
// discount breakdown. Nothing is persisted on the carrier side.
func (c *Client) CalculateShipment(ctx context.Context, label Label) (*Calculation, error) {
	req := createLabelRequest{Label: label, Mode: modeCalculate}
	var resp createLabelResponse
	if _, _, err := c.post(ctx, pathCreateLabel, req, &resp); err != nil {
		return nil, err
	}
	return &Calculation{
		TotalPrice:      resp.Label.TotalPrice,
		SenderDueAmount: resp.Label.SenderDueAmount,
		Currency:        resp.Label.Currency,
		Discounts:       resp.Label.Discounts,
	}, nil
}

// CreateShipment registers the shipment with the carrier and returns the
// assigned waybill plus the raw exchange for diagnostics.
func (c *Client) CreateShipment(ctx context.Context, label Label) (*CreatedShipment, error) {
	req := createLabelRequest{Label: label, Mode: modeCreate}
	var resp createLabelResponse
	rawReq, rawResp, err := c.post(ctx, pathCreateLabel, req, &resp)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Label.ShipmentNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "carrier returned no shipment number")
	}
	return &CreatedShipment{
		ShipmentNumber: resp.Label.ShipmentNumber,
		PDFURL:         resp.Label.PDFURL,
		TotalPrice:     resp.Label.TotalPrice,
		Currency:       resp.Label.Currency,
		RawRequest:     string(rawReq),
		RawResponse:    string(rawResp),
	}, nil
}

// DeleteShipment removes an unregistered-with-courier label by waybill number.
func (c *Client) DeleteShipment(ctx context.Context, waybill string) error {
	if strings.TrimSpace(waybill) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "waybill number is required")
	}
	req := deleteLabelsRequest{ShipmentNumbers: []string{waybill}}
	var resp deleteLabelsResponse
	if _, _, err := c.post(ctx, pathDeleteLabels, req, &resp); err != nil {
		return err
	}
	return nil
}

// TrackShipment fetches the tracking status for a single waybill.
func (c *Client) TrackShipment(ctx context.Context, waybill string) (*ShipmentStatus, error) {
	statuses, err := c.TrackShipments(ctx, []string{waybill})
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "carrier returned no status for waybill")
	}
	return &statuses[0], nil
}

// TrackShipments fetches tracking statuses for many waybills in one call.
// Per-item carrier errors are dropped from the result; a partial response is
// a valid response.
func (c *Client) TrackShipments(ctx context.Context, waybills []string) ([]ShipmentStatus, error) {
	cleaned := make([]string, 0, len(waybills))
	for _, w := range waybills {
		if trimmed := strings.TrimSpace(w); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one waybill number is required")
	}

	req := shipmentStatusesRequest{ShipmentNumbers: cleaned}
	var resp shipmentStatusesResponse
	_, rawResp, err := c.post(ctx, pathShipmentStatus, req, &resp)
	if err != nil {
		return nil, err
	}

	statuses := make([]ShipmentStatus, 0, len(resp.ShipmentStatuses))
	for _, entry := range resp.ShipmentStatuses {
		if entry.Error != nil && entry.Error.Message != "" {
			c.log(ctx, "error", "track_shipments", map[string]any{
				"waybill": entry.Status.ShipmentNumber,
				"error":   entry.Error.Message,
			})
			continue
		}
		status := entry.Status
		status.RawResponse = string(rawResp)
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// post issues a JSON request and decodes the carrier response, surfacing
// non-2xx statuses and embedded application errors as dependency failures.
func (c *Client) post(ctx context.Context, path string, payload any, out any) ([]byte, []byte, error) {
	if c == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeDependency, "econt client not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal carrier request")
	}

	url := c.buildURL(path)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build carrier request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.username, c.password)

	c.log(ctx, "request", path, map[string]any{"bytes": len(body)})

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return body, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute carrier request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return body, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read carrier response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview := raw
		if len(preview) > errorBodyPreviewLen {
			preview = preview[:errorBodyPreviewLen]
		}
		return body, raw, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(preview))),
			"carrier request failed")
	}

	// Econt embeds application faults in 200 responses.
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Type != "" {
		return body, raw, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("%s: %s", apiErr.Type, apiErr.Message),
			"carrier rejected request")
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return body, raw, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode carrier response")
		}
	}

	c.log(ctx, "response", path, map[string]any{"status": resp.StatusCode})
	return body, raw, nil
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"))
}

func (c *Client) log(ctx context.Context, phase, operation string, fields map[string]any) {
	if c.logg == nil {
		return
	}
	merged := map[string]any{"carrier": "econt", "phase": phase, "operation": operation}
	for k, v := range fields {
		merged[k] = v
	}
	ctx = c.logg.WithFields(ctx, merged)
	c.logg.Info(ctx, "carrier.call")
}

func normalizeCountry(code string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return "BGR"
	}
	return trimmed
}
