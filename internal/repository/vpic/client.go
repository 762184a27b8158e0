package vpic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"workorder/internal/domain/entity"
)

const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api"

// Client decodes VINs through the NHTSA vPIC API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

type decodeResponse struct {
	Count   int            `json:"Count"`
	Message string         `json:"Message"`
	Results []decodeResult `json:"Results"`
}

type decodeResult struct {
	Make              string `json:"Make"`
	Model             string `json:"Model"`
	ModelYear         string `json:"ModelYear"`
	Manufacturer      string `json:"Manufacturer"`
	VehicleType       string `json:"VehicleType"`
	EngineCylinders   string `json:"EngineCylinders"`
	FuelTypePrimary   string `json:"FuelTypePrimary"`
	TransmissionStyle string `json:"TransmissionStyle"`
	ErrorCode         string `json:"ErrorCode"`
	ErrorText         string `json:"ErrorText"`
}

func (r decodeResult) info() entity.VehicleInfo {
	return entity.VehicleInfo{
		Make:            r.Make,
		Model:           r.Model,
		Year:            r.ModelYear,
		Manufacturer:    r.Manufacturer,
		VehicleType:     r.VehicleType,
		EngineCylinders: r.EngineCylinders,
		FuelType:        r.FuelTypePrimary,
		Transmission:    r.TransmissionStyle,
	}
}

// Decode sends vin as given and maps the returned fields verbatim. A response
// that identifies no make, model or manufacturer is reported as not found.
func (c *Client) Decode(ctx context.Context, vin string) (entity.VehicleInfo, error) {
	endpoint := fmt.Sprintf("%s/vehicles/DecodeVinValues/%s?format=json", c.BaseURL, url.PathEscape(vin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return entity.VehicleInfo{}, entity.CollaboratorFailure("vpic request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return entity.VehicleInfo{}, entity.CollaboratorFailure("vpic decode", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return entity.VehicleInfo{}, entity.ErrVehicleNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return entity.VehicleInfo{}, entity.CollaboratorFailure("vpic decode", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return entity.VehicleInfo{}, entity.CollaboratorFailure("vpic decode body", err)
	}
	if len(body.Results) == 0 {
		return entity.VehicleInfo{}, entity.ErrVehicleNotFound
	}

	r := body.Results[0]
	if r.Make == "" && r.Model == "" && r.Manufacturer == "" {
		return entity.VehicleInfo{}, entity.ErrVehicleNotFound
	}
	return r.info(), nil
}
