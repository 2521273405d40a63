/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var errUpstreamStatus = errors.New("unexpected upstream status")

// upstream talks to the remote tournament API. Every request is bounded by
// timeout, whether or not the caller's context carries a deadline.
type upstream struct {
	client          *http.Client
	participantsURL string
	registerURL     string
	timeout         time.Duration
}

func newUpstream(cfg *Config) *upstream {
	return &upstream{
		client:          &http.Client{Timeout: cfg.requestTimeout},
		participantsURL: cfg.participantsURL,
		registerURL:     cfg.registerURL,
		timeout:         cfg.requestTimeout,
	}
}

func (u *upstream) fetchParticipants(ctx context.Context) ([]Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.participantsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build participants request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch participants: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch participants: %w: %d", errUpstreamStatus, resp.StatusCode)
	}

	var participants []Participant
	if err := json.NewDecoder(resp.Body).Decode(&participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}

	return participants, nil
}

func (u *upstream) register(ctx context.Context, payload RegistrationPayload) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.registerURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit registration: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("submit registration: %w: %d", errUpstreamStatus, resp.StatusCode)
	}

	return nil
}
