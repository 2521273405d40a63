/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchParticipantsSendsNoCacheHeaders(t *testing.T) {
	var got http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Anna","club":"SK Turm","birthYear":1990,"eloDwz":1500,"registrationDate":"2026-09-01T08:30:00Z"}]`))
	}))
	defer srv.Close()

	cfg := newTestConfig()
	cfg.participantsURL = srv.URL

	participants, err := newUpstream(cfg).fetchParticipants(context.Background())
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "Anna", participants[0].Name)

	assert.Equal(t, "no-cache", got.Get("Cache-Control"))
	assert.Equal(t, "no-cache", got.Get("Pragma"))
}

func TestFetchParticipantsErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  bool
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			status: true,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			status: true,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"not": "a list"`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			cfg := newTestConfig()
			cfg.participantsURL = srv.URL

			participants, err := newUpstream(cfg).fetchParticipants(context.Background())
			require.Error(t, err)
			assert.Nil(t, participants)
			assert.Equal(t, tt.status, errors.Is(err, errUpstreamStatus))
		})
	}
}

func TestUpstreamTimeout(t *testing.T) {
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := newTestConfig()
	cfg.participantsURL = srv.URL
	cfg.registerURL = srv.URL
	cfg.requestTimeout = 50 * time.Millisecond

	api := newUpstream(cfg)

	start := time.Now()
	_, err := api.fetchParticipants(context.Background())
	require.Error(t, err)

	err = api.register(context.Background(), validSubmission().Payload())
	require.Error(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRegisterStatus(t *testing.T) {
	for _, tt := range []struct {
		status  int
		wantErr bool
	}{
		{status: http.StatusOK},
		{status: http.StatusCreated},
		{status: http.StatusNoContent},
		{status: http.StatusBadRequest, wantErr: true},
		{status: http.StatusConflict, wantErr: true},
		{status: http.StatusServiceUnavailable, wantErr: true},
	} {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			cfg := newTestConfig()
			cfg.registerURL = srv.URL

			err := newUpstream(cfg).register(context.Background(), validSubmission().Payload())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errUpstreamStatus)
				return
			}
			assert.NoError(t, err)
		})
	}
}
