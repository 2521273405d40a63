/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarNotConfigured(t *testing.T) {
	srv, _, _ := newTestServer(t, newTestConfig(), &fakeSource{}, nil)

	resp, _ := get(t, srv.URL+"/tournament.ics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCalendarFeed(t *testing.T) {
	cfg := newTestConfig()
	cfg.tournamentStart = "2026-11-07T09:30"
	cfg.tournamentLocation = "Vereinsheim, Turmstraße 1"
	require.NoError(t, cfg.validate())

	srv, _, _ := newTestServer(t, cfg, &fakeSource{}, nil)

	resp, body := get(t, srv.URL+"/tournament.ics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar"))

	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "BEGIN:VEVENT")
	assert.Contains(t, body, "SUMMARY:Testturnier")
	assert.Contains(t, body, "LOCATION:")
	assert.Contains(t, body, "/register")

	// The event UID is derived from the tournament, not the request.
	again := tournamentCalendar(cfg, "http://example.test/register")
	uid := func(s string) string {
		for _, line := range strings.Split(s, "\n") {
			if strings.HasPrefix(line, "UID:") {
				return strings.TrimSpace(line)
			}
		}
		return ""
	}
	assert.NotEmpty(t, uid(body))
	assert.Equal(t, uid(body), uid(again))
}

func TestRegistrationURL(t *testing.T) {
	cfg := newTestConfig()
	cfg.prefix = "/schach"

	r, err := http.NewRequest(http.MethodGet, "http://turnier.example/schach/qr", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://turnier.example/schach/register", registrationURL(cfg, r))

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://turnier.example/schach/register", registrationURL(cfg, r))

	cfg.publicURL = "https://anmeldung.example/"
	assert.Equal(t, "https://anmeldung.example/", registrationURL(cfg, r))
}

func TestQRCode(t *testing.T) {
	srv, _, _ := newTestServer(t, newTestConfig(), &fakeSource{}, nil)

	resp, body := get(t, srv.URL+"/qr")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix([]byte(body), []byte("\x89PNG\r\n\x1a\n")))
}

func TestStaticRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t, newTestConfig(), &fakeSource{}, nil)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{path: "/healthz", contentType: "text/plain", contains: "Ok"},
		{path: "/version", contentType: "text/plain", contains: "anmeldung v" + releaseVersion},
		{path: "/robots.txt", contentType: "text/plain", contains: "Disallow: /"},
		{path: "/assets/app.css", contentType: "text/css", contains: "@media (max-width: 768px)"},
		{path: "/assets/app.js", contentType: "text/javascript", contains: "clubFilter"},
		{path: "/favicon.svg", contentType: "image/svg+xml", contains: "<svg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv.URL+tt.path)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), tt.contentType), resp.Header.Get("Content-Type"))
			assert.Contains(t, body, tt.contains)
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		})
	}
}

func TestMissingAsset(t *testing.T) {
	srv, _, _ := newTestServer(t, newTestConfig(), &fakeSource{}, nil)

	resp, _ := get(t, srv.URL+"/assets/missing.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsCountRefreshes(t *testing.T) {
	src := &fakeSource{}
	src.set([]Participant{participant("a", "A", nil)}, nil)

	srv, list, _ := newTestServer(t, newTestConfig(), src, nil)
	list.Refresh(context.Background())

	resp, body := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, body, `anmeldung_refresh_total{result="ok"} 1`)
	assert.Contains(t, body, "anmeldung_participants 1")
}

func TestPrefixedRoutes(t *testing.T) {
	cfg := newTestConfig()
	cfg.prefix = "/schach"

	srv, _, _ := newTestServer(t, cfg, &fakeSource{}, nil)

	resp, body := get(t, srv.URL+"/schach/register")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/schach/assets/app.css"`)

	resp, _ = get(t, srv.URL+"/register")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHumanReadableSize(t *testing.T) {
	assert.Equal(t, "999 B", humanReadableSize(999))
	assert.Equal(t, "1.5 kB", humanReadableSize(1500))
	assert.Equal(t, "2.0 MB", humanReadableSize(2_000_000))
}

func TestProfileRoutes(t *testing.T) {
	cfg := newTestConfig()
	cfg.profile = true

	srv, _, _ := newTestServer(t, cfg, &fakeSource{}, nil)

	for _, path := range []string{"/pprof/", "/pprof/heap", "/pprof/cmdline"} {
		resp, _ := get(t, srv.URL+path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, _ := get(t, srv.URL+"/debug/pprof/heap")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileRoutesDisabled(t *testing.T) {
	srv, _, _ := newTestServer(t, newTestConfig(), &fakeSource{}, nil)

	resp, _ := get(t, srv.URL+"/pprof/heap")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
