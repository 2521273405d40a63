/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *Config {
	return &Config{
		bind:            "127.0.0.1",
		port:            8080,
		participantsURL: "http://upstream.test/api/participants/approved",
		registerURL:     "http://upstream.test/api/register",
		refreshInterval: time.Hour,
		requestTimeout:  2 * time.Second,
		tournamentName:  "Testturnier",
	}
}

// fakeSource serves a fixed participant list or error.
type fakeSource struct {
	mu           sync.Mutex
	participants []Participant
	err          error
	calls        int
}

func (f *fakeSource) set(participants []Participant, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.participants = participants
	f.err = err
}

func (f *fakeSource) fetchParticipants(context.Context) ([]Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]Participant(nil), f.participants...), nil
}

func intPtr(v int) *int { return &v }

func participant(name, club string, elo *int) Participant {
	return Participant{
		Name:             name,
		Club:             club,
		BirthYear:        1990,
		EloDwz:           elo,
		RegistrationDate: time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
	}
}

// newTestServer wires the full router against the given upstream URL.
func newTestServer(t *testing.T, cfg *Config, source participantSource, sink registrationSink) (*httptest.Server, *ParticipantsList, *RegistrationForm) {
	t.Helper()

	m := newMetrics()
	list := newParticipantsList(cfg, source, m)
	form := newRegistrationForm(cfg, sink, m)

	errs := make(chan error, 64)
	srv := httptest.NewServer(newRouter(cfg, list, form, m, errs))
	t.Cleanup(srv.Close)

	return srv, list, form
}

func parseDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	return doc
}

// parseRows wraps a tbody fragment so the parser keeps its rows.
func parseRows(t *testing.T, html string) *goquery.Selection {
	t.Helper()

	return parseDocument(t, "<table><tbody>"+html+"</tbody></table>").Find("tbody tr")
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var b strings.Builder
	_, err = io.Copy(&b, resp.Body)
	require.NoError(t, err)

	return resp, b.String()
}
