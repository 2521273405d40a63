/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/text/cases"
)

type participantSource interface {
	fetchParticipants(ctx context.Context) ([]Participant, error)
}

// RankedParticipant is a participant together with its 1-based position
// after sorting by rating.
type RankedParticipant struct {
	Participant
	Position int `json:"position"`
}

// participantsView is what the templates render.
type participantsView struct {
	Total int
	Club  string
	Rows  []RankedParticipant
}

// ParticipantsList polls the participants endpoint and keeps the most recent
// result in memory. The list is replaced wholesale on every refresh; a failed
// refresh leaves it empty.
type ParticipantsList struct {
	cfg      *Config
	source   participantSource
	interval time.Duration
	metrics  *metrics
	live     *liveHub

	refreshMu sync.Mutex

	mu           sync.RWMutex
	participants []Participant
	refreshedAt  time.Time
}

func newParticipantsList(cfg *Config, source participantSource, m *metrics) *ParticipantsList {
	return &ParticipantsList{
		cfg:      cfg,
		source:   source,
		interval: cfg.refreshInterval,
		metrics:  m,
		live:     newLiveHub(cfg),
	}
}

// Run loads the list once, then refreshes it every interval until ctx is
// done.
func (l *ParticipantsList) Run(ctx context.Context) {
	l.Refresh(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Refresh(ctx)
		case <-ctx.Done():
			l.live.closeAll()

			logf(l.cfg, "STOP: Participant refresh")

			return
		}
	}
}

// Refresh replaces the list with a fresh copy from the source. Calls are
// serialized, so a slow refresh is never overwritten by an older one.
func (l *ParticipantsList) Refresh(ctx context.Context) {
	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()

	startTime := time.Now()

	participants, err := l.source.fetchParticipants(ctx)
	if err != nil {
		logf(l.cfg, "ERROR: Failed to load participants: %v", err)
		participants = nil
		l.metrics.refreshes.WithLabelValues("error").Inc()
	} else {
		logf(l.cfg, "REFRESH: Loaded %d participants in %s",
			len(participants),
			time.Since(startTime).Round(time.Microsecond),
		)
		l.metrics.refreshes.WithLabelValues("ok").Inc()
	}

	l.mu.Lock()
	l.participants = participants
	l.refreshedAt = time.Now()
	l.mu.Unlock()

	l.metrics.participants.Set(float64(len(participants)))

	l.live.broadcast(l)
}

// Participants returns a copy of the current list in source order.
func (l *ParticipantsList) Participants() []Participant {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.participants)
}

// View ranks the current list, filtered by club when club is not empty.
func (l *ParticipantsList) View(club string) participantsView {
	participants := l.Participants()

	return participantsView{
		Total: len(participants),
		Club:  club,
		Rows:  rankParticipants(filterByClub(participants, club)),
	}
}

// rankParticipants sorts by descending rating, absent ratings counting as 0.
// Equal ratings keep their relative order.
func rankParticipants(participants []Participant) []RankedParticipant {
	sorted := slices.Clone(participants)

	slices.SortStableFunc(sorted, func(a, b Participant) int {
		return cmp.Compare(b.rating(), a.rating())
	})

	ranked := make([]RankedParticipant, len(sorted))
	for i, p := range sorted {
		ranked[i] = RankedParticipant{Participant: p, Position: i + 1}
	}

	return ranked
}

// filterByClub keeps participants whose club contains query, ignoring case.
// An empty query keeps everyone.
func filterByClub(participants []Participant, query string) []Participant {
	if query == "" {
		return participants
	}

	fold := cases.Fold()
	needle := fold.String(query)

	var filtered []Participant
	for _, p := range participants {
		if strings.Contains(fold.String(p.Club), needle) {
			filtered = append(filtered, p)
		}
	}

	return filtered
}

func serveParticipantsPage(cfg *Config, list *ParticipantsList, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		view := list.View(r.URL.Query().Get("club"))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		written, err := renderTemplate(w, "participants_page", newPageData(cfg, "Teilnehmer", view))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Participants page with %d rows (%s) to %s in %s",
			len(view.Rows),
			humanReadableSize(written),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveParticipantRows(cfg *Config, list *ParticipantsList, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		view := list.View(r.URL.Query().Get("club"))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		if _, err := renderTemplate(w, "rows", view.Rows); err != nil {
			errs <- err

			return
		}
	}
}

func serveParticipantsJSON(cfg *Config, list *ParticipantsList, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		view := list.View(r.URL.Query().Get("club"))

		securityHeaders(cfg, w)

		if err := writeJSON(w, http.StatusOK, view.Rows); err != nil {
			errs <- err

			return
		}
	}
}

func registerParticipants(cfg *Config, path string, list *ParticipantsList, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+path, serveParticipantsPage(cfg, list, errs))
	mux.GET(cfg.prefix+path+"/rows", serveParticipantRows(cfg, list, errs))
	mux.GET(cfg.prefix+path+"/ws", serveLive(cfg, list))
	mux.GET(cfg.prefix+path+".json", serveParticipantsJSON(cfg, list, errs))
}
