/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

// tournamentCalendar builds a single-event calendar for the configured
// tournament. The event UID is stable across restarts.
func tournamentCalendar(cfg *Config, link string) string {
	uid := uuid.NewSHA1(uuid.NameSpaceURL, []byte(cfg.tournamentName+"|"+cfg.start.Format(time.RFC3339))).String()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Seednode//anmeldung v" + releaseVersion + "//DE")

	event := cal.AddEvent(uid)
	event.SetDtStampTime(time.Now().UTC())
	event.SetStartAt(cfg.start)
	event.SetEndAt(cfg.end)
	event.SetSummary(cfg.tournamentName)
	if cfg.tournamentLocation != "" {
		event.SetLocation(cfg.tournamentLocation)
	}
	event.SetURL(link)

	return cal.Serialize()
}

func serveCalendar(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if cfg.start.IsZero() {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="tournament.ics"`)
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(tournamentCalendar(cfg, registrationURL(cfg, r))))
		if err != nil {
			errs <- err

			return
		}
	}
}
