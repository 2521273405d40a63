/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

const (
	minBirthYear = 1920
	minNameRunes = 2

	submitLabel     = "Anmeldung senden"
	submittingLabel = "Wird gesendet..."

	successDismissAfter = 5 * time.Second

	msgInvalidName    = "Bitte geben Sie einen gültigen Namen ein."
	msgInvalidClub    = "Bitte geben Sie einen gültigen Vereinsnamen ein."
	msgInvalidYear    = "Bitte geben Sie ein gültiges Geburtsjahr ein."
	msgInvalidEmail   = "Bitte geben Sie eine gültige E-Mail-Adresse ein."
	msgPrivacy        = "Bitte akzeptieren Sie die Datenschutzerklärung und AGB."
	msgSubmitted      = "Anmeldung erfolgreich gesendet! Sie erhalten eine Bestätigung per E-Mail."
	msgSubmitFailed   = "Fehler beim Senden der Anmeldung. Bitte versuchen Sie es erneut."
	statusTypeSuccess = "success"
	statusTypeError   = "error"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type registrationSink interface {
	register(ctx context.Context, payload RegistrationPayload) error
}

// RegistrationSubmission is the trimmed form input of one submit action.
type RegistrationSubmission struct {
	Name      string
	Club      string
	BirthYear string
	EloDwz    string
	Email     string
	Privacy   bool
}

// RegistrationPayload is the JSON body sent to the registration endpoint.
type RegistrationPayload struct {
	Name      string  `json:"name"`
	Club      string  `json:"club"`
	BirthYear int     `json:"birthYear"`
	EloDwz    *int    `json:"eloDwz"`
	Email     *string `json:"email"`
}

// ValidationError names the first field that failed validation, along with
// the message shown to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func submissionFromForm(r *http.Request) RegistrationSubmission {
	return RegistrationSubmission{
		Name:      strings.TrimSpace(r.PostFormValue("name")),
		Club:      strings.TrimSpace(r.PostFormValue("club")),
		BirthYear: strings.TrimSpace(r.PostFormValue("birthYear")),
		EloDwz:    strings.TrimSpace(r.PostFormValue("eloDwz")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Privacy:   r.PostFormValue("privacy") != "",
	}
}

// Validate checks the submission in a fixed order and reports the first
// failure. Birth years are accepted from 1920 up to the year of now.
func (s RegistrationSubmission) Validate(now time.Time) error {
	if utf8.RuneCountInString(s.Name) < minNameRunes {
		return &ValidationError{Field: "name", Message: msgInvalidName}
	}

	if utf8.RuneCountInString(s.Club) < minNameRunes {
		return &ValidationError{Field: "club", Message: msgInvalidClub}
	}

	year, err := strconv.Atoi(s.BirthYear)
	if err != nil || year < minBirthYear || year > now.Year() {
		return &ValidationError{Field: "birthYear", Message: msgInvalidYear}
	}

	if !emailPattern.MatchString(s.Email) {
		return &ValidationError{Field: "email", Message: msgInvalidEmail}
	}

	if !s.Privacy {
		return &ValidationError{Field: "privacy", Message: msgPrivacy}
	}

	return nil
}

// Payload converts a validated submission for the wire. An empty or
// non-numeric rating is sent as null.
func (s RegistrationSubmission) Payload() RegistrationPayload {
	year, _ := strconv.Atoi(s.BirthYear)

	p := RegistrationPayload{
		Name:      s.Name,
		Club:      s.Club,
		BirthYear: year,
	}

	if elo, err := strconv.Atoi(s.EloDwz); err == nil {
		p.EloDwz = &elo
	}

	if s.Email != "" {
		email := s.Email
		p.Email = &email
	}

	return p
}

// submitControl mirrors the form's submit button: disabled with a
// progress label while any submission is in flight.
type submitControl struct {
	mu       sync.Mutex
	inFlight int
}

type submitControlState struct {
	Disabled bool   `json:"disabled"`
	Label    string `json:"label"`
}

func (c *submitControl) begin() {
	c.mu.Lock()
	c.inFlight++
	c.mu.Unlock()
}

func (c *submitControl) end() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
}

func (c *submitControl) State() submitControlState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight > 0 {
		return submitControlState{Disabled: true, Label: submittingLabel}
	}

	return submitControlState{Disabled: false, Label: submitLabel}
}

// statusMessage is shown next to the form. Success messages carry a
// dismissal delay; errors persist.
type statusMessage struct {
	Text         string
	Type         string
	DismissAfter time.Duration
}

// formView is what the registration template renders.
type formView struct {
	Values  RegistrationSubmission
	Status  *statusMessage
	Invalid string
	Control submitControlState
}

// RegistrationForm validates submissions and forwards them upstream.
type RegistrationForm struct {
	cfg     *Config
	sink    registrationSink
	metrics *metrics
	control submitControl
	now     func() time.Time
}

func newRegistrationForm(cfg *Config, sink registrationSink, m *metrics) *RegistrationForm {
	return &RegistrationForm{
		cfg:     cfg,
		sink:    sink,
		metrics: m,
		now:     time.Now,
	}
}

// Submit validates s and, if it passes, sends it upstream. The submit
// control is restored whether or not the request succeeds.
func (f *RegistrationForm) Submit(ctx context.Context, s RegistrationSubmission) error {
	id := uuid.NewString()

	if err := s.Validate(f.now()); err != nil {
		logf(f.cfg, "REGISTER: Submission %s rejected: %v", id, err)
		f.metrics.submissions.WithLabelValues("invalid").Inc()

		return err
	}

	f.control.begin()
	defer f.control.end()

	startTime := time.Now()

	if err := f.sink.register(ctx, s.Payload()); err != nil {
		logf(f.cfg, "ERROR: Submission %s failed after %s: %v",
			id,
			time.Since(startTime).Round(time.Microsecond),
			err,
		)
		f.metrics.submissions.WithLabelValues("error").Inc()

		return err
	}

	logf(f.cfg, "REGISTER: Submission %s accepted in %s",
		id,
		time.Since(startTime).Round(time.Microsecond),
	)
	f.metrics.submissions.WithLabelValues("ok").Inc()

	return nil
}

func (f *RegistrationForm) Control() submitControlState {
	return f.control.State()
}

func serveRegistrationPage(cfg *Config, form *RegistrationForm, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		view := formView{Control: form.Control()}

		writeRegistrationPage(cfg, w, r, http.StatusOK, view, errs)
	}
}

func serveRegistrationSubmit(cfg *Config, form *RegistrationForm, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := r.ParseForm(); err != nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			securityHeaders(cfg, w)
			w.WriteHeader(http.StatusBadRequest)

			_, _ = w.Write([]byte(newPage(cfg, "Bad Request", "Das Formular konnte nicht gelesen werden.")))

			return
		}

		submission := submissionFromForm(r)

		err := form.Submit(r.Context(), submission)

		var (
			status = http.StatusOK
			view   = formView{}
		)

		switch verr := err.(type) {
		case nil:
			view.Status = &statusMessage{Text: msgSubmitted, Type: statusTypeSuccess, DismissAfter: successDismissAfter}
		case *ValidationError:
			status = http.StatusUnprocessableEntity
			view.Values = submission
			view.Invalid = verr.Field
			view.Status = &statusMessage{Text: verr.Message, Type: statusTypeError}
		default:
			status = http.StatusBadGateway
			view.Values = submission
			view.Status = &statusMessage{Text: msgSubmitFailed, Type: statusTypeError}
		}

		view.Control = form.Control()

		writeRegistrationPage(cfg, w, r, status, view, errs)
	}
}

func writeRegistrationPage(cfg *Config, w http.ResponseWriter, r *http.Request, status int, view formView, errs chan<- error) {
	startTime := time.Now()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	written, err := renderTemplate(w, "register_page", newPageData(cfg, "Anmeldung", view))
	if err != nil {
		errs <- err

		return
	}

	logf(cfg, "SERVE: Registration page [%d] (%s) to %s in %s",
		status,
		humanReadableSize(written),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)
}

func serveSubmitStatus(cfg *Config, form *RegistrationForm, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := writeJSON(w, http.StatusOK, form.Control()); err != nil {
			errs <- err

			return
		}
	}
}

func registerRegistration(cfg *Config, path string, form *RegistrationForm, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/", serveRegistrationPage(cfg, form, errs))
	mux.GET(cfg.prefix+path, serveRegistrationPage(cfg, form, errs))
	mux.POST(cfg.prefix+path, serveRegistrationSubmit(cfg, form, errs))
	mux.GET(cfg.prefix+path+"/status", serveSubmitStatus(cfg, form, errs))
}
