package main

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mpesapay/internal/checkout"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

type application struct {
	config config
	logger *zap.SugaredLogger
	api    checkout.API
	tmpl   *template.Template
}

type config struct {
	addr   string
	env    string
	apiURL string
}

func newApplication(cfg config, logger *zap.SugaredLogger, api checkout.API) (*application, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/payment.html")
	if err != nil {
		return nil, err
	}
	return &application{config: cfg, logger: logger, api: api, tmpl: tmpl}, nil
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", app.payPageHandler)
	r.Post("/pay", app.payHandler)
	r.Post("/details", app.detailsHandler)
	r.Post("/verify", app.verifyHandler)

	return r
}

// restoreFlow rebuilds the form state carried in hidden fields.
func (app *application) restoreFlow(r *http.Request, step checkout.Step) *checkout.Flow {
	f := checkout.NewFlow(app.api)
	f.Step = step
	f.Phone = r.PostFormValue("phone")
	f.Amount = r.PostFormValue("amount")
	if id := r.PostFormValue("checkout_id"); id != "" {
		f.CheckoutRequestID = id
	}
	f.VerifyID = r.PostFormValue("verify_id")
	return f
}

func (app *application) payPageHandler(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, checkout.NewFlow(app.api))
}

func (app *application) payHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	f := app.restoreFlow(r, checkout.StepPay)

	if err := f.Pay(r.Context()); err != nil {
		app.logger.Warnw("pay rejected", "error", err.Error())
	}
	app.render(w, r, f)
}

func (app *application) detailsHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	f := app.restoreFlow(r, checkout.StepDetails)

	event := checkout.EventGoVerify
	if r.PostFormValue("action") == "back" {
		event = checkout.EventBack
	}
	if err := f.Fire(event); err != nil {
		app.logger.Warnw("navigation rejected", "step", f.Step.String(), "event", event.String(), "error", err.Error())
	}
	app.render(w, r, f)
}

func (app *application) verifyHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	f := app.restoreFlow(r, checkout.StepVerify)

	var err error
	if r.PostFormValue("action") == "back" {
		err = f.Fire(checkout.EventBack)
	} else {
		err = f.Verify(r.Context())
	}
	if err != nil {
		app.logger.Warnw("verify rejected", "error", err.Error())
	}
	app.render(w, r, f)
}

func (app *application) render(w http.ResponseWriter, r *http.Request, f *checkout.Flow) {
	var buf bytes.Buffer
	if err := app.tmpl.ExecuteTemplate(&buf, "payment.html", f); err != nil {
		app.logger.Errorw("render failed", "path", r.URL.Path, "error", err.Error())
		http.Error(w, "the server encountered a problem", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 70,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("web ui has started", "addr", app.config.addr, "env", app.config.env, "api", app.config.apiURL)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdown; err != nil {
		return err
	}

	app.logger.Infow("web ui has stopped", "addr", app.config.addr)

	return nil
}
