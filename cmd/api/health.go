package main

import (
	"net/http"
)

// healthCheckHandler godoc
//
//	@Summary		Healthcheck
//	@Description	Healthcheck endpoint
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	string	"ok"
//	@Security		BasicAuth
//	@Router			/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":    "ok",
		"env":       app.config.env,
		"mpesa_env": mpesaEnvName(app.config.mpesa.IsProduction()),
		"version":   version,
	}

	if err := writeJSON(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}

func mpesaEnvName(production bool) string {
	if production {
		return "production"
	}
	return "sandbox"
}
