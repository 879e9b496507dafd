package controllers

import (
	"net/http"

	"github.com/tallyhq/tally-backend/api/responses"
	"github.com/tallyhq/tally-backend/api/validators"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
	"github.com/tallyhq/tally-backend/pkg/gemini"
	"github.com/tallyhq/tally-backend/pkg/logger"
)

type generateRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1,max=4000"`
}

type generateResponse struct {
	Output string `json:"output"`
}

// AIGenerate proxies a copywriting prompt to the text model.
func AIGenerate(gen gemini.Generator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gen == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ai generator unavailable"))
			return
		}

		if _, err := actorStoreID(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body generateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		output, err := gen.GenerateText(r.Context(), body.Prompt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "text generation failed"))
			return
		}

		responses.WriteSuccess(w, generateResponse{Output: output})
	}
}
