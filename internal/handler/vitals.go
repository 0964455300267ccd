package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"ontology/internal/domain"
	"ontology/internal/envelope"
	"ontology/internal/logging"
	"ontology/internal/validate"
)

var vitalRules = []validate.Rule{
	validate.Required("name", validate.NonEmptyString),
	validate.Required("value", validate.Number),
	validate.Optional("rating", validate.String),
	validate.Optional("id", validate.String),
}

// VitalAck is the data of a web-vitals response
type VitalAck struct {
	Received bool `json:"received"`
}

// ReportVital logs a web-vitals measurement and records it in the
// vitals histogram. No provider call is made.
func (h *Handler) ReportVital(w http.ResponseWriter, r *http.Request) {
	body, e := readBody(w, r)
	if e != nil {
		h.writeFailure(w, e)
		return
	}
	if e := validate.Check(body, vitalRules); e != nil {
		h.writeFailure(w, e)
		return
	}

	var v domain.Vital
	if err := json.Unmarshal(body, &v); err != nil {
		h.writeFailure(w, envelope.NewError(envelope.CodeBadRequest, "invalid request body: "+err.Error()))
		return
	}

	logging.FromContext(r.Context(), h.log).WithFields(logrus.Fields{
		"metric":          v.Name,
		"value":           v.Value,
		"rating":          v.NormalizedRating(),
		"navigation_type": v.NavigationType,
		"url":             v.URL,
	}).Info("web vital")

	if h.metrics != nil {
		h.metrics.ObserveVital(v.Name, v.NormalizedRating(), v.Value)
	}

	h.writeSuccess(w, http.StatusOK, VitalAck{Received: true}, cacheNone)
}
