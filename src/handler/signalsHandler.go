package handler

import (
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"qppf/src/algorithm"
	"qppf/src/model"
)

type signalProvider interface {
	Symbol() string
	LatestSignal() *model.Signal
	LatestAssessment() *model.RiskAssessment
	State() *algorithm.State
}

type resetter interface {
	Reset()
}

// LatestSignalHandler serves the most recent signal and risk assessment.
// Returns 404 until the first scoring cycle completes.
func LatestSignalHandler(provider signalProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sig := provider.LatestSignal()
		if sig == nil {
			http.Error(w, "no signal yet", http.StatusNotFound)
			return
		}

		writeJSON(w, map[string]interface{}{
			"signal":     sig,
			"assessment": provider.LatestAssessment(),
		})
	}
}

// StatusHandler serves the algorithm's per-symbol state snapshot.
func StatusHandler(provider signalProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"symbol": provider.Symbol(),
			"state":  provider.State().Snapshot(),
		})
	}
}

// ResetHandler clears the algorithm state and retained outputs.
func ResetHandler(target resetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target.Reset()
		logger.Info("algorithm state reset via API")
		writeJSON(w, map[string]string{"status": "reset"})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
