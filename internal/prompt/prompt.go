// Package prompt renders the system and task prompts for both planning phases.
package prompt

import (
	"bytes"
	"encoding/json"
	"text/template"
	"time"

	"github.com/tripforge/trip-planner/internal/model"
)

var (
	elicitationTmpl   = template.Must(template.New("elicitation").Parse(elicitationText))
	itinerarySysTmpl  = template.Must(template.New("itinerary_system").Parse(itinerarySystemText))
	itineraryTaskTmpl = template.Must(template.New("itinerary_task").Parse(itineraryTaskText))
)

// Elicitation renders the preference-gathering system prompt for the given day.
func Elicitation(now time.Time) (string, error) {
	return render(elicitationTmpl, map[string]string{
		"Date": now.Format("2006-01-02"),
		"Day":  now.Weekday().String(),
	})
}

// ItinerarySystem renders the construction-phase system prompt.
func ItinerarySystem(prefs model.Preferences) (string, error) {
	data, err := indent(prefs)
	if err != nil {
		return "", err
	}
	return render(itinerarySysTmpl, map[string]string{"Preferences": data})
}

// ItineraryTask renders the opening user instruction of the construction phase.
func ItineraryTask(prefs model.Preferences) (string, error) {
	data, err := indent(prefs)
	if err != nil {
		return "", err
	}
	return render(itineraryTaskTmpl, map[string]string{"Preferences": data})
}

func indent(prefs model.Preferences) (string, error) {
	if prefs == nil {
		prefs = model.Preferences{}
	}
	b, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
