// Package planfile reads training plans written as YAML.
//
// A plan file looks like:
//
//	name: Gran Fondo Build
//	weeks:
//	  - number: 1
//	    sessions:
//	      - index: 1
//	        date: 2024-06-03
//	        type: Endurance
//	        duration_minutes: 90
//	        description: Z2 steady
//	        done: true
//
// The optional done flag is the older completion format. Sessions marked done
// become legacy ledger entries that the completion merger upgrades once a
// matching activity is found.
package planfile

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"endurance-coach/internal/analysis"
)

// DateLayout is the format of session dates
const DateLayout = "2006-01-02"

// ErrEmptyPlan is returned for a plan file without sessions
var ErrEmptyPlan = errors.New("plan has no sessions")

type planFile struct {
	Name  string     `yaml:"name"`
	Weeks []weekFile `yaml:"weeks"`
}

type weekFile struct {
	Number   int           `yaml:"number"`
	Sessions []sessionFile `yaml:"sessions"`
}

type sessionFile struct {
	Index           int    `yaml:"index"`
	Date            string `yaml:"date"`
	Type            string `yaml:"type"`
	DurationMinutes int    `yaml:"duration_minutes"`
	Description     string `yaml:"description"`
	Done            bool   `yaml:"done"`
}

// Result is a parsed plan plus the completions recorded in the file
type Result struct {
	Plan   analysis.Plan
	Legacy map[analysis.SessionKey]analysis.CompletionRecord
}

// Load reads and parses the plan file at path
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML plan. Session indexes default to their position in
// the week and session types are matched case-insensitively.
func Parse(data []byte) (*Result, error) {
	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing plan yaml: %w", err)
	}

	res := &Result{
		Plan:   analysis.Plan{Name: strings.TrimSpace(pf.Name)},
		Legacy: make(map[analysis.SessionKey]analysis.CompletionRecord),
	}
	if res.Plan.Name == "" {
		res.Plan.Name = "Training Plan"
	}

	seen := make(map[analysis.SessionKey]bool)
	total := 0
	for wi, w := range pf.Weeks {
		number := w.Number
		if number == 0 {
			number = wi + 1
		}
		week := analysis.PlanWeek{Number: number}

		for si, sf := range w.Sessions {
			ps, err := sf.toSession(number, si+1)
			if err != nil {
				return nil, fmt.Errorf("week %d session %d: %w", number, si+1, err)
			}
			key := ps.Key()
			if seen[key] {
				return nil, fmt.Errorf("duplicate session %s", key)
			}
			seen[key] = true

			week.Sessions = append(week.Sessions, ps)
			if sf.Done {
				res.Legacy[key] = analysis.CompletionRecord{Completed: true, Legacy: true}
			}
			total++
		}
		res.Plan.Weeks = append(res.Plan.Weeks, week)
	}

	if total == 0 {
		return nil, ErrEmptyPlan
	}
	return res, nil
}

func (sf sessionFile) toSession(week, position int) (analysis.PlannedSession, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(sf.Date))
	if err != nil {
		return analysis.PlannedSession{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", sf.Date)
	}

	index := sf.Index
	if index == 0 {
		index = position
	}

	ps := analysis.PlannedSession{
		Week:            week,
		Index:           index,
		Date:            date,
		Type:            ParseSessionType(sf.Type),
		DurationMinutes: sf.DurationMinutes,
		Description:     strings.TrimSpace(sf.Description),
	}
	if err := analysis.ValidateSession(ps); err != nil {
		return analysis.PlannedSession{}, err
	}
	return ps, nil
}

// ParseSessionType maps a case-insensitive name onto a known session type.
// Unknown names are returned unchanged so validation can report them.
func ParseSessionType(s string) analysis.SessionType {
	name := strings.TrimSpace(s)
	for _, st := range analysis.SessionTypes {
		if strings.EqualFold(string(st), name) {
			return st
		}
	}
	switch strings.ToLower(name) {
	case "vo2", "vo2 max", "vo2-max":
		return analysis.SessionVO2Max
	case "interval":
		return analysis.SessionIntervals
	}
	return analysis.SessionType(name)
}
