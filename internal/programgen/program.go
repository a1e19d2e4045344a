// Package programgen builds training-split prompts from the volume landmark
// table and turns a language model's reply into a structured program.
package programgen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/claude/liftlog/internal/analytics"
)

var (
	// ErrMissingFields is returned when frequency, sex or goals are absent.
	ErrMissingFields = errors.New("missing required fields: frequency, sex, goals")
	// ErrNotConfigured is returned when no completion backend is available.
	ErrNotConfigured = errors.New("program generator not configured")
	// ErrParseProgram is returned when the model reply holds no decodable program.
	ErrParseProgram = errors.New("failed to parse program data from model response")
)

// DefaultTrainingLevel is used when the request leaves training_level empty.
const DefaultTrainingLevel = "intermediate"

// Request describes the lifter a program is generated for.
type Request struct {
	Frequency     int    `json:"frequency"`
	Sex           string `json:"sex"`
	Goals         string `json:"goals"`
	WeakPoints    string `json:"weakPoints,omitempty"`
	TrainingLevel string `json:"training_level,omitempty"`
}

// Validate checks the required fields and fills in defaults.
func (r *Request) Validate() error {
	if r.Frequency <= 0 || strings.TrimSpace(r.Sex) == "" || strings.TrimSpace(r.Goals) == "" {
		return ErrMissingFields
	}
	if r.TrainingLevel == "" {
		r.TrainingLevel = DefaultTrainingLevel
	}
	return nil
}

// ProgramExercise is one prescribed exercise within a day.
type ProgramExercise struct {
	Name     string `json:"name"`
	Sets     int    `json:"sets"`
	RepRange string `json:"rep_range"`
	Notes    string `json:"notes"`
}

// ProgramDay is one training day of the split.
type ProgramDay struct {
	DayNumber int               `json:"day_number"`
	Focus     string            `json:"focus"`
	Exercises []ProgramExercise `json:"exercises"`
}

// GeneratedProgram is the structured program returned by the model.
type GeneratedProgram struct {
	ProgramName string       `json:"program_name"`
	SplitType   string       `json:"split_type"`
	Days        []ProgramDay `json:"days"`
	Rationale   string       `json:"rationale"`
}

// landmarksJSON encodes the landmark table as an indented object keyed by
// muscle group, keeping the table's row order.
func landmarksJSON() ([]byte, error) {
	all := analytics.Landmarks()
	var b bytes.Buffer
	b.WriteString("{\n")
	for i, lm := range all {
		key, err := json.Marshal(lm.MuscleGroup)
		if err != nil {
			return nil, err
		}
		val, err := json.MarshalIndent(lm, "  ", "  ")
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "  %s: %s", key, val)
		if i < len(all)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// BuildPrompt renders the coaching prompt for req. The landmark table is
// embedded as indented JSON keyed by muscle group.
func BuildPrompt(req Request) (string, error) {
	landmarks, err := landmarksJSON()
	if err != nil {
		return "", fmt.Errorf("encoding landmarks: %w", err)
	}

	weak := req.WeakPoints
	if weak == "" {
		weak = "None specified"
	}
	level := req.TrainingLevel
	if level == "" {
		level = DefaultTrainingLevel
	}

	var b strings.Builder
	b.WriteString("You are an expert strength and hypertrophy coach. Generate a personalized training program based on Renaissance Periodization principles.\n\n")
	b.WriteString("USER PROFILE:\n")
	fmt.Fprintf(&b, "- Training Frequency: %d days per week\n", req.Frequency)
	fmt.Fprintf(&b, "- Sex: %s\n", req.Sex)
	fmt.Fprintf(&b, "- Training Level: %s\n", level)
	fmt.Fprintf(&b, "- Goals: %s\n", req.Goals)
	fmt.Fprintf(&b, "- Weak Points/Priority Areas: %s\n\n", weak)
	b.WriteString("VOLUME LANDMARKS (sets per week per muscle group):\n")
	b.Write(landmarks)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	fmt.Fprintf(&b, "1. Create a %d-day training split optimized for the user's goals\n", req.Frequency)
	b.WriteString(`2. Respect the volume landmarks - stay within MAV range (Maximum Adaptive Volume)
3. For weak points, use upper MAV range; for other muscles, use middle MAV range
4. Include compound movements first, then isolation work
5. Specify sets (not including warm-up), rep ranges, and brief exercise notes
6. Choose appropriate split type: PPL (Push/Pull/Legs), Upper-Lower, or Full Body

Return ONLY valid JSON in this exact format (no markdown, no extra text):
{
  "program_name": "Descriptive name for this program",
  "split_type": "PPL" | "Upper-Lower" | "Full Body",
  "days": [
    {
      "day_number": 1,
      "focus": "e.g., Push, Pull, Legs, Upper, Lower, Full Body",
      "exercises": [
        {
          "name": "Exercise name",
          "sets": number,
          "rep_range": "e.g., 8-12",
          "notes": "Brief technique or emphasis notes"
        }
      ]
    }
  ],
  "rationale": "1-2 sentence explanation of why this split works for the user"
}`)
	return b.String(), nil
}

// jsonObject matches from the first '{' to the last '}' so fenced or
// prefixed replies still decode.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON returns the outermost brace-delimited span of text, or the
// whole text when it contains none.
func ExtractJSON(text string) string {
	if m := jsonObject.FindString(text); m != "" {
		return m
	}
	return text
}

// ParseProgram decodes a model reply into a GeneratedProgram.
func ParseProgram(text string) (*GeneratedProgram, error) {
	var p GeneratedProgram
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseProgram, err)
	}
	return &p, nil
}
