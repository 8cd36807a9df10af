package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Lead priorities as assigned by the scoring backend
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Score thresholds used to colour the score column
const (
	ScoreThresholdHigh   = 70
	ScoreThresholdMedium = 40
)

// Lead is a scored prospect as returned by GET /api/leads.
// The dashboard never mutates a lead.
type Lead struct {
	Score       float64 `json:"score"`
	Priority    string  `json:"priority"`
	Name        string  `json:"name"`
	Company     string  `json:"company"`
	Email       string  `json:"email"`
	Industry    string  `json:"industry"`
	CompanySize string  `json:"company_size"`
	Budget      Amount  `json:"budget"`
	Phone       string  `json:"phone,omitempty"`
	Website     string  `json:"website,omitempty"`
}

// IsKnownPriority reports whether p is one of HIGH, MEDIUM or LOW
func IsKnownPriority(p string) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Amount is a monetary value the backend may send either as a JSON number
// or as a string ("50000", "$50,000"). Text keeps the original string when
// it could not be read as a number.
type Amount struct {
	Value float64
	Text  string
}

// NewAmount returns a numeric Amount
func NewAmount(v float64) Amount {
	return Amount{Value: v}
}

// IsNumeric reports whether the amount was read as a number
func (a Amount) IsNumeric() bool {
	return a.Text == ""
}

// String formats the amount without a currency symbol
func (a Amount) String() string {
	if !a.IsNumeric() {
		return a.Text
	}
	return strconv.FormatFloat(a.Value, 'f', -1, 64)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = Amount{}
		return nil
	}

	if data[0] != '"' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("invalid budget %s: %w", data, err)
		}
		*a = Amount{Value: v}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid budget %s: %w", data, err)
	}

	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		*a = Amount{}
		return nil
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		*a = Amount{Text: s}
		return nil
	}
	*a = Amount{Value: v}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.IsNumeric() {
		return json.Marshal(a.Text)
	}
	return json.Marshal(a.Value)
}
