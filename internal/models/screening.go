package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Severity labels shared by both instruments.
const (
	SeverityMinimal          = "Minimal"
	SeverityMild             = "Mild"
	SeverityModerate         = "Moderate"
	SeverityModeratelySevere = "Moderately Severe"
	SeveritySevere           = "Severe"
)

const (
	PHQ9Questions = 9
	GAD7Questions = 7
	MaxAnswer     = 3
)

// Answers is the per-question response list stored as jsonb.
type Answers []int

func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Answers) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan answers: unsupported type %T", src)
	}
	return json.Unmarshal(raw, a)
}

// Sum adds up all answers.
func (a Answers) Sum() int {
	total := 0
	for _, v := range a {
		total += v
	}
	return total
}

// PHQSeverity maps a PHQ-9 total (0..27) to its severity band.
func PHQSeverity(score int) string {
	switch {
	case score > 19:
		return SeveritySevere
	case score > 14:
		return SeverityModeratelySevere
	case score > 9:
		return SeverityModerate
	case score > 4:
		return SeverityMild
	default:
		return SeverityMinimal
	}
}

// GADSeverity maps a GAD-7 total (0..21) to its severity band.
func GADSeverity(score int) string {
	switch {
	case score >= 15:
		return SeveritySevere
	case score >= 10:
		return SeverityModerate
	case score >= 5:
		return SeverityMild
	default:
		return SeverityMinimal
	}
}

// PHQTest is a stored PHQ-9 submission.
type PHQTest struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	Score         int       `db:"score" json:"score"`
	Answers       Answers   `db:"answers" json:"answers"`
	SeverityLevel string    `db:"severity_level" json:"severity_level"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// GADTest is a stored GAD-7 submission.
type GADTest struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	Score          int       `db:"score" json:"score"`
	Answers        Answers   `db:"answers" json:"answers"`
	Interpretation string    `db:"interpretation" json:"interpretation"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
