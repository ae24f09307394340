package domain

import (
	"fmt"
)

type CommuteMode string

const (
	Walking CommuteMode = "walking"
	Biking  CommuteMode = "biking"
	Driving CommuteMode = "driving"
	Bus     CommuteMode = "bus"
)

// CommuteModes lists every mode a listing must carry a commute time for.
var CommuteModes = []CommuteMode{Walking, Biking, Driving, Bus}

func (m CommuteMode) IsValid() bool {
	for _, v := range CommuteModes {
		if m == v {
			return true
		}
	}
	return false
}

type Listing struct {
	ID             string              `json:"id" yaml:"id"`
	Name           string              `json:"name" yaml:"name"`
	Area           string              `json:"area" yaml:"area"`
	Price          int                 `json:"price" yaml:"price"`
	Beds           int                 `json:"beds" yaml:"beds"`
	Baths          float64             `json:"baths" yaml:"baths"`
	Furnished      bool                `json:"furnished" yaml:"furnished"`
	PetFriendly    bool                `json:"petFriendly" yaml:"petFriendly"`
	CommuteMinutes map[CommuteMode]int `json:"commuteMinutes" yaml:"commuteMinutes"`
	Liveliness     int                 `json:"liveliness" yaml:"liveliness"`
	Amenities      []string            `json:"amenities,omitempty" yaml:"amenities"`
	Image          string              `json:"image,omitempty" yaml:"image"`
}

// Validate checks the per-listing catalog invariants.
func (l Listing) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("listing: empty id")
	}
	if l.Price <= 0 {
		return fmt.Errorf("listing %s: price must be > 0", l.ID)
	}
	if l.Liveliness < 1 || l.Liveliness > 5 {
		return fmt.Errorf("listing %s: liveliness %d out of [1,5]", l.ID, l.Liveliness)
	}
	for _, m := range CommuteModes {
		v, ok := l.CommuteMinutes[m]
		if !ok {
			return fmt.Errorf("listing %s: missing %s commute time", l.ID, m)
		}
		if v < 0 {
			return fmt.Errorf("listing %s: negative %s commute time", l.ID, m)
		}
	}
	return nil
}

var livelinessLabels = []string{"Very Quiet", "Quiet", "Moderate", "Lively", "Very Lively"}

// LivelinessLabel returns the display label for a liveliness level, or "" when out of range.
func LivelinessLabel(level int) string {
	if level < 1 || level > len(livelinessLabels) {
		return ""
	}
	return livelinessLabels[level-1]
}

type ScoredListing struct {
	Listing
	Score   int           `json:"score"`
	Reasons []ScoreReason `json:"reasons,omitempty"`
}

type ScoreReason struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Points  int    `json:"points"`
}
