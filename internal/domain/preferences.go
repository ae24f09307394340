package domain

import "fmt"

// Preferences is replaced as a whole on every change; there is no partial patch.
type Preferences struct {
	MinPrice       int         `json:"minPrice"`
	MaxPrice       int         `json:"maxPrice"`
	Beds           int         `json:"beds"`
	CommuteMode    CommuteMode `json:"commuteMode"`
	MaxCommuteTime int         `json:"maxCommuteTime"`
	Liveliness     int         `json:"liveliness"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		MinPrice:       500,
		MaxPrice:       2000,
		Beds:           2,
		CommuteMode:    Biking,
		MaxCommuteTime: 20,
		Liveliness:     3,
	}
}

// Validate is applied wherever preferences enter the system (form edits,
// extraction results, stored values). An inverted price range is a caller
// error here even though the scorer itself evaluates it literally.
func (p Preferences) Validate() error {
	if p.MinPrice < 0 || p.MaxPrice < 0 {
		return fmt.Errorf("%w: negative price bound", ErrInvalidPreferences)
	}
	if p.MinPrice > p.MaxPrice {
		return fmt.Errorf("%w: minPrice %d > maxPrice %d", ErrInvalidPreferences, p.MinPrice, p.MaxPrice)
	}
	if p.Beds < 1 || p.Beds > 4 {
		return fmt.Errorf("%w: beds %d out of [1,4]", ErrInvalidPreferences, p.Beds)
	}
	if !p.CommuteMode.IsValid() {
		return fmt.Errorf("%w: unknown commute mode %q", ErrInvalidPreferences, p.CommuteMode)
	}
	if p.MaxCommuteTime < 0 {
		return fmt.Errorf("%w: negative maxCommuteTime", ErrInvalidPreferences)
	}
	if p.Liveliness < 1 || p.Liveliness > 5 {
		return fmt.Errorf("%w: liveliness %d out of [1,5]", ErrInvalidPreferences, p.Liveliness)
	}
	return nil
}
