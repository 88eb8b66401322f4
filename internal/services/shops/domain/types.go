// Package domain holds shop types shared across modules
package domain

import "time"

// Shop is one installed store with its credential and settings
type Shop struct {
	Domain        string
	AccessToken   string
	AutoCheck     bool
	CheckOnUpdate bool
	CODOnly       bool
	Tagging       bool
	AddNote       bool

	// tier cutoffs in percent; zero means use the service defaults
	MediumThreshold float64
	SafeThreshold   float64

	InstalledAt time.Time
	UpdatedAt     time.Time
	UninstalledAt *time.Time
}

// Installed reports whether the shop is currently installed
func (s Shop) Installed() bool { return s.UninstalledAt == nil }

// Settings is the merchant-tunable slice of a Shop
type Settings struct {
	AutoCheck       bool    `json:"auto_check"`
	CheckOnUpdate   bool    `json:"check_on_update"`
	CODOnly         bool    `json:"cod_only"`
	Tagging         bool    `json:"tagging"`
	AddNote         bool    `json:"add_note"`
	MediumThreshold float64 `json:"medium_threshold"`
	SafeThreshold   float64 `json:"safe_threshold"`
}

// SettingsOf extracts the tunable slice of the shop record
func (s Shop) SettingsOf() Settings {
	return Settings{
		AutoCheck:       s.AutoCheck,
		CheckOnUpdate:   s.CheckOnUpdate,
		CODOnly:         s.CODOnly,
		Tagging:         s.Tagging,
		AddNote:         s.AddNote,
		MediumThreshold: s.MediumThreshold,
		SafeThreshold:   s.SafeThreshold,
	}
}
