// Package domain defines the directory record types shared by the remote
// source and the persistent store. Field names and JSON tags follow the
// upstream directory API payloads.
package domain

import (
	"strings"
	"time"
)

// Coordinates is a geographic point attached to an agent address.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Address is the postal address value object nested in an Agent.
type Address struct {
	Street      string      `json:"address"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	PostalCode  string      `json:"postalCode"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
}

// Company is the employer value object nested in an Agent.
type Company struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Title      string `json:"title"`
}

// Hair captures the physical hair traits of an agent.
type Hair struct {
	Color string `json:"color"`
	Type  string `json:"type"`
}

// Agent is one directory record. ID is the sole identity: re-inserting an
// agent with the same ID replaces every other field, including CachedAt.
type Agent struct {
	ID         int64   `json:"id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	MaidenName string  `json:"maidenName"`
	Age        int     `json:"age"`
	Gender     string  `json:"gender"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Username   string  `json:"username"`
	BirthDate  string  `json:"birthDate"`
	Image      string  `json:"image"`
	BloodGroup string  `json:"bloodGroup"`
	Height     float64 `json:"height"`
	Weight     float64 `json:"weight"`
	EyeColor   string  `json:"eyeColor"`
	Hair       Hair    `json:"hair"`
	Address    Address `json:"address"`
	Company    Company `json:"company"`

	// CachedAt is the wall-clock time of the last local write. It is not
	// part of the upstream payload.
	CachedAt time.Time `json:"-"`
}

// FullName joins the agent's name parts for display.
func (a Agent) FullName() string {
	parts := make([]string, 0, 2)
	if name := strings.TrimSpace(a.FirstName); name != "" {
		parts = append(parts, name)
	}
	if name := strings.TrimSpace(a.LastName); name != "" {
		parts = append(parts, name)
	}
	return strings.Join(parts, " ")
}

// SearchText returns the concatenated fields a substring search matches
// against: name parts, email, and username.
func (a Agent) SearchText() string {
	return strings.Join([]string{a.FirstName, a.LastName, a.Email, a.Username}, " ")
}
