package util

import "github.com/tranvictor/carebook/ui"

// SessionDisplay is the view of the connection state. StyledText fields
// marshal to plain strings.
type SessionDisplay struct {
	Status  ui.StyledText `json:"status"`
	Address ui.StyledText `json:"address,omitempty"`
	Role    ui.StyledText `json:"role,omitempty"`
}

type RecordDisplay struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Patient   string `json:"patient"`
	Diagnosis string `json:"diagnosis"`
	Treatment string `json:"treatment"`
}

// RecordsDisplay is the view of the record store. Loaded is false when no
// fetch succeeded since the last clear.
type RecordsDisplay struct {
	PatientID int64           `json:"patient_id"`
	Loaded    bool            `json:"loaded"`
	Records   []RecordDisplay `json:"records"`
}

type PendingDisplay struct {
	ID        string        `json:"id"`
	Operation string        `json:"operation"`
	Patient   string        `json:"patient,omitempty"`
	Hash      string        `json:"hash"`
	Status    ui.StyledText `json:"status"`
	Age       string        `json:"age"`
}

type ProviderDisplay struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type AccountDisplay struct {
	Address string `json:"address"`
	Kind    string `json:"kind"`
	Desc    string `json:"desc"`
	Active  bool   `json:"active"`
}
