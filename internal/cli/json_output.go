// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Machine-readable output for every command.
//
// All commands wrap their payload in the same envelope so scripts can check
// "success" before reading "data".
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/rigbench/internal/detect"
)

// JSONResponse is the envelope for --json output.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is when the response was generated (RFC3339, UTC)
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response. data may carry a
// partial payload such as a report with failed workloads.
func NewJSONErrorResponse(command string, data interface{}, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      data,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response, indented, to w.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the indented JSON form.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(data)
}

// OutputJSON runs handler and writes its result (or error) as a
// JSONResponse. The handler error is returned so exit codes still apply.
func OutputJSON(w io.Writer, command string, handler func() (interface{}, error)) error {
	data, err := handler()
	if err != nil {
		if werr := NewJSONErrorResponse(command, data, err).Write(w); werr != nil {
			return werr
		}
		return err
	}
	return NewJSONResponse(command, data).Write(w)
}

// =============================================================================
// RESPONSE PAYLOADS
// =============================================================================

// VersionData is the payload of "version --json".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// InfoData is the payload of "info --json".
type InfoData struct {
	Topology     detect.Topology `json:"topology"`
	Capabilities []CapabilityRow `json:"capabilities"`
}

// CapabilityRow is one probed CPU extension.
type CapabilityRow struct {
	Name      string `json:"name"`
	Vector    bool   `json:"vector"`
	Supported bool   `json:"supported"`
	Disabled  bool   `json:"disabled,omitempty"`
}

// WorkloadRow is one catalog entry in "list --json".
type WorkloadRow struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Suites     []string `json:"suites"`
	WorkSize   int      `json:"work_size"`
	Capability string   `json:"capability,omitempty"`
	Supported  bool     `json:"supported"`
}

// ConfigData is the payload of "config show --json".
type ConfigData struct {
	Path   string      `json:"path"`
	Config interface{} `json:"config"`
}
