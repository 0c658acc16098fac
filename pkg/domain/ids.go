// Package domain holds identifier and enum types shared by all modules.
//
// IDs are distinct UUID-backed types so the compiler rejects cross-wiring
// (passing an AgentID where a CaseID is expected). Construct them via the
// Parse functions at trust boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "custos/pkg/domain-errors"
)

// AgentID identifies a registered autonomous agent (VAA) instance.
type AgentID uuid.UUID

// CaseID identifies a single unit of governed work: a procurement request,
// an invoice, an inventory action, a fairness check.
type CaseID uuid.UUID

// NewCaseID returns a fresh random case ID.
func NewCaseID() CaseID {
	return CaseID(uuid.New())
}

// NewAgentID returns a fresh random agent ID.
func NewAgentID() AgentID {
	return AgentID(uuid.New())
}

// ParseAgentID constructs an AgentID from external input.
//
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseAgentID(s string) (AgentID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return AgentID{}, err
	}
	return AgentID(u), nil
}

// ParseCaseID constructs a CaseID from external input.
//
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return CaseID{}, err
	}
	return CaseID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

func (id AgentID) String() string { return uuid.UUID(id).String() }
func (id CaseID) String() string  { return uuid.UUID(id).String() }

// MarshalText encodes the ID as its canonical UUID string, so IDs embedded
// in JSON payloads round-trip as strings rather than byte arrays.
func (id CaseID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses the canonical UUID string form.
func (id *CaseID) UnmarshalText(text []byte) error {
	parsed, err := ParseCaseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText encodes the ID as its canonical UUID string.
func (id AgentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses the canonical UUID string form.
func (id *AgentID) UnmarshalText(text []byte) error {
	parsed, err := ParseAgentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IsNil reports whether the ID is the zero value.
func (id AgentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// IsNil reports whether the ID is the zero value.
func (id CaseID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
