package billing

import (
	"strings"

	"github.com/google/uuid"
)

// ClientRef is a snapshot of the billed client taken when the document is
// written. Later changes to the client record do not alter it.
type ClientRef struct {
	ID      uuid.UUID
	Name    string
	Email   string
	Phone   string
	Address string
}

// IsResolved reports whether the reference points at a client
func (c ClientRef) IsResolved() bool {
	return c.ID != uuid.Nil && strings.TrimSpace(c.Name) != ""
}

// IsZero reports whether no client has been set
func (c ClientRef) IsZero() bool {
	return c == ClientRef{}
}
