package synced

import (
	"encoding/json"
	"fmt"

	"github.com/spec-kit/helpdesk-sync/internal/repository"
)

// Decoder turns a stored document into a typed record.
type Decoder[T any] func(doc repository.Document) (T, error)

type idSetter interface {
	SetID(id string)
}

type checker interface {
	Check() error
}

// JSONDecoder decodes document data as JSON. When *T has SetID the
// document id is assigned, and when T has Check the record must pass it.
// Check is the read-side rule; write-side Validate is not applied here.
func JSONDecoder[T any]() Decoder[T] {
	return func(doc repository.Document) (T, error) {
		var v T
		if err := json.Unmarshal(doc.Data, &v); err != nil {
			return v, fmt.Errorf("decode %s: %w", doc.Path, err)
		}
		if s, ok := any(&v).(idSetter); ok {
			s.SetID(doc.ID)
		}
		if c, ok := any(v).(checker); ok {
			if err := c.Check(); err != nil {
				return v, fmt.Errorf("check %s: %w", doc.Path, err)
			}
		}
		return v, nil
	}
}
