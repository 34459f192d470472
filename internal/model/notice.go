package model

import "time"

// Notice is a dismissible notification about a failed operation.
type Notice struct {
	ID        int       `json:"id" yaml:"id"`
	Kind      ErrorKind `json:"kind" yaml:"kind"`
	Operation string    `json:"operation" yaml:"operation"`
	BookID    string    `json:"book_id,omitempty" yaml:"book_id,omitempty"`
	Message   string    `json:"message" yaml:"message"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
