package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type file struct {
	ID       string    `json:"id"`
	Name     string    `json:"filename"`
	MIMEType string    `json:"mimeType"`
	Size     int       `json:"size"`
	Created  time.Time `json:"created"`
	data     []byte
}

// store keeps the most recent exports in memory until they are downloaded.
type store struct {
	mu    sync.Mutex
	files map[string]*file
	order []string
	limit int
}

func newStore(limit int) *store {
	return &store{files: make(map[string]*file), limit: limit}
}

func (s *store) put(name, mimeType string, data []byte) *file {
	f := &file{
		ID:       uuid.New().String(),
		Name:     name,
		MIMEType: mimeType,
		Size:     len(data),
		Created:  time.Now(),
		data:     data,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[f.ID] = f
	s.order = append(s.order, f.ID)
	for len(s.order) > s.limit {
		delete(s.files, s.order[0])
		s.order = s.order[1:]
	}
	return f
}

func (s *store) get(id string) (*file, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	return f, ok
}
