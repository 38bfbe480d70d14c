package urlsync

import "sync"

// MemoryRouter is an in-process Router for hosts without a real address bar
// (headless embedding, the server deployment). It keeps a linear history the
// way a browser would.
type MemoryRouter struct {
	mu      sync.Mutex
	history []string
	pointer int
	page    int
	hasPage bool
}

// NewMemoryRouter starts at the root path.
func NewMemoryRouter() *MemoryRouter {
	return &MemoryRouter{history: []string{"/"}}
}

func (m *MemoryRouter) CurrentPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[m.pointer]
}

func (m *MemoryRouter) Push(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history[:m.pointer+1], path)
	m.pointer = len(m.history) - 1
	m.hasPage = false
}

func (m *MemoryRouter) Replace(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[m.pointer] = path
}

func (m *MemoryRouter) PageParam() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page, m.hasPage
}

func (m *MemoryRouter) SetPageParam(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.page = page
	m.hasPage = true
}
