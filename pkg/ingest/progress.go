package ingest

import "sync"

// FileProgress tracks processing progress for a single file.
type FileProgress struct {
	Name      string  `json:"name"`
	Processed float64 `json:"processed"` // percentage 0-100
}

// Progress holds live progress for a running import batch.
type Progress struct {
	mu        sync.RWMutex
	IsRunning bool           `json:"isRunning"`
	Files     []FileProgress `json:"files"`
}

// Snapshot returns a copy of the current progress.
func (p *Progress) Snapshot() Progress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Progress{
		IsRunning: p.IsRunning,
		Files:     append([]FileProgress(nil), p.Files...),
	}
}

func (p *Progress) start(paths []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IsRunning = true
	p.Files = make([]FileProgress, len(paths))
	for i, name := range paths {
		p.Files[i] = FileProgress{Name: name}
	}
}

func (p *Progress) updateFile(name string, percent float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.Files {
		if p.Files[i].Name == name {
			p.Files[i].Processed = percent
			return
		}
	}
}

func (p *Progress) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IsRunning = false
	p.Files = nil
}
