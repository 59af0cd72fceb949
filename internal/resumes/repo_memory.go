package resumes

import (
	"context"
	"sort"
	"sync"
	"time"

	"resumematch-backend/internal/agent"
)

// MemoryRepo stores resumes in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Resume
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1, byID: make(map[int64]Resume)}
}

// Create stores the resume and assigns its id.
func (r *MemoryRepo) Create(ctx context.Context, resume Resume) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	resume.CreatedAt = now
	resume.UpdatedAt = now
	r.byID[resume.ID] = resume
	return resume, nil
}

// GetByID returns the user's resume by id.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, resumeID int64) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	resume, ok := r.byID[resumeID]
	if !ok || resume.UserID != userID {
		return Resume{}, ErrNotFound
	}
	return resume, nil
}

// GetActiveByUser returns the user's active resume.
func (r *MemoryRepo) GetActiveByUser(ctx context.Context, userID int64) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, resume := range r.byID {
		if resume.UserID == userID && resume.IsActive {
			return resume, nil
		}
	}
	return Resume{}, ErrNotFound
}

// ListByUser returns the user's resumes, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Resume
	for _, resume := range r.byID {
		if resume.UserID == userID {
			out = append(out, resume)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// UpdateStatus sets the pipeline status.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, resumeID int64, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.byID[resumeID]
	if !ok {
		return ErrNotFound
	}
	resume.Status = status
	resume.UpdatedAt = time.Now().UTC()
	r.byID[resumeID] = resume
	return nil
}

// UpdateExtraction stores the extracted text.
func (r *MemoryRepo) UpdateExtraction(ctx context.Context, resumeID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.byID[resumeID]
	if !ok {
		return ErrNotFound
	}
	resume.TextExtracted = text
	resume.UpdatedAt = time.Now().UTC()
	r.byID[resumeID] = resume
	return nil
}

// UpdateAnalysis stores the structured profile and marks the resume analyzed.
func (r *MemoryRepo) UpdateAnalysis(ctx context.Context, resumeID int64, profile agent.ResumeProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.byID[resumeID]
	if !ok {
		return ErrNotFound
	}
	resume.Skills = profile.Skills
	resume.Experience = profile.Experience
	resume.Education = profile.Education
	resume.Summary = profile.Summary
	resume.Status = StatusAnalyzed
	resume.UpdatedAt = time.Now().UTC()
	r.byID[resumeID] = resume
	return nil
}

// SetActive marks one resume active and the user's others inactive.
func (r *MemoryRepo) SetActive(ctx context.Context, userID, resumeID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.byID[resumeID]
	if !ok || target.UserID != userID {
		return ErrNotFound
	}
	now := time.Now().UTC()
	for id, resume := range r.byID {
		if resume.UserID != userID {
			continue
		}
		active := id == resumeID
		if resume.IsActive != active {
			resume.IsActive = active
			resume.UpdatedAt = now
			r.byID[id] = resume
		}
	}
	return nil
}

// Delete removes the user's resume and returns the removed row.
func (r *MemoryRepo) Delete(ctx context.Context, userID, resumeID int64) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.byID[resumeID]
	if !ok || resume.UserID != userID {
		return Resume{}, ErrNotFound
	}
	delete(r.byID, resumeID)
	return resume, nil
}
