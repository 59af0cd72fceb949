package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryJobsRepo stores job descriptions in memory and is safe for concurrent
// use.
type MemoryJobsRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Job
}

// NewMemoryJobsRepo constructs a MemoryJobsRepo.
func NewMemoryJobsRepo() *MemoryJobsRepo {
	return &MemoryJobsRepo{nextID: 1, byID: make(map[int64]Job)}
}

// Create stores the job and assigns its id.
func (r *MemoryJobsRepo) Create(ctx context.Context, job Job) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job.ID = r.nextID
	r.nextID++
	job.CreatedAt = time.Now().UTC()
	r.byID[job.ID] = job
	return job, nil
}

// GetByID returns the user's job description by id.
func (r *MemoryJobsRepo) GetByID(ctx context.Context, userID, jobID int64) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.byID[jobID]
	if !ok || job.UserID != userID {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// ListByUser returns the user's job descriptions, newest first.
func (r *MemoryJobsRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Job
	for _, job := range r.byID {
		if job.UserID == userID {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, limit, offset), nil
}

// Delete removes the user's job description.
func (r *MemoryJobsRepo) Delete(ctx context.Context, userID, jobID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok || job.UserID != userID {
		return ErrNotFound
	}
	delete(r.byID, jobID)
	return nil
}

// MemoryMatchesRepo stores match records in memory and is safe for concurrent
// use.
type MemoryMatchesRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Match
}

// NewMemoryMatchesRepo constructs a MemoryMatchesRepo.
func NewMemoryMatchesRepo() *MemoryMatchesRepo {
	return &MemoryMatchesRepo{nextID: 1, byID: make(map[int64]Match)}
}

// Create stores the match and assigns its id.
func (r *MemoryMatchesRepo) Create(ctx context.Context, match Match) (Match, error) {
	if err := ctx.Err(); err != nil {
		return Match{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	match.ID = r.nextID
	r.nextID++
	match.CreatedAt = time.Now().UTC()
	r.byID[match.ID] = match
	return match, nil
}

// GetByID returns the user's match by id.
func (r *MemoryMatchesRepo) GetByID(ctx context.Context, userID, matchID int64) (Match, error) {
	if err := ctx.Err(); err != nil {
		return Match{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	match, ok := r.byID[matchID]
	if !ok || match.UserID != userID {
		return Match{}, ErrNotFound
	}
	return match, nil
}

// ListByUser returns the user's matches, newest first.
func (r *MemoryMatchesRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Match
	for _, match := range r.byID {
		if match.UserID == userID {
			out = append(out, match)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, limit, offset), nil
}

// StatsByUser aggregates the user's scored matches.
func (r *MemoryMatchesRepo) StatsByUser(ctx context.Context, userID int64) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats Stats
	var sum int
	for _, match := range r.byID {
		if match.UserID != userID || match.FitScore == nil {
			continue
		}
		stats.TotalMatches++
		sum += *match.FitScore
		if *match.FitScore > stats.BestScore {
			stats.BestScore = *match.FitScore
		}
	}
	if stats.TotalMatches > 0 {
		stats.AverageScore = float64(sum) / float64(stats.TotalMatches)
	}
	return stats, nil
}

// Delete removes the user's match record.
func (r *MemoryMatchesRepo) Delete(ctx context.Context, userID, matchID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.byID[matchID]
	if !ok || match.UserID != userID {
		return ErrNotFound
	}
	delete(r.byID, matchID)
	return nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
