package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/checklists/internal/formatter"
	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultExportWorkers = 4
	maxExportWorkers     = 10
	manifestFilename     = "export_manifest.json"
)

// BulkExportOpts contains configuration for bulk checklist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Base output directory (default: checklists_export_{epoch})
	NumWorkers int              // Concurrent file writers (default: 4, max: 10)
	RateLimit  float64          // Owner lookups per second; zero or less is unlimited
	Emails     []string         // Limit the export to these owners; empty exports everyone
}

// ChecklistExportResult describes one exported checklist.
type ChecklistExportResult struct {
	ChecklistID string `json:"checklist_id"`
	Title       string `json:"title"`
	OwnerEmail  string `json:"owner_email"`
	Items       int    `json:"items"`
	File        string `json:"file,omitempty"`
	Success     bool   `json:"success"`
	Error       error  `json:"-"`
	ErrorText   string `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalUsers        int                     `json:"total_users"`
	TotalChecklists   int                     `json:"total_checklists"`
	SuccessfulExports int                     `json:"successful_exports"`
	FailedExports     int                     `json:"failed_exports"`
	Format            formatter.Format        `json:"format"`
	OutputDirectory   string                  `json:"output_directory"`
	ManifestPath      string                  `json:"-"`
	Results           []ChecklistExportResult `json:"results"`
}

type exportJob struct {
	owner     *models.User
	checklist *models.Checklist
}

// BulkExport exports checklists concurrently with rate-limited owner lookups and progress tracking.
//
// Each owner's checklists are written to {OutputDir}/{ownerID}/. Failures of individual files are
// recorded in the result and do not stop the export.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("checklists_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultExportWorkers
	}
	if opts.NumWorkers > maxExportWorkers {
		opts.NumWorkers = maxExportWorkers
	}

	users, err := e.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if len(opts.Emails) > 0 {
		users = slices.DeleteFunc(users, func(u *models.User) bool {
			return !slices.Contains(opts.Emails, u.Email)
		})
		if len(users) == 0 {
			return nil, fmt.Errorf("%w: no users match %v", shared.ErrNotFound, opts.Emails)
		}
	}
	sendProgress(prog, fetchUsersUpdate(len(users)))

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	var jobs []exportJob
	for i, user := range users {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		sendProgress(prog, fetchChecklistsUpdate(i+1, len(users), user))

		checklists, err := e.checklists.List(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list checklists for %s: %w", user.Email, err)
		}
		for _, c := range checklists {
			jobs = append(jobs, exportJob{owner: user, checklist: c})
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalUsers:      len(users),
		TotalChecklists: len(jobs),
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		Results:         make([]ChecklistExportResult, 0, len(jobs)),
	}

	queue := make(chan exportJob, len(jobs))
	results := make(chan ChecklistExportResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go exportWorker(ctx, &wg, queue, results, opts)
	}

	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(jobs), res))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(jobs), res))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].ChecklistID < result.Results[j].ChecklistID
	})

	manifestPath := filepath.Join(opts.OutputDir, manifestFilename)
	if err := WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	return result, nil
}

// WriteManifest writes a JSON summary of a bulk export.
func WriteManifest(result *BulkExportResult, path string) error {
	data, err := formatter.MarshalJSON(result, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// exportWorker is a worker goroutine that writes checklists from the jobs channel.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- ChecklistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- exportChecklist(job, opts)
	}
}

func exportChecklist(j exportJob, opts BulkExportOpts) ChecklistExportResult {
	result := ChecklistExportResult{
		ChecklistID: j.checklist.ID,
		Title:       j.checklist.Title,
		OwnerEmail:  j.owner.Email,
		Items:       len(j.checklist.Items),
	}

	path, err := formatter.WriteExport(j.checklist, opts.Format, filepath.Join(opts.OutputDir, j.owner.ID))
	if err != nil {
		result.Error = err
		result.ErrorText = err.Error()
		return result
	}

	result.File = path
	result.Success = true
	return result
}
