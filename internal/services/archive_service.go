package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ArchiveService commits generated reports into a local git repository so
// every revision of a session report stays retrievable. A remote can be
// configured to mirror the archive; pushing is best-effort.
type ArchiveService struct {
	ctx    context.Context
	path   string
	remote string
}

func NewArchiveService(path, remote string) *ArchiveService {
	return &ArchiveService{path: path, remote: remote}
}

func (s *ArchiveService) Startup(ctx context.Context) error {
	s.ctx = ctx
	return nil
}

// Enabled reports whether an archive path is configured.
func (s *ArchiveService) Enabled() bool {
	return s.path != ""
}

// ArchiveReport writes the report into the archive repository and commits
// it, returning the commit hash. Regenerating an identical report returns
// the existing head without a new commit.
func (s *ArchiveService) ArchiveReport(sessionID uint, content string) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("report archive is not configured")
	}

	repo, err := s.openOrInit()
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("session_%d.md", sessionID)
	if err := os.WriteFile(filepath.Join(s.path, name), []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open archive worktree: %w", err)
	}
	if _, err := wt.Add(name); err != nil {
		return "", fmt.Errorf("stage report file: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("read archive status: %w", err)
	}
	if status.IsClean() {
		head, err := repo.Head()
		if err != nil {
			return "", fmt.Errorf("read archive head: %w", err)
		}
		return head.Hash().String(), nil
	}

	hash, err := wt.Commit(fmt.Sprintf("Add report for session %d", sessionID), &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Arizor",
			Email: "reports@arizor.local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit report: %w", err)
	}

	s.push(repo)
	return hash.String(), nil
}

func (s *ArchiveService) openOrInit() (*git.Repository, error) {
	repo, err := git.PlainOpen(s.path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if mkErr := os.MkdirAll(s.path, 0755); mkErr != nil {
			return nil, fmt.Errorf("create archive directory: %w", mkErr)
		}
		repo, err = git.PlainInit(s.path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open report archive at %s: %w", s.path, err)
	}
	return repo, nil
}

// push mirrors the archive to the configured remote. Failures only log:
// the local commit already preserves the report.
func (s *ArchiveService) push(repo *git.Repository) {
	if s.remote == "" {
		return
	}
	if _, err := repo.Remote("origin"); errors.Is(err, git.ErrRemoteNotFound) {
		if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
			Name: "origin",
			URLs: []string{s.remote},
		}); err != nil {
			log.Printf("Could not configure archive remote: %v", err)
			return
		}
	}
	err := repo.Push(&git.PushOptions{RemoteName: "origin"})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		log.Printf("Could not push report archive: %v", err)
	}
}
