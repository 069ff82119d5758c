package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
)

func TestArchiveService_ArchiveReport_InitializesRepoAndCommits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	svc := NewArchiveService(dir, "")

	hash, err := svc.ArchiveReport(3, "# АРИЗ-отчёт: тест\n")
	assert.NoError(t, err)
	assert.Len(t, hash, 40)

	content, err := os.ReadFile(filepath.Join(dir, "session_3.md"))
	assert.NoError(t, err)
	assert.Equal(t, "# АРИЗ-отчёт: тест\n", string(content))

	repo, err := git.PlainOpen(dir)
	assert.NoError(t, err)
	head, err := repo.Head()
	assert.NoError(t, err)
	assert.Equal(t, hash, head.Hash().String())

	commit, err := repo.CommitObject(head.Hash())
	assert.NoError(t, err)
	assert.Equal(t, "Add report for session 3", commit.Message)
}

func TestArchiveService_ArchiveReport_NewContentAddsCommit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	svc := NewArchiveService(dir, "")

	first, err := svc.ArchiveReport(3, "версия один\n")
	assert.NoError(t, err)
	second, err := svc.ArchiveReport(3, "версия два\n")
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)

	content, err := os.ReadFile(filepath.Join(dir, "session_3.md"))
	assert.NoError(t, err)
	assert.Equal(t, "версия два\n", string(content))
}

func TestArchiveService_ArchiveReport_IdenticalContentKeepsHead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	svc := NewArchiveService(dir, "")

	first, err := svc.ArchiveReport(8, "неизменный отчёт\n")
	assert.NoError(t, err)
	second, err := svc.ArchiveReport(8, "неизменный отчёт\n")
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestArchiveService_ArchiveReport_SeparateSessionsSeparateFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	svc := NewArchiveService(dir, "")

	_, err := svc.ArchiveReport(1, "отчёт 1\n")
	assert.NoError(t, err)
	_, err = svc.ArchiveReport(2, "отчёт 2\n")
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "session_1.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "session_2.md"))
	assert.NoError(t, err)
}

func TestArchiveService_ArchiveReport_RequiresConfiguredPath(t *testing.T) {
	svc := NewArchiveService("", "")
	assert.False(t, svc.Enabled())

	_, err := svc.ArchiveReport(1, "отчёт\n")
	assert.ErrorContains(t, err, "not configured")
}
