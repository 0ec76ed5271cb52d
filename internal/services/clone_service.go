package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/logger"
)

const defaultCloneTimeout = 5 * time.Minute

// CloneService makes throwaway shallow clones of remote repositories
type CloneService struct {
	token   string
	timeout time.Duration
	gitPath string
}

// NewCloneService creates a new clone service. The token, when set, is used
// for https clones of private repositories.
func NewCloneService(token string, timeout time.Duration) *CloneService {
	if timeout <= 0 {
		timeout = defaultCloneTimeout
	}
	return &CloneService{
		token:   token,
		timeout: timeout,
		gitPath: "git",
	}
}

// ShallowClone clones the default branch at depth 1 into a fresh temporary
// directory. The returned cleanup removes the directory and must be called
// on every path, it is a no-op after an error.
func (s *CloneService) ShallowClone(ctx context.Context, repoURL string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "repolens-clone-*")
	if err != nil {
		return "", func() {}, &models.CloneError{Kind: models.CloneFailure, URL: repoURL, Err: err}
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.WithError(err).WithField("path", dir).Warn("Failed to remove clone directory")
		}
	}

	cloneCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Clone the repository with authentication
	cmd := exec.CommandContext(cloneCtx, s.gitPath, "clone", "--depth", "1", "--single-branch", s.authURL(repoURL), dir)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		cleanup()
		if errors.Is(cloneCtx.Err(), context.DeadlineExceeded) {
			return "", func() {}, &models.CloneError{
				Kind: models.CloneTimeout,
				URL:  repoURL,
				Err:  fmt.Errorf("clone did not finish within %s", s.timeout),
			}
		}
		msg := s.redact(strings.TrimSpace(stderr.String()))
		return "", func() {}, &models.CloneError{
			Kind: models.CloneFailure,
			URL:  repoURL,
			Err:  fmt.Errorf("git clone failed: %w: %s", err, msg),
		}
	}

	logger.WithField("url", repoURL).WithField("duration", time.Since(start).String()).Info("Repository cloned")
	return dir, cleanup, nil
}

// authURL injects the token into https URLs
func (s *CloneService) authURL(repoURL string) string {
	if s.token == "" || !strings.HasPrefix(repoURL, "https://") {
		return repoURL
	}
	return strings.Replace(repoURL, "https://", "https://"+s.token+"@", 1)
}

func (s *CloneService) redact(text string) string {
	if s.token == "" {
		return text
	}
	return strings.ReplaceAll(text, s.token, "***")
}
