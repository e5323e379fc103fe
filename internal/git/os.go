package git

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jakoblorz/release-trucker/internal/filesystem"
	"github.com/jakoblorz/release-trucker/internal/models"
)

// prettyFormat renders one commit per record: full hash, parent hashes,
// author, strict-ISO commit date, subject and full body, separated by unit
// separators with a record separator at the end.
const prettyFormat = "%H%x1f%P%x1f%an <%ae>%x1f%cI%x1f%s%x1f%B%x1e"

// OSClient implements Client using real git commands against clones kept
// under a single managed root directory, one per project name.
type OSClient struct {
	reposRoot string
	fs        filesystem.FileSystem
	logger    *log.Logger
}

// NewOSClient creates a new OSClient managing clones under reposRoot.
func NewOSClient(reposRoot string, fs filesystem.FileSystem, logger *log.Logger) *OSClient {
	if logger == nil {
		logger = log.New(os.Stderr, "git: ", log.LstdFlags)
	}
	return &OSClient{
		reposRoot: reposRoot,
		fs:        fs,
		logger:    logger,
	}
}

// run executes git with the given args in dir, returning trimmed stdout.
func (g *OSClient) run(dir string, args ...string) (string, error) {
	return g.runContext(context.Background(), dir, args...)
}

func (g *OSClient) runContext(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(out.String()), nil
}

// EnsureLocalClone clones the repository if no local clone exists, otherwise
// fetches and fast-forwards main (falling back to master). A failing
// fast-forward is logged and tolerated; clone and fetch failures are not.
func (g *OSClient) EnsureLocalClone(ctx context.Context, remoteURL, name string) (*Repo, error) {
	repoPath := filepath.Join(g.reposRoot, name)
	repo := &Repo{Name: name, Path: repoPath}

	if !g.fs.Exists(repoPath) {
		g.logger.Printf("cloning repository: %s", name)
		if err := g.fs.MkdirAll(g.reposRoot, 0755); err != nil {
			return nil, fmt.Errorf("failed to create repos root: %w", err)
		}
		if _, err := g.runContext(ctx, "", "clone", remoteURL, repoPath); err != nil {
			return nil, fmt.Errorf("failed to clone %s: %w", name, err)
		}
		return repo, nil
	}

	g.logger.Printf("updating existing repository: %s", name)
	if _, err := g.runContext(ctx, repoPath, "fetch", "origin", "--tags", "--prune"); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}

	if err := g.resetToRemote(repoPath, "main"); err != nil {
		if err := g.resetToRemote(repoPath, "master"); err != nil {
			g.logger.Printf("could not reset %s to main or master: %v", name, err)
		}
	}

	return repo, nil
}

func (g *OSClient) resetToRemote(repoPath, branch string) error {
	if _, err := g.run(repoPath, "checkout", branch); err != nil {
		return err
	}
	if _, err := g.run(repoPath, "reset", "--hard", "origin/"+branch); err != nil {
		return err
	}
	return nil
}

// ResolveReference resolves ref (hash, tag or branch) to a full commit id.
func (g *OSClient) ResolveReference(repo *Repo, ref string) (string, bool) {
	out, err := g.run(repo.Path, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil || out == "" {
		return "", false
	}
	return out, true
}

type logEntry struct {
	commit  models.Commit
	parents []string
}

// logRange lists commits in from..to. An empty from lists all ancestors of to.
func (g *OSClient) logRange(repo *Repo, from, to string) ([]logEntry, error) {
	rangeSpec := to
	if from != "" {
		rangeSpec = from + ".." + to
	}

	out, err := g.run(repo.Path, "log", "--pretty=format:"+prettyFormat, rangeSpec)
	if err != nil {
		return nil, err
	}

	return parseLog(out), nil
}

func parseLog(out string) []logEntry {
	var entries []logEntry
	for _, record := range strings.Split(out, "\x1e") {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}

		fields := strings.SplitN(record, "\x1f", 6)
		if len(fields) != 6 {
			continue
		}

		date, err := time.Parse(time.RFC3339, fields[3])
		if err != nil {
			date = time.Time{}
		}

		var parents []string
		if fields[1] != "" {
			parents = strings.Fields(fields[1])
		}

		id := fields[0]
		entries = append(entries, logEntry{
			commit: models.Commit{
				ID:      id,
				ShortID: shortID(id),
				Author:  fields[2],
				Date:    date,
				Summary: fields[4],
				Message: strings.TrimSpace(fields[5]),
			},
			parents: parents,
		})
	}
	return entries
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// CommitsBetween returns the commits reachable from to but not from from.
// With expandMerges, commits folded into a merge's non-first parents are
// spliced in (deduplicated, flagged merge-absorbed) and the result is
// re-sorted by commit time ascending.
func (g *OSClient) CommitsBetween(repo *Repo, from, to string, expandMerges bool) []models.Commit {
	entries, err := g.logRange(repo, from, to)
	if err != nil {
		g.logger.Printf("failed to get commits between %s and %s: %v", from, to, err)
		return nil
	}

	seen := make(map[string]bool, len(entries))
	commits := make([]models.Commit, 0, len(entries))
	for _, e := range entries {
		seen[e.commit.ID] = true
		commits = append(commits, e.commit)
	}

	if !expandMerges {
		return commits
	}

	for _, e := range entries {
		if len(e.parents) < 2 {
			continue
		}
		for _, parent := range e.parents[1:] {
			sub, err := g.logRange(repo, from, parent)
			if err != nil {
				g.logger.Printf("failed to expand merge %s: %v", e.commit.ShortID, err)
				continue
			}
			for _, se := range sub {
				if seen[se.commit.ID] {
					continue
				}
				seen[se.commit.ID] = true

				absorbed := se.commit
				absorbed.MergedCommit = true
				commits = append(commits, absorbed)
			}
		}
	}

	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].Date.Before(commits[j].Date)
	})

	return commits
}

// RecentCommits returns at most limit commits reachable from ref, newest first.
func (g *OSClient) RecentCommits(repo *Repo, ref string, limit int) []models.Commit {
	out, err := g.run(repo.Path, "log", fmt.Sprintf("-%d", limit), "--pretty=format:"+prettyFormat, ref)
	if err != nil {
		g.logger.Printf("failed to list recent commits of %s: %v", ref, err)
		return nil
	}

	entries := parseLog(out)
	commits := make([]models.Commit, 0, len(entries))
	for _, e := range entries {
		commits = append(commits, e.commit)
	}
	return commits
}

// ListTags returns all tag names in the repository.
func (g *OSClient) ListTags(repo *Repo) []string {
	out, err := g.run(repo.Path, "tag", "-l")
	if err != nil {
		g.logger.Printf("failed to list tags for %s: %v", repo.Name, err)
		return nil
	}
	if out == "" {
		return nil
	}

	var tags []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tags = append(tags, line)
		}
	}
	return tags
}

// TagTarget returns the commit a tag points at along with its commit time.
func (g *OSClient) TagTarget(repo *Repo, tag string) (TagRef, bool) {
	out, err := g.run(repo.Path, "log", "-1", "--pretty=format:%H%x1f%cI", "refs/tags/"+tag)
	if err != nil {
		return TagRef{}, false
	}

	fields := strings.SplitN(out, "\x1f", 2)
	if len(fields) != 2 {
		return TagRef{}, false
	}

	commitTime, err := time.Parse(time.RFC3339, fields[1])
	if err != nil {
		return TagRef{}, false
	}

	return TagRef{CommitID: fields[0], CommitTime: commitTime}, true
}

// BranchExists checks local heads first, then origin/<name>.
func (g *OSClient) BranchExists(repo *Repo, name string) bool {
	if _, err := g.run(repo.Path, "show-ref", "--verify", "--quiet", "refs/heads/"+name); err == nil {
		return true
	}
	if _, err := g.run(repo.Path, "show-ref", "--verify", "--quiet", "refs/remotes/origin/"+name); err == nil {
		return true
	}
	return false
}

// Checkout switches to name, creating it from the current HEAD when create is
// set. Without create, a branch that only exists on the remote is
// materialized as a local tracking branch.
func (g *OSClient) Checkout(repo *Repo, name string, create bool) error {
	if create {
		if _, err := g.run(repo.Path, "checkout", "-b", name); err != nil {
			return fmt.Errorf("failed to create branch %s: %w", name, err)
		}
		return nil
	}

	if _, err := g.run(repo.Path, "show-ref", "--verify", "--quiet", "refs/heads/"+name); err == nil {
		if _, err := g.run(repo.Path, "checkout", name); err != nil {
			return fmt.Errorf("failed to checkout branch %s: %w", name, err)
		}
		return nil
	}

	if _, err := g.run(repo.Path, "checkout", "-b", name, "--track", "origin/"+name); err != nil {
		return fmt.Errorf("branch %s not found locally or remotely: %w", name, err)
	}
	return nil
}

// CreateAnnotatedTag creates an annotated tag at the current HEAD.
func (g *OSClient) CreateAnnotatedTag(repo *Repo, name, message string) error {
	if _, err := g.run(repo.Path, "tag", "-a", name, "-m", message); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return nil
}

// PushBranch pushes name:name and establishes upstream tracking.
func (g *OSClient) PushBranch(repo *Repo, name string) error {
	if _, err := g.run(repo.Path, "push", "origin", name+":"+name); err != nil {
		return fmt.Errorf("failed to push branch %s: %w", name, err)
	}
	if _, err := g.run(repo.Path, "branch", "--set-upstream-to=origin/"+name, name); err != nil {
		return fmt.Errorf("failed to set upstream for %s: %w", name, err)
	}
	return nil
}

// PushTag pushes the tag with an explicit refs/tags refspec.
func (g *OSClient) PushTag(repo *Repo, name string) error {
	refspec := fmt.Sprintf("refs/tags/%s:refs/tags/%s", name, name)
	if _, err := g.run(repo.Path, "push", "origin", refspec); err != nil {
		return fmt.Errorf("failed to push tag %s: %w", name, err)
	}
	return nil
}

// CleanupAll removes every managed clone and recreates the empty root.
func (g *OSClient) CleanupAll() error {
	if err := g.fs.RemoveAll(g.reposRoot); err != nil {
		return fmt.Errorf("failed to remove repos root: %w", err)
	}
	return g.fs.MkdirAll(g.reposRoot, 0755)
}

var _ Client = (*OSClient)(nil)
