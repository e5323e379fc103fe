package git

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jakoblorz/release-trucker/internal/models"
)

// MockClient implements Client for testing with full commit graph simulation.
// All handles returned by EnsureLocalClone share a single simulated
// repository, which matches how the tests exercise one project at a time.
type MockClient struct {
	mu             sync.RWMutex
	commits        map[string]*MockCommit
	branches       map[string]string // branch name -> head commit hash
	remoteBranches map[string]string // branch name -> origin head commit hash
	tags           map[string]*MockTag
	head           string
	branch         string

	hashCounter int
	clock       time.Time

	CleanedUp   bool
	PushedTags  []string
	PushedHeads []string

	// Hooks for testing error scenarios
	EnsureCloneError error
	CheckoutError    error
	CreateTagError   error
	PushBranchError  error
	PushTagError     error
}

// MockCommit represents a simulated commit
type MockCommit struct {
	Hash    string
	Parents []string
	Message string
	Author  string
	Date    time.Time
}

// MockTag represents a simulated tag
type MockTag struct {
	Name    string
	Message string
	Target  string
	Pushed  bool
}

// NewMockClient creates a MockClient with an initial commit on main.
func NewMockClient() *MockClient {
	m := &MockClient{
		commits:        make(map[string]*MockCommit),
		branches:       make(map[string]string),
		remoteBranches: make(map[string]string),
		tags:           make(map[string]*MockTag),
		branch:         "main",
		clock:          time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	initial := m.addCommit("Initial commit", nil)
	m.branches["main"] = initial
	m.remoteBranches["main"] = initial
	m.head = initial

	return m
}

func (m *MockClient) nextHash() string {
	m.hashCounter++
	// 40 hex chars like a real sha1
	return fmt.Sprintf("%040x", m.hashCounter)
}

func (m *MockClient) addCommit(message string, parents []string) string {
	hash := m.nextHash()
	m.clock = m.clock.Add(time.Minute)
	m.commits[hash] = &MockCommit{
		Hash:    hash,
		Parents: parents,
		Message: message,
		Author:  "Test Author <test@example.com>",
		Date:    m.clock,
	}
	return hash
}

// Commit creates a new commit on the current branch and returns its hash.
func (m *MockClient) Commit(message string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := m.addCommit(message, []string{m.head})
	m.head = hash
	m.branches[m.branch] = hash
	return hash
}

// Merge creates a merge commit on the current branch with otherHead as the
// second parent.
func (m *MockClient) Merge(message, otherHead string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := m.addCommit(message, []string{m.head, otherHead})
	m.head = hash
	m.branches[m.branch] = hash
	return hash
}

// CreateBranch creates a local branch at the current HEAD without switching.
func (m *MockClient) CreateBranch(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches[name] = m.head
}

// SwitchBranch switches the simulated HEAD to an existing local branch.
func (m *MockClient) SwitchBranch(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branch = name
	m.head = m.branches[name]
}

// SetRemoteBranch sets origin/<name> to the given commit hash.
func (m *MockClient) SetRemoteBranch(name, hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remoteBranches[name] = hash
}

// DeleteLocalBranch removes a local branch, keeping any remote counterpart.
func (m *MockClient) DeleteLocalBranch(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.branches, name)
}

// Tag creates a tag pointing at the current HEAD.
func (m *MockClient) Tag(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[name] = &MockTag{Name: name, Target: m.head}
}

// TagAt creates a tag pointing at a specific commit.
func (m *MockClient) TagAt(name, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[name] = &MockTag{Name: name, Target: target}
}

// Head returns the current simulated HEAD commit hash.
func (m *MockClient) Head() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.head
}

// CurrentBranch returns the name of the currently checked out branch.
func (m *MockClient) CurrentBranch() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.branch
}

// EnsureLocalClone returns a handle to the simulated repository. Like the
// real client it fast-forwards local main (falling back to master) to the
// remote head, moving HEAD there in the process.
func (m *MockClient) EnsureLocalClone(_ context.Context, _, name string) (*Repo, error) {
	if m.EnsureCloneError != nil {
		return nil, m.EnsureCloneError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, branch := range []string{"main", "master"} {
		if head, ok := m.remoteBranches[branch]; ok {
			m.branches[branch] = head
			m.branch = branch
			m.head = head
			break
		}
	}

	return &Repo{Name: name, Path: "/mock/repos/" + name}, nil
}

// resolve maps a ref (hash, tag, branch, origin/<branch>) to a commit hash.
func (m *MockClient) resolve(ref string) (string, bool) {
	if _, ok := m.commits[ref]; ok {
		return ref, true
	}
	if tag, ok := m.tags[ref]; ok {
		return tag.Target, true
	}
	if head, ok := m.branches[ref]; ok {
		return head, true
	}
	if name, found := strings.CutPrefix(ref, "origin/"); found {
		if head, ok := m.remoteBranches[name]; ok {
			return head, true
		}
	}
	return "", false
}

func (m *MockClient) ResolveReference(_ *Repo, ref string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolve(ref)
}

// reachable returns the set of commits reachable from the given hash.
func (m *MockClient) reachable(from string) map[string]bool {
	visited := make(map[string]bool)
	stack := []string{from}
	for len(stack) > 0 {
		hash := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[hash] {
			continue
		}
		commit, ok := m.commits[hash]
		if !ok {
			continue
		}
		visited[hash] = true
		stack = append(stack, commit.Parents...)
	}
	return visited
}

// exclusive returns commits reachable from to but not from from, newest first.
func (m *MockClient) exclusive(from, to string) []*MockCommit {
	toSet := m.reachable(to)
	var fromSet map[string]bool
	if from != "" {
		fromSet = m.reachable(from)
	}

	var result []*MockCommit
	for hash := range toSet {
		if fromSet[hash] {
			continue
		}
		result = append(result, m.commits[hash])
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result
}

func (m *MockClient) toModel(c *MockCommit, merged bool) models.Commit {
	summary := c.Message
	if idx := strings.IndexByte(summary, '\n'); idx >= 0 {
		summary = summary[:idx]
	}
	return models.Commit{
		ID:           c.Hash,
		ShortID:      shortID(c.Hash),
		Message:      c.Message,
		Summary:      summary,
		Author:       c.Author,
		Date:         c.Date,
		MergedCommit: merged,
	}
}

func (m *MockClient) CommitsBetween(_ *Repo, from, to string, expandMerges bool) []models.Commit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fromHash := ""
	if from != "" {
		resolved, ok := m.resolve(from)
		if !ok {
			return nil
		}
		fromHash = resolved
	}
	toHash, ok := m.resolve(to)
	if !ok {
		return nil
	}

	base := m.exclusive(fromHash, toHash)

	seen := make(map[string]bool, len(base))
	commits := make([]models.Commit, 0, len(base))
	for _, c := range base {
		seen[c.Hash] = true
		commits = append(commits, m.toModel(c, false))
	}

	if !expandMerges {
		return commits
	}

	for _, c := range base {
		if len(c.Parents) < 2 {
			continue
		}
		for _, parent := range c.Parents[1:] {
			for _, sub := range m.exclusive(fromHash, parent) {
				if seen[sub.Hash] {
					continue
				}
				seen[sub.Hash] = true
				commits = append(commits, m.toModel(sub, true))
			}
		}
	}

	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].Date.Before(commits[j].Date)
	})

	return commits
}

func (m *MockClient) RecentCommits(_ *Repo, ref string, limit int) []models.Commit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hash, ok := m.resolve(ref)
	if !ok {
		return nil
	}

	all := m.exclusive("", hash)
	if len(all) > limit {
		all = all[:limit]
	}

	commits := make([]models.Commit, 0, len(all))
	for _, c := range all {
		commits = append(commits, m.toModel(c, false))
	}
	return commits
}

func (m *MockClient) ListTags(_ *Repo) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tags []string
	for name := range m.tags {
		tags = append(tags, name)
	}
	sort.Strings(tags)
	return tags
}

func (m *MockClient) TagTarget(_ *Repo, tag string) (TagRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tags[tag]
	if !ok {
		return TagRef{}, false
	}
	commit, ok := m.commits[t.Target]
	if !ok {
		return TagRef{}, false
	}
	return TagRef{CommitID: commit.Hash, CommitTime: commit.Date}, true
}

func (m *MockClient) BranchExists(_ *Repo, name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.branches[name]; ok {
		return true
	}
	_, ok := m.remoteBranches[name]
	return ok
}

func (m *MockClient) Checkout(_ *Repo, name string, create bool) error {
	if m.CheckoutError != nil {
		return m.CheckoutError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if create {
		m.branches[name] = m.head
		m.branch = name
		return nil
	}

	if head, ok := m.branches[name]; ok {
		m.branch = name
		m.head = head
		return nil
	}

	// Materialize a local tracking branch from the remote
	if head, ok := m.remoteBranches[name]; ok {
		m.branches[name] = head
		m.branch = name
		m.head = head
		return nil
	}

	return fmt.Errorf("branch %s not found locally or remotely", name)
}

func (m *MockClient) CreateAnnotatedTag(_ *Repo, name, message string) error {
	if m.CreateTagError != nil {
		return m.CreateTagError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[name] = &MockTag{Name: name, Message: message, Target: m.head}
	return nil
}

func (m *MockClient) PushBranch(_ *Repo, name string) error {
	if m.PushBranchError != nil {
		return m.PushBranchError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	head, ok := m.branches[name]
	if !ok {
		return fmt.Errorf("branch %s does not exist", name)
	}
	m.remoteBranches[name] = head
	m.PushedHeads = append(m.PushedHeads, name)
	return nil
}

func (m *MockClient) PushTag(_ *Repo, name string) error {
	if m.PushTagError != nil {
		return m.PushTagError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tag, ok := m.tags[name]
	if !ok {
		return fmt.Errorf("tag %s does not exist", name)
	}
	tag.Pushed = true
	m.PushedTags = append(m.PushedTags, name)
	return nil
}

func (m *MockClient) CleanupAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CleanedUp = true
	return nil
}

var _ Client = (*MockClient)(nil)
