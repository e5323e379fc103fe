package versioning

import (
	"sort"

	"github.com/jakoblorz/release-trucker/internal/git"
	"github.com/jakoblorz/release-trucker/internal/models"
)

// TagIndex answers version queries over a repository's tags. Only tags that
// parse as exact "major.minor.patch" versions are visible to it; everything
// else ("v1.0.0", "staging-deploy", "1.0.0-SNAPSHOT") is silently ignored.
type TagIndex struct {
	git git.Client
}

// NewTagIndex creates a TagIndex reading tags through the given client.
func NewTagIndex(gitClient git.Client) *TagIndex {
	return &TagIndex{git: gitClient}
}

// SemanticVersions returns every tag that parses as a semantic version.
func (idx *TagIndex) SemanticVersions(repo *git.Repo) []models.Version {
	var versions []models.Version
	for _, tag := range idx.git.ListTags(repo) {
		if v, ok := models.ParseVersion(tag); ok {
			versions = append(versions, v)
		}
	}
	return versions
}

// Latest returns the highest semantic version by numeric order, or ok=false
// if the repository has no semantic version tags.
func (idx *TagIndex) Latest(repo *git.Repo) (models.Version, bool) {
	versions := idx.SemanticVersions(repo)
	if len(versions) == 0 {
		return models.Version{}, false
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) > 0
	})
	return versions[0], true
}

// HighestMajor returns the highest major across all semantic version tags,
// or 0 if there are none.
func (idx *TagIndex) HighestMajor(repo *git.Repo) int {
	highest := 0
	for _, v := range idx.SemanticVersions(repo) {
		if v.Major > highest {
			highest = v.Major
		}
	}
	return highest
}

// LatestByCommitDate returns the semantic version tag whose target commit has
// the newest commit timestamp. This is the relevant baseline for "commits
// since the last release": the most recently created tag wins even when an
// older-numbered tag was pushed later on a parallel branch.
func (idx *TagIndex) LatestByCommitDate(repo *git.Repo) (string, bool) {
	var (
		latestTag  string
		latestTime int64 = -1
	)

	for _, tag := range idx.git.ListTags(repo) {
		if _, ok := models.ParseVersion(tag); !ok {
			continue
		}
		ref, ok := idx.git.TagTarget(repo, tag)
		if !ok {
			continue
		}
		if t := ref.CommitTime.Unix(); t > latestTime {
			latestTime = t
			latestTag = tag
		}
	}

	if latestTag == "" {
		return "", false
	}
	return latestTag, true
}
