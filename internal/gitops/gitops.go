// pattern: Imperative Shell

// Package gitops implements the git operations workbench performs on a
// workspace. Local operations use go-git and need no git binary; pushing
// goes through the user's git so their credential setup applies.
package gitops

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

var (
	// ErrNotRepository is returned when the directory has no git repository.
	ErrNotRepository = errors.New("not a git repository")

	// ErrAlreadyRepository is returned by Init when a repository exists.
	ErrAlreadyRepository = errors.New("git repository already exists")

	// ErrNothingToCommit is returned by Commit when nothing is staged.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrNoAuthor is returned when no author identity can be resolved.
	ErrNoAuthor = errors.New("git author is not configured (set git.author_name and git.author_email)")
)

// Author identifies who commits and tags.
type Author struct {
	Name  string
	Email string
}

// Info summarizes a repository for display.
type Info struct {
	Branch    string // Current branch; empty when HEAD is detached
	RemoteURL string // First URL of the first remote, if any
	LatestTag string // Nearest tag reachable from HEAD, if any
	Changed   int    // Files with staged or unstaged changes, including untracked
}

// Clean reports whether the working tree has no changes.
func (i Info) Clean() bool {
	return i.Changed == 0
}

// Init creates a repository in dir.
func Init(dir string) error {
	if _, err := git.PlainInit(dir, false); err != nil {
		if errors.Is(err, git.ErrRepositoryAlreadyExists) {
			return ErrAlreadyRepository
		}
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// IsRepository reports whether dir holds a git repository.
func IsRepository(dir string) bool {
	_, err := open(dir)
	return err == nil
}

// AddAll stages every change in the working tree, like `git add .`.
func AddAll(dir string) error {
	repo, err := open(dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	return nil
}

// Commit records the staged changes with message and returns the new
// commit hash. An empty author falls back to the user's global git config.
func Commit(dir, message string, author Author) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("git commit: empty commit message")
	}

	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("git status: %w", err)
	}
	if !hasStaged(status) {
		return "", ErrNothingToCommit
	}

	sig, err := signature(repo, author)
	if err != nil {
		return "", err
	}

	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}
	return hash.String(), nil
}

// Status collects branch, remote, tag and change information for dir.
func Status(dir string) (Info, error) {
	repo, err := open(dir)
	if err != nil {
		return Info{}, err
	}

	var info Info

	if ref, err := repo.Reference(plumbing.HEAD, false); err == nil && ref.Type() == plumbing.SymbolicReference {
		info.Branch = ref.Target().Short()
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return Info{}, fmt.Errorf("git remote: %w", err)
	}
	info.RemoteURL = remoteURL(remotes)

	info.LatestTag, err = latestTag(repo)
	if err != nil {
		return Info{}, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return Info{}, fmt.Errorf("git status: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return Info{}, fmt.Errorf("git status: %w", err)
	}
	for _, fs := range status {
		if fs.Worktree != git.Unmodified || fs.Staging != git.Unmodified {
			info.Changed++
		}
	}

	return info, nil
}

// LatestTag returns the nearest tag reachable from HEAD, or "" when there is
// none (including repositories without commits).
func LatestTag(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	return latestTag(repo)
}

// CurrentVersion returns the latest tag without its leading "v", or "0.0.0"
// when the repository has no reachable tag.
func CurrentVersion(dir string) (string, error) {
	tag, err := LatestTag(dir)
	if err != nil {
		return "", err
	}
	if tag == "" {
		return "0.0.0", nil
	}
	return strings.TrimPrefix(tag, "v"), nil
}

// TagVersion creates the annotated tag v<version> on HEAD with the message
// "Version <version>".
func TagVersion(dir, version string, tagger Author) error {
	repo, err := open(dir)
	if err != nil {
		return err
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("git tag: resolving HEAD: %w", err)
	}

	sig, err := signature(repo, tagger)
	if err != nil {
		return err
	}

	name := "v" + version
	_, err = repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Tagger:  sig,
		Message: "Version " + version,
	})
	if err != nil {
		return fmt.Errorf("git tag %s: %w", name, err)
	}
	return nil
}

// CurrentBranch returns the branch HEAD points at.
func CurrentBranch(dir string) (string, error) {
	info, err := Status(dir)
	if err != nil {
		return "", err
	}
	if info.Branch == "" {
		return "", fmt.Errorf("HEAD is detached")
	}
	return info.Branch, nil
}

func open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("opening repository %s: %w", dir, err)
	}
	return repo, nil
}

// remoteURL picks origin's first URL, else the alphabetically first remote
// that has one.
func remoteURL(remotes []*git.Remote) string {
	best, bestName := "", ""
	for _, remote := range remotes {
		cfg := remote.Config()
		if len(cfg.URLs) == 0 {
			continue
		}
		if cfg.Name == "origin" {
			return cfg.URLs[0]
		}
		if best == "" || cfg.Name < bestName {
			best, bestName = cfg.URLs[0], cfg.Name
		}
	}
	return best
}

func hasStaged(status git.Status) bool {
	for _, fs := range status {
		if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			return true
		}
	}
	return false
}

func signature(repo *git.Repository, author Author) (*object.Signature, error) {
	name, email := author.Name, author.Email
	if name == "" || email == "" {
		if cfg, err := repo.ConfigScoped(gitconfig.GlobalScope); err == nil {
			if name == "" {
				name = cfg.User.Name
			}
			if email == "" {
				email = cfg.User.Email
			}
		}
	}
	if name == "" || email == "" {
		return nil, ErrNoAuthor
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}, nil
}

// latestTag walks history from HEAD, newest commit first, and returns the
// first tag found. When several tags point at one commit the highest version
// wins.
func latestTag(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}

	byCommit := make(map[plumbing.Hash]string)
	tags, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("listing tags: %w", err)
	}
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if annotated, err := repo.TagObject(target); err == nil {
			commit, err := annotated.Commit()
			if err != nil {
				return nil
			}
			target = commit.Hash
		}
		name := ref.Name().Short()
		if existing, ok := byCommit[target]; !ok || tagLess(existing, name) {
			byCommit[target] = name
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("listing tags: %w", err)
	}
	if len(byCommit) == 0 {
		return "", nil
	}

	commits, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return "", fmt.Errorf("git log: %w", err)
	}
	defer commits.Close()

	var found string
	err = commits.ForEach(func(c *object.Commit) error {
		if name, ok := byCommit[c.Hash]; ok {
			found = name
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("git log: %w", err)
	}
	return found, nil
}

// tagLess orders tags by version when both parse, otherwise lexically.
func tagLess(a, b string) bool {
	va, okA := ParseVersion(a)
	vb, okB := ParseVersion(b)
	if okA && okB {
		return va.Less(vb)
	}
	return a < b
}
