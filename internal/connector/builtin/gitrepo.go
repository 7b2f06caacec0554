package builtin

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/weftrun/weft/internal/connector"
	streamyerrors "github.com/weftrun/weft/pkg/errors"
)

type gitrepoConnector struct {
	url         string
	destination string
	branch      string
}

// NewGitRepo constructs a connector that clones a repository if it does
// not already exist at destination, or opens and inspects it otherwise.
// configuration: {url: string, destination: string, branch?: string}.
func NewGitRepo(configuration map[string]any) (connector.Connector, error) {
	url, _ := configuration["url"].(string)
	destination, _ := configuration["destination"].(string)
	if url == "" || destination == "" {
		return nil, streamyerrors.NewConfigError("url/destination", "gitrepo connector requires both url and destination", nil)
	}
	branch, _ := configuration["branch"].(string)

	return &gitrepoConnector{url: url, destination: destination, branch: branch}, nil
}

func (g *gitrepoConnector) Call(input any) (connector.Result, error) {
	opts := &git.CloneOptions{URL: g.url}
	if g.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(g.branch)
	}

	repo, err := git.PlainClone(g.destination, false, opts)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		repo, err = git.PlainOpen(g.destination)
	}
	if err != nil {
		return connector.Result{
			Status: connector.Status{Success: false, Notes: []string{fmt.Sprintf("git operation failed: %v", err)}},
		}, nil
	}

	head, err := repo.Head()
	if err != nil {
		return connector.Result{
			Status: connector.Status{Success: false, Notes: []string{fmt.Sprintf("cannot resolve HEAD: %v", err)}},
		}, nil
	}

	return connector.Result{
		Status: connector.Status{Success: true},
		Data: map[string]any{
			"destination": g.destination,
			"head":        head.Hash().String(),
		},
	}, nil
}
