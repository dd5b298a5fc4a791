package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/celestiaorg/nodenv/framework/docker/client"
	"github.com/celestiaorg/nodenv/framework/docker/consts"
	"github.com/celestiaorg/nodenv/framework/docker/internal"
	"github.com/celestiaorg/nodenv/framework/docker/node"
	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SetupTestingT is a subset of testing.T required for Setup.
type SetupTestingT interface {
	Helper()

	Name() string

	Failed() bool
	Cleanup(func())

	Logf(format string, args ...any)
}

// sweepConcurrency bounds the number of containers torn down at once.
const sweepConcurrency = 4

// Setup returns a Docker client whose containers are labeled with the name of t.
// Containers left by an earlier run of the same test are removed right away, and
// everything the client created is removed when the test ends.
//
// If any part of the setup fails, Setup panics because the test cannot continue.
func Setup(t SetupTestingT) *client.Client {
	t.Helper()

	cli, err := client.NewFromEnv(client.Options{}, internal.SanitizeDockerResourceName(t.Name()))
	if err != nil {
		panic(fmt.Errorf("failed to create docker client: %v", err))
	}

	// Clean up docker resources at end of test.
	t.Cleanup(Cleanup(t, cli))

	// Also eagerly clean up any leftover resources from a previous test run,
	// e.g. if the test was interrupted.
	Cleanup(t, cli)()

	return cli
}

// Cleanup removes every container carrying the cleanup label of cli. When the test failed
// and LOG_DIR is set, the logs of each container are saved there first. Setting
// KEEP_CONTAINERS skips the removal.
func Cleanup(t SetupTestingT, cli *client.Client) func() {
	return func() {
		keepContainers := os.Getenv("KEEP_CONTAINERS") != ""
		logDir := os.Getenv("LOG_DIR")

		ctx := context.TODO()
		cs, err := cli.ContainerList(ctx, container.ListOptions{
			All: true,
			Filters: filters.NewArgs(
				filters.Arg("label", consts.CleanupLabel+"="+cli.CleanupLabel()),
			),
		})
		if err != nil {
			t.Logf("Failed to list containers during docker cleanup: %v", err)
			return
		}

		for _, c := range cs {
			if t.Failed() && logDir != "" {
				rc, err := cli.ContainerLogs(ctx, c.ID, container.LogsOptions{
					ShowStdout: true,
					ShowStderr: true,
					Tail:       "all",
				})
				if err == nil {
					containerName := strings.TrimPrefix(c.Names[0], "/")
					if err := writeToFile(rc, logDir, fmt.Sprintf("%s.log", containerName)); err != nil {
						t.Logf("Failed to write container logs to file during docker cleanup for container %s: %v", containerName, err)
					}
				}
			}
			if keepContainers {
				continue
			}

			if err := node.Teardown(ctx, cli, c.ID); err != nil {
				t.Logf("Failed to remove container %s during docker cleanup: %v", c.ID, err)
			}
		}

		if keepContainers {
			t.Logf("Keeping containers - Docker cleanup skipped")
		}
	}
}

// Sweep stops and removes every node container named with prefix, as left behind by
// interrupted runs, and waits until the engine no longer lists them. It returns the number
// of containers removed.
func Sweep(ctx context.Context, logger *zap.Logger, gw types.Gateway, prefix string) (int, error) {
	namePrefix := prefix + "-node-"
	summaries, err := gw.ListContainers(ctx, namePrefix)
	if err != nil {
		return 0, fmt.Errorf("listing containers: %w", err)
	}

	var ids []string
	for _, s := range summaries {
		for _, n := range s.Names {
			if strings.HasPrefix(strings.TrimPrefix(n, "/"), namePrefix) {
				ids = append(ids, s.ID)
				break
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := node.Teardown(ctx, gw, id); err != nil {
				return err
			}
			logger.Info("swept container", zap.String("id", id))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// writeToFile writes the contents of an io.ReadCloser to a specified file in the given directory.
// It ensures the directory exists before creating and writing to the file.
// Returns an error if directory creation, file creation, or content copy fails.
func writeToFile(r io.ReadCloser, dir, filename string) error {
	defer r.Close()

	// ensure the directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// create the output file.
	outPath := filepath.Join(dir, filename)
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	// copy the contents
	_, err = io.Copy(outFile, r)
	return err
}
