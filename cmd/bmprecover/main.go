package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/bmprecover/recovery"
	"github.com/dargueta/bmprecover/recovery/status"
)

func main() {
	app := cli.App{
		Name:  "bmprecover",
		Usage: "recover orphaned BMP files on a live ext-family block device",
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "open the device and report its geometry",
				ArgsUsage: "DEVICE",
				Action:    runInit,
			},
			{
				Name:      "scan",
				Usage:     "classify free blocks and report candidate counts",
				ArgsUsage: "DEVICE",
				Action:    runScan,
			},
			{
				Name:      "recover",
				Usage:     "open, scan, and collect in one pass",
				ArgsUsage: "DEVICE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "scan and report, but don't reserve inodes or write anything"},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "don't ask for confirmation before mutating the device"},
					&cli.StringFlag{Name: "priority-inodes", Usage: "comma-separated inode numbers to try reserving first"},
				},
				Action: runRecover,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func devicePath(c *cli.Context) (string, error) {
	if c.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one argument, DEVICE")
	}
	return c.Args().First(), nil
}

func runInit(c *cli.Context) error {
	path, err := devicePath(c)
	if err != nil {
		return err
	}

	sink := status.NewConsoleSink(c.App.Writer, c.App.ErrWriter)
	r, err := recovery.Init(path, sink)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintf(c.App.Writer, "opened %s\n", path)
	return nil
}

func runScan(c *cli.Context) error {
	path, err := devicePath(c)
	if err != nil {
		return err
	}

	sink := status.NewConsoleSink(c.App.Writer, c.App.ErrWriter)
	r, err := recovery.Init(path, sink)
	if err != nil {
		return err
	}
	defer r.Close()

	candidates, err := r.Scan()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "BMP starts: %d\n", len(candidates.BMPStarts))
	fmt.Fprintf(c.App.Writer, "1x indirect: %d\n", len(candidates.Indirects1))
	fmt.Fprintf(c.App.Writer, "2x indirect: %d\n", len(candidates.Indirects2))
	fmt.Fprintf(c.App.Writer, "3x indirect: %d\n", len(candidates.Indirects3))
	return nil
}

func runRecover(c *cli.Context) error {
	path, err := devicePath(c)
	if err != nil {
		return err
	}

	if !c.Bool("yes") && !c.Bool("dry-run") {
		if !confirm(c, path) {
			fmt.Fprintln(c.App.Writer, "aborted")
			return nil
		}
	}

	priorityInodes, err := parsePriorityInodes(c.String("priority-inodes"))
	if err != nil {
		return err
	}

	sink := status.NewConsoleSink(c.App.Writer, c.App.ErrWriter)
	r, err := recovery.Init(path, sink)
	if err != nil {
		return err
	}
	defer r.Close()

	candidates, err := r.Scan()
	if err != nil {
		return err
	}

	if c.Bool("dry-run") {
		fmt.Fprintf(c.App.Writer, "dry run: %d BMP start candidates found, nothing written\n", len(candidates.BMPStarts))
		return nil
	}

	results, err := r.Collect(priorityInodes)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "recovered %d file(s)\n", len(results))
	return nil
}

// confirm asks the operator to answer "y" or "yes" before recover mutates a live
// device, mirroring the reference CLI's default-interactive behavior
// (original_source/final/main.c), skippable with --yes.
func confirm(c *cli.Context, path string) bool {
	fmt.Fprintf(c.App.Writer, "this will write to %s. continue? [y/N] ", path)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func parsePriorityInodes(raw string) ([]uint32, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	inodes := make([]uint32, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid inode number %q: %w", part, err)
		}
		inodes = append(inodes, uint32(n))
	}
	return inodes, nil
}
