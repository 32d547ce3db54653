package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/famfs-go/famfs/fsops"
	"github.com/famfs-go/famfs/replay"
	"github.com/urfave/cli/v2"
	"golang.org/x/sys/unix"
)

func main() {
	app := &cli.App{
		Name:  "famfs",
		Usage: "Manage a famfs DAX file system's control plane",
		Commands: []*cli.Command{
			{
				Name:      "mkfs",
				Usage:     "Write a fresh superblock and log to a DAX device",
				Action:    mkfsAction,
				ArgsUsage: "DEVICE",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "log-length", Usage: "log region size in bytes"},
				},
			},
			{
				Name:      "mount",
				Usage:     "Mount a famfs device (thin wrapper over mount(2))",
				Action:    mountAction,
				ArgsUsage: "DEVICE MOUNTPOINT",
			},
			{
				Name:      "mkmeta",
				Usage:     "Create the .meta directory and reserved files on an already-mounted device",
				Action:    mkmetaAction,
				ArgsUsage: "DEVICE",
			},
			{
				Name:      "logplay",
				Usage:     "Replay the log to reconstruct the namespace under a mount point",
				Action:    logplayAction,
				ArgsUsage: "MOUNTPOINT",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run"},
					&cli.StringFlag{Name: "shadow", Usage: "replay into this directory instead of MOUNTPOINT"},
				},
			},
			{
				Name:      "fsck",
				Usage:     "Validate the superblock and rebuild the allocation bitmap from the log",
				Action:    fsckAction,
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "verbose"},
				},
			},
			{
				Name:      "creat",
				Usage:     "Create and allocate a famfs file",
				Action:    creatAction,
				ArgsUsage: "PATH SIZE",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "mode", Value: 0644},
					&cli.Int64Flag{Name: "seed", Usage: "fill the file with a deterministic pattern for later verify"},
				},
			},
			{
				Name:      "cp",
				Usage:     "Copy a file into a famfs mount",
				Action:    cpAction,
				ArgsUsage: "SRC DST",
			},
			{
				Name:      "verify",
				Usage:     "Check a file's contents against a seed used with creat --seed",
				Action:    verifyAction,
				ArgsUsage: "PATH SEED",
			},
			{
				Name:      "mkdir",
				Usage:     "Create a directory inside a famfs mount",
				Action:    mkdirAction,
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "mode", Value: 0755},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("famfs: %s", err.Error())
	}
}

func mkfsAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("usage: famfs mkfs DEVICE", 1)
	}
	err := fsops.Mkfs(c.Args().First(), fsops.MkfsOptions{LogLength: c.Uint64("log-length")})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func mountAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return cli.Exit("usage: famfs mount DEVICE MOUNTPOINT", 1)
	}
	device, mountPoint := c.Args().Get(0), c.Args().Get(1)
	if err := unix.Mount(device, mountPoint, "famfs", 0, ""); err != nil {
		return cli.Exit(fmt.Sprintf("mount failed: %s", err), 1)
	}
	return nil
}

func mkmetaAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("usage: famfs mkmeta DEVICE", 1)
	}
	if err := fsops.Mkmeta(c.Args().First()); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func logplayAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("usage: famfs logplay MOUNTPOINT", 1)
	}
	mountPoint := c.Args().First()

	logBuf, err := readLogFile(mountPoint)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	report, err := replay.Replay(logBuf, mountPoint, replay.Options{
		DryRun:    c.Bool("dry-run"),
		ShadowDir: c.String("shadow"),
	})
	if report == nil {
		return cli.Exit(err.Error(), 1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logplay: %s\n", err)
	}
	fmt.Printf("files created: %d, dirs created: %d, skipped: %d\n",
		report.FilesCreated, report.DirsCreated, report.Skipped)
	if report.Skipped > 0 {
		return cli.Exit("logplay had skipped entries", report.Skipped)
	}
	return nil
}

func fsckAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("usage: famfs fsck PATH", 1)
	}
	report, err := fsops.Fsck(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Printf("alloc_errors=%d size_total=%d alloc_total=%d space_amplification=%.2f\n",
		report.AllocErrors, report.SizeTotal, report.AllocTotal, report.SpaceAmplification())
	if c.Bool("verbose") {
		fmt.Printf("superblock uuid=%s log_length=%d\n", report.Superblock.UUID, report.Superblock.LogLength)
	}
	if report.AllocErrors > 0 {
		return cli.Exit("allocation collisions found", int(report.AllocErrors))
	}
	return nil
}

func creatAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return cli.Exit("usage: famfs creat PATH SIZE", 1)
	}
	size, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
	if err != nil {
		return cli.Exit("invalid size: "+err.Error(), 1)
	}

	f, err := fsops.Mkfile(c.Args().First(), size, fsops.CreateOptions{Mode: uint32(c.Uint("mode"))})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	if c.IsSet("seed") {
		if err := fsops.FillSeeded(f, c.Int64("seed")); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	return nil
}

func cpAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return cli.Exit("usage: famfs cp SRC DST", 1)
	}
	if err := fsops.Cp(c.Args().Get(0), c.Args().Get(1)); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func verifyAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return cli.Exit("usage: famfs verify PATH SEED", 1)
	}
	seed, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return cli.Exit("invalid seed: "+err.Error(), 1)
	}

	ok, err := fsops.VerifySeeded(c.Args().First(), seed)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if !ok {
		return cli.Exit("verify: contents do not match seed", 1)
	}
	fmt.Println("verify: OK")
	return nil
}

func mkdirAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("usage: famfs mkdir PATH", 1)
	}
	if err := fsops.Mkdir(c.Args().First(), fsops.CreateOptions{Mode: uint32(c.Uint("mode"))}); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func readLogFile(mountPoint string) ([]byte, error) {
	return os.ReadFile(mountPoint + "/.meta/.log")
}
