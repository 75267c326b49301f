package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dargueta/dirdisk"
	"github.com/dargueta/dirdisk/disks"
	"github.com/dargueta/dirdisk/driver"
	"github.com/dargueta/dirdisk/drivers/dirasdisk"
	"github.com/dargueta/dirdisk/file_systems/fat12"
	"github.com/dargueta/dirdisk/utilities/compression"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp(afero.NewOsFs())
	err := app.Run(os.Args)
	if err != nil {
		logrus.Fatalf("fatal error: %s", err.Error())
	}
}

func newApp(fs afero.Fs) *cli.App {
	geometryFlag := &cli.StringFlag{
		Name:  "geometry",
		Usage: fmt.Sprintf("disk geometry, one of %v", disks.Slugs()),
		Value: disks.DefaultGeometrySlug,
	}
	bootSectorFlag := &cli.StringFlag{
		Name:  "boot-sector",
		Usage: "boot sector variant, dos1 or dos2",
		Value: "dos1",
	}
	strictFlag := &cli.BoolFlag{
		Name:  "strict",
		Usage: "fail if any file couldn't be mirrored completely",
	}

	return &cli.App{
		Name:  "dirdisk",
		Usage: "Present a directory as an MSX FAT12 floppy",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debugging information",
			},
		},
		Before: func(ctx *cli.Context) error {
			if ctx.Bool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Metadata: map[string]interface{}{"fs": fs},
		Commands: []*cli.Command{
			{
				Name:      "dump",
				Usage:     "Mirror a directory and save the disk image",
				ArgsUsage: "DIR OUTPUT_FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "compress",
						Usage: "compress the image with RLE8 and gzip",
					},
					geometryFlag,
					bootSectorFlag,
					strictFlag,
				},
				Action: dumpDirectory,
			},
			{
				Name:      "ls",
				Usage:     "List a directory the way the emulated machine sees it",
				ArgsUsage: "DIR",
				Flags:     []cli.Flag{geometryFlag, strictFlag},
				Action:    listDirectory,
			},
			{
				Name:      "checksum",
				Usage:     "Print the SHA-1 of a disk, image or directory",
				ArgsUsage: "PATH",
				Flags:     []cli.Flag{geometryFlag, bootSectorFlag},
				Action:    checksumDrive,
			},
			{
				Name:      "expand",
				Usage:     "Decompress an RLE8+gzip image",
				ArgsUsage: "INPUT_FILE OUTPUT_FILE",
				Action:    expandImage,
			},
		},
	}
}

func appFs(ctx *cli.Context) afero.Fs {
	return ctx.App.Metadata["fs"].(afero.Fs)
}

func createImageFile(ctx *cli.Context, path string) (afero.File, error) {
	return appFs(ctx).OpenFile(
		path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, dirdisk.DefaultImageFileMode)
}

func requireArgs(ctx *cli.Context, count int) error {
	if ctx.NArg() != count {
		return dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("expected %d arguments, got %d: %s", count, ctx.NArg(), ctx.Command.ArgsUsage))
	}
	return nil
}

// directoryOptions builds the options for mirroring a directory from the
// command line flags. Warnings are both logged and collected so --strict can
// check them afterwards.
func directoryOptions(
	ctx *cli.Context, warnings *dirdisk.CollectingWarningSink,
) ([]dirasdisk.Option, error) {
	options := []dirasdisk.Option{
		dirasdisk.WithFs(appFs(ctx)),
		dirasdisk.WithGeometrySlug(ctx.String("geometry")),
		dirasdisk.WithWarningSink(teeWarningSink{
			dirdisk.NewLogrusWarningSink(logrus.StandardLogger()), warnings,
		}),
		dirasdisk.WithLogger(logrus.StandardLogger()),
	}

	if ctx.IsSet("boot-sector") {
		variant, err := fat12.ParseBootSectorVariant(ctx.String("boot-sector"))
		if err != nil {
			return nil, err
		}
		options = append(options, dirasdisk.WithBootSector(variant))
	}
	return options, nil
}

// teeWarningSink passes every warning to two sinks.
type teeWarningSink struct {
	first  dirdisk.WarningSink
	second dirdisk.WarningSink
}

func (s teeWarningSink) Warn(message string) {
	s.first.Warn(message)
	s.second.Warn(message)
}

func checkStrict(ctx *cli.Context, warnings *dirdisk.CollectingWarningSink) error {
	if !ctx.Bool("strict") || warnings.Len() == 0 {
		return nil
	}
	return fmt.Errorf("%d problems while mirroring: %w", warnings.Len(), warnings.ErrorOrNil())
}

func openDirectory(
	ctx *cli.Context, path string,
) (*dirasdisk.DirAsDisk, *dirdisk.CollectingWarningSink, error) {
	warnings := &dirdisk.CollectingWarningSink{}
	options, err := directoryOptions(ctx, warnings)
	if err != nil {
		return nil, nil, err
	}

	disk, err := dirasdisk.New(path, options...)
	if err != nil {
		return nil, nil, err
	}
	return disk, warnings, nil
}

func dumpDirectory(ctx *cli.Context) error {
	err := requireArgs(ctx, 2)
	if err != nil {
		return err
	}

	disk, warnings, err := openDirectory(ctx, ctx.Args().Get(0))
	if err != nil {
		return err
	}
	err = checkStrict(ctx, warnings)
	if err != nil {
		return err
	}

	outputPath := ctx.Args().Get(1)
	output, err := createImageFile(ctx, outputPath)
	if err != nil {
		return err
	}
	defer output.Close()

	drive := driver.NewDirectoryDrive(disk)
	var written int64
	if ctx.Bool("compress") {
		raw := bytes.Buffer{}
		_, err = drive.WriteImage(&raw)
		if err != nil {
			return err
		}
		written, err = compression.CompressImage(&raw, output)
	} else {
		written, err = drive.WriteImage(output)
	}
	if err != nil {
		return err
	}

	err = output.Close()
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"output":  outputPath,
		"bytes":   written,
		"entries": len(disk.Entries()),
	}).Info("wrote disk image")
	return nil
}

func listDirectory(ctx *cli.Context) error {
	err := requireArgs(ctx, 1)
	if err != nil {
		return err
	}

	disk, warnings, err := openDirectory(ctx, ctx.Args().Get(0))
	if err != nil {
		return err
	}

	entries := disk.Entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ShortName.String() < entries[j].ShortName.String()
	})

	table := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	for _, entry := range entries {
		fmt.Fprintf(
			table,
			"%s\t%d\t%d\t%s\t%s\n",
			entry.ShortName.String(),
			entry.Size,
			entry.Clusters,
			entry.ModTime.Format("2006-01-02 15:04"),
			entry.HostPath)
	}
	fmt.Fprintf(
		table,
		"%d files\t%d bytes free\t\t\t\n",
		len(entries),
		disk.FreeClusters()*disk.Layout().BytesPerCluster())

	err = table.Flush()
	if err != nil {
		return err
	}
	return checkStrict(ctx, warnings)
}

func checksumDrive(ctx *cli.Context) error {
	err := requireArgs(ctx, 1)
	if err != nil {
		return err
	}

	options, err := directoryOptions(ctx, &dirdisk.CollectingWarningSink{})
	if err != nil {
		return err
	}

	drive, err := driver.Open(
		ctx.Args().Get(0),
		driver.Options{Fs: appFs(ctx), ReadOnly: true, DirectoryOptions: options})
	if err != nil {
		return err
	}
	defer drive.Close()

	checksum, err := drive.Checksum()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%s  %s\n", checksum, ctx.Args().Get(0))
	return drive.Close()
}

func expandImage(ctx *cli.Context) error {
	err := requireArgs(ctx, 2)
	if err != nil {
		return err
	}

	input, err := appFs(ctx).Open(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := createImageFile(ctx, ctx.Args().Get(1))
	if err != nil {
		return err
	}
	defer output.Close()

	written, err := compression.DecompressImage(input, output)
	if err != nil {
		return err
	}

	if geometry, found := disks.FindGeometryByTotalSectors(
		uint(written / dirdisk.SectorSize)); found && written%dirdisk.SectorSize == 0 {
		logrus.Infof("expanded %d bytes (%s)", written, geometry.Name)
	} else {
		logrus.Infof("expanded %d bytes (unknown geometry)", written)
	}
	return output.Close()
}
