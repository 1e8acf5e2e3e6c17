// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/riptide/pkg/layoutstore"
	"github.com/wavetermdev/riptide/pkg/rtconfig"
	"github.com/wavetermdev/riptide/pkg/util/utilfn"
	"github.com/wavetermdev/riptide/pkg/vdom"
)

const layoutCmdTimeout = 15 * time.Second

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "manage saved layout snapshots",
}

var layoutListCmd = &cobra.Command{
	Use:   "list",
	Short: "list saved layout snapshots",
	RunE:  runLayoutListCmd,
}

var layoutShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "print a layout snapshot as json",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayoutShowCmd,
}

var layoutSaveCmd = &cobra.Command{
	Use:   "save [name] [file]",
	Short: "save a layout snapshot from a json file (\"-\" reads stdin)",
	Args:  cobra.ExactArgs(2),
	RunE:  runLayoutSaveCmd,
}

var layoutDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "delete a layout snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayoutDeleteCmd,
}

var layoutExportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "export a layout snapshot to an s3 bucket",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayoutExportCmd,
}

var layoutImportCmd = &cobra.Command{
	Use:   "import",
	Short: "import a layout snapshot from an s3 bucket",
	RunE:  runLayoutImportCmd,
}

var layoutS3ListCmd = &cobra.Command{
	Use:   "s3list",
	Short: "list layout snapshots stored in an s3 bucket",
	RunE:  runLayoutS3ListCmd,
}

var layoutProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "list aws profiles usable with export/import",
	RunE:  runLayoutProfilesCmd,
}

var (
	layoutS3Profile string
	layoutS3Bucket  string
	layoutS3Key     string
	layoutS3Prefix  string
)

func init() {
	for _, subCmd := range []*cobra.Command{layoutExportCmd, layoutImportCmd, layoutS3ListCmd} {
		subCmd.Flags().StringVar(&layoutS3Profile, "profile", "", "aws profile to use (default from layout:s3profile)")
		subCmd.Flags().StringVar(&layoutS3Bucket, "bucket", "", "s3 bucket name (default from layout:s3bucket)")
	}
	layoutExportCmd.Flags().StringVar(&layoutS3Key, "key", "", "s3 object key (defaults to <name>.json)")
	layoutImportCmd.Flags().StringVar(&layoutS3Key, "key", "", "s3 object key")
	layoutImportCmd.MarkFlagRequired("key")
	layoutS3ListCmd.Flags().StringVar(&layoutS3Prefix, "prefix", "", "s3 key prefix to list under")
	layoutCmd.AddCommand(layoutListCmd)
	layoutCmd.AddCommand(layoutShowCmd)
	layoutCmd.AddCommand(layoutSaveCmd)
	layoutCmd.AddCommand(layoutDeleteCmd)
	layoutCmd.AddCommand(layoutExportCmd)
	layoutCmd.AddCommand(layoutImportCmd)
	layoutCmd.AddCommand(layoutS3ListCmd)
	layoutCmd.AddCommand(layoutProfilesCmd)
	rootCmd.AddCommand(layoutCmd)
}

// resolveS3Target fills the profile and bucket from settings when the flags
// were not given. The bucket has no sane default, so it stays required one
// way or the other.
func resolveS3Target() error {
	settings := rtconfig.ReadFullSettings().Settings
	if layoutS3Profile == "" {
		layoutS3Profile = settings.LayoutS3Profile
	}
	if layoutS3Bucket == "" {
		layoutS3Bucket = settings.LayoutS3Bucket
	}
	if layoutS3Bucket == "" {
		return fmt.Errorf("no s3 bucket given (use --bucket or set layout:s3bucket)")
	}
	return nil
}

// withLayoutstore runs fn against an opened layoutstore. CLI commands log to
// stderr only through returned errors, so db chatter is discarded.
func withLayoutstore(fn func(ctx context.Context) error) error {
	discardLogs()
	if err := ensureRiptideDirs(); err != nil {
		return err
	}
	if err := layoutstore.InitLayoutstore(); err != nil {
		return fmt.Errorf("error initializing layoutstore: %w", err)
	}
	defer layoutstore.CloseLayoutstore()
	ctx, cancelFn := context.WithTimeout(context.Background(), layoutCmdTimeout)
	defer cancelFn()
	return fn(ctx)
}

func runLayoutListCmd(cmd *cobra.Command, args []string) error {
	return withLayoutstore(func(ctx context.Context) error {
		metas, err := layoutstore.ListSnapshots(ctx)
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			writeStdout("no saved layouts\n")
			return nil
		}
		writeStdout("%-20s %8s  %s\n", "name", "version", "modified")
		for _, meta := range metas {
			modified := time.UnixMilli(meta.ModifiedTs).Format("2006-01-02 15:04:05")
			writeStdout("%-20s %8d  %s\n", meta.Name, meta.Version, modified)
		}
		return nil
	})
}

func runLayoutShowCmd(cmd *cobra.Command, args []string) error {
	return withLayoutstore(func(ctx context.Context) error {
		elem, err := layoutstore.GetSnapshot(ctx, args[0])
		if err != nil {
			return err
		}
		writeStdout("%s\n", utilfn.MustPrettyPrintJSON(elem))
		return nil
	})
}

func runLayoutSaveCmd(cmd *cobra.Command, args []string) error {
	name, fileName := args[0], args[1]
	var barr []byte
	var err error
	if fileName == "-" {
		barr, err = io.ReadAll(os.Stdin)
	} else {
		barr, err = os.ReadFile(fileName)
	}
	if err != nil {
		return fmt.Errorf("error reading layout json: %w", err)
	}
	elem, err := vdom.ElemFromJson(barr)
	if err != nil {
		return fmt.Errorf("error parsing layout json: %w", err)
	}
	return withLayoutstore(func(ctx context.Context) error {
		meta, err := layoutstore.SaveSnapshot(ctx, name, elem)
		if err != nil {
			return err
		}
		writeStdout("saved layout %q v%d\n", meta.Name, meta.Version)
		return nil
	})
}

func runLayoutDeleteCmd(cmd *cobra.Command, args []string) error {
	return withLayoutstore(func(ctx context.Context) error {
		if err := layoutstore.DeleteSnapshot(ctx, args[0]); err != nil {
			return err
		}
		writeStdout("deleted layout %q\n", args[0])
		return nil
	})
}

func runLayoutExportCmd(cmd *cobra.Command, args []string) error {
	if err := resolveS3Target(); err != nil {
		return err
	}
	name := args[0]
	key := layoutS3Key
	if key == "" {
		key = name + ".json"
	}
	return withLayoutstore(func(ctx context.Context) error {
		err := layoutstore.ExportSnapshotToS3(ctx, layoutS3Profile, layoutS3Bucket, key, name)
		if err != nil {
			return err
		}
		writeStdout("exported layout %q to s3://%s/%s\n", name, layoutS3Bucket, key)
		return nil
	})
}

func runLayoutImportCmd(cmd *cobra.Command, args []string) error {
	if err := resolveS3Target(); err != nil {
		return err
	}
	return withLayoutstore(func(ctx context.Context) error {
		meta, err := layoutstore.ImportSnapshotFromS3(ctx, layoutS3Profile, layoutS3Bucket, layoutS3Key)
		if err != nil {
			return err
		}
		writeStdout("imported layout %q v%d from s3://%s/%s\n", meta.Name, meta.Version, layoutS3Bucket, layoutS3Key)
		return nil
	})
}

func runLayoutS3ListCmd(cmd *cobra.Command, args []string) error {
	if err := resolveS3Target(); err != nil {
		return err
	}
	discardLogs()
	ctx, cancelFn := context.WithTimeout(context.Background(), layoutCmdTimeout)
	defer cancelFn()
	keys, err := layoutstore.ListSnapshotsInS3(ctx, layoutS3Profile, layoutS3Bucket, layoutS3Prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		writeStdout("no snapshots found in s3://%s/%s\n", layoutS3Bucket, layoutS3Prefix)
		return nil
	}
	for _, key := range keys {
		writeStdout("%s\n", key)
	}
	return nil
}

func runLayoutProfilesCmd(cmd *cobra.Command, args []string) error {
	profiles := layoutstore.ListAWSProfiles()
	if len(profiles) == 0 {
		writeStdout("no aws profiles found\n")
		return nil
	}
	for _, profile := range profiles {
		writeStdout("%s\n", profile)
	}
	return nil
}
