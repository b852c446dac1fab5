package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/blueprint/internal/pipeline"
	"github.com/efebarandurmaz/blueprint/internal/snapshot"
)

const defaultSnapshotStore = ".blueprint-snapshots"

// newSnapshotCmd builds the snapshot command group: save a run's diagram
// set, list and tag captures, diff two of them and restore one to disk.
func newSnapshotCmd(configPath, language, inputPath *string) *cobra.Command {
	var storeDir string

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture, compare and restore diagram sets",
	}
	snapshotCmd.PersistentFlags().StringVar(&storeDir, "store", defaultSnapshotStore, "Snapshot store directory")
	snapshotCmd.PersistentFlags().StringVar(configPath, "config", "configs/blueprint.yaml", "Config file path")

	var tag, description string
	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Generate diagrams and save them as a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotSave(*configPath, *language, *inputPath, storeDir, tag, description)
		},
	}
	saveCmd.Flags().StringVar(language, "language", "", "Source language (default from config)")
	saveCmd.Flags().StringVar(inputPath, "input", "", "Input path (file or directory)")
	saveCmd.Flags().StringVar(&tag, "tag", "", "Tag for the new snapshot")
	saveCmd.Flags().StringVar(&description, "description", "", "Snapshot description")
	_ = saveCmd.MarkFlagRequired("input")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewStore(storeDir)
			if err != nil {
				return err
			}
			summaries := store.List()
			if len(summaries) == 0 {
				fmt.Println("No snapshots")
				return nil
			}
			for _, s := range summaries {
				tagPart := ""
				if s.Tag != "" {
					tagPart = "  (" + s.Tag + ")"
				}
				fmt.Printf("%s  %s  %d diagrams%s\n",
					s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.DiagramCount, tagPart)
			}
			return nil
		},
	}

	tagCmd := &cobra.Command{
		Use:   "tag <id> <tag>",
		Short: "Tag a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewStore(storeDir)
			if err != nil {
				return err
			}
			return store.Tag(args[0], args[1])
		},
	}

	diffCmd := &cobra.Command{
		Use:   "diff <ref> <ref>",
		Short: "Compare two snapshots by ID or tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewStore(storeDir)
			if err != nil {
				return err
			}
			oldSnap, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			newSnap, err := store.Resolve(args[1])
			if err != nil {
				return err
			}
			d, err := snapshot.Diff(oldSnap, newSnap, store)
			if err != nil {
				return err
			}
			fmt.Print(snapshot.FormatDiff(d))
			return nil
		},
	}

	var restoreDir string
	restoreCmd := &cobra.Command{
		Use:   "restore <ref>",
		Short: "Write a snapshot's diagrams back to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewStore(storeDir)
			if err != nil {
				return err
			}
			snap, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := store.Restore(snap, restoreDir); err != nil {
				return err
			}
			fmt.Printf("Restored %d diagrams to %s\n", len(snap.Manifest), restoreDir)
			return nil
		},
	}
	restoreCmd.Flags().StringVar(&restoreDir, "output", "diagrams", "Target directory")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewStore(storeDir)
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		},
	}

	snapshotCmd.AddCommand(saveCmd, listCmd, tagCmd, diffCmd, restoreCmd, deleteCmd)
	return snapshotCmd
}

func runSnapshotSave(configPath, language, inputPath, storeDir, tag, description string) error {
	cfg := loadConfig(configPath)
	applyFlags(cfg, language, inputPath, "")

	result, err := pipeline.New(newRegistry(), cfg, log.New(os.Stderr, "", log.LstdFlags)).Run(context.Background())
	if err != nil {
		return err
	}

	snap := snapshot.New(cfg.Source.Language, cfg.Source.Root, result.Diagrams, result.Stats, result.EntryPoints)
	snap.Tag = tag
	snap.Description = description

	store, err := snapshot.NewStore(storeDir)
	if err != nil {
		return err
	}
	if summaries := store.List(); len(summaries) > 0 {
		snap.ParentID = summaries[0].ID
	}
	if err := store.Save(snap, result.Diagrams); err != nil {
		return err
	}

	fmt.Printf("Saved snapshot %s (%d diagrams)\n", snap.ID, len(snap.Manifest))
	return nil
}
