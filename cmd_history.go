package main

import (
	"context"
	"fmt"

	"github.com/satriahrh/cocoa-fruit/assistant/usecase"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the weather history",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List remembered cities, most recent first",
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every remembered city",
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.AddCommand(historyShowCmd, historyClearCmd)
}

func openHistory(ctx context.Context) (*usecase.HistoryService, func() error, error) {
	store, closeStore, err := openHistoryStore(settings)
	if err != nil {
		return nil, nil, err
	}
	svc, err := usecase.NewHistoryService(ctx, store, nil)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return svc, closeStore, nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	svc, closeStore, err := openHistory(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	fmt.Fprintln(cmd.OutOrStdout(), svc.Listing())
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	svc, closeStore, err := openHistory(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	if err := svc.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Weather history cleared.")
	return nil
}
