package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperledger-labs/yui-lane-relayer/config"
	"github.com/hyperledger-labs/yui-lane-relayer/relayers"
)

func relayersCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relayers",
		Short: "query the registrations and the relayer sets of lanes",
		RunE:  noCommand,
	}

	cmd.AddCommand(
		showRelayersCmd(ctx),
		showRegistrationCmd(ctx),
	)

	return cmd
}

type laneRelayers struct {
	LaneID string                          `json:"lane_id"`
	Active *relayers.ActiveLaneRelayersSet `json:"active"`
	Next   *relayers.NextLaneRelayersSet   `json:"next"`
}

func showRelayersCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [lane-id...]",
		Short: "Shows the active and the next relayer sets of the given lanes, or of all known lanes",
		RunE: func(cmd *cobra.Command, args []string) error {
			keeper, closeDB, err := openKeeper(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			laneIDs := args
			if len(laneIDs) == 0 {
				if laneIDs, err = keeper.Lanes(); err != nil {
					return err
				}
			}

			res := make([]laneRelayers, 0, len(laneIDs))
			for _, id := range laneIDs {
				active, err := keeper.ActiveSet(id)
				if err != nil {
					return err
				}
				next, err := keeper.NextSet(id)
				if err != nil {
					return err
				}
				res = append(res, laneRelayers{LaneID: id, Active: active, Next: next})
			}

			out, err := json.Marshal(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	return cmd
}

func showRegistrationCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registration",
		Short: "Shows the registration of the configured relayer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			relayer, err := ctx.Config.Relayers.GetAddress()
			if err != nil {
				return err
			}
			keeper, closeDB, err := openKeeper(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			reg, found, err := keeper.Registration(relayer)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("relayer %s is not registered", relayer)
			}
			out, err := json.Marshal(reg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	return cmd
}
