package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hyperledger-labs/yui-lane-relayer/config"
	"github.com/hyperledger-labs/yui-lane-relayer/core"
	"github.com/hyperledger-labs/yui-lane-relayer/log"
	"github.com/hyperledger-labs/yui-lane-relayer/relayers"
)

func serviceCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Relay Service Commands",
		Long:  "Commands to manage the relay service",
		RunE:  noCommand,
	}
	cmd.AddCommand(
		startCmd(ctx),
	)
	return cmd
}

func startCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [lane-id...]",
		Short: "Starts relaying the given lanes, or all configured lanes",
		RunE: func(cmd *cobra.Command, args []string) error {
			lanes, err := selectLanes(ctx.Config, args)
			if err != nil {
				return err
			}
			relayer, err := ctx.Config.Relayers.GetAddress()
			if err != nil {
				return err
			}
			keeper, closeDB, err := openKeeper(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			hooks := newKeeperHooks(keeper)
			if err := hooks.registerRelayer(cmd.Context(), relayer, ctx.Config.Relayers.ValidTill, lanes); err != nil {
				return err
			}

			eg, egCtx := errgroup.WithContext(cmd.Context())
			for _, lc := range lanes {
				m, ok := ctx.GetModule(lc.Module)
				if !ok {
					return fmt.Errorf("unknown module '%v' of lane '%v'", lc.Module, lc.ID)
				}
				st, err := core.GetStrategy(lc.Strategy, lc.Limits)
				if err != nil {
					return fmt.Errorf("failed to build the strategy of lane '%v': %v", lc.ID, err)
				}
				interval, err := lc.GetRelayInterval()
				if err != nil {
					return err
				}
				stallTimeout, err := lc.GetStallTimeout()
				if err != nil {
					return err
				}
				lane, err := m.NewLane(egCtx, lc, relayer, hooks)
				if err != nil {
					return fmt.Errorf("failed to create lane '%v': %v", lc.ID, err)
				}
				eg.Go(func() error {
					err := core.StartService(egCtx, lc.ID, st, lane.Source, lane.Target, interval, stallTimeout)
					if err != nil && egCtx.Err() == nil {
						log.GetLogger().WithLane(lc.ID).WithModule("cmd.service").ErrorWithStack("lane service stopped", err)
					}
					return err
				})
			}
			return eg.Wait()
		},
	}
	return cmd
}

func selectLanes(cfg *config.Config, ids []string) ([]config.LaneConfig, error) {
	if len(ids) == 0 {
		if len(cfg.Lanes) == 0 {
			return nil, fmt.Errorf("no lanes are configured")
		}
		return cfg.Lanes, nil
	}
	lanes := make([]config.LaneConfig, 0, len(ids))
	for _, id := range ids {
		lane, err := cfg.GetLane(id)
		if err != nil {
			return nil, err
		}
		lanes = append(lanes, lane)
	}
	return lanes, nil
}

func openKeeper(ctx *config.Context) (*relayers.Keeper, func(), error) {
	params, err := ctx.Config.Relayers.Params()
	if err != nil {
		return nil, nil, err
	}
	db, closeDB, err := relayers.OpenDB(ctx.Config.Relayers.GetDBDir(ctx.HomePath))
	if err != nil {
		return nil, nil, err
	}
	keeper, err := relayers.NewKeeper(db, params)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return keeper, closeDB, nil
}
