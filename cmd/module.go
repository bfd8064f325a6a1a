package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperledger-labs/yui-lane-relayer/config"
)

func modulesCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "show the chain modules that can host lanes",
		RunE:  noCommand,
	}

	cmd.AddCommand(
		showModulesCmd(ctx),
	)

	return cmd
}

type moduleInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Version string `json:"version"`
}

func showModulesCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Shows a list of modules included in the relayer",
		RunE: func(cmd *cobra.Command, args []string) error {
			bi, ok := debug.ReadBuildInfo()
			if !ok {
				return fmt.Errorf("could not read build info")
			}

			modules := make([]moduleInfo, len(ctx.Modules))
			for i, m := range ctx.Modules {
				info, err := retrieveModuleInfo(bi, m)
				if err != nil {
					return err
				}
				modules[i] = info
			}
			sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })

			asJSON, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}
			if asJSON {
				out, err := json.Marshal(modules)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			for _, m := range modules {
				fmt.Fprintf(cmd.OutOrStdout(), "%v %v %v\n", m.Name, m.Path, m.Version)
			}
			return nil
		},
	}
	return jsonFlag(cmd)
}

// retrieveModuleInfo finds the go module that provides the package of m.
func retrieveModuleInfo(info *debug.BuildInfo, m config.ModuleI) (moduleInfo, error) {
	if info == nil {
		return moduleInfo{}, errors.New("build info is unavailable")
	}

	pkgPath := reflect.TypeOf(m).PkgPath()
	if strings.HasPrefix(pkgPath, info.Main.Path) {
		return moduleInfo{Name: m.Name(), Path: info.Main.Path, Version: info.Main.Version}, nil
	}

	i := slices.IndexFunc(info.Deps, func(dm *debug.Module) bool {
		return strings.HasPrefix(pkgPath, dm.Path)
	})
	if i == -1 {
		return moduleInfo{}, fmt.Errorf("could not find module info for %s", m.Name())
	}

	return moduleInfo{Name: m.Name(), Path: info.Deps[i].Path, Version: info.Deps[i].Version}, nil
}
