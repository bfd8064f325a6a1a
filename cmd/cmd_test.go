package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mockmodule "github.com/hyperledger-labs/yui-lane-relayer/chains/mock/module"
	"github.com/hyperledger-labs/yui-lane-relayer/config"
)

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(mockmodule.Module{})
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	home := t.TempDir()

	_, err := execute(t, context.Background(), "config", "show", "--home", home)
	assert.ErrorContains(t, err, "config does not exist")

	out, err := execute(t, context.Background(), "config", "init", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(home, "config", "config.yaml"))

	_, err = execute(t, context.Background(), "config", "init", "--home", home)
	assert.ErrorContains(t, err, "config already exists")

	out, err = execute(t, context.Background(), "config", "show", "--home", home, "--json")
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, config.DefaultConfig().Lanes, cfg.Lanes)
}

func TestServiceStartRotatesRelayers(t *testing.T) {
	home := t.TempDir()
	cfg := config.DefaultConfig()
	lane := config.DefaultLaneConfig("00000001")
	lane.RelayInterval = "10ms"
	lane.Mock.BlockInterval = "5ms"
	lane.Mock.FinalityDelay = 1
	lane.Mock.MaxMessages = 4
	cfg.Lanes = []config.LaneConfig{lane}
	cfg.Relayers.EpochLength = 2
	require.NoError(t, cfg.Save(config.ConfigPath(home)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := execute(t, ctx, "service", "start", "00000001", "--home", home, "--log-level", "ERROR")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	out, err := execute(t, context.Background(), "relayers", "show", "--home", home)
	require.NoError(t, err)
	var sets []struct {
		LaneID string `json:"lane_id"`
		Active struct {
			EnactedAt uint64 `json:"enacted_at"`
			Relayers  []struct {
				Relayer string `json:"relayer"`
			} `json:"relayers"`
		} `json:"active"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sets))
	require.Len(t, sets, 1)
	assert.Equal(t, "00000001", sets[0].LaneID)
	require.Len(t, sets[0].Active.Relayers, 1)
	assert.Equal(t, cfg.Relayers.Address, sets[0].Active.Relayers[0].Relayer)
	assert.Greater(t, sets[0].Active.EnactedAt, uint64(0))

	out, err = execute(t, context.Background(), "relayers", "registration", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, out, `"valid_till":1000000`)
}

func TestServiceStartUnknownLane(t *testing.T) {
	_, err := execute(t, context.Background(), "service", "start", "unknown", "--home", t.TempDir())
	assert.ErrorContains(t, err, "lane 'unknown' not found")
}
