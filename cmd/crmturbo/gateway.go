package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Abraxas-365/crmturbo/asyncx"
	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/Abraxas-365/crmturbo/msgx"
	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway <action>",
	Short: "Call the gateway directly with operator credentials",
	Long: `Run one allow-listed gateway action without going through the panel
proxy. The instance defaults to EVOLUTION_DEFAULT_INSTANCE.

Actions: ` + actionList(),
	Args: cobra.ExactArgs(1),
	RunE: runGateway,
}

var statusCmd = &cobra.Command{
	Use:   "status <instance>...",
	Short: "Show the connection state of one or more instances",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStatus,
}

func init() {
	gatewayCmd.Flags().StringP("instance", "i", "", "Instance name")
	gatewayCmd.Flags().StringP("data", "d", "", "Action data as a JSON object")
	statusCmd.Flags().Int("concurrency", 4, "Instances checked at once")
}

func actionList() string {
	names := make([]string, len(msgx.Actions))
	for i, a := range msgx.Actions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

// gatewayRequest builds the same body the panel sends so the CLI goes
// through identical validation
func gatewayRequest(action, instance, data string) ([]byte, error) {
	req := map[string]any{"action": action}
	if instance != "" {
		req["instanceName"] = instance
	}
	if data != "" {
		var d map[string]any
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, fmt.Errorf("--data must be a JSON object: %w", err)
		}
		req["data"] = d
	}
	return json.Marshal(req)
}

func runGateway(cmd *cobra.Command, args []string) error {
	settings, err := loadFromFlags(cmd)
	if err != nil {
		return err
	}
	instance, _ := cmd.Flags().GetString("instance")
	data, _ := cmd.Flags().GetString("data")

	body, err := gatewayRequest(args[0], instance, data)
	if err != nil {
		return err
	}
	command, err := msgx.ParseCommand(body, settings.DefaultInstance)
	if err != nil {
		return err
	}

	resp, err := gatewayClient(settings, logx.GetLogger()).Execute(cmd.Context(), command)
	if err != nil {
		return errors.New(errx.Print(err))
	}
	return printJSON(cmd.OutOrStdout(), resp.Body)
}

type instanceState struct {
	Instance string `json:"instance"`
	State    string `json:"state"`
	Error    string `json:"error,omitempty"`
}

// connectionState reads instance.state from a connectionState reply
func connectionState(body any) string {
	m, ok := body.(map[string]any)
	if !ok {
		return "unknown"
	}
	if inner, ok := m["instance"].(map[string]any); ok {
		m = inner
	}
	if state, ok := m["state"].(string); ok && state != "" {
		return state
	}
	return "unknown"
}

func checkInstances(ctx context.Context, gw msgx.Gateway, instances []string, limit int) []instanceState {
	settled := asyncx.AsyncAllSettled(ctx, instances, limit, func(ctx context.Context, name string) (string, error) {
		if !msgx.ValidInstanceName(name) {
			return "", msgx.Registry.New(msgx.ErrInvalidInstance).WithDetail("instanceName", name)
		}
		resp, err := gw.Execute(ctx, msgx.Command{Action: msgx.ActionGetInstanceStatus, Instance: name, Data: map[string]any{}})
		if err != nil {
			return "", err
		}
		return connectionState(resp.Body), nil
	})

	out := make([]instanceState, len(settled))
	for i, s := range settled {
		out[i] = instanceState{Instance: s.Item, State: s.Value}
		if s.Err != nil {
			out[i].State = "error"
			out[i].Error = s.Err.Error()
		}
	}
	return out
}

func runStatus(cmd *cobra.Command, args []string) error {
	settings, err := loadFromFlags(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("concurrency")

	states := checkInstances(cmd.Context(), gatewayClient(settings, logx.GetLogger()), args, limit)
	for _, s := range states {
		if s.Error != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%-30s %s (%s)\n", s.Instance, s.State, s.Error)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-30s %s\n", s.Instance, s.State)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
