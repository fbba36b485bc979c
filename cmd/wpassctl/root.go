package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/hostclient"
)

// flagConfig is set by the --config flag.
var flagConfig string

var rootCmd = &cobra.Command{
	Use:               "wpassctl",
	Short:             "Manage the credentials stored on a wpass device",
	Long:              "wpassctl attaches to a wpass device over its command link and edits\nthe credential list. The device must be unlocked to answer.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: <user config dir>/wpass/wpassctl.yaml)")
	rootCmd.PersistentFlags().String(cfgKeyAddr, defaultAddr, "device link address (env WPASS_LINK_ADDR)")
	rootCmd.PersistentFlags().Duration(cfgKeyTimeout, defaultTimeout, "how long to wait for the device to answer (env WPASSCTL_TIMEOUT)")
	rootCmd.PersistentFlags().Bool(cfgKeySave, false, "persist the change on the device")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(saveCmd)
}

// withDevice attaches to the device for the duration of fn.
func withDevice(cmd *cobra.Command, fn func(*hostclient.Client) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), settings.timeout)
	defer cancel()

	client, err := hostclient.Dial(ctx, settings.addr)
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(client)
}

// send delivers cmds, followed by a save when --save is set, and prints done.
func send(cmd *cobra.Command, client *hostclient.Client, done string, cmds ...model.Command) error {
	if settings.save {
		cmds = append(cmds, model.SaveAccounts{})
	}
	if err := client.Send(cmds...); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), okColor.Sprint("ok")+" "+done)
	if !settings.save {
		fmt.Fprintln(cmd.OutOrStdout(), hintColor.Sprint("unsaved: run `wpassctl save` to persist"))
	}
	return nil
}
