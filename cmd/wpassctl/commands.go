package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/hostclient"
)

var (
	okColor     = color.New(color.FgGreen, color.Bold)
	hintColor   = color.New(color.FgYellow)
	indexColor  = color.New(color.FgHiBlack)
	headerColor = color.New(color.Bold)
)

var (
	listJSON      bool
	listPasswords bool

	addPassword string

	editName     string
	editLogin    string
	editPassword string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDevice(cmd, func(client *hostclient.Client) error {
			creds := client.Credentials()
			if !listPasswords {
				for i := range creds {
					creds[i].Password = mask(creds[i].Password)
				}
			}

			out := cmd.OutOrStdout()
			if listJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(creds)
			}

			if len(creds) == 0 {
				fmt.Fprintln(out, model.NoAccountsLabel)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, headerColor.Sprint("#")+"\t"+headerColor.Sprint("NAME")+"\t"+headerColor.Sprint("LOGIN")+"\t"+headerColor.Sprint("PASSWORD"))
			for i, c := range creds {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", indexColor.Sprint(i), c.Name, c.LoginID, c.Password)
			}
			return tw.Flush()
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add <name> <login-id>",
	Short: "Append a credential",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		account := model.Credential{Name: args[0], LoginID: args[1], Password: addPassword}
		return withDevice(cmd, func(client *hostclient.Client) error {
			return send(cmd, client, fmt.Sprintf("added %q", account.Name), model.AddAccount{Account: account})
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <index>...",
	Short: "Remove credentials by position",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexes, err := parseIndexes(args)
		if err != nil {
			return err
		}
		return withDevice(cmd, func(client *hostclient.Client) error {
			n := len(client.Credentials())
			for _, i := range indexes {
				if i >= n {
					return fmt.Errorf("index %d out of range (device holds %d)", i, n)
				}
			}
			return send(cmd, client, fmt.Sprintf("removed %v", indexes), model.RemoveAccounts{Indexes: indexes})
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <index>",
	Short: "Change fields of a credential; omitted fields are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexes, err := parseIndexes(args)
		if err != nil {
			return err
		}
		index := indexes[0]
		return withDevice(cmd, func(client *hostclient.Client) error {
			creds := client.Credentials()
			if index >= len(creds) {
				return fmt.Errorf("index %d out of range (device holds %d)", index, len(creds))
			}
			account := creds[index]
			if cmd.Flags().Changed("name") {
				account.Name = editName
			}
			if cmd.Flags().Changed("login") {
				account.LoginID = editLogin
			}
			if cmd.Flags().Changed("password") {
				account.Password = editPassword
			}
			return send(cmd, client, fmt.Sprintf("edited %d", index), model.EditAccount{Index: index, Account: account})
		})
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap <from> <to>",
	Short: "Exchange two credentials",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexes, err := parseIndexes(args)
		if err != nil {
			return err
		}
		return withDevice(cmd, func(client *hostclient.Client) error {
			n := len(client.Credentials())
			if indexes[0] >= n || indexes[1] >= n {
				return fmt.Errorf("indexes %v out of range (device holds %d)", indexes, n)
			}
			return send(cmd, client, fmt.Sprintf("swapped %d and %d", indexes[0], indexes[1]),
				model.SwapAccounts{FromIndex: indexes[0], ToIndex: indexes[1]})
		})
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persist the device's credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDevice(cmd, func(client *hostclient.Client) error {
			if err := client.Send(model.SaveAccounts{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okColor.Sprint("ok")+" saved")
			return nil
		})
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	listCmd.Flags().BoolVar(&listPasswords, "show-passwords", false, "print passwords instead of masking them")

	addCmd.Flags().StringVar(&addPassword, "password", "", "password for the new credential")

	editCmd.Flags().StringVar(&editName, "name", "", "new display name")
	editCmd.Flags().StringVar(&editLogin, "login", "", "new login id")
	editCmd.Flags().StringVar(&editPassword, "password", "", "new password")
}

func parseIndexes(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		i, err := strconv.Atoi(a)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("invalid index %q: must be a non-negative integer", a)
		}
		out = append(out, i)
	}
	return out, nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
