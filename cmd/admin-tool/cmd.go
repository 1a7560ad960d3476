package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/internal/service"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type adminProvisioner interface {
	ProvisionAdmin(ctx context.Context, req service.ProvisionAdminRequest) (*models.AdminUser, error)
	SetAdminActive(ctx context.Context, username string, active bool) error
}

type commandLine struct {
	admins adminProvisioner
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  add-admin -username USERNAME [-email EMAIL] [-name FULL_NAME] - create or reset a console admin")
	fmt.Fprintln(cli.out, "  disable -username USERNAME - block sign-in for an admin")
	fmt.Fprintln(cli.out, "  enable -username USERNAME - allow sign-in for an admin")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	switch args[1] {
	case "add-admin":
		cmd := flag.NewFlagSet("add-admin", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		username := cmd.String("username", "", "The admin's login name. The password will be prompted next.")
		email := cmd.String("email", "", "Contact email")
		name := cmd.String("name", "", "Full name shown in the console greeting")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *username == "" {
			cmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cmd.Usage()
			return errHelp
		}
		admin, err := cli.admins.ProvisionAdmin(ctx, service.ProvisionAdminRequest{
			Username: *username,
			Password: string(pwd),
			Email:    *email,
			FullName: *name,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "admin %q saved\n", admin.Username)
		return nil
	case "disable", "enable":
		cmd := flag.NewFlagSet(args[1], flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		username := cmd.String("username", "", "The admin's login name")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *username == "" {
			cmd.Usage()
			return errHelp
		}
		active := args[1] == "enable"
		if err := cli.admins.SetAdminActive(ctx, *username, active); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "admin %q %sd\n", *username, args[1])
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}
