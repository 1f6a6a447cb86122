package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"classroll/internal/app"
	"classroll/internal/browser"
	"classroll/internal/console"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal   // mockable

	errHelp        = errors.New("help provided")
	errNotSignedIn = errors.New("not signed in; run: attend login -username USERNAME")
)

type commandLine struct {
	router *app.Router
	in     io.Reader
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  shell                      - interactive attendance taking (default)")
	fmt.Fprintln(cli.out, "  login -username USERNAME   - sign in; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                     - forget the saved session")
	fmt.Fprintln(cli.out, "  whoami                     - show the signed-in teacher")
	fmt.Fprintln(cli.out, "  classes                    - list your classes")
}

func (cli *commandLine) run(args []string) error {
	ctx := context.Background()
	if len(args) < 2 {
		return console.New(cli.router, cli.in, cli.out).Run(ctx)
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginCmd.SetOutput(cli.out)
	loginUname := loginCmd.String("username", "", "The teacher's username. The password will be prompted next.")

	switch args[1] {
	case "shell":
		return console.New(cli.router, cli.in, cli.out).Run(ctx)
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *loginUname == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := cli.readPassword()
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if pwd == "" {
			loginCmd.Usage()
			return errHelp
		}
		teacher, err := cli.router.Login(ctx, *loginUname, pwd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Signed in as %s\n", teacher.FullName)
		return nil
	case "logout":
		if err := cli.router.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Signed out.")
		return nil
	case "whoami":
		teacher, ok := cli.router.Session.Teacher()
		if !ok {
			return errNotSignedIn
		}
		fmt.Fprintf(cli.out, "%s (%s) <%s>\n", teacher.FullName, teacher.Username, teacher.Email)
		return nil
	case "classes":
		if !cli.router.Session.Authenticated() {
			return errNotSignedIn
		}
		return cli.listClasses(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) readPassword() (string, error) {
	if f, ok := cli.in.(*os.File); ok && isTerminalFunc(int(f.Fd())) {
		pwd, err := readPasswordFunc(int(f.Fd()))
		return string(pwd), err
	}
	line, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (cli *commandLine) listClasses(ctx context.Context) error {
	classes := cli.router.Classes.Load(ctx)
	if len(classes) == 0 {
		fmt.Fprintln(cli.out, "No classes assigned.")
		return nil
	}
	for _, g := range browser.GroupClasses(classes) {
		fmt.Fprintln(cli.out, g.Key)
		for _, c := range g.Classes {
			fmt.Fprintf(cli.out, "  %s  Students: %d\n", c.Name, c.StudentCount())
		}
	}
	return nil
}
