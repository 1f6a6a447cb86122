package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"classroll/internal/app"
	"classroll/internal/browser"
	"classroll/internal/model"
	"classroll/internal/session"
	"classroll/internal/sheet"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal   // mockable

	errQuit = errors.New("quit")
)

const confirmSubmit = "Are you sure you want to submit the attendance? This action cannot be undone."

// Console drives the client from a line-oriented terminal.
type Console struct {
	router *app.Router
	in     io.Reader
	lines  *bufio.Scanner
	out    io.Writer

	classes []model.SchoolClass // numbered in display order; nil until loaded
}

func New(router *app.Router, in io.Reader, out io.Writer) *Console {
	return &Console{
		router: router,
		in:     in,
		lines:  bufio.NewScanner(in),
		out:    out,
	}
}

// Run shows the current view and handles commands until quit or end of
// input.
func (c *Console) Run(ctx context.Context) error {
	for {
		var err error
		switch c.router.View() {
		case app.ViewLogin:
			err = c.login(ctx)
		case app.ViewClasses:
			err = c.classList(ctx)
		case app.ViewSheet:
			err = c.attendanceSheet(ctx)
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) readLine(prompt string) (string, error) {
	c.printf("%s", prompt)
	if !c.lines.Scan() {
		if err := c.lines.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.lines.Text()), nil
}

func (c *Console) readPassword(prompt string) (string, error) {
	if f, ok := c.in.(*os.File); ok && isTerminalFunc(int(f.Fd())) {
		c.printf("%s", prompt)
		pwd, err := readPasswordFunc(int(f.Fd()))
		c.printf("\n")
		return string(pwd), err
	}
	return c.readLine(prompt)
}

func (c *Console) login(ctx context.Context) error {
	c.printf("\nClassroom Attendance\nSign in to take attendance\n\n")
	username, err := c.readLine("Username: ")
	if err != nil {
		return err
	}
	if username == "quit" {
		return errQuit
	}
	password, err := c.readPassword("Password: ")
	if err != nil {
		return err
	}
	if username == "" || password == "" {
		c.printf("Username and password are required\n")
		return nil
	}

	if _, err := c.router.Login(ctx, username, password); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			c.printf("%s\n", err)
			return nil
		}
		c.printf("Login failed: %v\n", err)
		return nil
	}
	c.classes = nil
	return nil
}

func (c *Console) classList(ctx context.Context) error {
	if c.classes == nil {
		c.printf("Loading classes...\n")
		c.classes = flatten(browser.GroupClasses(c.router.Classes.Load(ctx)))
	}
	c.renderClasses()

	line, err := c.readLine("> ")
	if err != nil {
		return err
	}
	cmd, _ := splitCommand(line)
	switch cmd {
	case "":
	case "quit", "exit":
		return errQuit
	case "refresh":
		c.classes = nil
	case "logout":
		return c.logout(ctx)
	case "help":
		c.printf("Commands: <number> open class, refresh, logout, quit\n")
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil || n < 1 || n > len(c.classes) {
			c.printf("Unknown command: %s\n", line)
			return nil
		}
		c.printf("Loading attendance...\n")
		c.router.SelectClass(ctx, c.classes[n-1])
	}
	return nil
}

func (c *Console) renderClasses() {
	teacher, _ := c.router.Session.Teacher()
	c.printf("\nMy Classes\nWelcome back, %s\n", teacher.FullName)
	if len(c.classes) == 0 {
		c.printf("\nNo classes assigned.\n")
		return
	}
	n := 0
	for _, g := range browser.GroupClasses(c.classes) {
		c.printf("\n%s\n", g.Key)
		for _, class := range g.Classes {
			n++
			c.printf("  %d) %s  Students: %d\n", n, class.Name, class.StudentCount())
		}
	}
}

func flatten(groups []browser.Group) []model.SchoolClass {
	out := []model.SchoolClass{}
	for _, g := range groups {
		out = append(out, g.Classes...)
	}
	return out
}

func (c *Console) attendanceSheet(ctx context.Context) error {
	sh := c.router.Sheet()
	c.renderSheet(sh)

	line, err := c.readLine("> ")
	if err != nil {
		return err
	}
	cmd, arg := splitCommand(line)
	switch cmd {
	case "":
	case "quit", "exit":
		return errQuit
	case "back":
		c.router.Back()
	case "logout":
		return c.logout(ctx)
	case "refresh":
		sh.Load(ctx)
	case "present", "p":
		c.setStatus(sh, arg, model.StatusPresent)
	case "absent", "a":
		c.setStatus(sh, arg, model.StatusAbsent)
	case "date":
		if err := sh.Select(ctx, arg, sh.Session()); err != nil {
			c.printf("%v\n", err)
		}
	case "session":
		sess, err := model.ParseSession(arg)
		if err != nil {
			c.printf("%v\n", err)
			return nil
		}
		if err := sh.Select(ctx, sh.Date(), sess); err != nil {
			c.printf("%v\n", err)
		}
	case "submit":
		return c.submit(ctx, sh)
	case "help":
		c.printf("Commands: present <n>, absent <n>, date YYYY-MM-DD, session morning|afternoon, submit, refresh, back, logout, quit\n")
	default:
		c.printf("Unknown command: %s\n", line)
	}
	return nil
}

func (c *Console) setStatus(sh *sheet.Sheet, arg string, status model.Status) {
	rows := sh.Rows()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(rows) {
		c.printf("No student number %q\n", arg)
		return
	}
	if err := sh.SetStatus(rows[n-1].Student.ID, status); err != nil {
		if errors.Is(err, sheet.ErrSubmitted) {
			c.printf("Attendance already submitted for this session; it cannot be changed.\n")
			return
		}
		c.printf("%v\n", err)
	}
}

func (c *Console) submit(ctx context.Context, sh *sheet.Sheet) error {
	if sh.Submitted() {
		c.printf("Attendance already submitted for this session.\n")
		return nil
	}
	answer, err := c.readLine(confirmSubmit + " [y/N] ")
	if err != nil {
		return err
	}
	if a := strings.ToLower(answer); a != "y" && a != "yes" {
		c.printf("Submission cancelled.\n")
		return nil
	}
	c.printf("Submitting...\n")
	if err := sh.Submit(ctx); err != nil {
		c.printf("Error: %v\n", err)
		return nil
	}
	c.printf("Attendance submitted successfully!\n")
	return nil
}

func (c *Console) renderSheet(sh *sheet.Sheet) {
	class := sh.Class()
	sess := sh.Session()
	c.printf("\n%s\n%s\n", class.Name, class.GroupKey())
	c.printf("Date: %s  Session: %s (%s)\n", sh.Date(), sess.Label(), sess.Window())
	if sh.Submitted() {
		c.printf("[Submitted] Attendance has been submitted and cannot be modified.\n")
	}
	st := sh.Stats()
	c.printf("Total: %d  Present: %d  Absent: %d  Rate: %d%%\n\n", st.Total, st.Present, st.Absent, st.Rate)

	rows := sh.Rows()
	if len(rows) == 0 {
		c.printf("No students found.\n")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tStudent\tStatus")
	for i, r := range rows {
		status := string(r.Status)
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, r.Student.FullName, status)
	}
	_ = tw.Flush()
}

func (c *Console) logout(ctx context.Context) error {
	c.classes = nil
	// the in-memory session is cleared even when the stored copy is not
	if err := c.router.Logout(ctx); err != nil {
		c.printf("Logout failed: %v\n", err)
		return nil
	}
	c.printf("Signed out.\n")
	return nil
}

func splitCommand(line string) (cmd, arg string) {
	cmd, arg, _ = strings.Cut(strings.TrimSpace(line), " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}
