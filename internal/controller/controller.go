// Package controller maps input events onto annotation session commands and renders the session
// state as text. It stands in for a graphical front end: every command of the event script
// corresponds to a pointer, key, list or button event.
package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sensorable/bblabel"
	"go.uber.org/zap"
)

// Action is a session command bound to a key.
type Action int

// The actions that keys can be bound to.
const (
	NoAction Action = iota
	CancelBox
	PrevImage
	NextImage
)

// KeyMap binds key names to actions.
type KeyMap map[string]Action

// DefaultKeyMap binds Escape and s to cancelling the current box and a/d to the previous and next
// image.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		"Escape": CancelBox,
		"s":      CancelBox,
		"a":      PrevImage,
		"d":      NextImage,
	}
}

// Session is the part of *bblabel.Session the controller drives.
type Session interface {
	LoadCategory(category string) error
	PointerDown(x, y int) (bblabel.BoundingBox, bool)
	PointerMove(x, y int)
	Cancel() bool
	DeleteBox(index int) bool
	ClearBoxes()
	Prev() error
	Next() error
	Goto(index int) (bool, error)
	Boxes() []bblabel.BoundingBox
	PreviewRect() (bblabel.BoundingBox, bool)
	Crosshair() (x, y int, ok bool)
	Progress() (cur, total int)
}

// ErrSyntax is returned for script lines that are not valid commands.
var ErrSyntax = errors.New("invalid command")

// Controller feeds events to a session and renders it to out.
type Controller struct {
	session  Session
	keys     KeyMap
	out      io.Writer
	log      *zap.Logger
	selected int // Selected box list entry, -1 if none.
}

// Option configures a Controller.
type Option func(*Controller)

// WithKeyMap replaces the default key bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(c *Controller) { c.keys = keys }
}

// WithLogger sets the logger for reported command failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.log = logger }
}

// New returns a controller for session that renders to out.
func New(session Session, out io.Writer, opts ...Option) *Controller {
	c := &Controller{
		session:  session,
		keys:     DefaultKeyMap(),
		out:      out,
		log:      zap.NewNop(),
		selected: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key handles a key press. Unbound keys are ignored.
func (c *Controller) Key(name string) error {
	switch c.keys[name] {
	case CancelBox:
		c.session.Cancel()
	case PrevImage:
		c.selected = -1
		return c.session.Prev()
	case NextImage:
		c.selected = -1
		return c.session.Next()
	}
	return nil
}

// Select marks a box list entry as selected. Out of range indices clear the selection.
func (c *Controller) Select(index int) {
	if index < 0 || index >= len(c.session.Boxes()) {
		index = -1
	}
	c.selected = index
}

// Exec runs one script line. Errors of type *bblabel.WriteError mean labels were not saved; all
// other errors leave the session usable.
func (c *Controller) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "category":
		if len(args) != 1 {
			return fmt.Errorf("%w: usage: category NAME", ErrSyntax)
		}
		c.selected = -1
		if err := c.session.LoadCategory(args[0]); err != nil {
			return err
		}
	case "click", "move":
		xy, err := ints(args, 2)
		if err != nil {
			return fmt.Errorf("%w: usage: %s X Y", ErrSyntax, cmd)
		}
		if cmd == "move" {
			c.session.PointerMove(xy[0], xy[1])
			return nil
		}
		c.session.PointerDown(xy[0], xy[1])
	case "key":
		if len(args) != 1 {
			return fmt.Errorf("%w: usage: key NAME", ErrSyntax)
		}
		if err := c.Key(args[0]); err != nil {
			return err
		}
	case "select":
		i, err := ints(args, 1)
		if err != nil {
			return fmt.Errorf("%w: usage: select INDEX", ErrSyntax)
		}
		c.Select(i[0])
	case "delete":
		if c.session.DeleteBox(c.selected) {
			c.selected = -1
		}
	case "clear":
		c.selected = -1
		c.session.ClearBoxes()
	case "prev":
		c.selected = -1
		if err := c.session.Prev(); err != nil {
			return err
		}
	case "next":
		c.selected = -1
		if err := c.session.Next(); err != nil {
			return err
		}
	case "goto":
		i, err := ints(args, 1)
		if err != nil {
			// A non-numeric index is ignored like an out of range one.
			return nil
		}
		moved, err := c.session.Goto(i[0])
		if err != nil {
			return err
		}
		if moved {
			c.selected = -1
		}
	case "show":
	default:
		return fmt.Errorf("%w: %q", ErrSyntax, cmd)
	}

	c.Render()
	return nil
}

// Run executes the script read from r line by line until it ends, ctx is done or labels cannot be
// saved. Other failures are reported to out and skipped.
func (c *Controller) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.Exec(scanner.Text())
		if err == nil {
			continue
		}
		var writeErr *bblabel.WriteError
		if errors.As(err, &writeErr) {
			return err
		}
		c.log.Warn("Command failed", zap.Int("line", n), zap.Error(err))
		fmt.Fprintf(c.out, "error: line %d: %v\n", n, err)
	}
	return scanner.Err()
}

// Render writes the progress, the box list with positional colors, the preview rectangle and the
// crosshair position.
func (c *Controller) Render() {
	cur, total := c.session.Progress()
	fmt.Fprintf(c.out, "progress %04d/%04d\n", cur, total)

	for i, b := range c.session.Boxes() {
		marker := " "
		if i == c.selected {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s%d %s %s\n", marker, i, bblabel.Color(i), b)
	}

	if r, ok := c.session.PreviewRect(); ok {
		fmt.Fprintf(c.out, "preview %s %s\n", bblabel.Color(len(c.session.Boxes())), r)
	}
	if x, y, ok := c.session.Crosshair(); ok {
		fmt.Fprintf(c.out, "x: %d, y: %d\n", x, y)
	}
}

// ints parses exactly n integer arguments.
func ints(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	values := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
