package utils

import (
	"errors"
	"testing"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestCloseHelpers(t *testing.T) {
	ok := &closer{}
	Close(ok)
	if !ok.closed {
		t.Error("Close() did not close")
	}

	failing := &closer{err: errors.New("boom")}
	CloseLogged(failing, "redis", logger.Nop())
	if !failing.closed {
		t.Error("CloseLogged() did not close")
	}
}
