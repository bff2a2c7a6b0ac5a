package tapclient

import (
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Navigator performs the final redirect. Replace must not leave a history
// entry behind, mirroring a location replace in a browser.
type Navigator interface {
	Replace(target string) error
}

// WriterNavigator "navigates" by printing the target, one per line.
type WriterNavigator struct {
	W io.Writer
}

func (n WriterNavigator) Replace(target string) error {
	_, err := fmt.Fprintln(n.W, target)
	return err
}

// navigable reports whether target is an absolute http or https URL.
// Stored URLs are returned verbatim by the server, so this is the only
// place a javascript: or data: URL gets stopped.
func navigable(target string) bool {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	}
	return false
}
