package github

import "net/url"

// Relay rewrites the URL of an asset transfer so it is forwarded by an
// intermediary such as a CORS relay. API metadata calls are never relayed.
type Relay interface {
	Rewrite(target string) string
	// Direct reports whether Rewrite is the identity.
	Direct() bool
}

// DirectRelay sends requests straight to their target.
type DirectRelay struct{}

func (DirectRelay) Rewrite(target string) string { return target }
func (DirectRelay) Direct() bool                 { return true }

// PrefixRelay forwards through a relay that takes the escaped target URL
// appended to a fixed prefix, e.g. "https://corsproxy.io/?url=".
type PrefixRelay string

func (p PrefixRelay) Rewrite(target string) string {
	if p == "" {
		return target
	}
	return string(p) + url.QueryEscape(target)
}

func (p PrefixRelay) Direct() bool { return p == "" }

// RelayFor returns PrefixRelay(prefix), or DirectRelay when prefix is empty.
func RelayFor(prefix string) Relay {
	if prefix == "" {
		return DirectRelay{}
	}
	return PrefixRelay(prefix)
}
