package bot

import (
	"strconv"
	"strings"

	"sjsage522/pspricebot/internal/storefront"
)

// RouteKind is what an inbound message asks for
type RouteKind int

const (
	RouteText RouteKind = iota
	RouteStart
	RouteHelp
	RouteProduct
	RouteCategory
	RouteRates
	RouteCancel
	RouteUnknownCommand
)

// Route is a classified inbound message
type Route struct {
	Kind RouteKind
	// Link is the storefront link, empty when a wizard should ask for it
	Link string
	// Limit is the requested category size, 0 when not given
	Limit int
	// Command is the bare command name for commands
	Command string
}

// Classify routes text. Commands may carry a @botname suffix. Free text with
// a storefront link behaves like the matching command.
func Classify(text string) Route {
	text = strings.TrimSpace(text)
	if text == "" {
		return Route{Kind: RouteText}
	}

	if strings.HasPrefix(text, "/") {
		cmd, args := parseCommand(text)
		route := Route{Command: cmd}
		switch cmd {
		case "start":
			route.Kind = RouteStart
		case "help":
			route.Kind = RouteHelp
		case "p", "product":
			route.Kind = RouteProduct
			if len(args) > 0 {
				route.Link = args[0]
			}
		case "cat", "category":
			route.Kind = RouteCategory
			for _, arg := range args {
				if n, err := strconv.Atoi(arg); err == nil && n > 0 {
					route.Limit = n
				} else if route.Link == "" {
					route.Link = arg
				}
			}
		case "rates":
			route.Kind = RouteRates
		case "cancel":
			route.Kind = RouteCancel
		default:
			route.Kind = RouteUnknownCommand
		}
		return route
	}

	switch storefront.ClassifyLink(text) {
	case storefront.LinkProduct:
		return Route{Kind: RouteProduct, Link: text}
	case storefront.LinkCategory:
		route := Route{Kind: RouteCategory, Link: text}
		fields := strings.Fields(text)
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil && n > 0 {
			route.Limit = n
		}
		return route
	}
	return Route{Kind: RouteText}
}

func parseCommand(text string) (string, []string) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return "", nil
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if idx := strings.Index(cmd, "@"); idx > 0 {
		cmd = cmd[:idx]
	}
	cmd = strings.ToLower(cmd)
	if len(fields) == 1 {
		return cmd, nil
	}
	return cmd, fields[1:]
}
