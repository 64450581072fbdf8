package chat

import (
	"strings"

	"github.com/kailas-cloud/duet/internal/domain"
)

// Route names the dispatch path chosen for a request.
type Route string

const (
	// RouteEmptyInput rejects an empty message.
	RouteEmptyInput Route = "empty_input"
	// RouteInputTooLong rejects an oversized message.
	RouteInputTooLong Route = "input_too_long"
	// RouteInvalidInputType rejects a non-text message.
	RouteInvalidInputType Route = "invalid_input_type"
	// RouteFarewell answers the farewell command with one simple-model call.
	RouteFarewell Route = "farewell"
	// RouteEscalate runs the simple -> reasoned -> simple pipeline.
	RouteEscalate Route = "escalate"
	// RouteDocument answers over the selected document with one simple-model call.
	RouteDocument Route = "document"
	// RouteLink answers over the selected link with one simple-model call.
	RouteLink Route = "link"
	// RouteDirect answers the message (plus memories) with one simple-model call.
	RouteDirect Route = "direct"
)

type rule struct {
	route Route
	match func(r *Request, maxChars int) bool
}

// decisionTable is evaluated top to bottom, first match wins.
var decisionTable = []rule{
	{RouteEmptyInput, func(r *Request, _ int) bool { return r.Message == "" }},
	{RouteInputTooLong, func(r *Request, maxChars int) bool { return r.Length() > maxChars }},
	{RouteInvalidInputType, func(r *Request, _ int) bool { return !r.Textual }},
	{RouteFarewell, func(r *Request, _ int) bool { return strings.ToLower(r.Message) == FarewellCommand }},
	{RouteEscalate, func(r *Request, _ int) bool { return r.Reasoning }},
	{RouteDocument, func(r *Request, _ int) bool { return r.HasDocument() }},
	{RouteLink, func(r *Request, _ int) bool { return r.HasLink() }},
	{RouteDirect, func(_ *Request, _ int) bool { return true }},
}

// Classify picks the route for a request. maxChars <= 0 uses DefaultMaxMessageChars.
func Classify(r *Request, maxChars int) Route {
	if maxChars <= 0 {
		maxChars = DefaultMaxMessageChars
	}
	for _, rl := range decisionTable {
		if rl.match(r, maxChars) {
			return rl.route
		}
	}
	return RouteDirect
}

// Err returns the validation error for rejecting routes and nil otherwise.
func (r Route) Err() error {
	switch r {
	case RouteEmptyInput:
		return domain.ErrEmptyInput
	case RouteInputTooLong:
		return domain.ErrInputTooLong
	case RouteInvalidInputType:
		return domain.ErrInvalidInputType
	default:
		return nil
	}
}
