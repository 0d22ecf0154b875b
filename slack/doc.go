// Package slack adapts the Slack Web API to the router's Messenger and
// Downloader interfaces. It is a thin boundary; everything testable lives
// behind the interfaces it implements.
package slack
